package feeds

import (
	"fmt"

	"newsdiet/internal/services"
)

// FetchError reports that a whole feed document could not be retrieved or
// parsed. It matches services.ErrFeedFetch under errors.Is.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch feed %s: http %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch feed %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() []error {
	if e.Err == nil {
		return []error{services.ErrFeedFetch}
	}
	return []error{services.ErrFeedFetch, e.Err}
}

// EntryError describes one feed entry that was skipped during normalization.
type EntryError struct {
	Index  int
	Title  string
	Reason string
}

func (e EntryError) Error() string {
	if e.Title != "" {
		return fmt.Sprintf("entry %d (%q): %s", e.Index, e.Title, e.Reason)
	}
	return fmt.Sprintf("entry %d: %s", e.Index, e.Reason)
}
