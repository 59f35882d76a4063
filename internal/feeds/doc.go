// Package feeds downloads RSS and Atom documents and turns their entries into
// scoring candidates.
//
// Fetch performs one HTTP GET bounded by the configured timeout and parses the
// response with gofeed. A failure of the whole document is a single
// *FetchError. Individual entries that cannot be normalized are skipped and
// reported through Document.Skipped after iteration; they never abort the
// feed. Entry bodies are reduced from HTML to plain text with goquery, and
// short bodies can optionally be replaced by the page text extracted with
// go-readability.
package feeds
