// Package preferences resolves the reader's topic preferences into an
// immutable value passed explicitly to scoring.
package preferences

import (
	"context"
	"slices"

	"newsdiet/internal/services"
	"newsdiet/internal/store"
)

// Source reads the stored preference singleton.
type Source interface {
	GetPreferences(ctx context.Context) (store.Preferences, error)
}

// Context is an immutable snapshot of the preferences. The zero value has no
// interests and a threshold of 0.
type Context struct {
	interests []string
	excludes  []string
	threshold int
}

// NewContext builds a snapshot from explicit values. Slices are copied.
func NewContext(interests, excludes []string, threshold int) Context {
	return Context{
		interests: slices.Clone(interests),
		excludes:  slices.Clone(excludes),
		threshold: threshold,
	}
}

// Interests returns a copy of the interest vocabulary.
func (c Context) Interests() []string { return slices.Clone(c.interests) }

// Excludes returns a copy of the excluded topics.
func (c Context) Excludes() []string { return slices.Clone(c.excludes) }

// Threshold is the minimum score for an article to be visible.
func (c Context) Threshold() int { return c.threshold }

// Hidden reports whether an article with score falls below the threshold.
func (c Context) Hidden(score int) bool {
	return score < c.threshold
}

// Resolver reads preferences fresh on every call.
type Resolver struct {
	source Source
}

// NewResolver constructs a Resolver over source.
func NewResolver(source Source) *Resolver {
	return &Resolver{source: source}
}

// Resolve returns the current preferences. Read failures are storage errors.
func (r *Resolver) Resolve(ctx context.Context) (Context, error) {
	prefs, err := r.source.GetPreferences(ctx)
	if err != nil {
		return Context{}, services.Wrap(services.ErrStorage, "preferences", "resolve", "", err)
	}
	return NewContext(prefs.Interests, prefs.Excludes, prefs.MinRelevanceScore), nil
}
