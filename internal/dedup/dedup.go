package dedup

import (
	"context"
	"log/slog"

	"newsdiet/internal/logging"
	"newsdiet/internal/services"
)

// Lookup is the storage query the Deduplicator depends on.
type Lookup interface {
	ArticleExists(ctx context.Context, feedID int64, dedupKey string) (bool, error)
}

// Deduplicator decides whether entries are new for their feed.
type Deduplicator struct {
	store  Lookup
	cache  SeenCache
	logger *slog.Logger
}

// New constructs a Deduplicator. cache may be nil.
func New(store Lookup, cache SeenCache, logger *slog.Logger) *Deduplicator {
	return &Deduplicator{
		store:  store,
		cache:  cache,
		logger: logging.NewComponentLogger(logger, "dedup"),
	}
}

// IsNew derives the dedup key and reports whether no article with that key
// exists for feedID. Store failures are returned as storage errors; cache
// failures are logged and ignored.
func (d *Deduplicator) IsNew(ctx context.Context, feedID int64, link, guid string) (bool, string, error) {
	key, err := Key(feedID, link, guid)
	if err != nil {
		return false, "", services.Wrap(services.ErrValidation, "dedup", "key", "", err)
	}
	if d.cache != nil {
		seen, cacheErr := d.cache.Seen(ctx, key)
		switch {
		case cacheErr != nil:
			d.logger.Debug("seen cache lookup failed; using store",
				logging.String("dedup_key", key),
				logging.Error(cacheErr),
			)
		case seen:
			return false, key, nil
		}
	}
	exists, err := d.store.ArticleExists(ctx, feedID, key)
	if err != nil {
		return false, key, services.Wrap(services.ErrStorage, "dedup", "article exists", "", err)
	}
	if exists {
		d.Remember(ctx, key)
		return false, key, nil
	}
	return true, key, nil
}

// Remember records key in the seen-cache. It is a no-op without a cache.
func (d *Deduplicator) Remember(ctx context.Context, key string) {
	if d.cache == nil || key == "" {
		return
	}
	if err := d.cache.Remember(ctx, key); err != nil {
		d.logger.Debug("seen cache update failed",
			logging.String("dedup_key", key),
			logging.Error(err),
		)
	}
}
