package main

import (
	"context"

	"newsdiet/internal/api"
	"newsdiet/internal/config"
	"newsdiet/internal/ingest"
	"newsdiet/internal/ipc"
	"newsdiet/internal/logging"
	"newsdiet/internal/store"
)

// library is the feed, article, and preference surface shared by the
// daemon connection and direct database access.
type library interface {
	ListArticles(ctx context.Context, query api.ArticleQuery) ([]api.Article, error)
	MarkRead(ctx context.Context, id int64, read bool) (api.Article, error)
	SetStarred(ctx context.Context, id int64, starred bool) (api.Article, error)
	ClearArticles(ctx context.Context) (int64, error)
	ListFeeds(ctx context.Context) ([]api.Feed, error)
	AddFeed(ctx context.Context, req api.CreateFeedRequest) (api.Feed, error)
	UpdateFeed(ctx context.Context, id int64, req api.UpdateFeedRequest) (api.Feed, error)
	RemoveFeed(ctx context.Context, id int64) (int64, error)
	ImportFeeds(ctx context.Context, entries []api.CreateFeedRequest) (api.ImportReport, error)
	Preferences(ctx context.Context) (api.Preferences, error)
	SetPreferences(ctx context.Context, prefs api.Preferences) (api.Preferences, error)
}

// withLibrary runs fn against the daemon when one answers, otherwise
// against the database.
func (c *commandContext) withLibrary(fn func(library) error) error {
	client, ok, err := c.dialDaemon()
	if err != nil {
		return err
	}
	if ok {
		defer client.Close()
		return fn(&ipcLibrary{client: client})
	}
	rt, err := openLocal(c.configValue())
	if err != nil {
		return err
	}
	defer rt.Close()
	return fn(&storeLibrary{svc: rt.service})
}

// --- IPC adapter ---

type ipcLibrary struct {
	client *ipc.Client
}

func (l *ipcLibrary) ListArticles(_ context.Context, query api.ArticleQuery) ([]api.Article, error) {
	return l.client.ArticleList(query)
}

func (l *ipcLibrary) MarkRead(_ context.Context, id int64, read bool) (api.Article, error) {
	return l.client.ArticleRead(id, read)
}

func (l *ipcLibrary) SetStarred(_ context.Context, id int64, starred bool) (api.Article, error) {
	return l.client.ArticleStar(id, starred)
}

func (l *ipcLibrary) ClearArticles(context.Context) (int64, error) {
	return l.client.ArticleClear()
}

func (l *ipcLibrary) ListFeeds(context.Context) ([]api.Feed, error) {
	return l.client.FeedList()
}

func (l *ipcLibrary) AddFeed(_ context.Context, req api.CreateFeedRequest) (api.Feed, error) {
	return l.client.FeedAdd(req)
}

func (l *ipcLibrary) UpdateFeed(_ context.Context, id int64, req api.UpdateFeedRequest) (api.Feed, error) {
	return l.client.FeedUpdate(id, req)
}

func (l *ipcLibrary) RemoveFeed(_ context.Context, id int64) (int64, error) {
	return l.client.FeedRemove(id)
}

func (l *ipcLibrary) ImportFeeds(_ context.Context, entries []api.CreateFeedRequest) (api.ImportReport, error) {
	return l.client.FeedImport(entries)
}

func (l *ipcLibrary) Preferences(context.Context) (api.Preferences, error) {
	return l.client.Preferences()
}

func (l *ipcLibrary) SetPreferences(_ context.Context, prefs api.Preferences) (api.Preferences, error) {
	return l.client.SetPreferences(prefs)
}

// --- Store adapter ---

type storeLibrary struct {
	svc *api.Service
}

func (l *storeLibrary) ListArticles(ctx context.Context, query api.ArticleQuery) ([]api.Article, error) {
	return l.svc.ListArticles(ctx, query)
}

func (l *storeLibrary) MarkRead(ctx context.Context, id int64, read bool) (api.Article, error) {
	return l.svc.MarkRead(ctx, id, read)
}

func (l *storeLibrary) SetStarred(ctx context.Context, id int64, starred bool) (api.Article, error) {
	return l.svc.SetStarred(ctx, id, starred)
}

func (l *storeLibrary) ClearArticles(ctx context.Context) (int64, error) {
	resp, err := l.svc.ClearArticles(ctx)
	return resp.Removed, err
}

func (l *storeLibrary) ListFeeds(ctx context.Context) ([]api.Feed, error) {
	return l.svc.ListFeeds(ctx)
}

func (l *storeLibrary) AddFeed(ctx context.Context, req api.CreateFeedRequest) (api.Feed, error) {
	return l.svc.AddFeed(ctx, req)
}

func (l *storeLibrary) UpdateFeed(ctx context.Context, id int64, req api.UpdateFeedRequest) (api.Feed, error) {
	return l.svc.UpdateFeed(ctx, id, req)
}

func (l *storeLibrary) RemoveFeed(ctx context.Context, id int64) (int64, error) {
	resp, err := l.svc.RemoveFeed(ctx, id)
	return resp.Removed, err
}

func (l *storeLibrary) ImportFeeds(ctx context.Context, entries []api.CreateFeedRequest) (api.ImportReport, error) {
	return l.svc.ImportFeeds(ctx, entries)
}

func (l *storeLibrary) Preferences(ctx context.Context) (api.Preferences, error) {
	return l.svc.Preferences(ctx)
}

func (l *storeLibrary) SetPreferences(ctx context.Context, prefs api.Preferences) (api.Preferences, error) {
	return l.svc.SetPreferences(ctx, prefs)
}

// localRuntime is the in-process stack used when no daemon is running.
type localRuntime struct {
	store   *store.Store
	orch    *ingest.Orchestrator
	service *api.Service
}

func openLocal(cfg *config.Config) (*localRuntime, error) {
	st, err := store.Open(cfg)
	if err != nil {
		return nil, err
	}
	// Logs go to stderr so command output stays parseable.
	logger, err := logging.New(logging.Options{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stderr"},
	})
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	orch := ingest.NewFromConfig(cfg, st, logger)
	return &localRuntime{
		store:   st,
		orch:    orch,
		service: api.NewService(st, orch),
	}, nil
}

func (rt *localRuntime) Close() error {
	err := rt.orch.Close()
	if closeErr := rt.store.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	return err
}
