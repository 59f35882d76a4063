package store_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"newsdiet/internal/store"
	"newsdiet/internal/testsupport"
)

func newArticle(feedID int64, key string, score int) store.NewArticle {
	return store.NewArticle{
		FeedID:      feedID,
		DedupKey:    key,
		URL:         "https://example.com/" + key,
		Title:       "Article " + key,
		Content:     "body of " + key,
		PublishedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Assessment: store.Assessment{
			Score:   score,
			Tags:    []string{"Python"},
			Quality: store.QualityMedium,
			Summary: "summary " + key,
			Hidden:  score < 5,
		},
	}
}

func TestOpenSeedsDefaultPreferences(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	prefs, err := st.GetPreferences(context.Background())
	if err != nil {
		t.Fatalf("GetPreferences failed: %v", err)
	}
	want := store.DefaultPreferences()
	if prefs.MinRelevanceScore != want.MinRelevanceScore || prefs.PruneAfterDays != want.PruneAfterDays {
		t.Fatalf("unexpected preferences: %+v", prefs)
	}
	if len(prefs.Interests) != 5 || prefs.Interests[0] != "Python" {
		t.Fatalf("unexpected interests: %v", prefs.Interests)
	}
	if len(prefs.Excludes) != 2 || prefs.Excludes[1] != "NFT" {
		t.Fatalf("unexpected excludes: %v", prefs.Excludes)
	}
}

func TestReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "newsdiet.db")
	st, err := store.OpenPath(ctx, path)
	if err != nil {
		t.Fatalf("OpenPath failed: %v", err)
	}
	if _, err := st.CreateFeed(ctx, "https://example.com/rss", "Example", true); err != nil {
		t.Fatalf("CreateFeed failed: %v", err)
	}
	st.Close()

	reopened, err := store.OpenPath(ctx, path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()
	feeds, err := reopened.ListFeeds(ctx, false)
	if err != nil {
		t.Fatalf("ListFeeds failed: %v", err)
	}
	if len(feeds) != 1 || feeds[0].Name != "Example" {
		t.Fatalf("expected persisted feed, got %#v", feeds)
	}
}

func TestCreateFeedRejectsDuplicateURL(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	testsupport.MustCreateFeed(t, st, "https://example.com/rss", "Example")

	_, err := st.CreateFeed(context.Background(), "https://example.com/rss", "Again", true)
	if !errors.Is(err, store.ErrFeedExists) {
		t.Fatalf("expected ErrFeedExists, got %v", err)
	}
}

func TestFeedHealthTracking(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	feed := testsupport.MustCreateFeed(t, st, "https://example.com/rss", "Example")

	if err := st.RecordFeedFailure(ctx, feed.ID, "http 500"); err != nil {
		t.Fatalf("RecordFeedFailure failed: %v", err)
	}
	if err := st.RecordFeedFailure(ctx, feed.ID, "http 502"); err != nil {
		t.Fatalf("RecordFeedFailure failed: %v", err)
	}
	got, err := st.GetFeed(ctx, feed.ID)
	if err != nil {
		t.Fatalf("GetFeed failed: %v", err)
	}
	if got.ErrorCount != 2 || got.LastError != "http 502" || !got.Failing() {
		t.Fatalf("unexpected failing feed state: %+v", got)
	}

	if err := st.RecordFeedSuccess(ctx, feed.ID); err != nil {
		t.Fatalf("RecordFeedSuccess failed: %v", err)
	}
	got, err = st.GetFeed(ctx, feed.ID)
	if err != nil {
		t.Fatalf("GetFeed failed: %v", err)
	}
	if got.ErrorCount != 0 || got.LastError != "" || got.LastFetchedAt == nil {
		t.Fatalf("expected healthy feed after success, got %+v", got)
	}
}

func TestUpdateFeedTogglesEnabled(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	feed := testsupport.MustCreateFeed(t, st, "https://example.com/rss", "Example")

	disabled := false
	name := "Renamed"
	updated, err := st.UpdateFeed(ctx, feed.ID, store.FeedUpdate{Name: &name, Enabled: &disabled})
	if err != nil {
		t.Fatalf("UpdateFeed failed: %v", err)
	}
	if updated.Enabled || updated.Name != "Renamed" {
		t.Fatalf("unexpected feed after update: %+v", updated)
	}
	enabled, err := st.ListFeeds(ctx, true)
	if err != nil {
		t.Fatalf("ListFeeds failed: %v", err)
	}
	if len(enabled) != 0 {
		t.Fatalf("expected no enabled feeds, got %d", len(enabled))
	}
	if _, err := st.UpdateFeed(ctx, 999, store.FeedUpdate{Name: &name}); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing feed, got %v", err)
	}
}

func TestInsertArticleIfAbsentIgnoresDuplicates(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	feed := testsupport.MustCreateFeed(t, st, "https://example.com/rss", "Example")

	id, inserted, err := st.InsertArticleIfAbsent(ctx, newArticle(feed.ID, "a", 7))
	if err != nil || !inserted || id == 0 {
		t.Fatalf("first insert: id=%d inserted=%v err=%v", id, inserted, err)
	}
	id2, inserted, err := st.InsertArticleIfAbsent(ctx, newArticle(feed.ID, "a", 9))
	if err != nil {
		t.Fatalf("duplicate insert returned error: %v", err)
	}
	if inserted || id2 != 0 {
		t.Fatalf("expected duplicate to be skipped, got id=%d inserted=%v", id2, inserted)
	}
	exists, err := st.ArticleExists(ctx, feed.ID, "a")
	if err != nil || !exists {
		t.Fatalf("ArticleExists: exists=%v err=%v", exists, err)
	}

	article, err := st.GetArticle(ctx, id)
	if err != nil {
		t.Fatalf("GetArticle failed: %v", err)
	}
	if article.Score != 7 || article.FeedName != "Example" || len(article.Tags) != 1 {
		t.Fatalf("duplicate insert changed stored article: %+v", article)
	}
}

func TestInsertArticleRejectsOutOfRangeScore(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	feed := testsupport.MustCreateFeed(t, st, "https://example.com/rss", "Example")

	if _, _, err := st.InsertArticleIfAbsent(context.Background(), newArticle(feed.ID, "a", 11)); err == nil {
		t.Fatal("expected score above 10 to be rejected")
	}
	bad := newArticle(feed.ID, "b", 5)
	bad.Quality = "superb"
	if _, _, err := st.InsertArticleIfAbsent(context.Background(), bad); err == nil {
		t.Fatal("expected unknown quality to be rejected")
	}
}

func TestListArticlesFiltersHidden(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	feed := testsupport.MustCreateFeed(t, st, "https://example.com/rss", "Example")

	for i, score := range []int{2, 6, 9} {
		article := newArticle(feed.ID, string(rune('a'+i)), score)
		article.PublishedAt = article.PublishedAt.Add(time.Duration(i) * time.Hour)
		if _, _, err := st.InsertArticleIfAbsent(ctx, article); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}

	visible, err := st.ListArticles(ctx, store.ArticleFilter{})
	if err != nil {
		t.Fatalf("ListArticles failed: %v", err)
	}
	if len(visible) != 2 {
		t.Fatalf("expected 2 visible articles, got %d", len(visible))
	}
	if visible[0].Score != 9 {
		t.Fatalf("expected newest first, got score %d", visible[0].Score)
	}

	all, err := st.ListArticles(ctx, store.ArticleFilter{ShowAll: true})
	if err != nil {
		t.Fatalf("ListArticles show all failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 articles with ShowAll, got %d", len(all))
	}

	if err := st.SetRead(ctx, visible[0].ID, true); err != nil {
		t.Fatalf("SetRead failed: %v", err)
	}
	unread, err := st.ListArticles(ctx, store.ArticleFilter{UnreadOnly: true})
	if err != nil {
		t.Fatalf("ListArticles unread failed: %v", err)
	}
	if len(unread) != 1 || unread[0].Score != 6 {
		t.Fatalf("unexpected unread list: %+v", unread)
	}
}

func TestRecomputeHiddenFollowsThreshold(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	feed := testsupport.MustCreateFeed(t, st, "https://example.com/rss", "Example")
	for i, score := range []int{3, 6, 8} {
		if _, _, err := st.InsertArticleIfAbsent(ctx, newArticle(feed.ID, string(rune('a'+i)), score)); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	changed, err := st.RecomputeHidden(ctx, 7)
	if err != nil {
		t.Fatalf("RecomputeHidden failed: %v", err)
	}
	if changed != 1 {
		t.Fatalf("expected one flag change, got %d", changed)
	}
	visible, err := st.ListArticles(ctx, store.ArticleFilter{})
	if err != nil {
		t.Fatalf("ListArticles failed: %v", err)
	}
	if len(visible) != 1 || visible[0].Score != 8 {
		t.Fatalf("expected only score 8 visible, got %+v", visible)
	}
}

func TestPruneKeepsStarred(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	feed := testsupport.MustCreateFeed(t, st, "https://example.com/rss", "Example")

	oldID, _, err := st.InsertArticleIfAbsent(ctx, newArticle(feed.ID, "old", 6))
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	starredID, _, err := st.InsertArticleIfAbsent(ctx, newArticle(feed.ID, "starred", 6))
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := st.SetStarred(ctx, starredID, true); err != nil {
		t.Fatalf("SetStarred failed: %v", err)
	}

	removed, err := st.PruneArticles(ctx, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("PruneArticles failed: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected one pruned article, got %d", removed)
	}
	if _, err := st.GetArticle(ctx, oldID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected pruned article gone, got %v", err)
	}
	if _, err := st.GetArticle(ctx, starredID); err != nil {
		t.Fatalf("expected starred article kept: %v", err)
	}
}

func TestPruneSkipsRecentArticles(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	feed := testsupport.MustCreateFeed(t, st, "https://example.com/rss", "Example")
	if _, _, err := st.InsertArticleIfAbsent(ctx, newArticle(feed.ID, "fresh", 6)); err != nil {
		t.Fatalf("insert: %v", err)
	}
	removed, err := st.PruneArticles(ctx, time.Now().AddDate(0, 0, -30))
	if err != nil {
		t.Fatalf("PruneArticles failed: %v", err)
	}
	if removed != 0 {
		t.Fatalf("expected nothing pruned, got %d", removed)
	}
}

func TestDeleteFeedOrphansOrCascades(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	kept := testsupport.MustCreateFeed(t, st, "https://example.com/a", "A")
	keptArticle, _, err := st.InsertArticleIfAbsent(ctx, newArticle(kept.ID, "a", 6))
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	removed, err := st.DeleteFeed(ctx, kept.ID, false)
	if err != nil {
		t.Fatalf("DeleteFeed failed: %v", err)
	}
	if removed != 0 {
		t.Fatalf("expected no articles removed without cascade, got %d", removed)
	}
	orphan, err := st.GetArticle(ctx, keptArticle)
	if err != nil {
		t.Fatalf("expected orphaned article to remain: %v", err)
	}
	if orphan.FeedID != 0 || orphan.FeedName != "" {
		t.Fatalf("expected orphaned article to lose its feed, got %+v", orphan)
	}

	cascaded := testsupport.MustCreateFeed(t, st, "https://example.com/b", "B")
	gone, _, err := st.InsertArticleIfAbsent(ctx, newArticle(cascaded.ID, "b", 6))
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	removed, err = st.DeleteFeed(ctx, cascaded.ID, true)
	if err != nil {
		t.Fatalf("DeleteFeed cascade failed: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected one article removed, got %d", removed)
	}
	if _, err := st.GetArticle(ctx, gone); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected cascaded article gone, got %v", err)
	}
	if _, err := st.DeleteFeed(ctx, cascaded.ID, true); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound deleting twice, got %v", err)
	}
}

func TestUpdateAssessmentAndRescoreTargets(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	feed := testsupport.MustCreateFeed(t, st, "https://example.com/rss", "Example")
	id, _, err := st.InsertArticleIfAbsent(ctx, newArticle(feed.ID, "a", 2))
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	targets, err := st.RescoreTargets(ctx, feed.ID)
	if err != nil {
		t.Fatalf("RescoreTargets failed: %v", err)
	}
	if len(targets) != 1 || targets[0].ID != id || targets[0].Content != "body of a" {
		t.Fatalf("unexpected targets: %+v", targets)
	}

	err = st.UpdateAssessment(ctx, id, store.Assessment{
		Score:   10,
		Tags:    []string{"AI", "DevOps", "Python"},
		Quality: store.QualityHigh,
		Summary: "rescored",
	})
	if err != nil {
		t.Fatalf("UpdateAssessment failed: %v", err)
	}
	article, err := st.GetArticle(ctx, id)
	if err != nil {
		t.Fatalf("GetArticle failed: %v", err)
	}
	if article.Score != 10 || article.Quality != store.QualityHigh || article.Hidden || len(article.Tags) != 3 {
		t.Fatalf("unexpected rescored article: %+v", article)
	}
}

func TestUpdatePreferencesValidatesRanges(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	prefs := store.DefaultPreferences()
	prefs.PruneAfterDays = 0
	if _, err := st.UpdatePreferences(ctx, prefs); err == nil {
		t.Fatal("expected prune_after_days=0 to be rejected")
	}
	prefs.PruneAfterDays = 10
	prefs.MinRelevanceScore = 11
	if _, err := st.UpdatePreferences(ctx, prefs); err == nil {
		t.Fatal("expected threshold above 10 to be rejected")
	}

	prefs.MinRelevanceScore = 7
	prefs.Interests = []string{"Go", "Kubernetes"}
	prefs.Excludes = nil
	stored, err := st.UpdatePreferences(ctx, prefs)
	if err != nil {
		t.Fatalf("UpdatePreferences failed: %v", err)
	}
	if stored.MinRelevanceScore != 7 || stored.PruneAfterDays != 10 {
		t.Fatalf("unexpected stored preferences: %+v", stored)
	}
	if len(stored.Interests) != 2 || len(stored.Excludes) != 0 {
		t.Fatalf("unexpected stored lists: %+v", stored)
	}
}

func TestStatsCountsState(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	feed := testsupport.MustCreateFeed(t, st, "https://example.com/rss", "Example")
	if err := st.RecordFeedFailure(ctx, feed.ID, "boom"); err != nil {
		t.Fatalf("RecordFeedFailure: %v", err)
	}
	for i, score := range []int{1, 8} {
		if _, _, err := st.InsertArticleIfAbsent(ctx, newArticle(feed.ID, string(rune('a'+i)), score)); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	stats, err := st.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Feeds != 1 || stats.FailingFeeds != 1 || stats.Articles != 2 || stats.Hidden != 1 || stats.Unread != 2 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestOpenPathReopenKeepsDataAndRejectsNewerSchema(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "newsdiet.db")

	st, err := store.OpenPath(ctx, path)
	if err != nil {
		t.Fatalf("OpenPath: %v", err)
	}
	if _, err := st.CreateFeed(ctx, "https://example.com/rss", "Example", true); err != nil {
		t.Fatalf("CreateFeed: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	st, err = store.OpenPath(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	feeds, err := st.ListFeeds(ctx, false)
	if err != nil {
		t.Fatalf("ListFeeds: %v", err)
	}
	if len(feeds) != 1 {
		t.Fatalf("expected the feed to survive a reopen, got %d", len(feeds))
	}
	_ = st.Close()

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	if _, err := db.Exec("PRAGMA user_version = 99"); err != nil {
		t.Fatalf("bump user_version: %v", err)
	}
	_ = db.Close()

	if _, err := store.OpenPath(ctx, path); !errors.Is(err, store.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}
