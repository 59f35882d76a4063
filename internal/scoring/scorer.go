package scoring

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"newsdiet/internal/config"
	"newsdiet/internal/logging"
	"newsdiet/internal/preferences"
	"newsdiet/internal/store"
)

// Options tunes retries and text limits.
type Options struct {
	MaxRetries           int
	Timeout              time.Duration
	FallbackSummaryChars int
	MaxSummarySentences  int
}

// OptionsFromConfig reads the [scoring] and [llm] sections.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		MaxRetries:           cfg.Scoring.MaxRetries,
		Timeout:              cfg.ModelTimeout(),
		FallbackSummaryChars: cfg.Scoring.FallbackSummaryChars,
		MaxSummarySentences:  cfg.Scoring.MaxSummarySentences,
	}
}

// Article is the text to score.
type Article struct {
	Title string
	Text  string
}

// Result is the outcome of scoring one article. Err is set only on degraded
// results and holds the last *ModelError.
type Result struct {
	Score    int
	Tags     []string
	Quality  string
	Summary  string
	Degraded bool
	Err      error
}

// Assessment converts the result into its stored form with the hidden flag
// resolved against prefs.
func (r Result) Assessment(prefs preferences.Context) store.Assessment {
	return store.Assessment{
		Score:    r.Score,
		Tags:     r.Tags,
		Quality:  r.Quality,
		Summary:  r.Summary,
		Degraded: r.Degraded,
		Hidden:   prefs.Hidden(r.Score),
	}
}

// Scorer turns model assessments into scores.
type Scorer struct {
	model  Model
	opts   Options
	logger *slog.Logger
}

// NewScorer constructs a Scorer.
func NewScorer(model Model, opts Options, logger *slog.Logger) *Scorer {
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.FallbackSummaryChars <= 0 {
		opts.FallbackSummaryChars = 280
	}
	if opts.MaxSummarySentences <= 0 {
		opts.MaxSummarySentences = 4
	}
	return &Scorer{
		model:  model,
		opts:   opts,
		logger: logging.NewComponentLogger(logger, "scoring"),
	}
}

// Score assesses article against prefs. It never fails: after the retry
// budget is spent, or when ctx is done, a degraded result is returned.
func (s *Scorer) Score(ctx context.Context, article Article, prefs preferences.Context) Result {
	req := Request{
		Title:     article.Title,
		Text:      article.Text,
		Interests: prefs.Interests(),
		Excludes:  prefs.Excludes(),
	}

	var lastErr error
	for attempt := 0; attempt <= s.opts.MaxRetries; attempt++ {
		if ctx.Err() != nil {
			if lastErr == nil {
				lastErr = &ModelError{Kind: KindUnavailable, Err: ctx.Err()}
			}
			break
		}
		assessment, err := s.assessOnce(ctx, req)
		if err == nil {
			return s.fromAssessment(assessment, req.Interests)
		}
		lastErr = err
		s.logger.Debug("model assessment failed",
			logging.Int("attempt", attempt+1),
			logging.Int("max_attempts", s.opts.MaxRetries+1),
			logging.Error(err),
		)
	}

	logging.WarnWithContext(s.logger, "article scored as degraded", "scoring_degraded",
		logging.String("title", article.Title),
		logging.Error(lastErr),
		logging.String(logging.FieldErrorHint, "check that the model server is reachable and the model follows the JSON format"),
		logging.String(logging.FieldImpact, "article stored with score 0 and an excerpt summary"),
	)
	return s.degraded(article, lastErr)
}

func (s *Scorer) assessOnce(ctx context.Context, req Request) (Assessment, error) {
	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}
	assessment, err := s.model.Assess(ctx, req)
	if err == nil {
		return assessment, nil
	}
	var modelErr *ModelError
	if errors.As(err, &modelErr) {
		return Assessment{}, modelErr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Assessment{}, &ModelError{Kind: KindTimeout, Err: err}
	}
	return Assessment{}, &ModelError{Kind: KindUnavailable, Err: err}
}

func (s *Scorer) fromAssessment(a Assessment, vocabulary []string) Result {
	tags := MatchTags(a.MatchedTags, vocabulary)
	if a.Excluded {
		tags = []string{}
	}
	summary := CleanSummary(a.Summary, s.opts.MaxSummarySentences)
	if summary == "" {
		summary = strings.TrimSpace(a.Summary)
	}
	return Result{
		Score:   Compute(len(tags), a.Quality, a.Excluded),
		Tags:    tags,
		Quality: a.Quality,
		Summary: summary,
	}
}

func (s *Scorer) degraded(article Article, err error) Result {
	summary := Excerpt(article.Text, s.opts.FallbackSummaryChars)
	if summary == "" {
		summary = Excerpt(article.Title, s.opts.FallbackSummaryChars)
	}
	return Result{
		Score:    DegradedScore,
		Tags:     []string{},
		Quality:  store.QualityLow,
		Summary:  summary,
		Degraded: true,
		Err:      err,
	}
}
