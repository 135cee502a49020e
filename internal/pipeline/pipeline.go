// Package pipeline runs one LinkedIn sync: acquire a source, extract posts and
// persist the feed document.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dpax/linkedin-feed/internal/app"
	"github.com/dpax/linkedin-feed/internal/config"
	"github.com/dpax/linkedin-feed/internal/entity"
	"github.com/dpax/linkedin-feed/internal/extract"
	"github.com/dpax/linkedin-feed/internal/feed"
	"github.com/dpax/linkedin-feed/internal/metrics"
	"github.com/dpax/linkedin-feed/internal/source"
)

// ErrNoPosts is returned when a run ends without any post to publish.
var ErrNoPosts = errors.New("no LinkedIn posts found")

var errNoPostURLs = errors.New("no post URLs found")

// RunRecorder stores finished runs.
type RunRecorder interface {
	Record(run *entity.Run) error
}

// Runner executes sync runs for a single configuration.
type Runner struct {
	config         *entity.Config
	scrapeFetcher  source.Fetcher
	webhookFetcher source.Fetcher
	history        RunRecorder
	metrics        *metrics.Recorder
	now            func() time.Time
	logger         *slog.Logger
}

// Option customizes a Runner.
type Option func(*Runner)

// WithFetchers replaces the network fetchers.
func WithFetchers(scrape, webhook source.Fetcher) Option {
	return func(r *Runner) {
		r.scrapeFetcher = scrape
		r.webhookFetcher = webhook
	}
}

// WithHistory records every run in h.
func WithHistory(h RunRecorder) Option {
	return func(r *Runner) { r.history = h }
}

// WithMetrics records every run in m and writes the configured textfile.
func WithMetrics(m *metrics.Recorder) Option {
	return func(r *Runner) { r.metrics = m }
}

// WithClock overrides the wall clock.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

func NewRunner(cfg *entity.Config, opts ...Option) *Runner {
	r := &Runner{
		config:         cfg,
		scrapeFetcher:  source.NewScrapeFetcher(cfg.Scrape.UserAgent),
		webhookFetcher: source.NewHTTPFetcher(),
		now:            time.Now,
		logger:         app.Logger(),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Run performs one sync. The returned run is always non-nil and describes
// the outcome, including failures.
func (r *Runner) Run(ctx context.Context) (*entity.Run, error) {
	run := &entity.Run{
		Mode:      r.config.Mode,
		StartedAt: r.now(),
	}

	var err error

	switch r.config.Mode {
	case entity.ModeScrape:
		err = r.syncScrape(ctx, run)
	case entity.ModeWebhook:
		err = r.syncWebhook(ctx, run)
	default:
		err = fmt.Errorf("unknown sync mode %q", r.config.Mode)
	}

	run.FinishedAt = r.now()

	if err != nil {
		run.Outcome = entity.OutcomeFailed
		run.Error = err.Error()
	}

	r.finish(run)

	return run, err
}

func (r *Runner) syncScrape(ctx context.Context, run *entity.Run) error {
	extractor := extract.NewScrapeExtractor(r.config.Scrape.PostPrefix, r.config.Limit)

	parse := func(content []byte) ([]entity.Post, error) {
		posts := extractor.Extract(string(content))

		if len(posts) == 0 {
			return nil, errNoPostURLs
		}

		return posts, nil
	}

	posts, used, err := source.Acquire(ctx, r.scrapeFetcher,
		source.ScrapeCandidates(r.config.Scrape.URLs), parse, r.acquireOptions())

	if err != nil {
		previous, readErr := feed.Read(r.config.Output)

		if readErr != nil || len(previous.Posts) == 0 {
			return fmt.Errorf("%w and no previous feed document to keep:\n%w", ErrNoPosts, err)
		}

		r.logger.Warn("No LinkedIn posts scraped, keeping the previous feed document",
			"output", r.config.Output,
			"posts", len(previous.Posts),
			"error", err,
		)

		run.Outcome = entity.OutcomeKeptPrevious
		run.Posts = len(previous.Posts)
		run.Error = err.Error()

		return nil
	}

	run.Source = used.URL

	return r.publish(run, posts)
}

func (r *Runner) syncWebhook(ctx context.Context, run *entity.Run) error {
	if strings.TrimSpace(r.config.Webhook.Endpoint) == "" {
		return config.ErrMissingWebhook
	}

	normalizer := extract.NewWebhookNormalizer(r.config.Limit, r.now)

	parse := func(content []byte) ([]entity.Post, error) {
		payload, err := extract.DecodePayload(content)

		if err != nil {
			return nil, err
		}

		return normalizer.Normalize(payload), nil
	}

	candidate := source.WebhookCandidate(r.config.Webhook, r.config.Limit)

	posts, used, err := source.Acquire(ctx, r.webhookFetcher,
		[]entity.Candidate{candidate}, parse, r.acquireOptions())

	if err != nil {
		return fmt.Errorf("could not fetch webhook posts: %w", err)
	}

	if len(posts) == 0 {
		return fmt.Errorf("%w in webhook response from %s", ErrNoPosts, used.URL)
	}

	run.Source = used.URL

	return r.publish(run, posts)
}

func (r *Runner) publish(run *entity.Run, posts []entity.Post) error {
	doc := feed.NewDocument(r.config.Source, posts, r.config.Limit, r.now())

	if err := feed.Write(r.config.Output, doc); err != nil {
		return fmt.Errorf("could not write feed document: %w", err)
	}

	run.Outcome = entity.OutcomeUpdated
	run.Posts = len(doc.Posts)

	// The JSON document is already in place; the Atom rendition is secondary.
	if r.config.AtomOutput != "" {
		if err := feed.WriteAtom(r.config.AtomOutput, doc, r.config.Limit); err != nil {
			r.logger.Error("Failed to write atom feed", "output", r.config.AtomOutput, "error", err)
		}
	}

	r.logger.Info("Feed document updated",
		"posts", run.Posts,
		"source", run.Source,
		"output", r.config.Output,
	)

	return nil
}

func (r *Runner) acquireOptions() source.Options {
	return source.Options{
		Timeout: r.config.Timeout,
		OnAttempt: func(a source.Attempt) {
			if a.Err != nil {
				r.logger.Warn("Source attempt failed", "source", a.URL, "error", a.Err)
			} else {
				r.logger.Debug("Source attempt succeeded", "source", a.URL)
			}

			if r.metrics != nil {
				r.metrics.RecordAttempt(r.config.Mode, a.Err)
			}
		},
	}
}

// finish stores the run. Bookkeeping failures are logged and never change
// the run outcome.
func (r *Runner) finish(run *entity.Run) {
	if r.history != nil {
		if err := r.history.Record(run); err != nil {
			r.logger.Error("Failed to record sync run", "error", err)
		}
	}

	if r.metrics != nil {
		r.metrics.RecordRun(run)

		if r.config.MetricsTextfile != "" {
			if err := r.metrics.WriteTextfile(r.config.MetricsTextfile); err != nil {
				r.logger.Error("Failed to write metrics", "error", err)
			}
		}
	}
}
