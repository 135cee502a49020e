package pipeline_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dpax/linkedin-feed/internal/config"
	"github.com/dpax/linkedin-feed/internal/entity"
	"github.com/dpax/linkedin-feed/internal/feed"
	"github.com/dpax/linkedin-feed/internal/history"
	"github.com/dpax/linkedin-feed/internal/metrics"
	"github.com/dpax/linkedin-feed/internal/pipeline"
	"github.com/dpax/linkedin-feed/internal/source"
	"github.com/mmcdole/gofeed"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockFetcher is a mock implementation of the source.Fetcher interface
type MockFetcher struct {
	FetchFunc func(ctx context.Context, candidate entity.Candidate) ([]byte, error)
}

func (m *MockFetcher) Fetch(ctx context.Context, candidate entity.Candidate) ([]byte, error) {
	return m.FetchFunc(ctx, candidate)
}

// MockHistory is a mock implementation of the RunRecorder interface
type MockHistory struct {
	RecordFunc func(run *entity.Run) error
}

func (m *MockHistory) Record(run *entity.Run) error {
	return m.RecordFunc(run)
}

func fixedNow() time.Time {
	return time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
}

func testConfig(t *testing.T, mode string) *entity.Config {
	t.Helper()

	cfg := config.Default()
	cfg.Mode = mode
	cfg.Output = filepath.Join(t.TempDir(), "assets", "data", "linkedin-posts.json")
	cfg.Timeout = 2 * time.Second

	return cfg
}

func failingFetcher(t *testing.T) *MockFetcher {
	return &MockFetcher{
		FetchFunc: func(_ context.Context, _ entity.Candidate) ([]byte, error) {
			t.Fatal("fetcher should not be called")
			return nil, nil
		},
	}
}

func TestRunner_ScrapeUpdatesDocument(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/blocked":
			w.WriteHeader(http.StatusForbidden)
		case "/empty":
			_, _ = w.Write([]byte("<html><body>Sign in to see posts</body></html>"))
		case "/posts":
			_, _ = w.Write([]byte(`<html><body>
<a href="https://www.linkedin.com/posts/dpax_great-update-activity-12345/">Great update</a>
<a href="https://www.linkedin.com/posts/dpax_great-update-activity-12345/?utm_source=share">Great update</a>
<p>https://www.linkedin.com/posts/dpax_new-office-activity-678</p>
</body></html>`))
		}
	}))
	defer server.Close()

	cfg := testConfig(t, entity.ModeScrape)
	cfg.Scrape.URLs = []string{server.URL + "/blocked", server.URL + "/empty", server.URL + "/posts"}
	cfg.AtomOutput = filepath.Join(filepath.Dir(cfg.Output), "linkedin-posts.atom")

	rec := metrics.NewRecorder()
	cfg.MetricsTextfile = filepath.Join(t.TempDir(), "linkedin_sync.prom")

	run, err := pipeline.NewRunner(cfg, pipeline.WithClock(fixedNow), pipeline.WithMetrics(rec)).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, entity.OutcomeUpdated, run.Outcome)
	assert.Equal(t, server.URL+"/posts", run.Source)
	assert.Equal(t, 2, run.Posts)

	doc, err := feed.Read(cfg.Output)
	require.NoError(t, err)

	assert.Equal(t, config.DefaultSource, doc.Source)
	assert.Equal(t, "2026-10-15T12:00:00.000Z", doc.LastSyncedAt)
	require.Len(t, doc.Posts, 2)
	assert.Equal(t, entity.Post{
		ID:    "12345",
		URL:   "https://www.linkedin.com/posts/dpax_great-update-activity-12345",
		Title: "Great update",
	}, doc.Posts[0])
	assert.Equal(t, "New office", doc.Posts[1].Title)

	atom, err := os.ReadFile(cfg.AtomOutput)
	require.NoError(t, err)

	parsed, err := gofeed.NewParser().ParseString(string(atom))
	require.NoError(t, err)
	assert.Len(t, parsed.Items, 2)

	assert.Equal(t, 2.0, testutil.ToFloat64(rec.LastRunAttempts.WithLabelValues(entity.ModeScrape, "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.LastRunAttempts.WithLabelValues(entity.ModeScrape, "ok")))
	assert.FileExists(t, cfg.MetricsTextfile)
}

func TestRunner_AtomFailureKeepsUpdatedDocument(t *testing.T) {
	cfg := testConfig(t, entity.ModeScrape)
	cfg.Scrape.URLs = []string{"https://a.example"}

	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("not a directory"), 0o644))
	cfg.AtomOutput = filepath.Join(blocker, "linkedin-posts.atom")

	fetcher := &MockFetcher{
		FetchFunc: func(_ context.Context, _ entity.Candidate) ([]byte, error) {
			return []byte("https://www.linkedin.com/posts/dpax_new-office-activity-678"), nil
		},
	}

	run, err := pipeline.NewRunner(cfg,
		pipeline.WithClock(fixedNow),
		pipeline.WithFetchers(fetcher, failingFetcher(t)),
	).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, entity.OutcomeUpdated, run.Outcome)
	assert.Equal(t, 1, run.Posts)
	assert.Empty(t, run.Error)

	doc, err := feed.Read(cfg.Output)
	require.NoError(t, err)
	require.Len(t, doc.Posts, 1)
	assert.Equal(t, "678", doc.Posts[0].ID)
	assert.NoFileExists(t, cfg.AtomOutput)
}

func TestRunner_ScrapeKeepsPreviousDocument(t *testing.T) {
	cfg := testConfig(t, entity.ModeScrape)
	cfg.Scrape.URLs = []string{"https://a.example", "https://b.example"}

	previous := feed.NewDocument(config.DefaultSource, []entity.Post{
		{ID: "1", URL: "https://www.linkedin.com/posts/dpax_a-activity-1", Title: "A"},
		{ID: "2", URL: "https://www.linkedin.com/posts/dpax_b-activity-2", Title: "B"},
		{ID: "3", URL: "https://www.linkedin.com/posts/dpax_c-activity-3", Title: "C"},
	}, 20, time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, feed.Write(cfg.Output, previous))

	before, err := os.ReadFile(cfg.Output)
	require.NoError(t, err)

	fetcher := &MockFetcher{
		FetchFunc: func(_ context.Context, c entity.Candidate) ([]byte, error) {
			return nil, &source.StatusError{URL: c.URL, StatusCode: http.StatusTooManyRequests}
		},
	}

	var recorded *entity.Run

	run, err := pipeline.NewRunner(cfg,
		pipeline.WithFetchers(fetcher, failingFetcher(t)),
		pipeline.WithHistory(&MockHistory{RecordFunc: func(r *entity.Run) error {
			recorded = r
			return nil
		}}),
	).Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, entity.OutcomeKeptPrevious, run.Outcome)
	assert.Equal(t, 3, run.Posts)
	assert.Contains(t, run.Error, "https://a.example -> HTTP 429")
	assert.Same(t, run, recorded)

	after, err := os.ReadFile(cfg.Output)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestRunner_ScrapeFailsWithoutPreviousDocument(t *testing.T) {
	cfg := testConfig(t, entity.ModeScrape)
	cfg.Scrape.URLs = []string{"https://a.example"}

	fetcher := &MockFetcher{
		FetchFunc: func(_ context.Context, _ entity.Candidate) ([]byte, error) {
			return []byte("nothing to see"), nil
		},
	}

	run, err := pipeline.NewRunner(cfg, pipeline.WithFetchers(fetcher, failingFetcher(t))).Run(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, pipeline.ErrNoPosts)
	assert.Contains(t, err.Error(), "https://a.example -> no post URLs found")
	assert.Equal(t, entity.OutcomeFailed, run.Outcome)
	assert.NoFileExists(t, cfg.Output)
}

func TestRunner_ScrapeFailsWithEmptyPreviousDocument(t *testing.T) {
	cfg := testConfig(t, entity.ModeScrape)
	cfg.Scrape.URLs = []string{"https://a.example"}

	require.NoError(t, feed.Write(cfg.Output, feed.NewDocument(config.DefaultSource, nil, 20, fixedNow())))

	fetcher := &MockFetcher{
		FetchFunc: func(_ context.Context, _ entity.Candidate) ([]byte, error) {
			return nil, errors.New("connection reset")
		},
	}

	_, err := pipeline.NewRunner(cfg, pipeline.WithFetchers(fetcher, failingFetcher(t))).Run(context.Background())
	assert.ErrorIs(t, err, pipeline.ErrNoPosts)
}

func TestRunner_Webhook(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("x-api-key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"posts": [
			{"postId": "urn:li:activity:999", "postText": "Hello\nworld", "publishedAt": 1792058400},
			{"postId": "urn:li:activity:999", "postText": "Duplicate"},
			{"postUrl": "https://www.linkedin.com/posts/dpax_shared-activity-5", "isRepost": "yes"}
		]}`))
	}))
	defer server.Close()

	cfg := testConfig(t, entity.ModeWebhook)
	cfg.Webhook.Endpoint = server.URL
	cfg.Webhook.APIKey = "secret"

	store, err := history.Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer store.Close()

	run, err := pipeline.NewRunner(cfg,
		pipeline.WithClock(fixedNow),
		pipeline.WithHistory(store),
	).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, entity.OutcomeUpdated, run.Outcome)

	doc, err := feed.Read(cfg.Output)
	require.NoError(t, err)
	require.Len(t, doc.Posts, 2)

	assert.Equal(t, entity.Post{
		ID:           "999",
		URL:          "https://www.linkedin.com/feed/update/urn:li:activity:999",
		Title:        "Hello",
		Excerpt:      "Hello world",
		RelativeDate: "2h",
	}, doc.Posts[0])
	assert.True(t, doc.Posts[1].IsRepost)

	runs, err := store.List(10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, run.ID, runs[0].ID)
	assert.Equal(t, server.URL, runs[0].Source)
}

func TestRunner_WebhookZeroPostsIsFatal(t *testing.T) {
	cfg := testConfig(t, entity.ModeWebhook)
	cfg.Webhook.Endpoint = "https://hooks.example/linkedin"

	previous := feed.NewDocument(config.DefaultSource, []entity.Post{
		{ID: "1", URL: "https://www.linkedin.com/posts/dpax_a-activity-1", Title: "A"},
	}, 20, time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, feed.Write(cfg.Output, previous))

	before, err := os.ReadFile(cfg.Output)
	require.NoError(t, err)

	fetcher := &MockFetcher{
		FetchFunc: func(_ context.Context, c entity.Candidate) ([]byte, error) {
			assert.Equal(t, "https://hooks.example/linkedin", c.URL)
			return []byte(`{"posts": [{"url": "https://example.com/not-linkedin"}]}`), nil
		},
	}

	run, err := pipeline.NewRunner(cfg, pipeline.WithFetchers(failingFetcher(t), fetcher)).Run(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, pipeline.ErrNoPosts)
	assert.Equal(t, entity.OutcomeFailed, run.Outcome)

	after, err := os.ReadFile(cfg.Output)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestRunner_WebhookFailures(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
		fetch    func(ctx context.Context, c entity.Candidate) ([]byte, error)
		check    func(t *testing.T, err error)
	}{
		{
			name:     "Missing endpoint",
			endpoint: "",
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, config.ErrMissingWebhook)
			},
		},
		{
			name:     "Non-2xx response",
			endpoint: "https://hooks.example",
			fetch: func(_ context.Context, c entity.Candidate) ([]byte, error) {
				return nil, &source.StatusError{URL: c.URL, StatusCode: http.StatusBadGateway}
			},
			check: func(t *testing.T, err error) {
				var statusErr *source.StatusError
				require.ErrorAs(t, err, &statusErr)
				assert.Equal(t, http.StatusBadGateway, statusErr.StatusCode)
			},
		},
		{
			name:     "Non-JSON body",
			endpoint: "https://hooks.example",
			fetch: func(_ context.Context, _ entity.Candidate) ([]byte, error) {
				return []byte("<html>oops</html>"), nil
			},
			check: func(t *testing.T, err error) {
				assert.ErrorContains(t, err, "malformed webhook payload")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t, entity.ModeWebhook)
			cfg.Webhook.Endpoint = tt.endpoint

			webhook := failingFetcher(t)

			if tt.fetch != nil {
				webhook = &MockFetcher{FetchFunc: tt.fetch}
			}

			run, err := pipeline.NewRunner(cfg, pipeline.WithFetchers(failingFetcher(t), webhook)).Run(context.Background())

			require.Error(t, err)
			tt.check(t, err)
			assert.Equal(t, entity.OutcomeFailed, run.Outcome)
			assert.NoFileExists(t, cfg.Output)
		})
	}
}

func TestRunner_UnknownMode(t *testing.T) {
	cfg := testConfig(t, "carrier-pigeon")

	run, err := pipeline.NewRunner(cfg, pipeline.WithFetchers(failingFetcher(t), failingFetcher(t))).Run(context.Background())

	assert.EqualError(t, err, `unknown sync mode "carrier-pigeon"`)
	assert.Equal(t, entity.OutcomeFailed, run.Outcome)
}
