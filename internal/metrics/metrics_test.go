package metrics_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dpax/linkedin-feed/internal/entity"
	"github.com/dpax/linkedin-feed/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder(t *testing.T) {
	r := metrics.NewRecorder()
	finished := time.Date(2026, 10, 15, 6, 0, 3, 0, time.UTC)

	r.RecordAttempt(entity.ModeScrape, errors.New("HTTP 999"))
	r.RecordAttempt(entity.ModeScrape, nil)
	r.RecordRun(&entity.Run{
		Mode:       entity.ModeScrape,
		Outcome:    entity.OutcomeUpdated,
		Posts:      7,
		StartedAt:  finished.Add(-3 * time.Second),
		FinishedAt: finished,
	})

	assert.Equal(t, 1.0, testutil.ToFloat64(r.LastRunAttempts.WithLabelValues(entity.ModeScrape, "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.LastRunAttempts.WithLabelValues(entity.ModeScrape, "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.LastRun.WithLabelValues(entity.ModeScrape, entity.OutcomeUpdated)))
	assert.Equal(t, 7.0, testutil.ToFloat64(r.Posts))
	assert.Equal(t, float64(finished.Unix()), testutil.ToFloat64(r.LastSuccess))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.Duration))

	r.RecordRun(&entity.Run{Mode: entity.ModeWebhook, Outcome: entity.OutcomeFailed, StartedAt: finished, FinishedAt: finished})

	assert.Equal(t, 1, testutil.CollectAndCount(r.LastRun))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.LastRun.WithLabelValues(entity.ModeWebhook, entity.OutcomeFailed)))
	assert.Equal(t, 7.0, testutil.ToFloat64(r.Posts))
	assert.Equal(t, float64(finished.Unix()), testutil.ToFloat64(r.LastSuccess))
}

func TestRecorder_WriteTextfile(t *testing.T) {
	r := metrics.NewRecorder()
	r.RecordRun(&entity.Run{Mode: entity.ModeWebhook, Outcome: entity.OutcomeFailed})

	path := filepath.Join(t.TempDir(), "textfile", "linkedin_sync.prom")
	require.NoError(t, r.WriteTextfile(path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.Contains(t, string(raw), `linkedin_sync_last_run{mode="webhook",outcome="failed"} 1`)
	assert.Contains(t, string(raw), "# TYPE linkedin_sync_last_run gauge")
	assert.Contains(t, string(raw), "# TYPE linkedin_sync_posts gauge")
	assert.NotContains(t, string(raw), "_total")
}
