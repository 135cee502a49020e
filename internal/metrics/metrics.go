// Package metrics records sync runs for the node-exporter textfile collector.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dpax/linkedin-feed/internal/entity"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "linkedin_sync"

// Recorder holds the metrics of a single process on its own registry. Every
// sync is a separate process, so all series describe the last run only.
type Recorder struct {
	registry *prometheus.Registry

	// LastRun is 1 for the mode and outcome of the last run.
	LastRun *prometheus.GaugeVec

	// LastRunAttempts counts the candidate attempts of the last run by mode
	// and result.
	LastRunAttempts *prometheus.GaugeVec

	// Posts is the number of posts in the last written document.
	Posts prometheus.Gauge

	// LastSuccess is the unix time of the last run that wrote a document.
	LastSuccess prometheus.Gauge

	// Duration is the wall time of the last run.
	Duration prometheus.Gauge
}

// NewRecorder registers the sync metrics on a fresh registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		LastRun: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_run",
				Help:      "Mode and outcome of the last sync run",
			},
			[]string{"mode", "outcome"},
		),
		LastRunAttempts: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_run_source_attempts",
				Help:      "Number of source candidate attempts in the last sync run",
			},
			[]string{"mode", "result"},
		),
		Posts: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "posts",
			Help:      "Number of posts in the feed document",
		}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last sync run that wrote the feed document",
		}),
		Duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "duration_seconds",
			Help:      "Duration of the last sync run in seconds",
		}),
	}

	r.registry.MustRegister(r.LastRun, r.LastRunAttempts, r.Posts, r.LastSuccess, r.Duration)

	return r
}

// RecordAttempt counts a candidate attempt of the current run.
func (r *Recorder) RecordAttempt(mode string, err error) {
	result := "ok"

	if err != nil {
		result = "error"
	}

	r.LastRunAttempts.WithLabelValues(mode, result).Inc()
}

// RecordRun records the outcome of a finished run.
func (r *Recorder) RecordRun(run *entity.Run) {
	r.LastRun.Reset()
	r.LastRun.WithLabelValues(run.Mode, run.Outcome).Set(1)
	r.Duration.Set(run.FinishedAt.Sub(run.StartedAt).Seconds())

	switch run.Outcome {
	case entity.OutcomeUpdated:
		r.Posts.Set(float64(run.Posts))
		r.LastSuccess.Set(float64(run.FinishedAt.Unix()))
	case entity.OutcomeKeptPrevious:
		r.Posts.Set(float64(run.Posts))
	}
}

// WriteTextfile writes the registry in the text exposition format to path.
func (r *Recorder) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("could not create metrics directory: %w", err)
	}

	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("could not write metrics textfile: %w", err)
	}

	return nil
}
