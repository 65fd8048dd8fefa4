// Package metrics records what a single Secret Santa run did. Each run owns
// its registry; the result can be written as a node_exporter textfile so
// batch invocations show up in Prometheus.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "secretsanta"

// Run holds the metrics of one invocation.
type Run struct {
	registry *prometheus.Registry

	participants     prometheus.Gauge
	duplicateNames   prometheus.Counter
	drawAttempts     prometheus.Histogram
	drawFallbacks    prometheus.Counter
	messagesSent     prometheus.Counter
	messagesFailed   prometheus.Counter
	runFailures      *prometheus.CounterVec
	lastSuccessEpoch prometheus.Gauge
}

// NewRun creates a fresh registry with all run metrics registered.
func NewRun() *Run {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Run{
		registry: reg,
		participants: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "participants",
			Help:      "Number of participants in the last run.",
		}),
		duplicateNames: factory.NewCounter(counterOpts("duplicate_names_total", "Display names shared by more than one participant.")),
		drawAttempts: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "draw_attempts",
			Help:      "Shuffles needed to draw the assignment.",
			Buckets:   []float64{1, 2, 3, 5, 10, 25, 100, 1000},
		}),
		drawFallbacks:  factory.NewCounter(counterOpts("draw_fallbacks_total", "Draws that hit the rejection ceiling and used the cyclic construction.")),
		messagesSent:   factory.NewCounter(counterOpts("messages_sent_total", "Notification messages transmitted.")),
		messagesFailed: factory.NewCounter(counterOpts("messages_failed_total", "Notification messages that could not be transmitted.")),
		runFailures: factory.NewCounterVec(
			counterOpts("run_failures_total", "Runs aborted, by pipeline stage."),
			[]string{"stage"},
		),
		lastSuccessEpoch: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last fully delivered run.",
		}),
	}
}

// SetParticipants records the group size.
func (r *Run) SetParticipants(n int) {
	r.participants.Set(float64(n))
}

// AddDuplicateNames counts duplicate-name warnings.
func (r *Run) AddDuplicateNames(n int) {
	if n <= 0 {
		return
	}
	r.duplicateNames.Add(float64(n))
}

// ObserveDraw records the shuffles spent on a draw and whether it fell back.
func (r *Run) ObserveDraw(attempts int, fallback bool) {
	r.drawAttempts.Observe(float64(attempts))
	if fallback {
		r.drawFallbacks.Inc()
	}
}

// AddDelivered records sent and failed message counts.
func (r *Run) AddDelivered(sent, failed int) {
	if sent > 0 {
		r.messagesSent.Add(float64(sent))
	}
	if failed > 0 {
		r.messagesFailed.Add(float64(failed))
	}
}

// IncFailure counts a run aborted in stage.
func (r *Run) IncFailure(stage string) {
	r.runFailures.WithLabelValues(stage).Inc()
}

// MarkSuccess stamps the completion time of a fully delivered run.
func (r *Run) MarkSuccess() {
	r.lastSuccessEpoch.SetToCurrentTime()
}

// Gatherer exposes the registry, mainly for tests.
func (r *Run) Gatherer() prometheus.Gatherer {
	return r.registry
}

// WriteTextfile writes the run's metrics to path in the text exposition format.
func (r *Run) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics to %s: %w", path, err)
	}
	return nil
}

func counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
	}
}
