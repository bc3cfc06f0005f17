// Package metrics records deployment stage and command metrics in a private
// Prometheus registry and exports them to a node-exporter text file.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/beaver-logs/beaver/internal/platform/executor"
)

const namespace = "beaver"

// Result label values.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultSkipped = "skipped"
	ResultTimeout = "timeout"
)

// Recorder owns the metric collectors of one process. A nil *Recorder is
// valid and records nothing.
type Recorder struct {
	registry *prometheus.Registry

	stageDuration   *prometheus.HistogramVec
	stagesTotal     *prometheus.CounterVec
	commandsTotal   *prometheus.CounterVec
	commandLatency  *prometheus.HistogramVec
	namingAttempts  prometheus.Histogram
	resourcesTotal  *prometheus.CounterVec
	lastRunSuccess  prometheus.Gauge
	lastRunDuration prometheus.Gauge
}

// NewRecorder creates a recorder with its own registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		stageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "deploy",
				Name:      "stage_duration_seconds",
				Help:      "Duration of deployment stages in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12), // 50ms to ~100s
			},
			[]string{"stage", "result"},
		),
		stagesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "deploy",
				Name:      "stages_total",
				Help:      "Total number of deployment stages by result",
			},
			[]string{"stage", "result"},
		),
		commandsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "executor",
				Name:      "commands_total",
				Help:      "Total number of external commands by tool and result",
			},
			[]string{"tool", "result"},
		),
		commandLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "executor",
				Name:      "command_latency_seconds",
				Help:      "Latency of external commands in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~51s
			},
			[]string{"tool"},
		),
		namingAttempts: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "naming",
				Name:      "attempts",
				Help:      "Dataset name candidates tried per resolution",
				Buckets:   prometheus.LinearBuckets(1, 1, 10),
			},
		),
		resourcesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "deploy",
				Name:      "resources_created_total",
				Help:      "Total number of cloud resources created by kind",
			},
			[]string{"kind"},
		),
		lastRunSuccess: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "deploy",
				Name:      "last_run_success",
				Help:      "Whether the last run succeeded (1) or not (0)",
			},
		),
		lastRunDuration: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "deploy",
				Name:      "last_run_duration_seconds",
				Help:      "Wall time of the last run in seconds",
			},
		),
	}

	r.registry.MustRegister(
		r.stageDuration,
		r.stagesTotal,
		r.commandsTotal,
		r.commandLatency,
		r.namingAttempts,
		r.resourcesTotal,
		r.lastRunSuccess,
		r.lastRunDuration,
	)
	return r
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// ObserveStage records one stage execution.
func (r *Recorder) ObserveStage(stage, result string, d time.Duration) {
	if r == nil {
		return
	}
	r.stageDuration.WithLabelValues(stage, result).Observe(d.Seconds())
	r.stagesTotal.WithLabelValues(stage, result).Inc()
}

// ObserveCommand records one external command.
func (r *Recorder) ObserveCommand(tool, result string, d time.Duration) {
	if r == nil {
		return
	}
	r.commandsTotal.WithLabelValues(tool, result).Inc()
	r.commandLatency.WithLabelValues(tool).Observe(d.Seconds())
}

// ObserveNamingAttempts records how many candidates a resolution needed.
func (r *Recorder) ObserveNamingAttempts(n int) {
	if r == nil {
		return
	}
	r.namingAttempts.Observe(float64(n))
}

// ResourceCreated counts a created resource.
func (r *Recorder) ResourceCreated(kind string) {
	if r == nil {
		return
	}
	r.resourcesTotal.WithLabelValues(kind).Inc()
}

// ObserveRun records the outcome of a whole run.
func (r *Recorder) ObserveRun(success bool, d time.Duration) {
	if r == nil {
		return
	}
	if success {
		r.lastRunSuccess.Set(1)
	} else {
		r.lastRunSuccess.Set(0)
	}
	r.lastRunDuration.Set(d.Seconds())
}

// WriteTextfile writes the registry in the text exposition format.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics file: %w", err)
	}
	return nil
}

// InstrumentRunner wraps next so every command is counted and timed.
func (r *Recorder) InstrumentRunner(next executor.Runner) executor.Runner {
	if r == nil {
		return next
	}
	return &instrumentedRunner{next: next, rec: r}
}

type instrumentedRunner struct {
	next executor.Runner
	rec  *Recorder
}

func (i *instrumentedRunner) Run(ctx context.Context, tool string, args ...string) (*executor.Result, error) {
	start := time.Now()
	res, err := i.next.Run(ctx, tool, args...)

	result := ResultSuccess
	switch {
	case errors.Is(err, executor.ErrTimeout):
		result = ResultTimeout
	case err != nil:
		result = ResultFailure
	}
	i.rec.ObserveCommand(tool, result, time.Since(start))
	return res, err
}
