package replication

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/helloiwashere/guestbook-backend/logger"
	"github.com/helloiwashere/guestbook-backend/services"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// JobSubmitter queues background jobs without blocking.
type JobSubmitter interface {
	Submit(job services.Job) bool
}

const (
	outcomeSuccess = "success"
	outcomeSkipped = "skipped"
	outcomeFailed  = "failed"
	outcomeDropped = "dropped"
)

type dispatcherMetrics struct {
	replications *prometheus.CounterVec
}

var (
	dispatcherMetricsInstance *dispatcherMetrics
	dispatcherMetricsOnce     sync.Once
	dispatcherRegistry        = prometheus.DefaultRegisterer
)

func newDispatcherMetrics() *dispatcherMetrics {
	dispatcherMetricsOnce.Do(func() {
		dispatcherMetricsInstance = &dispatcherMetrics{
			replications: promauto.With(dispatcherRegistry).NewCounterVec(prometheus.CounterOpts{
				Name: "guestbook_replication_total",
				Help: "Replication attempts by backend, failing stage and outcome",
			}, []string{"backend", "stage", "outcome"}),
		}
	})
	return dispatcherMetricsInstance
}

func resetDispatcherMetricsForTesting() {
	dispatcherRegistry = prometheus.NewRegistry()
	dispatcherMetricsInstance = nil
	dispatcherMetricsOnce = sync.Once{}
}

// Dispatcher runs replications in the background. Enqueue returns
// immediately and never reports an error to its caller.
type Dispatcher struct {
	jobs       JobSubmitter
	replicator Replicator
	timeout    time.Duration
	now        func() time.Time
	log        *zap.SugaredLogger
	metrics    *dispatcherMetrics
}

// NewDispatcher creates a dispatcher submitting to jobs. Each replication is
// bounded by timeout.
func NewDispatcher(jobs JobSubmitter, replicator Replicator, timeout time.Duration) *Dispatcher {
	if replicator == nil {
		replicator = NoopReplicator{}
	}
	return &Dispatcher{
		jobs:       jobs,
		replicator: replicator,
		timeout:    timeout,
		now:        func() time.Time { return time.Now().UTC() },
		log:        logger.GetLogger().Named("replication"),
		metrics:    newDispatcherMetrics(),
	}
}

// Backend names the configured replicator.
func (d *Dispatcher) Backend() string {
	return d.replicator.Name()
}

// Enqueue schedules replication of paths. Stores without backing files pass
// no paths, and nothing is scheduled.
func (d *Dispatcher) Enqueue(message string, paths []string) {
	if len(paths) == 0 {
		return
	}
	if _, ok := d.replicator.(NoopReplicator); ok {
		return
	}

	change := Change{
		Message: message,
		Paths:   append([]string(nil), paths...),
		At:      d.now(),
	}
	submitted := d.jobs.Submit(services.Job{
		Name:    "replicate:" + d.replicator.Name(),
		Timeout: d.timeout,
		Execute: func(ctx context.Context) error {
			return d.run(ctx, change)
		},
	})
	if !submitted {
		// A later write replicates the same files.
		d.metrics.replications.WithLabelValues(d.replicator.Name(), "", outcomeDropped).Inc()
		d.log.Warnw("Replication dropped", "message", message, "paths", paths)
	}
}

func (d *Dispatcher) run(ctx context.Context, change Change) error {
	start := time.Now()
	backend := d.replicator.Name()
	err := d.replicator.Replicate(ctx, change)
	stage := string(StageOf(err))

	switch {
	case err == nil:
		d.metrics.replications.WithLabelValues(backend, "", outcomeSuccess).Inc()
		d.log.Infow("Replication succeeded",
			"backend", backend,
			"paths", change.Paths,
			"duration", time.Since(start))
		return nil
	case errors.Is(err, ErrNothingToCommit):
		d.metrics.replications.WithLabelValues(backend, stage, outcomeSkipped).Inc()
		d.log.Infow("Replication skipped, nothing to commit", "backend", backend, "paths", change.Paths)
		return nil
	default:
		d.metrics.replications.WithLabelValues(backend, stage, outcomeFailed).Inc()
		d.log.Warnw("Replication failed",
			"backend", backend,
			"stage", stage,
			"error", err,
			"duration", time.Since(start))
		return err
	}
}
