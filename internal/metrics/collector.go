package metrics

import (
	"context"
	"log/slog"
	"time"
)

type EventType string

const (
	EventAttemptStarted     EventType = "attempt_started"
	EventAttemptSucceeded   EventType = "attempt_succeeded"
	EventAttemptFailed      EventType = "attempt_failed"
	EventRequestCompleted   EventType = "request_completed"
	EventEngineHealthChange EventType = "engine_health_changed"
)

type MetricEvent struct {
	Type      EventType
	Timestamp time.Time
	Profile   string
	Engine    string
	Duration  time.Duration
	Kind      string
	Success   bool
	Healthy   bool
}

type Collector struct {
	eventCh chan MetricEvent
	metrics *Metrics
	logger  *slog.Logger
}

func NewCollector(bufferSize int, logger *slog.Logger) *Collector {
	return &Collector{
		eventCh: make(chan MetricEvent, bufferSize),
		metrics: NewMetrics(),
		logger:  logger,
	}
}

// Emit queues an event without blocking. Events are dropped when the buffer
// is full; a nil collector ignores everything.
func (c *Collector) Emit(event MetricEvent) {
	if c == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	select {
	case c.eventCh <- event:
	default:
	}
}

func (c *Collector) Start(ctx context.Context) {
	go c.run(ctx)
}

func (c *Collector) run(ctx context.Context) {
	c.logger.Info("Metrics collector started")
	defer c.logger.Info("Metrics collector stopped")

	for {
		select {
		case event := <-c.eventCh:
			c.processEvent(event)
		case <-ctx.Done():
			// Drain remaining events before shutdown
			c.drain()
			return
		}
	}
}

func (c *Collector) processEvent(event MetricEvent) {
	switch event.Type {
	case EventAttemptStarted:
		c.metrics.RecordAttempt(event.Profile)

	case EventAttemptSucceeded:
		c.metrics.RecordSuccess(event.Profile, event.Duration)

	case EventAttemptFailed:
		c.metrics.RecordFailure(event.Profile, event.Duration, event.Kind)

	case EventRequestCompleted:
		c.metrics.RecordRequest(event.Success)

	case EventEngineHealthChange:
		c.metrics.UpdateEngineHealth(event.Engine, event.Healthy)
	}
}

func (c *Collector) drain() {
	for {
		select {
		case event := <-c.eventCh:
			c.processEvent(event)
		default:
			return
		}
	}
}

func (c *Collector) Snapshot() Snapshot {
	return c.metrics.Snapshot()
}
