package flow

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// Observer receives callbacks from the engine for logging and metrics.
//
// Implementations should be fast and non-blocking; heavy work should be done
// asynchronously so as not to delay node execution.
type Observer interface {
	// OnSessionStart is called once when a session is first started, before
	// the entry node executes.
	OnSessionStart(ctx context.Context, sessionKey string)

	// OnSessionPaused is called when execution suspends at a pause point.
	// pending holds the node names eligible to run after resume.
	OnSessionPaused(ctx context.Context, sessionKey string, pending []string)

	// OnSessionCompleted is called when the cursor becomes terminal.
	OnSessionCompleted(ctx context.Context, sessionKey string)

	// OnNodeStart is called before a node's step function runs.
	OnNodeStart(ctx context.Context, sessionKey, node string)

	// OnNodeCompleted is called after a node's step function returns, for
	// both successes and failures (err != nil).
	OnNodeCompleted(ctx context.Context, sessionKey, node string, err error, duration time.Duration)
}

// NoopObserver is an Observer that does nothing.
// It is used as the default when no observer is configured.
type NoopObserver struct{}

func (NoopObserver) OnSessionStart(ctx context.Context, sessionKey string)                     {}
func (NoopObserver) OnSessionPaused(ctx context.Context, sessionKey string, pending []string)  {}
func (NoopObserver) OnSessionCompleted(ctx context.Context, sessionKey string)                 {}
func (NoopObserver) OnNodeStart(ctx context.Context, sessionKey, node string)                  {}
func (NoopObserver) OnNodeCompleted(ctx context.Context, sessionKey, node string, err error, d time.Duration) {
}

// CompositeObserver fans out events to multiple observers.
type CompositeObserver struct {
	observers []Observer
}

// NewCompositeObserver creates an Observer that forwards events to each
// non-nil observer in obs.
func NewCompositeObserver(obs ...Observer) Observer {
	filtered := make([]Observer, 0, len(obs))
	for _, o := range obs {
		if o != nil {
			filtered = append(filtered, o)
		}
	}
	if len(filtered) == 0 {
		return NoopObserver{}
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return &CompositeObserver{observers: filtered}
}

func (c *CompositeObserver) OnSessionStart(ctx context.Context, sessionKey string) {
	for _, o := range c.observers {
		o.OnSessionStart(ctx, sessionKey)
	}
}

func (c *CompositeObserver) OnSessionPaused(ctx context.Context, sessionKey string, pending []string) {
	for _, o := range c.observers {
		o.OnSessionPaused(ctx, sessionKey, pending)
	}
}

func (c *CompositeObserver) OnSessionCompleted(ctx context.Context, sessionKey string) {
	for _, o := range c.observers {
		o.OnSessionCompleted(ctx, sessionKey)
	}
}

func (c *CompositeObserver) OnNodeStart(ctx context.Context, sessionKey, node string) {
	for _, o := range c.observers {
		o.OnNodeStart(ctx, sessionKey, node)
	}
}

func (c *CompositeObserver) OnNodeCompleted(ctx context.Context, sessionKey, node string, err error, d time.Duration) {
	for _, o := range c.observers {
		o.OnNodeCompleted(ctx, sessionKey, node, err, d)
	}
}

// LoggingObserver writes structured logs using log/slog.
type LoggingObserver struct {
	Logger *slog.Logger
}

// NewLoggingObserver creates an Observer that logs session / node lifecycle
// events using the provided slog.Logger. If logger is nil, slog.Default()
// is used.
func NewLoggingObserver(logger *slog.Logger) Observer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingObserver{Logger: logger}
}

func (o *LoggingObserver) OnSessionStart(ctx context.Context, sessionKey string) {
	o.Logger.InfoContext(ctx, "session_start",
		slog.String("session", sessionKey),
	)
}

func (o *LoggingObserver) OnSessionPaused(ctx context.Context, sessionKey string, pending []string) {
	o.Logger.InfoContext(ctx, "session_paused",
		slog.String("session", sessionKey),
		slog.Any("pending", pending),
	)
}

func (o *LoggingObserver) OnSessionCompleted(ctx context.Context, sessionKey string) {
	o.Logger.InfoContext(ctx, "session_completed",
		slog.String("session", sessionKey),
	)
}

func (o *LoggingObserver) OnNodeStart(ctx context.Context, sessionKey, node string) {
	o.Logger.DebugContext(ctx, "node_start",
		slog.String("session", sessionKey),
		slog.String("node", node),
	)
}

func (o *LoggingObserver) OnNodeCompleted(ctx context.Context, sessionKey, node string, err error, d time.Duration) {
	level := slog.LevelDebug
	if err != nil {
		level = slog.LevelError
	}
	o.Logger.Log(ctx, level, "node_completed",
		slog.String("session", sessionKey),
		slog.String("node", node),
		slog.Duration("duration", d),
		slog.Any("error", err),
	)
}

// BasicMetrics collects simple counters and aggregate node durations.
// It implements Observer, and can be combined with LoggingObserver via
// NewCompositeObserver.
type BasicMetrics struct {
	NoopObserver

	sessionsStarted   atomic.Int64
	sessionsPaused    atomic.Int64
	sessionsCompleted atomic.Int64
	nodesCompleted    atomic.Int64
	nodesFailed       atomic.Int64
	totalNodeDuration atomic.Int64 // nanoseconds
}

// BasicMetricsSnapshot is an immutable snapshot of BasicMetrics.
type BasicMetricsSnapshot struct {
	SessionsStarted   int64
	SessionsPaused    int64
	SessionsCompleted int64

	NodesCompleted  int64
	NodesFailed     int64
	AvgNodeDuration time.Duration
}

func (m *BasicMetrics) OnSessionStart(ctx context.Context, sessionKey string) {
	m.sessionsStarted.Add(1)
}

func (m *BasicMetrics) OnSessionPaused(ctx context.Context, sessionKey string, pending []string) {
	m.sessionsPaused.Add(1)
}

func (m *BasicMetrics) OnSessionCompleted(ctx context.Context, sessionKey string) {
	m.sessionsCompleted.Add(1)
}

func (m *BasicMetrics) OnNodeCompleted(ctx context.Context, sessionKey, node string, err error, d time.Duration) {
	if err != nil {
		m.nodesFailed.Add(1)
		return
	}
	m.nodesCompleted.Add(1)
	m.totalNodeDuration.Add(d.Nanoseconds())
}

// Snapshot returns a snapshot of the current metrics.
func (m *BasicMetrics) Snapshot() BasicMetricsSnapshot {
	nodes := m.nodesCompleted.Load()
	totalNs := m.totalNodeDuration.Load()

	var avg time.Duration
	if nodes > 0 {
		avg = time.Duration(totalNs / nodes)
	}

	return BasicMetricsSnapshot{
		SessionsStarted:   m.sessionsStarted.Load(),
		SessionsPaused:    m.sessionsPaused.Load(),
		SessionsCompleted: m.sessionsCompleted.Load(),
		NodesCompleted:    nodes,
		NodesFailed:       m.nodesFailed.Load(),
		AvgNodeDuration:   avg,
	}
}
