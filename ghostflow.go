package ghostflow

import (
	"database/sql"

	"github.com/redis/go-redis/v9"
	"github.com/storieswithjai/ghostflow/internal/checkpoint"
	"github.com/storieswithjai/ghostflow/internal/engine"
	"github.com/storieswithjai/ghostflow/pkg/flow"
)

// Re-export key types so users don't need to dig into pkg/flow.

type (
	Controller           = flow.Controller
	Graph                = flow.Graph
	Node                 = flow.Node
	StepFunc             = flow.StepFunc
	Cursor               = flow.Cursor
	State                = flow.State
	Update               = flow.Update
	Topic                = flow.Topic
	ImageCandidate       = flow.ImageCandidate
	StepError            = flow.StepError
	Observer             = flow.Observer
	LoggingObserver      = flow.LoggingObserver
	BasicMetrics         = flow.BasicMetrics
	BasicMetricsSnapshot = flow.BasicMetricsSnapshot
	CompositeObserver    = flow.CompositeObserver
	NoopObserver         = flow.NoopObserver
)

// Re-export common helpers.

var (
	NewGraph             = flow.NewGraph
	NewLoggingObserver   = flow.NewLoggingObserver
	NewCompositeObserver = flow.NewCompositeObserver
)

// Re-export the error taxonomy so callers can classify failures with
// errors.Is without importing pkg/flow.

var (
	ErrSessionNotFound         = flow.ErrSessionNotFound
	ErrAlreadyRunning          = flow.ErrAlreadyRunning
	ErrConcurrentResume        = flow.ErrConcurrentResume
	ErrInvalidResumeState      = flow.ErrInvalidResumeState
	ErrCollaboratorUnavailable = flow.ErrCollaboratorUnavailable
)

// Some marks an Update field as explicitly set. It is a thin re-export of
// flow.Some, declared as a function because type aliases cannot carry
// generic helpers.
func Some[T any](v T) flow.Opt[T] { return flow.Some(v) }

// Controller constructors
// These wrap the internal/engine package so external callers
// never need to import internal packages.

// NewInMemoryController returns a Controller whose checkpoints live only in
// process memory. In-flight sessions do not survive a restart.
func NewInMemoryController(g *Graph) (Controller, error) {
	return engine.New(engine.Config{Graph: g, Store: checkpoint.NewMemoryStore()})
}

// NewInMemoryControllerWithObserver returns an in-memory Controller with the
// given Observer.
func NewInMemoryControllerWithObserver(g *Graph, obs Observer) (Controller, error) {
	return engine.New(engine.Config{Graph: g, Store: checkpoint.NewMemoryStore(), Observer: obs})
}

// NewSQLiteController returns a Controller that checkpoints sessions in a
// SQLite database.
func NewSQLiteController(db *sql.DB, g *Graph) (Controller, error) {
	return newSQLiteController(db, g, nil)
}

// NewSQLiteControllerWithObserver returns a SQLite-backed Controller with the
// given Observer.
func NewSQLiteControllerWithObserver(db *sql.DB, g *Graph, obs Observer) (Controller, error) {
	return newSQLiteController(db, g, obs)
}

func newSQLiteController(db *sql.DB, g *Graph, obs Observer) (Controller, error) {
	store, err := checkpoint.NewSQLiteStore(db)
	if err != nil {
		return nil, err
	}
	return engine.New(engine.Config{Graph: g, Store: store, Observer: obs})
}

// NewRedisController returns a Controller that checkpoints sessions in Redis.
func NewRedisController(client *redis.Client, g *Graph) (Controller, error) {
	return engine.New(engine.Config{Graph: g, Store: checkpoint.NewRedisStore(client, "")})
}

// NewRedisControllerWithObserver returns a Redis-backed Controller with the
// given Observer.
func NewRedisControllerWithObserver(client *redis.Client, g *Graph, obs Observer) (Controller, error) {
	return engine.New(engine.Config{Graph: g, Store: checkpoint.NewRedisStore(client, ""), Observer: obs})
}
