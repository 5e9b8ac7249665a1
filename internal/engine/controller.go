// Package engine drives pipeline sessions through a graph: it executes nodes
// one at a time, checkpoints after every node, suspends at declared pause
// points, and enforces single-flight execution per session key.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/storieswithjai/ghostflow/internal/checkpoint"
	"github.com/storieswithjai/ghostflow/pkg/flow"
)

// Controller implements flow.Controller over a graph and a checkpoint store.
type controller struct {
	graph *flow.Graph
	store checkpoint.Store
	obs   flow.Observer

	mu       sync.Mutex
	inFlight map[string]bool
}

// Config describes how to construct a controller.
type Config struct {
	Graph    *flow.Graph
	Store    checkpoint.Store
	Observer flow.Observer
}

// New creates a Controller for the given graph and store.
func New(cfg Config) (flow.Controller, error) {
	if cfg.Graph == nil {
		return nil, fmt.Errorf("engine: graph is required")
	}
	if err := cfg.Graph.Validate(); err != nil {
		return nil, err
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("engine: checkpoint store is required")
	}

	obs := cfg.Observer
	if obs == nil {
		obs = flow.NoopObserver{}
	}

	return &controller{
		graph:    cfg.Graph,
		store:    cfg.Store,
		obs:      obs,
		inFlight: make(map[string]bool),
	}, nil
}

// acquire marks the session as executing. It returns false if another
// execution already holds the key.
func (c *controller) acquire(sessionKey string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.inFlight[sessionKey] {
		return false
	}
	c.inFlight[sessionKey] = true
	return true
}

func (c *controller) release(sessionKey string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.inFlight, sessionKey)
}

func (c *controller) Start(ctx context.Context, sessionKey string) (flow.State, []string, error) {
	if !c.acquire(sessionKey) {
		return flow.State{}, nil, flow.ErrAlreadyRunning
	}
	defer c.release(sessionKey)

	cp, err := c.store.Get(ctx, sessionKey)
	switch {
	case err == nil:
		// A non-terminal cursor without a checkpointed pause means a crashed
		// or concurrent run owns this key; refuse rather than clobber it.
		if !cp.Cursor.Terminal() && !cp.Cursor.Paused {
			return flow.State{}, nil, flow.ErrAlreadyRunning
		}
	case err == checkpoint.ErrNotFound:
		// fresh session
	default:
		return flow.State{}, nil, err
	}

	cp = checkpoint.Checkpoint{
		State:  flow.State{},
		Cursor: flow.Cursor{Next: []string{c.graph.Entry()}},
	}
	if err := c.store.Put(ctx, sessionKey, cp); err != nil {
		return flow.State{}, nil, err
	}

	c.obs.OnSessionStart(ctx, sessionKey)

	return c.execute(ctx, sessionKey, cp)
}

func (c *controller) Resume(ctx context.Context, sessionKey string, patch flow.Update) (flow.State, []string, error) {
	if !c.acquire(sessionKey) {
		return flow.State{}, nil, flow.ErrConcurrentResume
	}
	defer c.release(sessionKey)

	cp, err := c.store.Get(ctx, sessionKey)
	if err != nil {
		if err == checkpoint.ErrNotFound {
			return flow.State{}, nil, flow.ErrSessionNotFound
		}
		return flow.State{}, nil, err
	}

	if cp.Cursor.Terminal() {
		return cp.State, nil, fmt.Errorf("%w: session has no pending nodes", flow.ErrInvalidResumeState)
	}

	if !patch.IsZero() {
		if err := flow.ValidatePatch(cp.State, patch); err != nil {
			return cp.State, cp.Cursor.Next, fmt.Errorf("%w: %v", flow.ErrInvalidResumeState, err)
		}
		cp.State, err = c.store.PatchFields(ctx, sessionKey, patch)
		if err != nil {
			return flow.State{}, nil, err
		}
	}

	// Clear the pause flag: the caller has made its decision and the cursor
	// head is eligible to run again (or for the first time).
	cp.Cursor.Paused = false
	if err := c.store.Put(ctx, sessionKey, cp); err != nil {
		return flow.State{}, nil, err
	}

	return c.execute(ctx, sessionKey, cp)
}

func (c *controller) Inspect(ctx context.Context, sessionKey string) (flow.State, []string, error) {
	cp, err := c.store.Get(ctx, sessionKey)
	if err != nil {
		if err == checkpoint.ErrNotFound {
			return flow.State{}, nil, flow.ErrSessionNotFound
		}
		return flow.State{}, nil, err
	}
	return cp.State, append([]string(nil), cp.Cursor.Next...), nil
}

// execute walks the graph from the cursor head until a pause point, the
// terminal state, or a step failure. The checkpoint is written after every
// node (execute-then-checkpoint), so a crash mid-node loses at most that
// node's work and never marks it falsely complete.
func (c *controller) execute(
	ctx context.Context,
	sessionKey string,
	cp checkpoint.Checkpoint,
) (flow.State, []string, error) {
	for !cp.Cursor.Terminal() {
		select {
		case <-ctx.Done():
			return cp.State, cp.Cursor.Next, ctx.Err()
		default:
		}

		name := cp.Cursor.Next[0]
		node, ok := c.graph.Node(name)
		if !ok {
			return cp.State, cp.Cursor.Next, &flow.StepError{
				Node: name,
				Err:  fmt.Errorf("node not registered in graph"),
			}
		}

		c.obs.OnNodeStart(ctx, sessionKey, name)
		startTime := time.Now()

		update, err := runStep(ctx, node, cp.State)

		duration := time.Since(startTime)
		c.obs.OnNodeCompleted(ctx, sessionKey, name, err, duration)

		if err != nil {
			// Step-scoped failure: the cursor stays at the failed node so a
			// later resume re-attempts exactly this step.
			if putErr := c.store.Put(ctx, sessionKey, cp); putErr != nil {
				return cp.State, cp.Cursor.Next, putErr
			}
			return cp.State, cp.Cursor.Next, &flow.StepError{Node: name, Err: err}
		}

		// Every completed node leaves exactly one log entry.
		if len(update.Log) == 0 {
			update.Log = []string{name + " completed"}
		}

		cp.State = cp.State.Merge(update)

		next := flow.End
		if node.Next != nil {
			next = node.Next(cp.State)
		}

		if next == flow.End {
			cp.Cursor = flow.Cursor{}
		} else {
			cp.Cursor = flow.Cursor{
				Next:   []string{next},
				Paused: c.graph.PausesAfter(name) || c.graph.PausesBefore(next),
			}
		}

		if err := c.store.Put(ctx, sessionKey, cp); err != nil {
			return cp.State, cp.Cursor.Next, err
		}

		if cp.Cursor.Paused {
			c.obs.OnSessionPaused(ctx, sessionKey, cp.Cursor.Next)
			return cp.State, append([]string(nil), cp.Cursor.Next...), nil
		}
	}

	c.obs.OnSessionCompleted(ctx, sessionKey)

	return cp.State, nil, nil
}

// runStep invokes the node's step function, converting a panic into an
// ordinary error so a misbehaving step cannot take down the session.
func runStep(ctx context.Context, node flow.Node, s flow.State) (update flow.Update, err error) {
	defer func() {
		if r := recover(); r != nil {
			update = flow.Update{}
			err = fmt.Errorf("panic in step: %v", r)
		}
	}()
	return node.Run(ctx, s)
}
