package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/storieswithjai/ghostflow/internal/checkpoint"
	"github.com/storieswithjai/ghostflow/pkg/flow"
)

// blockingGraph is a two-node pipeline whose second node parks on a channel,
// so tests can hold a session mid-execution.
func blockingGraph(t *testing.T, entered chan<- struct{}, release <-chan struct{}) *flow.Graph {
	t.Helper()

	g := flow.NewGraph("first")
	nodes := []flow.Node{
		{
			Name: "first",
			Run: func(ctx context.Context, s flow.State) (flow.Update, error) {
				return flow.Update{}, nil
			},
			Next: flow.Linear("second"),
		},
		{
			Name: "second",
			Run: func(ctx context.Context, s flow.State) (flow.Update, error) {
				entered <- struct{}{}
				<-release
				return flow.Update{}, nil
			},
			Next: flow.Linear(flow.End),
		},
	}
	for _, n := range nodes {
		if err := g.Add(n); err != nil {
			t.Fatalf("Add(%s) failed: %v", n.Name, err)
		}
	}
	g.PauseBefore("second")
	return g
}

func TestController_ConcurrentResumeRejected(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})

	ctrl, err := New(Config{
		Graph: blockingGraph(t, entered, release),
		Store: checkpoint.NewMemoryStore(),
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	ctx := context.Background()

	if _, _, err := ctrl.Start(ctx, "sess-1"); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		_, _, err := ctrl.Resume(ctx, "sess-1", flow.Update{})
		done <- err
	}()

	// Wait until the first resume is inside the blocked node.
	select {
	case <-entered:
	case <-time.After(5 * time.Second):
		t.Fatal("first resume never reached the blocked node")
	}

	// A second resume on the same key loses the race.
	_, _, err = ctrl.Resume(ctx, "sess-1", flow.Update{})
	if !errors.Is(err, flow.ErrConcurrentResume) {
		t.Fatalf("expected ErrConcurrentResume, got %v", err)
	}

	// A start on the same key is equally refused while work is in flight.
	_, _, err = ctrl.Start(ctx, "sess-1")
	if !errors.Is(err, flow.ErrAlreadyRunning) {
		t.Fatalf("expected ErrAlreadyRunning, got %v", err)
	}

	// A different key is unaffected.
	if _, _, err := ctrl.Start(ctx, "sess-2"); err != nil {
		t.Fatalf("Start on independent key failed: %v", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("blocked resume failed after release: %v", err)
	}
}

func TestController_StartOverPausedSessionRestarts(t *testing.T) {
	ctrl, _ := newTestController(t, testTopics)
	ctx := context.Background()

	if _, _, err := ctrl.Start(ctx, "sess-1"); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	topic := testTopics[0]
	if _, _, err := ctrl.Resume(ctx, "sess-1", flow.Update{SelectedTopic: flow.Some(&topic)}); err != nil {
		t.Fatalf("Resume failed: %v", err)
	}

	// Abandoning a paused session and starting over discards its state.
	state, pending, err := ctrl.Start(ctx, "sess-1")
	if err != nil {
		t.Fatalf("restart failed: %v", err)
	}
	if len(pending) != 1 || pending[0] != "draft" {
		t.Fatalf("expected fresh pause before draft, got %v", pending)
	}
	if state.SelectedTopic != nil || state.Draft != "" {
		t.Fatalf("old session state leaked into restart: %+v", state)
	}
	if len(state.Log) != 2 {
		t.Fatalf("expected fresh log, got %v", state.Log)
	}
}

func TestController_StartOverFailedRunRejected(t *testing.T) {
	ctrl, probe := newTestController(t, testTopics)
	probe.draftFailures = 1
	ctx := context.Background()

	if _, _, err := ctrl.Start(ctx, "sess-1"); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	topic := testTopics[0]
	if _, _, err := ctrl.Resume(ctx, "sess-1", flow.Update{SelectedTopic: flow.Some(&topic)}); err == nil {
		t.Fatal("expected draft failure")
	}

	// The cursor shows unfinished work that is not at a pause point, so the
	// key cannot be silently reused.
	_, _, err := ctrl.Start(ctx, "sess-1")
	if !errors.Is(err, flow.ErrAlreadyRunning) {
		t.Fatalf("expected ErrAlreadyRunning, got %v", err)
	}
}
