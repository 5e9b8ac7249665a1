package postqueue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/storieswithjai/ghostflow/pkg/collab"
)

// flakyPublisher fails for texts listed in failFor and records everything
// it was asked to publish.
type flakyPublisher struct {
	failFor   map[string]bool
	published []string
}

func (p *flakyPublisher) PublishNow(ctx context.Context, text, imageURL string) (collab.PostResult, error) {
	if p.failFor[text] {
		return collab.PostResult{}, errors.New("api down")
	}
	p.published = append(p.published, text)
	return collab.PostResult{ID: "post-" + text}, nil
}

func TestPoller_ProcessDue(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 9, 2, 12, 0, 0, 0, time.UTC)

	okID, err := store.Add(ctx, "ok", "", now.Add(-time.Hour))
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	badID, err := store.Add(ctx, "bad", "", now.Add(-time.Minute))
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	futureID, err := store.Add(ctx, "future", "", now.Add(time.Hour))
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	pub := &flakyPublisher{failFor: map[string]bool{"bad": true}}
	poller := NewPoller(store, pub, time.Minute, zerolog.Nop())

	if err := poller.ProcessDue(ctx, now); err != nil {
		t.Fatalf("ProcessDue failed: %v", err)
	}

	if len(pub.published) != 1 || pub.published[0] != "ok" {
		t.Fatalf("unexpected publishes: %v", pub.published)
	}

	okPost, _ := store.Get(ctx, okID)
	if okPost.Status != collab.PostPublished {
		t.Fatalf("expected PUBLISHED, got %q", okPost.Status)
	}
	badPost, _ := store.Get(ctx, badID)
	if badPost.Status != collab.PostFailed || badPost.ErrorMessage != "api down" {
		t.Fatalf("expected FAILED with message, got %+v", badPost)
	}
	futurePost, _ := store.Get(ctx, futureID)
	if futurePost.Status != collab.PostPending {
		t.Fatalf("future post touched: %+v", futurePost)
	}

	// A second scan finds nothing left to do.
	if err := poller.ProcessDue(ctx, now); err != nil {
		t.Fatalf("second ProcessDue failed: %v", err)
	}
	if len(pub.published) != 1 {
		t.Fatalf("post published twice: %v", pub.published)
	}
}

func TestPoller_StartStopLifecycle(t *testing.T) {
	store := newTestStore(t)
	pub := &flakyPublisher{}
	poller := NewPoller(store, pub, time.Hour, zerolog.Nop())

	if err := poller.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := poller.Start(context.Background()); err == nil {
		t.Fatal("expected error on double start")
	}

	poller.Stop()
	// Stop on a stopped poller is a no-op.
	poller.Stop()

	// The poller can be started again after a clean stop.
	if err := poller.Start(context.Background()); err != nil {
		t.Fatalf("restart failed: %v", err)
	}
	poller.Stop()
}
