package steps

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/storieswithjai/ghostflow/pkg/flow"
)

func TestPublish_ImmediateWithImage(t *testing.T) {
	pub := &stubPublisher{}
	posts := &stubPostStore{}

	state := flow.State{
		FinalDraft:    "final text",
		SelectedImage: &flow.ImageCandidate{FullURL: "https://img.example/full.jpg"},
	}

	update, err := Publish(pub, posts)(context.Background(), state)
	if err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	if pub.calls != 1 || pub.lastText != "final text" || pub.lastURL != "https://img.example/full.jpg" {
		t.Fatalf("unexpected publish call: %+v", pub)
	}
	if len(posts.added) != 0 {
		t.Fatal("immediate publish must not touch the scheduled-post store")
	}
	if len(update.Log) != 1 || update.Log[0] != "published: post-1" {
		t.Fatalf("unexpected log: %v", update.Log)
	}
}

func TestPublish_NoImageSendsEmptyURL(t *testing.T) {
	pub := &stubPublisher{}

	_, err := Publish(pub, &stubPostStore{})(context.Background(), flow.State{FinalDraft: "text"})
	if err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	if pub.lastURL != "" {
		t.Fatalf("expected empty image URL, got %q", pub.lastURL)
	}
}

func TestPublish_ScheduledRecordsAndDefers(t *testing.T) {
	pub := &stubPublisher{}
	posts := &stubPostStore{}
	at := time.Date(2026, 9, 2, 8, 0, 0, 0, time.UTC)

	state := flow.State{
		FinalDraft:    "scheduled text",
		SelectedImage: &flow.ImageCandidate{FullURL: "https://img.example/x.jpg"},
		ScheduledTime: &at,
	}

	update, err := Publish(pub, posts)(context.Background(), state)
	if err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	if pub.calls != 0 {
		t.Fatal("scheduled publish must not call the publisher")
	}
	if len(posts.added) != 1 {
		t.Fatalf("expected one scheduled post, got %d", len(posts.added))
	}
	post := posts.added[0]
	if post.DraftText != "scheduled text" || post.ImageURL != "https://img.example/x.jpg" || !post.ScheduledTime.Equal(at) {
		t.Fatalf("unexpected scheduled post: %+v", post)
	}
	if len(update.Log) != 1 || update.Log[0] != "post scheduled: sched-1" {
		t.Fatalf("unexpected log: %v", update.Log)
	}
}

func TestPublish_NoFinalDraftIsNoop(t *testing.T) {
	pub := &stubPublisher{}
	posts := &stubPostStore{}

	update, err := Publish(pub, posts)(context.Background(), flow.State{})
	if err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	if pub.calls != 0 || len(posts.added) != 0 {
		t.Fatal("nothing should be published without a final draft")
	}
	if len(update.Log) != 1 || update.Log[0] != "publish skipped: no final draft" {
		t.Fatalf("unexpected log: %v", update.Log)
	}
}

func TestPublish_PublisherErrorFailsStep(t *testing.T) {
	pub := &stubPublisher{err: errors.New("api down")}

	_, err := Publish(pub, &stubPostStore{})(context.Background(), flow.State{FinalDraft: "text"})
	if err == nil {
		t.Fatal("expected publisher error to fail the step")
	}
}
