package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/storieswithjai/ghostflow/internal/checkpoint"
	"github.com/storieswithjai/ghostflow/pkg/flow"
)

// pipelineProbe records side effects of the test pipeline's steps.
type pipelineProbe struct {
	draftAttempts int
	draftFailures int // fail the draft step this many times before succeeding
	published     int
}

var testTopics = []flow.Topic{
	{Title: "The Future of Agentic AI", ExternalID: "vid-1", Summary: "agents everywhere"},
	{Title: "Shipping Side Projects", ExternalID: "vid-2", Summary: "just ship it"},
}

// testGraph mirrors the content pipeline's shape with tiny deterministic
// steps: style and research run up front, drafting waits for a topic choice,
// image options wait for an image choice, publish finishes the session.
func testGraph(t *testing.T, topics []flow.Topic, probe *pipelineProbe) *flow.Graph {
	t.Helper()

	g := flow.NewGraph("style")
	nodes := []flow.Node{
		{
			Name: "style",
			Run: func(ctx context.Context, s flow.State) (flow.Update, error) {
				return flow.Update{
					StylePersona: flow.Some("test persona"),
					Log:          []string{"style analyzed"},
				}, nil
			},
			Next: flow.Linear("research"),
		},
		{
			Name: "research",
			Run: func(ctx context.Context, s flow.State) (flow.Update, error) {
				return flow.Update{
					ResearchResults: flow.Some(topics),
					Log:             []string{fmt.Sprintf("research completed: %d relevant topics", len(topics))},
				}, nil
			},
			Next: func(s flow.State) string {
				if len(s.ResearchResults) == 0 {
					return flow.End
				}
				return "draft"
			},
		},
		{
			Name: "draft",
			Run: func(ctx context.Context, s flow.State) (flow.Update, error) {
				probe.draftAttempts++
				if probe.draftFailures > 0 {
					probe.draftFailures--
					return flow.Update{}, errors.New("generator timeout")
				}
				if s.SelectedTopic == nil {
					return flow.Update{}, errors.New("no topic selected")
				}
				return flow.Update{
					Draft: flow.Some("a draft about " + s.SelectedTopic.Title),
					Log:   []string{"draft created"},
				}, nil
			},
			Next: flow.Linear("review"),
		},
		{
			Name: "review",
			Run: func(ctx context.Context, s flow.State) (flow.Update, error) {
				return flow.Update{
					FinalDraft: flow.Some(s.Draft + "\n\n#StoriesWithJai"),
					Log:        []string{"draft reviewed"},
				}, nil
			},
			Next: flow.Linear("image"),
		},
		{
			Name: "image",
			Run: func(ctx context.Context, s flow.State) (flow.Update, error) {
				return flow.Update{
					ImageOptions: flow.Some([]flow.ImageCandidate{
						{ThumbURL: "t1", FullURL: "f1", Author: "ana"},
						{ThumbURL: "t2", FullURL: "f2", Author: "bo"},
					}),
					Log: []string{"2 image options ready"},
				}, nil
			},
			Next: flow.Linear("publish"),
		},
		{
			Name: "publish",
			Run: func(ctx context.Context, s flow.State) (flow.Update, error) {
				probe.published++
				return flow.Update{
					Log: []string{"published: post-1"},
				}, nil
			},
			Next: flow.Linear(flow.End),
		},
	}
	for _, n := range nodes {
		if err := g.Add(n); err != nil {
			t.Fatalf("Add(%s) failed: %v", n.Name, err)
		}
	}

	g.PauseBefore("draft")
	g.PauseAfter("image")
	return g
}

func newTestController(t *testing.T, topics []flow.Topic) (flow.Controller, *pipelineProbe) {
	t.Helper()

	probe := &pipelineProbe{}
	ctrl, err := New(Config{
		Graph: testGraph(t, topics, probe),
		Store: checkpoint.NewMemoryStore(),
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return ctrl, probe
}

func TestController_StartPausesForTopicChoice(t *testing.T) {
	ctrl, probe := newTestController(t, testTopics)
	ctx := context.Background()

	state, pending, err := ctrl.Start(ctx, "sess-1")
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	if len(pending) != 1 || pending[0] != "draft" {
		t.Fatalf("expected pending [draft], got %v", pending)
	}
	if state.StylePersona != "test persona" {
		t.Fatalf("style step did not run: %+v", state)
	}
	if len(state.ResearchResults) != 2 {
		t.Fatalf("research step did not run: %+v", state.ResearchResults)
	}
	if probe.draftAttempts != 0 {
		t.Fatal("draft must not run before the pause is resumed")
	}

	// One log entry per completed node.
	if len(state.Log) != 2 {
		t.Fatalf("expected 2 log entries, got %v", state.Log)
	}
}

func TestController_EmptyResearchEndsSession(t *testing.T) {
	ctrl, probe := newTestController(t, nil)
	ctx := context.Background()

	state, pending, err := ctrl.Start(ctx, "sess-1")
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	if len(pending) != 0 {
		t.Fatalf("expected terminal session, got pending %v", pending)
	}
	if probe.draftAttempts != 0 || probe.published != 0 {
		t.Fatal("no downstream step should run when research is empty")
	}
	if len(state.Log) != 2 {
		t.Fatalf("expected 2 log entries, got %v", state.Log)
	}

	// Resuming a finished session is an error, and changes nothing.
	_, _, err = ctrl.Resume(ctx, "sess-1", flow.Update{})
	if !errors.Is(err, flow.ErrInvalidResumeState) {
		t.Fatalf("expected ErrInvalidResumeState, got %v", err)
	}
	after, _, err := ctrl.Inspect(ctx, "sess-1")
	if err != nil {
		t.Fatalf("Inspect failed: %v", err)
	}
	if len(after.Log) != 2 {
		t.Fatalf("state changed by rejected resume: %v", after.Log)
	}
}

func TestController_FullRun(t *testing.T) {
	ctrl, probe := newTestController(t, testTopics)
	ctx := context.Background()

	_, _, err := ctrl.Start(ctx, "sess-1")
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	// Decision 1: pick the first topic.
	topic := testTopics[0]
	state, pending, err := ctrl.Resume(ctx, "sess-1", flow.Update{
		SelectedTopic: flow.Some(&topic),
	})
	if err != nil {
		t.Fatalf("first Resume failed: %v", err)
	}
	if len(pending) != 1 || pending[0] != "publish" {
		t.Fatalf("expected pause before publish, got %v", pending)
	}
	if state.Draft == "" || state.FinalDraft == "" || len(state.ImageOptions) != 2 {
		t.Fatalf("draft/review/image did not all run: %+v", state)
	}
	if probe.published != 0 {
		t.Fatal("publish must wait for the image decision")
	}

	// Decision 2: pick an image.
	img := state.ImageOptions[0]
	state, pending, err = ctrl.Resume(ctx, "sess-1", flow.Update{
		SelectedImage: flow.Some(&img),
	})
	if err != nil {
		t.Fatalf("second Resume failed: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected completed session, got pending %v", pending)
	}
	if probe.published != 1 {
		t.Fatalf("expected exactly one publish, got %d", probe.published)
	}

	// Exactly one log entry per completed node, in execution order.
	wantLog := []string{
		"style analyzed",
		"research completed: 2 relevant topics",
		"draft created",
		"draft reviewed",
		"2 image options ready",
		"published: post-1",
	}
	if len(state.Log) != len(wantLog) {
		t.Fatalf("expected %d log entries, got %v", len(wantLog), state.Log)
	}
	for i, want := range wantLog {
		if state.Log[i] != want {
			t.Fatalf("log[%d] = %q, want %q", i, state.Log[i], want)
		}
	}
}

func TestController_InspectDoesNotExecute(t *testing.T) {
	ctrl, probe := newTestController(t, testTopics)
	ctx := context.Background()

	if _, _, err := ctrl.Start(ctx, "sess-1"); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	for i := 0; i < 3; i++ {
		state, pending, err := ctrl.Inspect(ctx, "sess-1")
		if err != nil {
			t.Fatalf("Inspect failed: %v", err)
		}
		if len(pending) != 1 || pending[0] != "draft" {
			t.Fatalf("pending changed on inspect %d: %v", i, pending)
		}
		if len(state.Log) != 2 {
			t.Fatalf("log changed on inspect %d: %v", i, state.Log)
		}
	}
	if probe.draftAttempts != 0 {
		t.Fatal("Inspect executed a step")
	}
}

func TestController_InspectMissingSession(t *testing.T) {
	ctrl, _ := newTestController(t, testTopics)

	_, _, err := ctrl.Inspect(context.Background(), "nope")
	if !errors.Is(err, flow.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

// TestController_Backends runs the full pipeline against every checkpoint
// backend to make sure pause state survives the round trip through each.
func TestController_Backends(t *testing.T) {
	type controllerFactory func(t *testing.T, probe *pipelineProbe) flow.Controller

	factories := map[string]controllerFactory{
		"in-memory": func(t *testing.T, probe *pipelineProbe) flow.Controller {
			t.Helper()
			ctrl, err := New(Config{
				Graph: testGraph(t, testTopics, probe),
				Store: checkpoint.NewMemoryStore(),
			})
			if err != nil {
				t.Fatalf("New failed: %v", err)
			}
			return ctrl
		},
		"sqlite": func(t *testing.T, probe *pipelineProbe) flow.Controller {
			t.Helper()

			db, err := sql.Open("sqlite", ":memory:")
			if err != nil {
				t.Fatalf("sql.Open failed: %v", err)
			}
			t.Cleanup(func() { _ = db.Close() })

			store, err := checkpoint.NewSQLiteStore(db)
			if err != nil {
				t.Fatalf("NewSQLiteStore failed: %v", err)
			}
			ctrl, err := New(Config{
				Graph: testGraph(t, testTopics, probe),
				Store: store,
			})
			if err != nil {
				t.Fatalf("New failed: %v", err)
			}
			return ctrl
		},
	}

	for name, factory := range factories {
		t.Run(name, func(t *testing.T) {
			probe := &pipelineProbe{}
			ctrl := factory(t, probe)
			ctx := context.Background()

			if _, _, err := ctrl.Start(ctx, "sess-1"); err != nil {
				t.Fatalf("Start failed: %v", err)
			}

			topic := testTopics[1]
			state, _, err := ctrl.Resume(ctx, "sess-1", flow.Update{SelectedTopic: flow.Some(&topic)})
			if err != nil {
				t.Fatalf("first Resume failed: %v", err)
			}

			img := state.ImageOptions[1]
			state, pending, err := ctrl.Resume(ctx, "sess-1", flow.Update{SelectedImage: flow.Some(&img)})
			if err != nil {
				t.Fatalf("second Resume failed: %v", err)
			}
			if len(pending) != 0 {
				t.Fatalf("expected completion, got pending %v", pending)
			}
			if probe.published != 1 {
				t.Fatalf("expected one publish, got %d", probe.published)
			}
			if state.SelectedTopic == nil || state.SelectedTopic.ExternalID != "vid-2" {
				t.Fatalf("topic choice lost across checkpoints: %+v", state.SelectedTopic)
			}
		})
	}
}
