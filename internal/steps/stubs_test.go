package steps

import (
	"context"
	"time"

	"github.com/storieswithjai/ghostflow/pkg/collab"
	"github.com/storieswithjai/ghostflow/pkg/flow"
)

type stubCorpus struct {
	texts []string
	err   error
}

func (s *stubCorpus) ListReferenceTexts(ctx context.Context) ([]string, error) {
	return s.texts, s.err
}

// stubGen returns canned text and records every prompt it sees.
type stubGen struct {
	out     string
	err     error
	prompts []string
}

func (s *stubGen) Generate(ctx context.Context, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	return s.out, s.err
}

type stubTopicSource struct {
	items    map[string][]collab.RawItem
	listErr  map[string]error
	bodies   map[string]string
	bodyErrs map[string]error
}

func (s *stubTopicSource) ListRecentItems(ctx context.Context, sourceID string) ([]collab.RawItem, error) {
	if err := s.listErr[sourceID]; err != nil {
		return nil, err
	}
	return s.items[sourceID], nil
}

func (s *stubTopicSource) FetchBody(ctx context.Context, itemID string) (string, error) {
	if err := s.bodyErrs[itemID]; err != nil {
		return "", err
	}
	return s.bodies[itemID], nil
}

// stubClassifier marks the listed item IDs relevant and errors on others if
// told to.
type stubClassifier struct {
	relevant map[string]bool
	errFor   map[string]error
}

func (s *stubClassifier) Classify(ctx context.Context, item collab.RawItem, interests []string) (collab.Classification, error) {
	if err := s.errFor[item.ID]; err != nil {
		return collab.Classification{}, err
	}
	return collab.Classification{
		IsRelevant: s.relevant[item.ID],
		Summary:    "summary of " + item.Title,
		KeyPoints:  []string{"point"},
		Score:      0.9,
	}, nil
}

type stubImages struct {
	results []flow.ImageCandidate
	err     error
	queries []string
}

func (s *stubImages) Search(ctx context.Context, query string) ([]flow.ImageCandidate, error) {
	s.queries = append(s.queries, query)
	return s.results, s.err
}

type stubPublisher struct {
	calls    int
	lastText string
	lastURL  string
	err      error
}

func (s *stubPublisher) PublishNow(ctx context.Context, text, imageURL string) (collab.PostResult, error) {
	s.calls++
	s.lastText = text
	s.lastURL = imageURL
	if s.err != nil {
		return collab.PostResult{}, s.err
	}
	return collab.PostResult{ID: "post-1"}, nil
}

type stubPostStore struct {
	added []collab.ScheduledPost
	err   error
}

func (s *stubPostStore) Add(ctx context.Context, draftText, imageURL string, at time.Time) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	id := "sched-1"
	s.added = append(s.added, collab.ScheduledPost{
		ID:            id,
		DraftText:     draftText,
		ImageURL:      imageURL,
		ScheduledTime: at,
		Status:        collab.PostPending,
	})
	return id, nil
}

func (s *stubPostStore) DuePosts(ctx context.Context, now time.Time) ([]collab.ScheduledPost, error) {
	return nil, nil
}

func (s *stubPostStore) Mark(ctx context.Context, id string, status collab.PostStatus, errMsg string) error {
	return nil
}
