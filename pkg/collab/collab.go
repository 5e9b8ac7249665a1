// Package collab defines the narrow external capabilities the pipeline
// depends on but does not implement: content sources, classification and
// text generation, image search, publishing, and the scheduled-post store.
//
// Every capability is a small interface so callers can inject production
// adapters (see internal/adapters) or test doubles. Implementations that are
// missing credentials or configuration should return
// flow.ErrCollaboratorUnavailable; steps degrade to safe defaults where one
// exists instead of failing the session.
package collab

import (
	"context"
	"time"

	"github.com/storieswithjai/ghostflow/pkg/flow"
)

// RawItem is an unclassified content item from a topic source.
type RawItem struct {
	ID    string
	Title string
	Body  string
}

// Classification is the relevance verdict for a single item.
type Classification struct {
	IsRelevant bool
	Summary    string
	KeyPoints  []string
	Score      float64
}

// StyleCorpusSource supplies reference texts for style analysis.
type StyleCorpusSource interface {
	ListReferenceTexts(ctx context.Context) ([]string, error)
}

// TopicSource lists recent content items for a configured source and fetches
// the full body (transcript) of a single item.
type TopicSource interface {
	ListRecentItems(ctx context.Context, sourceID string) ([]RawItem, error)

	// FetchBody returns the transcript or body text for an item. An error
	// here is a per-item condition: the caller skips the item, it does not
	// fail the step.
	FetchBody(ctx context.Context, itemID string) (string, error)
}

// RelevanceClassifier scores an item against the configured interests.
// The item's Body is expected to carry the fetched transcript.
type RelevanceClassifier interface {
	Classify(ctx context.Context, item RawItem, interests []string) (Classification, error)
}

// TextGenerator produces text from a prompt. It backs the drafting, review
// and query-shortening steps.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ImageSource searches a single image provider.
type ImageSource interface {
	Search(ctx context.Context, query string) ([]flow.ImageCandidate, error)
}

// PostResult identifies a published post.
type PostResult struct {
	ID string
}

// Publisher posts finished articles to the publishing target. Scheduling is
// not a Publisher concern: future-dated posts are recorded via
// ScheduledPostStore and delivered later by the poller.
type Publisher interface {
	PublishNow(ctx context.Context, text, imageURL string) (PostResult, error)
}

// PostStatus is the lifecycle state of a scheduled post. Pending is the only
// status a row can start in; Published and Failed are terminal.
type PostStatus string

const (
	PostPending   PostStatus = "PENDING"
	PostPublished PostStatus = "PUBLISHED"
	PostFailed    PostStatus = "FAILED"
)

// ScheduledPost is one row of the shared scheduled-post audit table.
// Rows are never deleted.
type ScheduledPost struct {
	ID            string
	DraftText     string
	ImageURL      string
	ScheduledTime time.Time
	Status        PostStatus
	CreatedAt     time.Time
	ErrorMessage  string
}

// ScheduledPostStore persists posts awaiting delivery. It is the only
// cross-session shared resource in the system.
type ScheduledPostStore interface {
	// Add records a pending post and returns its ID.
	Add(ctx context.Context, draftText, imageURL string, at time.Time) (string, error)

	// DuePosts returns pending posts whose scheduled time is at or before now.
	DuePosts(ctx context.Context, now time.Time) ([]ScheduledPost, error)

	// Mark transitions a pending post to Published or Failed. Transitions
	// out of a terminal status are rejected.
	Mark(ctx context.Context, id string, status PostStatus, errMsg string) error
}
