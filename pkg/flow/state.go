package flow

import (
	"errors"
	"time"
)

// Topic is a candidate subject surfaced by the research step.
type Topic struct {
	Title             string
	ExternalID        string
	Summary           string
	KeyPoints         []string
	TranscriptExcerpt string
}

// ImageCandidate is a single image option surfaced by the image step.
type ImageCandidate struct {
	ThumbURL string
	FullURL  string
	Author   string
}

// State is the accumulated pipeline state for one session. Fields are filled
// in monotonically as nodes execute; optional fields are pointers (or empty
// strings/slices) until the producing node has run.
//
// State values are treated as immutable snapshots: nodes return an Update and
// the engine produces a new State via Merge.
type State struct {
	StylePersona    string
	ResearchResults []Topic
	SelectedTopic   *Topic
	Draft           string
	FinalDraft      string
	ImageOptions    []ImageCandidate
	SelectedImage   *ImageCandidate
	ScheduledTime   *time.Time

	// Log holds one entry per completed node, in execution order.
	// It is append-only: merges concatenate, never replace.
	Log []string
}

// Opt is an optional field in an Update. The zero value means "leave the
// field untouched"; Some(v) means "overwrite with v". For pointer-typed
// fields, Some(nil) is an explicit reset (e.g. "publish without an image").
type Opt[T any] struct {
	Value T
	Valid bool
}

// Some wraps v into a set Opt.
func Some[T any](v T) Opt[T] {
	return Opt[T]{Value: v, Valid: true}
}

// Update is a partial State produced by a node or supplied by a caller as a
// resume patch. Only fields with Valid set are applied.
type Update struct {
	StylePersona    Opt[string]
	ResearchResults Opt[[]Topic]
	SelectedTopic   Opt[*Topic]
	Draft           Opt[string]
	FinalDraft      Opt[string]
	ImageOptions    Opt[[]ImageCandidate]
	SelectedImage   Opt[*ImageCandidate]
	ScheduledTime   Opt[*time.Time]

	// Log entries are appended to State.Log, never replacing it.
	Log []string
}

// IsZero reports whether the update carries no field changes and no log
// entries.
func (u Update) IsZero() bool {
	return !u.StylePersona.Valid &&
		!u.ResearchResults.Valid &&
		!u.SelectedTopic.Valid &&
		!u.Draft.Valid &&
		!u.FinalDraft.Valid &&
		!u.ImageOptions.Valid &&
		!u.SelectedImage.Valid &&
		!u.ScheduledTime.Valid &&
		len(u.Log) == 0
}

// Merge applies u to s and returns the resulting snapshot. Set fields
// overwrite; Log is concatenated. The receiver is not modified.
func (s State) Merge(u Update) State {
	out := s

	if u.StylePersona.Valid {
		out.StylePersona = u.StylePersona.Value
	}
	if u.ResearchResults.Valid {
		out.ResearchResults = u.ResearchResults.Value
	}
	if u.SelectedTopic.Valid {
		out.SelectedTopic = u.SelectedTopic.Value
	}
	if u.Draft.Valid {
		out.Draft = u.Draft.Value
	}
	if u.FinalDraft.Valid {
		out.FinalDraft = u.FinalDraft.Value
	}
	if u.ImageOptions.Valid {
		out.ImageOptions = u.ImageOptions.Value
	}
	if u.SelectedImage.Valid {
		out.SelectedImage = u.SelectedImage.Value
	}
	if u.ScheduledTime.Valid {
		out.ScheduledTime = u.ScheduledTime.Value
	}

	if len(u.Log) > 0 {
		// Copy so later appends on one snapshot cannot leak into another.
		log := make([]string, 0, len(s.Log)+len(u.Log))
		log = append(log, s.Log...)
		log = append(log, u.Log...)
		out.Log = log
	}

	return out
}

// ValidatePatch checks a caller-supplied update against the current state.
// It enforces the cross-field rules: a final draft requires a draft, and a
// selected image must be one of the currently offered options (nil is the
// explicit "no image" choice and always passes).
func ValidatePatch(s State, u Update) error {
	if u.FinalDraft.Valid && u.FinalDraft.Value != "" {
		if s.Draft == "" && !u.Draft.Valid {
			return errors.New("final draft supplied before any draft exists")
		}
	}

	if u.SelectedImage.Valid && u.SelectedImage.Value != nil {
		found := false
		for _, opt := range s.ImageOptions {
			if opt == *u.SelectedImage.Value {
				found = true
				break
			}
		}
		if !found {
			return errors.New("selected image is not one of the offered options")
		}
	}

	return nil
}
