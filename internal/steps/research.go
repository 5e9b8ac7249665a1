package steps

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/storieswithjai/ghostflow/pkg/collab"
	"github.com/storieswithjai/ghostflow/pkg/flow"
)

const (
	// maxTranscriptForClassify bounds the body passed to the classifier.
	maxTranscriptForClassify = 10000

	// excerptLen is how much transcript is carried into the Topic for the
	// drafting prompt later on.
	excerptLen = 2000
)

// ResearchConfig parameterizes the research step.
type ResearchConfig struct {
	// Sources are the configured source IDs, checked in order.
	Sources []string

	// Interests steer the relevance classification.
	Interests []string

	// Logger receives per-item skip diagnostics. Defaults to a no-op logger.
	Logger zerolog.Logger
}

// Research returns the topic-discovery step. For each configured source it
// lists recent items, fetches each item's transcript, and classifies
// relevance. A failed transcript fetch or classification skips that single
// item, never the whole step; an unreachable source contributes nothing.
// The result preserves source order, then item order within each source, and
// is an empty (non-nil) slice when nothing qualifies.
func Research(src collab.TopicSource, cls collab.RelevanceClassifier, cfg ResearchConfig) flow.StepFunc {
	log := cfg.Logger

	return func(ctx context.Context, s flow.State) (flow.Update, error) {
		topics := make([]flow.Topic, 0)

		for _, sourceID := range cfg.Sources {
			items, err := src.ListRecentItems(ctx, sourceID)
			if err != nil {
				log.Warn().Err(err).Str("source", sourceID).Msg("source unavailable, skipping")
				continue
			}

			for _, item := range items {
				body, err := src.FetchBody(ctx, item.ID)
				if err != nil || body == "" {
					log.Debug().Err(err).Str("item", item.ID).Msg("no transcript, skipping item")
					continue
				}
				if len(body) > maxTranscriptForClassify {
					item.Body = body[:maxTranscriptForClassify]
				} else {
					item.Body = body
				}

				verdict, err := cls.Classify(ctx, item, cfg.Interests)
				if err != nil {
					log.Debug().Err(err).Str("item", item.ID).Msg("classification failed, skipping item")
					continue
				}
				if !verdict.IsRelevant {
					continue
				}

				excerpt := body
				if len(excerpt) > excerptLen {
					excerpt = excerpt[:excerptLen]
				}

				topics = append(topics, flow.Topic{
					Title:             item.Title,
					ExternalID:        item.ID,
					Summary:           verdict.Summary,
					KeyPoints:         verdict.KeyPoints,
					TranscriptExcerpt: excerpt,
				})
			}
		}

		entry := fmt.Sprintf("research completed: %d relevant topics", len(topics))
		if len(topics) == 0 {
			entry = "no relevant topics found"
		}

		return flow.Update{
			ResearchResults: flow.Some(topics),
			Log:             []string{entry},
		}, nil
	}
}
