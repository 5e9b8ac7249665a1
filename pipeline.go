package ghostflow

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/storieswithjai/ghostflow/internal/steps"
	"github.com/storieswithjai/ghostflow/pkg/collab"
	"github.com/storieswithjai/ghostflow/pkg/flow"
)

// Node names of the content pipeline, in execution order.
const (
	NodeStyle    = "style"
	NodeResearch = "research"
	NodeDraft    = "draft"
	NodeReview   = "review"
	NodeImage    = "image"
	NodePublish  = "publish"
)

// Collaborators bundles every external capability the pipeline calls out to.
// All fields are required except SecondaryImages, which may be nil when only
// one image provider is configured.
type Collaborators struct {
	StyleCorpus collab.StyleCorpusSource
	Topics      collab.TopicSource
	Classifier  collab.RelevanceClassifier
	Generator   collab.TextGenerator

	PrimaryImages   collab.ImageSource
	SecondaryImages collab.ImageSource

	Publisher collab.Publisher
	Posts     collab.ScheduledPostStore
}

func (c Collaborators) validate() error {
	switch {
	case c.StyleCorpus == nil:
		return fmt.Errorf("pipeline: StyleCorpus is required")
	case c.Topics == nil:
		return fmt.Errorf("pipeline: Topics is required")
	case c.Classifier == nil:
		return fmt.Errorf("pipeline: Classifier is required")
	case c.Generator == nil:
		return fmt.Errorf("pipeline: Generator is required")
	case c.PrimaryImages == nil:
		return fmt.Errorf("pipeline: PrimaryImages is required")
	case c.Publisher == nil:
		return fmt.Errorf("pipeline: Publisher is required")
	case c.Posts == nil:
		return fmt.Errorf("pipeline: Posts is required")
	}
	return nil
}

// PipelineConfig tunes pipeline behavior without changing its shape.
type PipelineConfig struct {
	// Sources are the content source IDs research walks, in order.
	Sources []string

	// Interests steer relevance classification during research.
	Interests []string

	// Image overrides the image-search defaults (per-source counts,
	// option cap, fallback query).
	Image steps.ImageConfig

	// Logger receives step-level diagnostics. Defaults to a no-op logger.
	Logger zerolog.Logger
}

// NewPipeline builds the content-production graph:
//
//	style → research → draft → review → image → publish
//
// with two human decision points wired in as pause points. Execution
// suspends before draft so the operator can pick a topic, and after image so
// they can pick an image and optionally a schedule. When research yields no
// topics the session routes straight to the end instead of drafting.
func NewPipeline(c Collaborators, cfg PipelineConfig) (*Graph, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}

	cfg.Image.Logger = cfg.Logger

	g := flow.NewGraph(NodeStyle)
	nodes := []flow.Node{
		{
			Name: NodeStyle,
			Run:  steps.Style(c.StyleCorpus, c.Generator),
			Next: flow.Linear(NodeResearch),
		},
		{
			Name: NodeResearch,
			Run: steps.Research(c.Topics, c.Classifier, steps.ResearchConfig{
				Sources:   cfg.Sources,
				Interests: cfg.Interests,
				Logger:    cfg.Logger,
			}),
			Next: func(s flow.State) string {
				if len(s.ResearchResults) == 0 {
					return flow.End
				}
				return NodeDraft
			},
		},
		{
			Name: NodeDraft,
			Run:  steps.Draft(c.Generator, c.StyleCorpus),
			Next: flow.Linear(NodeReview),
		},
		{
			Name: NodeReview,
			Run:  steps.Review(c.Generator),
			Next: flow.Linear(NodeImage),
		},
		{
			Name: NodeImage,
			Run:  steps.Image(c.Generator, c.PrimaryImages, c.SecondaryImages, cfg.Image),
			Next: flow.Linear(NodePublish),
		},
		{
			Name: NodePublish,
			Run:  steps.Publish(c.Publisher, c.Posts),
			Next: flow.Linear(flow.End),
		},
	}
	for _, n := range nodes {
		if err := g.Add(n); err != nil {
			return nil, err
		}
	}

	g.PauseBefore(NodeDraft)
	g.PauseAfter(NodeImage)

	return g, nil
}
