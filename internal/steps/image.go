package steps

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/storieswithjai/ghostflow/pkg/collab"
	"github.com/storieswithjai/ghostflow/pkg/flow"
)

// ImageConfig parameterizes the image-discovery step.
type ImageConfig struct {
	// PerSource is how many results to keep from each provider. Default 4.
	PerSource int

	// MaxOptions caps the combined option list. Default 8.
	MaxOptions int

	// FallbackQuery is issued when both providers return nothing for the
	// topic-derived query.
	FallbackQuery string

	// Logger receives per-provider diagnostics. Defaults to a no-op logger.
	Logger zerolog.Logger
}

func (c *ImageConfig) defaults() {
	if c.PerSource <= 0 {
		c.PerSource = 4
	}
	if c.MaxOptions <= 0 {
		c.MaxOptions = 8
	}
	if c.FallbackQuery == "" {
		c.FallbackQuery = "professional storytelling workspace"
	}
}

// Image returns the image-discovery step. It derives a short search query
// from the topic title (falling back to the raw title if the generator
// fails), queries the two providers concurrently, keeps the first PerSource
// results of each in provider order, and concatenates primary-then-secondary
// capped at MaxOptions. When both providers come back empty, the fallback
// query is tried once. The resulting option list is never nil.
func Image(gen collab.TextGenerator, primary, secondary collab.ImageSource, cfg ImageConfig) flow.StepFunc {
	cfg.defaults()
	log := cfg.Logger

	return func(ctx context.Context, s flow.State) (flow.Update, error) {
		query := cfg.FallbackQuery
		if s.SelectedTopic != nil {
			query = shortenQuery(ctx, gen, s.SelectedTopic.Title)
		}

		options := searchBoth(ctx, primary, secondary, query, cfg, log)
		if len(options) == 0 && query != cfg.FallbackQuery {
			log.Debug().Str("query", query).Msg("no image results, retrying with fallback query")
			options = searchBoth(ctx, primary, secondary, cfg.FallbackQuery, cfg, log)
		}

		return flow.Update{
			ImageOptions: flow.Some(options),
			Log:          []string{formatImageLog(len(options))},
		}, nil
	}
}

func formatImageLog(n int) string {
	if n == 0 {
		return "no image options found"
	}
	return fmt.Sprintf("%d image options ready", n)
}

// shortenQuery asks the generator for a compact image-search query derived
// from the topic title; any failure falls back to the raw title.
func shortenQuery(ctx context.Context, gen collab.TextGenerator, title string) string {
	prompt := "Reduce the following article title to a 3-5 word image search query. " +
		"Return only the query, no quotes:\n\n" + title
	q, err := gen.Generate(ctx, prompt)
	q = strings.Trim(strings.TrimSpace(q), `"'`)
	if err != nil || q == "" {
		return title
	}
	return q
}

// searchBoth queries the two providers concurrently and merges their results
// in primary-then-secondary order. Provider failures produce empty slices,
// never an error.
func searchBoth(
	ctx context.Context,
	primary, secondary collab.ImageSource,
	query string,
	cfg ImageConfig,
	log zerolog.Logger,
) []flow.ImageCandidate {
	var (
		wg    sync.WaitGroup
		fromA []flow.ImageCandidate
		fromB []flow.ImageCandidate
	)

	search := func(src collab.ImageSource, dst *[]flow.ImageCandidate, name string) {
		defer wg.Done()
		if src == nil {
			return
		}
		res, err := src.Search(ctx, query)
		if err != nil {
			log.Debug().Err(err).Str("provider", name).Str("query", query).Msg("image search failed")
			return
		}
		if len(res) > cfg.PerSource {
			res = res[:cfg.PerSource]
		}
		*dst = res
	}

	wg.Add(2)
	go search(primary, &fromA, "primary")
	go search(secondary, &fromB, "secondary")
	wg.Wait()

	merged := make([]flow.ImageCandidate, 0, len(fromA)+len(fromB))
	merged = append(merged, fromA...)
	merged = append(merged, fromB...)
	if len(merged) > cfg.MaxOptions {
		merged = merged[:cfg.MaxOptions]
	}
	return merged
}
