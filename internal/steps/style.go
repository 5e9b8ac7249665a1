// Package steps contains the pipeline's units of work. Each constructor
// closes over its collaborators and returns a flow.StepFunc that reads the
// current state snapshot and produces a partial update.
package steps

import (
	"context"
	"strings"

	"github.com/storieswithjai/ghostflow/pkg/collab"
	"github.com/storieswithjai/ghostflow/pkg/flow"
)

// DefaultPersona is used when no reference texts are available or the
// generator is unreachable. The pipeline never blocks for lack of training
// examples.
const DefaultPersona = "Professional, first-person voice with short sentences and " +
	"bullet points. Optimistic tone, occasional emoji, hashtags woven through the text."

// maxStyleSamples bounds how many reference texts go into the analysis
// prompt, to stay well inside generator context limits.
const maxStyleSamples = 5

// Style returns the style-analysis step. It reads the author's reference
// texts and asks the generator for a persona description. Missing texts or a
// failing generator degrade to DefaultPersona rather than failing the step.
func Style(corpus collab.StyleCorpusSource, gen collab.TextGenerator) flow.StepFunc {
	return func(ctx context.Context, s flow.State) (flow.Update, error) {
		texts, err := corpus.ListReferenceTexts(ctx)
		if err != nil || len(texts) == 0 {
			return flow.Update{
				StylePersona: flow.Some(DefaultPersona),
				Log:          []string{"style: no reference texts, using default persona"},
			}, nil
		}

		if len(texts) > maxStyleSamples {
			texts = texts[:maxStyleSamples]
		}

		persona, err := gen.Generate(ctx, stylePrompt(texts))
		if err != nil || strings.TrimSpace(persona) == "" {
			return flow.Update{
				StylePersona: flow.Some(DefaultPersona),
				Log:          []string{"style: analysis unavailable, using default persona"},
			}, nil
		}

		return flow.Update{
			StylePersona: flow.Some(strings.TrimSpace(persona)),
			Log:          []string{"style analyzed"},
		}, nil
	}
}

func stylePrompt(texts []string) string {
	var b strings.Builder
	b.WriteString("You are an expert literary analyst. Analyze the following articles, ")
	b.WriteString("all written by the same author, and identify the writing style, tone, ")
	b.WriteString("voice and structural patterns.\n\n")
	b.WriteString("Focus on: tone, perspective, structure, vocabulary, how posts open, ")
	b.WriteString("and whether hashtags and emojis are used.\n\n")
	b.WriteString("Provide a concise persona description suitable as a system prompt for ")
	b.WriteString("writing new articles in exactly this style.\n\nArticles:\n\n")
	for i, t := range texts {
		if i > 0 {
			b.WriteString("\n\n---\n\n")
		}
		b.WriteString(t)
	}
	return b.String()
}
