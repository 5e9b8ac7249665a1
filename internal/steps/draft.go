package steps

import (
	"context"
	"strings"

	"github.com/storieswithjai/ghostflow/pkg/collab"
	"github.com/storieswithjai/ghostflow/pkg/flow"
)

// Draft returns the article-drafting step. It requires both a selected topic
// and a style persona; when either is missing it is a no-op that only leaves
// a diagnostic log entry. The style corpus is consulted best-effort for a
// sample draft to anchor the generation prompt.
func Draft(gen collab.TextGenerator, corpus collab.StyleCorpusSource) flow.StepFunc {
	return func(ctx context.Context, s flow.State) (flow.Update, error) {
		if s.SelectedTopic == nil || s.StylePersona == "" {
			return flow.Update{
				Log: []string{"draft skipped: missing selected topic or style persona"},
			}, nil
		}

		sample := ""
		if texts, err := corpus.ListReferenceTexts(ctx); err == nil && len(texts) > 0 {
			sample = texts[len(texts)-1]
		}

		draft, err := gen.Generate(ctx, draftPrompt(*s.SelectedTopic, s.StylePersona, sample))
		if err != nil {
			return flow.Update{}, err
		}

		return flow.Update{
			Draft: flow.Some(strings.TrimSpace(draft)),
			Log:   []string{"draft created"},
		}, nil
	}
}

func draftPrompt(topic flow.Topic, persona, sample string) string {
	var b strings.Builder
	b.WriteString("You are a ghostwriter for a professional social-media author. ")
	b.WriteString("Write an article about the topic below, adopting the persona exactly.\n\n")
	b.WriteString("# Persona\n")
	b.WriteString(persona)
	b.WriteString("\n\n# Topic\nTitle: ")
	b.WriteString(topic.Title)
	b.WriteString("\nSummary: ")
	b.WriteString(topic.Summary)
	b.WriteString("\nKey points:\n")
	for _, kp := range topic.KeyPoints {
		b.WriteString("- ")
		b.WriteString(kp)
		b.WriteString("\n")
	}
	if topic.TranscriptExcerpt != "" {
		b.WriteString("\nTranscript excerpt:\n")
		b.WriteString(topic.TranscriptExcerpt)
		b.WriteString("\n")
	}
	b.WriteString("\n# Instructions\n")
	b.WriteString("1. Follow the persona's tone, sentence structure and vocabulary.\n")
	b.WriteString("2. Incorporate the key points from the source material.\n")
	b.WriteString("3. Add a plausible personal touch or story.\n")
	b.WriteString("4. Use hashtags throughout the article, not just at the end, plus emojis where natural.\n")
	b.WriteString("5. Short paragraphs and a clear hook; end with " + signoffTag + ".\n")
	if sample != "" {
		b.WriteString("\nA sample of an earlier article for reference:\n\n")
		b.WriteString(sample)
	}
	return b.String()
}
