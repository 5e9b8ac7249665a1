package steps

import (
	"context"
	"strings"

	"github.com/storieswithjai/ghostflow/pkg/collab"
	"github.com/storieswithjai/ghostflow/pkg/flow"
)

// signoffTag must be the very last element of every finished article.
const signoffTag = "#StoriesWithJai"

// Review returns the revision step. It asks the generator to move hashtags
// inline, then applies a deterministic policy on top of the generated text:
// the input draft's footer hashtag block is preserved byte-for-byte, the
// sign-off tag appears exactly once at the very end, and a failing generator
// degrades to policing the original draft instead of aborting.
func Review(gen collab.TextGenerator) flow.StepFunc {
	return func(ctx context.Context, s flow.State) (flow.Update, error) {
		if s.Draft == "" {
			return flow.Update{
				Log: []string{"review skipped: no draft"},
			}, nil
		}

		entry := "draft reviewed"

		rewritten, err := gen.Generate(ctx, reviewPrompt(s.Draft))
		if err != nil || strings.TrimSpace(rewritten) == "" {
			rewritten = s.Draft
			entry = "review: generator unavailable, applied hashtag policy to original draft"
		}

		return flow.Update{
			FinalDraft: flow.Some(applyHashtagPolicy(s.Draft, rewritten)),
			Log:        []string{entry},
		}, nil
	}
}

func reviewPrompt(draft string) string {
	var b strings.Builder
	b.WriteString("You are an expert social-media editor. Rewrite the draft below to ")
	b.WriteString("change its hashtag style from thematic (tags at the end of paragraphs) ")
	b.WriteString("to inline (tags inside sentences).\n\n")
	b.WriteString("Rules:\n")
	b.WriteString("1. Work 2-3 relevant hashtags into each paragraph by tagging important nouns or verbs; the text must still flow naturally.\n")
	b.WriteString("2. Remove standalone hashtags at the end of individual paragraphs.\n")
	b.WriteString("3. Do not touch the block of hashtags at the very bottom of the article.\n")
	b.WriteString("4. Do not touch the emojis.\n")
	b.WriteString("5. Place a short call to action at the end, just before the footer hashtags.\n")
	b.WriteString("6. Return only the updated text, no conversational filler.\n\n")
	b.WriteString("Draft:\n\n")
	b.WriteString(draft)
	return b.String()
}

// applyHashtagPolicy enforces the structural invariants on the rewritten
// text: whatever trailing tag block the generator produced is discarded and
// the original draft's footer is restored verbatim, followed by the sign-off
// tag if the footer does not already carry it.
func applyHashtagPolicy(original, rewritten string) string {
	footer := extractFooter(original)

	body := stripTrailingTagBlock(rewritten)
	body = removeTag(body, signoffTag)
	body = strings.TrimRight(body, " \t\n")

	out := body
	if footer != "" {
		out += "\n\n" + footer
	}
	if !strings.Contains(footer, signoffTag) {
		out += "\n\n" + signoffTag
	}
	return out
}

// extractFooter returns the contiguous block of hashtag-only lines at the
// very end of the text, joined exactly as written, or "" if there is none.
func extractFooter(text string) string {
	lines := strings.Split(strings.TrimRight(text, " \t\n"), "\n")

	start := len(lines)
	for i := len(lines) - 1; i >= 0; i-- {
		if !isHashtagLine(lines[i]) {
			break
		}
		start = i
	}
	if start == len(lines) {
		return ""
	}
	return strings.Join(lines[start:], "\n")
}

// stripTrailingTagBlock removes the trailing hashtag-only lines from the
// text, if any.
func stripTrailingTagBlock(text string) string {
	trimmed := strings.TrimRight(text, " \t\n")
	footer := extractFooter(trimmed)
	if footer == "" {
		return trimmed
	}
	return strings.TrimRight(trimmed[:len(trimmed)-len(footer)], " \t\n")
}

// isHashtagLine reports whether every token on the line is a hashtag.
func isHashtagLine(line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	for _, f := range fields {
		if !strings.HasPrefix(f, "#") || len(f) == 1 {
			return false
		}
	}
	return true
}

// removeTag deletes every occurrence of the tag from the text, tidying up
// doubled spaces left behind.
func removeTag(text, tag string) string {
	if !strings.Contains(text, tag) {
		return text
	}
	out := strings.ReplaceAll(text, tag, "")
	out = strings.ReplaceAll(out, "  ", " ")
	return out
}
