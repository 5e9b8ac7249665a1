// resume.go implements the "ghostflow resume" command for supplying a
// decision to a paused session and driving it forward.
package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	ghostflow "github.com/storieswithjai/ghostflow"
)

var resumeCmd = &cobra.Command{
	Use:   "resume <session-key>",
	Short: "Resume a paused session with a decision",
	Long: `Apply the operator's decision to a paused session and execute until the
next pause point or completion.

At the topic pause, pick a research result with --topic. At the image
pause, pick an option with --image (or --no-image), optionally set
--schedule, and optionally replace the text with --final-draft-file.
To discard a draft entirely, start over under a fresh session key
instead of resuming.`,
	Args: cobra.ExactArgs(1),
	RunE: runResume,
}

var (
	topicIndex     int
	imageIndex     int
	noImage        bool
	scheduleAt     string
	finalDraftFile string
)

func init() {
	resumeCmd.Flags().IntVar(&topicIndex, "topic", -1, "Index of the research topic to draft (from inspect output)")
	resumeCmd.Flags().IntVar(&imageIndex, "image", -1, "Index of the image option to attach")
	resumeCmd.Flags().BoolVar(&noImage, "no-image", false, "Publish without an image")
	resumeCmd.Flags().StringVar(&scheduleAt, "schedule", "", "Publish at this RFC3339 time instead of immediately")
	resumeCmd.Flags().StringVar(&finalDraftFile, "final-draft-file", "", "Replace the reviewed text with this file's contents")
}

func runResume(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.close()

	sessionKey := args[0]

	// Index flags are resolved against the stored state, so read it first.
	current, _, err := a.ctrl.Inspect(cmd.Context(), sessionKey)
	if err != nil {
		return fmt.Errorf("inspecting session %q: %w", sessionKey, err)
	}

	patch, err := buildPatch(current)
	if err != nil {
		return err
	}

	state, pending, err := a.ctrl.Resume(cmd.Context(), sessionKey, patch)
	if err != nil {
		return fmt.Errorf("resuming session %q: %w", sessionKey, err)
	}

	printSession(cmd, sessionKey, state, pending)
	return nil
}

func buildPatch(current ghostflow.State) (ghostflow.Update, error) {
	var patch ghostflow.Update

	if topicIndex >= 0 {
		if topicIndex >= len(current.ResearchResults) {
			return patch, fmt.Errorf("--topic %d out of range: %d topics available", topicIndex, len(current.ResearchResults))
		}
		topic := current.ResearchResults[topicIndex]
		patch.SelectedTopic = ghostflow.Some(&topic)
	}

	if noImage {
		patch.SelectedImage = ghostflow.Some[*ghostflow.ImageCandidate](nil)
	} else if imageIndex >= 0 {
		if imageIndex >= len(current.ImageOptions) {
			return patch, fmt.Errorf("--image %d out of range: %d options available", imageIndex, len(current.ImageOptions))
		}
		img := current.ImageOptions[imageIndex]
		patch.SelectedImage = ghostflow.Some(&img)
	}

	if scheduleAt != "" {
		at, err := time.Parse(time.RFC3339, scheduleAt)
		if err != nil {
			return patch, fmt.Errorf("parsing --schedule: %w", err)
		}
		patch.ScheduledTime = ghostflow.Some(&at)
	}

	if finalDraftFile != "" {
		data, err := os.ReadFile(finalDraftFile)
		if err != nil {
			return patch, fmt.Errorf("reading --final-draft-file: %w", err)
		}
		patch.FinalDraft = ghostflow.Some(string(data))
	}

	return patch, nil
}
