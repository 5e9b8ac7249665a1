// inspect.go implements the "ghostflow inspect" command and the shared
// session printer used by run and resume.
package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	ghostflow "github.com/storieswithjai/ghostflow"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <session-key>",
	Short: "Show a session's state without executing anything",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

func runInspect(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.close()

	sessionKey := args[0]
	state, pending, err := a.ctrl.Inspect(cmd.Context(), sessionKey)
	if err != nil {
		return fmt.Errorf("inspecting session %q: %w", sessionKey, err)
	}

	printSession(cmd, sessionKey, state, pending)
	return nil
}

// printSession renders the slice of state an operator needs to decide the
// next step: pending nodes, selectable topics and images, and the log.
func printSession(cmd *cobra.Command, sessionKey string, state ghostflow.State, pending []string) {
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Session: %s\n", sessionKey)
	if len(pending) == 0 {
		fmt.Fprintln(out, "Status:  completed")
	} else {
		fmt.Fprintf(out, "Status:  paused before %s\n", strings.Join(pending, ", "))
	}

	if len(state.ResearchResults) > 0 && state.SelectedTopic == nil {
		fmt.Fprintln(out, "\nTopics (pick one with resume --topic N):")
		for i, t := range state.ResearchResults {
			fmt.Fprintf(out, "  [%d] %s\n      %s\n", i, t.Title, t.Summary)
		}
	}
	if state.SelectedTopic != nil {
		fmt.Fprintf(out, "\nTopic: %s\n", state.SelectedTopic.Title)
	}

	if state.FinalDraft != "" {
		fmt.Fprintf(out, "\nFinal draft:\n%s\n", indent(state.FinalDraft))
	} else if state.Draft != "" {
		fmt.Fprintf(out, "\nDraft:\n%s\n", indent(state.Draft))
	}

	if len(state.ImageOptions) > 0 && state.SelectedImage == nil {
		fmt.Fprintln(out, "\nImages (pick one with resume --image N, or --no-image):")
		for i, img := range state.ImageOptions {
			fmt.Fprintf(out, "  [%d] %s (%s)\n", i, img.FullURL, img.Author)
		}
	}
	if state.SelectedImage != nil {
		fmt.Fprintf(out, "\nImage: %s\n", state.SelectedImage.FullURL)
	}
	if state.ScheduledTime != nil {
		fmt.Fprintf(out, "Scheduled for: %s\n", state.ScheduledTime.Format("2006-01-02 15:04 MST"))
	}

	if len(state.Log) > 0 {
		fmt.Fprintln(out, "\nLog:")
		for _, entry := range state.Log {
			fmt.Fprintf(out, "  - %s\n", entry)
		}
	}
}

func indent(s string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, l := range lines {
		lines[i] = "  " + l
	}
	return strings.Join(lines, "\n")
}
