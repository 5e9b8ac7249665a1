// run.go implements the "ghostflow run" command for starting a session.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run <session-key>",
	Short: "Start a new pipeline session",
	Long: `Start a new session under the given key and execute until the first
pause point. The session stops before drafting so a topic can be chosen
with "ghostflow resume --topic". Starting over a paused or finished key
discards that session and begins fresh; a key with an execution still in
flight is refused.`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.close()

	sessionKey := args[0]
	state, pending, err := a.ctrl.Start(cmd.Context(), sessionKey)
	if err != nil {
		return fmt.Errorf("starting session %q: %w", sessionKey, err)
	}

	printSession(cmd, sessionKey, state, pending)
	return nil
}
