// scheduler.go implements the "ghostflow scheduler" command: a long-running
// process that publishes scheduled posts when their time arrives.
package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/storieswithjai/ghostflow/internal/postqueue"
)

var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Run the scheduled-post publisher until interrupted",
	Long: `Poll the scheduled-post store at the configured interval and publish
every pending post whose time has arrived. Posts already past due are
published on the first scan. Runs until SIGINT or SIGTERM.`,
	Args: cobra.NoArgs,
	RunE: runScheduler,
}

func runScheduler(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.close()

	poller := postqueue.NewPoller(a.posts, a.pub, a.cfg.PollInterval.Std(), a.log)
	if err := poller.Start(cmd.Context()); err != nil {
		return err
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	poller.Stop()
	return nil
}
