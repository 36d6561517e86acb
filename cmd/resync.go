package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"tonotes/search"

	"github.com/spf13/cobra"
)

var resume bool

var resyncCmd = &cobra.Command{
	Use:   "resync",
	Short: "Rebuild the search index from MongoDB",
	Long: `Reindexes every note in id order. The last indexed id is checkpointed
after each batch (in Redis when REDIS_URL is set), so an interrupted run can
continue with --resume. Running it again is always safe.`,
	Example: "tonotes resync --resume",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.close(ctx)

		if err := a.ensureSchema(ctx); err != nil {
			return err
		}
		count, err := a.synchronizer.Resync(ctx, search.ResyncOptions{Resume: resume})
		if err != nil {
			a.logger.Error("resync failed", "indexed", count, "error", err)
			return fmt.Errorf("resync stopped after %d notes: %w", count, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "indexed %d notes\n", count)
		return nil
	},
}

func init() {
	resyncCmd.Flags().BoolVar(&resume, "resume", false, "continue from the last checkpoint")
	rootCmd.AddCommand(resyncCmd)
}
