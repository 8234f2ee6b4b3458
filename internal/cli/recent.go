package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/me/flowctl/internal/config"
	"github.com/me/flowctl/internal/store"
)

func newRecentCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "recent",
		Short: "List executions recently triggered from this machine",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.HistoryDBPath()
			if err != nil {
				return fmt.Errorf("locate history: %w", err)
			}
			h, err := store.Open(path, logger)
			if err != nil {
				return fmt.Errorf("open history: %w", err)
			}
			defer h.Close()

			if err := h.Migrate(cmd.Context()); err != nil {
				return fmt.Errorf("migrate history: %w", err)
			}

			runs, err := h.Recent(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("list history: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No executions recorded.")
				return nil
			}

			fmt.Fprintf(out, "%-16s  %-10s  %-30s  %-24s  %s\n", "EXECUTION", "PHASE", "WORKFLOW", "PROJECT/DOMAIN", "CREATED")
			for _, run := range runs {
				fmt.Fprintf(out, "%-16s  %-10s  %-30s  %-24s  %s\n",
					run.Execution, run.Phase, run.Workflow,
					run.Project+"/"+run.Domain, humanize.Time(run.CreatedAt))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of executions to list")
	return cmd
}
