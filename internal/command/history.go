package command

import (
	"errors"
	"fmt"
	"log/slog"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func historyCommand() *cobra.Command {
	var (
		name  string
		limit int32
		prune time.Duration
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded builds",
		Long: "Lists the most recent build runs stored in the history database. With --prune,\n" +
			"runs older than the given duration are deleted first.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (runErr error) {
			cfg, logger, err := loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			store, err := openHistory(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer func() {
				if err := store.Close(); err != nil {
					runErr = errors.Join(runErr, err)
				}
			}()

			if prune > 0 {
				removed, err := store.PruneRuns(cmd.Context(), time.Now().Add(-prune))
				if err != nil {
					return err
				}
				logger.InfoContext(cmd.Context(), "pruned history", slog.Int64("removed", removed))
			}

			runs, err := store.ListRuns(cmd.Context(), name, limit)
			if err != nil {
				return err
			}
			out := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0) //nolint:mnd // column padding
			_, _ = fmt.Fprintln(out, "ID\tSTARTED\tNAME\tKIND\tSTATUS\tELAPSED\tBYTES\tOUTPUT")
			for _, run := range runs {
				_, _ = fmt.Fprintf(out, "%d\t%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
					run.ID,
					run.StartedAt.Local().Format(time.DateTime),
					run.Name,
					run.Kind,
					run.Status,
					run.Elapsed().Round(time.Millisecond),
					run.Bytes,
					run.Output,
				)
			}
			return out.Flush()
		},
	}
	cmd.Flags().StringVarP(&name, "name", "n", "", "only list runs of this build")
	cmd.Flags().Int32VarP(&limit, "limit", "l", 20, "maximum number of runs to list") //nolint:mnd // default page
	cmd.Flags().DurationVar(&prune, "prune", 0, "delete runs older than this duration first")
	return cmd
}
