package command

import (
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/stolasapp/forge/internal/build"
)

func buildCommand() *cobra.Command {
	var (
		filter          string
		continueOnError bool
	)
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Run the builds",
		Long: "Runs every build in the build file, in order. The first failure stops the\n" +
			"remaining builds unless --continue-on-error or continue_on_error is set.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (runErr error) {
			cfg, logger, err := loadConfig(cmd.Context())
			if err != nil {
				return err
			}

			builds := cfg.Builds
			if filter != "" {
				flt, err := build.NewFilter(filter)
				if err != nil {
					return err
				}
				if builds, err = flt.Apply(cmd.Context(), builds); err != nil {
					return err
				}
				logger.DebugContext(cmd.Context(), "filtered builds",
					slog.String("filter", filter),
					slog.Int("matched", len(builds)),
				)
			}

			opts := build.Options{
				Report:          cfg.Logger,
				Banner:          cfg.Banner,
				Out:             cmd.OutOrStdout(),
				ContinueOnError: cfg.ContinueOnError || continueOnError,
			}
			if cfg.History.Enabled {
				store, err := openHistory(cmd.Context(), cfg, logger)
				if err != nil {
					return err
				}
				defer func() {
					if err := store.Close(); err != nil {
						runErr = errors.Join(runErr, err)
					}
				}()
				opts.Recorder = store
			}

			_, err = build.NewCoordinator(opts, logger).Run(cmd.Context(), builds)
			return err
		},
	}
	cmd.Flags().StringVarP(&filter, "filter", "f", "",
		`CEL expression selecting builds, e.g. 'kind == "css" && minify'`)
	cmd.Flags().BoolVar(&continueOnError, "continue-on-error", false,
		"run the remaining builds after one fails")
	return cmd
}
