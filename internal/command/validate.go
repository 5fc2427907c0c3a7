package command

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/stolasapp/forge/internal/build"
	"github.com/stolasapp/forge/internal/pipeline"
	"github.com/stolasapp/forge/internal/source"
)

func validateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the build file without building",
		Long: "Loads the build file, infers each build's type, expands its inputs and reads\n" +
			"its modifier contents. Nothing is written.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			coord := build.NewCoordinator(build.Options{}, logger)
			var errs []error
			for _, bld := range cfg.Builds {
				_, kind, sources, err := coord.Prepare(bld)
				if err == nil {
					err = checkSources(sources)
				}
				if err != nil {
					errs = append(errs, &build.RunError{Name: bld.Label(), Err: err})
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "FAIL %s: %v\n", bld.Label(), err)
					continue
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "ok   %s (%s, %d inputs)\n", bld.Label(), kind, len(sources))
			}
			return errors.Join(errs...)
		},
	}
}

func checkSources(sources []source.Source) error {
	for _, src := range sources {
		if _, err := os.Stat(src.Path); err != nil {
			return fmt.Errorf("%w: %w", pipeline.ErrSourceUnreadable, err)
		}
	}
	return nil
}
