// Package command contains the CLI command constructors.
package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/stolasapp/forge/internal/config"
	"github.com/stolasapp/forge/internal/observability"
)

const defaultConfigFile = "forge.yaml"

// RootCommand instantiates the root command, with all sub-commands bound.
func RootCommand() *cobra.Command {
	configFilePath := defaultConfigFile
	cmd := &cobra.Command{
		Use:          "forge [command] [flags]",
		Short:        "Concatenate, transform and minify web assets",
		Version:      version(),
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) (err error) {
			cfg, err := loadOrInitConfig(configFilePath)
			if err != nil {
				return fmt.Errorf("failed to load configuration file: %w", err)
			}
			logger := observability.InitSlog(cfg.LogLevel, cfg.DevMode)
			logger.DebugContext(cmd.Context(), "configuration loaded",
				slog.String("path", configFilePath),
				slog.Int("builds", len(cfg.Builds)),
			)
			slog.SetDefault(logger)
			cmd.SetContext(context.WithValue(cmd.Context(), configKey{}, cfg))
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(
		&configFilePath,
		"config", "c",
		configFilePath,
		"path to the build file",
	)

	cmd.AddCommand(
		buildCommand(),
		validateCommand(),
		historyCommand(),
	)

	return cmd
}

func loadOrInitConfig(configFilePath string) (*config.Config, error) {
	cfg, err := config.Load(configFilePath)
	if err == nil || !errors.Is(err, os.ErrNotExist) {
		return cfg, err
	}

	resp, initErr := prompt(fmt.Sprintf("Build file not found at %s. Create one? [y|N] ", configFilePath))
	if initErr != nil || !bytes.Equal(resp, []byte("y")) {
		return nil, errors.Join(err, initErr)
	}

	input, err := prompt("Enter the input file or glob: ")
	if err != nil {
		return nil, err
	}
	output, err := prompt("Enter the output file: ")
	if err != nil {
		return nil, err
	}

	cfg = config.Default()
	cfg.History.Path = ""
	cfg.Builds = []config.Build{{
		Name:   filepath.Base(string(output)),
		Input:  config.Inputs{{File: string(input)}},
		Output: string(output),
	}}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal build file to YAML: %w", err)
	}
	if err = os.WriteFile(configFilePath, data, 0600); err != nil { //nolint:mnd // owner rw access
		return nil, fmt.Errorf("failed to write build file to %s: %w", configFilePath, err)
	}
	return config.Load(configFilePath)
}
