package main

import (
	"fmt"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"lensflow/internal/config"
)

func newConfigCommand() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigShowCommand())

	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return fmt.Errorf("determine default config path: %w", err)
				}
				target = defaultPath
			}

			written, err := config.WriteSample(target)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", written)
			fmt.Fprintln(out, "Edit the file to set api_key (or export GEMINI_API_KEY) before running lensflow.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	return cmd
}

func newConfigShowCommand() *cobra.Command {
	var configFlag string

	cmd := &cobra.Command{
		Use:         "show",
		Short:       "Print the resolved configuration",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, exists, err := config.Load(configFlag)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			// Never print the credential.
			redacted := *cfg
			if redacted.Gemini.APIKey != "" {
				redacted.Gemini.APIKey = "(set)"
			}
			encoded, err := toml.Marshal(redacted)
			if err != nil {
				return fmt.Errorf("encode config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "# Config path: %s\n", path)
			if !exists {
				fmt.Fprintln(out, "# File not found; defaults shown")
			}
			fmt.Fprint(out, string(encoded))
			return nil
		},
	}

	cmd.Flags().StringVarP(&configFlag, "file", "f", "", "Configuration file path")
	return cmd
}
