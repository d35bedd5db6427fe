package cli

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/glorpus-work/tilefetch/internal/logger"
	"github.com/glorpus-work/tilefetch/pkg/config"
)

// NewConfigCmd creates the config command with subcommands.
func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long:  "View and modify tilefetch configuration settings",
	}

	cmd.AddCommand(
		newConfigShowCmd(),
		newConfigSetCmd(),
		newConfigGetCmd(),
		newConfigInitCmd(),
	)

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Long:  "Display the effective settings and the configured sources",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			tw := tabwriter.NewWriter(out, 0, 0, TabWidth, ' ', 0)
			_, _ = fmt.Fprintln(tw, "SETTING\tVALUE")
			_, _ = fmt.Fprintln(tw, "-------\t-----")
			settings := cfg.ToMap()
			keys := make([]string, 0, len(settings))
			for key := range settings {
				keys = append(keys, key)
			}
			sort.Strings(keys)
			for _, key := range keys {
				_, _ = fmt.Fprintf(tw, "%s\t%s\n", key, settings[key])
			}
			_ = tw.Flush()

			names := cfg.SourceNames()
			_, _ = fmt.Fprintf(out, "\nSources (%d):\n", len(names))
			for _, name := range names {
				_, _ = fmt.Fprintf(out, "  %s\n", name)
			}
			return nil
		},
	}
}

// Number of arguments expected by the set command.
const setCommandArgs = 2

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Set a configuration value",
		Long:  "Set a settings key to a specific value and save the configuration file",
		Args:  cobra.ExactArgs(setCommandArgs),
		RunE: func(_ *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := cfg.SetValue(args[0], args[1]); err != nil {
				return fmt.Errorf("failed to set configuration value: %w", err)
			}
			if err := cfg.SaveConfig(getConfigPath()); err != nil {
				return fmt.Errorf("failed to save configuration: %w", err)
			}
			logger.Info("Configuration updated", logger.Fields{"key": args[0], "value": args[1]})
			return nil
		},
	}
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get KEY",
		Short: "Get a configuration value",
		Long:  "Get the value of a specific settings key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			value, err := cfg.GetValue(args[0])
			if err != nil {
				return fmt.Errorf("failed to get configuration value: %w", err)
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), value)
			return nil
		},
	}
}

func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration file",
		Long:  "Create a default configuration file",
		RunE: func(_ *cobra.Command, _ []string) error {
			configPath := getConfigPath()
			if _, err := os.Stat(configPath); err == nil && !force {
				return fmt.Errorf("configuration file already exists at %s (use --force to overwrite)", configPath)
			}
			if err := config.DefaultConfig().SaveConfig(configPath); err != nil {
				return fmt.Errorf("failed to save default configuration: %w", err)
			}
			logger.Info("Configuration file created", logger.Fields{"path": configPath})
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing configuration file")

	return cmd
}
