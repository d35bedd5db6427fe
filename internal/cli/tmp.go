package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewTmpCmd creates the tmp command.
func NewTmpCmd() *cobra.Command {
	var flags fetchFlags

	cmd := &cobra.Command{
		Use:   "tmp URI",
		Short: "Download into a new temporary file and print its path",
		Long:  "Download URI into a fresh temporary file. The caller removes the file.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			opts, err := flags.options(cfg, cmd.Flags())
			if err != nil {
				return err
			}
			manager, release, err := newManager(cfg)
			if err != nil {
				return err
			}
			defer release()

			path, err := manager.TempFile(cmd.Context(), args[0], opts)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	flags.register(cmd)

	return cmd
}
