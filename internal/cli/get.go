package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/glorpus-work/tilefetch/pkg/download"
)

// NewGetCmd creates the get command.
func NewGetCmd() *cobra.Command {
	var flags fetchFlags

	cmd := &cobra.Command{
		Use:   "get URI DEST",
		Short: "Download a file unless the local copy is fresh",
		Long: `Download URI into DEST. The transfer is skipped when DEST is younger than
the expiry age, or short-circuited when the server reports it unchanged.
DEST is replaced atomically and only after the content checks passed.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGet(cmd, &flags, args[0], args[1])
		},
	}
	flags.register(cmd)

	return cmd
}

func runGet(cmd *cobra.Command, flags *fetchFlags, uri, dest string) error {
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

	h := manager.Acquire()
	defer manager.Release(h)

	res := manager.Get(cmd.Context(), h, uri, dest, opts)
	if !res.OK() {
		return fmt.Errorf("%s: %w", res.Status, res.Err)
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), describe(res, dest))
	return nil
}

func describe(res download.Result, dest string) string {
	if res.Status == download.StatusSuccess {
		return fmt.Sprintf("%s\t%s\t%s", res.Status, dest, humanize.Bytes(uint64(res.Bytes)))
	}
	return fmt.Sprintf("%s\t%s", res.Status, dest)
}
