package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/glorpus-work/tilefetch/internal/logger"
	"github.com/glorpus-work/tilefetch/pkg/download"
)

// NewBatchCmd creates the batch command.
func NewBatchCmd() *cobra.Command {
	var (
		flags   fetchFlags
		dir     string
		workers int
	)

	cmd := &cobra.Command{
		Use:   "batch FILE",
		Short: "Download every URI listed in a file",
		Long: `Download the entries of FILE concurrently. Each line holds a URI and a
destination separated by whitespace; blank lines and lines starting with #
are ignored. Use - to read the list from stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, &flags, args[0], dir, workers)
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&dir, "dir", "", "Directory relative destinations are resolved against")
	cmd.Flags().IntVar(&workers, "workers", 0, "Number of parallel downloads (0 = settings.workers)")

	return cmd
}

func runBatch(cmd *cobra.Command, flags *fetchFlags, file, dir string, workers int) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	opts, err := flags.options(cfg, cmd.Flags())
	if err != nil {
		return err
	}

	var in io.Reader = cmd.InOrStdin()
	if file != "-" {
		f, err := os.Open(file)
		if err != nil {
			return fmt.Errorf("failed to open batch file: %w", err)
		}
		defer func() { _ = f.Close() }()
		in = f
	}
	reqs, err := parseBatch(in, dir, opts)
	if err != nil {
		return err
	}

	if workers <= 0 {
		workers = cfg.Settings.Workers
	}
	manager, release, err := newManager(cfg)
	if err != nil {
		return err
	}
	defer release()

	logger.Debug("Starting batch", logger.Fields{"requests": len(reqs), "workers": workers})
	results := manager.FetchAll(cmd.Context(), reqs, workers)

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, TabWidth, ' ', 0)
	failed := 0
	for i, res := range results {
		if !res.OK() {
			failed++
			_, _ = fmt.Fprintf(tw, "%s\t%s\t%v\n", res.Status, reqs[i].Dest, res.Err)
			continue
		}
		_, _ = fmt.Fprintln(tw, describe(res, reqs[i].Dest))
	}
	_ = tw.Flush()

	if failed > 0 {
		return fmt.Errorf("%d of %d downloads failed", failed, len(results))
	}
	return nil
}

// parseBatch reads "URI DEST" lines.
func parseBatch(r io.Reader, dir string, opts *download.Options) ([]download.Request, error) {
	var reqs []download.Request
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) != 2 {
			return nil, fmt.Errorf("line %d: expected \"URI DEST\", got %q", line, text)
		}
		dest := fields[1]
		if dir != "" && !filepath.IsAbs(dest) {
			dest = filepath.Join(dir, dest)
		}
		reqs = append(reqs, download.Request{URI: fields[0], Dest: dest, Options: opts})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read batch file: %w", err)
	}
	return reqs, nil
}
