package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/glorpus-work/tilefetch/pkg/config"
	"github.com/glorpus-work/tilefetch/pkg/content"
	"github.com/glorpus-work/tilefetch/pkg/download"
)

// fetchFlags are the per-fetch flags shared by get, tmp and batch. Flags
// that were set on the command line override the selected source.
type fetchFlags struct {
	source     string
	checkTime  bool
	etag       bool
	expiry     time.Duration
	checker    string
	decompress bool
	referer    string
	headers    []string
	user       string
	follow     int
	cookies    bool
}

func (f *fetchFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.source, "source", "", "Named source from the configuration")
	fs.BoolVar(&f.checkTime, "check-time", false, "Ask the server whether the file changed since the local copy")
	fs.BoolVar(&f.etag, "etag", false, "Use and store ETags")
	fs.DurationVar(&f.expiry, "expiry", download.DefaultExpiryAge, "Refetch local files older than this")
	fs.StringVar(&f.checker, "checker", "", "Content checker (none, html, image, kml)")
	fs.BoolVar(&f.decompress, "decompress", false, "Decompress the downloaded file")
	fs.StringVar(&f.referer, "referer", "", "Referer header")
	fs.StringArrayVarP(&f.headers, "header", "H", nil, "Extra request header \"Name: value\" (repeatable)")
	fs.StringVarP(&f.user, "user", "u", "", "Credentials as user:password")
	fs.IntVar(&f.follow, "follow", 0, "Maximum number of redirects to follow")
	fs.BoolVar(&f.cookies, "cookies", false, "Use the shared cookie store")
}

// options resolves the source and applies the flags set on top of it.
func (f *fetchFlags) options(cfg *config.Config, fs *pflag.FlagSet) (*download.Options, error) {
	src, err := cfg.Source(f.source)
	if err != nil {
		return nil, err
	}
	opts, err := src.ToOptions()
	if err != nil {
		return nil, fmt.Errorf("source %q: %w", f.source, err)
	}
	opts.UseCookies = opts.UseCookies || cfg.Settings.Cookies

	if fs.Changed("check-time") {
		opts.CheckServerFreshness = f.checkTime
	}
	if fs.Changed("etag") {
		opts.UseETag = f.etag
	}
	if fs.Changed("expiry") || src.ExpiryAge == 0 {
		opts.ExpiryAge = f.expiry
	}
	if fs.Changed("checker") {
		if opts.Checker, err = content.CheckerByName(f.checker); err != nil {
			return nil, err
		}
	}
	if fs.Changed("decompress") {
		opts.PostProcessor = nil
		if f.decompress {
			opts.PostProcessor = content.Decompress
		}
	}
	if fs.Changed("referer") {
		opts.Referer = f.referer
	}
	for _, h := range f.headers {
		parsed, err := download.ParseHeaders(h)
		if err != nil {
			return nil, err
		}
		opts.Headers = append(opts.Headers, parsed...)
	}
	if fs.Changed("user") {
		opts.Credentials = f.user
		opts.Auth = nil
	}
	if fs.Changed("follow") {
		opts.FollowRedirects = f.follow
	}
	if fs.Changed("cookies") {
		opts.UseCookies = f.cookies
	}

	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return opts, nil
}
