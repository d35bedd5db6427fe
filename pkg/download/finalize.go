package download

import (
	"context"
	"os"

	"github.com/glorpus-work/tilefetch/pkg/fsutil"
)

// Finalize runs the content check and the post-processor on tmpPath and then
// atomically promotes it to dest. On any failure dest is left as it was and
// the caller is expected to remove tmpPath.
func Finalize(ctx context.Context, tmpPath, dest string, opts *Options) error {
	if opts.Checker != nil {
		f, err := os.Open(tmpPath)
		if err != nil {
			return newError(StatusFileWriteError, "check", dest, err)
		}
		ok := opts.Checker(f)
		_ = f.Close()
		if !ok {
			return newError(StatusContentError, "check", dest, ErrContentRejected)
		}
	}

	if opts.PostProcessor != nil {
		if err := opts.PostProcessor(ctx, tmpPath); err != nil {
			return newError(StatusContentError, "convert", dest, err)
		}
	}

	if err := os.Chmod(tmpPath, fsutil.FileModeDefault); err != nil {
		return newError(StatusFileWriteError, "promote", dest, err)
	}
	if err := fsutil.ReplaceFile(tmpPath, dest); err != nil {
		return newError(StatusFileWriteError, "promote", dest, err)
	}
	return nil
}
