package content

import (
	"context"
	stderrors "errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/mholt/archives"

	"github.com/glorpus-work/tilefetch/internal/logger"
	"github.com/glorpus-work/tilefetch/pkg/errors"
	"github.com/glorpus-work/tilefetch/pkg/fsutil"
)

var errEmptyArchive = stderrors.New("archive contains no regular file")

// Decompress replaces the file at path with its decompressed content when it
// is a compressed stream (gzip, bzip2, xz, zstd, ...). An archive such as a
// KMZ is replaced by its first regular file. Anything else is left as is.
func Decompress(ctx context.Context, path string) error {
	src, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()

	format, _, err := archives.Identify(ctx, "", src)
	if stderrors.Is(err, archives.NoMatch) {
		return nil
	}
	if err != nil {
		return errors.Wrapf(err, "could not identify %s", path)
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return err
	}

	out, err := os.CreateTemp(filepath.Dir(path), fsutil.TempPattern)
	if err != nil {
		return err
	}
	outPath := out.Name()
	defer func() { _ = fsutil.RemoveIfExists(outPath) }()

	var n int64
	switch f := format.(type) {
	case archives.Extractor:
		n, err = extractFirst(ctx, f, src, out)
	case archives.Decompressor:
		n, err = decompressTo(f, src, out)
	default:
		_ = out.Close()
		return nil
	}
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return errors.Wrapf(err, "could not unpack %s", path)
	}

	logger.Debug("unpacked download", logger.Fields{"path": path, "format": format.Extension(), "size": humanize.Bytes(uint64(n))})
	return fsutil.ReplaceFile(outPath, path)
}

func decompressTo(d archives.Decompressor, src io.Reader, dst io.Writer) (int64, error) {
	rc, err := d.OpenReader(src)
	if err != nil {
		return 0, err
	}
	defer func() { _ = rc.Close() }()
	return io.Copy(dst, rc)
}

// extractFirst copies the first regular file of the archive into dst.
func extractFirst(ctx context.Context, ex archives.Extractor, src io.Reader, dst io.Writer) (int64, error) {
	var n int64
	found := false
	err := ex.Extract(ctx, src, func(_ context.Context, info archives.FileInfo) error {
		if info.IsDir() || info.LinkTarget != "" {
			return nil
		}
		f, err := info.Open()
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()
		if n, err = io.Copy(dst, f); err != nil {
			return err
		}
		found = true
		return fs.SkipAll
	})
	if err != nil && !stderrors.Is(err, fs.SkipAll) {
		return n, err
	}
	if !found {
		return 0, errEmptyArchive
	}
	return n, nil
}
