package content

import (
	"archive/zip"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/mholt/archives"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const kmlDoc = `<?xml version="1.0"?><kml><Document/></kml>`

func gzipped(t *testing.T, data string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w, err := archives.Gz{}.OpenWriter(&buf)
	require.NoError(t, err)
	_, err = w.Write([]byte(data))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func zipped(t *testing.T, files ...string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	_, err := zw.Create("images/")
	require.NoError(t, err)
	for i := 0; i+1 < len(files); i += 2 {
		w, err := zw.Create(files[i])
		require.NoError(t, err)
		_, err = w.Write([]byte(files[i+1]))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestDecompress(t *testing.T) {
	tests := []struct {
		name    string
		input   []byte
		want    string
		wantErr bool
	}{
		{name: "gzip", input: gzipped(t, kmlDoc), want: kmlDoc},
		{name: "kmz takes first file", input: zipped(t, "doc.kml", kmlDoc, "images/icon.png", pngHeader), want: kmlDoc},
		{name: "plain file untouched", input: []byte(kmlDoc), want: kmlDoc},
		{name: "png untouched", input: []byte(pngHeader), want: pngHeader},
		{name: "empty archive", input: zipped(t), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, "download")
			require.NoError(t, os.WriteFile(path, tt.input, 0o644))

			err := Decompress(context.Background(), path)
			if tt.wantErr {
				assert.Error(t, err)
				got, readErr := os.ReadFile(path)
				require.NoError(t, readErr)
				assert.Equal(t, tt.input, got)
			} else {
				require.NoError(t, err)
				got, readErr := os.ReadFile(path)
				require.NoError(t, readErr)
				assert.Equal(t, tt.want, string(got))
			}

			leftovers, _ := filepath.Glob(filepath.Join(dir, "dl-*.tmp"))
			assert.Empty(t, leftovers)
		})
	}
}
