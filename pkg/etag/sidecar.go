// Package etag persists entity tags between runs, keyed by destination path.
// Every store satisfies download.ETagStore.
package etag

import (
	"os"
	"strings"

	"github.com/glorpus-work/tilefetch/pkg/errors"
	"github.com/glorpus-work/tilefetch/pkg/fsutil"
)

// SidecarSuffix is appended to a destination path to name its ETag file.
const SidecarSuffix = ".etag"

// SidecarStore keeps the ETag of dest in the file dest + ".etag". It works on
// every filesystem.
type SidecarStore struct{}

// NewSidecarStore creates a SidecarStore.
func NewSidecarStore() *SidecarStore { return &SidecarStore{} }

// Get returns "" when no sidecar exists.
func (s *SidecarStore) Get(path string) (string, error) {
	b, err := os.ReadFile(path + SidecarSuffix)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", errors.Wrapf(err, "could not read etag for %s", path)
	}
	return strings.TrimSpace(string(b)), nil
}

// Set writes the sidecar next to path.
func (s *SidecarStore) Set(path, etag string) error {
	if err := os.WriteFile(path+SidecarSuffix, []byte(etag+"\n"), fsutil.FileModeSecure); err != nil {
		return errors.Wrapf(err, "could not write etag for %s", path)
	}
	return nil
}

// Delete removes the sidecar if present.
func (s *SidecarStore) Delete(path string) error {
	return fsutil.RemoveIfExists(path + SidecarSuffix)
}
