package etag

import (
	stderrors "errors"
	"io/fs"

	"github.com/pkg/xattr"

	"github.com/glorpus-work/tilefetch/pkg/errors"
)

// XattrName is the extended attribute holding the ETag.
const XattrName = "user.etag"

// XattrStore keeps the ETag in an extended attribute of the destination file
// itself, so it moves and disappears together with the file. The filesystem
// must support user xattrs.
type XattrStore struct{}

// NewXattrStore creates an XattrStore.
func NewXattrStore() *XattrStore { return &XattrStore{} }

// Get returns "" when the file or the attribute does not exist.
func (s *XattrStore) Get(path string) (string, error) {
	b, err := xattr.Get(path, XattrName)
	if err != nil {
		if absent(err) {
			return "", nil
		}
		return "", errors.Wrapf(err, "could not read etag for %s", path)
	}
	return string(b), nil
}

// Set stores etag on path, which must exist.
func (s *XattrStore) Set(path, etag string) error {
	if err := xattr.Set(path, XattrName, []byte(etag)); err != nil {
		return errors.Wrapf(err, "could not write etag for %s", path)
	}
	return nil
}

// Delete removes the attribute if present.
func (s *XattrStore) Delete(path string) error {
	if err := xattr.Remove(path, XattrName); err != nil && !absent(err) {
		return errors.Wrapf(err, "could not remove etag for %s", path)
	}
	return nil
}

func absent(err error) bool {
	var xe *xattr.Error
	if !stderrors.As(err, &xe) {
		return false
	}
	return xe.Err == xattr.ENOATTR || stderrors.Is(xe.Err, fs.ErrNotExist)
}
