package publish

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Filesystem implements Store under a root directory. Keys map to relative
// paths; content type and metadata are not persisted.
type Filesystem struct {
	root string
}

// NewFilesystem returns a store rooted at root, creating it if needed.
func NewFilesystem(root string) (*Filesystem, error) {
	if root == "" {
		return nil, errors.New("publish: empty filesystem root")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &Filesystem{root: root}, nil
}

func (s *Filesystem) Driver() Driver { return DriverFilesystem }

// sanitizeKey forbids absolute keys and path traversal.
func sanitizeKey(key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", fmt.Errorf("empty key")
	}
	if strings.HasPrefix(key, "/") {
		return "", fmt.Errorf("invalid absolute key %q", key)
	}
	clean := filepath.ToSlash(filepath.Clean(key))
	if clean == ".." || strings.HasPrefix(clean, "../") || strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid key %q", key)
	}
	return clean, nil
}

func (s *Filesystem) Put(_ context.Context, key string, r io.Reader, opts PutOptions) (info Info, err error) {
	k, err := sanitizeKey(key)
	if err != nil {
		return Info{}, err
	}
	dst := filepath.Join(s.root, filepath.FromSlash(k))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return Info{}, err
	}
	fh, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return Info{}, fmt.Errorf("%s: %w", key, ErrExists)
		}
		return Info{}, err
	}
	defer func() {
		if cerr := fh.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()
	n, err := io.Copy(fh, r)
	if err != nil {
		return Info{}, err
	}
	st, err := fh.Stat()
	if err != nil {
		return Info{}, err
	}
	return Info{Key: k, Size: n, ContentType: opts.ContentType, Metadata: cloneMetadata(opts.Metadata), LastModified: st.ModTime().UTC()}, nil
}

func (s *Filesystem) Get(_ context.Context, key string) (Info, io.ReadCloser, error) {
	k, err := sanitizeKey(key)
	if err != nil {
		return Info{}, nil, err
	}
	fh, err := os.Open(filepath.Join(s.root, filepath.FromSlash(k)))
	if err != nil {
		return Info{}, nil, err
	}
	st, err := fh.Stat()
	if err != nil {
		fh.Close()
		return Info{}, nil, err
	}
	return Info{Key: k, Size: st.Size(), LastModified: st.ModTime().UTC()}, fh, nil
}
