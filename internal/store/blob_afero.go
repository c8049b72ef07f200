package store

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/afero"
)

// AferoBlobStore implements BlobStore on an afero filesystem. A container is
// a directory under root; blob names map to file names.
type AferoBlobStore struct {
	fs   afero.Fs
	root string
}

func NewAferoBlobStore(fs afero.Fs, root string) *AferoBlobStore {
	return &AferoBlobStore{fs: fs, root: root}
}

func (s *AferoBlobStore) Put(ctx context.Context, container, name string, data []byte) error {
	_ = ctx
	dir := filepath.Join(s.root, container)
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: create container %s: %v", ErrStorageUnavailable, container, err)
	}
	if err := afero.WriteFile(s.fs, filepath.Join(dir, name), data, 0o644); err != nil {
		return fmt.Errorf("%w: write blob %s: %v", ErrStorageUnavailable, name, err)
	}
	return nil
}

func (s *AferoBlobStore) Get(ctx context.Context, container, name string) (io.ReadCloser, error) {
	_ = ctx
	f, err := s.fs.Open(filepath.Join(s.root, container, name))
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: open blob %s: %v", ErrStorageUnavailable, name, err)
	}
	return f, nil
}

func (s *AferoBlobStore) List(ctx context.Context, container string) ([]string, error) {
	_ = ctx
	infos, err := afero.ReadDir(s.fs, filepath.Join(s.root, container))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: list container %s: %v", ErrStorageUnavailable, container, err)
	}
	names := make([]string, 0, len(infos))
	for _, info := range infos {
		if info.IsDir() {
			continue
		}
		names = append(names, info.Name())
	}
	sort.Strings(names)
	return names, nil
}
