// Package storage persists encoded images beneath a single sandboxed
// root directory. Every path it opens must resolve to a strict
// descendant of that root; the check is enforced on every operation
// even though keys minted by this package can never fail it.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/avosetta/shelterbook/internal/domain"
)

// DiskStore implements domain.FileStore on the local filesystem.
type DiskStore struct {
	root string // absolute, established at construction
}

// New creates a DiskStore rooted at dir, creating it if needed. The
// root is resolved to an absolute path once; all keys resolve against
// that fixed value.
func New(dir string) (*DiskStore, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve storage root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &DiskStore{root: abs}, nil
}

// Root returns the absolute storage root.
func (s *DiskStore) Root() string {
	return s.root
}

// Save writes data at key in one shot. Parent directories are created
// as needed; concurrent creation is tolerated by MkdirAll. A process
// killed during the WriteFile call itself may leave a truncated file,
// an accepted gap in the current design.
func (s *DiskStore) Save(ctx context.Context, key string, data []byte) error {
	path, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create key directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// Resolve returns the absolute path for key. It fails with
// ErrStoragePathViolation before touching the filesystem for unsafe
// keys, and with ErrNotFound when nothing is stored at the key.
func (s *DiskStore) Resolve(ctx context.Context, key string) (string, error) {
	path, err := s.resolve(key)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", domain.ErrNotFound, key)
		}
		return "", fmt.Errorf("stat %s: %w", key, err)
	}
	return path, nil
}

// Delete removes the bytes at key. A missing file reports AlreadyAbsent
// rather than an error: deleting twice, or deleting a key that was
// never created, is success. Structurally unsafe keys still fail with
// ErrStoragePathViolation.
func (s *DiskStore) Delete(ctx context.Context, key string) (domain.DeleteOutcome, error) {
	path, err := s.resolve(key)
	if err != nil {
		return domain.AlreadyAbsent, err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.AlreadyAbsent, nil
		}
		return domain.AlreadyAbsent, fmt.Errorf("remove %s: %w", key, err)
	}
	return domain.Deleted, nil
}

// resolve maps a storage key onto an absolute path under the root and
// enforces the strict-descendant invariant. Keys are forward-slash
// separated with no empty, ".", ".." or backslash-bearing segments.
func (s *DiskStore) resolve(key string) (string, error) {
	if key == "" || strings.Contains(key, "\\") {
		return "", fmt.Errorf("%w: %q", domain.ErrStoragePathViolation, key)
	}
	for _, segment := range strings.Split(key, "/") {
		if segment == "" || segment == "." || segment == ".." {
			return "", fmt.Errorf("%w: %q", domain.ErrStoragePathViolation, key)
		}
	}
	path := filepath.Join(s.root, filepath.FromSlash(key))
	if !strings.HasPrefix(path, s.root+string(os.PathSeparator)) {
		return "", fmt.Errorf("%w: %q", domain.ErrStoragePathViolation, key)
	}
	return path, nil
}
