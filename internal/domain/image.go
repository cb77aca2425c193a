package domain

import (
	"context"
	"time"
)

// ImageAsset holds metadata about a stored image. Gallery photos carry the
// owning animal's ID; care-log attachments are time-bucketed and carry none.
type ImageAsset struct {
	ID         int64
	OwnerID    *int64 // Animal ID for gallery photos, nil for attachments
	StorageKey string // Key used to locate bytes in the FileStore
	Size       int64  // Encoded size in bytes
	MediaType  string // e.g. "image/jpeg", derived from sniffed content at store time
	CapturedOn *time.Time
	Caption    string
	CreatedAt  time.Time
}

// DeleteOutcome reports what a blob delete actually did. A missing file is
// a successful delete, not an error.
type DeleteOutcome int

const (
	Deleted DeleteOutcome = iota
	AlreadyAbsent
)

// ImageAssetRepository is the metadata store for stored images. Create
// enforces the per-owner count and total-size limits and returns
// ErrLimitExceeded when an owner-scoped insert would cross them.
type ImageAssetRepository interface {
	Create(ctx context.Context, asset *ImageAsset) error
	GetByKey(ctx context.Context, key string) (*ImageAsset, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]ImageAsset, error)
	// DeleteByKey removes the metadata row if present. A missing row is
	// not an error; blob deletion is idempotent and metadata follows suit.
	DeleteByKey(ctx context.Context, key string) error
	CountByOwner(ctx context.Context, ownerID int64) (int, error)
	TotalSizeByOwner(ctx context.Context, ownerID int64) (int64, error)
}

// OwnerRegistry answers whether an owner (shelter animal) exists. It is
// consulted before any decode work is spent on a gallery upload.
type OwnerRegistry interface {
	Exists(ctx context.Context, ownerID int64) (bool, error)
}

// FileStore abstracts durable byte storage under sandboxed keys. The
// production implementation writes beneath a single storage root on disk.
type FileStore interface {
	// Save writes data at key in one shot, creating parent directories
	// as needed.
	Save(ctx context.Context, key string, data []byte) error
	// Resolve returns the absolute path for key, ErrNotFound if nothing
	// is stored there, or ErrStoragePathViolation for an unsafe key.
	Resolve(ctx context.Context, key string) (string, error)
	// Delete removes the bytes at key. Deleting an absent key succeeds
	// with AlreadyAbsent; only a structurally unsafe key is an error.
	Delete(ctx context.Context, key string) (DeleteOutcome, error)
	// MediaType returns the transfer media type for key from its
	// extension via a closed lookup table, never by re-sniffing.
	MediaType(key string) (string, error)
}
