package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/avosetta/shelterbook/internal/domain"
)

// ImageAssetRepository implements domain.ImageAssetRepository using
// SQLite. It is the metadata store of the image pipeline and the place
// where per-owner count and total-size limits are enforced.
type ImageAssetRepository struct {
	db            *sql.DB
	maxPerOwner   int
	maxOwnerBytes int64
}

// NewImageAssetRepository creates a new SQLite-backed repository.
// maxPerOwner and maxOwnerBytes bound an owner's gallery; attachments
// carry no owner and are not limited here.
func NewImageAssetRepository(db *DB, maxPerOwner int, maxOwnerBytes int64) *ImageAssetRepository {
	return &ImageAssetRepository{db: db.SqlDB, maxPerOwner: maxPerOwner, maxOwnerBytes: maxOwnerBytes}
}

// Create inserts the metadata row. For owner-scoped assets the limits
// are checked inside the insert transaction. Concurrent uploads to one
// owner can still overshoot slightly between commit and the caller's
// file write; that check-then-act gap is an accepted soft guard, not a
// serialized invariant.
func (r *ImageAssetRepository) Create(ctx context.Context, asset *domain.ImageAsset) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if asset.OwnerID != nil {
		var count int
		var total int64
		err := tx.QueryRowContext(ctx,
			"SELECT COUNT(*), COALESCE(SUM(size), 0) FROM image_assets WHERE owner_id = ?",
			*asset.OwnerID,
		).Scan(&count, &total)
		if err != nil {
			return fmt.Errorf("query owner usage: %w", err)
		}
		if count >= r.maxPerOwner {
			return fmt.Errorf("%w: owner %d already has %d images", domain.ErrLimitExceeded, *asset.OwnerID, count)
		}
		if total+asset.Size > r.maxOwnerBytes {
			return fmt.Errorf("%w: owner %d would exceed %d total bytes", domain.ErrLimitExceeded, *asset.OwnerID, r.maxOwnerBytes)
		}
	}

	now := time.Now().UTC()
	result, err := tx.ExecContext(ctx,
		`INSERT INTO image_assets (owner_id, storage_key, size, media_type, captured_on, caption, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		asset.OwnerID, asset.StorageKey, asset.Size, asset.MediaType,
		asset.CapturedOn, asset.Caption, now,
	)
	if err != nil {
		return fmt.Errorf("insert image asset: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	asset.ID = id
	asset.CreatedAt = now
	return nil
}

func (r *ImageAssetRepository) GetByKey(ctx context.Context, key string) (*domain.ImageAsset, error) {
	asset := &domain.ImageAsset{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, owner_id, storage_key, size, media_type, captured_on, caption, created_at
		 FROM image_assets WHERE storage_key = ?`, key,
	).Scan(&asset.ID, &asset.OwnerID, &asset.StorageKey, &asset.Size,
		&asset.MediaType, &asset.CapturedOn, &asset.Caption, &asset.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get image asset: %w", err)
	}
	return asset, nil
}

func (r *ImageAssetRepository) ListByOwner(ctx context.Context, ownerID int64) ([]domain.ImageAsset, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, owner_id, storage_key, size, media_type, captured_on, caption, created_at
		 FROM image_assets WHERE owner_id = ? ORDER BY created_at, id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list image assets: %w", err)
	}
	defer rows.Close()

	var assets []domain.ImageAsset
	for rows.Next() {
		var asset domain.ImageAsset
		if err := rows.Scan(&asset.ID, &asset.OwnerID, &asset.StorageKey, &asset.Size,
			&asset.MediaType, &asset.CapturedOn, &asset.Caption, &asset.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan image asset: %w", err)
		}
		assets = append(assets, asset)
	}
	return assets, rows.Err()
}

// DeleteByKey removes the metadata row. Deleting a key with no row is
// success, mirroring the blob store's idempotent delete.
func (r *ImageAssetRepository) DeleteByKey(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM image_assets WHERE storage_key = ?", key); err != nil {
		return fmt.Errorf("delete image asset: %w", err)
	}
	return nil
}

func (r *ImageAssetRepository) CountByOwner(ctx context.Context, ownerID int64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM image_assets WHERE owner_id = ?", ownerID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count image assets: %w", err)
	}
	return count, nil
}

func (r *ImageAssetRepository) TotalSizeByOwner(ctx context.Context, ownerID int64) (int64, error) {
	var total int64
	err := r.db.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(size), 0) FROM image_assets WHERE owner_id = ?", ownerID,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum image asset sizes: %w", err)
	}
	return total, nil
}
