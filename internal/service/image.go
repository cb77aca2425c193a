package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/avosetta/shelterbook/internal/domain"
	"github.com/avosetta/shelterbook/internal/imagepipe"
	"github.com/avosetta/shelterbook/internal/storage"
)

// ImageService orchestrates image ingestion, retrieval, and deletion.
// Each call is synchronous and stateless; concurrent use is safe because
// the pipeline works on caller-owned buffers and keys are independent.
type ImageService struct {
	pipe   *imagepipe.Pipeline
	files  domain.FileStore
	assets domain.ImageAssetRepository
	owners domain.OwnerRegistry
}

// NewImageService creates a new ImageService.
func NewImageService(pipe *imagepipe.Pipeline, files domain.FileStore, assets domain.ImageAssetRepository, owners domain.OwnerRegistry) *ImageService {
	return &ImageService{pipe: pipe, files: files, assets: assets, owners: owners}
}

// UploadGalleryPhoto ingests a photo into an animal's gallery: owner
// check, validate/decode/compress, owner-scoped key, disk write,
// metadata row. Nothing is written for any failure before the disk
// write; a metadata failure after it cleans the file up best-effort.
func (s *ImageService) UploadGalleryPhoto(ctx context.Context, ownerID int64, filename, declaredType string, data []byte, caption string, capturedOn *time.Time) (*domain.ImageAsset, error) {
	exists, err := s.owners.Exists(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("check owner: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: animal %d", domain.ErrUnknownOwner, ownerID)
	}

	encoded, err := s.pipe.Ingest(data, declaredType, filename)
	if err != nil {
		return nil, err
	}

	key, err := storage.GalleryKey(ownerID, storage.ExtensionFor(encoded.MediaType))
	if err != nil {
		return nil, fmt.Errorf("generate storage key: %w", err)
	}

	asset := &domain.ImageAsset{
		OwnerID:    &ownerID,
		StorageKey: key,
		Size:       int64(len(encoded.Data)),
		MediaType:  encoded.MediaType,
		CapturedOn: capturedOn,
		Caption:    caption,
	}
	return s.commit(ctx, key, encoded.Data, asset)
}

// UploadAttachment ingests a care-log attachment photo under a
// time-bucketed key with no owner scoping.
func (s *ImageService) UploadAttachment(ctx context.Context, filename, declaredType string, data []byte) (*domain.ImageAsset, error) {
	encoded, err := s.pipe.Ingest(data, declaredType, filename)
	if err != nil {
		return nil, err
	}

	key, err := storage.AttachmentKey(time.Now().UTC(), storage.ExtensionFor(encoded.MediaType))
	if err != nil {
		return nil, fmt.Errorf("generate storage key: %w", err)
	}

	asset := &domain.ImageAsset{
		StorageKey: key,
		Size:       int64(len(encoded.Data)),
		MediaType:  encoded.MediaType,
	}
	return s.commit(ctx, key, encoded.Data, asset)
}

func (s *ImageService) commit(ctx context.Context, key string, data []byte, asset *domain.ImageAsset) (*domain.ImageAsset, error) {
	if err := s.files.Save(ctx, key, data); err != nil {
		return nil, fmt.Errorf("save file: %w", err)
	}

	if err := s.assets.Create(ctx, asset); err != nil {
		// Best-effort cleanup of the stored file.
		if _, cleanupErr := s.files.Delete(ctx, key); cleanupErr != nil {
			slog.Error("orphaned file after failed metadata insert", "key", key, "error", cleanupErr)
		}
		return nil, err
	}
	return asset, nil
}

// GetFile resolves a storage key to an absolute path and the media type
// to serve it with. The type comes from the key's extension via a
// closed table; stored bytes are never re-sniffed on read.
func (s *ImageService) GetFile(ctx context.Context, key string) (string, string, error) {
	path, err := s.files.Resolve(ctx, key)
	if err != nil {
		return "", "", err
	}
	mediaType, err := s.files.MediaType(key)
	if err != nil {
		return "", "", err
	}
	return path, mediaType, nil
}

// ListByOwner returns the gallery metadata for one animal.
func (s *ImageService) ListByOwner(ctx context.Context, ownerID int64) ([]domain.ImageAsset, error) {
	return s.assets.ListByOwner(ctx, ownerID)
}

// Delete removes the stored bytes and the metadata row for key. It is
// idempotent: a key that was never stored, or was deleted already,
// still succeeds. Only a structurally unsafe key is an error.
func (s *ImageService) Delete(ctx context.Context, key string) error {
	outcome, err := s.files.Delete(ctx, key)
	if err != nil {
		return err
	}
	if outcome == domain.AlreadyAbsent {
		slog.Debug("delete of absent key", "key", key)
	}
	if err := s.assets.DeleteByKey(ctx, key); err != nil {
		return fmt.Errorf("delete metadata: %w", err)
	}
	return nil
}
