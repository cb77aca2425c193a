package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/avosetta/shelterbook/internal/domain"
	"github.com/avosetta/shelterbook/internal/service"
)

// maxMultipartMemory bounds the in-memory portion of multipart parsing;
// the pipeline's own received-size ceiling is the real guard.
const maxMultipartMemory = 12 << 20

// ImageHandler handles image upload, retrieval, and deletion.
type ImageHandler struct {
	images *service.ImageService
}

// NewImageHandler creates a new ImageHandler.
func NewImageHandler(images *service.ImageService) *ImageHandler {
	return &ImageHandler{images: images}
}

// HandleGalleryUpload processes a multipart gallery photo upload.
// POST /animals/{id}/gallery
func (h *ImageHandler) HandleGalleryUpload(w http.ResponseWriter, r *http.Request) {
	ownerID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid animal id")
		return
	}

	filename, declaredType, data, ok := readUpload(w, r)
	if !ok {
		return
	}

	caption := r.FormValue("caption")
	var capturedOn *time.Time
	if v := r.FormValue("captured_on"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "captured_on must be YYYY-MM-DD")
			return
		}
		capturedOn = &parsed
	}

	asset, err := h.images.UploadGalleryPhoto(r.Context(), ownerID, filename, declaredType, data, caption, capturedOn)
	if err != nil {
		writeUploadError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, assetResponse(asset))
}

// HandleAttachmentUpload processes a multipart care-log attachment upload.
// POST /attachments
func (h *ImageHandler) HandleAttachmentUpload(w http.ResponseWriter, r *http.Request) {
	filename, declaredType, data, ok := readUpload(w, r)
	if !ok {
		return
	}

	asset, err := h.images.UploadAttachment(r.Context(), filename, declaredType, data)
	if err != nil {
		writeUploadError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, assetResponse(asset))
}

// HandleServe serves stored image bytes with the media type derived
// from the key's extension.
// GET /images/{key...}
func (h *ImageHandler) HandleServe(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	path, mediaType, err := h.images.GetFile(r.Context(), key)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			http.Error(w, "Not Found", http.StatusNotFound)
		case errors.Is(err, domain.ErrStoragePathViolation), errors.Is(err, domain.ErrUnsupportedFormat):
			http.Error(w, "Bad Request", http.StatusBadRequest)
		default:
			slog.Error("serve image", "key", key, "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", mediaType)
	w.Header().Set("Cache-Control", "private, max-age=86400")
	http.ServeFile(w, r, path)
}

// HandleDelete removes an image. Deleting an unknown key succeeds, so
// repeated deletes are safe for clients to retry.
// DELETE /images/{key...}
func (h *ImageHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	if err := h.images.Delete(r.Context(), key); err != nil {
		if errors.Is(err, domain.ErrStoragePathViolation) {
			http.Error(w, "Bad Request", http.StatusBadRequest)
			return
		}
		slog.Error("delete image", "key", key, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// readUpload parses the multipart form and extracts the "photo" file.
// On failure it writes the error response and returns ok=false.
func readUpload(w http.ResponseWriter, r *http.Request) (filename, declaredType string, data []byte, ok bool) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, "could not parse multipart form")
		return "", "", nil, false
	}

	file, header, err := r.FormFile("photo")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no photo file provided")
		return "", "", nil, false
	}
	defer file.Close()

	data, err = io.ReadAll(file)
	if err != nil {
		slog.Error("read upload", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return "", "", nil, false
	}

	return header.Filename, header.Header.Get("Content-Type"), data, true
}

// writeUploadError maps the pipeline's closed error taxonomy onto HTTP
// statuses. Everything in the taxonomy is terminal; the client decides
// whether to retry with different input.
func writeUploadError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrUnsupportedFormat):
		writeError(w, http.StatusUnsupportedMediaType, err.Error())
	case errors.Is(err, domain.ErrReceivedTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, domain.ErrDecodeFailed),
		errors.Is(err, domain.ErrCompressionBudgetExceeded):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, domain.ErrUnknownOwner):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrLimitExceeded):
		writeError(w, http.StatusConflict, err.Error())
	default:
		slog.Error("upload image", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func assetResponse(asset *domain.ImageAsset) map[string]any {
	return map[string]any{
		"storage_key": asset.StorageKey,
		"media_type":  asset.MediaType,
		"byte_size":   asset.Size,
	}
}
