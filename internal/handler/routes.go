package handler

import (
	"net/http"

	"github.com/avosetta/shelterbook/internal/service"
)

// RegisterRoutes sets up all HTTP routes on the given mux.
func RegisterRoutes(mux *http.ServeMux, images *service.ImageService) {
	imageHandler := NewImageHandler(images)

	mux.HandleFunc("POST /animals/{id}/gallery", imageHandler.HandleGalleryUpload)
	mux.HandleFunc("POST /attachments", imageHandler.HandleAttachmentUpload)
	mux.HandleFunc("GET /images/{key...}", imageHandler.HandleServe)
	mux.HandleFunc("DELETE /images/{key...}", imageHandler.HandleDelete)
	mux.HandleFunc("GET /healthz", HandleHealthz)
}
