package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/avosetta/shelterbook/internal/domain"
	"github.com/avosetta/shelterbook/internal/handler"
	"github.com/avosetta/shelterbook/internal/imagepipe"
	"github.com/avosetta/shelterbook/internal/repository/sqlite"
	"github.com/avosetta/shelterbook/internal/service"
	"github.com/avosetta/shelterbook/internal/storage"
)

func newTestServer(t *testing.T) (*httptest.Server, *service.ImageService, int64) {
	t.Helper()

	db, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("sqlite.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	store, err := storage.New(filepath.Join(t.TempDir(), "images"))
	if err != nil {
		t.Fatalf("storage.New: %v", err)
	}

	animals := sqlite.NewAnimalRepository(db)
	animal := &domain.Animal{Name: "Clementine", Species: "cat"}
	if err := animals.Create(context.Background(), animal); err != nil {
		t.Fatalf("create animal: %v", err)
	}

	svc := service.NewImageService(
		imagepipe.New(imagepipe.DefaultConfig()),
		store,
		sqlite.NewImageAssetRepository(db, 20, 1<<30),
		animals,
	)

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, svc)

	srv := httptest.NewServer(handler.SecurityHeaders(mux))
	t.Cleanup(srv.Close)
	return srv, svc, animal.ID
}

func testJPEG(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 200, 150))
	for y := 0; y < 150; y++ {
		for x := 0; x < 200; x++ {
			img.SetNRGBA(x, y, color.NRGBA{uint8(x), uint8(y), 120, 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("encode test jpeg: %v", err)
	}
	return buf.Bytes()
}

// multipartUpload builds a multipart body with a "photo" part carrying
// the given content type.
func multipartUpload(t *testing.T, filename, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="photo"; filename="`+filename+`"`)
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("create multipart part: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("write multipart part: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return &body, writer.FormDataContentType()
}

func TestImageLifecycle(t *testing.T) {
	srv, _, animalID := newTestServer(t)
	client := srv.Client()

	// Upload a gallery photo.
	body, contentType := multipartUpload(t, "clem.jpg", "image/jpeg", testJPEG(t))
	resp, err := client.Post(srv.URL+"/animals/"+strconv.FormatInt(animalID, 10)+"/gallery", contentType, body)
	if err != nil {
		t.Fatalf("POST gallery: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		raw, _ := io.ReadAll(resp.Body)
		t.Fatalf("upload: status %d, body %s", resp.StatusCode, raw)
	}

	var uploaded struct {
		StorageKey string `json:"storage_key"`
		MediaType  string `json:"media_type"`
		ByteSize   int64  `json:"byte_size"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&uploaded); err != nil {
		t.Fatalf("decode upload response: %v", err)
	}
	if uploaded.MediaType != "image/jpeg" || uploaded.ByteSize <= 0 {
		t.Fatalf("unexpected upload response: %+v", uploaded)
	}

	// Serve it back with the stored media type.
	resp, err = client.Get(srv.URL + "/images/" + uploaded.StorageKey)
	if err != nil {
		t.Fatalf("GET image: %v", err)
	}
	served, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("serve: status %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Content-Type"); got != "image/jpeg" {
		t.Fatalf("Content-Type = %q, want image/jpeg", got)
	}
	if int64(len(served)) != uploaded.ByteSize {
		t.Fatalf("served %d bytes, upload reported %d", len(served), uploaded.ByteSize)
	}

	// Delete twice; both succeed.
	for i := 0; i < 2; i++ {
		req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/images/"+uploaded.StorageKey, nil)
		resp, err := client.Do(req)
		if err != nil {
			t.Fatalf("DELETE image: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusNoContent {
			t.Fatalf("delete #%d: status %d, want 204", i+1, resp.StatusCode)
		}
	}

	// Gone now.
	resp, err = client.Get(srv.URL + "/images/" + uploaded.StorageKey)
	if err != nil {
		t.Fatalf("GET after delete: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("serve after delete: status %d, want 404", resp.StatusCode)
	}
}

func TestUploadRejections(t *testing.T) {
	srv, _, animalID := newTestServer(t)
	client := srv.Client()
	galleryURL := srv.URL + "/animals/" + strconv.FormatInt(animalID, 10) + "/gallery"

	tests := []struct {
		name         string
		filename     string
		contentType  string
		data         []byte
		wantStatus   int
	}{
		{"pdf declared", "doc.pdf", "application/pdf", []byte("%PDF-1.4"), http.StatusUnsupportedMediaType},
		{"heic declared", "pic.heic", "image/heic", []byte("x"), http.StatusUnsupportedMediaType},
		{"renamed text file", "photo.jpg", "image/jpeg", []byte("plain old text"), http.StatusUnsupportedMediaType},
		{"corrupt jpeg", "photo.jpg", "image/jpeg", append([]byte{0xff, 0xd8, 0xff, 0xe0}, "garbage"...), http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		body, contentType := multipartUpload(t, tt.filename, tt.contentType, tt.data)
		resp, err := client.Post(galleryURL, contentType, body)
		if err != nil {
			t.Fatalf("%s: POST: %v", tt.name, err)
		}
		resp.Body.Close()
		if resp.StatusCode != tt.wantStatus {
			t.Errorf("%s: status %d, want %d", tt.name, resp.StatusCode, tt.wantStatus)
		}
	}
}

func TestUploadUnknownAnimal(t *testing.T) {
	srv, _, _ := newTestServer(t)

	body, contentType := multipartUpload(t, "a.jpg", "image/jpeg", testJPEG(t))
	resp, err := srv.Client().Post(srv.URL+"/animals/99999/gallery", contentType, body)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status %d, want 404", resp.StatusCode)
	}
}

func TestAttachmentUpload(t *testing.T) {
	srv, _, _ := newTestServer(t)

	body, contentType := multipartUpload(t, "note.jpg", "image/jpeg", testJPEG(t))
	resp, err := srv.Client().Post(srv.URL+"/attachments", contentType, body)
	if err != nil {
		t.Fatalf("POST attachment: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status %d, want 201", resp.StatusCode)
	}
}

func TestServeTraversalKey(t *testing.T) {
	srv, svc, _ := newTestServer(t)

	// The mux cleans dot segments before routing, so end to end a
	// traversal attempt must never succeed, whatever status it lands on.
	resp, err := srv.Client().Get(srv.URL + "/images/2025/%2e%2e/%2e%2e/etc/passwd")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode == http.StatusOK {
		t.Fatal("traversal key must not be served")
	}

	// The handler's own check is the defensive layer for keys that
	// arrive without the mux's cleaning (stored keys, internal calls).
	req := httptest.NewRequest(http.MethodGet, "/images/x", nil)
	req.SetPathValue("key", "2025/../../etc/passwd")
	rec := httptest.NewRecorder()
	handler.NewImageHandler(svc).HandleServe(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, err := srv.Client().Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d, want 200", resp.StatusCode)
	}
	if got := resp.Header.Get("X-Content-Type-Options"); got != "nosniff" {
		t.Fatalf("X-Content-Type-Options = %q, want nosniff", got)
	}
}
