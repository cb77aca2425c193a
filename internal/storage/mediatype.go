package storage

import (
	"fmt"
	"path"
	"strings"

	"github.com/avosetta/shelterbook/internal/domain"
)

// mediaTypes is the closed extension lookup used when serving stored
// files. The extension is a human-readable suffix only; the
// authoritative type was sniffed at store time and stored in metadata.
// Stored files are never re-sniffed on read.
var mediaTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".gif":  "image/gif",
}

// MediaType returns the transfer media type for key from its extension.
func (s *DiskStore) MediaType(key string) (string, error) {
	ext := strings.ToLower(path.Ext(key))
	mediaType, ok := mediaTypes[ext]
	if !ok {
		return "", fmt.Errorf("%w: no media type for extension %q", domain.ErrUnsupportedFormat, ext)
	}
	return mediaType, nil
}

// ExtensionFor returns the canonical file extension for a media type
// this system writes. The compression search always emits JPEG, so new
// keys end in .jpg; the wider mediaTypes table exists for reading keys
// minted before recompression was introduced.
func ExtensionFor(mediaType string) string {
	switch mediaType {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ".jpg"
	}
}
