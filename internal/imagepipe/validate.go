package imagepipe

import (
	"fmt"
	"strings"

	"github.com/avosetta/shelterbook/internal/domain"
)

// allowedDeclaredTypes is the closed set of raster formats accepted at
// the door. The declared type is advisory only; content is re-verified
// by sniffing before decode.
var allowedDeclaredTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// heicDeclaredTypes are rejected with their own message. Phones offer
// these as "image" types and users deserve a better hint than a generic
// unsupported-format error.
var heicDeclaredTypes = map[string]bool{
	"image/heic":          true,
	"image/heif":          true,
	"image/heic-sequence": true,
	"image/heif-sequence": true,
}

// Validate rejects obviously bad input before any decode work is spent.
// Checks run in order: declared content type against the allow-list,
// then the raw byte ceiling. It performs no decoding and no I/O.
func (p *Pipeline) Validate(data []byte, declaredType, filename string) error {
	declared := normalizeMediaType(declaredType)

	if heicDeclaredTypes[declared] || hasHEICExtension(filename) {
		return fmt.Errorf("%w: HEIC/HEIF is not supported, please convert to JPEG", domain.ErrUnsupportedFormat)
	}
	if !allowedDeclaredTypes[declared] {
		return fmt.Errorf("%w: %q is not an accepted image type", domain.ErrUnsupportedFormat, declaredType)
	}
	if int64(len(data)) > p.cfg.MaxReceivedBytes {
		return fmt.Errorf("%w: %d bytes exceeds the %d byte ceiling", domain.ErrReceivedTooLarge, len(data), p.cfg.MaxReceivedBytes)
	}
	return nil
}

// normalizeMediaType lowercases a Content-Type header value and strips
// any parameters ("image/jpeg; charset=binary" -> "image/jpeg").
func normalizeMediaType(contentType string) string {
	mediaType, _, _ := strings.Cut(contentType, ";")
	return strings.ToLower(strings.TrimSpace(mediaType))
}

func hasHEICExtension(filename string) bool {
	lower := strings.ToLower(filename)
	return strings.HasSuffix(lower, ".heic") || strings.HasSuffix(lower, ".heif")
}
