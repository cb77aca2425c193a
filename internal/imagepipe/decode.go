package imagepipe

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	// Register decoders for the sniffed formats. WebP is decode-only,
	// which matches the allow-list: WebP comes in, JPEG goes out.
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"github.com/avosetta/shelterbook/internal/domain"
)

// Decode sniffs the true format, guards against decompression bombs,
// and produces an upright canonical pixel buffer. Any embedded EXIF
// orientation is applied and then discarded; the result carries no
// metadata. Deterministic for identical input bytes.
func (p *Pipeline) Decode(data []byte) (*image.NRGBA, error) {
	switch DetectFormat(data) {
	case FormatHEIC:
		return nil, fmt.Errorf("%w: HEIC/HEIF content detected", domain.ErrUnsupportedFormat)
	case FormatUnknown:
		return nil, fmt.Errorf("%w: content does not match any supported image format", domain.ErrUnsupportedFormat)
	}

	// Header-only decode to learn dimensions before committing memory
	// to the full pixel buffer.
	header, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDecodeFailed, err)
	}
	if pixels := int64(header.Width) * int64(header.Height); pixels > p.cfg.MaxPixels {
		return nil, fmt.Errorf("%w: %dx%d is %d pixels, ceiling is %d",
			domain.ErrReceivedTooLarge, header.Width, header.Height, pixels, p.cfg.MaxPixels)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDecodeFailed, err)
	}

	// Clone converts any source model (gray, palette, CMYK, ...) to NRGBA.
	return imaging.Clone(img), nil
}
