package imagepipe

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"github.com/avosetta/shelterbook/internal/domain"
)

// Encoded is the winning candidate of the ladder search.
type Encoded struct {
	Data      []byte
	MediaType string // always "image/jpeg"; the search re-encodes everything
	Width     int
	Height    int
	LongEdge  int // ladder step that won
	Quality   int
}

// Compress searches the ladder for the cheapest encoding that fits the
// byte budget. Each long-edge cap is tried across the full descending
// quality sequence before falling back to the next cap, and the FIRST
// step within budget wins: earlier steps are higher visual quality, so
// the search never looks for a tighter fit further down. Exhausting the
// ladder is a definitive failure; no oversized candidate is returned.
func (p *Pipeline) Compress(img *image.NRGBA) (*Encoded, error) {
	var buf bytes.Buffer
	for _, edge := range p.cfg.LongEdges {
		scaled := fitLongEdge(img, edge)
		for _, quality := range p.cfg.Qualities {
			buf.Reset()
			if err := imaging.Encode(&buf, scaled, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
				return nil, fmt.Errorf("encode jpeg at quality %d: %w", quality, err)
			}
			if int64(buf.Len()) <= p.cfg.TargetBytes {
				bounds := scaled.Bounds()
				return &Encoded{
					Data:      bytes.Clone(buf.Bytes()),
					MediaType: "image/jpeg",
					Width:     bounds.Dx(),
					Height:    bounds.Dy(),
					LongEdge:  edge,
					Quality:   quality,
				}, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: no ladder step fit within %d bytes", domain.ErrCompressionBudgetExceeded, p.cfg.TargetBytes)
}

// fitLongEdge scales img down so its long edge does not exceed the step limit,
// preserving aspect ratio. Images already within the limit are returned
// as-is; the ladder never upscales.
func fitLongEdge(img *image.NRGBA, limit int) *image.NRGBA {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= limit && h <= limit {
		return img
	}
	if w >= h {
		return imaging.Resize(img, limit, 0, imaging.Lanczos)
	}
	return imaging.Resize(img, 0, limit, imaging.Lanczos)
}
