package imagepipe

import (
	"encoding/binary"
	"net/http"
)

// Format is the closed set of raster formats the pipeline recognizes by
// content. FormatHEIC exists only so it can be rejected with a specific
// message; it is never decoded.
type Format int

const (
	FormatUnknown Format = iota
	FormatJPEG
	FormatPNG
	FormatWebP
	FormatHEIC
)

func (f Format) String() string {
	switch f {
	case FormatJPEG:
		return "jpeg"
	case FormatPNG:
		return "png"
	case FormatWebP:
		return "webp"
	case FormatHEIC:
		return "heic"
	default:
		return "unknown"
	}
}

// heifBrands are ISO-BMFF ftyp brands that mark HEIF-family content.
var heifBrands = map[string]bool{
	"heic": true, "heix": true, "heim": true, "heis": true,
	"hevc": true, "hevx": true, "hevm": true, "hevs": true,
	"mif1": true, "msf1": true,
}

// DetectFormat sniffs the true format from content. The declared type
// and filename are never consulted here; lying clients are caught by
// this check.
func DetectFormat(data []byte) Format {
	if isHEIF(data) {
		return FormatHEIC
	}
	switch http.DetectContentType(data) {
	case "image/jpeg":
		return FormatJPEG
	case "image/png":
		return FormatPNG
	case "image/webp":
		return FormatWebP
	default:
		return FormatUnknown
	}
}

// isHEIF reports whether data opens with an ISO-BMFF ftyp box whose
// major or compatible brands are HEIF-family. http.DetectContentType
// has no HEIC entry, so the box is walked by hand.
func isHEIF(data []byte) bool {
	if len(data) < 12 || string(data[4:8]) != "ftyp" {
		return false
	}
	boxSize := int(binary.BigEndian.Uint32(data[:4]))
	if boxSize < 16 || boxSize%4 != 0 {
		return false
	}
	if boxSize > len(data) {
		boxSize = len(data)
	}
	if heifBrands[string(data[8:12])] {
		return true
	}
	// Compatible brands follow the 4-byte minor version at offset 12.
	for off := 16; off+4 <= boxSize; off += 4 {
		if heifBrands[string(data[off:off+4])] {
			return true
		}
	}
	return false
}
