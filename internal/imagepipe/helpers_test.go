package imagepipe_test

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math/rand"
	"testing"

	"github.com/avosetta/shelterbook/internal/imagepipe"
)

func testConfig() imagepipe.Config {
	return imagepipe.Config{
		MaxReceivedBytes: 10 << 20,
		TargetBytes:      2 << 20,
		MaxPixels:        40_000_000,
		LongEdges:        []int{2048, 1280},
		Qualities:        []int{75, 65, 55, 45},
	}
}

// gradientImage produces a smooth image that compresses very well.
func gradientImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8(x * 255 / w),
				G: uint8(y * 255 / h),
				B: uint8((x + y) * 255 / (w + h)),
				A: 255,
			})
		}
	}
	return img
}

// noiseImage produces an incompressible image. Seeded so failures
// reproduce.
func noiseImage(w, h int) *image.NRGBA {
	rng := rand.New(rand.NewSource(42))
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = uint8(rng.Intn(256))
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Pix[img.PixOffset(x, y)+3] = 255
		}
	}
	return img
}

func encodeJPEG(t *testing.T, img image.Image, quality int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		t.Fatalf("encode test jpeg: %v", err)
	}
	return buf.Bytes()
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode test png: %v", err)
	}
	return buf.Bytes()
}

// heicBytes builds a minimal ISO-BMFF ftyp box with the given major and
// compatible brands, as found at the head of iPhone HEIC photos.
func heicBytes(major string, compatible ...string) []byte {
	size := 16 + 4*len(compatible)
	buf := make([]byte, 0, size+8)
	buf = append(buf, byte(size>>24), byte(size>>16), byte(size>>8), byte(size))
	buf = append(buf, "ftyp"...)
	buf = append(buf, major...)
	buf = append(buf, 0, 0, 0, 0) // minor version
	for _, brand := range compatible {
		buf = append(buf, brand...)
	}
	// A little box payload so the data is not suspiciously short.
	buf = append(buf, 0, 0, 0, 8)
	buf = append(buf, "mdat"...)
	return buf
}
