// Package imaging prepares captured images for local OCR.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"

	"golang.org/x/image/draw"

	// Extra decoders for formats screenshots are commonly saved in.
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/nodewee/capture-ocr/pkg/constants"
	"github.com/nodewee/capture-ocr/pkg/utils"
)

// Options control preprocessing
type Options struct {
	Grayscale bool
	Scale     int // integer upscale factor; values below 2 leave the size unchanged
	MaxPixels int // pixel budget; 0 means constants.MaxImagePixels
}

// Decode decodes any registered image format and reports its format name
func Decode(data []byte) (image.Image, string, error) {
	if len(data) == 0 {
		return nil, "", utils.NewValidationError("image data is empty", nil)
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", utils.NewUnsupportedError("cannot decode image", err)
	}
	return img, format, nil
}

// Grayscale converts img to 8-bit gray
func Grayscale(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	b := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(gray, gray.Bounds(), img, b.Min, draw.Src)
	return gray
}

// Upscale enlarges img by an integer factor with Catmull-Rom resampling.
// Small UI text recognises noticeably better after a 2x upscale.
func Upscale(img image.Image, factor int) image.Image {
	if factor < 2 {
		return img
	}
	b := img.Bounds()
	dstRect := image.Rect(0, 0, b.Dx()*factor, b.Dy()*factor)

	var dst draw.Image
	if _, ok := img.(*image.Gray); ok {
		dst = image.NewGray(dstRect)
	} else {
		dst = image.NewRGBA(dstRect)
	}
	draw.CatmullRom.Scale(dst, dstRect, img, b, draw.Src, nil)
	return dst
}

// Prepare decodes data, applies opts and re-encodes the result as PNG.
// Images over the pixel budget are rejected before decoding, and the upscale
// is skipped when it would exceed the budget.
func Prepare(data []byte, opts Options) ([]byte, error) {
	budget := opts.MaxPixels
	if budget <= 0 {
		budget = constants.MaxImagePixels
	}
	if len(data) > 0 {
		if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
			if pixels := int64(cfg.Width) * int64(cfg.Height); pixels > int64(budget) {
				return nil, utils.NewValidationError(fmt.Sprintf(
					"image is %dx%d, over the %d pixel limit", cfg.Width, cfg.Height, budget), nil)
			}
		}
	}

	img, _, err := Decode(data)
	if err != nil {
		return nil, err
	}
	if opts.Grayscale {
		img = Grayscale(img)
	}

	scale := opts.Scale
	b := img.Bounds()
	if scale > 1 && int64(b.Dx())*int64(b.Dy())*int64(scale*scale) > int64(budget) {
		scale = 1
	}
	img = Upscale(img, scale)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, utils.NewIOError(fmt.Sprintf("cannot encode %dx%d image", img.Bounds().Dx(), img.Bounds().Dy()), err)
	}
	return buf.Bytes(), nil
}
