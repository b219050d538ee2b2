// Package normalizer decodes raster images and canonicalizes them to flat
// opaque RGB, producing thumbnail and compressed-page buffers for the
// assembler and the preview layer.
package normalizer

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"mangapdf/internal/logger"
)

// Thumbnails are preview-only; their quality is fixed and independent of the
// caller-configured output quality.
const thumbnailQuality = 90

// A thumbnail is never more than 1.6x taller than it is wide. Taller sources
// (long strip images) are top-cropped so the card keeps the start of the strip.
const maxHeightRatio = 1.6

var (
	ErrDecode         = errors.New("image decode failed")
	ErrEncode         = errors.New("image encode failed")
	ErrInvalidWidth   = errors.New("target width must be positive")
	ErrInvalidQuality = errors.New("quality must be between 1 and 100")
)

type Normalizer struct {
	logger zerolog.Logger
}

func New() *Normalizer {
	return &Normalizer{
		logger: logger.GetLogger("normalizer"),
	}
}

// Normalize composites the image onto an opaque white canvas of the same
// size. The result carries no alpha channel and no palette regardless of the
// source representation; pixels that were transparent show white.
func (n *Normalizer) Normalize(img image.Image) *image.NRGBA {
	bounds := img.Bounds()
	canvas := imaging.New(bounds.Dx(), bounds.Dy(), color.White)
	return imaging.Overlay(canvas, img, image.Pt(0, 0), 1.0)
}

// Dimensions returns the native pixel size of the image at path without
// decoding pixel data. It returns (0, 0) on any read or parse failure; the
// caller must treat that as "unknown", not as a zero-size image.
func (n *Normalizer) Dimensions(path string) (int, int) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0
	}
	return cfg.Width, cfg.Height
}

// Thumbnail produces a JPEG preview with width exactly targetWidth and height
// capped at floor(targetWidth*1.6). Sources taller than the cap are scaled to
// width first and then cropped to the top region.
func (n *Normalizer) Thumbnail(path string, targetWidth int) ([]byte, error) {
	if targetWidth <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidWidth, targetWidth)
	}

	img, err := n.decodeFile(path)
	if err != nil {
		return nil, err
	}

	origW := img.Bounds().Dx()
	origH := img.Bounds().Dy()

	scale := float64(targetWidth) / float64(origW)
	targetHeight := int(math.Round(float64(origH) * scale))
	maxHeight := int(float64(targetWidth) * maxHeightRatio)

	resized := imaging.Resize(img, targetWidth, targetHeight, imaging.Lanczos)
	if targetHeight > maxHeight {
		resized = imaging.Crop(resized, image.Rect(0, 0, targetWidth, maxHeight))
		n.logger.Debug().
			Str("path", path).
			Int("scaled_height", targetHeight).
			Int("max_height", maxHeight).
			Msg("Thumbnail top-cropped")
	}

	var buf bytes.Buffer
	err = imaging.Encode(&buf, n.Normalize(resized), imaging.JPEG, imaging.JPEGQuality(thumbnailQuality))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrEncode, path, err)
	}
	return buf.Bytes(), nil
}

// Compress re-encodes the image at path as a JPEG at the given quality
// without resizing. The result has the same pixel dimensions as the source;
// only the entropy-coded size changes.
func (n *Normalizer) Compress(path string, quality int) ([]byte, error) {
	if quality < 1 || quality > 100 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidQuality, quality)
	}

	img, err := n.decodeFile(path)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	err = imaging.Encode(&buf, n.Normalize(img), imaging.JPEG, imaging.JPEGQuality(quality))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrEncode, path, err)
	}
	return buf.Bytes(), nil
}

func (n *Normalizer) decodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, path, err)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, path, err)
	}

	n.logger.Debug().
		Str("path", path).
		Str("format", format).
		Int("width", img.Bounds().Dx()).
		Int("height", img.Bounds().Dy()).
		Msg("Image decoded")
	return img, nil
}
