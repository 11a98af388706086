// Package capture rasterizes a window into a size-bounded JPEG, the image
// half of the UI Snapshot Pipeline (C4).
package capture

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/jpeg"

	"golang.org/x/image/draw"

	"appmcp/pkg/coords"
)

// MaxLongSide bounds the downscaled image's longest side. 600 keeps most
// window text legible while staying well inside the response ceiling;
// callers can override it per snapshot.
const MaxLongSide = 600

// JPEGQuality is deliberately low: this image exists to let a controller
// orient itself, not to be pixel-perfect.
const JPEGQuality = 45

// MaxBase64Bytes caps the base64 image payload; above it the pipeline
// falls back to a metadata-only summary.
const MaxBase64Bytes = 50 * 1024

// Capturer captures a window's current pixels. Implementations:
// capture_windows.go (real, via kbinani/screenshot) and capture_stub.go.
type Capturer interface {
	CaptureWindow(hwnd interface{}, bounds coords.Rect) (image.Image, error)
}

// EncodeResult is the downscaled, re-encoded, size-checked image ready to
// embed in a tool response.
type EncodeResult struct {
	DataURI     string
	Width       int
	Height      int
	OverCeiling bool
}

// Downscale shrinks img so its longest side is at most maxLongSide,
// resampling into a fresh RGBA even when no shrink is needed so callers
// always get a tightly packed raster.
func Downscale(img image.Image, maxLongSide int) (*image.RGBA, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return nil, errEmptyImage
	}

	scale := 1.0
	if w > h && w > maxLongSide {
		scale = float64(maxLongSide) / float64(w)
	} else if h >= w && h > maxLongSide {
		scale = float64(maxLongSide) / float64(h)
	}

	dstW, dstH := w, h
	if scale < 1.0 {
		dstW = int(float64(w) * scale)
		dstH = int(float64(h) * scale)
		if dstW < 1 {
			dstW = 1
		}
		if dstH < 1 {
			dstH = 1
		}
	}

	dst := image.NewRGBA(image.Rect(0, 0, dstW, dstH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst, nil
}

// Encode re-encodes an already-downscaled raster as a low-quality JPEG
// data URI and reports whether the base64 payload exceeds MaxBase64Bytes.
func Encode(img image.Image) (EncodeResult, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return EncodeResult{}, err
	}

	encoded := base64.StdEncoding.EncodeToString(buf.Bytes())
	b := img.Bounds()
	return EncodeResult{
		DataURI:     "data:image/jpeg;base64," + encoded,
		Width:       b.Dx(),
		Height:      b.Dy(),
		OverCeiling: len(encoded) > MaxBase64Bytes,
	}, nil
}

// DownscaleAndEncode composes Downscale and Encode.
func DownscaleAndEncode(img image.Image, maxLongSide int) (EncodeResult, error) {
	dst, err := Downscale(img, maxLongSide)
	if err != nil {
		return EncodeResult{}, err
	}
	return Encode(dst)
}

type captureError string

func (e captureError) Error() string { return string(e) }

const errEmptyImage = captureError("window bounds are empty; nothing to capture")
