// internal/app/system/imaging/imaging.go

// Package imaging normalizes uploaded contribution images: inputs over the
// byte cap are rejected, anything larger than the max dimension is scaled
// down, and the result is re-encoded as a lossy JPEG.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png" // decoder registration
	"io"

	"github.com/KMohnishM/Cys-FFCS/internal/app/system/limits"
	"golang.org/x/image/draw"
)

const (
	// MaxDimension is the longest allowed side after processing.
	MaxDimension = 1024

	// JPEGQuality trades size for fidelity on re-encode.
	JPEGQuality = 78
)

// ErrTooLarge is returned when the raw input exceeds limits.MaxImageBytes.
var ErrTooLarge = errors.New("image exceeds maximum size")

// Result holds the processed image ready for storage.
type Result struct {
	Data        []byte
	ContentType string
	Width       int
	Height      int
}

// Process reads one image, enforces the size cap, downscales to
// MaxDimension, and re-encodes as JPEG.
func Process(r io.Reader) (Result, error) {
	// Read one byte past the cap so oversized inputs are detected without
	// buffering arbitrarily large bodies.
	data, err := io.ReadAll(io.LimitReader(r, limits.MaxImageBytes+1))
	if err != nil {
		return Result{}, fmt.Errorf("read image: %w", err)
	}
	if len(data) > limits.MaxImageBytes {
		return Result{}, ErrTooLarge
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Result{}, fmt.Errorf("decode image: %w", err)
	}

	dst := scaleDown(src)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return Result{}, fmt.Errorf("encode jpeg: %w", err)
	}

	b := dst.Bounds()
	return Result{
		Data:        buf.Bytes(),
		ContentType: "image/jpeg",
		Width:       b.Dx(),
		Height:      b.Dy(),
	}, nil
}

func scaleDown(src image.Image) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= MaxDimension && h <= MaxDimension {
		return src
	}

	scale := float64(MaxDimension) / float64(w)
	if h > w {
		scale = float64(MaxDimension) / float64(h)
	}
	nw := int(float64(w)*scale + 0.5)
	nh := int(float64(h)*scale + 0.5)
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}
