// Package sampler extracts coarse luminance grids from raw camera frames.
// All live-path analyzers consume these grids instead of full-resolution
// buffers so per-frame cost stays bounded regardless of sensor size.
package sampler

import (
	"image"
	"image/draw"
)

// ChannelOrder describes how the four interleaved 8-bit channels are packed.
type ChannelOrder int

const (
	// OrderRGBA matches image.RGBA and most decoded stills.
	OrderRGBA ChannelOrder = iota
	// OrderBGRA matches the buffers most camera pipelines deliver.
	OrderBGRA
)

// Luminance weights per ITU-R BT.601.
const (
	lumRed   = 0.299
	lumGreen = 0.587
	lumBlue  = 0.114
)

// Frame is a read-only view over a packed 4-channel pixel buffer. The caller
// owns the buffer for the duration of any analysis call; the sampler never
// writes to it.
type Frame struct {
	Pix    []byte
	Width  int
	Height int
	Stride int // bytes per row; defaults to Width*4 when zero
	Order  ChannelOrder
}

// Sample is one grid point with its normalized channel and luminance values.
type Sample struct {
	X, Y      int     // pixel position
	NormX     float64 // X / (Width-1), 0 for single-column frames
	NormY     float64
	R, G, B   float64 // normalized [0,1]
	Luminance float64 // weighted channel sum, [0,1]
}

// Empty reports whether the frame has no addressable pixels.
func (f Frame) Empty() bool {
	return f.Width <= 0 || f.Height <= 0 || len(f.Pix) == 0
}

func (f Frame) stride() int {
	if f.Stride > 0 {
		return f.Stride
	}
	return f.Width * 4
}

// At returns the sample at pixel (x, y). Out-of-range coordinates are clamped
// to the frame edge so callers never read outside the buffer.
func (f Frame) At(x, y int) Sample {
	if x < 0 {
		x = 0
	} else if x >= f.Width {
		x = f.Width - 1
	}
	if y < 0 {
		y = 0
	} else if y >= f.Height {
		y = f.Height - 1
	}

	off := y*f.stride() + x*4
	var r, g, b float64
	switch f.Order {
	case OrderBGRA:
		b = float64(f.Pix[off]) / 255.0
		g = float64(f.Pix[off+1]) / 255.0
		r = float64(f.Pix[off+2]) / 255.0
	default:
		r = float64(f.Pix[off]) / 255.0
		g = float64(f.Pix[off+1]) / 255.0
		b = float64(f.Pix[off+2]) / 255.0
	}

	s := Sample{X: x, Y: y, R: r, G: g, B: b}
	s.Luminance = lumRed*r + lumGreen*g + lumBlue*b
	if f.Width > 1 {
		s.NormX = float64(x) / float64(f.Width-1)
	}
	if f.Height > 1 {
		s.NormY = float64(y) / float64(f.Height-1)
	}
	return s
}

// GridStep returns the pixel strides used for an n-by-n sampling grid. The
// step never drops below one, so grids larger than the frame fall back to
// per-pixel sampling.
func (f Frame) GridStep(n int) (stepX, stepY int) {
	if n <= 0 {
		n = 1
	}
	stepX = f.Width / n
	if stepX < 1 {
		stepX = 1
	}
	stepY = f.Height / n
	if stepY < 1 {
		stepY = 1
	}
	return stepX, stepY
}

// EachGridSample visits evenly spaced grid points across the frame without
// allocating a luminance buffer. Non-empty frames always produce at least one
// sample. Returning false from fn stops the walk early.
func (f Frame) EachGridSample(n int, fn func(Sample) bool) {
	if f.Empty() {
		return
	}
	stepX, stepY := f.GridStep(n)
	for y := 0; y < f.Height; y += stepY {
		for x := 0; x < f.Width; x += stepX {
			if !fn(f.At(x, y)) {
				return
			}
		}
	}
}

// GridSamples collects the full n-by-n grid into a slice. Prefer
// EachGridSample on the live path; this is a convenience for callers that
// need the whole grid at once.
func (f Frame) GridSamples(n int) []Sample {
	if f.Empty() {
		return nil
	}
	stepX, stepY := f.GridStep(n)
	cols := (f.Width + stepX - 1) / stepX
	rows := (f.Height + stepY - 1) / stepY
	out := make([]Sample, 0, cols*rows)
	f.EachGridSample(n, func(s Sample) bool {
		out = append(out, s)
		return true
	})
	return out
}

// FromImage wraps a decoded still in a Frame, converting to RGBA when the
// source uses a different pixel layout. Used by the capture path; live frames
// arrive as raw buffers and skip this conversion.
func FromImage(img image.Image) Frame {
	if img == nil {
		return Frame{}
	}
	bounds := img.Bounds()
	if bounds.Empty() {
		return Frame{}
	}

	rgba, ok := img.(*image.RGBA)
	if !ok || bounds.Min != (image.Point{}) {
		rgba = image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	}

	return Frame{
		Pix:    rgba.Pix,
		Width:  rgba.Rect.Dx(),
		Height: rgba.Rect.Dy(),
		Stride: rgba.Stride,
		Order:  OrderRGBA,
	}
}
