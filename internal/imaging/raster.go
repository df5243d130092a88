// Package imaging decodes source images and holds them as compact 8-bit
// rasters (grayscale or RGB) that can be cropped in step with label masks.
package imaging

import (
	"fmt"
	"image"
	"image/color"
)

// Raster is an 8-bit image stored row-major with interleaved channels.
type Raster struct {
	Width    int
	Height   int
	Channels int
	Pix      []uint8
}

// New allocates a zeroed raster.
func New(width, height, channels int) *Raster {
	return &Raster{
		Width:    width,
		Height:   height,
		Channels: channels,
		Pix:      make([]uint8, width*height*channels),
	}
}

// At returns channel c of the pixel at (x, y).
func (r *Raster) At(x, y, c int) uint8 {
	return r.Pix[(y*r.Width+x)*r.Channels+c]
}

// Set assigns channel c of the pixel at (x, y).
func (r *Raster) Set(x, y, c int, v uint8) {
	r.Pix[(y*r.Width+x)*r.Channels+c] = v
}

// Crop returns a copy of the half-open region [x0, x1) x [y0, y1).
func (r *Raster) Crop(x0, y0, x1, y1 int) (*Raster, error) {
	if x0 < 0 || y0 < 0 || x1 > r.Width || y1 > r.Height || x0 >= x1 || y0 >= y1 {
		return nil, fmt.Errorf("crop [%d,%d)x[%d,%d) outside %dx%d raster", x0, x1, y0, y1, r.Width, r.Height)
	}
	out := New(x1-x0, y1-y0, r.Channels)
	rowLen := out.Width * r.Channels
	for y := y0; y < y1; y++ {
		src := (y*r.Width + x0) * r.Channels
		dst := (y - y0) * rowLen
		copy(out.Pix[dst:dst+rowLen], r.Pix[src:src+rowLen])
	}
	return out, nil
}

// Image converts the raster back to an image.Gray or image.RGBA.
func (r *Raster) Image() image.Image {
	rect := image.Rect(0, 0, r.Width, r.Height)
	if r.Channels == 1 {
		img := image.NewGray(rect)
		copy(img.Pix, r.Pix)
		return img
	}
	img := image.NewRGBA(rect)
	for y := 0; y < r.Height; y++ {
		for x := 0; x < r.Width; x++ {
			img.SetRGBA(x, y, color.RGBA{R: r.At(x, y, 0), G: r.At(x, y, 1), B: r.At(x, y, 2), A: 255})
		}
	}
	return img
}

// Grayscale converts img to a single-channel raster. 16-bit gray is scaled
// by 1/256; colour images use luma weights. Other modes are rejected.
func Grayscale(img image.Image) (*Raster, error) {
	b := img.Bounds()
	out := New(b.Dx(), b.Dy(), 1)

	switch src := img.(type) {
	case *image.Gray:
		for y := 0; y < out.Height; y++ {
			row := src.Pix[(y+b.Min.Y-src.Rect.Min.Y)*src.Stride+(b.Min.X-src.Rect.Min.X):]
			copy(out.Pix[y*out.Width:(y+1)*out.Width], row[:out.Width])
		}
	case *image.Gray16:
		for y := 0; y < out.Height; y++ {
			for x := 0; x < out.Width; x++ {
				out.Pix[y*out.Width+x] = uint8(src.Gray16At(b.Min.X+x, b.Min.Y+y).Y >> 8)
			}
		}
	case *image.RGBA, *image.NRGBA, *image.RGBA64, *image.NRGBA64, *image.Paletted, *image.YCbCr:
		for y := 0; y < out.Height; y++ {
			for x := 0; x < out.Width; x++ {
				g := color.GrayModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray)
				out.Pix[y*out.Width+x] = g.Y
			}
		}
	default:
		return nil, fmt.Errorf("unexpected image mode %T", img)
	}
	return out, nil
}

// RGB converts img to a three-channel raster. 16-bit gray is scaled by 1/256
// before being replicated across channels.
func RGB(img image.Image) (*Raster, error) {
	b := img.Bounds()
	out := New(b.Dx(), b.Dy(), 3)

	switch img.(type) {
	case *image.Gray, *image.Gray16, *image.RGBA, *image.NRGBA, *image.RGBA64, *image.NRGBA64, *image.Paletted, *image.YCbCr:
	default:
		return nil, fmt.Errorf("unexpected image mode %T", img)
	}

	for y := 0; y < out.Height; y++ {
		for x := 0; x < out.Width; x++ {
			c := color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			out.Set(x, y, 0, c.R)
			out.Set(x, y, 1, c.G)
			out.Set(x, y, 2, c.B)
		}
	}
	return out, nil
}
