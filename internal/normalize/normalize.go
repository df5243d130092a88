// Package normalize computes the crops that bring images and masks onto the
// size grid required downstream: dimensions that are multiples of a fixed
// granularity, one common size per dataset, and an optional layer-aware
// vertical trim.
package normalize

import (
	"errors"
	"fmt"

	"github.com/banshee-data/oct.dataset/internal/config"
	"github.com/banshee-data/oct.dataset/internal/imaging"
	"github.com/banshee-data/oct.dataset/internal/mask"
)

// ErrNotDivisible is returned under the skip and fail policies when a
// dimension is not a multiple of the granularity.
var ErrNotDivisible = errors.New("dimensions not divisible by multiplicity")

// Crop is a rectangular cut described by the margins removed on each side.
type Crop struct {
	Left, Top     int
	Right, Bottom int
	Width, Height int // size after cropping
}

// Rect returns the half-open source rectangle kept by the crop.
func (c Crop) Rect() (x0, y0, x1, y1 int) {
	return c.Left, c.Top, c.Left + c.Width, c.Top + c.Height
}

// IsIdentity reports whether the crop removes nothing.
func (c Crop) IsIdentity() bool {
	return c.Left == 0 && c.Top == 0 && c.Right == 0 && c.Bottom == 0
}

func (c Crop) String() string {
	return fmt.Sprintf("%dx%d (left %d, top %d, right %d, bottom %d)",
		c.Width, c.Height, c.Left, c.Top, c.Right, c.Bottom)
}

// Split divides excess into floor(excess/2) before and ceil(excess/2) after.
func Split(excess int) (before, after int) {
	before = excess / 2
	return before, excess - before
}

// CropTo returns the symmetric crop from width x height down to
// newWidth x newHeight.
func CropTo(width, height, newWidth, newHeight int) (Crop, error) {
	if newWidth < 0 || newHeight < 0 || newWidth > width || newHeight > height {
		return Crop{}, fmt.Errorf("cannot crop %dx%d to %dx%d", width, height, newWidth, newHeight)
	}
	l, r := Split(width - newWidth)
	t, b := Split(height - newHeight)
	return Crop{Left: l, Top: t, Right: r, Bottom: b, Width: newWidth, Height: newHeight}, nil
}

// MultipleCrop returns the symmetric crop that rounds both dimensions down to
// a multiple of m.
func MultipleCrop(width, height, m int) (Crop, error) {
	if m <= 0 {
		return Crop{}, fmt.Errorf("multiplicity must be positive, got %d", m)
	}
	return CropTo(width, height, width/m*m, height/m*m)
}

// Divisible reports whether both dimensions are multiples of m.
func Divisible(width, height, m int) bool {
	return m > 0 && width%m == 0 && height%m == 0
}

// ApplyPolicy returns the crop to apply to a width x height source under
// policy. Divisible sources always get the identity crop. Otherwise crop
// returns MultipleCrop, while skip and fail return an error wrapping
// ErrNotDivisible; callers decide whether that error skips the file or ends
// the run.
func ApplyPolicy(width, height, m int, policy string) (Crop, error) {
	if Divisible(width, height, m) {
		return Crop{Width: width, Height: height}, nil
	}
	switch policy {
	case config.PolicyCrop, "":
		return MultipleCrop(width, height, m)
	case config.PolicySkip, config.PolicyFail:
		return Crop{}, fmt.Errorf("%w: %dx%d is not a multiple of %d", ErrNotDivisible, width, height, m)
	default:
		return Crop{}, fmt.Errorf("unknown divisibility policy %q", policy)
	}
}

// Image applies c to img.
func Image(img *imaging.Raster, c Crop) (*imaging.Raster, error) {
	return img.Crop(c.Rect())
}

// Mask applies c to m.
func Mask(m *mask.LabelMask, c Crop) (*mask.LabelMask, error) {
	return m.Crop(c.Rect())
}
