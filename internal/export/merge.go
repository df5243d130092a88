package export

import (
	"fmt"
	"image"

	"golang.org/x/image/draw"

	"github.com/banshee-data/oct.dataset/internal/config"
)

// MergeSides pastes the left and right crops back onto an RGB copy of the
// raw scan at the configured crop offsets. 16-bit scans keep their high
// byte.
func MergeSides(raw, left, right image.Image, cfg *config.Config) (*image.RGBA, error) {
	if cfg == nil {
		cfg = config.Empty()
	}
	b := raw.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), raw, b.Min, draw.Src)

	leftX, _ := cfg.GetVisualCoreLeft()
	rightX, _ := cfg.GetVisualCoreRight()
	for _, side := range []struct {
		name string
		img  image.Image
		x    int
	}{{"left", left, leftX}, {"right", right, rightX}} {
		sb := side.img.Bounds()
		dst := image.Rect(side.x, 0, side.x+sb.Dx(), sb.Dy())
		if !dst.In(out.Bounds()) {
			return nil, fmt.Errorf("%s image %dx%d at x=%d does not fit the %dx%d scan",
				side.name, sb.Dx(), sb.Dy(), side.x, b.Dx(), b.Dy())
		}
		draw.Draw(out, dst, side.img, sb.Min, draw.Src)
	}
	return out, nil
}
