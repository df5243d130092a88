package normalize

import (
	"fmt"

	"github.com/banshee-data/oct.dataset/internal/imaging"
	"github.com/banshee-data/oct.dataset/internal/mask"
	"github.com/banshee-data/oct.dataset/internal/monitoring"
)

// Item is one image/mask pair with the boundary rows derived from the mask.
type Item struct {
	Image *imaging.Raster
	Mask  *mask.LabelMask
	Segs  [][]int
}

// CommonSize returns the minimum width and height over items.
func CommonSize(items []Item) (width, height int) {
	for i, it := range items {
		if i == 0 || it.Mask.Width < width {
			width = it.Mask.Width
		}
		if i == 0 || it.Mask.Height < height {
			height = it.Mask.Height
		}
	}
	return width, height
}

// ToCommonSize crops every item in place to the dataset-wide minimum size,
// splitting the excess symmetrically, and re-derives the boundary rows of
// each cropped mask with the same class count as before. It returns the
// common size.
func ToCommonSize(items []Item) (width, height int, err error) {
	if len(items) == 0 {
		return 0, 0, fmt.Errorf("no items to normalise")
	}
	width, height = CommonSize(items)
	for i := range items {
		it := &items[i]
		if it.Image.Width != it.Mask.Width || it.Image.Height != it.Mask.Height {
			return 0, 0, fmt.Errorf("item %d: image %dx%d and mask %dx%d differ",
				i, it.Image.Width, it.Image.Height, it.Mask.Width, it.Mask.Height)
		}
		if it.Mask.Width == width && it.Mask.Height == height {
			continue
		}
		c, err := CropTo(it.Mask.Width, it.Mask.Height, width, height)
		if err != nil {
			return 0, 0, fmt.Errorf("item %d: %w", i, err)
		}
		monitoring.Logf("cropping item %d from %dx%d to %s", i, it.Mask.Width, it.Mask.Height, c)
		if it.Image, err = Image(it.Image, c); err != nil {
			return 0, 0, fmt.Errorf("item %d: %w", i, err)
		}
		if it.Mask, err = Mask(it.Mask, c); err != nil {
			return 0, 0, fmt.Errorf("item %d: %w", i, err)
		}
		it.Segs = mask.BoundariesN(it.Mask, len(it.Segs)+1)
	}
	return width, height, nil
}
