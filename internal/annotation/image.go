package annotation

import (
	"fmt"
	"image"

	"github.com/banshee-data/oct.dataset/internal/imaging"
)

func (p parserBase) readImage(path string) (image.Image, error) {
	data, err := p.fsys.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	img, err := imaging.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}

func (p parserBase) readGray(path string) (*imaging.Raster, error) {
	img, err := p.readImage(path)
	if err != nil {
		return nil, err
	}
	r, err := imaging.Grayscale(img)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}
