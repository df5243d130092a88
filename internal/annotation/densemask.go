package annotation

import (
	"fmt"
	"math"

	"github.com/banshee-data/oct.dataset/internal/imaging"
	"github.com/banshee-data/oct.dataset/internal/mask"
	"github.com/banshee-data/oct.dataset/internal/normalize"
)

// maskParser reads scans paired with a dense per-pixel class CSV: one line
// per image row, one value per image column.
type maskParser struct {
	parserBase
}

func (p *maskParser) Parse(path string) ([]Result, error) {
	csvPath := SiblingCSV(path)
	rows, err := p.readCSV(csvPath)
	if err != nil {
		return nil, err
	}

	src, err := p.readImage(path)
	if err != nil {
		return nil, err
	}
	width, height := src.Bounds().Dx(), src.Bounds().Dy()

	if len(rows) != height {
		return nil, &CSVError{Path: csvPath,
			Msg: fmt.Sprintf("found %d lines, want one per image row (%d)", len(rows), height)}
	}
	m := mask.New(width, height)
	for y, r := range rows {
		if len(r.Values) != width {
			return nil, &CSVError{Path: csvPath, Line: r.Line,
				Msg: fmt.Sprintf("found %d data points, want one per image column (%d)", len(r.Values), width)}
		}
		row := m.Row(y)
		for x, v := range r.Values {
			if v < 0 || v > math.MaxUint8 {
				return nil, &CSVError{Path: csvPath, Line: r.Line,
					Msg: fmt.Sprintf("class %d in column %d outside 0..255", v, x+1)}
			}
			row[x] = uint8(v)
		}
	}

	var img *imaging.Raster
	if p.cfg.GetRGBMasks() {
		img, err = imaging.RGB(src)
	} else {
		img, err = imaging.Grayscale(src)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	crop, err := p.divisibilityCrop(path, width, height)
	if err != nil {
		return nil, err
	}
	if !crop.IsIdentity() {
		if img, err = normalize.Image(img, crop); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if m, err = normalize.Mask(m, crop); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}

	return []Result{{
		Image:  img,
		Mask:   m,
		Source: path,
	}}, nil
}
