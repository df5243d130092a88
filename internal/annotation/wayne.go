package annotation

import (
	"errors"
	"fmt"

	"github.com/banshee-data/oct.dataset/internal/boundary"
	"github.com/banshee-data/oct.dataset/internal/config"
)

// wayneParser reads scans whose CSV carries one value per image column for
// every boundary, bottom-most boundary first. Values are 1-based image rows.
// Gaps at either end are filled from the nearest sample; a gap inside the
// curve is an error.
type wayneParser struct {
	parserBase
}

func (p *wayneParser) Parse(path string) ([]Result, error) {
	csvPath := SiblingCSV(path)
	rows, err := p.readCSV(csvPath)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &CSVError{Path: csvPath, Msg: "no boundaries"}
	}

	img, err := p.readGray(path)
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		if len(r.Values) != img.Width {
			return nil, &CSVError{Path: csvPath, Line: r.Line,
				Msg: fmt.Sprintf("found %d data points, want one per image column (%d)", len(r.Values), img.Width)}
		}
	}

	crop, err := p.divisibilityCrop(path, img.Width, img.Height)
	if err != nil {
		return nil, err
	}
	x0, y0, x1, y1 := crop.Rect()
	cropped, err := img.Crop(x0, y0, x1, y1)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	names, _ := p.cfg.LayerSet(config.LayersWayneState)
	curves := make([]boundary.Curve, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		r := rows[i]
		values := make([]int, len(r.Values))
		for j, v := range r.Values {
			values[j] = v - 1
		}
		values, err = boundary.Repair(values, boundary.InteriorFatal)
		var ie *boundary.InteriorError
		switch {
		case errors.As(err, &ie):
			return nil, &CSVError{Path: csvPath, Line: r.Line, Msg: ie.Error()}
		case err != nil:
			return nil, &CSVError{Path: csvPath, Line: r.Line, Msg: err.Error()}
		}

		values, err = boundary.Reindex(values, crop.Left, crop.Width, crop.Top)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", csvPath, err)
		}
		for j := range values {
			values[j] = min(max(values[j], 0), crop.Height)
		}

		label := ""
		if k := len(rows) - 1 - i; k < len(names) {
			label = names[k]
		}
		curves = append(curves, boundary.Dense(label, values))
	}

	return []Result{{
		Image:  cropped,
		Curves: curves,
		Labels: regionLabels(names, len(curves)),
		Source: path,
	}}, nil
}
