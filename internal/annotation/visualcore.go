package annotation

import (
	"errors"
	"fmt"

	"github.com/banshee-data/oct.dataset/internal/boundary"
	"github.com/banshee-data/oct.dataset/internal/config"
	"github.com/banshee-data/oct.dataset/internal/imaging"
)

// visualCoreRows is the row count of a visual-core CSV: three boundaries
// for each half of the scan.
const visualCoreRows = 6

// visualCoreParser reads scans annotated with sparse boundary samples.
//
// The CSV next to each TIFF holds six rows of samples. Rows 0-2 describe the
// left crop and rows 3-5 the right crop, bottom-most boundary first. Values
// are 1-based distances from the bottom of the image, so a value v is the
// boundary y = height - v. Sample i sits at x = first + i*spacing inside the
// crop.
type visualCoreParser struct {
	parserBase
}

func (p *visualCoreParser) Parse(path string) ([]Result, error) {
	csvPath := SiblingCSV(path)
	rows, err := p.readCSV(csvPath)
	if err != nil {
		return nil, err
	}
	samples := p.cfg.GetVisualCoreSamples()
	if len(rows) != visualCoreRows {
		return nil, &CSVError{Path: csvPath, Msg: fmt.Sprintf("found %d rows, want %d", len(rows), visualCoreRows)}
	}
	for _, r := range rows {
		if len(r.Values) != samples {
			return nil, &CSVError{Path: csvPath, Line: r.Line,
				Msg: fmt.Sprintf("found %d points for a layer, want %d (is this a wayne-state file?)", len(r.Values), samples)}
		}
	}

	img, err := p.readGray(path)
	if err != nil {
		return nil, err
	}

	names, _ := p.cfg.LayerSet(config.LayersVisualFunctionCore)
	half := visualCoreRows / 2
	leftStart, leftEnd := p.cfg.GetVisualCoreLeft()
	rightStart, rightEnd := p.cfg.GetVisualCoreRight()
	sides := []struct {
		tag        string
		start, end int
		rows       []csvRow
	}{
		{SideLeft, leftStart, leftEnd, rows[:half]},
		{SideRight, rightStart, rightEnd, rows[half:]},
	}

	results := make([]Result, 0, len(sides))
	for _, side := range sides {
		res, err := p.side(path, csvPath, img, side.tag, side.start, side.end, side.rows, names)
		if err != nil {
			return nil, err
		}
		res.Source = path
		res.Side = side.tag
		results = append(results, res)
	}
	return results, nil
}

func (p *visualCoreParser) side(path, csvPath string, img *imaging.Raster, tag string, start, end int, rows []csvRow, names []string) (Result, error) {
	if end > img.Width {
		return Result{}, fmt.Errorf("%s: %s crop [%d, %d) exceeds image width %d", path, tag, start, end, img.Width)
	}
	crop, err := p.divisibilityCrop(fmt.Sprintf("%s (%s)", path, tag), end-start, img.Height)
	if err != nil {
		return Result{}, err
	}
	x0, y0, x1, y1 := crop.Rect()
	sideImg, err := img.Crop(start+x0, y0, start+x1, y1)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", path, err)
	}

	xs := boundary.SamplePositions(p.cfg.GetVisualCoreSamples(), p.cfg.GetVisualCoreFirstSample(), p.cfg.GetVisualCoreSpacing())
	curves := make([]boundary.Curve, 0, len(rows))
	// Bottom-most boundary comes first in the file.
	for i := len(rows) - 1; i >= 0; i-- {
		r := rows[i]
		values, err := boundary.Repair(r.Values, boundary.InteriorInterpolate)
		if errors.Is(err, boundary.ErrNoPositive) {
			return Result{}, &CSVError{Path: csvPath, Line: r.Line, Msg: err.Error()}
		} else if err != nil {
			return Result{}, err
		}

		var cx, cy []int
		for j, v := range values {
			x := xs[j] - crop.Left
			if x < 0 || x >= crop.Width {
				continue
			}
			y := img.Height - v - crop.Top
			cx = append(cx, x)
			cy = append(cy, min(max(y, 0), crop.Height))
		}
		if len(cx) == 0 {
			return Result{}, &CSVError{Path: csvPath, Line: r.Line, Msg: "no sample falls inside the cropped image"}
		}
		label := ""
		if k := len(rows) - 1 - i; k < len(names) {
			label = names[k]
		}
		c, err := boundary.FromSamples(label, cx, cy)
		if err != nil {
			return Result{}, &CSVError{Path: csvPath, Line: r.Line, Msg: err.Error()}
		}
		curves = append(curves, c)
	}

	return Result{
		Image:  sideImg,
		Curves: curves,
		Labels: regionLabels(names, len(curves)),
	}, nil
}
