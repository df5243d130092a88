package export

import (
	"bytes"
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/oct.dataset/internal/imaging"
)

// OverlayPNG plots the boundary rows over the image and returns the figure
// as PNG. Rows grow downward in the image, so y is flipped for the plot.
func OverlayPNG(img *imaging.Raster, segs [][]int, title string) ([]byte, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Column"
	p.Y.Label.Text = "Row (from bottom)"
	p.X.Min, p.X.Max = 0, float64(img.Width)
	p.Y.Min, p.Y.Max = 0, float64(img.Height)

	p.Add(plotter.NewImage(img.Image(), 0, 0, float64(img.Width), float64(img.Height)))

	colors := LabelPalette(len(segs) + 1)
	for k, row := range segs {
		pts := make(plotter.XYs, len(row))
		for x, y := range row {
			pts[x] = plotter.XY{X: float64(x) + 0.5, Y: float64(img.Height - y)}
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, fmt.Errorf("boundary %d: %w", k, err)
		}
		line.Color = colors[k+1]
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add(fmt.Sprintf("boundary %d", k+1), line)
	}

	wt, err := p.WriterTo(14*vg.Inch, 6*vg.Inch, "png")
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
