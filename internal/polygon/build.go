// Package polygon closes the regions between adjacent boundary curves into
// polygons ready for rasterisation.
package polygon

import (
	"fmt"

	"github.com/banshee-data/oct.dataset/internal/boundary"
	"github.com/banshee-data/oct.dataset/internal/geom"
	"seehuhn.de/go/geom/vec"
)

// DefaultLabels returns region_0 ... region_{n-1}.
func DefaultLabels(n int) []string {
	labels := make([]string, n)
	for i := range labels {
		labels[i] = fmt.Sprintf("region_%d", i)
	}
	return labels
}

// Build returns one polygon per region for curves ordered top to bottom.
// Region k lies between curve k-1 (or the top edge y=0) and curve k (or the
// bottom edge y=height). labels must hold len(curves)+1 names; nil selects
// DefaultLabels.
func Build(curves []boundary.Curve, width, height int, labels []string) ([]geom.Polygon, error) {
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("invalid image size %dx%d", width, height)
	}
	if labels == nil {
		labels = DefaultLabels(len(curves) + 1)
	}
	if len(labels) != len(curves)+1 {
		return nil, fmt.Errorf("%d labels for %d regions", len(labels), len(curves)+1)
	}

	edges := make([][]vec.Vec2, len(curves))
	for i, c := range curves {
		if err := c.Validate(height); err != nil {
			return nil, err
		}
		pts, err := spanWidth(c, width)
		if err != nil {
			return nil, err
		}
		edges[i] = pts
	}

	top := []vec.Vec2{{X: 0, Y: 0}, {X: float64(width - 1), Y: 0}}
	bottom := []vec.Vec2{{X: 0, Y: float64(height)}, {X: float64(width - 1), Y: float64(height)}}

	polys := make([]geom.Polygon, 0, len(curves)+1)
	for k := 0; k <= len(curves); k++ {
		upper, lower := top, bottom
		if k > 0 {
			upper = edges[k-1]
		}
		if k < len(curves) {
			lower = edges[k]
		}

		pts := make([]vec.Vec2, 0, len(lower)+len(upper))
		pts = append(pts, lower...)
		for i := len(upper) - 1; i >= 0; i-- {
			pts = append(pts, upper[i])
		}
		polys = append(polys, geom.Polygon{
			Label:     labels[k],
			Primitive: geom.PrimitivePolygon,
			Points:    pts,
		})
	}
	return polys, nil
}

// spanWidth returns the curve's points with vertices added at x=0 and
// x=width-1 when the curve stops short of either edge. The added vertex
// copies the y of the nearest sample.
func spanWidth(c boundary.Curve, width int) ([]vec.Vec2, error) {
	first, last := c.Points[0], c.Points[len(c.Points)-1]
	if first.X < 0 || last.X > float64(width-1) {
		return nil, fmt.Errorf("curve %q spans x=[%g, %g], outside image width %d", c.Label, first.X, last.X, width)
	}
	pts := make([]vec.Vec2, 0, len(c.Points)+2)
	if first.X > 0 {
		pts = append(pts, vec.Vec2{X: 0, Y: first.Y})
	}
	pts = append(pts, c.Points...)
	if last.X < float64(width-1) {
		pts = append(pts, vec.Vec2{X: float64(width - 1), Y: last.Y})
	}
	return pts, nil
}
