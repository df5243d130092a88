// Package raster draws annotation shapes into a label mask and remaps the
// result into canonical top-to-bottom class order.
//
// Polygons are filled with an exact scanline rule so that a region between
// two integer boundary curves covers precisely the rows [upper, lower) at
// every sampled column. Row y is sampled at y+0.5; an edge from y0 to y1
// contributes a crossing when min(y0,y1) <= y+0.5 < max(y0,y1); column x is
// filled when it lies inside [xa, xb] for a pair of consecutive crossings.
// Strokes and discs are drawn with draw2d and thresholded at half coverage.
package raster

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"sort"

	"github.com/llgcode/draw2d"
	"github.com/llgcode/draw2d/draw2dimg"
	"github.com/llgcode/draw2d/draw2dkit"
	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"

	"github.com/banshee-data/oct.dataset/internal/config"
	"github.com/banshee-data/oct.dataset/internal/geom"
	"github.com/banshee-data/oct.dataset/internal/mask"
)

// Rasterizer draws shapes into masks. The zero value is not usable; use New
// or Default.
type Rasterizer struct {
	LineWidth   float64
	PointRadius float64
}

// New builds a Rasterizer from the stroke settings in cfg.
func New(cfg *config.Config) *Rasterizer {
	return &Rasterizer{
		LineWidth:   cfg.GetLineWidth(),
		PointRadius: cfg.GetPointRadius(),
	}
}

// Default returns a Rasterizer with a 10 pixel line width and a 5 pixel
// point radius.
func Default() *Rasterizer {
	return New(config.Empty())
}

// Rasterize draws shapes with the default stroke settings.
func Rasterize(width, height int, shapes []geom.Shape) (*mask.LabelMask, error) {
	return Default().Rasterize(width, height, shapes)
}

// LabelValues assigns 1..k to the distinct shape labels in sorted order.
// Value 0 is left for pixels no shape covers.
func LabelValues(shapes []geom.Shape) (map[string]uint8, error) {
	seen := map[string]bool{}
	var names []string
	for _, s := range shapes {
		if !seen[s.ShapeLabel()] {
			seen[s.ShapeLabel()] = true
			names = append(names, s.ShapeLabel())
		}
	}
	if len(names) > math.MaxUint8 {
		return nil, fmt.Errorf("too many distinct labels: %d", len(names))
	}
	sort.Strings(names)
	values := make(map[string]uint8, len(names))
	for i, n := range names {
		values[n] = uint8(i + 1)
	}
	return values, nil
}

// Rasterize draws shapes in order into a width x height mask. Later shapes
// overwrite earlier ones.
func (r *Rasterizer) Rasterize(width, height int, shapes []geom.Shape) (*mask.LabelMask, error) {
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("invalid mask size %dx%d", width, height)
	}
	values, err := LabelValues(shapes)
	if err != nil {
		return nil, err
	}

	m := mask.New(width, height)
	clip := rect.Rect{LLx: 0, LLy: 0, URx: float64(width), URy: float64(height)}
	for i, s := range shapes {
		v := values[s.ShapeLabel()]
		var err error
		switch s := s.(type) {
		case geom.Polyline:
			if len(s.Points) < 2 {
				err = fmt.Errorf("polyline must have at least 2 points, got %d", len(s.Points))
				break
			}
			r.stroke(m, s.Points, v)
		case geom.Polygon:
			err = r.drawPolygon(m, clip, s, v)
		default:
			err = fmt.Errorf("unsupported shape %T", s)
		}
		if err != nil {
			return nil, fmt.Errorf("shape %d (%s): %w", i, s.ShapeLabel(), err)
		}
	}
	return m, nil
}

func (r *Rasterizer) drawPolygon(m *mask.LabelMask, clip rect.Rect, p geom.Polygon, v uint8) error {
	if err := p.Primitive.CheckPoints(len(p.Points)); err != nil {
		return err
	}
	switch p.Primitive {
	case geom.PrimitivePolygon:
		fillPolygon(m, clip, p.Points, v)
	case geom.PrimitiveRectangle:
		fillRectangle(m, p.Points[0], p.Points[1], v)
	case geom.PrimitiveLine, geom.PrimitiveLineStrip:
		r.stroke(m, p.Points, v)
	case geom.PrimitivePoint:
		r.disc(m, p.Points[0], r.PointRadius, v)
	case geom.PrimitiveCircle:
		r.disc(m, p.Points[0], vec.Vec2{X: p.Points[1].X - p.Points[0].X, Y: p.Points[1].Y - p.Points[0].Y}.Length(), v)
	}
	return nil
}

// fillPolygon is the exact even-odd scanline fill described in the package
// comment.
func fillPolygon(m *mask.LabelMask, clip rect.Rect, pts []vec.Vec2, v uint8) {
	bounds := geom.Bounds(geom.Polygon{Points: pts})
	y0 := max(int(math.Floor(bounds.LLy)), int(clip.LLy))
	y1 := min(int(math.Ceil(bounds.URy)), int(clip.URy))

	xs := make([]float64, 0, 8)
	for y := y0; y < y1; y++ {
		yc := float64(y) + 0.5
		xs = xs[:0]
		for i := range pts {
			a, b := pts[i], pts[(i+1)%len(pts)]
			if a.Y == b.Y {
				continue
			}
			lo, hi := min(a.Y, b.Y), max(a.Y, b.Y)
			if yc < lo || yc >= hi {
				continue
			}
			xs = append(xs, a.X+(yc-a.Y)*(b.X-a.X)/(b.Y-a.Y))
		}
		sort.Float64s(xs)
		row := m.Row(y)
		for i := 0; i+1 < len(xs); i += 2 {
			xa := max(int(math.Ceil(xs[i])), int(clip.LLx))
			xb := min(int(math.Floor(xs[i+1])), int(clip.URx)-1)
			for x := xa; x <= xb; x++ {
				row[x] = v
			}
		}
	}
}

func fillRectangle(m *mask.LabelMask, a, b vec.Vec2, v uint8) {
	x0 := max(int(math.Round(min(a.X, b.X))), 0)
	x1 := min(int(math.Round(max(a.X, b.X))), m.Width-1)
	y0 := max(int(math.Round(min(a.Y, b.Y))), 0)
	y1 := min(int(math.Round(max(a.Y, b.Y))), m.Height-1)
	for y := y0; y <= y1; y++ {
		row := m.Row(y)
		for x := x0; x <= x1; x++ {
			row[x] = v
		}
	}
}

// canvas returns an RGBA scratch image and a graphic context set up to paint
// opaque white.
func canvas(m *mask.LabelMask) (*image.RGBA, *draw2dimg.GraphicContext) {
	img := image.NewRGBA(image.Rect(0, 0, m.Width, m.Height))
	gc := draw2dimg.NewGraphicContext(img)
	white := color.RGBA{255, 255, 255, 255}
	gc.SetStrokeColor(white)
	gc.SetFillColor(white)
	return img, gc
}

// Stroke and disc vertices name pixels, whose centres sit at +0.5 in draw2d
// space.
func toCanvas(p vec.Vec2) (float64, float64) { return p.X + 0.5, p.Y + 0.5 }

func (r *Rasterizer) stroke(m *mask.LabelMask, pts []vec.Vec2, v uint8) {
	img, gc := canvas(m)
	gc.SetLineWidth(r.LineWidth)
	gc.SetLineCap(draw2d.RoundCap)
	gc.SetLineJoin(draw2d.RoundJoin)
	gc.MoveTo(toCanvas(pts[0]))
	for _, p := range pts[1:] {
		gc.LineTo(toCanvas(p))
	}
	gc.Stroke()
	blit(m, img, v)
}

func (r *Rasterizer) disc(m *mask.LabelMask, centre vec.Vec2, radius float64, v uint8) {
	img, gc := canvas(m)
	cx, cy := toCanvas(centre)
	draw2dkit.Circle(gc, cx, cy, radius)
	gc.Fill()
	blit(m, img, v)
}

// blit copies every pixel with at least half coverage into m as v.
func blit(m *mask.LabelMask, img *image.RGBA, v uint8) {
	for y := 0; y < m.Height; y++ {
		row := m.Row(y)
		off := y * img.Stride
		for x := 0; x < m.Width; x++ {
			if img.Pix[off+4*x+3] >= 128 {
				row[x] = v
			}
		}
	}
}
