// Package geom defines the annotation shapes exchanged between the parsers,
// the polygon builder and the rasteriser.
//
// A Shape is either a Polyline (an open traced layer line, as drawn by an
// annotator) or a Polygon (a closed region with a Primitive kind). Vertices
// use seehuhn.de/go/geom/vec.Vec2 in image coordinates: x grows to the right,
// y grows downward.
package geom

import (
	"fmt"

	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"
)

// Primitive selects how a Polygon's vertices are interpreted when drawn.
type Primitive int

const (
	PrimitivePolygon Primitive = iota
	PrimitiveRectangle
	PrimitiveLine
	PrimitiveLineStrip
	PrimitivePoint
	PrimitiveCircle
)

var primitiveNames = map[Primitive]string{
	PrimitivePolygon:   "polygon",
	PrimitiveRectangle: "rectangle",
	PrimitiveLine:      "line",
	PrimitiveLineStrip: "linestrip",
	PrimitivePoint:     "point",
	PrimitiveCircle:    "circle",
}

func (p Primitive) String() string {
	if s, ok := primitiveNames[p]; ok {
		return s
	}
	return fmt.Sprintf("primitive(%d)", int(p))
}

// ParsePrimitive maps a shape_type tag to a Primitive. An empty tag means
// polygon. "polyline" is not a Primitive: see ParseShape.
func ParsePrimitive(s string) (Primitive, error) {
	if s == "" {
		return PrimitivePolygon, nil
	}
	for p, name := range primitiveNames {
		if name == s {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown shape type %q", s)
}

// CheckPoints validates the vertex count required by the primitive.
func (p Primitive) CheckPoints(n int) error {
	switch p {
	case PrimitiveRectangle, PrimitiveLine, PrimitiveCircle:
		if n != 2 {
			return fmt.Errorf("shape of type %s must have 2 points, got %d", p, n)
		}
	case PrimitivePoint:
		if n != 1 {
			return fmt.Errorf("shape of type %s must have 1 point, got %d", p, n)
		}
	case PrimitiveLineStrip:
		if n < 2 {
			return fmt.Errorf("shape of type %s must have at least 2 points, got %d", p, n)
		}
	case PrimitivePolygon:
		if n <= 2 {
			return fmt.Errorf("polygon must have more than 2 points, got %d", n)
		}
	default:
		return fmt.Errorf("unknown primitive %s", p)
	}
	return nil
}

// Shape is a Polyline or a Polygon.
type Shape interface {
	ShapeLabel() string
	Vertices() []vec.Vec2
	isShape()
}

// Polyline is an open traced line, one per annotated layer boundary.
type Polyline struct {
	Label  string
	Points []vec.Vec2
}

// Polygon is a closed region (or a degenerate primitive) filled with its label.
type Polygon struct {
	Label     string
	Primitive Primitive
	Points    []vec.Vec2
}

func (p Polyline) ShapeLabel() string   { return p.Label }
func (p Polyline) Vertices() []vec.Vec2 { return p.Points }
func (Polyline) isShape()               {}

func (p Polygon) ShapeLabel() string   { return p.Label }
func (p Polygon) Vertices() []vec.Vec2 { return p.Points }
func (Polygon) isShape()               {}

// ParseShape builds a Shape from a layer-annotation shape_type tag.
// "polyline" yields a Polyline; every other tag yields a Polygon.
func ParseShape(label, shapeType string, points []vec.Vec2) (Shape, error) {
	if shapeType == "polyline" {
		return Polyline{Label: label, Points: points}, nil
	}
	prim, err := ParsePrimitive(shapeType)
	if err != nil {
		return nil, err
	}
	return Polygon{Label: label, Primitive: prim, Points: points}, nil
}

// Bounds returns the bounding rectangle of the shape's vertices.
func Bounds(s Shape) rect.Rect {
	pts := s.Vertices()
	if len(pts) == 0 {
		return rect.Rect{}
	}
	r := rect.Rect{LLx: pts[0].X, LLy: pts[0].Y, URx: pts[0].X, URy: pts[0].Y}
	for _, p := range pts[1:] {
		r.LLx = min(r.LLx, p.X)
		r.LLy = min(r.LLy, p.Y)
		r.URx = max(r.URx, p.X)
		r.URy = max(r.URy, p.Y)
	}
	return r
}
