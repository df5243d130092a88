package annotation

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/interp"
	"seehuhn.de/go/geom/vec"

	"github.com/banshee-data/oct.dataset/internal/boundary"
	"github.com/banshee-data/oct.dataset/internal/imaging"
	"github.com/banshee-data/oct.dataset/internal/monitoring"
)

// Document is a layer-annotation file: an embedded image plus one traced
// shape per layer.
type Document struct {
	Version     string         `json:"version"`
	Flags       map[string]any `json:"flags"`
	Shapes      []ShapeRecord  `json:"shapes"`
	ImagePath   string         `json:"imagePath"`
	ImageData   string         `json:"imageData"`
	ImageHeight int            `json:"imageHeight"`
	ImageWidth  int            `json:"imageWidth"`
}

// ShapeRecord is one shape of a Document.
type ShapeRecord struct {
	Label     string         `json:"label"`
	Points    [][2]float64   `json:"points"`
	GroupID   *int           `json:"group_id"`
	ShapeType string         `json:"shape_type"`
	Flags     map[string]any `json:"flags"`
}

// DocumentVersion is written into generated documents.
const DocumentVersion = "4.5.9"

// ReadDocument decodes a layer-annotation file.
func ReadDocument(path string, data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse layer annotation %s: %w", path, err)
	}
	return &doc, nil
}

// labelmeParser reads layer-annotation JSON files with one polyline per
// layer boundary. The usable span is the range every layer covers, trimmed
// to a multiple of the granularity; layers are shifted into that span with
// vertices interpolated at the crop edges.
type labelmeParser struct {
	parserBase
}

func (p *labelmeParser) Parse(path string) ([]Result, error) {
	data, err := p.fsys.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read layer annotation: %w", err)
	}
	doc, err := ReadDocument(path, data)
	if err != nil {
		return nil, err
	}

	names, err := p.cfg.LayerSet(p.cfg.GetLabelmeLayerSet())
	if err != nil {
		return nil, err
	}
	if len(doc.Shapes) != len(names) {
		return nil, skipf("%s has %d layers, want %d", path, len(doc.Shapes), len(names))
	}
	distinct := map[string]bool{}
	for _, s := range doc.Shapes {
		distinct[s.Label] = true
	}
	if len(distinct) != len(names) {
		return nil, skipf("%s has missing layers", path)
	}

	layers := make([]layerTrace, len(doc.Shapes))
	for i, s := range doc.Shapes {
		if len(s.Points) < 2 {
			return nil, skipf("%s: layer %q has %d points", path, s.Label, len(s.Points))
		}
		layers[i] = newLayerTrace(s)
	}
	sort.SliceStable(layers, func(i, j int) bool { return layers[i].points[0].Y < layers[j].points[0].Y })

	left, right := p.usableSpan(layers)
	if width := right - left; width < p.cfg.GetMinWidth() {
		return nil, skipf("labeled region of %s is %d, below minimum %d", path, width, p.cfg.GetMinWidth())
	}

	src, err := imaging.DecodeBase64(doc.ImageData)
	if err != nil {
		return nil, fmt.Errorf("%s: embedded image: %w", path, err)
	}
	bounds := src.Bounds()
	if _, err := p.divisibilityCrop(path, bounds.Dx(), bounds.Dy()); err != nil {
		return nil, err
	}
	if left < 0 || right >= bounds.Dx() {
		return nil, fmt.Errorf("%s: labeled span [%d, %d] outside image width %d", path, left, right, bounds.Dx())
	}
	img, err := imaging.Grayscale(src)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	height := img.Height - img.Height%p.cfg.GetMultiplicity()
	if height == 0 {
		return nil, skipf("%s: image height %d below multiplicity", path, img.Height)
	}
	img, err = img.Crop(left, 0, right+1, height)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	curves := make([]boundary.Curve, len(layers))
	labels := make([]string, 0, len(layers)+1)
	labels = append(labels, "background")
	for i, l := range layers {
		pts, err := l.shift(float64(left), img.Width)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		for j := range pts {
			pts[j].Y = min(max(pts[j].Y, 0), float64(height))
		}
		curves[i] = boundary.Curve{Label: l.label, Points: pts}
		labels = append(labels, l.label)
	}

	return []Result{{
		Image:  img,
		Curves: curves,
		Labels: labels,
		Source: path,
	}}, nil
}

// usableSpan returns the inclusive column range every layer covers, trimmed
// so its width is a multiple of the granularity.
func (p *labelmeParser) usableSpan(layers []layerTrace) (left, right int) {
	maxFirst, minLast := math.Inf(-1), math.Inf(1)
	for _, l := range layers {
		maxFirst = max(maxFirst, l.points[0].X)
		minLast = min(minLast, l.points[len(l.points)-1].X)
	}
	left = int(math.Ceil(maxFirst))
	right = int(math.Floor(minLast))

	remove := (right - left + 1) % p.cfg.GetMultiplicity()
	if remove < 0 {
		remove += p.cfg.GetMultiplicity()
	}
	left += remove / 2
	right -= remove - remove/2
	return left, right
}

type layerTrace struct {
	label  string
	points []vec.Vec2
}

// newLayerTrace orders the shape's points left to right, dropping points
// that do not advance in x.
func newLayerTrace(s ShapeRecord) layerTrace {
	pts := make([]vec.Vec2, len(s.Points))
	for i, p := range s.Points {
		pts[i] = vec.Vec2{X: p[0], Y: p[1]}
	}
	if pts[0].X > pts[len(pts)-1].X {
		for i, j := 0, len(pts)-1; i < j; i, j = i+1, j-1 {
			pts[i], pts[j] = pts[j], pts[i]
		}
	}
	kept := pts[:1]
	for _, p := range pts[1:] {
		if p.X > kept[len(kept)-1].X {
			kept = append(kept, p)
		}
	}
	if dropped := len(pts) - len(kept); dropped > 0 {
		monitoring.Warnf("layer %q: dropped %d points that do not advance left to right", s.Label, dropped)
	}
	return layerTrace{label: s.Label, points: kept}
}

// shift moves the trace left by offset and clips it to [0, width-1]. When
// the trace continues past an edge, a vertex is interpolated on the edge
// from the nearest outside point. A trace that stops short of an edge is an
// error.
func (l layerTrace) shift(offset float64, width int) ([]vec.Vec2, error) {
	right := float64(width - 1)
	var inside []vec.Vec2
	var outLeft, outRight *vec.Vec2
	for _, p := range l.points {
		q := vec.Vec2{X: p.X - offset, Y: p.Y}
		if q.X < 0 {
			outLeft = &q
			continue
		}
		if q.X > right {
			outRight = &q
			break
		}
		inside = append(inside, q)
	}
	if len(inside) == 0 {
		if outLeft == nil || outRight == nil {
			return nil, fmt.Errorf("layer %q has no points inside the crop", l.label)
		}
		a := edgeVertex(*outLeft, *outRight, 0)
		b := edgeVertex(*outLeft, *outRight, right)
		return []vec.Vec2{a, b}, nil
	}

	first, last := inside[0], inside[len(inside)-1]
	switch {
	case first.X == 0:
	case outLeft != nil:
		inside = append([]vec.Vec2{edgeVertex(*outLeft, first, 0)}, inside...)
	default:
		return nil, fmt.Errorf("layer %q starts at x=%g and does not reach the left side of the crop", l.label, first.X)
	}
	switch {
	case last.X == right:
	case outRight != nil:
		inside = append(inside, edgeVertex(last, *outRight, right))
	default:
		return nil, fmt.Errorf("layer %q ends at x=%g and does not reach the right side of the crop", l.label, last.X)
	}
	return inside, nil
}

// edgeVertex interpolates the segment a-b at x.
func edgeVertex(a, b vec.Vec2, x float64) vec.Vec2 {
	var pl interp.PiecewiseLinear
	if err := pl.Fit([]float64{a.X, b.X}, []float64{a.Y, b.Y}); err != nil {
		// a.X == b.X cannot happen: traces strictly advance in x.
		return vec.Vec2{X: x, Y: a.Y}
	}
	return vec.Vec2{X: x, Y: pl.Predict(x)}
}
