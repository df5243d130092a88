package raster

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"seehuhn.de/go/geom/vec"

	"github.com/banshee-data/oct.dataset/internal/boundary"
	"github.com/banshee-data/oct.dataset/internal/geom"
	"github.com/banshee-data/oct.dataset/internal/mask"
	"github.com/banshee-data/oct.dataset/internal/polygon"
)

func shapesOf(polys []geom.Polygon) []geom.Shape {
	out := make([]geom.Shape, len(polys))
	for i, p := range polys {
		out[i] = p
	}
	return out
}

// roundTrip runs curves through polygon building, rasterisation,
// canonicalisation and boundary extraction.
func roundTrip(t *testing.T, curves []boundary.Curve, width, height int, labels []string) (*mask.LabelMask, [][]int) {
	t.Helper()
	polys, err := polygon.Build(curves, width, height, labels)
	require.NoError(t, err)
	raw, err := Rasterize(width, height, shapesOf(polys))
	require.NoError(t, err)
	m, err := Canonicalize(raw)
	require.NoError(t, err)
	return m, mask.Boundaries(m)
}

func TestRoundTripConstantCurve(t *testing.T) {
	curve := boundary.Dense("ILM", []int{5, 5, 5, 5})
	m, segs := roundTrip(t, []boundary.Curve{curve}, 4, 10, nil)

	for y := 0; y < 10; y++ {
		want := uint8(0)
		if y >= 5 {
			want = 1
		}
		for x := 0; x < 4; x++ {
			assert.Equal(t, want, m.At(x, y), "pixel (%d,%d)", x, y)
		}
	}
	assert.Equal(t, [][]int{{5, 5, 5, 5}}, segs)
}

func TestRoundTripSparseCurves(t *testing.T) {
	xs := boundary.SamplePositions(20, 1, 10)
	upper := make([]int, 20)
	lower := make([]int, 20)
	for i := range upper {
		upper[i] = 20 + (i*7)%13
		lower[i] = 60 + (i*11)%17
	}
	c0, err := boundary.FromSamples("ILM", xs, upper)
	require.NoError(t, err)
	c1, err := boundary.FromSamples("RPE", xs, lower)
	require.NoError(t, err)

	_, segs := roundTrip(t, []boundary.Curve{c0, c1}, 192, 96, []string{"vitreous", "retina", "choroid"})
	require.Len(t, segs, 2)
	for i, x := range xs {
		assert.Equal(t, upper[i], segs[0][x], "upper curve at x=%d", x)
		assert.Equal(t, lower[i], segs[1][x], "lower curve at x=%d", x)
	}
	// Edge vertices copy the first sample.
	assert.Equal(t, upper[0], segs[0][0])
}

func TestRoundTripDenseCurves(t *testing.T) {
	const w, h = 32, 48
	curves := make([]boundary.Curve, 3)
	want := make([][]int, 3)
	for k := range curves {
		vals := make([]int, w)
		for x := range vals {
			vals[x] = 8 + 12*k + (x*(k+3))%9
		}
		want[k] = vals
		curves[k] = boundary.Dense("", vals)
	}
	_, segs := roundTrip(t, curves, w, h, nil)
	if diff := cmp.Diff(want, segs); diff != "" {
		t.Errorf("boundaries mismatch (-want +got):\n%s", diff)
	}
}

func TestCanonicalizeIgnoresLabelNames(t *testing.T) {
	curves := []boundary.Curve{
		boundary.Dense("", []int{3, 3, 4}),
		boundary.Dense("", []int{6, 7, 7}),
	}
	permutations := [][]string{
		{"a", "b", "c"},
		{"c", "b", "a"},
		{"zeta", "alpha", "mu"},
	}

	var first *mask.LabelMask
	for _, labels := range permutations {
		m, _ := roundTrip(t, curves, 3, 10, labels)
		if first == nil {
			first = m
			continue
		}
		assert.Equal(t, first.Data, m.Data, "labels %v", labels)
	}
	assert.Equal(t, uint8(0), first.At(0, 0))
	assert.Equal(t, uint8(2), first.At(0, 9))
}

func TestCanonicalizeMissingClass(t *testing.T) {
	m, err := mask.FromRows([][]uint8{{4, 4}, {2, 9}})
	require.NoError(t, err)
	_, err = Canonicalize(m)
	assert.Error(t, err)

	m, err = mask.FromRows([][]uint8{{4, 4}, {2, 2}, {7, 7}})
	require.NoError(t, err)
	c, err := Canonicalize(m)
	require.NoError(t, err)
	assert.Equal(t, []uint8{0, 0, 1, 1, 2, 2}, c.Data)
}

func TestLabelValues(t *testing.T) {
	values, err := LabelValues([]geom.Shape{
		geom.Polygon{Label: "b"}, geom.Polyline{Label: "a"}, geom.Polygon{Label: "b"},
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]uint8{"a": 1, "b": 2}, values)
}

func TestRasterizeRectangle(t *testing.T) {
	m, err := Rasterize(6, 6, []geom.Shape{
		geom.Polygon{Label: "box", Primitive: geom.PrimitiveRectangle, Points: []vec.Vec2{{X: 4, Y: 3}, {X: 1, Y: 1}}},
	})
	require.NoError(t, err)
	count := 0
	for y := 0; y < 6; y++ {
		for x := 0; x < 6; x++ {
			inside := x >= 1 && x <= 4 && y >= 1 && y <= 3
			if inside {
				count++
				assert.Equal(t, uint8(1), m.At(x, y))
			} else {
				assert.Equal(t, uint8(0), m.At(x, y))
			}
		}
	}
	assert.Equal(t, 12, count)
}

func TestRasterizeLaterShapesWin(t *testing.T) {
	m, err := Rasterize(4, 4, []geom.Shape{
		geom.Polygon{Label: "z", Primitive: geom.PrimitiveRectangle, Points: []vec.Vec2{{X: 0, Y: 0}, {X: 3, Y: 3}}},
		geom.Polygon{Label: "a", Primitive: geom.PrimitiveRectangle, Points: []vec.Vec2{{X: 1, Y: 1}, {X: 2, Y: 2}}},
	})
	require.NoError(t, err)
	assert.Equal(t, uint8(2), m.At(0, 0))
	assert.Equal(t, uint8(1), m.At(1, 1))
}

func TestRasterizeStrokesAndDiscs(t *testing.T) {
	m, err := Rasterize(40, 40, []geom.Shape{
		geom.Polyline{Label: "line", Points: []vec.Vec2{{X: 0, Y: 10}, {X: 39, Y: 10}}},
		geom.Polygon{Label: "dot", Primitive: geom.PrimitivePoint, Points: []vec.Vec2{{X: 20, Y: 30}}},
		geom.Polygon{Label: "ring", Primitive: geom.PrimitiveCircle, Points: []vec.Vec2{{X: 5, Y: 30}, {X: 8, Y: 30}}},
	})
	require.NoError(t, err)

	values, _ := LabelValues([]geom.Shape{geom.Polyline{Label: "line"}, geom.Polyline{Label: "dot"}, geom.Polyline{Label: "ring"}})
	assert.Equal(t, values["line"], m.At(20, 10))
	assert.Equal(t, values["line"], m.At(20, 13))
	assert.Equal(t, uint8(0), m.At(20, 20))
	assert.Equal(t, values["dot"], m.At(20, 30))
	assert.Equal(t, values["dot"], m.At(23, 30))
	assert.Equal(t, uint8(0), m.At(27, 30))
	assert.Equal(t, values["ring"], m.At(5, 30))
	assert.Equal(t, uint8(0), m.At(5, 36))
}

func TestRasterizePointCountErrors(t *testing.T) {
	tests := []geom.Shape{
		geom.Polygon{Label: "p", Primitive: geom.PrimitivePolygon, Points: []vec.Vec2{{X: 0, Y: 0}, {X: 1, Y: 1}}},
		geom.Polygon{Label: "r", Primitive: geom.PrimitiveRectangle, Points: []vec.Vec2{{X: 0, Y: 0}}},
		geom.Polygon{Label: "l", Primitive: geom.PrimitiveLine, Points: []vec.Vec2{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 2, Y: 2}}},
		geom.Polygon{Label: "pt", Primitive: geom.PrimitivePoint, Points: nil},
		geom.Polyline{Label: "pl", Points: []vec.Vec2{{X: 0, Y: 0}}},
	}
	for _, s := range tests {
		_, err := Rasterize(5, 5, []geom.Shape{s})
		assert.Error(t, err, "shape %s", s.ShapeLabel())
	}

	_, err := Rasterize(0, 5, nil)
	assert.Error(t, err)
}
