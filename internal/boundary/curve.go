// Package boundary holds the boundary curve type shared by every annotation
// format, plus the repair passes applied to raw sample values.
package boundary

import (
	"fmt"
	"math"
	"sort"

	"seehuhn.de/go/geom/vec"
)

// Curve is one layer transition: the vertical position of the boundary at a
// sequence of strictly increasing x positions. y is measured top-down in
// pixel-edge units, so a value b puts rows < b above the boundary.
type Curve struct {
	Label  string
	Points []vec.Vec2
}

// FromSamples builds a curve from integer sample values placed at xs.
func FromSamples(label string, xs, values []int) (Curve, error) {
	if len(xs) != len(values) {
		return Curve{}, fmt.Errorf("curve %q: %d x positions for %d values", label, len(xs), len(values))
	}
	c := Curve{Label: label, Points: make([]vec.Vec2, len(xs))}
	for i := range xs {
		if i > 0 && xs[i] <= xs[i-1] {
			return Curve{}, fmt.Errorf("curve %q: x positions must increase (x[%d]=%d, x[%d]=%d)",
				label, i-1, xs[i-1], i, xs[i])
		}
		c.Points[i] = vec.Vec2{X: float64(xs[i]), Y: float64(values[i])}
	}
	return c, nil
}

// Dense builds a curve with one sample per column starting at x = 0.
func Dense(label string, values []int) Curve {
	c, _ := FromSamples(label, SamplePositions(len(values), 0, 1), values)
	return c
}

// SamplePositions returns n positions first, first+spacing, ...
func SamplePositions(n, first, spacing int) []int {
	xs := make([]int, n)
	for i := range xs {
		xs[i] = first + i*spacing
	}
	return xs
}

// Values returns the y of each point rounded to the nearest integer.
func (c Curve) Values() []int {
	out := make([]int, len(c.Points))
	for i, p := range c.Points {
		out[i] = int(math.Round(p.Y))
	}
	return out
}

// Columns returns the x of each point rounded to the nearest integer.
func (c Curve) Columns() []int {
	out := make([]int, len(c.Points))
	for i, p := range c.Points {
		out[i] = int(math.Round(p.X))
	}
	return out
}

// FirstY is the y of the leftmost point, used to order layers.
func (c Curve) FirstY() float64 {
	if len(c.Points) == 0 {
		return math.Inf(1)
	}
	return c.Points[0].Y
}

// Validate checks that the curve is non-empty, that x strictly increases and
// that every y lies within [0, height].
func (c Curve) Validate(height int) error {
	if len(c.Points) == 0 {
		return fmt.Errorf("curve %q has no points", c.Label)
	}
	for i, p := range c.Points {
		if i > 0 && p.X <= c.Points[i-1].X {
			return fmt.Errorf("curve %q: x does not increase at point %d", c.Label, i)
		}
		if p.Y < 0 || p.Y > float64(height) {
			return fmt.Errorf("curve %q: y=%g at x=%g outside [0, %d]", c.Label, p.Y, p.X, height)
		}
	}
	return nil
}

// SortTopToBottom orders curves by the y of their first point. Ties keep
// their input order.
func SortTopToBottom(curves []Curve) {
	sort.SliceStable(curves, func(i, j int) bool {
		return curves[i].FirstY() < curves[j].FirstY()
	})
}

// Reindex maps dense per-column values into a cropped frame: it keeps
// columns [left, left+width) and subtracts top from every value.
func Reindex(values []int, left, width, top int) ([]int, error) {
	if left < 0 || width < 0 || left+width > len(values) {
		return nil, fmt.Errorf("reindex: columns [%d, %d) outside curve of %d values", left, left+width, len(values))
	}
	out := make([]int, width)
	for i := range out {
		out[i] = values[left+i] - top
	}
	return out, nil
}
