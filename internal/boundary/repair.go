package boundary

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/interp"
)

// InteriorPolicy decides what happens to a non-positive value that has a
// positive neighbour on both sides.
type InteriorPolicy int

const (
	// InteriorInterpolate fills gaps linearly from the nearest positive
	// neighbours, rounding to the nearest integer.
	InteriorInterpolate InteriorPolicy = iota
	// InteriorFatal rejects the curve.
	InteriorFatal
)

// ErrNoPositive is returned when a curve has no strictly positive value.
var ErrNoPositive = errors.New("curve has no positive value")

// InteriorError reports an unrepairable interior value.
type InteriorError struct {
	Column int
	Value  int
}

func (e *InteriorError) Error() string {
	return fmt.Sprintf("non-positive interior value %d at column %d", e.Value, e.Column)
}

// Repair returns a copy of values with every non-positive entry replaced.
// Leading entries take the first positive value, trailing entries take the
// last positive value, and interior entries follow policy.
func Repair(values []int, policy InteriorPolicy) ([]int, error) {
	out := append([]int(nil), values...)

	first := -1
	for i, v := range out {
		if v > 0 {
			first = i
			break
		}
	}
	if first < 0 {
		return nil, ErrNoPositive
	}
	for i := 0; i < first; i++ {
		out[i] = out[first]
	}

	last := first
	for i := len(out) - 1; i >= first; i-- {
		if out[i] > 0 {
			last = i
			break
		}
	}
	for i := last + 1; i < len(out); i++ {
		out[i] = out[last]
	}

	var xs, ys []float64
	var gaps []int
	for i := first; i <= last; i++ {
		if out[i] > 0 {
			xs = append(xs, float64(i))
			ys = append(ys, float64(out[i]))
			continue
		}
		if policy == InteriorFatal {
			return nil, &InteriorError{Column: i, Value: out[i]}
		}
		gaps = append(gaps, i)
	}
	if len(gaps) == 0 {
		return out, nil
	}

	// Gaps exist only between two positive samples, so len(xs) >= 2.
	var pl interp.PiecewiseLinear
	if err := pl.Fit(xs, ys); err != nil {
		return nil, fmt.Errorf("interpolate interior gaps: %w", err)
	}
	for _, i := range gaps {
		out[i] = int(math.Round(pl.Predict(float64(i))))
	}
	return out, nil
}
