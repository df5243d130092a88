package mask

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ClassFractions returns the share of pixels in each class 0..numClasses-1.
func ClassFractions(m *LabelMask, numClasses int) []float64 {
	counts := make([]float64, numClasses)
	for _, v := range m.Data {
		if int(v) < numClasses {
			counts[v]++
		}
	}
	if total := floats.Sum(counts); total > 0 {
		floats.Scale(1/total, counts)
	}
	return counts
}

// AverageFractions averages per-mask class fractions with equal weight per
// mask.
func AverageFractions(perMask [][]float64) ([]float64, error) {
	if len(perMask) == 0 {
		return nil, fmt.Errorf("no masks to average")
	}
	n := len(perMask[0])
	out := make([]float64, n)
	col := make([]float64, len(perMask))
	for k := 0; k < n; k++ {
		for i, f := range perMask {
			if len(f) != n {
				return nil, fmt.Errorf("mask %d has %d classes, want %d", i, len(f), n)
			}
			col[i] = f[k]
		}
		out[k] = stat.Mean(col, nil)
	}
	return out, nil
}
