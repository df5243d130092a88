package raster

import (
	"fmt"
	"sort"

	"github.com/banshee-data/oct.dataset/internal/mask"
)

// Canonicalize returns a copy of m whose classes are renumbered by the row
// at which they first appear in column 0: the topmost class becomes 0, the
// next 1, and so on. A class that never appears in column 0 cannot be
// placed and is an error.
func Canonicalize(m *mask.LabelMask) (*mask.LabelMask, error) {
	if m.Width == 0 || m.Height == 0 {
		return nil, fmt.Errorf("cannot canonicalize empty %dx%d mask", m.Width, m.Height)
	}

	firstRow := map[uint8]int{}
	for y := 0; y < m.Height; y++ {
		v := m.At(0, y)
		if _, ok := firstRow[v]; !ok {
			firstRow[v] = y
		}
	}

	classes := make([]uint8, 0, len(firstRow))
	for v := range firstRow {
		classes = append(classes, v)
	}
	sort.Slice(classes, func(i, j int) bool { return firstRow[classes[i]] < firstRow[classes[j]] })

	table := make(map[uint8]uint8, len(classes))
	for i, v := range classes {
		table[v] = uint8(i)
	}

	out := m.Clone()
	if err := out.Remap(table); err != nil {
		return nil, fmt.Errorf("canonicalize: %w", err)
	}
	return out, nil
}
