// Package mask defines the class-indexed label mask and the column scans
// that derive boundary curves and class statistics from it.
package mask

import (
	"fmt"
)

// LabelMask is a row-major grid of class indices.
type LabelMask struct {
	Width  int
	Height int
	Data   []uint8
}

// New allocates a zeroed mask.
func New(width, height int) *LabelMask {
	return &LabelMask{Width: width, Height: height, Data: make([]uint8, width*height)}
}

// FromRows builds a mask from row slices, all of the same length.
func FromRows(rows [][]uint8) (*LabelMask, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("mask has no rows")
	}
	m := New(len(rows[0]), len(rows))
	for y, row := range rows {
		if len(row) != m.Width {
			return nil, fmt.Errorf("mask row %d has %d values, want %d", y, len(row), m.Width)
		}
		copy(m.Data[y*m.Width:], row)
	}
	return m, nil
}

func (m *LabelMask) At(x, y int) uint8 { return m.Data[y*m.Width+x] }

func (m *LabelMask) Set(x, y int, v uint8) { m.Data[y*m.Width+x] = v }

// Row returns row y, sharing storage with the mask.
func (m *LabelMask) Row(y int) []uint8 { return m.Data[y*m.Width : (y+1)*m.Width] }

// Clone returns a deep copy.
func (m *LabelMask) Clone() *LabelMask {
	return &LabelMask{Width: m.Width, Height: m.Height, Data: append([]uint8(nil), m.Data...)}
}

// Max returns the largest class index present.
func (m *LabelMask) Max() uint8 {
	var hi uint8
	for _, v := range m.Data {
		hi = max(hi, v)
	}
	return hi
}

// NumClasses is Max()+1.
func (m *LabelMask) NumClasses() int { return int(m.Max()) + 1 }

// Crop returns the half-open region [x0, x1) x [y0, y1) as a new mask.
func (m *LabelMask) Crop(x0, y0, x1, y1 int) (*LabelMask, error) {
	if x0 < 0 || y0 < 0 || x1 > m.Width || y1 > m.Height || x0 > x1 || y0 > y1 {
		return nil, fmt.Errorf("crop (%d,%d)-(%d,%d) outside %dx%d mask", x0, y0, x1, y1, m.Width, m.Height)
	}
	out := New(x1-x0, y1-y0)
	for y := y0; y < y1; y++ {
		copy(out.Row(y-y0), m.Data[y*m.Width+x0:y*m.Width+x1])
	}
	return out, nil
}

// Remap replaces every value v by table[v]. Values outside the table are an
// error.
func (m *LabelMask) Remap(table map[uint8]uint8) error {
	for i, v := range m.Data {
		nv, ok := table[v]
		if !ok {
			return fmt.Errorf("class %d at (%d,%d) has no mapping", v, i%m.Width, i/m.Width)
		}
		m.Data[i] = nv
	}
	return nil
}
