package mask

import "fmt"

// Boundaries derives one curve per class transition. Row k-1 holds, for
// every column, the first row whose value is k, or 0 when class k does not
// occur in that column.
func Boundaries(m *LabelMask) [][]int {
	return BoundariesN(m, m.NumClasses())
}

// BoundariesN is Boundaries with a fixed class count, so crops that remove a
// class still yield numClasses-1 rows.
func BoundariesN(m *LabelMask, numClasses int) [][]int {
	if numClasses < 1 {
		return nil
	}
	segs := make([][]int, numClasses-1)
	for k := range segs {
		segs[k] = make([]int, m.Width)
	}
	for x := 0; x < m.Width; x++ {
		seen := make([]bool, numClasses)
		for y := 0; y < m.Height; y++ {
			v := int(m.At(x, y))
			if v == 0 || v >= numClasses || seen[v] {
				continue
			}
			seen[v] = true
			segs[v-1][x] = y
		}
	}
	return segs
}

// OrderIssue describes a column whose classes do not appear as 0..n-1 from
// top to bottom.
type OrderIssue struct {
	Column int
	Found  []uint8
}

func (o OrderIssue) String() string {
	return fmt.Sprintf("column %d: classes in order %v", o.Column, o.Found)
}

// CheckClassOrder scans every column top-down and reports those whose
// first-occurrence sequence is not exactly 0, 1, ..., expected-1.
func CheckClassOrder(m *LabelMask, expected int) []OrderIssue {
	var issues []OrderIssue
	for x := 0; x < m.Width; x++ {
		var order []uint8
		seen := map[uint8]bool{}
		for y := 0; y < m.Height; y++ {
			v := m.At(x, y)
			if !seen[v] {
				seen[v] = true
				order = append(order, v)
			}
		}
		ok := len(order) == expected
		for i := 0; ok && i < len(order); i++ {
			ok = int(order[i]) == i
		}
		if !ok {
			issues = append(issues, OrderIssue{Column: x, Found: order})
		}
	}
	return issues
}
