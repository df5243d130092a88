package mask

import (
	"bufio"
	"io"
	"strconv"
)

// WriteCSV writes the mask as one comma separated line of classes per row.
func WriteCSV(w io.Writer, m *LabelMask) error {
	bw := bufio.NewWriter(w)
	buf := make([]byte, 0, m.Width*4)
	for y := 0; y < m.Height; y++ {
		buf = buf[:0]
		for x, v := range m.Row(y) {
			if x > 0 {
				buf = append(buf, ',')
			}
			buf = strconv.AppendUint(buf, uint64(v), 10)
		}
		buf = append(buf, '\n')
		if _, err := bw.Write(buf); err != nil {
			return err
		}
	}
	return bw.Flush()
}
