package archive

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// compress gzips a raw array payload.
func compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(data); err != nil {
		gz.Close()
		return nil, err
	}
	if err := gz.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decompress(blob []byte) ([]byte, error) {
	if len(blob) == 0 {
		return nil, fmt.Errorf("empty blob")
	}
	gz, err := gzip.NewReader(bytes.NewReader(blob))
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gz.Close()
	return io.ReadAll(gz)
}

// encodeSegs flattens boundary rows into little-endian int32 values.
func encodeSegs(segs [][]int) (data []byte, rows, cols int, err error) {
	rows = len(segs)
	if rows > 0 {
		cols = len(segs[0])
	}
	data = make([]byte, 0, rows*cols*4)
	for i, row := range segs {
		if len(row) != cols {
			return nil, 0, 0, fmt.Errorf("seg row %d has %d columns, want %d", i, len(row), cols)
		}
		for _, v := range row {
			if v < math.MinInt32 || v > math.MaxInt32 {
				return nil, 0, 0, fmt.Errorf("seg value %d overflows int32", v)
			}
			data = binary.LittleEndian.AppendUint32(data, uint32(int32(v)))
		}
	}
	return data, rows, cols, nil
}

func decodeSegs(data []byte, rows, cols int) ([][]int, error) {
	if len(data) != rows*cols*4 {
		return nil, fmt.Errorf("seg blob has %d bytes, want %d", len(data), rows*cols*4)
	}
	segs := make([][]int, rows)
	for r := range segs {
		segs[r] = make([]int, cols)
		for c := range segs[r] {
			off := (r*cols + c) * 4
			segs[r][c] = int(int32(binary.LittleEndian.Uint32(data[off:])))
		}
	}
	return segs, nil
}
