// Package testutil provides shared test utilities and fixtures.
//
// The fixture writers build small synthetic scans and annotation files in
// any fsutil.FileSystem, so parser and assembler tests can run against an
// in-memory tree.
package testutil

import (
	"image"
	"image/color"
	"strconv"
	"strings"
	"testing"

	"github.com/banshee-data/oct.dataset/internal/fsutil"
	"github.com/banshee-data/oct.dataset/internal/imaging"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// GradientGray returns a w x h 8-bit image whose pixel (x, y) is (x+y) mod 256.
func GradientGray(w, h int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8((x + y) % 256)})
		}
	}
	return img
}

// Gradient16 returns a 16-bit gray image, the raw format of the scanner
// exports.
func Gradient16(w, h int) *image.Gray16 {
	img := image.NewGray16(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray16(x, y, color.Gray16{Y: uint16((x + y) % 256 << 8)})
		}
	}
	return img
}

// WriteTIFF encodes img as TIFF into fsys at path.
func WriteTIFF(t *testing.T, fsys fsutil.FileSystem, path string, img image.Image) {
	t.Helper()
	data, err := imaging.EncodeTIFF(img)
	AssertNoError(t, err)
	AssertNoError(t, fsys.WriteFile(path, data, 0644))
}

// WritePNG encodes img as PNG into fsys at path.
func WritePNG(t *testing.T, fsys fsutil.FileSystem, path string, img image.Image) {
	t.Helper()
	data, err := imaging.EncodePNG(img)
	AssertNoError(t, err)
	AssertNoError(t, fsys.WriteFile(path, data, 0644))
}

// FormatCSV renders rows as comma separated lines.
func FormatCSV(rows [][]int) string {
	var b strings.Builder
	for _, row := range rows {
		for i, v := range row {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(strconv.Itoa(v))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// WriteCSV writes rows as CSV into fsys at path.
func WriteCSV(t *testing.T, fsys fsutil.FileSystem, path string, rows [][]int) {
	t.Helper()
	AssertNoError(t, fsys.WriteFile(path, []byte(FormatCSV(rows)), 0644))
}

// Constant returns n copies of v.
func Constant(n, v int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// LayeredRows returns a dense w x h class matrix where class k starts at row
// starts[k-1] in every column.
func LayeredRows(w, h int, starts ...int) [][]int {
	rows := make([][]int, h)
	for y := range rows {
		v := 0
		for k, s := range starts {
			if y >= s {
				v = k + 1
			}
		}
		rows[y] = Constant(w, v)
	}
	return rows
}
