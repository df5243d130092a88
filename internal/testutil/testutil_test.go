package testutil

import (
	"errors"
	"testing"

	"github.com/banshee-data/oct.dataset/internal/fsutil"
	"github.com/banshee-data/oct.dataset/internal/imaging"
)

func TestAssertNoError_NilErr(t *testing.T) {
	fakeT := &testing.T{}
	AssertNoError(fakeT, nil)
	if fakeT.Failed() {
		t.Error("expected no failure for nil error")
	}
}

func TestAssertError_WithErr(t *testing.T) {
	fakeT := &testing.T{}
	AssertError(fakeT, errors.New("something wrong"))
	if fakeT.Failed() {
		t.Error("expected no failure when error is present")
	}
}

func TestFormatCSV(t *testing.T) {
	got := FormatCSV([][]int{{1, 2, 3}, {4}})
	if got != "1,2,3\n4\n" {
		t.Errorf("FormatCSV = %q", got)
	}
}

func TestLayeredRows(t *testing.T) {
	rows := LayeredRows(2, 5, 1, 3)
	want := []int{0, 1, 1, 2, 2}
	for y, row := range rows {
		if len(row) != 2 || row[0] != want[y] || row[1] != want[y] {
			t.Errorf("row %d = %v, want class %d", y, row, want[y])
		}
	}
}

func TestWriteTIFFRoundTrip(t *testing.T) {
	fsys := fsutil.NewMemoryFileSystem()
	WriteTIFF(t, fsys, "/in/a.tiff", Gradient16(4, 3))

	data, err := fsys.ReadFile("/in/a.tiff")
	AssertNoError(t, err)
	img, err := imaging.Decode(data)
	AssertNoError(t, err)
	r, err := imaging.Grayscale(img)
	AssertNoError(t, err)
	if r.Width != 4 || r.Height != 3 || r.At(3, 2, 0) != 5 {
		t.Errorf("decoded %dx%d, pixel (3,2) = %d", r.Width, r.Height, r.At(3, 2, 0))
	}
}

func TestWritePNG(t *testing.T) {
	fsys := fsutil.NewMemoryFileSystem()
	WritePNG(t, fsys, "/a.png", GradientGray(2, 2))
	if !fsys.Exists("/a.png") {
		t.Error("PNG not written")
	}
}
