package dataset

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/oct.dataset/internal/annotation"
	"github.com/banshee-data/oct.dataset/internal/config"
	"github.com/banshee-data/oct.dataset/internal/fsutil"
	"github.com/banshee-data/oct.dataset/internal/imaging"
	"github.com/banshee-data/oct.dataset/internal/testutil"
)

func TestTrim(t *testing.T) {
	fsys := fsutil.NewMemoryFileSystem()
	writeMask(t, fsys, "/in/a", 32, 64, 20, 30)
	writeMask(t, fsys, "/in/sub/b", 32, 64, 22, 34)

	cfg := config.Empty()
	cfg.TrimMultiplicity = intPtr(8)
	win, err := Trim(context.Background(), "/in", "/out", Options{Config: cfg, FS: fsys})
	require.NoError(t, err)
	// Rows 10..44 grown by 6 to a multiple of 8.
	assert.Equal(t, 7, win.Top)
	assert.Equal(t, 47, win.Bottom)

	data, err := fsys.ReadFile("/out/b.tiff")
	require.NoError(t, err)
	img, err := imaging.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, 32, img.Bounds().Dx())
	assert.Equal(t, 40, img.Bounds().Dy())

	cfg.Multiplicity = intPtr(8)
	p, err := annotation.New(annotation.FormatMask, cfg, fsys)
	require.NoError(t, err)
	results, err := p.Parse("/out/a.tiff")
	require.NoError(t, err)
	m := results[0].Mask
	assert.Equal(t, 40, m.Height)
	assert.Equal(t, uint8(0), m.At(0, 12))
	assert.Equal(t, uint8(1), m.At(0, 13))
	assert.Equal(t, uint8(2), m.At(0, 23))
	// Image rows shift with the mask: source pixel (0, 7) has value 7.
	assert.Equal(t, uint8(7), results[0].Image.At(0, 0, 0))
}

func TestTrimNothingToTrim(t *testing.T) {
	fsys := fsutil.NewMemoryFileSystem()
	require.NoError(t, fsys.MkdirAll("/in", 0755))
	_, err := Trim(context.Background(), "/in", "/out", Options{FS: fsys})
	assert.ErrorIs(t, err, ErrNoImages)
}

func TestClassFractions(t *testing.T) {
	fsys := fsutil.NewMemoryFileSystem()
	writeMask(t, fsys, "/in/a", 16, 16, 4)
	writeMask(t, fsys, "/in/b", 16, 16, 12)

	avg, n, err := ClassFractions(context.Background(), "/in", 3, Options{FS: fsys})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.InDeltaSlice(t, []float64{0.5, 0.5, 0}, avg, 1e-12)
}

func TestCheckOrder(t *testing.T) {
	fsys := fsutil.NewMemoryFileSystem()
	writeMask(t, fsys, "/in/good", 16, 16, 4, 8)

	rows := testutil.LayeredRows(16, 16, 4, 8)
	rows[2][5], rows[6][5] = 2, 0
	testutil.WriteTIFF(t, fsys, "/in/bad.tiff", testutil.GradientGray(16, 16))
	testutil.WriteCSV(t, fsys, "/in/bad.csv", rows)

	reports, err := CheckOrder(context.Background(), "/in", 3, Options{FS: fsys})
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, "/in/bad.tiff", reports[0].Source)
	require.Len(t, reports[0].Issues, 1)
	assert.Equal(t, 5, reports[0].Issues[0].Column)
	assert.Equal(t, []uint8{0, 2, 1}, reports[0].Issues[0].Found)
}
