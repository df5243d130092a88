package export

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"seehuhn.de/go/geom/vec"

	"github.com/banshee-data/oct.dataset/internal/annotation"
	"github.com/banshee-data/oct.dataset/internal/archive"
	"github.com/banshee-data/oct.dataset/internal/boundary"
	"github.com/banshee-data/oct.dataset/internal/config"
	"github.com/banshee-data/oct.dataset/internal/dataset"
	"github.com/banshee-data/oct.dataset/internal/fsutil"
	"github.com/banshee-data/oct.dataset/internal/imaging"
	"github.com/banshee-data/oct.dataset/internal/mask"
	"github.com/banshee-data/oct.dataset/internal/testutil"
)

func layered(w, h int, starts ...int) (*mask.LabelMask, [][]int) {
	m := mask.New(w, h)
	for y, row := range testutil.LayeredRows(w, h, starts...) {
		for x, v := range row {
			m.Set(x, y, uint8(v))
		}
	}
	return m, mask.Boundaries(m)
}

func grayRaster(t *testing.T, w, h int) *imaging.Raster {
	t.Helper()
	r, err := imaging.Grayscale(testutil.GradientGray(w, h))
	require.NoError(t, err)
	return r
}

func TestLabelmeFromBoundaries(t *testing.T) {
	img := grayRaster(t, 50, 32)
	_, segs := layered(50, 32, 5, 10, 15)
	segs[1][49] = 11

	doc, err := LabelmeFromBoundaries(img, "a.png", segs, 20, nil)
	require.NoError(t, err)
	assert.Equal(t, annotation.DocumentVersion, doc.Version)
	assert.Equal(t, 50, doc.ImageWidth)
	assert.Equal(t, 32, doc.ImageHeight)
	require.Len(t, doc.Shapes, 3)
	assert.Equal(t, "ILM", doc.Shapes[0].Label)
	assert.Equal(t, "linestrip", doc.Shapes[0].ShapeType)
	assert.Equal(t, [][2]float64{{0, 10}, {20, 10}, {40, 10}, {49, 11}}, doc.Shapes[1].Points)

	back, err := imaging.DecodeBase64(doc.ImageData)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 50, 32), back.Bounds())
}

func TestLabelmeFromBoundariesExactMultiple(t *testing.T) {
	img := grayRaster(t, 40, 16)
	_, segs := layered(40, 16, 2, 4, 6, 8, 10, 12)
	doc, err := LabelmeFromBoundaries(img, "a.png", segs, 20, nil)
	require.NoError(t, err)
	require.Len(t, doc.Shapes, 6)
	assert.Equal(t, "RPE", doc.Shapes[5].Label)
	assert.Equal(t, [][2]float64{{0, 2}, {20, 2}}, doc.Shapes[0].Points)
}

func TestLabelmeFromBoundariesRejects(t *testing.T) {
	img := grayRaster(t, 40, 16)
	_, segs := layered(32, 16, 4, 8, 12)
	_, err := LabelmeFromBoundaries(img, "a.png", segs, 20, nil)
	assert.ErrorIs(t, err, ErrWidthMismatch)
	assert.ErrorIs(t, err, annotation.ErrSkip)

	_, segs = layered(40, 16, 4, 8)
	_, err = LabelmeFromBoundaries(img, "a.png", segs, 20, nil)
	require.Error(t, err)
	assert.NotErrorIs(t, err, annotation.ErrSkip)

	_, err = LabelmeFromBoundaries(img, "a.png", segs, 0, nil)
	assert.Error(t, err)
}

func TestExportLabelme(t *testing.T) {
	arc, err := archive.Create(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer arc.Close()

	m, segs := layered(48, 32, 6, 12, 18)
	g := &archive.Group{
		Prefix:  archive.PrefixTest,
		Width:   48,
		Height:  32,
		Images:  []*imaging.Raster{grayRaster(t, 48, 32), grayRaster(t, 48, 32)},
		Labels:  []*mask.LabelMask{m, m},
		Segs:    [][][]int{segs, segs},
		Sources: []archive.Source{{Path: "/in/a.tiff", Side: "left"}, {Path: "/in/b.tiff"}},
	}
	require.NoError(t, arc.WriteGroup(context.Background(), g))

	fsys := fsutil.NewMemoryFileSystem()
	n, err := ExportLabelme(arc, archive.PrefixTest, "/out", fsys, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	data, err := fsys.ReadFile("/out/a_left.json")
	require.NoError(t, err)
	doc, err := annotation.ReadDocument("/out/a_left.json", data)
	require.NoError(t, err)
	assert.Equal(t, "a_left.png", doc.ImagePath)
	assert.Len(t, doc.Shapes, 3)
	assert.True(t, fsys.Exists("/out/b.json"))

	_, err = ExportLabelme(arc, archive.PrefixTrain, "/out", fsys, nil)
	assert.ErrorIs(t, err, archive.ErrNoGroup)
}

func TestDebugWriter(t *testing.T) {
	fsys := fsutil.NewMemoryFileSystem()
	d, err := NewDebugWriter(fsys, "/debug")
	require.NoError(t, err)

	m, segs := layered(16, 16, 4, 9)
	s := dataset.Sample{Image: grayRaster(t, 16, 16), Mask: m, Segs: segs, Source: "/in/scan.json", Side: ""}
	res := annotation.Result{
		Image: s.Image,
		Curves: []boundary.Curve{
			{Label: "ILM", Points: []vec.Vec2{{X: 0, Y: 4}, {X: 15, Y: 4}}},
			{Label: "RPE", Points: []vec.Vec2{{X: 0, Y: 9}, {X: 15, Y: 9}}},
		},
	}
	require.NoError(t, d.WriteSample(s, res))

	for _, suffix := range []string{"_label.png", "_matrix.txt", "_segs.csv", "_overlay.png", "_cropped.json"} {
		assert.True(t, fsys.Exists("/debug/scan"+suffix), suffix)
	}

	matrix, err := fsys.ReadFile("/debug/scan_matrix.txt")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(matrix)), "\n")
	require.Len(t, lines, 16)
	assert.Equal(t, strings.Repeat("0,", 15)+"0", lines[0])
	assert.Equal(t, strings.Repeat("2,", 15)+"2", lines[15])

	seg, err := fsys.ReadFile("/debug/scan_segs.csv")
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("4,", 15)+"4\n"+strings.Repeat("9,", 15)+"9\n", string(seg))

	label, err := fsys.ReadFile("/debug/scan_label.png")
	require.NoError(t, err)
	img, err := imaging.Decode(label)
	require.NoError(t, err)
	p, ok := img.(*image.Paletted)
	require.True(t, ok, "label image is %T", img)
	assert.Equal(t, uint8(2), p.ColorIndexAt(0, 15))

	var doc annotation.Document
	body, err := fsys.ReadFile("/debug/scan_cropped.json")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(body, &doc))
	assert.Equal(t, [][2]float64{{0, 9}, {15, 9}}, doc.Shapes[1].Points)
}

func TestDebugWriterDenseMaskSkipsCropped(t *testing.T) {
	fsys := fsutil.NewMemoryFileSystem()
	d, err := NewDebugWriter(fsys, "/debug")
	require.NoError(t, err)

	m, segs := layered(16, 16, 8)
	s := dataset.Sample{Image: grayRaster(t, 16, 16), Mask: m, Segs: segs, Source: "/in/v.tiff", Side: "right"}
	require.NoError(t, d.WriteSample(s, annotation.Result{Image: s.Image, Mask: m}))
	assert.True(t, fsys.Exists("/debug/v_right_label.png"))
	assert.False(t, fsys.Exists("/debug/v_right_cropped.json"))
}

func TestLabelPalette(t *testing.T) {
	p := LabelPalette(7)
	assert.Len(t, p, 256)
	assert.Equal(t, color.RGBA{A: 255}, p[0])
	assert.NotEqual(t, p[1], p[2])
	assert.Equal(t, p[1], p[7])
}

func TestMergeSides(t *testing.T) {
	raw := testutil.Gradient16(1000, 8)
	left := image.NewRGBA(image.Rect(0, 0, 192, 8))
	right := image.NewRGBA(image.Rect(0, 0, 192, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 192; x++ {
			left.Set(x, y, color.RGBA{R: 255, A: 255})
			right.Set(x, y, color.RGBA{B: 255, A: 255})
		}
	}

	out, err := MergeSides(raw, left, right, nil)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 1000, 8), out.Bounds())
	assert.Equal(t, color.RGBA{R: 10, G: 10, B: 10, A: 255}, out.RGBAAt(10, 0))
	assert.Equal(t, color.RGBA{R: 255, A: 255}, out.RGBAAt(53, 3))
	assert.Equal(t, color.RGBA{R: 255, A: 255}, out.RGBAAt(244, 3))
	assert.Equal(t, color.RGBA{R: 245, G: 245, B: 245, A: 255}, out.RGBAAt(245, 0))
	assert.Equal(t, color.RGBA{B: 255, A: 255}, out.RGBAAt(753, 0))

	wide := image.NewRGBA(image.Rect(0, 0, 300, 8))
	_, err = MergeSides(raw, left, wide, nil)
	assert.ErrorContains(t, err, "right image")
}

func TestFractionsReport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, FractionsReport(&buf, "Retina layers", []string{"background", "ILM"}, []float64{0.25, 0.5, 0.25}, 4))
	html := buf.String()
	assert.Contains(t, html, "Retina layers")
	assert.Contains(t, html, "ILM")
	assert.Contains(t, html, "class 2")
}

func TestOverlayPNG(t *testing.T) {
	_, segs := layered(24, 16, 4, 10)
	data, err := OverlayPNG(grayRaster(t, 24, 16), segs, "scan")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")))
}

func TestFormatIntCSV(t *testing.T) {
	assert.Equal(t, "1,-2\n3,4\n", string(FormatIntCSV([][]int{{1, -2}, {3, 4}})))
	assert.Empty(t, FormatIntCSV(nil))
}

func TestLabelmeExportUsesConfiguredSpacing(t *testing.T) {
	cfg := config.Empty()
	cfg.ExportSpacing = intPtr(10)
	img := grayRaster(t, 30, 16)
	_, segs := layered(30, 16, 4, 8, 12)
	doc, err := LabelmeFromBoundaries(img, "a.png", segs, cfg.GetExportSpacing(), cfg)
	require.NoError(t, err)
	assert.Len(t, doc.Shapes[0].Points, 3)
}

func intPtr(v int) *int { return &v }
