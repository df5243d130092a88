package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/banshee-data/oct.dataset/internal/annotation"
	"github.com/banshee-data/oct.dataset/internal/archive"
	"github.com/banshee-data/oct.dataset/internal/dataset"
	"github.com/banshee-data/oct.dataset/internal/fsutil"
	"github.com/banshee-data/oct.dataset/internal/imaging"
	"github.com/banshee-data/oct.dataset/internal/mask"
)

// DebugWriter writes per-sample artifacts next to each other in one
// directory:
//
//	<stem>[_side]_label.png    class mask with the label palette
//	<stem>[_side]_matrix.txt   class mask as comma separated rows
//	<stem>[_side]_segs.csv     boundary rows
//	<stem>[_side]_overlay.png  boundaries plotted over the image
//	<stem>[_side]_cropped.json cropped layer annotation (curve formats only)
//
// It implements dataset.DebugSink.
type DebugWriter struct {
	fsys fsutil.FileSystem
	dir  string
}

var _ dataset.DebugSink = (*DebugWriter)(nil)

// NewDebugWriter creates dir and returns a writer into it.
func NewDebugWriter(fsys fsutil.FileSystem, dir string) (*DebugWriter, error) {
	if fsys == nil {
		fsys = fsutil.OSFileSystem{}
	}
	if err := fsys.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create debug directory: %w", err)
	}
	return &DebugWriter{fsys: fsys, dir: dir}, nil
}

func (d *DebugWriter) write(name string, data []byte) error {
	return d.fsys.WriteFile(filepath.Join(d.dir, name), data, 0644)
}

// WriteSample writes the artifacts for s.
func (d *DebugWriter) WriteSample(s dataset.Sample, res annotation.Result) error {
	stem := sampleName(archive.Source{Path: s.Source, Side: s.Side})

	label, err := imaging.EncodePNG(LabelImage(s.Mask))
	if err != nil {
		return fmt.Errorf("encode label image: %w", err)
	}
	if err := d.write(stem+"_label.png", label); err != nil {
		return err
	}

	var matrix bytes.Buffer
	if err := mask.WriteCSV(&matrix, s.Mask); err != nil {
		return err
	}
	if err := d.write(stem+"_matrix.txt", matrix.Bytes()); err != nil {
		return err
	}

	if err := d.write(stem+"_segs.csv", FormatIntCSV(s.Segs)); err != nil {
		return err
	}

	overlay, err := OverlayPNG(s.Image, s.Segs, stem)
	if err != nil {
		return fmt.Errorf("plot overlay: %w", err)
	}
	if err := d.write(stem+"_overlay.png", overlay); err != nil {
		return err
	}

	if len(res.Curves) == 0 {
		return nil
	}
	doc, err := croppedDocument(res, stem)
	if err != nil {
		return err
	}
	body, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return d.write(stem+"_cropped.json", body)
}

// croppedDocument records the parser's view of a sample: the normalised
// image and the curves as they were fed to the polygon builder.
func croppedDocument(res annotation.Result, stem string) (*annotation.Document, error) {
	data, err := imaging.EncodePNGBase64(res.Image.Image())
	if err != nil {
		return nil, fmt.Errorf("encode cropped image: %w", err)
	}
	doc := &annotation.Document{
		Version:     annotation.DocumentVersion,
		Flags:       map[string]any{},
		ImagePath:   stem + ".png",
		ImageData:   data,
		ImageHeight: res.Image.Height,
		ImageWidth:  res.Image.Width,
	}
	for _, c := range res.Curves {
		shape := annotation.ShapeRecord{Label: c.Label, ShapeType: "linestrip", Flags: map[string]any{}}
		for _, p := range c.Points {
			shape.Points = append(shape.Points, [2]float64{p.X, p.Y})
		}
		doc.Shapes = append(doc.Shapes, shape)
	}
	return doc, nil
}

// FormatIntCSV renders rows as comma separated lines.
func FormatIntCSV(rows [][]int) []byte {
	var buf []byte
	for _, row := range rows {
		for i, v := range row {
			if i > 0 {
				buf = append(buf, ',')
			}
			buf = strconv.AppendInt(buf, int64(v), 10)
		}
		buf = append(buf, '\n')
	}
	return buf
}
