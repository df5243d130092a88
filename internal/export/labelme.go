package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/banshee-data/oct.dataset/internal/annotation"
	"github.com/banshee-data/oct.dataset/internal/archive"
	"github.com/banshee-data/oct.dataset/internal/config"
	"github.com/banshee-data/oct.dataset/internal/fsutil"
	"github.com/banshee-data/oct.dataset/internal/imaging"
	"github.com/banshee-data/oct.dataset/internal/monitoring"
)

// ErrWidthMismatch is returned when boundary rows do not cover the image.
// It wraps annotation.ErrSkip.
var ErrWidthMismatch = fmt.Errorf("image and boundary widths differ: %w", annotation.ErrSkip)

// LabelmeFromBoundaries turns boundary rows into an editable layer
// annotation: one linestrip per boundary, sampled every spacing columns plus
// the right-most column when the width is not a multiple of spacing. Layer
// names come from the configured set matching the boundary count.
func LabelmeFromBoundaries(img *imaging.Raster, imagePath string, segs [][]int, spacing int, cfg *config.Config) (*annotation.Document, error) {
	if cfg == nil {
		cfg = config.Empty()
	}
	if spacing <= 0 {
		return nil, fmt.Errorf("spacing must be positive, got %d", spacing)
	}
	for i, row := range segs {
		if len(row) != img.Width {
			return nil, fmt.Errorf("boundary %d has %d columns for image width %d: %w", i, len(row), img.Width, ErrWidthMismatch)
		}
	}
	names, err := cfg.LayerSetForBoundaries(len(segs))
	if err != nil {
		return nil, err
	}
	data, err := imaging.EncodePNGBase64(img.Image())
	if err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}

	doc := &annotation.Document{
		Version:     annotation.DocumentVersion,
		Flags:       map[string]any{},
		ImagePath:   imagePath,
		ImageData:   data,
		ImageHeight: img.Height,
		ImageWidth:  img.Width,
	}
	for k, row := range segs {
		shape := annotation.ShapeRecord{
			Label:     names[k],
			ShapeType: "linestrip",
			Flags:     map[string]any{},
		}
		for x := 0; x < len(row); x += spacing {
			shape.Points = append(shape.Points, [2]float64{float64(x), float64(row[x])})
		}
		if img.Width%spacing != 0 {
			last := img.Width - 1
			shape.Points = append(shape.Points, [2]float64{float64(last), float64(row[last])})
		}
		doc.Shapes = append(doc.Shapes, shape)
	}
	return doc, nil
}

// sampleName returns the output stem for a sample: the source stem, with the
// side appended when there is one.
func sampleName(src archive.Source) string {
	stem := strings.TrimSuffix(filepath.Base(src.Path), filepath.Ext(src.Path))
	if src.Side != "" {
		stem += "_" + src.Side
	}
	return stem
}

// ExportLabelme writes one layer-annotation file per sample of the archive
// group to outputDir and returns how many were written. Samples whose
// boundaries do not match the image width are skipped with a warning.
func ExportLabelme(arc *archive.Archive, prefix, outputDir string, fsys fsutil.FileSystem, cfg *config.Config) (int, error) {
	if fsys == nil {
		fsys = fsutil.OSFileSystem{}
	}
	if cfg == nil {
		cfg = config.Empty()
	}
	g, err := arc.ReadGroup(prefix)
	if err != nil {
		return 0, err
	}
	if err := fsys.MkdirAll(outputDir, 0755); err != nil {
		return 0, err
	}

	written := 0
	for i := range g.Len() {
		name := sampleName(g.Sources[i])
		doc, err := LabelmeFromBoundaries(g.Images[i], name+".png", g.Segs[i], cfg.GetExportSpacing(), cfg)
		if errors.Is(err, annotation.ErrSkip) {
			monitoring.Warnf("%s: %v. Skipping...", g.Sources[i], err)
			continue
		}
		if err != nil {
			return written, fmt.Errorf("%s: %w", g.Sources[i], err)
		}
		body, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return written, err
		}
		if err := fsys.WriteFile(filepath.Join(outputDir, name+".json"), body, 0644); err != nil {
			return written, err
		}
		written++
	}
	monitoring.Infof("wrote %d layer annotations to %s", written, outputDir)
	return written, nil
}
