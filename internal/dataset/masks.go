package dataset

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/banshee-data/oct.dataset/internal/annotation"
	"github.com/banshee-data/oct.dataset/internal/imaging"
	"github.com/banshee-data/oct.dataset/internal/mask"
	"github.com/banshee-data/oct.dataset/internal/monitoring"
	"github.com/banshee-data/oct.dataset/internal/normalize"
)

// ScanMasks parses every image with a dense mask CSV under dir, in lexical
// order, and calls fn with each result. Skipped files are logged.
func ScanMasks(ctx context.Context, dir string, opts Options, fn func(annotation.Result) error) error {
	opts = opts.withDefaults()
	p, err := annotation.New(annotation.FormatMask, opts.Config, opts.FS)
	if err != nil {
		return err
	}
	return opts.FS.WalkFiles(dir, func(path string) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if hiddenBelow(dir, path) || !annotation.FormatMask.Matches(path) {
			return nil
		}
		results, err := p.Parse(path)
		if errors.Is(err, annotation.ErrSkip) {
			monitoring.Warnf("skipping %v", err)
			return nil
		}
		if err != nil {
			return fmt.Errorf("process %s: %w", path, err)
		}
		for _, r := range results {
			if err := fn(r); err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
		}
		return nil
	})
}

// Trim crops every mask-annotated image under dir to the shared layer
// window and writes the cropped TIFF and CSV pairs to outputDir.
func Trim(ctx context.Context, dir, outputDir string, opts Options) (normalize.Window, error) {
	opts = opts.withDefaults()
	var results []annotation.Result
	err := ScanMasks(ctx, dir, opts, func(r annotation.Result) error {
		results = append(results, r)
		return nil
	})
	if err != nil {
		return normalize.Window{}, err
	}
	if len(results) == 0 {
		return normalize.Window{}, fmt.Errorf("%s: %w", dir, ErrNoImages)
	}

	masks := make([]*mask.LabelMask, len(results))
	for i, r := range results {
		masks[i] = r.Mask
	}
	win, err := normalize.LayerTrimWindow(masks, opts.Config.GetTrimMargin(), opts.Config.GetTrimMultiplicity())
	if err != nil {
		return normalize.Window{}, err
	}
	monitoring.Infof("trim window rows [%d, %d), new height %d", win.Top, win.Bottom, win.Height())

	if err := opts.FS.MkdirAll(outputDir, 0755); err != nil {
		return normalize.Window{}, err
	}
	for _, r := range results {
		if err := writeTrimmed(opts, r, win, outputDir); err != nil {
			return normalize.Window{}, fmt.Errorf("%s: %w", r.Source, err)
		}
	}
	return win, nil
}

func writeTrimmed(opts Options, r annotation.Result, win normalize.Window, outputDir string) error {
	img, err := r.Image.Crop(0, win.Top, r.Image.Width, win.Bottom)
	if err != nil {
		return err
	}
	m, err := r.Mask.Crop(0, win.Top, r.Mask.Width, win.Bottom)
	if err != nil {
		return err
	}
	tiffData, err := imaging.EncodeTIFF(img.Image())
	if err != nil {
		return err
	}
	var csv bytes.Buffer
	if err := mask.WriteCSV(&csv, m); err != nil {
		return err
	}
	base := filepath.Base(r.Source)
	if err := opts.FS.WriteFile(filepath.Join(outputDir, base), tiffData, 0644); err != nil {
		return err
	}
	return opts.FS.WriteFile(filepath.Join(outputDir, filepath.Base(annotation.SiblingCSV(base))), csv.Bytes(), 0644)
}

// ClassFractions averages the per-class pixel fractions of every dense mask
// under dir over numClasses classes. It also returns the number of masks.
func ClassFractions(ctx context.Context, dir string, numClasses int, opts Options) ([]float64, int, error) {
	var per [][]float64
	err := ScanMasks(ctx, dir, opts, func(r annotation.Result) error {
		per = append(per, mask.ClassFractions(r.Mask, numClasses))
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	if len(per) == 0 {
		return nil, 0, fmt.Errorf("%s: %w", dir, ErrNoImages)
	}
	avg, err := mask.AverageFractions(per)
	return avg, len(per), err
}

// OrderReport is the class-order check result for one file.
type OrderReport struct {
	Source string
	Issues []mask.OrderIssue
}

// CheckOrder checks every dense mask under dir for columns whose classes do
// not run 0..expected-1 from top to bottom. Each offending column is logged
// as a warning.
func CheckOrder(ctx context.Context, dir string, expected int, opts Options) ([]OrderReport, error) {
	var reports []OrderReport
	err := ScanMasks(ctx, dir, opts, func(r annotation.Result) error {
		issues := mask.CheckClassOrder(r.Mask, expected)
		for _, is := range issues {
			monitoring.Warnf("%s: %s", r.Source, is)
		}
		if len(issues) > 0 {
			reports = append(reports, OrderReport{Source: r.Source, Issues: issues})
		}
		return nil
	})
	return reports, err
}
