package dataset

import (
	"fmt"
	"math"
	"math/rand/v2"
	"path/filepath"

	"github.com/banshee-data/oct.dataset/internal/annotation"
	"github.com/banshee-data/oct.dataset/internal/config"
	"github.com/banshee-data/oct.dataset/internal/fsutil"
	"github.com/banshee-data/oct.dataset/internal/monitoring"
)

// Partition output directories.
const (
	TrainingDir   = "training"
	ValidationDir = "validation"
	TestDir       = "test"
)

// Split lists the source files copied into each partition.
type Split struct {
	Training   []string
	Validation []string
	Test       []string
}

// Partition randomly distributes the annotation files of format found under
// inputDir into the training, validation and test directories of outputDir,
// which are emptied first. Image formats bring their sibling CSV along. The
// test and validation counts are the configured fractions of the total,
// rounded; the rest go to training. The same seed gives the same split.
func Partition(fsys fsutil.FileSystem, inputDir, outputDir string, format annotation.Format, cfg *config.Config, seed uint64) (*Split, error) {
	if fsys == nil {
		fsys = fsutil.OSFileSystem{}
	}
	if cfg == nil {
		cfg = config.Empty()
	}
	testFrac, trainFrac, valFrac := cfg.GetPartitions()
	if sum := testFrac + trainFrac + valFrac; math.Abs(sum-1) > 1e-9 {
		return nil, fmt.Errorf("partitions sum is %g, they should add up to 1", sum)
	}
	if !fsys.Exists(inputDir) {
		return nil, fmt.Errorf("input directory %s doesn't exist", inputDir)
	}
	if !fsys.Exists(outputDir) {
		return nil, fmt.Errorf("output directory %s doesn't exist", outputDir)
	}

	var paths []string
	err := fsys.WalkFiles(inputDir, func(path string) error {
		if !hiddenBelow(inputDir, path) && format.Matches(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	monitoring.Infof("found %d %s files in %s", len(paths), format, inputDir)

	for _, dir := range []string{TrainingDir, ValidationDir, TestDir} {
		full := filepath.Join(outputDir, dir)
		if err := fsys.RemoveAll(full); err != nil {
			return nil, fmt.Errorf("clean %s: %w", full, err)
		}
		if err := fsys.MkdirAll(full, 0755); err != nil {
			return nil, fmt.Errorf("create %s: %w", full, err)
		}
	}

	n := len(paths)
	nTest := int(math.Round(testFrac * float64(n)))
	nVal := int(math.Round(valFrac * float64(n)))
	if nTest+nVal > n {
		nVal = n - nTest
	}
	perm := rand.New(rand.NewPCG(seed, seed)).Perm(n)

	split := &Split{}
	for i, p := range perm {
		src := paths[p]
		var dir string
		switch {
		case i < nTest:
			dir = TestDir
			split.Test = append(split.Test, src)
		case i < nTest+nVal:
			dir = ValidationDir
			split.Validation = append(split.Validation, src)
		default:
			dir = TrainingDir
			split.Training = append(split.Training, src)
		}
		if err := copyAnnotated(fsys, src, filepath.Join(outputDir, dir), format); err != nil {
			return nil, err
		}
	}
	monitoring.Infof("training images: %d, validation images: %d, test images: %d",
		len(split.Training), len(split.Validation), len(split.Test))
	return split, nil
}

// copyAnnotated copies src, and its sibling CSV for image formats, into dir.
func copyAnnotated(fsys fsutil.FileSystem, src, dir string, format annotation.Format) error {
	files := []string{src}
	if format != annotation.FormatLabelme {
		files = append(files, annotation.SiblingCSV(src))
	}
	for _, f := range files {
		dst := filepath.Join(dir, filepath.Base(f))
		if fsys.Exists(dst) {
			return fmt.Errorf("copy %s: %s already exists", f, dst)
		}
		if err := fsutil.CopyFile(fsys, f, dst); err != nil {
			return fmt.Errorf("copy %s: %w", f, err)
		}
	}
	return nil
}
