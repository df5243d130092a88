package dataset

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/banshee-data/oct.dataset/internal/annotation"
	"github.com/banshee-data/oct.dataset/internal/archive"
	"github.com/banshee-data/oct.dataset/internal/monitoring"
)

// Build walks dir and returns the finalized dataset for format.
func Build(ctx context.Context, dir string, format annotation.Format, opts Options) (*Dataset, error) {
	a, err := NewAssembler(format, opts)
	if err != nil {
		return nil, err
	}
	b, err := a.Collect(ctx, dir)
	if err != nil {
		return nil, err
	}
	ds, err := b.Finalize()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", dir, err)
	}
	return ds, nil
}

type prefixed struct {
	prefix string
	ds     *Dataset
}

// writeArchive stores every dataset under its prefix. On failure the
// partially written file is removed.
func writeArchive(ctx context.Context, outputPath string, format annotation.Format, sets []prefixed) (_ *archive.Archive, err error) {
	a, err := archive.Create(outputPath)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			a.Close()
			if rmErr := os.Remove(outputPath); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
				monitoring.Errorf("failed to remove partial archive %s: %v", outputPath, rmErr)
			}
		}
	}()

	if err = a.SetMeta(archive.MetaFormat, format.String()); err != nil {
		return nil, err
	}
	for _, set := range sets {
		if err = a.WriteGroup(ctx, set.ds.Group(set.prefix)); err != nil {
			return nil, err
		}
		monitoring.Infof("wrote %d samples to %v in %s", set.ds.Len(), archive.GroupNames(set.prefix), outputPath)
	}
	return a, nil
}

// GenerateDataset builds the dataset found under inputDir and writes it to
// outputPath without a group prefix. The returned archive is open; the
// caller closes it.
func GenerateDataset(ctx context.Context, inputDir, outputPath string, format annotation.Format, opts Options) (*archive.Archive, error) {
	ds, err := Build(ctx, inputDir, format, opts)
	if err != nil {
		return nil, err
	}
	return writeArchive(ctx, outputPath, format, []prefixed{{archive.PrefixNone, ds}})
}

// GenerateTestDataset is GenerateDataset with the test_ prefix.
func GenerateTestDataset(ctx context.Context, inputDir, outputPath string, format annotation.Format, opts Options) (*archive.Archive, error) {
	ds, err := Build(ctx, inputDir, format, opts)
	if err != nil {
		return nil, err
	}
	return writeArchive(ctx, outputPath, format, []prefixed{{archive.PrefixTest, ds}})
}

// GenerateTrainingDataset builds the training and validation datasets, each
// normalised on its own, and writes them under the train_ and val_ prefixes.
// Nothing is written unless both build.
func GenerateTrainingDataset(ctx context.Context, trainDir, valDir, outputPath string, format annotation.Format, opts Options) (*archive.Archive, error) {
	train, err := Build(ctx, trainDir, format, opts)
	if err != nil {
		return nil, fmt.Errorf("training set: %w", err)
	}
	val, err := Build(ctx, valDir, format, opts)
	if err != nil {
		return nil, fmt.Errorf("validation set: %w", err)
	}
	return writeArchive(ctx, outputPath, format, []prefixed{
		{archive.PrefixTrain, train},
		{archive.PrefixValidation, val},
	})
}
