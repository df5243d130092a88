package dataset

import (
	"errors"
	"fmt"

	"github.com/banshee-data/oct.dataset/internal/config"
	"github.com/banshee-data/oct.dataset/internal/monitoring"
	"github.com/banshee-data/oct.dataset/internal/normalize"
)

var (
	// ErrRejected is returned by Builder.Add for samples that cannot join
	// the dataset. The caller logs it and carries on.
	ErrRejected = errors.New("sample rejected")

	// ErrNoImages is returned by Builder.Finalize when nothing was added.
	ErrNoImages = errors.New("No images were processed successfully")

	errFinalized = errors.New("builder already finalized")
)

// Builder accumulates samples during a walk and produces the dataset once
// the walk is over.
type Builder struct {
	multiplicity int
	samples      []Sample
	finalized    bool
}

// NewBuilder returns an empty builder using the granularity from cfg.
func NewBuilder(cfg *config.Config) *Builder {
	if cfg == nil {
		cfg = config.Empty()
	}
	return &Builder{multiplicity: cfg.GetMultiplicity()}
}

// Len returns the number of accepted samples.
func (b *Builder) Len() int { return len(b.samples) }

func rejectf(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrRejected)
}

// Add appends s after checking that its image and mask agree in size, that
// the size is a multiple of the granularity and that it carries one
// boundary row per class transition.
func (b *Builder) Add(s Sample) error {
	if b.finalized {
		return errFinalized
	}
	if s.Image == nil || s.Mask == nil {
		return rejectf("%s: missing image or mask", s.Source)
	}
	if s.Image.Width != s.Mask.Width || s.Image.Height != s.Mask.Height {
		return rejectf("%s: image %dx%d and mask %dx%d differ",
			s.Source, s.Image.Width, s.Image.Height, s.Mask.Width, s.Mask.Height)
	}
	if !normalize.Divisible(s.Mask.Width, s.Mask.Height, b.multiplicity) {
		return rejectf("%s: %dx%d is not a multiple of %d",
			s.Source, s.Mask.Width, s.Mask.Height, b.multiplicity)
	}
	if want := s.Mask.NumClasses() - 1; len(s.Segs) != want {
		return rejectf("%s: %d boundary rows for %d classes", s.Source, len(s.Segs), want+1)
	}
	for i, row := range s.Segs {
		if len(row) != s.Mask.Width {
			return rejectf("%s: boundary row %d has %d columns, want %d", s.Source, i, len(row), s.Mask.Width)
		}
	}
	b.samples = append(b.samples, s)
	return nil
}

// Finalize crops every sample to the smallest size seen, re-derives the
// boundary rows of cropped samples and returns the dataset. The builder
// accepts no samples afterwards.
func (b *Builder) Finalize() (*Dataset, error) {
	if b.finalized {
		return nil, errFinalized
	}
	b.finalized = true
	if len(b.samples) == 0 {
		return nil, ErrNoImages
	}

	items := make([]normalize.Item, len(b.samples))
	for i, s := range b.samples {
		items[i] = normalize.Item{Image: s.Image, Mask: s.Mask, Segs: s.Segs}
	}
	width, height, err := normalize.ToCommonSize(items)
	if err != nil {
		return nil, err
	}

	ds := &Dataset{Width: width, Height: height, Samples: b.samples}
	for i, it := range items {
		if it.Image.Width != width || it.Image.Height != height ||
			it.Mask.Width != width || it.Mask.Height != height {
			return nil, fmt.Errorf("sample %d (%s) is %dx%d after normalising, want %dx%d",
				i, b.samples[i].Source, it.Mask.Width, it.Mask.Height, width, height)
		}
		ds.Samples[i].Image = it.Image
		ds.Samples[i].Mask = it.Mask
		ds.Samples[i].Segs = it.Segs
	}
	b.samples = nil
	monitoring.Infof("dataset of %d samples at %dx%d", ds.Len(), width, height)
	return ds, nil
}
