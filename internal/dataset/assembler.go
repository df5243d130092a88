package dataset

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/banshee-data/oct.dataset/internal/annotation"
	"github.com/banshee-data/oct.dataset/internal/config"
	"github.com/banshee-data/oct.dataset/internal/fsutil"
	"github.com/banshee-data/oct.dataset/internal/geom"
	"github.com/banshee-data/oct.dataset/internal/mask"
	"github.com/banshee-data/oct.dataset/internal/monitoring"
	"github.com/banshee-data/oct.dataset/internal/polygon"
	"github.com/banshee-data/oct.dataset/internal/raster"
)

// DebugSink receives every sample the assembler produces together with the
// parser result it came from.
type DebugSink interface {
	WriteSample(s Sample, res annotation.Result) error
}

// Options configures dataset generation. Zero values select the default
// configuration and the OS filesystem.
type Options struct {
	Config *config.Config
	FS     fsutil.FileSystem
	Debug  DebugSink
}

func (o Options) withDefaults() Options {
	if o.Config == nil {
		o.Config = config.Empty()
	}
	if o.FS == nil {
		o.FS = fsutil.OSFileSystem{}
	}
	return o
}

// Assembler turns the annotation files of one format into samples.
type Assembler struct {
	format     annotation.Format
	parser     annotation.Parser
	rasterizer *raster.Rasterizer
	opts       Options
}

// NewAssembler returns an assembler for format.
func NewAssembler(format annotation.Format, opts Options) (*Assembler, error) {
	opts = opts.withDefaults()
	p, err := annotation.New(format, opts.Config, opts.FS)
	if err != nil {
		return nil, err
	}
	return &Assembler{
		format:     format,
		parser:     p,
		rasterizer: raster.New(opts.Config),
		opts:       opts,
	}, nil
}

// hiddenBelow reports whether any path element of path below root starts
// with a dot.
func hiddenBelow(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return fsutil.IsHidden(path)
	}
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if strings.HasPrefix(part, ".") && part != "." && part != ".." {
			return true
		}
	}
	return false
}

// Collect walks dir in lexical order and adds a sample for every annotation
// file of the assembler's format. Hidden files and directories are ignored.
// Files the parser or builder skip are logged and passed over; any other
// error ends the walk.
func (a *Assembler) Collect(ctx context.Context, dir string) (*Builder, error) {
	b := NewBuilder(a.opts.Config)
	files, skipped := 0, 0
	err := a.opts.FS.WalkFiles(dir, func(path string) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if hiddenBelow(dir, path) || !a.format.Matches(path) {
			return nil
		}
		files++

		samples, err := a.Process(path)
		if errors.Is(err, annotation.ErrSkip) {
			monitoring.Warnf("skipping %v", err)
			skipped++
			return nil
		}
		if err != nil {
			return fmt.Errorf("process %s: %w", path, err)
		}
		for _, s := range samples {
			if err := b.Add(s); err != nil {
				if errors.Is(err, ErrRejected) {
					monitoring.Warnf("skipping %v", err)
					continue
				}
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	monitoring.Infof("%s: %d %s files, %d skipped, %d samples", dir, files, a.format, skipped, b.Len())
	return b, nil
}

// Process parses one annotation file and returns its samples.
func (a *Assembler) Process(path string) ([]Sample, error) {
	results, err := a.parser.Parse(path)
	if err != nil {
		return nil, err
	}
	samples := make([]Sample, 0, len(results))
	for _, res := range results {
		s, err := a.sample(res)
		if err != nil {
			if res.Side != "" {
				return nil, fmt.Errorf("%s side: %w", res.Side, err)
			}
			return nil, err
		}
		if a.opts.Debug != nil {
			if err := a.opts.Debug.WriteSample(s, res); err != nil {
				return nil, fmt.Errorf("debug output: %w", err)
			}
		}
		samples = append(samples, s)
	}
	return samples, nil
}

// sample builds the class mask for res and derives its boundary rows.
func (a *Assembler) sample(res annotation.Result) (Sample, error) {
	m := res.Mask
	if m == nil {
		polys, err := polygon.Build(res.Curves, res.Image.Width, res.Image.Height, res.Labels)
		if err != nil {
			return Sample{}, err
		}
		shapes := make([]geom.Shape, len(polys))
		for i, p := range polys {
			shapes[i] = p
		}
		raw, err := a.rasterizer.Rasterize(res.Image.Width, res.Image.Height, shapes)
		if err != nil {
			return Sample{}, err
		}
		if m, err = raster.Canonicalize(raw); err != nil {
			return Sample{}, err
		}
	}
	return Sample{
		ID:     uuid.NewString(),
		Image:  res.Image,
		Mask:   m,
		Segs:   mask.Boundaries(m),
		Source: res.Source,
		Side:   res.Side,
	}, nil
}
