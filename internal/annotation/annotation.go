// Package annotation parses the supported annotation conventions into
// normalised images plus either boundary curves or a ready label mask.
//
// Every format implements Parser. A file that should be left out of the
// dataset yields an error wrapping ErrSkip; any other error ends the run.
package annotation

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/banshee-data/oct.dataset/internal/boundary"
	"github.com/banshee-data/oct.dataset/internal/config"
	"github.com/banshee-data/oct.dataset/internal/fsutil"
	"github.com/banshee-data/oct.dataset/internal/imaging"
	"github.com/banshee-data/oct.dataset/internal/mask"
)

// ErrSkip marks a file that is excluded from the dataset with a warning.
var ErrSkip = errors.New("skipped")

func skipf(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrSkip)
}

// Side tags for images split into two half-width samples.
const (
	SideLeft  = "left"
	SideRight = "right"
)

// Format selects an annotation convention.
type Format int

const (
	FormatVisualCore Format = iota
	FormatWayneState
	FormatLabelme
	FormatMask
)

var formatNames = []string{
	FormatVisualCore: "visual",
	FormatWayneState: "wayne",
	FormatLabelme:    "labelme",
	FormatMask:       "mask",
}

func (f Format) String() string {
	if int(f) < len(formatNames) && f >= 0 {
		return formatNames[f]
	}
	return fmt.Sprintf("format(%d)", int(f))
}

// ParseFormat maps a format name to a Format.
func ParseFormat(s string) (Format, error) {
	for i, name := range formatNames {
		if strings.EqualFold(s, name) {
			return Format(i), nil
		}
	}
	return 0, fmt.Errorf("unknown annotation format %q (want one of %s)", s, strings.Join(formatNames, ", "))
}

// Extensions lists the lower-case file extensions that select a file for
// this format during a directory walk.
func (f Format) Extensions() []string {
	if f == FormatLabelme {
		return []string{".json"}
	}
	return []string{".tiff", ".tif"}
}

// Matches reports whether path has one of the format's extensions,
// ignoring case.
func (f Format) Matches(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range f.Extensions() {
		if ext == e {
			return true
		}
	}
	return false
}

// Result is one sample produced from an annotation file.
type Result struct {
	Image *imaging.Raster

	// Curves are ordered top to bottom. Labels names the len(Curves)+1
	// regions between them, background first.
	Curves []boundary.Curve
	Labels []string

	// Mask is set instead of Curves by formats that carry a dense mask.
	Mask *mask.LabelMask

	Source string
	Side   string
}

// Parser reads one annotation file and its paired image.
type Parser interface {
	Parse(path string) ([]Result, error)
}

// New returns the parser for format.
func New(format Format, cfg *config.Config, fsys fsutil.FileSystem) (Parser, error) {
	if cfg == nil {
		cfg = config.Empty()
	}
	if fsys == nil {
		fsys = fsutil.OSFileSystem{}
	}
	base := parserBase{cfg: cfg, fsys: fsys}
	switch format {
	case FormatVisualCore:
		return &visualCoreParser{base}, nil
	case FormatWayneState:
		return &wayneParser{base}, nil
	case FormatLabelme:
		return &labelmeParser{base}, nil
	case FormatMask:
		return &maskParser{base}, nil
	}
	return nil, fmt.Errorf("no parser for %s", format)
}

type parserBase struct {
	cfg  *config.Config
	fsys fsutil.FileSystem
}

// SiblingCSV returns the CSV path paired with an image: same directory and
// stem, .csv extension.
func SiblingCSV(imagePath string) string {
	return strings.TrimSuffix(imagePath, filepath.Ext(imagePath)) + ".csv"
}

// regionLabels returns background followed by names when names has one
// entry per curve, or nil so callers fall back to default region names.
func regionLabels(names []string, curves int) []string {
	if len(names) != curves {
		return nil
	}
	return append([]string{"background"}, names...)
}
