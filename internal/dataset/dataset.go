// Package dataset walks annotated image trees, turns every annotation into
// an image, a canonical class mask and its boundary rows, and assembles the
// results into size-reconciled datasets written to a single archive.
package dataset

import (
	"github.com/banshee-data/oct.dataset/internal/archive"
	"github.com/banshee-data/oct.dataset/internal/imaging"
	"github.com/banshee-data/oct.dataset/internal/mask"
)

// Sample is one image with its class mask and the boundary rows derived
// from that mask. Image and Mask share a size and len(Segs) is one less than
// the number of classes.
type Sample struct {
	ID     string
	Image  *imaging.Raster
	Mask   *mask.LabelMask
	Segs   [][]int
	Source string
	Side   string
}

// NumClasses returns the number of classes the sample's boundary rows
// describe.
func (s Sample) NumClasses() int { return len(s.Segs) + 1 }

// Dataset is an ordered set of samples sharing one size.
type Dataset struct {
	Width   int
	Height  int
	Samples []Sample
}

// Len returns the number of samples.
func (d *Dataset) Len() int { return len(d.Samples) }

// Group lays the dataset out as the four aligned arrays stored under prefix.
func (d *Dataset) Group(prefix string) *archive.Group {
	g := &archive.Group{Prefix: prefix, Width: d.Width, Height: d.Height}
	for _, s := range d.Samples {
		g.IDs = append(g.IDs, s.ID)
		g.Images = append(g.Images, s.Image)
		g.Labels = append(g.Labels, s.Mask)
		g.Segs = append(g.Segs, s.Segs)
		g.Sources = append(g.Sources, archive.Source{Path: s.Source, Side: s.Side})
	}
	return g
}
