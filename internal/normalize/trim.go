package normalize

import (
	"fmt"

	"github.com/banshee-data/oct.dataset/internal/mask"
)

// Window is a half-open row range [Top, Bottom).
type Window struct {
	Top, Bottom int
}

func (w Window) Height() int { return w.Bottom - w.Top }

// LayerTrimWindow finds the rows to keep so that every mask retains its
// first and last boundary plus margin rows, grown to a multiple of
// multiplicity. The first boundary is the first row of class 1 and the last
// boundary the first row of the highest class, as reported by
// mask.Boundaries. When the growth is odd the extra row goes on top.
func LayerTrimWindow(masks []*mask.LabelMask, margin, multiplicity int) (Window, error) {
	if len(masks) == 0 {
		return Window{}, fmt.Errorf("no masks to trim")
	}
	if multiplicity <= 0 {
		return Window{}, fmt.Errorf("trim multiplicity must be positive, got %d", multiplicity)
	}

	highest, lowest := -1, -1
	minHeight := masks[0].Height
	for i, m := range masks {
		segs := mask.Boundaries(m)
		if len(segs) == 0 {
			return Window{}, fmt.Errorf("mask %d has a single class", i)
		}
		for _, v := range segs[0] {
			if highest < 0 || v < highest {
				highest = v
			}
		}
		for _, v := range segs[len(segs)-1] {
			lowest = max(lowest, v)
		}
		minHeight = min(minHeight, m.Height)
	}

	top := highest - margin
	bottom := lowest + margin
	grow := 0
	if rem := (bottom - top) % multiplicity; rem != 0 {
		grow = multiplicity - rem
	}
	after, before := Split(grow)
	top -= before
	bottom += after

	if top < 0 || bottom > minHeight {
		return Window{}, fmt.Errorf("trim window [%d, %d) does not fit masks of height %d", top, bottom, minHeight)
	}
	return Window{Top: top, Bottom: bottom}, nil
}
