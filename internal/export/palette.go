package export

import (
	"image"
	"image/color"

	"github.com/banshee-data/oct.dataset/internal/mask"
)

// LabelPalette returns a 256-entry palette: class 0 is black and classes
// 1..n-1 are spread evenly around the hue circle.
func LabelPalette(n int) color.Palette {
	p := make(color.Palette, 256)
	p[0] = color.RGBA{A: 255}
	for i := 1; i < 256; i++ {
		k := max(n-1, 1)
		hue := float64((i-1)%k) / float64(k)
		r, g, b := hslToRGB(hue, 0.7, 0.5)
		p[i] = color.RGBA{R: r, G: g, B: b, A: 255}
	}
	return p
}

// LabelImage renders m as a paletted image, one palette index per class.
func LabelImage(m *mask.LabelMask) *image.Paletted {
	img := image.NewPaletted(image.Rect(0, 0, m.Width, m.Height), LabelPalette(m.NumClasses()))
	copy(img.Pix, m.Data)
	return img
}

// hslToRGB converts HSL to RGB (0-255 range)
func hslToRGB(h, s, l float64) (r, g, b uint8) {
	var rf, gf, bf float64

	if s == 0 {
		rf, gf, bf = l, l, l
	} else {
		var q float64
		if l < 0.5 {
			q = l * (1 + s)
		} else {
			q = l + s - l*s
		}
		p := 2*l - q
		rf = hueToRGB(p, q, h+1.0/3.0)
		gf = hueToRGB(p, q, h)
		bf = hueToRGB(p, q, h-1.0/3.0)
	}

	return uint8(rf * 255), uint8(gf * 255), uint8(bf * 255)
}

func hueToRGB(p, q, t float64) float64 {
	if t < 0 {
		t += 1
	}
	if t > 1 {
		t -= 1
	}
	if t < 1.0/6.0 {
		return p + (q-p)*6*t
	}
	if t < 1.0/2.0 {
		return q
	}
	if t < 2.0/3.0 {
		return p + (q-p)*(2.0/3.0-t)*6
	}
	return p
}
