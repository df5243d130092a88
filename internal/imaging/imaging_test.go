package imaging

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gradientGray(w, h int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8(y*w + x)})
		}
	}
	return img
}

func TestGrayscale_Gray(t *testing.T) {
	r, err := Grayscale(gradientGray(4, 3))
	require.NoError(t, err)
	assert.Equal(t, 4, r.Width)
	assert.Equal(t, 3, r.Height)
	assert.Equal(t, 1, r.Channels)
	assert.Equal(t, uint8(6), r.At(2, 1, 0))
}

func TestGrayscale_SubImageOffset(t *testing.T) {
	sub := gradientGray(4, 4).SubImage(image.Rect(1, 1, 3, 3))
	r, err := Grayscale(sub)
	require.NoError(t, err)
	assert.Equal(t, []uint8{5, 6, 9, 10}, r.Pix)
}

func TestGrayscale_Gray16Scaled(t *testing.T) {
	img := image.NewGray16(image.Rect(0, 0, 2, 1))
	img.SetGray16(0, 0, color.Gray16{Y: 0xFFFF})
	img.SetGray16(1, 0, color.Gray16{Y: 0x1234})

	r, err := Grayscale(img)
	require.NoError(t, err)
	assert.Equal(t, []uint8{0xFF, 0x12}, r.Pix)
}

func TestGrayscale_RGBUsesLuma(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img.SetRGBA(0, 0, color.RGBA{R: 255, G: 255, B: 255, A: 255})
	r, err := Grayscale(img)
	require.NoError(t, err)
	assert.Equal(t, uint8(255), r.Pix[0])
}

func TestGrayscale_RejectsUnknownMode(t *testing.T) {
	_, err := Grayscale(image.NewAlpha(image.Rect(0, 0, 1, 1)))
	assert.ErrorContains(t, err, "unexpected image mode")
}

func TestRGB(t *testing.T) {
	r, err := RGB(gradientGray(2, 2))
	require.NoError(t, err)
	assert.Equal(t, 3, r.Channels)
	assert.Equal(t, []uint8{3, 3, 3}, r.Pix[9:12])
}

func TestCrop(t *testing.T) {
	r, err := Grayscale(gradientGray(4, 4))
	require.NoError(t, err)

	c, err := r.Crop(1, 2, 3, 4)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Width)
	assert.Equal(t, 2, c.Height)
	assert.Equal(t, []uint8{9, 10, 13, 14}, c.Pix)

	_, err = r.Crop(0, 0, 5, 1)
	assert.Error(t, err)
	_, err = r.Crop(2, 0, 2, 1)
	assert.Error(t, err)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	src := gradientGray(5, 3)

	pngData, err := EncodePNG(src)
	require.NoError(t, err)
	fromPNG, err := Decode(pngData)
	require.NoError(t, err)
	g1, err := Grayscale(fromPNG)
	require.NoError(t, err)

	tiffData, err := EncodeTIFF(src)
	require.NoError(t, err)
	fromTIFF, err := Decode(tiffData)
	require.NoError(t, err)
	g2, err := Grayscale(fromTIFF)
	require.NoError(t, err)

	assert.Equal(t, src.Pix, g1.Pix)
	assert.Equal(t, src.Pix, g2.Pix)

	b64, err := EncodePNGBase64(src)
	require.NoError(t, err)
	fromB64, err := DecodeBase64(b64)
	require.NoError(t, err)
	assert.Equal(t, src.Bounds(), fromB64.Bounds())
}

func TestDecodeErrors(t *testing.T) {
	_, err := Decode(nil)
	assert.Error(t, err)
	_, err = Decode([]byte("not an image"))
	assert.Error(t, err)
	_, err = DecodeBase64("!!!")
	assert.Error(t, err)
}

func TestRasterImage(t *testing.T) {
	gray := New(2, 1, 1)
	gray.Pix = []uint8{1, 2}
	g, ok := gray.Image().(*image.Gray)
	require.True(t, ok)
	assert.Equal(t, []uint8{1, 2}, g.Pix)

	rgb := New(1, 1, 3)
	rgb.Pix = []uint8{10, 20, 30}
	c := rgb.Image().At(0, 0).(color.RGBA)
	assert.Equal(t, color.RGBA{R: 10, G: 20, B: 30, A: 255}, c)
}

func TestSubImage(t *testing.T) {
	img := image.NewGray16(image.Rect(0, 0, 4, 4))
	sub, err := SubImage(img, image.Rect(0, 1, 4, 3))
	require.NoError(t, err)
	_, ok := sub.(*image.Gray16)
	assert.True(t, ok, "pixel format should be preserved")
	assert.Equal(t, 2, sub.Bounds().Dy())

	_, err = SubImage(img, image.Rect(0, 0, 5, 5))
	assert.Error(t, err)
}
