package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"

	"golang.org/x/image/tiff"
)

// Decode sniffs the format of data (PNG or TIFF) and decodes it.
func Decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty image data")
	}
	r := bytes.NewReader(data)
	if bytes.HasPrefix(data, []byte("\x89PNG")) {
		return png.Decode(r)
	}
	if bytes.HasPrefix(data, []byte("II*\x00")) || bytes.HasPrefix(data, []byte("MM\x00*")) {
		return tiff.Decode(r)
	}
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// DecodeBase64 decodes base64 image data as embedded in layer-annotation files.
func DecodeBase64(s string) (image.Image, error) {
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64 image data: %w", err)
	}
	return Decode(data)
}

// EncodePNG encodes img as PNG.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodePNGBase64 encodes img as base64 PNG.
func EncodePNGBase64(img image.Image) (string, error) {
	data, err := EncodePNG(img)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// EncodeTIFF encodes img as an uncompressed TIFF.
func EncodeTIFF(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := tiff.Encode(&buf, img, &tiff.Options{Compression: tiff.Uncompressed}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// SubImage crops img to rect without converting its pixel format.
func SubImage(img image.Image, rect image.Rectangle) (image.Image, error) {
	if !rect.In(img.Bounds()) {
		return nil, fmt.Errorf("crop %v outside image bounds %v", rect, img.Bounds())
	}
	sub, ok := img.(interface {
		SubImage(r image.Rectangle) image.Image
	})
	if !ok {
		return nil, fmt.Errorf("image type %T cannot be cropped", img)
	}
	return sub.SubImage(rect), nil
}
