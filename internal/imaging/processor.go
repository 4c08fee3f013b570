package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
)

// Thumbnails are 1/20 of the photo's size at full JPEG quality. Photos keep
// their size at quality 20.
const (
	DefaultThumbnailScale   = 0.05
	DefaultThumbnailQuality = 100
	DefaultPhotoQuality     = 20
)

// Processor produces the two JPEG renditions uploaded for every photo.
type Processor struct {
	thumbScale   float64
	thumbQuality int
	photoQuality int
}

// NewProcessor clamps out-of-range settings to the defaults.
func NewProcessor(thumbScale float64, thumbQuality, photoQuality int) *Processor {
	if thumbScale <= 0 || thumbScale > 1 {
		thumbScale = DefaultThumbnailScale
	}
	if thumbQuality <= 0 || thumbQuality > 100 {
		thumbQuality = DefaultThumbnailQuality
	}
	if photoQuality <= 0 || photoQuality > 100 {
		photoQuality = DefaultPhotoQuality
	}
	return &Processor{
		thumbScale:   thumbScale,
		thumbQuality: thumbQuality,
		photoQuality: photoQuality,
	}
}

// Thumbnail downscales by the fixed thumbnail factor.
func (p *Processor) Thumbnail(data []byte) ([]byte, error) {
	img, err := decode(data)
	if err != nil {
		return nil, err
	}
	return encodeJPEG(scale(img, p.thumbScale), p.thumbQuality)
}

// FullSize re-encodes the image at its original size.
func (p *Processor) FullSize(data []byte) ([]byte, error) {
	img, err := decode(data)
	if err != nil {
		return nil, err
	}
	return encodeJPEG(img, p.photoQuality)
}

func decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

func scale(img image.Image, factor float64) image.Image {
	bounds := img.Bounds()
	w := max(1, int(float64(bounds.Dx())*factor))
	h := max(1, int(float64(bounds.Dy())*factor))

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("failed to encode JPEG: %w", err)
	}
	return buf.Bytes(), nil
}
