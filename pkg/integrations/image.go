package integrations

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	_ "image/png"
	"io"

	"golang.org/x/image/draw"
)

// ImageSettings controls page normalization before packaging.
type ImageSettings struct {
	MaxWidth  int
	MaxHeight int
	Grayscale bool
	Quality   int // JPEG quality 1-100
}

// DefaultImageSettings suit most e-readers.
func DefaultImageSettings() ImageSettings {
	return ImageSettings{
		MaxWidth:  1200,
		MaxHeight: 1920,
		Grayscale: false,
		Quality:   85,
	}
}

// ImageProcessor normalizes page images: downscales oversized pages and
// optionally converts to grayscale, re-encoding as JPEG.
type ImageProcessor struct {
	settings ImageSettings
}

func NewImageProcessor(settings ImageSettings) *ImageProcessor {
	return &ImageProcessor{settings: settings}
}

// ProcessImage decodes, resizes and re-encodes one page.
func (p *ImageProcessor) ProcessImage(input io.Reader) ([]byte, error) {
	img, _, err := image.Decode(input)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	newWidth, newHeight := p.calculateDimensions(bounds.Dx(), bounds.Dy())

	var processed image.Image = img
	if newWidth != bounds.Dx() || newHeight != bounds.Dy() {
		processed = p.resize(img, newWidth, newHeight)
	}

	if p.settings.Grayscale {
		processed = p.toGrayscale(processed)
	}

	return p.encode(processed)
}

// calculateDimensions keeps the aspect ratio while fitting within the bounds.
func (p *ImageProcessor) calculateDimensions(width, height int) (int, int) {
	if width <= p.settings.MaxWidth && height <= p.settings.MaxHeight {
		return width, height
	}

	widthScale := float64(p.settings.MaxWidth) / float64(width)
	heightScale := float64(p.settings.MaxHeight) / float64(height)
	scale := widthScale
	if heightScale < widthScale {
		scale = heightScale
	}

	return int(float64(width) * scale), int(float64(height) * scale)
}

// resize uses CatmullRom for high-quality downscaling.
func (p *ImageProcessor) resize(img image.Image, width, height int) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)
	return dst
}

func (p *ImageProcessor) toGrayscale(img image.Image) image.Image {
	bounds := img.Bounds()
	gray := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			gray.Set(x, y, color.GrayModel.Convert(img.At(x, y)))
		}
	}
	return gray
}

func (p *ImageProcessor) encode(img image.Image) ([]byte, error) {
	quality := p.settings.Quality
	if quality <= 0 || quality > 100 {
		quality = 85
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}
