package app

import (
	"fmt"
	"image"
	"image/draw"
	"time"

	"github.com/dronewatch/geobeacon/internal/qr"
)

const (
	// Quiet zone width in modules on every side of the symbol.
	quietZone = 4

	defaultScale    = 8
	defaultFontSize = 12.0

	// Vertical padding above and below the caption block, in pixels.
	captionPadding = 8
)

// Card holds everything the renderer draws: the barcode matrix plus the
// caption data describing the fix it encodes.
type Card struct {
	Latitude      float64
	Longitude     float64
	PlusCode      string
	DistanceTotal float64
	Captured      time.Time

	Matrix qr.Matrix
}

// RenderConfig holds all configuration options for card rendering
type RenderConfig struct {
	Scale         int     // Pixels per barcode module
	FontSize      float64 // Font size in points
	FontFile      string  // Optional TTF file for captions
	NoAnnotations bool    // Barcode only, no caption block
}

// CardRenderer draws a location card: the scaled barcode with its quiet
// zone and, unless disabled, a caption block underneath.
type CardRenderer struct {
	config RenderConfig
}

func NewCardRenderer(config RenderConfig) (*CardRenderer, error) {
	if config.Scale == 0 {
		config.Scale = defaultScale
	}
	if config.Scale < 1 {
		return nil, fmt.Errorf("invalid module scale: %d", config.Scale)
	}
	if config.FontSize == 0 {
		config.FontSize = defaultFontSize
	}

	return &CardRenderer{config: config}, nil
}

// Render creates an image of the card. Dark modules are drawn black on a
// white background, so the quiet zone comes for free from the fill.
func (r *CardRenderer) Render(card *Card) (*image.RGBA, error) {
	var ann *annotator
	var err error

	side := (qr.Size + 2*quietZone) * r.config.Scale
	bottom := 0
	if !r.config.NoAnnotations {
		if ann, err = newAnnotator(annotatorConfig{
			FontFile: r.config.FontFile,
			FontSize: r.config.FontSize,
		}); err != nil {
			return nil, fmt.Errorf("creating annotator: %w", err)
		}
		defer ann.Close()

		bottom = ann.captionHeight(len(card.captions()))
	}

	img := image.NewRGBA(image.Rect(0, 0, side, side+bottom))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	r.renderModules(img, card.Matrix)

	if ann != nil {
		if err = ann.annotate(img, card, side); err != nil {
			return nil, fmt.Errorf("drawing annotations: %w", err)
		}
	}

	return img, nil
}

// renderModules fills one scaled rectangle per dark module.
func (r *CardRenderer) renderModules(img *image.RGBA, m qr.Matrix) {
	s := r.config.Scale
	offset := quietZone * s

	for row := 0; row < qr.Size; row++ {
		for col := 0; col < qr.Size; col++ {
			if !m.At(row, col) {
				continue
			}

			rect := image.Rect(
				offset+col*s,
				offset+row*s,
				offset+(col+1)*s,
				offset+(row+1)*s,
			)
			draw.Draw(img, rect, image.Black, image.Point{}, draw.Src)
		}
	}
}
