package app

import (
	"fmt"
	"image"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	dpi         = 120.0
	lineSpacing = 1.25
)

// captions returns the text lines drawn under the symbol, top to bottom.
func (c *Card) captions() []string {
	lines := []string{
		c.PlusCode,
		fmt.Sprintf("%.6f, %.6f", c.Latitude, c.Longitude),
	}

	dist, suffix := humanize.ComputeSI(c.DistanceTotal)
	trip := fmt.Sprintf("Trip: %.1f %sm", dist, suffix)
	if !c.Captured.IsZero() {
		trip += " at " + c.Captured.Local().Format(time.DateTime)
	}
	return append(lines, trip)
}

type annotatorConfig struct {
	FontFile string
	FontSize float64
}

// annotator draws the caption block. With a TTF file it renders through
// freetype; without one it falls back to the fixed 7x13 bitmap face, which
// keeps the binary self-contained.
type annotator struct {
	context  *freetype.Context // nil for the bitmap fallback
	fontFace font.Face
}

func newAnnotator(config annotatorConfig) (*annotator, error) {
	if config.FontFile == "" {
		return &annotator{fontFace: basicfont.Face7x13}, nil
	}

	fontBytes, err := os.ReadFile(config.FontFile)
	if err != nil {
		return nil, fmt.Errorf("reading font file: %w", err)
	}
	parsedFont, err := freetype.ParseFont(fontBytes)
	if err != nil {
		return nil, fmt.Errorf("parsing font: %w", err)
	}

	ctx := freetype.NewContext()
	ctx.SetDPI(dpi)
	ctx.SetFont(parsedFont)
	ctx.SetFontSize(config.FontSize)
	ctx.SetHinting(font.HintingNone)
	ctx.SetSrc(image.Black)

	return &annotator{
		context: ctx,
		fontFace: truetype.NewFace(parsedFont, &truetype.Options{
			Size:    config.FontSize,
			DPI:     dpi,
			Hinting: font.HintingNone,
		}),
	}, nil
}

func (a *annotator) Close() error {
	if closer, ok := a.fontFace.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}

func (a *annotator) lineHeight() int {
	metrics := a.fontFace.Metrics()
	h := (metrics.Ascent + metrics.Descent).Round()
	return int(float64(h) * lineSpacing)
}

// captionHeight returns the pixel height of the caption block for the
// given number of lines, padding included.
func (a *annotator) captionHeight(lines int) int {
	return lines*a.lineHeight() + 2*captionPadding
}

// annotate draws the caption lines centered under the symbol. symbolSide
// is the pixel height of the square barcode area above the block.
func (a *annotator) annotate(img *image.RGBA, card *Card, symbolSide int) error {
	if a.context != nil {
		a.context.SetClip(img.Bounds())
		a.context.SetDst(img)
	}

	metrics := a.fontFace.Metrics()
	lineHeight := a.lineHeight()

	// Baseline of the first line.
	y := symbolSide + captionPadding + metrics.Ascent.Round()

	for _, line := range card.captions() {
		width := font.MeasureString(a.fontFace, line)
		x := (img.Bounds().Dx() - width.Round()) / 2

		if err := a.drawString(img, line, x, y); err != nil {
			return fmt.Errorf("drawing caption %q: %w", line, err)
		}
		y += lineHeight
	}
	return nil
}

func (a *annotator) drawString(img *image.RGBA, s string, x, y int) error {
	if a.context != nil {
		_, err := a.context.DrawString(s, freetype.Pt(x, y))
		return err
	}

	d := font.Drawer{
		Dst:  img,
		Src:  image.Black,
		Face: a.fontFace,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
	return nil
}
