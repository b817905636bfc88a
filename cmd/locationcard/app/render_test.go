package app

import (
	"image/color"
	"testing"

	"github.com/dronewatch/geobeacon/internal/olc"
	"github.com/dronewatch/geobeacon/internal/qr"
)

func testCard(t *testing.T) *Card {
	t.Helper()

	const lat, lon = 37.7749, -122.4194
	m, err := qr.Encode(lat, lon)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	return &Card{
		Latitude:      lat,
		Longitude:     lon,
		PlusCode:      olc.Encode(lat, lon),
		DistanceTotal: 1234.5,
		Matrix:        m,
	}
}

func TestRenderBarcodeOnly(t *testing.T) {
	r, err := NewCardRenderer(RenderConfig{Scale: 2, NoAnnotations: true})
	if err != nil {
		t.Fatalf("NewCardRenderer() error = %v", err)
	}

	card := testCard(t)
	img, err := r.Render(card)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	wantSide := (qr.Size + 2*quietZone) * 2
	bounds := img.Bounds()
	if bounds.Dx() != wantSide || bounds.Dy() != wantSide {
		t.Fatalf("image size = %dx%d, want %dx%d", bounds.Dx(), bounds.Dy(), wantSide, wantSide)
	}

	// The quiet zone stays white.
	if got := img.At(0, 0); !isWhite(got) {
		t.Errorf("quiet zone pixel = %v, want white", got)
	}

	// Top-left finder corner is a dark module at (0, 0).
	offset := quietZone * 2
	if got := img.At(offset, offset); !isBlack(got) {
		t.Errorf("finder corner pixel = %v, want black", got)
	}

	// Every rendered pixel must agree with its module.
	for row := 0; row < qr.Size; row++ {
		for col := 0; col < qr.Size; col++ {
			px := img.At(offset+col*2, offset+row*2)
			if dark := card.Matrix.At(row, col); dark != isBlack(px) {
				t.Fatalf("module (%d,%d): dark = %v, pixel = %v", row, col, dark, px)
			}
		}
	}
}

func TestRenderCaptionBlock(t *testing.T) {
	r, err := NewCardRenderer(RenderConfig{Scale: 2})
	if err != nil {
		t.Fatalf("NewCardRenderer() error = %v", err)
	}

	card := testCard(t)
	img, err := r.Render(card)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	side := (qr.Size + 2*quietZone) * 2
	if img.Bounds().Dy() <= side {
		t.Fatalf("image height = %d, want caption block below %d", img.Bounds().Dy(), side)
	}

	// The caption block must contain dark pixels, the rendered text.
	var dark int
	for y := side; y < img.Bounds().Dy(); y++ {
		for x := 0; x < img.Bounds().Dx(); x++ {
			if isBlack(img.At(x, y)) {
				dark++
			}
		}
	}
	if dark == 0 {
		t.Error("caption block has no rendered text")
	}
}

func TestNewCardRendererInvalidScale(t *testing.T) {
	if _, err := NewCardRenderer(RenderConfig{Scale: -1}); err == nil {
		t.Error("NewCardRenderer() error = nil, want invalid scale error")
	}
}

func TestCaptionsIncludePlusCode(t *testing.T) {
	card := testCard(t)
	lines := card.captions()
	if len(lines) != 3 {
		t.Fatalf("captions() returned %d lines, want 3", len(lines))
	}
	if lines[0] != card.PlusCode {
		t.Errorf("first caption = %q, want plus code %q", lines[0], card.PlusCode)
	}
}

func isWhite(c color.Color) bool {
	r, g, b, _ := c.RGBA()
	return r == 0xffff && g == 0xffff && b == 0xffff
}

func isBlack(c color.Color) bool {
	r, g, b, _ := c.RGBA()
	return r == 0 && g == 0 && b == 0
}
