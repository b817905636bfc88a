package app

import (
	"context"
	"fmt"
	"image/jpeg"
	"image/png"
	"log/slog"
	"os"

	"github.com/dronewatch/geobeacon/internal/geo"
	"github.com/dronewatch/geobeacon/internal/olc"
	"github.com/dronewatch/geobeacon/internal/qr"
	"github.com/dronewatch/geobeacon/internal/storage"
)

func Run(ctx context.Context, config *Config, logger *slog.Logger) error {
	card, err := buildCard(config)
	if err != nil {
		return err
	}

	renderer, err := NewCardRenderer(RenderConfig{
		Scale:         config.Scale,
		FontFile:      config.FontFile,
		NoAnnotations: config.NoAnnotations,
	})
	if err != nil {
		return fmt.Errorf("creating card renderer: %w", err)
	}

	logger.Info("rendering location card",
		slog.Group("image",
			slog.String("destination", config.OutputFile),
			slog.String("format", string(config.Format)),
			slog.Int("scale", config.Scale),
		),
		slog.String("plusCode", card.PlusCode),
	)

	img, err := renderer.Render(card)
	if err != nil {
		return fmt.Errorf("rendering card: %w", err)
	}

	out, err := os.Create(config.OutputFile)
	if err != nil {
		return err
	}
	defer out.Close()

	switch config.Format {
	case ImagePNG:
		err = png.Encode(out, img)

	case ImageJPEG:
		err = jpeg.Encode(out, img, &jpeg.Options{
			Quality: 98,
		})
	}
	return err
}

// buildCard resolves the coordinate from the configured source and encodes
// it. A stored session wins over direct coordinates when both are present.
func buildCard(config *Config) (*Card, error) {
	var card Card

	if config.DBPath != "" {
		if _, err := os.Stat(config.DBPath); err != nil && os.IsNotExist(err) {
			return nil, fmt.Errorf("database file '%s' does not exist: %w", config.DBPath, err)
		}

		store := storage.New(config.DBPath)
		defer store.Close()

		fix, err := store.LastFix(config.SessionID)
		if err != nil {
			return nil, fmt.Errorf("reading last fix of session %d: %w", config.SessionID, err)
		}

		card.Latitude = fix.Latitude.Float64
		card.Longitude = fix.Longitude.Float64
		card.DistanceTotal = fix.DistanceTotal
		card.Captured = fix.Timestamp
	} else {
		card.Latitude = *config.Latitude
		card.Longitude = *config.Longitude
	}

	if !geo.ValidFix(card.Latitude, card.Longitude) {
		return nil, fmt.Errorf("coordinate %.6f, %.6f is not a usable fix", card.Latitude, card.Longitude)
	}

	m, err := qr.Encode(card.Latitude, card.Longitude)
	if err != nil {
		return nil, fmt.Errorf("encoding barcode: %w", err)
	}
	card.Matrix = m
	card.PlusCode = olc.Encode(card.Latitude, card.Longitude)

	return &card, nil
}
