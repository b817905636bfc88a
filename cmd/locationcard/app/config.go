package app

import (
	"errors"
	"flag"
	"fmt"
	"strings"
)

const (
	ImagePNG  ImageFormat = "png"
	ImageJPEG ImageFormat = "jpeg"
)

type ImageFormat string

var validImageFormats = map[ImageFormat]struct{}{
	ImagePNG:  {},
	ImageJPEG: {},
}

// Config holds the card renderer options. The coordinate comes either
// from a stored session (DBPath + SessionID) or directly from the
// Latitude/Longitude pair.
type Config struct {
	DBPath    string
	SessionID int64

	Latitude  *float64
	Longitude *float64

	OutputFile    string
	Format        ImageFormat
	Scale         int
	FontFile      string
	NoAnnotations bool
}

func NewConfig() *Config {
	return &Config{
		Format: ImagePNG,
		Scale:  8,
	}
}

func NewConfigFromCLI() (*Config, error) {
	c := NewConfig()

	var imageFormat string
	var lat, lon float64
	flag.StringVar(&c.DBPath, "db", "", "Path to a session database file")
	flag.Int64Var(&c.SessionID, "s", 1, "Session ID within the database")
	flag.Float64Var(&lat, "lat", 0, "Latitude in decimal degrees (alternative to -db)")
	flag.Float64Var(&lon, "lon", 0, "Longitude in decimal degrees (alternative to -db)")
	flag.StringVar(&c.OutputFile, "o", "", "Path to the output file")
	flag.StringVar(&imageFormat, "f", string(ImagePNG), "Output image format. [png, jpeg]")
	flag.IntVar(&c.Scale, "scale", 8, "Pixels per barcode module")
	flag.StringVar(&c.FontFile, "font", "", "TTF font file for annotations (optional)")
	flag.BoolVar(&c.NoAnnotations, "no-annotations", false, "Disable the plus code and distance captions")
	flag.Parse()

	imageFormat = strings.ToLower(imageFormat)

	flag.Visit(func(f *flag.Flag) {
		if f.Name == "lat" {
			c.Latitude = &lat
		}
		if f.Name == "lon" {
			c.Longitude = &lon
		}
	})

	var err error
	switch {
	case c.OutputFile == "":
		err = errors.New("output file is required")
	case c.DBPath == "" && (c.Latitude == nil || c.Longitude == nil):
		err = errors.New("either -db or both -lat and -lon are required")
	case c.DBPath != "" && c.SessionID <= 0:
		err = errors.New("session id is required")
	case c.Scale < 1:
		err = errors.New("scale must be at least 1")
	default:
		if _, ok := validImageFormats[ImageFormat(imageFormat)]; !ok {
			err = fmt.Errorf("invalid image format: %s", imageFormat)
		}
	}

	if err != nil {
		flag.Usage()
		return nil, err
	}

	c.Format = ImageFormat(imageFormat)
	c.OutputFile = fmt.Sprintf("%s.%s", c.OutputFile, c.Format)
	return c, nil
}
