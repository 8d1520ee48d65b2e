package export

import (
	"bytes"
	"fmt"
	"image/color"
	"image/jpeg"
	"image/png"
	"math"

	"github.com/hypervision/hypervision/pkg/models"
)

const (
	FormatJPEG = "jpeg"
	FormatPNG  = "png"
)

// ScreenshotOptions bounds the size and quality of a flow screenshot.
type ScreenshotOptions struct {
	Quality   float64
	Scale     float64
	Format    string
	MaxWidth  int
	MaxHeight int
}

// Screenshot renders f and encodes it with the given options. The scale is reduced
// further when the image would exceed the maximum dimensions.
func Screenshot(f *models.Flow, opts ScreenshotOptions) ([]byte, error) {
	if len(f.Nodes) == 0 {
		return nil, ErrEmptyFlow
	}

	scale := opts.Scale
	if scale <= 0 {
		scale = 1
	}

	scale = flowBounds(f, DefaultRasterOptions.Padding).fit(scale, opts.MaxWidth, opts.MaxHeight)

	img, err := Rasterize(f, RasterOptions{
		Scale:      scale,
		Padding:    DefaultRasterOptions.Padding,
		Background: color.White,
	})
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer

	switch opts.Format {
	case FormatPNG:
		err = png.Encode(&buf, img)
	case FormatJPEG, "":
		quality := int(math.Round(opts.Quality * 100))
		if quality <= 0 || quality > 100 {
			quality = jpeg.DefaultQuality
		}

		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality})
	default:
		return nil, fmt.Errorf("unsupported screenshot format %q", opts.Format)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to encode screenshot: %w", err)
	}

	return buf.Bytes(), nil
}
