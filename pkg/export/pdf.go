package export

import (
	"bytes"
	"fmt"
	"image/png"

	"github.com/go-pdf/fpdf"
	"github.com/hypervision/hypervision/pkg/models"
)

const flowImageName = "flow"

// PDF renders f onto a single page sized to the raster's aspect ratio.
// The document is returned only once it has been completely written.
func PDF(f *models.Flow) ([]byte, error) {
	return PDFWithOptions(f, DefaultRasterOptions)
}

// PDFWithOptions is PDF with explicit raster options.
func PDFWithOptions(f *models.Flow, opts RasterOptions) ([]byte, error) {
	img, err := Rasterize(f, opts)
	if err != nil {
		return nil, err
	}

	var encoded bytes.Buffer
	if err := png.Encode(&encoded, img); err != nil {
		return nil, fmt.Errorf("failed to encode flow image: %w", err)
	}

	// One canvas unit is one point on the page, whatever scale the raster ended up at.
	b := flowBounds(f, opts.Padding)
	width, height := b.width(), b.height()

	doc := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: width, Ht: height},
	})
	doc.SetMargins(0, 0, 0)
	doc.SetAutoPageBreak(false, 0)
	doc.SetTitle("Hypervision flow", true)
	doc.AddPage()

	options := fpdf.ImageOptions{ImageType: "PNG"}
	doc.RegisterImageOptionsReader(flowImageName, options, &encoded)
	doc.ImageOptions(flowImageName, 0, 0, width, height, false, options, 0, "")

	var out bytes.Buffer
	if err := doc.Output(&out); err != nil {
		return nil, fmt.Errorf("failed to write pdf: %w", err)
	}

	return out.Bytes(), nil
}
