package invoice

import (
	"bytes"
	"fmt"
	"image/png"

	"github.com/gen2brain/go-fitz"
)

// DefaultPreviewDPI is the raster resolution used for page previews
const DefaultPreviewDPI = 96.0

// PreviewPNG rasterizes the first page of a rendered invoice with MuPDF
func PreviewPNG(pdf []byte, dpi float64) ([]byte, error) {
	if len(pdf) == 0 {
		return nil, fmt.Errorf("empty pdf")
	}
	if dpi <= 0 {
		dpi = DefaultPreviewDPI
	}

	doc, err := fitz.NewFromMemory(pdf)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	if doc.NumPage() == 0 {
		return nil, fmt.Errorf("pdf has no pages")
	}

	img, err := doc.ImageDPI(0, dpi)
	if err != nil {
		return nil, fmt.Errorf("failed to rasterize page: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode preview: %w", err)
	}
	return buf.Bytes(), nil
}

// PageCount returns the number of pages of a rendered invoice
func PageCount(pdf []byte) (int, error) {
	doc, err := fitz.NewFromMemory(pdf)
	if err != nil {
		return 0, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()
	return doc.NumPage(), nil
}
