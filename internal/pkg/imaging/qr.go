package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	qr "github.com/skip2/go-qrcode"
)

const (
	DefaultQRSize = 256
	MinQRSize     = 64
	MaxQRSize     = 1024
)

var ErrEmptyContent = errors.New("qr content is empty")

// QRConfig controls PNG rendering of QR codes.
type QRConfig struct {
	Size   int // edge length in pixels, clamped to [MinQRSize, MaxQRSize]
	Margin int // white border in pixels around the code
}

// QRRenderer turns text into PNG QR codes.
type QRRenderer struct {
	config QRConfig
}

func NewQRRenderer(config QRConfig) *QRRenderer {
	if config.Size == 0 {
		config.Size = DefaultQRSize
	}
	return &QRRenderer{config: config}
}

// PNG renders content at the configured size, or at size when it is positive.
func (r *QRRenderer) PNG(content string, size int) ([]byte, error) {
	if content == "" {
		return nil, ErrEmptyContent
	}
	if size <= 0 {
		size = r.config.Size
	}
	size = clamp(size, MinQRSize, MaxQRSize)

	code, err := qr.New(content, qr.Medium)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	code.DisableBorder = true

	inner := size - 2*r.config.Margin
	if inner < MinQRSize {
		inner = MinQRSize
	}
	// Nearest neighbour keeps module edges sharp.
	img := imaging.Resize(code.Image(inner), inner, inner, imaging.NearestNeighbor)

	var out image.Image = img
	if r.config.Margin > 0 {
		edge := inner + 2*r.config.Margin
		canvas := imaging.New(edge, edge, color.White)
		out = imaging.Paste(canvas, img, image.Pt(r.config.Margin, r.config.Margin))
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, out, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
