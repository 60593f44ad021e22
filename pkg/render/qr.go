package render

import (
	qrcode "github.com/skip2/go-qrcode"
)

// QRGenerator turns text into a square PNG of the given size in pixels.
type QRGenerator interface {
	Generate(text string, size int) ([]byte, error)
}

// QRCodeGenerator encodes with medium error correction.
type QRCodeGenerator struct{}

func (QRCodeGenerator) Generate(text string, size int) ([]byte, error) {
	return qrcode.Encode(text, qrcode.Medium, size)
}
