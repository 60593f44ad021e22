package render

import (
	"bytes"
	"context"
	"image"

	"github.com/fogleman/gg"
)

type CaptureOptions struct {
	Scale float64
}

// Capturer rasterizes the preview region.
type Capturer interface {
	Capture(ctx context.Context, p Preview, opts CaptureOptions) ([]byte, error)
}

const (
	canvasWidth  = 640.0
	canvasMargin = 24.0
	lineHeight   = 18.0
	fontSize     = 12.0
	qrBoxSize    = 110.0
	logoTop      = 16.0
	logoHeight   = 48.0
)

// CanvasCapturer draws the preview with gg in the Go Regular face.
type CanvasCapturer struct{}

func (CanvasCapturer) Capture(ctx context.Context, p Preview, opts CaptureOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	scale := opts.Scale
	if scale <= 0 {
		scale = 1
	}

	var logo image.Image
	if p.Logo != nil {
		img, err := decodeLogo(p.Logo)
		if err != nil {
			return nil, err
		}
		logo = img
	}
	face, err := textFace(fontSize)
	if err != nil {
		return nil, err
	}

	lines := p.TextLines()
	top := canvasMargin + 12
	if logo != nil {
		top = logoTop + logoHeight
	}
	height := top + canvasMargin + float64(len(lines)+1)*lineHeight
	if p.PaymentQR != nil || p.ContactQR != nil {
		height += qrBoxSize + lineHeight*2
	}

	dc := gg.NewContext(int(canvasWidth*scale), int(height*scale))
	dc.Scale(scale, scale)
	dc.SetFontFace(face)

	dc.SetHexColor(colorOr(p.Template.Background, "#ffffff"))
	dc.Clear()

	dc.SetHexColor(colorOr(p.Template.Accent, "#6b7280"))
	dc.DrawRectangle(0, 0, canvasWidth, 8)
	dc.Fill()

	if logo != nil {
		f := logoHeight / float64(logo.Bounds().Dy())
		dc.Push()
		dc.Translate(canvasMargin, logoTop)
		dc.Scale(f, f)
		dc.DrawImage(logo, 0, 0)
		dc.Pop()
	}

	dc.SetHexColor(colorOr(p.Template.Foreground, "#111827"))
	y := top
	for _, line := range lines {
		y += lineHeight
		dc.DrawString(line, canvasMargin, y)
	}

	y += lineHeight
	x := canvasMargin
	for _, qr := range []*QRBlock{p.PaymentQR, p.ContactQR} {
		if qr == nil {
			continue
		}
		dc.DrawString(qr.Title, x, y+lineHeight)
		if qr.HasImage() {
			img, _, err := image.Decode(bytes.NewReader(qr.PNG))
			if err != nil {
				return nil, err
			}
			dc.DrawImage(img, int(x), int(y+lineHeight*1.5))
		} else {
			dc.DrawString(qr.Placeholder, x, y+lineHeight*3)
		}
		x += qrBoxSize + canvasMargin
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func colorOr(hex, fallback string) string {
	if hex == "" {
		return fallback
	}
	return hex
}
