package render

import (
	"bytes"
	"encoding/base64"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	ierr "github.com/invoice-studio/pkg/errors"
	_ "golang.org/x/image/webp"
)

// decodeLogo decodes the inline logo for raster and print output.
func decodeLogo(l *LogoBlock) (image.Image, error) {
	head, payload, ok := strings.Cut(l.DataURI, ";base64,")
	if !ok || !strings.HasPrefix(head, "data:image/") {
		return nil, ierr.NewError("logo is not an inline base64 image").Mark(ierr.ErrValidation)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, ierr.WithError(err).WithMessage("decode logo").Mark(ierr.ErrValidation)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, ierr.WithError(err).WithMessage("decode logo").Mark(ierr.ErrValidation)
	}
	if img.Bounds().Empty() {
		return nil, ierr.NewError("logo has no pixels").Mark(ierr.ErrValidation)
	}
	return img, nil
}
