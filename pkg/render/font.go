package render

import (
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

var (
	fontOnce sync.Once
	goFont   *truetype.Font
	fontErr  error
)

// textFace returns Go Regular at size points. It covers Latin scripts, the
// euro and pound signs and the em dash; ₹ and Arabic symbols still draw as
// missing glyphs.
func textFace(size float64) (font.Face, error) {
	fontOnce.Do(func() {
		goFont, fontErr = truetype.Parse(goregular.TTF)
	})
	if fontErr != nil {
		return nil, fontErr
	}
	return truetype.NewFace(goFont, &truetype.Options{Size: size}), nil
}
