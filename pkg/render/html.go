package render

import (
	"embed"
	"encoding/base64"
	"html/template"
	"io"
	"strings"

	"github.com/invoice-studio/pkg/invoice"
)

//go:embed templates/preview.html
var templateFS embed.FS

var previewTemplate = template.Must(template.New("preview.html").Funcs(template.FuncMap{
	"dataURL":    safeDataURL,
	"currencies": invoice.Currencies,
	"pngURL": func(png []byte) template.URL {
		return template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(png))
	},
}).ParseFS(templateFS, "templates/preview.html"))

// safeDataURL only trusts inline images; anything else is left for
// html/template to sanitize.
func safeDataURL(uri string) any {
	if strings.HasPrefix(uri, "data:image/") {
		return template.URL(uri)
	}
	return uri
}

// WriteHTML writes the preview page for v.
func WriteHTML(w io.Writer, v *View) error {
	return previewTemplate.Execute(w, v)
}
