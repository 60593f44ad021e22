package render

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/invoice-studio/pkg/entitlement"
	ierr "github.com/invoice-studio/pkg/errors"
	"github.com/invoice-studio/pkg/gate"
	"github.com/invoice-studio/pkg/invoice"
	"github.com/invoice-studio/pkg/logger"
	"github.com/invoice-studio/pkg/templates"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockQR struct{ mock.Mock }

func (m *mockQR) Generate(text string, size int) ([]byte, error) {
	args := m.Called(text, size)
	b, _ := args.Get(0).([]byte)
	return b, args.Error(1)
}

type mockCapturer struct{ mock.Mock }

func (m *mockCapturer) Capture(ctx context.Context, p Preview, opts CaptureOptions) ([]byte, error) {
	args := m.Called(ctx, p, opts)
	b, _ := args.Get(0).([]byte)
	return b, args.Error(1)
}

type mockPrinter struct{ mock.Mock }

func (m *mockPrinter) Print(ctx context.Context, p Preview, w io.Writer) error {
	return m.Called(ctx, p, w).Error(0)
}

func scenarioInput(t *testing.T) Input {
	t.Helper()
	h := invoice.NewHeader()
	h.BusinessName = "Acme"
	items := []invoice.LineItem{
		{Description: "A", Quantity: 2, UnitPrice: decimal.NewFromInt(50)},
	}
	doc := invoice.Compute(h, items, decimal.NewFromInt(10), decimal.NewFromInt(5))

	cat := templates.DefaultCatalog()
	st := gate.New(cat, "https://example.test/buy").Evaluate(gate.Input{
		Tier:      entitlement.TierFree,
		ItemCount: len(items),
		Selection: gate.Selection{TemplateID: cat.Default().ID},
	})
	return Input{Document: doc, Visual: st.Template.Visual, Gate: st}
}

func TestRenderTotals(t *testing.T) {
	r := New(Config{}, &mockQR{}, &mockCapturer{}, &mockPrinter{}, logger.NewNop())
	v := r.Render(scenarioInput(t))

	assert.Equal(t, "$ 100.00", v.Preview.Totals.Subtotal.Amount)
	assert.Equal(t, "$ 10.00", v.Preview.Totals.Tax.Amount)
	assert.Equal(t, "-$ 5.00", v.Preview.Totals.Discount.Amount)
	assert.Equal(t, "$ 105.00", v.Preview.Totals.Total.Amount)
	assert.Equal(t, "Tax (10%)", v.Preview.Totals.Tax.Label)

	require.Len(t, v.Preview.Items.Rows, 1)
	assert.Equal(t, ItemRow{Description: "A", Quantity: "2", UnitPrice: "$ 50.00", Total: "$ 100.00"}, v.Preview.Items.Rows[0])
	assert.Equal(t, "Clean White Template", v.Preview.Template.HeaderText)
}

func TestRenderPlaceholdersAndOptionalBlocks(t *testing.T) {
	r := New(Config{}, &mockQR{}, &mockCapturer{}, &mockPrinter{}, logger.NewNop())
	in := scenarioInput(t)
	in.Document.Header.BusinessName = ""
	in.Document.Items = []invoice.LineItem{invoice.DefaultItem()}

	v := r.Render(in)
	assert.Equal(t, PlaceholderBusinessName, v.Preview.Header.BusinessName)
	assert.Equal(t, PlaceholderClientName, v.Preview.BillTo.Name)
	assert.Equal(t, PlaceholderDescription, v.Preview.Items.Rows[0].Description)
	assert.Nil(t, v.Preview.Employee)
	assert.Nil(t, v.Preview.Notes)
	assert.Nil(t, v.Preview.Logo)
	assert.Nil(t, v.Preview.PaymentQR)
	assert.Nil(t, v.Preview.ContactQR)
	// placeholders never leak into the document
	assert.Empty(t, in.Document.Header.BusinessName)

	in.Document.Header.EmployeeName = "Sam"
	in.Document.Header.Notes = "Thanks"
	v = r.Render(in)
	require.NotNil(t, v.Preview.Employee)
	assert.Equal(t, "Sam", v.Preview.Employee.Name)
	require.NotNil(t, v.Preview.Notes)
	assert.Equal(t, "Thanks", v.Preview.Notes.Text)
}

func TestRenderQRBlocks(t *testing.T) {
	qr := &mockQR{}
	qr.On("Generate", "https://wa.me/15551234567", 110).Return([]byte{0x89, 'P', 'N', 'G'}, nil)
	r := New(Config{}, qr, &mockCapturer{}, &mockPrinter{}, logger.NewNop())

	in := scenarioInput(t)
	in.Toggles = Toggles{ShowPaymentQR: true, ShowContactQR: true}
	in.Document.Header.ContactNumber = "+1 (555) 123-4567"

	v := r.Render(in)
	require.NotNil(t, v.Preview.PaymentQR)
	assert.False(t, v.Preview.PaymentQR.HasImage())
	assert.Equal(t, PlaceholderQR, v.Preview.PaymentQR.Placeholder)

	require.NotNil(t, v.Preview.ContactQR)
	assert.True(t, v.Preview.ContactQR.HasImage())
	assert.Equal(t, "https://wa.me/15551234567", v.Preview.ContactQR.Target)
	qr.AssertExpectations(t)
}

func TestRenderQRFailureShowsPlaceholder(t *testing.T) {
	qr := &mockQR{}
	qr.On("Generate", "https://pay.example/inv", 110).Return(nil, errors.New("encoder down"))
	r := New(Config{}, qr, &mockCapturer{}, &mockPrinter{}, logger.NewNop())

	in := scenarioInput(t)
	in.Toggles.ShowPaymentQR = true
	in.Document.Header.PaymentLink = " https://pay.example/inv "

	v := r.Render(in)
	require.NotNil(t, v.Preview.PaymentQR)
	assert.False(t, v.Preview.PaymentQR.HasImage())
	assert.Equal(t, PlaceholderQR, v.Preview.PaymentQR.Placeholder)
}

func TestRenderIsIdempotent(t *testing.T) {
	r := New(Config{}, QRCodeGenerator{}, CanvasCapturer{}, PDFPrinter{}, logger.NewNop())
	in := scenarioInput(t)
	in.Toggles.ShowPaymentQR = true
	in.Document.Header.PaymentLink = "https://pay.example/inv"

	assert.Equal(t, r.Render(in), r.Render(in))
}

func TestContactLink(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"+1 (555) 123-4567", "https://wa.me/15551234567"},
		{"0300-1234567", "https://wa.me/03001234567"},
		{"+92+300", "https://wa.me/92+300"},
		{"abc", "https://wa.me/"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ContactLink(tt.in), tt.in)
	}
}

func TestExportImage(t *testing.T) {
	capturer := &mockCapturer{}
	r := New(Config{ExportScale: 3}, &mockQR{}, capturer, &mockPrinter{}, logger.NewNop())
	v := r.Render(scenarioInput(t))

	capturer.On("Capture", mock.Anything, v.Preview, CaptureOptions{Scale: 3}).Return([]byte("img"), nil).Once()
	img, err := r.ExportImage(context.Background(), v)
	require.NoError(t, err)
	assert.Equal(t, []byte("img"), img)

	capturer.On("Capture", mock.Anything, v.Preview, CaptureOptions{Scale: 3}).Return(nil, errors.New("canvas tainted")).Once()
	_, err = r.ExportImage(context.Background(), v)
	require.Error(t, err)
	assert.True(t, ierr.IsExportFailure(err))
	assert.Equal(t, "Could not save PNG", ierr.Notice(err))
	capturer.AssertExpectations(t)
}

func TestPrintFailureIsMarked(t *testing.T) {
	printer := &mockPrinter{}
	r := New(Config{}, &mockQR{}, &mockCapturer{}, printer, logger.NewNop())
	v := r.Render(scenarioInput(t))

	printer.On("Print", mock.Anything, v.Preview, mock.Anything).Return(errors.New("no printer"))
	err := r.Print(context.Background(), v, io.Discard)
	assert.True(t, ierr.IsExportFailure(err))
}

func TestCanvasCapturerProducesPNG(t *testing.T) {
	r := New(Config{ExportScale: 1}, QRCodeGenerator{}, CanvasCapturer{}, PDFPrinter{}, logger.NewNop())
	in := scenarioInput(t)
	in.Toggles = Toggles{ShowPaymentQR: true, ShowContactQR: true}
	in.Document.Header.PaymentLink = "https://pay.example/inv"

	out, err := r.ExportImage(context.Background(), r.Render(in))
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, int(canvasWidth), img.Bounds().Dx())
}

func TestCanvasCapturerHonoursCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := CanvasCapturer{}.Capture(ctx, Preview{}, CaptureOptions{Scale: 1})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPDFPrinter(t *testing.T) {
	r := New(Config{}, QRCodeGenerator{}, CanvasCapturer{}, PDFPrinter{}, logger.NewNop())
	in := scenarioInput(t)
	in.Toggles.ShowPaymentQR = true
	in.Document.Header.PaymentLink = "https://pay.example/inv"
	in.Document.Header.Notes = "Net 30"

	var buf bytes.Buffer
	require.NoError(t, r.Print(context.Background(), r.Render(in), &buf))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestWriteHTML(t *testing.T) {
	r := New(Config{}, QRCodeGenerator{}, CanvasCapturer{}, PDFPrinter{}, logger.NewNop())
	in := scenarioInput(t)
	in.Toggles.ShowPaymentQR = true
	in.Document.Header.PaymentLink = "https://pay.example/inv"
	in.LogoDataURI = "data:image/png;base64,AAAA"

	var buf bytes.Buffer
	require.NoError(t, WriteHTML(&buf, r.Render(in)))
	out := buf.String()
	assert.Contains(t, out, "$ 105.00")
	assert.Contains(t, out, "Clean White Template")
	assert.Contains(t, out, `src="data:image/png;base64,`)
	assert.True(t, strings.Contains(out, "+ Add item"))
}

func TestHexRGB(t *testing.T) {
	r, g, b := hexRGB("#2563eb")
	assert.Equal(t, []int{0x25, 0x63, 0xeb}, []int{r, g, b})
	r, g, b = hexRGB("nope")
	assert.Equal(t, []int{107, 114, 128}, []int{r, g, b})
}

func redLogo(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.RGBA{R: 255, A: 255}), image.Point{}, draw.Src)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestCanvasCapturerDrawsLogo(t *testing.T) {
	r := New(Config{ExportScale: 1}, QRCodeGenerator{}, CanvasCapturer{}, PDFPrinter{}, logger.NewNop())
	in := scenarioInput(t)

	pixel := func(in Input) color.RGBA {
		out, err := r.ExportImage(context.Background(), r.Render(in))
		require.NoError(t, err)
		img, err := png.Decode(bytes.NewReader(out))
		require.NoError(t, err)
		return color.RGBAModel.Convert(img.At(int(canvasMargin)+10, int(logoTop)+10)).(color.RGBA)
	}

	assert.Equal(t, color.RGBA{R: 255, G: 255, B: 255, A: 255}, pixel(in))

	in.LogoDataURI = redLogo(t)
	assert.Equal(t, color.RGBA{R: 255, A: 255}, pixel(in))
}

func TestCanvasCapturerRejectsBrokenLogo(t *testing.T) {
	p := Preview{Logo: &LogoBlock{DataURI: "data:image/png;base64,AAAA"}}
	_, err := CanvasCapturer{}.Capture(context.Background(), p, CaptureOptions{Scale: 1})
	assert.True(t, ierr.IsValidation(err))
}

func TestCanvasCapturerDrawsNonASCII(t *testing.T) {
	p := Preview{Totals: TotalsBlock{Total: TotalLine{Label: "Total", Amount: "€ 105.00"}}}
	p.PaymentQR = &QRBlock{Title: "Pay online", Placeholder: PlaceholderQR}
	out, err := CanvasCapturer{}.Capture(context.Background(), p, CaptureOptions{Scale: 1})
	require.NoError(t, err)
	_, err = png.Decode(bytes.NewReader(out))
	assert.NoError(t, err)

	_, err = textFace(fontSize)
	require.NoError(t, err)
	for _, r := range "€£—" {
		assert.NotZero(t, goFont.Index(r), string(r))
	}
}

func TestPDFPrinterIncludesLogo(t *testing.T) {
	r := New(Config{}, QRCodeGenerator{}, CanvasCapturer{}, PDFPrinter{}, logger.NewNop())
	in := scenarioInput(t)

	var plain bytes.Buffer
	require.NoError(t, r.Print(context.Background(), r.Render(in), &plain))
	assert.Zero(t, bytes.Count(plain.Bytes(), []byte("/Subtype /Image")))

	in.LogoDataURI = redLogo(t)
	var withLogo bytes.Buffer
	require.NoError(t, r.Print(context.Background(), r.Render(in), &withLogo))
	assert.Equal(t, 1, bytes.Count(withLogo.Bytes(), []byte("/Subtype /Image")))
}
