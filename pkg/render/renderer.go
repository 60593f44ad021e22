// Package render projects an invoice document into a display tree and hands
// that tree to the QR, image-export and print collaborators.
package render

import (
	"context"
	"io"
	"regexp"
	"strconv"
	"strings"

	ierr "github.com/invoice-studio/pkg/errors"
	"github.com/invoice-studio/pkg/gate"
	"github.com/invoice-studio/pkg/invoice"
	"github.com/invoice-studio/pkg/logger"
	"github.com/invoice-studio/pkg/templates"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// Placeholders printed for empty inputs. They are never written back to the
// document.
const (
	PlaceholderBusinessName  = "Your Business / Name"
	PlaceholderBusinessEmail = "you@example.com"
	PlaceholderInvoiceNumber = "2025"
	PlaceholderClientName    = "Client Name"
	PlaceholderClientEmail   = "client@example.com"
	PlaceholderDescription   = "Item"
	PlaceholderQR            = "—"
)

// ContactScheme prefixes the digits of the contact number in the messaging
// QR code.
const ContactScheme = "https://wa.me/"

var nonDialable = regexp.MustCompile(`[^+\d]`)

// ContactLink normalizes a phone number into the messaging link encoded in
// the contact QR code: everything but digits and '+' is dropped, then the
// leading '+'.
func ContactLink(number string) string {
	cleaned := nonDialable.ReplaceAllString(number, "")
	return ContactScheme + strings.Replace(cleaned, "+", "", 1)
}

// Toggles are the preview switches that are not part of the invoice itself.
type Toggles struct {
	ShowPaymentQR bool `json:"showPaymentQr"`
	ShowContactQR bool `json:"showContactQr"`
}

type Config struct {
	QRSize      int
	ExportScale float64
}

type Renderer struct {
	cfg      Config
	qr       QRGenerator
	capturer Capturer
	printer  Printer
	log      *logger.Logger
}

func New(cfg Config, qr QRGenerator, capturer Capturer, printer Printer, log *logger.Logger) *Renderer {
	if cfg.QRSize <= 0 {
		cfg.QRSize = 110
	}
	if cfg.ExportScale <= 0 {
		cfg.ExportScale = 2
	}
	return &Renderer{cfg: cfg, qr: qr, capturer: capturer, printer: printer, log: log}
}

// Input bundles what a render needs besides the document.
type Input struct {
	Document invoice.Document
	Visual   templates.Visual
	Gate     gate.State
	Toggles  Toggles
	// LogoDataURI is the resolved logo, empty for none.
	LogoDataURI string
}

// Render builds the view. It has no side effects besides calling the QR
// generator, and the same input always produces the same view.
func (r *Renderer) Render(in Input) *View {
	doc := in.Document
	h := doc.Header

	symbol, err := invoice.CurrencySymbol(h.Currency)
	if err != nil {
		r.log.Debugw("unknown currency, showing raw code", "currency", h.Currency)
	}
	amount := func(d decimal.Decimal) string { return invoice.FormatAmount(symbol, d) }

	p := Preview{
		Template: TemplateBlock{
			ID:         in.Gate.Template.Template.ID,
			Class:      in.Visual.Class,
			Accent:     in.Visual.Accent,
			Background: in.Visual.Background,
			Foreground: in.Visual.Foreground,
			HeaderText: in.Gate.HeaderText,
			Locked:     in.Gate.TemplateLocked,
		},
		Header: HeaderBlock{
			BusinessName:    orDefault(h.BusinessName, PlaceholderBusinessName),
			BusinessEmail:   orDefault(h.BusinessEmail, PlaceholderBusinessEmail),
			BusinessAddress: h.BusinessAddress,
			InvoiceNumber:   orDefault(h.InvoiceNumber, PlaceholderInvoiceNumber),
			InvoiceDate:     h.InvoiceDate,
			DueDate:         h.DueDate,
		},
		BillTo: PartyBlock{
			Name:  orDefault(h.ClientName, PlaceholderClientName),
			Email: orDefault(h.ClientEmail, PlaceholderClientEmail),
		},
		Items: ItemsTable{
			Columns: []string{"Description", "Qty", "Price", "Total"},
			Rows: lo.Map(doc.Items, func(it invoice.LineItem, _ int) ItemRow {
				return ItemRow{
					Description: orDefault(it.Description, PlaceholderDescription),
					Quantity:    strconv.FormatInt(it.Quantity, 10),
					UnitPrice:   amount(it.UnitPrice),
					Total:       amount(it.Total()),
				}
			}),
		},
		Totals: TotalsBlock{
			Currency: h.Currency,
			Symbol:   symbol,
			Subtotal: TotalLine{Label: "Subtotal", Amount: amount(doc.Subtotal)},
			Tax:      TotalLine{Label: "Tax (" + h.TaxPercent.String() + "%)", Amount: amount(doc.TaxAmount)},
			Discount: TotalLine{Label: "Discount (" + h.DiscountPercent.String() + "%)", Amount: "-" + amount(doc.DiscountAmount)},
			Total:    TotalLine{Label: "Total", Amount: amount(doc.Total)},
		},
	}

	if in.LogoDataURI != "" {
		p.Logo = &LogoBlock{DataURI: in.LogoDataURI}
	}
	if name := strings.TrimSpace(h.EmployeeName); name != "" {
		p.Employee = &EmployeeBlock{Name: name}
	}
	if strings.TrimSpace(h.Notes) != "" {
		p.Notes = &NotesBlock{Text: h.Notes}
	}
	if in.Toggles.ShowPaymentQR {
		p.PaymentQR = r.qrBlock("Pay online", strings.TrimSpace(h.PaymentLink), func(v string) string { return v })
	}
	if in.Toggles.ShowContactQR {
		p.ContactQR = r.qrBlock("Message us", strings.TrimSpace(h.ContactNumber), ContactLink)
	}

	return &View{Preview: p, Controls: in.Gate}
}

func (r *Renderer) qrBlock(title, value string, target func(string) string) *QRBlock {
	if value == "" {
		return &QRBlock{Title: title, Placeholder: PlaceholderQR}
	}
	text := target(value)
	png, err := r.qr.Generate(text, r.cfg.QRSize)
	if err != nil {
		r.log.Warnw("qr generation failed", "title", title, "error", err)
		return &QRBlock{Title: title, Target: text, Placeholder: PlaceholderQR}
	}
	return &QRBlock{Title: title, Target: text, PNG: png}
}

// ExportImage captures the preview region as a PNG. A failed capture comes
// back marked ErrExportFailure; the view is not modified either way.
func (r *Renderer) ExportImage(ctx context.Context, v *View) ([]byte, error) {
	img, err := r.capturer.Capture(ctx, v.Preview, CaptureOptions{Scale: r.cfg.ExportScale})
	if err != nil {
		r.log.Warnw("image export failed", "error", err)
		return nil, ierr.WithError(err).
			WithHint("Could not save PNG").
			Mark(ierr.ErrExportFailure)
	}
	return img, nil
}

// Print sends the preview region to the print surface w.
func (r *Renderer) Print(ctx context.Context, v *View, w io.Writer) error {
	if err := r.printer.Print(ctx, v.Preview, w); err != nil {
		r.log.Warnw("print failed", "error", err)
		return ierr.WithError(err).
			WithHint("Could not print invoice").
			Mark(ierr.ErrExportFailure)
	}
	return nil
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
