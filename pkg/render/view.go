package render

import (
	"fmt"

	"github.com/invoice-studio/pkg/gate"
)

// View is the display-ready projection of one invoice. Preview is the
// printable region; Controls carries the gating annotations shown around it.
type View struct {
	Preview  Preview    `json:"preview"`
	Controls gate.State `json:"controls"`
}

// Preview is the invoice region. Image export and print only ever see this
// part of the view.
type Preview struct {
	Template TemplateBlock  `json:"template"`
	Logo     *LogoBlock     `json:"logo,omitempty"`
	Header   HeaderBlock    `json:"header"`
	BillTo   PartyBlock     `json:"billTo"`
	Employee *EmployeeBlock `json:"employee,omitempty"`
	Items    ItemsTable     `json:"items"`
	Totals   TotalsBlock    `json:"totals"`
	Notes    *NotesBlock    `json:"notes,omitempty"`
	// PaymentQR and ContactQR are nil when their toggle is off.
	PaymentQR *QRBlock `json:"paymentQr,omitempty"`
	ContactQR *QRBlock `json:"contactQr,omitempty"`
}

type TemplateBlock struct {
	ID         string `json:"id"`
	Class      string `json:"class"`
	Accent     string `json:"accent"`
	Background string `json:"background"`
	Foreground string `json:"foreground"`
	HeaderText string `json:"headerText"`
	Locked     bool   `json:"locked"`
}

type LogoBlock struct {
	DataURI string `json:"dataUri"`
}

type HeaderBlock struct {
	BusinessName    string `json:"businessName"`
	BusinessEmail   string `json:"businessEmail"`
	BusinessAddress string `json:"businessAddress,omitempty"`
	InvoiceNumber   string `json:"invoiceNumber"`
	InvoiceDate     string `json:"invoiceDate,omitempty"`
	DueDate         string `json:"dueDate,omitempty"`
}

type PartyBlock struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type EmployeeBlock struct {
	Name string `json:"name"`
}

type ItemRow struct {
	Description string `json:"description"`
	Quantity    string `json:"quantity"`
	UnitPrice   string `json:"unitPrice"`
	Total       string `json:"total"`
}

type ItemsTable struct {
	Columns []string  `json:"columns"`
	Rows    []ItemRow `json:"rows"`
}

type TotalLine struct {
	Label  string `json:"label"`
	Amount string `json:"amount"`
}

type TotalsBlock struct {
	Currency string    `json:"currency"`
	Symbol   string    `json:"symbol"`
	Subtotal TotalLine `json:"subtotal"`
	Tax      TotalLine `json:"tax"`
	Discount TotalLine `json:"discount"`
	Total    TotalLine `json:"total"`
}

func (t TotalsBlock) Lines() []TotalLine {
	return []TotalLine{t.Subtotal, t.Tax, t.Discount, t.Total}
}

type NotesBlock struct {
	Text string `json:"text"`
}

// QRBlock holds either a PNG image or, when the toggle is on but there is
// nothing to encode, a placeholder marker.
type QRBlock struct {
	Title       string `json:"title"`
	Target      string `json:"target,omitempty"`
	PNG         []byte `json:"png,omitempty"`
	Placeholder string `json:"placeholder,omitempty"`
}

func (q *QRBlock) HasImage() bool {
	return q != nil && len(q.PNG) > 0
}

// TextLines flattens the preview for raster output, top to bottom.
func (p Preview) TextLines() []string {
	lines := []string{
		p.Header.BusinessName,
		p.Header.BusinessEmail,
	}
	if p.Header.BusinessAddress != "" {
		lines = append(lines, p.Header.BusinessAddress)
	}
	lines = append(lines, "Invoice #"+p.Header.InvoiceNumber)
	if p.Header.InvoiceDate != "" || p.Header.DueDate != "" {
		lines = append(lines, fmt.Sprintf("Date: %s   Due: %s", p.Header.InvoiceDate, p.Header.DueDate))
	}
	lines = append(lines, "", "Bill to: "+p.BillTo.Name, p.BillTo.Email)
	if p.Employee != nil {
		lines = append(lines, "Prepared by: "+p.Employee.Name)
	}
	lines = append(lines, "")
	for _, r := range p.Items.Rows {
		lines = append(lines, fmt.Sprintf("%s  x%s  @ %s  = %s", r.Description, r.Quantity, r.UnitPrice, r.Total))
	}
	lines = append(lines, "")
	for _, l := range p.Totals.Lines() {
		lines = append(lines, fmt.Sprintf("%s: %s", l.Label, l.Amount))
	}
	if p.Notes != nil {
		lines = append(lines, "", p.Notes.Text)
	}
	return lines
}
