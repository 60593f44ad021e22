// pkg/invoice/invoice.go

package invoice

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Header holds the identity, date and pricing fields typed into the form.
// All fields are plain scalars; only Currency is interpreted at display
// time.
type Header struct {
	BusinessName    string          `json:"businessName"`
	BusinessEmail   string          `json:"businessEmail"`
	BusinessAddress string          `json:"businessAddress"`
	ClientName      string          `json:"clientName"`
	ClientEmail     string          `json:"clientEmail"`
	EmployeeName    string          `json:"employeeName"`
	InvoiceNumber   string          `json:"invoiceNumber"`
	InvoiceDate     string          `json:"invoiceDate"`
	DueDate         string          `json:"dueDate"`
	Currency        string          `json:"currency"`
	TaxPercent      decimal.Decimal `json:"taxPercent"`
	DiscountPercent decimal.Decimal `json:"discountPercent"`
	Notes           string          `json:"notes"`
	LogoRef         string          `json:"logoRef"`
	PaymentLink     string          `json:"paymentLink"`
	ContactNumber   string          `json:"contactNumber"`
}

// DefaultCurrency is preselected on a fresh form.
const DefaultCurrency = "USD"

func NewHeader() Header {
	return Header{
		Currency:        DefaultCurrency,
		TaxPercent:      decimal.Zero,
		DiscountPercent: decimal.Zero,
	}
}

// HeaderField names a header input.
type HeaderField string

const (
	HeaderBusinessName    HeaderField = "businessName"
	HeaderBusinessEmail   HeaderField = "businessEmail"
	HeaderBusinessAddress HeaderField = "businessAddress"
	HeaderClientName      HeaderField = "clientName"
	HeaderClientEmail     HeaderField = "clientEmail"
	HeaderEmployeeName    HeaderField = "employeeName"
	HeaderInvoiceNumber   HeaderField = "invoiceNumber"
	HeaderInvoiceDate     HeaderField = "invoiceDate"
	HeaderDueDate         HeaderField = "dueDate"
	HeaderCurrency        HeaderField = "currency"
	HeaderTaxPercent      HeaderField = "taxPercent"
	HeaderDiscountPercent HeaderField = "discountPercent"
	HeaderNotes           HeaderField = "notes"
	HeaderLogoRef         HeaderField = "logoRef"
	HeaderPaymentLink     HeaderField = "paymentLink"
	HeaderContactNumber   HeaderField = "contactNumber"
)

// Set assigns a raw input value to field. Percentages are coerced with
// ParsePercent; the returned error (if any) is informational and the header
// already holds the coerced value.
func (h *Header) Set(field HeaderField, value string) (bool, error) {
	switch field {
	case HeaderBusinessName:
		h.BusinessName = value
	case HeaderBusinessEmail:
		h.BusinessEmail = value
	case HeaderBusinessAddress:
		h.BusinessAddress = value
	case HeaderClientName:
		h.ClientName = value
	case HeaderClientEmail:
		h.ClientEmail = value
	case HeaderEmployeeName:
		h.EmployeeName = value
	case HeaderInvoiceNumber:
		h.InvoiceNumber = value
	case HeaderInvoiceDate:
		h.InvoiceDate = value
	case HeaderDueDate:
		h.DueDate = value
	case HeaderCurrency:
		h.Currency = strings.ToUpper(strings.TrimSpace(value))
	case HeaderTaxPercent:
		pct, err := ParsePercent(value)
		h.TaxPercent = pct
		return true, err
	case HeaderDiscountPercent:
		pct, err := ParsePercent(value)
		h.DiscountPercent = pct
		return true, err
	case HeaderNotes:
		h.Notes = value
	case HeaderLogoRef:
		h.LogoRef = value
	case HeaderPaymentLink:
		h.PaymentLink = value
	case HeaderContactNumber:
		h.ContactNumber = value
	default:
		return false, nil
	}
	return true, nil
}

// LineItem is one billable row.
type LineItem struct {
	Description string          `json:"description"`
	Quantity    int64           `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
}

func DefaultItem() LineItem {
	return LineItem{Quantity: 1, UnitPrice: decimal.Zero}
}

// Total returns quantity × unit price at full precision.
func (li LineItem) Total() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(li.Quantity))
}

func (li LineItem) normalized() LineItem {
	if li.Quantity < 1 {
		li.Quantity = 1
	}
	if li.UnitPrice.IsNegative() {
		li.UnitPrice = decimal.Zero
	}
	return li
}
