package session

import (
	"context"
	"os"
	"strconv"

	ierr "github.com/invoice-studio/pkg/errors"
	"github.com/invoice-studio/pkg/invoice"
	"github.com/invoice-studio/pkg/render"
	"github.com/samber/lo"
	"sigs.k8s.io/yaml"
)

// Draft is an invoice described up front, as read by the render command.
type Draft struct {
	Header   invoice.Header     `json:"header"`
	Items    []invoice.LineItem `json:"items"`
	Toggles  render.Toggles     `json:"toggles"`
	Template string             `json:"template,omitempty"`
}

// ReadDraft parses a YAML or JSON draft file.
func ReadDraft(path string) (Draft, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Draft{}, ierr.WithError(err).
			WithHintf("Could not read %s", path).
			Mark(ierr.ErrNotFound)
	}
	d := Draft{Header: invoice.NewHeader()}
	if err := yaml.Unmarshal(raw, &d); err != nil {
		return Draft{}, ierr.WithError(err).
			WithHintf("%s is not a valid invoice draft", path).
			Mark(ierr.ErrValidation)
	}
	return d, nil
}

// Load replaces the invoice with d by dispatching the equivalent events, so
// the draft goes through the same coercion and gating as typed input. Items
// past the tier's cap are dropped and reported in the notice.
func (s *Session) Load(ctx context.Context, d Draft) (Result, error) {
	if _, err := s.Dispatch(ctx, Reset{}); err != nil {
		return Result{}, err
	}

	h := d.Header
	fields := map[invoice.HeaderField]string{
		invoice.HeaderBusinessName:    h.BusinessName,
		invoice.HeaderBusinessEmail:   h.BusinessEmail,
		invoice.HeaderBusinessAddress: h.BusinessAddress,
		invoice.HeaderClientName:      h.ClientName,
		invoice.HeaderClientEmail:     h.ClientEmail,
		invoice.HeaderEmployeeName:    h.EmployeeName,
		invoice.HeaderInvoiceNumber:   h.InvoiceNumber,
		invoice.HeaderInvoiceDate:     h.InvoiceDate,
		invoice.HeaderDueDate:         h.DueDate,
		invoice.HeaderCurrency:        h.Currency,
		invoice.HeaderTaxPercent:      h.TaxPercent.String(),
		invoice.HeaderDiscountPercent: h.DiscountPercent.String(),
		invoice.HeaderNotes:           h.Notes,
		invoice.HeaderPaymentLink:     h.PaymentLink,
		invoice.HeaderContactNumber:   h.ContactNumber,
		invoice.HeaderLogoRef:         h.LogoRef,
	}
	res, err := s.Dispatch(ctx, SetHeaderFields{Fields: lo.OmitByValues(fields, []string{""})})
	if err != nil {
		return res, err
	}
	notice := res.Notice

	for i, it := range d.Items {
		if i == 0 {
			// Reset left one default item; fill it in place.
			for _, ev := range []UpdateItem{
				{Index: 0, Field: invoice.FieldDescription, Value: it.Description},
				{Index: 0, Field: invoice.FieldQuantity, Value: strconv.FormatInt(it.Quantity, 10)},
				{Index: 0, Field: invoice.FieldUnitPrice, Value: it.UnitPrice.String()},
			} {
				if _, err := s.Dispatch(ctx, ev); err != nil {
					return Result{}, err
				}
			}
			continue
		}
		item := it
		if res, err := s.Dispatch(ctx, AddItem{Item: &item}); err != nil {
			if !ierr.IsLimitReached(err) {
				return res, err
			}
			notice = res.Notice
			break
		}
	}

	toggles := []SetToggle{
		{Toggle: TogglePaymentQR, On: d.Toggles.ShowPaymentQR},
		{Toggle: ToggleContactQR, On: d.Toggles.ShowContactQR},
	}
	for _, ev := range toggles {
		if _, err := s.Dispatch(ctx, ev); err != nil {
			return Result{}, err
		}
	}

	if d.Template != "" {
		res, err := s.Dispatch(ctx, SelectTemplate{ID: d.Template})
		if err != nil {
			return res, err
		}
		if res.Notice != "" {
			notice = res.Notice
		}
	}

	return Result{View: s.View(), Notice: notice}, nil
}
