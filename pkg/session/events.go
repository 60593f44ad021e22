package session

import (
	"github.com/invoice-studio/pkg/entitlement"
	"github.com/invoice-studio/pkg/invoice"
)

// Event is one discrete input change. Every event is followed by a full
// recomputation of the view.
type Event interface {
	Name() string
}

type SetHeaderField struct {
	Field invoice.HeaderField `json:"field"`
	Value string              `json:"value"`
}

// SetHeaderFields sets several header fields at once. Either every field is
// applied or, when one of them is unknown, none is.
type SetHeaderFields struct {
	Fields map[invoice.HeaderField]string `json:"fields"`
}

// AddItem appends Item, or a default item when Item is nil.
type AddItem struct {
	Item *invoice.LineItem `json:"item,omitempty"`
}

type RemoveItem struct {
	Index int `json:"index"`
}

type UpdateItem struct {
	Index int               `json:"index"`
	Field invoice.ItemField `json:"field"`
	Value string            `json:"value"`
}

// Toggle names a preview switch.
type Toggle string

const (
	TogglePaymentQR Toggle = "paymentQr"
	ToggleContactQR Toggle = "contactQr"
)

type SetToggle struct {
	Toggle Toggle `json:"toggle"`
	On     bool   `json:"on"`
}

type SelectTemplate struct {
	ID string `json:"id"`
}

// SetLogo replaces the logo. Data, when set, is stored first and its
// reference used; otherwise Ref is taken as is. Both empty clears the logo.
type SetLogo struct {
	Data []byte `json:"-"`
	Ref  string `json:"ref"`
}

type Reset struct{}

type ConfirmPurchase struct{}

// OverrideTier forces a tier. Only honoured when overrides are enabled.
type OverrideTier struct {
	Tier entitlement.Tier `json:"tier"`
}

func (SetHeaderField) Name() string  { return "set_header_field" }
func (SetHeaderFields) Name() string { return "set_header_fields" }
func (AddItem) Name() string         { return "add_item" }
func (RemoveItem) Name() string      { return "remove_item" }
func (UpdateItem) Name() string      { return "update_item" }
func (SetToggle) Name() string       { return "set_toggle" }
func (SelectTemplate) Name() string  { return "select_template" }
func (SetLogo) Name() string         { return "set_logo" }
func (Reset) Name() string           { return "reset" }
func (ConfirmPurchase) Name() string { return "confirm_purchase" }
func (OverrideTier) Name() string    { return "override_tier" }
