package invoice

import (
	ierr "github.com/invoice-studio/pkg/errors"
)

// ItemField names an editable column of a line item.
type ItemField string

const (
	FieldDescription ItemField = "description"
	FieldQuantity    ItemField = "quantity"
	FieldUnitPrice   ItemField = "unitPrice"
)

// Collection is the ordered list of line items. It never becomes empty and
// insertion order is display order.
type Collection struct {
	items []LineItem
}

// NewCollection returns a collection holding the given items, or a single
// default item when none are given.
func NewCollection(items ...LineItem) *Collection {
	c := &Collection{}
	for _, it := range items {
		c.items = append(c.items, it.normalized())
	}
	if len(c.items) == 0 {
		c.items = []LineItem{DefaultItem()}
	}
	return c
}

func (c *Collection) Len() int {
	return len(c.items)
}

// Items returns a copy of the current items.
func (c *Collection) Items() []LineItem {
	out := make([]LineItem, len(c.items))
	copy(out, c.items)
	return out
}

// Add appends item. maxItems caps the length; zero or less means no cap.
func (c *Collection) Add(item LineItem, maxItems int) error {
	if maxItems > 0 && len(c.items) >= maxItems {
		return ierr.NewErrorf("collection holds %d of %d items", len(c.items), maxItems).
			WithHintf("Free plan allows up to %d line items. Upgrade for more.", maxItems).
			WithReportableDetails(map[string]any{"items": len(c.items), "limit": maxItems}).
			Mark(ierr.ErrLimitReached)
	}
	c.items = append(c.items, item.normalized())
	return nil
}

func (c *Collection) Remove(index int) error {
	if len(c.items) <= 1 {
		return ierr.NewError("cannot remove the last line item").
			WithHint("At least one line item required.").
			Mark(ierr.ErrMinimumViolation)
	}
	if err := c.checkIndex(index); err != nil {
		return err
	}
	c.items = append(c.items[:index], c.items[index+1:]...)
	return nil
}

// Update edits one field in place. Bad numeric input is coerced (quantity to
// 1, price to 0) and the coercion is reported as an ErrInvalidNumericInput
// error while the item keeps the coerced value.
func (c *Collection) Update(index int, field ItemField, value string) error {
	if err := c.checkIndex(index); err != nil {
		return err
	}

	item := &c.items[index]
	switch field {
	case FieldDescription:
		item.Description = value
		return nil
	case FieldQuantity:
		q, err := ParseQuantity(value)
		item.Quantity = q
		return err
	case FieldUnitPrice:
		p, err := ParseUnitPrice(value)
		item.UnitPrice = p
		return err
	default:
		return ierr.NewErrorf("unknown item field %q", field).
			WithHint("field must be description, quantity or unitPrice").
			Mark(ierr.ErrValidation)
	}
}

// Reset drops every item and leaves a single default one.
func (c *Collection) Reset() {
	c.items = []LineItem{DefaultItem()}
}

func (c *Collection) checkIndex(index int) error {
	if index < 0 || index >= len(c.items) {
		return ierr.NewErrorf("item index %d out of range [0,%d)", index, len(c.items)).
			WithHint("No such line item.").
			Mark(ierr.ErrValidation)
	}
	return nil
}
