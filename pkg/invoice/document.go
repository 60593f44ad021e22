package invoice

import (
	"fmt"
	"slices"
	"strings"

	ierr "github.com/invoice-studio/pkg/errors"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Document is the derived invoice. It is rebuilt from scratch on every
// change and never stored.
type Document struct {
	Header         Header          `json:"header"`
	Items          []LineItem      `json:"items"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	TaxAmount      decimal.Decimal `json:"taxAmount"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	Total          decimal.Decimal `json:"total"`
}

// Compute derives the totals. Amounts keep full precision; rounding to two
// places happens only in FormatMoney.
func Compute(header Header, items []LineItem, taxPercent, discountPercent decimal.Decimal) Document {
	subtotal := lo.Reduce(items, func(acc decimal.Decimal, it LineItem, _ int) decimal.Decimal {
		return acc.Add(it.Total())
	}, decimal.Zero)

	tax := subtotal.Mul(taxPercent).Div(hundred)
	discount := subtotal.Mul(discountPercent).Div(hundred)

	header.TaxPercent = taxPercent
	header.DiscountPercent = discountPercent

	return Document{
		Header:         header,
		Items:          append([]LineItem(nil), items...),
		Subtotal:       subtotal,
		TaxAmount:      tax,
		DiscountAmount: discount,
		Total:          subtotal.Add(tax).Sub(discount),
	}
}

// currencySymbols maps ISO codes to the symbol printed before amounts.
var currencySymbols = map[string]string{
	"USD": "$",
	"PKR": "Rs",
	"INR": "₹",
	"EUR": "€",
	"GBP": "£",
	"SAR": "﷼",
	"AED": "د.إ",
}

// CurrencySymbol returns the display symbol for code. Unknown codes come back
// unchanged together with an ErrUnknownCurrency error the caller may log.
func CurrencySymbol(code string) (string, error) {
	key := strings.ToUpper(strings.TrimSpace(code))
	if sym, ok := currencySymbols[key]; ok {
		return sym, nil
	}
	return code, ierr.NewErrorf("no symbol for currency %q", code).Mark(ierr.ErrUnknownCurrency)
}

// Currencies lists the codes with a known symbol, sorted.
func Currencies() []string {
	codes := lo.Keys(currencySymbols)
	slices.Sort(codes)
	return codes
}

// FormatMoney rounds to two fraction digits and groups thousands. It works
// on the decimal digits directly, so amounts of any size print exactly.
func FormatMoney(amount decimal.Decimal) string {
	rounded := amount.Round(2)
	intPart, frac, _ := strings.Cut(rounded.Abs().StringFixed(2), ".")

	var b strings.Builder
	if rounded.IsNegative() {
		b.WriteByte('-')
	}
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	b.WriteByte('.')
	b.WriteString(frac)
	return b.String()
}

// FormatAmount prefixes the formatted amount with the currency symbol, e.g.
// "$ 105.00".
func FormatAmount(symbol string, amount decimal.Decimal) string {
	return fmt.Sprintf("%s %s", symbol, FormatMoney(amount))
}
