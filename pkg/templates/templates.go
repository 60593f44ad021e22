// Package templates is the fixed catalog of invoice visuals and the rules for
// resolving a requested template against the caller's tier.
package templates

import (
	"fmt"

	"github.com/invoice-studio/pkg/entitlement"
	ierr "github.com/invoice-studio/pkg/errors"
	"github.com/samber/lo"
)

// Visual is what the renderer needs to style the preview.
type Visual struct {
	Class      string `json:"class"`
	Accent     string `json:"accent"`
	Background string `json:"background"`
	Foreground string `json:"foreground"`
}

type Template struct {
	ID          string           `json:"id"`
	DisplayName string           `json:"displayName"`
	AccessTier  entitlement.Tier `json:"accessTier"`
	Visual      Visual           `json:"visual"`
}

func (t Template) RequiresUnlock() bool {
	return t.AccessTier == entitlement.TierUnlocked
}

const DefaultID = "clean-white"

func newTemplate(id, name string, tier entitlement.Tier, accent string) Template {
	return Template{
		ID:          id,
		DisplayName: name,
		AccessTier:  tier,
		Visual: Visual{
			Class:      "template-" + id,
			Accent:     accent,
			Background: "#ffffff",
			Foreground: "#111827",
		},
	}
}

func (t Template) withColors(background, foreground string) Template {
	t.Visual.Background = background
	t.Visual.Foreground = foreground
	return t
}

// Catalog is immutable after construction.
type Catalog struct {
	order []Template
	byID  map[string]Template
}

// DefaultCatalog returns the built-in templates.
func DefaultCatalog() *Catalog {
	return NewCatalog(
		newTemplate("clean-white", "Clean White", entitlement.TierFree, "#6b7280"),
		newTemplate("minimal-grey", "Minimal Grey", entitlement.TierFree, "#374151"),
		newTemplate("modern-blue", "Modern Blue", entitlement.TierUnlocked, "#2563eb"),
		newTemplate("elegant-purple", "Elegant Purple", entitlement.TierUnlocked, "#7c3aed"),
		newTemplate("dark-mode", "Dark Mode", entitlement.TierUnlocked, "#111827").withColors("#0f172a", "#f9fafb"),
	)
}

func NewCatalog(templates ...Template) *Catalog {
	return &Catalog{
		order: templates,
		byID:  lo.KeyBy(templates, func(t Template) string { return t.ID }),
	}
}

func (c *Catalog) All() []Template {
	return append([]Template(nil), c.order...)
}

func (c *Catalog) Get(id string) (Template, error) {
	t, ok := c.byID[id]
	if !ok {
		return Template{}, ierr.NewErrorf("template %q not in catalog", id).
			WithHintf("Unknown template %q", id).
			Mark(ierr.ErrUnknownTemplate)
	}
	return t, nil
}

// Default returns the fallback template.
func (c *Catalog) Default() Template {
	if t, ok := c.byID[DefaultID]; ok {
		return t
	}
	return c.order[0]
}

// Resolution is the outcome of resolving a requested template.
type Resolution struct {
	Template Template `json:"template"`
	Visual   Visual   `json:"visual"`
	// Locked is set when the template needs the unlocked tier and the caller
	// is on free. The visual is still returned so it can be previewed.
	Locked bool `json:"locked"`
}

// HeaderText is the caption shown above the preview.
func (r Resolution) HeaderText() string {
	if r.Locked {
		return fmt.Sprintf("%s (PRO — Preview)", r.Template.DisplayName)
	}
	return fmt.Sprintf("%s Template", r.Template.DisplayName)
}

// Resolve looks up requestedID and marks it locked when tier cannot apply it.
func (c *Catalog) Resolve(requestedID string, tier entitlement.Tier) (Resolution, error) {
	t, err := c.Get(requestedID)
	if err != nil {
		return Resolution{}, err
	}
	return Resolution{
		Template: t,
		Visual:   t.Visual,
		Locked:   t.RequiresUnlock() && tier != entitlement.TierUnlocked,
	}, nil
}

// Startup picks the template a new session opens with: the persisted
// preference when it names a catalog entry and the tier is unlocked,
// otherwise the default.
func (c *Catalog) Startup(state entitlement.State) Template {
	if state.SelectedTemplate != "" && state.Unlocked() {
		if t, ok := c.byID[state.SelectedTemplate]; ok {
			return t
		}
	}
	return c.Default()
}
