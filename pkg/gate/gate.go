// Package gate derives feature availability from the current tier, the
// number of line items and the template selection. Evaluation is a pure
// function of those inputs, so calling it again with the same inputs gives
// the same answer.
package gate

import (
	"github.com/invoice-studio/pkg/entitlement"
	"github.com/invoice-studio/pkg/templates"
	"github.com/samber/lo"
)

// FreeItemCap is the most line items a free invoice may hold.
const FreeItemCap = 2

const (
	labelAddItem        = "+ Add item"
	labelAddItemCapped  = "+ Add item (Free plan limit reached)"
	labelUpgrade        = "Upgrade to PRO"
	labelUpgradeMonthly = "Upgrade Monthly"
	labelUpgradeYearly  = "Upgrade Yearly"
	labelProActive      = "PRO active"
	labelApplyCTA       = "Upgrade to apply"
)

// Selection is the template currently shown. Applied records that it was
// chosen while unlocked, so a later drop to free does not relock it.
type Selection struct {
	TemplateID string `json:"templateId"`
	Applied    bool   `json:"applied"`
}

type Input struct {
	Tier      entitlement.Tier
	ItemCount int
	Selection Selection
}

// Button is a control label plus its enabled flag.
type Button struct {
	Label    string `json:"label"`
	Disabled bool   `json:"disabled"`
}

// State is the full gating annotation for one render.
type State struct {
	Tier      entitlement.Tier `json:"tier"`
	ItemCount int              `json:"itemCount"`
	// ItemCap is zero when unbounded.
	ItemCap int    `json:"itemCap"`
	AddItem Button `json:"addItem"`

	Template       templates.Resolution `json:"template"`
	TemplateLocked bool                 `json:"templateLocked"`
	HeaderText     string               `json:"headerText"`
	// TemplateCTA is nil unless the shown template is a locked preview.
	TemplateCTA *Button `json:"templateCta,omitempty"`
	// Templates lists every catalog entry for the picker, in catalog order.
	Templates []TemplateOption `json:"templates"`

	Upgrade        Button `json:"upgrade"`
	UpgradeMonthly Button `json:"upgradeMonthly"`
	UpgradeYearly  Button `json:"upgradeYearly"`
	PurchaseURL    string `json:"purchaseUrl"`
	// ShowUpgradePrompt is set whenever a free-tier limit is in effect.
	ShowUpgradePrompt bool `json:"showUpgradePrompt"`
}

// TemplateOption is one entry of the template picker. Locked entries can
// still be chosen for a preview.
type TemplateOption struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Locked   bool   `json:"locked"`
	Selected bool   `json:"selected"`
}

// CanAddItem reports whether one more item would be accepted.
func (s State) CanAddItem() bool {
	return !s.AddItem.Disabled
}

type Gate struct {
	catalog     *templates.Catalog
	purchaseURL string
}

func New(catalog *templates.Catalog, purchaseURL string) *Gate {
	return &Gate{catalog: catalog, purchaseURL: purchaseURL}
}

func (g *Gate) PurchaseURL() string {
	return g.purchaseURL
}

// ItemCap returns the item limit for tier, zero meaning none.
func (g *Gate) ItemCap(tier entitlement.Tier) int {
	if tier == entitlement.TierUnlocked {
		return 0
	}
	return FreeItemCap
}

// Select applies the template selection rules for tier. Locked templates may
// be previewed on free but are never persisted; persist is true only when
// the choice should become the stored default.
func (g *Gate) Select(id string, tier entitlement.Tier) (sel Selection, res templates.Resolution, persist bool, err error) {
	res, err = g.catalog.Resolve(id, tier)
	if err != nil {
		return Selection{}, templates.Resolution{}, false, err
	}
	unlocked := tier == entitlement.TierUnlocked
	return Selection{TemplateID: id, Applied: unlocked}, res, unlocked, nil
}

// Options lists the catalog for tier with selectedID marked.
func (g *Gate) Options(tier entitlement.Tier, selectedID string) []TemplateOption {
	return lo.Map(g.catalog.All(), func(t templates.Template, _ int) TemplateOption {
		return TemplateOption{
			ID:       t.ID,
			Name:     t.DisplayName,
			Locked:   t.RequiresUnlock() && tier != entitlement.TierUnlocked,
			Selected: t.ID == selectedID,
		}
	})
}

// Evaluate recomputes the whole gating state from in.
func (g *Gate) Evaluate(in Input) State {
	st := State{
		Tier:        in.Tier,
		ItemCount:   in.ItemCount,
		ItemCap:     g.ItemCap(in.Tier),
		PurchaseURL: g.purchaseURL,
	}

	capped := st.ItemCap > 0 && in.ItemCount >= st.ItemCap
	st.AddItem = Button{Label: labelAddItem}
	if capped {
		st.AddItem = Button{Label: labelAddItemCapped, Disabled: true}
	}

	res, err := g.catalog.Resolve(in.Selection.TemplateID, in.Tier)
	if err != nil {
		res, _ = g.catalog.Resolve(g.catalog.Default().ID, in.Tier)
	}
	if in.Selection.Applied {
		res.Locked = false
	}
	st.Template = res
	st.TemplateLocked = res.Locked
	st.HeaderText = res.HeaderText()
	if res.Locked {
		st.TemplateCTA = &Button{Label: labelApplyCTA}
	}
	st.Templates = g.Options(in.Tier, res.Template.ID)

	if in.Tier == entitlement.TierUnlocked {
		st.Upgrade = Button{Label: labelProActive, Disabled: true}
		st.UpgradeMonthly = Button{Label: labelProActive, Disabled: true}
		st.UpgradeYearly = Button{Label: labelProActive, Disabled: true}
	} else {
		st.Upgrade = Button{Label: labelUpgrade}
		st.UpgradeMonthly = Button{Label: labelUpgradeMonthly}
		st.UpgradeYearly = Button{Label: labelUpgradeYearly}
	}

	st.ShowUpgradePrompt = capped || res.Locked
	return st
}
