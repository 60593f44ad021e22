// Package session owns the single logical invoice being edited. All input
// arrives through Dispatch, and every dispatch ends with a full stateless
// recomputation of the rendered view.
package session

import (
	"context"
	"io"
	"slices"
	"sync"

	"github.com/invoice-studio/pkg/entitlement"
	ierr "github.com/invoice-studio/pkg/errors"
	"github.com/invoice-studio/pkg/gate"
	"github.com/invoice-studio/pkg/invoice"
	"github.com/invoice-studio/pkg/logger"
	"github.com/invoice-studio/pkg/logo"
	"github.com/invoice-studio/pkg/metrics"
	"github.com/invoice-studio/pkg/render"
	"github.com/invoice-studio/pkg/templates"
	"github.com/samber/lo"
)

// Gate denial reasons recorded in metrics.
const (
	DenialItemLimit      = "item_limit"
	DenialTemplateLocked = "template_locked"
	DenialMinimumItems   = "minimum_items"
	DenialOverride       = "override_disabled"
)

type Params struct {
	Entitlement *entitlement.Manager
	Catalog     *templates.Catalog
	Gate        *gate.Gate
	Renderer    *render.Renderer
	Logos       *logo.Store
	Metrics     *metrics.Metrics
	Logger      *logger.Logger
	// AllowOverride enables the OverrideTier event.
	AllowOverride bool
}

// Result is the outcome of one dispatch. Notice is the transient message to
// show next to the preview, empty when there is nothing to say.
type Result struct {
	View   *render.View `json:"view"`
	Notice string       `json:"notice,omitempty"`
}

type Session struct {
	Params

	mu        sync.Mutex
	header    invoice.Header
	items     *invoice.Collection
	toggles   render.Toggles
	selection gate.Selection
	logoURI   string
	doc       invoice.Document
	view      *render.View
}

// New opens a session with an empty invoice and the startup template.
func New(p Params) *Session {
	s := &Session{
		Params: p,
		header: invoice.NewHeader(),
		items:  invoice.NewCollection(),
	}

	state := p.Entitlement.State()
	start := p.Catalog.Startup(state)
	s.selection = gate.Selection{TemplateID: start.ID, Applied: state.Unlocked()}
	p.Metrics.SetUnlocked(state.Unlocked())

	p.Entitlement.Subscribe(func(st entitlement.State) {
		p.Metrics.SetUnlocked(st.Unlocked())
		p.Logger.Infow("entitlement changed", "tier", st.Tier, "template", st.SelectedTemplate)
	})

	s.recompute()
	return s
}

// View returns the current view. Views are never modified once built.
func (s *Session) View() *render.View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

// Document returns the current derived invoice.
func (s *Session) Document() invoice.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc
}

func (s *Session) Toggles() render.Toggles {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.toggles
}

// Dispatch applies ev and recomputes. A returned error is recoverable: the
// result still carries the (unchanged) view and the notice for the error.
func (s *Session) Dispatch(ctx context.Context, ev Event) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	notice, err := s.apply(ctx, ev)
	s.recompute()

	if err != nil {
		s.Logger.Debugw("event rejected", "event", ev.Name(), "error", err)
		return Result{View: s.view, Notice: ierr.Notice(err)}, err
	}
	return Result{View: s.view, Notice: notice}, nil
}

func (s *Session) apply(ctx context.Context, ev Event) (string, error) {
	tier := s.Entitlement.Tier()

	switch e := ev.(type) {
	case SetHeaderField:
		known, err := s.header.Set(e.Field, e.Value)
		if !known {
			return "", ierr.NewErrorf("unknown header field %q", e.Field).
				WithHint("No such invoice field.").
				Mark(ierr.ErrValidation)
		}
		if err != nil {
			s.Logger.Debugw("coerced numeric input", "field", e.Field, "value", e.Value, "error", err)
		}
		if e.Field == invoice.HeaderLogoRef {
			return s.resolveLogo(ctx), nil
		}
		return "", nil

	case SetHeaderFields:
		return s.setHeaderFields(ctx, e.Fields)

	case AddItem:
		item := invoice.DefaultItem()
		if e.Item != nil {
			item = *e.Item
		}
		if err := s.items.Add(item, s.Gate.ItemCap(tier)); err != nil {
			if ierr.IsLimitReached(err) {
				s.Metrics.GateDenialsTotal.WithLabelValues(DenialItemLimit).Inc()
				s.Logger.Infow("item limit reached", "tier", tier, "details", ierr.ReportableDetails(err))
			}
			return "", err
		}
		return "", nil

	case RemoveItem:
		if err := s.items.Remove(e.Index); err != nil {
			if ierr.IsMinimumViolation(err) {
				s.Metrics.GateDenialsTotal.WithLabelValues(DenialMinimumItems).Inc()
			}
			return "", err
		}
		return "", nil

	case UpdateItem:
		err := s.items.Update(e.Index, e.Field, e.Value)
		if err != nil && ierr.Is(err, ierr.ErrInvalidNumericInput) {
			s.Logger.Debugw("coerced numeric input", "index", e.Index, "field", e.Field, "value", e.Value)
			return "", nil
		}
		return "", err

	case SetToggle:
		switch e.Toggle {
		case TogglePaymentQR:
			s.toggles.ShowPaymentQR = e.On
		case ToggleContactQR:
			s.toggles.ShowContactQR = e.On
		default:
			return "", ierr.NewErrorf("unknown toggle %q", e.Toggle).
				WithHint("toggle must be paymentQr or contactQr").
				Mark(ierr.ErrValidation)
		}
		return "", nil

	case SelectTemplate:
		return s.selectTemplate(ctx, e.ID, tier)

	case SetLogo:
		ref := e.Ref
		if len(e.Data) > 0 {
			saved, err := s.Logos.Save(ctx, e.Data)
			if err != nil {
				return "", err
			}
			ref = saved
		}
		s.header.LogoRef = ref
		return s.resolveLogo(ctx), nil

	case Reset:
		s.header = invoice.NewHeader()
		s.items.Reset()
		s.logoURI = ""
		return "", nil

	case ConfirmPurchase:
		if err := s.Entitlement.ConfirmPurchase(ctx); err != nil {
			return "", err
		}
		return "PRO unlocked", nil

	case OverrideTier:
		if !s.AllowOverride {
			s.Metrics.GateDenialsTotal.WithLabelValues(DenialOverride).Inc()
			return "", ierr.NewError("tier override is disabled").
				WithHint("Tier override is only available in debug mode").
				Mark(ierr.ErrPermissionDenied)
		}
		return "", s.Entitlement.Override(ctx, e.Tier)

	default:
		return "", ierr.NewErrorf("unsupported event %T", ev).Mark(ierr.ErrInvalidOperation)
	}
}

// selectTemplate previews id. On the unlocked tier the choice is applied and
// persisted; on free a locked template is shown with the upgrade notice and
// the store is left alone.
func (s *Session) selectTemplate(ctx context.Context, id string, tier entitlement.Tier) (string, error) {
	sel, res, persist, err := s.Gate.Select(id, tier)
	if err != nil {
		return "", err
	}
	s.selection = sel

	if res.Locked {
		s.Metrics.GateDenialsTotal.WithLabelValues(DenialTemplateLocked).Inc()
		return "Upgrade to apply", nil
	}
	if persist {
		if err := s.Entitlement.PersistTemplate(ctx, id); err != nil {
			s.Logger.Warnw("could not persist template", "template", id, "error", err)
			return ierr.Notice(err), nil
		}
	}
	return "", nil
}

// setHeaderFields applies fields to a copy of the header in key order and
// commits the copy only when every field is known.
func (s *Session) setHeaderFields(ctx context.Context, fields map[invoice.HeaderField]string) (string, error) {
	keys := lo.Keys(fields)
	slices.Sort(keys)

	next := s.header
	for _, k := range keys {
		known, err := next.Set(k, fields[k])
		if !known {
			return "", ierr.NewErrorf("unknown header field %q", k).
				WithHint("No such invoice field.").
				Mark(ierr.ErrValidation)
		}
		if err != nil {
			s.Logger.Debugw("coerced numeric input", "field", k, "value", fields[k], "error", err)
		}
	}

	s.header = next
	if _, ok := fields[invoice.HeaderLogoRef]; ok {
		return s.resolveLogo(ctx), nil
	}
	return "", nil
}

// resolveLogo refreshes the inline logo from the header reference. A logo
// that cannot be resolved is hidden and reported as a notice.
func (s *Session) resolveLogo(ctx context.Context) string {
	uri, err := s.Logos.Resolve(ctx, s.header.LogoRef)
	if err != nil {
		s.Logger.Warnw("logo hidden", "ref", s.header.LogoRef, "error", err)
		s.logoURI = ""
		return ierr.Notice(err)
	}
	s.logoURI = uri
	return ""
}

// recompute rebuilds the document, gate state and view from the current
// fields. It must be called with mu held.
func (s *Session) recompute() {
	tier := s.Entitlement.Tier()
	items := s.items.Items()

	s.doc = invoice.Compute(s.header, items, s.header.TaxPercent, s.header.DiscountPercent)
	st := s.Gate.Evaluate(gate.Input{
		Tier:      tier,
		ItemCount: len(items),
		Selection: s.selection,
	})
	s.view = s.Renderer.Render(render.Input{
		Document:    s.doc,
		Visual:      st.Template.Visual,
		Gate:        st,
		Toggles:     s.toggles,
		LogoDataURI: s.logoURI,
	})
	s.Metrics.RendersTotal.Inc()
}

// ExportImage captures the current preview as a PNG. The capture runs on a
// snapshot outside the session lock, so edits are not blocked while it is
// pending and a failure leaves the invoice untouched.
func (s *Session) ExportImage(ctx context.Context) ([]byte, error) {
	v := s.View()
	img, err := s.Renderer.ExportImage(ctx, v)
	s.Metrics.ObserveExport("png", err)
	return img, err
}

// Print writes the current preview to w as a PDF.
func (s *Session) Print(ctx context.Context, w io.Writer) error {
	v := s.View()
	err := s.Renderer.Print(ctx, v, w)
	s.Metrics.ObserveExport("pdf", err)
	return err
}
