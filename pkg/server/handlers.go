package server

import (
	"bytes"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/invoice-studio/pkg/entitlement"
	ierr "github.com/invoice-studio/pkg/errors"
	"github.com/invoice-studio/pkg/gate"
	"github.com/invoice-studio/pkg/invoice"
	"github.com/invoice-studio/pkg/logo"
	"github.com/invoice-studio/pkg/render"
	"github.com/invoice-studio/pkg/session"
)

// InvoiceResponse is the full editor state.
type InvoiceResponse struct {
	Document invoice.Document `json:"document"`
	Toggles  render.Toggles   `json:"toggles"`
	View     *render.View     `json:"view"`
}

// PlanResponse describes the current entitlement and its upgrade controls.
type PlanResponse struct {
	Tier             entitlement.Tier `json:"tier"`
	SelectedTemplate string           `json:"selectedTemplate,omitempty"`
	PurchaseURL      string           `json:"purchaseUrl"`
	Upgrade          gate.Button      `json:"upgrade"`
	UpgradeMonthly   gate.Button      `json:"upgradeMonthly"`
	UpgradeYearly    gate.Button      `json:"upgradeYearly"`
}

// OptionsResponse lists the choices offered by the template and currency
// pickers.
type OptionsResponse struct {
	Templates  []gate.TemplateOption `json:"templates"`
	Currencies []string              `json:"currencies"`
}

type ItemUpdateRequest struct {
	Field invoice.ItemField `json:"field"`
	Value string            `json:"value"`
}

type TemplateRequest struct {
	ID string `json:"id"`
}

type OverrideRequest struct {
	Tier entitlement.Tier `json:"tier"`
}

func (s *Server) dispatch(w http.ResponseWriter, r *http.Request, ev session.Event) {
	res, err := s.session.Dispatch(r.Context(), ev)
	if err != nil {
		WriteError(w, err, res.View)
		return
	}
	_ = WriteSuccess(w, res)
}

// @Summary Preview page
// @Description Renders the invoice preview with its controls as HTML
// @Tags Invoice
// @Produce html
// @Success 200 {string} string
// @Router / [get]
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := render.WriteHTML(&buf, s.session.View()); err != nil {
		s.log.Errorw("preview page failed", "error", err)
		WriteError(w, ierr.WithError(err).Mark(ierr.ErrSystem), nil)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// @Summary Get invoice
// @Description Current document, toggles and rendered view
// @Tags Invoice
// @Produce json
// @Success 200 {object} server.InvoiceResponse
// @Router /api/invoice [get]
func (s *Server) handleGetInvoice(w http.ResponseWriter, r *http.Request) {
	_ = WriteSuccess(w, InvoiceResponse{
		Document: s.session.Document(),
		Toggles:  s.session.Toggles(),
		View:     s.session.View(),
	})
}

// @Summary Update header fields
// @Description Sets one or more header fields from a field → value object. The update is all or nothing: an unknown field rejects the whole request. logoRef only accepts data: and s3:// references.
// @Tags Invoice
// @Accept json
// @Produce json
// @Param fields body map[string]string true "Header fields"
// @Success 200 {object} session.Result
// @Failure 400 {object} server.ErrorResponse
// @Router /api/invoice/header [put]
func (s *Server) handleSetHeader(w http.ResponseWriter, r *http.Request) {
	var fields map[invoice.HeaderField]string
	if err := decodeJSON(r, &fields); err != nil {
		WriteError(w, err, nil)
		return
	}
	if ref, ok := fields[invoice.HeaderLogoRef]; ok {
		if err := logo.ValidateRef(ref); err != nil {
			WriteError(w, err, s.session.View())
			return
		}
	}
	s.dispatch(w, r, session.SetHeaderFields{Fields: fields})
}

// @Summary Add line item
// @Description Appends a line item, default when the body is empty. Refused with 409 at the free plan cap.
// @Tags Items
// @Accept json
// @Produce json
// @Param item body invoice.LineItem false "Item"
// @Success 200 {object} session.Result
// @Failure 409 {object} server.ErrorResponse
// @Router /api/invoice/items [post]
func (s *Server) handleAddItem(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		WriteError(w, ierr.WithError(err).Mark(ierr.ErrValidation), nil)
		return
	}
	ev := session.AddItem{}
	if len(bytes.TrimSpace(body)) > 0 {
		var item invoice.LineItem
		r.Body = io.NopCloser(bytes.NewReader(body))
		if err := decodeJSON(r, &item); err != nil {
			WriteError(w, err, nil)
			return
		}
		ev.Item = &item
	}
	s.dispatch(w, r, ev)
}

// @Summary Update line item
// @Tags Items
// @Accept json
// @Produce json
// @Param index path int true "Item index"
// @Param update body server.ItemUpdateRequest true "Field and raw value"
// @Success 200 {object} session.Result
// @Failure 400 {object} server.ErrorResponse
// @Router /api/invoice/items/{index} [patch]
func (s *Server) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	index, err := pathIndex(r)
	if err != nil {
		WriteError(w, err, nil)
		return
	}
	var req ItemUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, err, nil)
		return
	}
	s.dispatch(w, r, session.UpdateItem{Index: index, Field: req.Field, Value: req.Value})
}

// @Summary Remove line item
// @Description Refused with 409 when it is the last item
// @Tags Items
// @Produce json
// @Param index path int true "Item index"
// @Success 200 {object} session.Result
// @Failure 409 {object} server.ErrorResponse
// @Router /api/invoice/items/{index} [delete]
func (s *Server) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	index, err := pathIndex(r)
	if err != nil {
		WriteError(w, err, nil)
		return
	}
	s.dispatch(w, r, session.RemoveItem{Index: index})
}

// @Summary Set preview toggle
// @Tags Invoice
// @Accept json
// @Produce json
// @Param toggle body session.SetToggle true "Toggle"
// @Success 200 {object} session.Result
// @Router /api/invoice/toggles [put]
func (s *Server) handleSetToggle(w http.ResponseWriter, r *http.Request) {
	var req session.SetToggle
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, err, nil)
		return
	}
	s.dispatch(w, r, req)
}

// @Summary Select template
// @Description Locked templates are previewed but not applied on the free plan
// @Tags Templates
// @Accept json
// @Produce json
// @Param template body server.TemplateRequest true "Template id"
// @Success 200 {object} session.Result
// @Failure 400 {object} server.ErrorResponse
// @Router /api/invoice/template [put]
func (s *Server) handleSelectTemplate(w http.ResponseWriter, r *http.Request) {
	var req TemplateRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, err, nil)
		return
	}
	s.dispatch(w, r, session.SelectTemplate{ID: req.ID})
}

// @Summary List templates
// @Description Template picker entries for the current plan, plus the supported currencies
// @Tags Templates
// @Produce json
// @Success 200 {object} server.OptionsResponse
// @Router /api/templates [get]
func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	_ = WriteSuccess(w, OptionsResponse{
		Templates:  s.session.View().Controls.Templates,
		Currencies: invoice.Currencies(),
	})
}

// @Summary Upload logo
// @Tags Invoice
// @Accept multipart/form-data
// @Produce json
// @Param logo formData file true "Logo image, up to 5MB"
// @Success 200 {object} session.Result
// @Failure 400 {object} server.ErrorResponse
// @Router /api/invoice/logo [post]
func (s *Server) handleUploadLogo(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, logo.MaxBytes+1024*1024)
	if err := r.ParseMultipartForm(logo.MaxBytes); err != nil {
		WriteError(w, ierr.WithError(err).
			WithHint("Logo must be a file under 5 MB").
			Mark(ierr.ErrValidation), nil)
		return
	}
	file, _, err := r.FormFile("logo")
	if err != nil {
		WriteError(w, ierr.WithError(err).
			WithHint("Choose an image file").
			Mark(ierr.ErrValidation), nil)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		WriteError(w, ierr.WithError(err).Mark(ierr.ErrValidation), nil)
		return
	}
	s.dispatch(w, r, session.SetLogo{Data: data})
}

// @Summary Reset invoice
// @Description Clears every field and leaves a single default item
// @Tags Invoice
// @Produce json
// @Success 200 {object} session.Result
// @Router /api/invoice/reset [post]
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.dispatch(w, r, session.Reset{})
}

// @Summary Export PNG
// @Description Captures the preview region as a PNG image
// @Tags Export
// @Produce png
// @Success 200 {file} binary
// @Failure 502 {object} server.ErrorResponse
// @Router /api/invoice/export.png [get]
func (s *Server) handleExportPNG(w http.ResponseWriter, r *http.Request) {
	img, err := s.session.ExportImage(r.Context())
	if err != nil {
		WriteError(w, err, nil)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", "attachment; filename="+exportName("png"))
	w.Header().Set("Content-Length", strconv.Itoa(len(img)))
	_, _ = w.Write(img)
}

// @Summary Print PDF
// @Description Prints the preview region to a PDF
// @Tags Export
// @Produce application/pdf
// @Success 200 {file} binary
// @Failure 502 {object} server.ErrorResponse
// @Router /api/invoice/print.pdf [get]
func (s *Server) handlePrintPDF(w http.ResponseWriter, r *http.Request) {
	var pdfBuffer bytes.Buffer
	if err := s.session.Print(r.Context(), &pdfBuffer); err != nil {
		WriteError(w, err, nil)
		return
	}
	w.Header().Set("Content-Disposition", "inline; filename="+exportName("pdf"))
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Length", strconv.Itoa(pdfBuffer.Len()))
	_, _ = w.Write(pdfBuffer.Bytes())
}

// @Summary Get plan
// @Tags Plan
// @Produce json
// @Success 200 {object} server.PlanResponse
// @Router /api/plan [get]
func (s *Server) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	_ = WriteSuccess(w, s.plan())
}

// @Summary Confirm purchase
// @Description Switches to the unlocked plan after a completed purchase
// @Tags Plan
// @Produce json
// @Success 200 {object} session.Result
// @Router /api/plan/confirm [post]
func (s *Server) handleConfirmPurchase(w http.ResponseWriter, r *http.Request) {
	s.dispatch(w, r, session.ConfirmPurchase{})
}

// @Summary Override plan
// @Description Debug only. Forces either tier.
// @Tags Plan
// @Accept json
// @Produce json
// @Param tier body server.OverrideRequest true "Tier"
// @Success 200 {object} session.Result
// @Failure 403 {object} server.ErrorResponse
// @Router /api/plan/override [post]
func (s *Server) handleOverride(w http.ResponseWriter, r *http.Request) {
	var req OverrideRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, err, nil)
		return
	}
	s.dispatch(w, r, session.OverrideTier{Tier: req.Tier})
}

// @Summary Upgrade
// @Description Redirects to the purchase page
// @Tags Plan
// @Success 302
// @Router /upgrade [get]
func (s *Server) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, s.gate.PurchaseURL(), http.StatusFound)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	_ = WriteSuccess(w, map[string]string{"status": "ok"})
}

func (s *Server) plan() PlanResponse {
	st := s.entitlement.State()
	controls := s.session.View().Controls
	return PlanResponse{
		Tier:             st.Tier,
		SelectedTemplate: st.SelectedTemplate,
		PurchaseURL:      controls.PurchaseURL,
		Upgrade:          controls.Upgrade,
		UpgradeMonthly:   controls.UpgradeMonthly,
		UpgradeYearly:    controls.UpgradeYearly,
	}
}

func pathIndex(r *http.Request) (int, error) {
	raw := mux.Vars(r)["index"]
	index, err := strconv.Atoi(raw)
	if err != nil {
		return 0, ierr.WithError(err).
			WithHintf("Item index %q is not a number", raw).
			Mark(ierr.ErrValidation)
	}
	return index, nil
}
