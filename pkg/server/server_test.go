package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/invoice-studio/pkg/config"
	"github.com/invoice-studio/pkg/entitlement"
	ierr "github.com/invoice-studio/pkg/errors"
	"github.com/invoice-studio/pkg/gate"
	"github.com/invoice-studio/pkg/kvstore"
	"github.com/invoice-studio/pkg/logger"
	"github.com/invoice-studio/pkg/logo"
	"github.com/invoice-studio/pkg/metrics"
	"github.com/invoice-studio/pkg/render"
	"github.com/invoice-studio/pkg/session"
	"github.com/invoice-studio/pkg/templates"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, debugOverride bool) (*Server, kvstore.Store) {
	t.Helper()
	ctx := context.Background()
	log := logger.NewNop()
	cfg := config.GetDefaultConfig()
	cfg.Entitlement.DebugOverride = debugOverride

	store := kvstore.NewMemoryStore()
	ent, err := entitlement.NewManager(ctx, store, log)
	require.NoError(t, err)

	cat := templates.DefaultCatalog()
	g := gate.New(cat, cfg.Entitlement.PurchaseURL)
	m := metrics.New(nil)
	sess := session.New(session.Params{
		Entitlement:   ent,
		Catalog:       cat,
		Gate:          g,
		Renderer:      render.New(render.Config{ExportScale: 1}, render.QRCodeGenerator{}, render.CanvasCapturer{}, render.PDFPrinter{}, log),
		Logos:         logo.New(nil, cfg.S3, log),
		Metrics:       m,
		Logger:        log,
		AllowOverride: debugOverride,
	})
	return New(cfg, sess, ent, g, m, log), store
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeResult(t *testing.T, rec *httptest.ResponseRecorder) session.Result {
	t.Helper()
	var res session.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	return res
}

func TestEditFlow(t *testing.T) {
	s, _ := newTestServer(t, false)

	rec := do(t, s, http.MethodPatch, "/api/invoice/items/0", `{"field":"quantity","value":"2"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	do(t, s, http.MethodPatch, "/api/invoice/items/0", `{"field":"unitPrice","value":"50"}`)
	rec = do(t, s, http.MethodPut, "/api/invoice/header", `{"taxPercent":"10","discountPercent":"5","businessName":"Acme"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	res := decodeResult(t, rec)
	assert.Equal(t, "$ 105.00", res.View.Preview.Totals.Total.Amount)
	assert.Equal(t, "Acme", res.View.Preview.Header.BusinessName)
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))

	rec = do(t, s, http.MethodGet, "/api/invoice", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"businessName":"Acme"`)
}

func TestItemLimitIsConflict(t *testing.T) {
	s, _ := newTestServer(t, false)
	require.Equal(t, http.StatusOK, do(t, s, http.MethodPost, "/api/invoice/items", "").Code)

	rec := do(t, s, http.MethodPost, "/api/invoice/items", `{"description":"Third","quantity":1,"unitPrice":"1"}`)
	require.Equal(t, http.StatusConflict, rec.Code)

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, ierr.ErrCodeLimitReached, body.Code)
	assert.Equal(t, "Free plan allows up to 2 line items. Upgrade for more.", body.Notice)
	require.NotNil(t, body.View)
	assert.Len(t, body.View.Preview.Items.Rows, 2)

	require.Equal(t, http.StatusOK, do(t, s, http.MethodPost, "/api/plan/confirm", "").Code)
	assert.Equal(t, http.StatusOK, do(t, s, http.MethodPost, "/api/invoice/items", "").Code)
}

func TestRemoveLastItemIsConflict(t *testing.T) {
	s, _ := newTestServer(t, false)
	rec := do(t, s, http.MethodDelete, "/api/invoice/items/0", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "At least one line item required.")
}

func TestBadRequests(t *testing.T) {
	s, _ := newTestServer(t, false)
	assert.Equal(t, http.StatusBadRequest, do(t, s, http.MethodPut, "/api/invoice/header", `{`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, s, http.MethodPatch, "/api/invoice/items/7", `{"field":"quantity","value":"2"}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, s, http.MethodPut, "/api/invoice/template", `{"id":"nope"}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, s, http.MethodPut, "/api/invoice/header", `{"shoeSize":"9"}`).Code)
}

func TestTemplatePreviewOnFree(t *testing.T) {
	s, store := newTestServer(t, false)
	rec := do(t, s, http.MethodPut, "/api/invoice/template", `{"id":"elegant-purple"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	res := decodeResult(t, rec)
	assert.Equal(t, "Upgrade to apply", res.Notice)
	assert.True(t, res.View.Controls.TemplateLocked)
	has, err := store.Has(context.Background(), entitlement.KeyTemplate)
	require.NoError(t, err)
	assert.False(t, has)
}

func TestPlanAndOverride(t *testing.T) {
	s, _ := newTestServer(t, false)
	rec := do(t, s, http.MethodGet, "/api/plan", "")
	var plan PlanResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &plan))
	assert.Equal(t, entitlement.TierFree, plan.Tier)
	assert.Equal(t, "Upgrade to PRO", plan.Upgrade.Label)
	assert.Equal(t, config.DefaultPurchaseURL, plan.PurchaseURL)

	// not routed without debug override
	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodPost, "/api/plan/override", `{"tier":"unlocked"}`).Code)

	s, _ = newTestServer(t, true)
	require.Equal(t, http.StatusOK, do(t, s, http.MethodPost, "/api/plan/override", `{"tier":"unlocked"}`).Code)
	require.NoError(t, json.Unmarshal(do(t, s, http.MethodGet, "/api/plan", "").Body.Bytes(), &plan))
	assert.Equal(t, entitlement.TierUnlocked, plan.Tier)
	assert.Equal(t, gate.Button{Label: "PRO active", Disabled: true}, plan.Upgrade)

	assert.Equal(t, http.StatusBadRequest, do(t, s, http.MethodPost, "/api/plan/override", `{"tier":"gold"}`).Code)
}

func TestUpgradeRedirect(t *testing.T) {
	s, _ := newTestServer(t, false)
	rec := do(t, s, http.MethodGet, "/upgrade", "")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, config.DefaultPurchaseURL, rec.Header().Get("Location"))
}

func TestExports(t *testing.T) {
	s, _ := newTestServer(t, false)

	rec := do(t, s, http.MethodGet, "/api/invoice/export.png", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), ".png")

	rec = do(t, s, http.MethodGet, "/api/invoice/print.pdf", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-")))
}

func TestLogoUpload(t *testing.T) {
	s, _ := newTestServer(t, false)

	var img bytes.Buffer
	require.NoError(t, png.Encode(&img, image.NewRGBA(image.Rect(0, 0, 2, 2))))

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("logo", "logo.png")
	require.NoError(t, err)
	_, err = fw.Write(img.Bytes())
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/invoice/logo", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decodeResult(t, rec)
	require.NotNil(t, res.View.Preview.Logo)
	assert.True(t, strings.HasPrefix(res.View.Preview.Logo.DataURI, "data:image/png;base64,"))
}

func TestIndexAndOps(t *testing.T) {
	s, _ := newTestServer(t, false)

	rec := do(t, s, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Clean White Template")

	assert.Equal(t, http.StatusOK, do(t, s, http.MethodGet, "/healthz", "").Code)

	rec = do(t, s, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "invoice_studio_renders_total")

	rec = do(t, s, http.MethodGet, "/swagger/doc.json", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/api/invoice/items")
}

func TestReset(t *testing.T) {
	s, _ := newTestServer(t, false)
	do(t, s, http.MethodPut, "/api/invoice/header", `{"businessName":"Acme"}`)
	do(t, s, http.MethodPost, "/api/invoice/items", "")

	res := decodeResult(t, do(t, s, http.MethodPost, "/api/invoice/reset", ""))
	assert.Len(t, res.View.Preview.Items.Rows, 1)
	assert.Equal(t, render.PlaceholderBusinessName, res.View.Preview.Header.BusinessName)
}

func TestHeaderRejectsLocalLogoPaths(t *testing.T) {
	s, _ := newTestServer(t, false)

	existing := do(t, s, http.MethodPut, "/api/invoice/header", `{"logoRef":"/etc/hostname"}`)
	missing := do(t, s, http.MethodPut, "/api/invoice/header", `{"logoRef":"/no/such/logo.png"}`)
	for _, rec := range []*httptest.ResponseRecorder{existing, missing} {
		require.Equal(t, http.StatusBadRequest, rec.Code)
		var body ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, ierr.ErrCodeValidation, body.Code)
		assert.Equal(t, "Upload the logo as an image file", body.Notice)
		require.NotNil(t, body.View)
		assert.Nil(t, body.View.Preview.Logo)
	}

	rec := do(t, s, http.MethodPut, "/api/invoice/header", `{"logoRef":""}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHeaderUpdateIsAllOrNothing(t *testing.T) {
	s, _ := newTestServer(t, false)

	rec := do(t, s, http.MethodPut, "/api/invoice/header", `{"businessName":"Acme","shoeSize":"9","taxPercent":"10"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	res := decodeResult(t, do(t, s, http.MethodGet, "/api/invoice", ""))
	assert.Equal(t, render.PlaceholderBusinessName, res.View.Preview.Header.BusinessName)
	assert.Equal(t, "Tax (0%)", res.View.Preview.Totals.Tax.Label)
}

func TestUnknownTemplateCodeIsStable(t *testing.T) {
	s, _ := newTestServer(t, false)

	for i := 0; i < 50; i++ {
		rec := do(t, s, http.MethodPut, "/api/invoice/template", `{"id":"nope"}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		var body ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, ierr.ErrCodeUnknownTemplate, body.Code)
		assert.Equal(t, `Unknown template "nope"`, body.Notice)
	}
}

func TestListTemplates(t *testing.T) {
	s, _ := newTestServer(t, false)

	rec := do(t, s, http.MethodGet, "/api/templates", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var opts OptionsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &opts))
	require.Len(t, opts.Templates, 5)
	assert.Equal(t, gate.TemplateOption{ID: "clean-white", Name: "Clean White", Selected: true}, opts.Templates[0])
	assert.True(t, opts.Templates[2].Locked)
	assert.Contains(t, opts.Currencies, "EUR")

	require.Equal(t, http.StatusOK, do(t, s, http.MethodPost, "/api/plan/confirm", "").Code)
	require.NoError(t, json.Unmarshal(do(t, s, http.MethodGet, "/api/templates", "").Body.Bytes(), &opts))
	assert.False(t, opts.Templates[2].Locked)

	page := do(t, s, http.MethodGet, "/", "").Body.String()
	assert.Contains(t, page, `<option value="elegant-purple"`)
	assert.Contains(t, page, `<option value="USD" selected>`)
}
