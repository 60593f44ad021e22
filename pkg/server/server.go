// Package server exposes the invoice session over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/invoice-studio/pkg/config"
	"github.com/invoice-studio/pkg/entitlement"
	"github.com/invoice-studio/pkg/gate"
	"github.com/invoice-studio/pkg/logger"
	"github.com/invoice-studio/pkg/metrics"
	"github.com/invoice-studio/pkg/session"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/invoice-studio/docs"
)

const requestIDHeader = "X-Request-ID"

type Server struct {
	cfg         config.ServerConfig
	session     *session.Session
	entitlement *entitlement.Manager
	gate        *gate.Gate
	metrics     *metrics.Metrics
	log         *logger.Logger

	allowOverride bool
	router        *mux.Router
}

func New(cfg *config.Configuration, sess *session.Session, ent *entitlement.Manager, g *gate.Gate, m *metrics.Metrics, log *logger.Logger) *Server {
	s := &Server{
		cfg:           cfg.Server,
		session:       sess,
		entitlement:   ent,
		gate:          g,
		metrics:       m,
		log:           log,
		allowOverride: cfg.Entitlement.DebugOverride,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.requestID)

	r.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	r.HandleFunc("/upgrade", s.handleUpgrade).Methods(http.MethodGet)
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
	r.PathPrefix("/swagger/").Handler(httpSwagger.WrapHandler)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/invoice", s.handleGetInvoice).Methods(http.MethodGet)
	api.HandleFunc("/invoice/header", s.handleSetHeader).Methods(http.MethodPut)
	api.HandleFunc("/invoice/items", s.handleAddItem).Methods(http.MethodPost)
	api.HandleFunc("/invoice/items/{index:[0-9]+}", s.handleUpdateItem).Methods(http.MethodPatch)
	api.HandleFunc("/invoice/items/{index:[0-9]+}", s.handleRemoveItem).Methods(http.MethodDelete)
	api.HandleFunc("/invoice/toggles", s.handleSetToggle).Methods(http.MethodPut)
	api.HandleFunc("/invoice/template", s.handleSelectTemplate).Methods(http.MethodPut)
	api.HandleFunc("/templates", s.handleListTemplates).Methods(http.MethodGet)
	api.HandleFunc("/invoice/logo", s.handleUploadLogo).Methods(http.MethodPost)
	api.HandleFunc("/invoice/reset", s.handleReset).Methods(http.MethodPost)
	api.HandleFunc("/invoice/export.png", s.handleExportPNG).Methods(http.MethodGet)
	api.HandleFunc("/invoice/print.pdf", s.handlePrintPDF).Methods(http.MethodGet)
	api.HandleFunc("/plan", s.handleGetPlan).Methods(http.MethodGet)
	api.HandleFunc("/plan/confirm", s.handleConfirmPurchase).Methods(http.MethodPost)
	if s.allowOverride {
		api.HandleFunc("/plan/override", s.handleOverride).Methods(http.MethodPost)
	}
	return r
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// requestID tags every request with an id, reusing the caller's when sent.
func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)

		log := s.log.With("request_id", id)
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Debugw("request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Address,
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Infow("server listening", "address", s.cfg.Address)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.log.Infow("shutting down server")
		return srv.Shutdown(shutdownCtx)
	}
}

func exportName(ext string) string {
	return "invoice-" + uuid.NewString()[:8] + "." + ext
}
