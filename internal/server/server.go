// Package server exposes the desk facade over HTTP.
//
// One operator drives the desk at a time, so every handler serializes
// through the shared session.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/aquarisk/workbench/internal/enrich"
	"github.com/aquarisk/workbench/internal/model"
	"github.com/aquarisk/workbench/internal/report"
	"github.com/aquarisk/workbench/internal/session"
	"github.com/aquarisk/workbench/internal/store"
	"github.com/aquarisk/workbench/pkg/staticmap"
)

// Server bundles the desk facade behind an HTTP router.
type Server struct {
	store  store.Store
	orch   *enrich.Orchestrator
	report *report.Builder
	maps   staticmap.Renderer

	mu      sync.Mutex
	session *session.SessionContext

	allowedOrigins []string
}

// New assembles a server. orch and maps may be nil; the corresponding
// endpoints then degrade (no enrichment providers, report without map).
func New(st store.Store, orch *enrich.Orchestrator, maps staticmap.Renderer, allowedOrigins []string) *Server {
	return &Server{
		store:          st,
		orch:           orch,
		report:         report.NewBuilder(),
		maps:           maps,
		session:        session.New(st),
		allowedOrigins: allowedOrigins,
	}
}

// Router builds the HTTP routing table.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	origins := s.allowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/clients", func(r chi.Router) {
		r.Get("/", s.handleListClients)
		r.Post("/", s.handleCreateClient)
		r.Route("/{clientID}", func(r chi.Router) {
			r.Get("/sites", s.handleListSites)
			r.Post("/sites", s.handleCreateSite)
		})
	})

	r.Route("/sites", func(r chi.Router) {
		r.Get("/", s.handleListAllSites)
		r.Route("/{siteID}", func(r chi.Router) {
			r.Get("/audits", s.handleListAudits)
			r.Post("/audits", s.handleSaveAudit)
			r.Get("/report", s.handleReport)
		})
	})

	r.Get("/audits/{auditID}", s.handleLoadAudit)
	r.Post("/enrich", s.handleEnrich)
	r.Post("/score", s.handleScore)
	r.Get("/portfolio", s.handlePortfolio)

	return r
}

// Serve runs the server until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		zap.L().Info("shutting down server")
		shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutCtx) //nolint:errcheck
	}()

	zap.L().Info("starting server", zap.Int("port", port))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return eris.Wrap(err, "server: listen")
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := s.store.ListClients(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, clients)
}

func (s *Server) handleCreateClient(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name   string `json:"name"`
		Sector string `json:"sector"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, eris.Wrap(session.ErrInput, "invalid request body"))
		return
	}
	if req.Name == "" {
		writeError(w, eris.Wrap(session.ErrInput, "name is required"))
		return
	}
	if _, ok := model.ResolveSector(req.Sector); !ok {
		writeError(w, eris.Wrapf(session.ErrInput, "unknown sector %q", req.Sector))
		return
	}
	c, err := s.store.CreateClient(r.Context(), req.Name, req.Sector)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleListSites(w http.ResponseWriter, r *http.Request) {
	clientID, err := pathID(r, "clientID")
	if err != nil {
		writeError(w, err)
		return
	}
	sites, err := s.store.ListSites(r.Context(), clientID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sites)
}

func (s *Server) handleCreateSite(w http.ResponseWriter, r *http.Request) {
	clientID, err := pathID(r, "clientID")
	if err != nil {
		writeError(w, err)
		return
	}
	var site model.Site
	if err := json.NewDecoder(r.Body).Decode(&site); err != nil {
		writeError(w, eris.Wrap(session.ErrInput, "invalid request body"))
		return
	}
	if site.Name == "" {
		writeError(w, eris.Wrap(session.ErrInput, "name is required"))
		return
	}
	site.ClientID = clientID
	created, err := s.store.CreateSite(r.Context(), site)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleListAllSites(w http.ResponseWriter, r *http.Request) {
	sites, err := s.store.ListAllSites(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sites)
}

func (s *Server) handleListAudits(w http.ResponseWriter, r *http.Request) {
	siteID, err := pathID(r, "siteID")
	if err != nil {
		writeError(w, err)
		return
	}
	audits, err := s.store.ListAudits(r.Context(), siteID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, audits)
}

// handleSaveAudit selects the site, applies the posted inputs to the
// working snapshot and appends the scored audit.
func (s *Server) handleSaveAudit(w http.ResponseWriter, r *http.Request) {
	siteID, err := pathID(r, "siteID")
	if err != nil {
		writeError(w, err)
		return
	}
	var req auditInputs
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, eris.Wrap(session.ErrInput, "invalid request body"))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.session.SelectSite(r.Context(), siteID); err != nil {
		writeError(w, err)
		return
	}
	if err := applyInputs(s.session, req); err != nil {
		writeError(w, err)
		return
	}
	audit, err := s.session.SaveAudit(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, audit)
}

func (s *Server) handleLoadAudit(w http.ResponseWriter, r *http.Request) {
	auditID, err := pathID(r, "auditID")
	if err != nil {
		writeError(w, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.session.LoadAudit(r.Context(), auditID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"snapshot": s.session.Snapshot(),
		"score":    s.session.Score(),
	})
}

func (s *Server) handleEnrich(w http.ResponseWriter, r *http.Request) {
	if s.orch == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "enrichment providers not configured"})
		return
	}
	var req enrich.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, eris.Wrap(session.ErrInput, "invalid request body"))
		return
	}
	bundle := s.orch.Run(r.Context(), req)

	s.mu.Lock()
	s.session.ApplyBundle(bundle)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, bundle)
}

func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	var req auditInputs
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, eris.Wrap(session.ErrInput, "invalid request body"))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := applyInputs(s.session, req); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.session.Score())
}

// handleReport renders the one-page PDF for a site's latest state.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	siteID, err := pathID(r, "siteID")
	if err != nil {
		writeError(w, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.session.SelectSite(r.Context(), siteID); err != nil {
		writeError(w, err)
		return
	}
	snap := s.session.Snapshot()

	var mapPath string
	if s.maps != nil && !snap.Unlocated {
		path, err := s.maps.Render(r.Context(), snap.Lat, snap.Lon)
		if err != nil {
			zap.L().Warn("server: map unavailable", zap.Error(err))
		} else {
			mapPath = path
			defer os.Remove(mapPath) //nolint:errcheck
		}
	}

	pdf, err := s.report.Build(report.Input{
		Snapshot: snap,
		Score:    s.session.Score(),
		MapPath:  mapPath,
		Date:     time.Now(),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=audit-site-%d.pdf", siteID))
	w.WriteHeader(http.StatusOK)
	w.Write(pdf) //nolint:errcheck
}

func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	rows, err := s.store.Portfolio(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// auditInputs are the analyst-editable snapshot fields accepted over
// HTTP. Pointers distinguish "absent" from zero.
type auditInputs struct {
	Valuation       *float64 `json:"valuation,omitempty"`
	Sector          *string  `json:"sector,omitempty"`
	SupplierRiskPct *float64 `json:"supplier_risk_pct,omitempty"`
	ReuseInvest     *bool    `json:"reuse_invest,omitempty"`
	LegalPressure   *float64 `json:"legal_pressure,omitempty"`
	ImageRisk       *float64 `json:"image_risk,omitempty"`
}

func applyInputs(sess *session.SessionContext, in auditInputs) error {
	if in.Valuation != nil {
		if err := sess.SetValuation(*in.Valuation); err != nil {
			return err
		}
	}
	if in.Sector != nil {
		if err := sess.SetSector(*in.Sector); err != nil {
			return err
		}
	}
	if in.SupplierRiskPct != nil {
		if err := sess.SetSupplierRisk(*in.SupplierRiskPct); err != nil {
			return err
		}
	}
	if in.ReuseInvest != nil {
		sess.SetReuseInvest(*in.ReuseInvest)
	}
	if in.LegalPressure != nil || in.ImageRisk != nil {
		snap := sess.Snapshot()
		legal, image := snap.LegalPressure, snap.ImageRisk
		if in.LegalPressure != nil {
			legal = *in.LegalPressure
		}
		if in.ImageRisk != nil {
			image = *in.ImageRisk
		}
		if err := sess.SetParameters(legal, image); err != nil {
			return err
		}
	}
	return nil
}

func pathID(r *http.Request, key string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, key), 10, 64)
	if err != nil || id <= 0 {
		return 0, eris.Wrapf(session.ErrInput, "invalid %s", key)
	}
	return id, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case eris.Is(err, session.ErrInput):
		status = http.StatusBadRequest
	case eris.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case eris.Is(err, store.ErrDuplicate):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		zap.L().Error("server: request failed", zap.Error(err))
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
