package rest

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/crosscontext/crosscontext-backend/internal/domain/access"
	"github.com/crosscontext/crosscontext-backend/internal/domain/audit"
	"github.com/crosscontext/crosscontext-backend/internal/domain/consent"
	"github.com/crosscontext/crosscontext-backend/internal/domain/errors"
	"github.com/crosscontext/crosscontext-backend/internal/domain/record"
	consentsvc "github.com/crosscontext/crosscontext-backend/internal/service/consent"
	"github.com/crosscontext/crosscontext-backend/internal/service/mediation"
)

// AuditScanner is the compliance read path over the audit log
type AuditScanner interface {
	Scan(ctx context.Context, limit int) ([]audit.Entry, error)
}

// Handlers carries the API's dependencies. Identity-provider integration is
// out of scope: caller id and clearance arrive in the request body and are
// trusted as-is.
type Handlers struct {
	logger   *zap.Logger
	svc      *mediation.Service
	consents *consentsvc.Coordinator
	auditLog AuditScanner
	version  string
}

// NewHandlers builds the API handler set
func NewHandlers(logger *zap.Logger, svc *mediation.Service, consents *consentsvc.Coordinator, auditLog AuditScanner, version string) *Handlers {
	return &Handlers{
		logger:   logger,
		svc:      svc,
		consents: consents,
		auditLog: auditLog,
		version:  version,
	}
}

// sourceRoutes maps URL path segments to source types
var sourceRoutes = map[string]record.SourceType{
	"emails":       record.SourceEmail,
	"calendar":     record.SourceCalendarEvent,
	"documents":    record.SourceDocument,
	"stakeholders": record.SourceStakeholder,
	"policies":     record.SourcePolicy,
}

// RegisterRoutes attaches all endpoints to the mux
func (h *Handlers) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/briefing/plan", h.handlePlan)
	mux.HandleFunc("POST /api/v1/briefing/{source}", h.handleFetch)
	mux.HandleFunc("GET /api/v1/consents/pending", h.handlePendingConsents)
	mux.HandleFunc("GET /api/v1/consents/{id}", h.handleGetConsent)
	mux.HandleFunc("POST /api/v1/consents/{id}/grant", h.handleGrantConsent)
	mux.HandleFunc("POST /api/v1/consents/{id}/deny", h.handleDenyConsent)
	mux.HandleFunc("GET /api/v1/audit", h.handleAuditScan)
	mux.HandleFunc("GET /healthz", h.handleHealth)
}

type fetchRequest struct {
	CallerID      string `json:"caller_id"`
	Clearance     string `json:"clearance"`
	Query         string `json:"query"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

func (h *Handlers) handleFetch(w http.ResponseWriter, r *http.Request) {
	source, ok := sourceRoutes[r.PathValue("source")]
	if !ok {
		writeError(w, http.StatusNotFound, "UNKNOWN_SOURCE", "unknown briefing source")
		return
	}

	var req fetchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "request body must be valid JSON")
		return
	}

	env, err := h.svc.Mediate(r.Context(), mediation.FetchRequest{
		CallerID:      req.CallerID,
		Clearance:     access.ClearanceLevel(req.Clearance),
		Source:        source,
		Query:         req.Query,
		CorrelationID: req.CorrelationID,
	})
	if err != nil {
		h.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, env)
}

type planRequest struct {
	CallerID      string     `json:"caller_id"`
	Clearance     string     `json:"clearance"`
	Operation     string     `json:"operation,omitempty"`
	CorrelationID string     `json:"correlation_id,omitempty"`
	Steps         []planStep `json:"steps"`
}

type planStep struct {
	Source string `json:"source"`
	Query  string `json:"query"`
}

func (h *Handlers) handlePlan(w http.ResponseWriter, r *http.Request) {
	var req planRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "request body must be valid JSON")
		return
	}

	steps := make([]mediation.PlanStep, 0, len(req.Steps))
	for _, s := range req.Steps {
		source, ok := sourceRoutes[s.Source]
		if !ok {
			// Accept raw source type names too.
			parsed, err := record.ParseSourceType(s.Source)
			if err != nil {
				writeError(w, http.StatusBadRequest, "UNKNOWN_SOURCE", "unknown source in plan: "+s.Source)
				return
			}
			source = parsed
		}
		steps = append(steps, mediation.PlanStep{Source: source, Query: s.Query})
	}

	env, err := h.svc.ExecutePlan(r.Context(), mediation.PlanRequest{
		CallerID:      req.CallerID,
		Clearance:     access.ClearanceLevel(req.Clearance),
		Operation:     req.Operation,
		CorrelationID: req.CorrelationID,
		Steps:         steps,
	})
	if err != nil {
		h.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, env)
}

func (h *Handlers) handlePendingConsents(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"pending": h.consents.Pending(),
	})
}

func (h *Handlers) handleGetConsent(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_CONSENT_ID", "consent id must be a UUID")
		return
	}
	req, err := h.consents.Get(id)
	if err != nil {
		h.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

type denyRequest struct {
	Reason string `json:"reason,omitempty"`
}

func (h *Handlers) handleGrantConsent(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_CONSENT_ID", "consent id must be a UUID")
		return
	}
	if err := h.consents.Grant(id); err != nil {
		h.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "state": consent.StateGranted})
}

func (h *Handlers) handleDenyConsent(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_CONSENT_ID", "consent id must be a UUID")
		return
	}
	var req denyRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req) // body is optional
	}
	if err := h.consents.Deny(id, req.Reason); err != nil {
		h.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "state": consent.StateDenied})
}

func (h *Handlers) handleAuditScan(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "INVALID_LIMIT", "limit must be a non-negative integer")
			return
		}
		limit = parsed
	}

	entries, err := h.auditLog.Scan(r.Context(), limit)
	if err != nil {
		h.writeAppError(w, err)
		return
	}
	if entries == nil {
		entries = []audit.Entry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"entries": entries,
		"count":   len(entries),
	})
}

func (h *Handlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": h.version,
	})
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	var resp errorResponse
	resp.Error.Code = code
	resp.Error.Message = message
	writeJSON(w, status, resp)
}

// writeAppError maps domain errors to HTTP responses without leaking
// internals: only the typed code and message cross the boundary.
func (h *Handlers) writeAppError(w http.ResponseWriter, err error) {
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		writeError(w, appErr.StatusCode, appErr.Code, appErr.Message)
		return
	}
	h.logger.Error("unclassified error reached the API boundary", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred")
}
