package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/spherical/pdf2excel/internal/domain"
	"github.com/spherical/pdf2excel/internal/observability"
	"github.com/spherical/pdf2excel/internal/orders"
)

// Handler serves the command endpoints.
type Handler struct {
	logger   *observability.Logger
	commands Commands
}

// NewHandler creates a new handler.
func NewHandler(logger *observability.Logger, commands Commands) *Handler {
	return &Handler{
		logger:   logger.WithComponent("httpapi"),
		commands: commands,
	}
}

// ParseRequestDTO is the body of POST /api/v1/parse.
type ParseRequestDTO struct {
	Path  string `json:"path"`
	Merge bool   `json:"merge,omitempty"`
}

// MergedResultDTO is the parse response when merge is requested.
type MergedResultDTO struct {
	Items []orders.MergedItem `json:"items"`
	Info  domain.PdfInfo      `json:"info"`
}

// ExportRequestDTO is the body of POST /api/v1/export.
type ExportRequestDTO struct {
	Path  string             `json:"path"`
	Data  []domain.OrderItem `json:"data"`
	Info  *domain.PdfInfo    `json:"info"`
	Merge bool               `json:"merge,omitempty"`
}

// EnvironmentDTO is the response of GET /api/v1/environment.
type EnvironmentDTO struct {
	OK          bool   `json:"ok"`
	Interpreter string `json:"interpreter"`
	Script      string `json:"script"`
}

// ErrorDTO is the body of every error response.
type ErrorDTO struct {
	Error string           `json:"error"`
	Kind  domain.ErrorKind `json:"kind,omitempty"`
}

// Probe handles GET /api/v1/probe.
func (h *Handler) Probe(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"message": h.commands.Probe()})
}

// Parse handles POST /api/v1/parse.
func (h *Handler) Parse(w http.ResponseWriter, r *http.Request) {
	var req ParseRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, domain.ValidationError("invalid request body", err))
		return
	}
	if strings.TrimSpace(req.Path) == "" {
		h.writeError(w, domain.ValidationError("path is required", nil))
		return
	}

	result, err := h.commands.ParsePDF(r.Context(), req.Path)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if req.Merge {
		h.writeJSON(w, http.StatusOK, MergedResultDTO{Items: orders.MergeByPartNo(result.Items), Info: result.Info})
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

// Export handles POST /api/v1/export.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	var req ExportRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, domain.ValidationError("invalid request body", err))
		return
	}
	if strings.TrimSpace(req.Path) == "" {
		h.writeError(w, domain.ValidationError("path is required", nil))
		return
	}

	info := domain.DefaultPdfInfo()
	if req.Info != nil {
		info = *req.Info
	}
	items := req.Data
	if req.Merge {
		items = orders.Flatten(orders.MergeByPartNo(items))
	}

	if err := h.commands.ExportExcel(r.Context(), req.Path, items, info); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Environment handles GET /api/v1/environment.
func (h *Handler) Environment(w http.ResponseWriter, r *http.Request) {
	env := h.commands.Environment()
	h.writeJSON(w, http.StatusOK, EnvironmentDTO{
		OK:          h.commands.CheckEnvironment(),
		Interpreter: env.Interpreter,
		Script:      env.Script,
	})
}

// History handles GET /api/v1/history.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			h.writeError(w, domain.ValidationError("limit must be a non-negative integer", err))
			return
		}
		limit = n
	}

	entries, err := h.commands.History(r.Context(), limit)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if entries == nil {
		entries = []domain.Conversion{}
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"conversions": entries})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		h.logger.Warn().Err(err).Msg("Failed to write response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := statusFor(domain.KindOf(err))
	if status >= http.StatusInternalServerError {
		h.logger.Error().Err(err).Int("status", status).Msg("Request failed")
	}
	h.writeJSON(w, status, ErrorDTO{
		Error: domain.Message(err),
		Kind:  domain.KindOf(err),
	})
}

// statusFor maps an error kind to an HTTP status.
func statusFor(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindValidation, domain.KindScript:
		return http.StatusUnprocessableEntity
	case domain.KindProcess, domain.KindProtocol:
		return http.StatusBadGateway
	case domain.KindSpawn:
		return http.StatusServiceUnavailable
	case domain.KindTimeout:
		return http.StatusGatewayTimeout
	case domain.KindCancelled:
		return http.StatusRequestTimeout
	case domain.KindConfig:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}
