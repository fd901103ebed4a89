package api

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/vaultid/internal/models"
	"github.com/starford/vaultid/internal/noteservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc *noteservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *noteservice.Service) *Handler {
	return &Handler{svc: svc}
}

// notePath extracts the note path from /api/notes/{path}/id.
// Supports encoded slashes from OpenAPI clients (e.g. topics%2Fnote.md).
func notePath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	raw, ok := strings.CutSuffix(raw, "/id")
	if !ok || raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// ListSchemes handles GET /api/schemes.
//
//	@Summary		List identifier schemes
//	@Tags			schemes
//	@Produce		json
//	@Success		200	{object}	SchemeListResponse
//	@Security		BearerAuth
//	@Router			/schemes [get]
func (h *Handler) ListSchemes(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.Schemes(r.Context())
	if err != nil {
		writeError(w, "list schemes", err)
		return
	}
	writeJSON(w, http.StatusOK, SchemeListResponse{Schemes: list})
}

// Stats handles GET /api/stats.
//
//	@Summary		Count notes carrying an id, per scheme
//	@Tags			stats
//	@Produce		json
//	@Success		200	{object}	StatsResponse
//	@Security		BearerAuth
//	@Router			/stats [get]
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	rep, err := h.svc.Stats(r.Context())
	if err != nil {
		writeError(w, "stats", err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// AssignNote handles POST /api/notes/*/id.
//
//	@Summary		Add or refresh the id of one note
//	@Tags			notes
//	@Produce		json
//	@Param			path	path		string	true	"Note path"
//	@Param			force	query		bool	false	"Replace an existing id"
//	@Success		200		{object}	AssignResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{path}/id [post]
func (h *Handler) AssignNote(w http.ResponseWriter, r *http.Request) {
	path := notePath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	force := false
	if v := r.URL.Query().Get("force"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("force must be a boolean"))
			return
		}
		force = b
	}
	res, err := h.svc.AssignNote(r.Context(), path, force)
	if err != nil {
		writeError(w, "assign", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Bulk handles POST /api/bulk. Progress is streamed on /api/events.
//
//	@Summary		Add or remove ids across the vault
//	@Tags			bulk
//	@Accept			json
//	@Produce		json
//	@Param			body	body		BulkRequest	true	"Scheme and operation"
//	@Success		200		{object}	BulkResponse
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/bulk [post]
func (h *Handler) Bulk(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req BulkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := validation.ValidateStruct(&req,
		validation.Field(&req.Operation, validation.Required,
			validation.In(models.OperationAdd, models.OperationRemove)),
	); err != nil {
		writeError(w, "bulk", err)
		return
	}
	res, err := h.svc.Bulk(r.Context(), req.Scheme, req.Operation, nil)
	if err != nil {
		writeError(w, "bulk", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// GetSettings handles GET /api/settings.
//
//	@Summary		Read identifier settings
//	@Tags			settings
//	@Produce		json
//	@Success		200	{object}	SettingsDTO
//	@Security		BearerAuth
//	@Router			/settings [get]
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Settings(r.Context())
	if err != nil {
		writeError(w, "get settings", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// PutSettings handles PUT /api/settings.
//
//	@Summary		Replace identifier settings
//	@Tags			settings
//	@Accept			json
//	@Produce		json
//	@Param			body	body		SettingsDTO	true	"New settings"
//	@Success		200		{object}	SettingsDTO
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/settings [put]
func (h *Handler) PutSettings(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req SettingsDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	st, err := h.svc.UpdateSettings(r.Context(), req)
	if err != nil {
		writeError(w, "put settings", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}
