package gateway

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/galadraft/galadraft/internal/draft/engine"
	"github.com/galadraft/galadraft/internal/models"
)

// Handlers exposes the engine operations over HTTP. Authentication is the
// fronting layer's job; identity arrives as X-User-ID and X-Commissioner
// headers and is passed to the engine as an explicit Actor.
type Handlers struct {
	engine *engine.Service
	cm     *ConnectionManager
}

func NewHandlers(eng *engine.Service, cm *ConnectionManager) *Handlers {
	return &Handlers{engine: eng, cm: cm}
}

func (h *Handlers) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /drafts/{id}/start", h.handleStart)
	mux.HandleFunc("POST /drafts/{id}/pause", h.handlePause)
	mux.HandleFunc("POST /drafts/{id}/resume", h.handleResume)
	mux.HandleFunc("POST /drafts/{id}/pick", h.handlePick)
	mux.HandleFunc("POST /drafts/{id}/tick", h.handleTick)
	mux.HandleFunc("POST /drafts/{id}/cancel", h.handleCancel)
	mux.HandleFunc("POST /drafts/{id}/lock-override", h.handleLockOverride)
	mux.HandleFunc("PUT /drafts/{id}/autodraft/{userID}", h.handleAutodraft)
	mux.HandleFunc("GET /drafts/{id}/state", h.handleState)
	mux.HandleFunc("GET /drafts/{id}/ws", h.handleWebSocket)
	mux.HandleFunc("GET /healthz", h.handleHealthz)
	mux.HandleFunc("GET /stats", h.handleStats)
}

func (h *Handlers) handleStart(w http.ResponseWriter, r *http.Request) {
	draftID, actor, ok := h.requestIdentity(w, r)
	if !ok {
		return
	}
	d, err := h.engine.Start(r.Context(), draftID, actor)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *Handlers) handlePause(w http.ResponseWriter, r *http.Request) {
	draftID, actor, ok := h.requestIdentity(w, r)
	if !ok {
		return
	}
	d, err := h.engine.Pause(r.Context(), draftID, actor)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *Handlers) handleResume(w http.ResponseWriter, r *http.Request) {
	draftID, actor, ok := h.requestIdentity(w, r)
	if !ok {
		return
	}
	d, err := h.engine.Resume(r.Context(), draftID, actor)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *Handlers) handlePick(w http.ResponseWriter, r *http.Request) {
	draftID, actor, ok := h.requestIdentity(w, r)
	if !ok {
		return
	}

	var body struct {
		NominationID uuid.UUID `json:"nomination_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	pick, err := h.engine.ApplyPick(r.Context(), draftID, actor, body.NominationID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pick)
}

func (h *Handlers) handleTick(w http.ResponseWriter, r *http.Request) {
	draftID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid draft id", http.StatusBadRequest)
		return
	}

	applied, err := h.engine.Tick(r.Context(), draftID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"auto_picks_applied": applied})
}

func (h *Handlers) handleCancel(w http.ResponseWriter, r *http.Request) {
	draftID, actor, ok := h.requestIdentity(w, r)
	if !ok {
		return
	}
	if !actor.Commissioner {
		writeError(w, &engine.Error{Code: engine.CodeForbidden, Message: "only the commissioner can cancel a draft"})
		return
	}

	var body struct {
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if body.Reason == "" {
		body.Reason = "cancelled by commissioner"
	}

	d, err := h.engine.Cancel(r.Context(), draftID, body.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *Handlers) handleLockOverride(w http.ResponseWriter, r *http.Request) {
	draftID, actor, ok := h.requestIdentity(w, r)
	if !ok {
		return
	}

	var body struct {
		Allow bool `json:"allow"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	d, err := h.engine.SetLockOverride(r.Context(), draftID, actor, body.Allow)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *Handlers) handleAutodraft(w http.ResponseWriter, r *http.Request) {
	draftID, actor, ok := h.requestIdentity(w, r)
	if !ok {
		return
	}
	userID, err := uuid.Parse(r.PathValue("userID"))
	if err != nil {
		http.Error(w, "invalid user id", http.StatusBadRequest)
		return
	}

	var body struct {
		Enabled  bool                    `json:"enabled"`
		Strategy models.AutoPickStrategy `json:"strategy"`
		Plan     []uuid.UUID             `json:"plan,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	cfg := models.AutodraftConfig{
		DraftID:  draftID,
		UserID:   userID,
		Enabled:  body.Enabled,
		Strategy: body.Strategy,
		Plan:     body.Plan,
	}
	if err := h.engine.UpsertAutodraft(r.Context(), draftID, actor, cfg); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (h *Handlers) handleState(w http.ResponseWriter, r *http.Request) {
	draftID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid draft id", http.StatusBadRequest)
		return
	}

	snap, err := h.engine.Snapshot(r.Context(), draftID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *Handlers) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	draftID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid draft id", http.StatusBadRequest)
		return
	}

	userID := r.Header.Get("X-User-ID")
	if userID == "" {
		userID = "anonymous"
	}

	if err := h.cm.Upgrade(w, r, userID, draftID); err != nil {
		log.Error().Err(err).Str("draft_id", draftID.String()).Msg("failed to upgrade websocket")
	}
}

func (h *Handlers) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handlers) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.cm.Stats())
}

// requestIdentity parses the draft id from the path and the actor from
// the identity headers.
func (h *Handlers) requestIdentity(w http.ResponseWriter, r *http.Request) (uuid.UUID, engine.Actor, bool) {
	draftID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid draft id", http.StatusBadRequest)
		return uuid.Nil, engine.Actor{}, false
	}

	userID, err := uuid.Parse(r.Header.Get("X-User-ID"))
	if err != nil {
		http.Error(w, "missing or invalid X-User-ID header", http.StatusUnauthorized)
		return uuid.Nil, engine.Actor{}, false
	}

	return draftID, engine.Actor{
		UserID:       userID,
		Commissioner: r.Header.Get("X-Commissioner") == "true",
	}, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to write response")
	}
}

// writeError maps engine error codes onto HTTP statuses; anything without
// a code is an internal error.
func writeError(w http.ResponseWriter, err error) {
	var engErr *engine.Error
	if !errors.As(err, &engErr) {
		log.Error().Err(err).Msg("internal error")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	status := http.StatusConflict
	switch engErr.Code {
	case engine.CodeDraftNotFound:
		status = http.StatusNotFound
	case engine.CodeForbidden:
		status = http.StatusForbidden
	case engine.CodeNotEnoughParticipants, engine.CodeMissingNominations, engine.CodeInsufficientNoms:
		status = http.StatusUnprocessableEntity
	case engine.CodeAutodraftEmptyPool:
		log.Error().Err(err).Msg("autodraft internal inconsistency")
		status = http.StatusInternalServerError
	}

	writeJSON(w, status, map[string]string{
		"code":    string(engErr.Code),
		"message": engErr.Message,
	})
}
