package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/draftnight/draftnight/internal/draft"
)

// draftGUID parses the {guid} path parameter.
func draftGUID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	guid, err := uuid.Parse(chi.URLParam(r, "guid"))
	if err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "invalid draft reference")
		return uuid.Nil, false
	}
	return guid, true
}

func (h *Handler) handleCreateDraft(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req draft.CreateDraftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := h.drafts.CreateDraft(r.Context(), actor, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleGetState(w http.ResponseWriter, r *http.Request) {
	guid, ok := draftGUID(w, r)
	if !ok {
		return
	}

	state, err := h.drafts.GetState(r.Context(), guid, resolveActor(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (h *Handler) handleJoin(w http.ResponseWriter, r *http.Request) {
	guid, ok := draftGUID(w, r)
	if !ok {
		return
	}
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req draft.JoinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "invalid request body")
		return
	}

	participant, err := h.drafts.Join(r.Context(), guid, actor, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, participant)
}

func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	guid, ok := draftGUID(w, r)
	if !ok {
		return
	}
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req struct {
		Ready bool `json:"ready"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.drafts.SetReady(r.Context(), guid, actor, req.Ready); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleStart(w http.ResponseWriter, r *http.Request) {
	guid, ok := draftGUID(w, r)
	if !ok {
		return
	}
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	started, err := h.drafts.Start(r.Context(), guid, actor)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, started)
}

func (h *Handler) handlePause(w http.ResponseWriter, r *http.Request) {
	guid, ok := draftGUID(w, r)
	if !ok {
		return
	}
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	if err := h.drafts.PauseTimer(r.Context(), guid, actor); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleResume(w http.ResponseWriter, r *http.Request) {
	guid, ok := draftGUID(w, r)
	if !ok {
		return
	}
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	if err := h.drafts.ResumeTimer(r.Context(), guid, actor); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
