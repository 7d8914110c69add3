package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) handleListQueue(w http.ResponseWriter, r *http.Request) {
	guid, ok := draftGUID(w, r)
	if !ok {
		return
	}
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	entries, err := h.queue.ListQueue(r.Context(), guid, actor)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *Handler) handleStageQueue(w http.ResponseWriter, r *http.Request) {
	guid, ok := draftGUID(w, r)
	if !ok {
		return
	}
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var body struct {
		Payload  string `json:"payload"`
		OptionID *int64 `json:"option_id,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "invalid request body")
		return
	}

	entry, err := h.queue.Stage(r.Context(), guid, actor, body.Payload, body.OptionID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (h *Handler) handleRemoveQueue(w http.ResponseWriter, r *http.Request) {
	guid, ok := draftGUID(w, r)
	if !ok {
		return
	}
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	entryID, err := strconv.ParseInt(chi.URLParam(r, "entryID"), 10, 64)
	if err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "invalid queue entry id")
		return
	}

	if err := h.queue.Remove(r.Context(), guid, actor, entryID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
