package httpapi

import (
	"encoding/json"
	"net/http"
)

func (h *Handler) handleRaiseChallenge(w http.ResponseWriter, r *http.Request) {
	guid, ok := draftGUID(w, r)
	if !ok {
		return
	}
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	ch, err := h.challenges.Raise(r.Context(), guid, actor)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ch)
}

func (h *Handler) handleCastVote(w http.ResponseWriter, r *http.Request) {
	guid, ok := draftGUID(w, r)
	if !ok {
		return
	}
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var body struct {
		Vote bool `json:"vote"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "invalid request body")
		return
	}

	status, err := h.challenges.Vote(r.Context(), guid, actor, body.Vote)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (h *Handler) handleChallengeStatus(w http.ResponseWriter, r *http.Request) {
	guid, ok := draftGUID(w, r)
	if !ok {
		return
	}

	status, err := h.challenges.GetStatus(r.Context(), guid, resolveActor(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// handleWindowCheck is the polling client's nudge for a lapsed challenge
// window. Actor-agnostic and idempotent.
func (h *Handler) handleWindowCheck(w http.ResponseWriter, r *http.Request) {
	guid, ok := draftGUID(w, r)
	if !ok {
		return
	}
	if err := h.windows.CheckExpiry(r.Context(), guid); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleFinishEarly(w http.ResponseWriter, r *http.Request) {
	guid, ok := draftGUID(w, r)
	if !ok {
		return
	}
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	if err := h.windows.FinishEarly(r.Context(), guid, actor); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
