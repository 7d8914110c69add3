package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/draftnight/draftnight/internal/pick"
)

func (h *Handler) handleSubmitPick(w http.ResponseWriter, r *http.Request) {
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

	committed, err := h.picks.SubmitPick(r.Context(), pick.SubmitPickRequest{
		DraftGUID: guid,
		Actor:     actor,
		Payload:   body.Payload,
		OptionID:  body.OptionID,
	})
	if err != nil {
		// A lost pick-number race is informational, not a hard failure: the
		// caller's turn already happened, most likely via auto-pick. Other
		// conflicts (draft not accepting picks) stay real errors.
		if errors.Is(err, pick.ErrPickNumberTaken) {
			writeJSON(w, http.StatusOK, map[string]string{
				"status": "already_picked",
			})
			return
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, committed)
}

// handleCheckAutoPick is unauthenticated by design: any viewer's client may
// speculatively trigger the expiry check on behalf of the idle player.
func (h *Handler) handleCheckAutoPick(w http.ResponseWriter, r *http.Request) {
	guid, ok := draftGUID(w, r)
	if !ok {
		return
	}
	if err := h.autopicker.CheckAndAutoPick(r.Context(), guid); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleAdminAutoPick(w http.ResponseWriter, r *http.Request) {
	guid, ok := draftGUID(w, r)
	if !ok {
		return
	}
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	if err := h.autopicker.ForceAutoPick(r.Context(), guid, actor); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSweep processes every eligible draft: expired turns get auto-picks
// and lapsed challenge windows are closed. Equivalent to one scheduler tick,
// for external periodic invokers.
func (h *Handler) handleSweep(w http.ResponseWriter, r *http.Request) {
	if err := h.autopicker.Sweep(r.Context(), sweepBatchSize); err != nil {
		writeError(w, err)
		return
	}
	if err := h.windows.SweepExpired(r.Context(), sweepBatchSize); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

const sweepBatchSize = 50
