package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/draftnight/draftnight/internal/apperr"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func writeErrorMsg(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// writeError maps the application error taxonomy onto HTTP statuses.
// Internal details are logged, never leaked.
func writeError(w http.ResponseWriter, err error) {
	switch apperr.KindOf(err) {
	case apperr.KindNotFound:
		writeErrorMsg(w, http.StatusNotFound, err.Error())
	case apperr.KindForbidden:
		writeErrorMsg(w, http.StatusForbidden, err.Error())
	case apperr.KindValidation:
		writeErrorMsg(w, http.StatusBadRequest, err.Error())
	case apperr.KindTimedOut:
		writeErrorMsg(w, http.StatusRequestTimeout, err.Error())
	case apperr.KindConflict:
		writeErrorMsg(w, http.StatusConflict, err.Error())
	case apperr.KindInvalidOption:
		writeErrorMsg(w, http.StatusUnprocessableEntity, err.Error())
	default:
		log.Error().Err(err).Msg("internal error")
		writeErrorMsg(w, http.StatusInternalServerError, "internal error")
	}
}
