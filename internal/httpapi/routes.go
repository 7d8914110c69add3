// Package httpapi exposes the draft engine over plain HTTP. The read path is
// polling-driven; clients are expected to refresh state and speculatively hit
// the trigger endpoints.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/draftnight/draftnight/internal/autopick"
	"github.com/draftnight/draftnight/internal/challenge"
	"github.com/draftnight/draftnight/internal/draft"
	"github.com/draftnight/draftnight/internal/pick"
)

// Handler bundles the app layer behind the HTTP surface.
type Handler struct {
	drafts     *draft.App
	picks      *pick.App
	autopicker *autopick.App
	queue      *autopick.QueueApp
	challenges *challenge.App
	windows    *challenge.WindowApp
}

// NewHandler creates the HTTP surface over the given apps.
func NewHandler(
	drafts *draft.App,
	picks *pick.App,
	autopicker *autopick.App,
	queue *autopick.QueueApp,
	challenges *challenge.App,
	windows *challenge.WindowApp,
) *Handler {
	return &Handler{
		drafts:     drafts,
		picks:      picks,
		autopicker: autopicker,
		queue:      queue,
		challenges: challenges,
		windows:    windows,
	}
}

// Routes builds the chi router.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/drafts", h.handleCreateDraft)
		r.Post("/autopick/sweep", h.handleSweep)

		r.Route("/drafts/{guid}", func(r chi.Router) {
			r.Get("/", h.handleGetState)
			r.Post("/join", h.handleJoin)
			r.Post("/ready", h.handleReady)
			r.Post("/start", h.handleStart)
			r.Post("/pause", h.handlePause)
			r.Post("/resume", h.handleResume)

			r.Post("/picks", h.handleSubmitPick)
			r.Post("/autopick/check", h.handleCheckAutoPick)
			r.Post("/autopick/admin", h.handleAdminAutoPick)

			r.Post("/challenge", h.handleRaiseChallenge)
			r.Post("/challenge/vote", h.handleCastVote)
			r.Get("/challenge", h.handleChallengeStatus)
			r.Post("/challenge-window/check", h.handleWindowCheck)
			r.Post("/finish", h.handleFinishEarly)

			r.Get("/queue", h.handleListQueue)
			r.Post("/queue", h.handleStageQueue)
			r.Delete("/queue/{entryID}", h.handleRemoveQueue)
		})
	})

	return r
}
