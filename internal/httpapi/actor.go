package httpapi

import (
	"net/http"

	"github.com/draftnight/draftnight/internal/models"
)

// Header names the out-of-scope session layer uses to hand us a resolved
// identity. Users come pre-authenticated; guests carry an opaque
// client-held token.
const (
	headerUserID     = "X-User-ID"
	headerGuestToken = "X-Guest-Token"
)

// resolveActor extracts the request's actor, or nil for anonymous viewers.
func resolveActor(r *http.Request) *models.Actor {
	if id := r.Header.Get(headerUserID); id != "" {
		return &models.Actor{Kind: models.ActorKindUser, ID: id}
	}
	if token := r.Header.Get(headerGuestToken); token != "" {
		return &models.Actor{Kind: models.ActorKindGuest, ID: "guest:" + token}
	}
	return nil
}

// requireActor is like resolveActor but rejects anonymous requests.
func requireActor(w http.ResponseWriter, r *http.Request) (models.Actor, bool) {
	actor := resolveActor(r)
	if actor == nil {
		writeErrorMsg(w, http.StatusUnauthorized, "an identity header is required")
		return models.Actor{}, false
	}
	return *actor, true
}
