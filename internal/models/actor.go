package models

// ActorKind distinguishes authenticated users from guests identified by a
// client-held token. Core logic only ever compares actor IDs.
type ActorKind string

const (
	ActorKindUser  ActorKind = "USER"
	ActorKindGuest ActorKind = "GUEST"
)

// Actor is the resolved identity behind a request, user or guest.
type Actor struct {
	Kind ActorKind `json:"kind"`
	ID   string    `json:"id"`
}
