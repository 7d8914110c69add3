package main

import (
	"database/sql"

	"github.com/jonboulle/clockwork"

	"github.com/draftnight/draftnight/internal/autopick"
	"github.com/draftnight/draftnight/internal/challenge"
	"github.com/draftnight/draftnight/internal/draft"
	"github.com/draftnight/draftnight/internal/events"
	"github.com/draftnight/draftnight/internal/pick"
	"github.com/draftnight/draftnight/internal/store"
)

type Services struct {
	Store      *store.Store
	Drafts     *draft.App
	Picks      *pick.App
	AutoPicker *autopick.App
	Queue      *autopick.QueueApp
	Challenges *challenge.App
	Windows    *challenge.WindowApp
}

// setupServices wires the dependency chain: database -> store -> app layer.
// Every app shares the one store and the one clock.
func setupServices(db *sql.DB, publisher events.Publisher, clock clockwork.Clock) *Services {
	st := store.New(db)

	picks := pick.NewApp(st, publisher, clock)
	drafts := draft.NewApp(st, publisher, clock)
	autoPicker := autopick.NewApp(st, picks, clock)
	queue := autopick.NewQueueApp(st)
	challenges := challenge.NewApp(st, publisher, clock)
	windows := challenge.NewWindowApp(st, publisher, clock)

	return &Services{
		Store:      st,
		Drafts:     drafts,
		Picks:      picks,
		AutoPicker: autoPicker,
		Queue:      queue,
		Challenges: challenges,
		Windows:    windows,
	}
}
