package models

// CuratedOption is one entry of a pre-seeded choice pool for non-freeform
// drafts. Used flips exactly once, atomically with the pick that consumes it.
type CuratedOption struct {
	ID      int64  `json:"id"`
	DraftID int64  `json:"-"`
	Text    string `json:"text"`
	Used    bool   `json:"used"`
}
