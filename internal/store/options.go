package store

import (
	"context"

	"github.com/draftnight/draftnight/internal/apperr"
	"github.com/draftnight/draftnight/internal/models"
)

// GetCuratedOption fetches one option from a draft's pool.
func (s *Store) GetCuratedOption(ctx context.Context, draftID, optionID int64) (*models.CuratedOption, error) {
	var o models.CuratedOption
	err := s.db.QueryRowContext(ctx,
		`SELECT id, draft_id, text, used FROM curated_options WHERE id = $1 AND draft_id = $2`,
		optionID, draftID).Scan(&o.ID, &o.DraftID, &o.Text, &o.Used)
	if err != nil {
		return nil, translateRowErr(err, "option")
	}
	return &o, nil
}

// ListUnusedOptions returns the remaining pool.
func (s *Store) ListUnusedOptions(ctx context.Context, draftID int64) ([]models.CuratedOption, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, draft_id, text, used FROM curated_options WHERE draft_id = $1 AND used = false ORDER BY id`,
		draftID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	defer rows.Close()

	var out []models.CuratedOption
	for rows.Next() {
		var o models.CuratedOption
		if err := rows.Scan(&o.ID, &o.DraftID, &o.Text, &o.Used); err != nil {
			return nil, apperr.Internal(err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
