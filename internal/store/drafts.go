package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/draftnight/draftnight/internal/apperr"
	"github.com/draftnight/draftnight/internal/draft"
	"github.com/draftnight/draftnight/internal/models"
	"github.com/draftnight/draftnight/internal/sqlutil"
)

const draftColumns = `id, guid, name, state, max_drafters, sec_per_round, rounds,
	current_position, turn_started_at, timer_paused, freeform, challenge_enabled,
	join_code, admin_actor_id, created_at`

func scanDraft(row interface{ Scan(...any) error }) (*models.Draft, error) {
	var d models.Draft
	var pos sql.NullInt64
	var turnStartedAt sql.NullTime
	var joinCode sql.NullString
	err := row.Scan(
		&d.ID, &d.GUID, &d.Name, &d.State, &d.MaxDrafters, &d.SecPerRound, &d.Rounds,
		&pos, &turnStartedAt, &d.TimerPaused, &d.Freeform, &d.ChallengeEnabled,
		&joinCode, &d.AdminActorID, &d.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if pos.Valid {
		p := int(pos.Int64)
		d.CurrentPositionOnClock = &p
	}
	if turnStartedAt.Valid {
		t := turnStartedAt.Time
		d.TurnStartedAt = &t
	}
	if joinCode.Valid {
		d.JoinCode = &joinCode.String
	}
	return &d, nil
}

// CreateDraft inserts the draft row and, for curated drafts, its option pool
// in one transaction.
func (s *Store) CreateDraft(ctx context.Context, params draft.CreateDraftParams) (*models.Draft, error) {
	var created *models.Draft
	err := sqlutil.Run(ctx, s.db, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, fmt.Sprintf(`
			INSERT INTO drafts (guid, name, state, max_drafters, sec_per_round, rounds,
				timer_paused, freeform, challenge_enabled, join_code, admin_actor_id)
			VALUES ($1, $2, $3, $4, $5, $6, false, $7, $8, $9, $10)
			RETURNING %s`, draftColumns),
			uuid.New(), params.Name, models.DraftStateSettingUp,
			params.MaxDrafters, params.SecPerRound, params.Rounds,
			params.Freeform, params.ChallengeEnabled, params.JoinCode, params.AdminActorID,
		)
		d, err := scanDraft(row)
		if err != nil {
			return apperr.Internal(err)
		}
		for _, text := range params.Options {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO curated_options (draft_id, text) VALUES ($1, $2)`,
				d.ID, text,
			); err != nil {
				return apperr.Internal(err)
			}
		}
		created = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// GetDraftByGUID fetches a draft by its external reference.
func (s *Store) GetDraftByGUID(ctx context.Context, guid uuid.UUID) (*models.Draft, error) {
	row := s.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT %s FROM drafts WHERE guid = $1`, draftColumns), guid)
	d, err := scanDraft(row)
	if err != nil {
		return nil, translateRowErr(err, "draft")
	}
	return d, nil
}

// GetDraftByJoinCode fetches a joinable draft by its ephemeral 4-digit code.
func (s *Store) GetDraftByJoinCode(ctx context.Context, code string) (*models.Draft, error) {
	row := s.db.QueryRowContext(ctx, fmt.Sprintf(
		`SELECT %s FROM drafts WHERE join_code = $1 AND state = $2`, draftColumns),
		code, models.DraftStateSettingUp)
	d, err := scanDraft(row)
	if err != nil {
		return nil, translateRowErr(err, "draft")
	}
	return d, nil
}

// ListActiveTimedDrafts returns active drafts with a turn timer, oldest turn
// first, bounded for the scheduler scan.
func (s *Store) ListActiveTimedDrafts(ctx context.Context, limit int) ([]models.Draft, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT %s FROM drafts
		WHERE state = $1 AND sec_per_round > 0
		ORDER BY turn_started_at ASC NULLS LAST
		LIMIT $2`, draftColumns),
		models.DraftStateActive, limit)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	defer rows.Close()

	var drafts []models.Draft
	for rows.Next() {
		d, err := scanDraft(rows)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		drafts = append(drafts, *d)
	}
	return drafts, rows.Err()
}

// ListChallengeWindowDraftGUIDs returns drafts sitting in a post-final-pick
// challenge window, for the bulk expiry sweep.
func (s *Store) ListChallengeWindowDraftGUIDs(ctx context.Context, limit int) ([]uuid.UUID, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT guid FROM drafts WHERE state = $1 ORDER BY turn_started_at ASC LIMIT $2`,
		models.DraftStateChallengeWindow, limit)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	defer rows.Close()

	var guids []uuid.UUID
	for rows.Next() {
		var g uuid.UUID
		if err := rows.Scan(&g); err != nil {
			return nil, apperr.Internal(err)
		}
		guids = append(guids, g)
	}
	return guids, rows.Err()
}

// StartDraft assigns seat positions, activates the draft, arms the first
// turn timer and clears the join code, atomically.
func (s *Store) StartDraft(ctx context.Context, draftID int64, positions map[string]int, turnStartedAt time.Time) error {
	return sqlutil.Run(ctx, s.db, func(tx *sql.Tx) error {
		for actorID, pos := range positions {
			if _, err := tx.ExecContext(ctx,
				`UPDATE participants SET position = $1 WHERE draft_id = $2 AND actor_id = $3`,
				pos, draftID, actorID,
			); err != nil {
				return apperr.Internal(err)
			}
		}
		_, err := tx.ExecContext(ctx, `
			UPDATE drafts
			SET state = $1, current_position = 1, turn_started_at = $2, join_code = NULL
			WHERE id = $3`,
			models.DraftStateActive, turnStartedAt, draftID)
		if err != nil {
			return apperr.Internal(err)
		}
		return nil
	})
}

// SetTimerPaused flips the pause flag, optionally re-arming the timer.
func (s *Store) SetTimerPaused(ctx context.Context, draftID int64, paused bool, turnStartedAt *time.Time) error {
	var err error
	if turnStartedAt != nil {
		_, err = s.db.ExecContext(ctx,
			`UPDATE drafts SET timer_paused = $1, turn_started_at = $2 WHERE id = $3`,
			paused, *turnStartedAt, draftID)
	} else {
		_, err = s.db.ExecContext(ctx,
			`UPDATE drafts SET timer_paused = $1 WHERE id = $2`, paused, draftID)
	}
	if err != nil {
		return apperr.Internal(err)
	}
	return nil
}

// CompleteDraft moves a draft to COMPLETED and clears the clock.
func (s *Store) CompleteDraft(ctx context.Context, draftID int64) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE drafts
		SET state = $1, current_position = NULL, turn_started_at = NULL
		WHERE id = $2`,
		models.DraftStateCompleted, draftID)
	if err != nil {
		return apperr.Internal(err)
	}
	return nil
}
