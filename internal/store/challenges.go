package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/draftnight/draftnight/internal/apperr"
	"github.com/draftnight/draftnight/internal/challenge"
	"github.com/draftnight/draftnight/internal/models"
	"github.com/draftnight/draftnight/internal/sqlutil"
)

const challengeColumns = `id, draft_id, pick_number, challenged_actor_id,
	challenger_actor_id, status, created_at, resolved_at`

func scanChallenge(row interface{ Scan(...any) error }) (*models.Challenge, error) {
	var c models.Challenge
	var resolvedAt sql.NullTime
	err := row.Scan(
		&c.ID, &c.DraftID, &c.PickNumber, &c.ChallengedActorID,
		&c.ChallengerActorID, &c.Status, &c.CreatedAt, &resolvedAt,
	)
	if err != nil {
		return nil, err
	}
	if resolvedAt.Valid {
		t := resolvedAt.Time
		c.ResolvedAt = &t
	}
	return &c, nil
}

// GetPendingChallenge returns the draft's single pending challenge, if any.
func (s *Store) GetPendingChallenge(ctx context.Context, draftID int64) (*models.Challenge, error) {
	row := s.db.QueryRowContext(ctx, fmt.Sprintf(
		`SELECT %s FROM challenges WHERE draft_id = $1 AND status = $2`, challengeColumns),
		draftID, models.ChallengeStatusPending)
	c, err := scanChallenge(row)
	if err != nil {
		return nil, translateRowErr(err, "pending challenge")
	}
	return c, nil
}

// CreateChallenge inserts the pending row and moves the draft into CHALLENGE
// in one transaction. The partial unique index on (draft_id) WHERE pending
// rejects a concurrent second challenge.
func (s *Store) CreateChallenge(ctx context.Context, draftID int64, pickNumber int, challengedActorID, challengerActorID string) (*models.Challenge, error) {
	var created *models.Challenge
	err := sqlutil.Run(ctx, s.db, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, fmt.Sprintf(`
			INSERT INTO challenges (draft_id, pick_number, challenged_actor_id, challenger_actor_id, status)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING %s`, challengeColumns),
			draftID, pickNumber, challengedActorID, challengerActorID,
			models.ChallengeStatusPending)
		c, err := scanChallenge(row)
		if err != nil {
			if isUniqueViolation(err) {
				return apperr.Conflict("a challenge is already pending")
			}
			return apperr.Internal(err)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE drafts SET state = $1 WHERE id = $2`,
			models.DraftStateChallenge, draftID,
		); err != nil {
			return apperr.Internal(err)
		}
		created = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// ListVotes returns all votes cast on a challenge.
func (s *Store) ListVotes(ctx context.Context, challengeID int64) ([]models.ChallengeVote, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, challenge_id, voter_actor_id, vote, created_at
		FROM challenge_votes WHERE challenge_id = $1 ORDER BY created_at, id`,
		challengeID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	defer rows.Close()

	var out []models.ChallengeVote
	for rows.Next() {
		var v models.ChallengeVote
		if err := rows.Scan(&v.ID, &v.ChallengeID, &v.VoterActorID, &v.Vote, &v.CreatedAt); err != nil {
			return nil, apperr.Internal(err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// InsertVote records one vote; the unique (challenge, voter) index rejects a
// second vote with a Conflict.
func (s *Store) InsertVote(ctx context.Context, challengeID int64, voterActorID string, vote bool) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO challenge_votes (challenge_id, voter_actor_id, vote) VALUES ($1, $2, $3)`,
		challengeID, voterActorID, vote)
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.Conflict("already voted")
		}
		return apperr.Internal(err)
	}
	return nil
}

// RollbackPick applies an upheld challenge atomically: resolve the
// challenge, delete the pick (releasing its curated option), and hand the
// clock back to the challenged seat with a fresh timer. The pending-only
// status guard makes resolution happen exactly once.
func (s *Store) RollbackPick(ctx context.Context, params challenge.RollbackParams) error {
	return sqlutil.Run(ctx, s.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE challenges SET status = $1, resolved_at = $2 WHERE id = $3 AND status = $4`,
			models.ChallengeStatusResolved, params.ResolvedAt, params.ChallengeID,
			models.ChallengeStatusPending)
		if err != nil {
			return apperr.Internal(err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return apperr.Conflict("challenge is no longer pending")
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE curated_options SET used = false
			WHERE id = (SELECT option_id FROM picks WHERE draft_id = $1 AND pick_number = $2)`,
			params.DraftID, params.PickNumber,
		); err != nil {
			return apperr.Internal(err)
		}

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM picks WHERE draft_id = $1 AND pick_number = $2`,
			params.DraftID, params.PickNumber,
		); err != nil {
			return apperr.Internal(err)
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE drafts SET state = $1, current_position = $2, turn_started_at = $3
			WHERE id = $4`,
			models.DraftStateActive, params.RestorePos, params.TurnStartedAt, params.DraftID,
		); err != nil {
			return apperr.Internal(err)
		}
		return nil
	})
}

// Dismiss applies a rejected challenge atomically, leaving the clock
// position untouched.
func (s *Store) Dismiss(ctx context.Context, params challenge.DismissParams) error {
	return sqlutil.Run(ctx, s.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE challenges SET status = $1, resolved_at = $2 WHERE id = $3 AND status = $4`,
			models.ChallengeStatusDismissed, params.ResolvedAt, params.ChallengeID,
			models.ChallengeStatusPending)
		if err != nil {
			return apperr.Internal(err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return apperr.Conflict("challenge is no longer pending")
		}

		if params.TurnStartedAt != nil {
			_, err = tx.ExecContext(ctx,
				`UPDATE drafts SET state = $1, turn_started_at = $2 WHERE id = $3`,
				params.NextState, *params.TurnStartedAt, params.DraftID)
		} else {
			_, err = tx.ExecContext(ctx,
				`UPDATE drafts SET state = $1 WHERE id = $2`,
				params.NextState, params.DraftID)
		}
		if err != nil {
			return apperr.Internal(err)
		}
		return nil
	})
}
