package plans

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

// Repository stores plans in plans.db as msgpack blobs.
// Listing columns are kept next to the blob so List never decodes payloads.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new plan repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "plans").Logger(),
	}
}

// Save inserts or replaces a plan.
func (r *Repository) Save(ctx context.Context, plan *Plan) error {
	payload, err := msgpack.Marshal(plan)
	if err != nil {
		return fmt.Errorf("failed to encode plan %s: %w", plan.ID, err)
	}

	committed := 0
	if plan.Committed {
		committed = 1
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO plans (id, created_at, updated_at, player_count, committed, payload)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			updated_at = excluded.updated_at,
			player_count = excluded.player_count,
			committed = excluded.committed,
			payload = excluded.payload
	`, plan.ID.String(), plan.CreatedAt.Unix(), plan.UpdatedAt.Unix(), len(plan.Players), committed, payload)
	if err != nil {
		return fmt.Errorf("failed to save plan %s: %w", plan.ID, err)
	}

	r.log.Debug().
		Str("plan_id", plan.ID.String()).
		Int("bytes", len(payload)).
		Msg("Saved plan")
	return nil
}

// Get loads a plan. Returns ErrPlanNotFound when it does not exist.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*Plan, error) {
	var payload []byte
	err := r.db.QueryRowContext(ctx, "SELECT payload FROM plans WHERE id = ?", id.String()).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPlanNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load plan %s: %w", id, err)
	}

	var plan Plan
	if err := msgpack.Unmarshal(payload, &plan); err != nil {
		return nil, fmt.Errorf("failed to decode plan %s: %w", id, err)
	}
	return &plan, nil
}

// List returns plan headers, newest first. limit <= 0 returns everything.
func (r *Repository) List(ctx context.Context, limit int) ([]PlanInfo, error) {
	query := `SELECT id, created_at, updated_at, player_count, committed
	          FROM plans ORDER BY created_at DESC, id`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	defer rows.Close()

	infos := []PlanInfo{}
	for rows.Next() {
		var (
			id                   string
			createdAt, updatedAt int64
			info                 PlanInfo
		)
		if err := rows.Scan(&id, &createdAt, &updatedAt, &info.PlayerCount, &info.Committed); err != nil {
			return nil, fmt.Errorf("failed to scan plan row: %w", err)
		}
		parsed, err := uuid.Parse(id)
		if err != nil {
			r.log.Warn().Err(err).Str("plan_id", id).Msg("Skipping plan with malformed id")
			continue
		}
		info.ID = parsed
		info.CreatedAt = time.Unix(createdAt, 0).UTC()
		info.UpdatedAt = time.Unix(updatedAt, 0).UTC()
		infos = append(infos, info)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating plans: %w", err)
	}
	return infos, nil
}

// Delete removes a plan. Returns ErrPlanNotFound when it does not exist.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM plans WHERE id = ?", id.String())
	if err != nil {
		return fmt.Errorf("failed to delete plan %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete plan %s: %w", id, err)
	}
	if n == 0 {
		return ErrPlanNotFound
	}
	return nil
}
