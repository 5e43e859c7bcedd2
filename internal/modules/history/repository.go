// Package history keeps the deposit values already used by past plans and the
// operator's list of values to avoid. Both feed the avoid set of new plans.
package history

import (
	"context"
	"fmt"
	"time"

	"github.com/aristath/cpagateway/internal/modules/generator"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
)

// Repository handles deposit history persistence in history.db.
type Repository struct {
	db  *sqlx.DB
	log zerolog.Logger
}

// NewRepository creates a new history repository.
// db must be a handle on history.db opened with the "sqlite" driver.
func NewRepository(db *sqlx.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "history").Logger(),
	}
}

// Append inserts records in a single transaction.
// Records without a timestamp are stamped with the current time, and
// records without a kind or source get "deposit" and "manual".
func (r *Repository) Append(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin history append: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO deposit_history (value, kind, agent, source, recorded_at)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare history insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().Unix()
	for i := range records {
		rec := &records[i]
		if rec.Kind == "" {
			rec.Kind = generator.KindDeposit
		}
		if rec.Source == "" {
			rec.Source = SourceManual
		}
		if rec.RecordedAt == 0 {
			rec.RecordedAt = now
		}
		res, err := stmt.ExecContext(ctx, rec.Value, rec.Kind, rec.Agent, rec.Source, rec.RecordedAt)
		if err != nil {
			return fmt.Errorf("failed to insert history value %d: %w", rec.Value, err)
		}
		if id, err := res.LastInsertId(); err == nil {
			rec.ID = id
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit history append: %w", err)
	}

	r.log.Debug().Int("count", len(records)).Msg("Appended deposit history")
	return nil
}

// List returns the most recent records, newest first. limit <= 0 returns everything.
func (r *Repository) List(ctx context.Context, limit int) ([]Record, error) {
	query := `SELECT id, value, kind, agent, source, recorded_at
	          FROM deposit_history ORDER BY recorded_at DESC, id DESC`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	records := []Record{}
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list deposit history: %w", err)
	}
	return records, nil
}

// Since returns every record at or after t, oldest first.
func (r *Repository) Since(ctx context.Context, t time.Time) ([]Record, error) {
	records := []Record{}
	err := r.db.SelectContext(ctx, &records, `
		SELECT id, value, kind, agent, source, recorded_at
		FROM deposit_history
		WHERE recorded_at >= ?
		ORDER BY recorded_at ASC, id ASC
	`, t.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to query deposit history since %s: %w", t.Format(time.RFC3339), err)
	}
	return records, nil
}

// Values returns the (value, kind) pairs recorded at or after since.
// A zero since returns the whole history.
func (r *Repository) Values(ctx context.Context, since time.Time) ([]generator.HistoryRecord, error) {
	var cutoff int64
	if !since.IsZero() {
		cutoff = since.Unix()
	}

	values := []generator.HistoryRecord{}
	err := r.db.SelectContext(ctx, &values, `
		SELECT value, kind FROM deposit_history WHERE recorded_at >= ?
	`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to query history values: %w", err)
	}
	return values, nil
}

// PruneBefore deletes records older than t and returns how many were removed.
func (r *Repository) PruneBefore(ctx context.Context, t time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM deposit_history WHERE recorded_at < ?", t.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to prune deposit history: %w", err)
	}
	return res.RowsAffected()
}

// Count returns the number of stored records.
func (r *Repository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM deposit_history"); err != nil {
		return 0, fmt.Errorf("failed to count deposit history: %w", err)
	}
	return n, nil
}

// AddAvoidValues stores values to avoid. Existing values keep their original note.
func (r *Repository) AddAvoidValues(ctx context.Context, values []int, note string) error {
	if len(values) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin avoid insert: %w", err)
	}
	defer tx.Rollback()

	if err := insertAvoidValues(ctx, tx, values, note); err != nil {
		return err
	}
	return tx.Commit()
}

// ReplaceAvoidValues swaps the stored avoid list for values in one transaction.
func (r *Repository) ReplaceAvoidValues(ctx context.Context, values []int, note string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin avoid replace: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM avoid_values"); err != nil {
		return fmt.Errorf("failed to clear avoid values: %w", err)
	}
	if err := insertAvoidValues(ctx, tx, values, note); err != nil {
		return err
	}
	return tx.Commit()
}

func insertAvoidValues(ctx context.Context, tx *sqlx.Tx, values []int, note string) error {
	now := time.Now().Unix()
	for _, v := range values {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO avoid_values (value, note, created_at) VALUES (?, ?, ?)
			ON CONFLICT(value) DO NOTHING
		`, v, note, now)
		if err != nil {
			return fmt.Errorf("failed to insert avoid value %d: %w", v, err)
		}
	}
	return nil
}

// AvoidValues returns the stored avoid list ordered by value.
func (r *Repository) AvoidValues(ctx context.Context) ([]AvoidValue, error) {
	values := []AvoidValue{}
	if err := r.db.SelectContext(ctx, &values, "SELECT value, note, created_at FROM avoid_values ORDER BY value"); err != nil {
		return nil, fmt.Errorf("failed to list avoid values: %w", err)
	}
	return values, nil
}

// ClearAvoidValues removes every stored avoid value.
func (r *Repository) ClearAvoidValues(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM avoid_values")
	if err != nil {
		return 0, fmt.Errorf("failed to clear avoid values: %w", err)
	}
	return res.RowsAffected()
}
