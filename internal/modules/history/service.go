package history

import (
	"context"
	"fmt"
	"time"

	"github.com/aristath/cpagateway/internal/modules/generator"
	"github.com/rs/zerolog"
)

// WindowProvider reports how many days of history feed the avoid set.
// Zero means the whole history.
type WindowProvider interface {
	HistoryWindowDays(ctx context.Context) (int, error)
}

// FixedWindow is a WindowProvider with a constant window.
type FixedWindow int

// HistoryWindowDays implements WindowProvider.
func (w FixedWindow) HistoryWindowDays(context.Context) (int, error) {
	return int(w), nil
}

// Service builds avoid sets from the stored history.
type Service struct {
	repo   *Repository
	window WindowProvider
	now    func() time.Time
	log    zerolog.Logger
}

// NewService creates a new history service
func NewService(repo *Repository, window WindowProvider, log zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		window: window,
		now:    time.Now,
		log:    log.With().Str("service", "history").Logger(),
	}
}

// Repository returns the underlying repository.
func (s *Service) Repository() *Repository {
	return s.repo
}

// cutoff returns the oldest timestamp still inside the window, or the zero time
// when the window is unlimited.
func (s *Service) cutoff(ctx context.Context) (time.Time, error) {
	days, err := s.window.HistoryWindowDays(ctx)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read history window: %w", err)
	}
	if days <= 0 {
		return time.Time{}, nil
	}
	return s.now().AddDate(0, 0, -days), nil
}

// BuildAvoidSet returns the values a new plan must avoid: the history inside the
// window, the stored avoid list and whatever numbers manualText contains.
func (s *Service) BuildAvoidSet(ctx context.Context, manualText string) (*generator.AvoidSet, error) {
	since, err := s.cutoff(ctx)
	if err != nil {
		return nil, err
	}

	records, err := s.repo.Values(ctx, since)
	if err != nil {
		return nil, err
	}

	stored, err := s.repo.AvoidValues(ctx)
	if err != nil {
		return nil, err
	}

	historyCount := len(records)
	for _, v := range stored {
		records = append(records, generator.HistoryRecord{Value: v.Value, Kind: generator.KindDeposit})
	}

	set := generator.NewAvoidSet(records, manualText)
	s.log.Debug().
		Int("history", historyCount).
		Int("stored", len(stored)).
		Int("size", set.Len()).
		Msg("Built avoid set")
	return set, nil
}

// RecordText parses every number in text and appends it as a manual deposit.
// It returns the stored records.
func (s *Service) RecordText(ctx context.Context, text string, agent int) ([]Record, error) {
	values := generator.ParseAvoidValues(text)
	records := make([]Record, len(values))
	for i, v := range values {
		records[i] = Record{Value: v, Kind: generator.KindDeposit, Agent: agent, Source: SourceManual}
	}
	if err := s.Record(ctx, records); err != nil {
		return nil, err
	}
	return records, nil
}

// Record appends records to the history. Non-positive values and unknown kinds are rejected.
func (s *Service) Record(ctx context.Context, records []Record) error {
	now := s.now().Unix()
	for i := range records {
		if records[i].Value <= 0 {
			return fmt.Errorf("%w: value must be positive, got %d", ErrInvalidRecord, records[i].Value)
		}
		if records[i].Kind != "" && !records[i].Kind.Valid() {
			return fmt.Errorf("%w: unknown kind %q", ErrInvalidRecord, records[i].Kind)
		}
		if records[i].RecordedAt == 0 {
			records[i].RecordedAt = now
		}
	}
	return s.repo.Append(ctx, records)
}

// List returns the newest records and the total count.
func (s *Service) List(ctx context.Context, limit int) ([]Record, int, error) {
	records, err := s.repo.List(ctx, limit)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

// Prune removes records that fell out of the window. Nothing is removed when the
// window is unlimited.
func (s *Service) Prune(ctx context.Context) (int64, error) {
	since, err := s.cutoff(ctx)
	if err != nil {
		return 0, err
	}
	if since.IsZero() {
		return 0, nil
	}

	removed, err := s.repo.PruneBefore(ctx, since)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		s.log.Info().Int64("removed", removed).Time("before", since).Msg("Pruned deposit history")
	}
	return removed, nil
}

// AvoidValues returns the stored avoid list.
func (s *Service) AvoidValues(ctx context.Context) ([]AvoidValue, error) {
	return s.repo.AvoidValues(ctx)
}

// ReplaceAvoidText replaces the stored avoid list with the numbers found in text.
func (s *Service) ReplaceAvoidText(ctx context.Context, text, note string) ([]int, error) {
	values := generator.ParseAvoidValues(text)
	if err := s.repo.ReplaceAvoidValues(ctx, values, note); err != nil {
		return nil, err
	}
	s.log.Info().Int("count", len(values)).Msg("Replaced avoid values")
	return values, nil
}

// AddAvoidText adds the numbers found in text to the stored avoid list.
func (s *Service) AddAvoidText(ctx context.Context, text, note string) ([]int, error) {
	values := generator.ParseAvoidValues(text)
	if err := s.repo.AddAvoidValues(ctx, values, note); err != nil {
		return nil, err
	}
	return values, nil
}

// ClearAvoidValues empties the stored avoid list.
func (s *Service) ClearAvoidValues(ctx context.Context) (int64, error) {
	return s.repo.ClearAvoidValues(ctx)
}
