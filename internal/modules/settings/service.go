package settings

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"
)

// Service exposes typed settings on top of the repository.
type Service struct {
	repo *Repository
	log  zerolog.Logger
}

// NewService creates a new settings service
func NewService(repo *Repository, log zerolog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log.With().Str("service", "settings").Logger(),
	}
}

// GetAll returns every scalar default overlaid with the stored values.
// Stored values that parse as numbers are returned as float64.
func (s *Service) GetAll(ctx context.Context) (map[string]interface{}, error) {
	stored, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	result := make(map[string]interface{}, len(SettingDefaults)+len(stored))
	for key, def := range SettingDefaults {
		result[key] = def
	}
	for key, value := range stored {
		if key == KeyGeneratorDefaults {
			continue
		}
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			result[key] = f
			continue
		}
		result[key] = value
	}
	return result, nil
}

// HistoryWindowDays returns how many days of history feed the avoid set.
func (s *Service) HistoryWindowDays(ctx context.Context) (int, error) {
	def := int(SettingDefaults[KeyHistoryWindowDays].(float64))
	return s.repo.GetInt(ctx, KeyHistoryWindowDays, def)
}

// SetHistoryWindowDays stores the history window. Negative windows are rejected.
func (s *Service) SetHistoryWindowDays(ctx context.Context, days int) error {
	if days < 0 {
		return fmt.Errorf("%s must not be negative, got %d", KeyHistoryWindowDays, days)
	}
	desc := SettingDescriptions[KeyHistoryWindowDays]
	return s.repo.Set(ctx, KeyHistoryWindowDays, strconv.Itoa(days), &desc)
}

// GeneratorDefaults returns the stored generator defaults, or the built-in ones
// when none were saved.
func (s *Service) GeneratorDefaults(ctx context.Context) (GeneratorDefaults, error) {
	defaults := DefaultGeneratorDefaults()
	found, err := s.repo.GetJSON(ctx, KeyGeneratorDefaults, &defaults)
	if err != nil {
		return DefaultGeneratorDefaults(), err
	}
	if !found {
		s.log.Debug().Msg("No stored generator defaults, using built-in values")
	}
	return defaults, nil
}

// SaveGeneratorDefaults validates and stores new generator defaults.
func (s *Service) SaveGeneratorDefaults(ctx context.Context, defaults GeneratorDefaults) error {
	if err := defaults.Validate(); err != nil {
		return err
	}
	desc := SettingDescriptions[KeyGeneratorDefaults]
	if err := s.repo.SetJSON(ctx, KeyGeneratorDefaults, defaults, &desc); err != nil {
		return err
	}
	s.log.Info().
		Int("agents", defaults.Agents).
		Msg("Generator defaults updated")
	return nil
}
