package plans

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/aristath/cpagateway/internal/modules/generator"
	"github.com/aristath/cpagateway/internal/modules/history"
	"github.com/aristath/cpagateway/internal/modules/settings"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DefaultsProvider supplies generator defaults for requests that omit them.
type DefaultsProvider interface {
	GeneratorDefaults(ctx context.Context) (settings.GeneratorDefaults, error)
}

// HistoryStore builds avoid sets and records committed deposits.
type HistoryStore interface {
	BuildAvoidSet(ctx context.Context, manualText string) (*generator.AvoidSet, error)
	Record(ctx context.Context, records []history.Record) error
}

// Service runs plan operations.
//
// Every operation draws a fresh seed and builds its own *rand.Rand, so nothing
// random is shared between requests. Operations that load, change and save a plan
// hold mu for the whole read-modify-write.
type Service struct {
	repo     *Repository
	history  HistoryStore
	defaults DefaultsProvider
	log      zerolog.Logger

	mu      sync.Mutex
	seedsMu sync.Mutex
	seeds   *rand.Rand
	now     func() time.Time
}

// NewService creates a new plan service.
// A non-zero seed makes the sequence of generated plans reproducible.
func NewService(repo *Repository, historyStore HistoryStore, defaults DefaultsProvider, seed int64, log zerolog.Logger) *Service {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Service{
		repo:     repo,
		history:  historyStore,
		defaults: defaults,
		log:      log.With().Str("service", "plans").Logger(),
		seeds:    rand.New(rand.NewSource(seed)),
		now:      time.Now,
	}
}

func (s *Service) nextRand() *rand.Rand {
	s.seedsMu.Lock()
	seed := s.seeds.Int63()
	s.seedsMu.Unlock()
	return rand.New(rand.NewSource(seed))
}

// resolveRequest fills omitted fields of req from the stored defaults.
func (s *Service) resolveRequest(ctx context.Context, req GenerateRequest) (generator.PlanRequest, error) {
	defaults, err := s.defaults.GeneratorDefaults(ctx)
	if err != nil {
		return generator.PlanRequest{}, fmt.Errorf("failed to load generator defaults: %w", err)
	}

	out := generator.PlanRequest{
		Count:  req.Count,
		Agents: req.Agents,
		Quotas: req.Quotas,
		Params: defaults.Params,
	}
	if req.Params != nil {
		out.Params = *req.Params
	}
	if out.Agents == 0 {
		out.Agents = defaults.Agents
	}
	if out.Quotas == nil {
		if defaults.Agents == out.Agents && defaults.Quotas.Total() == out.Count && len(defaults.Quotas) > 0 {
			out.Quotas = defaults.Quotas
		} else {
			out.Quotas = generator.EvenQuota(out.Count, out.Agents)
		}
	}
	return out, nil
}

// Generate validates the request, builds a new plan and stores it.
func (s *Service) Generate(ctx context.Context, req GenerateRequest) (*Plan, error) {
	planReq, err := s.resolveRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := planReq.Validate(); err != nil {
		return nil, err
	}

	avoid, err := s.history.BuildAvoidSet(ctx, req.Avoid)
	if err != nil {
		return nil, fmt.Errorf("failed to build avoid set: %w", err)
	}

	var seed int64
	if req.Seed != nil {
		seed = *req.Seed
	} else {
		seed = s.nextRand().Int63()
	}
	rng := rand.New(rand.NewSource(seed))

	now := s.now().UTC()
	plan := &Plan{
		ID:          uuid.New(),
		CreatedAt:   now,
		UpdatedAt:   now,
		Seed:        seed,
		Request:     planReq,
		ManualAvoid: req.Avoid,
		Players:     generator.GeneratePlan(rng, planReq, avoid),
	}

	if err := s.repo.Save(ctx, plan); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("plan_id", plan.ID.String()).
		Int("players", len(plan.Players)).
		Int("agents", planReq.Agents).
		Int("avoided", avoid.Len()).
		Msg("Generated plan")
	return plan, nil
}

// Get loads a plan.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Plan, error) {
	return s.repo.Get(ctx, id)
}

// List returns stored plan headers, newest first.
func (s *Service) List(ctx context.Context, limit int) ([]PlanInfo, error) {
	return s.repo.List(ctx, limit)
}

// Delete removes a plan.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info().Str("plan_id", id.String()).Msg("Deleted plan")
	return nil
}

// Summarize loads a plan and aggregates it per agent.
func (s *Service) Summarize(ctx context.Context, id uuid.UUID) (*Summary, error) {
	plan, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return Summarize(plan), nil
}

// mutate loads an uncommitted plan, applies fn and saves the result.
// Nothing is saved when fn fails.
func (s *Service) mutate(ctx context.Context, id uuid.UUID, fn func(plan *Plan, rng *rand.Rand, avoid *generator.AvoidSet) error) (*Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	plan, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if plan.Committed {
		return nil, ErrAlreadyCommitted
	}

	avoid, err := s.history.BuildAvoidSet(ctx, plan.ManualAvoid)
	if err != nil {
		return nil, fmt.Errorf("failed to build avoid set: %w", err)
	}

	if err := fn(plan, s.nextRand(), avoid); err != nil {
		return nil, err
	}

	plan.UpdatedAt = s.now().UTC()
	if err := s.repo.Save(ctx, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// RegeneratePlayer redraws one player's deposits in place.
func (s *Service) RegeneratePlayer(ctx context.Context, id uuid.UUID, playerID string) (*Plan, error) {
	plan, err := s.mutate(ctx, id, func(plan *Plan, rng *rand.Rand, avoid *generator.AvoidSet) error {
		_, err := generator.RegeneratePlayer(rng, plan.Players, playerID, plan.Request.Params, avoid)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("plan_id", id.String()).Str("player_id", playerID).Msg("Regenerated player")
	return plan, nil
}

// RegenerateAll redraws every player's deposits, keeping the roster.
func (s *Service) RegenerateAll(ctx context.Context, id uuid.UUID) (*Plan, error) {
	plan, err := s.mutate(ctx, id, func(plan *Plan, rng *rand.Rand, avoid *generator.AvoidSet) error {
		generator.RegeneratePlan(rng, plan.Players, plan.Request.Params, avoid)
		plan.Adjustments = nil
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("plan_id", id.String()).Msg("Regenerated plan")
	return plan, nil
}

// Adjust tops up an agent's Testers so its average reaches req.TargetAvg.
// A rejected adjustment leaves the stored plan untouched.
func (s *Service) Adjust(ctx context.Context, id uuid.UUID, req generator.AdjustRequest) (*generator.AdjustResult, *Plan, error) {
	var result *generator.AdjustResult
	plan, err := s.mutate(ctx, id, func(plan *Plan, rng *rand.Rand, _ *generator.AvoidSet) error {
		var err error
		result, err = generator.AdjustAgent(rng, plan.Players, plan.Request.Params, req)
		if err != nil {
			return err
		}
		plan.Adjustments = append(plan.Adjustments, *result)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.log.Info().
		Str("plan_id", id.String()).
		Int("agent", req.Agent).
		Str("target_avg", req.TargetAvg.String()).
		Int("deficit", result.Deficit).
		Strs("adjusted", result.Adjusted).
		Msg("Adjusted agent")
	return result, plan, nil
}

// AddExtra appends an Extra player to agent.
func (s *Service) AddExtra(ctx context.Context, id uuid.UUID, agent int) (*generator.Player, *Plan, error) {
	var extra *generator.Player
	plan, err := s.mutate(ctx, id, func(plan *Plan, rng *rand.Rand, avoid *generator.AvoidSet) error {
		if agent < 1 || agent > plan.Request.Agents {
			return fmt.Errorf("%w: agent %d outside 1..%d", generator.ErrInvalidRequest, agent, plan.Request.Agents)
		}
		plan.Players, extra = generator.AddExtraPlayer(rng, plan.Players, agent, plan.Request.Params, avoid)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	s.log.Info().Str("plan_id", id.String()).Int("agent", agent).Str("player_id", extra.ID).Msg("Added extra player")
	return extra, plan, nil
}

// Commit records every deposit of the plan in the history and freezes the plan.
func (s *Service) Commit(ctx context.Context, id uuid.UUID) (*Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	plan, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if plan.Committed {
		return nil, ErrAlreadyCommitted
	}

	now := s.now().UTC()
	source := "plan:" + plan.ID.String()
	var records []history.Record
	for _, p := range plan.Players {
		for _, d := range p.Deposits {
			// Non-positive values can never be drawn, so they are not worth avoiding.
			if d.Value <= 0 {
				continue
			}
			records = append(records, history.Record{
				Value:      d.Value,
				Kind:       d.Kind,
				Agent:      p.Agent,
				Source:     source,
				RecordedAt: now.Unix(),
			})
		}
	}
	if err := s.history.Record(ctx, records); err != nil {
		return nil, fmt.Errorf("failed to record plan %s in history: %w", id, err)
	}

	plan.Committed = true
	plan.CommittedAt = &now
	plan.UpdatedAt = now
	if err := s.repo.Save(ctx, plan); err != nil {
		return nil, err
	}

	s.log.Info().Str("plan_id", id.String()).Int("deposits", len(records)).Msg("Committed plan to history")
	return plan, nil
}
