// Package plans stores generated deposit plans and runs every operation that
// changes them: generation, regeneration, adjustment, extra players and commit.
package plans

import (
	"errors"
	"time"

	"github.com/aristath/cpagateway/internal/modules/generator"
	"github.com/google/uuid"
)

var (
	// ErrPlanNotFound means no plan is stored under the requested id.
	ErrPlanNotFound = errors.New("plan not found")
	// ErrAlreadyCommitted means the plan was already written to history and is frozen.
	ErrAlreadyCommitted = errors.New("plan already committed")
)

// Plan is a generated deposit plan and everything needed to reproduce it.
type Plan struct {
	ID          uuid.UUID                `json:"id" msgpack:"id"`
	CreatedAt   time.Time                `json:"created_at" msgpack:"created_at"`
	UpdatedAt   time.Time                `json:"updated_at" msgpack:"updated_at"`
	Seed        int64                    `json:"seed" msgpack:"seed"`
	Request     generator.PlanRequest    `json:"request" msgpack:"request"`
	ManualAvoid string                   `json:"manual_avoid,omitempty" msgpack:"manual_avoid"`
	Players     []*generator.Player      `json:"players" msgpack:"players"`
	Adjustments []generator.AdjustResult `json:"adjustments,omitempty" msgpack:"adjustments"`
	Committed   bool                     `json:"committed" msgpack:"committed"`
	CommittedAt *time.Time               `json:"committed_at,omitempty" msgpack:"committed_at"`
}

// PlanInfo is the listing view of a stored plan.
type PlanInfo struct {
	ID          uuid.UUID `json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	PlayerCount int       `json:"player_count"`
	Committed   bool      `json:"committed"`
}

// GenerateRequest is the input of Service.Generate.
// Zero-valued fields fall back to the stored generator defaults.
type GenerateRequest struct {
	Count  int                        `json:"count"`
	Agents int                        `json:"agents,omitempty"`
	Quotas generator.AgentQuota       `json:"quotas,omitempty"`
	Params *generator.GeneratorParams `json:"params,omitempty"`
	Avoid  string                     `json:"avoid,omitempty"`
	Seed   *int64                     `json:"seed,omitempty"`
}

// AgentSummary aggregates one agent's players.
type AgentSummary struct {
	Agent      int            `json:"agent"`
	Players    int            `json:"players"`
	Deposits   int            `json:"deposits"`
	Redeposits int            `json:"redeposits"`
	Sum        int            `json:"sum"`
	Mean       float64        `json:"mean"`
	StdDev     float64        `json:"std_dev"`
	Min        int            `json:"min"`
	Max        int            `json:"max"`
	Profiles   map[string]int `json:"profiles"`
}

// Summary aggregates a whole plan.
type Summary struct {
	PlanID   uuid.UUID      `json:"plan_id"`
	Players  int            `json:"players"`
	Deposits int            `json:"deposits"`
	Sum      int            `json:"sum"`
	Mean     float64        `json:"mean"`
	Agents   []AgentSummary `json:"agents"`
}
