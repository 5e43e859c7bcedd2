// Package generator builds synthetic deposit plans: a roster of players spread across
// agents and behavioural profiles, each carrying deposit values that avoid numbers already
// used in the plan or in the operation's history.
package generator

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Profile is the behavioural archetype of a generated player.
// It decides how many deposits a player gets and from which ranges they are drawn.
type Profile int

const (
	ProfileUnknown Profile = iota
	ProfileTester
	ProfileSkeptic
	ProfileAmbitious
	ProfileAddicted
	// ProfileAdjusted marks a Tester that received top-up redeposits from an adjustment.
	ProfileAdjusted
	// ProfileExtra marks a Tester added to an agent after the plan was generated.
	ProfileExtra
)

var profileLabels = map[Profile]string{
	ProfileUnknown:   "❔ Desconhecido",
	ProfileTester:    "🛡️ Testador",
	ProfileSkeptic:   "🤔 Cético",
	ProfileAmbitious: "🚀 Ambicioso",
	ProfileAddicted:  "🎰 Viciado",
	ProfileAdjusted:  "⚡ Testador Ajustado",
	ProfileExtra:     "➕ Extra",
}

// Label returns the display label used by the dashboard.
func (p Profile) Label() string {
	if label, ok := profileLabels[p]; ok {
		return label
	}
	return profileLabels[ProfileUnknown]
}

// String implements fmt.Stringer
func (p Profile) String() string {
	return p.Label()
}

// IsTesterClass reports whether the profile composes like a Tester (a single low deposit).
func (p Profile) IsTesterClass() bool {
	return p == ProfileTester || p == ProfileAdjusted || p == ProfileExtra
}

// ParseProfile maps a label back to a Profile.
// Exact labels match first; older free-form labels are matched by keyword so that
// records written by the dashboard before the enum existed still decode.
func ParseProfile(label string) Profile {
	for p, l := range profileLabels {
		if l == label {
			return p
		}
	}

	lower := strings.ToLower(label)
	switch {
	case strings.Contains(lower, "ajustado") || strings.Contains(lower, "adjusted"):
		return ProfileAdjusted
	case strings.Contains(lower, "extra"):
		return ProfileExtra
	case strings.Contains(lower, "testador") || strings.Contains(lower, "tester"):
		return ProfileTester
	case strings.Contains(lower, "cético") || strings.Contains(lower, "cetico") || strings.Contains(lower, "skeptic"):
		return ProfileSkeptic
	case strings.Contains(lower, "ambicioso") || strings.Contains(lower, "ambitious"):
		return ProfileAmbitious
	case strings.Contains(lower, "viciado") || strings.Contains(lower, "addicted"):
		return ProfileAddicted
	}
	return ProfileUnknown
}

// MarshalText encodes the profile as its label (used by JSON, YAML and msgpack).
func (p Profile) MarshalText() ([]byte, error) {
	return []byte(p.Label()), nil
}

// UnmarshalText decodes a profile label.
func (p *Profile) UnmarshalText(text []byte) error {
	*p = ParseProfile(string(text))
	return nil
}

// DepositKind tags a deposit entry. It carries no arithmetic meaning.
type DepositKind string

const (
	KindDeposit   DepositKind = "deposit"
	KindRedeposit DepositKind = "redeposit"
)

// Valid reports whether k is one of the two known kinds.
func (k DepositKind) Valid() bool {
	return k == KindDeposit || k == KindRedeposit
}

// DepositItem is a single monetary entry of a player.
type DepositItem struct {
	Value int         `json:"val" msgpack:"val"`
	Kind  DepositKind `json:"type" msgpack:"type"`
}

// Player is one synthetic player of a plan.
// Total always equals the sum of Deposits; mutate deposits only through
// SetDeposits and AppendDeposit.
type Player struct {
	ID       string        `json:"id" msgpack:"id"`
	Profile  Profile       `json:"perfil" msgpack:"perfil"`
	Agent    int           `json:"agente" msgpack:"agente"`
	Deposits []DepositItem `json:"deps" msgpack:"deps"`
	Total    int           `json:"total" msgpack:"total"`
}

// SetDeposits replaces the deposit list and recomputes the total.
func (p *Player) SetDeposits(items []DepositItem) {
	p.Deposits = items
	p.recomputeTotal()
}

// AppendDeposit adds one entry and recomputes the total.
func (p *Player) AppendDeposit(item DepositItem) {
	p.Deposits = append(p.Deposits, item)
	p.recomputeTotal()
}

// Values returns the raw deposit values in list order.
func (p *Player) Values() []int {
	values := make([]int, len(p.Deposits))
	for i, d := range p.Deposits {
		values[i] = d.Value
	}
	return values
}

func (p *Player) recomputeTotal() {
	total := 0
	for _, d := range p.Deposits {
		total += d.Value
	}
	p.Total = total
}

// GeneratorParams configures profile shares and value ranges.
// Percentages are expected to sum to 100; see PlanRequest.Validate.
type GeneratorParams struct {
	TesterPct    float64 `json:"testador" yaml:"testador" msgpack:"testador"`
	SkepticPct   float64 `json:"cetico" yaml:"cetico" msgpack:"cetico"`
	AmbitiousPct float64 `json:"ambicioso" yaml:"ambicioso" msgpack:"ambicioso"`
	AddictedPct  float64 `json:"viciado" yaml:"viciado" msgpack:"viciado"`

	MinLow  int `json:"minBaixo" yaml:"minBaixo" msgpack:"minBaixo"`
	MaxLow  int `json:"maxBaixo" yaml:"maxBaixo" msgpack:"maxBaixo"`
	MinHigh int `json:"minAlto" yaml:"minAlto" msgpack:"minAlto"`
	MaxHigh int `json:"maxAlto" yaml:"maxAlto" msgpack:"maxAlto"`
	Target  int `json:"alvo" yaml:"alvo" msgpack:"alvo"`
}

// DefaultParams returns the dashboard's out-of-the-box configuration.
func DefaultParams() GeneratorParams {
	return GeneratorParams{
		TesterPct:    40,
		SkepticPct:   30,
		AmbitiousPct: 20,
		AddictedPct:  10,
		MinLow:       20,
		MaxLow:       50,
		MinHigh:      100,
		MaxHigh:      300,
		Target:       100,
	}
}

// AgentQuota maps an agent id (1-based) to the number of players it receives.
type AgentQuota map[int]int

// Total returns the sum of all quotas.
func (q AgentQuota) Total() int {
	total := 0
	for _, n := range q {
		total += n
	}
	return total
}

// EvenQuota splits count as evenly as possible over agents 1..agents,
// giving the remainder to the lowest ids.
func EvenQuota(count, agents int) AgentQuota {
	quota := make(AgentQuota, agents)
	if agents <= 0 {
		return quota
	}
	base, extra := count/agents, count%agents
	for id := 1; id <= agents; id++ {
		quota[id] = base
		if id <= extra {
			quota[id]++
		}
	}
	return quota
}

// PlanRequest is the full input of a plan generation.
type PlanRequest struct {
	Count  int             `json:"count" yaml:"count" msgpack:"count"`
	Agents int             `json:"agents" yaml:"agents" msgpack:"agents"`
	Quotas AgentQuota      `json:"quotas" yaml:"quotas" msgpack:"quotas"`
	Params GeneratorParams `json:"params" yaml:"params" msgpack:"params"`
}

// ErrInvalidRequest is wrapped by every validation failure.
var ErrInvalidRequest = errors.New("invalid plan request")

const percentTolerance = 0.01

// Upper limits accepted by Validate. They keep range spans far from int overflow
// and rosters small enough to hold in memory.
const (
	MaxPlayers = 10000
	MaxValue   = 1000000
)

// Validate checks the preconditions the generator itself never checks.
// The generator degrades silently on bad input, so callers validate first.
func (r PlanRequest) Validate() error {
	if r.Count < 1 {
		return fmt.Errorf("%w: count must be at least 1, got %d", ErrInvalidRequest, r.Count)
	}
	if r.Count > MaxPlayers {
		return fmt.Errorf("%w: count must be at most %d, got %d", ErrInvalidRequest, MaxPlayers, r.Count)
	}
	if r.Agents < 1 {
		return fmt.Errorf("%w: agents must be at least 1, got %d", ErrInvalidRequest, r.Agents)
	}

	p := r.Params
	for _, pct := range []struct {
		name  string
		value float64
	}{
		{"testador", p.TesterPct},
		{"cetico", p.SkepticPct},
		{"ambicioso", p.AmbitiousPct},
		{"viciado", p.AddictedPct},
	} {
		if pct.value < 0 {
			return fmt.Errorf("%w: percentage %s is negative", ErrInvalidRequest, pct.name)
		}
	}
	sum := p.TesterPct + p.SkepticPct + p.AmbitiousPct + p.AddictedPct
	if math.Abs(sum-100) > percentTolerance {
		return fmt.Errorf("%w: percentages must sum to 100, got %g", ErrInvalidRequest, sum)
	}

	for _, bound := range []struct {
		name  string
		value int
	}{
		{"minBaixo", p.MinLow},
		{"maxBaixo", p.MaxLow},
		{"minAlto", p.MinHigh},
		{"maxAlto", p.MaxHigh},
		{"alvo", p.Target},
	} {
		if bound.value < 0 {
			return fmt.Errorf("%w: %s must not be negative", ErrInvalidRequest, bound.name)
		}
		if bound.value > MaxValue {
			return fmt.Errorf("%w: %s must be at most %d, got %d", ErrInvalidRequest, bound.name, MaxValue, bound.value)
		}
	}
	if p.AmbitiousPct > 0 && p.Target <= 0 {
		return fmt.Errorf("%w: alvo must be positive when ambicioso > 0", ErrInvalidRequest)
	}

	for id, n := range r.Quotas {
		if id < 1 || id > r.Agents {
			return fmt.Errorf("%w: quota for unknown agent %d", ErrInvalidRequest, id)
		}
		if n < 0 {
			return fmt.Errorf("%w: quota for agent %d is negative", ErrInvalidRequest, id)
		}
	}

	return nil
}
