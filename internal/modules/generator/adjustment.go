package generator

import (
	"errors"
	"math/rand"

	"github.com/shopspring/decimal"
)

var (
	// ErrNoDeficit means the agent's players already reach the requested average.
	ErrNoDeficit = errors.New("agent already meets the target average")
	// ErrNotEnoughTesters means the agent has fewer eligible Tester players than requested.
	ErrNotEnoughTesters = errors.New("not enough eligible tester players")
	// ErrInvalidTesterCount means the tester count is not positive.
	ErrInvalidTesterCount = errors.New("tester count must be positive")
	// ErrAgentNotFound means no player of the plan belongs to the agent.
	ErrAgentNotFound = errors.New("agent has no players in plan")
)

// AdjustRequest raises an agent's average player total by topping up Testers.
type AdjustRequest struct {
	Agent       int             `json:"agent"`
	TargetAvg   decimal.Decimal `json:"target_avg"`
	TesterCount int             `json:"tester_count"`
}

// AdjustResult describes an applied adjustment.
type AdjustResult struct {
	Agent      int      `json:"agent"`
	Players    int      `json:"players"`
	CurrentSum int      `json:"current_sum"`
	Deficit    int      `json:"deficit"`
	Values     []int    `json:"values"`
	Adjusted   []string `json:"adjusted"`
}

// Deficit returns round(targetAvg*n - currentSum) for the agent's players.
func Deficit(players []*Player, agent int, targetAvg decimal.Decimal) (deficit, n, currentSum int) {
	for _, p := range players {
		if p.Agent == agent {
			n++
			currentSum += p.Total
		}
	}
	d := targetAvg.Mul(decimal.NewFromInt(int64(n))).Sub(decimal.NewFromInt(int64(currentSum)))
	return int(d.Round(0).IntPart()), n, currentSum
}

// AdjustAgent tops up an agent so its players average req.TargetAvg.
//
// The deficit is split with ConstrainedSum over [MinLow, MaxLow] and each share is
// appended as a redeposit to one of the agent's first req.TesterCount Tester (or Extra)
// players, which are relabelled Adjusted. Nothing is mutated when the request is rejected.
func AdjustAgent(rng *rand.Rand, players []*Player, params GeneratorParams, req AdjustRequest) (*AdjustResult, error) {
	if req.TesterCount <= 0 {
		return nil, ErrInvalidTesterCount
	}

	deficit, n, currentSum := Deficit(players, req.Agent, req.TargetAvg)
	if n == 0 {
		return nil, ErrAgentNotFound
	}
	if deficit <= 0 {
		return nil, ErrNoDeficit
	}

	var eligible []*Player
	for _, p := range players {
		if p.Agent == req.Agent && (p.Profile == ProfileTester || p.Profile == ProfileExtra) {
			eligible = append(eligible, p)
		}
	}
	if len(eligible) < req.TesterCount {
		return nil, ErrNotEnoughTesters
	}

	values := ConstrainedSum(rng, deficit, req.TesterCount, params.MinLow, params.MaxLow)
	result := &AdjustResult{
		Agent:      req.Agent,
		Players:    n,
		CurrentSum: currentSum,
		Deficit:    deficit,
		Values:     values,
		Adjusted:   make([]string, 0, len(values)),
	}
	for i, v := range values {
		p := eligible[i]
		p.AppendDeposit(DepositItem{Value: v, Kind: KindRedeposit})
		p.Profile = ProfileAdjusted
		result.Adjusted = append(result.Adjusted, p.ID)
	}

	return result, nil
}
