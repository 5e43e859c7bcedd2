package plans

import (
	"sort"

	"github.com/aristath/cpagateway/internal/modules/generator"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summarize aggregates player totals per agent and for the whole plan.
// StdDev is the sample standard deviation of player totals, 0 for a single player.
func Summarize(plan *Plan) *Summary {
	byAgent := make(map[int][]*generator.Player)
	for _, p := range plan.Players {
		byAgent[p.Agent] = append(byAgent[p.Agent], p)
	}

	agents := make([]int, 0, len(byAgent))
	for agent := range byAgent {
		agents = append(agents, agent)
	}
	sort.Ints(agents)

	summary := &Summary{
		PlanID: plan.ID,
		Agents: make([]AgentSummary, 0, len(agents)),
	}
	var allTotals []float64
	for _, agent := range agents {
		as := summarizeAgent(agent, byAgent[agent])
		summary.Players += as.Players
		summary.Deposits += as.Deposits + as.Redeposits
		summary.Sum += as.Sum
		summary.Agents = append(summary.Agents, as)
		for _, p := range byAgent[agent] {
			allTotals = append(allTotals, float64(p.Total))
		}
	}
	if len(allTotals) > 0 {
		summary.Mean = stat.Mean(allTotals, nil)
	}
	return summary
}

func summarizeAgent(agent int, players []*generator.Player) AgentSummary {
	as := AgentSummary{
		Agent:    agent,
		Players:  len(players),
		Profiles: make(map[string]int),
	}

	totals := make([]float64, len(players))
	for i, p := range players {
		totals[i] = float64(p.Total)
		as.Sum += p.Total
		as.Profiles[p.Profile.Label()]++
		for _, d := range p.Deposits {
			if d.Kind == generator.KindRedeposit {
				as.Redeposits++
			} else {
				as.Deposits++
			}
		}
	}

	if len(totals) == 0 {
		return as
	}
	as.Min = int(floats.Min(totals))
	as.Max = int(floats.Max(totals))
	if len(totals) == 1 {
		as.Mean = totals[0]
		return as
	}
	as.Mean, as.StdDev = stat.MeanStdDev(totals, nil)
	return as
}
