package generator

import (
	"fmt"
	"math/rand"
)

// ProfileCounts is the number of players per profile in one plan.
type ProfileCounts struct {
	Tester    int `json:"testador"`
	Skeptic   int `json:"cetico"`
	Ambitious int `json:"ambicioso"`
	Addicted  int `json:"viciado"`
}

// Sum returns the total number of players.
func (c ProfileCounts) Sum() int {
	return c.Tester + c.Skeptic + c.Ambitious + c.Addicted
}

// CountProfiles turns percentages into integer counts that always sum to count.
//
// Tester, Skeptic and Ambitious are rounded shares; Addicted takes whatever is left.
// When the rounded shares already exceed count, the excess is removed from Tester
// (remainder absorbed by Tester) and Addicted is zero. Only on inputs whose
// percentages overshoot wildly does Tester hit zero, and then the rest of the excess
// comes out of Skeptic and finally Ambitious.
func CountProfiles(count int, params GeneratorParams) ProfileCounts {
	share := func(pct float64) int {
		return int(roundHalfUp(float64(count) * pct / 100))
	}

	c := ProfileCounts{
		Tester:    share(params.TesterPct),
		Skeptic:   share(params.SkepticPct),
		Ambitious: share(params.AmbitiousPct),
	}
	c.Addicted = count - c.Tester - c.Skeptic - c.Ambitious

	if c.Addicted < 0 {
		excess := -c.Addicted
		c.Addicted = 0
		for _, n := range []*int{&c.Tester, &c.Skeptic, &c.Ambitious} {
			take := excess
			if take > *n {
				take = *n
			}
			*n -= take
			excess -= take
			if excess == 0 {
				break
			}
		}
	}

	return c
}

// ProfileSequence expands counts into a uniformly shuffled list of profiles.
func ProfileSequence(rng *rand.Rand, counts ProfileCounts) []Profile {
	seq := make([]Profile, 0, counts.Sum())
	for _, entry := range []struct {
		profile Profile
		n       int
	}{
		{ProfileTester, counts.Tester},
		{ProfileSkeptic, counts.Skeptic},
		{ProfileAmbitious, counts.Ambitious},
		{ProfileAddicted, counts.Addicted},
	} {
		for i := 0; i < entry.n; i++ {
			seq = append(seq, entry.profile)
		}
	}

	rng.Shuffle(len(seq), func(i, j int) {
		seq[i], seq[j] = seq[j], seq[i]
	})
	return seq
}

// AgentSequence deals count slots round-robin over agents 1..agents, skipping agents
// whose quota is used up. With quotas {1:3, 2:2} the order is 1,2,1,2,1.
//
// If a full pass assigns nothing while slots remain (quotas sum below count), every
// remaining slot goes to agent 1. The UI normally keeps quotas and count in sync, so
// this path is a guard against an endless loop rather than a feature.
func AgentSequence(count, agents int, quotas AgentQuota) []int {
	remaining := make(map[int]int, agents)
	for id := 1; id <= agents; id++ {
		remaining[id] = quotas[id]
	}

	seq := make([]int, 0, count)
	for len(seq) < count {
		assigned := 0
		for id := 1; id <= agents && len(seq) < count; id++ {
			if remaining[id] > 0 {
				seq = append(seq, id)
				remaining[id]--
				assigned++
			}
		}
		if assigned == 0 {
			for len(seq) < count {
				seq = append(seq, 1)
			}
		}
	}
	return seq
}

// PlayerID formats the sequential, zero-padded identifier of the n-th player (1-based).
func PlayerID(n int) string {
	return fmt.Sprintf("PLAYER_%03d", n)
}

// GeneratePlan builds a full roster for req.
//
// Profiles are shuffled while agents follow the round-robin rhythm; position i pairs
// the i-th of each. All players share one fresh ValuePool so values stay unique
// across the plan as long as the ranges allow it. req is assumed valid.
func GeneratePlan(rng *rand.Rand, req PlanRequest, avoid *AvoidSet) []*Player {
	profiles := ProfileSequence(rng, CountProfiles(req.Count, req.Params))
	agents := AgentSequence(req.Count, req.Agents, req.Quotas)
	pool := NewValuePool()

	players := make([]*Player, req.Count)
	for i := 0; i < req.Count; i++ {
		p := &Player{
			ID:      PlayerID(i + 1),
			Profile: profiles[i],
			Agent:   agents[i],
		}
		ComposeDeposits(rng, p, req.Params, pool, avoid)
		players[i] = p
	}
	return players
}
