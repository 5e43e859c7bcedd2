package generator

import (
	"errors"
	"math/rand"
)

// ErrPlayerNotFound means the plan has no player with the requested id.
var ErrPlayerNotFound = errors.New("player not found in plan")

// RegeneratePlayer redraws one player's deposits, keeping its profile and agent.
// An Adjusted player loses its top-up and goes back to Tester. Values held by every other player of the plan are reserved first so the new draw
// does not collide with them.
func RegeneratePlayer(rng *rand.Rand, players []*Player, id string, params GeneratorParams, avoid *AvoidSet) (*Player, error) {
	var target *Player
	others := make([]*Player, 0, len(players))
	for _, p := range players {
		if p.ID == id {
			target = p
			continue
		}
		others = append(others, p)
	}
	if target == nil {
		return nil, ErrPlayerNotFound
	}

	recompose(rng, target, params, NewValuePoolFrom(others), avoid)
	return target, nil
}

// RegeneratePlan redraws every player's deposits in order with a fresh pool,
// keeping ids, agents and profiles, except that Adjusted players go back to Tester.
func RegeneratePlan(rng *rand.Rand, players []*Player, params GeneratorParams, avoid *AvoidSet) {
	pool := NewValuePool()
	for _, p := range players {
		recompose(rng, p, params, pool, avoid)
	}
}

// recompose redraws p's deposits. The Adjusted label only describes a top-up,
// which a fresh draw discards.
func recompose(rng *rand.Rand, p *Player, params GeneratorParams, pool *ValuePool, avoid *AvoidSet) {
	if p.Profile == ProfileAdjusted {
		p.Profile = ProfileTester
	}
	ComposeDeposits(rng, p, params, pool, avoid)
}

// AddExtraPlayer appends a Tester-like player for agent with the next sequential id.
func AddExtraPlayer(rng *rand.Rand, players []*Player, agent int, params GeneratorParams, avoid *AvoidSet) ([]*Player, *Player) {
	extra := &Player{
		ID:      PlayerID(len(players) + 1),
		Profile: ProfileExtra,
		Agent:   agent,
	}
	ComposeDeposits(rng, extra, params, NewValuePoolFrom(players), avoid)
	return append(players, extra), extra
}
