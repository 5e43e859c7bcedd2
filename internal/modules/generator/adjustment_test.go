package generator

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func adjustmentFixture() []*Player {
	mk := func(id string, profile Profile, agent int, values ...int) *Player {
		p := &Player{ID: id, Profile: profile, Agent: agent}
		deps := make([]DepositItem, len(values))
		for i, v := range values {
			deps[i] = DepositItem{Value: v, Kind: KindDeposit}
		}
		p.SetDeposits(deps)
		return p
	}
	return []*Player{
		mk("PLAYER_001", ProfileTester, 1, 30),
		mk("PLAYER_002", ProfileSkeptic, 1, 35, 45),
		mk("PLAYER_003", ProfileTester, 1, 25),
		mk("PLAYER_004", ProfileTester, 2, 40),
		mk("PLAYER_005", ProfileExtra, 1, 35),
	}
}

func clonePlayers(players []*Player) []Player {
	out := make([]Player, len(players))
	for i, p := range players {
		out[i] = *p
		out[i].Deposits = append([]DepositItem(nil), p.Deposits...)
	}
	return out
}

func TestDeficit(t *testing.T) {
	players := adjustmentFixture()

	deficit, n, sum := Deficit(players, 1, decimal.NewFromFloat(52.5))

	assert.Equal(t, 4, n)
	assert.Equal(t, 170, sum)
	assert.Equal(t, 40, deficit)
}

func TestAdjustAgent_TopsUpTesters(t *testing.T) {
	rng := rand.New(rand.NewSource(51))
	players := adjustmentFixture()
	params := GeneratorParams{MinLow: 20, MaxLow: 50}

	result, err := AdjustAgent(rng, players, params, AdjustRequest{
		Agent:       1,
		TargetAvg:   decimal.NewFromInt(60),
		TesterCount: 2,
	})

	require.NoError(t, err)
	assert.Equal(t, 70, result.Deficit)
	assert.Equal(t, []string{"PLAYER_001", "PLAYER_003"}, result.Adjusted)
	assert.Equal(t, 70, sumValues(result.Values))

	for _, id := range result.Adjusted {
		p := findPlayer(players, id)
		assert.Equal(t, ProfileAdjusted, p.Profile)
		require.Len(t, p.Deposits, 2)
		assert.Equal(t, KindRedeposit, p.Deposits[1].Kind)
		assert.Equal(t, sumValues(p.Values()), p.Total)
	}

	_, n, sum := Deficit(players, 1, decimal.Zero)
	assert.Equal(t, 60*n, sum, "agent average should now hit the target")
	assert.Equal(t, 40, findPlayer(players, "PLAYER_004").Total, "other agents untouched")
}

func TestAdjustAgent_UsesExtraPlayersWhenTestersRunOut(t *testing.T) {
	rng := rand.New(rand.NewSource(52))
	players := adjustmentFixture()

	result, err := AdjustAgent(rng, players, GeneratorParams{MinLow: 20, MaxLow: 50}, AdjustRequest{
		Agent:       1,
		TargetAvg:   decimal.NewFromInt(70),
		TesterCount: 3,
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"PLAYER_001", "PLAYER_003", "PLAYER_005"}, result.Adjusted)
}

func TestAdjustAgent_Rejections(t *testing.T) {
	tests := []struct {
		name string
		req  AdjustRequest
		err  error
	}{
		{"target below current average", AdjustRequest{Agent: 1, TargetAvg: decimal.NewFromInt(40), TesterCount: 1}, ErrNoDeficit},
		{"target equal to current average", AdjustRequest{Agent: 1, TargetAvg: decimal.NewFromFloat(42.5), TesterCount: 1}, ErrNoDeficit},
		{"too many testers requested", AdjustRequest{Agent: 1, TargetAvg: decimal.NewFromInt(80), TesterCount: 4}, ErrNotEnoughTesters},
		{"zero testers", AdjustRequest{Agent: 1, TargetAvg: decimal.NewFromInt(80), TesterCount: 0}, ErrInvalidTesterCount},
		{"unknown agent", AdjustRequest{Agent: 9, TargetAvg: decimal.NewFromInt(80), TesterCount: 1}, ErrAgentNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rng := rand.New(rand.NewSource(53))
			players := adjustmentFixture()
			before := clonePlayers(players)

			result, err := AdjustAgent(rng, players, GeneratorParams{MinLow: 20, MaxLow: 50}, tt.req)

			assert.ErrorIs(t, err, tt.err)
			assert.Nil(t, result)
			assert.Equal(t, before, clonePlayers(players), "rejected adjustment must not mutate the plan")
		})
	}
}

func findPlayer(players []*Player, id string) *Player {
	for _, p := range players {
		if p.ID == id {
			return p
		}
	}
	return nil
}
