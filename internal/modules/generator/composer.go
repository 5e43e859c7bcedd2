package generator

import "math/rand"

// ambitiousFirstShare caps the first Ambitious deposit at 60% of the target.
const ambitiousFirstShare = 0.6

// Window around the remaining gap for the second Ambitious deposit.
const (
	ambitiousGapBelow = 10
	ambitiousGapAbove = 15
)

// ComposeDeposits fills a player's deposits according to its profile and recomputes
// its total. The player's profile must already be set. Values are allocated against
// the shared plan pool, which is updated.
func ComposeDeposits(rng *rand.Rand, player *Player, params GeneratorParams, pool *ValuePool, avoid *AvoidSet) {
	low := func() int { return AllocateValue(rng, params.MinLow, params.MaxLow, pool, avoid) }

	var deps []DepositItem
	switch player.Profile {
	case ProfileTester, ProfileAdjusted, ProfileExtra:
		deps = []DepositItem{
			{Value: low(), Kind: KindDeposit},
		}

	case ProfileSkeptic:
		deps = []DepositItem{
			{Value: low(), Kind: KindDeposit},
			{Value: low(), Kind: KindDeposit},
		}

	case ProfileAmbitious:
		firstMax := int(float64(params.Target) * ambitiousFirstShare)
		first := AllocateValue(rng, params.MinLow, firstMax, pool, avoid)

		gap := params.Target - first
		secondMin := gap - ambitiousGapBelow
		if secondMin < params.MinLow {
			secondMin = params.MinLow
		}
		second := AllocateValue(rng, secondMin, gap+ambitiousGapAbove, pool, avoid)

		deps = []DepositItem{
			{Value: first, Kind: KindDeposit},
			{Value: second, Kind: KindDeposit},
		}

	case ProfileAddicted:
		high := AllocateValue(rng, params.MinHigh, params.MaxHigh, pool, avoid)
		deps = []DepositItem{
			{Value: high, Kind: KindDeposit},
			{Value: low(), Kind: KindRedeposit},
			{Value: low(), Kind: KindRedeposit},
		}

	default:
		deps = []DepositItem{
			{Value: low(), Kind: KindDeposit},
		}
	}

	player.SetDeposits(deps)
}
