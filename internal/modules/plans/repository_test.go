package plans

import (
	"context"
	"testing"
	"time"

	"github.com/aristath/cpagateway/internal/modules/generator"
	testutil "github.com/aristath/cpagateway/internal/testing"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	db := testutil.NewTestDB(t, "plans")
	return NewRepository(db.Conn(), zerolog.Nop())
}

func samplePlan(createdAt time.Time) *Plan {
	p1 := &generator.Player{ID: "PLAYER_001", Profile: generator.ProfileSkeptic, Agent: 1}
	p1.SetDeposits([]generator.DepositItem{{Value: 20, Kind: generator.KindDeposit}, {Value: 35, Kind: generator.KindDeposit}})
	p2 := &generator.Player{ID: "PLAYER_002", Profile: generator.ProfileAdjusted, Agent: 2}
	p2.SetDeposits([]generator.DepositItem{{Value: 40, Kind: generator.KindDeposit}, {Value: 15, Kind: generator.KindRedeposit}})

	return &Plan{
		ID:        uuid.New(),
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
		Seed:      42,
		Request: generator.PlanRequest{
			Count:  2,
			Agents: 2,
			Quotas: generator.AgentQuota{1: 1, 2: 1},
			Params: generator.DefaultParams(),
		},
		ManualAvoid: "100 200",
		Players:     []*generator.Player{p1, p2},
		Adjustments: []generator.AdjustResult{{Agent: 2, Players: 1, Deficit: 15, Values: []int{15}, Adjusted: []string{"PLAYER_002"}}},
	}
}

func TestRepository_SaveAndGet(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	plan := samplePlan(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC))

	require.NoError(t, repo.Save(ctx, plan))
	got, err := repo.Get(ctx, plan.ID)
	require.NoError(t, err)

	assert.Equal(t, plan.ID, got.ID)
	assert.True(t, plan.CreatedAt.Equal(got.CreatedAt))
	assert.Equal(t, plan.Seed, got.Seed)
	assert.Equal(t, plan.Request, got.Request)
	assert.Equal(t, plan.ManualAvoid, got.ManualAvoid)
	assert.Equal(t, plan.Players, got.Players)
	assert.Equal(t, plan.Adjustments, got.Adjustments)
	assert.False(t, got.Committed)
	assert.Nil(t, got.CommittedAt)
}

func TestRepository_SaveUpdatesExistingPlan(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	plan := samplePlan(time.Now())
	require.NoError(t, repo.Save(ctx, plan))

	committedAt := time.Now().Add(time.Minute)
	plan.Committed = true
	plan.CommittedAt = &committedAt
	plan.Players = plan.Players[:1]
	require.NoError(t, repo.Save(ctx, plan))

	got, err := repo.Get(ctx, plan.ID)
	require.NoError(t, err)
	assert.True(t, got.Committed)
	require.NotNil(t, got.CommittedAt)
	assert.Len(t, got.Players, 1)

	infos, err := repo.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.True(t, infos[0].Committed)
	assert.Equal(t, 1, infos[0].PlayerCount)
}

func TestRepository_ListNewestFirst(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		plan := samplePlan(base.Add(time.Duration(i) * time.Hour))
		ids = append(ids, plan.ID)
		require.NoError(t, repo.Save(ctx, plan))
	}

	infos, err := repo.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, infos, 3)
	assert.Equal(t, ids[2], infos[0].ID)
	assert.Equal(t, ids[0], infos[2].ID)
	assert.Equal(t, base.Add(2*time.Hour), infos[0].CreatedAt)
	assert.Equal(t, 2, infos[0].PlayerCount)

	limited, err := repo.List(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestRepository_NotFound(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	_, err := repo.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrPlanNotFound)

	assert.ErrorIs(t, repo.Delete(ctx, uuid.New()), ErrPlanNotFound)
}

func TestRepository_Delete(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	plan := samplePlan(time.Now())
	require.NoError(t, repo.Save(ctx, plan))

	require.NoError(t, repo.Delete(ctx, plan.ID))

	_, err := repo.Get(ctx, plan.ID)
	assert.ErrorIs(t, err, ErrPlanNotFound)
}
