package reliability

import (
	"context"
	"errors"
	"testing"

	"github.com/aristath/cpagateway/internal/database"
	testutil "github.com/aristath/cpagateway/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePruner struct {
	calls int
	err   error
}

func (p *fakePruner) Prune(context.Context) (int64, error) {
	p.calls++
	return 3, p.err
}

func testDatabases(t *testing.T) map[string]*database.DB {
	t.Helper()
	return map[string]*database.DB{
		"history": testutil.NewTestDB(t, "history"),
		"plans":   testutil.NewTestDB(t, "plans"),
		"config":  testutil.NewTestDB(t, "config"),
	}
}

func TestMaintenanceJob_Run(t *testing.T) {
	pruner := &fakePruner{}
	job := NewMaintenanceJob(testDatabases(t), pruner, t.TempDir(), zerolog.Nop())

	require.NoError(t, job.Run())

	assert.Equal(t, 1, pruner.calls)
	assert.Equal(t, "daily_maintenance", job.Name())
}

func TestMaintenanceJob_PruneFailureStopsRun(t *testing.T) {
	pruner := &fakePruner{err: errors.New("locked")}
	job := NewMaintenanceJob(testDatabases(t), pruner, "", zerolog.Nop())

	err := job.Run()

	assert.ErrorContains(t, err, "locked")
}

func TestMaintenanceJob_ClosedDatabaseFailsHealthCheck(t *testing.T) {
	dbs := testDatabases(t)
	require.NoError(t, dbs["config"].Close())
	job := NewMaintenanceJob(dbs, nil, "", zerolog.Nop())

	err := job.Run()

	assert.ErrorContains(t, err, "config")
}
