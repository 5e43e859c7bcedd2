package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), err
}

type generated struct {
	Seed    int64 `json:"seed"`
	Players []struct {
		ID       string `json:"id"`
		Agent    int    `json:"agente"`
		Total    int    `json:"total"`
		Deposits []struct {
			Value int `json:"val"`
		} `json:"deps"`
	} `json:"players"`
	Summary struct {
		Players int `json:"players"`
	} `json:"summary"`
}

func TestGenerate_Flags(t *testing.T) {
	out, err := run(t, "generate", "--count", "6", "--agents", "2", "--seed", "11")
	require.NoError(t, err)

	var got generated
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, int64(11), got.Seed)
	require.Len(t, got.Players, 6)
	assert.Equal(t, 6, got.Summary.Players)
	assert.Equal(t, "PLAYER_001", got.Players[0].ID)

	agents := map[int]int{}
	for _, p := range got.Players {
		agents[p.Agent]++
	}
	assert.Equal(t, map[int]int{1: 3, 2: 3}, agents)
}

func TestGenerate_SameSeedSameOutput(t *testing.T) {
	first, err := run(t, "generate", "-n", "8", "--seed", "5")
	require.NoError(t, err)
	second, err := run(t, "generate", "-n", "8", "--seed", "5")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestGenerate_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
count: 5
agents: 2
quotas: {1: 4, 2: 1}
params:
  testador: 100
  cetico: 0
  ambicioso: 0
  viciado: 0
  minBaixo: 20
  maxBaixo: 50
  minAlto: 100
  maxAlto: 300
  alvo: 100
`), 0644))

	out, err := run(t, "generate", "--config", path, "--seed", "3")
	require.NoError(t, err)

	var got generated
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got.Players, 5)
	agent2 := 0
	for _, p := range got.Players {
		if p.Agent == 2 {
			agent2++
		}
		for _, d := range p.Deposits {
			assert.GreaterOrEqual(t, d.Value, 20)
			assert.LessOrEqual(t, d.Value, 50)
		}
	}
	assert.Equal(t, 1, agent2)
}

func TestGenerate_Avoid(t *testing.T) {
	out, err := run(t, "generate", "-n", "5", "--seed", "9", "--avoid", "20, 25; 30")
	require.NoError(t, err)

	var got generated
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	for _, p := range got.Players {
		for _, d := range p.Deposits {
			assert.NotContains(t, []int{20, 25, 30}, d.Value)
		}
	}
}

func TestGenerate_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"zero count", []string{"generate", "--count", "0"}},
		{"missing file", []string{"generate", "--config", "/nonexistent/plan.yaml"}},
		{"positional args", []string{"generate", "extra"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestDistribute(t *testing.T) {
	out, err := run(t, "distribute", "--total", "1000", "--count", "8", "--min", "100", "--max", "150", "--seed", "1")
	require.NoError(t, err)

	var values []int
	require.NoError(t, json.Unmarshal([]byte(out), &values))
	require.Len(t, values, 8)
	sum := 0
	for _, v := range values {
		assert.GreaterOrEqual(t, v, 100)
		assert.LessOrEqual(t, v, 150)
		sum += v
	}
	assert.Equal(t, 1000, sum)
}

func TestDistribute_Errors(t *testing.T) {
	_, err := run(t, "distribute", "--total", "100", "--count", "0", "--min", "1", "--max", "10")
	assert.Error(t, err)

	_, err = run(t, "distribute", "--total", "100")
	assert.Error(t, err)
}
