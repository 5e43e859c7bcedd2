package main

import (
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/aristath/cpagateway/internal/modules/generator"
	"github.com/aristath/cpagateway/internal/modules/plans"
)

type generateOptions struct {
	configPath string
	count      int
	agents     int
	seed       int64
	avoid      string
}

// generateOutput is what generate prints.
type generateOutput struct {
	Seed    int64                 `json:"seed"`
	Request generator.PlanRequest `json:"request"`
	Players []*generator.Player   `json:"players"`
	Summary *plans.Summary        `json:"summary"`
}

func newGenerateCmd(root *rootOptions) *cobra.Command {
	opts := &generateOptions{}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a plan and print it as JSON",
		Long: `Generates a deposit plan from a YAML file of the form

  count: 20
  agents: 2
  quotas: {1: 10, 2: 10}
  params:
    testador: 40
    cetico: 30
    ambicioso: 20
    viciado: 10
    minBaixo: 20
    maxBaixo: 50
    minAlto: 100
    maxAlto: 300
    alvo: 100

Flags override the file. Without a file the built-in parameters are used.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := loadPlanRequest(opts.configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("count") {
				req.Count = opts.count
			}
			if cmd.Flags().Changed("agents") {
				req.Agents = opts.agents
			}
			if req.Quotas.Total() != req.Count || len(req.Quotas) > req.Agents {
				req.Quotas = generator.EvenQuota(req.Count, req.Agents)
			}
			if err := req.Validate(); err != nil {
				return err
			}

			seed := opts.seed
			if seed == 0 {
				seed = time.Now().UnixNano()
			}
			rng := rand.New(rand.NewSource(seed))
			avoid := generator.NewAvoidSet(nil, opts.avoid)

			root.log.Debug().
				Int64("seed", seed).
				Int("count", req.Count).
				Int("agents", req.Agents).
				Int("avoid", avoid.Len()).
				Msg("Generating plan")

			players := generator.GeneratePlan(rng, req, avoid)
			return writeJSON(cmd.OutOrStdout(), generateOutput{
				Seed:    seed,
				Request: req,
				Players: players,
				Summary: plans.Summarize(&plans.Plan{Players: players}),
			})
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "YAML file with count, agents, quotas and params")
	cmd.Flags().IntVarP(&opts.count, "count", "n", 10, "number of players")
	cmd.Flags().IntVarP(&opts.agents, "agents", "a", 1, "number of agents")
	cmd.Flags().Int64Var(&opts.seed, "seed", 0, "random seed (0 = clock)")
	cmd.Flags().StringVar(&opts.avoid, "avoid", "", "values to avoid, any separator")
	return cmd
}

// loadPlanRequest reads a YAML plan request. An empty path yields the defaults.
func loadPlanRequest(path string) (generator.PlanRequest, error) {
	req := generator.PlanRequest{
		Count:  10,
		Agents: 1,
		Params: generator.DefaultParams(),
	}
	if path == "" {
		return req, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return req, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &req); err != nil {
		return req, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return req, nil
}
