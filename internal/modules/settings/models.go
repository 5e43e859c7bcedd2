package settings

import "github.com/aristath/cpagateway/internal/modules/generator"

// Setting keys.
const (
	KeyHistoryWindowDays = "history_window_days"
	KeyGeneratorDefaults = "generator.defaults"
)

// SettingDefaults holds the default value of every scalar setting.
// Values missing from the settings table fall back to these.
var SettingDefaults = map[string]interface{}{
	KeyHistoryWindowDays: 90.0, // Days of deposit history consulted when avoiding values (0 = all)
}

// SettingDescriptions holds human-readable descriptions for all settings
var SettingDescriptions = map[string]string{
	KeyHistoryWindowDays: "Days of deposit history consulted when avoiding repeated values. 0 keeps and uses the whole history.",
	KeyGeneratorDefaults: "Default generator parameters and agent setup used when a plan request omits them.",
}

// SettingUpdate is the request body of a scalar setting update.
type SettingUpdate struct {
	Value interface{} `json:"value"`
}

// GeneratorDefaults is the stored default setup of the plan generator.
type GeneratorDefaults struct {
	Agents int                       `json:"agents"`
	Quotas generator.AgentQuota      `json:"quotas,omitempty"`
	Params generator.GeneratorParams `json:"params"`
}

// DefaultGeneratorDefaults is used until an operator saves their own defaults.
func DefaultGeneratorDefaults() GeneratorDefaults {
	return GeneratorDefaults{
		Agents: 1,
		Params: generator.DefaultParams(),
	}
}

// Validate checks the defaults the same way a plan request would be checked.
func (d GeneratorDefaults) Validate() error {
	count := d.Quotas.Total()
	if count < 1 {
		count = 1
	}
	return generator.PlanRequest{
		Count:  count,
		Agents: d.Agents,
		Quotas: d.Quotas,
		Params: d.Params,
	}.Validate()
}
