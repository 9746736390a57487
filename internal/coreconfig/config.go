// Package coreconfig holds the runtime core's configuration contract,
// loaded from YAML and falling back to defaults when no file is present,
// mirroring the teacher's internal/config.
package coreconfig

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/agentcore/runtime/internal/corelog"
)

// Config is the top-level configuration object.
type Config struct {
	Infrastructure InfrastructureConfig `yaml:"infrastructure"`
	Memory         MemoryConfig         `yaml:"memory"`
	Verification   VerificationConfig   `yaml:"verification"`
	Security       SecurityConfig       `yaml:"security"`
	Skills         SkillsConfig         `yaml:"skills"`
	Tape           TapeConfig           `yaml:"tape"`
}

// InfrastructureConfig groups the context-budget, event-store,
// cost-tracking, and tool-failure-injection sections.
type InfrastructureConfig struct {
	ContextBudget        ContextBudgetConfig        `yaml:"contextBudget"`
	Events               EventsConfig               `yaml:"events"`
	CostTracking         CostTrackingConfig         `yaml:"costTracking"`
	ToolFailureInjection ToolFailureInjectionConfig `yaml:"toolFailureInjection"`
}

// ContextBudgetConfig configures the pressure breaker and arena ceiling.
type ContextBudgetConfig struct {
	Enabled                    bool                    `yaml:"enabled"`
	MaxInjectionTokens         int                     `yaml:"maxInjectionTokens"`
	HardLimitPercent           float64                 `yaml:"hardLimitPercent"`
	CompactionThresholdPercent float64                 `yaml:"compactionThresholdPercent"`
	CompactionCircuitBreaker   CompactionBreakerConfig `yaml:"compactionCircuitBreaker"`
	Arena                      ArenaConfig             `yaml:"arena"`
}

// CompactionBreakerConfig configures the compaction circuit breaker.
type CompactionBreakerConfig struct {
	Enabled                bool `yaml:"enabled"`
	MaxConsecutiveFailures int  `yaml:"maxConsecutiveFailures"`
	CooldownTurns          int  `yaml:"cooldownTurns"`
}

// ArenaConfig configures the context arena's per-session ceiling.
type ArenaConfig struct {
	MaxEntriesPerSession int `yaml:"maxEntriesPerSession"`
}

// EventsConfig configures the event tape.
type EventsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"`
}

// CostTrackingConfig configures the session cost tracker.
type CostTrackingConfig struct {
	ActionOnExceed       string  `yaml:"actionOnExceed"` // "warn" | "block_tools"
	MaxCostUsdPerSession float64 `yaml:"maxCostUsdPerSession"`
	MaxCostUsdPerSkill   float64 `yaml:"maxCostUsdPerSkill"`
	WarnThresholdUsd     float64 `yaml:"warnThresholdUsd"`
}

// ToolFailureInjectionConfig configures the recent-tool-failures arena block.
type ToolFailureInjectionConfig struct {
	Enabled        bool `yaml:"enabled"`
	MaxEntries     int  `yaml:"maxEntries"`
	MaxOutputChars int  `yaml:"maxOutputChars"`
}

// MemoryConfig configures working memory and the external recall fallback —
// carried only as inert configuration since the recall engine itself is
// never invoked by this core.
type MemoryConfig struct {
	Enabled        bool                 `yaml:"enabled"`
	RecallMode     string               `yaml:"recallMode"` // "primary" | "fallback"
	RetrievalTopK  int                  `yaml:"retrievalTopK"`
	ExternalRecall ExternalRecallConfig `yaml:"externalRecall"`
}

// ExternalRecallConfig describes the thresholds governing a fallback recall
// call; this core never dials out, it only carries the config shape so a
// host process can decide whether to invoke an external recall service.
type ExternalRecallConfig struct {
	Enabled            bool    `yaml:"enabled"`
	MinInternalScore   float64 `yaml:"minInternalScore"`
	QueryTopK          int     `yaml:"queryTopK"`
	InjectedConfidence float64 `yaml:"injectedConfidence"`
}

// VerificationConfig configures the verification level and its check/command
// tables.
type VerificationConfig struct {
	DefaultLevel string             `yaml:"defaultLevel"`
	Checks       VerificationChecks `yaml:"checks"`
	Commands     map[string]string  `yaml:"commands"`
}

// VerificationChecks lists the check names at each verification level.
type VerificationChecks struct {
	Quick    []string `yaml:"quick"`
	Standard []string `yaml:"standard"`
	Strict   []string `yaml:"strict"`
}

// SecurityConfig configures the dispatch gate's security mode.
type SecurityConfig struct {
	Mode string `yaml:"mode"` // "strict" | "standard" | "permissive"
}

// SkillsConfig configures where skill documents are discovered and which are
// disabled or overridden.
type SkillsConfig struct {
	Roots     []string          `yaml:"roots"`
	Packs     []string          `yaml:"packs"`
	Overrides map[string]string `yaml:"overrides"`
	Selector  SelectorConfig    `yaml:"selector"`
	Disabled  []string          `yaml:"disabled"`
}

// SelectorConfig configures the skill selector's candidate count.
type SelectorConfig struct {
	K int `yaml:"k"`
}

// TapeConfig configures the event tape's checkpoint cadence.
type TapeConfig struct {
	CheckpointIntervalEntries int `yaml:"checkpointIntervalEntries"`
}

// DefaultConfig returns the configuration the runtime core ships with,
// mirroring the teacher's DefaultConfig constructors per-section.
func DefaultConfig() *Config {
	return &Config{
		Infrastructure: DefaultInfrastructureConfig(),
		Memory:         DefaultMemoryConfig(),
		Verification:   DefaultVerificationConfig(),
		Security:       SecurityConfig{Mode: "standard"},
		Skills:         DefaultSkillsConfig(),
		Tape:           TapeConfig{CheckpointIntervalEntries: 500},
	}
}

// DefaultInfrastructureConfig returns infrastructure defaults.
func DefaultInfrastructureConfig() InfrastructureConfig {
	return InfrastructureConfig{
		ContextBudget: ContextBudgetConfig{
			Enabled:                    true,
			MaxInjectionTokens:         8000,
			HardLimitPercent:           95,
			CompactionThresholdPercent: 80,
			CompactionCircuitBreaker: CompactionBreakerConfig{
				Enabled:                true,
				MaxConsecutiveFailures: 3,
				CooldownTurns:          5,
			},
			Arena: ArenaConfig{MaxEntriesPerSession: 2048},
		},
		Events: EventsConfig{Enabled: true, Dir: ".agentcore/tape"},
		CostTracking: CostTrackingConfig{
			ActionOnExceed:       "warn",
			MaxCostUsdPerSession: 5.0,
			MaxCostUsdPerSkill:   1.0,
			WarnThresholdUsd:     4.0,
		},
		ToolFailureInjection: ToolFailureInjectionConfig{
			Enabled:        true,
			MaxEntries:     5,
			MaxOutputChars: 2000,
		},
	}
}

// DefaultMemoryConfig returns memory defaults.
func DefaultMemoryConfig() MemoryConfig {
	return MemoryConfig{
		Enabled:       true,
		RecallMode:    "fallback",
		RetrievalTopK: 5,
		ExternalRecall: ExternalRecallConfig{
			Enabled:            false,
			MinInternalScore:   0.35,
			QueryTopK:          5,
			InjectedConfidence: 0.5,
		},
	}
}

// DefaultVerificationConfig returns verification defaults.
func DefaultVerificationConfig() VerificationConfig {
	return VerificationConfig{
		DefaultLevel: "standard",
		Checks: VerificationChecks{
			Quick:    []string{"lint"},
			Standard: []string{"lint", "unit_tests"},
			Strict:   []string{"lint", "unit_tests", "integration_tests"},
		},
		Commands: map[string]string{
			"lint":              "go vet ./...",
			"unit_tests":        "go test ./...",
			"integration_tests": "go test -tags integration ./...",
		},
	}
}

// DefaultSkillsConfig returns skill discovery defaults.
func DefaultSkillsConfig() SkillsConfig {
	return SkillsConfig{
		Roots:     []string{"skills"},
		Packs:     nil,
		Overrides: map[string]string{},
		Selector:  SelectorConfig{K: 3},
		Disabled:  nil,
	}
}

// Load reads config from path, falling back to DefaultConfig when the file
// does not exist.
func Load(path string) (*Config, error) {
	log := corelog.Get(corelog.CategoryConfig)
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Info("config file not found at %s, using defaults", path)
			return cfg, nil
		}
		return nil, fmt.Errorf("coreconfig: read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("coreconfig: parse %s: %w", path, err)
	}
	log.Info("config loaded from %s", path)
	return cfg, nil
}

// Save writes cfg to path as YAML, creating parent directories as needed.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("coreconfig: mkdir %s: %w", dir, err)
		}
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("coreconfig: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("coreconfig: write %s: %w", path, err)
	}
	return nil
}

// Validate checks invariants that the YAML decoder cannot enforce by itself.
func (c *Config) Validate() error {
	switch c.Security.Mode {
	case "strict", "standard", "permissive":
	default:
		return fmt.Errorf("coreconfig: invalid security.mode %q (want strict|standard|permissive)", c.Security.Mode)
	}
	switch c.Infrastructure.CostTracking.ActionOnExceed {
	case "warn", "block_tools":
	default:
		return fmt.Errorf("coreconfig: invalid infrastructure.costTracking.actionOnExceed %q (want warn|block_tools)", c.Infrastructure.CostTracking.ActionOnExceed)
	}
	switch c.Memory.RecallMode {
	case "primary", "fallback":
	default:
		return fmt.Errorf("coreconfig: invalid memory.recallMode %q (want primary|fallback)", c.Memory.RecallMode)
	}
	return nil
}
