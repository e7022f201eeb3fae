package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	ProtocolVersion string `yaml:"protocol_version" json:"protocol_version"`

	TickRateHz int `yaml:"tick_rate_hz" json:"tick_rate_hz"`
	SlotCount  int `yaml:"slot_count" json:"slot_count"`
	// VacateExpired frees the slot of a pinned order whose timer ran out.
	VacateExpired bool `yaml:"vacate_expired" json:"vacate_expired"`

	Scoring    Scoring    `yaml:"scoring" json:"scoring"`
	RateLimits RateLimits `yaml:"rate_limits" json:"rate_limits"`
}

type Scoring struct {
	BaseScore               float64            `yaml:"base_score" json:"base_score"`
	QualityMultipliers      map[string]float64 `yaml:"quality_multipliers" json:"quality_multipliers"`
	PrecisionBonusPercent   float64            `yaml:"precision_bonus_percent" json:"precision_bonus_percent"`
	CorrectToolBonusPercent float64            `yaml:"correct_tool_bonus_percent" json:"correct_tool_bonus_percent"`
	// PreferredTools maps a tool name to the joints it cuts cleanly.
	PreferredTools map[string][]string `yaml:"preferred_tools" json:"preferred_tools"`
}

type RateLimits struct {
	CommandsPerTick int `yaml:"commands_per_tick" json:"commands_per_tick"`
}

func Defaults() Tuning {
	return Tuning{
		ProtocolVersion: "1.0",
		TickRateHz:      20,
		SlotCount:       3,
		VacateExpired:   true,
		Scoring: Scoring{
			BaseScore: 100,
			QualityMultipliers: map[string]float64{
				"LOW":     0.5,
				"NORMAL":  1.0,
				"HIGH":    1.25,
				"PERFECT": 1.5,
			},
			PrecisionBonusPercent:   0.2,
			CorrectToolBonusPercent: 0.15,
			PreferredTools: map[string][]string{
				"CLEAVER": {"NECK", "TORSO_MIDDLE"},
				"SAW":     {"SHOULDER", "HIP"},
				"KNIFE":   {"ELBOW", "KNEE"},
				"SHEARS":  {"WRIST", "ANKLE"},
			},
		},
		RateLimits: RateLimits{
			CommandsPerTick: 64,
		},
	}
}

func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	t.Normalize()
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

// Normalize fills zero values left by a partial file.
func (t *Tuning) Normalize() {
	d := Defaults()
	if t.ProtocolVersion == "" {
		t.ProtocolVersion = d.ProtocolVersion
	}
	if t.TickRateHz <= 0 {
		t.TickRateHz = d.TickRateHz
	}
	if t.SlotCount == 0 {
		t.SlotCount = d.SlotCount
	}
	if t.RateLimits.CommandsPerTick <= 0 {
		t.RateLimits.CommandsPerTick = d.RateLimits.CommandsPerTick
	}
	if t.Scoring.BaseScore == 0 {
		t.Scoring.BaseScore = d.Scoring.BaseScore
	}
	if len(t.Scoring.QualityMultipliers) == 0 {
		t.Scoring.QualityMultipliers = d.Scoring.QualityMultipliers
	}
	if t.Scoring.PreferredTools == nil {
		t.Scoring.PreferredTools = d.Scoring.PreferredTools
	}
}

func (t Tuning) Validate() error {
	if t.SlotCount != 3 {
		return fmt.Errorf("slot_count must be 3, got %d", t.SlotCount)
	}
	if t.TickRateHz > 1000 {
		return fmt.Errorf("tick_rate_hz must be <= 1000, got %d", t.TickRateHz)
	}
	if t.Scoring.BaseScore < 0 {
		return fmt.Errorf("scoring.base_score must be >= 0")
	}
	for _, q := range []string{"LOW", "NORMAL", "HIGH", "PERFECT"} {
		if _, ok := t.Scoring.QualityMultipliers[q]; !ok {
			return fmt.Errorf("scoring.quality_multipliers missing %s", q)
		}
	}
	qm := t.Scoring.QualityMultipliers
	if !(qm["PERFECT"] >= qm["HIGH"] && qm["HIGH"] >= qm["NORMAL"] && qm["NORMAL"] >= qm["LOW"]) {
		return fmt.Errorf("scoring.quality_multipliers must be ordered PERFECT >= HIGH >= NORMAL >= LOW")
	}
	return nil
}
