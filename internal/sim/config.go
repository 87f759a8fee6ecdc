package sim

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Tuning carries every model constant. All simulation maths reads from a
// Tuning value so experiment sweeps can vary them from a yaml file without
// rebuilding.
type Tuning struct {
	// Hazard contact, applied per tick of Moore-1 adjacency.
	FireHealthDamage  float64 `yaml:"fire_health_damage"`
	FireSpeedDamage   float64 `yaml:"fire_speed_damage"`
	SmokeHealthDamage float64 `yaml:"smoke_health_damage"`
	SmokeSpeedDamage  float64 `yaml:"smoke_speed_damage"`
	SlowdownThreshold float64 `yaml:"slowdown_threshold"` // health below this: smoke also slows

	// Shock and panic.
	ShockDecay     float64 `yaml:"shock_decay"`     // subtracted each tick
	ShockIncrement float64 `yaml:"shock_increment"` // added per affecting occupant in view
	PanicThreshold float64 `yaml:"panic_threshold"`
	FaintThreshold float64 `yaml:"faint_threshold"` // above this, faint check rolls panic score

	// Movement.
	PushThreshold float64 `yaml:"push_threshold"` // panic score at which a NORMAL mover may shove
	PushDamageMax float64 `yaml:"push_damage_max"`

	// Smoke propagation.
	SmokeSpreadRate      float64 `yaml:"smoke_spread_rate"`
	SmokeSpreadThreshold float64 `yaml:"smoke_spread_threshold"`

	// Randomized human attributes.
	MinSpeed       int `yaml:"min_speed"`
	MaxSpeed       int `yaml:"max_speed"`
	MinVision      int `yaml:"min_vision"`
	MaxVision      int `yaml:"max_vision"`
	MinNervousness int `yaml:"min_nervousness"`
	MaxNervousness int `yaml:"max_nervousness"`
	MinExperience  int `yaml:"min_experience"`
	MaxExperience  int `yaml:"max_experience"`

	// Fire ignition.
	FireStartTick int `yaml:"fire_start_tick"`
}

// DefaultTuning returns the baseline constants.
func DefaultTuning() Tuning {
	return Tuning{
		FireHealthDamage:  0.2,
		FireSpeedDamage:   2.0,
		SmokeHealthDamage: 0.01,
		SmokeSpeedDamage:  1.0,
		SlowdownThreshold: 0.5,

		ShockDecay:     0.05,
		ShockIncrement: 0.1,
		PanicThreshold: 0.8,
		FaintThreshold: 0.9,

		PushThreshold: 0.7,
		PushDamageMax: 0.1,

		SmokeSpreadRate:      1.0,
		SmokeSpreadThreshold: 5.0,

		MinSpeed:       1,
		MaxSpeed:       2,
		MinVision:      1,
		MaxVision:      8,
		MinNervousness: 1,
		MaxNervousness: 10,
		MinExperience:  1,
		MaxExperience:  10,

		FireStartTick: 1,
	}
}

// LoadTuning reads a yaml tuning file. Fields absent from the file keep
// their defaults.
func LoadTuning(path string) (Tuning, error) {
	t := DefaultTuning()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning %s: %w", path, err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning %s: %w", path, err)
	}
	return t, nil
}

// Validate rejects tunings that cannot drive a run.
func (t Tuning) Validate() error {
	if t.MinSpeed < 1 || t.MaxSpeed < t.MinSpeed {
		return fmt.Errorf("speed range [%d,%d] invalid", t.MinSpeed, t.MaxSpeed)
	}
	if t.MinVision < 1 || t.MaxVision < t.MinVision {
		return fmt.Errorf("vision range [%d,%d] invalid", t.MinVision, t.MaxVision)
	}
	if t.MaxExperience < t.MinExperience || t.MinExperience < 1 {
		return fmt.Errorf("experience range [%d,%d] invalid", t.MinExperience, t.MaxExperience)
	}
	if t.MaxNervousness < t.MinNervousness || t.MinNervousness < 1 {
		return fmt.Errorf("nervousness range [%d,%d] invalid", t.MinNervousness, t.MaxNervousness)
	}
	if t.PanicThreshold <= 0 || t.PanicThreshold > 1 {
		return fmt.Errorf("panic threshold %.2f out of (0,1]", t.PanicThreshold)
	}
	return nil
}
