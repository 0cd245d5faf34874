package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultConfigPath is the path to the canonical Lund-plane defaults file.
// This is the single source of truth for all default engine settings.
const DefaultConfigPath = "config/lund.defaults.json"

// LundConfig is the root configuration of the declustering and reweighting
// engine. Every field is optional; the Get* methods supply defaults for
// fields left out of the JSON.
type LundConfig struct {
	// Declustering
	JetRadius        *float64 `json:"jet_radius,omitempty"` // negative means unbounded
	NumExclusiveJets *int     `json:"num_excjets,omitempty"`
	MaxJets          *int     `json:"max_jets,omitempty"`
	PFPtMin          *float64 `json:"pf_pt_min,omitempty"`
	EnergyMin        *float64 `json:"energy_min,omitempty"`
	ChargeOnly       *bool    `json:"charge_only,omitempty"`
	ChargeEps        *float64 `json:"charge_eps,omitempty"`
	MatchTolerance   *float64 `json:"match_tolerance,omitempty"`

	// Lund plane
	LundDR *float64 `json:"lund_dr,omitempty"`

	// Reweighting
	PtExtrapThreshold *float64 `json:"pt_extrap_threshold,omitempty"`
	RatioFloor        *float64 `json:"ratio_floor,omitempty"`
	SmearFloor        *float64 `json:"smear_floor,omitempty"`
	WeightFloor       *float64 `json:"weight_floor,omitempty"`
	WeightMax         *float64 `json:"weight_max,omitempty"`
	UncMinWeight      *float64 `json:"unc_min_weight,omitempty"`

	// Dataset
	NormUnc  *float64 `json:"norm_unc,omitempty"`
	SysPower *float64 `json:"sys_power,omitempty"`
	Workers  *int     `json:"workers,omitempty"`
}

// EmptyLundConfig returns a LundConfig with all fields unset.
func EmptyLundConfig() *LundConfig {
	return &LundConfig{}
}

// LoadLundConfig loads a LundConfig from a JSON file.
// The file must have a .json extension and be under 1MB. Fields omitted from
// the file keep their defaults, so partial configs are safe.
func LoadLundConfig(path string) (*LundConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return ParseLundConfig(data)
}

// ParseLundConfig decodes and validates a JSON document.
func ParseLundConfig(data []byte) (*LundConfig, error) {
	cfg := EmptyLundConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// MustLoadDefaultConfig loads DefaultConfigPath, searching the current
// directory and its parents up to the repository root.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *LundConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,       // from internal/config/
		"../../../" + DefaultConfigPath,    // from internal/lund/<pkg>/
		"../../../../" + DefaultConfigPath, // deeper packages
	}
	for _, path := range candidates {
		if cfg, err := LoadLundConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configured values are usable.
func (c *LundConfig) Validate() error {
	if c.JetRadius != nil && *c.JetRadius == 0 {
		return fmt.Errorf("jet_radius must be positive or negative (unbounded), got 0")
	}
	if c.LundDR != nil && *c.LundDR <= 0 {
		return fmt.Errorf("lund_dr must be positive, got %f", *c.LundDR)
	}
	if c.WeightMax != nil && *c.WeightMax <= 0 {
		return fmt.Errorf("weight_max must be positive, got %f", *c.WeightMax)
	}
	if c.WeightFloor != nil && *c.WeightFloor <= 0 {
		return fmt.Errorf("weight_floor must be positive, got %g", *c.WeightFloor)
	}
	if c.WeightFloor != nil && c.WeightMax != nil && *c.WeightFloor >= *c.WeightMax {
		return fmt.Errorf("weight_floor %g must be below weight_max %g", *c.WeightFloor, *c.WeightMax)
	}
	if c.NormUnc != nil && (*c.NormUnc < 0 || *c.NormUnc >= 1) {
		return fmt.Errorf("norm_unc must be in [0, 1), got %f", *c.NormUnc)
	}
	if c.Workers != nil && *c.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", *c.Workers)
	}
	for name, v := range map[string]*float64{
		"pf_pt_min":       c.PFPtMin,
		"energy_min":      c.EnergyMin,
		"charge_eps":      c.ChargeEps,
		"match_tolerance": c.MatchTolerance,
		"ratio_floor":     c.RatioFloor,
		"smear_floor":     c.SmearFloor,
		"unc_min_weight":  c.UncMinWeight,
	} {
		if v != nil && *v < 0 {
			return fmt.Errorf("%s must be non-negative, got %g", name, *v)
		}
	}
	return nil
}

// GetJetRadius returns the jet_radius value or the default (unbounded).
func (c *LundConfig) GetJetRadius() float64 {
	if c.JetRadius == nil {
		return -1
	}
	return *c.JetRadius
}

// GetNumExclusiveJets returns the num_excjets value or the default.
func (c *LundConfig) GetNumExclusiveJets() int {
	if c.NumExclusiveJets == nil {
		return 2
	}
	return *c.NumExclusiveJets
}

// GetMaxJets returns the max_jets value or the default (no cap).
func (c *LundConfig) GetMaxJets() int {
	if c.MaxJets == nil {
		return -1
	}
	return *c.MaxJets
}

// GetPFPtMin returns the pf_pt_min value or the default.
func (c *LundConfig) GetPFPtMin() float64 {
	if c.PFPtMin == nil {
		return 1.0
	}
	return *c.PFPtMin
}

// GetEnergyMin returns the energy_min value or the default.
func (c *LundConfig) GetEnergyMin() float64 {
	if c.EnergyMin == nil {
		return 1e-4
	}
	return *c.EnergyMin
}

// GetChargeOnly returns the charge_only value or the default.
func (c *LundConfig) GetChargeOnly() bool {
	if c.ChargeOnly == nil {
		return false
	}
	return *c.ChargeOnly
}

// GetChargeEps returns the charge_eps value or the default.
func (c *LundConfig) GetChargeEps() float64 {
	if c.ChargeEps == nil {
		return 1e-4
	}
	return *c.ChargeEps
}

// GetMatchTolerance returns the match_tolerance value or the default.
func (c *LundConfig) GetMatchTolerance() float64 {
	if c.MatchTolerance == nil {
		return 1e-4
	}
	return *c.MatchTolerance
}

// GetLundDR returns the lund_dr value or the default.
func (c *LundConfig) GetLundDR() float64 {
	if c.LundDR == nil {
		return 0.8
	}
	return *c.LundDR
}

// GetPtExtrapThreshold returns the pt_extrap_threshold value or the default.
func (c *LundConfig) GetPtExtrapThreshold() float64 {
	if c.PtExtrapThreshold == nil {
		return 450
	}
	return *c.PtExtrapThreshold
}

// GetRatioFloor returns the ratio_floor value or the default.
func (c *LundConfig) GetRatioFloor() float64 {
	if c.RatioFloor == nil {
		return 1e-4
	}
	return *c.RatioFloor
}

// GetSmearFloor returns the smear_floor value or the default.
func (c *LundConfig) GetSmearFloor() float64 {
	if c.SmearFloor == nil {
		return 1e-4
	}
	return *c.SmearFloor
}

// GetWeightFloor returns the weight_floor value or the default.
func (c *LundConfig) GetWeightFloor() float64 {
	if c.WeightFloor == nil {
		return 1e-8
	}
	return *c.WeightFloor
}

// GetWeightMax returns the weight_max value or the default.
func (c *LundConfig) GetWeightMax() float64 {
	if c.WeightMax == nil {
		return 10
	}
	return *c.WeightMax
}

// GetUncMinWeight returns the unc_min_weight value or the default.
func (c *LundConfig) GetUncMinWeight() float64 {
	if c.UncMinWeight == nil {
		return 1e-6
	}
	return *c.UncMinWeight
}

// GetNormUnc returns the norm_unc value or the default.
func (c *LundConfig) GetNormUnc() float64 {
	if c.NormUnc == nil {
		return 0.1
	}
	return *c.NormUnc
}

// GetSysPower returns the sys_power value or the default.
func (c *LundConfig) GetSysPower() float64 {
	if c.SysPower == nil {
		return 1.0
	}
	return *c.SysPower
}

// GetWorkers returns the workers value or the default (0, one per CPU).
func (c *LundConfig) GetWorkers() int {
	if c.Workers == nil {
		return 0
	}
	return *c.Workers
}
