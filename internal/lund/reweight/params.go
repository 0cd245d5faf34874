package reweight

import "github.com/banshee-data/lundplane/internal/config"

// Params holds the numeric thresholds of the engine.
type Params struct {
	PtExtrapThreshold float64 // Subjets at or above this pt use the extrapolation table
	RatioFloor        float64 // Calibration bins with value and error at or below this are uninformative
	SmearFloor        float64 // Floor of smeared and extrapolated ratio values
	WeightFloor       float64 // Floor of the final per-jet weight
	WeightMax         float64 // Batch weights are clipped to [0, WeightMax]
	UncMinWeight      float64 // Uncertainties of weights below this are zeroed in a batch
}

// DefaultParams returns the standard thresholds.
func DefaultParams() Params {
	return Params{
		PtExtrapThreshold: 450,
		RatioFloor:        1e-4,
		SmearFloor:        1e-4,
		WeightFloor:       1e-8,
		WeightMax:         10,
		UncMinWeight:      1e-6,
	}
}

// ParamsFromConfig builds Params from a loaded LundConfig.
func ParamsFromConfig(cfg *config.LundConfig) Params {
	return Params{
		PtExtrapThreshold: cfg.GetPtExtrapThreshold(),
		RatioFloor:        cfg.GetRatioFloor(),
		SmearFloor:        cfg.GetSmearFloor(),
		WeightFloor:       cfg.GetWeightFloor(),
		WeightMax:         cfg.GetWeightMax(),
		UncMinWeight:      cfg.GetUncMinWeight(),
	}
}
