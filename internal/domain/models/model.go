package models

// ModelSnapshotVersion guards the persisted classifier blob schema.
const ModelSnapshotVersion = 1

// ModelSnapshot is the full persisted state of the adaptive classifier.
// Restore replaces every field atomically; a partial snapshot is invalid.
type ModelSnapshot struct {
	Version         int       `json:"version"`
	Weights         []float64 `json:"weights"`
	Bias            float64   `json:"bias"`
	ScalerMean      []float64 `json:"scaler_mean"`
	ScalerScale     []float64 `json:"scaler_scale"`
	ScalerFitted    bool      `json:"scaler_fitted"`
	Trained         bool      `json:"trained"`
	TrainingSamples int       `json:"training_samples"`
}

// ModelInfo is the read-only classifier view exposed over the API.
type ModelInfo struct {
	Trained         bool `json:"trained"`
	TrainingSamples int  `json:"training_samples"`
}
