package model

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spigell/retentioniq/internal/features"
)

const (
	ScalerStandard = "standard"
	ScalerMinMax   = "minmax"
)

// Scaler is a fitted per-column numeric transform.
//
// standard: (x - mean) / scale
// minmax:   x * scale + min
type Scaler struct {
	Kind  string    `json:"kind"`
	Mean  []float64 `json:"mean,omitempty"`
	Scale []float64 `json:"scale"`
	Min   []float64 `json:"min,omitempty"`
}

// LoadScaler reads a scaler from a JSON file.
func LoadScaler(path string) (*Scaler, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var s Scaler
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return &s, s.validate()
}

// Arity is the number of columns the scaler was fitted on.
func (s *Scaler) Arity() int { return len(s.Scale) }

func (s *Scaler) validate() error {
	if len(s.Scale) == 0 {
		return fmt.Errorf("scaler has no columns")
	}

	switch s.Kind {
	case ScalerStandard:
		if len(s.Mean) != len(s.Scale) {
			return fmt.Errorf("standard scaler has %d means and %d scales", len(s.Mean), len(s.Scale))
		}
	case ScalerMinMax:
		if len(s.Min) != len(s.Scale) {
			return fmt.Errorf("minmax scaler has %d mins and %d scales", len(s.Min), len(s.Scale))
		}
	default:
		return fmt.Errorf("unsupported scaler kind %q", s.Kind)
	}

	return nil
}

// Transform returns a scaled copy of v.
func (s *Scaler) Transform(v features.Vector) (features.Vector, error) {
	if len(v) != len(s.Scale) {
		return nil, fmt.Errorf("scaler expects %d features, got %d", len(s.Scale), len(v))
	}

	out := make(features.Vector, len(v))
	for i, x := range v {
		switch s.Kind {
		case ScalerStandard:
			scale := s.Scale[i]
			if scale == 0 {
				scale = 1
			}
			out[i] = (x - s.Mean[i]) / scale
		case ScalerMinMax:
			out[i] = x*s.Scale[i] + s.Min[i]
		}
	}

	return out, nil
}
