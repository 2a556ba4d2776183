package model

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spigell/retentioniq/internal/features"
)

// Linear is a logistic regression exported as coefficients.
type Linear struct {
	Coefficients []float64 `json:"coefficients"`
	Intercept    float64   `json:"intercept"`
}

// LoadLinear reads a linear model from a JSON file.
func LoadLinear(path string) (*Linear, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var l Linear
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(l.Coefficients) == 0 {
		return nil, fmt.Errorf("linear model %s has no coefficients", path)
	}

	return &l, nil
}

func (l *Linear) Arity() int { return len(l.Coefficients) }

func (l *Linear) Predict(v features.Vector) (float64, error) {
	if len(v) != len(l.Coefficients) {
		return 0, fmt.Errorf("linear model expects %d features, got %d", len(l.Coefficients), len(v))
	}

	z := l.Intercept
	for i, w := range l.Coefficients {
		z += w * v[i]
	}
	return sigmoid(z), nil
}
