package model

import (
	"fmt"
	"math"

	"github.com/spigell/retentioniq/internal/features"
)

// Scorer returns P(attrition) for an encoded record.
type Scorer interface {
	Score(v features.Vector) (float64, error)
	Arity() int
}

// Estimator is a fitted classifier returning the positive class probability.
type Estimator interface {
	Predict(v features.Vector) (float64, error)
	Arity() int
}

// NewScorer wraps the estimator. needs_scaling alone decides whether the
// scaler runs, whatever the model family; asking for scaling without a
// scaler is rejected.
func NewScorer(meta Metadata, est Estimator, scaler *Scaler) (Scorer, error) {
	if est == nil {
		return nil, configErr("no estimator for model type %q", meta.ModelType)
	}

	s := &scorer{est: est}
	if meta.NeedsScaling {
		if scaler == nil {
			return nil, configErr("model %q needs scaling but no scaler was loaded", meta.ModelType)
		}
		if scaler.Arity() != est.Arity() {
			return nil, configErr("scaler has %d columns, model expects %d", scaler.Arity(), est.Arity())
		}
		s.scaler = scaler
	}
	return s, nil
}

type scorer struct {
	est    Estimator
	scaler *Scaler
}

func (s *scorer) Arity() int { return s.est.Arity() }

func (s *scorer) Score(v features.Vector) (float64, error) {
	if len(v) != s.est.Arity() {
		return 0, &ScoringError{Stage: "validate", Err: fmt.Errorf("expected %d features, got %d", s.est.Arity(), len(v))}
	}

	x := v
	if s.scaler != nil {
		scaled, err := s.scaler.Transform(v)
		if err != nil {
			return 0, &ScoringError{Stage: "scale", Err: err}
		}
		x = scaled
	}

	p, err := s.est.Predict(x)
	if err != nil {
		return 0, &ScoringError{Stage: "predict", Err: err}
	}
	if math.IsNaN(p) {
		return 0, &ScoringError{Stage: "predict", Err: fmt.Errorf("model returned NaN")}
	}
	return math.Min(1, math.Max(0, p)), nil
}
