package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/spigell/retentioniq/internal/ai"
	"github.com/spigell/retentioniq/internal/attrition"
	"github.com/spigell/retentioniq/internal/features"
	"github.com/spigell/retentioniq/internal/model"
)

// Stage is a single step applied to a prediction in flight.
type Stage interface {
	Name() string
	Disable(reason string)
	IsEnabled() bool

	Apply(ctx context.Context, s *State) error
}

// State carries a prediction through the stages.
type State struct {
	Record      *attrition.Record
	Vector      features.Vector
	Probability float64
	Narrative   ai.Narrative
	scored      bool
}

// Status describes a stage for diagnostics.
type Status struct {
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
	Reason  string `json:"reason,omitempty"`
}

type toggle struct {
	disabled bool
	reason   string
}

func (t *toggle) Disable(reason string) {
	t.disabled = true
	t.reason = reason
}

func (t *toggle) IsEnabled() bool { return !t.disabled }

func (t *toggle) reasonText() string { return t.reason }

type validateStage struct{ toggle }

func (s *validateStage) Name() string { return "validate" }

func (s *validateStage) Apply(_ context.Context, st *State) error {
	if st.Record == nil {
		return &attrition.ValidationError{Problems: []string{"record is empty"}}
	}
	record := *st.Record
	record.ApplyFixedRates()
	if err := attrition.Validate(&record); err != nil {
		return err
	}
	st.Record = &record
	return nil
}

type encodeStage struct {
	toggle
	encoder *features.Encoder
}

func (s *encodeStage) Name() string { return "encode" }

func (s *encodeStage) Apply(_ context.Context, st *State) error {
	v, err := s.encoder.Encode(st.Record.Columns())
	if err != nil {
		return &model.ScoringError{Stage: s.Name(), Err: err}
	}
	st.Vector = v
	return nil
}

type scoreStage struct {
	toggle
	scorer model.Scorer
}

func (s *scoreStage) Name() string { return "score" }

func (s *scoreStage) Apply(_ context.Context, st *State) error {
	p, err := s.scorer.Score(st.Vector)
	if err != nil {
		var serr *model.ScoringError
		if errors.As(err, &serr) {
			return err
		}
		return &model.ScoringError{Stage: s.Name(), Err: err}
	}
	st.Probability = p
	st.scored = true
	return nil
}

type explainStage struct {
	toggle
	explainer ai.Explainer
}

func (s *explainStage) Name() string { return "explain" }

func (s *explainStage) Apply(ctx context.Context, st *State) error {
	if !st.scored {
		return fmt.Errorf("explain requires a scored record")
	}
	st.Narrative = s.explainer.Explain(ctx, st.Probability, st.Record)
	return nil
}
