package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/retentioniq/internal/ai"
	"github.com/spigell/retentioniq/internal/attrition"
	"github.com/spigell/retentioniq/internal/features"
	"github.com/spigell/retentioniq/internal/logger"
	"github.com/spigell/retentioniq/internal/metrics"
	"github.com/spigell/retentioniq/internal/model"
)

// Step records how long a stage took for one prediction.
type Step struct {
	Name     string        `json:"name"`
	Duration time.Duration `json:"duration_ns"`
}

// ScoredRecord is a validated record with its probability.
type ScoredRecord struct {
	Record      *attrition.Record `json:"record"`
	Probability float64           `json:"probability"`
	Band        Band              `json:"band"`
}

// Result is the full outcome of Run.
type Result struct {
	RequestID string `json:"request_id"`
	ScoredRecord
	Narrative ai.Narrative `json:"narrative"`
	Steps     []Step       `json:"steps"`
}

// Pipeline runs validate, encode, score and explain for one record at a time.
// It holds no per-request state and is safe for concurrent use.
type Pipeline struct {
	meta    model.Metadata
	scoring []Stage
	explain Stage
	logger  *zap.Logger
	metrics *metrics.Recorder
}

type Option func(*Pipeline)

func WithMetrics(r *metrics.Recorder) Option {
	return func(p *Pipeline) { p.metrics = r }
}

// New wires the stages from loaded artifacts. A nil explainer disables the
// explain stage.
func New(art *model.Artifacts, explainer ai.Explainer, log *zap.Logger, opts ...Option) (*Pipeline, error) {
	if art == nil || art.Scorer == nil {
		return nil, fmt.Errorf("%w: model artifacts are not loaded", model.ErrConfiguration)
	}
	if log == nil {
		log = zap.NewNop()
	}

	if missing := art.Encoders.Missing(attrition.CategoricalColumns()); len(missing) > 0 {
		return nil, fmt.Errorf("%w: no label encoder for %s", model.ErrConfiguration, strings.Join(missing, ", "))
	}
	if art.Scorer.Arity() != len(art.Metadata.FeatureNames) {
		return nil, fmt.Errorf("%w: classifier expects %d features, metadata lists %d",
			model.ErrConfiguration, art.Scorer.Arity(), len(art.Metadata.FeatureNames))
	}

	encoder, err := features.NewEncoder(art.Metadata.FeatureNames, art.Encoders, log)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrConfiguration, err)
	}

	p := &Pipeline{
		meta: art.Metadata,
		scoring: []Stage{
			&validateStage{},
			&encodeStage{encoder: encoder},
			&scoreStage{scorer: art.Scorer},
		},
		explain: &explainStage{explainer: explainer},
		logger:  log,
	}
	if explainer == nil {
		p.explain.Disable("narrative generation is not configured")
	}
	for _, opt := range opts {
		opt(p)
	}

	p.metrics.SetModel(art.Metadata.ModelType, string(art.Metadata.Family()), art.Metadata.NeedsScaling)

	return p, nil
}

// Score validates and scores a record without asking for a narrative.
func (p *Pipeline) Score(ctx context.Context, record *attrition.Record) (*ScoredRecord, error) {
	st := &State{Record: record}
	if _, err := p.run(ctx, p.logger, p.scoring, st); err != nil {
		return nil, err
	}
	return p.scored(st), nil
}

// Run scores the record and attaches a narrative. The narrative is only
// requested once a probability exists; a failed narrative is not an error.
func (p *Pipeline) Run(ctx context.Context, record *attrition.Record) (*Result, error) {
	id := uuid.NewString()
	log := logger.WithRequest(p.logger, id, p.meta.ModelType)

	st := &State{Record: record}
	steps, err := p.run(ctx, log, append(p.scoring[:len(p.scoring):len(p.scoring)], p.explain), st)
	if err != nil {
		return nil, err
	}

	if p.explain.IsEnabled() && st.Narrative.Failed {
		p.metrics.RecordNarrativeFailure()
	}

	return &Result{
		RequestID:    id,
		ScoredRecord: *p.scored(st),
		Narrative:    st.Narrative,
		Steps:        steps,
	}, nil
}

// Describe returns the stage list with enablement.
func (p *Pipeline) Describe() []Status {
	stages := append(p.scoring[:len(p.scoring):len(p.scoring)], p.explain)
	statuses := make([]Status, 0, len(stages))
	for _, s := range stages {
		st := Status{Name: s.Name(), Enabled: s.IsEnabled()}
		if t, ok := s.(interface{ reasonText() string }); ok {
			st.Reason = t.reasonText()
		}
		statuses = append(statuses, st)
	}
	return statuses
}

func (p *Pipeline) Metadata() model.Metadata { return p.meta }

func (p *Pipeline) scored(st *State) *ScoredRecord {
	band := BandFor(st.Probability)
	p.metrics.RecordPrediction(string(band))
	return &ScoredRecord{Record: st.Record, Probability: st.Probability, Band: band}
}

func (p *Pipeline) run(ctx context.Context, log *zap.Logger, stages []Stage, st *State) ([]Step, error) {
	steps := make([]Step, 0, len(stages))

	for _, stage := range stages {
		if !stage.IsEnabled() {
			log.Debug("pipeline stage disabled", zap.String("name", stage.Name()))
			continue
		}
		// explain turns an expired context into a failed narrative itself,
		// so a computed probability is never dropped.
		if _, explain := stage.(*explainStage); !explain {
			if err := ctx.Err(); err != nil {
				return steps, fmt.Errorf("%s: %w", stage.Name(), err)
			}
		}

		start := time.Now()
		err := stage.Apply(ctx, st)
		elapsed := time.Since(start)
		p.metrics.ObserveStage(stage.Name(), elapsed)

		if err != nil {
			p.metrics.RecordPredictionError(stage.Name())
			log.Warn("pipeline step failed",
				zap.String("name", stage.Name()),
				zap.Duration("duration", elapsed),
				zap.Error(err),
			)
			var verr *attrition.ValidationError
			if errors.As(err, &verr) || errors.Is(err, model.ErrScoring) {
				return steps, err
			}
			return steps, fmt.Errorf("%s: %w", stage.Name(), err)
		}

		log.Debug("pipeline step",
			zap.String("name", stage.Name()),
			zap.Duration("duration", elapsed),
		)
		steps = append(steps, Step{Name: stage.Name(), Duration: elapsed})
	}

	log.Info("prediction scored",
		zap.Float64("probability", st.Probability),
		zap.String("band", string(BandFor(st.Probability))),
	)

	return steps, nil
}
