package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spigell/retentioniq/internal/ai"
	"github.com/spigell/retentioniq/internal/attrition"
	"github.com/spigell/retentioniq/internal/features"
	"github.com/spigell/retentioniq/internal/metrics"
	"github.com/spigell/retentioniq/internal/model"
)

const treeDir = "../model/testdata/tree"

type recordingExplainer struct {
	narrative   ai.Narrative
	calls       int
	probability float64
}

func (r *recordingExplainer) Explain(_ context.Context, p float64, _ *attrition.Record) ai.Narrative {
	r.calls++
	r.probability = p
	return r.narrative
}

func loadArtifacts(t *testing.T, columns []string) *model.Artifacts {
	t.Helper()

	art, err := model.Load(model.Config{Dir: treeDir, DefaultFeatures: columns}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = art.Close() })
	return art
}

func highRiskRecord() *attrition.Record {
	r := attrition.Default()
	r.OverTime = "Yes"
	r.JobSatisfaction = 1
	r.DistanceFromHome = 25
	r.YearsAtCompany = 1
	r.MonthlyIncome = 5000
	return r
}

func baselineRecord() *attrition.Record {
	r := attrition.Default()
	r.OverTime = "No"
	r.JobSatisfaction = 4
	r.DistanceFromHome = 5
	r.YearsAtCompany = 10
	r.MonthlyIncome = 5000
	return r
}

func TestScoreRanksRiskProfiles(t *testing.T) {
	p, err := New(loadArtifacts(t, attrition.ColumnNames()), nil, zap.NewNop())
	require.NoError(t, err)

	high, err := p.Score(context.Background(), highRiskRecord())
	require.NoError(t, err)
	low, err := p.Score(context.Background(), baselineRecord())
	require.NoError(t, err)

	assert.Greater(t, high.Probability, low.Probability)
	assert.Equal(t, BandHigh, high.Band)
	assert.Equal(t, BandLow, low.Band)
	assert.InDelta(t, 0.7685, high.Probability, 1e-3)
}

func TestScoreIsDeterministic(t *testing.T) {
	p, err := New(loadArtifacts(t, attrition.ColumnNames()), nil, nil)
	require.NoError(t, err)

	first, err := p.Score(context.Background(), highRiskRecord())
	require.NoError(t, err)
	second, err := p.Score(context.Background(), highRiskRecord())
	require.NoError(t, err)

	assert.Equal(t, first.Probability, second.Probability)
}

func TestScoreResetsFixedRates(t *testing.T) {
	p, err := New(loadArtifacts(t, attrition.ColumnNames()), nil, nil)
	require.NoError(t, err)

	record := highRiskRecord()
	record.DailyRate = 1

	scored, err := p.Score(context.Background(), record)
	require.NoError(t, err)
	assert.Equal(t, attrition.FixedDailyRate, scored.Record.DailyRate)
	assert.Equal(t, 1, record.DailyRate, "caller record must not be modified")
}

func TestRunAttachesNarrative(t *testing.T) {
	explainer := &recordingExplainer{narrative: ai.Narrative{Content: "**Risk Assessment** high"}}
	rec := metrics.New()

	p, err := New(loadArtifacts(t, attrition.ColumnNames()), explainer, zap.NewNop(), WithMetrics(rec))
	require.NoError(t, err)

	result, err := p.Run(context.Background(), highRiskRecord())
	require.NoError(t, err)

	assert.NotEmpty(t, result.RequestID)
	assert.Equal(t, 1, explainer.calls)
	assert.Equal(t, result.Probability, explainer.probability)
	assert.Equal(t, "**Risk Assessment** high", result.Narrative.Content)

	names := make([]string, 0, len(result.Steps))
	for _, s := range result.Steps {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"validate", "encode", "score", "explain"}, names)
}

func TestRunKeepsFailedNarrative(t *testing.T) {
	explainer := &recordingExplainer{narrative: ai.Narrative{Content: "Error generating AI text: timeout", Failed: true}}

	p, err := New(loadArtifacts(t, attrition.ColumnNames()), explainer, nil)
	require.NoError(t, err)

	result, err := p.Run(context.Background(), baselineRecord())
	require.NoError(t, err)
	assert.True(t, result.Narrative.Failed)
	assert.Equal(t, BandLow, result.Band)
}

func TestRunWithoutExplainer(t *testing.T) {
	p, err := New(loadArtifacts(t, attrition.ColumnNames()), nil, nil)
	require.NoError(t, err)

	result, err := p.Run(context.Background(), baselineRecord())
	require.NoError(t, err)
	assert.Empty(t, result.Narrative.Content)
	assert.Len(t, result.Steps, 3)

	statuses := p.Describe()
	require.Len(t, statuses, 4)
	assert.False(t, statuses[3].Enabled)
	assert.NotEmpty(t, statuses[3].Reason)
}

func TestRunRejectsInvalidRecord(t *testing.T) {
	explainer := &recordingExplainer{}
	p, err := New(loadArtifacts(t, attrition.ColumnNames()), explainer, nil)
	require.NoError(t, err)

	record := highRiskRecord()
	record.Age = 12

	_, err = p.Run(context.Background(), record)
	var verr *attrition.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Zero(t, explainer.calls)
}

func TestMissingColumnIsScoringError(t *testing.T) {
	columns := attrition.ColumnNames()
	columns[len(columns)-1] = "Bonus"

	explainer := &recordingExplainer{}
	p, err := New(loadArtifacts(t, columns), explainer, nil)
	require.NoError(t, err)

	_, err = p.Run(context.Background(), highRiskRecord())
	require.ErrorIs(t, err, model.ErrScoring)
	require.ErrorIs(t, err, features.ErrMissingColumn)

	var serr *model.ScoringError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "encode", serr.Stage)
	assert.Zero(t, explainer.calls, "narrative must not be requested without a probability")
}

func TestRunHonoursCancelledContext(t *testing.T) {
	p, err := New(loadArtifacts(t, attrition.ColumnNames()), nil, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = p.Run(ctx, highRiskRecord())
	assert.True(t, errors.Is(err, context.Canceled))
}

// cancellingScorer cancels the request context once a score exists.
type cancellingScorer struct {
	model.Scorer
	cancel context.CancelFunc
}

func (s cancellingScorer) Score(v features.Vector) (float64, error) {
	p, err := s.Scorer.Score(v)
	s.cancel()
	return p, err
}

type contextExplainer struct {
	seen error
}

func (c *contextExplainer) Explain(ctx context.Context, _ float64, _ *attrition.Record) ai.Narrative {
	c.seen = ctx.Err()
	if c.seen != nil {
		return ai.Narrative{Content: "Error generating AI text: " + c.seen.Error(), Failed: true}
	}
	return ai.Narrative{Content: "ok"}
}

func TestRunKeepsProbabilityWhenContextEndsAfterScoring(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	art := *loadArtifacts(t, attrition.ColumnNames())
	art.Scorer = cancellingScorer{Scorer: art.Scorer, cancel: cancel}

	explainer := &contextExplainer{}
	p, err := New(&art, explainer, nil)
	require.NoError(t, err)

	result, err := p.Run(ctx, highRiskRecord())
	require.NoError(t, err)

	assert.ErrorIs(t, explainer.seen, context.Canceled)
	assert.InDelta(t, 0.7685, result.Probability, 1e-3)
	assert.Equal(t, BandHigh, result.Band)
	assert.True(t, result.Narrative.Failed)
	assert.Len(t, result.Steps, 4)
}

func TestNewConfigurationErrors(t *testing.T) {
	art := loadArtifacts(t, attrition.ColumnNames())

	_, err := New(nil, nil, nil)
	assert.ErrorIs(t, err, model.ErrConfiguration)

	noEncoders := *art
	noEncoders.Encoders = features.EncoderSet{}
	_, err = New(&noEncoders, nil, nil)
	assert.ErrorIs(t, err, model.ErrConfiguration)

	shortMeta := *art
	shortMeta.Metadata.FeatureNames = art.Metadata.FeatureNames[:10]
	_, err = New(&shortMeta, nil, nil)
	assert.ErrorIs(t, err, model.ErrConfiguration)
}

func TestBandFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		p    float64
		want Band
	}{
		{0, BandLow},
		{0.3299, BandLow},
		{0.33, BandMedium},
		{0.6599, BandMedium},
		{0.66, BandHigh},
		{1, BandHigh},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, BandFor(tt.p), "p=%v", tt.p)
	}
}
