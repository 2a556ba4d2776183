package cmd

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/retentioniq/internal/ai"
	"github.com/spigell/retentioniq/internal/attrition"
	"github.com/spigell/retentioniq/internal/pipeline"
)

func testResult() *pipeline.Result {
	return &pipeline.Result{
		RequestID: "req-1",
		ScoredRecord: pipeline.ScoredRecord{
			Record:      attrition.Default(),
			Probability: 0.4567,
			Band:        pipeline.BandMedium,
		},
		Narrative: ai.Narrative{Content: "## Risk Assessment\nModerate."},
	}
}

func TestPrintResultText(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, printResult(&out, testResult(), "text"))

	assert.Contains(t, out.String(), "Attrition Probability: 45.67% (medium risk)")
	assert.Contains(t, out.String(), "## Risk Assessment")
}

func TestPrintResultJSON(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, printResult(&out, testResult(), "json"))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	assert.Equal(t, "req-1", decoded["request_id"])
	assert.Equal(t, "medium", decoded["band"])
}

func TestPrintResultUnknownFormat(t *testing.T) {
	assert.Error(t, printResult(&bytes.Buffer{}, testResult(), "yaml"))
}

func TestParseBounded(t *testing.T) {
	age := attrition.Field{Name: "Age", Min: 18, Max: 65}

	v, err := parseBounded(" 40 ", age)
	require.NoError(t, err)
	assert.Equal(t, 40, v)

	for _, in := range []string{"17", "66", "forty", "40.5"} {
		_, err := parseBounded(in, age)
		assert.Error(t, err, in)
	}
}

func TestIndexOf(t *testing.T) {
	options := []string{"Yes", "No"}
	assert.Equal(t, 1, indexOf(options, "No"))
	assert.Equal(t, 0, indexOf(options, "Maybe"))
}
