package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"github.com/spigell/retentioniq/internal/ai"
	"github.com/spigell/retentioniq/internal/attrition"
	"github.com/spigell/retentioniq/internal/logger"
	"github.com/spigell/retentioniq/internal/utils"
)

const (
	providerName        = "gemini"
	defaultMaxLogLength = 200
	errorPrefix         = "Error generating AI text: "
)

//go:embed prompt.md
var promptTemplate string

type contentGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
	Model() string
}

// Explainer asks the model for a risk assessment and recommended actions.
// It never returns an error: failures become a narrative with Failed set.
type Explainer struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
}

var _ ai.Explainer = (*Explainer)(nil)

func NewExplainer(generator contentGenerator, log *zap.Logger, maxLogLength int) *Explainer {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	model := ""
	if generator != nil {
		model = generator.Model()
	}

	return &Explainer{
		generator: generator,
		logger:    logger.WithAIFields(log, providerName, model),
		maxLogLen: maxLogLength,
	}
}

func (e *Explainer) Explain(ctx context.Context, probability float64, record *attrition.Record) ai.Narrative {
	text, err := e.explain(ctx, probability, record)
	if err != nil {
		e.logger.Warn("narrative generation failed", zap.Error(err))
		return ai.Narrative{Content: errorPrefix + err.Error(), Failed: true}
	}
	return ai.Narrative{Content: text}
}

func (e *Explainer) explain(ctx context.Context, probability float64, record *attrition.Record) (string, error) {
	if e == nil || e.generator == nil {
		return "", errors.New("narrative generator is not configured")
	}
	if record == nil {
		return "", errors.New("employee record is required")
	}

	var employeeJSON bytes.Buffer
	enc := json.NewEncoder(&employeeJSON)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(record); err != nil {
		return "", fmt.Errorf("marshal employee record: %w", err)
	}

	prompt := buildPrompt(probability, strings.TrimSpace(employeeJSON.String()))

	e.logger.Debug("gemini generate content request",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, e.maxLogLen)),
	)

	raw, err := e.generator.GenerateContent(ctx, prompt)
	if err != nil {
		return "", err
	}

	e.logger.Debug("gemini generate content response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, e.maxLogLen)),
	)

	return strings.TrimSpace(raw), nil
}

func buildPrompt(probability float64, employeeJSON string) string {
	template := promptTemplate
	if strings.TrimSpace(template) == "" {
		template = "Attrition Probability: {{PROBABILITY}}\n\nEmployee Data:\n{{EMPLOYEE_JSON}}"
	}
	prompt := strings.ReplaceAll(template, "{{PROBABILITY}}", FormatProbability(probability))
	prompt = strings.ReplaceAll(prompt, "{{EMPLOYEE_JSON}}", employeeJSON)
	return prompt
}

// FormatProbability renders p as a percentage with two decimals.
func FormatProbability(p float64) string {
	return fmt.Sprintf("%.2f%%", p*100)
}
