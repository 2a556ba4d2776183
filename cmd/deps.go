package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/spigell/retentioniq/internal/ai"
	"github.com/spigell/retentioniq/internal/ai/gemini"
	"github.com/spigell/retentioniq/internal/attrition"
	"github.com/spigell/retentioniq/internal/dataset"
	"github.com/spigell/retentioniq/internal/logger"
	"github.com/spigell/retentioniq/internal/metrics"
	"github.com/spigell/retentioniq/internal/model"
	"github.com/spigell/retentioniq/internal/pipeline"
	"github.com/spigell/retentioniq/internal/secrets"
)

const providerGemini = "gemini"

var errAIDisabled = errors.New("ai is disabled")

// newGenerator returns errAIDisabled when the generative model is switched off.
func newGenerator(ctx context.Context, cfg *AIConfig, log *zap.Logger) (*gemini.Generator, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, errAIDisabled
	}

	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if provider != "" && provider != providerGemini {
		return nil, fmt.Errorf("unsupported ai provider %q", cfg.Provider)
	}

	gcfg := cfg.Gemini
	if gcfg == nil {
		gcfg = &GeminiConfig{}
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name:    "gemini api key",
		File:    gcfg.APIKeyFile,
		FileEnv: "GEMINI_API_KEY_FILE",
		Value:   gcfg.APIKey,
		Env:     "GEMINI_API_KEY",
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.gemini.api-key-file, GEMINI_API_KEY_FILE or GEMINI_API_KEY)", err)
	}

	generator, err := gemini.NewGenerator(ctx, gemini.Options{
		APIKey:  apiKey,
		Model:   gcfg.Model,
		BaseURL: gcfg.BaseURL,
		Timeout: cfg.Timeout,
	}, logger.WithAIFields(log, providerGemini, gcfg.Model))
	if err != nil {
		return nil, err
	}

	log.Info("generative model configured", logger.AIFields(providerGemini, generator.Model())...)

	return generator, nil
}

// newExplainer never fails: without a generator every narrative is an error
// message, which is what the user sees when the key is missing.
func newExplainer(generator *gemini.Generator, cfg *AIConfig, log *zap.Logger) ai.Explainer {
	if cfg == nil || !cfg.Enabled {
		return nil
	}

	maxLogLength := 0
	if cfg.Gemini != nil {
		maxLogLength = cfg.Gemini.MaxLogLength
	}

	if generator == nil {
		return gemini.NewExplainer(nil, log, maxLogLength)
	}
	return gemini.NewExplainer(generator, log, maxLogLength)
}

func modelConfig(cfg *ModelConfig) model.Config {
	mc := model.Config{DefaultFeatures: attrition.ColumnNames()}
	if cfg != nil {
		mc.Dir = cfg.Dir
		mc.ONNXLibrary = cfg.ONNXLibrary
	}
	return mc
}

// pipelineSource builds the pipeline on first use and caches the outcome,
// including a configuration error.
func pipelineSource(loader *model.Loader, explainer ai.Explainer, log *zap.Logger, rec *metrics.Recorder) func() (*pipeline.Pipeline, error) {
	return sync.OnceValues(func() (*pipeline.Pipeline, error) {
		art, err := loader.Get()
		if err != nil {
			return nil, err
		}
		return pipeline.New(art, explainer, log, pipeline.WithMetrics(rec))
	})
}

func loadDataset(cfg *DatasetConfig, log *zap.Logger) *dataset.Dataset {
	if cfg == nil || strings.TrimSpace(cfg.Path) == "" {
		log.Warn("dataset path is not configured; insights are disabled")
		return nil
	}

	ds, err := dataset.Load(cfg.Path)
	if err != nil {
		log.Warn("employee dataset not loaded; insights are disabled",
			zap.String("path", cfg.Path),
			zap.Error(err),
		)
		return nil
	}

	log.Info("employee dataset loaded", zap.String("path", cfg.Path), zap.Int("rows", ds.Len()))
	return ds
}

func previewRows(cfg *DatasetConfig) int {
	if cfg == nil || cfg.PreviewRows <= 0 {
		return 5
	}
	return cfg.PreviewRows
}
