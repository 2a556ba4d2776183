package model

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/spigell/retentioniq/internal/features"
)

const (
	encodersFile = "label_encoders.json"
	scalerFile   = "scaler.json"
)

// Config points at the artifacts directory.
type Config struct {
	Dir string
	// DefaultFeatures is used when the metadata carries no feature_names.
	DefaultFeatures []string
	ONNXLibrary     string
}

// Artifacts is everything loaded from the model directory. It is never
// modified after Load returns.
type Artifacts struct {
	Metadata Metadata
	Encoders features.EncoderSet
	Scorer   Scorer

	closers []io.Closer
}

// Load reads metadata, encoders, classifier and optional scaler. Every
// failure wraps ErrConfiguration.
func Load(cfg Config, logger *zap.Logger) (*Artifacts, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	dir := strings.TrimSpace(cfg.Dir)
	if dir == "" {
		return nil, configErr("model directory is not configured")
	}

	meta, err := LoadMetadata(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: load metadata: %w", ErrConfiguration, err)
	}
	if len(meta.FeatureNames) == 0 {
		meta.FeatureNames = append([]string(nil), cfg.DefaultFeatures...)
	}
	if len(meta.FeatureNames) == 0 {
		return nil, configErr("feature names are unknown")
	}

	encoders, err := features.LoadEncoderSet(filepath.Join(dir, encodersFile))
	if err != nil {
		return nil, fmt.Errorf("%w: load encoders: %w", ErrConfiguration, err)
	}

	art := &Artifacts{Metadata: *meta, Encoders: encoders}

	est, err := loadEstimator(dir, *meta, cfg.ONNXLibrary)
	if err != nil {
		return nil, fmt.Errorf("%w: load classifier: %w", ErrConfiguration, err)
	}
	if c, ok := est.(io.Closer); ok {
		art.closers = append(art.closers, c)
	}

	if est.Arity() != len(meta.FeatureNames) {
		art.Close()
		return nil, configErr("classifier expects %d features, metadata lists %d", est.Arity(), len(meta.FeatureNames))
	}

	var scaler *Scaler
	if meta.NeedsScaling {
		scaler, err = LoadScaler(filepath.Join(dir, scalerFile))
		if err != nil {
			art.Close()
			return nil, fmt.Errorf("%w: load scaler: %w", ErrConfiguration, err)
		}
	}

	art.Scorer, err = NewScorer(*meta, est, scaler)
	if err != nil {
		art.Close()
		return nil, err
	}

	logger.Info("model artifacts loaded",
		zap.String("dir", dir),
		zap.String("model_type", meta.ModelType),
		zap.String("family", string(meta.Family())),
		zap.Bool("needs_scaling", meta.NeedsScaling),
		zap.Int("features", len(meta.FeatureNames)),
		zap.Int("encoders", len(encoders)),
	)

	return art, nil
}

func loadEstimator(dir string, meta Metadata, onnxLibrary string) (Estimator, error) {
	path := filepath.Join(dir, meta.ArtifactName())

	switch {
	case meta.Format == FormatONNX:
		return LoadONNXClassifier(path, len(meta.FeatureNames), meta.ONNX, onnxLibrary)
	case meta.Family() == FamilyTree:
		return LoadTreeEnsemble(path, meta.FeatureNames, meta.BaseMargin())
	default:
		return LoadLinear(path)
	}
}

// Close releases native resources held by the classifier.
func (a *Artifacts) Close() error {
	if a == nil {
		return nil
	}
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// Loader loads artifacts once per process and hands out the same result,
// including a load error, on every call.
type Loader struct {
	cfg    Config
	logger *zap.Logger

	once      sync.Once
	artifacts *Artifacts
	err       error
}

func NewLoader(cfg Config, logger *zap.Logger) *Loader {
	return &Loader{cfg: cfg, logger: logger}
}

func (l *Loader) Get() (*Artifacts, error) {
	l.once.Do(func() {
		l.artifacts, l.err = Load(l.cfg, l.logger)
	})
	return l.artifacts, l.err
}

// Exists reports whether dir looks like an artifacts directory.
func Exists(dir string) bool {
	for _, name := range metadataNames {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return true
		}
	}
	return false
}
