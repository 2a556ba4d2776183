package model

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	FormatJSON = "json"
	FormatONNX = "onnx"
)

// Family is the scoring strategy chosen from the metadata tag.
type Family string

const (
	FamilyTree   Family = "tree"
	FamilyScaled Family = "scaled"
)

var treeModelTypes = map[string]struct{}{
	"catboost":         {},
	"xgboost":          {},
	"lightgbm":         {},
	"gradientboosting": {},
}

// jsonDumpTypes can be read from a native json tree dump. Other tree
// ensembles are exported to onnx.
var jsonDumpTypes = map[string]struct{}{
	"xgboost": {},
}

const defaultBaseScore = 0.5

// Metadata describes the persisted classifier.
type Metadata struct {
	ModelType    string   `json:"model_type" yaml:"model_type"`
	NeedsScaling bool     `json:"needs_scaling" yaml:"needs_scaling"`
	FeatureNames []string `json:"feature_names,omitempty" yaml:"feature_names,omitempty"`
	Format       string   `json:"format,omitempty" yaml:"format,omitempty"`
	ONNX         ONNXIO   `json:"onnx,omitempty" yaml:"onnx,omitempty"`
	// BaseScore is the initial prediction of a json tree dump, as a
	// probability. The dump itself does not carry it.
	BaseScore *float64 `json:"base_score,omitempty" yaml:"base_score,omitempty"`
}

// ONNXIO names the graph tensors of an ONNX classifier.
type ONNXIO struct {
	Input  string `json:"input,omitempty" yaml:"input,omitempty"`
	Output string `json:"output,omitempty" yaml:"output,omitempty"`
}

// Family tells which estimator reader a json artifact needs. Scaling does
// not depend on it: needs_scaling alone decides whether the scaler runs.
func (m Metadata) Family() Family {
	if _, ok := treeModelTypes[m.modelKey()]; ok {
		return FamilyTree
	}
	return FamilyScaled
}

// BaseMargin is the log-odds the tree dump starts from.
func (m Metadata) BaseMargin() float64 {
	p := defaultBaseScore
	if m.BaseScore != nil {
		p = *m.BaseScore
	}
	return math.Log(p / (1 - p))
}

func (m Metadata) modelKey() string {
	return strings.ToLower(strings.TrimSpace(m.ModelType))
}

// ArtifactName is the base name of the serialized classifier.
func (m Metadata) ArtifactName() string {
	ext := FormatJSON
	if m.Format == FormatONNX {
		ext = FormatONNX
	}
	return fmt.Sprintf("best_model_%s.%s", strings.ToLower(strings.TrimSpace(m.ModelType)), ext)
}

var metadataNames = []string{"model_metadata.json", "model_metadata.yaml", "model_metadata.yml"}

// LoadMetadata reads the first metadata file found in dir.
func LoadMetadata(dir string) (*Metadata, error) {
	for _, name := range metadataNames {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, err
		}

		var meta Metadata
		if strings.HasSuffix(name, ".json") {
			err = json.Unmarshal(data, &meta)
		} else {
			err = yaml.Unmarshal(data, &meta)
		}
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}

		return &meta, meta.validate()
	}

	return nil, fmt.Errorf("no model metadata in %s", dir)
}

func (m *Metadata) validate() error {
	m.ModelType = strings.TrimSpace(m.ModelType)
	if m.ModelType == "" {
		return fmt.Errorf("model_type is required")
	}

	_, dumpable := jsonDumpTypes[m.modelKey()]

	m.Format = strings.ToLower(strings.TrimSpace(m.Format))
	switch m.Format {
	case "":
		m.Format = FormatJSON
		if m.Family() == FamilyTree && !dumpable {
			m.Format = FormatONNX
		}
	case FormatJSON, FormatONNX:
	default:
		return fmt.Errorf("unsupported model format %q", m.Format)
	}

	if m.Family() == FamilyTree && m.Format == FormatJSON && !dumpable {
		return fmt.Errorf("%s models are read from onnx exports, got format %q", m.ModelType, m.Format)
	}

	if m.BaseScore != nil && (*m.BaseScore <= 0 || *m.BaseScore >= 1) {
		return fmt.Errorf("base_score must be within (0, 1), got %v", *m.BaseScore)
	}

	return nil
}
