package features

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"

	"go.uber.org/zap"
)

// Fallback is the code used for a category the encoder never saw.
const Fallback = 0

var (
	ErrUnseenCategory = errors.New("unseen category")
	ErrMissingColumn  = errors.New("missing column")
	ErrNotNumeric     = errors.New("column is not numeric")
)

// Vector is the numeric input of the classifier in training column order.
type Vector []float64

// LabelEncoder maps a fixed set of categories to their index in Classes.
type LabelEncoder struct {
	Classes []string
	index   map[string]int
}

// NewLabelEncoder builds an encoder from already fitted classes.
func NewLabelEncoder(classes []string) *LabelEncoder {
	index := make(map[string]int, len(classes))
	for i, c := range classes {
		index[c] = i
	}
	return &LabelEncoder{Classes: classes, index: index}
}

// Fit learns the sorted set of distinct values.
func Fit(values []string) *LabelEncoder {
	seen := make(map[string]struct{}, len(values))
	classes := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		classes = append(classes, v)
	}
	sort.Strings(classes)
	return NewLabelEncoder(classes)
}

// Transform returns the code of a category.
func (e *LabelEncoder) Transform(value string) (float64, error) {
	i, ok := e.index[value]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnseenCategory, value)
	}
	return float64(i), nil
}

// Inverse returns the category behind a code.
func (e *LabelEncoder) Inverse(code float64) (string, error) {
	i := int(code)
	if float64(i) != code || i < 0 || i >= len(e.Classes) {
		return "", fmt.Errorf("code %v is out of range", code)
	}
	return e.Classes[i], nil
}

// EncoderSet maps a column name to its fitted encoder.
type EncoderSet map[string]*LabelEncoder

// LoadEncoderSet reads encoders stored as {"column": ["class", ...]}.
func LoadEncoderSet(path string) (EncoderSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var raw map[string][]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	set := make(EncoderSet, len(raw))
	for col, classes := range raw {
		if len(classes) == 0 {
			return nil, fmt.Errorf("encoder for %s has no classes", col)
		}
		set[col] = NewLabelEncoder(classes)
	}
	return set, nil
}

// Missing returns the columns that have no encoder.
func (s EncoderSet) Missing(columns []string) []string {
	var missing []string
	for _, c := range columns {
		if _, ok := s[c]; !ok {
			missing = append(missing, c)
		}
	}
	return missing
}

// Encoder turns a record into a Vector.
type Encoder struct {
	columns  []string
	encoders EncoderSet
	logger   *zap.Logger
}

func NewEncoder(columns []string, encoders EncoderSet, logger *zap.Logger) (*Encoder, error) {
	if len(columns) == 0 {
		return nil, errors.New("feature columns are required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Encoder{
		columns:  append([]string(nil), columns...),
		encoders: encoders,
		logger:   logger,
	}, nil
}

// Columns returns the output order.
func (e *Encoder) Columns() []string {
	return append([]string(nil), e.columns...)
}

// Encode builds the feature vector. Unseen categories become Fallback.
func (e *Encoder) Encode(values map[string]any) (Vector, error) {
	out := make(Vector, len(e.columns))

	for i, col := range e.columns {
		value, ok := values[col]
		if !ok || value == nil {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, col)
		}

		if enc, ok := e.encoders[col]; ok {
			code, err := enc.Transform(categoryOf(value))
			if err != nil {
				e.logger.Debug("encoding unseen category with fallback",
					zap.String("column", col),
					zap.Any("value", value),
					zap.Int("fallback", Fallback),
				)
				code = Fallback
			}
			out[i] = code
			continue
		}

		num, err := numberOf(value)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrNotNumeric, col, err)
		}
		out[i] = num
	}

	return out, nil
}

func categoryOf(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func numberOf(v any) (float64, error) {
	switch val := v.(type) {
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return 0, fmt.Errorf("value %v is not finite", val)
		}
		return val, nil
	case float32:
		return numberOf(float64(val))
	case int:
		return float64(val), nil
	case int64:
		return float64(val), nil
	case json.Number:
		return val.Float64()
	default:
		return 0, fmt.Errorf("unsupported value %v of type %T", v, v)
	}
}
