package attrition

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/mitchellh/mapstructure"
	"github.com/xeipuuv/gojsonschema"
)

// ValidationError lists every problem found in an input record.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid employee record: " + strings.Join(e.Problems, "; ")
}

var compiledSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewGoLoader(Schema()))
})

// Schema returns the JSON schema of the record input surface.
func Schema() map[string]any {
	properties := make(map[string]any, len(Fields))
	required := make([]string, 0, len(Fields))

	for _, f := range Fields {
		switch {
		case f.Fixed:
			properties[f.Name] = map[string]any{"type": "number"}
		case f.Kind == KindCategorical:
			properties[f.Name] = map[string]any{
				"type": "string",
				"enum": f.Options,
			}
			required = append(required, f.Name)
		default:
			properties[f.Name] = map[string]any{
				"type":    "integer",
				"minimum": f.Min,
				"maximum": f.Max,
			}
			required = append(required, f.Name)
		}
	}

	return map[string]any{
		"$schema":              "http://json-schema.org/draft-07/schema#",
		"type":                 "object",
		"properties":           properties,
		"required":             required,
		"additionalProperties": false,
	}
}

// Parse validates raw input and builds a record from it. Fixed columns are
// always reset to their constant values whatever the input says.
func Parse(input map[string]any) (*Record, error) {
	if input == nil {
		return nil, &ValidationError{Problems: []string{"record is empty"}}
	}

	if err := validate(input); err != nil {
		return nil, err
	}

	r := &Record{}
	if err := decode(input, r); err != nil {
		return nil, &ValidationError{Problems: []string{err.Error()}}
	}
	r.ApplyFixedRates()

	return r, nil
}

// Validate checks a record built in code against the same bounds as Parse.
func Validate(r *Record) error {
	if r == nil {
		return &ValidationError{Problems: []string{"record is empty"}}
	}
	return validate(r.Columns())
}

func validate(input map[string]any) error {
	schema, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("compile record schema: %w", err)
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(input))
	if err != nil {
		return fmt.Errorf("validate record: %w", err)
	}

	if result.Valid() {
		return nil
	}

	problems := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		problems = append(problems, desc.String())
	}
	sort.Strings(problems)

	return &ValidationError{Problems: problems}
}

func decode(input map[string]any, r *Record) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           r,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(input)
}
