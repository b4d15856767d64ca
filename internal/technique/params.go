package technique

import (
	"fmt"
	"sort"

	"github.com/vectra-ai-research/halberd/internal/types"
)

// ParamType is the semantic type of a technique parameter.
type ParamType string

const (
	ParamTypeString ParamType = "string"
	ParamTypeInt    ParamType = "int"
	ParamTypeBool   ParamType = "bool"
	ParamTypeFloat  ParamType = "float"
	ParamTypeList   ParamType = "list"
)

// IsValid checks if the ParamType is a valid value.
func (p ParamType) IsValid() bool {
	switch p {
	case ParamTypeString, ParamTypeInt, ParamTypeBool, ParamTypeFloat, ParamTypeList:
		return true
	default:
		return false
	}
}

// ParameterSpec declares one technique input. The spec drives both
// execution-time validation and form rendering in UI/CLI collaborators.
type ParameterSpec struct {
	// Name is the parameter key techniques receive in the supplied map.
	Name string `json:"name" yaml:"name"`

	// Type is the semantic type of the value.
	Type ParamType `json:"type" yaml:"type"`

	// Required marks parameters that must be present and non-empty.
	Required bool `json:"required" yaml:"required"`

	// Default is the value applied when an optional parameter is absent.
	Default any `json:"default,omitempty" yaml:"default,omitempty"`

	// DisplayName is the label shown on input forms.
	DisplayName string `json:"display_name" yaml:"display_name"`

	// InputHint suggests the input widget (text, password, upload, ...).
	InputHint string `json:"input_hint,omitempty" yaml:"input_hint,omitempty"`
}

// CheckRequired validates supplied values against a parameter schema:
// every spec marked required must be present with a non-empty value.
// Unknown supplied keys are tolerated. Returns a TECHNIQUE_VALIDATION
// error naming the first missing field (fields checked in sorted order
// so the error is deterministic).
func CheckRequired(specs map[string]ParameterSpec, supplied map[string]any) error {
	names := make([]string, 0, len(specs))
	for name := range specs {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		spec := specs[name]
		if !spec.Required {
			continue
		}

		value, ok := supplied[name]
		if !ok || isEmptyValue(value) {
			return types.NewError(
				types.TECHNIQUE_VALIDATION,
				fmt.Sprintf("missing required parameter: %s", name),
			)
		}
	}

	return nil
}

// isEmptyValue reports whether a supplied parameter value counts as absent.
func isEmptyValue(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return v == ""
	default:
		return false
	}
}
