package technique

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSpecs() map[string]ParameterSpec {
	return map[string]ParameterSpec{
		"bucket_name": {
			Name:        "bucket_name",
			Type:        ParamTypeString,
			Required:    true,
			DisplayName: "Bucket Name",
		},
		"region": {
			Name:        "region",
			Type:        ParamTypeString,
			Required:    false,
			Default:     "us-east-1",
			DisplayName: "Region",
		},
		"recursive": {
			Name:        "recursive",
			Type:        ParamTypeBool,
			Required:    false,
			DisplayName: "Recursive",
		},
	}
}

func TestCheckRequired(t *testing.T) {
	tests := []struct {
		name     string
		supplied map[string]any
		wantErr  string
	}{
		{
			name:     "all required present",
			supplied: map[string]any{"bucket_name": "loot"},
		},
		{
			name:     "optional omitted",
			supplied: map[string]any{"bucket_name": "loot"},
		},
		{
			name:     "unknown keys tolerated",
			supplied: map[string]any{"bucket_name": "loot", "bogus": 42},
		},
		{
			name:     "missing required",
			supplied: map[string]any{"region": "eu-west-1"},
			wantErr:  "missing required parameter: bucket_name",
		},
		{
			name:     "required present but empty string",
			supplied: map[string]any{"bucket_name": ""},
			wantErr:  "missing required parameter: bucket_name",
		},
		{
			name:     "required present but nil",
			supplied: map[string]any{"bucket_name": nil},
			wantErr:  "missing required parameter: bucket_name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckRequired(sampleSpecs(), tt.supplied)
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestCheckRequired_NoSpecs(t *testing.T) {
	// Techniques with no parameters accept any supplied map.
	assert.NoError(t, CheckRequired(nil, map[string]any{"extra": "value"}))
	assert.NoError(t, CheckRequired(map[string]ParameterSpec{}, nil))
}

func TestBase_ValidateParameters(t *testing.T) {
	tech := &stubTechnique{Base: Base{
		Desc:   Descriptor{ID: "x", Name: "X", Surface: SurfaceAWS},
		Params: sampleSpecs(),
	}}

	assert.NoError(t, tech.ValidateParameters(map[string]any{"bucket_name": "loot"}))
	assert.Error(t, tech.ValidateParameters(map[string]any{}))
}
