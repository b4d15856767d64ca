package internal

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextFormatterMessages(t *testing.T) {
	var buf bytes.Buffer
	f := NewTextFormatter(&buf)

	require.NoError(t, f.PrintSuccess("created"))
	require.NoError(t, f.PrintError("broken"))

	out := buf.String()
	assert.Contains(t, out, "✓ created")
	assert.Contains(t, out, "✗ broken")
}

func TestTextFormatterTable(t *testing.T) {
	var buf bytes.Buffer
	f := NewTextFormatter(&buf)

	require.NoError(t, f.PrintTable(
		[]string{"Name", "Steps"},
		[][]string{{"aws_recon", "3"}, {"entra_sweep", "1"}},
	))

	out := buf.String()
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "STEPS")
	assert.Contains(t, out, "aws_recon")
	assert.Contains(t, out, "entra_sweep")
}

func TestJSONFormatterTable(t *testing.T) {
	var buf bytes.Buffer
	f := NewJSONFormatter(&buf)

	require.NoError(t, f.PrintTable(
		[]string{"Name", "Run ID"},
		[][]string{{"aws_recon", "abc"}},
	))

	var records []map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &records))
	require.Len(t, records, 1)
	assert.Equal(t, "aws_recon", records[0]["name"])
	assert.Equal(t, "abc", records[0]["run_id"])
}

func TestNewFormatterSelectsByFormat(t *testing.T) {
	var buf bytes.Buffer
	assert.IsType(t, &JSONFormatter{}, NewFormatter(FormatJSON, &buf))
	assert.IsType(t, &TextFormatter{}, NewFormatter(FormatText, &buf))
}
