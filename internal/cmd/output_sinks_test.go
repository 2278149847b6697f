package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/areaoforigin/narrator/internal/narrator"
)

func newEmitCommand(t *testing.T, defaultFormat string, args ...string) (*cobra.Command, *bytes.Buffer) {
	t.Helper()
	cmd := &cobra.Command{Use: "test"}
	addOutputFlags(cmd, defaultFormat)
	require.NoError(t, cmd.Flags().Parse(args))

	var buf bytes.Buffer
	cmd.SetOut(&buf)
	return cmd, &buf
}

func TestEmitTextPrintsBareResult(t *testing.T) {
	cmd, buf := newEmitCommand(t, formatText)
	res := &narrator.Result{Model: "m", Text: "  The fire started near the outlet."}

	require.NoError(t, emit(cmd, resultTable("Narrative", res), res.Text))
	assert.Equal(t, "  The fire started near the outlet.\n", buf.String())
}

func TestEmitJSONUsesHeaderKeys(t *testing.T) {
	cmd, buf := newEmitCommand(t, formatText, "--output", "json")
	res := &narrator.Result{Model: "model-a", Text: "corrected"}

	require.NoError(t, emit(cmd, resultTable("Corrected", res), res.Text))

	var rows []map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "model-a", rows[0]["Model"])
	assert.Equal(t, "corrected", rows[0]["Result"])
}

func TestEmitWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "summary.md")
	cmd, buf := newEmitCommand(t, "table", "--output", "markdown", "--out", path)
	res := &narrator.Result{Model: "m", Text: "two rooms involved"}

	require.NoError(t, emit(cmd, resultTable("Summary", res), res.Text))
	assert.Empty(t, buf.String())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "two rooms involved")
}

func TestEmitRejectsUnknownFormat(t *testing.T) {
	cmd, _ := newEmitCommand(t, "table", "--output", "yaml")
	err := emit(cmd, resultTable("x", &narrator.Result{}), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported output format")
}

func TestBuildInitConfig(t *testing.T) {
	cfg := buildInitConfig("us-west-2", "scene-photos")
	assert.Contains(t, cfg, "region: us-west-2")
	assert.Contains(t, cfg, "bucket: scene-photos")
	assert.Contains(t, cfg, "presign_expiry: 15m")
}
