package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hypervision/hypervision/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const flowDocument = `{
  "nodes": [
    {"id": "start-1", "type": "startNode", "position": {"x": 0, "y": 0}, "data": {"label": "Start"}},
    {"id": "face-match-2", "type": "moduleNode", "position": {"x": 0, "y": 120},
     "data": {"label": "Face Match", "moduleType": "face-match"}}
  ],
  "edges": [
    {"id": "start-1-face-match-2", "source": "start-1", "target": "face-match-2", "type": "default"}
  ]
}`

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer

	command := newCommand()
	command.Writer = &out

	err := command.Run(t.Context(), append([]string{"hypervision"}, args...))

	return out.String(), err
}

func writeFlow(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "flow.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestCatalogCommand(t *testing.T) {
	out, err := runCommand(t, "catalog")
	require.NoError(t, err)

	var modules []models.ModuleDefinition
	require.NoError(t, json.Unmarshal([]byte(out), &modules))
	assert.NotEmpty(t, modules)
}

func TestValidateCommand(t *testing.T) {
	out, err := runCommand(t, "validate", writeFlow(t, flowDocument))
	require.NoError(t, err)
	assert.Equal(t, "valid flow: 2 nodes, 1 edges\n", out)

	_, err = runCommand(t, "validate", writeFlow(t, `{"nodes": [], "edges": [{"id": "e", "source": "a", "target": "b"}]}`))
	require.Error(t, err)

	_, err = runCommand(t, "validate")
	require.ErrorIs(t, err, errFlowFileRequired)
}

func TestExportCommand(t *testing.T) {
	input := writeFlow(t, flowDocument)

	for format, magic := range map[string]string{
		formatJSON: "{",
		formatPDF:  "%PDF",
		formatPNG:  "\x89PNG",
	} {
		t.Run(format, func(t *testing.T) {
			outputDir := t.TempDir()

			out, err := runCommand(t, "export", "--format", format, "--output-dir", outputDir, input)
			require.NoError(t, err)

			path := strings.TrimSpace(out)
			assert.Equal(t, outputDir, filepath.Dir(path))
			assert.True(t, strings.HasSuffix(path, "."+format))

			body, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.True(t, bytes.HasPrefix(body, []byte(magic)))
		})
	}

	_, err := runCommand(t, "export", "--format", "svg", "--output-dir", t.TempDir(), input)
	require.Error(t, err)
}
