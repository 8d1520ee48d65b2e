package export

import (
	"bytes"
	"encoding/json"
	"image/jpeg"
	"math"
	"testing"
	"time"

	"github.com/hypervision/hypervision/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleFlow() *models.Flow {
	f := models.NewFlow()
	f.Nodes = []*models.Node{
		{ID: "start-1", Type: models.NodeTypeStart, Position: models.Position{X: 0, Y: -120}, Data: &models.StartData{Label: "Start", Color: "#22C55E"}},
		{ID: "face-match-1", Type: models.NodeTypeModule, Position: models.Position{X: 0, Y: 0}, Data: &models.ModuleData{Label: "Face Match", ModuleType: "face-match", Color: "#EC4899", Icon: "👤"}},
		{ID: "condition-1", Type: models.NodeTypeCondition, Position: models.Position{X: 0, Y: 150}, Data: &models.ConditionData{Label: "Condition", Condition: "score > 0.9", Color: "#F59E0B", Icon: "◊"}},
		{ID: "end-status-needs-review-1", Type: models.NodeTypeEndStatus, Position: models.Position{X: 250, Y: 300}, Data: &models.EndStatusData{Label: "Needs Review", Status: models.EndStatusNeedsReview, Color: "#F59E0B"}},
		{ID: "note-1", Type: models.NodeTypeNote, Position: models.Position{X: 400, Y: 0}, Data: &models.NoteData{Text: "Review threshold with compliance before launch"}},
	}
	f.Edges = []*models.Edge{
		{ID: "start-1-face-match-1", Source: "start-1", Target: "face-match-1", Type: models.DefaultEdgeType},
		{ID: "reactflow__edge-face-match-1-condition-1", Source: "face-match-1", Target: "condition-1"},
		{ID: "reactflow__edge-condition-1no-end-status-needs-review-1", Source: "condition-1", Target: "end-status-needs-review-1", SourceHandle: "no"},
	}

	return f
}

func TestFilename(t *testing.T) {
	now := time.UnixMilli(1718000000123)

	assert.Equal(t, "hypervision-flow-1718000000123.json", Filename("json", now))
	assert.Equal(t, "hypervision-flow-1718000000123.pdf", Filename("pdf", now))
}

func TestJSON_RoundTrip(t *testing.T) {
	f := sampleFlow()

	body, err := JSON(f)
	require.NoError(t, err)

	var generic map[string]any
	require.NoError(t, json.Unmarshal(body, &generic))
	assert.Len(t, generic, 2)
	assert.Contains(t, generic, "nodes")
	assert.Contains(t, generic, "edges")

	parsed, err := ParseJSON(body)
	require.NoError(t, err)

	assert.Equal(t, f.Nodes, parsed.Nodes)
	assert.Equal(t, f.Edges, parsed.Edges)
	assert.Equal(t, models.ViewModeBusiness, parsed.ViewMode)
}

func TestJSON_EmptyFlow(t *testing.T) {
	body, err := JSON(&models.Flow{})
	require.NoError(t, err)

	assert.JSONEq(t, `{"nodes":[],"edges":[]}`, string(body))
}

func TestParseJSON_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "not json", body: `{nodes`},
		{name: "missing edges", body: `{"nodes":[]}`},
		{name: "unknown node type", body: `{"nodes":[{"id":"a","type":"magicNode","position":{"x":0,"y":0}}],"edges":[]}`},
		{name: "node without position", body: `{"nodes":[{"id":"a","type":"noteNode"}],"edges":[]}`},
		{name: "edge without target", body: `{"nodes":[],"edges":[{"id":"e","source":"a"}]}`},
		{name: "dangling edge", body: `{"nodes":[{"id":"a","type":"noteNode","position":{"x":0,"y":0}}],"edges":[{"id":"e","source":"a","target":"b"}]}`},
		{name: "duplicate node", body: `{"nodes":[{"id":"a","type":"noteNode","position":{"x":0,"y":0}},{"id":"a","type":"noteNode","position":{"x":1,"y":1}}],"edges":[]}`},
		{name: "two starts", body: `{"nodes":[{"id":"a","type":"startNode","position":{"x":0,"y":0}},{"id":"b","type":"startNode","position":{"x":1,"y":1}}],"edges":[]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := ParseJSON([]byte(tt.body))
			require.ErrorIs(t, err, ErrInvalidDocument)
		})
	}
}

func TestRasterize(t *testing.T) {
	f := sampleFlow()

	img, err := Rasterize(f, RasterOptions{Scale: 1, Padding: 40})
	require.NoError(t, err)

	// Bounds span x -40..640 and y -160..440.
	assert.Equal(t, 680, img.Bounds().Dx())
	assert.Equal(t, 600, img.Bounds().Dy())

	doubled, err := Rasterize(f, RasterOptions{Scale: 2, Padding: 40})
	require.NoError(t, err)
	assert.Equal(t, 1360, doubled.Bounds().Dx())

	f.ViewMode = models.ViewModeTech
	_, err = Rasterize(f, RasterOptions{Scale: 1})
	require.NoError(t, err)
}

func TestRasterize_EmptyFlow(t *testing.T) {
	_, err := Rasterize(models.NewFlow(), DefaultRasterOptions)
	require.ErrorIs(t, err, ErrEmptyFlow)

	_, err = PDF(models.NewFlow())
	require.ErrorIs(t, err, ErrEmptyFlow)
}

func TestPDF(t *testing.T) {
	body, err := PDF(sampleFlow())
	require.NoError(t, err)

	assert.True(t, bytes.HasPrefix(body, []byte("%PDF-")))
	assert.Contains(t, string(body[len(body)-16:]), "%%EOF")
}

func TestScreenshot(t *testing.T) {
	body, err := Screenshot(sampleFlow(), ScreenshotOptions{
		Quality:   0.7,
		Scale:     0.5,
		Format:    FormatJPEG,
		MaxWidth:  1920,
		MaxHeight: 1080,
	})
	require.NoError(t, err)

	img, err := jpeg.Decode(bytes.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, 340, img.Bounds().Dx())
	assert.Equal(t, 300, img.Bounds().Dy())
}

func TestScreenshot_BoundedByMaxSize(t *testing.T) {
	body, err := Screenshot(sampleFlow(), ScreenshotOptions{Scale: 1, MaxWidth: 170, MaxHeight: 1080})
	require.NoError(t, err)

	img, err := jpeg.Decode(bytes.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, 170, img.Bounds().Dx())
	assert.Equal(t, 150, img.Bounds().Dy())
}

func TestScreenshot_UnsupportedFormat(t *testing.T) {
	_, err := Screenshot(sampleFlow(), ScreenshotOptions{Format: "gif"})
	require.Error(t, err)
}

func spreadFlow(distance float64) *models.Flow {
	f := models.NewFlow()
	f.Nodes = []*models.Node{
		{ID: "note-1", Type: models.NodeTypeNote, Data: &models.NoteData{Text: "near"}},
		{ID: "note-2", Type: models.NodeTypeNote, Position: models.Position{X: distance}, Data: &models.NoteData{Text: "far"}},
	}

	return f
}

func TestRasterize_ScaleCappedToMaxSide(t *testing.T) {
	img, err := Rasterize(spreadFlow(100_000), DefaultRasterOptions)
	require.NoError(t, err)

	assert.Equal(t, MaxRasterSide, img.Bounds().Dx())
	assert.Less(t, img.Bounds().Dy(), 100)
}

func TestRasterize_FlowTooLarge(t *testing.T) {
	for _, distance := range []float64{1e9, 1e300} {
		_, err := Rasterize(spreadFlow(distance), DefaultRasterOptions)
		require.ErrorIs(t, err, ErrFlowTooLarge)

		_, err = PDF(spreadFlow(distance))
		require.ErrorIs(t, err, ErrFlowTooLarge)

		_, err = Screenshot(spreadFlow(distance), ScreenshotOptions{Scale: 0.5, MaxWidth: 1920, MaxHeight: 1080})
		require.ErrorIs(t, err, ErrFlowTooLarge)
	}

	// Opposite corners of the float range overflow the span to +Inf.
	f := spreadFlow(math.MaxFloat64)
	f.Nodes[0].Position = models.Position{X: -math.MaxFloat64}

	_, err := PDF(f)
	require.ErrorIs(t, err, ErrFlowTooLarge)
}

func TestPDF_WideFlowKeepsCanvasPageSize(t *testing.T) {
	body, err := PDF(spreadFlow(100_000))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(body, []byte("%PDF-")))
}
