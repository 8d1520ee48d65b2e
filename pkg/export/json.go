// Package export serializes flows into the downloadable formats offered by the toolbar.
package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hypervision/hypervision/pkg/models"
	"github.com/xeipuuv/gojsonschema"
)

const filenamePrefix = "hypervision-flow-"

var (
	ErrEmptyFlow       = errors.New("flow has no nodes to export")
	ErrInvalidDocument = errors.New("invalid flow document")
	ErrFlowTooLarge    = errors.New("flow is too large to render")
)

// Document is the exported shape of a flow: the canvas collections, verbatim.
type Document struct {
	Nodes []*models.Node `json:"nodes"`
	Edges []*models.Edge `json:"edges"`
}

// Filename returns the download name for an export created at now.
func Filename(extension string, now time.Time) string {
	return fmt.Sprintf("%s%d.%s", filenamePrefix, now.UnixMilli(), extension)
}

// JSON encodes the nodes and edges of f as an indented document.
func JSON(f *models.Flow) ([]byte, error) {
	doc := Document{Nodes: f.Nodes, Edges: f.Edges}
	if doc.Nodes == nil {
		doc.Nodes = []*models.Node{}
	}

	if doc.Edges == nil {
		doc.Edges = []*models.Edge{}
	}

	body, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode flow: %w", err)
	}

	return body, nil
}

// ParseJSON validates and decodes an exported document into a flow in business view.
// Edges must reference nodes of the same document.
func ParseJSON(data []byte) (*models.Flow, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	if err := validateDocument(raw); err != nil {
		return nil, err
	}

	decoder := json.NewDecoder(bytes.NewReader(data))

	var doc Document
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	f := models.NewFlow()
	f.Nodes = append(f.Nodes, doc.Nodes...)
	f.Edges = append(f.Edges, doc.Edges...)

	if err := checkReferences(f); err != nil {
		return nil, err
	}

	return f, nil
}

func validateDocument(doc any) error {
	schemaLoader := gojsonschema.NewGoLoader(documentSchema())
	dataLoader := gojsonschema.NewGoLoader(doc)

	result, err := gojsonschema.Validate(schemaLoader, dataLoader)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	if !result.Valid() {
		var messages []string
		for _, desc := range result.Errors() {
			messages = append(messages, desc.String())
		}

		return fmt.Errorf("%w: %s", ErrInvalidDocument, strings.Join(messages, "; "))
	}

	return nil
}

func checkReferences(f *models.Flow) error {
	ids := make(map[string]bool, len(f.Nodes))
	starts := 0

	for _, node := range f.Nodes {
		if ids[node.ID] {
			return fmt.Errorf("%w: duplicate node id %q", ErrInvalidDocument, node.ID)
		}

		ids[node.ID] = true

		if node.IsStart() {
			starts++
		}
	}

	if starts > 1 {
		return fmt.Errorf("%w: more than one start node", ErrInvalidDocument)
	}

	for _, edge := range f.Edges {
		if !ids[edge.Source] || !ids[edge.Target] {
			return fmt.Errorf("%w: edge %q references a missing node", ErrInvalidDocument, edge.ID)
		}
	}

	return nil
}

func documentSchema() map[string]any {
	nodeTypes := make([]any, 0, len(models.NodeTypes))
	for _, t := range models.NodeTypes {
		nodeTypes = append(nodeTypes, string(t))
	}

	position := map[string]any{
		"type":     "object",
		"required": []any{"x", "y"},
		"properties": map[string]any{
			"x": map[string]any{"type": "number"},
			"y": map[string]any{"type": "number"},
		},
	}

	node := map[string]any{
		"type":     "object",
		"required": []any{"id", "type", "position"},
		"properties": map[string]any{
			"id":       map[string]any{"type": "string", "minLength": 1},
			"type":     map[string]any{"type": "string", "enum": nodeTypes},
			"position": position,
			"data":     map[string]any{"type": "object"},
		},
	}

	edge := map[string]any{
		"type":     "object",
		"required": []any{"id", "source", "target"},
		"properties": map[string]any{
			"id":     map[string]any{"type": "string", "minLength": 1},
			"source": map[string]any{"type": "string", "minLength": 1},
			"target": map[string]any{"type": "string", "minLength": 1},
		},
	}

	return map[string]any{
		"$schema":  "http://json-schema.org/draft-07/schema#",
		"type":     "object",
		"required": []any{"nodes", "edges"},
		"properties": map[string]any{
			"nodes": map[string]any{"type": "array", "items": node},
			"edges": map[string]any{"type": "array", "items": edge},
		},
	}
}
