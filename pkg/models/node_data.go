package models

import (
	"errors"
	"fmt"
	"slices"
)

// ErrUnknownNodeType is returned when a payload is requested for an unknown node kind.
var ErrUnknownNodeType = errors.New("unknown node type")

// NodeData is the per-kind payload of a node. The set of implementations is closed.
type NodeData interface {
	Kind() NodeType
	Caption() string
	clone() NodeData
}

// EndStatus is the terminal outcome represented by an end-status node.
type EndStatus string

const (
	EndStatusAutoApproved EndStatus = "auto-approved"
	EndStatusAutoDeclined EndStatus = "auto-declined"
	EndStatusNeedsReview  EndStatus = "needs-review"
)

// Valid reports whether s is a known end status.
func (s EndStatus) Valid() bool {
	switch s {
	case EndStatusAutoApproved, EndStatusAutoDeclined, EndStatusNeedsReview:
		return true
	default:
		return false
	}
}

// ModuleData is the payload of a catalog module node.
type ModuleData struct {
	Label       string   `json:"label"`
	ModuleType  string   `json:"moduleType"`
	Color       string   `json:"color"`
	Icon        string   `json:"icon"`
	CSPURLs     []string `json:"cspUrls,omitempty"`
	IPAddresses []string `json:"ipAddresses,omitempty"`
}

func (d *ModuleData) Kind() NodeType  { return NodeTypeModule }
func (d *ModuleData) Caption() string { return d.Label }

func (d *ModuleData) clone() NodeData {
	c := *d
	c.CSPURLs = slices.Clone(d.CSPURLs)
	c.IPAddresses = slices.Clone(d.IPAddresses)

	return &c
}

// APIModuleData is the payload of a free-form API call node.
type APIModuleData struct {
	Title    string `json:"title"`
	Endpoint string `json:"endpoint"`
	Color    string `json:"color"`
	Icon     string `json:"icon"`
}

func (d *APIModuleData) Kind() NodeType  { return NodeTypeAPIModule }
func (d *APIModuleData) Caption() string { return d.Title }

func (d *APIModuleData) clone() NodeData {
	c := *d

	return &c
}

// ConditionData is the payload of a decision node.
type ConditionData struct {
	Label     string `json:"label"`
	Condition string `json:"condition"`
	Color     string `json:"color"`
	Icon      string `json:"icon"`
}

func (d *ConditionData) Kind() NodeType  { return NodeTypeCondition }
func (d *ConditionData) Caption() string { return d.Label }

func (d *ConditionData) clone() NodeData {
	c := *d

	return &c
}

// EndStatusData is the payload of a terminal node.
type EndStatusData struct {
	Label  string    `json:"label"`
	Status EndStatus `json:"status"`
	Color  string    `json:"color"`
	Icon   string    `json:"icon"`
}

func (d *EndStatusData) Kind() NodeType  { return NodeTypeEndStatus }
func (d *EndStatusData) Caption() string { return d.Label }

func (d *EndStatusData) clone() NodeData {
	c := *d

	return &c
}

// StartData is the payload of the flow's entry point.
type StartData struct {
	Label string `json:"label"`
	Color string `json:"color"`
	Icon  string `json:"icon"`
}

func (d *StartData) Kind() NodeType  { return NodeTypeStart }
func (d *StartData) Caption() string { return d.Label }

func (d *StartData) clone() NodeData {
	c := *d

	return &c
}

// NoteData is the payload of a free-text annotation.
type NoteData struct {
	Text string `json:"text"`
}

func (d *NoteData) Kind() NodeType  { return NodeTypeNote }
func (d *NoteData) Caption() string { return d.Text }

func (d *NoteData) clone() NodeData {
	c := *d

	return &c
}

// NewNodeData returns an empty payload for the given node kind.
func NewNodeData(t NodeType) (NodeData, error) {
	switch t {
	case NodeTypeModule:
		return &ModuleData{}, nil
	case NodeTypeAPIModule:
		return &APIModuleData{}, nil
	case NodeTypeCondition:
		return &ConditionData{}, nil
	case NodeTypeEndStatus:
		return &EndStatusData{}, nil
	case NodeTypeStart:
		return &StartData{}, nil
	case NodeTypeNote:
		return &NoteData{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownNodeType, t)
	}
}
