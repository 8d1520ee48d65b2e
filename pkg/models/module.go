package models

// ModuleDefinition is an immutable catalog entry describing a workflow step type.
type ModuleDefinition struct {
	ID          string   `json:"id"`
	Label       string   `json:"label"`
	Description string   `json:"description"`
	Color       string   `json:"color"`
	Icon        string   `json:"icon"`
	CSPURLs     []string `json:"cspUrls,omitempty"`
	IPAddresses []string `json:"ipAddresses,omitempty"`
}
