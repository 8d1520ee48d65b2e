package catalog

import "github.com/hypervision/hypervision/pkg/models"

var (
	platformCSP = []string{"api.hypervision.ai", "cdn.hypervision.ai"}
	platformIPs = []string{"52.195.10.45", "13.230.115.23"}
)

// Default returns the catalog of identity-verification modules shipped with the editor.
func Default() *Catalog {
	return New(
		models.ModuleDefinition{
			ID:          "id-card-validation",
			Label:       "ID Card Validation",
			Description: "Capture and validate government issued ID documents",
			Color:       "#3B82F6",
			Icon:        "🪪",
			CSPURLs:     platformCSP,
			IPAddresses: platformIPs,
		},
		models.ModuleDefinition{
			ID:          "selfie-validation",
			Label:       "Selfie Validation",
			Description: "Capture a selfie and check for liveness",
			Color:       "#8B5CF6",
			Icon:        "🤳",
			CSPURLs:     platformCSP,
			IPAddresses: platformIPs,
		},
		models.ModuleDefinition{
			ID:          "face-match",
			Label:       "Face Match",
			Description: "Compare the selfie against the face on the ID document",
			Color:       "#EC4899",
			Icon:        "👤",
			CSPURLs:     platformCSP,
			IPAddresses: platformIPs,
		},
		models.ModuleDefinition{
			ID:          "database-check",
			Label:       "Database Check",
			Description: "Verify extracted identity details against a government database",
			Color:       "#14B8A6",
			Icon:        "🗄",
			CSPURLs:     []string{"api.hypervision.ai"},
			IPAddresses: platformIPs,
		},
		models.ModuleDefinition{
			ID:          "bank-account-verification",
			Label:       "Bank Account Verification",
			Description: "Confirm account ownership through a penny drop",
			Color:       "#0EA5E9",
			Icon:        "🏦",
			CSPURLs:     []string{"api.hypervision.ai"},
			IPAddresses: platformIPs,
		},
		models.ModuleDefinition{
			ID:          "video-kyc",
			Label:       "Video KYC",
			Description: "Assisted video call with a verification agent",
			Color:       "#F97316",
			Icon:        "🎥",
			CSPURLs:     append([]string{"media.hypervision.ai"}, platformCSP...),
			IPAddresses: platformIPs,
		},
		models.ModuleDefinition{
			ID:          "aml-screening",
			Label:       "AML Screening",
			Description: "Screen the applicant against sanctions and PEP lists",
			Color:       "#64748B",
			Icon:        "🛡",
		},
	)
}
