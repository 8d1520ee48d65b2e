package canvas

import "errors"

// Policy violations. The graph is left unchanged whenever one of these is returned.
var (
	ErrFlowStartsWithDecision = errors.New("a flow cannot start with a condition or an end status, add a module first")
	ErrStartNodeProtected     = errors.New("the start node is required for the flow and cannot be deleted")
	ErrUnknownModule          = errors.New("unknown module type")
	ErrNodeNotFound           = errors.New("node not found")
	ErrEmptyModuleType        = errors.New("module type is required")
	ErrMenuClosed             = errors.New("context menu is not open")
	ErrMenuItemUnavailable    = errors.New("menu item is not available here")
)

// IsPolicyViolation reports whether err is a user-facing policy refusal.
func IsPolicyViolation(err error) bool {
	return errors.Is(err, ErrFlowStartsWithDecision) ||
		errors.Is(err, ErrStartNodeProtected)
}
