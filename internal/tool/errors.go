package tool

import "errors"

// Sentinel errors for tool and assignment operations.
var (
	// ErrToolNotFound indicates the requested tool does not exist.
	ErrToolNotFound = errors.New("tool not found")

	// ErrAssistantNotFound indicates the referenced assistant does not exist.
	ErrAssistantNotFound = errors.New("assistant not found")

	// ErrAssignmentNotFound indicates the requested assignment does not exist.
	ErrAssignmentNotFound = errors.New("tool assignment not found")

	// ErrDuplicateToolName indicates a tool with the same name already exists.
	ErrDuplicateToolName = errors.New("tool name already exists")

	// ErrDuplicateAssignment indicates the assignment violates the per-type
	// uniqueness rule: (assistant, tool, collection) for qdrant tools,
	// (assistant, tool) for everything else.
	ErrDuplicateAssignment = errors.New("tool already assigned")

	// ErrInvalidConfig indicates a missing type-specific required field.
	ErrInvalidConfig = errors.New("invalid tool configuration")
)

// IsNotFound reports whether err is one of the not-found sentinels.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrToolNotFound) ||
		errors.Is(err, ErrAssignmentNotFound) ||
		errors.Is(err, ErrAssistantNotFound)
}
