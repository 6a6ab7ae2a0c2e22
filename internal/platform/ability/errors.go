package ability

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownRoleHandler is matched (errors.Is) by every UnknownRoleHandlerError.
	ErrUnknownRoleHandler = errors.New("unknown role handler")
	// ErrRegistryFrozen is returned when registering after the registry was frozen.
	ErrRegistryFrozen = errors.New("role handler registry is frozen")
	// ErrDuplicateRole is returned when a role name is registered twice.
	ErrDuplicateRole = errors.New("role handler already registered")
)

// UnknownRoleHandlerError reports a role name with no registered handler.
// Resolution aborts on it and no permission set is returned.
type UnknownRoleHandlerError struct {
	Role string
}

func (e *UnknownRoleHandlerError) Error() string {
	return fmt.Sprintf("no handler registered for role %q", e.Role)
}

func (e *UnknownRoleHandlerError) Is(target error) bool {
	return target == ErrUnknownRoleHandler
}
