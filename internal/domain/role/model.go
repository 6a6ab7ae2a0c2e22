package role

import (
	"errors"
	"regexp"
	"time"

	"github.com/google/uuid"
)

// Role maps to the role table. Only the name carries meaning; what a role
// may do is defined by its handler in the ability registry.
type Role struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

var (
	ErrNotFound    = errors.New("role not found")
	ErrDuplicate   = errors.New("role already exists")
	ErrInvalidName = errors.New("role name must match ^[a-z][a-z0-9_]*$")
	ErrNoHandler   = errors.New("role has no permission handler")
	ErrBuiltinRole = errors.New("built-in role cannot be deleted")
)

var namePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// ValidName reports whether name is a well-formed role name.
func ValidName(name string) bool {
	return len(name) <= 64 && namePattern.MatchString(name)
}
