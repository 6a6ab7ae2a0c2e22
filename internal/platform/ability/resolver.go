package ability

// Role is a named category assigned to a user.
type Role struct {
	Name string `json:"name"`
}

// User is the subject of resolution: an id and its roles in assignment order.
type User struct {
	ID    string `json:"id"`
	Roles []Role `json:"roles"`
}

// Guest returns the anonymous user: no id, no roles.
func Guest() User {
	return User{}
}

// NewUser builds a user from role names.
func NewUser(id string, roleNames ...string) User {
	roles := make([]Role, 0, len(roleNames))
	for _, n := range roleNames {
		roles = append(roles, Role{Name: n})
	}
	return User{ID: id, Roles: roles}
}

// RoleNames returns the names of the user's roles in order.
func (u User) RoleNames() []string {
	names := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		names = append(names, r.Name)
	}
	return names
}

// Resolver computes permission sets from a handler registry.
type Resolver struct {
	registry *Registry
}

// NewResolver creates a resolver over registry.
func NewResolver(registry *Registry) *Resolver {
	return &Resolver{registry: registry}
}

// Registry returns the registry the resolver dispatches to.
func (r *Resolver) Registry() *Registry {
	return r.registry
}

// Resolve builds the permission set for u. A nil user resolves as Guest().
// If any of the user's roles has no handler, Resolve returns a nil set and
// an *UnknownRoleHandlerError.
func (r *Resolver) Resolve(u *User) (*PermissionSet, error) {
	user := Guest()
	if u != nil {
		user = *u
	}

	set := newPermissionSet(user.ID)
	registerDefaultAliases(set)

	b := &Builder{set: set}
	for _, role := range user.Roles {
		h, ok := r.registry.lookup(role.Name)
		if !ok {
			return nil, &UnknownRoleHandlerError{Role: role.Name}
		}
		h(user, b)
	}
	return set, nil
}

// defaultAliases map an alias action to its canonical action.
var defaultAliases = map[string]string{
	"index":   "list",
	"current": "show",
}

func registerDefaultAliases(s *PermissionSet) {
	for alias, action := range defaultAliases {
		s.aliases[alias] = action
	}
}
