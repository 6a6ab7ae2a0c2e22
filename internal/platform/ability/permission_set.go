package ability

import (
	"sort"
)

// PermissionSet is the resolved collection of grants for one user. It is
// built by Resolver.Resolve and read-only afterwards.
type PermissionSet struct {
	userID  string
	aliases map[string]string
	grants  []Grant
}

func newPermissionSet(userID string) *PermissionSet {
	return &PermissionSet{
		userID:  userID,
		aliases: make(map[string]string),
	}
}

// Empty returns a guest permission set: the fixed aliases and no grants.
func Empty() *PermissionSet {
	s := newPermissionSet("")
	registerDefaultAliases(s)
	return s
}

// UserID is the id of the user the set was resolved for; empty for guests.
func (s *PermissionSet) UserID() string {
	if s == nil {
		return ""
	}
	return s.userID
}

// Can reports whether any grant allows action on subject. The subject may be
// a resource name or a value implementing Subject.
func (s *PermissionSet) Can(action string, subject any) bool {
	if s == nil {
		return false
	}
	action = s.canonicalAction(action)
	name := subjectName(subject)
	for _, g := range s.grants {
		if g.matches(action, name) {
			return true
		}
	}
	return false
}

// Cannot is the negation of Can.
func (s *PermissionSet) Cannot(action string, subject any) bool {
	return !s.Can(action, subject)
}

// Grants returns a sorted, de-duplicated copy of the grants.
func (s *PermissionSet) Grants() []Grant {
	if s == nil {
		return []Grant{}
	}
	seen := make(map[Grant]struct{}, len(s.grants))
	out := make([]Grant, 0, len(s.grants))
	for _, g := range s.grants {
		if _, ok := seen[g]; ok {
			continue
		}
		seen[g] = struct{}{}
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Action != out[j].Action {
			return out[i].Action < out[j].Action
		}
		return out[i].Subject < out[j].Subject
	})
	return out
}

// Aliases returns a copy of the alias table (alias -> canonical action).
func (s *PermissionSet) Aliases() map[string]string {
	if s == nil {
		return map[string]string{}
	}
	out := make(map[string]string, len(s.aliases))
	for k, v := range s.aliases {
		out[k] = v
	}
	return out
}

func (s *PermissionSet) canonicalAction(action string) string {
	if to, ok := s.aliases[action]; ok {
		return to
	}
	return action
}

// Builder is the write-only view of a permission set handed to role
// handlers while it is being resolved. Grants can only be added; the alias
// table is fixed and not reachable from a handler.
type Builder struct {
	set *PermissionSet
}

// Can adds the grant (action, subject). Shorthands "manage" and "all" are
// expanded to AnyAction and AnySubject.
func (b *Builder) Can(action, subject string) {
	b.set.grants = append(b.set.grants, normalizeGrant(Grant{Action: action, Subject: subject}))
}
