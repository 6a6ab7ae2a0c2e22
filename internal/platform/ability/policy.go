package ability

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Policy is a role policy file: per-role grants plus display labels.
//
//	roles:
//	  receptionist:
//	    labels: {de: Empfang, en: Reception}
//	    grants:
//	      - {action: list, subject: Patient}
type Policy struct {
	Roles map[string]PolicyRole `yaml:"roles"`
}

// PolicyRole holds the grants and labels declared for one role.
type PolicyRole struct {
	Labels map[string]string `yaml:"labels,omitempty"`
	Grants []Grant           `yaml:"grants"`
}

// LoadPolicy decodes and validates a policy. An empty document yields an
// empty policy.
func LoadPolicy(r io.Reader) (*Policy, error) {
	var p Policy
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode role policy: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// LoadPolicyFile reads a policy from path.
func LoadPolicyFile(path string) (*Policy, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open role policy: %w", err)
	}
	defer f.Close()

	p, err := LoadPolicy(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// Validate rejects empty role names, a redefinition of the admin role and
// grants with an empty action or subject.
func (p *Policy) Validate() error {
	for _, name := range p.RoleNames() {
		if name == "" {
			return fmt.Errorf("role policy: empty role name")
		}
		if name == RoleAdmin {
			return fmt.Errorf("role policy: role %q is built in and cannot be redefined", RoleAdmin)
		}
		for i, g := range p.Roles[name].Grants {
			if g.Action == "" {
				return fmt.Errorf("role policy: role %q grant %d: action is required", name, i)
			}
			if g.Subject == "" {
				return fmt.Errorf("role policy: role %q grant %d: subject is required", name, i)
			}
		}
	}
	return nil
}

// RoleNames returns the roles declared by the policy, sorted.
func (p *Policy) RoleNames() []string {
	names := make([]string, 0, len(p.Roles))
	for n := range p.Roles {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Register adds one fixed-grant handler per declared role.
func (p *Policy) Register(reg *Registry) error {
	for _, name := range p.RoleNames() {
		grants := make([]Grant, 0, len(p.Roles[name].Grants))
		for _, g := range p.Roles[name].Grants {
			grants = append(grants, normalizeGrant(g))
		}
		if err := reg.Grants(name, grants...); err != nil {
			return err
		}
	}
	return nil
}

// Labels returns role -> language -> label for every role that declares labels.
func (p *Policy) Labels() map[string]map[string]string {
	out := make(map[string]map[string]string)
	for name, role := range p.Roles {
		if len(role.Labels) == 0 {
			continue
		}
		out[name] = role.Labels
	}
	return out
}
