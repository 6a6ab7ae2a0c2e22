package ability

import (
	"fmt"

	"golang.org/x/text/language"
)

// Setup is the startup wiring shared by the server and the roles commands.
type Setup struct {
	Registry *Registry
	Labels   *Labels
	Policy   *Policy
}

// NewSetup builds a registry and label catalog from the built-in roles and,
// when policyFile is non-empty, a role policy file. The registry is not
// frozen so callers can register code-defined handlers before serving.
func NewSetup(policyFile string, defaultLang string) (*Setup, error) {
	lang, err := language.Parse(defaultLang)
	if err != nil {
		return nil, fmt.Errorf("default language %q: %w", defaultLang, err)
	}

	s := &Setup{
		Registry: NewRegistry(),
		Labels:   NewLabels(lang),
		Policy:   &Policy{},
	}
	if policyFile == "" {
		return s, nil
	}

	p, err := LoadPolicyFile(policyFile)
	if err != nil {
		return nil, err
	}
	if err := p.Register(s.Registry); err != nil {
		return nil, err
	}
	if err := s.Labels.AddPolicy(p); err != nil {
		return nil, err
	}
	s.Policy = p
	return s, nil
}
