package ability

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

const labelScope = "roles."

// Labels translates role names into display labels. Entries are added at
// startup; lookups are safe for concurrent use afterwards.
type Labels struct {
	cat       *catalog.Builder
	fallback  language.Tag
	supported []language.Tag
	matcher   language.Matcher
	known     map[language.Tag]map[string]bool
}

// NewLabels creates a label catalog with fallback as the default language
// and the built-in admin labels.
func NewLabels(fallback language.Tag) *Labels {
	l := &Labels{
		cat:      catalog.NewBuilder(catalog.Fallback(fallback)),
		fallback: fallback,
		known:    make(map[language.Tag]map[string]bool),
	}
	l.addLanguage(fallback)
	_ = l.Add(language.German, RoleAdmin, "Administrator")
	_ = l.Add(language.English, RoleAdmin, "Administrator")
	return l
}

// Add sets the label of role in lang. The label is literal text; a "%" in it
// is printed as is.
func (l *Labels) Add(lang language.Tag, role, label string) error {
	msg := strings.ReplaceAll(label, "%", "%%")
	if err := l.cat.SetString(lang, labelScope+role, msg); err != nil {
		return fmt.Errorf("set label %s/%s: %w", lang, role, err)
	}
	l.addLanguage(lang)
	l.known[lang][role] = true
	return nil
}

// AddPolicy adds every label declared in a role policy.
func (l *Labels) AddPolicy(p *Policy) error {
	for role, byLang := range p.Labels() {
		for code, label := range byLang {
			tag, err := language.Parse(code)
			if err != nil {
				return fmt.Errorf("role %q: label language %q: %w", role, code, err)
			}
			if err := l.Add(tag, role, label); err != nil {
				return err
			}
		}
	}
	return nil
}

// Match picks the best supported language for an Accept-Language header.
// Unparseable or empty headers yield the fallback language.
func (l *Labels) Match(acceptLanguage string) language.Tag {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return l.fallback
	}
	_, idx, conf := l.matcher.Match(tags...)
	if conf == language.No {
		return l.fallback
	}
	return l.supported[idx]
}

// Label returns the label of role in lang, falling back to the default
// language and then to the role name itself.
func (l *Labels) Label(lang language.Tag, role string) string {
	for _, tag := range []language.Tag{lang, l.fallback} {
		if l.known[tag][role] {
			return message.NewPrinter(tag, message.Catalog(l.cat)).Sprintf(labelScope + role)
		}
	}
	return role
}

func (l *Labels) addLanguage(tag language.Tag) {
	if _, ok := l.known[tag]; ok {
		return
	}
	l.known[tag] = make(map[string]bool)
	l.supported = append(l.supported, tag)
	l.matcher = language.NewMatcher(l.supported)
}

// RoleLister is the Role collaborator: the names of all declared roles.
type RoleLister interface {
	ListRoleNames(ctx context.Context) ([]string, error)
}

// RoleOption is a role paired with its display label, for select inputs.
type RoleOption struct {
	Label string `json:"label"`
	Name  string `json:"name"`
}

// Directory lists declared roles with localized labels.
type Directory struct {
	roles  RoleLister
	labels *Labels
}

func NewDirectory(roles RoleLister, labels *Labels) *Directory {
	return &Directory{roles: roles, labels: labels}
}

// Labels returns the catalog used by the directory.
func (d *Directory) Labels() *Labels {
	return d.labels
}

// Options returns every declared role with its label in lang, in the order
// the Role collaborator lists them.
func (d *Directory) Options(ctx context.Context, lang language.Tag) ([]RoleOption, error) {
	names, err := d.roles.ListRoleNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("list role names: %w", err)
	}
	opts := make([]RoleOption, 0, len(names))
	for _, n := range names {
		opts = append(opts, RoleOption{Label: d.labels.Label(lang, n), Name: n})
	}
	return opts, nil
}
