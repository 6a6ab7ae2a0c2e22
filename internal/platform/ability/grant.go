package ability

// Wildcards used in grants. A grant carrying AnyAction matches every action,
// one carrying AnySubject matches every subject.
const (
	AnyAction  = "*"
	AnySubject = "*"
)

// Policy shorthands accepted in role policy files.
const (
	manageShorthand = "manage"
	allShorthand    = "all"
)

// Grant is a single (action, subject) permission entry.
type Grant struct {
	Action  string `json:"action" yaml:"action"`
	Subject string `json:"subject" yaml:"subject"`
}

// Subject is implemented by domain values that can be checked directly,
// e.g. set.Can("show", doctor).
type Subject interface {
	SubjectName() string
}

func (g Grant) matches(action, subject string) bool {
	actionOK := g.Action == AnyAction || g.Action == action
	subjectOK := g.Subject == AnySubject || (subject != "" && g.Subject == subject)
	return actionOK && subjectOK
}

// subjectName returns the name a subject value is matched under. Values that
// are neither strings nor Subjects have no name and only match AnySubject.
func subjectName(subject any) string {
	switch s := subject.(type) {
	case string:
		return s
	case Subject:
		return s.SubjectName()
	default:
		return ""
	}
}

// normalizeGrant expands policy shorthands into wildcard sentinels.
func normalizeGrant(g Grant) Grant {
	if g.Action == manageShorthand {
		g.Action = AnyAction
	}
	if g.Subject == allShorthand {
		g.Subject = AnySubject
	}
	return g
}
