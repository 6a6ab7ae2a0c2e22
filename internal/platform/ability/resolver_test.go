package ability

import (
	"errors"
	"reflect"
	"testing"
)

var (
	testActions  = []string{"index", "list", "show", "current", "create", "update", "delete", "export"}
	testSubjects = []string{"Patient", "Doctor", "Office", "ReturnedInvoice", "Role"}
)

func newTestResolver(t *testing.T) *Resolver {
	t.Helper()
	reg := NewRegistry()
	if err := reg.Grants("receptionist", Grant{Action: "list", Subject: "Patient"}); err != nil {
		t.Fatalf("register receptionist: %v", err)
	}
	if err := reg.Grants("doctor",
		Grant{Action: "manage", Subject: "Patient"},
		Grant{Action: "show", Subject: "Doctor"},
	); err != nil {
		t.Fatalf("register doctor: %v", err)
	}
	if err := reg.Grants("bookkeeper", Grant{Action: "update", Subject: "ReturnedInvoice"}); err != nil {
		t.Fatalf("register bookkeeper: %v", err)
	}
	reg.Freeze()
	return NewResolver(reg)
}

func mustResolve(t *testing.T, r *Resolver, u *User) *PermissionSet {
	t.Helper()
	set, err := r.Resolve(u)
	if err != nil {
		t.Fatalf("resolve %+v: %v", u, err)
	}
	return set
}

func TestResolve_GuestHasNoGrants(t *testing.T) {
	r := newTestResolver(t)
	u := NewUser("u-1")
	set := mustResolve(t, r, &u)

	for _, a := range testActions {
		for _, s := range testSubjects {
			if set.Can(a, s) {
				t.Errorf("guest can %s %s", a, s)
			}
		}
	}
	if set.Can("list", "Patient") {
		t.Error("expected list Patient to be denied for zero roles")
	}
}

func TestResolve_NilUserIsGuest(t *testing.T) {
	r := newTestResolver(t)

	set, err := r.Resolve(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if set == nil {
		t.Fatal("expected a permission set for nil user")
	}
	if len(set.Grants()) != 0 {
		t.Errorf("expected no grants, got %v", set.Grants())
	}
	if set.UserID() != "" {
		t.Errorf("expected empty user id, got %q", set.UserID())
	}

	guest := Guest()
	want := mustResolve(t, r, &guest)
	if !reflect.DeepEqual(set.Grants(), want.Grants()) || !reflect.DeepEqual(set.Aliases(), want.Aliases()) {
		t.Error("nil user should resolve like a zero-role user")
	}
}

func TestResolve_AdminCanEverything(t *testing.T) {
	r := newTestResolver(t)
	for _, roles := range [][]string{
		{"admin"},
		{"receptionist", "admin"},
		{"admin", "doctor", "bookkeeper"},
	} {
		u := NewUser("u-admin", roles...)
		set := mustResolve(t, r, &u)
		for _, a := range testActions {
			for _, s := range testSubjects {
				if !set.Can(a, s) {
					t.Errorf("roles %v: expected admin to %s %s", roles, a, s)
				}
			}
		}
		if !set.Can("delete", "Office") {
			t.Errorf("roles %v: expected delete Office", roles)
		}
		if !set.Can("anything", nil) {
			t.Errorf("roles %v: admin should match subjects without a name", roles)
		}
	}
}

func TestResolve_Receptionist(t *testing.T) {
	r := newTestResolver(t)
	u := NewUser("u-2", "receptionist")
	set := mustResolve(t, r, &u)

	if !set.Can("list", "Patient") {
		t.Error("expected receptionist to list Patient")
	}
	if !set.Can("index", "Patient") {
		t.Error("expected index to alias list")
	}
	if set.Can("delete", "Patient") {
		t.Error("expected receptionist not to delete Patient")
	}
	if set.Can("list", "Doctor") {
		t.Error("expected receptionist not to list Doctor")
	}
}

func TestResolve_AliasEquivalence(t *testing.T) {
	r := newTestResolver(t)
	for _, roles := range [][]string{nil, {"receptionist"}, {"doctor"}, {"bookkeeper", "receptionist"}, {"admin"}} {
		u := NewUser("u", roles...)
		set := mustResolve(t, r, &u)
		for _, s := range testSubjects {
			if set.Can("index", s) != set.Can("list", s) {
				t.Errorf("roles %v: index/list differ for %s", roles, s)
			}
			if set.Can("current", s) != set.Can("show", s) {
				t.Errorf("roles %v: current/show differ for %s", roles, s)
			}
		}
	}
}

func TestResolve_OrderIndependent(t *testing.T) {
	r := newTestResolver(t)
	perms := [][]string{
		{"receptionist", "doctor", "bookkeeper"},
		{"receptionist", "bookkeeper", "doctor"},
		{"doctor", "receptionist", "bookkeeper"},
		{"doctor", "bookkeeper", "receptionist"},
		{"bookkeeper", "receptionist", "doctor"},
		{"bookkeeper", "doctor", "receptionist"},
	}

	first := NewUser("u", perms[0]...)
	want := mustResolve(t, r, &first)
	for _, p := range perms[1:] {
		u := NewUser("u", p...)
		got := mustResolve(t, r, &u)
		if !reflect.DeepEqual(got.Grants(), want.Grants()) {
			t.Errorf("roles %v: grants %v, want %v", p, got.Grants(), want.Grants())
		}
		if !reflect.DeepEqual(got.Aliases(), want.Aliases()) {
			t.Errorf("roles %v: aliases %v, want %v", p, got.Aliases(), want.Aliases())
		}
		for _, a := range testActions {
			for _, s := range testSubjects {
				if got.Can(a, s) != want.Can(a, s) {
					t.Errorf("roles %v: can(%s, %s) = %v, want %v", p, a, s, got.Can(a, s), want.Can(a, s))
				}
			}
		}
	}
}

func TestResolve_AliasesAreFixed(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Grants("receptionist", Grant{Action: "list", Subject: "Patient"}); err != nil {
		t.Fatal(err)
	}
	if err := reg.Grants("exporter", Grant{Action: "export", Subject: "Patient"}); err != nil {
		t.Fatal(err)
	}
	if err := reg.Grants("indexer", Grant{Action: "index", Subject: "Doctor"}); err != nil {
		t.Fatal(err)
	}
	reg.Freeze()
	r := NewResolver(reg)

	for _, roles := range [][]string{
		nil,
		{"receptionist", "exporter", "indexer"},
		{"indexer", "exporter", "receptionist"},
		{"admin", "indexer"},
	} {
		u := NewUser("u", roles...)
		set := mustResolve(t, r, &u)
		if !reflect.DeepEqual(set.Aliases(), defaultAliases) {
			t.Errorf("roles %v: aliases %v, want %v", roles, set.Aliases(), defaultAliases)
		}
		for _, s := range testSubjects {
			if set.Can("index", s) != set.Can("list", s) {
				t.Errorf("roles %v: index/list differ for %s", roles, s)
			}
			if set.Can("current", s) != set.Can("show", s) {
				t.Errorf("roles %v: current/show differ for %s", roles, s)
			}
		}
	}

	u := NewUser("u", "receptionist", "exporter")
	set := mustResolve(t, r, &u)
	if set.Can("export", "Doctor") || !set.Can("export", "Patient") {
		t.Error("export must only match its own grant")
	}
	if set.Can("delete", "Patient") {
		t.Error("delete must not be rewritten to list")
	}
}

func TestResolve_DuplicateRoles(t *testing.T) {
	r := newTestResolver(t)
	u := NewUser("u", "receptionist", "receptionist")
	set := mustResolve(t, r, &u)

	if got := len(set.Grants()); got != 1 {
		t.Errorf("expected 1 distinct grant, got %d", got)
	}
}

func TestResolve_UnknownRole(t *testing.T) {
	r := newTestResolver(t)
	u := NewUser("u", "receptionist", "janitor")

	set, err := r.Resolve(&u)
	if err == nil {
		t.Fatal("expected error for unknown role")
	}
	if set != nil {
		t.Error("expected no permission set on unknown role")
	}
	if !errors.Is(err, ErrUnknownRoleHandler) {
		t.Errorf("expected ErrUnknownRoleHandler, got %v", err)
	}
	var unknown *UnknownRoleHandlerError
	if !errors.As(err, &unknown) || unknown.Role != "janitor" {
		t.Errorf("expected role janitor in error, got %v", err)
	}
}

func TestResolve_ManageShorthand(t *testing.T) {
	r := newTestResolver(t)
	u := NewUser("u", "doctor")
	set := mustResolve(t, r, &u)

	for _, a := range testActions {
		if !set.Can(a, "Patient") {
			t.Errorf("expected doctor to %s Patient", a)
		}
	}
	if !set.Can("current", "Doctor") {
		t.Error("expected current Doctor via show alias")
	}
	if set.Can("update", "Doctor") {
		t.Error("expected doctor not to update Doctor")
	}
}

type testSubject string

func (s testSubject) SubjectName() string { return string(s) }

func TestCan_SubjectValues(t *testing.T) {
	r := newTestResolver(t)
	u := NewUser("u", "receptionist")
	set := mustResolve(t, r, &u)

	if !set.Can("list", testSubject("Patient")) {
		t.Error("expected Subject value to match by name")
	}
	if set.Can("list", 42) {
		t.Error("expected unnamed subject to be denied")
	}
	if set.Can("list", "") {
		t.Error("expected empty subject to be denied")
	}
}

func TestPermissionSet_NilAndEmpty(t *testing.T) {
	var set *PermissionSet
	if set.Can("show", "Patient") {
		t.Error("nil set must deny")
	}
	if set.UserID() != "" || len(set.Grants()) != 0 || len(set.Aliases()) != 0 {
		t.Errorf("nil set must read as empty: %q %v %v", set.UserID(), set.Grants(), set.Aliases())
	}
	e := Empty()
	if e.Can("show", "Patient") {
		t.Error("empty set must deny")
	}
	if e.Aliases()["index"] != "list" || e.Aliases()["current"] != "show" {
		t.Errorf("unexpected aliases %v", e.Aliases())
	}
}

func TestRegistry_Register(t *testing.T) {
	reg := NewRegistry()

	if err := reg.Register("", func(User, *Builder) {}); err == nil {
		t.Error("expected error for empty name")
	}
	if err := reg.Register("nurse", nil); err == nil {
		t.Error("expected error for nil handler")
	}
	if err := reg.Register("admin", func(User, *Builder) {}); !errors.Is(err, ErrDuplicateRole) {
		t.Errorf("expected ErrDuplicateRole, got %v", err)
	}
	if err := reg.Register("nurse", func(User, *Builder) {}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	reg.Freeze()
	if err := reg.Register("assistant", func(User, *Builder) {}); !errors.Is(err, ErrRegistryFrozen) {
		t.Errorf("expected ErrRegistryFrozen, got %v", err)
	}

	if got := reg.Names(); !reflect.DeepEqual(got, []string{"admin", "nurse"}) {
		t.Errorf("unexpected names %v", got)
	}
}

func TestRegistry_Validate(t *testing.T) {
	reg := NewRegistry()
	_ = reg.Grants("receptionist", Grant{Action: "list", Subject: "Patient"})

	if err := reg.Validate([]string{"admin", "receptionist"}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	err := reg.Validate([]string{"admin", "assistant", "receptionist"})
	var unknown *UnknownRoleHandlerError
	if !errors.As(err, &unknown) || unknown.Role != "assistant" {
		t.Errorf("expected unknown role assistant, got %v", err)
	}
}

func TestHandlerReceivesUser(t *testing.T) {
	reg := NewRegistry()
	_ = reg.Register("self_service", func(u User, b *Builder) {
		if u.ID != "" {
			b.Can("show", "Doctor:"+u.ID)
		}
	})
	r := NewResolver(reg)

	u := NewUser("42", "self_service")
	set := mustResolve(t, r, &u)
	if !set.Can("current", "Doctor:42") {
		t.Error("expected handler to grant based on user id")
	}
	if set.Can("show", "Doctor:43") {
		t.Error("expected other ids to be denied")
	}
}
