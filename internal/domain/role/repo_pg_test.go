//go:build integration

package role

import (
	"context"
	"errors"
	"testing"

	"github.com/medpraxis/praxis/internal/platform/db/dbtest"
)

func TestMain(m *testing.M) {
	dbtest.Main(m)
}

func TestRoleRepoPG(t *testing.T) {
	ctx := context.Background()
	repo := NewRepoPG(dbtest.NewPool(t))

	names, err := repo.ListNames(ctx)
	if err != nil {
		t.Fatalf("ListNames: %v", err)
	}
	if len(names) != 1 || names[0] != "admin" {
		t.Fatalf("expected the seeded admin role, got %v", names)
	}

	for _, n := range []string{"receptionist", "bookkeeper"} {
		if err := repo.Create(ctx, &Role{Name: n}); err != nil {
			t.Fatalf("Create %s: %v", n, err)
		}
	}
	if err := repo.Create(ctx, &Role{Name: "bookkeeper"}); !errors.Is(err, ErrDuplicate) {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}

	names, _ = repo.ListNames(ctx)
	want := []string{"admin", "bookkeeper", "receptionist"}
	if len(names) != len(want) {
		t.Fatalf("expected %v, got %v", want, names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names[%d] = %s, want %s", i, names[i], want[i])
		}
	}

	r, err := repo.GetByName(ctx, "bookkeeper")
	if err != nil || r.CreatedAt.IsZero() {
		t.Errorf("GetByName: %+v, %v", r, err)
	}

	if err := repo.Delete(ctx, "bookkeeper"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.GetByName(ctx, "bookkeeper"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := repo.Delete(ctx, "bookkeeper"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound deleting twice, got %v", err)
	}
}
