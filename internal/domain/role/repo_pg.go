package role

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medpraxis/praxis/internal/platform/db"
)

const uniqueViolation = "23505"

type roleRepoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &roleRepoPG{pool: pool}
}

func (r *roleRepoPG) ListNames(ctx context.Context) ([]string, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, `SELECT name FROM role ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan roles: %w", err)
	}
	return names, nil
}

func (r *roleRepoPG) GetByName(ctx context.Context, name string) (*Role, error) {
	var m Role
	err := db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT id, name, created_at FROM role WHERE name = $1`, name,
	).Scan(&m.ID, &m.Name, &m.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get role %q: %w", name, err)
	}
	return &m, nil
}

func (r *roleRepoPG) Create(ctx context.Context, m *Role) error {
	m.ID = uuid.New()
	err := db.Conn(ctx, r.pool).QueryRow(ctx,
		`INSERT INTO role (id, name) VALUES ($1, $2) RETURNING created_at`, m.ID, m.Name,
	).Scan(&m.CreatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("create role %q: %w", m.Name, err)
	}
	return nil
}

func (r *roleRepoPG) Delete(ctx context.Context, name string) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx, `DELETE FROM role WHERE name = $1`, name)
	if err != nil {
		return fmt.Errorf("delete role %q: %w", name, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
