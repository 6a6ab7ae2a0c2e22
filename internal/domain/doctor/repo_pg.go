package doctor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medpraxis/praxis/internal/platform/db"
)

type doctorRepoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &doctorRepoPG{pool: pool}
}

const doctorCols = `d.id, d.login, d.zsr, d.esr_account_id, d.honorific_prefix, d.given_name,
	d.family_name, d.full_name, d.created_at, d.updated_at`

const doctorOrder = `d.full_name, d.family_name, d.given_name`

func (r *doctorRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

func (r *doctorRepoPG) queryDoctors(ctx context.Context, sql string, args ...interface{}) ([]*Doctor, error) {
	rows, err := r.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[Doctor])
}

func (r *doctorRepoPG) getOne(ctx context.Context, where string, arg interface{}) (*Doctor, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+doctorCols+` FROM doctor d WHERE `+where, arg)
	if err != nil {
		return nil, err
	}
	d, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[Doctor])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return d, err
}

func (r *doctorRepoPG) Create(ctx context.Context, d *Doctor) error {
	d.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO doctor (id, login, zsr, esr_account_id, honorific_prefix, given_name, family_name, full_name)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING created_at, updated_at`,
		d.ID, d.Login, d.ZSR, d.ESRAccountID, d.HonorificPrefix, d.GivenName, d.FamilyName, d.FullName,
	).Scan(&d.CreatedAt, &d.UpdatedAt)
}

func (r *doctorRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	return r.getOne(ctx, `d.id = $1`, id)
}

func (r *doctorRepoPG) GetByLogin(ctx context.Context, login string) (*Doctor, error) {
	return r.getOne(ctx, `d.login = $1`, login)
}

func (r *doctorRepoPG) Update(ctx context.Context, d *Doctor) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE doctor SET login=$2, zsr=$3, esr_account_id=$4, honorific_prefix=$5, given_name=$6,
			family_name=$7, full_name=$8, updated_at=NOW()
		WHERE id = $1
		RETURNING created_at, updated_at`,
		d.ID, d.Login, d.ZSR, d.ESRAccountID, d.HonorificPrefix, d.GivenName, d.FamilyName, d.FullName,
	).Scan(&d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (r *doctorRepoPG) List(ctx context.Context, limit, offset int) ([]*Doctor, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM doctor`).Scan(&total); err != nil {
		return nil, 0, err
	}
	items, err := r.queryDoctors(ctx,
		`SELECT `+doctorCols+` FROM doctor d ORDER BY `+doctorOrder+` LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// likePattern wraps q in % after escaping the LIKE metacharacters it contains.
func likePattern(q string) string {
	return "%" + strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(q) + "%"
}

func (r *doctorRepoPG) Search(ctx context.Context, query string) ([]*Doctor, error) {
	return r.queryDoctors(ctx, `
		SELECT `+doctorCols+` FROM doctor d
		WHERE d.given_name ILIKE $1 OR d.family_name ILIKE $1 OR d.full_name ILIKE $1
		ORDER BY `+doctorOrder, likePattern(query))
}

func (r *doctorRepoPG) Offices(ctx context.Context, doctorID uuid.UUID) ([]*Office, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT o.id, o.name, o.created_at FROM office o
		JOIN doctor_office dof ON dof.office_id = o.id
		WHERE dof.doctor_id = $1
		ORDER BY o.name, o.id`, doctorID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[Office])
}

func (r *doctorRepoPG) Colleagues(ctx context.Context, doctorID uuid.UUID) ([]*Doctor, error) {
	return r.queryDoctors(ctx, `
		SELECT DISTINCT `+doctorCols+` FROM doctor d
		JOIN doctor_office mine ON mine.doctor_id = $1
		JOIN doctor_office theirs ON theirs.office_id = mine.office_id AND theirs.doctor_id = d.id
		ORDER BY `+doctorOrder, doctorID)
}

func (r *doctorRepoPG) Patients(ctx context.Context, doctorID uuid.UUID) ([]*Patient, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, doctor_id, given_name, family_name, birth_date, created_at FROM patient
		WHERE doctor_id = $1
		ORDER BY family_name, given_name`, doctorID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[Patient])
}

func (r *doctorRepoPG) ReturnedInvoices(ctx context.Context, doctorID uuid.UUID, state string) ([]*ReturnedInvoice, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, doctor_id, invoice_id, state, remarks, created_at, updated_at FROM returned_invoice
		WHERE doctor_id = $1 AND state = $2
		ORDER BY created_at, id`, doctorID, state)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[ReturnedInvoice])
}

func (r *doctorRepoPG) UpdateReturnedInvoiceState(ctx context.Context, inv *ReturnedInvoice) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE returned_invoice SET state = $2, updated_at = NOW() WHERE id = $1`, inv.ID, inv.State)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("returned invoice %s not found", inv.ID)
	}
	return nil
}

func (r *doctorRepoPG) PhoneNumbers(ctx context.Context, doctorID uuid.UUID) ([]*PhoneNumber, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, object_type, object_id, phone_number_type, number FROM phone_number
		WHERE object_type = $1 AND object_id = $2
		ORDER BY created_at, phone_number_type, id`, PhoneNumberObjectType, doctorID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[PhoneNumber])
}

func (r *doctorRepoPG) SavePhoneNumber(ctx context.Context, p *PhoneNumber) error {
	if p.ID == nil {
		id := uuid.New()
		p.ID = &id
		_, err := r.conn(ctx).Exec(ctx, `
			INSERT INTO phone_number (id, object_type, object_id, phone_number_type, number)
			VALUES ($1,$2,$3,$4,$5)`,
			id, p.ObjectType, p.ObjectID, p.PhoneNumberType, p.Number)
		return err
	}
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE phone_number SET phone_number_type=$2, number=$3, updated_at=NOW()
		WHERE id = $1 AND object_type = $4 AND object_id = $5`,
		*p.ID, p.PhoneNumberType, p.Number, p.ObjectType, p.ObjectID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("phone number %s not found", *p.ID)
	}
	return nil
}
