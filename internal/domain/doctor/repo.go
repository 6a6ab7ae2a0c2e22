package doctor

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the persistence interface for doctors and the records
// hanging off them.
type Repository interface {
	Create(ctx context.Context, d *Doctor) error
	GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error)
	GetByLogin(ctx context.Context, login string) (*Doctor, error)
	Update(ctx context.Context, d *Doctor) error
	List(ctx context.Context, limit, offset int) ([]*Doctor, int, error)
	Search(ctx context.Context, query string) ([]*Doctor, error)

	Offices(ctx context.Context, doctorID uuid.UUID) ([]*Office, error)
	Colleagues(ctx context.Context, doctorID uuid.UUID) ([]*Doctor, error)
	Patients(ctx context.Context, doctorID uuid.UUID) ([]*Patient, error)

	ReturnedInvoices(ctx context.Context, doctorID uuid.UUID, state string) ([]*ReturnedInvoice, error)
	UpdateReturnedInvoiceState(ctx context.Context, inv *ReturnedInvoice) error

	PhoneNumbers(ctx context.Context, doctorID uuid.UUID) ([]*PhoneNumber, error)
	SavePhoneNumber(ctx context.Context, p *PhoneNumber) error
}
