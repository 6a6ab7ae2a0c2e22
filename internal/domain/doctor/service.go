package doctor

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// TxRunner runs fn inside a transaction. db.WithTx bound to a pool
// satisfies it.
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error

func noTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type Service struct {
	repo Repository
	inTx TxRunner
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, inTx: noTx}
}

// SetTxRunner makes multi-row writes atomic.
func (s *Service) SetTxRunner(tx TxRunner) {
	if tx != nil {
		s.inTx = tx
	}
}

func (s *Service) Create(ctx context.Context, d *Doctor) error {
	if strings.TrimSpace(d.Login) == "" {
		return fmt.Errorf("login is required")
	}
	d.sanitize()
	return s.repo.Create(ctx, d)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	return s.repo.GetByID(ctx, id)
}

// Current returns the doctor whose login is the authenticated user id.
func (s *Service) Current(ctx context.Context, login string) (*Doctor, error) {
	if login == "" {
		return nil, ErrNotFound
	}
	return s.repo.GetByLogin(ctx, login)
}

func (s *Service) Update(ctx context.Context, d *Doctor) error {
	if strings.TrimSpace(d.Login) == "" {
		return fmt.Errorf("login is required")
	}
	d.sanitize()
	return s.repo.Update(ctx, d)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Doctor, int, error) {
	return s.repo.List(ctx, limit, offset)
}

// Search matches query against given, family and full name. An empty query
// matches nothing and does not hit the store.
func (s *Service) Search(ctx context.Context, query string) ([]*Doctor, error) {
	if query == "" {
		return []*Doctor{}, nil
	}
	return s.repo.Search(ctx, query)
}

func (s *Service) Offices(ctx context.Context, doctorID uuid.UUID) ([]*Office, error) {
	return s.repo.Offices(ctx, doctorID)
}

// PrimaryOffice is the doctor's first office by name, or nil.
func (s *Service) PrimaryOffice(ctx context.Context, doctorID uuid.UUID) (*Office, error) {
	offices, err := s.repo.Offices(ctx, doctorID)
	if err != nil || len(offices) == 0 {
		return nil, err
	}
	return offices[0], nil
}

// Colleagues lists every doctor sharing an office with doctorID, the
// doctor included.
func (s *Service) Colleagues(ctx context.Context, doctorID uuid.UUID) ([]*Doctor, error) {
	return s.repo.Colleagues(ctx, doctorID)
}

func (s *Service) Patients(ctx context.Context, doctorID uuid.UUID) ([]*Patient, error) {
	return s.repo.Patients(ctx, doctorID)
}

// RequestAllReturnedInvoices queues a request for every ready returned
// invoice of the doctor and returns them. Either all move or none do.
func (s *Service) RequestAllReturnedInvoices(ctx context.Context, doctorID uuid.UUID) ([]*ReturnedInvoice, error) {
	var queued []*ReturnedInvoice
	err := s.inTx(ctx, func(ctx context.Context) error {
		ready, err := s.repo.ReturnedInvoices(ctx, doctorID, InvoiceReady)
		if err != nil {
			return fmt.Errorf("list returned invoices: %w", err)
		}
		for _, inv := range ready {
			if err := inv.QueueRequest(); err != nil {
				return err
			}
			if err := s.repo.UpdateReturnedInvoiceState(ctx, inv); err != nil {
				return fmt.Errorf("queue returned invoice %s: %w", inv.ID, err)
			}
		}
		queued = ready
		return nil
	})
	if err != nil {
		return nil, err
	}
	if queued == nil {
		queued = []*ReturnedInvoice{}
	}
	return queued, nil
}

// PhoneNumbers returns the stored numbers followed by blank entries for
// the default types that are still missing.
func (s *Service) PhoneNumbers(ctx context.Context, doctorID uuid.UUID) ([]*PhoneNumber, error) {
	existing, err := s.repo.PhoneNumbers(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	return append(existing, BuildDefaultPhoneNumbers(doctorID, existing)...), nil
}

// SavePhoneNumbers updates the given stored numbers and adds the non-blank
// new ones.
func (s *Service) SavePhoneNumbers(ctx context.Context, doctorID uuid.UUID, updated []*PhoneNumber, added []PhoneNumberAttributes) ([]*PhoneNumber, error) {
	all := make([]*PhoneNumber, 0, len(updated)+len(added))
	for _, p := range updated {
		if p.ID == nil {
			return nil, fmt.Errorf("phone number without id cannot be updated")
		}
		p.ObjectType = PhoneNumberObjectType
		p.ObjectID = doctorID
		all = append(all, p)
	}
	all = append(all, AddPhoneNumbers(doctorID, added)...)

	err := s.inTx(ctx, func(ctx context.Context) error {
		for _, p := range all {
			if err := s.repo.SavePhoneNumber(ctx, p); err != nil {
				return fmt.Errorf("save phone number %s: %w", p.PhoneNumberType, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return all, nil
}
