package doctor

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("doctor not found")

// Doctor maps to the doctor table. The vcard columns are optional; a doctor
// without any of them is known only by login.
type Doctor struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	Login           string     `db:"login" json:"login"`
	ZSR             *string    `db:"zsr" json:"zsr,omitempty"`
	ESRAccountID    *uuid.UUID `db:"esr_account_id" json:"esr_account_id,omitempty"`
	HonorificPrefix *string    `db:"honorific_prefix" json:"honorific_prefix,omitempty"`
	GivenName       *string    `db:"given_name" json:"given_name,omitempty"`
	FamilyName      *string    `db:"family_name" json:"family_name,omitempty"`
	FullName        *string    `db:"full_name" json:"full_name,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

func (d *Doctor) SubjectName() string { return "Doctor" }

// HasVCard reports whether any name field is set.
func (d *Doctor) HasVCard() bool {
	return d.HonorificPrefix != nil || d.GivenName != nil || d.FamilyName != nil || d.FullName != nil
}

// DisplayName joins honorific prefix, given and family name with single
// spaces, skipping missing and empty parts.
func (d *Doctor) DisplayName() string {
	var parts []string
	for _, p := range []*string{d.HonorificPrefix, d.GivenName, d.FamilyName} {
		if p != nil && *p != "" {
			parts = append(parts, *p)
		}
	}
	return strings.Join(parts, " ")
}

func (d *Doctor) String() string { return d.DisplayName() }

// Name is the vcard full name, or the login for doctors without vcard data.
func (d *Doctor) Name() string {
	if !d.HasVCard() {
		return d.Login
	}
	return strVal(d.FullName)
}

// SanitizeZSR strips spaces and dots from a ZSR number ("H 1234.56" -> "H123456").
func SanitizeZSR(zsr string) string {
	return strings.NewReplacer(" ", "", ".", "").Replace(zsr)
}

func (d *Doctor) sanitize() {
	if d.ZSR != nil {
		z := SanitizeZSR(*d.ZSR)
		d.ZSR = &z
	}
}

// Office maps to the office table; doctors and offices are linked through
// doctor_office.
type Office struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Patient maps to the patient table.
type Patient struct {
	ID         uuid.UUID  `db:"id" json:"id"`
	DoctorID   *uuid.UUID `db:"doctor_id" json:"doctor_id,omitempty"`
	GivenName  string     `db:"given_name" json:"given_name"`
	FamilyName string     `db:"family_name" json:"family_name"`
	BirthDate  *time.Time `db:"birth_date" json:"birth_date,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
}

func (p *Patient) SubjectName() string { return "Patient" }

// Returned invoice states.
const (
	InvoiceReady          = "ready"
	InvoiceRequestPending = "request_pending"
	InvoiceRequested      = "requested"
	InvoiceClosed         = "closed"
)

// ReturnedInvoice is an invoice sent back to the practice, waiting for a
// re-issue request.
type ReturnedInvoice struct {
	ID        uuid.UUID `db:"id" json:"id"`
	DoctorID  uuid.UUID `db:"doctor_id" json:"doctor_id"`
	InvoiceID uuid.UUID `db:"invoice_id" json:"invoice_id"`
	State     string    `db:"state" json:"state"`
	Remarks   *string   `db:"remarks" json:"remarks,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

func (r *ReturnedInvoice) SubjectName() string { return "ReturnedInvoice" }

// QueueRequest moves a ready invoice to request_pending.
func (r *ReturnedInvoice) QueueRequest() error {
	if r.State != InvoiceReady {
		return fmt.Errorf("returned invoice %s: cannot queue request in state %q", r.ID, r.State)
	}
	r.State = InvoiceRequestPending
	return nil
}

// PhoneNumberObjectType is the object_type of phone numbers owned by a doctor.
const PhoneNumberObjectType = "Doctor"

// DefaultPhoneNumberTypes are offered for every doctor, in this order.
var DefaultPhoneNumberTypes = []string{"Tel. geschäft", "Tel. privat", "Handy", "E-Mail"}

// PhoneNumber maps to the phone_number table. A nil ID marks an entry that
// has not been stored yet.
type PhoneNumber struct {
	ID              *uuid.UUID `db:"id" json:"id,omitempty"`
	ObjectType      string     `db:"object_type" json:"-"`
	ObjectID        uuid.UUID  `db:"object_id" json:"-"`
	PhoneNumberType string     `db:"phone_number_type" json:"phone_number_type"`
	Number          string     `db:"number" json:"number"`
}

// PhoneNumberAttributes is the input for a new phone number.
type PhoneNumberAttributes struct {
	PhoneNumberType string `json:"phone_number_type"`
	Number          string `json:"number"`
}

// BuildDefaultPhoneNumbers returns a blank entry for every default type that
// existing does not already cover.
func BuildDefaultPhoneNumbers(doctorID uuid.UUID, existing []*PhoneNumber) []*PhoneNumber {
	have := make(map[string]bool, len(existing))
	for _, p := range existing {
		have[p.PhoneNumberType] = true
	}
	var out []*PhoneNumber
	for _, t := range DefaultPhoneNumberTypes {
		if have[t] {
			continue
		}
		out = append(out, &PhoneNumber{ObjectType: PhoneNumberObjectType, ObjectID: doctorID, PhoneNumberType: t})
	}
	return out
}

// AddPhoneNumbers builds new entries from attrs. Entries with a blank number
// are skipped.
func AddPhoneNumbers(doctorID uuid.UUID, attrs []PhoneNumberAttributes) []*PhoneNumber {
	var out []*PhoneNumber
	for _, a := range attrs {
		if strings.TrimSpace(a.Number) == "" {
			continue
		}
		out = append(out, &PhoneNumber{
			ObjectType:      PhoneNumberObjectType,
			ObjectID:        doctorID,
			PhoneNumberType: a.PhoneNumberType,
			Number:          strings.TrimSpace(a.Number),
		})
	}
	return out
}

func strVal(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
