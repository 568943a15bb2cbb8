package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/moodsync/server/internal/errs"
)

const (
	AvailabilityAvailable = "Available"
	JoinDateLayout        = "2006-01-02"
)

type Professional struct {
	ID                 uuid.UUID
	Name               string
	Email              string
	Phone              string
	Hospital           string
	Specialty          string
	Specializations    []string
	Languages          []string
	Education          string
	LicenseNumber      string
	AvailableHours     string
	Active             bool
	Verified           bool
	JoinDate           string
	AvailabilityStatus string
	CurrentAssignments []string
	NextAvailableSlot  *string

	ProfileImagePath       string
	LicenseCertificatePath string

	CreatedAt time.Time
	CreatedBy UserID
}

// Validate checks required fields and fills defaults the way registration does.
func (p *Professional) Validate(now time.Time) error {
	required := []struct {
		field string
		v     *string
	}{
		{"name", &p.Name},
		{"email", &p.Email},
		{"phone", &p.Phone},
		{"hospital", &p.Hospital},
		{"specialty", &p.Specialty},
		{"education", &p.Education},
		{"licenseNumber", &p.LicenseNumber},
		{"availableHours", &p.AvailableHours},
	}
	for _, r := range required {
		*r.v = strings.TrimSpace(*r.v)
		if *r.v == "" {
			return &FieldError{Field: r.field, Err: errs.ErrInvalidInput}
		}
	}

	p.Email = NormalizeEmail(p.Email)
	if !ValidEmail(p.Email) {
		return &FieldError{Field: "email", Err: errs.ErrInvalidEmail}
	}

	if p.JoinDate == "" {
		p.JoinDate = now.Format(JoinDateLayout)
	} else if _, err := time.Parse(JoinDateLayout, p.JoinDate); err != nil {
		return &FieldError{Field: "joinDate", Err: errs.ErrInvalidInput}
	}
	if p.AvailabilityStatus == "" {
		p.AvailabilityStatus = AvailabilityAvailable
	}
	if p.Specializations == nil {
		p.Specializations = []string{}
	}
	if p.Languages == nil {
		p.Languages = []string{}
	}
	if p.CurrentAssignments == nil {
		p.CurrentAssignments = []string{}
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	return nil
}

// FieldError names the offending input field.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string { return e.Field + ": " + e.Err.Error() }
func (e *FieldError) Unwrap() error { return e.Err }
