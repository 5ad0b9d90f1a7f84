// Package validate holds the field-level format checks and the aggregate
// validation engine. Field checks fail fast with a coded error; the aggregate
// engine never throws and accumulates every finding so callers can surface
// them all at once.
package validate

import (
	"regexp"
	"strings"
	"time"

	"github.com/asaskevich/govalidator"

	dErrors "warden/pkg/domain-errors"
)

var (
	// Basic local@domain.tld shape; govalidator handles the RFC corner cases.
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]{2,}$`)
	// E.164-like: optional +, 2-15 digits, no leading zero.
	phonePattern = regexp.MustCompile(`^\+?[1-9]\d{1,14}$`)
	datePattern  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

const birthdateLayout = "2006-01-02"

// Email checks the local@domain.tld shape.
func Email(v string) error {
	v = strings.TrimSpace(v)
	if v == "" {
		return dErrors.New(dErrors.CodeValidation, "email is required")
	}
	if !emailPattern.MatchString(v) || !govalidator.IsEmail(v) {
		return dErrors.New(dErrors.CodeValidation, "email must be a valid address")
	}
	return nil
}

// Phone checks the E.164-like shape. Structured field: check only, no cleaning.
func Phone(v string) error {
	if !phonePattern.MatchString(v) {
		return dErrors.New(dErrors.CodeValidation, "phone must be in international format")
	}
	return nil
}

// Birthdate checks strict YYYY-MM-DD form and that the value is a real
// calendar date (2023-02-30 is rejected by the parse).
func Birthdate(v string) error {
	if !datePattern.MatchString(v) {
		return dErrors.New(dErrors.CodeValidation, "birthdate must be in YYYY-MM-DD format")
	}
	if _, err := time.Parse(birthdateLayout, v); err != nil {
		return dErrors.New(dErrors.CodeValidation, "birthdate must be a real calendar date")
	}
	return nil
}

// Name requires non-blank first and last parts. Callers sanitize before
// calling so markup cannot smuggle a blank name past the check.
func Name(first, last string) error {
	if strings.TrimSpace(first) == "" {
		return dErrors.New(dErrors.CodeValidation, "first name is required")
	}
	if strings.TrimSpace(last) == "" {
		return dErrors.New(dErrors.CodeValidation, "last name is required")
	}
	return nil
}

// Report is the aggregate validation result. It is returned, never thrown,
// so batch validation can feed an HTTP 400 body directly.
type Report struct {
	Valid  bool     `json:"is_valid"`
	Errors []string `json:"errors"`
}

// Snapshot is the read-only view of a profile aggregate the engine audits.
// The engine checks shape and format of already-defended state; it does not
// re-scan for markup because the mutation gate owns that.
type Snapshot interface {
	ID() string
	Email() string
	DisplayName() string
	IdentityHash() string
	CreatedAt() time.Time
	LastUpdate() time.Time
	Phone() string
	Birthdate() string
}

// Entity audits the full aggregate and accumulates every violation rather
// than failing fast. It is safe to call repeatedly and from concurrent
// readers.
func Entity(s Snapshot) Report {
	var errs []string

	if strings.TrimSpace(s.ID()) == "" {
		errs = append(errs, "id is required")
	}
	if strings.TrimSpace(s.IdentityHash()) == "" {
		errs = append(errs, "identity hash is required")
	}
	if strings.TrimSpace(s.DisplayName()) == "" {
		errs = append(errs, "display name is required")
	}

	if err := Email(s.Email()); err != nil {
		errs = append(errs, "email: "+err.Error())
	}

	if s.CreatedAt().IsZero() {
		errs = append(errs, "created timestamp is missing")
	}
	if s.LastUpdate().IsZero() {
		errs = append(errs, "last update timestamp is missing")
	} else if !s.CreatedAt().IsZero() && s.LastUpdate().Before(s.CreatedAt()) {
		errs = append(errs, "last update precedes creation")
	}

	if phone := s.Phone(); phone != "" {
		if err := Phone(phone); err != nil {
			errs = append(errs, "phone: "+err.Error())
		}
	}
	if birthdate := s.Birthdate(); birthdate != "" {
		if err := Birthdate(birthdate); err != nil {
			errs = append(errs, "birthdate: "+err.Error())
		}
	}

	return Report{Valid: len(errs) == 0, Errors: errs}
}
