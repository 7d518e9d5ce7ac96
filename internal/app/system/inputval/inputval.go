// internal/app/system/inputval/inputval.go

// Package inputval validates request payloads. Struct validation goes
// through a shared go-playground/validator instance; the free functions
// cover the handful of domain enums that appear in several payloads.
package inputval

import (
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/dalemusser/memberhub/internal/domain/models"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Struct runs validator tags on v and flattens the first failure into a
// client-safe message.
func Struct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
		fe := errs[0]
		return fmt.Errorf("field %q failed validation rule %q", fe.Field(), fe.Tag())
	}
	return err
}

// IsValidEmail reports whether s parses as a bare RFC 5322 address
// (display-name forms are rejected).
func IsValidEmail(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}

// IsValidMembershipStatus reports whether s is a known membership status.
func IsValidMembershipStatus(s string) bool {
	switch s {
	case models.MembershipActive, models.MembershipExpired,
		models.MembershipPending, models.MembershipPaymentRequested:
		return true
	}
	return false
}

// IsValidVisibility reports whether s is a known article visibility.
func IsValidVisibility(s string) bool {
	return s == models.VisibilityAll || s == models.VisibilityOrganization
}

// IsValidYear bounds membership years to something plausible. The
// association predates this system by a few years; anything outside the
// window is a typo.
func IsValidYear(year int) bool {
	now := time.Now().UTC().Year()
	return year >= 2000 && year <= now+1
}
