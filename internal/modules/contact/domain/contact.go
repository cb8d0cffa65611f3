package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	apperrors "saferun/internal/platform/errors"
)

var phonePattern = regexp.MustCompile(`^\+[1-9]\d{6,14}$`)

// Contact is the single emergency contact registered for an owner.
type Contact struct {
	OwnerID     string    `json:"owner_id"`
	OwnerName   string    `json:"owner_name"`
	ContactName string    `json:"contact_name"`
	Phone       string    `json:"phone"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NormalizePhone drops the separators people type into phone numbers.
func NormalizePhone(raw string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '(', ')', '.':
			return -1
		}
		return r
	}, strings.TrimSpace(raw))
}

func (c Contact) Validate() error {
	if strings.TrimSpace(c.OwnerID) == "" {
		return fmt.Errorf("owner id is required: %w", apperrors.ErrInvalidInput)
	}
	if strings.TrimSpace(c.OwnerName) == "" {
		return fmt.Errorf("owner name is required: %w", apperrors.ErrInvalidInput)
	}
	if strings.TrimSpace(c.ContactName) == "" {
		return fmt.Errorf("contact name is required: %w", apperrors.ErrInvalidInput)
	}
	if !phonePattern.MatchString(c.Phone) {
		return fmt.Errorf("phone %q must be E.164, e.g. +447700900123: %w", c.Phone, apperrors.ErrInvalidInput)
	}
	return nil
}
