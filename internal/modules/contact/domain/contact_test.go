package domain_test

import (
	"errors"
	"testing"

	"saferun/internal/modules/contact/domain"
	apperrors "saferun/internal/platform/errors"
)

func TestContactValidatePhone(t *testing.T) {
	t.Parallel()
	cases := []struct {
		phone string
		ok    bool
	}{
		{"+447700900123", true},
		{"+15551234567", true},
		{"07700900123", false},
		{"+0123456789", false},
		{"+12345", false},
		{"+1234567890123456", false},
		{"", false},
	}
	for _, tc := range cases {
		c := domain.Contact{OwnerID: "u1", OwnerName: "Ana", ContactName: "Ben", Phone: tc.phone}
		err := c.Validate()
		if tc.ok && err != nil {
			t.Fatalf("phone %q: unexpected error %v", tc.phone, err)
		}
		if !tc.ok && !errors.Is(err, apperrors.ErrInvalidInput) {
			t.Fatalf("phone %q: expected invalid input, got %v", tc.phone, err)
		}
	}
}

func TestContactValidateRequiresNames(t *testing.T) {
	t.Parallel()
	c := domain.Contact{OwnerID: "u1", OwnerName: "  ", ContactName: "Ben", Phone: "+447700900123"}
	if err := c.Validate(); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input for blank owner name, got %v", err)
	}
}

func TestNormalizePhone(t *testing.T) {
	t.Parallel()
	if got := domain.NormalizePhone(" +44 (7700) 900-123 "); got != "+447700900123" {
		t.Fatalf("unexpected normalized phone %q", got)
	}
}
