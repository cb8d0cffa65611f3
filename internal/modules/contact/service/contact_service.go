package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"saferun/internal/modules/contact/domain"
	contactout "saferun/internal/modules/contact/port/out"
	"saferun/internal/platform/clock"
	apperrors "saferun/internal/platform/errors"
)

type ContactService struct {
	clock clock.Clock
	store contactout.Store
}

func NewContactService(clock clock.Clock, store contactout.Store) *ContactService {
	return &ContactService{clock: clock, store: store}
}

func (s *ContactService) Set(ctx context.Context, contact domain.Contact) (domain.Contact, error) {
	contact.OwnerID = strings.TrimSpace(contact.OwnerID)
	contact.OwnerName = strings.TrimSpace(contact.OwnerName)
	contact.ContactName = strings.TrimSpace(contact.ContactName)
	contact.Phone = domain.NormalizePhone(contact.Phone)
	if err := contact.Validate(); err != nil {
		return domain.Contact{}, err
	}
	contact.UpdatedAt = s.clock.Now()
	if err := s.store.Upsert(ctx, contact); err != nil {
		return domain.Contact{}, err
	}
	log.Ctx(ctx).Info().Str("owner_id", contact.OwnerID).Msg("emergency contact saved")
	return contact, nil
}

func (s *ContactService) Get(ctx context.Context, ownerID string) (domain.Contact, error) {
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return domain.Contact{}, fmt.Errorf("owner id is required: %w", apperrors.ErrInvalidInput)
	}
	return s.store.Get(ctx, ownerID)
}
