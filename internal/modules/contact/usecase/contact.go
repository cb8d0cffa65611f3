package usecase

import (
	"context"

	"saferun/internal/modules/contact/domain"
	contactdto "saferun/internal/modules/contact/dto"
	contactin "saferun/internal/modules/contact/port/in"
	"saferun/internal/modules/contact/service"
)

type Interactor struct {
	svc *service.ContactService
}

func NewInteractor(svc *service.ContactService) contactin.Usecase {
	return &Interactor{svc: svc}
}

func (i *Interactor) Set(ctx context.Context, input contactdto.SetInput) (contactdto.ContactOutput, error) {
	saved, err := i.svc.Set(ctx, domain.Contact{
		OwnerID:     input.OwnerID,
		OwnerName:   input.OwnerName,
		ContactName: input.ContactName,
		Phone:       input.Phone,
	})
	if err != nil {
		return contactdto.ContactOutput{}, err
	}
	return toOutput(saved), nil
}

func (i *Interactor) Get(ctx context.Context, ownerID string) (contactdto.ContactOutput, error) {
	found, err := i.svc.Get(ctx, ownerID)
	if err != nil {
		return contactdto.ContactOutput{}, err
	}
	return toOutput(found), nil
}

func toOutput(c domain.Contact) contactdto.ContactOutput {
	return contactdto.ContactOutput{
		OwnerID:     c.OwnerID,
		OwnerName:   c.OwnerName,
		ContactName: c.ContactName,
		Phone:       c.Phone,
		UpdatedAt:   c.UpdatedAt,
	}
}
