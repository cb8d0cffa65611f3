package in

import (
	"context"

	contactdto "saferun/internal/modules/contact/dto"
	contactin "saferun/internal/modules/contact/port/in"
)

type CLIHandler struct {
	usecase contactin.Usecase
}

func NewCLIHandler(usecase contactin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Set(ctx context.Context, ownerID, ownerName, contactName, phone string) (contactdto.ContactOutput, error) {
	return h.usecase.Set(ctx, contactdto.SetInput{OwnerID: ownerID, OwnerName: ownerName, ContactName: contactName, Phone: phone})
}

func (h CLIHandler) Show(ctx context.Context, ownerID string) (contactdto.ContactOutput, error) {
	return h.usecase.Get(ctx, ownerID)
}
