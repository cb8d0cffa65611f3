package out

import (
	"context"

	contactin "saferun/internal/modules/contact/port/in"
	"saferun/internal/modules/notify/domain"
	notifyout "saferun/internal/modules/notify/port/out"
)

// ContactDirectory resolves recipients through the contact module.
type ContactDirectory struct {
	contacts contactin.Usecase
}

var _ notifyout.Directory = ContactDirectory{}

func NewContactDirectory(contacts contactin.Usecase) ContactDirectory {
	return ContactDirectory{contacts: contacts}
}

func (d ContactDirectory) Lookup(ctx context.Context, ownerID string) (domain.Recipient, error) {
	contact, err := d.contacts.Get(ctx, ownerID)
	if err != nil {
		return domain.Recipient{}, err
	}
	return domain.Recipient{
		OwnerID:     contact.OwnerID,
		OwnerName:   contact.OwnerName,
		ContactName: contact.ContactName,
		Phone:       contact.Phone,
	}, nil
}
