package dto

import "time"

type SetInput struct {
	OwnerID     string `json:"-"`
	OwnerName   string `json:"owner_name"`
	ContactName string `json:"contact_name"`
	Phone       string `json:"phone"`
}

type ContactOutput struct {
	OwnerID     string    `json:"owner_id"`
	OwnerName   string    `json:"owner_name"`
	ContactName string    `json:"contact_name"`
	Phone       string    `json:"phone"`
	UpdatedAt   time.Time `json:"updated_at"`
}
