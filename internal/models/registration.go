package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Registration struct {
	bun.BaseModel `bun:"table:registrations,alias:r"`

	RegistrationID   int64     `bun:"registration_id,pk,autoincrement" json:"RegistrationID"`
	EventID          int64     `bun:"event_id,notnull" json:"EventID"`
	UserName         string    `bun:"user_name,notnull" json:"UserName"`
	ContactEmail     string    `bun:"contact_email,notnull" json:"ContactEmail"`
	NumberOfTickets  int       `bun:"number_of_tickets,notnull" json:"NumberOfTickets"`
	RegistrationDate time.Time `bun:"registration_date,notnull" json:"RegistrationDate"`
}

type RegistrationRequest struct {
	EventID         int64  `json:"EventID"`
	UserName        string `json:"UserName"`
	ContactEmail    string `json:"ContactEmail"`
	NumberOfTickets int    `json:"NumberOfTickets"`
}

type RegistrationResponse struct {
	Msg            string `json:"msg"`
	RegistrationID int64  `json:"registrationId"`
	RemainingSpots int    `json:"remainingSpots"`

	// ConfirmationCode is the sealed code also served as a QR PNG.
	ConfirmationCode string `json:"confirmationCode,omitempty"`
}
