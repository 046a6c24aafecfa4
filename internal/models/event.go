package models

import (
	"github.com/uptrace/bun"
)

const (
	StatusInactive = 0
	StatusActive   = 1
)

// Event is a row of the catalog. CurrentAttendees only ever changes through admission.
type Event struct {
	bun.BaseModel `bun:"table:events,alias:e"`

	EventID          int64   `bun:"event_id,pk,autoincrement" json:"EventID"`
	EventName        string  `bun:"event_name,notnull" json:"EventName"`
	EventImage       string  `bun:"event_image,nullzero" json:"EventImage"`
	EventDate        Date    `bun:"event_date,type:date,notnull" json:"EventDate"`
	Location         string  `bun:"location,notnull" json:"Location"`
	Description      string  `bun:"description,nullzero" json:"Description"`
	TicketPrice      Money   `bun:"ticket_price,type:decimal(8,2),notnull" json:"TicketPrice"`
	CurrentAttendees int     `bun:"current_attendees,notnull" json:"CurrentAttendees"`
	GoalAttendees    int     `bun:"goal_attendees,notnull" json:"GoalAttendees"`
	CurrentStatus    int     `bun:"current_status,notnull" json:"CurrentStatus"`
	CategoryID       int64   `bun:"category_id,nullzero" json:"CategoryID"`

	CategoryName   string `bun:"category_name,scanonly" json:"CategoryName,omitempty"`
	RemainingSpots int    `bun:"-" json:"RemainingSpots"`
}

func (e *Event) Remaining() int {
	return e.GoalAttendees - e.CurrentAttendees
}

func (e *Event) IsActive() bool {
	return e.CurrentStatus == StatusActive
}

// EventDraft is the admin payload for create and update. Pointers mark fields
// whose absence must be told apart from a zero value.
type EventDraft struct {
	EventName     string   `json:"EventName"`
	EventImage    string   `json:"EventImage"`
	EventDate     string   `json:"EventDate"`
	Location      string   `json:"Location"`
	Description   string   `json:"Description"`
	TicketPrice   *float64 `json:"TicketPrice"`
	GoalAttendees int      `json:"GoalAttendees"`
	CategoryID    int64    `json:"CategoryID"`
	CurrentStatus *int     `json:"CurrentStatus"`
}

// EventFilter narrows a listing. Every field is optional and they combine with AND.
type EventFilter struct {
	Query      string
	Date       string
	Location   string
	Categories []string
	ActiveOnly bool
}

// EventDetails is the detail view: the event plus its registrations, newest first.
type EventDetails struct {
	EventDetails  Event          `json:"eventDetails"`
	Registrations []Registration `json:"registrations"`
}
