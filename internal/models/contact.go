package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Contact struct {
	bun.BaseModel `bun:"table:contact,alias:ct"`

	ContactID      int64     `bun:"contact_id,pk,autoincrement" json:"ContactID"`
	UserName       string    `bun:"user_name,notnull" json:"UserName"`
	ContactEmail   string    `bun:"contact_email,notnull" json:"ContactEmail"`
	FeedBack       string    `bun:"feed_back,notnull" json:"FeedBack"`
	SubmissionDate time.Time `bun:"submission_date,notnull" json:"SubmissionDate"`
}
