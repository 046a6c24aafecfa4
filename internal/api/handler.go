// Package api maps HTTP requests onto the catalog, admission, query and
// analytics services.
package api

import (
	"context"

	"ms-charity/internal/admission"
	"ms-charity/internal/analytics"
	"ms-charity/internal/catalog"
	"ms-charity/internal/logger"
	"ms-charity/internal/models"
	"ms-charity/internal/qrcode"
	"ms-charity/internal/query"
	"ms-charity/internal/sse"
)

type ContactStore interface {
	CreateContact(ctx context.Context, c *models.Contact) error
	ListContacts(ctx context.Context) ([]models.Contact, error)
	DeleteContact(ctx context.Context, id int64) error
}

type Handler struct {
	Catalog   *catalog.Service
	Admission *admission.Service
	Query     *query.Service
	Analytics *analytics.Service
	Contacts  ContactStore
	QR        *qrcode.Generator
	Capacity  *sse.CapacityEmitter
	Logger    *logger.Logger
}
