package api

import (
	"net/http"
	"strings"
	"time"

	"ms-charity/internal/models"
)

func (h *Handler) CreateContact(w http.ResponseWriter, r *http.Request) {
	var c models.Contact
	if err := decodeJSON(w, r, &c); err != nil {
		h.handleError(w, "CreateContact", err, "")
		return
	}

	c.UserName = strings.TrimSpace(c.UserName)
	c.ContactEmail = strings.TrimSpace(c.ContactEmail)
	c.FeedBack = strings.TrimSpace(c.FeedBack)
	if c.UserName == "" || c.ContactEmail == "" || c.FeedBack == "" {
		h.sendError(w, http.StatusBadRequest, "Name, Email, and FeedBack are required fields.")
		return
	}
	c.ContactID = 0
	c.SubmissionDate = time.Now().UTC()

	if err := h.Contacts.CreateContact(r.Context(), &c); err != nil {
		h.handleError(w, "CreateContact", err, "")
		return
	}
	h.sendJSONResponse(w, http.StatusCreated, map[string]string{"msg": "Thank you for your feedback!"})
}

func (h *Handler) ListContacts(w http.ResponseWriter, r *http.Request) {
	contacts, err := h.Contacts.ListContacts(r.Context())
	if err != nil {
		h.handleError(w, "ListContacts", err, "")
		return
	}
	h.sendJSONResponse(w, http.StatusOK, contacts)
}

func (h *Handler) DeleteContact(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.handleError(w, "DeleteContact", err, "")
		return
	}

	if err := h.Contacts.DeleteContact(r.Context(), id); err != nil {
		h.handleError(w, "DeleteContact", err, "Message not found.")
		return
	}
	h.sendJSONResponse(w, http.StatusOK, map[string]string{"msg": "Message deleted successfully!"})
}
