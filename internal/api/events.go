package api

import (
	"fmt"
	"net/http"

	"ms-charity/internal/models"
)

func filterFromQuery(r *http.Request, activeOnly bool) models.EventFilter {
	q := r.URL.Query()
	var categories []string
	for _, c := range q["category"] {
		if c != "" {
			categories = append(categories, c)
		}
	}
	return models.EventFilter{
		Query:      q.Get("q"),
		Date:       q.Get("date"),
		Location:   q.Get("location"),
		Categories: categories,
		ActiveOnly: activeOnly,
	}
}

// ListEvents serves active events only
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	h.listEvents(w, r, true)
}

// ListAllEvents serves events of every status (admin)
func (h *Handler) ListAllEvents(w http.ResponseWriter, r *http.Request) {
	h.listEvents(w, r, false)
}

func (h *Handler) listEvents(w http.ResponseWriter, r *http.Request, activeOnly bool) {
	events, err := h.Query.ListEvents(r.Context(), filterFromQuery(r, activeOnly))
	if err != nil {
		h.handleError(w, "ListEvents", err, "")
		return
	}
	h.sendJSONResponse(w, http.StatusOK, events)
}

func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.handleError(w, "GetEvent", err, "")
		return
	}

	details, err := h.Query.EventDetails(r.Context(), id)
	if err != nil {
		h.handleError(w, "GetEvent", err, "Event not found")
		return
	}
	h.sendJSONResponse(w, http.StatusOK, details)
}

func (h *Handler) ListEventRegistrations(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.handleError(w, "ListEventRegistrations", err, "")
		return
	}

	regs, err := h.Query.Registrations(r.Context(), id)
	if err != nil {
		h.handleError(w, "ListEventRegistrations", err, "Event not found")
		return
	}
	h.sendJSONResponse(w, http.StatusOK, regs)
}

func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var draft models.EventDraft
	if err := decodeJSON(w, r, &draft); err != nil {
		h.handleError(w, "CreateEvent", err, "")
		return
	}

	id, err := h.Catalog.Create(r.Context(), draft)
	if err != nil {
		h.handleError(w, "CreateEvent", err, "")
		return
	}
	h.Logger.Info("API", fmt.Sprintf("CreateEvent: event %d created", id))
	h.sendJSONResponse(w, http.StatusCreated, map[string]interface{}{
		"msg":        "Event created successfully!",
		"newEventId": id,
	})
}

func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.handleError(w, "UpdateEvent", err, "")
		return
	}

	var draft models.EventDraft
	if err := decodeJSON(w, r, &draft); err != nil {
		h.handleError(w, "UpdateEvent", err, "")
		return
	}

	if err := h.Catalog.Update(r.Context(), id, draft); err != nil {
		h.handleError(w, "UpdateEvent", err, "Event not found")
		return
	}
	h.sendJSONResponse(w, http.StatusOK, map[string]string{"msg": "Event updated successfully!"})
}

func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.handleError(w, "DeleteEvent", err, "")
		return
	}

	if err := h.Catalog.Delete(r.Context(), id); err != nil {
		h.handleError(w, "DeleteEvent", err, "Event not found")
		return
	}
	h.sendJSONResponse(w, http.StatusOK, map[string]string{"msg": "Event deleted successfully!"})
}

func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.Query.Categories(r.Context())
	if err != nil {
		h.handleError(w, "ListCategories", err, "")
		return
	}
	h.sendJSONResponse(w, http.StatusOK, categories)
}

func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Analytics.GetSummary(r.Context())
	if err != nil {
		h.handleError(w, "GetSummary", err, "")
		return
	}
	h.sendJSONResponse(w, http.StatusOK, summary)
}
