package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"ms-charity/internal/models"
	"ms-charity/internal/qrcode"
	"ms-charity/internal/sse"
)

func (h *Handler) CreateRegistration(w http.ResponseWriter, r *http.Request) {
	var req models.RegistrationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.handleError(w, "CreateRegistration", err, "")
		return
	}

	result, err := h.Admission.Admit(r.Context(), req)
	if err != nil {
		h.handleError(w, "CreateRegistration", err, "Event not found.")
		return
	}
	if h.Capacity != nil {
		h.Capacity.Emit(sse.CapacityUpdate{
			EventID:         req.EventID,
			RegistrationID:  result.RegistrationID,
			NumberOfTickets: req.NumberOfTickets,
			RemainingSpots:  result.RemainingSpots,
		})
	}
	resp := models.RegistrationResponse{
		Msg:            "Registration successful!",
		RegistrationID: result.RegistrationID,
		RemainingSpots: result.RemainingSpots,
	}
	if h.QR != nil {
		code, err := h.QR.Code(models.Registration{
			RegistrationID:  result.RegistrationID,
			EventID:         req.EventID,
			NumberOfTickets: req.NumberOfTickets,
		})
		if err != nil {
			// The seat is already committed; the code can be fetched again later.
			h.Logger.Error("QRCODE", fmt.Sprintf("seal registration %d: %v", result.RegistrationID, err))
		}
		resp.ConfirmationCode = code
	}
	h.sendJSONResponse(w, http.StatusCreated, resp)
}

// RegistrationQRCode serves the confirmation code for a registration as a PNG.
// The caller must name the registration's contact email; anything else is
// reported as not found so ids cannot be walked.
func (h *Handler) RegistrationQRCode(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.handleError(w, "RegistrationQRCode", err, "")
		return
	}

	email := strings.TrimSpace(r.URL.Query().Get("email"))
	reg, err := h.Query.Registration(r.Context(), id)
	if err != nil {
		h.handleError(w, "RegistrationQRCode", err, "Registration not found.")
		return
	}
	if email == "" || !strings.EqualFold(email, strings.TrimSpace(reg.ContactEmail)) {
		h.Logger.LogSecurity("QR_LOOKUP_DENIED", fmt.Sprintf("registration %d requested without its contact email", id))
		h.sendError(w, http.StatusNotFound, "Registration not found.")
		return
	}

	img, err := h.QR.PNG(*reg)
	if err != nil {
		h.handleError(w, "RegistrationQRCode", err, "")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(img)
}

// VerifyRegistration checks a scanned confirmation code against the ledger
func (h *Handler) VerifyRegistration(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Code string `json:"code"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		h.handleError(w, "VerifyRegistration", err, "")
		return
	}
	if body.Code == "" {
		h.sendError(w, http.StatusBadRequest, "code is required")
		return
	}

	c, err := h.QR.Open(body.Code)
	if err != nil {
		if errors.Is(err, qrcode.ErrInvalidCode) {
			h.Logger.LogSecurity("INVALID_QR", err.Error())
			h.sendError(w, http.StatusBadRequest, "Invalid confirmation code.")
			return
		}
		h.handleError(w, "VerifyRegistration", err, "")
		return
	}

	reg, err := h.Query.Registration(r.Context(), c.RegistrationID)
	if err != nil {
		h.handleError(w, "VerifyRegistration", err, "Registration not found.")
		return
	}
	if reg.EventID != c.EventID || reg.NumberOfTickets != c.NumberOfTickets {
		h.Logger.LogSecurity("QR_MISMATCH", "confirmation code does not match the ledger")
		h.sendError(w, http.StatusBadRequest, "Invalid confirmation code.")
		return
	}
	h.sendJSONResponse(w, http.StatusOK, reg)
}
