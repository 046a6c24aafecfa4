package api_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	"ms-charity/internal/admission"
	admissiondb "ms-charity/internal/admission/db"
	"ms-charity/internal/analytics"
	"ms-charity/internal/api"
	"ms-charity/internal/auth"
	"ms-charity/internal/catalog"
	catalogdb "ms-charity/internal/catalog/db"
	contactdb "ms-charity/internal/contact/db"
	"ms-charity/internal/database"
	"ms-charity/internal/kafka"
	ledgerdb "ms-charity/internal/ledger/db"
	"ms-charity/internal/logger"
	"ms-charity/internal/models"
	"ms-charity/internal/qrcode"
	"ms-charity/internal/query"
	"ms-charity/internal/sse"
)

type testServer struct {
	handler http.Handler
	db      *bun.DB
	eventID int64
	catID   int64
}

func newTestServer(t *testing.T, policy auth.Policy) *testServer {
	ctx := context.Background()
	bunDB, err := database.OpenSQLiteMemory(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { bunDB.Close() })

	log := logger.NewLoggerWithWriter(&bytes.Buffer{})
	catalogStore := &catalogdb.DB{Bun: bunDB}
	qr, err := qrcode.NewGenerator("test")
	require.NoError(t, err)

	h := &api.Handler{
		Catalog:   &catalog.Service{Store: catalogStore, Publisher: kafka.Noop{}, Logger: log},
		Admission: admission.NewService(&admissiondb.Store{Bun: bunDB}, kafka.Noop{}, nil, log, 3),
		Query:     &query.Service{Catalog: catalogStore, Ledger: &ledgerdb.DB{Bun: bunDB}, Logger: log},
		Analytics: analytics.NewService(analytics.NewDB(bunDB)),
		Contacts:  &contactdb.DB{Bun: bunDB},
		QR:        qr,
		Capacity:  sse.NewCapacityEmitter(),
		Logger:    log,
	}

	cat := models.Category{CategoryName: "Workshop"}
	_, err = bunDB.NewInsert().Model(&cat).Exec(ctx)
	require.NoError(t, err)
	event := models.Event{
		EventName: "Community Coding Workshop", EventDate: models.NewDate(2025, 8, 15),
		Location: "Canberra Innovation Hub", TicketPrice: 25, GoalAttendees: 100,
		CurrentStatus: models.StatusActive, CategoryID: cat.CategoryID,
	}
	_, err = bunDB.NewInsert().Model(&event).Exec(ctx)
	require.NoError(t, err)

	return &testServer{handler: api.NewRouter(h, policy, log), db: bunDB, eventID: event.EventID, catID: cat.CategoryID}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}, headers ...string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst), rec.Body.String())
}

func (s *testServer) setAttendees(t *testing.T, n int) {
	_, err := s.db.NewUpdate().Model((*models.Event)(nil)).
		Set("current_attendees = ?", n).Where("event_id = ?", s.eventID).Exec(context.Background())
	require.NoError(t, err)
}

func TestRegistrationFlow(t *testing.T) {
	s := newTestServer(t, auth.OpenPolicy{})
	s.setAttendees(t, 98)

	rec := s.do(t, http.MethodPost, "/api/registrations", map[string]interface{}{
		"EventID": s.eventID, "UserName": "Jane", "ContactEmail": "jane@example.com", "NumberOfTickets": 3,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var capBody struct {
		Error          string `json:"error"`
		RemainingSpots int    `json:"remainingSpots"`
	}
	decode(t, rec, &capBody)
	assert.Equal(t, 2, capBody.RemainingSpots)
	assert.Equal(t, "Cannot register 3 tickets. Only 2 spots remaining.", capBody.Error)

	rec = s.do(t, http.MethodPost, "/api/registrations", map[string]interface{}{
		"EventID": s.eventID, "UserName": "Jane", "ContactEmail": "jane@example.com", "NumberOfTickets": 2,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var ok models.RegistrationResponse
	decode(t, rec, &ok)
	assert.Equal(t, "Registration successful!", ok.Msg)
	assert.Equal(t, 0, ok.RemainingSpots)

	rec = s.do(t, http.MethodGet, "/api/events/"+itoa(s.eventID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var details models.EventDetails
	decode(t, rec, &details)
	assert.Equal(t, 100, details.EventDetails.CurrentAttendees)
	assert.Equal(t, 0, details.EventDetails.RemainingSpots)
	assert.Equal(t, "Workshop", details.EventDetails.CategoryName)
	assert.Equal(t, "2025-08-15", details.EventDetails.EventDate.String())
	require.Len(t, details.Registrations, 1)
	assert.Equal(t, ok.RegistrationID, details.Registrations[0].RegistrationID)
}

func TestRegistrationValidation(t *testing.T) {
	s := newTestServer(t, auth.OpenPolicy{})

	rec := s.do(t, http.MethodPost, "/api/registrations", map[string]interface{}{
		"EventID": s.eventID, "UserName": "Jane", "NumberOfTickets": 1,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Missing required fields for registration.")

	rec = s.do(t, http.MethodPost, "/api/registrations", "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/registrations", map[string]interface{}{
		"EventID": s.eventID + 50, "UserName": "Jane", "ContactEmail": "j@example.com", "NumberOfTickets": 1,
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEventAdminLifecycle(t *testing.T) {
	s := newTestServer(t, auth.OpenPolicy{})

	rec := s.do(t, http.MethodPost, "/api/events", map[string]interface{}{
		"EventName": "Charity Quiz Night", "EventDate": "2025-12-01T13:00:00.000Z", "Location": "Hobart",
		"TicketPrice": 10, "GoalAttendees": 40, "CategoryID": s.catID, "CurrentStatus": 0,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created struct {
		Msg        string `json:"msg"`
		NewEventID int64  `json:"newEventId"`
	}
	decode(t, rec, &created)
	assert.NotZero(t, created.NewEventID)

	var active []models.Event
	decode(t, s.do(t, http.MethodGet, "/api/events", nil), &active)
	assert.Len(t, active, 1, "inactive events stay out of the public listing")

	var all []models.Event
	decode(t, s.do(t, http.MethodGet, "/api/allEvents?q=quiz", nil), &all)
	require.Len(t, all, 1)
	assert.Equal(t, "2025-12-01", all[0].EventDate.String())
	assert.Equal(t, models.StatusInactive, all[0].CurrentStatus)

	rec = s.do(t, http.MethodPut, "/api/events/"+itoa(created.NewEventID), map[string]interface{}{
		"EventName": "Charity Quiz Night", "EventDate": "2025-12-02", "Location": "Hobart",
		"TicketPrice": 10, "GoalAttendees": 40, "CategoryID": s.catID,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "CurrentStatus")
	decode(t, s.do(t, http.MethodGet, "/api/allEvents?q=quiz", nil), &all)
	require.Len(t, all, 1)
	assert.Equal(t, models.StatusInactive, all[0].CurrentStatus, "a rejected update leaves the event untouched")

	rec = s.do(t, http.MethodPut, "/api/events/"+itoa(created.NewEventID), map[string]interface{}{
		"EventName": "Charity Quiz Night", "EventDate": "2025-12-02", "Location": "Hobart",
		"TicketPrice": -1, "GoalAttendees": 40, "CategoryID": s.catID, "CurrentStatus": 1,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPut, "/api/events/9999", map[string]interface{}{
		"EventName": "Ghost", "EventDate": "2025-12-02", "Location": "Nowhere",
		"GoalAttendees": 40, "CategoryID": s.catID, "CurrentStatus": 1,
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/registrations", map[string]interface{}{
		"EventID": s.eventID, "UserName": "Ann", "ContactEmail": "ann@example.com", "NumberOfTickets": 1,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = s.do(t, http.MethodDelete, "/api/events/"+itoa(s.eventID), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "1 existing registration(s)")

	rec = s.do(t, http.MethodDelete, "/api/events/"+itoa(created.NewEventID), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(t, http.MethodDelete, "/api/events/"+itoa(created.NewEventID), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminRoutesRequirePolicy(t *testing.T) {
	secret := []byte("admin-secret")
	s := newTestServer(t, &auth.JWTPolicy{Secret: secret})

	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/api/summary", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodDelete, "/api/events/"+itoa(s.eventID), nil).Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/events", nil).Code, "public routes stay open")

	token, err := auth.SignAdminToken(secret, "ops", jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))})
	require.NoError(t, err)

	rec := s.do(t, http.MethodGet, "/api/summary", nil, "Authorization", "Bearer "+token)
	require.Equal(t, http.StatusOK, rec.Code)
	var summary models.Summary
	decode(t, rec, &summary)
	assert.Equal(t, []models.CategoryCount{{CategoryName: "Workshop", EventCount: 1}}, summary.EventsByCategory)
}

func TestContactsAndCategories(t *testing.T) {
	s := newTestServer(t, auth.OpenPolicy{})

	rec := s.do(t, http.MethodPost, "/api/contacts", map[string]string{"UserName": "Ann", "ContactEmail": "ann@example.com"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/contacts", map[string]string{"UserName": "Ann", "ContactEmail": "ann@example.com", "FeedBack": "Lovely"})
	require.Equal(t, http.StatusCreated, rec.Code)

	var contacts []models.Contact
	decode(t, s.do(t, http.MethodGet, "/api/contacts", nil), &contacts)
	require.Len(t, contacts, 1)

	assert.Equal(t, http.StatusOK, s.do(t, http.MethodDelete, "/api/contacts/"+itoa(contacts[0].ContactID), nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodDelete, "/api/contacts/"+itoa(contacts[0].ContactID), nil).Code)

	var categories []models.Category
	decode(t, s.do(t, http.MethodGet, "/api/categories", nil), &categories)
	assert.Len(t, categories, 1)
}

func TestQRCodeAndVerify(t *testing.T) {
	s := newTestServer(t, auth.OpenPolicy{})

	rec := s.do(t, http.MethodPost, "/api/registrations", map[string]interface{}{
		"EventID": s.eventID, "UserName": "Jane", "ContactEmail": "jane@example.com", "NumberOfTickets": 2,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created models.RegistrationResponse
	decode(t, rec, &created)

	require.NotEmpty(t, created.ConfirmationCode)
	qrPath := "/api/registrations/" + itoa(created.RegistrationID) + "/qrcode"

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, qrPath, nil).Code, "email is required")
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, qrPath+"?email=someone@example.com", nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/registrations/999/qrcode?email=jane@example.com", nil).Code)

	rec = s.do(t, http.MethodGet, qrPath+"?email=Jane@Example.com", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	_, err := png.Decode(bytes.NewReader(rec.Body.Bytes()))
	assert.NoError(t, err)

	rec = s.do(t, http.MethodPost, "/api/registrations/verify", map[string]string{"code": created.ConfirmationCode})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var verified models.Registration
	decode(t, rec, &verified)
	assert.Equal(t, created.RegistrationID, verified.RegistrationID)

	foreign, err := qrcode.NewGenerator("some-other-secret")
	require.NoError(t, err)
	code, err := foreign.Code(models.Registration{RegistrationID: created.RegistrationID, EventID: s.eventID, NumberOfTickets: 2})
	require.NoError(t, err)
	rec = s.do(t, http.MethodPost, "/api/registrations/verify", map[string]string{"code": code})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "codes sealed under another secret are rejected")

	rec = s.do(t, http.MethodPost, "/api/registrations/verify", map[string]string{"code": "garbage"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUnknownRouteAndHealth(t *testing.T) {
	s := newTestServer(t, auth.OpenPolicy{})

	rec := s.do(t, http.MethodGet, "/api/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "Route not found"))

	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/health", nil).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/api/events/abc", nil).Code)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

func TestCapacityStream(t *testing.T) {
	s := newTestServer(t, auth.OpenPolicy{})
	s.setAttendees(t, 90)
	srv := httptest.NewServer(s.handler)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/events/"+itoa(s.eventID)+"/stream", nil)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	lines := bufio.NewScanner(resp.Body)
	next := func() string {
		for lines.Scan() {
			if strings.HasPrefix(lines.Text(), "data: ") {
				return strings.TrimPrefix(lines.Text(), "data: ")
			}
		}
		t.Fatal("stream ended")
		return ""
	}

	assert.JSONEq(t, fmt.Sprintf(`{"eventId":%d,"remainingSpots":10}`, s.eventID), next())

	rec := s.do(t, http.MethodPost, "/api/registrations", map[string]interface{}{
		"EventID": s.eventID, "UserName": "Jane", "ContactEmail": "jane@example.com", "NumberOfTickets": 4,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var update sse.CapacityUpdate
	require.NoError(t, json.Unmarshal([]byte(next()), &update))
	assert.Equal(t, 6, update.RemainingSpots)
	assert.Equal(t, 4, update.NumberOfTickets)

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/events/999/stream", nil).Code)
}
