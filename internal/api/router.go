package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"ms-charity/internal/auth"
	"ms-charity/internal/logger"
)

// NewRouter mounts every route under /api. Admin routes go through policy.
func NewRouter(h *Handler, policy auth.Policy, log *logger.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(AccessLog(log))
	r.Use(middleware.Recoverer)
	r.Use(cors.AllowAll().Handler)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		h.sendJSONResponse(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		// --- Public Routes ---
		r.Get("/categories", h.ListCategories)
		r.Get("/events", h.ListEvents)
		r.Get("/events/{id}", h.GetEvent)
		r.Get("/events/{id}/registrations", h.ListEventRegistrations)
		r.Get("/events/{id}/stream", h.StreamCapacity)
		r.Post("/registrations", h.CreateRegistration)
		r.Get("/registrations/{id}/qrcode", h.RegistrationQRCode)
		r.Post("/registrations/verify", h.VerifyRegistration)
		r.Post("/contacts", h.CreateContact)

		// --- Admin Routes ---
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(policy, log))

			r.Get("/allEvents", h.ListAllEvents)
			r.Post("/events", h.CreateEvent)
			r.Put("/events/{id}", h.UpdateEvent)
			r.Delete("/events/{id}", h.DeleteEvent)
			r.Get("/summary", h.GetSummary)
			r.Get("/contacts", h.ListContacts)
			r.Delete("/contacts/{id}", h.DeleteContact)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		h.sendJSONResponse(w, http.StatusNotFound, map[string]string{"msg": "Route not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		h.sendJSONResponse(w, http.StatusMethodNotAllowed, map[string]string{"msg": "Method not allowed"})
	})

	return r
}

// AccessLog writes one API line per request.
func AccessLog(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				status := ww.Status()
				if status == 0 {
					status = http.StatusOK
				}
				log.LogRequest(r.Method, r.URL.Path, status, time.Since(start), middleware.GetReqID(r.Context()))
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
