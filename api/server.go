/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logger:     Request logging into the application log
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for the household frontend

ROUTE GROUPS:
  /api/children/*       Children, their day ledgers, vouchers and curses
  /api/templates/*      Quest, bonus and penalty templates
  /api/settings         Household settings
  /api/admin/*          Admin operations
  /api/scenarios/*      Demo households
  /metrics              Prometheus
  /healthz              Liveness

SECURITY NOTE:
  No authentication middleware. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/warp/quest-engine/logging"
)

// DefaultAllowedOrigins are the frontend dev and production origins.
var DefaultAllowedOrigins = []string{"http://localhost:5173", "http://localhost:8080"}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, allowedOrigins []string) *chi.Mux {
	if len(allowedOrigins) == 0 {
		allowedOrigins = DefaultAllowedOrigins
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  logging.StdLogger(),
		NoColor: true,
	}))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		// Children
		r.Route("/children", func(r chi.Router) {
			r.Get("/", h.ListChildren)
			r.Post("/", h.CreateChild)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetChild)
				r.Put("/", h.UpdateChild)
				r.Delete("/", h.DeleteChild)
				r.Get("/level", h.GetLevel)

				// Day ledgers
				r.Get("/days", h.ListDays)
				r.Route("/days/{date}", func(r chi.Router) {
					r.Get("/", h.GetDay)
					r.Get("/summary", h.GetDaySummary)
					r.Get("/available", h.GetAvailable)
					r.Post("/sync-offline", h.SyncOffline)
					r.Post("/quests/{questID}/{action}", h.QuestAction)
					r.Post("/bonuses", h.CompleteBonus)
					r.Delete("/bonuses/{bonusID}", h.WithdrawBonus)
					r.Post("/penalties", h.ApplyPenalty)
					r.Delete("/penalties/{penaltyID}", h.RemovePenalty)
				})

				// Vouchers and curses
				r.Post("/vouchers", h.GiveVoucher)
				r.Delete("/vouchers/{voucherID}", h.RemoveVoucher)
				r.Post("/curse", h.ApplyCurse)
				r.Delete("/curse", h.LiftCurse)
				r.Post("/curse/points", h.UpdateCursePoints)
				r.Post("/curse/negotiation", h.RequestNegotiation)
				r.Post("/curse/contract", h.OfferContract)
				r.Post("/curse/contract/respond", h.RespondToContract)
				r.Post("/curse/contract/complete", h.CompleteContract)
			})
		})

		// Templates
		r.Route("/templates", func(r chi.Router) {
			r.Get("/", h.GetTemplates)
			r.Put("/", h.ReplaceTemplates)
			r.Post("/{kind}", h.AddTemplate)
			r.Delete("/{kind}/{templateID}", h.DeleteTemplate)
		})

		// Settings
		r.Get("/settings", h.GetSettings)
		r.Put("/settings", h.UpdateSettings)

		// Admin
		r.Route("/admin", func(r chi.Router) {
			r.Post("/compact", h.Compact)
			r.Post("/reset", h.ResetHousehold)
		})

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
		})
	})

	return r
}
