package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/KostevSerg/flo-rustic-shop/internal/httpapi"
	"github.com/KostevSerg/flo-rustic-shop/internal/telemetry"
)

const healthTimeout = 2 * time.Second

type OrderRoutes interface {
	HandleCreate(w http.ResponseWriter, r *http.Request)
	HandleGet(w http.ResponseWriter, r *http.Request)
	HandleList(w http.ResponseWriter, r *http.Request)
	HandleUpdate(w http.ResponseWriter, r *http.Request)
	HandleDelete(w http.ResponseWriter, r *http.Request)
}

type PaymentRoutes interface {
	HandleCreatePayment(w http.ResponseWriter, r *http.Request)
	HandleWebhook(w http.ResponseWriter, r *http.Request)
}

type PromoRoutes interface {
	HandleGet(w http.ResponseWriter, r *http.Request)
	HandleCreate(w http.ResponseWriter, r *http.Request)
	HandleDeactivate(w http.ResponseWriter, r *http.Request)
}

type CatalogRoutes interface {
	HandleGetPrice(w http.ResponseWriter, r *http.Request)
	HandleListCities(w http.ResponseWriter, r *http.Request)
}

// Pinger reports whether the database is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Routes struct {
	Orders   OrderRoutes
	Payments PaymentRoutes
	Promo    PromoRoutes
	Catalog  CatalogRoutes
	Metrics  http.Handler
	DB       Pinger
}

func NewRouter(routes Routes, logger *slog.Logger) http.Handler {
	resp := httpapi.NewResponder(logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(CORS)
	r.Use(telemetry.WithHTTPRoute)

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		ctx, cancel := context.WithTimeout(req.Context(), healthTimeout)
		defer cancel()
		if err := routes.DB.PingContext(ctx); err != nil {
			logger.Error("health check failed", "error", err)
			resp.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		resp.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if routes.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", routes.Metrics)
	}

	r.Route("/orders", func(r chi.Router) {
		r.Post("/", func(w http.ResponseWriter, req *http.Request) {
			if req.URL.Query().Get("action") == "create_payment" {
				routes.Payments.HandleCreatePayment(w, req)
				return
			}
			routes.Orders.HandleCreate(w, req)
		})
		r.Get("/", routes.Orders.HandleList)
		r.Put("/", routes.Orders.HandleUpdate)
		r.Delete("/", routes.Orders.HandleDelete)
		r.Get("/{id}", routes.Orders.HandleGet)
		r.Patch("/{id}", routes.Orders.HandleUpdate)
		r.Delete("/{id}", routes.Orders.HandleDelete)
	})

	r.Post("/payments", routes.Payments.HandleCreatePayment)
	r.Post("/payments/webhook", routes.Payments.HandleWebhook)

	r.Get("/promo-codes", routes.Promo.HandleGet)
	r.Post("/promo-codes", routes.Promo.HandleCreate)
	r.Delete("/promo-codes", routes.Promo.HandleDeactivate)

	r.Get("/prices", routes.Catalog.HandleGetPrice)
	r.Get("/cities", routes.Catalog.HandleListCities)

	return r
}
