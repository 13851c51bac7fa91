package catalog

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/KostevSerg/flo-rustic-shop/internal/domain"
	"github.com/KostevSerg/flo-rustic-shop/internal/httpapi"
)

type Store interface {
	PriceInputs(ctx context.Context, productID int64, cityID *int64) (*PriceInputs, error)
	ListCities(ctx context.Context) ([]domain.City, error)
}

type Handler struct {
	store  Store
	logger *slog.Logger
	resp   httpapi.Responder
}

func NewHandler(store Store, logger *slog.Logger) *Handler {
	return &Handler{
		store:  store,
		logger: logger,
		resp:   httpapi.NewResponder(logger),
	}
}

// Quote resolves the price of a product, optionally in a city.
func Quote(ctx context.Context, store Store, productID int64, cityID *int64) (*domain.PriceQuote, error) {
	in, err := store.PriceInputs(ctx, productID, cityID)
	if err != nil {
		return nil, err
	}

	var override *decimal.Decimal
	if in.Override.Valid {
		override = &in.Override.Decimal
	}

	return &domain.PriceQuote{
		ProductID: productID,
		CityID:    cityID,
		Price:     ResolvePrice(in.BasePrice, in.MarkupPercent, override),
	}, nil
}

func (h *Handler) HandleGetPrice(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	productID, err := httpapi.ParseID("product_id", query.Get("product_id"))
	if err != nil {
		h.resp.Fail(w, err)
		return
	}

	var cityID *int64
	if raw := query.Get("city_id"); raw != "" {
		id, err := httpapi.ParseID("city_id", raw)
		if err != nil {
			h.resp.Fail(w, err)
			return
		}
		cityID = &id
	}

	quote, err := Quote(r.Context(), h.store, productID, cityID)
	if err != nil {
		h.resp.Fail(w, err)
		return
	}

	h.resp.JSON(w, http.StatusOK, quote)
}

func (h *Handler) HandleListCities(w http.ResponseWriter, r *http.Request) {
	cities, err := h.store.ListCities(r.Context())
	if err != nil {
		h.resp.Fail(w, err)
		return
	}

	h.logger.Info("cities listed", "count", len(cities))
	h.resp.JSON(w, http.StatusOK, cities)
}
