package orders

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/KostevSerg/flo-rustic-shop/internal/domain"
	"github.com/KostevSerg/flo-rustic-shop/internal/httpapi"
)

type Handler struct {
	service  *Service
	validate *httpapi.Validator
	logger   *slog.Logger
	resp     httpapi.Responder
}

func NewHandler(service *Service, validate *httpapi.Validator, logger *slog.Logger) *Handler {
	return &Handler{
		service:  service,
		validate: validate,
		logger:   logger,
		resp:     httpapi.NewResponder(logger),
	}
}

type lineItemRequest struct {
	Name     string          `json:"name" validate:"required"`
	Quantity int             `json:"quantity" validate:"gt=0"`
	Price    decimal.Decimal `json:"price" validate:"gte=0"`
}

type createOrderRequest struct {
	CustomerName    string            `json:"customer_name"`
	CustomerPhone   string            `json:"customer_phone"`
	CustomerEmail   string            `json:"customer_email" validate:"omitempty,email"`
	RecipientName   string            `json:"recipient_name"`
	RecipientPhone  string            `json:"recipient_phone"`
	SenderName      string            `json:"sender_name"`
	SenderPhone     string            `json:"sender_phone"`
	CityID          *int64            `json:"city_id" validate:"omitempty,gt=0"`
	DeliveryAddress string            `json:"delivery_address"`
	DeliveryDate    string            `json:"delivery_date" validate:"omitempty,datetime=2006-01-02"`
	DeliveryTime    string            `json:"delivery_time" validate:"omitempty,oneof=any morning day evening"`
	Items           []lineItemRequest `json:"items" validate:"required,min=1,dive"`
	TotalAmount     decimal.Decimal   `json:"total_amount" validate:"gte=0"`
	DiscountAmount  decimal.Decimal   `json:"discount_amount" validate:"gte=0"`
	PromoCode       string            `json:"promo_code"`
	PaymentMethod   string            `json:"payment_method" validate:"omitempty,oneof=cash online"`
	Notes           string            `json:"notes"`
	PostcardText    string            `json:"postcard_text"`
}

func (req createOrderRequest) toOrder() *domain.Order {
	items := make([]domain.LineItem, len(req.Items))
	for i, it := range req.Items {
		items[i] = domain.LineItem{Name: it.Name, Quantity: it.Quantity, Price: it.Price}
	}

	return &domain.Order{
		CustomerName:    req.CustomerName,
		CustomerPhone:   req.CustomerPhone,
		CustomerEmail:   req.CustomerEmail,
		RecipientName:   req.RecipientName,
		RecipientPhone:  req.RecipientPhone,
		SenderName:      req.SenderName,
		SenderPhone:     req.SenderPhone,
		CityID:          req.CityID,
		DeliveryAddress: req.DeliveryAddress,
		DeliveryDate:    req.DeliveryDate,
		DeliveryTime:    domain.DeliveryTime(req.DeliveryTime),
		Items:           items,
		TotalAmount:     req.TotalAmount,
		DiscountAmount:  req.DiscountAmount,
		PaymentMethod:   domain.PaymentMethod(req.PaymentMethod),
		Notes:           req.Notes,
		PostcardText:    req.PostcardText,
	}
}

type createOrderResponse struct {
	ID          int64  `json:"id"`
	OrderNumber string `json:"order_number"`
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := httpapi.Decode(r, &req); err != nil {
		h.resp.Fail(w, err)
		return
	}
	if details := h.validate.Struct(req); details != nil {
		h.resp.Invalid(w, details)
		return
	}

	order := req.toOrder()
	if err := h.service.Create(r.Context(), order, req.PromoCode); err != nil {
		h.resp.Fail(w, err)
		return
	}

	h.resp.JSON(w, http.StatusCreated, createOrderResponse{ID: order.ID, OrderNumber: order.OrderNumber})
}

// HandleGet serves GET /orders/{id}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	h.get(w, r, chi.URLParam(r, "id"))
}

// HandleList serves GET /orders. With ?id= it behaves like HandleGet;
// otherwise it lists orders, optionally filtered by ?status=.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	if id := query.Get("id"); id != "" {
		h.get(w, r, id)
		return
	}

	orders, err := h.service.List(r.Context(), domain.OrderStatus(query.Get("status")))
	if err != nil {
		h.resp.Fail(w, err)
		return
	}

	h.logger.Info("orders listed", "count", len(orders))
	h.resp.JSON(w, http.StatusOK, orders)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request, rawID string) {
	id, err := httpapi.ParseID("id", rawID)
	if err != nil {
		h.resp.Fail(w, err)
		return
	}

	order, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.resp.Fail(w, err)
		return
	}

	h.resp.JSON(w, http.StatusOK, order)
}

type updateOrderRequest struct {
	ID     int64               `json:"id"`
	Status *domain.OrderStatus `json:"status"`
	Notes  *string             `json:"notes"`
}

// HandleUpdate serves PUT /orders with the id in the body, and
// PATCH /orders/{id} with the id in the path.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req updateOrderRequest
	if err := httpapi.Decode(r, &req); err != nil {
		h.resp.Fail(w, err)
		return
	}

	id := req.ID
	if raw := chi.URLParam(r, "id"); raw != "" {
		parsed, err := httpapi.ParseID("id", raw)
		if err != nil {
			h.resp.Fail(w, err)
			return
		}
		id = parsed
	}
	if id <= 0 {
		h.resp.Error(w, http.StatusBadRequest, "order id is required")
		return
	}

	res, err := h.service.Update(r.Context(), id, req.Status, req.Notes)
	if err != nil {
		h.resp.Fail(w, err)
		return
	}

	h.resp.JSON(w, http.StatusOK, res)
}

// HandleDelete serves DELETE /orders?id= and DELETE /orders/{id}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "id")
	if raw == "" {
		raw = r.URL.Query().Get("id")
	}

	id, err := httpapi.ParseID("id", raw)
	if err != nil {
		h.resp.Fail(w, err)
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		h.resp.Fail(w, err)
		return
	}

	h.resp.JSON(w, http.StatusOK, map[string]bool{"success": true})
}
