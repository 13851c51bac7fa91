package promo

import (
	"log/slog"
	"net/http"

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

// HandleGet looks up a single active code when ?code= is given and lists
// every code otherwise.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	if code := r.URL.Query().Get("code"); code != "" {
		p, err := h.service.Resolve(r.Context(), code)
		if err != nil {
			h.resp.Fail(w, err)
			return
		}
		h.resp.JSON(w, http.StatusOK, p)
		return
	}

	codes, err := h.service.List(r.Context())
	if err != nil {
		h.resp.Fail(w, err)
		return
	}

	h.logger.Info("promo codes listed", "count", len(codes))
	h.resp.JSON(w, http.StatusOK, codes)
}

type createPromoRequest struct {
	Code            string `json:"code" validate:"required"`
	DiscountPercent int    `json:"discount_percent" validate:"gte=1,lte=100"`
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createPromoRequest
	if err := httpapi.Decode(r, &req); err != nil {
		h.resp.Fail(w, err)
		return
	}
	if details := h.validate.Struct(req); details != nil {
		h.resp.Invalid(w, details)
		return
	}

	p, err := h.service.Create(r.Context(), req.Code, req.DiscountPercent)
	if err != nil {
		h.resp.Fail(w, err)
		return
	}

	h.resp.JSON(w, http.StatusCreated, p)
}

type deactivateRequest struct {
	ID int64 `json:"id"`
}

// HandleDeactivate accepts the id either as ?id= or in a JSON body.
func (h *Handler) HandleDeactivate(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("id")
	var id int64
	if raw != "" {
		parsed, err := httpapi.ParseID("id", raw)
		if err != nil {
			h.resp.Fail(w, err)
			return
		}
		id = parsed
	} else {
		var req deactivateRequest
		if err := httpapi.Decode(r, &req); err != nil {
			h.resp.Fail(w, err)
			return
		}
		if req.ID <= 0 {
			h.resp.Error(w, http.StatusBadRequest, "id is required")
			return
		}
		id = req.ID
	}

	if err := h.service.Deactivate(r.Context(), id); err != nil {
		h.resp.Fail(w, err)
		return
	}

	h.resp.JSON(w, http.StatusOK, map[string]bool{"success": true})
}
