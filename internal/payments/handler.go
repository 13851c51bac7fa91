package payments

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/KostevSerg/flo-rustic-shop/internal/httpapi"
)

const (
	SignatureHeader = "X-Webhook-Signature"
	maxWebhookBytes = 1 << 20
)

type Handler struct {
	coordinator   *Coordinator
	webhookSecret string
	validate      *httpapi.Validator
	logger        *slog.Logger
	resp          httpapi.Responder
}

func NewHandler(coordinator *Coordinator, webhookSecret string, validate *httpapi.Validator, logger *slog.Logger) *Handler {
	return &Handler{
		coordinator:   coordinator,
		webhookSecret: webhookSecret,
		validate:      validate,
		logger:        logger,
		resp:          httpapi.NewResponder(logger),
	}
}

type createPaymentRequest struct {
	OrderID   int64           `json:"order_id" validate:"required,gt=0"`
	Amount    decimal.Decimal `json:"amount" validate:"gt=0"`
	ReturnURL string          `json:"return_url" validate:"omitempty,url"`
}

func (h *Handler) HandleCreatePayment(w http.ResponseWriter, r *http.Request) {
	var req createPaymentRequest
	if err := httpapi.Decode(r, &req); err != nil {
		h.resp.Fail(w, err)
		return
	}
	if details := h.validate.Struct(req); details != nil {
		h.resp.Invalid(w, details)
		return
	}

	intent, err := h.coordinator.CreatePaymentIntent(r.Context(), IntentRequest{
		OrderID:   req.OrderID,
		Amount:    req.Amount,
		ReturnURL: req.ReturnURL,
	})
	if err != nil {
		h.resp.Fail(w, err)
		return
	}

	h.resp.JSON(w, http.StatusOK, intent)
}

func (h *Handler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBytes))
	if err != nil {
		h.resp.Error(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	if !VerifySignature(h.webhookSecret, body, r.Header.Get(SignatureHeader)) {
		h.logger.Warn("rejected webhook with invalid signature", "remote_addr", r.RemoteAddr)
		h.resp.Error(w, http.StatusUnauthorized, "invalid signature")
		return
	}

	var evt WebhookEvent
	dec := json.NewDecoder(bytes.NewReader(body))
	if err := dec.Decode(&evt); err != nil {
		h.resp.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	outcome, err := h.coordinator.HandleWebhook(r.Context(), evt)
	if err != nil {
		h.resp.Fail(w, err)
		return
	}

	h.resp.JSON(w, http.StatusOK, map[string]string{"status": "ok", "outcome": string(outcome)})
}
