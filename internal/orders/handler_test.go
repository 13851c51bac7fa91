package orders

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/KostevSerg/flo-rustic-shop/internal/domain"
	"github.com/KostevSerg/flo-rustic-shop/internal/httpapi"
)

func newTestRouter(t *testing.T) (http.Handler, *serviceFixture) {
	t.Helper()
	f := newServiceFixture()
	handler := NewHandler(f.service, httpapi.NewValidator(), slog.New(slog.NewTextHandler(io.Discard, nil)))

	r := chi.NewRouter()
	r.Post("/orders", handler.HandleCreate)
	r.Get("/orders", handler.HandleList)
	r.Get("/orders/{id}", handler.HandleGet)
	r.Put("/orders", handler.HandleUpdate)
	r.Patch("/orders/{id}", handler.HandleUpdate)
	r.Delete("/orders", handler.HandleDelete)
	r.Delete("/orders/{id}", handler.HandleDelete)
	return r, f
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

const roseOrderBody = `{
	"customer_name": "Анна",
	"customer_phone": "+79990001122",
	"customer_email": "anna@example.com",
	"delivery_address": "ул. Ленина, 1",
	"delivery_date": "2026-03-08",
	"delivery_time": "morning",
	"items": [{"name": "Rose Bouquet", "quantity": 2, "price": 1500}],
	"total_amount": 3000,
	"promo_code": "spring10",
	"postcard_text": "С праздником!"
}`

func TestHandler_HandleCreate(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		router, f := newTestRouter(t)
		f.promos.codes["spring10"] = f.promos.codes["SPRING10"]

		rec := do(t, router, http.MethodPost, "/orders", roseOrderBody)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
		}

		var resp createOrderResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp.ID != 1 || resp.OrderNumber != "1" {
			t.Errorf("unexpected response: %+v", resp)
		}

		stored := f.repo.orders[resp.ID]
		if stored.DeliveryDate != "2026-03-08" || stored.DeliveryTime != domain.DeliveryTimeMorning {
			t.Errorf("unexpected delivery: %s %s", stored.DeliveryDate, stored.DeliveryTime)
		}
		if !stored.TotalAmount.Equal(decimal.NewFromInt(3000)) {
			t.Errorf("expected total 3000, got %s", stored.TotalAmount)
		}
	})

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"items":`},
		{"no items", `{"total_amount": 100, "items": []}`},
		{"zero quantity", `{"total_amount": 100, "items": [{"name": "Tulips", "quantity": 0, "price": 100}]}`},
		{"negative total", `{"total_amount": -1, "items": [{"name": "Tulips", "quantity": 1, "price": 100}]}`},
		{"bad date", `{"total_amount": 100, "delivery_date": "08.03.2026", "items": [{"name": "Tulips", "quantity": 1, "price": 100}]}`},
		{"bad delivery time", `{"total_amount": 100, "delivery_time": "night", "items": [{"name": "Tulips", "quantity": 1, "price": 100}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, f := newTestRouter(t)

			rec := do(t, router, http.MethodPost, "/orders", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected status 400, got %d: %s", rec.Code, rec.Body.String())
			}
			if f.repo.insertCalls != 0 {
				t.Errorf("expected no insert, got %d", f.repo.insertCalls)
			}
		})
	}
}

func TestHandler_Get(t *testing.T) {
	router, _ := newTestRouter(t)
	if rec := do(t, router, http.MethodPost, "/orders", roseOrderBody); rec.Code != http.StatusCreated {
		t.Fatalf("failed to create order: %d", rec.Code)
	}

	for _, target := range []string{"/orders/1", "/orders?id=1"} {
		t.Run(target, func(t *testing.T) {
			rec := do(t, router, http.MethodGet, target, "")
			if rec.Code != http.StatusOK {
				t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
			}
			var order domain.Order
			if err := json.NewDecoder(rec.Body).Decode(&order); err != nil {
				t.Fatalf("failed to decode order: %v", err)
			}
			if order.OrderNumber != "1" || len(order.Items) != 1 {
				t.Errorf("unexpected order: %+v", order)
			}
		})
	}

	t.Run("not found", func(t *testing.T) {
		if rec := do(t, router, http.MethodGet, "/orders/42", ""); rec.Code != http.StatusNotFound {
			t.Fatalf("expected status 404, got %d", rec.Code)
		}
	})

	t.Run("malformed id", func(t *testing.T) {
		if rec := do(t, router, http.MethodGet, "/orders/abc", ""); rec.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d", rec.Code)
		}
	})

	t.Run("list by status", func(t *testing.T) {
		rec := do(t, router, http.MethodGet, "/orders?status=new", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}
		var orders []domain.Order
		if err := json.NewDecoder(rec.Body).Decode(&orders); err != nil {
			t.Fatalf("failed to decode list: %v", err)
		}
		if len(orders) != 1 {
			t.Errorf("expected 1 order, got %d", len(orders))
		}
	})

	t.Run("list with unknown status", func(t *testing.T) {
		if rec := do(t, router, http.MethodGet, "/orders?status=lost", ""); rec.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d", rec.Code)
		}
	})
}

func TestHandler_HandleUpdate(t *testing.T) {
	router, _ := newTestRouter(t)
	if rec := do(t, router, http.MethodPost, "/orders", roseOrderBody); rec.Code != http.StatusCreated {
		t.Fatalf("failed to create order: %d", rec.Code)
	}

	tests := []struct {
		name   string
		method string
		target string
		body   string
		status int
	}{
		{"status via body id", http.MethodPut, "/orders", `{"id": 1, "status": "processing"}`, http.StatusOK},
		{"notes via path id", http.MethodPatch, "/orders/1", `{"notes": "leave at reception"}`, http.StatusOK},
		{"no fields", http.MethodPut, "/orders", `{"id": 1}`, http.StatusBadRequest},
		{"missing id", http.MethodPut, "/orders", `{"status": "shipped"}`, http.StatusBadRequest},
		{"unknown status", http.MethodPut, "/orders", `{"id": 1, "status": "lost"}`, http.StatusBadRequest},
		{"unknown order", http.MethodPut, "/orders", `{"id": 77, "status": "shipped"}`, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, router, tt.method, tt.target, tt.body)
			if rec.Code != tt.status {
				t.Fatalf("expected status %d, got %d: %s", tt.status, rec.Code, rec.Body.String())
			}
		})
	}

	rec := do(t, router, http.MethodPut, "/orders", `{"id": 1, "status": "delivered"}`)
	var res UpdateResult
	if err := json.NewDecoder(rec.Body).Decode(&res); err != nil {
		t.Fatalf("failed to decode update result: %v", err)
	}
	if res.ID != 1 || res.OrderNumber != "1" || res.Status != domain.OrderStatusDelivered {
		t.Errorf("unexpected update result: %+v", res)
	}
}

func TestHandler_HandleDelete(t *testing.T) {
	router, _ := newTestRouter(t)
	for i := 0; i < 2; i++ {
		if rec := do(t, router, http.MethodPost, "/orders", roseOrderBody); rec.Code != http.StatusCreated {
			t.Fatalf("failed to create order: %d", rec.Code)
		}
	}

	if rec := do(t, router, http.MethodDelete, "/orders?id=1", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if rec := do(t, router, http.MethodDelete, "/orders/2", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if rec := do(t, router, http.MethodDelete, "/orders/2", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
	if rec := do(t, router, http.MethodDelete, "/orders", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}
