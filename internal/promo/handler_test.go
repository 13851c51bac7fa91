package promo

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/KostevSerg/flo-rustic-shop/internal/domain"
	"github.com/KostevSerg/flo-rustic-shop/internal/httpapi"
)

func newTestHandler(t *testing.T) (*Handler, *Service) {
	t.Helper()
	svc, _ := newTestService()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewHandler(svc, httpapi.NewValidator(), logger), svc
}

func TestHandler_HandleGet(t *testing.T) {
	handler, svc := newTestHandler(t)
	if _, err := svc.Create(context.Background(), "BOUQUET20", 20); err != nil {
		t.Fatalf("failed to seed promo: %v", err)
	}

	t.Run("lookup by code", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/promo-codes?code=bouquet20", nil)
		rec := httptest.NewRecorder()
		handler.HandleGet(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
		}
		var p domain.PromoCode
		if err := json.NewDecoder(rec.Body).Decode(&p); err != nil {
			t.Fatalf("failed to decode promo: %v", err)
		}
		if p.DiscountPercent != 20 {
			t.Errorf("expected 20%%, got %d", p.DiscountPercent)
		}
	})

	t.Run("unknown code", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/promo-codes?code=nope", nil)
		rec := httptest.NewRecorder()
		handler.HandleGet(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected status 404, got %d", rec.Code)
		}
	})

	t.Run("list", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/promo-codes", nil)
		rec := httptest.NewRecorder()
		handler.HandleGet(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}
		var codes []domain.PromoCode
		if err := json.NewDecoder(rec.Body).Decode(&codes); err != nil {
			t.Fatalf("failed to decode list: %v", err)
		}
		if len(codes) != 1 {
			t.Errorf("expected 1 code, got %d", len(codes))
		}
	})
}

func TestHandler_HandleCreate(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"created", `{"code":"summer","discount_percent":15}`, http.StatusCreated},
		{"missing code", `{"discount_percent":15}`, http.StatusBadRequest},
		{"percent out of range", `{"code":"x","discount_percent":150}`, http.StatusBadRequest},
		{"malformed", `{"code":`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, _ := newTestHandler(t)
			req := httptest.NewRequest(http.MethodPost, "/promo-codes", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			handler.HandleCreate(rec, req)

			if rec.Code != tt.status {
				t.Fatalf("expected status %d, got %d: %s", tt.status, rec.Code, rec.Body.String())
			}
		})
	}

	t.Run("duplicate conflicts", func(t *testing.T) {
		handler, _ := newTestHandler(t)
		for i, want := range []int{http.StatusCreated, http.StatusConflict} {
			req := httptest.NewRequest(http.MethodPost, "/promo-codes", strings.NewReader(`{"code":"dup","discount_percent":5}`))
			rec := httptest.NewRecorder()
			handler.HandleCreate(rec, req)
			if rec.Code != want {
				t.Fatalf("attempt %d: expected status %d, got %d", i+1, want, rec.Code)
			}
		}
	})
}

func TestHandler_HandleDeactivate(t *testing.T) {
	handler, svc := newTestHandler(t)
	p, err := svc.Create(context.Background(), "OLD", 5)
	if err != nil {
		t.Fatalf("failed to seed promo: %v", err)
	}

	t.Run("by body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/promo-codes", strings.NewReader(`{"id":1}`))
		rec := httptest.NewRecorder()
		handler.HandleDeactivate(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if _, err := svc.Resolve(context.Background(), p.Code); err == nil {
			t.Error("expected code to be inactive")
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/promo-codes?id=42", nil)
		rec := httptest.NewRecorder()
		handler.HandleDeactivate(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected status 404, got %d", rec.Code)
		}
	})

	t.Run("missing id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/promo-codes", strings.NewReader(`{}`))
		rec := httptest.NewRecorder()
		handler.HandleDeactivate(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d", rec.Code)
		}
	})
}
