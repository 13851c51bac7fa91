package promo

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/KostevSerg/flo-rustic-shop/internal/domain"
)

type Repository interface {
	FindActive(ctx context.Context, code string) (*domain.PromoCode, error)
	List(ctx context.Context) ([]domain.PromoCode, error)
	Create(ctx context.Context, code string, discountPercent int) (*domain.PromoCode, error)
	Deactivate(ctx context.Context, id int64) error
}

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Normalize returns the canonical stored form of a promo code.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Resolve finds an active promo code, ignoring case and surrounding spaces.
// It returns domain.ErrNotFound when no active code matches.
func (s *Service) Resolve(ctx context.Context, code string) (*domain.PromoCode, error) {
	code = Normalize(code)
	if code == "" {
		return nil, fmt.Errorf("%w: empty promo code", domain.ErrNotFound)
	}
	return s.repo.FindActive(ctx, code)
}

func (s *Service) List(ctx context.Context) ([]domain.PromoCode, error) {
	return s.repo.List(ctx)
}

func (s *Service) Create(ctx context.Context, code string, discountPercent int) (*domain.PromoCode, error) {
	code = Normalize(code)
	if code == "" {
		return nil, fmt.Errorf("%w: code is required", domain.ErrInvalidArgument)
	}
	if discountPercent < 1 || discountPercent > 100 {
		return nil, fmt.Errorf("%w: discount_percent must be between 1 and 100", domain.ErrInvalidArgument)
	}

	p, err := s.repo.Create(ctx, code, discountPercent)
	if err != nil {
		return nil, err
	}

	s.logger.Info("promo code created", "promo_code_id", p.ID, "code", p.Code, "discount_percent", p.DiscountPercent)
	return p, nil
}

func (s *Service) Deactivate(ctx context.Context, id int64) error {
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return err
	}
	s.logger.Info("promo code deactivated", "promo_code_id", id)
	return nil
}
