package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/castlemilk/pfinance/insights/internal/domain"
	"github.com/castlemilk/pfinance/insights/internal/store"
)

// OfferService looks up partner offers.
type OfferService struct {
	store store.Store
	log   *slog.Logger
}

// NewOfferService creates an OfferService.
func NewOfferService(log *slog.Logger, s store.Store) *OfferService {
	return &OfferService{store: s, log: log.With("service", "offer")}
}

// OffersByCategory returns the offers attached to an MCC category.
func (s *OfferService) OffersByCategory(ctx context.Context, category string) ([]*domain.Offer, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return nil, domain.NewValidationError("category", "required")
	}
	offers, err := s.store.OffersByCategories(ctx, []string{category})
	if err != nil {
		return nil, fmt.Errorf("offers for %s: %w", category, err)
	}
	if offers == nil {
		offers = []*domain.Offer{}
	}
	return offers, nil
}
