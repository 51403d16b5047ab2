package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/castlemilk/pfinance/insights/internal/domain"
	"github.com/castlemilk/pfinance/insights/internal/store"
)

// LimitInput carries the fields of a create or update.
type LimitInput struct {
	UserID    int64
	AccountID int64
	Category  string
	Amount    decimal.Decimal
	// RenewsAt defaults to the first day of next month.
	RenewsAt *time.Time
}

// Validate checks the input fields.
func (in LimitInput) Validate() error {
	var errs []domain.FieldError
	if in.UserID <= 0 {
		errs = append(errs, domain.FieldError{Field: "user_id", Message: "must be positive"})
	}
	if in.AccountID <= 0 {
		errs = append(errs, domain.FieldError{Field: "account_id", Message: "must be positive"})
	}
	if strings.TrimSpace(in.Category) == "" {
		errs = append(errs, domain.FieldError{Field: "category", Message: "required"})
	}
	if in.Amount.IsNegative() {
		errs = append(errs, domain.FieldError{Field: "amount", Message: "must not be negative"})
	}
	return domain.NewValidationErrors(errs)
}

// LimitService manages category limits.
type LimitService struct {
	store store.Store
	now   func() time.Time
	log   *slog.Logger
}

// NewLimitService creates a LimitService. now may be nil.
func NewLimitService(log *slog.Logger, s store.Store, now func() time.Time) *LimitService {
	if now == nil {
		now = time.Now
	}
	return &LimitService{store: s, now: now, log: log.With("service", "limit")}
}

// SetLimit creates the account's limit for a category or replaces the
// existing one, reactivating it if needed.
func (s *LimitService) SetLimit(ctx context.Context, in LimitInput) (*domain.Limit, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if _, err := ownedAccount(ctx, s.store, in.UserID, in.AccountID); err != nil {
		return nil, err
	}

	limit, err := s.store.FindLimitByCategory(ctx, in.AccountID, in.Category)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		limit = &domain.Limit{
			AccountID: in.AccountID,
			Category:  in.Category,
			CreatedAt: s.now(),
		}
	case err != nil:
		return nil, fmt.Errorf("find limit: %w", err)
	}

	s.apply(limit, in)
	if err := s.store.UpsertLimit(ctx, limit); err != nil {
		return nil, fmt.Errorf("save limit: %w", err)
	}

	s.log.InfoContext(ctx, "limit set",
		slog.Int64("account_id", in.AccountID),
		slog.Int64("limit_id", limit.ID),
		slog.String("category", in.Category),
		slog.String("amount", in.Amount.String()))
	return limit, nil
}

// UpdateLimit rewrites a specific limit, which must belong to the account.
func (s *LimitService) UpdateLimit(ctx context.Context, limitID int64, in LimitInput) (*domain.Limit, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if limitID <= 0 {
		return nil, domain.NewValidationError("limit_id", "must be positive")
	}
	if _, err := ownedAccount(ctx, s.store, in.UserID, in.AccountID); err != nil {
		return nil, err
	}

	limit, err := s.store.GetLimit(ctx, limitID)
	if err != nil {
		return nil, fmt.Errorf("get limit: %w", err)
	}
	if limit.AccountID != in.AccountID {
		return nil, fmt.Errorf("limit %d on account %d: %w", limitID, in.AccountID, domain.ErrForbidden)
	}

	limit.Category = in.Category
	s.apply(limit, in)
	if err := s.store.UpsertLimit(ctx, limit); err != nil {
		return nil, fmt.Errorf("save limit: %w", err)
	}
	return limit, nil
}

// ListLimits returns the active limits of an owned account.
func (s *LimitService) ListLimits(ctx context.Context, userID, accountID int64) ([]*domain.Limit, error) {
	if err := validateIDs(userID, accountID); err != nil {
		return nil, err
	}
	if _, err := ownedAccount(ctx, s.store, userID, accountID); err != nil {
		return nil, err
	}

	limits, err := s.store.ListLimits(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("list limits: %w", err)
	}
	active := make([]*domain.Limit, 0, len(limits))
	for _, l := range limits {
		if l.IsActive {
			active = append(active, l)
		}
	}
	return active, nil
}

// DeactivateLimit switches off a limit on one of the user's accounts.
func (s *LimitService) DeactivateLimit(ctx context.Context, userID, limitID int64) error {
	var errs []domain.FieldError
	if userID <= 0 {
		errs = append(errs, domain.FieldError{Field: "user_id", Message: "must be positive"})
	}
	if limitID <= 0 {
		errs = append(errs, domain.FieldError{Field: "limit_id", Message: "must be positive"})
	}
	if err := domain.NewValidationErrors(errs); err != nil {
		return err
	}

	limit, err := s.store.GetLimit(ctx, limitID)
	if err != nil {
		return fmt.Errorf("get limit: %w", err)
	}
	account, err := s.store.GetAccount(ctx, limit.AccountID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("get account: %w", err)
	}
	if !account.OwnedBy(userID) {
		return fmt.Errorf("limit %d: %w", limitID, domain.ErrForbidden)
	}

	if err := s.store.DeactivateLimit(ctx, limitID); err != nil {
		return fmt.Errorf("deactivate limit: %w", err)
	}
	s.log.InfoContext(ctx, "limit deactivated",
		slog.Int64("user_id", userID),
		slog.Int64("limit_id", limitID))
	return nil
}

func (s *LimitService) apply(limit *domain.Limit, in LimitInput) {
	limit.Amount = in.Amount
	limit.IsActive = true
	if in.RenewsAt != nil {
		limit.RenewsAt = startOfDay(*in.RenewsAt)
	} else {
		limit.RenewsAt = firstOfNextMonth(s.now())
	}
}

func firstOfNextMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month()+1, 1, 0, 0, 0, 0, t.Location())
}
