package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/castlemilk/pfinance/insights/internal/domain"
	"github.com/castlemilk/pfinance/insights/internal/store"
)

// AccountService exposes a user's accounts and push registration.
type AccountService struct {
	store store.Store
	log   *slog.Logger
}

// NewAccountService creates an AccountService.
func NewAccountService(log *slog.Logger, s store.Store) *AccountService {
	return &AccountService{store: s, log: log.With("service", "account")}
}

// ListAccounts returns every account of the user.
func (s *AccountService) ListAccounts(ctx context.Context, userID int64) ([]*domain.Account, error) {
	if err := validateIDs(userID); err != nil {
		return nil, err
	}
	accounts, err := s.store.ListAccounts(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return accounts, nil
}

// TotalBalance sums the balances of the user's accounts.
func (s *AccountService) TotalBalance(ctx context.Context, userID int64) (decimal.Decimal, error) {
	accounts, err := s.ListAccounts(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}
	if len(accounts) == 0 {
		return decimal.Zero, fmt.Errorf("accounts for user %d: %w", userID, domain.ErrNotFound)
	}

	total := decimal.Zero
	for _, a := range accounts {
		total = total.Add(a.Balance)
	}
	return total, nil
}

// RegisterPushToken stores the device token used for budget alerts.
func (s *AccountService) RegisterPushToken(ctx context.Context, userID int64, token string) error {
	if err := validateIDs(userID); err != nil {
		return err
	}
	if token == "" {
		return domain.NewValidationError("token", "must not be empty")
	}
	if err := s.store.UpdatePushToken(ctx, userID, token); err != nil {
		return fmt.Errorf("register push token: %w", err)
	}
	s.log.InfoContext(ctx, "push token registered", slog.Int64("user_id", userID))
	return nil
}

// UnregisterPushToken clears the user's device token.
func (s *AccountService) UnregisterPushToken(ctx context.Context, userID int64) error {
	if err := validateIDs(userID); err != nil {
		return err
	}
	if err := s.store.UpdatePushToken(ctx, userID, ""); err != nil {
		return fmt.Errorf("unregister push token: %w", err)
	}
	s.log.InfoContext(ctx, "push token removed", slog.Int64("user_id", userID))
	return nil
}

// validateIDs requires every id to be positive. Names follow argument order.
func validateIDs(ids ...int64) error {
	names := []string{"user_id", "account_id", "limit_id"}
	var errs []domain.FieldError
	for i, id := range ids {
		if id > 0 {
			continue
		}
		name := "id"
		if i < len(names) {
			name = names[i]
		}
		errs = append(errs, domain.FieldError{Field: name, Message: "must be positive"})
	}
	return domain.NewValidationErrors(errs)
}

// ownedAccount loads accountID and checks it belongs to userID.
func ownedAccount(ctx context.Context, s store.Store, userID, accountID int64) (*domain.Account, error) {
	account, err := s.GetAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	if !account.OwnedBy(userID) {
		return nil, fmt.Errorf("account %d: %w", accountID, domain.ErrForbidden)
	}
	return account, nil
}
