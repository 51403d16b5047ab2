package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/castlemilk/pfinance/insights/internal/domain"
	"github.com/castlemilk/pfinance/insights/internal/store"
)

// AdherenceService measures spending against category limits.
type AdherenceService struct {
	store store.Store
	now   func() time.Time
	log   *slog.Logger
}

// NewAdherenceService creates an AdherenceService. now may be nil.
func NewAdherenceService(log *slog.Logger, s store.Store, now func() time.Time) *AdherenceService {
	if now == nil {
		now = time.Now
	}
	return &AdherenceService{store: s, now: now, log: log.With("service", "adherence")}
}

// CheckBudgetAdherence evaluates every active limit in its current period
// across all of the user's accounts.
func (s *AdherenceService) CheckBudgetAdherence(ctx context.Context, userID int64) (*domain.BudgetAdherence, error) {
	if userID <= 0 {
		return nil, domain.NewValidationError("user_id", "must be positive")
	}

	accounts, err := s.store.ListAccounts(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	if len(accounts) == 0 {
		return summarize(nil, 0), nil
	}

	today := s.now()
	var categories []domain.CategoryAdherence
	for _, account := range accounts {
		rows, err := s.accountAdherence(ctx, account.ID, today)
		if err != nil {
			return nil, err
		}
		categories = append(categories, rows...)
	}

	result := summarize(categories, len(accounts))
	s.log.DebugContext(ctx, "budget adherence checked",
		slog.Int64("user_id", userID),
		slog.Int("accounts", len(accounts)),
		slog.Int("categories", len(categories)),
		slog.String("overall", string(result.OverallAdherence)))
	return result, nil
}

// CheckAccountBudgetAdherence evaluates one account owned by the user.
func (s *AdherenceService) CheckAccountBudgetAdherence(ctx context.Context, userID, accountID int64) (*domain.BudgetAdherence, error) {
	if err := validateIDs(userID, accountID); err != nil {
		return nil, err
	}
	if _, err := ownedAccount(ctx, s.store, userID, accountID); err != nil {
		return nil, err
	}

	rows, err := s.accountAdherence(ctx, accountID, s.now())
	if err != nil {
		return nil, err
	}
	return summarize(rows, 1), nil
}

// SpendingTrends condenses adherence into per-category trend rows.
func (s *AdherenceService) SpendingTrends(ctx context.Context, userID int64) ([]domain.CategoryTrend, error) {
	adherence, err := s.CheckBudgetAdherence(ctx, userID)
	if err != nil {
		return nil, err
	}

	trends := make([]domain.CategoryTrend, 0, len(adherence.CategoryAdherences))
	for _, c := range adherence.CategoryAdherences {
		trends = append(trends, domain.CategoryTrend{
			Category:                 c.Category,
			CurrentSpent:             c.SpentAmount,
			LastMonthSpent:           c.LastMonthSpentAmount,
			SpendingChange:           c.SpendingChange,
			SpendingChangePercentage: c.SpendingChangePercentage,
			Trend:                    c.SpendingTrend.DisplayName(),
			BudgetAmount:             c.BudgetAmount,
			AdherenceLevel:           c.AdherenceLevel.DisplayName(),
		})
	}
	return trends, nil
}

func (s *AdherenceService) accountAdherence(ctx context.Context, accountID int64, today time.Time) ([]domain.CategoryAdherence, error) {
	limits, err := s.store.ListLimits(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("list limits for account %d: %w", accountID, err)
	}

	var rows []domain.CategoryAdherence
	for _, limit := range limits {
		if !limit.IsActive || !IsCurrentPeriod(limit.RenewsAt, today) {
			continue
		}
		period := CurrentPeriod(limit.RenewsAt, today)

		spent, err := s.spentIn(ctx, accountID, limit.Category, period)
		if err != nil {
			return nil, err
		}
		lastMonth, err := s.spentIn(ctx, accountID, limit.Category, period.PreviousMonth())
		if err != nil {
			return nil, err
		}
		rows = append(rows, categoryAdherence(limit, period, spent, lastMonth))
	}
	return rows, nil
}

func (s *AdherenceService) spentIn(ctx context.Context, accountID int64, category string, period Period) (decimal.Decimal, error) {
	start, end := period.QueryRange()
	txs, err := s.store.RangeQuery(ctx, domain.TransactionFilter{
		AccountIDs: []int64{accountID},
		SourceOnly: true,
		Category:   category,
		Start:      &start,
		End:        &end,
	})
	if err != nil {
		return decimal.Zero, fmt.Errorf("query %s spend for account %d: %w", category, accountID, err)
	}
	return sumDebits(txs), nil
}
