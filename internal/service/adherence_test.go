package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/castlemilk/pfinance/insights/internal/domain"
	"github.com/castlemilk/pfinance/insights/internal/store"
)

func TestClassifyAdherence(t *testing.T) {
	tests := []struct {
		pct  float64
		want domain.AdherenceLevel
	}{
		{0, domain.AdherenceExcellent},
		{50, domain.AdherenceExcellent},
		{50.01, domain.AdherenceGood},
		{75, domain.AdherenceGood},
		{75.01, domain.AdherenceWarning},
		{90, domain.AdherenceWarning},
		{90.01, domain.AdherenceCritical},
		{100, domain.AdherenceCritical},
		{100.01, domain.AdherenceExceeded},
		{250, domain.AdherenceExceeded},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyAdherence(tt.pct), "pct %v", tt.pct)
	}
}

func TestClassifyTrend(t *testing.T) {
	tests := []struct {
		name      string
		spent     string
		lastMonth string
		trend     domain.SpendingTrend
		change    float64
	}{
		{"no spend at all", "0", "0", domain.TrendNoData, 0},
		{"new spend saturates", "10", "0", domain.TrendIncreased, 100},
		{"above five percent", "106", "100", domain.TrendIncreased, 6},
		{"five percent is stable", "105", "100", domain.TrendStable, 5},
		{"drop below five percent", "94", "100", domain.TrendDecreased, -6},
		{"dropped to zero", "0", "50", domain.TrendDecreased, -100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trend, change := ClassifyTrend(dec(tt.spent), dec(tt.lastMonth))
			assert.Equal(t, tt.trend, trend)
			assert.InDelta(t, tt.change, change, 0.0001)
		})
	}
}

func TestCategoryAdherence_Boundaries(t *testing.T) {
	period := CurrentPeriod(date(2026, 4, 1), testNow)
	limit := &domain.Limit{AccountID: 10, Category: "DINING", Amount: dec("100"), IsActive: true, RenewsAt: date(2026, 4, 1)}

	tests := []struct {
		spent     string
		pct       float64
		level     domain.AdherenceLevel
		remaining string
	}{
		{"40", 40, domain.AdherenceExcellent, "60"},
		{"75", 75, domain.AdherenceGood, "25"},
		{"75.01", 75.01, domain.AdherenceWarning, "24.99"},
		{"85", 85, domain.AdherenceWarning, "15"},
		{"150", 150, domain.AdherenceExceeded, "0"},
	}
	for _, tt := range tests {
		t.Run(tt.spent, func(t *testing.T) {
			c := categoryAdherence(limit, period, dec(tt.spent), dec("0"))
			assert.InDelta(t, tt.pct, c.PercentageUsed, 0.0001)
			assert.Equal(t, tt.level, c.AdherenceLevel)
			assert.Equal(t, tt.remaining, c.RemainingAmount.String())
			assert.GreaterOrEqual(t, c.PercentageUsed, 0.0)
			assert.False(t, c.RemainingAmount.IsNegative())
		})
	}

	zeroBudget := &domain.Limit{Category: "DINING", Amount: dec("0"), IsActive: true}
	c := categoryAdherence(zeroBudget, period, dec("12"), dec("0"))
	assert.Equal(t, 0.0, c.PercentageUsed)
	assert.Equal(t, domain.AdherenceExcellent, c.AdherenceLevel)
}

func TestAdherenceService_CheckBudgetAdherence(t *testing.T) {
	ctx := context.Background()
	s := seedStore(t)
	addLimit(t, s, 10, "DINING", "100", date(2026, 4, 1))
	addLimit(t, s, 11, "GROCERIES", "200", date(2026, 1, 20))

	// DINING on account 10, period Apr 1 - today.
	addTx(t, s, debit(10, 100, "25", date(2026, 4, 2)))
	addTx(t, s, debit(10, 100, "-15", date(2026, 4, 14)))
	addTx(t, s, domain.Transaction{DestinationAccountID: 10, Amount: dec("30"), Type: domain.TransactionCredit, MCCID: 100, CreatedAt: date(2026, 4, 3)})
	addTx(t, s, debit(10, 101, "70", date(2026, 4, 3)))
	// Last month's window is Mar 1 - Mar 15.
	addTx(t, s, debit(10, 100, "20", date(2026, 3, 10)))
	addTx(t, s, debit(10, 100, "99", date(2026, 3, 20)))

	// GROCERIES on account 11 rolls to the Mar 20 - Apr 19 period.
	addTx(t, s, debit(11, 101, "180", date(2026, 3, 25)))

	svc := NewAdherenceService(testLog, s, fixedClock(testNow))
	got, err := svc.CheckBudgetAdherence(ctx, 1)
	require.NoError(t, err)

	assert.Equal(t, 2, got.AccountsChecked)
	require.Len(t, got.CategoryAdherences, 2)

	dining := got.CategoryAdherences[0]
	assert.Equal(t, "DINING", dining.Category)
	assert.Equal(t, "40", dining.SpentAmount.String())
	assert.Equal(t, "20", dining.LastMonthSpentAmount.String())
	assert.InDelta(t, 40.0, dining.PercentageUsed, 0.0001)
	assert.Equal(t, domain.AdherenceExcellent, dining.AdherenceLevel)
	assert.Equal(t, "60", dining.RemainingAmount.String())
	assert.Equal(t, domain.TrendIncreased, dining.SpendingTrend)
	assert.Equal(t, "20", dining.SpendingChange.String())
	assert.InDelta(t, 100.0, dining.SpendingChangePercentage, 0.0001)
	assert.Equal(t, date(2026, 4, 1), dining.PeriodStart)
	assert.Equal(t, date(2026, 4, 15), dining.PeriodEnd)
	assert.Equal(t, 30, dining.DaysInPeriod)
	assert.True(t, dining.IsActivePeriod)

	groceries := got.CategoryAdherences[1]
	assert.Equal(t, "GROCERIES", groceries.Category)
	assert.Equal(t, date(2026, 3, 20), groceries.PeriodStart)
	assert.Equal(t, "180", groceries.SpentAmount.String())
	assert.Equal(t, domain.AdherenceWarning, groceries.AdherenceLevel)
	assert.Equal(t, domain.TrendIncreased, groceries.SpendingTrend)

	assert.Equal(t, "300", got.TotalBudget.String())
	assert.Equal(t, "220", got.TotalSpent.String())
	// 220 / 300 = 73.33% overall, from the sums.
	assert.Equal(t, domain.AdherenceGood, got.OverallAdherence)
}

func TestAdherenceService_SkipsInactiveAndFutureLimits(t *testing.T) {
	ctx := context.Background()
	s := seedStore(t)
	addLimit(t, s, 10, "SHOPPING", "50", date(2026, 5, 1))
	inactive := addLimit(t, s, 10, "DINING", "100", date(2026, 4, 1))
	require.NoError(t, s.DeactivateLimit(ctx, inactive.ID))
	addTx(t, s, debit(10, 100, "500", date(2026, 4, 2)))

	svc := NewAdherenceService(testLog, s, fixedClock(testNow))
	got, err := svc.CheckBudgetAdherence(ctx, 1)
	require.NoError(t, err)

	assert.Empty(t, got.CategoryAdherences)
	assert.Equal(t, domain.AdherenceExcellent, got.OverallAdherence)
	assert.Equal(t, 2, got.AccountsChecked)
	assert.True(t, got.TotalBudget.IsZero())
}

func TestAdherenceService_Exceeded(t *testing.T) {
	ctx := context.Background()
	s := seedStore(t)
	addLimit(t, s, 20, "DINING", "100", date(2026, 4, 1))
	addTx(t, s, debit(20, 100, "150", date(2026, 4, 10)))

	svc := NewAdherenceService(testLog, s, fixedClock(testNow))
	got, err := svc.CheckBudgetAdherence(ctx, 2)
	require.NoError(t, err)

	require.Len(t, got.CategoryAdherences, 1)
	c := got.CategoryAdherences[0]
	assert.Equal(t, domain.AdherenceExceeded, c.AdherenceLevel)
	assert.Equal(t, "0", c.RemainingAmount.String())
	assert.Equal(t, domain.AdherenceExceeded, got.OverallAdherence)
}

func TestAdherenceService_NoAccounts(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockStore := store.NewMockStore(ctrl)
	mockStore.EXPECT().ListAccounts(gomock.Any(), int64(5)).Return(nil, nil)

	svc := NewAdherenceService(testLog, mockStore, fixedClock(testNow))
	got, err := svc.CheckBudgetAdherence(context.Background(), 5)
	require.NoError(t, err)

	assert.Equal(t, domain.AdherenceExcellent, got.OverallAdherence)
	assert.Equal(t, 0, got.AccountsChecked)
	assert.NotNil(t, got.CategoryAdherences)
	assert.Empty(t, got.CategoryAdherences)
	assert.True(t, got.TotalSpent.IsZero())
}

func TestAdherenceService_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("invalid user", func(t *testing.T) {
		svc := NewAdherenceService(testLog, seedStore(t), fixedClock(testNow))
		_, err := svc.CheckBudgetAdherence(ctx, 0)
		assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	})

	t.Run("store failure surfaces", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockStore := store.NewMockStore(ctrl)
		boom := domain.Persistence("list accounts", errors.New("unavailable"))
		mockStore.EXPECT().ListAccounts(gomock.Any(), int64(1)).Return(nil, boom)

		svc := NewAdherenceService(testLog, mockStore, fixedClock(testNow))
		_, err := svc.CheckBudgetAdherence(ctx, 1)
		assert.ErrorIs(t, err, domain.ErrPersistence)
	})
}

func TestAdherenceService_CheckAccountBudgetAdherence(t *testing.T) {
	ctx := context.Background()
	s := seedStore(t)
	addLimit(t, s, 10, "DINING", "100", date(2026, 4, 1))
	addTx(t, s, debit(10, 100, "95", date(2026, 4, 3)))

	svc := NewAdherenceService(testLog, s, fixedClock(testNow))

	got, err := svc.CheckAccountBudgetAdherence(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, got.AccountsChecked)
	require.Len(t, got.CategoryAdherences, 1)
	assert.Equal(t, domain.AdherenceCritical, got.CategoryAdherences[0].AdherenceLevel)

	_, err = svc.CheckAccountBudgetAdherence(ctx, 1, 20)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = svc.CheckAccountBudgetAdherence(ctx, 1, 99)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.CheckAccountBudgetAdherence(ctx, 1, -1)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestAdherenceService_SpendingTrends(t *testing.T) {
	ctx := context.Background()
	s := seedStore(t)
	addLimit(t, s, 10, "DINING", "100", date(2026, 4, 1))
	addTx(t, s, debit(10, 100, "50", date(2026, 4, 3)))
	addTx(t, s, debit(10, 100, "50", date(2026, 3, 3)))

	svc := NewAdherenceService(testLog, s, fixedClock(testNow))
	trends, err := svc.SpendingTrends(ctx, 1)
	require.NoError(t, err)

	require.Len(t, trends, 1)
	assert.Equal(t, "DINING", trends[0].Category)
	assert.Equal(t, "Stable", trends[0].Trend)
	assert.Equal(t, "Excellent", trends[0].AdherenceLevel)
	assert.Equal(t, "100", trends[0].BudgetAmount.String())
	assert.Equal(t, "0", trends[0].SpendingChange.String())
}
