package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/castlemilk/pfinance/insights/internal/config"
	"github.com/castlemilk/pfinance/insights/internal/domain"
	"github.com/castlemilk/pfinance/insights/internal/store"
)

func TestCheckIntervalRegularity(t *testing.T) {
	tests := []struct {
		name  string
		dates []time.Time
		want  bool
	}{
		{"no dates", nil, false},
		{"single payment has no interval", []time.Time{date(2026, 1, 1)}, false},
		{"two payments", []time.Time{date(2026, 1, 1), date(2026, 3, 1)}, true},
		{"monthly, unsorted", []time.Time{date(2026, 3, 3), date(2026, 1, 1), date(2026, 2, 1)}, true},
		{"drift within five days", []time.Time{date(2026, 1, 1), date(2026, 1, 28), date(2026, 3, 3)}, true},
		{"one long gap", []time.Time{date(2026, 1, 1), date(2026, 2, 1), date(2026, 4, 15)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CheckIntervalRegularity(tt.dates))
		})
	}
}

func TestDetectSkippedPayments(t *testing.T) {
	got := DetectSkippedPayments([]time.Time{date(2026, 2, 15), date(2025, 11, 1), date(2025, 12, 1)})
	assert.Equal(t, []time.Time{date(2025, 12, 31)}, got)

	assert.Empty(t, DetectSkippedPayments([]time.Time{date(2026, 1, 1), date(2026, 2, 1)}))
	assert.NotNil(t, DetectSkippedPayments(nil))
}

func TestConfidenceScore(t *testing.T) {
	monthly := []time.Time{date(2026, 4, 10), date(2026, 3, 11), date(2026, 2, 9), date(2026, 1, 10)}

	t.Run("four regular recent payments", func(t *testing.T) {
		c := &domain.RecurringCandidate{TxCount: 4, TransactionDates: monthly, LastDetected: monthly[0]}
		// (0.7 + 0.8 + 1.0) / 3 = 0.833 truncates to 0.8.
		assert.Equal(t, 0.8, ConfidenceScore(c, testNow))
	})

	t.Run("exact thirds are not lost to float error", func(t *testing.T) {
		irregular := []time.Time{date(2025, 11, 1), date(2025, 12, 1), date(2026, 2, 15), date(2026, 2, 20), date(2026, 2, 25)}
		c := &domain.RecurringCandidate{TxCount: 5, TransactionDates: irregular, LastDetected: date(2026, 2, 25)}
		// (0.3 + 1.0 + 0.5) / 3 = 0.6 exactly.
		assert.Equal(t, 0.6, ConfidenceScore(c, testNow))
	})

	t.Run("truncates rather than rounds", func(t *testing.T) {
		c := &domain.RecurringCandidate{TxCount: 2, TransactionDates: monthly[:2], LastDetected: date(2026, 1, 1)}
		// (0.7 + 0.4 + 0.5) / 3 = 0.533.
		assert.Equal(t, 0.5, ConfidenceScore(c, testNow))
	})

	t.Run("stays within the unit interval", func(t *testing.T) {
		for count := 0; count <= 12; count++ {
			for _, last := range []time.Time{testNow, date(2025, 1, 1)} {
				c := &domain.RecurringCandidate{TxCount: count, TransactionDates: monthly, LastDetected: last}
				score := ConfidenceScore(c, testNow)
				assert.GreaterOrEqual(t, score, 0.0)
				assert.LessOrEqual(t, score, 1.0)
			}
		}
	})
}

func seedSubscription(t *testing.T, s *store.MemoryStore, account, mcc int64, amount string, dates ...time.Time) {
	t.Helper()
	for _, d := range dates {
		addTx(t, s, debit(account, mcc, amount, d))
	}
}

func TestRecurringService_DetectRecurringPayments(t *testing.T) {
	ctx := context.Background()
	s := seedStore(t)

	// Monthly streaming subscription.
	seedSubscription(t, s, 10, 102, "9.990",
		date(2026, 1, 10), date(2026, 2, 9), date(2026, 3, 11), date(2026, 4, 10))
	// Irregular and stale: scores 0.4 and is filtered out.
	seedSubscription(t, s, 10, 100, "25",
		date(2025, 11, 1), date(2025, 12, 1), date(2026, 2, 15))
	// Regular but with an MCC nobody can resolve.
	seedSubscription(t, s, 10, 999, "40",
		date(2026, 1, 12), date(2026, 2, 12), date(2026, 3, 12), date(2026, 4, 12))
	// Outside the six month window.
	seedSubscription(t, s, 10, 101, "60",
		date(2025, 6, 1), date(2025, 7, 1), date(2025, 8, 1))

	svc := NewRecurringService(testLog, s, DetectOptionsFromConfig(config.RecurringConfig{
		MonthsBack: 6, AmountBand: 10, MinMonths: 2, MinTxCount: 3, MinConfidence: 0.6,
	}), fixedClock(testNow))

	got, err := svc.DetectRecurringPayments(ctx, 1, 10, svc.Defaults())
	require.NoError(t, err)
	require.Len(t, got, 1)

	p := got[0]
	assert.Equal(t, int64(10), p.AccountID)
	assert.Equal(t, domain.MCCInfo{Category: "SHOPPING", SubCategory: "Clothing"}, p.MCC)
	assert.Equal(t, "10", p.AmountGroup.String())
	assert.Equal(t, 4, p.TransactionCount)
	assert.Equal(t, 4, p.MonthsWithPayments)
	assert.True(t, p.DetectedIntervalRegular)
	assert.Equal(t, 0.8, p.ConfidenceScore)
	assert.Equal(t, "9.99", p.LatestAmount.String())
	assert.Equal(t, date(2026, 4, 10), p.LastDetected)
	assert.Empty(t, p.SkippedPaymentEstimate)
	require.Len(t, p.Amounts, 4)

	lenient := svc.Defaults()
	lenient.MinConfidence = 0.4
	got, err = svc.DetectRecurringPayments(ctx, 1, 10, lenient)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "DINING", got[1].MCC.Category)
	assert.Equal(t, []time.Time{date(2025, 12, 31)}, got[1].SkippedPaymentEstimate)
}

func TestRecurringService_Errors(t *testing.T) {
	ctx := context.Background()
	svc := NewRecurringService(testLog, seedStore(t), DetectOptionsFromConfig(config.RecurringConfig{
		MonthsBack: 6, AmountBand: 10, MinMonths: 2, MinTxCount: 3, MinConfidence: 0.6,
	}), fixedClock(testNow))

	_, err := svc.DetectRecurringPayments(ctx, 1, 99, svc.Defaults())
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.DetectRecurringPayments(ctx, 1, 20, svc.Defaults())
	assert.ErrorIs(t, err, domain.ErrForbidden)

	bad := svc.Defaults()
	bad.MinConfidence = 1.5
	_, err = svc.DetectRecurringPayments(ctx, 1, 10, bad)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestRecurringService_PassesQueryToStore(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockStore := store.NewMockStore(ctrl)

	opts := DetectOptions{
		CandidateQuery: domain.CandidateQuery{MinMonths: 3, MinTxCount: 4, MonthsBack: 12, AmountBand: 5},
		MinConfidence:  0.7,
	}
	mockStore.EXPECT().GetAccount(gomock.Any(), int64(10)).Return(&domain.Account{ID: 10, UserID: 1}, nil)
	mockStore.EXPECT().RecurringCandidates(gomock.Any(), int64(10), opts.CandidateQuery, testNow).Return(nil, nil)
	mockStore.EXPECT().ListMCCs(gomock.Any(), []int64{}).Return(map[int64]*domain.MCC{}, nil)

	svc := NewRecurringService(testLog, mockStore, opts, fixedClock(testNow))
	got, err := svc.DetectRecurringPayments(context.Background(), 1, 10, opts)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotNil(t, got)
}
