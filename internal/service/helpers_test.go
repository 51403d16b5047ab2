package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/castlemilk/pfinance/insights/internal/domain"
	"github.com/castlemilk/pfinance/insights/internal/logging"
	"github.com/castlemilk/pfinance/insights/internal/store"
)

// testNow is Wednesday 15 April 2026, mid-morning.
var testNow = time.Date(2026, 4, 15, 10, 30, 0, 0, time.UTC)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

var testLog = logging.Discard()

// seedStore builds a memory store with two users:
//
//	user 1: accounts 10 (main) and 11 (savings), push token "tok-1"
//	user 2: account 20
//
// plus DINING (100), GROCERIES (101) and SHOPPING (102) MCCs with offers.
func seedStore(t *testing.T) *store.MemoryStore {
	t.Helper()
	ctx := context.Background()
	s := store.NewMemoryStore()

	require.NoError(t, s.CreateUser(ctx, &domain.User{ID: 1, ExternalID: "uid-1", Username: "alice", PushToken: "tok-1"}))
	require.NoError(t, s.CreateUser(ctx, &domain.User{ID: 2, ExternalID: "uid-2", Username: "bob"}))
	require.NoError(t, s.CreateAccount(ctx, &domain.Account{ID: 10, UserID: 1, Type: domain.AccountTypeMain, Balance: dec("1500.250")}))
	require.NoError(t, s.CreateAccount(ctx, &domain.Account{ID: 11, UserID: 1, Type: domain.AccountTypeSavings, Balance: dec("4000")}))
	require.NoError(t, s.CreateAccount(ctx, &domain.Account{ID: 20, UserID: 2, Type: domain.AccountTypeMain, Balance: dec("90")}))

	require.NoError(t, s.CreateMCC(ctx, &domain.MCC{ID: 100, Code: "5812", Category: "DINING", SubCategory: "Restaurants"}))
	require.NoError(t, s.CreateMCC(ctx, &domain.MCC{ID: 101, Code: "5411", Category: "GROCERIES", SubCategory: "Supermarkets"}))
	require.NoError(t, s.CreateMCC(ctx, &domain.MCC{ID: 102, Code: "5651", Category: "SHOPPING", SubCategory: "Clothing"}))

	require.NoError(t, s.CreateOffer(ctx, &domain.Offer{ID: 200, MCCID: 100, Description: "10% off at partner restaurants"}))
	require.NoError(t, s.CreateOffer(ctx, &domain.Offer{ID: 201, MCCID: 101, Description: "5% cashback on groceries"}))
	return s
}

func addTx(t *testing.T, s *store.MemoryStore, tx domain.Transaction) {
	t.Helper()
	require.NoError(t, s.CreateTransaction(context.Background(), &tx))
}

func debit(account, mcc int64, amount string, at time.Time) domain.Transaction {
	return domain.Transaction{
		SourceAccountID: account,
		Amount:          dec(amount),
		Type:            domain.TransactionDebit,
		MCCID:           mcc,
		CreatedAt:       at,
	}
}

func addLimit(t *testing.T, s *store.MemoryStore, account int64, category, amount string, renewsAt time.Time) *domain.Limit {
	t.Helper()
	l := &domain.Limit{
		AccountID: account,
		Category:  category,
		Amount:    dec(amount),
		IsActive:  true,
		CreatedAt: renewsAt,
		RenewsAt:  renewsAt,
	}
	require.NoError(t, s.UpsertLimit(context.Background(), l))
	return l
}
