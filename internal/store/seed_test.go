package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/castlemilk/pfinance/insights/internal/domain"
)

func TestSeedDemo(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 4, 15, 12, 0, 0, 0, time.UTC)
	s := NewMemoryStore()

	summary, err := SeedDemo(ctx, s, "local-dev-user", now)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Accounts)
	assert.Equal(t, 7, summary.MCCs)
	assert.Equal(t, 7, summary.Offers)
	assert.Equal(t, 4, summary.Limits)
	assert.Greater(t, summary.Transactions, 12*15)

	user, err := s.GetUserByExternalID(ctx, "local-dev-user")
	require.NoError(t, err)
	assert.Equal(t, summary.UserID, user.ID)

	accounts, err := s.ListAccounts(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, accounts, 2)

	var main *domain.Account
	for _, a := range accounts {
		if a.Type == domain.AccountTypeMain {
			main = a
		}
	}
	require.NotNil(t, main)

	limits, err := s.ListLimits(ctx, main.ID)
	require.NoError(t, err)
	assert.Len(t, limits, 4)

	txs, err := s.RangeQuery(ctx, domain.TransactionFilter{AccountIDs: []int64{main.ID}})
	require.NoError(t, err)
	assert.Len(t, txs, summary.Transactions)
	for _, tx := range txs {
		assert.False(t, tx.CreatedAt.After(now), "no transaction in the future")
	}

	candidates, err := s.RecurringCandidates(ctx, main.ID, domain.DefaultCandidateQuery(), now)
	require.NoError(t, err)
	var streaming bool
	for _, c := range candidates {
		mcc, err := s.GetMCC(ctx, c.MCCID)
		require.NoError(t, err)
		if mcc.SubCategory == "Streaming" {
			streaming = true
		}
	}
	assert.True(t, streaming, "monthly streaming subscription is a recurring candidate")
}

func TestSeedDemo_Deterministic(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 4, 15, 12, 0, 0, 0, time.UTC)

	first, err := SeedDemo(ctx, NewMemoryStore(), "a", now)
	require.NoError(t, err)
	second, err := SeedDemo(ctx, NewMemoryStore(), "a", now)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
