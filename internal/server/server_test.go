package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/castlemilk/pfinance/insights/internal/auth"
	"github.com/castlemilk/pfinance/insights/internal/cache"
	"github.com/castlemilk/pfinance/insights/internal/domain"
	"github.com/castlemilk/pfinance/insights/internal/logging"
	"github.com/castlemilk/pfinance/insights/internal/resilience"
	"github.com/castlemilk/pfinance/insights/internal/service"
	"github.com/castlemilk/pfinance/insights/internal/store"
)

var testNow = time.Date(2026, 4, 15, 10, 30, 0, 0, time.UTC)

const uidHeader = "X-Test-Uid"

// headerAuth authenticates requests carrying uidHeader.
func headerAuth() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if uid := req.Header().Get(uidHeader); uid != "" {
				ctx = auth.WithUserClaims(ctx, &auth.UserClaims{UID: uid, Verified: true})
			}
			return next(ctx, req)
		}
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newTestServer(t *testing.T) (*httptest.Server, *store.MemoryStore) {
	t.Helper()
	ctx := context.Background()
	log := logging.Discard()
	clock := func() time.Time { return testNow }

	s := store.NewMemoryStore()
	require.NoError(t, s.CreateUser(ctx, &domain.User{ID: 1, ExternalID: "uid-1", Username: "alice"}))
	require.NoError(t, s.CreateUser(ctx, &domain.User{ID: 2, ExternalID: "uid-2", Username: "bob"}))
	require.NoError(t, s.CreateAccount(ctx, &domain.Account{ID: 10, UserID: 1, Type: domain.AccountTypeMain, Balance: dec("1500.25")}))
	require.NoError(t, s.CreateAccount(ctx, &domain.Account{ID: 11, UserID: 1, Type: domain.AccountTypeSavings, Balance: dec("4000")}))
	require.NoError(t, s.CreateAccount(ctx, &domain.Account{ID: 20, UserID: 2, Type: domain.AccountTypeMain, Balance: dec("90")}))
	require.NoError(t, s.CreateMCC(ctx, &domain.MCC{ID: 100, Code: "5812", Category: "DINING", SubCategory: "Restaurants"}))
	require.NoError(t, s.CreateOffer(ctx, &domain.Offer{ID: 200, MCCID: 100, Description: "10% off at partner restaurants"}))
	require.NoError(t, s.CreateTransaction(ctx, &domain.Transaction{
		SourceAccountID: 10,
		Amount:          dec("42"),
		Type:            domain.TransactionDebit,
		MCCID:           100,
		CreatedAt:       testNow.Add(-time.Hour),
	}))

	c := cache.New(128, cache.DefaultTTLs())
	breakers := resilience.NewRegistry(resilience.DefaultSettings(), clock, log)
	breakers.Get(resilience.OpenAIService)

	adherence := service.NewAdherenceService(log, s, clock)
	transactions := service.NewTransactionService(log, s, c, clock)
	srv := New(log, Services{
		Users:        s,
		Accounts:     service.NewAccountService(log, s),
		Limits:       service.NewLimitService(log, s, clock),
		Adherence:    adherence,
		Recurring:    service.NewRecurringService(log, s, service.DetectOptions{CandidateQuery: domain.CandidateQuery{MinMonths: 3, MinTxCount: 3, MonthsBack: 6, AmountBand: 5}, MinConfidence: 0.5}, clock),
		Transactions: transactions,
		Offers:       service.NewOfferService(log, s),
		Recommendations: service.NewRecommendationService(log, service.RecommendationConfig{
			Store:        s,
			Cache:        c,
			Breakers:     breakers,
			Adherence:    adherence,
			Transactions: transactions,
			Now:          clock,
		}),
		Breakers: breakers,
	})

	ts := httptest.NewServer(srv.Handler(LoggingInterceptor(log), headerAuth()))
	t.Cleanup(ts.Close)
	return ts, s
}

type rpcResult struct {
	status int
	header http.Header
	body   []byte
}

func call(t *testing.T, ts *httptest.Server, procedure, uid string, req any) rpcResult {
	t.Helper()
	payload, err := json.Marshal(req)
	require.NoError(t, err)

	httpReq, err := http.NewRequest(http.MethodPost, ts.URL+procedure, bytes.NewReader(payload))
	require.NoError(t, err)
	httpReq.Header.Set("Content-Type", "application/json")
	if uid != "" {
		httpReq.Header.Set(uidHeader, uid)
	}

	res, err := ts.Client().Do(httpReq)
	require.NoError(t, err)
	defer res.Body.Close()

	var buf bytes.Buffer
	_, err = buf.ReadFrom(res.Body)
	require.NoError(t, err)
	return rpcResult{status: res.StatusCode, header: res.Header, body: buf.Bytes()}
}

func decode[T any](t *testing.T, r rpcResult) T {
	t.Helper()
	require.Equal(t, http.StatusOK, r.status, string(r.body))
	var out T
	require.NoError(t, json.Unmarshal(r.body, &out))
	return out
}

func TestListAccountsAndBalance(t *testing.T) {
	ts, _ := newTestServer(t)

	accounts := decode[ListAccountsResponse](t, call(t, ts, Procedure("ListAccounts"), "uid-1", Empty{}))
	require.Len(t, accounts.Accounts, 2)
	assert.Equal(t, int64(10), accounts.Accounts[0].ID)

	balance := decode[TotalBalanceResponse](t, call(t, ts, Procedure("GetTotalBalance"), "uid-1", Empty{}))
	assert.True(t, dec("5500.25").Equal(balance.Balance), balance.Balance.String())
}

func TestErrorCodes(t *testing.T) {
	ts, _ := newTestServer(t)

	tests := []struct {
		name       string
		procedure  string
		uid        string
		req        any
		wantStatus int
		wantCode   string
	}{
		{
			name:       "unauthenticated",
			procedure:  Procedure("ListAccounts"),
			req:        Empty{},
			wantStatus: http.StatusUnauthorized,
			wantCode:   "unauthenticated",
		},
		{
			name:       "unknown uid",
			procedure:  Procedure("ListAccounts"),
			uid:        "uid-ghost",
			req:        Empty{},
			wantStatus: http.StatusNotFound,
			wantCode:   "not_found",
		},
		{
			name:       "foreign account",
			procedure:  Procedure("ListLimits"),
			uid:        "uid-2",
			req:        AccountRequest{AccountID: 10},
			wantStatus: http.StatusForbidden,
			wantCode:   "permission_denied",
		},
		{
			name:       "missing account",
			procedure:  Procedure("ListLimits"),
			uid:        "uid-1",
			req:        AccountRequest{AccountID: 999},
			wantStatus: http.StatusNotFound,
			wantCode:   "not_found",
		},
		{
			name:       "blank offer category",
			procedure:  Procedure("ListOffers"),
			uid:        "uid-1",
			req:        OffersRequest{Category: " "},
			wantStatus: http.StatusBadRequest,
			wantCode:   "invalid_argument",
		},
		{
			name:       "account cash flow for last month",
			procedure:  Procedure("GetCashFlow"),
			uid:        "uid-1",
			req:        CashFlowRequest{AccountID: 10, LastMonth: true},
			wantStatus: http.StatusBadRequest,
			wantCode:   "invalid_argument",
		},
		{
			name:       "unknown period",
			procedure:  Procedure("ListTransactions"),
			uid:        "uid-1",
			req:        TransactionsRequest{Period: "hourly"},
			wantStatus: http.StatusBadRequest,
			wantCode:   "invalid_argument",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := call(t, ts, tt.procedure, tt.uid, tt.req)
			assert.Equal(t, tt.wantStatus, r.status, string(r.body))

			var body struct {
				Code string `json:"code"`
			}
			require.NoError(t, json.Unmarshal(r.body, &body))
			assert.Equal(t, tt.wantCode, body.Code)
			assert.NotEmpty(t, r.header.Get(RequestIDHeader))
		})
	}
}

func TestLimitLifecycle(t *testing.T) {
	ts, _ := newTestServer(t)

	set := decode[LimitResponse](t, call(t, ts, Procedure("SetLimit"), "uid-1",
		LimitRequest{AccountID: 10, Category: "DINING", Amount: dec("250")}))
	require.NotNil(t, set.Limit)
	assert.True(t, set.Limit.IsActive)
	assert.Equal(t, time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC), set.Limit.RenewsAt.UTC())

	renews := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	updated := decode[LimitResponse](t, call(t, ts, Procedure("UpdateLimit"), "uid-1",
		LimitRequest{LimitID: set.Limit.ID, AccountID: 10, Category: "DINING", Amount: dec("300"), RenewsAt: &renews}))
	assert.True(t, dec("300").Equal(updated.Limit.Amount))

	list := decode[ListLimitsResponse](t, call(t, ts, Procedure("ListLimits"), "uid-1", AccountRequest{AccountID: 10}))
	require.Len(t, list.Limits, 1)

	adherence := decode[domain.BudgetAdherence](t, call(t, ts, Procedure("CheckBudgetAdherence"), "uid-1", AccountRequest{AccountID: 10}))
	require.Len(t, adherence.CategoryAdherences, 1)
	assert.True(t, dec("42").Equal(adherence.TotalSpent), adherence.TotalSpent.String())

	decode[Empty](t, call(t, ts, Procedure("DeactivateLimit"), "uid-1", LimitRequest{LimitID: set.Limit.ID}))
	list = decode[ListLimitsResponse](t, call(t, ts, Procedure("ListLimits"), "uid-1", AccountRequest{AccountID: 10}))
	assert.Empty(t, list.Limits)
}

func TestTransactionsAndCashFlow(t *testing.T) {
	ts, _ := newTestServer(t)

	txs := decode[TransactionsResponse](t, call(t, ts, Procedure("ListTransactions"), "uid-1",
		TransactionsRequest{Category: "DINING", Period: "monthly"}))
	require.Len(t, txs.Transactions, 1)

	flow := decode[domain.CashFlow](t, call(t, ts, Procedure("GetCashFlow"), "uid-1", CashFlowRequest{}))
	assert.True(t, dec("42").Equal(flow.MoneyOut), flow.MoneyOut.String())
	assert.True(t, dec("-42").Equal(flow.NetCashFlow), flow.NetCashFlow.String())
}

func TestListOffers(t *testing.T) {
	ts, _ := newTestServer(t)

	offers := decode[OffersResponse](t, call(t, ts, Procedure("ListOffers"), "uid-1", OffersRequest{Category: "DINING"}))
	require.Len(t, offers.Offers, 1)
	assert.Equal(t, int64(200), offers.Offers[0].ID)

	none := decode[OffersResponse](t, call(t, ts, Procedure("ListOffers"), "uid-1", OffersRequest{Category: "TRAVEL"}))
	assert.NotNil(t, none.Offers)
	assert.Empty(t, none.Offers)
}

func TestQuickInsightsWithoutAdvisor(t *testing.T) {
	ts, _ := newTestServer(t)

	got := decode[domain.Generated[*domain.QuickInsights]](t, call(t, ts, Procedure("GetQuickInsights"), "uid-1", Empty{}))
	assert.Equal(t, domain.SourceFallback, got.Source)
	require.NotNil(t, got.Payload)

	again := decode[domain.Generated[*domain.QuickInsights]](t, call(t, ts, Procedure("GetQuickInsights"), "uid-1", Empty{}))
	assert.Equal(t, domain.SourceCache, again.Source)
}

func TestRequestIDPropagation(t *testing.T) {
	ts, _ := newTestServer(t)

	r := call(t, ts, Procedure("ListAccounts"), "uid-1", Empty{})
	require.Equal(t, http.StatusOK, r.status)
	assert.NotEmpty(t, r.header.Get(RequestIDHeader))

	payload, err := json.Marshal(Empty{})
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, ts.URL+Procedure("ListAccounts"), bytes.NewReader(payload))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(uidHeader, "uid-1")
	req.Header.Set(RequestIDHeader, "req-123")

	res, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, "req-123", res.Header.Get(RequestIDHeader))
}

func TestHealth(t *testing.T) {
	ts, _ := newTestServer(t)

	health := decode[HealthResponse](t, call(t, ts, auth.HealthProcedure, "", Empty{}))
	assert.Equal(t, resilience.HealthHealthy, health.Status)
	assert.Contains(t, health.Services, resilience.OpenAIService)

	res, err := ts.Client().Get(ts.URL + "/health")
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
}
