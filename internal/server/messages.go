package server

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/castlemilk/pfinance/insights/internal/domain"
	"github.com/castlemilk/pfinance/insights/internal/resilience"
)

// Empty is the request of procedures that take no arguments.
type Empty struct{}

type ListAccountsResponse struct {
	Accounts []*domain.Account `json:"accounts"`
}

type TotalBalanceResponse struct {
	Balance decimal.Decimal `json:"balance"`
}

type PushTokenRequest struct {
	Token string `json:"token"`
}

// AccountRequest scopes a call to one account. A zero AccountID means all
// of the user's accounts where the procedure allows it.
type AccountRequest struct {
	AccountID int64 `json:"accountId,omitempty"`
}

type LimitRequest struct {
	LimitID   int64           `json:"limitId,omitempty"`
	AccountID int64           `json:"accountId"`
	Category  string          `json:"category"`
	Amount    decimal.Decimal `json:"amount"`
	RenewsAt  *time.Time      `json:"renewsAt,omitempty"`
}

type LimitResponse struct {
	Limit *domain.Limit `json:"limit"`
}

type ListLimitsResponse struct {
	Limits []*domain.Limit `json:"limits"`
}

type SpendingTrendsResponse struct {
	Trends []domain.CategoryTrend `json:"trends"`
}

// RecurringRequest overrides the detector defaults field by field; zero
// values keep the configured default.
type RecurringRequest struct {
	AccountID     int64    `json:"accountId"`
	MinMonths     int      `json:"minMonths,omitempty"`
	MinTxCount    int      `json:"minTxCount,omitempty"`
	MonthsBack    int      `json:"monthsBack,omitempty"`
	AmountBand    int      `json:"amountBand,omitempty"`
	MinConfidence *float64 `json:"minConfidence,omitempty"`
}

type RecurringResponse struct {
	Payments []domain.RecurringPayment `json:"payments"`
}

type TransactionsRequest struct {
	AccountID int64  `json:"accountId,omitempty"`
	Category  string `json:"category,omitempty"`
	MCCID     int64  `json:"mccId,omitempty"`
	Period    string `json:"period,omitempty"`
	Year      int    `json:"year,omitempty"`
	Month     int    `json:"month,omitempty"`
}

type TransactionsResponse struct {
	Transactions []domain.TransactionView `json:"transactions"`
}

type CashFlowRequest struct {
	AccountID int64 `json:"accountId,omitempty"`
	LastMonth bool  `json:"lastMonth,omitempty"`
}

type OffersRequest struct {
	Category string `json:"category"`
}

type OffersResponse struct {
	Offers []*domain.Offer `json:"offers"`
}

type HealthResponse = resilience.HealthReport
