package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is the ledger direction of a transaction.
type TransactionType string

const (
	TransactionDebit    TransactionType = "DEBIT"
	TransactionCredit   TransactionType = "CREDIT"
	TransactionTransfer TransactionType = "TRANSFER"
	TransactionWithdraw TransactionType = "WITHDRAW"
)

// UnknownCategory labels transactions whose MCC cannot be resolved.
const UnknownCategory = "unknown"

// Transaction is a single money movement. Zero account or MCC ids mean absent.
type Transaction struct {
	ID                   int64           `json:"id"`
	SourceAccountID      int64           `json:"sourceAccountId,omitempty"`
	DestinationAccountID int64           `json:"destinationAccountId,omitempty"`
	Amount               decimal.Decimal `json:"amount"`
	Type                 TransactionType `json:"transactionType"`
	MCCID                int64           `json:"mccId,omitempty"`
	CreatedAt            time.Time       `json:"createdAt"`
}

// TransactionFilter narrows a range query. Empty fields match everything.
type TransactionFilter struct {
	AccountIDs []int64
	// SourceOnly restricts matches to transactions leaving one of AccountIDs.
	SourceOnly bool
	Category   string
	MCCID      int64
	Start      *time.Time
	End        *time.Time
}

// CandidateQuery parameterises the recurring-candidate grouping.
type CandidateQuery struct {
	MinMonths  int
	MinTxCount int
	MonthsBack int
	AmountBand int
}

// DefaultCandidateQuery returns the standard detector parameters.
func DefaultCandidateQuery() CandidateQuery {
	return CandidateQuery{MinMonths: 2, MinTxCount: 3, MonthsBack: 6, AmountBand: 10}
}

// RecurringCandidate is a group of debits sharing an MCC and amount band.
// Amounts and TransactionDates are ordered newest first.
type RecurringCandidate struct {
	AccountID        int64
	MCCID            int64
	AmountGroup      decimal.Decimal
	Amounts          []decimal.Decimal
	TransactionDates []time.Time
	TxCount          int
	FirstDetected    time.Time
	LastDetected     time.Time
	MonthsWith       int
}

// MCCInfo is the resolved category pair attached to responses.
type MCCInfo struct {
	Category    string `json:"category"`
	SubCategory string `json:"subCategory"`
}

// TransactionView is a transaction with its MCC resolved.
type TransactionView struct {
	ID                   int64           `json:"id"`
	SourceAccountID      int64           `json:"sourceAccountId,omitempty"`
	DestinationAccountID int64           `json:"destinationAccountId,omitempty"`
	Amount               decimal.Decimal `json:"amount"`
	Type                 TransactionType `json:"transactionType"`
	MCC                  MCCInfo         `json:"mcc"`
	CreatedAt            time.Time       `json:"createdAt"`
}

// RecurringPayment is a detected subscription-like payment.
type RecurringPayment struct {
	AccountID               int64             `json:"accountId"`
	MCC                     MCCInfo           `json:"mcc"`
	AmountGroup             decimal.Decimal   `json:"amountGroup"`
	Amounts                 []decimal.Decimal `json:"amounts"`
	LatestAmount            decimal.Decimal   `json:"latestAmount"`
	TransactionCount        int               `json:"transactionCount"`
	MonthsWithPayments      int               `json:"monthsWithPayments"`
	DetectedIntervalRegular bool              `json:"detectedIntervalRegular"`
	ConfidenceScore         float64           `json:"confidenceScore"`
	LastDetected            time.Time         `json:"lastDetected"`
	SkippedPaymentEstimate  []time.Time       `json:"skippedPaymentEstimate"`
}

// CashFlow summarises money movement over [From, To].
type CashFlow struct {
	MoneyIn            decimal.Decimal            `json:"moneyIn"`
	MoneyOut           decimal.Decimal            `json:"moneyOut"`
	MoneyInByCategory  map[string]decimal.Decimal `json:"moneyInByCategory"`
	MoneyOutByCategory map[string]decimal.Decimal `json:"moneyOutByCategory"`
	NetCashFlow        decimal.Decimal            `json:"netCashFlow"`
	From               time.Time                  `json:"from"`
	To                 time.Time                  `json:"to"`
}
