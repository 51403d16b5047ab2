package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Limit is a spending budget for one category on one account. RenewsAt
// anchors a rolling period and is not rewritten as periods roll over.
type Limit struct {
	ID        int64           `json:"limitId"`
	AccountID int64           `json:"accountId"`
	Category  string          `json:"category"`
	Amount    decimal.Decimal `json:"amount"`
	IsActive  bool            `json:"isActive"`
	CreatedAt time.Time       `json:"createdAt"`
	RenewsAt  time.Time       `json:"renewsAt"`
}

// AdherenceLevel is the ordinal classification of budget usage.
type AdherenceLevel string

const (
	AdherenceExcellent AdherenceLevel = "EXCELLENT"
	AdherenceGood      AdherenceLevel = "GOOD"
	AdherenceWarning   AdherenceLevel = "WARNING"
	AdherenceCritical  AdherenceLevel = "CRITICAL"
	AdherenceExceeded  AdherenceLevel = "EXCEEDED"
)

// DisplayName renders the level for humans, e.g. "Excellent".
func (l AdherenceLevel) DisplayName() string { return displayName(string(l)) }

// SpendingTrend compares this period's spend with the month before.
type SpendingTrend string

const (
	TrendIncreased SpendingTrend = "INCREASED"
	TrendDecreased SpendingTrend = "DECREASED"
	TrendStable    SpendingTrend = "STABLE"
	TrendNoData    SpendingTrend = "NO_DATA"
)

// DisplayName renders the trend for humans, e.g. "No Data".
func (t SpendingTrend) DisplayName() string { return displayName(string(t)) }

// A Caser keeps state, so each call builds its own.
func displayName(s string) string {
	return cases.Title(language.English).String(strings.ToLower(strings.ReplaceAll(s, "_", " ")))
}

// CategoryAdherence is computed per active limit on every check.
type CategoryAdherence struct {
	Category                 string          `json:"category"`
	AccountID                int64           `json:"accountId"`
	BudgetAmount             decimal.Decimal `json:"budgetAmount"`
	SpentAmount              decimal.Decimal `json:"spentAmount"`
	LastMonthSpentAmount     decimal.Decimal `json:"lastMonthSpentAmount"`
	PercentageUsed           float64         `json:"percentageUsed"`
	RemainingAmount          decimal.Decimal `json:"remainingAmount"`
	AdherenceLevel           AdherenceLevel  `json:"adherenceLevel"`
	SpendingTrend            SpendingTrend   `json:"spendingTrend"`
	SpendingChange           decimal.Decimal `json:"spendingChange"`
	SpendingChangePercentage float64         `json:"spendingChangePercentage"`
	RenewsAt                 time.Time       `json:"renewsAt"`
	PeriodStart              time.Time       `json:"periodStart"`
	PeriodEnd                time.Time       `json:"periodEnd"`
	DaysInPeriod             int             `json:"daysInPeriod"`
	IsActivePeriod           bool            `json:"isActivePeriod"`
}

// FullPeriodEnd is the last day of the category's current period, which
// may lie after PeriodEnd while the period is still running.
func (c CategoryAdherence) FullPeriodEnd() time.Time {
	return c.PeriodStart.AddDate(0, 0, c.DaysInPeriod)
}

// BudgetAdherence aggregates category adherence across a user's accounts.
type BudgetAdherence struct {
	OverallAdherence   AdherenceLevel      `json:"overallAdherence"`
	CategoryAdherences []CategoryAdherence `json:"categoryAdherences"`
	TotalBudget        decimal.Decimal     `json:"totalBudget"`
	TotalSpent         decimal.Decimal     `json:"totalSpent"`
	AccountsChecked    int                 `json:"accountsChecked"`
}

// CategoryTrend is the per-category trend summary.
type CategoryTrend struct {
	Category                 string          `json:"category"`
	CurrentSpent             decimal.Decimal `json:"currentSpent"`
	LastMonthSpent           decimal.Decimal `json:"lastMonthSpent"`
	SpendingChange           decimal.Decimal `json:"spendingChange"`
	SpendingChangePercentage float64         `json:"spendingChangePercentage"`
	Trend                    string          `json:"trend"`
	BudgetAmount             decimal.Decimal `json:"budgetAmount"`
	AdherenceLevel           string          `json:"adherenceLevel"`
}
