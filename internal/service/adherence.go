package service

import (
	"github.com/shopspring/decimal"

	"github.com/castlemilk/pfinance/insights/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// percentageOf is part/whole*100 with the ratio rounded to four places.
// A non-positive whole yields zero.
func percentageOf(part, whole decimal.Decimal) decimal.Decimal {
	if !whole.IsPositive() {
		return decimal.Zero
	}
	return part.DivRound(whole, 4).Mul(hundred)
}

// ClassifyAdherence maps a usage percentage onto the adherence ladder.
func ClassifyAdherence(pct float64) domain.AdherenceLevel {
	switch {
	case pct > 100:
		return domain.AdherenceExceeded
	case pct > 90:
		return domain.AdherenceCritical
	case pct > 75:
		return domain.AdherenceWarning
	case pct > 50:
		return domain.AdherenceGood
	default:
		return domain.AdherenceExcellent
	}
}

// ClassifyTrend compares this period's spend with last month's and returns
// the trend with its change percentage.
func ClassifyTrend(spent, lastMonth decimal.Decimal) (domain.SpendingTrend, float64) {
	if spent.IsZero() && lastMonth.IsZero() {
		return domain.TrendNoData, 0
	}
	if lastMonth.IsZero() {
		return domain.TrendIncreased, 100
	}
	change, _ := percentageOf(spent.Sub(lastMonth), lastMonth).Float64()
	switch {
	case change > 5:
		return domain.TrendIncreased, change
	case change < -5:
		return domain.TrendDecreased, change
	default:
		return domain.TrendStable, change
	}
}

// categoryAdherence assembles one category's figures.
func categoryAdherence(limit *domain.Limit, period Period, spent, lastMonth decimal.Decimal) domain.CategoryAdherence {
	pct, _ := percentageOf(spent, limit.Amount).Float64()
	remaining := limit.Amount.Sub(spent)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}
	trend, changePct := ClassifyTrend(spent, lastMonth)

	return domain.CategoryAdherence{
		Category:                 limit.Category,
		AccountID:                limit.AccountID,
		BudgetAmount:             limit.Amount,
		SpentAmount:              spent,
		LastMonthSpentAmount:     lastMonth,
		PercentageUsed:           pct,
		RemainingAmount:          remaining,
		AdherenceLevel:           ClassifyAdherence(pct),
		SpendingTrend:            trend,
		SpendingChange:           spent.Sub(lastMonth),
		SpendingChangePercentage: changePct,
		RenewsAt:                 limit.RenewsAt,
		PeriodStart:              period.Start,
		PeriodEnd:                period.End,
		DaysInPeriod:             period.Days,
		IsActivePeriod:           true,
	}
}

// summarize fills totals and the overall level from the category rows.
func summarize(categories []domain.CategoryAdherence, accountsChecked int) *domain.BudgetAdherence {
	totalBudget, totalSpent := decimal.Zero, decimal.Zero
	for _, c := range categories {
		totalBudget = totalBudget.Add(c.BudgetAmount)
		totalSpent = totalSpent.Add(c.SpentAmount)
	}
	if categories == nil {
		categories = []domain.CategoryAdherence{}
	}

	overall := domain.AdherenceExcellent
	if len(categories) > 0 {
		pct, _ := percentageOf(totalSpent, totalBudget).Float64()
		overall = ClassifyAdherence(pct)
	}
	return &domain.BudgetAdherence{
		OverallAdherence:   overall,
		CategoryAdherences: categories,
		TotalBudget:        totalBudget,
		TotalSpent:         totalSpent,
		AccountsChecked:    accountsChecked,
	}
}

// sumDebits totals the absolute value of DEBIT transactions.
func sumDebits(txs []*domain.Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, tx := range txs {
		if tx.Type == domain.TransactionDebit {
			total = total.Add(tx.Amount.Abs())
		}
	}
	return total
}
