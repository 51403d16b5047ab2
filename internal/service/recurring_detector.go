package service

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/castlemilk/pfinance/insights/internal/domain"
)

const (
	// regularityToleranceDays is how far a gap may drift from the mean gap.
	regularityToleranceDays = 5
	// recentWithinDays marks a candidate whose last payment is still fresh.
	recentWithinDays = 40
	// skippedGapDays is the gap beyond which a payment counts as missed.
	skippedGapDays = 40
	// expectedCycleDays estimates when a missed payment was due.
	expectedCycleDays = 30
)

var (
	regularScore   = decimal.RequireFromString("0.7")
	irregularScore = decimal.RequireFromString("0.3")
	staleScore     = decimal.RequireFromString("0.5")
	three          = decimal.NewFromInt(3)
	five           = decimal.NewFromInt(5)
)

// wholeDays counts complete days from a to b.
func wholeDays(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}

func sortedAscending(dates []time.Time) []time.Time {
	sorted := make([]time.Time, len(dates))
	copy(sorted, dates)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })
	return sorted
}

// CheckIntervalRegularity reports whether every gap between consecutive
// payments is within five days of the mean gap. Fewer than two dates have
// no intervals and are never regular.
func CheckIntervalRegularity(dates []time.Time) bool {
	sorted := sortedAscending(dates)
	if len(sorted) < 2 {
		return false
	}

	gaps := make([]int, 0, len(sorted)-1)
	total := 0
	for i := 1; i < len(sorted); i++ {
		gap := wholeDays(sorted[i-1], sorted[i])
		gaps = append(gaps, gap)
		total += gap
	}

	mean := float64(total) / float64(len(gaps))
	for _, gap := range gaps {
		diff := float64(gap) - mean
		if diff < -regularityToleranceDays || diff > regularityToleranceDays {
			return false
		}
	}
	return true
}

// ConfidenceScore averages the interval, count and recency scores and
// truncates the result to one decimal place.
func ConfidenceScore(c *domain.RecurringCandidate, now time.Time) float64 {
	interval := irregularScore
	if CheckIntervalRegularity(c.TransactionDates) {
		interval = regularScore
	}

	count := decimal.NewFromInt(int64(c.TxCount)).Div(five)
	if count.GreaterThan(decimal.NewFromInt(1)) {
		count = decimal.NewFromInt(1)
	}

	recency := staleScore
	if wholeDays(c.LastDetected, now) < recentWithinDays {
		recency = decimal.NewFromInt(1)
	}

	score, _ := interval.Add(count).Add(recency).DivRound(three, 8).Truncate(1).Float64()
	return score
}

// DetectSkippedPayments estimates a missed payment 30 days after every
// payment followed by a gap of more than 40 days.
func DetectSkippedPayments(dates []time.Time) []time.Time {
	sorted := sortedAscending(dates)
	missed := []time.Time{}
	for i := 1; i < len(sorted); i++ {
		if wholeDays(sorted[i-1], sorted[i]) > skippedGapDays {
			missed = append(missed, sorted[i-1].AddDate(0, 0, expectedCycleDays))
		}
	}
	return missed
}

// scoreCandidate turns a candidate into a response row. The MCC must be
// resolved by the caller.
func scoreCandidate(c *domain.RecurringCandidate, mcc *domain.MCC, now time.Time) domain.RecurringPayment {
	latest := decimal.Zero
	if len(c.Amounts) > 0 {
		latest = c.Amounts[0]
	}
	return domain.RecurringPayment{
		AccountID:               c.AccountID,
		MCC:                     domain.MCCInfo{Category: mcc.Category, SubCategory: mcc.SubCategory},
		AmountGroup:             c.AmountGroup,
		Amounts:                 c.Amounts,
		LatestAmount:            latest,
		TransactionCount:        c.TxCount,
		MonthsWithPayments:      c.MonthsWith,
		DetectedIntervalRegular: CheckIntervalRegularity(c.TransactionDates),
		ConfidenceScore:         ConfidenceScore(c, now),
		LastDetected:            c.LastDetected,
		SkippedPaymentEstimate:  DetectSkippedPayments(c.TransactionDates),
	}
}
