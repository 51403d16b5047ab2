package store

import (
	"sort"
	"time"

	"github.com/castlemilk/pfinance/insights/internal/domain"
	"github.com/shopspring/decimal"
)

type candidateKey struct {
	mccID       int64
	amountGroup string
}

// GroupRecurringCandidates buckets the account's debits created after
// now minus q.MonthsBack by (MCC, round(amount/band)*band) and keeps groups
// spanning at least q.MinMonths calendar months with at least q.MinTxCount
// transactions. Groups are ordered by most recent transaction first.
//
// Stores without server-side aggregation share this implementation.
func GroupRecurringCandidates(accountID int64, txs []*domain.Transaction, q domain.CandidateQuery, now time.Time) []*domain.RecurringCandidate {
	since := now.AddDate(0, -q.MonthsBack, 0)
	band := decimal.NewFromInt(int64(q.AmountBand))

	groups := make(map[candidateKey][]*domain.Transaction)
	var order []candidateKey
	for _, tx := range txs {
		if tx.SourceAccountID != accountID || tx.Type != domain.TransactionDebit {
			continue
		}
		if !tx.CreatedAt.After(since) {
			continue
		}
		group := tx.Amount.Div(band).Round(0).Mul(band)
		key := candidateKey{mccID: tx.MCCID, amountGroup: group.String()}
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], tx)
	}

	var out []*domain.RecurringCandidate
	for _, key := range order {
		members := groups[key]
		if len(members) < q.MinTxCount {
			continue
		}

		sort.SliceStable(members, func(i, j int) bool {
			return members[i].CreatedAt.After(members[j].CreatedAt)
		})

		months := make(map[[2]int]struct{})
		c := &domain.RecurringCandidate{
			AccountID:     accountID,
			MCCID:         key.mccID,
			AmountGroup:   decimal.RequireFromString(key.amountGroup),
			TxCount:       len(members),
			LastDetected:  members[0].CreatedAt,
			FirstDetected: members[len(members)-1].CreatedAt,
		}
		for _, m := range members {
			c.Amounts = append(c.Amounts, m.Amount)
			c.TransactionDates = append(c.TransactionDates, m.CreatedAt)
			months[[2]int{m.CreatedAt.Year(), int(m.CreatedAt.Month())}] = struct{}{}
		}
		c.MonthsWith = len(months)
		if c.MonthsWith < q.MinMonths {
			continue
		}
		out = append(out, c)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LastDetected.After(out[j].LastDetected)
	})
	return out
}
