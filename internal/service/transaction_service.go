package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/castlemilk/pfinance/insights/internal/cache"
	"github.com/castlemilk/pfinance/insights/internal/domain"
	"github.com/castlemilk/pfinance/insights/internal/store"
)

// Transaction query periods.
const (
	PeriodNone    = "none"
	PeriodDaily   = "daily"
	PeriodWeekly  = "weekly"
	PeriodMonthly = "monthly"
	PeriodYearly  = "yearly"
)

// TransactionQuery narrows a transaction listing. Zero values match all.
type TransactionQuery struct {
	Category string
	MCCID    int64
	// Period is one of none, daily, weekly, monthly or yearly; empty means none.
	Period string
	Year   int
	Month  int
}

// Validate checks the period and calendar fields.
func (q TransactionQuery) Validate() error {
	var errs []domain.FieldError
	switch q.Period {
	case "", PeriodNone, PeriodDaily, PeriodWeekly, PeriodMonthly, PeriodYearly:
	default:
		errs = append(errs, domain.FieldError{Field: "period", Message: fmt.Sprintf("unknown period %q", q.Period)})
	}
	if q.Month != 0 && (q.Month < 1 || q.Month > 12) {
		errs = append(errs, domain.FieldError{Field: "month", Message: "must be between 1 and 12"})
	}
	if q.Year < 0 {
		errs = append(errs, domain.FieldError{Field: "year", Message: "must be positive"})
	}
	if q.MCCID < 0 {
		errs = append(errs, domain.FieldError{Field: "mcc_id", Message: "must be positive"})
	}
	return domain.NewValidationErrors(errs)
}

func (q TransactionQuery) period() string {
	if q.Period == "" {
		return PeriodNone
	}
	return q.Period
}

// window resolves the query's date bounds relative to now. Daily and weekly
// ignore Year and Month; a Month without a Year means this year.
func (q TransactionQuery) window(now time.Time) (*time.Time, *time.Time) {
	year := q.Year
	if year == 0 {
		year = now.Year()
	}
	loc := now.Location()

	var start, end time.Time
	switch q.period() {
	case PeriodDaily:
		start, end = startOfDay(now), endOfDay(now)
	case PeriodWeekly:
		start, end = startOfDay(now.AddDate(0, 0, -6)), endOfDay(now)
	case PeriodMonthly:
		month := time.Month(q.Month)
		if q.Month == 0 {
			month = now.Month()
		}
		start, end = monthRange(time.Date(year, month, 1, 0, 0, 0, 0, loc), 0)
	case PeriodYearly:
		start = time.Date(year, time.January, 1, 0, 0, 0, 0, loc)
		end = endOfDay(time.Date(year, time.December, 31, 0, 0, 0, 0, loc))
	default:
		switch {
		case q.Month != 0:
			start, end = monthRange(time.Date(year, time.Month(q.Month), 1, 0, 0, 0, 0, loc), 0)
		case q.Year != 0:
			start = time.Date(year, time.January, 1, 0, 0, 0, 0, loc)
			end = endOfDay(time.Date(year, time.December, 31, 0, 0, 0, 0, loc))
		default:
			return nil, nil
		}
	}
	return &start, &end
}

// TransactionService lists transactions and summarises cash flow.
type TransactionService struct {
	store store.Store
	cache *cache.Cache
	now   func() time.Time
	log   *slog.Logger
}

// NewTransactionService creates a TransactionService. now may be nil.
func NewTransactionService(log *slog.Logger, s store.Store, c *cache.Cache, now func() time.Time) *TransactionService {
	if now == nil {
		now = time.Now
	}
	return &TransactionService{store: s, cache: c, now: now, log: log.With("service", "transaction")}
}

// UserTransactions lists transactions touching any of the user's accounts.
func (s *TransactionService) UserTransactions(ctx context.Context, userID int64, q TransactionQuery) ([]domain.TransactionView, error) {
	if err := validateIDs(userID); err != nil {
		return nil, err
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}

	key := cache.TransactionKey(cache.ScopeUser, userID, q.Category, q.MCCID, q.period(), q.Year, q.Month)
	if views, ok := cache.Lookup[[]domain.TransactionView](s.cache, cache.TransactionsUser, key); ok {
		s.log.DebugContext(ctx, "returning cached user transactions", slog.String("key", key))
		return views, nil
	}

	accounts, err := s.store.ListAccounts(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	if len(accounts) == 0 {
		return nil, fmt.Errorf("accounts for user %d: %w", userID, domain.ErrNotFound)
	}

	views, err := s.query(ctx, accountIDs(accounts), q)
	if err != nil {
		return nil, err
	}
	s.remember(cache.TransactionsUser, key, views)
	return views, nil
}

// AccountTransactions lists transactions touching one owned account.
func (s *TransactionService) AccountTransactions(ctx context.Context, userID, accountID int64, q TransactionQuery) ([]domain.TransactionView, error) {
	if err := validateIDs(userID, accountID); err != nil {
		return nil, err
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if _, err := ownedAccount(ctx, s.store, userID, accountID); err != nil {
		return nil, err
	}

	key := cache.TransactionKey(cache.ScopeAccount, accountID, q.Category, q.MCCID, q.period(), q.Year, q.Month)
	if views, ok := cache.Lookup[[]domain.TransactionView](s.cache, cache.TransactionsAccount, key); ok {
		s.log.DebugContext(ctx, "returning cached account transactions", slog.String("key", key))
		return views, nil
	}

	views, err := s.query(ctx, []int64{accountID}, q)
	if err != nil {
		return nil, err
	}
	s.remember(cache.TransactionsAccount, key, views)
	return views, nil
}

// CashFlow summarises the user's money movement over a calendar month;
// monthOffset 0 is this month and -1 the previous one.
func (s *TransactionService) CashFlow(ctx context.Context, userID int64, monthOffset int) (*domain.CashFlow, error) {
	if err := validateIDs(userID); err != nil {
		return nil, err
	}
	accounts, err := s.store.ListAccounts(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}

	from, to := monthRange(s.now(), monthOffset)
	return s.cashFlow(ctx, accountIDs(accounts), from, to)
}

// AccountCashFlow summarises this month's movement on one owned account.
// Transfers to the user's other accounts count as money out.
func (s *TransactionService) AccountCashFlow(ctx context.Context, userID, accountID int64) (*domain.CashFlow, error) {
	if err := validateIDs(userID, accountID); err != nil {
		return nil, err
	}
	if _, err := ownedAccount(ctx, s.store, userID, accountID); err != nil {
		return nil, err
	}

	from, to := monthRange(s.now(), 0)
	return s.cashFlow(ctx, []int64{accountID}, from, to)
}

func (s *TransactionService) query(ctx context.Context, ids []int64, q TransactionQuery) ([]domain.TransactionView, error) {
	start, end := q.window(s.now())
	txs, err := s.store.RangeQuery(ctx, domain.TransactionFilter{
		AccountIDs: ids,
		Category:   q.Category,
		MCCID:      q.MCCID,
		Start:      start,
		End:        end,
	})
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}

	mccs, err := s.store.ListMCCs(ctx, mccIDs(txs))
	if err != nil {
		return nil, fmt.Errorf("resolve mccs: %w", err)
	}

	views := make([]domain.TransactionView, 0, len(txs))
	for _, tx := range txs {
		views = append(views, domain.TransactionView{
			ID:                   tx.ID,
			SourceAccountID:      tx.SourceAccountID,
			DestinationAccountID: tx.DestinationAccountID,
			Amount:               tx.Amount,
			Type:                 tx.Type,
			MCC:                  mccInfo(mccs[tx.MCCID]),
			CreatedAt:            tx.CreatedAt,
		})
	}
	return views, nil
}

func (s *TransactionService) cashFlow(ctx context.Context, ids []int64, from, to time.Time) (*domain.CashFlow, error) {
	flow := &domain.CashFlow{
		MoneyIn:            decimal.Zero,
		MoneyOut:           decimal.Zero,
		MoneyInByCategory:  map[string]decimal.Decimal{},
		MoneyOutByCategory: map[string]decimal.Decimal{},
		NetCashFlow:        decimal.Zero,
		From:               from,
		To:                 to,
	}
	if len(ids) == 0 {
		return flow, nil
	}

	txs, err := s.store.RangeQuery(ctx, domain.TransactionFilter{AccountIDs: ids, Start: &from, End: &to})
	if err != nil {
		return nil, fmt.Errorf("query cash flow: %w", err)
	}
	mccs, err := s.store.ListMCCs(ctx, mccIDs(txs))
	if err != nil {
		return nil, fmt.Errorf("resolve mccs: %w", err)
	}

	owned := make(map[int64]bool, len(ids))
	for _, id := range ids {
		owned[id] = true
	}

	for _, tx := range txs {
		amount := tx.Amount.Abs()
		category := mccInfo(mccs[tx.MCCID]).Category
		fromOwned := owned[tx.SourceAccountID]
		toOwned := owned[tx.DestinationAccountID]

		switch {
		case tx.Type == domain.TransactionCredit || (toOwned && !fromOwned):
			flow.MoneyIn = flow.MoneyIn.Add(amount)
			flow.MoneyInByCategory[category] = flow.MoneyInByCategory[category].Add(amount)
		case fromOwned && !toOwned:
			flow.MoneyOut = flow.MoneyOut.Add(amount)
			flow.MoneyOutByCategory[category] = flow.MoneyOutByCategory[category].Add(amount)
		}
	}
	flow.NetCashFlow = flow.MoneyIn.Sub(flow.MoneyOut)
	return flow, nil
}

// remember caches a result; a failed write only costs a future miss.
func (s *TransactionService) remember(ns cache.Namespace, key string, views []domain.TransactionView) {
	if err := s.cache.Set(ns, key, views); err != nil {
		s.log.Warn("cache write failed", slog.String("namespace", string(ns)), slog.Any("error", err))
	}
}

func accountIDs(accounts []*domain.Account) []int64 {
	ids := make([]int64, 0, len(accounts))
	for _, a := range accounts {
		ids = append(ids, a.ID)
	}
	return ids
}

func mccIDs(txs []*domain.Transaction) []int64 {
	seen := make(map[int64]bool)
	var ids []int64
	for _, tx := range txs {
		if tx.MCCID == 0 || seen[tx.MCCID] {
			continue
		}
		seen[tx.MCCID] = true
		ids = append(ids, tx.MCCID)
	}
	return ids
}

func mccInfo(m *domain.MCC) domain.MCCInfo {
	if m == nil {
		return domain.MCCInfo{Category: domain.UnknownCategory, SubCategory: domain.UnknownCategory}
	}
	return domain.MCCInfo{Category: m.Category, SubCategory: m.SubCategory}
}
