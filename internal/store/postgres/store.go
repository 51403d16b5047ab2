package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/castlemilk/pfinance/insights/internal/domain"
	"github.com/castlemilk/pfinance/insights/internal/store"
)

var (
	_ store.Store  = (*Store)(nil)
	_ store.Seeder = (*Store)(nil)
)

const (
	userColumns        = "id, external_id, username, push_token"
	accountColumns     = "id, user_id, account_type, account_number, card_number, balance::text"
	limitColumns       = "id, account_id, category, amount::text, is_active, created_at, renews_at"
	transactionColumns = "id, COALESCE(source_account_id, 0), COALESCE(destination_account_id, 0), amount::text, transaction_type, COALESCE(mcc_id, 0), created_at"
	mccColumns         = "id, code, category, sub_category"
	scheduleColumns    = "user_id, kind, last_generated_at, next_scheduled_at, last_budget_period_end"
)

// Store implements store.Store and store.Seeder on PostgreSQL.
type Store struct {
	q  Querier
	sb squirrel.StatementBuilderType
}

// New creates a Store on top of q, usually a *pgxpool.Pool.
func New(q Querier) *Store {
	return &Store{
		q:  q,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// User operations

func (s *Store) GetUserByExternalID(ctx context.Context, externalID string) (*domain.User, error) {
	query, args, err := s.sb.Select(userColumns).From("users").
		Where(squirrel.Eq{"external_id": externalID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	u, err := scanUser(s.q.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, mapError(err, "user", externalID)
	}
	return u, nil
}

func (s *Store) ListUsersWithPushTokens(ctx context.Context) ([]*domain.User, error) {
	query, args, err := s.sb.Select(userColumns).From("users").
		Where(squirrel.NotEq{"push_token": ""}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	rows, err := s.q.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, "users", "with push tokens")
	}
	users, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.User, error) {
		return scanUser(row)
	})
	if err != nil {
		return nil, mapError(err, "users", "with push tokens")
	}
	return users, nil
}

func (s *Store) UpdatePushToken(ctx context.Context, userID int64, token string) error {
	query, args, err := s.sb.Update("users").
		Set("push_token", token).
		Where(squirrel.Eq{"id": userID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	tag, err := s.q.Exec(ctx, query, args...)
	if err != nil {
		return mapError(err, "user", userID)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user %d: %w", userID, domain.ErrNotFound)
	}
	return nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(&u.ID, &u.ExternalID, &u.Username, &u.PushToken); err != nil {
		return nil, err
	}
	return &u, nil
}

// Account operations

func (s *Store) ListAccounts(ctx context.Context, userID int64) ([]*domain.Account, error) {
	query, args, err := s.sb.Select(accountColumns).From("accounts").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	rows, err := s.q.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, "accounts of user", userID)
	}
	accounts, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.Account, error) {
		return scanAccount(row)
	})
	if err != nil {
		return nil, mapError(err, "accounts of user", userID)
	}
	return accounts, nil
}

func (s *Store) GetAccount(ctx context.Context, accountID int64) (*domain.Account, error) {
	query, args, err := s.sb.Select(accountColumns).From("accounts").
		Where(squirrel.Eq{"id": accountID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	a, err := scanAccount(s.q.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, mapError(err, "account", accountID)
	}
	return a, nil
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var (
		a       domain.Account
		typ     string
		balance string
	)
	if err := row.Scan(&a.ID, &a.UserID, &typ, &a.AccountNumber, &a.CardNumber, &balance); err != nil {
		return nil, err
	}
	b, err := decimal.NewFromString(balance)
	if err != nil {
		return nil, fmt.Errorf("parse balance: %w", err)
	}
	a.Type = domain.AccountType(typ)
	a.Balance = b
	return &a, nil
}

// Limit operations

func (s *Store) ListLimits(ctx context.Context, accountID int64) ([]*domain.Limit, error) {
	query, args, err := s.sb.Select(limitColumns).From("limits").
		Where(squirrel.Eq{"account_id": accountID}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	rows, err := s.q.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, "limits of account", accountID)
	}
	limits, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.Limit, error) {
		return scanLimit(row)
	})
	if err != nil {
		return nil, mapError(err, "limits of account", accountID)
	}
	return limits, nil
}

func (s *Store) GetLimit(ctx context.Context, limitID int64) (*domain.Limit, error) {
	query, args, err := s.sb.Select(limitColumns).From("limits").
		Where(squirrel.Eq{"id": limitID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	l, err := scanLimit(s.q.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, mapError(err, "limit", limitID)
	}
	return l, nil
}

func (s *Store) FindLimitByCategory(ctx context.Context, accountID int64, category string) (*domain.Limit, error) {
	query, args, err := s.sb.Select(limitColumns).From("limits").
		Where(squirrel.Eq{"account_id": accountID, "category": category}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	l, err := scanLimit(s.q.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, mapError(err, "limit for category", category)
	}
	return l, nil
}

func (s *Store) UpsertLimit(ctx context.Context, limit *domain.Limit) error {
	values := map[string]any{
		"account_id": limit.AccountID,
		"category":   limit.Category,
		"amount":     limit.Amount.String(),
		"is_active":  limit.IsActive,
		"created_at": limit.CreatedAt,
		"renews_at":  limit.RenewsAt,
	}
	if limit.ID != 0 {
		values["id"] = limit.ID
	}
	query, args, err := s.sb.Insert("limits").
		SetMap(values).
		Suffix("ON CONFLICT (account_id, category) DO UPDATE SET amount = EXCLUDED.amount, is_active = EXCLUDED.is_active, renews_at = EXCLUDED.renews_at RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	if err := s.q.QueryRow(ctx, query, args...).Scan(&limit.ID); err != nil {
		return mapError(err, "limit for category", limit.Category)
	}
	return nil
}

func (s *Store) DeactivateLimit(ctx context.Context, limitID int64) error {
	query, args, err := s.sb.Update("limits").
		Set("is_active", false).
		Where(squirrel.Eq{"id": limitID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	tag, err := s.q.Exec(ctx, query, args...)
	if err != nil {
		return mapError(err, "limit", limitID)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("limit %d: %w", limitID, domain.ErrNotFound)
	}
	return nil
}

func scanLimit(row pgx.Row) (*domain.Limit, error) {
	var (
		l      domain.Limit
		amount string
	)
	if err := row.Scan(&l.ID, &l.AccountID, &l.Category, &amount, &l.IsActive, &l.CreatedAt, &l.RenewsAt); err != nil {
		return nil, err
	}
	a, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("parse limit amount: %w", err)
	}
	l.Amount = a
	return &l, nil
}

// Transaction operations

func (s *Store) RangeQuery(ctx context.Context, filter domain.TransactionFilter) ([]*domain.Transaction, error) {
	b := s.sb.Select(transactionColumns).From("transactions")
	if len(filter.AccountIDs) > 0 {
		if filter.SourceOnly {
			b = b.Where(squirrel.Eq{"source_account_id": filter.AccountIDs})
		} else {
			b = b.Where(squirrel.Or{
				squirrel.Eq{"source_account_id": filter.AccountIDs},
				squirrel.Eq{"destination_account_id": filter.AccountIDs},
			})
		}
	}
	if filter.Category != "" {
		b = b.Where("mcc_id IN (SELECT id FROM mccs WHERE category = ?)", filter.Category)
	}
	if filter.MCCID != 0 {
		b = b.Where(squirrel.Eq{"mcc_id": filter.MCCID})
	}
	if filter.Start != nil {
		b = b.Where(squirrel.GtOrEq{"created_at": *filter.Start})
	}
	if filter.End != nil {
		b = b.Where(squirrel.LtOrEq{"created_at": *filter.End})
	}

	query, args, err := b.OrderBy("created_at DESC", "id DESC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	rows, err := s.q.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, "transactions", filter.AccountIDs)
	}
	txs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.Transaction, error) {
		return scanTransaction(row)
	})
	if err != nil {
		return nil, mapError(err, "transactions", filter.AccountIDs)
	}
	return txs, nil
}

// RecurringCandidates aggregates in SQL. ROUND on numeric rounds half away
// from zero, matching decimal.Round used by the in-process grouping.
func (s *Store) RecurringCandidates(ctx context.Context, accountID int64, q domain.CandidateQuery, now time.Time) ([]*domain.RecurringCandidate, error) {
	since := now.AddDate(0, -q.MonthsBack, 0)
	query, args, err := s.sb.
		Select(
			"COALESCE(mcc_id, 0)",
			"amount_group",
			"ARRAY_AGG(amount::text ORDER BY created_at DESC)",
			"ARRAY_AGG(created_at ORDER BY created_at DESC)",
			"COUNT(*)",
			"MIN(created_at)",
			"MAX(created_at)",
			"COUNT(DISTINCT date_trunc('month', created_at))",
		).
		FromSelect(
			s.sb.Select("mcc_id", "amount", "created_at").
				Column(squirrel.Expr("(ROUND(amount / ?) * ?)::text AS amount_group", q.AmountBand, q.AmountBand)).
				From("transactions").
				Where(squirrel.Eq{"source_account_id": accountID, "transaction_type": string(domain.TransactionDebit)}).
				Where(squirrel.Gt{"created_at": since}),
			"t",
		).
		GroupBy("mcc_id", "amount_group").
		Having("COUNT(*) >= ?", q.MinTxCount).
		Having("COUNT(DISTINCT date_trunc('month', created_at)) >= ?", q.MinMonths).
		OrderBy("MAX(created_at) DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := s.q.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, "recurring candidates of account", accountID)
	}
	candidates, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.RecurringCandidate, error) {
		var (
			c       = domain.RecurringCandidate{AccountID: accountID}
			group   string
			amounts []string
		)
		err := row.Scan(&c.MCCID, &group, &amounts, &c.TransactionDates, &c.TxCount, &c.FirstDetected, &c.LastDetected, &c.MonthsWith)
		if err != nil {
			return nil, err
		}
		if c.AmountGroup, err = decimal.NewFromString(group); err != nil {
			return nil, fmt.Errorf("parse amount group: %w", err)
		}
		for _, raw := range amounts {
			a, err := decimal.NewFromString(raw)
			if err != nil {
				return nil, fmt.Errorf("parse amount: %w", err)
			}
			c.Amounts = append(c.Amounts, a)
		}
		return &c, nil
	})
	if err != nil {
		return nil, mapError(err, "recurring candidates of account", accountID)
	}
	return candidates, nil
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var (
		tx     domain.Transaction
		amount string
		typ    string
	)
	if err := row.Scan(&tx.ID, &tx.SourceAccountID, &tx.DestinationAccountID, &amount, &typ, &tx.MCCID, &tx.CreatedAt); err != nil {
		return nil, err
	}
	a, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("parse transaction amount: %w", err)
	}
	tx.Amount = a
	tx.Type = domain.TransactionType(typ)
	return &tx, nil
}

// MCC operations

func (s *Store) GetMCC(ctx context.Context, mccID int64) (*domain.MCC, error) {
	query, args, err := s.sb.Select(mccColumns).From("mccs").
		Where(squirrel.Eq{"id": mccID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	var m domain.MCC
	if err := s.q.QueryRow(ctx, query, args...).Scan(&m.ID, &m.Code, &m.Category, &m.SubCategory); err != nil {
		return nil, mapError(err, "mcc", mccID)
	}
	return &m, nil
}

func (s *Store) ListMCCs(ctx context.Context, mccIDs []int64) (map[int64]*domain.MCC, error) {
	out := make(map[int64]*domain.MCC, len(mccIDs))
	if len(mccIDs) == 0 {
		return out, nil
	}
	query, args, err := s.sb.Select(mccColumns).From("mccs").
		Where(squirrel.Eq{"id": mccIDs}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	rows, err := s.q.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, "mccs", mccIDs)
	}
	mccs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.MCC, error) {
		var m domain.MCC
		err := row.Scan(&m.ID, &m.Code, &m.Category, &m.SubCategory)
		return &m, err
	})
	if err != nil {
		return nil, mapError(err, "mccs", mccIDs)
	}
	for _, m := range mccs {
		out[m.ID] = m
	}
	return out, nil
}

// Offer operations

func (s *Store) OffersByCategories(ctx context.Context, categories []string) ([]*domain.Offer, error) {
	if len(categories) == 0 {
		return nil, nil
	}
	query, args, err := s.sb.
		Select("o.id", "o.mcc_id", "m.category", "m.sub_category", "o.description", "o.image_url").
		From("offers o").
		Join("mccs m ON m.id = o.mcc_id").
		Where(squirrel.Eq{"m.category": categories}).
		OrderBy("o.id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	rows, err := s.q.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, "offers", categories)
	}
	offers, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.Offer, error) {
		var o domain.Offer
		err := row.Scan(&o.ID, &o.MCCID, &o.Category, &o.SubCategory, &o.Description, &o.ImageURL)
		return &o, err
	})
	if err != nil {
		return nil, mapError(err, "offers", categories)
	}
	return offers, nil
}

// Recommendation schedule operations

func (s *Store) GetOrCreateSchedule(ctx context.Context, userID int64, kind domain.RecommendationKind, now time.Time) (*domain.Schedule, error) {
	// The no-op update makes RETURNING yield the existing row on conflict.
	query, args, err := s.sb.Insert("recommendation_schedules").
		Columns("user_id", "kind", "next_scheduled_at").
		Values(userID, string(kind), now).
		Suffix("ON CONFLICT (user_id, kind) DO UPDATE SET user_id = EXCLUDED.user_id RETURNING " + scheduleColumns).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	sched, err := scanSchedule(s.q.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, mapError(err, "schedule", kind)
	}
	return sched, nil
}

func (s *Store) SaveSchedule(ctx context.Context, schedule *domain.Schedule) error {
	query, args, err := s.sb.Insert("recommendation_schedules").
		Columns("user_id", "kind", "last_generated_at", "next_scheduled_at", "last_budget_period_end").
		Values(schedule.UserID, string(schedule.Kind), schedule.LastGeneratedAt, schedule.NextScheduledAt, schedule.LastBudgetPeriodEnd).
		Suffix("ON CONFLICT (user_id, kind) DO UPDATE SET last_generated_at = EXCLUDED.last_generated_at, next_scheduled_at = EXCLUDED.next_scheduled_at, last_budget_period_end = EXCLUDED.last_budget_period_end").
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	if _, err := s.q.Exec(ctx, query, args...); err != nil {
		return mapError(err, "schedule", schedule.Kind)
	}
	return nil
}

func (s *Store) ListSchedules(ctx context.Context) ([]*domain.Schedule, error) {
	query, args, err := s.sb.Select(scheduleColumns).From("recommendation_schedules").
		OrderBy("user_id", "kind").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	rows, err := s.q.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, "schedules", "all")
	}
	schedules, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.Schedule, error) {
		return scanSchedule(row)
	})
	if err != nil {
		return nil, mapError(err, "schedules", "all")
	}
	return schedules, nil
}

func (s *Store) DeleteSchedule(ctx context.Context, userID int64, kind domain.RecommendationKind) error {
	query, args, err := s.sb.Delete("recommendation_schedules").
		Where(squirrel.Eq{"user_id": userID, "kind": string(kind)}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	if _, err := s.q.Exec(ctx, query, args...); err != nil {
		return mapError(err, "schedule", kind)
	}
	return nil
}

func scanSchedule(row pgx.Row) (*domain.Schedule, error) {
	var (
		sched domain.Schedule
		kind  string
	)
	if err := row.Scan(&sched.UserID, &kind, &sched.LastGeneratedAt, &sched.NextScheduledAt, &sched.LastBudgetPeriodEnd); err != nil {
		return nil, err
	}
	sched.Kind = domain.RecommendationKind(kind)
	return &sched, nil
}

// Recommendation provenance

func (s *Store) CreateRecommendationRecord(ctx context.Context, record *domain.RecommendationRecord) error {
	query, args, err := s.sb.Insert("recommendations").
		Columns("id", "user_id", "kind", "source", "reason", "created_at").
		Values(record.ID, record.UserID, string(record.Kind), string(record.Source), record.Reason, record.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	if _, err := s.q.Exec(ctx, query, args...); err != nil {
		return mapError(err, "recommendation", record.ID)
	}
	return nil
}

// Seeder

func (s *Store) insertReturningID(ctx context.Context, table string, id *int64, values map[string]any) error {
	if *id != 0 {
		values["id"] = *id
	}
	query, args, err := s.sb.Insert(table).SetMap(values).Suffix("RETURNING id").ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	if err := s.q.QueryRow(ctx, query, args...).Scan(id); err != nil {
		return mapError(err, table, *id)
	}
	return nil
}

func (s *Store) CreateUser(ctx context.Context, user *domain.User) error {
	return s.insertReturningID(ctx, "users", &user.ID, map[string]any{
		"external_id": user.ExternalID,
		"username":    user.Username,
		"push_token":  user.PushToken,
	})
}

func (s *Store) CreateAccount(ctx context.Context, account *domain.Account) error {
	return s.insertReturningID(ctx, "accounts", &account.ID, map[string]any{
		"user_id":        account.UserID,
		"account_type":   string(account.Type),
		"account_number": account.AccountNumber,
		"card_number":    account.CardNumber,
		"balance":        account.Balance.String(),
	})
}

func (s *Store) CreateMCC(ctx context.Context, mcc *domain.MCC) error {
	return s.insertReturningID(ctx, "mccs", &mcc.ID, map[string]any{
		"code":         mcc.Code,
		"category":     mcc.Category,
		"sub_category": mcc.SubCategory,
	})
}

func (s *Store) CreateOffer(ctx context.Context, offer *domain.Offer) error {
	return s.insertReturningID(ctx, "offers", &offer.ID, map[string]any{
		"mcc_id":      offer.MCCID,
		"description": offer.Description,
		"image_url":   offer.ImageURL,
	})
}

func (s *Store) CreateTransaction(ctx context.Context, tx *domain.Transaction) error {
	return s.insertReturningID(ctx, "transactions", &tx.ID, map[string]any{
		"source_account_id":      nullableID(tx.SourceAccountID),
		"destination_account_id": nullableID(tx.DestinationAccountID),
		"amount":                 tx.Amount.String(),
		"transaction_type":       string(tx.Type),
		"mcc_id":                 nullableID(tx.MCCID),
		"created_at":             tx.CreatedAt,
	})
}

func nullableID(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}
