package store

import (
	"context"
	"time"

	"github.com/castlemilk/pfinance/insights/internal/domain"
)

//go:generate mockgen -source=store.go -destination=store_mock.go -package=store

// Store defines every persistence operation used by the services.
// Lookups of missing entities return an error wrapping domain.ErrNotFound.
type Store interface {
	// User operations
	GetUserByExternalID(ctx context.Context, externalID string) (*domain.User, error)
	ListUsersWithPushTokens(ctx context.Context) ([]*domain.User, error)
	UpdatePushToken(ctx context.Context, userID int64, token string) error

	// Account operations
	ListAccounts(ctx context.Context, userID int64) ([]*domain.Account, error)
	GetAccount(ctx context.Context, accountID int64) (*domain.Account, error)

	// Limit operations
	ListLimits(ctx context.Context, accountID int64) ([]*domain.Limit, error)
	GetLimit(ctx context.Context, limitID int64) (*domain.Limit, error)
	FindLimitByCategory(ctx context.Context, accountID int64, category string) (*domain.Limit, error)
	// UpsertLimit inserts a limit with a zero ID (assigning one) or replaces it.
	UpsertLimit(ctx context.Context, limit *domain.Limit) error
	DeactivateLimit(ctx context.Context, limitID int64) error

	// Transaction operations
	RangeQuery(ctx context.Context, filter domain.TransactionFilter) ([]*domain.Transaction, error)
	// RecurringCandidates groups the account's debits since now minus
	// q.MonthsBack by (MCC, amount band).
	RecurringCandidates(ctx context.Context, accountID int64, q domain.CandidateQuery, now time.Time) ([]*domain.RecurringCandidate, error)

	// MCC operations
	GetMCC(ctx context.Context, mccID int64) (*domain.MCC, error)
	ListMCCs(ctx context.Context, mccIDs []int64) (map[int64]*domain.MCC, error)

	// Offer operations
	OffersByCategories(ctx context.Context, categories []string) ([]*domain.Offer, error)

	// Recommendation schedule operations
	GetOrCreateSchedule(ctx context.Context, userID int64, kind domain.RecommendationKind, now time.Time) (*domain.Schedule, error)
	SaveSchedule(ctx context.Context, schedule *domain.Schedule) error
	ListSchedules(ctx context.Context) ([]*domain.Schedule, error)
	DeleteSchedule(ctx context.Context, userID int64, kind domain.RecommendationKind) error

	// Recommendation provenance
	CreateRecommendationRecord(ctx context.Context, record *domain.RecommendationRecord) error
}

// Seeder loads reference and demo data. Every concrete store implements it.
// A zero ID is assigned by the store.
type Seeder interface {
	CreateUser(ctx context.Context, user *domain.User) error
	CreateAccount(ctx context.Context, account *domain.Account) error
	CreateMCC(ctx context.Context, mcc *domain.MCC) error
	CreateOffer(ctx context.Context, offer *domain.Offer) error
	CreateTransaction(ctx context.Context, tx *domain.Transaction) error
}
