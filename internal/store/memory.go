package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/castlemilk/pfinance/insights/internal/domain"
)

type scheduleKey struct {
	userID int64
	kind   domain.RecommendationKind
}

// MemoryStore implements Store and Seeder with in-memory storage
type MemoryStore struct {
	mu sync.RWMutex

	users           map[int64]*domain.User
	accounts        map[int64]*domain.Account
	limits          map[int64]*domain.Limit
	transactions    map[int64]*domain.Transaction
	mccs            map[int64]*domain.MCC
	offers          map[int64]*domain.Offer
	schedules       map[scheduleKey]*domain.Schedule
	recommendations []*domain.RecommendationRecord

	nextID int64
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:        make(map[int64]*domain.User),
		accounts:     make(map[int64]*domain.Account),
		limits:       make(map[int64]*domain.Limit),
		transactions: make(map[int64]*domain.Transaction),
		mccs:         make(map[int64]*domain.MCC),
		offers:       make(map[int64]*domain.Offer),
		schedules:    make(map[scheduleKey]*domain.Schedule),
	}
}

func (s *MemoryStore) assignID(id *int64) {
	if *id == 0 {
		s.nextID++
		*id = s.nextID
	} else if *id > s.nextID {
		s.nextID = *id
	}
}

// User operations

func (s *MemoryStore) GetUserByExternalID(ctx context.Context, externalID string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.ExternalID == externalID {
			cp := *u
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("user %q: %w", externalID, domain.ErrNotFound)
}

func (s *MemoryStore) ListUsersWithPushTokens(ctx context.Context) ([]*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.User
	for _, u := range s.users {
		if u.PushToken != "" {
			cp := *u
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) UpdatePushToken(ctx context.Context, userID int64, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return fmt.Errorf("user %d: %w", userID, domain.ErrNotFound)
	}
	u.PushToken = token
	return nil
}

// Account operations

func (s *MemoryStore) ListAccounts(ctx context.Context, userID int64) ([]*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.Account
	for _, a := range s.accounts {
		if a.UserID == userID {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) GetAccount(ctx context.Context, accountID int64) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.accounts[accountID]
	if !ok {
		return nil, fmt.Errorf("account %d: %w", accountID, domain.ErrNotFound)
	}
	cp := *a
	return &cp, nil
}

// Limit operations

func (s *MemoryStore) ListLimits(ctx context.Context, accountID int64) ([]*domain.Limit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.Limit
	for _, l := range s.limits {
		if l.AccountID == accountID {
			cp := *l
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) GetLimit(ctx context.Context, limitID int64) (*domain.Limit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.limits[limitID]
	if !ok {
		return nil, fmt.Errorf("limit %d: %w", limitID, domain.ErrNotFound)
	}
	cp := *l
	return &cp, nil
}

func (s *MemoryStore) FindLimitByCategory(ctx context.Context, accountID int64, category string) (*domain.Limit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, l := range s.limits {
		if l.AccountID == accountID && l.Category == category {
			cp := *l
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("limit for account %d category %s: %w", accountID, category, domain.ErrNotFound)
}

func (s *MemoryStore) UpsertLimit(ctx context.Context, limit *domain.Limit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.assignID(&limit.ID)
	cp := *limit
	s.limits[limit.ID] = &cp
	return nil
}

func (s *MemoryStore) DeactivateLimit(ctx context.Context, limitID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.limits[limitID]
	if !ok {
		return fmt.Errorf("limit %d: %w", limitID, domain.ErrNotFound)
	}
	l.IsActive = false
	return nil
}

// Transaction operations

func (s *MemoryStore) RangeQuery(ctx context.Context, filter domain.TransactionFilter) ([]*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Transaction, 0)
	for _, tx := range s.transactions {
		if !s.matchesLocked(tx, filter) {
			continue
		}
		cp := *tx
		out = append(out, &cp)
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *MemoryStore) matchesLocked(tx *domain.Transaction, f domain.TransactionFilter) bool {
	if len(f.AccountIDs) > 0 {
		src := containsID(f.AccountIDs, tx.SourceAccountID)
		dst := !f.SourceOnly && containsID(f.AccountIDs, tx.DestinationAccountID)
		if !src && !dst {
			return false
		}
	}
	if f.MCCID != 0 && tx.MCCID != f.MCCID {
		return false
	}
	if f.Category != "" {
		mcc, ok := s.mccs[tx.MCCID]
		if !ok || mcc.Category != f.Category {
			return false
		}
	}
	if f.Start != nil && tx.CreatedAt.Before(*f.Start) {
		return false
	}
	if f.End != nil && tx.CreatedAt.After(*f.End) {
		return false
	}
	return true
}

func (s *MemoryStore) RecurringCandidates(ctx context.Context, accountID int64, q domain.CandidateQuery, now time.Time) ([]*domain.RecurringCandidate, error) {
	txs, err := s.RangeQuery(ctx, domain.TransactionFilter{AccountIDs: []int64{accountID}, SourceOnly: true})
	if err != nil {
		return nil, err
	}
	return GroupRecurringCandidates(accountID, txs, q, now), nil
}

// MCC operations

func (s *MemoryStore) GetMCC(ctx context.Context, mccID int64) (*domain.MCC, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.mccs[mccID]
	if !ok {
		return nil, fmt.Errorf("mcc %d: %w", mccID, domain.ErrNotFound)
	}
	cp := *m
	return &cp, nil
}

func (s *MemoryStore) ListMCCs(ctx context.Context, mccIDs []int64) (map[int64]*domain.MCC, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[int64]*domain.MCC, len(mccIDs))
	for _, id := range mccIDs {
		if m, ok := s.mccs[id]; ok {
			cp := *m
			out[id] = &cp
		}
	}
	return out, nil
}

// Offer operations

func (s *MemoryStore) OffersByCategories(ctx context.Context, categories []string) ([]*domain.Offer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	want := make(map[string]bool, len(categories))
	for _, c := range categories {
		want[c] = true
	}

	var out []*domain.Offer
	for _, o := range s.offers {
		mcc, ok := s.mccs[o.MCCID]
		if !ok || !want[mcc.Category] {
			continue
		}
		cp := *o
		cp.Category = mcc.Category
		cp.SubCategory = mcc.SubCategory
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Recommendation schedule operations

func (s *MemoryStore) GetOrCreateSchedule(ctx context.Context, userID int64, kind domain.RecommendationKind, now time.Time) (*domain.Schedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := scheduleKey{userID: userID, kind: kind}
	sched, ok := s.schedules[key]
	if !ok {
		sched = &domain.Schedule{UserID: userID, Kind: kind, NextScheduledAt: now}
		s.schedules[key] = sched
	}
	cp := *sched
	return &cp, nil
}

func (s *MemoryStore) SaveSchedule(ctx context.Context, schedule *domain.Schedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *schedule
	s.schedules[scheduleKey{userID: schedule.UserID, kind: schedule.Kind}] = &cp
	return nil
}

func (s *MemoryStore) ListSchedules(ctx context.Context) ([]*domain.Schedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Schedule, 0, len(s.schedules))
	for _, sched := range s.schedules {
		cp := *sched
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UserID != out[j].UserID {
			return out[i].UserID < out[j].UserID
		}
		return out[i].Kind < out[j].Kind
	})
	return out, nil
}

func (s *MemoryStore) DeleteSchedule(ctx context.Context, userID int64, kind domain.RecommendationKind) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.schedules, scheduleKey{userID: userID, kind: kind})
	return nil
}

// Recommendation provenance

func (s *MemoryStore) CreateRecommendationRecord(ctx context.Context, record *domain.RecommendationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *record
	s.recommendations = append(s.recommendations, &cp)
	return nil
}

// RecommendationRecords returns every provenance record for userID.
func (s *MemoryStore) RecommendationRecords(userID int64) []*domain.RecommendationRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.RecommendationRecord
	for _, r := range s.recommendations {
		if r.UserID == userID {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out
}

// Seeder

func (s *MemoryStore) CreateUser(ctx context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.assignID(&user.ID)
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

func (s *MemoryStore) CreateAccount(ctx context.Context, account *domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.assignID(&account.ID)
	cp := *account
	s.accounts[account.ID] = &cp
	return nil
}

func (s *MemoryStore) CreateMCC(ctx context.Context, mcc *domain.MCC) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.assignID(&mcc.ID)
	cp := *mcc
	s.mccs[mcc.ID] = &cp
	return nil
}

func (s *MemoryStore) CreateOffer(ctx context.Context, offer *domain.Offer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.assignID(&offer.ID)
	cp := *offer
	s.offers[offer.ID] = &cp
	return nil
}

func (s *MemoryStore) CreateTransaction(ctx context.Context, tx *domain.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.assignID(&tx.ID)
	cp := *tx
	s.transactions[tx.ID] = &cp
	return nil
}

func containsID(ids []int64, id int64) bool {
	if id == 0 {
		return false
	}
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func sortNewestFirst(txs []*domain.Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		if txs[i].CreatedAt.Equal(txs[j].CreatedAt) {
			return txs[i].ID > txs[j].ID
		}
		return txs[i].CreatedAt.After(txs[j].CreatedAt)
	})
}
