package store

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/castlemilk/pfinance/insights/internal/domain"
	"github.com/shopspring/decimal"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Firestore caps "in" filters at 30 values.
const firestoreInLimit = 30

// FirestoreStore implements the Store interface using Firestore.
// Documents are keyed by their decimal id; amounts are stored as strings
// to keep exact decimal values.
type FirestoreStore struct {
	client *firestore.Client
}

// NewFirestoreStore creates a new Firestore-backed store
func NewFirestoreStore(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{
		client: client,
	}
}

type userDoc struct {
	ID         int64
	ExternalID string
	Username   string
	PushToken  string
}

type accountDoc struct {
	ID            int64
	UserID        int64
	Type          string
	AccountNumber string
	CardNumber    string
	Balance       string
}

type limitDoc struct {
	ID        int64
	AccountID int64
	Category  string
	Amount    string
	IsActive  bool
	CreatedAt time.Time
	RenewsAt  time.Time
}

type transactionDoc struct {
	ID                   int64
	SourceAccountID      int64
	DestinationAccountID int64
	Amount               string
	Type                 string
	MCCID                int64
	CreatedAt            time.Time
}

type mccDoc struct {
	ID          int64
	Code        string
	Category    string
	SubCategory string
}

type offerDoc struct {
	ID          int64
	MCCID       int64
	Description string
	ImageURL    string
}

type scheduleDoc struct {
	UserID              int64
	Kind                string
	LastGeneratedAt     *time.Time
	NextScheduledAt     time.Time
	LastBudgetPeriodEnd *time.Time
}

type recommendationDoc struct {
	ID        string
	UserID    int64
	Kind      string
	Source    string
	Reason    string
	CreatedAt time.Time
}

func docID(id int64) string { return strconv.FormatInt(id, 10) }

func scheduleDocID(userID int64, kind domain.RecommendationKind) string {
	return fmt.Sprintf("%d_%s", userID, kind)
}

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

// nextID allocates a sequential id for collection inside a transaction.
func (s *FirestoreStore) nextID(ctx context.Context, collection string) (int64, error) {
	ref := s.client.Collection("counters").Doc(collection)
	var id int64
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		var current int64
		doc, err := tx.Get(ref)
		switch {
		case err == nil:
			v, err := doc.DataAt("Next")
			if err != nil {
				return err
			}
			current, _ = v.(int64)
		case !isNotFound(err):
			return err
		}
		id = current + 1
		return tx.Set(ref, map[string]interface{}{"Next": id})
	})
	if err != nil {
		return 0, fmt.Errorf("allocate %s id: %w", collection, err)
	}
	return id, nil
}

func (s *FirestoreStore) ensureID(ctx context.Context, collection string, id *int64) error {
	if *id != 0 {
		return nil
	}
	next, err := s.nextID(ctx, collection)
	if err != nil {
		return err
	}
	*id = next
	return nil
}

func parseAmount(raw string) decimal.Decimal {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// User operations

func (s *FirestoreStore) GetUserByExternalID(ctx context.Context, externalID string) (*domain.User, error) {
	docs, err := s.client.Collection("users").Where("ExternalID", "==", externalID).Limit(1).Documents(ctx).GetAll()
	if err != nil {
		return nil, domain.Persistence("get user", err)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("user %q: %w", externalID, domain.ErrNotFound)
	}
	var d userDoc
	if err := docs[0].DataTo(&d); err != nil {
		return nil, fmt.Errorf("failed to parse user: %w", err)
	}
	return userFromDoc(d), nil
}

func (s *FirestoreStore) ListUsersWithPushTokens(ctx context.Context) ([]*domain.User, error) {
	docs, err := s.client.Collection("users").Where("PushToken", "!=", "").Documents(ctx).GetAll()
	if err != nil {
		return nil, domain.Persistence("list users", err)
	}
	users := make([]*domain.User, 0, len(docs))
	for _, doc := range docs {
		var d userDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, fmt.Errorf("failed to parse user: %w", err)
		}
		users = append(users, userFromDoc(d))
	}
	return users, nil
}

func (s *FirestoreStore) UpdatePushToken(ctx context.Context, userID int64, token string) error {
	_, err := s.client.Collection("users").Doc(docID(userID)).Update(ctx, []firestore.Update{
		{Path: "PushToken", Value: token},
	})
	if isNotFound(err) {
		return fmt.Errorf("user %d: %w", userID, domain.ErrNotFound)
	}
	return domain.Persistence("update push token", err)
}

func userFromDoc(d userDoc) *domain.User {
	return &domain.User{ID: d.ID, ExternalID: d.ExternalID, Username: d.Username, PushToken: d.PushToken}
}

// Account operations

func (s *FirestoreStore) ListAccounts(ctx context.Context, userID int64) ([]*domain.Account, error) {
	docs, err := s.client.Collection("accounts").Where("UserID", "==", userID).OrderBy("ID", firestore.Asc).Documents(ctx).GetAll()
	if err != nil {
		return nil, domain.Persistence("list accounts", err)
	}
	accounts := make([]*domain.Account, 0, len(docs))
	for _, doc := range docs {
		var d accountDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, fmt.Errorf("failed to parse account: %w", err)
		}
		accounts = append(accounts, accountFromDoc(d))
	}
	return accounts, nil
}

func (s *FirestoreStore) GetAccount(ctx context.Context, accountID int64) (*domain.Account, error) {
	doc, err := s.client.Collection("accounts").Doc(docID(accountID)).Get(ctx)
	if isNotFound(err) {
		return nil, fmt.Errorf("account %d: %w", accountID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, domain.Persistence("get account", err)
	}
	var d accountDoc
	if err := doc.DataTo(&d); err != nil {
		return nil, fmt.Errorf("failed to parse account: %w", err)
	}
	return accountFromDoc(d), nil
}

func accountFromDoc(d accountDoc) *domain.Account {
	return &domain.Account{
		ID:            d.ID,
		UserID:        d.UserID,
		Type:          domain.AccountType(d.Type),
		AccountNumber: d.AccountNumber,
		CardNumber:    d.CardNumber,
		Balance:       parseAmount(d.Balance),
	}
}

// Limit operations

func (s *FirestoreStore) ListLimits(ctx context.Context, accountID int64) ([]*domain.Limit, error) {
	docs, err := s.client.Collection("limits").Where("AccountID", "==", accountID).Documents(ctx).GetAll()
	if err != nil {
		return nil, domain.Persistence("list limits", err)
	}
	limits := make([]*domain.Limit, 0, len(docs))
	for _, doc := range docs {
		var d limitDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, fmt.Errorf("failed to parse limit: %w", err)
		}
		limits = append(limits, limitFromDoc(d))
	}
	return limits, nil
}

func (s *FirestoreStore) GetLimit(ctx context.Context, limitID int64) (*domain.Limit, error) {
	doc, err := s.client.Collection("limits").Doc(docID(limitID)).Get(ctx)
	if isNotFound(err) {
		return nil, fmt.Errorf("limit %d: %w", limitID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, domain.Persistence("get limit", err)
	}
	var d limitDoc
	if err := doc.DataTo(&d); err != nil {
		return nil, fmt.Errorf("failed to parse limit: %w", err)
	}
	return limitFromDoc(d), nil
}

func (s *FirestoreStore) FindLimitByCategory(ctx context.Context, accountID int64, category string) (*domain.Limit, error) {
	docs, err := s.client.Collection("limits").
		Where("AccountID", "==", accountID).
		Where("Category", "==", category).
		Limit(1).Documents(ctx).GetAll()
	if err != nil {
		return nil, domain.Persistence("find limit", err)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("limit for account %d category %s: %w", accountID, category, domain.ErrNotFound)
	}
	var d limitDoc
	if err := docs[0].DataTo(&d); err != nil {
		return nil, fmt.Errorf("failed to parse limit: %w", err)
	}
	return limitFromDoc(d), nil
}

func (s *FirestoreStore) UpsertLimit(ctx context.Context, limit *domain.Limit) error {
	if err := s.ensureID(ctx, "limits", &limit.ID); err != nil {
		return domain.Persistence("upsert limit", err)
	}
	d := limitDoc{
		ID:        limit.ID,
		AccountID: limit.AccountID,
		Category:  limit.Category,
		Amount:    limit.Amount.String(),
		IsActive:  limit.IsActive,
		CreatedAt: limit.CreatedAt,
		RenewsAt:  limit.RenewsAt,
	}
	_, err := s.client.Collection("limits").Doc(docID(limit.ID)).Set(ctx, d)
	return domain.Persistence("upsert limit", err)
}

func (s *FirestoreStore) DeactivateLimit(ctx context.Context, limitID int64) error {
	_, err := s.client.Collection("limits").Doc(docID(limitID)).Update(ctx, []firestore.Update{
		{Path: "IsActive", Value: false},
	})
	if isNotFound(err) {
		return fmt.Errorf("limit %d: %w", limitID, domain.ErrNotFound)
	}
	return domain.Persistence("deactivate limit", err)
}

func limitFromDoc(d limitDoc) *domain.Limit {
	return &domain.Limit{
		ID:        d.ID,
		AccountID: d.AccountID,
		Category:  d.Category,
		Amount:    parseAmount(d.Amount),
		IsActive:  d.IsActive,
		CreatedAt: d.CreatedAt,
		RenewsAt:  d.RenewsAt,
	}
}

// Transaction operations

func (s *FirestoreStore) RangeQuery(ctx context.Context, filter domain.TransactionFilter) ([]*domain.Transaction, error) {
	var categoryMCCs map[int64]bool
	if filter.Category != "" {
		ids, err := s.mccIDsForCategory(ctx, filter.Category)
		if err != nil {
			return nil, err
		}
		if len(ids) == 0 {
			return []*domain.Transaction{}, nil
		}
		categoryMCCs = ids
	}

	var out []*domain.Transaction
	for _, accountIDs := range chunkIDs(filter.AccountIDs) {
		query := s.client.Collection("transactions").Query
		if len(accountIDs) > 0 {
			if filter.SourceOnly {
				query = query.Where("SourceAccountID", "in", accountIDs)
			} else {
				query = query.WhereEntity(firestore.OrFilter{
					Filters: []firestore.EntityFilter{
						firestore.PropertyFilter{Path: "SourceAccountID", Operator: "in", Value: accountIDs},
						firestore.PropertyFilter{Path: "DestinationAccountID", Operator: "in", Value: accountIDs},
					},
				})
			}
		}
		if filter.MCCID != 0 {
			query = query.Where("MCCID", "==", filter.MCCID)
		}
		if filter.Start != nil {
			query = query.Where("CreatedAt", ">=", *filter.Start)
		}
		if filter.End != nil {
			query = query.Where("CreatedAt", "<=", *filter.End)
		}

		docs, err := query.OrderBy("CreatedAt", firestore.Desc).Documents(ctx).GetAll()
		if err != nil {
			return nil, domain.Persistence("query transactions", err)
		}
		for _, doc := range docs {
			var d transactionDoc
			if err := doc.DataTo(&d); err != nil {
				return nil, fmt.Errorf("failed to parse transaction: %w", err)
			}
			if categoryMCCs != nil && !categoryMCCs[d.MCCID] {
				continue
			}
			out = append(out, transactionFromDoc(d))
		}
	}
	if out == nil {
		out = []*domain.Transaction{}
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *FirestoreStore) RecurringCandidates(ctx context.Context, accountID int64, q domain.CandidateQuery, now time.Time) ([]*domain.RecurringCandidate, error) {
	since := now.AddDate(0, -q.MonthsBack, 0)
	docs, err := s.client.Collection("transactions").
		Where("SourceAccountID", "==", accountID).
		Where("Type", "==", string(domain.TransactionDebit)).
		Where("CreatedAt", ">", since).
		Documents(ctx).GetAll()
	if err != nil {
		return nil, domain.Persistence("query recurring candidates", err)
	}
	txs := make([]*domain.Transaction, 0, len(docs))
	for _, doc := range docs {
		var d transactionDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, fmt.Errorf("failed to parse transaction: %w", err)
		}
		txs = append(txs, transactionFromDoc(d))
	}
	return GroupRecurringCandidates(accountID, txs, q, now), nil
}

func transactionFromDoc(d transactionDoc) *domain.Transaction {
	return &domain.Transaction{
		ID:                   d.ID,
		SourceAccountID:      d.SourceAccountID,
		DestinationAccountID: d.DestinationAccountID,
		Amount:               parseAmount(d.Amount),
		Type:                 domain.TransactionType(d.Type),
		MCCID:                d.MCCID,
		CreatedAt:            d.CreatedAt,
	}
}

// MCC operations

func (s *FirestoreStore) GetMCC(ctx context.Context, mccID int64) (*domain.MCC, error) {
	doc, err := s.client.Collection("mccs").Doc(docID(mccID)).Get(ctx)
	if isNotFound(err) {
		return nil, fmt.Errorf("mcc %d: %w", mccID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, domain.Persistence("get mcc", err)
	}
	var d mccDoc
	if err := doc.DataTo(&d); err != nil {
		return nil, fmt.Errorf("failed to parse mcc: %w", err)
	}
	return mccFromDoc(d), nil
}

func (s *FirestoreStore) ListMCCs(ctx context.Context, mccIDs []int64) (map[int64]*domain.MCC, error) {
	out := make(map[int64]*domain.MCC, len(mccIDs))
	if len(mccIDs) == 0 {
		return out, nil
	}
	refs := make([]*firestore.DocumentRef, 0, len(mccIDs))
	for _, id := range mccIDs {
		refs = append(refs, s.client.Collection("mccs").Doc(docID(id)))
	}
	docs, err := s.client.GetAll(ctx, refs)
	if err != nil {
		return nil, domain.Persistence("list mccs", err)
	}
	for _, doc := range docs {
		if !doc.Exists() {
			continue
		}
		var d mccDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, fmt.Errorf("failed to parse mcc: %w", err)
		}
		out[d.ID] = mccFromDoc(d)
	}
	return out, nil
}

func (s *FirestoreStore) mccIDsForCategory(ctx context.Context, category string) (map[int64]bool, error) {
	docs, err := s.client.Collection("mccs").Where("Category", "==", category).Documents(ctx).GetAll()
	if err != nil {
		return nil, domain.Persistence("list mccs by category", err)
	}
	ids := make(map[int64]bool, len(docs))
	for _, doc := range docs {
		var d mccDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, fmt.Errorf("failed to parse mcc: %w", err)
		}
		ids[d.ID] = true
	}
	return ids, nil
}

func mccFromDoc(d mccDoc) *domain.MCC {
	return &domain.MCC{ID: d.ID, Code: d.Code, Category: d.Category, SubCategory: d.SubCategory}
}

// Offer operations

func (s *FirestoreStore) OffersByCategories(ctx context.Context, categories []string) ([]*domain.Offer, error) {
	if len(categories) == 0 {
		return nil, nil
	}
	mccs := make(map[int64]mccDoc)
	for start := 0; start < len(categories); start += firestoreInLimit {
		end := min(start+firestoreInLimit, len(categories))
		docs, err := s.client.Collection("mccs").Where("Category", "in", categories[start:end]).Documents(ctx).GetAll()
		if err != nil {
			return nil, domain.Persistence("list offer mccs", err)
		}
		for _, doc := range docs {
			var d mccDoc
			if err := doc.DataTo(&d); err != nil {
				return nil, fmt.Errorf("failed to parse mcc: %w", err)
			}
			mccs[d.ID] = d
		}
	}
	if len(mccs) == 0 {
		return nil, nil
	}

	mccIDs := make([]int64, 0, len(mccs))
	for id := range mccs {
		mccIDs = append(mccIDs, id)
	}

	var offers []*domain.Offer
	for _, ids := range chunkIDs(mccIDs) {
		docs, err := s.client.Collection("offers").Where("MCCID", "in", ids).Documents(ctx).GetAll()
		if err != nil {
			return nil, domain.Persistence("list offers", err)
		}
		for _, doc := range docs {
			var d offerDoc
			if err := doc.DataTo(&d); err != nil {
				return nil, fmt.Errorf("failed to parse offer: %w", err)
			}
			mcc := mccs[d.MCCID]
			offers = append(offers, &domain.Offer{
				ID:          d.ID,
				MCCID:       d.MCCID,
				Category:    mcc.Category,
				SubCategory: mcc.SubCategory,
				Description: d.Description,
				ImageURL:    d.ImageURL,
			})
		}
	}
	return offers, nil
}

// Recommendation schedule operations

func (s *FirestoreStore) GetOrCreateSchedule(ctx context.Context, userID int64, kind domain.RecommendationKind, now time.Time) (*domain.Schedule, error) {
	ref := s.client.Collection("recommendation_schedules").Doc(scheduleDocID(userID, kind))
	var d scheduleDoc
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(ref)
		if err == nil {
			return doc.DataTo(&d)
		}
		if !isNotFound(err) {
			return err
		}
		d = scheduleDoc{UserID: userID, Kind: string(kind), NextScheduledAt: now}
		return tx.Create(ref, d)
	})
	if err != nil {
		return nil, domain.Persistence("get or create schedule", err)
	}
	return scheduleFromDoc(d), nil
}

func (s *FirestoreStore) SaveSchedule(ctx context.Context, schedule *domain.Schedule) error {
	d := scheduleDoc{
		UserID:              schedule.UserID,
		Kind:                string(schedule.Kind),
		LastGeneratedAt:     schedule.LastGeneratedAt,
		NextScheduledAt:     schedule.NextScheduledAt,
		LastBudgetPeriodEnd: schedule.LastBudgetPeriodEnd,
	}
	_, err := s.client.Collection("recommendation_schedules").Doc(scheduleDocID(schedule.UserID, schedule.Kind)).Set(ctx, d)
	return domain.Persistence("save schedule", err)
}

func (s *FirestoreStore) ListSchedules(ctx context.Context) ([]*domain.Schedule, error) {
	iter := s.client.Collection("recommendation_schedules").Documents(ctx)
	defer iter.Stop()

	var schedules []*domain.Schedule
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, domain.Persistence("list schedules", err)
		}
		var d scheduleDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, fmt.Errorf("failed to parse schedule: %w", err)
		}
		schedules = append(schedules, scheduleFromDoc(d))
	}
	return schedules, nil
}

func (s *FirestoreStore) DeleteSchedule(ctx context.Context, userID int64, kind domain.RecommendationKind) error {
	_, err := s.client.Collection("recommendation_schedules").Doc(scheduleDocID(userID, kind)).Delete(ctx)
	return domain.Persistence("delete schedule", err)
}

func scheduleFromDoc(d scheduleDoc) *domain.Schedule {
	return &domain.Schedule{
		UserID:              d.UserID,
		Kind:                domain.RecommendationKind(d.Kind),
		LastGeneratedAt:     d.LastGeneratedAt,
		NextScheduledAt:     d.NextScheduledAt,
		LastBudgetPeriodEnd: d.LastBudgetPeriodEnd,
	}
}

// Recommendation provenance

func (s *FirestoreStore) CreateRecommendationRecord(ctx context.Context, record *domain.RecommendationRecord) error {
	d := recommendationDoc{
		ID:        record.ID,
		UserID:    record.UserID,
		Kind:      string(record.Kind),
		Source:    string(record.Source),
		Reason:    record.Reason,
		CreatedAt: record.CreatedAt,
	}
	_, err := s.client.Collection("recommendations").Doc(record.ID).Set(ctx, d)
	return domain.Persistence("create recommendation record", err)
}

// Seeder

func (s *FirestoreStore) CreateUser(ctx context.Context, user *domain.User) error {
	if err := s.ensureID(ctx, "users", &user.ID); err != nil {
		return err
	}
	d := userDoc{ID: user.ID, ExternalID: user.ExternalID, Username: user.Username, PushToken: user.PushToken}
	_, err := s.client.Collection("users").Doc(docID(user.ID)).Set(ctx, d)
	return domain.Persistence("create user", err)
}

func (s *FirestoreStore) CreateAccount(ctx context.Context, account *domain.Account) error {
	if err := s.ensureID(ctx, "accounts", &account.ID); err != nil {
		return err
	}
	d := accountDoc{
		ID:            account.ID,
		UserID:        account.UserID,
		Type:          string(account.Type),
		AccountNumber: account.AccountNumber,
		CardNumber:    account.CardNumber,
		Balance:       account.Balance.String(),
	}
	_, err := s.client.Collection("accounts").Doc(docID(account.ID)).Set(ctx, d)
	return domain.Persistence("create account", err)
}

func (s *FirestoreStore) CreateMCC(ctx context.Context, mcc *domain.MCC) error {
	if err := s.ensureID(ctx, "mccs", &mcc.ID); err != nil {
		return err
	}
	d := mccDoc{ID: mcc.ID, Code: mcc.Code, Category: mcc.Category, SubCategory: mcc.SubCategory}
	_, err := s.client.Collection("mccs").Doc(docID(mcc.ID)).Set(ctx, d)
	return domain.Persistence("create mcc", err)
}

func (s *FirestoreStore) CreateOffer(ctx context.Context, offer *domain.Offer) error {
	if err := s.ensureID(ctx, "offers", &offer.ID); err != nil {
		return err
	}
	d := offerDoc{ID: offer.ID, MCCID: offer.MCCID, Description: offer.Description, ImageURL: offer.ImageURL}
	_, err := s.client.Collection("offers").Doc(docID(offer.ID)).Set(ctx, d)
	return domain.Persistence("create offer", err)
}

func (s *FirestoreStore) CreateTransaction(ctx context.Context, tx *domain.Transaction) error {
	if err := s.ensureID(ctx, "transactions", &tx.ID); err != nil {
		return err
	}
	d := transactionDoc{
		ID:                   tx.ID,
		SourceAccountID:      tx.SourceAccountID,
		DestinationAccountID: tx.DestinationAccountID,
		Amount:               tx.Amount.String(),
		Type:                 string(tx.Type),
		MCCID:                tx.MCCID,
		CreatedAt:            tx.CreatedAt,
	}
	_, err := s.client.Collection("transactions").Doc(docID(tx.ID)).Set(ctx, d)
	return domain.Persistence("create transaction", err)
}

// chunkIDs splits ids into groups accepted by an "in" filter. An empty
// input yields a single empty chunk so unfiltered queries still run once.
func chunkIDs(ids []int64) [][]int64 {
	if len(ids) == 0 {
		return [][]int64{nil}
	}
	var chunks [][]int64
	for start := 0; start < len(ids); start += firestoreInLimit {
		end := min(start+firestoreInLimit, len(ids))
		chunks = append(chunks, ids[start:end])
	}
	return chunks
}
