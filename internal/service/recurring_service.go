package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/castlemilk/pfinance/insights/internal/config"
	"github.com/castlemilk/pfinance/insights/internal/domain"
	"github.com/castlemilk/pfinance/insights/internal/store"
)

// DetectOptions tunes one detection run.
type DetectOptions struct {
	domain.CandidateQuery
	MinConfidence float64
}

// DetectOptionsFromConfig maps the configured detector defaults.
func DetectOptionsFromConfig(cfg config.RecurringConfig) DetectOptions {
	return DetectOptions{
		CandidateQuery: domain.CandidateQuery{
			MinMonths:  cfg.MinMonths,
			MinTxCount: cfg.MinTxCount,
			MonthsBack: cfg.MonthsBack,
			AmountBand: cfg.AmountBand,
		},
		MinConfidence: cfg.MinConfidence,
	}
}

// Validate checks the option ranges.
func (o DetectOptions) Validate() error {
	var errs []domain.FieldError
	if o.MonthsBack <= 0 {
		errs = append(errs, domain.FieldError{Field: "months_back", Message: "must be positive"})
	}
	if o.AmountBand <= 0 {
		errs = append(errs, domain.FieldError{Field: "amount_band", Message: "must be positive"})
	}
	if o.MinMonths <= 0 {
		errs = append(errs, domain.FieldError{Field: "min_months", Message: "must be positive"})
	}
	if o.MinTxCount <= 0 {
		errs = append(errs, domain.FieldError{Field: "min_tx_count", Message: "must be positive"})
	}
	if o.MinConfidence < 0 || o.MinConfidence > 1 {
		errs = append(errs, domain.FieldError{Field: "min_confidence", Message: "must be within [0, 1]"})
	}
	return domain.NewValidationErrors(errs)
}

// RecurringService finds subscription-like payments on an account.
type RecurringService struct {
	store    store.Store
	defaults DetectOptions
	now      func() time.Time
	log      *slog.Logger
}

// NewRecurringService creates a RecurringService. now may be nil.
func NewRecurringService(log *slog.Logger, s store.Store, defaults DetectOptions, now func() time.Time) *RecurringService {
	if now == nil {
		now = time.Now
	}
	return &RecurringService{store: s, defaults: defaults, now: now, log: log.With("service", "recurring")}
}

// Defaults returns the options used when a caller supplies none.
func (s *RecurringService) Defaults() DetectOptions { return s.defaults }

// DetectRecurringPayments runs the detector over the account's recent
// debits. Candidates whose MCC cannot be resolved are dropped.
func (s *RecurringService) DetectRecurringPayments(ctx context.Context, userID, accountID int64, opts DetectOptions) ([]domain.RecurringPayment, error) {
	if err := validateIDs(userID, accountID); err != nil {
		return nil, err
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if _, err := ownedAccount(ctx, s.store, userID, accountID); err != nil {
		return nil, err
	}

	now := s.now()
	candidates, err := s.store.RecurringCandidates(ctx, accountID, opts.CandidateQuery, now)
	if err != nil {
		return nil, fmt.Errorf("recurring candidates: %w", err)
	}

	ids := make([]int64, 0, len(candidates))
	for _, c := range candidates {
		ids = append(ids, c.MCCID)
	}
	mccs, err := s.store.ListMCCs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve mccs: %w", err)
	}

	payments := make([]domain.RecurringPayment, 0, len(candidates))
	dropped := 0
	for _, c := range candidates {
		mcc, ok := mccs[c.MCCID]
		if !ok {
			dropped++
			continue
		}
		p := scoreCandidate(c, mcc, now)
		if p.ConfidenceScore < opts.MinConfidence {
			continue
		}
		payments = append(payments, p)
	}

	s.log.InfoContext(ctx, "recurring payments detected",
		slog.Int64("account_id", accountID),
		slog.Int("candidates", len(candidates)),
		slog.Int("unresolved", dropped),
		slog.Int("detected", len(payments)))
	return payments, nil
}
