package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/castlemilk/pfinance/insights/internal/cache"
	"github.com/castlemilk/pfinance/insights/internal/domain"
	"github.com/castlemilk/pfinance/insights/internal/resilience"
	"github.com/castlemilk/pfinance/insights/internal/store"
)

const (
	offersCadence        = 7 * 24 * time.Hour
	quickInsightsCadence = 24 * time.Hour
	// maxSpendCategories bounds how many spend categories feed offer matching.
	maxSpendCategories = 5
)

var (
	errAdvisorDisabled = errors.New("advisor disabled")
	errBreakerOpen     = errors.New("circuit breaker open")
	errAdvisorSkipped  = errors.New("advisor skipped")
)

// Advisor produces AI-written recommendations. *advisor.Client implements it.
type Advisor interface {
	CategoryRecommendations(ctx context.Context, adherences []domain.CategoryAdherence) ([]domain.CategoryRecommendation, error)
	OffersRecommendation(ctx context.Context, spendCategories []string, offers []*domain.Offer) (*domain.OffersRecommendation, error)
	QuickInsights(ctx context.Context, thisMonth, lastMonth *domain.CashFlow, adherence *domain.BudgetAdherence) (*domain.QuickInsights, error)
}

// RecommendationConfig wires a RecommendationService.
type RecommendationConfig struct {
	Store        store.Store
	Cache        *cache.Cache
	Breakers     *resilience.Registry
	Advisor      Advisor // nil serves fallbacks only
	Adherence    *AdherenceService
	Transactions *TransactionService
	// AdvisorTimeout bounds a single advisor call.
	AdvisorTimeout time.Duration
	Now            func() time.Time
}

// RecommendationService decides per (user, kind) whether recommendations
// are due, regenerates them through the advisor or the rule-based
// fallback, and serves cached results in between.
type RecommendationService struct {
	store        store.Store
	cache        *cache.Cache
	breakers     *resilience.Registry
	advisor      Advisor
	adherence    *AdherenceService
	transactions *TransactionService
	timeout      time.Duration
	now          func() time.Time
	log          *slog.Logger

	inflight singleflight.Group
}

// NewRecommendationService creates a RecommendationService.
func NewRecommendationService(log *slog.Logger, cfg RecommendationConfig) *RecommendationService {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	timeout := cfg.AdvisorTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &RecommendationService{
		store:        cfg.Store,
		cache:        cfg.Cache,
		breakers:     cfg.Breakers,
		advisor:      cfg.Advisor,
		adherence:    cfg.Adherence,
		transactions: cfg.Transactions,
		timeout:      timeout,
		now:          now,
		log:          log.With("service", "recommendation"),
	}
}

// plan describes how one recommendation kind is scheduled and produced.
type plan[T any] struct {
	kind domain.RecommendationKind
	ns   cache.Namespace
	due  func(sched *domain.Schedule, now time.Time) bool
	// reschedule advances the schedule after a generation at now.
	reschedule func(sched *domain.Schedule, now time.Time)
	// useAdvisor may veto the advisor call; nil always allows it.
	useAdvisor func(ctx context.Context) (bool, error)
	// clone detaches a payload from the cached one so callers may mutate
	// what they are handed.
	clone      func(T) T
	generate   func(ctx context.Context) (T, error)
	fallback   func(ctx context.Context) (T, error)
}

// CategoryRecommendations returns advice per budget category. It is
// regenerated when a category period has closed since the last run.
func (s *RecommendationService) CategoryRecommendations(ctx context.Context, userID int64) (*domain.Generated[[]domain.CategoryRecommendation], error) {
	if err := validateIDs(userID); err != nil {
		return nil, err
	}
	adherence, err := s.adherence.CheckBudgetAdherence(ctx, userID)
	if err != nil {
		return nil, err
	}
	categories := adherence.CategoryAdherences
	if len(categories) == 0 {
		return &domain.Generated[[]domain.CategoryRecommendation]{
			Payload:       []domain.CategoryRecommendation{},
			Source:        domain.SourceFallback,
			NextRefreshAt: s.now(),
		}, nil
	}

	return serve(ctx, s, userID, plan[[]domain.CategoryRecommendation]{
		kind: domain.KindCategory,
		ns:   cache.RecommendationCategory,
		due: func(sched *domain.Schedule, now time.Time) bool {
			return categoryDue(sched, categories, now)
		},
		reschedule: func(sched *domain.Schedule, now time.Time) {
			end := earliestPeriodEnd(categories)
			sched.NextScheduledAt = end
			sched.LastBudgetPeriodEnd = &end
		},
		clone: slices.Clone[[]domain.CategoryRecommendation],
		generate: func(ctx context.Context) ([]domain.CategoryRecommendation, error) {
			return s.advisor.CategoryRecommendations(ctx, categories)
		},
		fallback: func(ctx context.Context) ([]domain.CategoryRecommendation, error) {
			offers, err := s.store.OffersByCategories(ctx, adherenceCategories(categories))
			if err != nil {
				s.log.WarnContext(ctx, "offers lookup for fallback failed", slog.Any("error", err))
			}
			return FallbackCategoryRecommendations(categories, offers), nil
		},
	})
}

type offerInputs struct {
	categories []string
	offers     []*domain.Offer
}

// OffersRecommendation matches partner offers to the user's spending.
func (s *RecommendationService) OffersRecommendation(ctx context.Context, userID int64) (*domain.Generated[*domain.OffersRecommendation], error) {
	if err := validateIDs(userID); err != nil {
		return nil, err
	}

	// Inputs may be gathered on behalf of other waiters, so they ignore
	// this caller's cancellation.
	base := context.WithoutCancel(ctx)
	load := sync.OnceValues(func() (offerInputs, error) {
		flow, err := s.transactions.CashFlow(base, userID, 0)
		if err != nil {
			return offerInputs{}, err
		}
		categories := spendCategories(flow)
		offers, err := s.store.OffersByCategories(base, categories)
		if err != nil {
			return offerInputs{}, fmt.Errorf("offers by categories: %w", err)
		}
		return offerInputs{categories: categories, offers: offers}, nil
	})

	return serve(ctx, s, userID, plan[*domain.OffersRecommendation]{
		kind:       domain.KindOffers,
		ns:         cache.RecommendationOffers,
		due:        clockDue,
		reschedule: every(offersCadence),
		clone: func(r *domain.OffersRecommendation) *domain.OffersRecommendation {
			if r == nil {
				return nil
			}
			c := *r
			c.Offers = slices.Clone(r.Offers)
			return &c
		},
		useAdvisor: func(ctx context.Context) (bool, error) {
			in, err := load()
			return len(in.offers) > 0, err
		},
		generate: func(ctx context.Context) (*domain.OffersRecommendation, error) {
			in, err := load()
			if err != nil {
				return nil, err
			}
			return s.advisor.OffersRecommendation(ctx, in.categories, in.offers)
		},
		fallback: func(ctx context.Context) (*domain.OffersRecommendation, error) {
			in, err := load()
			if err != nil {
				return nil, err
			}
			return FallbackOffersRecommendation(in.categories, in.offers), nil
		},
	})
}

type insightInputs struct {
	thisMonth *domain.CashFlow
	lastMonth *domain.CashFlow
	adherence *domain.BudgetAdherence
}

// QuickInsights returns three short observations, refreshed daily.
func (s *RecommendationService) QuickInsights(ctx context.Context, userID int64) (*domain.Generated[*domain.QuickInsights], error) {
	if err := validateIDs(userID); err != nil {
		return nil, err
	}

	base := context.WithoutCancel(ctx)
	load := sync.OnceValues(func() (insightInputs, error) {
		var in insightInputs
		g, gctx := errgroup.WithContext(base)
		g.Go(func() (err error) {
			in.thisMonth, err = s.transactions.CashFlow(gctx, userID, 0)
			return err
		})
		g.Go(func() (err error) {
			in.lastMonth, err = s.transactions.CashFlow(gctx, userID, -1)
			return err
		})
		g.Go(func() (err error) {
			in.adherence, err = s.adherence.CheckBudgetAdherence(gctx, userID)
			return err
		})
		return in, g.Wait()
	})

	return serve(ctx, s, userID, plan[*domain.QuickInsights]{
		kind:       domain.KindQuickInsights,
		ns:         cache.QuickInsights,
		due:        clockDue,
		reschedule: every(quickInsightsCadence),
		useAdvisor: func(ctx context.Context) (bool, error) {
			_, err := load()
			return true, err
		},
		clone: func(q *domain.QuickInsights) *domain.QuickInsights {
			if q == nil {
				return nil
			}
			c := *q
			return &c
		},
		generate: func(ctx context.Context) (*domain.QuickInsights, error) {
			in, err := load()
			if err != nil {
				return nil, err
			}
			return s.advisor.QuickInsights(ctx, in.thisMonth, in.lastMonth, in.adherence)
		},
		fallback: func(ctx context.Context) (*domain.QuickInsights, error) {
			in, err := load()
			if err != nil {
				return nil, err
			}
			return FallbackQuickInsights(in.thisMonth, in.lastMonth, in.adherence), nil
		},
	})
}

// serve answers from the cache while the schedule is not due and
// regenerates otherwise. Concurrent regenerations for one (user, kind)
// share a single run.
func serve[T any](ctx context.Context, s *RecommendationService, userID int64, p plan[T]) (*domain.Generated[T], error) {
	now := s.now()
	sched := s.schedule(ctx, userID, p.kind, now)

	if !p.due(sched, now) {
		if payload, ok := cache.Lookup[T](s.cache, p.ns, cache.UserKey(userID)); ok {
			return &domain.Generated[T]{
				Payload:       p.clone(payload),
				Source:        domain.SourceCache,
				GeneratedAt:   sched.LastGeneratedAt,
				NextRefreshAt: sched.NextScheduledAt,
			}, nil
		}
		payload, err := p.fallback(ctx)
		if err != nil {
			return nil, err
		}
		return &domain.Generated[T]{
			Payload:       payload,
			Source:        domain.SourcePending,
			GeneratedAt:   sched.LastGeneratedAt,
			NextRefreshAt: sched.NextScheduledAt,
		}, nil
	}

	key := fmt.Sprintf("%d/%s", userID, p.kind)
	ch := s.inflight.DoChan(key, func() (any, error) {
		return regenerate(context.WithoutCancel(ctx), s, userID, sched, p, now)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		// Callers sharing one run each get their own payload.
		shared := *res.Val.(*domain.Generated[T])
		shared.Payload = p.clone(shared.Payload)
		return &shared, nil
	}
}

func regenerate[T any](ctx context.Context, s *RecommendationService, userID int64, sched *domain.Schedule, p plan[T], now time.Time) (*domain.Generated[T], error) {
	log := s.log.With(slog.Int64("user_id", userID), slog.String("kind", string(p.kind)))

	source, reason := domain.SourceAI, "generated by "+resilience.OpenAIService
	payload, err := callAdvisor(ctx, s, p)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrPersistence) {
			return nil, err
		}
		log.WarnContext(ctx, "serving fallback recommendations", slog.Any("reason", err))
		source, reason = domain.SourceFallback, err.Error()
		if payload, err = p.fallback(ctx); err != nil {
			return nil, err
		}
	}

	generatedAt := now
	sched.LastGeneratedAt = &generatedAt
	p.reschedule(sched, now)

	record := &domain.RecommendationRecord{
		ID:        uuid.NewString(),
		UserID:    userID,
		Kind:      p.kind,
		Source:    source,
		Reason:    reason,
		CreatedAt: now,
	}
	if err := s.store.CreateRecommendationRecord(ctx, record); err != nil {
		log.WarnContext(ctx, "recommendation record write failed", slog.Any("error", err))
	}
	if err := s.cache.Set(p.ns, cache.UserKey(userID), p.clone(payload)); err != nil {
		log.WarnContext(ctx, "recommendation cache write failed", slog.Any("error", err))
	}
	if err := s.store.SaveSchedule(ctx, sched); err != nil {
		log.WarnContext(ctx, "schedule write failed", slog.Any("error", err))
	}

	log.InfoContext(ctx, "recommendations generated",
		slog.String("source", string(source)),
		slog.Time("next_scheduled_at", sched.NextScheduledAt))
	return &domain.Generated[T]{
		Payload:       payload,
		Source:        source,
		GeneratedAt:   &generatedAt,
		NextRefreshAt: sched.NextScheduledAt,
	}, nil
}

// callAdvisor runs the plan's advisor call behind the breaker. Input
// gathering errors are returned untouched and never count as failures.
// Errors that are neither provider errors nor timeouts hand the admitted
// trial back to the breaker.
func callAdvisor[T any](ctx context.Context, s *RecommendationService, p plan[T]) (T, error) {
	var zero T
	if s.advisor == nil {
		return zero, errAdvisorDisabled
	}
	if p.useAdvisor != nil {
		ok, err := p.useAdvisor(ctx)
		if err != nil {
			return zero, err
		}
		if !ok {
			return zero, errAdvisorSkipped
		}
	}

	breaker := s.breakers.Get(resilience.OpenAIService)
	if !breaker.IsAvailable() {
		return zero, errBreakerOpen
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	payload, err := p.generate(callCtx)
	if err != nil {
		if errors.Is(err, domain.ErrProvider) || errors.Is(err, context.DeadlineExceeded) {
			breaker.RecordFailure(err)
		} else {
			breaker.Release()
		}
		return zero, err
	}
	breaker.RecordSuccess()
	return payload, nil
}

// schedule loads or creates the schedule row. A failed read is treated as
// a fresh schedule that is due now.
func (s *RecommendationService) schedule(ctx context.Context, userID int64, kind domain.RecommendationKind, now time.Time) *domain.Schedule {
	sched, err := s.store.GetOrCreateSchedule(ctx, userID, kind, now)
	if err != nil {
		s.log.WarnContext(ctx, "schedule read failed",
			slog.Int64("user_id", userID),
			slog.String("kind", string(kind)),
			slog.Any("error", err))
		return &domain.Schedule{UserID: userID, Kind: kind, NextScheduledAt: now}
	}
	return sched
}

func clockDue(sched *domain.Schedule, now time.Time) bool {
	return sched.LastGeneratedAt == nil || !now.Before(sched.NextScheduledAt)
}

func every(d time.Duration) func(*domain.Schedule, time.Time) {
	return func(sched *domain.Schedule, now time.Time) {
		sched.NextScheduledAt = now.Add(d)
	}
}

// categoryDue fires on the first run and after any category period has
// closed since the recorded period end. A schedule without a recorded
// period end falls back to the clock.
func categoryDue(sched *domain.Schedule, categories []domain.CategoryAdherence, now time.Time) bool {
	if sched.LastGeneratedAt == nil {
		return true
	}
	if sched.LastBudgetPeriodEnd == nil {
		return !now.Before(sched.NextScheduledAt)
	}

	lastEnd := startOfDay(sched.LastBudgetPeriodEnd.In(now.Location()))
	if startOfDay(now).After(lastEnd) {
		return true
	}
	for _, c := range categories {
		if c.PeriodStart.After(lastEnd) {
			return true
		}
	}
	return false
}

func earliestPeriodEnd(categories []domain.CategoryAdherence) time.Time {
	var earliest time.Time
	for i, c := range categories {
		if end := c.FullPeriodEnd(); i == 0 || end.Before(earliest) {
			earliest = end
		}
	}
	return earliest
}

func adherenceCategories(categories []domain.CategoryAdherence) []string {
	seen := make(map[string]bool)
	var out []string
	for _, c := range categories {
		if !seen[c.Category] {
			seen[c.Category] = true
			out = append(out, c.Category)
		}
	}
	return out
}

// spendCategories ranks this month's outgoing categories by amount.
func spendCategories(flow *domain.CashFlow) []string {
	categories := make([]string, 0, len(flow.MoneyOutByCategory))
	for c := range flow.MoneyOutByCategory {
		if c != domain.UnknownCategory {
			categories = append(categories, c)
		}
	}
	sort.Slice(categories, func(i, j int) bool {
		a, b := flow.MoneyOutByCategory[categories[i]], flow.MoneyOutByCategory[categories[j]]
		if !a.Equal(b) {
			return a.GreaterThan(b)
		}
		return categories[i] < categories[j]
	})
	if len(categories) > maxSpendCategories {
		categories = categories[:maxSpendCategories]
	}
	return categories
}
