package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"

	"github.com/castlemilk/pfinance/insights/internal/advisor"
	"github.com/castlemilk/pfinance/insights/internal/auth"
	"github.com/castlemilk/pfinance/insights/internal/cache"
	"github.com/castlemilk/pfinance/insights/internal/config"
	"github.com/castlemilk/pfinance/insights/internal/logging"
	"github.com/castlemilk/pfinance/insights/internal/notify"
	"github.com/castlemilk/pfinance/insights/internal/resilience"
	"github.com/castlemilk/pfinance/insights/internal/server"
	"github.com/castlemilk/pfinance/insights/internal/service"
	"github.com/castlemilk/pfinance/insights/internal/store"
	"github.com/castlemilk/pfinance/insights/internal/store/postgres"
)

// app holds the process-wide dependencies shared by every command.
type app struct {
	cfg     *config.Config
	log     *slog.Logger
	store   store.Store
	fbApp   *firebase.App
	closers []func()
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, log: logging.New(cfg.Log)}

	if err := a.openStore(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) openStore(ctx context.Context) error {
	switch a.cfg.Store.Driver {
	case config.DriverFirestore:
		client, err := firestore.NewClient(ctx, a.cfg.Store.FirestoreProject)
		if err != nil {
			return fmt.Errorf("firestore client: %w", err)
		}
		a.closers = append(a.closers, func() { client.Close() })
		a.store = store.NewFirestoreStore(client)

	case config.DriverPostgres:
		pool, err := postgres.NewPool(ctx, a.cfg.Store)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, pool.Close)
		a.store = postgres.New(pool)

	default:
		mem := store.NewMemoryStore()
		if a.cfg.Store.SeedMemoryOnStart {
			summary, err := store.SeedDemo(ctx, mem, auth.LocalDevUID, time.Now())
			if err != nil {
				return fmt.Errorf("seed memory store: %w", err)
			}
			a.log.Info("seeded memory store",
				slog.Int64("user_id", summary.UserID),
				slog.Int("transactions", summary.Transactions))
		}
		a.store = mem
	}

	a.log.Info("store ready", slog.String("driver", a.cfg.Store.Driver))
	return nil
}

// firebase lazily initialises the Firebase app shared by auth and push.
func (a *app) firebase(ctx context.Context) (*firebase.App, error) {
	if a.fbApp != nil {
		return a.fbApp, nil
	}
	fbApp, err := auth.NewApp(ctx, a.cfg.Firebase)
	if err != nil {
		return nil, err
	}
	a.fbApp = fbApp
	return fbApp, nil
}

// notifier returns a push notifier; it drops messages when push is off.
func (a *app) notifier(ctx context.Context) (*notify.Notifier, error) {
	if !a.cfg.Firebase.PushEnabled {
		return notify.NewNotifier(nil, notify.DefaultPushRetryConfig, a.log), nil
	}
	fbApp, err := a.firebase(ctx)
	if err != nil {
		return nil, err
	}
	client, err := fbApp.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("messaging client: %w", err)
	}
	return notify.NewNotifier(client, notify.DefaultPushRetryConfig, a.log), nil
}

func (a *app) breakers() *resilience.Registry {
	return resilience.NewRegistry(resilience.Settings{
		FailureThreshold:    a.cfg.Breaker.FailureThreshold,
		ResetTimeout:        a.cfg.Breaker.ResetTimeout,
		HalfOpenMaxAttempts: a.cfg.Breaker.HalfOpenMaxAttempts,
	}, time.Now, a.log)
}

func (a *app) cache() *cache.Cache {
	c := a.cfg.Cache
	return cache.New(c.Size, cache.TTLs{
		cache.TransactionsUser:       c.TransactionsTTL,
		cache.TransactionsAccount:    c.TransactionsTTL,
		cache.RecommendationCategory: c.CategoryRecommendTTL,
		cache.RecommendationOffers:   c.OffersRecommendTTL,
		cache.QuickInsights:          c.QuickInsightsTTL,
	})
}

// services wires the API's service graph.
func (a *app) services() server.Services {
	c := a.cache()
	breakers := a.breakers()
	breakers.Get(resilience.OpenAIService)

	var adv service.Advisor
	if a.cfg.Advisor.APIKey != "" {
		adv = advisor.NewClient(a.cfg.Advisor)
	} else {
		a.log.Warn("no advisor api key configured, serving fallback recommendations only")
	}

	adherence := service.NewAdherenceService(a.log, a.store, nil)
	transactions := service.NewTransactionService(a.log, a.store, c, nil)
	return server.Services{
		Users:        a.store,
		Accounts:     service.NewAccountService(a.log, a.store),
		Limits:       service.NewLimitService(a.log, a.store, nil),
		Adherence:    adherence,
		Recurring:    service.NewRecurringService(a.log, a.store, service.DetectOptionsFromConfig(a.cfg.Recurring), nil),
		Transactions: transactions,
		Offers:       service.NewOfferService(a.log, a.store),
		Recommendations: service.NewRecommendationService(a.log, service.RecommendationConfig{
			Store:          a.store,
			Cache:          c,
			Breakers:       breakers,
			Advisor:        adv,
			Adherence:      adherence,
			Transactions:   transactions,
			AdvisorTimeout: a.cfg.Advisor.Timeout,
		}),
		Breakers: breakers,
	}
}

// Close releases the store and other clients in reverse order.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}
