// Package server exposes the insights services as Connect unary
// procedures over JSON.
package server

import (
	"context"
	"log/slog"
	"net/http"

	"connectrpc.com/connect"

	"github.com/castlemilk/pfinance/insights/internal/auth"
	"github.com/castlemilk/pfinance/insights/internal/domain"
	"github.com/castlemilk/pfinance/insights/internal/resilience"
	"github.com/castlemilk/pfinance/insights/internal/service"
)

// ServiceName prefixes every insights procedure.
const ServiceName = "insights.v1.InsightsService"

// Procedure returns the full path of an insights method.
func Procedure(method string) string {
	return "/" + ServiceName + "/" + method
}

// Services bundles the handlers' dependencies.
type Services struct {
	Users           auth.UserDirectory
	Accounts        *service.AccountService
	Limits          *service.LimitService
	Adherence       *service.AdherenceService
	Recurring       *service.RecurringService
	Transactions    *service.TransactionService
	Offers          *service.OfferService
	Recommendations *service.RecommendationService
	Breakers        *resilience.Registry
}

// Server routes Connect procedures to the services.
type Server struct {
	svc Services
	log *slog.Logger
}

// New creates a Server.
func New(log *slog.Logger, svc Services) *Server {
	return &Server{svc: svc, log: log.With("component", "server")}
}

// Handler builds the mux. interceptors run in order before every
// procedure; /health answers without them.
func (s *Server) Handler(interceptors ...connect.Interceptor) http.Handler {
	opts := []connect.HandlerOption{
		connect.WithCodec(jsonCodec{}),
		connect.WithInterceptors(interceptors...),
	}

	mux := http.NewServeMux()
	mux.Handle(auth.HealthProcedure, connect.NewUnaryHandler(auth.HealthProcedure, s.health, opts...))
	for method, handle := range s.routes() {
		procedure := Procedure(method)
		mux.Handle(procedure, handle(procedure, opts))
	}

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	return mux
}

type route func(procedure string, opts []connect.HandlerOption) http.Handler

func (s *Server) routes() map[string]route {
	return map[string]route{
		"ListAccounts":               unary(s, s.listAccounts),
		"GetTotalBalance":            unary(s, s.totalBalance),
		"RegisterPushToken":          unary(s, s.registerPushToken),
		"UnregisterPushToken":        unary(s, s.unregisterPushToken),
		"SetLimit":                   unary(s, s.setLimit),
		"UpdateLimit":                unary(s, s.updateLimit),
		"ListLimits":                 unary(s, s.listLimits),
		"DeactivateLimit":            unary(s, s.deactivateLimit),
		"CheckBudgetAdherence":       unary(s, s.checkBudgetAdherence),
		"GetSpendingTrends":          unary(s, s.spendingTrends),
		"DetectRecurringPayments":    unary(s, s.detectRecurringPayments),
		"ListTransactions":           unary(s, s.listTransactions),
		"GetCashFlow":                unary(s, s.cashFlow),
		"ListOffers":                 unary(s, s.listOffers),
		"GetCategoryRecommendations": unary(s, s.categoryRecommendations),
		"GetOffersRecommendation":    unary(s, s.offersRecommendation),
		"GetQuickInsights":           unary(s, s.quickInsights),
	}
}

// unary adapts a user-scoped method to a Connect handler. The
// authenticated identity is resolved to a user before fn runs.
func unary[Req, Res any](s *Server, fn func(ctx context.Context, user *domain.User, req *Req) (*Res, error)) route {
	return func(procedure string, opts []connect.HandlerOption) http.Handler {
		return connect.NewUnaryHandler(procedure, func(ctx context.Context, req *connect.Request[Req]) (*connect.Response[Res], error) {
			user, err := auth.ResolveUser(ctx, s.svc.Users)
			if err != nil {
				return nil, toConnectError(ctx, s.log, err)
			}
			res, err := fn(ctx, user, req.Msg)
			if err != nil {
				return nil, toConnectError(ctx, s.log, err)
			}
			return connect.NewResponse(res), nil
		}, opts...)
	}
}

func (s *Server) health(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[HealthResponse], error) {
	report := s.svc.Breakers.Health()
	return connect.NewResponse(&report), nil
}
