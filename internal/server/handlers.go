package server

import (
	"context"

	"github.com/castlemilk/pfinance/insights/internal/domain"
	"github.com/castlemilk/pfinance/insights/internal/service"
)

func (s *Server) listAccounts(ctx context.Context, user *domain.User, _ *Empty) (*ListAccountsResponse, error) {
	accounts, err := s.svc.Accounts.ListAccounts(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &ListAccountsResponse{Accounts: accounts}, nil
}

func (s *Server) totalBalance(ctx context.Context, user *domain.User, _ *Empty) (*TotalBalanceResponse, error) {
	balance, err := s.svc.Accounts.TotalBalance(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &TotalBalanceResponse{Balance: balance}, nil
}

func (s *Server) registerPushToken(ctx context.Context, user *domain.User, req *PushTokenRequest) (*Empty, error) {
	if err := s.svc.Accounts.RegisterPushToken(ctx, user.ID, req.Token); err != nil {
		return nil, err
	}
	return &Empty{}, nil
}

func (s *Server) unregisterPushToken(ctx context.Context, user *domain.User, _ *Empty) (*Empty, error) {
	if err := s.svc.Accounts.UnregisterPushToken(ctx, user.ID); err != nil {
		return nil, err
	}
	return &Empty{}, nil
}

func (s *Server) setLimit(ctx context.Context, user *domain.User, req *LimitRequest) (*LimitResponse, error) {
	limit, err := s.svc.Limits.SetLimit(ctx, limitInput(user, req))
	if err != nil {
		return nil, err
	}
	return &LimitResponse{Limit: limit}, nil
}

func (s *Server) updateLimit(ctx context.Context, user *domain.User, req *LimitRequest) (*LimitResponse, error) {
	limit, err := s.svc.Limits.UpdateLimit(ctx, req.LimitID, limitInput(user, req))
	if err != nil {
		return nil, err
	}
	return &LimitResponse{Limit: limit}, nil
}

func limitInput(user *domain.User, req *LimitRequest) service.LimitInput {
	return service.LimitInput{
		UserID:    user.ID,
		AccountID: req.AccountID,
		Category:  req.Category,
		Amount:    req.Amount,
		RenewsAt:  req.RenewsAt,
	}
}

func (s *Server) listLimits(ctx context.Context, user *domain.User, req *AccountRequest) (*ListLimitsResponse, error) {
	limits, err := s.svc.Limits.ListLimits(ctx, user.ID, req.AccountID)
	if err != nil {
		return nil, err
	}
	return &ListLimitsResponse{Limits: limits}, nil
}

func (s *Server) deactivateLimit(ctx context.Context, user *domain.User, req *LimitRequest) (*Empty, error) {
	if err := s.svc.Limits.DeactivateLimit(ctx, user.ID, req.LimitID); err != nil {
		return nil, err
	}
	return &Empty{}, nil
}

func (s *Server) checkBudgetAdherence(ctx context.Context, user *domain.User, req *AccountRequest) (*domain.BudgetAdherence, error) {
	if req.AccountID != 0 {
		return s.svc.Adherence.CheckAccountBudgetAdherence(ctx, user.ID, req.AccountID)
	}
	return s.svc.Adherence.CheckBudgetAdherence(ctx, user.ID)
}

func (s *Server) spendingTrends(ctx context.Context, user *domain.User, _ *Empty) (*SpendingTrendsResponse, error) {
	trends, err := s.svc.Adherence.SpendingTrends(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &SpendingTrendsResponse{Trends: trends}, nil
}

func (s *Server) detectRecurringPayments(ctx context.Context, user *domain.User, req *RecurringRequest) (*RecurringResponse, error) {
	opts := s.svc.Recurring.Defaults()
	if req.MinMonths != 0 {
		opts.MinMonths = req.MinMonths
	}
	if req.MinTxCount != 0 {
		opts.MinTxCount = req.MinTxCount
	}
	if req.MonthsBack != 0 {
		opts.MonthsBack = req.MonthsBack
	}
	if req.AmountBand != 0 {
		opts.AmountBand = req.AmountBand
	}
	if req.MinConfidence != nil {
		opts.MinConfidence = *req.MinConfidence
	}

	payments, err := s.svc.Recurring.DetectRecurringPayments(ctx, user.ID, req.AccountID, opts)
	if err != nil {
		return nil, err
	}
	return &RecurringResponse{Payments: payments}, nil
}

func (s *Server) listTransactions(ctx context.Context, user *domain.User, req *TransactionsRequest) (*TransactionsResponse, error) {
	q := service.TransactionQuery{
		Category: req.Category,
		MCCID:    req.MCCID,
		Period:   req.Period,
		Year:     req.Year,
		Month:    req.Month,
	}

	var (
		views []domain.TransactionView
		err   error
	)
	if req.AccountID != 0 {
		views, err = s.svc.Transactions.AccountTransactions(ctx, user.ID, req.AccountID, q)
	} else {
		views, err = s.svc.Transactions.UserTransactions(ctx, user.ID, q)
	}
	if err != nil {
		return nil, err
	}
	return &TransactionsResponse{Transactions: views}, nil
}

func (s *Server) cashFlow(ctx context.Context, user *domain.User, req *CashFlowRequest) (*domain.CashFlow, error) {
	if req.AccountID != 0 {
		if req.LastMonth {
			return nil, domain.NewValidationError("last_month", "only supported across all accounts")
		}
		return s.svc.Transactions.AccountCashFlow(ctx, user.ID, req.AccountID)
	}
	offset := 0
	if req.LastMonth {
		offset = -1
	}
	return s.svc.Transactions.CashFlow(ctx, user.ID, offset)
}

func (s *Server) listOffers(ctx context.Context, _ *domain.User, req *OffersRequest) (*OffersResponse, error) {
	offers, err := s.svc.Offers.OffersByCategory(ctx, req.Category)
	if err != nil {
		return nil, err
	}
	return &OffersResponse{Offers: offers}, nil
}

func (s *Server) categoryRecommendations(ctx context.Context, user *domain.User, _ *Empty) (*domain.Generated[[]domain.CategoryRecommendation], error) {
	return s.svc.Recommendations.CategoryRecommendations(ctx, user.ID)
}

func (s *Server) offersRecommendation(ctx context.Context, user *domain.User, _ *Empty) (*domain.Generated[*domain.OffersRecommendation], error) {
	return s.svc.Recommendations.OffersRecommendation(ctx, user.ID)
}

func (s *Server) quickInsights(ctx context.Context, user *domain.User, _ *Empty) (*domain.Generated[*domain.QuickInsights], error) {
	return s.svc.Recommendations.QuickInsights(ctx, user.ID)
}
