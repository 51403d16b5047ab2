package store

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/shopspring/decimal"

	"github.com/castlemilk/pfinance/insights/internal/domain"
)

// DemoSeeder is a store that can load the demo data set.
type DemoSeeder interface {
	Seeder
	UpsertLimit(ctx context.Context, limit *domain.Limit) error
}

// SeedSummary counts what SeedDemo created.
type SeedSummary struct {
	UserID       int64
	Accounts     int
	MCCs         int
	Offers       int
	Limits       int
	Transactions int
}

var demoMCCs = []domain.MCC{
	{Code: "5812", Category: "DINING", SubCategory: "Restaurants"},
	{Code: "5814", Category: "DINING", SubCategory: "Fast Food"},
	{Code: "5411", Category: "GROCERIES", SubCategory: "Supermarkets"},
	{Code: "5651", Category: "SHOPPING", SubCategory: "Clothing"},
	{Code: "4899", Category: "ENTERTAINMENT", SubCategory: "Streaming"},
	{Code: "5541", Category: "TRANSPORT", SubCategory: "Fuel"},
	{Code: "4814", Category: "UTILITIES", SubCategory: "Telecom"},
}

var demoOffers = map[string][]string{
	"5812": {"15% off at partner restaurants on weekdays"},
	"5814": {"Buy one get one free on selected meals"},
	"5411": {"5% cashback on supermarket purchases", "Double points on weekend grocery runs"},
	"5651": {"20% off at partner fashion stores"},
	"4899": {"3 months of streaming at half price"},
	"5541": {"2% fuel rebate at partner stations"},
}

// SeedDemo loads one demo user owning a main and a savings account, the
// MCC and offer reference data, four budget limits and a year of
// transactions ending at now. The data is deterministic.
func SeedDemo(ctx context.Context, s DemoSeeder, externalID string, now time.Time) (*SeedSummary, error) {
	summary := &SeedSummary{}
	rng := rand.New(rand.NewPCG(7, 11))

	user := &domain.User{ExternalID: externalID, Username: "demo"}
	if err := s.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("seed user: %w", err)
	}
	summary.UserID = user.ID

	main := &domain.Account{UserID: user.ID, Type: domain.AccountTypeMain, AccountNumber: "0001-2345-6789", CardNumber: "4111 **** **** 1111", Balance: decimal.RequireFromString("2450.750")}
	savings := &domain.Account{UserID: user.ID, Type: domain.AccountTypeSavings, AccountNumber: "0001-2345-9999", Balance: decimal.RequireFromString("12000")}
	for _, a := range []*domain.Account{main, savings} {
		if err := s.CreateAccount(ctx, a); err != nil {
			return nil, fmt.Errorf("seed account: %w", err)
		}
		summary.Accounts++
	}

	mccs := make(map[string]int64, len(demoMCCs))
	for _, m := range demoMCCs {
		if err := s.CreateMCC(ctx, &m); err != nil {
			return nil, fmt.Errorf("seed mcc %s: %w", m.Code, err)
		}
		mccs[m.Code] = m.ID
		summary.MCCs++

		for _, desc := range demoOffers[m.Code] {
			if err := s.CreateOffer(ctx, &domain.Offer{MCCID: m.ID, Description: desc}); err != nil {
				return nil, fmt.Errorf("seed offer: %w", err)
			}
			summary.Offers++
		}
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	firstOfMonth := today.AddDate(0, 0, 1-today.Day())
	limits := []*domain.Limit{
		{AccountID: main.ID, Category: "DINING", Amount: decimal.NewFromInt(150), RenewsAt: firstOfMonth},
		{AccountID: main.ID, Category: "GROCERIES", Amount: decimal.NewFromInt(300), RenewsAt: firstOfMonth},
		{AccountID: main.ID, Category: "SHOPPING", Amount: decimal.NewFromInt(120), RenewsAt: firstOfMonth},
		{AccountID: main.ID, Category: "ENTERTAINMENT", Amount: decimal.NewFromInt(15), RenewsAt: firstOfMonth.AddDate(0, -1, 9)},
	}
	for _, l := range limits {
		l.IsActive = true
		l.CreatedAt = l.RenewsAt
		if err := s.UpsertLimit(ctx, l); err != nil {
			return nil, fmt.Errorf("seed limit %s: %w", l.Category, err)
		}
		summary.Limits++
	}

	add := func(tx domain.Transaction) error {
		if tx.CreatedAt.After(now) {
			return nil
		}
		if err := s.CreateTransaction(ctx, &tx); err != nil {
			return fmt.Errorf("seed transaction: %w", err)
		}
		summary.Transactions++
		return nil
	}
	debit := func(code string, amount decimal.Decimal, at time.Time) error {
		return add(domain.Transaction{SourceAccountID: main.ID, Amount: amount, Type: domain.TransactionDebit, MCCID: mccs[code], CreatedAt: at})
	}
	cents := func(lo, hi int) decimal.Decimal {
		return decimal.New(int64(lo*100+rng.IntN((hi-lo)*100)), -2)
	}

	for m := 11; m >= 0; m-- {
		month := firstOfMonth.AddDate(0, -m, 0)
		steps := []error{
			add(domain.Transaction{DestinationAccountID: main.ID, Amount: decimal.NewFromInt(1500), Type: domain.TransactionCredit, CreatedAt: month.Add(9 * time.Hour)}),
			add(domain.Transaction{SourceAccountID: main.ID, DestinationAccountID: savings.ID, Amount: decimal.NewFromInt(200), Type: domain.TransactionTransfer, CreatedAt: month.AddDate(0, 0, 1)}),
			debit("4899", decimal.RequireFromString("3.500"), month.AddDate(0, 0, 4+rng.IntN(3))),
			debit("4814", decimal.RequireFromString("12.000"), month.AddDate(0, 0, 19)),
		}
		for _, err := range steps {
			if err != nil {
				return nil, err
			}
		}
		for week := 0; week < 4; week++ {
			day := month.AddDate(0, 0, week*7+rng.IntN(3))
			if err := debit("5411", cents(18, 45), day.Add(18*time.Hour)); err != nil {
				return nil, err
			}
			if err := debit("5812", cents(8, 30), day.AddDate(0, 0, 2).Add(20*time.Hour)); err != nil {
				return nil, err
			}
			if err := debit("5541", cents(6, 12), day.AddDate(0, 0, 3)); err != nil {
				return nil, err
			}
		}
		if err := debit("5651", cents(20, 90), month.AddDate(0, 0, 10+rng.IntN(10))); err != nil {
			return nil, err
		}
		if rng.IntN(2) == 0 {
			if err := debit("5814", cents(3, 9), month.AddDate(0, 0, 14)); err != nil {
				return nil, err
			}
		}
	}
	return summary, nil
}
