package service

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/castlemilk/pfinance/insights/internal/domain"
)

const (
	currency          = "KD"
	maxFallbackOffers = 3
	defaultSubGroup   = "General"
)

var overspentTips = map[string]string{
	"DINING":        "Consider cooking at home more often or use NBK dining offers.",
	"SHOPPING":      "Make a list before shopping and look for NBK retail partner discounts.",
	"ENTERTAINMENT": "Look for free events or NBK entertainment partner offers.",
	"TRANSPORT":     "Consider carpooling or public transport options.",
}

func overspentTip(category string) string {
	if tip, ok := overspentTips[category]; ok {
		return tip
	}
	return "Review your expenses and look for areas to cut back."
}

func kd(d decimal.Decimal) string { return d.String() + currency }

// FallbackCategoryRecommendations writes one rule-based recommendation per
// category. offers may name a partner offer for heavily overspent categories.
func FallbackCategoryRecommendations(adherences []domain.CategoryAdherence, offers []*domain.Offer) []domain.CategoryRecommendation {
	recs := make([]domain.CategoryRecommendation, 0, len(adherences))
	for _, a := range adherences {
		recs = append(recs, domain.CategoryRecommendation{
			Category:       a.Category,
			Recommendation: categoryFallback(a, offers),
		})
	}
	return recs
}

func categoryFallback(a domain.CategoryAdherence, offers []*domain.Offer) string {
	pct := int(a.PercentageUsed)
	overspent := a.SpentAmount.Sub(a.BudgetAmount)

	switch {
	case a.PercentageUsed > 120:
		msg := fmt.Sprintf("You're %d%% over budget. Consider cutting back %s next month. ", pct, kd(overspent))
		if offer := offerForCategory(a.Category, offers); offer != nil {
			return msg + fmt.Sprintf("NBK offers %s to help save.", offer.Description)
		}
		return msg + fmt.Sprintf("Review your %s expenses for savings opportunities.", strings.ToLower(a.Category))
	case a.PercentageUsed > 100:
		return fmt.Sprintf("You exceeded your budget by %d%%. Try to reduce spending by %s. %s",
			int(a.PercentageUsed-100), kd(overspent), overspentTip(a.Category))
	case a.PercentageUsed > 80:
		return fmt.Sprintf("You've used %d%% of your budget. You have %s left this period. Stay mindful to finish within budget.",
			pct, kd(a.RemainingAmount))
	case a.PercentageUsed > 50:
		return fmt.Sprintf("Great progress! You've used %d%% of your budget. Keep up the balanced spending with %s available.",
			pct, kd(a.RemainingAmount))
	default:
		return fmt.Sprintf("Excellent! Only %d%% used. You could save %s this month. Consider NBK Savings Account for your surplus.",
			pct, kd(a.BudgetAmount.Sub(a.SpentAmount)))
	}
}

func offerForCategory(category string, offers []*domain.Offer) *domain.Offer {
	for _, o := range offers {
		if o.Category == category {
			return o
		}
	}
	return nil
}

// FallbackOffersRecommendation keeps the first offer of each sub-category,
// at most three, and words a message for how many remain.
func FallbackOffersRecommendation(categories []string, offers []*domain.Offer) *domain.OffersRecommendation {
	if len(offers) == 0 {
		return &domain.OffersRecommendation{
			Message: "No offers available at the moment. Check back soon!",
			Offers:  []domain.Offer{},
		}
	}

	seen := make(map[string]bool)
	top := make([]domain.Offer, 0, maxFallbackOffers)
	for _, o := range offers {
		group := o.SubCategory
		if group == "" {
			group = defaultSubGroup
		}
		if seen[group] {
			continue
		}
		seen[group] = true
		top = append(top, *o)
		if len(top) == maxFallbackOffers {
			break
		}
	}

	var msg string
	switch len(top) {
	case 0:
		msg = "No personalized offers available right now."
	case 1:
		msg = "Based on your spending, check out this NBK offer: " + top[0].Description
	case 2:
		named := categories[:min(2, len(categories))]
		msg = fmt.Sprintf("We found 2 NBK offers matching your spending patterns in %s.", strings.Join(named, " and "))
	default:
		msg = fmt.Sprintf("Discover %d personalized NBK offers across your top spending categories!", len(top))
	}
	return &domain.OffersRecommendation{Message: msg, Offers: top}
}

// FallbackQuickInsights derives the three one-liners from cash flow and
// adherence.
func FallbackQuickInsights(thisMonth, lastMonth *domain.CashFlow, adherence *domain.BudgetAdherence) *domain.QuickInsights {
	return &domain.QuickInsights{
		SpendingComparedToLastMonth: spendingComparison(thisMonth, lastMonth),
		BudgetLimitWarning:          budgetWarning(adherence.CategoryAdherences),
		SavingInsights:              savingInsight(thisMonth, adherence.CategoryAdherences),
	}
}

func spendingComparison(thisMonth, lastMonth *domain.CashFlow) string {
	diff := thisMonth.MoneyOut.Sub(lastMonth.MoneyOut)
	pct := decimal.Zero
	if lastMonth.MoneyOut.IsPositive() {
		pct = diff.Div(lastMonth.MoneyOut).Mul(hundred).Round(1)
	}

	switch diff.Sign() {
	case 1:
		return fmt.Sprintf("You spent %s more this month (%s%% increase)", kd(diff.Abs()), pct.Abs().StringFixed(1))
	case -1:
		return fmt.Sprintf("You spent %s less this month (%s%% decrease)", kd(diff.Abs()), pct.Abs().StringFixed(1))
	default:
		return fmt.Sprintf("Your spending remained the same as last month at %s", kd(thisMonth.MoneyOut))
	}
}

func budgetWarning(categories []domain.CategoryAdherence) string {
	var critical []domain.CategoryAdherence
	for _, c := range categories {
		if c.AdherenceLevel == domain.AdherenceExceeded || c.AdherenceLevel == domain.AdherenceCritical {
			critical = append(critical, c)
			if len(critical) == 2 {
				break
			}
		}
	}

	switch len(critical) {
	case 0:
		return "Great job! All categories are within budget limits."
	case 1:
		c := critical[0]
		state := "near"
		if c.PercentageUsed > 100 {
			state = "over"
		}
		return fmt.Sprintf("%s is %s budget at %d%%", c.Category, state, int(c.PercentageUsed))
	default:
		return fmt.Sprintf("%d categories need attention: %s, %s", len(critical), critical[0].Category, critical[1].Category)
	}
}

func savingInsight(thisMonth *domain.CashFlow, categories []domain.CategoryAdherence) string {
	surplus := decimal.Zero
	for _, c := range categories {
		if c.PercentageUsed < 80 {
			surplus = surplus.Add(c.RemainingAmount)
		}
	}
	net := thisMonth.NetCashFlow

	switch {
	case net.IsPositive() && surplus.IsPositive():
		return fmt.Sprintf("You have %s net surplus and %s unspent budget. Great savings opportunity!", kd(net), kd(surplus))
	case surplus.GreaterThan(hundred):
		return fmt.Sprintf("You have %s available across underspent categories. Consider increasing savings.", kd(surplus))
	case net.IsNegative():
		return "You're spending more than earning. Review your largest expense categories."
	default:
		return "Maintain your current balanced approach between spending and saving."
	}
}
