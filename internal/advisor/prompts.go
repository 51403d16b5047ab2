package advisor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/castlemilk/pfinance/insights/internal/domain"
)

// CategoryRecommendations asks for one piece of advice per budget category.
func (c *Client) CategoryRecommendations(ctx context.Context, adherences []domain.CategoryAdherence) ([]domain.CategoryRecommendation, error) {
	answer, err := c.Complete(ctx, systemPrompt, categoryPrompt(adherences))
	if err != nil {
		return nil, err
	}
	return parseCategoryRecommendations(answer)
}

// OffersRecommendation asks the model to pick offers matching the spend
// categories. Only offers from the candidate list are returned.
func (c *Client) OffersRecommendation(ctx context.Context, spendCategories []string, offers []*domain.Offer) (*domain.OffersRecommendation, error) {
	answer, err := c.Complete(ctx, systemPrompt, offersPrompt(spendCategories, offers))
	if err != nil {
		return nil, err
	}
	return parseOffersRecommendation(answer, offers)
}

// QuickInsights asks for the three one-line observations.
func (c *Client) QuickInsights(ctx context.Context, thisMonth, lastMonth *domain.CashFlow, adherence *domain.BudgetAdherence) (*domain.QuickInsights, error) {
	answer, err := c.Complete(ctx, systemPrompt, quickInsightsPrompt(thisMonth, lastMonth, adherence))
	if err != nil {
		return nil, err
	}
	return parseQuickInsights(answer)
}

func categoryPrompt(adherences []domain.CategoryAdherence) string {
	var b strings.Builder
	b.WriteString("Here is a customer's budget status per spending category for the current period (amounts in KD):\n")
	for _, a := range adherences {
		fmt.Fprintf(&b, "- %s: budget %s, spent %s (%.2f%%), remaining %s, last month %s, status %s, trend %s\n",
			a.Category, a.BudgetAmount, a.SpentAmount, a.PercentageUsed, a.RemainingAmount,
			a.LastMonthSpentAmount, a.AdherenceLevel, a.SpendingTrend)
	}
	b.WriteString("Write one short, practical recommendation per category. ")
	b.WriteString(`Respond with a JSON array: [{"category": "<category>", "recommendation": "<text>"}].`)
	return b.String()
}

func offersPrompt(spendCategories []string, offers []*domain.Offer) string {
	var b strings.Builder
	fmt.Fprintf(&b, "The customer spends most in these categories: %s.\n", strings.Join(spendCategories, ", "))
	b.WriteString("Available bank offers:\n")
	for _, o := range offers {
		fmt.Fprintf(&b, "- id %d [%s / %s]: %s\n", o.ID, o.Category, o.SubCategory, o.Description)
	}
	b.WriteString("Pick up to three offers that fit the customer and write a one-sentence message introducing them. ")
	b.WriteString(`Respond with a JSON object: {"message": "<text>", "offerIds": [<id>, ...]}.`)
	return b.String()
}

func quickInsightsPrompt(thisMonth, lastMonth *domain.CashFlow, adherence *domain.BudgetAdherence) string {
	var b strings.Builder
	fmt.Fprintf(&b, "This month: money in %s KD, money out %s KD, net %s KD.\n",
		thisMonth.MoneyIn, thisMonth.MoneyOut, thisMonth.NetCashFlow)
	fmt.Fprintf(&b, "Last month: money in %s KD, money out %s KD, net %s KD.\n",
		lastMonth.MoneyIn, lastMonth.MoneyOut, lastMonth.NetCashFlow)
	if adherence != nil {
		fmt.Fprintf(&b, "Overall budget status %s: %s KD spent of %s KD.\n",
			adherence.OverallAdherence, adherence.TotalSpent, adherence.TotalBudget)
		for _, a := range adherence.CategoryAdherences {
			fmt.Fprintf(&b, "- %s: %.2f%% used, %s KD remaining, status %s\n",
				a.Category, a.PercentageUsed, a.RemainingAmount, a.AdherenceLevel)
		}
	}
	b.WriteString("Write three one-line insights. ")
	b.WriteString(`Respond with a JSON object: {"spendingComparedToLastMonth": "<text>", "budgetLimitWarning": "<text>", "savingInsights": "<text>"}.`)
	return b.String()
}

// stripCodeFences removes a surrounding ``` or ```json fence.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func malformed(msg string, cause error) error {
	return &ProviderError{Code: ErrMalformedResponse, Message: msg, Cause: cause}
}

func parseCategoryRecommendations(answer string) ([]domain.CategoryRecommendation, error) {
	var recs []domain.CategoryRecommendation
	if err := json.Unmarshal([]byte(stripCodeFences(answer)), &recs); err != nil {
		return nil, malformed("decode category recommendations", err)
	}
	if len(recs) == 0 {
		return nil, &ProviderError{Code: ErrEmptyResponse, Message: "no category recommendations"}
	}
	for i, r := range recs {
		if r.Category == "" || r.Recommendation == "" {
			return nil, malformed(fmt.Sprintf("recommendation %d is incomplete", i), nil)
		}
	}
	return recs, nil
}

type offersAnswer struct {
	Message  string  `json:"message"`
	OfferIDs []int64 `json:"offerIds"`
}

func parseOffersRecommendation(answer string, candidates []*domain.Offer) (*domain.OffersRecommendation, error) {
	var a offersAnswer
	if err := json.Unmarshal([]byte(stripCodeFences(answer)), &a); err != nil {
		return nil, malformed("decode offers recommendation", err)
	}
	if strings.TrimSpace(a.Message) == "" {
		return nil, malformed("offers recommendation has no message", nil)
	}

	byID := make(map[int64]*domain.Offer, len(candidates))
	for _, o := range candidates {
		byID[o.ID] = o
	}
	rec := &domain.OffersRecommendation{Message: a.Message, Offers: []domain.Offer{}}
	seen := make(map[int64]bool, len(a.OfferIDs))
	for _, id := range a.OfferIDs {
		o, ok := byID[id]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		rec.Offers = append(rec.Offers, *o)
	}
	return rec, nil
}

func parseQuickInsights(answer string) (*domain.QuickInsights, error) {
	var q domain.QuickInsights
	if err := json.Unmarshal([]byte(stripCodeFences(answer)), &q); err != nil {
		return nil, malformed("decode quick insights", err)
	}
	if q.SpendingComparedToLastMonth == "" || q.BudgetLimitWarning == "" || q.SavingInsights == "" {
		return nil, malformed("quick insights are incomplete", nil)
	}
	return &q, nil
}
