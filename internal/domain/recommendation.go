package domain

import "time"

// RecommendationKind identifies one regeneration schedule per user.
type RecommendationKind string

const (
	KindCategory      RecommendationKind = "CATEGORY"
	KindOffers        RecommendationKind = "OFFERS"
	KindQuickInsights RecommendationKind = "QUICK_INSIGHTS"
)

// RecommendationKinds lists every kind in a stable order.
var RecommendationKinds = []RecommendationKind{KindCategory, KindOffers, KindQuickInsights}

// RecommendationSource tells the caller where a payload came from.
type RecommendationSource string

const (
	SourceAI       RecommendationSource = "AI"
	SourceFallback RecommendationSource = "FALLBACK"
	SourceCache    RecommendationSource = "CACHE"
	SourcePending  RecommendationSource = "PENDING"
)

// Schedule is the regeneration state for one (user, kind).
type Schedule struct {
	UserID              int64              `json:"userId"`
	Kind                RecommendationKind `json:"kind"`
	LastGeneratedAt     *time.Time         `json:"lastGeneratedAt,omitempty"`
	NextScheduledAt     time.Time          `json:"nextScheduledAt"`
	LastBudgetPeriodEnd *time.Time         `json:"lastBudgetPeriodEnd,omitempty"`
}

// RecommendationRecord is the provenance row written on each generation.
type RecommendationRecord struct {
	ID        string               `json:"id"`
	UserID    int64                `json:"userId"`
	Kind      RecommendationKind   `json:"kind"`
	Source    RecommendationSource `json:"source"`
	Reason    string               `json:"reason"`
	CreatedAt time.Time            `json:"createdAt"`
}

// CategoryRecommendation is advice for one budget category.
type CategoryRecommendation struct {
	Category       string `json:"category"`
	Recommendation string `json:"recommendation"`
}

// OffersRecommendation is a short message plus the offers it refers to.
type OffersRecommendation struct {
	Message string  `json:"message"`
	Offers  []Offer `json:"offers"`
}

// QuickInsights are three one-line observations.
type QuickInsights struct {
	SpendingComparedToLastMonth string `json:"spendingComparedToLastMonth"`
	BudgetLimitWarning          string `json:"budgetLimitWarning"`
	SavingInsights              string `json:"savingInsights"`
}

// Generated wraps a recommendation payload with its provenance.
type Generated[T any] struct {
	Payload       T                    `json:"payload"`
	Source        RecommendationSource `json:"source"`
	GeneratedAt   *time.Time           `json:"generatedAt,omitempty"`
	NextRefreshAt time.Time            `json:"nextRefreshAt"`
}
