// Package domain holds the entities shared by the stores, services and
// transport layers.
package domain

import "github.com/shopspring/decimal"

// AccountType distinguishes a user's main account from savings.
type AccountType string

const (
	AccountTypeMain    AccountType = "MAIN"
	AccountTypeSavings AccountType = "SAVINGS"
)

// User maps an authenticated identity to the numeric owner id used by accounts.
type User struct {
	ID         int64  `json:"id"`
	ExternalID string `json:"externalId"`
	Username   string `json:"username"`
	PushToken  string `json:"-"`
}

// Account is owned by exactly one user.
type Account struct {
	ID            int64           `json:"accountId"`
	UserID        int64           `json:"-"`
	Type          AccountType     `json:"accountType"`
	AccountNumber string          `json:"accountNumber"`
	CardNumber    string          `json:"cardNumber"`
	Balance       decimal.Decimal `json:"balance"`
}

// OwnedBy reports whether the account belongs to userID.
func (a *Account) OwnedBy(userID int64) bool {
	return a != nil && a.UserID == userID
}

// MCC resolves a merchant category code to a human category pair.
type MCC struct {
	ID          int64  `json:"id"`
	Code        string `json:"code"`
	Category    string `json:"category"`
	SubCategory string `json:"subCategory"`
}

// Offer is a partner promotion attached to an MCC category.
type Offer struct {
	ID          int64  `json:"id"`
	MCCID       int64  `json:"-"`
	Category    string `json:"category,omitempty"`
	SubCategory string `json:"subCategory,omitempty"`
	Description string `json:"description"`
	ImageURL    string `json:"imageUrl,omitempty"`
}
