package cache

import (
	"strconv"
	"strings"
)

// Transaction key scopes.
const (
	ScopeUser    = "user"
	ScopeAccount = "account"
)

// TransactionKey builds the ordered transaction-query key, e.g.
// "account: 7 | category: DINING | mcc: any | period: monthly | year: 2026 | month: any".
// Zero ids and periods and empty categories render as "any".
func TransactionKey(scope string, id int64, category string, mccID int64, period string, year, month int) string {
	parts := []string{
		scope + ": " + strconv.FormatInt(id, 10),
		"category: " + orAny(category),
		"mcc: " + intOrAny(mccID),
		"period: " + period,
		"year: " + intOrAny(int64(year)),
		"month: " + intOrAny(int64(month)),
	}
	return strings.Join(parts, " | ")
}

// UserKey is the key of per-user recommendation entries.
func UserKey(userID int64) string {
	return "user: " + strconv.FormatInt(userID, 10)
}

func orAny(s string) string {
	if s == "" {
		return "any"
	}
	return s
}

func intOrAny(v int64) string {
	if v == 0 {
		return "any"
	}
	return strconv.FormatInt(v, 10)
}
