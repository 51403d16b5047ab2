package auth

import (
	"context"
	"errors"
	"fmt"

	"connectrpc.com/connect"

	"github.com/castlemilk/pfinance/insights/internal/domain"
)

// UserDirectory maps Firebase UIDs to users.
type UserDirectory interface {
	GetUserByExternalID(ctx context.Context, externalID string) (*domain.User, error)
}

// RequireAuth returns the caller's claims, or CodeUnauthenticated when the
// request carries none.
func RequireAuth(ctx context.Context) (*UserClaims, error) {
	claims, ok := GetUserClaims(ctx)
	if !ok {
		return nil, connect.NewError(connect.CodeUnauthenticated, errors.New("request is not authenticated"))
	}
	return claims, nil
}

// ResolveUser returns the user behind the authenticated request. A valid
// token whose UID has no user yields an error wrapping domain.ErrNotFound.
func ResolveUser(ctx context.Context, dir UserDirectory) (*domain.User, error) {
	claims, err := RequireAuth(ctx)
	if err != nil {
		return nil, err
	}

	user, err := dir.GetUserByExternalID(ctx, claims.UID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("no user registered for uid %q: %w", claims.UID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("resolve user: %w", err)
	}
	return user, nil
}
