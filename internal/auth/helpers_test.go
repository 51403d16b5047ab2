package auth

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/castlemilk/pfinance/insights/internal/domain"
)

func TestRequireAuth(t *testing.T) {
	_, err := RequireAuth(context.Background())
	require.Error(t, err)
	assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))

	claims, err := RequireAuth(WithUserClaims(context.Background(), &UserClaims{UID: "uid-9", Provider: "password"}))
	require.NoError(t, err)
	assert.Equal(t, "uid-9", claims.UID)
	assert.Equal(t, "password", claims.Provider)
}

type directory map[string]*domain.User

func (d directory) GetUserByExternalID(ctx context.Context, externalID string) (*domain.User, error) {
	if externalID == "broken" {
		return nil, errors.New("connection refused")
	}
	u, ok := d[externalID]
	if !ok {
		return nil, fmt.Errorf("user %q: %w", externalID, domain.ErrNotFound)
	}
	return u, nil
}

func TestResolveUser(t *testing.T) {
	dir := directory{"uid-1": {ID: 7, ExternalID: "uid-1"}}

	t.Run("unauthenticated", func(t *testing.T) {
		_, err := ResolveUser(context.Background(), dir)
		require.Error(t, err)
		assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))
	})

	t.Run("known uid", func(t *testing.T) {
		ctx := WithUserClaims(context.Background(), &UserClaims{UID: "uid-1"})
		user, err := ResolveUser(ctx, dir)
		require.NoError(t, err)
		assert.Equal(t, int64(7), user.ID)
	})

	t.Run("unknown uid", func(t *testing.T) {
		ctx := WithUserClaims(context.Background(), &UserClaims{UID: "uid-2"})
		_, err := ResolveUser(ctx, dir)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("store failure", func(t *testing.T) {
		ctx := WithUserClaims(context.Background(), &UserClaims{UID: "broken"})
		_, err := ResolveUser(ctx, dir)
		require.Error(t, err)
		assert.NotErrorIs(t, err, domain.ErrNotFound)
	})
}
