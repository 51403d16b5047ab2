package auth

import (
	"context"

	"connectrpc.com/connect"
)

// LocalDevUID is the Firebase UID every request carries in local
// development. The demo seed creates a user with this external id.
const LocalDevUID = "local-dev-user"

// LocalDevInterceptor authenticates every request as the demo user unless
// an earlier interceptor, e.g. impersonation, already set claims.
func LocalDevInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if isPublicEndpoint(req.Spec().Procedure) {
				return next(ctx, req)
			}
			if _, ok := GetUserClaims(ctx); !ok {
				ctx = withUserClaims(ctx, &UserClaims{
					UID:         LocalDevUID,
					Email:       "dev@localhost",
					DisplayName: "Local Dev User",
					Verified:    true,
					Provider:    "local",
				})
			}
			return next(ctx, req)
		}
	}
}
