package auth

import (
	"context"

	"connectrpc.com/connect"
)

// HealthProcedure is the Connect procedure of the health check.
const HealthProcedure = "/insights.v1.HealthService/GetHealth"

// ImpersonateHeader names the user a request acts as when auth is skipped.
const ImpersonateHeader = "X-Debug-Impersonate-User"

var publicProcedures = map[string]bool{
	"/health":       true,
	HealthProcedure: true,
}

// TokenVerifier verifies bearer tokens. *FirebaseAuth implements it.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, idToken string) (*UserClaims, error)
}

// AuthInterceptor requires a valid Firebase ID token on every non-public
// procedure. Requests already carrying claims pass through.
func AuthInterceptor(verifier TokenVerifier) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if isPublicEndpoint(req.Spec().Procedure) {
				return next(ctx, req)
			}
			if _, ok := GetUserClaims(ctx); ok {
				return next(ctx, req)
			}

			token, err := bearerToken(req.Header().Get("Authorization"))
			if err != nil {
				return nil, connect.NewError(connect.CodeUnauthenticated, err)
			}
			claims, err := verifier.VerifyToken(ctx, token)
			if err != nil {
				return nil, connect.NewError(connect.CodeUnauthenticated, err)
			}
			return next(withUserClaims(ctx, claims), req)
		}
	}
}

// DebugAuthInterceptor lets a request act as the user named in
// ImpersonateHeader. It does nothing unless skipAuth is set; never enable
// that in production.
func DebugAuthInterceptor(skipAuth bool) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if !skipAuth {
				return next(ctx, req)
			}
			if uid := req.Header().Get(ImpersonateHeader); uid != "" {
				ctx = withUserClaims(ctx, &UserClaims{
					UID:      uid,
					Email:    uid + "@debug.local",
					Provider: "impersonation",
				})
			}
			return next(ctx, req)
		}
	}
}

func isPublicEndpoint(procedure string) bool {
	return publicProcedures[procedure]
}

type contextKey struct{}

func withUserClaims(ctx context.Context, claims *UserClaims) context.Context {
	return context.WithValue(ctx, contextKey{}, claims)
}

// WithUserClaims attaches claims to ctx, as the interceptors do.
func WithUserClaims(ctx context.Context, claims *UserClaims) context.Context {
	return withUserClaims(ctx, claims)
}

// GetUserClaims returns the claims attached to ctx.
func GetUserClaims(ctx context.Context) (*UserClaims, bool) {
	claims, ok := ctx.Value(contextKey{}).(*UserClaims)
	return claims, ok && claims != nil
}
