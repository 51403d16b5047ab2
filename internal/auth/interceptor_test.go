package auth

import (
	"context"
	"errors"
	"testing"

	"connectrpc.com/connect"
	fbauth "firebase.google.com/go/v4/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBearerToken(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		wantErr error
		want    string
	}{
		{name: "empty header", header: "", wantErr: ErrMissingToken},
		{name: "no scheme", header: "token123", wantErr: ErrMalformedToken},
		{name: "basic scheme", header: "Basic token123", wantErr: ErrMalformedToken},
		{name: "scheme only", header: "Bearer", wantErr: ErrMalformedToken},
		{name: "blank token", header: "Bearer   ", wantErr: ErrMalformedToken},
		{name: "bearer", header: "Bearer mytoken123", want: "mytoken123"},
		{name: "lowercase scheme", header: "bearer mytoken456", want: "mytoken456"},
		{name: "uppercase scheme", header: "BEARER mytoken789", want: "mytoken789"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := bearerToken(tt.header)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, token)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, token)
		})
	}
}

func TestUserClaimsContext(t *testing.T) {
	_, ok := GetUserClaims(context.Background())
	assert.False(t, ok)

	_, ok = GetUserClaims(WithUserClaims(context.Background(), nil))
	assert.False(t, ok, "nil claims do not authenticate")

	ctx := WithUserClaims(context.Background(), &UserClaims{UID: "uid-1", Email: "a@b.c", Verified: true})
	claims, ok := GetUserClaims(ctx)
	require.True(t, ok)
	assert.Equal(t, "uid-1", claims.UID)
	assert.True(t, claims.Verified)
}

func TestIsPublicEndpoint(t *testing.T) {
	assert.True(t, isPublicEndpoint("/health"))
	assert.True(t, isPublicEndpoint(HealthProcedure))
	assert.False(t, isPublicEndpoint("/insights.v1.InsightsService/CheckBudgetAdherence"))
	assert.False(t, isPublicEndpoint(""))
}

func TestClaimsFromToken(t *testing.T) {
	t.Run("copies known claims", func(t *testing.T) {
		claims := claimsFromToken("uid-12345", map[string]any{
			"email":          "user@example.com",
			"name":           "John Doe",
			"email_verified": true,
		})

		assert.Equal(t, "uid-12345", claims.UID)
		assert.Equal(t, "user@example.com", claims.Email)
		assert.Equal(t, "John Doe", claims.DisplayName)
		assert.True(t, claims.Verified)
	})

	t.Run("ignores missing and mistyped claims", func(t *testing.T) {
		claims := claimsFromToken("uid-only", map[string]any{
			"email":          "email@test.com",
			"email_verified": "yes",
		})

		assert.Equal(t, "uid-only", claims.UID)
		assert.Equal(t, "email@test.com", claims.Email)
		assert.Empty(t, claims.DisplayName)
		assert.False(t, claims.Verified)
	})
}

type fakeIDTokens struct {
	revoked       map[string]bool
	plainCalls    int
	revokedChecks int
}

func (f *fakeIDTokens) token(idToken string) (*fbauth.Token, error) {
	if idToken == "bad" {
		return nil, errors.New("invalid signature")
	}
	tok := &fbauth.Token{
		UID:    "uid-" + idToken,
		Claims: map[string]any{"email": idToken + "@example.com", "email_verified": true},
	}
	tok.Firebase.SignInProvider = "password"
	return tok, nil
}

func (f *fakeIDTokens) VerifyIDToken(ctx context.Context, idToken string) (*fbauth.Token, error) {
	f.plainCalls++
	return f.token(idToken)
}

func (f *fakeIDTokens) VerifyIDTokenAndCheckRevoked(ctx context.Context, idToken string) (*fbauth.Token, error) {
	f.revokedChecks++
	if f.revoked[idToken] {
		return nil, errors.New("id token has been revoked")
	}
	return f.token(idToken)
}

func TestFirebaseAuth_VerifyToken(t *testing.T) {
	t.Run("plain verification", func(t *testing.T) {
		tokens := &fakeIDTokens{revoked: map[string]bool{"alice": true}}
		claims, err := NewVerifier(tokens, false).VerifyToken(context.Background(), "alice")
		require.NoError(t, err)
		assert.Equal(t, "uid-alice", claims.UID)
		assert.Equal(t, "alice@example.com", claims.Email)
		assert.Equal(t, "password", claims.Provider)
		assert.Equal(t, 1, tokens.plainCalls)
		assert.Zero(t, tokens.revokedChecks)
	})

	t.Run("revocation checked", func(t *testing.T) {
		tokens := &fakeIDTokens{revoked: map[string]bool{"alice": true}}
		verifier := NewVerifier(tokens, true)

		_, err := verifier.VerifyToken(context.Background(), "alice")
		assert.ErrorContains(t, err, "revoked")

		claims, err := verifier.VerifyToken(context.Background(), "bob")
		require.NoError(t, err)
		assert.Equal(t, "uid-bob", claims.UID)
		assert.Equal(t, 2, tokens.revokedChecks)
		assert.Zero(t, tokens.plainCalls)
	})

	t.Run("invalid token", func(t *testing.T) {
		_, err := NewVerifier(&fakeIDTokens{}, false).VerifyToken(context.Background(), "bad")
		assert.ErrorContains(t, err, "verify id token")
	})
}

type fakeVerifier struct {
	tokens map[string]string
	calls  int
}

func (f *fakeVerifier) VerifyToken(ctx context.Context, idToken string) (*UserClaims, error) {
	f.calls++
	uid, ok := f.tokens[idToken]
	if !ok {
		return nil, errors.New("invalid token")
	}
	return &UserClaims{UID: uid}, nil
}

type empty struct{}

// capture returns a terminal handler recording the UID it was called with.
func capture(uid *string) connect.UnaryFunc {
	return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		if claims, ok := GetUserClaims(ctx); ok {
			*uid = claims.UID
		}
		return connect.NewResponse(&empty{}), nil
	}
}

func TestAuthInterceptor(t *testing.T) {
	verifier := &fakeVerifier{tokens: map[string]string{"good": "uid-1"}}

	tests := []struct {
		name     string
		header   string
		wantCode connect.Code
		wantUID  string
	}{
		{name: "valid token", header: "Bearer good", wantUID: "uid-1"},
		{name: "missing header", header: "", wantCode: connect.CodeUnauthenticated},
		{name: "malformed header", header: "Token good", wantCode: connect.CodeUnauthenticated},
		{name: "invalid token", header: "Bearer bad", wantCode: connect.CodeUnauthenticated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var uid string
			req := connect.NewRequest(&empty{})
			if tt.header != "" {
				req.Header().Set("Authorization", tt.header)
			}

			_, err := AuthInterceptor(verifier)(capture(&uid))(context.Background(), req)
			if tt.wantCode != 0 {
				require.Error(t, err)
				assert.Equal(t, tt.wantCode, connect.CodeOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantUID, uid)
		})
	}
}

func TestInterceptorChain_DebugImpersonation(t *testing.T) {
	verifier := &fakeVerifier{}
	var uid string

	handler := DebugAuthInterceptor(true)(AuthInterceptor(verifier)(capture(&uid)))
	req := connect.NewRequest(&empty{})
	req.Header().Set(ImpersonateHeader, "someone")

	_, err := handler(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "someone", uid)
	assert.Zero(t, verifier.calls, "impersonated requests skip token verification")
}

func TestDebugAuthInterceptor_IgnoredWhenAuthEnforced(t *testing.T) {
	var uid string
	req := connect.NewRequest(&empty{})
	req.Header().Set(ImpersonateHeader, "someone")

	_, err := DebugAuthInterceptor(false)(capture(&uid))(context.Background(), req)
	require.NoError(t, err)
	assert.Empty(t, uid)
}

func TestLocalDevInterceptor(t *testing.T) {
	t.Run("default identity", func(t *testing.T) {
		var uid string
		_, err := LocalDevInterceptor()(capture(&uid))(context.Background(), connect.NewRequest(&empty{}))
		require.NoError(t, err)
		assert.Equal(t, LocalDevUID, uid)
	})

	t.Run("keeps impersonation", func(t *testing.T) {
		var uid string
		req := connect.NewRequest(&empty{})
		req.Header().Set(ImpersonateHeader, "uid-7")

		_, err := DebugAuthInterceptor(true)(LocalDevInterceptor()(capture(&uid)))(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, "uid-7", uid)
	})
}
