package auth

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	firebase "firebase.google.com/go/v4"
	fbauth "firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"

	"github.com/castlemilk/pfinance/insights/internal/config"
)

var (
	// ErrMissingToken reports a request without an Authorization header.
	ErrMissingToken = errors.New("authorization header is required")
	// ErrMalformedToken reports an Authorization header that is not a bearer token.
	ErrMalformedToken = errors.New("authorization header must be Bearer token")
)

// UserClaims is the identity of an authenticated caller.
type UserClaims struct {
	UID         string
	Email       string
	DisplayName string
	Verified    bool
	// Provider is the Firebase sign-in provider, e.g. "password" or "google.com".
	Provider string
}

// IDTokenVerifier is the part of *auth.Client used to check ID tokens.
type IDTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*fbauth.Token, error)
	VerifyIDTokenAndCheckRevoked(ctx context.Context, idToken string) (*fbauth.Token, error)
}

// FirebaseAuth verifies Firebase ID tokens.
type FirebaseAuth struct {
	client       IDTokenVerifier
	checkRevoked bool
}

// NewApp initialises the Firebase app shared by auth and messaging.
func NewApp(ctx context.Context, cfg config.FirebaseConfig) (*firebase.App, error) {
	var opts []option.ClientOption

	// Cloud Run has default credentials; locally a key file is expected.
	creds := cfg.CredentialsFile
	if creds == "" {
		creds = credentialsFromEnv()
	}
	if creds != "" {
		opts = append(opts, option.WithCredentialsFile(creds))
	}

	app, err := firebase.NewApp(ctx, nil, opts...)
	if err != nil {
		return nil, fmt.Errorf("initialize firebase app: %w", err)
	}
	return app, nil
}

// NewFirebaseAuth creates a verifier backed by the app's auth client.
func NewFirebaseAuth(ctx context.Context, app *firebase.App, cfg config.FirebaseConfig) (*FirebaseAuth, error) {
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase auth client: %w", err)
	}
	return NewVerifier(client, cfg.CheckRevoked), nil
}

// NewVerifier wraps an ID token verifier. With checkRevoked every call also
// asks Firebase whether the session was revoked.
func NewVerifier(client IDTokenVerifier, checkRevoked bool) *FirebaseAuth {
	return &FirebaseAuth{client: client, checkRevoked: checkRevoked}
}

// VerifyToken checks a Firebase ID token and returns the caller's claims.
func (f *FirebaseAuth) VerifyToken(ctx context.Context, idToken string) (*UserClaims, error) {
	verify := f.client.VerifyIDToken
	if f.checkRevoked {
		verify = f.client.VerifyIDTokenAndCheckRevoked
	}

	token, err := verify(ctx, idToken)
	if err != nil {
		return nil, fmt.Errorf("verify id token: %w", err)
	}
	claims := claimsFromToken(token.UID, token.Claims)
	claims.Provider = token.Firebase.SignInProvider
	return claims, nil
}

func claimsFromToken(uid string, raw map[string]any) *UserClaims {
	claims := &UserClaims{UID: uid}
	claims.Verified, _ = raw["email_verified"].(bool)
	claims.Email, _ = raw["email"].(string)
	claims.DisplayName, _ = raw["name"].(string)
	return claims
}

// bearerToken extracts the token of a "Bearer <token>" header. The scheme
// is case-insensitive.
func bearerToken(header string) (string, error) {
	if header == "" {
		return "", ErrMissingToken
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(token) == "" {
		return "", ErrMalformedToken
	}
	return token, nil
}

func credentialsFromEnv() string {
	for _, key := range []string{"GOOGLE_APPLICATION_CREDENTIALS", "FIREBASE_SERVICE_ACCOUNT_KEY"} {
		if path := os.Getenv(key); path != "" {
			return path
		}
	}
	return ""
}
