// internal/pkg/token/verifier.go
package token

import (
	"context"
	"fmt"
	"time"

	"resumeforge-service/internal/pkg/apperror"

	"github.com/golang-jwt/jwt/v5"
)

// Identity is the authenticated result of a successful verification.
type Identity struct {
	Subject string
	Email   string
	Claims  jwt.MapClaims
}

type Config struct {
	Issuer   string
	JWKSURL  string
	ClientID string

	// KeyCacheTTL bounds how long a signing key is trusted without refetch.
	KeyCacheTTL time.Duration
	// MinRefreshInterval bounds how often a cache miss may hit the JWKS
	// endpoint.
	MinRefreshInterval time.Duration
}

// Verifier validates bearer tokens issued by the identity provider against
// its published signing keys. RS256 only; unsigned or HMAC-signed tokens are
// rejected outright.
type Verifier struct {
	issuer   string
	clientID string
	keys     *keySet
}

func NewVerifier(cfg Config) *Verifier {
	ttl := cfg.KeyCacheTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	min := cfg.MinRefreshInterval
	if min <= 0 {
		min = 30 * time.Second
	}
	return &Verifier{
		issuer:   cfg.Issuer,
		clientID: cfg.ClientID,
		keys:     newKeySet(cfg.JWKSURL, ttl, min),
	}
}

// Verify validates signature, issuer and expiry and extracts the subject.
// Every failure collapses to a single authentication error; callers never
// see provider-specific failure shapes.
func (v *Verifier) Verify(ctx context.Context, bearer string) (*Identity, error) {
	keyfunc := func(t *jwt.Token) (interface{}, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, fmt.Errorf("token has no kid header")
		}
		return v.keys.publicKey(ctx, kid)
	}

	tok, err := jwt.Parse(bearer, keyfunc,
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithIssuer(v.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, invalidToken(err)
	}

	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok || !tok.Valid {
		return nil, invalidToken(fmt.Errorf("unexpected claims type"))
	}

	if v.clientID != "" {
		if !audienceMatches(claims, v.clientID) {
			return nil, invalidToken(fmt.Errorf("token not issued for this client"))
		}
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		// Access tokens from the provider carry the username claim even
		// when sub is absent.
		sub, _ = claims["cognito:username"].(string)
	}
	if sub == "" {
		return nil, invalidToken(fmt.Errorf("token has no subject"))
	}

	email, _ := claims["email"].(string)

	return &Identity{Subject: sub, Email: email, Claims: claims}, nil
}

// Cognito id tokens carry aud, access tokens carry client_id. Either must
// match the configured client when one is set.
func audienceMatches(claims jwt.MapClaims, clientID string) bool {
	switch a := claims["aud"].(type) {
	case string:
		return a == clientID
	case []interface{}:
		for _, v := range a {
			if s, _ := v.(string); s == clientID {
				return true
			}
		}
		return false
	}
	if cid, _ := claims["client_id"].(string); cid != "" {
		return cid == clientID
	}
	// Neither claim present; tolerate for tokens that omit audience.
	return true
}

func invalidToken(cause error) error {
	return apperror.Wrap(apperror.KindAuthentication, "InvalidToken", "invalid or expired token", cause)
}
