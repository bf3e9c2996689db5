// internal/pkg/token/jwks.go
package token

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

type jwk struct {
	Kty string `json:"kty"`
	Alg string `json:"alg"`
	Kid string `json:"kid"`
	Use string `json:"use"`
	N   string `json:"n"` // base64url
	E   string `json:"e"` // base64url
}

type jwks struct {
	Keys []jwk `json:"keys"`
}

// keySet fetches the issuer's signing keys and caches them per kid. A miss
// triggers a refetch, deduplicated across callers and rate-bounded so key
// rotation cannot turn invalid-kid tokens into a retry storm.
type keySet struct {
	url  string
	http *http.Client

	keys *gocache.Cache
	sf   singleflight.Group

	mu          sync.Mutex
	lastFetch   time.Time
	minInterval time.Duration
	etag        string
}

func newKeySet(jwksURL string, cacheTTL, minRefreshInterval time.Duration) *keySet {
	return &keySet{
		url:         jwksURL,
		http:        &http.Client{Timeout: 10 * time.Second},
		keys:        gocache.New(cacheTTL, cacheTTL),
		minInterval: minRefreshInterval,
	}
}

// publicKey returns the RSA key for kid, refetching the JWKS on a miss.
func (s *keySet) publicKey(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	if v, ok := s.keys.Get(kid); ok {
		return v.(*rsa.PublicKey), nil
	}

	if _, err, _ := s.sf.Do("jwks", func() (interface{}, error) {
		return nil, s.refresh(ctx)
	}); err != nil {
		return nil, err
	}

	if v, ok := s.keys.Get(kid); ok {
		return v.(*rsa.PublicKey), nil
	}
	return nil, fmt.Errorf("signing key %q not found", kid)
}

func (s *keySet) refresh(ctx context.Context) error {
	s.mu.Lock()
	if time.Since(s.lastFetch) < s.minInterval {
		s.mu.Unlock()
		return nil
	}
	s.lastFetch = time.Now()
	etag := s.etag
	s.mu.Unlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return err
	}
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return fmt.Errorf("jwks fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified {
		return nil
	}
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("jwks http %d", resp.StatusCode)
	}

	var doc jwks
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return fmt.Errorf("jwks decode: %w", err)
	}

	for _, k := range doc.Keys {
		if !strings.EqualFold(k.Kty, "RSA") || k.Kid == "" {
			continue
		}
		pub, err := rsaFromJWK(k)
		if err != nil {
			continue
		}
		s.keys.SetDefault(k.Kid, pub)
	}

	s.mu.Lock()
	s.etag = resp.Header.Get("ETag")
	s.mu.Unlock()
	return nil
}

func rsaFromJWK(k jwk) (*rsa.PublicKey, error) {
	nb, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, err
	}
	eb, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, err
	}

	e := 0
	for _, b := range eb {
		e = (e << 8) | int(b)
	}
	if e == 0 {
		e = 65537
	}

	return &rsa.PublicKey{N: new(big.Int).SetBytes(nb), E: e}, nil
}
