// internal/identity/hostedui.go
package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"resumeforge-service/internal/domain/auth"
	"resumeforge-service/internal/pkg/apperror"
)

// providerNames maps the route's lowercase provider segment onto the
// identity_provider value the hosted UI expects.
var providerNames = map[string]string{
	"google":   "Google",
	"facebook": "Facebook",
	"apple":    "SignInWithApple",
}

// hostedUI drives the redirect-based authorization-code exchange against the
// user pool's hosted endpoints. The SDK has no client for /oauth2/token, so
// this is a plain HTTP form exchange.
type hostedUI struct {
	domain       string
	clientID     string
	clientSecret string
	redirectURI  string
	allowed      map[string]bool
	http         *http.Client
}

func newHostedUI(cfg Config) *hostedUI {
	allowed := make(map[string]bool, len(cfg.Providers))
	for _, p := range cfg.Providers {
		allowed[strings.ToLower(p)] = true
	}
	return &hostedUI{
		domain:       strings.TrimSuffix(cfg.HostedUIDomain, "/"),
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		redirectURI:  cfg.RedirectURI,
		allowed:      allowed,
		http:         &http.Client{Timeout: 15 * time.Second},
	}
}

func (h *hostedUI) authorizationURL(provider, redirectURI, state string) (string, error) {
	key := strings.ToLower(provider)
	name, known := providerNames[key]
	if !known || !h.allowed[key] {
		return "", apperror.New(apperror.KindValidation, "InvalidProvider",
			fmt.Sprintf("unsupported social provider %q", provider))
	}
	if redirectURI == "" {
		redirectURI = h.redirectURI
	}

	u, err := url.Parse(h.domain + "/oauth2/authorize")
	if err != nil {
		return "", apperror.Wrap(apperror.KindInternal, "InternalError", "bad hosted UI domain", err)
	}
	q := u.Query()
	q.Set("identity_provider", name)
	q.Set("response_type", "code")
	q.Set("client_id", h.clientID)
	q.Set("redirect_uri", redirectURI)
	q.Set("scope", "openid email profile")
	q.Set("state", state)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (h *hostedUI) exchangeCode(ctx context.Context, code, redirectURI string) (*auth.TokenSet, error) {
	if redirectURI == "" {
		redirectURI = h.redirectURI
	}

	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("client_id", h.clientID)
	form.Set("code", code)
	form.Set("redirect_uri", redirectURI)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.domain+"/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, apperror.Wrap(apperror.KindInternal, "InternalError", "building token request failed", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if h.clientSecret != "" {
		req.SetBasicAuth(h.clientID, h.clientSecret)
	}

	resp, err := h.http.Do(req)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindUpstream, "SocialAuthError", "code exchange failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		var body struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&body)
		return nil, apperror.Wrap(apperror.KindUpstream, "SocialAuthError", "code exchange rejected",
			fmt.Errorf("token endpoint http %d: %s", resp.StatusCode, body.Error))
	}

	var tr struct {
		AccessToken  string `json:"access_token"`
		IDToken      string `json:"id_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, apperror.Wrap(apperror.KindUpstream, "SocialAuthError", "malformed token response", err)
	}

	return &auth.TokenSet{
		AccessToken:  tr.AccessToken,
		IDToken:      tr.IDToken,
		RefreshToken: tr.RefreshToken,
		ExpiresIn:    tr.ExpiresIn,
	}, nil
}
