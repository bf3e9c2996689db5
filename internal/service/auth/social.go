// internal/service/auth/social.go
package auth

import (
	"context"

	"resumeforge-service/internal/domain/auth"

	"github.com/google/uuid"
)

// SocialAuthURL builds the hosted-UI redirect for a social provider. State is
// generated here and echoed back by the provider; the frontend compares it on
// return.
func (s *AuthService) SocialAuthURL(provider, redirectURI string) (*auth.SocialURLResponse, error) {
	state := uuid.NewString()
	u, err := s.provider.BuildAuthorizationURL(provider, redirectURI, state)
	if err != nil {
		return nil, err
	}
	return &auth.SocialURLResponse{URL: u, State: state}, nil
}

// HandleCallback completes a social login: trade the authorization code for
// tokens, then run the same user-upsert and session-binding tail as a
// password login.
func (s *AuthService) HandleCallback(ctx context.Context, code, redirectURI string, device auth.DeviceInfo) (*auth.SignInResponse, error) {
	tokens, err := s.provider.ExchangeAuthorizationCode(ctx, code, redirectURI)
	if err != nil {
		return nil, err
	}
	return s.establishSession(ctx, tokens, device)
}
