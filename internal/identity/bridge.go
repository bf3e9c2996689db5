// internal/identity/bridge.go
package identity

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"

	"resumeforge-service/internal/domain/auth"
	"resumeforge-service/internal/pkg/apperror"
	"resumeforge-service/internal/pkg/token"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	cognito "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"go.uber.org/zap"
)

type Config struct {
	Region         string
	ClientID       string
	ClientSecret   string
	HostedUIDomain string
	RedirectURI    string
	Providers      []string
}

// Bridge talks to the hosted identity provider and normalizes its responses
// and failures into the service vocabulary. None of its calls are idempotent
// at this layer.
type Bridge struct {
	client   *cognito.Client
	verifier *token.Verifier
	hosted   *hostedUI
	cfg      Config
	logger   *zap.Logger
}

func NewBridge(ctx context.Context, cfg Config, verifier *token.Verifier, logger *zap.Logger) (*Bridge, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, err
	}

	return &Bridge{
		client:   cognito.NewFromConfig(awsCfg),
		verifier: verifier,
		hosted:   newHostedUI(cfg),
		cfg:      cfg,
		logger:   logger,
	}, nil
}

// secretHash computes the provider's HMAC over username+clientID. Empty when
// no client secret is configured.
func (b *Bridge) secretHash(username string) *string {
	if b.cfg.ClientSecret == "" {
		return nil
	}
	mac := hmac.New(sha256.New, []byte(b.cfg.ClientSecret))
	mac.Write([]byte(username + b.cfg.ClientID))
	return aws.String(base64.StdEncoding.EncodeToString(mac.Sum(nil)))
}

// SignUp registers a new account upstream.
func (b *Bridge) SignUp(ctx context.Context, email, password, name string) (*auth.SignUpResponse, error) {
	attrs := []types.AttributeType{
		{Name: aws.String("email"), Value: aws.String(email)},
	}
	if name != "" {
		attrs = append(attrs, types.AttributeType{Name: aws.String("name"), Value: aws.String(name)})
	}

	out, err := b.client.SignUp(ctx, &cognito.SignUpInput{
		ClientId:       aws.String(b.cfg.ClientID),
		Username:       aws.String(email),
		Password:       aws.String(password),
		SecretHash:     b.secretHash(email),
		UserAttributes: attrs,
	})
	if err != nil {
		return nil, translate(err)
	}

	return &auth.SignUpResponse{
		UserSub:     aws.ToString(out.UserSub),
		IsConfirmed: out.UserConfirmed,
	}, nil
}

// ConfirmSignUp completes registration with the emailed code.
func (b *Bridge) ConfirmSignUp(ctx context.Context, email, code string) error {
	_, err := b.client.ConfirmSignUp(ctx, &cognito.ConfirmSignUpInput{
		ClientId:         aws.String(b.cfg.ClientID),
		Username:         aws.String(email),
		ConfirmationCode: aws.String(code),
		SecretHash:       b.secretHash(email),
	})
	return translate(err)
}

// PasswordLogin performs the password grant.
func (b *Bridge) PasswordLogin(ctx context.Context, email, password string) (*auth.TokenSet, error) {
	params := map[string]string{
		"USERNAME": email,
		"PASSWORD": password,
	}
	if h := b.secretHash(email); h != nil {
		params["SECRET_HASH"] = *h
	}

	out, err := b.client.InitiateAuth(ctx, &cognito.InitiateAuthInput{
		AuthFlow:       types.AuthFlowTypeUserPasswordAuth,
		ClientId:       aws.String(b.cfg.ClientID),
		AuthParameters: params,
	})
	if err != nil {
		return nil, translate(err)
	}

	return tokenSetFromResult(out.AuthenticationResult)
}

// Refresh performs the refresh grant. The returned set has no refresh field;
// the provider does not rotate refresh tokens on use.
func (b *Bridge) Refresh(ctx context.Context, refreshToken, username string) (*auth.TokenSet, error) {
	params := map[string]string{
		"REFRESH_TOKEN": refreshToken,
	}
	if h := b.secretHash(username); h != nil {
		params["SECRET_HASH"] = *h
	}

	out, err := b.client.InitiateAuth(ctx, &cognito.InitiateAuthInput{
		AuthFlow:       types.AuthFlowTypeRefreshTokenAuth,
		ClientId:       aws.String(b.cfg.ClientID),
		AuthParameters: params,
	})
	if err != nil {
		return nil, translateRefresh(err)
	}

	return tokenSetFromResult(out.AuthenticationResult)
}

// RevokeAll signs the user out of the provider globally. Best-effort: a
// failure here must not block local session revocation, so callers only log
// the returned error.
func (b *Bridge) RevokeAll(ctx context.Context, accessToken string) error {
	_, err := b.client.GlobalSignOut(ctx, &cognito.GlobalSignOutInput{
		AccessToken: aws.String(accessToken),
	})
	return translate(err)
}

// ResolveUser extracts the external identity from a token set. An id token
// is verified locally with no further round trip; with only an access token
// it falls back to the provider's userinfo call.
func (b *Bridge) ResolveUser(ctx context.Context, tokens *auth.TokenSet) (*auth.ExternalIdentity, error) {
	if tokens.IDToken != "" {
		ident, err := b.verifier.Verify(ctx, tokens.IDToken)
		if err == nil {
			name, _ := ident.Claims["name"].(string)
			return &auth.ExternalIdentity{Subject: ident.Subject, Email: ident.Email, Name: name}, nil
		}
		b.logger.Warn("id token verification failed, falling back to userinfo", zap.Error(err))
	}

	out, err := b.client.GetUser(ctx, &cognito.GetUserInput{
		AccessToken: aws.String(tokens.AccessToken),
	})
	if err != nil {
		return nil, translate(err)
	}

	ext := &auth.ExternalIdentity{}
	for _, attr := range out.UserAttributes {
		switch aws.ToString(attr.Name) {
		case "sub":
			ext.Subject = aws.ToString(attr.Value)
		case "email":
			ext.Email = aws.ToString(attr.Value)
		case "name":
			ext.Name = aws.ToString(attr.Value)
		}
	}
	if ext.Subject == "" {
		ext.Subject = aws.ToString(out.Username)
	}
	if ext.Subject == "" {
		return nil, apperror.New(apperror.KindUpstream, "ProviderError", "provider returned no subject")
	}
	return ext, nil
}

// BuildAuthorizationURL returns the hosted-UI redirect for a social provider.
func (b *Bridge) BuildAuthorizationURL(provider, redirectURI, state string) (string, error) {
	return b.hosted.authorizationURL(provider, redirectURI, state)
}

// ExchangeAuthorizationCode trades an authorization code for tokens.
func (b *Bridge) ExchangeAuthorizationCode(ctx context.Context, code, redirectURI string) (*auth.TokenSet, error) {
	return b.hosted.exchangeCode(ctx, code, redirectURI)
}

func tokenSetFromResult(res *types.AuthenticationResultType) (*auth.TokenSet, error) {
	if res == nil {
		return nil, apperror.New(apperror.KindUpstream, "ProviderError", "provider returned no tokens")
	}
	return &auth.TokenSet{
		AccessToken:  aws.ToString(res.AccessToken),
		IDToken:      aws.ToString(res.IdToken),
		RefreshToken: aws.ToString(res.RefreshToken),
		ExpiresIn:    int(res.ExpiresIn),
	}, nil
}
