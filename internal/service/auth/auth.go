// internal/service/auth/auth.go
package auth

import (
	"context"

	"resumeforge-service/internal/domain/auth"
	"resumeforge-service/internal/domain/resume"
	"resumeforge-service/internal/pkg/apperror"
	"resumeforge-service/internal/pkg/session"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// UserStore is what the service needs from the user repository.
type UserStore interface {
	FindByID(ctx context.Context, id string) (*auth.User, error)
	FindBySubject(ctx context.Context, subject string) (*auth.User, error)
	CreateIfAbsent(ctx context.Context, u *auth.User) (*auth.User, error)
}

// IdentityProvider is the upstream credential surface the service drives.
// Satisfied by identity.Bridge.
type IdentityProvider interface {
	SignUp(ctx context.Context, email, password, name string) (*auth.SignUpResponse, error)
	ConfirmSignUp(ctx context.Context, email, code string) error
	PasswordLogin(ctx context.Context, email, password string) (*auth.TokenSet, error)
	Refresh(ctx context.Context, refreshToken, username string) (*auth.TokenSet, error)
	RevokeAll(ctx context.Context, accessToken string) error
	ResolveUser(ctx context.Context, tokens *auth.TokenSet) (*auth.ExternalIdentity, error)
	BuildAuthorizationURL(provider, redirectURI, state string) (string, error)
	ExchangeAuthorizationCode(ctx context.Context, code, redirectURI string) (*auth.TokenSet, error)
}

// StatsStore supplies the document counts for the profile payload.
type StatsStore interface {
	CountByUser(ctx context.Context, userID string) (*resume.Stats, error)
}

// AuthService orchestrates the identity provider, the local user directory
// and the device-session lifecycle.
type AuthService struct {
	provider IdentityProvider
	users    UserStore
	sessions *DeviceSessionManager
	stats    StatsStore
	limiter  *session.RateLimiter
	logger   *zap.Logger

	// Collapses concurrent refreshes of the same credential into one
	// upstream round trip.
	refreshGroup singleflight.Group
}

func NewAuthService(provider IdentityProvider, users UserStore, sessions *DeviceSessionManager, stats StatsStore, limiter *session.RateLimiter, logger *zap.Logger) *AuthService {
	return &AuthService{
		provider: provider,
		users:    users,
		sessions: sessions,
		stats:    stats,
		limiter:  limiter,
		logger:   logger,
	}
}

// SignUp registers the account upstream. No local row is created yet; that
// happens on the first successful login.
func (s *AuthService) SignUp(ctx context.Context, ip string, req auth.SignUpRequest) (*auth.SignUpResponse, error) {
	if s.limiter != nil {
		allowed, err := s.limiter.CheckSignupAttempt(ctx, ip)
		if err != nil {
			s.logger.Warn("signup rate limit check failed", zap.Error(err))
		} else if !allowed {
			return nil, apperror.New(apperror.KindValidation, "TooManyAttempts", "too many signup attempts, try again later")
		}
	}
	return s.provider.SignUp(ctx, req.Email, req.Password, req.Name)
}

// ConfirmSignUp completes registration with the emailed code.
func (s *AuthService) ConfirmSignUp(ctx context.Context, req auth.VerifyRequest) error {
	return s.provider.ConfirmSignUp(ctx, req.Email, req.Code)
}

// PasswordLogin exchanges credentials upstream, materializes the local user
// and binds a device session. Evicted devices ride back on the response.
func (s *AuthService) PasswordLogin(ctx context.Context, ip string, req auth.SignInRequest, device auth.DeviceInfo) (*auth.SignInResponse, error) {
	if s.limiter != nil {
		allowed, _, err := s.limiter.CheckLoginAttempt(ctx, ip, req.Email)
		if err != nil {
			s.logger.Warn("login rate limit check failed", zap.Error(err))
		} else if !allowed {
			return nil, apperror.New(apperror.KindAuthentication, "TooManyAttempts", "too many login attempts, try again later")
		}
	}

	tokens, err := s.provider.PasswordLogin(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}

	resp, err := s.establishSession(ctx, tokens, device)
	if err != nil {
		return nil, err
	}

	if s.limiter != nil {
		if err := s.limiter.ResetLoginAttempts(ctx, ip, req.Email); err != nil {
			s.logger.Warn("failed to reset login attempts", zap.Error(err))
		}
	}
	return resp, nil
}

// establishSession is the shared tail of every login path: resolve the
// external identity, upsert the local user, create or refresh the device
// session.
func (s *AuthService) establishSession(ctx context.Context, tokens *auth.TokenSet, device auth.DeviceInfo) (*auth.SignInResponse, error) {
	ident, err := s.provider.ResolveUser(ctx, tokens)
	if err != nil {
		return nil, err
	}

	user, err := s.users.CreateIfAbsent(ctx, &auth.User{
		ID:              ulid.Make().String(),
		ExternalSubject: ident.Subject,
		Email:           ident.Email,
		Name:            ident.Name,
		Plan:            auth.PlanFree,
	})
	if err != nil {
		return nil, err
	}

	created, evicted, err := s.sessions.CreateOrRefreshSession(ctx, user.ID, tokens.RefreshToken, device)
	if err != nil {
		return nil, err
	}
	if len(evicted) > 0 {
		s.logger.Info("device quota reached, evicted least-recent sessions",
			zap.String("user_id", user.ID), zap.Int("evicted", len(evicted)))
	}

	resp := &auth.SignInResponse{
		User: auth.UserSummary{
			ID:    user.ID,
			Email: user.Email,
			Name:  user.Name,
			Plan:  user.Plan,
		},
		Tokens: *tokens,
		Session: auth.SessionSummary{
			DeviceID:   created.DeviceID,
			DeviceName: created.DeviceName,
		},
	}
	for _, v := range evicted {
		resp.RemovedDevices = append(resp.RemovedDevices, auth.DeviceSummary{
			DeviceID:   v.DeviceID,
			DeviceName: v.DeviceName,
			LastActive: v.LastActiveAt,
		})
	}
	return resp, nil
}

// Refresh validates the stored credential against its session, then performs
// the upstream refresh grant. Concurrent refreshes of the same credential
// share one result.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*auth.RefreshResponse, error) {
	v, err, _ := s.refreshGroup.Do(refreshToken, func() (interface{}, error) {
		return s.refresh(ctx, refreshToken)
	})
	if err != nil {
		return nil, err
	}
	return v.(*auth.RefreshResponse), nil
}

func (s *AuthService) refresh(ctx context.Context, refreshToken string) (*auth.RefreshResponse, error) {
	sess, err := s.sessions.ValidateAndTouch(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	// The provider's secret hash covers the username, so look it up first.
	user, err := s.users.FindByID(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}

	tokens, err := s.provider.Refresh(ctx, refreshToken, user.Email)
	if err != nil {
		if apperror.KindOf(err) == apperror.KindAuthentication {
			// Upstream rejected the credential: the session is dead weight.
			if rerr := s.sessions.Revoke(ctx, sess.ID); rerr != nil {
				s.logger.Error("failed to revoke session after refresh rejection",
					zap.String("session_id", sess.ID), zap.Error(rerr))
			}
		}
		return nil, err
	}

	// Most grants return no new refresh credential; rotate only when the
	// provider actually issued one.
	current := refreshToken
	if tokens.RefreshToken != "" && tokens.RefreshToken != refreshToken {
		if err := s.sessions.RotateCredential(ctx, sess.ID, tokens.RefreshToken); err != nil {
			return nil, err
		}
		current = tokens.RefreshToken
	}
	tokens.RefreshToken = current

	return &auth.RefreshResponse{Tokens: *tokens}, nil
}

// SignOut revokes the named device, the header-identified device, or every
// session for the user. Returns how many sessions were revoked.
func (s *AuthService) SignOut(ctx context.Context, subject, accessToken, headerDeviceID string, req auth.SignOutRequest) (int, error) {
	user, err := s.users.FindBySubject(ctx, subject)
	if err != nil {
		return 0, err
	}

	if req.AllDevices {
		// Global upstream sign-out is best effort; local revocation is the
		// authoritative part.
		if err := s.provider.RevokeAll(ctx, accessToken); err != nil {
			s.logger.Warn("provider global sign-out failed", zap.String("user_id", user.ID), zap.Error(err))
		}
		return s.sessions.RevokeAll(ctx, user.ID)
	}

	deviceID := req.DeviceID
	if deviceID == "" {
		deviceID = headerDeviceID
	}
	if deviceID == "" {
		return 0, apperror.New(apperror.KindValidation, "MissingDevice", "no device id supplied")
	}

	if err := s.sessions.RevokeByDeviceID(ctx, user.ID, deviceID); err != nil {
		return 0, err
	}
	return 1, nil
}

// Sessions lists the caller's active device sessions, flagging the one that
// matches the presented device id.
func (s *AuthService) Sessions(ctx context.Context, subject, currentDeviceID string) ([]auth.SessionItem, error) {
	user, err := s.users.FindBySubject(ctx, subject)
	if err != nil {
		return nil, err
	}

	sessions, err := s.sessions.ListSessions(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	items := make([]auth.SessionItem, 0, len(sessions))
	for _, sess := range sessions {
		items = append(items, auth.SessionItem{
			ID:         sess.ID,
			DeviceID:   sess.DeviceID,
			DeviceName: sess.DeviceName,
			DeviceType: sess.DeviceType,
			LastActive: sess.LastActiveAt,
			CreatedAt:  sess.CreatedAt,
			IsCurrent:  currentDeviceID != "" && sess.DeviceID == currentDeviceID,
		})
	}
	return items, nil
}

// Me returns the authenticated profile with document and session stats.
func (s *AuthService) Me(ctx context.Context, subject string) (*auth.MeResponse, error) {
	user, err := s.users.FindBySubject(ctx, subject)
	if err != nil {
		return nil, err
	}

	resp := &auth.MeResponse{User: user}

	if s.stats != nil {
		counts, err := s.stats.CountByUser(ctx, user.ID)
		if err != nil {
			s.logger.Warn("failed to count documents", zap.String("user_id", user.ID), zap.Error(err))
		} else {
			resp.Stats.Resumes = counts.Resumes
			resp.Stats.CoverLetters = counts.CoverLetters
		}
	}

	active, err := s.sessions.ListSessions(ctx, user.ID)
	if err != nil {
		s.logger.Warn("failed to list sessions", zap.String("user_id", user.ID), zap.Error(err))
	} else {
		resp.Stats.ActiveSessions = len(active)
	}
	return resp, nil
}
