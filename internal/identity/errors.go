// internal/identity/errors.go
package identity

import (
	"errors"

	"resumeforge-service/internal/pkg/apperror"

	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
)

// translate converts a provider SDK failure into the service taxonomy. This
// is the only place provider exception types are inspected; nothing past
// this boundary branches on them.
func translate(err error) error {
	if err == nil {
		return nil
	}

	var (
		usernameExists   *types.UsernameExistsException
		invalidPassword  *types.InvalidPasswordException
		invalidParameter *types.InvalidParameterException
		notAuthorized    *types.NotAuthorizedException
		notConfirmed     *types.UserNotConfirmedException
		userNotFound     *types.UserNotFoundException
		codeMismatch     *types.CodeMismatchException
		expiredCode      *types.ExpiredCodeException
		tooManyRequests  *types.TooManyRequestsException
		limitExceeded    *types.LimitExceededException
	)

	switch {
	case errors.As(err, &usernameExists):
		return apperror.Wrap(apperror.KindConflict, "UserExists", "an account with this email already exists", err)
	case errors.As(err, &invalidPassword):
		return apperror.Wrap(apperror.KindValidation, "InvalidPassword", "password does not meet the security requirements", err)
	case errors.As(err, &invalidParameter):
		return apperror.Wrap(apperror.KindValidation, "ValidationError", "invalid signup parameters", err)
	case errors.As(err, &notConfirmed):
		return apperror.Wrap(apperror.KindAuthorization, "UserNotConfirmed", "please verify your email before signing in", err)
	case errors.As(err, &notAuthorized), errors.As(err, &userNotFound):
		return apperror.Wrap(apperror.KindAuthentication, "InvalidCredentials", "incorrect email or password", err)
	case errors.As(err, &codeMismatch):
		return apperror.Wrap(apperror.KindValidation, "InvalidCode", "invalid verification code", err)
	case errors.As(err, &expiredCode):
		return apperror.Wrap(apperror.KindValidation, "ExpiredCode", "verification code has expired, request a new one", err)
	case errors.As(err, &tooManyRequests), errors.As(err, &limitExceeded):
		return apperror.Wrap(apperror.KindUpstream, "ProviderThrottled", "identity provider is throttling requests", err)
	default:
		return apperror.Wrap(apperror.KindUpstream, "ProviderError", "identity provider request failed", err)
	}
}

// translateRefresh narrows refresh-grant failures: the provider rejecting a
// refresh token means the caller must force a full re-login.
func translateRefresh(err error) error {
	if err == nil {
		return nil
	}
	var notAuthorized *types.NotAuthorizedException
	if errors.As(err, &notAuthorized) {
		return apperror.Wrap(apperror.KindAuthentication, "RefreshRejected", "session is no longer valid, please sign in again", err)
	}
	return translate(err)
}
