// internal/identity/errors_test.go
package identity

import (
	"errors"
	"fmt"
	"testing"

	"resumeforge-service/internal/pkg/apperror"

	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/stretchr/testify/assert"
)

func TestTranslate(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantKind apperror.Kind
		wantCode string
	}{
		{"username exists", &types.UsernameExistsException{}, apperror.KindConflict, "UserExists"},
		{"weak password", &types.InvalidPasswordException{}, apperror.KindValidation, "InvalidPassword"},
		{"bad parameters", &types.InvalidParameterException{}, apperror.KindValidation, "ValidationError"},
		{"not confirmed", &types.UserNotConfirmedException{}, apperror.KindAuthorization, "UserNotConfirmed"},
		{"bad credentials", &types.NotAuthorizedException{}, apperror.KindAuthentication, "InvalidCredentials"},
		{"unknown user", &types.UserNotFoundException{}, apperror.KindAuthentication, "InvalidCredentials"},
		{"code mismatch", &types.CodeMismatchException{}, apperror.KindValidation, "InvalidCode"},
		{"expired code", &types.ExpiredCodeException{}, apperror.KindValidation, "ExpiredCode"},
		{"throttled", &types.TooManyRequestsException{}, apperror.KindUpstream, "ProviderThrottled"},
		{"limit exceeded", &types.LimitExceededException{}, apperror.KindUpstream, "ProviderThrottled"},
		{"anything else", errors.New("socket closed"), apperror.KindUpstream, "ProviderError"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := translate(tt.err)
			assert.Equal(t, tt.wantKind, apperror.KindOf(got))
			assert.Equal(t, tt.wantCode, apperror.CodeOf(got))
		})
	}
}

func TestTranslate_UnwrapsOperationErrors(t *testing.T) {
	// SDK failures arrive wrapped in operation context.
	err := fmt.Errorf("operation SignUp: %w", &types.UsernameExistsException{})

	got := translate(err)
	assert.Equal(t, apperror.KindConflict, apperror.KindOf(got))
	assert.Equal(t, "UserExists", apperror.CodeOf(got))
}

func TestTranslate_Nil(t *testing.T) {
	assert.NoError(t, translate(nil))
	assert.NoError(t, translateRefresh(nil))
}

func TestTranslateRefresh_RejectionForcesRelogin(t *testing.T) {
	got := translateRefresh(&types.NotAuthorizedException{})
	assert.Equal(t, apperror.KindAuthentication, apperror.KindOf(got))
	assert.Equal(t, "RefreshRejected", apperror.CodeOf(got))

	// Other failures translate as usual.
	got = translateRefresh(&types.TooManyRequestsException{})
	assert.Equal(t, "ProviderThrottled", apperror.CodeOf(got))
}

func TestHostedUI_AuthorizationURL(t *testing.T) {
	h := newHostedUI(Config{
		HostedUIDomain: "https://auth.example.com",
		ClientID:       "client-abc",
		RedirectURI:    "https://api.example.com/auth/callback",
		Providers:      []string{"google", "apple"},
	})

	u, err := h.authorizationURL("google", "", "state-1")
	assert.NoError(t, err)
	assert.Contains(t, u, "https://auth.example.com/oauth2/authorize?")
	assert.Contains(t, u, "identity_provider=Google")
	assert.Contains(t, u, "client_id=client-abc")
	assert.Contains(t, u, "state=state-1")
	assert.Contains(t, u, "redirect_uri=https%3A%2F%2Fapi.example.com%2Fauth%2Fcallback")

	// Facebook is a known provider but not enabled for this pool.
	_, err = h.authorizationURL("facebook", "", "state-1")
	assert.Equal(t, "InvalidProvider", apperror.CodeOf(err))

	_, err = h.authorizationURL("myspace", "", "state-1")
	assert.Equal(t, "InvalidProvider", apperror.CodeOf(err))
}
