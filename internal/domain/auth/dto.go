// internal/domain/auth/dto.go
package auth

import "time"

// SignUpRequest for first-party registration against the identity provider.
type SignUpRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Name     string `json:"name"`
}

// SignUpResponse reports the provider-assigned subject and whether the
// account still needs email confirmation.
type SignUpResponse struct {
	UserSub     string `json:"userSub"`
	IsConfirmed bool   `json:"isConfirmed"`
}

// VerifyRequest confirms a signup with the emailed code.
type VerifyRequest struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required"`
}

// SignInRequest for password login.
type SignInRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// SignInResponse is shared by password login and the social code exchange.
type SignInResponse struct {
	User           UserSummary     `json:"user"`
	Tokens         TokenSet        `json:"tokens"`
	Session        SessionSummary  `json:"session"`
	RemovedDevices []DeviceSummary `json:"removedDevices,omitempty"`
}

// UserSummary is the compact user payload returned on login.
type UserSummary struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Plan  string `json:"plan"`
}

// SessionSummary identifies the device session created by a login.
type SessionSummary struct {
	DeviceID   string `json:"deviceId"`
	DeviceName string `json:"deviceName"`
}

// DeviceSummary describes an evicted device for user notification.
type DeviceSummary struct {
	DeviceID   string    `json:"deviceId"`
	DeviceName string    `json:"deviceName"`
	LastActive time.Time `json:"lastActive"`
}

// RefreshRequest exchanges the stored refresh credential for fresh tokens.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// RefreshResponse carries the renewed token set (no refresh field).
type RefreshResponse struct {
	Tokens TokenSet `json:"tokens"`
}

// SignOutRequest revokes the current device, a named device, or everything.
type SignOutRequest struct {
	AllDevices bool   `json:"allDevices"`
	DeviceID   string `json:"deviceId"`
}

// SessionItem is one row of GET /auth/sessions.
type SessionItem struct {
	ID         string    `json:"id"`
	DeviceID   string    `json:"deviceId"`
	DeviceName string    `json:"deviceName"`
	DeviceType string    `json:"deviceType"`
	LastActive time.Time `json:"lastActive"`
	CreatedAt  time.Time `json:"createdAt"`
	IsCurrent  bool      `json:"isCurrent"`
}

// SocialURLResponse for GET /auth/social/:provider.
type SocialURLResponse struct {
	URL   string `json:"url"`
	State string `json:"state"`
}

// CallbackRequest for the JSON (non-redirect) code exchange.
type CallbackRequest struct {
	Code        string `json:"code" binding:"required"`
	State       string `json:"state"`
	RedirectURI string `json:"redirectUri"`
}

// MeResponse is the authenticated profile payload with usage stats.
type MeResponse struct {
	User  *User   `json:"user"`
	Stats MeStats `json:"stats"`
}

// MeStats summarizes the account's documents and devices.
type MeStats struct {
	Resumes        int `json:"resumes"`
	CoverLetters   int `json:"coverLetters"`
	ActiveSessions int `json:"activeSessions"`
}
