// internal/domain/auth/entity.go
package auth

import (
	"database/sql"
	"time"
)

// Plan tiers.
const (
	PlanFree = "FREE"
	PlanPro  = "PRO"
)

// Device classes.
const (
	DeviceWeb     = "web"
	DeviceMobile  = "mobile"
	DeviceTablet  = "tablet"
	DeviceUnknown = "unknown"
)

// User is the local identity record. It is created lazily on the first
// successful credential exchange for an external subject and never any
// other way.
type User struct {
	ID              string       `json:"id" db:"id"`
	ExternalSubject string       `json:"-" db:"external_subject"`
	Email           string       `json:"email" db:"email"`
	Name            string       `json:"name" db:"name"`
	Plan            string       `json:"plan" db:"plan"`
	CreatedAt       time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at" db:"updated_at"`
	DeletedAt       sql.NullTime `json:"-" db:"deleted_at"`
}

// DeviceSession is one per (user, device). Rows are flipped inactive on
// sign-out, expiry or eviction and retained for history, never deleted.
type DeviceSession struct {
	ID                string         `json:"id" db:"id"`
	UserID            string         `json:"user_id" db:"user_id"`
	DeviceID          string         `json:"device_id" db:"device_id"`
	DeviceName        string         `json:"device_name" db:"device_name"`
	DeviceType        string         `json:"device_type" db:"device_type"`
	RefreshCredential string         `json:"-" db:"refresh_credential"`
	LastActiveAt      time.Time      `json:"last_active_at" db:"last_active_at"`
	ExpiresAt         time.Time      `json:"expires_at" db:"expires_at"`
	IsActive          bool           `json:"is_active" db:"is_active"`
	IPAddress         sql.NullString `json:"-" db:"ip_address"`
	UserAgent         sql.NullString `json:"-" db:"user_agent"`
	CreatedAt         time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at" db:"updated_at"`
}

// DeviceInfo carries the client-declared device descriptor attached to a
// login. DeviceID is optional; an absent id means a fresh device.
type DeviceInfo struct {
	DeviceID   string
	DeviceName string
	DeviceType string
	IPAddress  string
	UserAgent  string
}

// Normalize fills defaults for the optional descriptor fields.
func (d *DeviceInfo) Normalize() {
	switch d.DeviceType {
	case DeviceWeb, DeviceMobile, DeviceTablet:
	default:
		d.DeviceType = DeviceUnknown
	}
	if d.DeviceName == "" {
		d.DeviceName = "Unknown device"
	}
}

// TokenSet is the bundle returned by the identity provider on a successful
// credential or code exchange. RefreshToken is empty on refresh grants.
type TokenSet struct {
	AccessToken  string `json:"accessToken"`
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
	ExpiresIn    int    `json:"expiresIn"`
}

// ExternalIdentity is the provider-side identity extracted from a verified
// token or a userinfo round trip.
type ExternalIdentity struct {
	Subject string
	Email   string
	Name    string
}

// SessionPatch is a partial update applied to a stored session. Nil fields
// are left untouched.
type SessionPatch struct {
	RefreshCredential *string
	DeviceName        *string
	DeviceType        *string
	LastActiveAt      *time.Time
	ExpiresAt         *time.Time
	IsActive          *bool
	IPAddress         *string
	UserAgent         *string
}
