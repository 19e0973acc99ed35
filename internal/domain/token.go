package domain

import "time"

// AccessClaims are the verified contents of an access token.
type AccessClaims struct {
	UserID    string
	Email     string
	Role      Role
	Name      string
	ExpiresAt time.Time
}

// RefreshClaims are the verified contents of a refresh token.
type RefreshClaims struct {
	UserID    string
	Email     string
	TokenID   string
	ExpiresAt time.Time
}

// RefreshToken is the server-side record of an issued refresh token, keyed by its jti.
type RefreshToken struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
	UserAgent *string
	IPAddress *string
}

func (t *RefreshToken) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// ClientInfo describes the client a session was issued to.
type ClientInfo struct {
	UserAgent string
	IPAddress string
}
