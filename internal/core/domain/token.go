package domain

// TokenKind distinguishes the two signed token families.
type TokenKind string

const (
	TokenAccess  TokenKind = "access"
	TokenRefresh TokenKind = "refresh"
)

// TokenPair is the result of minting a session: a short-lived access token
// and a long-lived rotating refresh token, with their TTLs in seconds.
type TokenPair struct {
	AccessToken       string `json:"access_token"`
	RefreshToken      string `json:"refresh_token"`
	AccessTTLSeconds  int    `json:"expires_in"`
	RefreshTTLSeconds int    `json:"refresh_expires_in"`
}
