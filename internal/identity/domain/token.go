package domain

import "time"

// TokenTypeBearer is the token_type literal returned with every pair.
const TokenTypeBearer = "Bearer"

// minTokenLength guards against empty or obviously truncated signed tokens.
// A compact JWS of any real claim set is far longer.
const minTokenLength = 20

// AccessToken is an opaque signed string with a declared lifetime.
type AccessToken struct {
	value     string
	expiresIn time.Duration
}

func NewAccessToken(value string, expiresIn time.Duration) (AccessToken, error) {
	if len(value) < minTokenLength {
		return AccessToken{}, NewInvalidInput("Access token is malformed")
	}
	if expiresIn <= 0 {
		return AccessToken{}, NewInvalidInput("Access token lifetime must be positive")
	}
	return AccessToken{value: value, expiresIn: expiresIn}, nil
}

func (t AccessToken) Value() string { return t.value }

// ExpiresIn returns the declared lifetime in seconds.
func (t AccessToken) ExpiresIn() int64 { return int64(t.expiresIn.Seconds()) }

// RefreshToken is an opaque signed string with an absolute expiry and the
// correlation id locating its session. A refresh token without a correlation
// id cannot be revoked and is rejected as malformed.
type RefreshToken struct {
	value     string
	expiresAt time.Time
	tokenID   string
}

func NewRefreshToken(value string, expiresAt time.Time, tokenID string) (RefreshToken, error) {
	if len(value) < minTokenLength {
		return RefreshToken{}, NewInvalidInput("Refresh token is malformed")
	}
	if expiresAt.IsZero() {
		return RefreshToken{}, NewInvalidInput("Refresh token expiry is required")
	}
	if tokenID == "" {
		return RefreshToken{}, NewInvalidInput("Refresh token missing token identifier")
	}
	return RefreshToken{value: value, expiresAt: expiresAt, tokenID: tokenID}, nil
}

func (t RefreshToken) Value() string { return t.value }

func (t RefreshToken) ExpiresAt() time.Time { return t.expiresAt }

func (t RefreshToken) TokenID() string { return t.tokenID }

// TokenPair is an access and refresh token produced together at issuance or
// rotation.
type TokenPair struct {
	Access  AccessToken
	Refresh RefreshToken
}

// TokenResponse is what the exposed operations return to the presentation
// layer.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"` // seconds until the access token expires
}

// RequestMeta carries optional request metadata recorded on sessions and
// reset requests. Empty values persist as NULL.
type RequestMeta struct {
	UserAgent string
	IP        string
}
