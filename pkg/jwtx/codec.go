// Package jwtx implements the signed-token codec for the identity service:
// short-lived HS256 access tokens and long-lived HS256 refresh tokens signed
// with two independent secrets, so a leaked access-token key cannot be used
// to forge refresh tokens.
package jwtx

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrNoSecret reports a codec constructed without a signing secret.
	ErrNoSecret = errors.New("jwtx: signing secret not configured")

	// ErrMissingTokenID reports refresh-token issuance without a jti. A
	// refresh token that cannot be correlated to a session cannot be
	// revoked, so we refuse to mint one.
	ErrMissingTokenID = errors.New("jwtx: refresh claims missing token id")

	// ErrTokenExpired reports a token past its exp claim.
	ErrTokenExpired = errors.New("jwtx: token expired")

	// ErrTokenInvalid reports a malformed token or signature mismatch.
	ErrTokenInvalid = errors.New("jwtx: invalid token")
)

// Claims are the claim payload carried by both access and refresh tokens.
// The correlation id linking a refresh token to its session rides the
// registered "jti" claim.
type Claims struct {
	jwt.RegisteredClaims

	// Email of the authenticated principal.
	Email string `json:"email,omitempty"`

	// Roles granted to the principal (staff only; empty for customers).
	Roles []string `json:"roles,omitempty"`

	// Permissions granted to the principal.
	Permissions []string `json:"permissions,omitempty"`

	// Kind is the principal kind, "staff" or "customer". Checked by the
	// orchestrators so a customer token never authorizes a staff operation.
	Kind string `json:"kind,omitempty"`
}

// Options configure a Codec.
type Options struct {
	Issuer        string
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// Codec signs and verifies access/refresh token pairs.
type Codec struct {
	issuer        string
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

// NewCodec validates the signing configuration up front so a missing secret
// fails at startup rather than on the first login.
func NewCodec(opts Options) (*Codec, error) {
	if len(opts.AccessSecret) == 0 {
		return nil, fmt.Errorf("%w: access secret", ErrNoSecret)
	}
	if len(opts.RefreshSecret) == 0 {
		return nil, fmt.Errorf("%w: refresh secret", ErrNoSecret)
	}
	if subtle.ConstantTimeCompare(opts.AccessSecret, opts.RefreshSecret) == 1 {
		return nil, errors.New("jwtx: access and refresh secrets must differ")
	}
	if opts.AccessTTL <= 0 {
		return nil, errors.New("jwtx: access ttl must be positive")
	}
	if opts.RefreshTTL <= 0 {
		return nil, errors.New("jwtx: refresh ttl must be positive")
	}

	return &Codec{
		issuer:        opts.Issuer,
		accessSecret:  opts.AccessSecret,
		refreshSecret: opts.RefreshSecret,
		accessTTL:     opts.AccessTTL,
		refreshTTL:    opts.RefreshTTL,
	}, nil
}

// AccessTTL returns the configured access-token lifetime.
func (c *Codec) AccessTTL() time.Duration { return c.accessTTL }

// RefreshTTL returns the configured refresh-token lifetime.
func (c *Codec) RefreshTTL() time.Duration { return c.refreshTTL }

// TokenPair is an access token and a refresh token minted together. Both
// carry the same jti so the pair is traceable to one session.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// IssueAccessToken signs claims with the access secret and the short access
// lifetime.
func (c *Codec) IssueAccessToken(claims Claims) (string, error) {
	c.stamp(&claims, c.accessTTL)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(c.accessSecret)
}

// IssueRefreshToken signs claims with the refresh secret and the long
// refresh lifetime. The claims must carry a token id (jti).
func (c *Codec) IssueRefreshToken(claims Claims) (string, time.Time, error) {
	if claims.ID == "" {
		return "", time.Time{}, ErrMissingTokenID
	}

	c.stamp(&claims, c.refreshTTL)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.refreshSecret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, claims.ExpiresAt.Time, nil
}

// IssueTokenPair issues the access and refresh tokens concurrently. Both
// reuse the jti already present on claims.
func (c *Codec) IssueTokenPair(claims Claims) (TokenPair, error) {
	if claims.ID == "" {
		return TokenPair{}, ErrMissingTokenID
	}

	var (
		wg         sync.WaitGroup
		pair       TokenPair
		accessErr  error
		refreshErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		pair.AccessToken, accessErr = c.IssueAccessToken(claims)
	}()
	go func() {
		defer wg.Done()
		pair.RefreshToken, pair.RefreshExpiresAt, refreshErr = c.IssueRefreshToken(claims)
	}()
	wg.Wait()

	if accessErr != nil {
		return TokenPair{}, accessErr
	}
	if refreshErr != nil {
		return TokenPair{}, refreshErr
	}
	return pair, nil
}

// VerifyAccessToken verifies signature and expiry against the access secret.
func (c *Codec) VerifyAccessToken(token string) (Claims, error) {
	return c.verify(token, c.accessSecret)
}

// VerifyRefreshToken verifies signature and expiry against the refresh
// secret. It does not consult the session store; liveness is a separate,
// stateful check owned by the orchestrators.
func (c *Codec) VerifyRefreshToken(token string) (Claims, error) {
	return c.verify(token, c.refreshSecret)
}

func (c *Codec) verify(token string, secret []byte) (Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims,
		func(t *jwt.Token) (any, error) { return secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuedAt(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrTokenExpired
		}
		return Claims{}, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}
	return claims, nil
}

func (c *Codec) stamp(claims *Claims, ttl time.Duration) {
	now := time.Now()
	claims.Issuer = c.issuer
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.NotBefore = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
}
