package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Config configures a Manager. Tokens are always signed with the shared
// HS256 secret. Verification accepts HS256 tokens checked against that
// secret and, when JWKSURL is set, RS256 tokens checked against the JWKS
// endpoint (keyed by kid). DevMode is not read by the Manager.
type Config struct {
	HS256Secret string
	DevMode     bool
	JWKSURL     string
	Issuer      string
}

// Manager issues and validates VTN access tokens.
type Manager struct {
	cfg  Config
	jwks *jwksCache
}

func NewManager(cfg Config) *Manager {
	m := &Manager{cfg: cfg}
	if cfg.JWKSURL != "" {
		m.jwks = newJWKSCache(cfg.JWKSURL)
		if err := m.jwks.fetch(false); err != nil {
			// Non-fatal: the cache retries lazily on first validation.
			_ = err
		}
	}
	return m
}

// ErrTokenExpiredOrInvalid covers signature/expiry/claims failures uniformly.
// Middleware treats it like a missing token: the request carries no claims,
// so the Require* extractors answer it with 401.
var ErrTokenExpiredOrInvalid = errors.New("auth: token invalid or expired")

// Create mints an HS256 token with the given subject, roles, and TTL. Token
// issuance (POST /auth/token) always signs with the shared secret: the VTN
// is the one party minting tokens, so there is no production/dev split on
// the signing side the way there is on the verifying side.
func (m *Manager) Create(expiresIn time.Duration, clientID string, roles []AuthRole) (string, error) {
	if m.cfg.HS256Secret == "" {
		return "", errors.New("auth: HS256 secret not configured")
	}
	now := time.Now().UTC()
	claims := Claims{
		Subject: clientID,
		Roles:   roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   clientID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(m.cfg.HS256Secret))
}

// DecodeAndValidate verifies a bearer token's signature and expiry and
// returns its claims. Supports both HS256 (dev secret) and RS256 (JWKS)
// signing methods on the same call, selecting by the token's own algorithm
// header — the same approach as the teacher's ValidateToken.
func (m *Manager) DecodeAndValidate(tokenString string) (Claims, error) {
	if tokenString == "" {
		return Claims{}, ErrTokenExpiredOrInvalid
	}

	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		switch t.Method.(type) {
		case *jwt.SigningMethodRSA:
			if m.jwks == nil {
				return nil, errors.New("auth: RS256 token received but no JWKS configured")
			}
			kid, _ := t.Header["kid"].(string)
			if kid == "" {
				return nil, errors.New("auth: missing kid in token header")
			}
			return m.jwks.publicKey(kid)
		case *jwt.SigningMethodHMAC:
			if m.cfg.HS256Secret == "" {
				return nil, errors.New("auth: HS256 secret not configured")
			}
			return []byte(m.cfg.HS256Secret), nil
		default:
			return nil, fmt.Errorf("auth: unexpected signing method %v", t.Header["alg"])
		}
	})
	if err != nil || !token.Valid {
		return Claims{}, fmt.Errorf("%w: %v", ErrTokenExpiredOrInvalid, err)
	}
	return claims, nil
}
