// Package token implements scoped bearer token issuance and
// verification for registry access.
package token

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"time"

	"github.com/bnema/zerowrap"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/cainy/dockhand/internal/domain"
)

// DefaultTTL is the lifetime of tokens minted for registry calls. Tokens
// are never cached or reused across calls; a leaked or logged token has
// a minimal blast radius.
const DefaultTTL = 2 * time.Minute

// ErrNoSigningKey is returned by Issue when the service was constructed
// without a private key.
var ErrNoSigningKey = errors.New("no signing key configured")

// Config holds the signing key material and token identity claims. Keys
// are PEM-encoded RSA; the private key is optional for a verify-only
// service.
type Config struct {
	PrivateKeyPEM []byte
	PublicKeyPEM  []byte
	Issuer        string
	Audience      string
}

// Service issues and verifies scoped bearer tokens. The parsed keys are
// immutable after construction; Service is safe for concurrent use.
type Service struct {
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
	issuer     string
	audience   string
	log        zerowrap.Logger
}

// NewService parses the configured PEM keys and returns a ready service.
// At least one key must be present; the public key is derived from the
// private key when only the private key is given.
func NewService(config Config, log zerowrap.Logger) (*Service, error) {
	s := &Service{
		issuer:   config.Issuer,
		audience: config.Audience,
		log:      log,
	}

	if len(config.PrivateKeyPEM) > 0 {
		key, err := jwt.ParseRSAPrivateKeyFromPEM(config.PrivateKeyPEM)
		if err != nil {
			return nil, fmt.Errorf("failed to parse private key: %w", err)
		}
		s.privateKey = key
		s.publicKey = &key.PublicKey
	}

	if len(config.PublicKeyPEM) > 0 {
		key, err := jwt.ParseRSAPublicKeyFromPEM(config.PublicKeyPEM)
		if err != nil {
			return nil, fmt.Errorf("failed to parse public key: %w", err)
		}
		s.publicKey = key
	}

	if s.privateKey == nil && s.publicKey == nil {
		return nil, errors.New("token service requires a private or public key")
	}

	return s, nil
}

// accessEntry is the wire shape of one scope inside the access claim.
type accessEntry struct {
	Type    string   `json:"type"`
	Name    string   `json:"name"`
	Actions []string `json:"actions"`
}

// Issue signs a compact token asserting issuer, audience,
// expiration = now+ttl, and an access claim listing each scope verbatim.
func (s *Service) Issue(scopes []domain.AccessScope, ttl time.Duration) (string, error) {
	if s.privateKey == nil {
		return "", ErrNoSigningKey
	}

	access := make([]accessEntry, len(scopes))
	for i, scope := range scopes {
		access[i] = accessEntry{
			Type:    scope.Type,
			Name:    scope.Name,
			Actions: scope.Actions,
		}
	}

	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"jti":    uuid.New().String(),
		"iss":    s.issuer,
		"aud":    s.audience,
		"iat":    now.Unix(),
		"nbf":    now.Unix(),
		"exp":    now.Add(ttl).Unix(),
		"access": access,
	}

	jwtToken := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	tokenString, err := jwtToken.SignedString(s.privateKey)
	if err != nil {
		return "", s.log.WrapErr(err, "failed to sign token")
	}

	s.log.Debug().
		Int("scopes", len(scopes)).
		Dur("ttl", ttl).
		Msg("scoped token issued")

	return tokenString, nil
}

// IssueNotifyToken mints a token bearing only the notify scope, for
// configuring a registry's notification endpoint.
func (s *Service) IssueNotifyToken(ttl time.Duration) (string, error) {
	return s.Issue([]domain.AccessScope{domain.NotifyScope()}, ttl)
}

// Verify checks a token's signature, expiry, and issuer, and that its
// access claim grants the required action. It fails closed: any parse or
// validation error yields false.
func (s *Service) Verify(tokenString, requiredAction string) bool {
	if s.publicKey == nil {
		return false
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return s.publicKey, nil
	}, jwt.WithIssuer(s.issuer), jwt.WithExpirationRequired())
	if err != nil {
		s.log.Debug().Err(err).Msg("token verification failed")
		return false
	}
	if !token.Valid {
		return false
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return false
	}

	if !accessGrants(claims, requiredAction) {
		s.log.Debug().
			Str("required_action", requiredAction).
			Msg("token access claim lacks required action")
		return false
	}

	return true
}

// accessGrants scans the access claim for a scope whose actions include
// the required action, verbatim or via the "*" wildcard.
func accessGrants(claims jwt.MapClaims, requiredAction string) bool {
	rawAccess, ok := claims["access"].([]any)
	if !ok {
		return false
	}

	for _, rawScope := range rawAccess {
		scope, ok := rawScope.(map[string]any)
		if !ok {
			continue
		}
		actions, ok := scope["actions"].([]any)
		if !ok {
			continue
		}
		for _, rawAction := range actions {
			action, ok := rawAction.(string)
			if !ok {
				continue
			}
			if action == requiredAction || action == domain.ScopeActionAll {
				return true
			}
		}
	}
	return false
}
