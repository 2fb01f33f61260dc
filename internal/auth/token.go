package auth

import (
	"os"
	"time"

	"example.com/backstage/bookings/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// ErrInvalidToken is returned for malformed, expired or untrusted tokens
var ErrInvalidToken = errors.New("invalid or expired token")

// Claims are the identity provider claims the service reads
type Claims struct {
	UserID        string `json:"user_id,omitempty"`
	Email         string `json:"email,omitempty"`
	EmailVerified bool   `json:"email_verified,omitempty"`
	Name          string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// UID is the provider uid of the token holder
func (c *Claims) UID() string {
	if c.UserID != "" {
		return c.UserID
	}
	return c.Subject
}

// Verifier checks bearer tokens
type Verifier interface {
	Verify(token string) (*Claims, error)
}

// JWTVerifier verifies signed JWTs against a single key
type JWTVerifier struct {
	parser *jwt.Parser
	key    interface{}
}

// NewVerifier builds a verifier from the auth configuration. A public key
// file selects RS256; otherwise the HMAC secret selects HS256.
func NewVerifier(cfg config.AuthConfig) (*JWTVerifier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.PublicKeyFile != "" {
		pem, err := os.ReadFile(cfg.PublicKeyFile)
		if err != nil {
			return nil, errors.Wrap(err, "failed to read token public key")
		}
		key, err := jwt.ParseRSAPublicKeyFromPEM(pem)
		if err != nil {
			return nil, errors.Wrap(err, "failed to parse token public key")
		}
		return newJWTVerifier(key, jwt.SigningMethodRS256.Alg(), cfg.Issuer, cfg.Audience, cfg.Leeway), nil
	}
	return NewHMACVerifier([]byte(cfg.HMACSecret), cfg.Issuer, cfg.Audience, cfg.Leeway), nil
}

// NewHMACVerifier verifies HS256 tokens signed with secret
func NewHMACVerifier(secret []byte, issuer, audience string, leeway time.Duration) *JWTVerifier {
	return newJWTVerifier(secret, jwt.SigningMethodHS256.Alg(), issuer, audience, leeway)
}

func newJWTVerifier(key interface{}, alg, issuer, audience string, leeway time.Duration) *JWTVerifier {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{alg}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(leeway),
	}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	if audience != "" {
		opts = append(opts, jwt.WithAudience(audience))
	}
	return &JWTVerifier{parser: jwt.NewParser(opts...), key: key}
}

// Verify parses token and checks its signature and registered claims
func (v *JWTVerifier) Verify(token string) (*Claims, error) {
	claims := &Claims{}
	_, err := v.parser.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return v.key, nil
	})
	if err != nil {
		return nil, errors.Wrap(ErrInvalidToken, err.Error())
	}
	if claims.UID() == "" {
		return nil, errors.Wrap(ErrInvalidToken, "token has no subject")
	}
	return claims, nil
}
