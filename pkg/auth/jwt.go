package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrNoSecret = errors.New("jwt secret is not configured")

// Claims identifies the front-desk user behind a request.
type Claims struct {
	jwt.RegisteredClaims
	Name string `json:"name,omitempty"`
}

type Config struct {
	Secret []byte
	Issuer string
}

// JWTService signs and verifies HS256 staff tokens.
type JWTService struct {
	config Config
	now    func() time.Time
}

func NewJWTService(config Config) *JWTService {
	return &JWTService{config: config, now: time.Now}
}

// Enabled reports whether a signing secret is configured.
func (s *JWTService) Enabled() bool {
	return len(s.config.Secret) > 0
}

// GenerateAccessToken issues a token for staffID valid for ttl.
func (s *JWTService) GenerateAccessToken(staffID, name string, ttl time.Duration) (string, error) {
	if !s.Enabled() {
		return "", ErrNoSecret
	}
	now := s.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   staffID,
			Issuer:    s.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Name: name,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.config.Secret)
}

// ValidateToken checks the signature, algorithm, expiry and, when
// configured, the issuer.
func (s *JWTService) ValidateToken(tokenStr string) (*Claims, error) {
	if !s.Enabled() {
		return nil, ErrNoSecret
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	}
	if s.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.config.Issuer))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return s.config.Secret, nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}
