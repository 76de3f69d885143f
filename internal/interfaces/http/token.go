package http

import (
	"errors"
	"strconv"
	"time"

	"github.com/garyjia/mediation-desk/internal/domain/entity"
	"github.com/garyjia/mediation-desk/pkg/domainerr"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims carries the caller identity. The subject is the user id.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TokenService signs and validates HS256 bearer tokens. Users and passwords
// live in an external identity service; this service only verifies its tokens.
type TokenService struct {
	signingKey []byte
	issuer     string
}

// NewTokenService creates a TokenService. issuer may be empty to skip the check.
func NewTokenService(signingKey, issuer string) *TokenService {
	return &TokenService{
		signingKey: []byte(signingKey),
		issuer:     issuer,
	}
}

// Issue signs a token for a user
func (s *TokenService) Issue(userID int64, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	})
	return token.SignedString(s.signingKey)
}

// Identify validates a token and returns the caller it names
func (s *TokenService) Identify(tokenString string) (entity.CallerIdentity, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return s.signingKey, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return entity.CallerIdentity{}, domainerr.New(domainerr.CodeUnauthorized, "token has expired")
		}
		return entity.CallerIdentity{}, domainerr.New(domainerr.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return entity.CallerIdentity{}, domainerr.New(domainerr.CodeUnauthorized, "invalid token claims")
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	caller := entity.CallerIdentity{UserID: userID, Role: claims.Role}
	if err != nil || !caller.IsAuthenticated() {
		return entity.CallerIdentity{}, domainerr.New(domainerr.CodeUnauthorized, "invalid token subject")
	}
	return caller, nil
}
