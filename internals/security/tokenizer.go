package security

import (
	"time"

	"pagewatch/config"
	"pagewatch/pkg/apperror"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "pagewatch"

type TokenService struct {
	secret    []byte
	expiryMin int
	now       func() time.Time
}

func NewTokenService(authCfg *config.AuthConfig) *TokenService {
	return &TokenService{
		secret:    []byte(authCfg.Secret),
		expiryMin: authCfg.ExpiryMin,
		now:       time.Now,
	}
}

// GenerateAccessToken signs a short lived HS256 token for subject.
func (ts *TokenService) GenerateAccessToken(subject string) (string, time.Time, error) {
	now := ts.now()
	expiresAt := now.Add(time.Duration(ts.expiryMin) * time.Minute)

	claims := RequestClaims{
		Role: subject,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(ts.secret)
	if err != nil {
		return "", time.Time{}, err
	}

	return signed, expiresAt, nil
}

func (ts *TokenService) ValidateAccessToken(accessToken string) (*RequestClaims, error) {
	const op string = "service.token.validate_access_token"

	claims := &RequestClaims{}

	token, err := jwt.ParseWithClaims(
		accessToken,
		claims,
		func(t *jwt.Token) (any, error) {
			return ts.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(ts.now),
	)

	if err != nil || !token.Valid {
		return nil, &apperror.Error{
			Kind:    apperror.Unauthorised,
			Op:      op,
			Err:     err,
			Message: "invalid token",
		}
	}

	return claims, nil
}
