package auth

import (
	"context"
	"time"

	"pagewatch/internals/security"
	"pagewatch/pkg/apperror"

	"github.com/rs/zerolog"
)

type TokenIssuer interface {
	GenerateAccessToken(subject string) (string, time.Time, error)
}

type Service struct {
	passwordHash string
	tokens       TokenIssuer
	logger       *zerolog.Logger
}

func NewService(passwordHash string, tokens TokenIssuer, logger *zerolog.Logger) *Service {
	return &Service{
		passwordHash: passwordHash,
		tokens:       tokens,
		logger:       logger,
	}
}

// LogIn checks the operator password and issues an access token.
func (s *Service) LogIn(ctx context.Context, password string) (string, time.Time, error) {
	const op string = "service.auth.log_in"

	ok, err := security.ComparePassword(password, s.passwordHash)
	if err != nil {
		s.logger.Error().Err(err).Str("op", op).Msg("admin password hash is unusable")
		return "", time.Time{}, apperror.New(apperror.Internal, op, err).WithMessage("internal server error")
	}
	if !ok {
		s.logger.Warn().Str("op", op).Msg("rejected login attempt")
		return "", time.Time{}, &apperror.Error{
			Kind:    apperror.Unauthorised,
			Op:      op,
			Message: "invalid credentials",
		}
	}

	token, expiresAt, err := s.tokens.GenerateAccessToken(security.AdminSubject)
	if err != nil {
		return "", time.Time{}, apperror.New(apperror.Internal, op, err).WithMessage("internal server error")
	}

	return token, expiresAt, nil
}
