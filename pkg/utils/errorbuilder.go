package utils

import (
	"context"
	"database/sql"
	"errors"
	"pagewatch/pkg/apperror"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
)

func WrapRepoError(op string, err error, isNotFoundErrPossible bool, log *zerolog.Logger) error {
	// Context errors
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &apperror.Error{
			Kind:    apperror.RequestTimeout,
			Op:      op,
			Message: "request cancelled or timed out",
			Err:     err,
		}
	}

	// if no row present, both pgx and database/sql flavours
	if isNotFoundErrPossible && (errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows)) {
		return &apperror.Error{
			Kind:    apperror.NotFound,
			Op:      op,
			Message: "monitor not found",
		}
	}

	// postgres errors
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		log.Error().
			Str("op", op).
			Str("pg_code", pgErr.Code).
			Str("pg_constraint", pgErr.ConstraintName).
			Str("pg_table", pgErr.TableName).
			Str("pg_detail", pgErr.Detail).
			Err(err).
			Msg("postgres database error")

		return &apperror.Error{
			Kind:    apperror.DatabaseErr,
			Op:      op,
			Message: "internal server error",
			Err:     err,
		}
	}

	log.Error().Str("op", op).Err(err).Msg("store error")

	// other errors
	return &apperror.Error{
		Kind:    apperror.DatabaseErr,
		Op:      op,
		Message: "internal server error",
		Err:     err,
	}
}

// NotFound is returned by writes that matched no row.
func NotFound(op string) error {
	return &apperror.Error{
		Kind:    apperror.NotFound,
		Op:      op,
		Message: "monitor not found",
	}
}
