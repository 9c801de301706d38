package database

import (
	"context"
	"database/sql"

	"github.com/zatekoja/storeguard/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/storeguard/pkg/errors"
)

// withTx runs fn in a transaction and rolls back when fn fails. AppErrors
// returned by fn pass through; anything else is wrapped as internal.
func withTx(ctx context.Context, client *postgres.Client, op string, fn func(tx *sql.Tx) error) error {
	tx, err := client.BeginTx(ctx)
	if err != nil {
		return apperrors.NewInternalError("failed to begin transaction", err)
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		if appErr, ok := apperrors.As(err); ok {
			return appErr
		}
		return apperrors.NewInternalError("failed to "+op, err)
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewInternalError("failed to commit "+op, err)
	}
	return nil
}
