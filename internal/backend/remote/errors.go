package remote

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/dmitrijs2005/poreview/internal/common"
	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE codes the remote store reports.
const (
	codeInsufficientPrivilege = "42501"
	codeUniqueViolation       = "23505"
	codeCheckViolation        = "23514"
	codeForeignKeyViolation   = "23503"
	codeInvalidText           = "22P02"
)

// mapError translates driver and storage errors into the common taxonomy.
// Anything it does not recognise is returned unchanged.
func mapError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeInsufficientPrivilege:
			return fmt.Errorf("%w: %s", common.ErrPolicyDenied, pgErr.Message)
		case codeUniqueViolation, codeCheckViolation, codeForeignKeyViolation, codeInvalidText:
			return fmt.Errorf("%w: %s", common.ErrValidation, pgErr.Message)
		}
		return fmt.Errorf("db error: %w", err)
	}

	if errors.Is(err, sql.ErrNoRows) {
		return common.ErrNotFound
	}

	var noKey *types.NoSuchKey
	if errors.As(err, &noKey) {
		return fmt.Errorf("%w: %s", common.ErrNotFound, noKey.ErrorMessage())
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && apiErr.ErrorCode() == "NotFound" {
		return fmt.Errorf("%w: %s", common.ErrNotFound, apiErr.ErrorMessage())
	}

	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == codeUniqueViolation
}
