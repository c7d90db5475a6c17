package services

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	// ErrValidation marks missing or malformed input
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned when a record does not exist
	ErrNotFound = errors.New("not found")

	// ErrNotFoundOrProcessed hides whether a transaction is missing or already past the expected state
	ErrNotFoundOrProcessed = errors.New("request not found or already processed")

	// ErrNotFoundOrNotApproved is the return-flow flavour of ErrNotFoundOrProcessed
	ErrNotFoundOrNotApproved = fmt.Errorf("%w: transaction not found or not approved", ErrNotFoundOrProcessed)

	// ErrDuplicateActiveRequest is returned when the borrower already has a pending or approved request on the book
	ErrDuplicateActiveRequest = errors.New("you already have an active request or borrowing for this book")

	// ErrBookAlreadyLent is returned when approving while another loan of the book is active
	ErrBookAlreadyLent = errors.New("this book is already lent out")

	// ErrInvalidReference is returned when a referenced book, user or club does not exist
	ErrInvalidReference = errors.New("referenced record does not exist")

	// ErrForbidden is returned when the caller may not act on the record
	ErrForbidden = errors.New("you are not allowed to perform this action")

	// ErrUnauthorized is returned for bad credentials
	ErrUnauthorized = errors.New("invalid email or password")
)

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// isUniqueViolation recognises duplicate key errors from either driver
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
