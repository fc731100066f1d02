package mysql

import (
	"errors"

	gomysql "github.com/go-sql-driver/mysql"
)

var (
	ErrInvalidURL       = errors.New("invalid mysql connection url")
	ErrFailedToConnect  = errors.New("failed to connect to mysql")
	ErrNotConnected     = errors.New("mysql client is not connected")
	ErrEmptyURL         = errors.New("empty mysql connection url")
)

// IsDuplicateKeyError detects MySQL error 1062 (ER_DUP_ENTRY).
func IsDuplicateKeyError(err error) bool {
	var myErr *gomysql.MySQLError
	return errors.As(err, &myErr) && myErr.Number == 1062
}

// IsDeadlockError detects MySQL error 1213 (ER_LOCK_DEADLOCK).
func IsDeadlockError(err error) bool {
	var myErr *gomysql.MySQLError
	return errors.As(err, &myErr) && myErr.Number == 1213
}
