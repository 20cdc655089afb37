package repository

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// ErrConflict reports a unique constraint violation.
var ErrConflict = errors.New("record already exists")

// ErrBusyWhileOffline reports a status update refused by StatusUpdate.RejectBusyOffline.
var ErrBusyWhileOffline = errors.New("profile would be busy while offline")

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
