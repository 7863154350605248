package core

import (
	"errors"

	"github.com/mattn/go-sqlite3"
)

func isForeignKeyViolation(err error) bool {
	var serr sqlite3.Error
	if errors.As(err, &serr) {
		return serr.ExtendedCode == sqlite3.ErrConstraintForeignKey
	}
	return false
}
