package db

import (
	"strings"

	"github.com/mattn/go-sqlite3"

	"github.com/trannam110702/lighthouse-sub001/errors"
)

// ErrDatabaseClosed marks statements run after the cache database was
// closed, such as a save racing an interrupted command.
var ErrDatabaseClosed = errors.New("database is closed")

// ErrDatabaseBusy marks statements that gave up waiting for another
// process's lock on the cache database.
var ErrDatabaseBusy = errors.New("database is busy")

// Classify marks driver errors with ErrDatabaseClosed or ErrDatabaseBusy.
// The original error stays in the chain; anything else is returned as is.
//
// database/sql reports a closed pool only through its message, so that
// case falls back to string matching.
func Classify(err error) error {
	if err == nil {
		return nil
	}

	var se sqlite3.Error
	if errors.As(err, &se) && (se.Code == sqlite3.ErrBusy || se.Code == sqlite3.ErrLocked) {
		return errors.WithHint(errors.Mark(err, ErrDatabaseBusy),
			"another lantern process is writing to the cache; retry or set cache.database_path to a separate file")
	}
	if strings.Contains(err.Error(), "database is closed") {
		return errors.Mark(err, ErrDatabaseClosed)
	}
	return err
}

// IsDatabaseClosed reports whether err came from a closed database.
func IsDatabaseClosed(err error) bool {
	return err != nil && errors.Is(Classify(err), ErrDatabaseClosed)
}

// IsDatabaseBusy reports whether err came from a locked database.
func IsDatabaseBusy(err error) bool {
	return err != nil && errors.Is(Classify(err), ErrDatabaseBusy)
}
