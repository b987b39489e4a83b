package commands

import (
	"database/sql"

	"github.com/trannam110702/lighthouse-sub001/am"
	"github.com/trannam110702/lighthouse-sub001/artifact"
	"github.com/trannam110702/lighthouse-sub001/db"
	"github.com/trannam110702/lighthouse-sub001/errors"
	"github.com/trannam110702/lighthouse-sub001/logger"
)

// openStore opens and migrates the estimate database. An empty path uses
// the configured one.
func openStore(dbPath string) (*sql.DB, *artifact.SQLStore, error) {
	if dbPath == "" {
		cfg, err := am.Load()
		if err != nil {
			return nil, nil, errors.Wrap(err, "failed to load configuration")
		}
		dbPath = cfg.GetDatabasePath()
	}

	database, err := db.OpenWithMigrations(dbPath, logger.Logger)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "failed to open database at %s", dbPath)
	}
	return database, artifact.NewSQLStore(database, logger.Logger), nil
}
