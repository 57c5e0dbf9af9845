package db

import (
	"github.com/l2gate/gate/log"
	migrate "github.com/rubenv/sql-migrate"
)

// RunMigrations applies the given migration source on top of the SQLite DB
// found (or created) at dbPath. Each component records its applied migrations
// in its own table, named by migrationsTable, so several components can run
// their own source against a shared database file without stepping on each
// other's bookkeeping.
func RunMigrations(dbPath, migrationsTable string, migrations migrate.MigrationSource) error {
	db, err := NewSQLiteDB(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	migrationSet := migrate.MigrationSet{TableName: migrationsTable}
	nMigrations, err := migrationSet.Exec(db, "sqlite3", migrations, migrate.Up)
	if err != nil {
		return err
	}
	log.Debugf("successfully ran %d migrations on %s", nMigrations, dbPath)

	return nil
}
