package migrations

import (
	_ "embed"
	"strings"

	"github.com/l2gate/gate/db"
	migrate "github.com/rubenv/sql-migrate"
)

const upDownSeparator = "-- +migrate Up"

//go:embed messaging0001.sql
var mig001 string
var mig001splitted = strings.Split(mig001, upDownSeparator)

var messagingMigrations = &migrate.MemoryMigrationSource{
	Migrations: []*migrate.Migration{
		{
			Id:   "messaging0001",
			Up:   []string{mig001splitted[1]},
			Down: []string{mig001splitted[0]},
		},
	},
}

func RunMigrations(dbPath string) error {
	return db.RunMigrations(dbPath, "messaging_migrations", messagingMigrations)
}
