package migrations

import (
	"context"
	"path"
	"testing"

	"github.com/l2gate/gate/db"
	"github.com/stretchr/testify/require"
)

func Test001(t *testing.T) {
	dbPath := path.Join(t.TempDir(), "bridgeTest001.sqlite")

	err := RunMigrations(dbPath)
	require.NoError(t, err)
	db, err := db.NewSQLiteDB(dbPath)
	require.NoError(t, err)

	ctx := context.Background()
	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)

	_, err = tx.Exec(`
		INSERT INTO bridge_config (
			row_id,
			governor,
			l1_bridge_address,
			l2_token_address
		) VALUES (1, '7', '0', '0');

		INSERT INTO event (
			source_address,
			topic,
			payload
		) VALUES ('99', 'l1_bridge_set', '42');
	`)
	require.NoError(t, err)
	err = tx.Commit()
	require.NoError(t, err)

	// the config table is a single row
	_, err = db.Exec(`
		INSERT INTO bridge_config (
			row_id,
			governor,
			l1_bridge_address,
			l2_token_address
		) VALUES (2, '8', '0', '0');
	`)
	require.Error(t, err)
}
