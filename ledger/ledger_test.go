package ledger

import (
	"context"
	"database/sql"
	"math/big"
	"path"
	"testing"

	"github.com/holiman/uint256"
	"github.com/l2gate/gate/db"
	"github.com/l2gate/gate/ledger/migrations"
	"github.com/l2gate/gate/log"
	"github.com/stretchr/testify/require"
)

func newTestLedger(t *testing.T) (*Ledger, *sql.DB) {
	t.Helper()
	dbPath := path.Join(t.TempDir(), "ledgerTest.sqlite")
	require.NoError(t, migrations.RunMigrations(dbPath))
	sqlDB, err := db.NewSQLiteDB(dbPath)
	require.NoError(t, err)
	return New(log.WithFields("module", "ledger-test")), sqlDB
}

func mint(t *testing.T, l *Ledger, sqlDB *sql.DB, account *big.Int, amount *uint256.Int) error {
	t.Helper()
	tx, err := db.NewTx(context.Background(), sqlDB)
	require.NoError(t, err)
	if err := l.Mint(tx, account, amount); err != nil {
		require.NoError(t, tx.Rollback())
		return err
	}
	require.NoError(t, tx.Commit())
	return nil
}

func burn(t *testing.T, l *Ledger, sqlDB *sql.DB, account *big.Int, amount *uint256.Int) error {
	t.Helper()
	tx, err := db.NewTx(context.Background(), sqlDB)
	require.NoError(t, err)
	if err := l.Burn(tx, account, amount); err != nil {
		require.NoError(t, tx.Rollback())
		return err
	}
	require.NoError(t, tx.Commit())
	return nil
}

func TestFreshLedgerIsEmpty(t *testing.T) {
	l, sqlDB := newTestLedger(t)

	balance, err := l.BalanceOf(sqlDB, big.NewInt(1))
	require.NoError(t, err)
	require.True(t, balance.IsZero())

	supply, err := l.TotalSupply(sqlDB)
	require.NoError(t, err)
	require.True(t, supply.IsZero())
}

func TestMintAndBurn(t *testing.T) {
	l, sqlDB := newTestLedger(t)
	account := big.NewInt(1)

	require.NoError(t, mint(t, l, sqlDB, account, uint256.NewInt(13)))
	require.NoError(t, mint(t, l, sqlDB, big.NewInt(2), uint256.NewInt(10)))

	balance, err := l.BalanceOf(sqlDB, account)
	require.NoError(t, err)
	require.Equal(t, uint256.NewInt(13), balance)

	supply, err := l.TotalSupply(sqlDB)
	require.NoError(t, err)
	require.Equal(t, uint256.NewInt(23), supply)

	require.NoError(t, burn(t, l, sqlDB, account, uint256.NewInt(5)))

	balance, err = l.BalanceOf(sqlDB, account)
	require.NoError(t, err)
	require.Equal(t, uint256.NewInt(8), balance)

	supply, err = l.TotalSupply(sqlDB)
	require.NoError(t, err)
	require.Equal(t, uint256.NewInt(18), supply)
}

func TestMintZeroAmount(t *testing.T) {
	l, sqlDB := newTestLedger(t)
	account := big.NewInt(1)

	require.NoError(t, mint(t, l, sqlDB, account, uint256.NewInt(0)))

	balance, err := l.BalanceOf(sqlDB, account)
	require.NoError(t, err)
	require.True(t, balance.IsZero())
}

func TestBurnMoreThanBalance(t *testing.T) {
	l, sqlDB := newTestLedger(t)
	account := big.NewInt(2)

	require.NoError(t, mint(t, l, sqlDB, account, uint256.NewInt(10)))
	require.ErrorIs(t, burn(t, l, sqlDB, account, uint256.NewInt(11)), ErrInsufficientFunds)
	require.ErrorIs(t, burn(t, l, sqlDB, big.NewInt(404), uint256.NewInt(1)), ErrInsufficientFunds)

	// failed burns leave the ledger untouched
	balance, err := l.BalanceOf(sqlDB, account)
	require.NoError(t, err)
	require.Equal(t, uint256.NewInt(10), balance)
}

func TestMintSupplyOverflow(t *testing.T) {
	l, sqlDB := newTestLedger(t)

	require.NoError(t, mint(t, l, sqlDB, big.NewInt(1), uint256.NewInt(13)))
	require.NoError(t, mint(t, l, sqlDB, big.NewInt(2), uint256.NewInt(10)))

	// 2^256 - 22 fits the empty balance of account 3 but pushes the
	// supply of 23 past the bound
	almostMax := new(uint256.Int).Sub(
		new(uint256.Int).SetAllOne(), uint256.NewInt(21),
	)
	require.ErrorIs(t, mint(t, l, sqlDB, big.NewInt(3), almostMax), ErrSupplyOverflow)

	balance, err := l.BalanceOf(sqlDB, big.NewInt(3))
	require.NoError(t, err)
	require.True(t, balance.IsZero())

	supply, err := l.TotalSupply(sqlDB)
	require.NoError(t, err)
	require.Equal(t, uint256.NewInt(23), supply)
}

func TestMintBalanceOverflowWins(t *testing.T) {
	l, sqlDB := newTestLedger(t)
	account := big.NewInt(1)

	require.NoError(t, mint(t, l, sqlDB, account, uint256.NewInt(13)))

	// overflows both the balance and the supply, the balance bound reports
	max := new(uint256.Int).SetAllOne()
	require.ErrorIs(t, mint(t, l, sqlDB, account, max), ErrOverflow)

	balance, err := l.BalanceOf(sqlDB, account)
	require.NoError(t, err)
	require.Equal(t, uint256.NewInt(13), balance)
}

func TestMintUpToMaxSupply(t *testing.T) {
	l, sqlDB := newTestLedger(t)
	account := big.NewInt(1)

	max := new(uint256.Int).SetAllOne()
	require.NoError(t, mint(t, l, sqlDB, account, max))

	supply, err := l.TotalSupply(sqlDB)
	require.NoError(t, err)
	require.Equal(t, max, supply)

	require.ErrorIs(t, mint(t, l, sqlDB, big.NewInt(2), uint256.NewInt(1)), ErrSupplyOverflow)

	require.NoError(t, burn(t, l, sqlDB, account, max))
	supply, err = l.TotalSupply(sqlDB)
	require.NoError(t, err)
	require.True(t, supply.IsZero())
}
