package ledger

import (
	"database/sql"
	"errors"
	"math/big"

	"github.com/holiman/uint256"
	"github.com/l2gate/gate/db"
	"github.com/l2gate/gate/log"
	"github.com/russross/meddler"
)

var (
	// ErrOverflow is returned when minting would push the recipient balance
	// past 2^256 - 1.
	ErrOverflow = errors.New("overflow")
	// ErrSupplyOverflow is returned when minting would push the total supply
	// past 2^256 - 1. The balance bound is checked first, so a mint that
	// overflows both reports ErrOverflow.
	ErrSupplyOverflow = errors.New("total supply overflow")
	// ErrInsufficientFunds is returned when burning more than the account holds.
	ErrInsufficientFunds = errors.New("insufficient funds")
)

type balance struct {
	Account *big.Int     `meddler:"account,bigint"`
	Amount  *uint256.Int `meddler:"amount,uint256"`
}

type supply struct {
	RowID  uint64       `meddler:"row_id"`
	Amount *uint256.Int `meddler:"amount,uint256"`
}

// Ledger is the token ledger backing the bridge: per account balances plus
// the total supply, stored on the shared bridge database so that bridge entry
// points mutate it inside their own transaction.
type Ledger struct {
	logger *log.Logger
}

func New(logger *log.Logger) *Ledger {
	return &Ledger{logger: logger}
}

// BalanceOf returns the balance of account, zero if the account was never minted to.
func (l *Ledger) BalanceOf(q db.Querier, account *big.Int) (*uint256.Int, error) {
	b := &balance{}
	err := meddler.QueryRow(q, b, `SELECT * FROM balance WHERE account = $1;`, account.String())
	if errors.Is(err, sql.ErrNoRows) {
		return uint256.NewInt(0), nil
	}
	if err != nil {
		return nil, err
	}
	return b.Amount, nil
}

// TotalSupply returns the sum of all balances.
func (l *Ledger) TotalSupply(q db.Querier) (*uint256.Int, error) {
	s := &supply{}
	if err := meddler.QueryRow(q, s, `SELECT * FROM supply WHERE row_id = 1;`); err != nil {
		return nil, err
	}
	return s.Amount, nil
}

// Mint adds amount to the balance of account and to the total supply,
// leaving the transaction for the caller to roll back on failure. A zero
// amount mint is a no-op that still succeeds.
func (l *Ledger) Mint(tx db.Querier, account *big.Int, amount *uint256.Int) error {
	current, err := l.BalanceOf(tx, account)
	if err != nil {
		return err
	}
	newBalance, overflow := new(uint256.Int).AddOverflow(current, amount)
	if overflow {
		return ErrOverflow
	}

	currentSupply, err := l.TotalSupply(tx)
	if err != nil {
		return err
	}
	newSupply, overflow := new(uint256.Int).AddOverflow(currentSupply, amount)
	if overflow {
		return ErrSupplyOverflow
	}

	if err := l.setBalance(tx, account, newBalance); err != nil {
		return err
	}
	return l.setSupply(tx, newSupply)
}

// Burn removes amount from the balance of account and from the total supply.
// It fails with ErrInsufficientFunds if the account holds less than amount.
func (l *Ledger) Burn(tx db.Querier, account *big.Int, amount *uint256.Int) error {
	current, err := l.BalanceOf(tx, account)
	if err != nil {
		return err
	}
	newBalance, underflow := new(uint256.Int).SubOverflow(current, amount)
	if underflow {
		return ErrInsufficientFunds
	}

	currentSupply, err := l.TotalSupply(tx)
	if err != nil {
		return err
	}
	// supply is the sum of all balances, it cannot underflow before a balance does
	newSupply, underflow := new(uint256.Int).SubOverflow(currentSupply, amount)
	if underflow {
		return ErrInsufficientFunds
	}

	if err := l.setBalance(tx, account, newBalance); err != nil {
		return err
	}
	return l.setSupply(tx, newSupply)
}

func (l *Ledger) setBalance(tx db.Querier, account *big.Int, amount *uint256.Int) error {
	_, err := tx.Exec(`
		INSERT INTO balance (account, amount) VALUES ($1, $2)
		ON CONFLICT(account) DO UPDATE SET amount = $2;
	`, account.String(), amount.Dec())
	return err
}

func (l *Ledger) setSupply(tx db.Querier, amount *uint256.Int) error {
	_, err := tx.Exec(`UPDATE supply SET amount = $1 WHERE row_id = 1;`, amount.Dec())
	return err
}
