package bridge

import (
	"context"
	"math/big"

	"github.com/l2gate/gate/db"
	"github.com/russross/meddler"
)

// Event is one entry of the append-only event log, the observable record of
// every successful mutating call.
type Event struct {
	ID            uint64     `meddler:"id,pk"`
	SourceAddress *big.Int   `meddler:"source_address,bigint"`
	Topic         string     `meddler:"topic"`
	Payload       []*big.Int `meddler:"payload,felts"`
}

// bridgeConfig is the singleton configuration record. The zero value of the
// address columns is the "unset" sentinel.
type bridgeConfig struct {
	RowID           uint64   `meddler:"row_id"`
	Governor        *big.Int `meddler:"governor,bigint"`
	L1BridgeAddress *big.Int `meddler:"l1_bridge_address,bigint"`
	L2TokenAddress  *big.Int `meddler:"l2_token_address,bigint"`
}

func getBridgeConfig(q db.Querier) (*bridgeConfig, error) {
	cfg := &bridgeConfig{}
	err := meddler.QueryRow(q, cfg, `SELECT * FROM bridge_config WHERE row_id = 1;`)
	if err != nil {
		return nil, db.ReturnErrNotFound(err)
	}
	return cfg, nil
}

func insertBridgeConfig(q db.Querier, governor *big.Int) error {
	_, err := q.Exec(`
		INSERT INTO bridge_config (row_id, governor, l1_bridge_address, l2_token_address)
		VALUES (1, $1, '0', '0');
	`, governor.String())
	return err
}

func setL1BridgeAddress(q db.Querier, address *big.Int) error {
	_, err := q.Exec(`UPDATE bridge_config SET l1_bridge_address = $1 WHERE row_id = 1;`, address.String())
	return err
}

func setL2TokenAddress(q db.Querier, address *big.Int) error {
	_, err := q.Exec(`UPDATE bridge_config SET l2_token_address = $1 WHERE row_id = 1;`, address.String())
	return err
}

func appendEvent(q db.Querier, event *Event) error {
	return meddler.Insert(q, "event", event)
}

// LastEvent returns the most recently appended event.
func (b *Bridge) LastEvent(ctx context.Context) (*Event, error) {
	event := &Event{}
	err := meddler.QueryRow(b.db, event, `SELECT * FROM event ORDER BY id DESC LIMIT 1;`)
	if err != nil {
		return nil, db.ReturnErrNotFound(err)
	}
	return event, nil
}

// Events returns the whole event log in append order.
func (b *Bridge) Events(ctx context.Context) ([]*Event, error) {
	rows, err := b.db.Query(`SELECT * FROM event ORDER BY id ASC;`)
	if err != nil {
		return nil, err
	}
	events := []*Event{}
	if err := meddler.ScanAll(rows, &events); err != nil {
		return nil, err
	}
	return events, nil
}
