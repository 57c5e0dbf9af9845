package messaging

import (
	"context"
	"database/sql"
	"errors"

	"github.com/l2gate/gate/db"
	"github.com/l2gate/gate/log"
	"github.com/russross/meddler"
)

var (
	ErrNotFound = errors.New("not found")
)

// Outbox is the append-only queue of outbound messages. Rows are inserted
// inside the transaction of the entry point that produced them, so a message
// exists exactly when its originating call committed.
type Outbox struct {
	logger *log.Logger
	db     *sql.DB
}

func NewOutbox(logger *log.Logger, sqlDB *sql.DB) *Outbox {
	return &Outbox{
		logger: logger,
		db:     sqlDB,
	}
}

// Enqueue appends msg to the queue within the given transaction. The ID field
// of msg is populated on return.
func (o *Outbox) Enqueue(tx db.Querier, msg *Outbound) error {
	return meddler.Insert(tx, "outbox", msg)
}

// Pending returns up to limit unsent messages in queue order.
func (o *Outbox) Pending(ctx context.Context, limit int) ([]*Outbound, error) {
	rows, err := o.db.Query(`
		SELECT * FROM outbox
		WHERE sent = FALSE
		ORDER BY id ASC
		LIMIT $1;
	`, limit)
	if err != nil {
		return nil, err
	}
	msgs := []*Outbound{}
	if err := meddler.ScanAll(rows, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// Get returns the message with the given queue id.
func (o *Outbox) Get(ctx context.Context, id uint64) (*Outbound, error) {
	msg := &Outbound{}
	err := meddler.QueryRow(o.db, msg, `SELECT * FROM outbox WHERE id = $1;`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return msg, nil
}

// MarkSent flags the message as handed over to the messaging layer.
func (o *Outbox) MarkSent(ctx context.Context, id uint64) error {
	res, err := o.db.Exec(`UPDATE outbox SET sent = TRUE WHERE id = $1;`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
