package messaging

import (
	"context"
	"database/sql"
	"errors"
	"math/big"
	"path"
	"testing"
	"time"

	"github.com/holiman/uint256"
	"github.com/l2gate/gate/config/types"
	"github.com/l2gate/gate/db"
	"github.com/l2gate/gate/log"
	"github.com/l2gate/gate/messaging/migrations"
	"github.com/stretchr/testify/require"
)

func newTestOutbox(t *testing.T) (*Outbox, *sql.DB) {
	t.Helper()
	dbPath := path.Join(t.TempDir(), "outboxTest.sqlite")
	require.NoError(t, migrations.RunMigrations(dbPath))
	sqlDB, err := db.NewSQLiteDB(dbPath)
	require.NoError(t, err)
	return NewOutbox(log.WithFields("module", "outbox-test"), sqlDB), sqlDB
}

func enqueue(t *testing.T, outbox *Outbox, sqlDB *sql.DB, msg *Outbound) {
	t.Helper()
	tx, err := db.NewTx(context.Background(), sqlDB)
	require.NoError(t, err)
	require.NoError(t, outbox.Enqueue(tx, msg))
	require.NoError(t, tx.Commit())
}

func testMsg(i int64) *Outbound {
	return &Outbound{
		DestinationAddress: big.NewInt(42),
		Selector:           SelectorFromName(WithdrawName),
		Payload:            WithdrawPayload(big.NewInt(17), uint256.NewInt(14), big.NewInt(i)),
	}
}

func TestOutboxQueueOrder(t *testing.T) {
	outbox, sqlDB := newTestOutbox(t)
	ctx := context.Background()

	for i := int64(1); i <= 3; i++ {
		enqueue(t, outbox, sqlDB, testMsg(i))
	}

	pending, err := outbox.Pending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 3)
	for i, msg := range pending {
		require.Equal(t, uint64(i+1), msg.ID)
		require.False(t, msg.Sent)
	}

	// limit caps the drained batch
	pending, err = outbox.Pending(ctx, 2)
	require.NoError(t, err)
	require.Len(t, pending, 2)

	require.NoError(t, outbox.MarkSent(ctx, 1))
	pending, err = outbox.Pending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	require.Equal(t, uint64(2), pending[0].ID)

	sent, err := outbox.Get(ctx, 1)
	require.NoError(t, err)
	require.True(t, sent.Sent)
}

func TestOutboxNotFound(t *testing.T) {
	outbox, _ := newTestOutbox(t)
	ctx := context.Background()

	_, err := outbox.Get(ctx, 404)
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, outbox.MarkSent(ctx, 404), ErrNotFound)
}

func TestOutboxRoundTrip(t *testing.T) {
	outbox, sqlDB := newTestOutbox(t)

	msg := testMsg(1)
	enqueue(t, outbox, sqlDB, msg)
	require.Equal(t, uint64(1), msg.ID)

	fromDB, err := outbox.Get(context.Background(), msg.ID)
	require.NoError(t, err)
	require.Equal(t, msg.DestinationAddress, fromDB.DestinationAddress)
	require.Equal(t, msg.Selector, fromDB.Selector)
	require.Equal(t, msg.Payload, fromDB.Payload)
	require.Equal(t, msg.Hash(), fromDB.Hash())
}

type captureSender struct {
	sent     []*Outbound
	failures int
}

func (s *captureSender) SendMessage(ctx context.Context, msg *Outbound) error {
	if s.failures > 0 {
		s.failures--
		return errors.New("origin domain unreachable")
	}
	s.sent = append(s.sent, msg)
	return nil
}

func TestRelayDrainsOutbox(t *testing.T) {
	outbox, sqlDB := newTestOutbox(t)

	for i := int64(1); i <= 3; i++ {
		enqueue(t, outbox, sqlDB, testMsg(i))
	}

	sender := &captureSender{failures: 1}
	relay := NewRelay(log.WithFields("module", "relay-test"), outbox, sender, RelayConfig{
		WaitOnEmptyQueue:           types.NewDuration(time.Millisecond * 10),
		RetryAfterErrorPeriod:      types.NewDuration(time.Millisecond),
		MaxRetryAttemptsAfterError: -1,
		BatchSize:                  2,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go relay.Start(ctx)

	require.Eventually(t, func() bool {
		pending, err := outbox.Pending(context.Background(), 10)
		require.NoError(t, err)
		return len(pending) == 0
	}, time.Second*5, time.Millisecond*10)

	require.Len(t, sender.sent, 3)
	for i, msg := range sender.sent {
		require.Equal(t, uint64(i+1), msg.ID)
	}
}
