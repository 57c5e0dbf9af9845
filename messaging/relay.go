package messaging

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/l2gate/gate/config/types"
	"github.com/l2gate/gate/log"
)

const defaultRelayBatchSize = 32

// RelayConfig configures the outbound message relay.
type RelayConfig struct {
	// WaitOnEmptyQueue time waited before polling again once the outbox is drained
	WaitOnEmptyQueue types.Duration `mapstructure:"WaitOnEmptyQueue"`
	// RetryAfterErrorPeriod is the time that will be waited when an unexpected error happens before retry
	RetryAfterErrorPeriod types.Duration `mapstructure:"RetryAfterErrorPeriod"`
	// MaxRetryAttemptsAfterError is the maximum number of consecutive attempts that will happen before panicing.
	// Any number smaller than zero will be considered as unlimited retries
	MaxRetryAttemptsAfterError int `mapstructure:"MaxRetryAttemptsAfterError"`
	// BatchSize is the maximum amount of pending messages drained per iteration
	BatchSize int `mapstructure:"BatchSize"`
}

// Sender hands a single outbound message to the origin domain. Delivery is
// fire and forget: once SendMessage returns nil the relay never revisits the
// message.
type Sender interface {
	SendMessage(ctx context.Context, msg *Outbound) error
}

// RetryHandler bounds consecutive relay failures.
type RetryHandler struct {
	RetryAfterErrorPeriod      time.Duration
	MaxRetryAttemptsAfterError int
}

func (rh *RetryHandler) Handle(funcName string, attempts int) {
	if rh.MaxRetryAttemptsAfterError > -1 && attempts >= rh.MaxRetryAttemptsAfterError {
		log.Fatalf(
			"%s failed too many times (%d)",
			funcName, rh.MaxRetryAttemptsAfterError,
		)
	}
	time.Sleep(rh.RetryAfterErrorPeriod)
}

// Relay drains the outbox in queue order and hands each message to the
// sender. It never blocks the bridge: entry points only append rows.
type Relay struct {
	logger           *log.Logger
	outbox           *Outbox
	sender           Sender
	rh               *RetryHandler
	waitOnEmptyQueue time.Duration
	batchSize        int
}

func NewRelay(logger *log.Logger, outbox *Outbox, sender Sender, cfg RelayConfig) *Relay {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultRelayBatchSize
	}
	return &Relay{
		logger: logger,
		outbox: outbox,
		sender: sender,
		rh: &RetryHandler{
			RetryAfterErrorPeriod:      cfg.RetryAfterErrorPeriod.Duration,
			MaxRetryAttemptsAfterError: cfg.MaxRetryAttemptsAfterError,
		},
		waitOnEmptyQueue: cfg.WaitOnEmptyQueue.Duration,
		batchSize:        batchSize,
	}
}

// Start runs the relay loop until ctx is cancelled.
func (r *Relay) Start(ctx context.Context) {
	var attempts int
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		sent, err := r.relayPending(ctx)
		if err != nil {
			attempts++
			r.logger.Errorf("error relaying pending messages: %v", err)
			r.rh.Handle("relay main loop", attempts)
			continue
		}
		attempts = 0
		if sent == 0 {
			time.Sleep(r.waitOnEmptyQueue)
		}
	}
}

func (r *Relay) relayPending(ctx context.Context) (int, error) {
	msgs, err := r.outbox.Pending(ctx, r.batchSize)
	if err != nil {
		return 0, err
	}
	for i, msg := range msgs {
		if err := r.sender.SendMessage(ctx, msg); err != nil {
			return i, err
		}
		if err := r.outbox.MarkSent(ctx, msg.ID); err != nil {
			return i, err
		}
		r.logger.Infof("relayed message %s to %s", msg.Hash().Hex(), msg.DestinationAddress.String())
	}
	return len(msgs), nil
}

// LogSender is a sender for local setups without a connected origin domain:
// it only logs the handover.
type LogSender struct {
	logger *log.Logger
}

func NewLogSender(logger *log.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) SendMessage(ctx context.Context, msg *Outbound) error {
	s.logger.Infof("outbound message %s for L1 address %s",
		msg.Hash().Hex(), common.BigToAddress(msg.DestinationAddress).Hex())
	return nil
}
