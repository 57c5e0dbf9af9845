package messaging

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/l2gate/gate/log"
)

var (
	ErrUnknownSelector = errors.New("no handler registered for selector")
)

// Handler consumes one inbound message. Origin validation is the handler's
// job: the inbox only routes.
type Handler interface {
	HandleMessage(ctx context.Context, msg *Inbound) error
}

// Inbox routes inbound messages to the handler registered for their selector.
type Inbox struct {
	logger   *log.Logger
	handlers map[common.Hash]Handler
}

func NewInbox(logger *log.Logger) *Inbox {
	return &Inbox{
		logger:   logger,
		handlers: make(map[common.Hash]Handler),
	}
}

// Register binds the entry point name to a handler.
func (i *Inbox) Register(name string, handler Handler) {
	i.handlers[SelectorFromName(name)] = handler
}

// Deliver dispatches msg to its handler. A failed call has no effect, the
// messaging layer owns any retry policy.
func (i *Inbox) Deliver(ctx context.Context, msg *Inbound) error {
	handler, ok := i.handlers[msg.Selector]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSelector, msg.Selector.Hex())
	}
	if err := handler.HandleMessage(ctx, msg); err != nil {
		i.logger.Debugf("inbound message %s rejected: %v", msg.Selector.Hex(), err)
		return err
	}
	return nil
}
