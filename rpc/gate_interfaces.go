package rpc

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/l2gate/gate/messaging"
)

type Bridger interface {
	Identity() string
	Version() uint64
	GetGovernor(ctx context.Context) (*big.Int, error)
	GetL1Bridge(ctx context.Context) (*big.Int, error)
	GetL2Token(ctx context.Context) (*big.Int, error)
	Initialized(ctx context.Context) (bool, error)
	BalanceOf(ctx context.Context, account *big.Int) (*uint256.Int, error)
	TotalSupply(ctx context.Context) (*uint256.Int, error)
	SetL1Bridge(ctx context.Context, caller, l1BridgeAddress *big.Int) error
	SetL2Token(ctx context.Context, caller, l2TokenAddress *big.Int) error
	InitiateWithdraw(ctx context.Context, caller, l1Recipient *big.Int, amount *uint256.Int) error
}

type Deliverer interface {
	Deliver(ctx context.Context, msg *messaging.Inbound) error
}

type Upgrader interface {
	Implementation() (common.Hash, error)
}
