package rpc

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/0xPolygon/cdk-rpc/rpc"
	gateCommon "github.com/l2gate/gate/common"
	"github.com/l2gate/gate/log"
	"github.com/l2gate/gate/messaging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const (
	// GATE is the namespace of the gate bridge service
	GATE      = "gate"
	meterName = "github.com/l2gate/gate/rpc"
)

// Amount is the wire representation of a 256 bit amount, two 128 bit limbs.
type Amount struct {
	Low  *big.Int `json:"low"`
	High *big.Int `json:"high"`
}

// GateEndpoints contains implementations for the "gate" RPC endpoints
type GateEndpoints struct {
	logger       *log.Logger
	meter        metric.Meter
	readTimeout  time.Duration
	writeTimeout time.Duration
	bridge       Bridger
	inbox        Deliverer
	proxy        Upgrader
}

// NewGateEndpoints returns GateEndpoints
func NewGateEndpoints(
	logger *log.Logger,
	writeTimeout time.Duration,
	readTimeout time.Duration,
	bridge Bridger,
	inbox Deliverer,
	proxy Upgrader,
) *GateEndpoints {
	meter := otel.Meter(meterName)
	return &GateEndpoints{
		logger:       logger,
		meter:        meter,
		readTimeout:  readTimeout,
		writeTimeout: writeTimeout,
		bridge:       bridge,
		inbox:        inbox,
		proxy:        proxy,
	}
}

// GetGovernor returns the governor address of the bridge.
func (g *GateEndpoints) GetGovernor() (interface{}, rpc.Error) {
	ctx, cancel := context.WithTimeout(context.Background(), g.readTimeout)
	defer cancel()

	g.countCall(ctx, "get_governor")
	governor, err := g.bridge.GetGovernor(ctx)
	if err != nil {
		return nil, rpc.NewRPCError(rpc.DefaultErrorCode, fmt.Sprintf("failed to get governor, error: %s", err))
	}
	return governor, nil
}

// GetL1Bridge returns the configured L1 bridge address, zero while unset.
func (g *GateEndpoints) GetL1Bridge() (interface{}, rpc.Error) {
	ctx, cancel := context.WithTimeout(context.Background(), g.readTimeout)
	defer cancel()

	g.countCall(ctx, "get_l1_bridge")
	address, err := g.bridge.GetL1Bridge(ctx)
	if err != nil {
		return nil, rpc.NewRPCError(rpc.DefaultErrorCode, fmt.Sprintf("failed to get l1 bridge address, error: %s", err))
	}
	return address, nil
}

// GetL2Token returns the configured L2 token address, zero while unset.
func (g *GateEndpoints) GetL2Token() (interface{}, rpc.Error) {
	ctx, cancel := context.WithTimeout(context.Background(), g.readTimeout)
	defer cancel()

	g.countCall(ctx, "get_l2_token")
	address, err := g.bridge.GetL2Token(ctx)
	if err != nil {
		return nil, rpc.NewRPCError(rpc.DefaultErrorCode, fmt.Sprintf("failed to get l2 token address, error: %s", err))
	}
	return address, nil
}

// GetIdentity returns the constant tag of the contract kind.
func (g *GateEndpoints) GetIdentity() (interface{}, rpc.Error) {
	ctx, cancel := context.WithTimeout(context.Background(), g.readTimeout)
	defer cancel()

	g.countCall(ctx, "get_identity")
	return g.bridge.Identity(), nil
}

// GetVersion returns the revision of the active bridge logic.
func (g *GateEndpoints) GetVersion() (interface{}, rpc.Error) {
	ctx, cancel := context.WithTimeout(context.Background(), g.readTimeout)
	defer cancel()

	g.countCall(ctx, "get_version")
	return g.bridge.Version(), nil
}

// GetImplementation returns the class hash of the active bridge logic.
func (g *GateEndpoints) GetImplementation() (interface{}, rpc.Error) {
	ctx, cancel := context.WithTimeout(context.Background(), g.readTimeout)
	defer cancel()

	g.countCall(ctx, "get_implementation")
	classHash, err := g.proxy.Implementation()
	if err != nil {
		return nil, rpc.NewRPCError(rpc.DefaultErrorCode, fmt.Sprintf("failed to get implementation, error: %s", err))
	}
	return classHash, nil
}

// IsInitialized reports whether both bridge addresses have been set.
func (g *GateEndpoints) IsInitialized() (interface{}, rpc.Error) {
	ctx, cancel := context.WithTimeout(context.Background(), g.readTimeout)
	defer cancel()

	g.countCall(ctx, "is_initialized")
	initialized, err := g.bridge.Initialized(ctx)
	if err != nil {
		return nil, rpc.NewRPCError(rpc.DefaultErrorCode, fmt.Sprintf("failed to get initialization state, error: %s", err))
	}
	return initialized, nil
}

// BalanceOf returns the ledger balance of account as low/high limbs.
func (g *GateEndpoints) BalanceOf(account *big.Int) (interface{}, rpc.Error) {
	ctx, cancel := context.WithTimeout(context.Background(), g.readTimeout)
	defer cancel()

	g.countCall(ctx, "balance_of")
	balance, err := g.bridge.BalanceOf(ctx, account)
	if err != nil {
		return nil, rpc.NewRPCError(rpc.DefaultErrorCode, fmt.Sprintf("failed to get balance, error: %s", err))
	}
	low, high := gateCommon.Uint256ToLimbs(balance)
	return Amount{Low: low, High: high}, nil
}

// TotalSupply returns the ledger total supply as low/high limbs.
func (g *GateEndpoints) TotalSupply() (interface{}, rpc.Error) {
	ctx, cancel := context.WithTimeout(context.Background(), g.readTimeout)
	defer cancel()

	g.countCall(ctx, "total_supply")
	supply, err := g.bridge.TotalSupply(ctx)
	if err != nil {
		return nil, rpc.NewRPCError(rpc.DefaultErrorCode, fmt.Sprintf("failed to get total supply, error: %s", err))
	}
	low, high := gateCommon.Uint256ToLimbs(supply)
	return Amount{Low: low, High: high}, nil
}

// SetL1Bridge stores the L1 bridge address, governor only, exactly once.
func (g *GateEndpoints) SetL1Bridge(caller, l1BridgeAddress *big.Int) (interface{}, rpc.Error) {
	ctx, cancel := context.WithTimeout(context.Background(), g.writeTimeout)
	defer cancel()

	g.countCall(ctx, "set_l1_bridge")
	if err := g.bridge.SetL1Bridge(ctx, caller, l1BridgeAddress); err != nil {
		return nil, rpc.NewRPCError(rpc.DefaultErrorCode, fmt.Sprintf("failed to set l1 bridge address, error: %s", err))
	}
	return true, nil
}

// SetL2Token stores the L2 token address, governor only, exactly once.
func (g *GateEndpoints) SetL2Token(caller, l2TokenAddress *big.Int) (interface{}, rpc.Error) {
	ctx, cancel := context.WithTimeout(context.Background(), g.writeTimeout)
	defer cancel()

	g.countCall(ctx, "set_l2_token")
	if err := g.bridge.SetL2Token(ctx, caller, l2TokenAddress); err != nil {
		return nil, rpc.NewRPCError(rpc.DefaultErrorCode, fmt.Sprintf("failed to set l2 token address, error: %s", err))
	}
	return true, nil
}

// InitiateWithdraw burns amount from caller and queues the withdrawal
// message towards the L1 bridge.
func (g *GateEndpoints) InitiateWithdraw(caller, l1Recipient, amountLow, amountHigh *big.Int) (interface{}, rpc.Error) {
	ctx, cancel := context.WithTimeout(context.Background(), g.writeTimeout)
	defer cancel()

	g.countCall(ctx, "initiate_withdraw")
	amount, err := gateCommon.Uint256FromLimbs(amountLow, amountHigh)
	if err != nil {
		return nil, rpc.NewRPCError(rpc.DefaultErrorCode, fmt.Sprintf("bad amount, error: %s", err))
	}
	if err := g.bridge.InitiateWithdraw(ctx, caller, l1Recipient, amount); err != nil {
		return nil, rpc.NewRPCError(rpc.DefaultErrorCode, fmt.Sprintf("failed to initiate withdrawal, error: %s", err))
	}
	return true, nil
}

// DeliverMessage injects an inbound message from the messaging layer. The
// origin address is the layer's assertion; the bridge re-validates it.
func (g *GateEndpoints) DeliverMessage(originAddress, targetAddress *big.Int, selectorName string, payload []*big.Int) (interface{}, rpc.Error) {
	ctx, cancel := context.WithTimeout(context.Background(), g.writeTimeout)
	defer cancel()

	g.countCall(ctx, "deliver_message")
	msg := &messaging.Inbound{
		OriginAddress: originAddress,
		TargetAddress: targetAddress,
		Selector:      messaging.SelectorFromName(selectorName),
		Payload:       payload,
	}
	if err := g.inbox.Deliver(ctx, msg); err != nil {
		return nil, rpc.NewRPCError(rpc.DefaultErrorCode, fmt.Sprintf("failed to deliver message, error: %s", err))
	}
	return true, nil
}

func (g *GateEndpoints) countCall(ctx context.Context, name string) {
	c, merr := g.meter.Int64Counter(name)
	if merr != nil {
		g.logger.Warnf("failed to create %s counter: %s", name, merr)
		return
	}
	c.Add(ctx, 1)
}
