package messaging

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/iden3/go-iden3-crypto/keccak256"
	gateCommon "github.com/l2gate/gate/common"
)

const (
	// HandleDepositName is the entry point name inbound deposit messages select.
	HandleDepositName = "handle_deposit"
	// WithdrawName is the entry point name outbound withdrawal messages select.
	WithdrawName = "withdraw"

	depositPayloadLen  = 3
	withdrawPayloadLen = 4
)

var (
	ErrMalformedPayload = errors.New("malformed message payload")
)

// SelectorFromName derives the selector of an entry point name, the hash the
// messaging layer tags calls with.
func SelectorFromName(name string) common.Hash {
	return common.BytesToHash(keccak256.Hash([]byte(name)))
}

// Inbound is a message delivered by the messaging layer. OriginAddress is
// asserted by the layer, never trusted: the deposit handler re-validates it
// against the configured L1 bridge address on every call.
type Inbound struct {
	OriginAddress *big.Int
	TargetAddress *big.Int
	Selector      common.Hash
	Payload       []*big.Int
}

// Outbound is a message queued for delivery to the origin domain. It is
// handed to the messaging layer without waiting for any acknowledgement.
type Outbound struct {
	ID                 uint64      `meddler:"id,pk"`
	DestinationAddress *big.Int    `meddler:"destination_address,bigint"`
	Selector           common.Hash `meddler:"selector,hash"`
	Payload            []*big.Int  `meddler:"payload,felts"`
	Sent               bool        `meddler:"sent"`
}

// Hash identifies an outbound message by content and queue position.
func (o *Outbound) Hash() common.Hash {
	chunks := [][]byte{
		gateCommon.Uint64ToBytes(o.ID),
		o.DestinationAddress.Bytes(),
		o.Selector.Bytes(),
	}
	for _, felt := range o.Payload {
		chunks = append(chunks, felt.Bytes())
	}
	return common.BytesToHash(keccak256.Hash(chunks...))
}

// DepositPayload encodes a deposit as [account, amount.low, amount.high].
func DepositPayload(account *big.Int, amount *uint256.Int) []*big.Int {
	low, high := gateCommon.Uint256ToLimbs(amount)
	return []*big.Int{account, low, high}
}

// DecodeDepositPayload decodes [account, amount.low, amount.high].
func DecodeDepositPayload(payload []*big.Int) (account *big.Int, amount *uint256.Int, err error) {
	if len(payload) != depositPayloadLen {
		return nil, nil, fmt.Errorf("%w: expected %d felts, got %d",
			ErrMalformedPayload, depositPayloadLen, len(payload))
	}
	account = payload[0]
	if account == nil || account.Sign() < 0 {
		return nil, nil, fmt.Errorf("%w: bad account felt", ErrMalformedPayload)
	}
	amount, err = gateCommon.Uint256FromLimbs(payload[1], payload[2])
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrMalformedPayload, err)
	}
	return account, amount, nil
}

// WithdrawPayload encodes a withdrawal as
// [l1Recipient, amount.low, amount.high, caller].
func WithdrawPayload(l1Recipient *big.Int, amount *uint256.Int, caller *big.Int) []*big.Int {
	low, high := gateCommon.Uint256ToLimbs(amount)
	return []*big.Int{l1Recipient, low, high, caller}
}
