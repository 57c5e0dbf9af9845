package common

import (
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
)

// Uint64ToBytes converts a uint64 to a byte slice
func Uint64ToBytes(num uint64) []byte {
	const uint64ByteSize = 8

	bytes := make([]byte, uint64ByteSize)
	binary.BigEndian.PutUint64(bytes, num)

	return bytes
}

// BytesToUint64 converts a byte slice to a uint64
func BytesToUint64(bytes []byte) uint64 {
	return binary.BigEndian.Uint64(bytes)
}

// Uint32ToBytes converts a uint32 to a byte slice in big-endian order
func Uint32ToBytes(num uint32) []byte {
	const uint32ByteSize = 4

	key := make([]byte, uint32ByteSize)
	binary.BigEndian.PutUint32(key, num)

	return key
}

// BytesToUint32 converts a byte slice to a uint32
func BytesToUint32(bytes []byte) uint32 {
	return binary.BigEndian.Uint32(bytes)
}

// limbBound is 2^128, the exclusive upper bound of a single amount limb.
var limbBound = new(big.Int).Lsh(big.NewInt(1), 128)

// Uint256FromLimbs builds a 256 bit amount from its low and high 128 bit
// limbs, the representation amounts have on the wire.
func Uint256FromLimbs(low, high *big.Int) (*uint256.Int, error) {
	if low == nil || high == nil {
		return nil, fmt.Errorf("nil amount limb")
	}
	if low.Sign() < 0 || low.Cmp(limbBound) >= 0 {
		return nil, fmt.Errorf("low limb %s out of range", low.String())
	}
	if high.Sign() < 0 || high.Cmp(limbBound) >= 0 {
		return nil, fmt.Errorf("high limb %s out of range", high.String())
	}
	res := new(big.Int).Lsh(high, 128)
	res.Add(res, low)
	amount, overflow := uint256.FromBig(res)
	if overflow {
		return nil, fmt.Errorf("amount does not fit in 256 bits")
	}

	return amount, nil
}

// Uint256ToLimbs splits a 256 bit amount into its low and high 128 bit limbs.
func Uint256ToLimbs(amount *uint256.Int) (low, high *big.Int) {
	full := amount.ToBig()
	high, low = new(big.Int).DivMod(full, limbBound, new(big.Int))

	return low, high
}
