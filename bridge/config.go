package bridge

import (
	"math/big"
)

// Config is the static configuration of the bridge instance.
type Config struct {
	// DBPath path of the DB holding the bridge state, the token ledger and
	// the message outbox
	DBPath string `mapstructure:"DBPath"`
	// BridgeAddress is the address the bridge answers at on this domain,
	// stamped as source on every emitted event
	BridgeAddress *big.Int `mapstructure:"BridgeAddress"`
	// Governor is the account allowed to set the bridge addresses. It is
	// persisted on first activation and immutable afterwards: the value is
	// ignored on any later start.
	Governor *big.Int `mapstructure:"Governor"`
}
