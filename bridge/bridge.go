package bridge

import (
	"context"
	"database/sql"
	"errors"
	"math/big"

	"github.com/holiman/uint256"
	"github.com/l2gate/gate/bridge/migrations"
	"github.com/l2gate/gate/db"
	"github.com/l2gate/gate/ledger"
	ledgerMigrations "github.com/l2gate/gate/ledger/migrations"
	"github.com/l2gate/gate/log"
	"github.com/l2gate/gate/messaging"
	messagingMigrations "github.com/l2gate/gate/messaging/migrations"
)

const (
	// ContractIdentity tags the logical contract kind. Upgrade tooling
	// refuses to activate a logic module carrying a different tag.
	ContractIdentity = "STARKGATE"
	// ContractVersion is the revision of this logic module.
	ContractVersion = uint64(1)
)

// Event topics, one per mutating entry point.
const (
	EventL1BridgeSet       = "l1_bridge_set"
	EventL2TokenSet        = "l2_token_set"
	EventDepositHandled    = "deposit_handled"
	EventWithdrawInitiated = "withdraw_initiated"
)

var (
	ErrGovernorOnly             = errors.New("governor only")
	ErrBridgeAlreadyInitialized = errors.New("l1 bridge address already initialized")
	ErrTokenAlreadyInitialized  = errors.New("l2 token address already initialized")
	ErrUninitializedL1Bridge    = errors.New("uninitialized l1 bridge address")
	ErrUninitializedToken       = errors.New("uninitialized l2 token address")
	ErrWrongL1Bridge            = errors.New("message origin does not match the l1 bridge address")
	ErrZeroAccount              = errors.New("deposit to the zero account")
	ErrInvalidL1Recipient       = errors.New("l1 recipient out of range")
	ErrZeroWithdrawal           = errors.New("zero withdrawal")
	ErrZeroAddress              = errors.New("zero address")
	ErrMissingGovernor          = errors.New("governor not configured")
)

// ethAddressBound is 2^160, the exclusive upper bound of an L1 recipient.
var ethAddressBound = new(big.Int).Lsh(big.NewInt(1), 160)

// Bridge mints the wrapped token on validated deposit messages from the L1
// bridge and burns it on withdrawal requests, queueing the matching outbound
// message. Every entry point runs as a single transaction against the shared
// database: state change, event and outbound message commit together or not
// at all.
type Bridge struct {
	logger  *log.Logger
	db      *sql.DB
	ledger  *ledger.Ledger
	outbox  *messaging.Outbox
	address *big.Int
}

// New opens (and migrates) the bridge database and activates the logic
// module. The governor from cfg is persisted the first time the bridge comes
// up; afterwards the stored value wins.
func New(logger *log.Logger, cfg Config) (*Bridge, error) {
	if err := migrations.RunMigrations(cfg.DBPath); err != nil {
		return nil, err
	}
	if err := ledgerMigrations.RunMigrations(cfg.DBPath); err != nil {
		return nil, err
	}
	if err := messagingMigrations.RunMigrations(cfg.DBPath); err != nil {
		return nil, err
	}
	sqlDB, err := db.NewSQLiteDB(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	b := &Bridge{
		logger:  logger,
		db:      sqlDB,
		ledger:  ledger.New(logger),
		outbox:  messaging.NewOutbox(logger, sqlDB),
		address: cfg.BridgeAddress,
	}
	if b.address == nil {
		b.address = new(big.Int)
	}
	if err := b.initGovernance(cfg.Governor); err != nil {
		return nil, err
	}
	return b, nil
}

// initGovernance stores the governor on first activation. Re-activations
// (logic upgrades) keep the persisted record untouched.
func (b *Bridge) initGovernance(governor *big.Int) error {
	_, err := getBridgeConfig(b.db)
	if err == nil {
		return nil
	}
	if !errors.Is(err, db.ErrNotFound) {
		return err
	}
	if isZero(governor) {
		return ErrMissingGovernor
	}
	b.logger.Infof("initializing bridge governance, governor %s", governor.String())
	return insertBridgeConfig(b.db, governor)
}

// Outbox exposes the queue of outbound messages produced by withdrawals.
func (b *Bridge) Outbox() *messaging.Outbox {
	return b.outbox
}

// Identity returns the constant tag of the contract kind.
func (b *Bridge) Identity() string {
	return ContractIdentity
}

// Version returns the revision of the logic module.
func (b *Bridge) Version() uint64 {
	return ContractVersion
}

// GetGovernor returns the governor address.
func (b *Bridge) GetGovernor(ctx context.Context) (*big.Int, error) {
	cfg, err := getBridgeConfig(b.db)
	if err != nil {
		return nil, err
	}
	return cfg.Governor, nil
}

// GetL1Bridge returns the configured L1 bridge address, zero while unset.
func (b *Bridge) GetL1Bridge(ctx context.Context) (*big.Int, error) {
	cfg, err := getBridgeConfig(b.db)
	if err != nil {
		return nil, err
	}
	return cfg.L1BridgeAddress, nil
}

// GetL2Token returns the configured L2 token address, zero while unset.
func (b *Bridge) GetL2Token(ctx context.Context) (*big.Int, error) {
	cfg, err := getBridgeConfig(b.db)
	if err != nil {
		return nil, err
	}
	return cfg.L2TokenAddress, nil
}

// Initialized reports whether both the L1 bridge and the L2 token addresses
// have been set.
func (b *Bridge) Initialized(ctx context.Context) (bool, error) {
	cfg, err := getBridgeConfig(b.db)
	if err != nil {
		return false, err
	}
	return !isZero(cfg.L1BridgeAddress) && !isZero(cfg.L2TokenAddress), nil
}

// BalanceOf returns the ledger balance of account.
func (b *Bridge) BalanceOf(ctx context.Context, account *big.Int) (*uint256.Int, error) {
	return b.ledger.BalanceOf(b.db, account)
}

// TotalSupply returns the ledger total supply.
func (b *Bridge) TotalSupply(ctx context.Context) (*uint256.Int, error) {
	return b.ledger.TotalSupply(b.db)
}

// SetL1Bridge stores the L1 bridge address. Governor only, exactly once.
func (b *Bridge) SetL1Bridge(ctx context.Context, caller, l1BridgeAddress *big.Int) error {
	tx, err := db.NewTx(ctx, b.db)
	if err != nil {
		return err
	}
	defer rollbackOnErr(b.logger, tx, &err)

	cfg, err := getBridgeConfig(tx)
	if err != nil {
		return err
	}
	if err = governorOnly(cfg, caller); err != nil {
		return err
	}
	if isZero(l1BridgeAddress) {
		err = ErrZeroAddress
		return err
	}
	if !isZero(cfg.L1BridgeAddress) {
		err = ErrBridgeAlreadyInitialized
		return err
	}
	if err = setL1BridgeAddress(tx, l1BridgeAddress); err != nil {
		return err
	}
	if err = appendEvent(tx, &Event{
		SourceAddress: b.address,
		Topic:         EventL1BridgeSet,
		Payload:       []*big.Int{l1BridgeAddress},
	}); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return err
	}
	b.logger.Infof("l1 bridge address set to %s", l1BridgeAddress.String())
	return nil
}

// SetL2Token stores the L2 token address. Governor only, exactly once.
func (b *Bridge) SetL2Token(ctx context.Context, caller, l2TokenAddress *big.Int) error {
	tx, err := db.NewTx(ctx, b.db)
	if err != nil {
		return err
	}
	defer rollbackOnErr(b.logger, tx, &err)

	cfg, err := getBridgeConfig(tx)
	if err != nil {
		return err
	}
	if err = governorOnly(cfg, caller); err != nil {
		return err
	}
	if isZero(l2TokenAddress) {
		err = ErrZeroAddress
		return err
	}
	if !isZero(cfg.L2TokenAddress) {
		err = ErrTokenAlreadyInitialized
		return err
	}
	if err = setL2TokenAddress(tx, l2TokenAddress); err != nil {
		return err
	}
	if err = appendEvent(tx, &Event{
		SourceAddress: b.address,
		Topic:         EventL2TokenSet,
		Payload:       []*big.Int{l2TokenAddress},
	}); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return err
	}
	b.logger.Infof("l2 token address set to %s", l2TokenAddress.String())
	return nil
}

// HandleMessage lets the bridge consume inbound deposit messages from an
// inbox dispatcher.
func (b *Bridge) HandleMessage(ctx context.Context, msg *messaging.Inbound) error {
	return b.HandleDeposit(ctx, msg)
}

// HandleDeposit validates an inbound deposit message and mints its amount to
// the target account. The claimed origin is matched against the configured
// L1 bridge address on every call, delivery context is never trusted.
func (b *Bridge) HandleDeposit(ctx context.Context, msg *messaging.Inbound) error {
	account, amount, err := messaging.DecodeDepositPayload(msg.Payload)
	if err != nil {
		return err
	}

	tx, err := db.NewTx(ctx, b.db)
	if err != nil {
		return err
	}
	defer rollbackOnErr(b.logger, tx, &err)

	cfg, err := getBridgeConfig(tx)
	if err != nil {
		return err
	}
	if isZero(cfg.L1BridgeAddress) {
		err = ErrUninitializedL1Bridge
		return err
	}
	if msg.OriginAddress == nil || msg.OriginAddress.Cmp(cfg.L1BridgeAddress) != 0 {
		err = ErrWrongL1Bridge
		return err
	}
	if isZero(cfg.L2TokenAddress) {
		err = ErrUninitializedToken
		return err
	}
	if isZero(account) {
		err = ErrZeroAccount
		return err
	}
	if err = b.ledger.Mint(tx, account, amount); err != nil {
		return err
	}
	if err = appendEvent(tx, &Event{
		SourceAddress: b.address,
		Topic:         EventDepositHandled,
		Payload:       messaging.DepositPayload(account, amount),
	}); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return err
	}
	b.logger.Debugf("deposit of %s handled for account %s", amount.Dec(), account.String())
	return nil
}

// InitiateWithdraw burns amount from the caller and queues the withdrawal
// message towards the L1 bridge. The message is never awaited.
func (b *Bridge) InitiateWithdraw(ctx context.Context, caller, l1Recipient *big.Int, amount *uint256.Int) error {
	if caller == nil {
		caller = new(big.Int)
	}
	tx, err := db.NewTx(ctx, b.db)
	if err != nil {
		return err
	}
	defer rollbackOnErr(b.logger, tx, &err)

	cfg, err := getBridgeConfig(tx)
	if err != nil {
		return err
	}
	if isZero(cfg.L1BridgeAddress) {
		err = ErrUninitializedL1Bridge
		return err
	}
	if isZero(cfg.L2TokenAddress) {
		err = ErrUninitializedToken
		return err
	}
	if l1Recipient == nil || l1Recipient.Sign() <= 0 || l1Recipient.Cmp(ethAddressBound) >= 0 {
		err = ErrInvalidL1Recipient
		return err
	}
	if amount == nil || amount.IsZero() {
		err = ErrZeroWithdrawal
		return err
	}
	if err = b.ledger.Burn(tx, caller, amount); err != nil {
		return err
	}
	payload := messaging.WithdrawPayload(l1Recipient, amount, caller)
	if err = b.outbox.Enqueue(tx, &messaging.Outbound{
		DestinationAddress: cfg.L1BridgeAddress,
		Selector:           messaging.SelectorFromName(messaging.WithdrawName),
		Payload:            payload,
	}); err != nil {
		return err
	}
	if err = appendEvent(tx, &Event{
		SourceAddress: b.address,
		Topic:         EventWithdrawInitiated,
		Payload:       payload,
	}); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return err
	}
	b.logger.Debugf("withdrawal of %s initiated by %s towards %s",
		amount.Dec(), caller.String(), l1Recipient.String())
	return nil
}

func governorOnly(cfg *bridgeConfig, caller *big.Int) error {
	if caller == nil || cfg.Governor.Cmp(caller) != 0 {
		return ErrGovernorOnly
	}
	return nil
}

func isZero(felt *big.Int) bool {
	return felt == nil || felt.Sign() == 0
}

func rollbackOnErr(logger *log.Logger, tx *db.Tx, err *error) {
	if *err == nil {
		return
	}
	if errRllbck := tx.Rollback(); errRllbck != nil && !errors.Is(errRllbck, sql.ErrTxDone) {
		logger.Errorf("error while rolling back tx %v", errRllbck)
	}
}
