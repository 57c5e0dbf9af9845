package proxy

import (
	"errors"
	"math/big"
	"sync"

	ethCommon "github.com/ethereum/go-ethereum/common"
	"github.com/iden3/go-iden3-crypto/keccak256"
	gateCommon "github.com/l2gate/gate/common"
	"github.com/l2gate/gate/log"
)

var (
	ErrGovernorOnly          = errors.New("governor only")
	ErrNoImplementation      = errors.New("no active implementation")
	ErrUnknownImplementation = errors.New("implementation was not added")
	ErrIncompatibleLogic     = errors.New("implementation identity mismatch")
	ErrVersionRegression     = errors.New("implementation version lower than active")
)

// Logic is a swappable logic module. The dispatcher validates identity and
// version before activating one; persistent state stays outside the module,
// so a swap never loses configuration.
type Logic interface {
	Identity() string
	Version() uint64
}

// ClassHash derives the stable identifier of a logic module from its
// identity tag and version.
func ClassHash(logic Logic) ethCommon.Hash {
	return ethCommon.BytesToHash(keccak256.Hash(
		[]byte(logic.Identity()),
		gateCommon.Uint64ToBytes(logic.Version()),
	))
}

// Dispatcher is the stable front of the bridge: callers hold the dispatcher,
// the governor swaps the logic module behind it. Candidate modules are first
// added, then activated, in two governor-gated steps.
type Dispatcher struct {
	logger   *log.Logger
	governor *big.Int

	mu     sync.RWMutex
	added  map[ethCommon.Hash]Logic
	active Logic
}

func NewDispatcher(logger *log.Logger, governor *big.Int) *Dispatcher {
	return &Dispatcher{
		logger:   logger,
		governor: governor,
		added:    make(map[ethCommon.Hash]Logic),
	}
}

// AddImplementation registers a candidate logic module.
func (d *Dispatcher) AddImplementation(caller *big.Int, logic Logic) error {
	if err := d.governorOnly(caller); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	hash := ClassHash(logic)
	d.added[hash] = logic
	d.logger.Infof("added implementation %s (%s v%d)", hash.Hex(), logic.Identity(), logic.Version())
	return nil
}

// UpgradeTo activates a previously added logic module. The candidate must
// carry the identity tag of the active module and a version that does not
// decrease.
func (d *Dispatcher) UpgradeTo(caller *big.Int, logic Logic) error {
	if err := d.governorOnly(caller); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	hash := ClassHash(logic)
	candidate, ok := d.added[hash]
	if !ok {
		return ErrUnknownImplementation
	}
	if d.active != nil {
		if candidate.Identity() != d.active.Identity() {
			return ErrIncompatibleLogic
		}
		if candidate.Version() < d.active.Version() {
			return ErrVersionRegression
		}
	}
	d.active = candidate
	d.logger.Infof("upgraded to implementation %s (%s v%d)", hash.Hex(), logic.Identity(), logic.Version())
	return nil
}

// Implementation returns the class hash of the active logic module.
func (d *Dispatcher) Implementation() (ethCommon.Hash, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.active == nil {
		return ethCommon.Hash{}, ErrNoImplementation
	}
	return ClassHash(d.active), nil
}

// Active returns the active logic module.
func (d *Dispatcher) Active() (Logic, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.active == nil {
		return nil, ErrNoImplementation
	}
	return d.active, nil
}

func (d *Dispatcher) governorOnly(caller *big.Int) error {
	if caller == nil || d.governor.Cmp(caller) != 0 {
		return ErrGovernorOnly
	}
	return nil
}
