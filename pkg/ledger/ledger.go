// Package ledger tracks native currency balances for the mint service.
package ledger

import (
	"errors"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// Ledger errors.
var (
	ErrNegativeAmount    = errors.New("negative amount")
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// Ledger holds native balances. The mint controller collects payment by
// transferring from the caller to the stage payee.
type Ledger struct {
	balances map[common.Address]*big.Int

	mu sync.RWMutex
}

// New creates an empty ledger.
func New() *Ledger {
	return &Ledger{
		balances: make(map[common.Address]*big.Int),
	}
}

// Credit adds funds to an address.
func (l *Ledger) Credit(addr common.Address, amount *big.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if amount.Sign() < 0 {
		return ErrNegativeAmount
	}

	balance := l.balances[addr]
	if balance == nil {
		balance = big.NewInt(0)
	}
	l.balances[addr] = new(big.Int).Add(balance, amount)
	return nil
}

// Debit removes funds from an address.
func (l *Ledger) Debit(addr common.Address, amount *big.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.debitLocked(addr, amount)
}

func (l *Ledger) debitLocked(addr common.Address, amount *big.Int) error {
	if amount.Sign() < 0 {
		return ErrNegativeAmount
	}

	balance := l.balances[addr]
	if balance == nil {
		balance = big.NewInt(0)
	}
	if balance.Cmp(amount) < 0 {
		return ErrInsufficientFunds
	}
	l.balances[addr] = new(big.Int).Sub(balance, amount)
	return nil
}

// Transfer moves funds between addresses atomically.
func (l *Ledger) Transfer(from, to common.Address, amount *big.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.debitLocked(from, amount); err != nil {
		return err
	}

	balance := l.balances[to]
	if balance == nil {
		balance = big.NewInt(0)
	}
	l.balances[to] = new(big.Int).Add(balance, amount)
	return nil
}

// BalanceOf returns the balance of an address.
func (l *Ledger) BalanceOf(addr common.Address) *big.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	balance := l.balances[addr]
	if balance == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(balance)
}

// Clear resets all balances.
func (l *Ledger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.balances = make(map[common.Address]*big.Int)
}
