// internal/engine/memory/ledger.go
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/gagliardetto/solana-go"

	"github.com/porgdao/porg/internal/engine"
)

// Ledger is an in-memory TokenLedger used by tests and by the liquidator's
// dry-run pass. Transfers enforce SPL semantics: the authority must own the
// source account and the balance must cover the amount.
type Ledger struct {
	mu       sync.RWMutex
	accounts map[solana.PublicKey]engine.TokenAccount
}

func NewLedger() *Ledger {
	return &Ledger{
		accounts: make(map[solana.PublicKey]engine.TokenAccount),
	}
}

// SetAccount installs or replaces a token account view.
func (l *Ledger) SetAccount(acc engine.TokenAccount) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.accounts[acc.Address] = acc
}

func (l *Ledger) Account(_ context.Context, address solana.PublicKey) (engine.TokenAccount, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	acc, ok := l.accounts[address]
	if !ok {
		return engine.TokenAccount{}, engine.ErrAccountNotFound
	}
	return acc, nil
}

func (l *Ledger) Transfer(_ context.Context, from, to, authority solana.PublicKey, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	src, ok := l.accounts[from]
	if !ok {
		return engine.ErrAccountNotFound
	}
	dst, ok := l.accounts[to]
	if !ok {
		return engine.ErrAccountNotFound
	}
	if !src.Owner.Equals(authority) {
		return engine.ErrUnauthorized
	}
	if src.Amount < amount {
		return fmt.Errorf("insufficient funds: have %d, need %d", src.Amount, amount)
	}

	src.Amount -= amount
	dst.Amount += amount
	l.accounts[from] = src
	l.accounts[to] = dst
	return nil
}

// Credit adds amount to an existing account, simulating an external program
// paying it out.
func (l *Ledger) Credit(address solana.PublicKey, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	acc, ok := l.accounts[address]
	if !ok {
		return engine.ErrAccountNotFound
	}
	acc.Amount += amount
	l.accounts[address] = acc
	return nil
}

// InvokeCall records one delegated call observed by the Invoker.
type InvokeCall struct {
	Program  solana.PublicKey
	Accounts []solana.PublicKey
	Payload  []byte
}

// Invoker records delegated calls instead of executing them. An optional
// OnInvoke hook can simulate the external program's effect or inject a
// failure.
type Invoker struct {
	mu       sync.Mutex
	calls    []InvokeCall
	OnInvoke func(call InvokeCall) error
}

func NewInvoker() *Invoker {
	return &Invoker{}
}

func (inv *Invoker) Invoke(_ context.Context, program solana.PublicKey, accounts []solana.PublicKey, payload []byte) error {
	call := InvokeCall{
		Program:  program,
		Accounts: append([]solana.PublicKey(nil), accounts...),
		Payload:  append([]byte(nil), payload...),
	}

	inv.mu.Lock()
	inv.calls = append(inv.calls, call)
	hook := inv.OnInvoke
	inv.mu.Unlock()

	if hook != nil {
		return hook(call)
	}
	return nil
}

// Calls returns the delegated calls observed so far.
func (inv *Invoker) Calls() []InvokeCall {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	return append([]InvokeCall(nil), inv.calls...)
}
