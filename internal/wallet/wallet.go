// Package wallet connects the portal to a signing account.
//
// A Wallet lists the accounts it can sign for, produces bind.SignerFn values
// for contract transactions, and streams connection-state events. Two
// implementations exist: a local keystore directory unlocked with a passphrase,
// and an external signer such as clef where a human may decline each request.
package wallet

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

// EventKind identifies a wallet connection-state change
type EventKind string

const (
	AccountsChanged EventKind = "accountsChanged"
	ChainChanged    EventKind = "chainChanged"
)

// Event is a connection-state change. Accounts is set for AccountsChanged,
// ChainID for ChainChanged.
type Event struct {
	Kind     EventKind
	Accounts []common.Address
	ChainID  uint64
}

// Wallet is the signing collaborator behind a session
type Wallet interface {
	// Accounts returns the accounts currently available for signing
	Accounts(ctx context.Context) ([]common.Address, error)
	// SignerFn returns a transaction signer for account on chainID
	SignerFn(account common.Address, chainID *big.Int) bind.SignerFn
	// Subscribe starts a fresh event subscription that ends when ctx is done
	Subscribe(ctx context.Context) <-chan Event
	Close() error
}

// Merge fans several event streams into one. The result closes once every input has closed.
func Merge(ctx context.Context, streams ...<-chan Event) <-chan Event {
	out := make(chan Event, 8)
	done := make(chan struct{}, len(streams))
	for _, s := range streams {
		go func(s <-chan Event) {
			defer func() { done <- struct{}{} }()
			for ev := range s {
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}(s)
	}
	go func() {
		for range streams {
			<-done
		}
		close(out)
	}()
	return out
}

func sameAccounts(a, b []common.Address) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
