package chain

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// ErrReceiptFailed is returned when a transaction was mined with a failed status
var ErrReceiptFailed = errors.New("transaction reverted on-chain")

// Binding is a signer-bound handle on the certificate contract
type Binding struct {
	backend  Backend
	address  common.Address
	account  common.Address
	signer   bind.SignerFn
	contract *bind.BoundContract
}

// NewBinding binds the contract at address to an account and its signer
func NewBinding(backend Backend, address, account common.Address, signer bind.SignerFn) (*Binding, error) {
	parsed, err := ParsedABI()
	if err != nil {
		return nil, err
	}
	return &Binding{
		backend:  backend,
		address:  address,
		account:  account,
		signer:   signer,
		contract: bind.NewBoundContract(address, parsed, backend, backend, backend),
	}, nil
}

// Account returns the address transactions are sent from
func (b *Binding) Account() common.Address {
	return b.account
}

func (b *Binding) callMsg(op Operation) (ethereum.CallMsg, error) {
	data, err := op.Pack()
	if err != nil {
		return ethereum.CallMsg{}, fmt.Errorf("failed to encode %s: %w", op.Method, err)
	}
	return ethereum.CallMsg{From: b.account, To: &b.address, Data: data}, nil
}

// Simulate executes the operation with eth_call; a revert comes back as the error
func (b *Binding) Simulate(ctx context.Context, op Operation) error {
	msg, err := b.callMsg(op)
	if err != nil {
		return err
	}
	_, err = b.backend.CallContract(ctx, msg, nil)
	return err
}

// EstimateGas asks the node for the operation's gas cost
func (b *Binding) EstimateGas(ctx context.Context, op Operation) (uint64, error) {
	msg, err := b.callMsg(op)
	if err != nil {
		return 0, err
	}
	return b.backend.EstimateGas(ctx, msg)
}

// Send signs and dispatches the operation with a fixed gas limit
func (b *Binding) Send(ctx context.Context, op Operation, gasLimit uint64) (*types.Transaction, error) {
	opts := &bind.TransactOpts{
		From:     b.account,
		Signer:   b.signer,
		GasLimit: gasLimit,
		Context:  ctx,
	}
	return b.contract.Transact(opts, op.Method, op.Args...)
}

// WaitConfirmed blocks until the transaction is mined
func (b *Binding) WaitConfirmed(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	receipt, err := bind.WaitMined(ctx, b.backend, tx)
	if err != nil {
		return nil, err
	}
	if receipt.Status == types.ReceiptStatusFailed {
		return receipt, ErrReceiptFailed
	}
	return receipt, nil
}
