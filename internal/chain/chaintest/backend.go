// Package chaintest provides an in-memory chain backend for tests.
package chaintest

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"certchain/internal/chain"
)

// Backend answers contract calls from canned return values.
// It satisfies chain.Backend and chain.ReadBackend.
type Backend struct {
	mu sync.Mutex

	ChainIDValue *big.Int
	ChainIDErr   error
	Code         []byte
	Balance      *big.Int
	GasPrice     *big.Int
	Nonce        uint64

	// Returns maps a method name to its output values; Errors maps it to a call error
	Returns map[string][]interface{}
	Errors  map[string]error

	EstimateValue uint64
	EstimateErr   error
	SendErr       error
	ReceiptStatus uint64
	Logs          []types.Log

	Sent       []*types.Transaction
	Calls      []string
	LastFilter ethereum.FilterQuery
}

// NewBackend returns a backend on the default chain with deployed code
func NewBackend() *Backend {
	return &Backend{
		ChainIDValue:  new(big.Int).SetUint64(chain.DefaultChainID),
		Code:          []byte{0x60, 0x80},
		Balance:       big.NewInt(0),
		GasPrice:      big.NewInt(1_000_000_000),
		Returns:       map[string][]interface{}{},
		Errors:        map[string]error{},
		EstimateValue: 100000,
		ReceiptStatus: types.ReceiptStatusSuccessful,
	}
}

// SetReturn sets the output values of a view method
func (b *Backend) SetReturn(method string, values ...interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Returns[method] = values
}

// SetError makes calls to method fail with err
func (b *Backend) SetError(method string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Errors[method] = err
}

// CallCount returns how many eth_calls hit method
func (b *Backend) CallCount(method string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, c := range b.Calls {
		if c == method {
			n++
		}
	}
	return n
}

func (b *Backend) ChainID(ctx context.Context) (*big.Int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ChainIDErr != nil {
		return nil, b.ChainIDErr
	}
	return new(big.Int).Set(b.ChainIDValue), nil
}

func (b *Backend) BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error) {
	return new(big.Int).Set(b.Balance), nil
}

func (b *Backend) CodeAt(ctx context.Context, contract common.Address, blockNumber *big.Int) ([]byte, error) {
	return b.Code, nil
}

func (b *Backend) CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	parsed, err := chain.ParsedABI()
	if err != nil {
		return nil, err
	}
	if len(call.Data) < 4 {
		return nil, errors.New("calldata too short")
	}
	method, err := parsed.MethodById(call.Data[:4])
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	b.Calls = append(b.Calls, method.Name)
	callErr := b.Errors[method.Name]
	values, ok := b.Returns[method.Name]
	b.mu.Unlock()

	if callErr != nil {
		return nil, callErr
	}
	if len(method.Outputs) == 0 {
		return nil, nil
	}
	if !ok {
		return nil, fmt.Errorf("no canned return for %s", method.Name)
	}
	return method.Outputs.Pack(values...)
}

func (b *Backend) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	// No base fee keeps bind on the legacy transaction path
	return &types.Header{Number: big.NewInt(1)}, nil
}

func (b *Backend) PendingCodeAt(ctx context.Context, account common.Address) ([]byte, error) {
	return b.Code, nil
}

func (b *Backend) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.Nonce, nil
}

func (b *Backend) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return new(big.Int).Set(b.GasPrice), nil
}

func (b *Backend) SuggestGasTipCap(ctx context.Context) (*big.Int, error) {
	return big.NewInt(1), nil
}

func (b *Backend) EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error) {
	if b.EstimateErr != nil {
		return 0, b.EstimateErr
	}
	return b.EstimateValue, nil
}

func (b *Backend) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	if b.SendErr != nil {
		return b.SendErr
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Sent = append(b.Sent, tx)
	b.Nonce++
	return nil
}

func (b *Backend) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, tx := range b.Sent {
		if tx.Hash() == txHash {
			return &types.Receipt{
				Status:      b.ReceiptStatus,
				TxHash:      txHash,
				BlockNumber: big.NewInt(int64(len(b.Sent))),
				GasUsed:     tx.Gas() / 2,
			}, nil
		}
	}
	return nil, ethereum.NotFound
}

func (b *Backend) FilterLogs(ctx context.Context, query ethereum.FilterQuery) ([]types.Log, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.LastFilter = query
	return append([]types.Log(nil), b.Logs...), nil
}

func (b *Backend) SubscribeFilterLogs(ctx context.Context, query ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error) {
	return nil, errors.New("subscriptions not supported")
}

var _ chain.Backend = (*Backend)(nil)
var _ chain.ReadBackend = (*Backend)(nil)
