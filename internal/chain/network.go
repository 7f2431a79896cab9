package chain

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

// Backend is what a signer-bound contract handle needs from the RPC connection.
// *ethclient.Client satisfies it.
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
	ChainID(ctx context.Context) (*big.Int, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
}

// Default target chain (Sepolia)
const DefaultChainID uint64 = 11155111

// PublicRPCURLs are used for read-only access when no RPC URL is configured
var PublicRPCURLs = map[uint64]string{
	1:        "https://eth-mainnet.g.alchemy.com/v2/demo",
	5:        "https://eth-goerli.g.alchemy.com/v2/demo",
	11155111: "https://1rpc.io/sepolia",
	137:      "https://polygon-rpc.com",
	80001:    "https://rpc-mumbai.maticvigil.com",
}

var networkNames = map[uint64]string{
	1:        "mainnet",
	5:        "goerli",
	11155111: "sepolia",
	137:      "matic",
	80001:    "maticmum",
}

// NetworkName returns the conventional name of a chain ID
func NetworkName(chainID uint64) string {
	if name, ok := networkNames[chainID]; ok {
		return name
	}
	return "unknown"
}

// Status levels shared by network, wallet and transaction messages
const (
	LevelInfo    = "info"
	LevelSuccess = "success"
	LevelWarning = "warning"
	LevelError   = "error"
)

// NetworkStatus is the outcome of read-side initialization
type NetworkStatus struct {
	ChainID  uint64 `json:"chainId"`
	Name     string `json:"name"`
	Contract string `json:"contract"`
	Ready    bool   `json:"ready"`
	Level    string `json:"level"`
	Message  string `json:"message"`
}
