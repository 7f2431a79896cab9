package bootstrap

import (
	"context"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"certchain/internal/cert"
	"certchain/internal/chain"
	"certchain/internal/chain/chaintest"
	"certchain/internal/config"
	"certchain/internal/session"
)

func TestLogger(t *testing.T) {
	defer logrus.SetLevel(logrus.InfoLevel)
	defer logrus.SetFormatter(&logrus.TextFormatter{})

	entry := Logger(config.LogConfig{Level: "debug", Format: "json"}, "certchain")
	assert.Equal(t, logrus.DebugLevel, logrus.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, logrus.StandardLogger().Formatter)
	assert.Equal(t, "certchain", entry.Data["app"])

	Logger(config.LogConfig{Level: "nonsense"}, "certctl")
	assert.Equal(t, logrus.InfoLevel, logrus.GetLevel())
}

func TestOpenWallet(t *testing.T) {
	w, err := OpenWallet(config.WalletConfig{Mode: config.WalletModeNone}, nil)
	require.NoError(t, err)
	assert.Nil(t, w)

	_, err = OpenWallet(config.WalletConfig{Mode: "metamask"}, nil)
	assert.Error(t, err)
}

func TestDialChain_InvalidContract(t *testing.T) {
	_, err := DialChain(context.Background(), config.ChainConfig{RPCURL: "http://127.0.0.1:1", ContractAddress: "0x123"})
	assert.ErrorIs(t, err, ErrInvalidContract)
}

func TestNewSessions_WithoutWallet(t *testing.T) {
	cfg := &config.Config{Chain: config.ChainConfig{ChainID: 11155111}}
	m := NewSessions(context.Background(), &Chain{}, nil, cfg, nil)

	assert.Nil(t, m.Current())
	_, err := m.Connect(context.Background())
	assert.ErrorIs(t, err, session.ErrNotConnected)
}

func TestNewVerifier_RequiresReadyNetwork(t *testing.T) {
	contract := common.HexToAddress("0xcc8a9a1d20ba4da17130be63ff12a74229d11fa8")
	reader, err := chain.NewReader(chaintest.NewBackend(), contract, chain.DefaultChainID, 0)
	require.NoError(t, err)

	notReady := &Chain{Reader: reader, Contract: contract, Network: chain.NetworkStatus{Ready: false, Message: "no contract deployed"}}
	svc := NewVerifier(notReady, nil, time.Minute, nil)
	assert.False(t, svc.Available())
	_, err = svc.Verify(context.Background(), "CERT-1")
	assert.ErrorIs(t, err, cert.ErrUnavailable)
	_, err = svc.CheckAdmin(context.Background(), contract.Hex())
	assert.ErrorIs(t, err, cert.ErrUnavailable)

	assert.False(t, NewVerifier(nil, nil, time.Minute, nil).Available())

	ready := &Chain{Reader: reader, Contract: contract, Network: chain.NetworkStatus{Ready: true}}
	assert.True(t, NewVerifier(ready, nil, time.Minute, nil).Available())
}
