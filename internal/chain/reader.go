package chain

import (
	"context"
	"fmt"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// ReadBackend is the read-only part of an RPC connection
type ReadBackend interface {
	bind.ContractCaller
	ethereum.LogFilterer
	ChainID(ctx context.Context) (*big.Int, error)
}

// CertificateRecord is the raw getCertificate response
type CertificateRecord struct {
	ProductName string
	MfgName     string
	MfgDate     uint64
	IsValid     bool
}

// AdminInfo is the getAllAdminInfo response as seen by a caller
type AdminInfo struct {
	TotalAdmins   uint64 `json:"totalAdmins"`
	IsCallerAdmin bool   `json:"isCallerAdmin"`
	IsCallerOwner bool   `json:"isCallerOwner"`
}

// HistoryEntry is one CertificateIssued or CertificateRevoked log
type HistoryEntry struct {
	Event       string `json:"event"`
	BlockNumber uint64 `json:"blockNumber"`
	TxHash      string `json:"txHash"`
	LogIndex    uint   `json:"logIndex"`
	ProductName string `json:"productName,omitempty"`
	MfgName     string `json:"mfgName,omitempty"`
	MfgDate     uint64 `json:"mfgDate,omitempty"`
	MfgDateText string `json:"mfgDateText,omitempty"`
}

// Reader performs view calls against the certificate contract
type Reader struct {
	backend       ReadBackend
	address       common.Address
	targetChainID uint64
	fromBlock     uint64
	abi           abi.ABI
	contract      *bind.BoundContract
}

// NewReader creates a read-only contract handle
func NewReader(backend ReadBackend, address common.Address, targetChainID, fromBlock uint64) (*Reader, error) {
	parsed, err := ParsedABI()
	if err != nil {
		return nil, err
	}
	return &Reader{
		backend:       backend,
		address:       address,
		targetChainID: targetChainID,
		fromBlock:     fromBlock,
		abi:           parsed,
		contract:      bind.NewBoundContract(address, parsed, backend, nil, backend),
	}, nil
}

// Address returns the contract address
func (r *Reader) Address() common.Address {
	return r.address
}

// Init checks the network and that contract code exists at the configured address
func (r *Reader) Init(ctx context.Context) NetworkStatus {
	status := NetworkStatus{Contract: r.address.Hex()}

	chainID, err := r.backend.ChainID(ctx)
	if err != nil {
		status.Level = LevelError
		status.Message = "Error connecting to blockchain: " + err.Error()
		return status
	}
	status.ChainID = chainID.Uint64()
	status.Name = NetworkName(status.ChainID)

	if r.targetChainID != 0 && status.ChainID != r.targetChainID {
		status.Level = LevelWarning
		status.Message = fmt.Sprintf("RPC endpoint serves chain %d, expected chain %d.", status.ChainID, r.targetChainID)
		return status
	}

	code, err := r.backend.CodeAt(ctx, r.address, nil)
	if err != nil {
		status.Level = LevelError
		status.Message = "Error connecting to blockchain: " + err.Error()
		return status
	}
	if len(code) == 0 {
		status.Level = LevelWarning
		status.Message = fmt.Sprintf("No contract found at %s on %s.", r.address.Hex(), status.Name)
		return status
	}

	status.Ready = true
	status.Level = LevelSuccess
	status.Message = fmt.Sprintf("Connected to %s (chainId %d), public verification ready.", status.Name, status.ChainID)
	return status
}

func (r *Reader) call(ctx context.Context, from common.Address, method string, params ...interface{}) ([]interface{}, error) {
	var out []interface{}
	opts := &bind.CallOpts{Context: ctx, From: from}
	if err := r.contract.Call(opts, &out, method, params...); err != nil {
		return nil, err
	}
	return out, nil
}

// Owner returns the contract owner
func (r *Reader) Owner(ctx context.Context) (common.Address, error) {
	out, err := r.call(ctx, common.Address{}, MethodOwner)
	if err != nil {
		return common.Address{}, fmt.Errorf("owner(): %w", err)
	}
	return *abi.ConvertType(out[0], new(common.Address)).(*common.Address), nil
}

// IsAdmin reports whether the address is in the admin set
func (r *Reader) IsAdmin(ctx context.Context, account common.Address) (bool, error) {
	out, err := r.call(ctx, common.Address{}, MethodIsAdmin, account)
	if err != nil {
		return false, fmt.Errorf("isAdmin(): %w", err)
	}
	return *abi.ConvertType(out[0], new(bool)).(*bool), nil
}

// AdminInfo calls getAllAdminInfo with from as msg.sender
func (r *Reader) AdminInfo(ctx context.Context, from common.Address) (*AdminInfo, error) {
	out, err := r.call(ctx, from, MethodGetAllAdminInfo)
	if err != nil {
		return nil, fmt.Errorf("getAllAdminInfo(): %w", err)
	}
	total := *abi.ConvertType(out[0], new(*big.Int)).(**big.Int)
	return &AdminInfo{
		TotalAdmins:   clampUint64(total),
		IsCallerAdmin: *abi.ConvertType(out[1], new(bool)).(*bool),
		IsCallerOwner: *abi.ConvertType(out[2], new(bool)).(*bool),
	}, nil
}

// GetCertificate returns the stored certificate, zero-valued when absent
func (r *Reader) GetCertificate(ctx context.Context, certID string) (*CertificateRecord, error) {
	out, err := r.call(ctx, common.Address{}, MethodGetCertificate, certID)
	if err != nil {
		return nil, fmt.Errorf("getCertificate(): %w", err)
	}
	mfgDate := *abi.ConvertType(out[2], new(*big.Int)).(**big.Int)
	return &CertificateRecord{
		ProductName: *abi.ConvertType(out[0], new(string)).(*string),
		MfgName:     *abi.ConvertType(out[1], new(string)).(*string),
		MfgDate:     clampUint64(mfgDate),
		IsValid:     *abi.ConvertType(out[3], new(bool)).(*bool),
	}, nil
}

// History returns the issue and revoke events for a certificate ID in chain order
func (r *Reader) History(ctx context.Context, certID string) ([]HistoryEntry, error) {
	issued := r.abi.Events[EventCertificateIssued]
	revoked := r.abi.Events[EventCertificateRevoked]

	query := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(r.fromBlock),
		Addresses: []common.Address{r.address},
		Topics: [][]common.Hash{
			{issued.ID, revoked.ID},
			{crypto.Keccak256Hash([]byte(certID))},
		},
	}

	logs, err := r.backend.FilterLogs(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to filter certificate logs: %w", err)
	}

	entries := make([]HistoryEntry, 0, len(logs))
	for _, lg := range logs {
		if len(lg.Topics) == 0 {
			continue
		}
		entry := HistoryEntry{
			BlockNumber: lg.BlockNumber,
			TxHash:      lg.TxHash.Hex(),
			LogIndex:    lg.Index,
		}
		switch lg.Topics[0] {
		case issued.ID:
			entry.Event = EventCertificateIssued
			values, err := r.abi.Unpack(EventCertificateIssued, lg.Data)
			if err != nil {
				return nil, fmt.Errorf("failed to decode %s log: %w", EventCertificateIssued, err)
			}
			entry.ProductName = *abi.ConvertType(values[0], new(string)).(*string)
			entry.MfgName = *abi.ConvertType(values[1], new(string)).(*string)
			entry.MfgDate = clampUint64(*abi.ConvertType(values[2], new(*big.Int)).(**big.Int))
		case revoked.ID:
			entry.Event = EventCertificateRevoked
		default:
			continue
		}
		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].BlockNumber != entries[j].BlockNumber {
			return entries[i].BlockNumber < entries[j].BlockNumber
		}
		return entries[i].LogIndex < entries[j].LogIndex
	})
	return entries, nil
}

func clampUint64(v *big.Int) uint64 {
	if v == nil || v.Sign() < 0 {
		return 0
	}
	if !v.IsUint64() {
		return ^uint64(0)
	}
	return v.Uint64()
}
