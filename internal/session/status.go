package session

import (
	"context"

	"certchain/internal/chain"
)

// DisconnectedMessage is shown when no wallet session is active
const DisconnectedMessage = "Wallet disconnected. Please connect to issue certificates."

// Roles derived from getAllAdminInfo
const (
	RoleOwner  = "owner"
	RoleAdmin  = "admin"
	RoleViewer = "viewer"
)

// WalletStatus describes the connected wallet for display
type WalletStatus struct {
	Connected   bool   `json:"connected"`
	SessionID   string `json:"sessionId,omitempty"`
	Account     string `json:"account,omitempty"`
	ChainID     uint64 `json:"chainId,omitempty"`
	Network     string `json:"network,omitempty"`
	BalanceEth  string `json:"balanceEth,omitempty"`
	Role        string `json:"role,omitempty"`
	TotalAdmins uint64 `json:"totalAdmins"`
	Level       string `json:"level"`
	Message     string `json:"message"`
}

// Status reports the current session with balance and role
func (m *Manager) Status(ctx context.Context) WalletStatus {
	s := m.Current()
	if s == nil {
		msg, _ := m.lastReason.Load().(string)
		if msg == "" {
			msg = DisconnectedMessage
		}
		return WalletStatus{Level: chain.LevelWarning, Message: msg}
	}

	status := WalletStatus{
		Connected: true,
		SessionID: s.ID,
		Account:   s.Account.Hex(),
		ChainID:   s.ChainID,
		Network:   s.Network,
	}

	balance, err := m.backend.BalanceAt(ctx, s.Account, nil)
	if err != nil {
		m.logger.Warnf("Failed to read balance for %s: %v", s.Account.Hex(), err)
	} else {
		status.BalanceEth = formatEther(balance)
	}

	if m.reader == nil {
		status.Role = RoleViewer
		status.Level = chain.LevelInfo
		status.Message = "Wallet connected."
		return status
	}

	info, err := m.reader.AdminInfo(ctx, s.Account)
	if err != nil {
		status.Level = chain.LevelError
		status.Message = "Error checking admin status: " + err.Error()
		return status
	}
	status.TotalAdmins = info.TotalAdmins

	switch {
	case info.IsCallerOwner:
		status.Role = RoleOwner
		status.Level = chain.LevelSuccess
		status.Message = "You are the owner and can manage admins and issue certificates!"
	case info.IsCallerAdmin:
		status.Role = RoleAdmin
		status.Level = chain.LevelSuccess
		status.Message = "You are an admin and can issue certificates!"
	default:
		status.Role = RoleViewer
		status.Level = chain.LevelInfo
		status.Message = "You are not an admin. You can only verify certificates."
	}
	return status
}
