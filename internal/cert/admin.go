package cert

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// CheckAdmin reports whether address is the owner, an admin, or neither
func (s *Service) CheckAdmin(ctx context.Context, address string) (*AdminCheckResult, error) {
	addr := strings.TrimSpace(address)
	if addr == "" {
		return nil, ErrEmptyAddress
	}
	if !common.IsHexAddress(addr) {
		return nil, ErrInvalidAddress
	}
	if s.reader == nil {
		return nil, ErrUnavailable
	}

	account := common.HexToAddress(addr)
	isAdmin, err := s.reader.IsAdmin(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("Error checking admin status: %w", err)
	}
	owner, err := s.reader.Owner(ctx)
	if err != nil {
		return nil, fmt.Errorf("Error checking admin status: %w", err)
	}
	info, err := s.reader.AdminInfo(ctx, common.Address{})
	if err != nil {
		return nil, fmt.Errorf("Error checking admin status: %w", err)
	}

	result := &AdminCheckResult{
		Address:     addr,
		TotalAdmins: info.TotalAdmins,
		Owner:       owner.Hex(),
	}
	switch {
	case account == owner:
		result.Status = AdminStatusOwner
		result.Message = "This address is the contract owner (and admin)"
	case isAdmin:
		result.Status = AdminStatusAdmin
		result.Message = "This address is an admin"
	default:
		result.Status = AdminStatusNotAdmin
		result.Message = "This address is not an admin"
	}
	return result, nil
}

// AdminSummary returns the admin count and owner as seen from the given account
func (s *Service) AdminSummary(ctx context.Context, from common.Address) (*AdminSummary, error) {
	if s.reader == nil {
		return nil, ErrUnavailable
	}
	info, err := s.reader.AdminInfo(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("Error loading admin information: %w", err)
	}
	owner, err := s.reader.Owner(ctx)
	if err != nil {
		return nil, fmt.Errorf("Error loading admin information: %w", err)
	}
	return &AdminSummary{TotalAdmins: info.TotalAdmins, Owner: owner.Hex()}, nil
}
