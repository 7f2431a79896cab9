package txpipeline

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"certchain/internal/chain"
	"certchain/internal/datenorm"
)

const missingFieldsReason = "Please fill in all fields"

// Request is a user action that maps to one contract operation
type Request interface {
	Kind() chain.Kind
	// Build validates the input and returns the operation to submit
	Build() (chain.Operation, error)
}

// IssueRequest issues a certificate. MfgDate accepts a date string, a JSON
// number, or nil (which fails validation).
type IssueRequest struct {
	CertificateID string      `json:"certificateId"`
	ProductName   string      `json:"productName"`
	MfgName       string      `json:"mfgName"`
	MfgDate       interface{} `json:"mfgDate"`
}

func (r IssueRequest) Kind() chain.Kind { return chain.KindIssue }

func (r IssueRequest) Build() (chain.Operation, error) {
	fields := []struct {
		name  string
		value string
	}{
		{"certificateId", r.CertificateID},
		{"productName", r.ProductName},
		{"mfgName", r.MfgName},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return chain.Operation{}, &ValidationError{Field: f.name, Reason: missingFieldsReason}
		}
	}
	if s, ok := r.MfgDate.(string); r.MfgDate == nil || (ok && strings.TrimSpace(s) == "") {
		return chain.Operation{}, &ValidationError{Field: "mfgDate", Reason: missingFieldsReason}
	}

	ts, err := datenorm.NormalizeValue(r.MfgDate)
	if err != nil {
		return chain.Operation{}, &ValidationError{Field: "mfgDate", Reason: "Invalid date: " + err.Error()}
	}

	return chain.IssueCertificate(chain.Draft{
		CertificateID: strings.TrimSpace(r.CertificateID),
		ProductName:   strings.TrimSpace(r.ProductName),
		MfgName:       strings.TrimSpace(r.MfgName),
		MfgTimestamp:  ts,
	}), nil
}

// RevokeRequest revokes a certificate
type RevokeRequest struct {
	CertificateID string `json:"certificateId"`
}

func (r RevokeRequest) Kind() chain.Kind { return chain.KindRevoke }

func (r RevokeRequest) Build() (chain.Operation, error) {
	id := strings.TrimSpace(r.CertificateID)
	if id == "" {
		return chain.Operation{}, &ValidationError{Field: "certificateId", Reason: "Please enter a certificate ID to revoke"}
	}
	return chain.RevokeCertificate(id), nil
}

// AdminRequest adds or removes an admin
type AdminRequest struct {
	Remove  bool   `json:"-"`
	Address string `json:"address"`
}

func (r AdminRequest) Kind() chain.Kind {
	if r.Remove {
		return chain.KindRemoveAdmin
	}
	return chain.KindAddAdmin
}

func (r AdminRequest) Build() (chain.Operation, error) {
	addr := strings.TrimSpace(r.Address)
	if addr == "" {
		return chain.Operation{}, &ValidationError{Field: "address", Reason: "Enter an address"}
	}
	if !common.IsHexAddress(addr) {
		return chain.Operation{}, &ValidationError{Field: "address", Reason: "Invalid address"}
	}
	if r.Remove {
		return chain.RemoveAdmin(common.HexToAddress(addr)), nil
	}
	return chain.AddAdmin(common.HexToAddress(addr)), nil
}
