package chain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Kind identifies a state-mutating contract operation
type Kind string

const (
	KindIssue       Kind = "issue"
	KindRevoke      Kind = "revoke"
	KindAddAdmin    Kind = "add_admin"
	KindRemoveAdmin Kind = "remove_admin"
)

// Operation is a typed call to one of the contract's mutating methods
type Operation struct {
	Kind    Kind
	Method  string
	Args    []interface{}
	Subject string // certificate ID or admin address
}

// Draft is a validated certificate ready to be issued
type Draft struct {
	CertificateID string
	ProductName   string
	MfgName       string
	MfgTimestamp  int64
}

// IssueCertificate builds issueCertificate(certId, productName, mfgName, mfgDate)
func IssueCertificate(d Draft) Operation {
	return Operation{
		Kind:    KindIssue,
		Method:  MethodIssueCertificate,
		Args:    []interface{}{d.CertificateID, d.ProductName, d.MfgName, big.NewInt(d.MfgTimestamp)},
		Subject: d.CertificateID,
	}
}

// RevokeCertificate builds revokeCertificate(certId)
func RevokeCertificate(certID string) Operation {
	return Operation{
		Kind:    KindRevoke,
		Method:  MethodRevokeCertificate,
		Args:    []interface{}{certID},
		Subject: certID,
	}
}

// AddAdmin builds addAdmin(address)
func AddAdmin(addr common.Address) Operation {
	return Operation{
		Kind:    KindAddAdmin,
		Method:  MethodAddAdmin,
		Args:    []interface{}{addr},
		Subject: addr.Hex(),
	}
}

// RemoveAdmin builds removeAdmin(address)
func RemoveAdmin(addr common.Address) Operation {
	return Operation{
		Kind:    KindRemoveAdmin,
		Method:  MethodRemoveAdmin,
		Args:    []interface{}{addr},
		Subject: addr.Hex(),
	}
}

// Pack ABI-encodes the operation's calldata
func (op Operation) Pack() ([]byte, error) {
	parsed, err := ParsedABI()
	if err != nil {
		return nil, err
	}
	return parsed.Pack(op.Method, op.Args...)
}
