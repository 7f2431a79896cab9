package chain

import (
	"fmt"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// CertificateABI is the consumed surface of the certificate contract
const CertificateABI = `[
{"inputs":[],"name":"owner","outputs":[{"internalType":"address","name":"","type":"address"}],"stateMutability":"view","type":"function"},
{"inputs":[{"internalType":"address","name":"account","type":"address"}],"name":"isAdmin","outputs":[{"internalType":"bool","name":"","type":"bool"}],"stateMutability":"view","type":"function"},
{"inputs":[],"name":"getAllAdminInfo","outputs":[{"internalType":"uint256","name":"totalAdmins","type":"uint256"},{"internalType":"bool","name":"isCallerAdmin","type":"bool"},{"internalType":"bool","name":"isCallerOwner","type":"bool"}],"stateMutability":"view","type":"function"},
{"inputs":[{"internalType":"string","name":"certId","type":"string"}],"name":"getCertificate","outputs":[{"internalType":"string","name":"productName","type":"string"},{"internalType":"string","name":"mfgName","type":"string"},{"internalType":"uint256","name":"mfgDate","type":"uint256"},{"internalType":"bool","name":"isValid","type":"bool"}],"stateMutability":"view","type":"function"},
{"inputs":[{"internalType":"string","name":"certId","type":"string"},{"internalType":"string","name":"productName","type":"string"},{"internalType":"string","name":"mfgName","type":"string"},{"internalType":"uint256","name":"mfgDate","type":"uint256"}],"name":"issueCertificate","outputs":[],"stateMutability":"nonpayable","type":"function"},
{"inputs":[{"internalType":"string","name":"certId","type":"string"}],"name":"revokeCertificate","outputs":[],"stateMutability":"nonpayable","type":"function"},
{"inputs":[{"internalType":"address","name":"newAdmin","type":"address"}],"name":"addAdmin","outputs":[],"stateMutability":"nonpayable","type":"function"},
{"inputs":[{"internalType":"address","name":"adminToRemove","type":"address"}],"name":"removeAdmin","outputs":[],"stateMutability":"nonpayable","type":"function"},
{"anonymous":false,"inputs":[{"indexed":true,"internalType":"string","name":"certId","type":"string"},{"indexed":false,"internalType":"string","name":"productName","type":"string"},{"indexed":false,"internalType":"string","name":"mfgName","type":"string"},{"indexed":false,"internalType":"uint256","name":"mfgDate","type":"uint256"}],"name":"CertificateIssued","type":"event"},
{"anonymous":false,"inputs":[{"indexed":true,"internalType":"string","name":"certId","type":"string"}],"name":"CertificateRevoked","type":"event"}
]`

// Contract method and event names
const (
	MethodOwner             = "owner"
	MethodIsAdmin           = "isAdmin"
	MethodGetAllAdminInfo   = "getAllAdminInfo"
	MethodGetCertificate    = "getCertificate"
	MethodIssueCertificate  = "issueCertificate"
	MethodRevokeCertificate = "revokeCertificate"
	MethodAddAdmin          = "addAdmin"
	MethodRemoveAdmin       = "removeAdmin"

	EventCertificateIssued  = "CertificateIssued"
	EventCertificateRevoked = "CertificateRevoked"
)

var (
	parsedABI     abi.ABI
	parsedABIErr  error
	parsedABIOnce sync.Once
)

// ParsedABI returns the parsed certificate ABI
func ParsedABI() (abi.ABI, error) {
	parsedABIOnce.Do(func() {
		parsedABI, parsedABIErr = abi.JSON(strings.NewReader(CertificateABI))
		if parsedABIErr != nil {
			parsedABIErr = fmt.Errorf("failed to parse certificate ABI: %w", parsedABIErr)
		}
	})
	return parsedABI, parsedABIErr
}
