package wallet

import (
	"errors"
	"strings"

	"github.com/ethereum/go-ethereum/rpc"
)

// ErrUserRejected is returned when the wallet holder declines a signature
var ErrUserRejected = errors.New("transaction rejected by user")

// ErrNoAccounts is returned when the wallet exposes no signing account
var ErrNoAccounts = errors.New("no accounts found")

// EIP-1193 "User Rejected Request"
const userRejectedCode = 4001

var rejectionPhrases = []string{
	"user denied",
	"user rejected",
	"request denied",
	"rejected by user",
}

// IsUserRejected reports whether err means the wallet holder declined.
// Structured signals win; the message text match is best-effort.
func IsUserRejected(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrUserRejected) {
		return true
	}
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) && rpcErr.ErrorCode() == userRejectedCode {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, phrase := range rejectionPhrases {
		if strings.Contains(msg, phrase) {
			return true
		}
	}
	return false
}
