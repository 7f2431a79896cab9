package chain

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
)

// revertStringOffset skips "0x", the 4-byte selector, the offset word and the length word
const revertStringOffset = 2 + 8 + 64 + 64

// DecodeRevertReason extracts a human-readable revert reason from a provider error.
// It returns an empty string when the error carries no decodable payload.
func DecodeRevertReason(err error) string {
	if err == nil {
		return ""
	}
	hexData := revertData(err)
	if hexData == "" || hexData == "0x" {
		return ""
	}
	return decodeRevertHex(hexData)
}

// revertData finds the hex error payload in the shapes providers use
func revertData(err error) string {
	var dataErr rpc.DataError
	if errors.As(err, &dataErr) {
		if hex := hexFromData(dataErr.ErrorData()); hex != "" {
			return hex
		}
	}

	var body []byte
	var httpErr rpc.HTTPError
	var httpErrPtr *rpc.HTTPError
	switch {
	case errors.As(err, &httpErr):
		body = httpErr.Body
	case errors.As(err, &httpErrPtr):
		body = httpErrPtr.Body
	}
	if len(body) > 0 {
		var payload struct {
			Error struct {
				Data interface{} `json:"data"`
			} `json:"error"`
		}
		if json.Unmarshal(body, &payload) == nil {
			return hexFromData(payload.Error.Data)
		}
	}
	return ""
}

func hexFromData(data interface{}) string {
	switch v := data.(type) {
	case string:
		if strings.HasPrefix(v, "0x") {
			return v
		}
	case map[string]interface{}:
		for _, key := range []string{"data", "hex"} {
			if s, ok := v[key].(string); ok && strings.HasPrefix(s, "0x") {
				return s
			}
		}
	}
	return ""
}

func decodeRevertHex(hexData string) string {
	raw, err := hexutil.Decode(hexData)
	if err == nil {
		if reason, err := abi.UnpackRevert(raw); err == nil {
			return reason
		}
	}

	// Fixed-offset slice for payloads abi.UnpackRevert rejects
	if len(hexData) <= revertStringOffset {
		return ""
	}
	tail := hexData[revertStringOffset:]
	if len(tail)%2 == 1 {
		tail = tail[:len(tail)-1]
	}
	payload, err := hexutil.Decode("0x" + tail)
	if err != nil {
		return ""
	}
	return strings.TrimRight(strings.ToValidUTF8(string(payload), ""), "\x00")
}
