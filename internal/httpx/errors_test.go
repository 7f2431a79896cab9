package httpx

import (
	"errors"
	"net/http"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{
			name: "error without internal err",
			err:  NewAppError(http.StatusBadRequest, CodeParamMissing, "param missing", nil),
			want: "code=2001, message=param missing",
		},
		{
			name: "error with internal err",
			err:  NewAppError(http.StatusInternalServerError, CodeInternalError, "internal error", errors.New("db connection failed")),
			want: "code=5001, message=internal error, err=db connection failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("AppError.Error() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("execution reverted")
	err := ErrSimulationReverted("Simulation reverted: Not admin", cause)
	if !errors.Is(err, cause) {
		t.Error("Expected errors.Is to reach the internal error")
	}
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name    string
		err     *AppError
		status  int
		code    int
		message string
	}{
		{"unauthorized default", ErrUnauthorized(""), http.StatusUnauthorized, CodeUnauthorized, "unauthorized"},
		{"invalid token", ErrInvalidToken(""), http.StatusUnauthorized, CodeInvalidToken, "invalid token"},
		{"param missing custom", ErrParamMissing("field 'name' is required"), http.StatusBadRequest, CodeParamMissing, "field 'name' is required"},
		{"param invalid", ErrParamInvalid("Please fill in all fields"), http.StatusBadRequest, CodeParamInvalid, "Please fill in all fields"},
		{"not found", ErrNotFound(""), http.StatusNotFound, CodeNotFound, "resource not found"},
		{"simulation reverted", ErrSimulationReverted("", nil), http.StatusConflict, CodeSimulationReverted, "simulation reverted"},
		{"user rejected", ErrUserRejected("Transaction rejected by user."), http.StatusConflict, CodeUserRejected, "Transaction rejected by user."},
		{"submission failed", ErrSubmissionFailed("", nil), http.StatusBadGateway, CodeSubmissionFailed, "transaction failed"},
		{"wallet not connected", ErrWalletNotConnected(""), http.StatusConflict, CodeWalletNotConnected, "wallet not connected"},
		{"chain unavailable", ErrChainUnavailable("", nil), http.StatusServiceUnavailable, CodeChainUnavailable, "blockchain connection not available"},
		{"internal", ErrInternalError("", nil), http.StatusInternalServerError, CodeInternalError, "internal error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.HTTPStatus != tt.status {
				t.Errorf("Expected HTTP status %d, got %d", tt.status, tt.err.HTTPStatus)
			}
			if tt.err.Code != tt.code {
				t.Errorf("Expected code %d, got %d", tt.code, tt.err.Code)
			}
			if tt.err.Message != tt.message {
				t.Errorf("Expected message %q, got %q", tt.message, tt.err.Message)
			}
		})
	}
}

func TestErrorCodes(t *testing.T) {
	tests := []struct {
		name string
		code int
		min  int
		max  int
	}{
		{"CodeSuccess", CodeSuccess, 0, 0},
		{"CodeUnauthorized", CodeUnauthorized, 1000, 1099},
		{"CodeForbidden", CodeForbidden, 1000, 1099},
		{"CodeParamInvalid", CodeParamInvalid, 2000, 2099},
		{"CodeNotFound", CodeNotFound, 3000, 3999},
		{"CodeSimulationReverted", CodeSimulationReverted, 4000, 4099},
		{"CodeUserRejected", CodeUserRejected, 4000, 4099},
		{"CodeSubmissionFailed", CodeSubmissionFailed, 4000, 4099},
		{"CodeWalletNotConnected", CodeWalletNotConnected, 4000, 4099},
		{"CodeChainUnavailable", CodeChainUnavailable, 4000, 4099},
		{"CodeInternalError", CodeInternalError, 5000, 5999},
		{"CodeDatabaseError", CodeDatabaseError, 5000, 5999},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.code < tt.min || tt.code > tt.max {
				t.Errorf("%s = %d, expected to be in range [%d, %d]", tt.name, tt.code, tt.min, tt.max)
			}
		})
	}
}
