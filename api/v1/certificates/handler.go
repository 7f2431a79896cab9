package certificates

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/gin-gonic/gin"

	"certchain/api/v1/txrun"
	"certchain/internal/cert"
	"certchain/internal/chain"
	"certchain/internal/httpx"
	"certchain/internal/txpipeline"
)

// Verifier answers public certificate lookups
type Verifier interface {
	Verify(ctx context.Context, certID string) (*cert.VerificationResult, error)
	History(ctx context.Context, certID string) ([]chain.HistoryEntry, error)
	Invalidate(ctx context.Context, certID string)
}

// HistoryResponse lists a certificate's events
type HistoryResponse struct {
	CertificateID string               `json:"certificateId"`
	Items         []chain.HistoryEntry `json:"items"`
}

// Handler handles certificate API
type Handler struct {
	verifier Verifier
	runner   *txrun.Runner
}

// NewHandler creates a new certificates handler
func NewHandler(verifier Verifier, runner *txrun.Runner) *Handler {
	return &Handler{verifier: verifier, runner: runner}
}

// Verify handles GET /api/v1/certificates/:id
func (h *Handler) Verify(c *gin.Context) {
	result, err := h.verifier.Verify(c.Request.Context(), c.Param("id"))
	if err != nil {
		httpx.FailErr(c, lookupError("Error verifying certificate", err))
		return
	}
	httpx.OKMsg(c, result.Message, result)
}

// History handles GET /api/v1/certificates/:id/history
func (h *Handler) History(c *gin.Context) {
	id := c.Param("id")
	items, err := h.verifier.History(c.Request.Context(), id)
	if err != nil {
		httpx.FailErr(c, lookupError("Error loading certificate history", err))
		return
	}
	if items == nil {
		items = []chain.HistoryEntry{}
	}
	httpx.OK(c, HistoryResponse{CertificateID: id, Items: items})
}

// Issue handles POST /api/v1/certificates/issue
func (h *Handler) Issue(c *gin.Context) {
	var req txpipeline.IssueRequest
	if !bindJSON(c, &req) {
		return
	}
	if _, ok := h.runner.Run(c, req); ok {
		h.verifier.Invalidate(context.WithoutCancel(c.Request.Context()), req.CertificateID)
	}
}

// Revoke handles POST /api/v1/certificates/revoke
func (h *Handler) Revoke(c *gin.Context) {
	var req txpipeline.RevokeRequest
	if !bindJSON(c, &req) {
		return
	}
	if _, ok := h.runner.Run(c, req); ok {
		h.verifier.Invalidate(context.WithoutCancel(c.Request.Context()), req.CertificateID)
	}
}

// bindJSON decodes numbers as json.Number so timestamps keep full precision
func bindJSON(c *gin.Context, v interface{}) bool {
	dec := json.NewDecoder(c.Request.Body)
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid("invalid request body"))
		return false
	}
	return true
}

func lookupError(prefix string, err error) *httpx.AppError {
	switch {
	case errors.Is(err, cert.ErrEmptyID):
		return httpx.ErrParamMissing(err.Error())
	case errors.Is(err, cert.ErrUnavailable):
		return httpx.ErrChainUnavailable(err.Error(), nil)
	}
	return httpx.ErrExternalError(prefix+": "+err.Error(), err)
}
