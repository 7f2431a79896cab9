package admins

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"

	"certchain/api/v1/txrun"
	"certchain/internal/cert"
	"certchain/internal/httpx"
	"certchain/internal/txpipeline"
)

// Checker answers admin lookups
type Checker interface {
	CheckAdmin(ctx context.Context, address string) (*cert.AdminCheckResult, error)
	AdminSummary(ctx context.Context, from common.Address) (*cert.AdminSummary, error)
}

// AdminRequest is the body of add and remove calls
type AdminRequest struct {
	Address string `json:"address"`
}

// Handler handles admin API
type Handler struct {
	checker  Checker
	sessions txrun.SessionSource
	runner   *txrun.Runner
}

// NewHandler creates a new admins handler
func NewHandler(checker Checker, sessions txrun.SessionSource, runner *txrun.Runner) *Handler {
	return &Handler{checker: checker, sessions: sessions, runner: runner}
}

// Check handles GET /api/v1/admins/:address
func (h *Handler) Check(c *gin.Context) {
	result, err := h.checker.CheckAdmin(c.Request.Context(), c.Param("address"))
	if err != nil {
		httpx.FailErr(c, lookupError(err))
		return
	}
	httpx.OKMsg(c, result.Message, result)
}

// Info handles GET /api/v1/admins/info for the connected account
func (h *Handler) Info(c *gin.Context) {
	s := h.sessions.Current()
	if s == nil {
		httpx.FailErr(c, httpx.ErrWalletNotConnected(txpipeline.ErrWalletNotConnected.Error()))
		return
	}
	summary, err := h.checker.AdminSummary(c.Request.Context(), s.Account)
	if err != nil {
		httpx.FailErr(c, lookupError(err))
		return
	}
	httpx.OK(c, summary)
}

// Add handles POST /api/v1/admins/add
func (h *Handler) Add(c *gin.Context) {
	h.change(c, false)
}

// Remove handles POST /api/v1/admins/remove
func (h *Handler) Remove(c *gin.Context) {
	h.change(c, true)
}

func (h *Handler) change(c *gin.Context, remove bool) {
	var req AdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid("invalid request body"))
		return
	}
	h.runner.Run(c, txpipeline.AdminRequest{Remove: remove, Address: req.Address})
}

func lookupError(err error) *httpx.AppError {
	switch {
	case errors.Is(err, cert.ErrEmptyAddress):
		return httpx.ErrParamMissing(err.Error())
	case errors.Is(err, cert.ErrInvalidAddress):
		return httpx.ErrParamInvalid(err.Error())
	case errors.Is(err, cert.ErrUnavailable):
		return httpx.ErrChainUnavailable(err.Error(), nil)
	}
	return httpx.ErrExternalError(err.Error(), err)
}
