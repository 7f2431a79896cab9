package wallet

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"

	"certchain/internal/httpx"
	"certchain/internal/session"
	signer "certchain/internal/wallet"
)

// Sessions is the session manager surface the handler uses
type Sessions interface {
	Status(ctx context.Context) session.WalletStatus
	Connect(ctx context.Context) (*session.Session, error)
	Invalidate(ctx context.Context, reason string)
}

// Handler handles wallet API
type Handler struct {
	sessions Sessions
}

// NewHandler creates a new wallet handler
func NewHandler(sessions Sessions) *Handler {
	return &Handler{sessions: sessions}
}

// Status handles GET /api/v1/wallet
func (h *Handler) Status(c *gin.Context) {
	httpx.OK(c, h.sessions.Status(c.Request.Context()))
}

// Connect handles POST /api/v1/wallet/connect
func (h *Handler) Connect(c *gin.Context) {
	ctx := c.Request.Context()
	if _, err := h.sessions.Connect(ctx); err != nil {
		httpx.FailErr(c, connectError(err))
		return
	}
	status := h.sessions.Status(ctx)
	httpx.OKMsg(c, status.Message, status)
}

// Disconnect handles POST /api/v1/wallet/disconnect
func (h *Handler) Disconnect(c *gin.Context) {
	ctx := c.Request.Context()
	h.sessions.Invalidate(ctx, session.DisconnectedMessage)
	httpx.OKMsg(c, session.DisconnectedMessage, h.sessions.Status(ctx))
}

func connectError(err error) *httpx.AppError {
	var wrongChain *session.WrongChainError
	switch {
	case errors.Is(err, signer.ErrNoAccounts):
		return httpx.ErrWalletNotConnected("No accounts found.")
	case errors.As(err, &wrongChain):
		return httpx.ErrWalletNotConnected(wrongChain.Error())
	case errors.Is(err, session.ErrNotConnected):
		return httpx.ErrWalletNotConnected("No signing wallet is configured.")
	}
	return httpx.ErrExternalError("Error connecting wallet: "+err.Error(), err)
}
