package transactions

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"

	"certchain/internal/httpx"
	"certchain/internal/model"
	"certchain/internal/service"
)

// Store reads the transaction journal
type Store interface {
	List(ctx context.Context, f service.TxFilter) ([]model.TxRecord, int64, error)
	Get(ctx context.Context, operationID string) (*model.TxRecord, error)
}

// ListRequest list request
type ListRequest struct {
	Page     int    `form:"page"`
	PageSize int    `form:"pageSize"`
	Kind     string `form:"kind"`
	Status   string `form:"status"`
	Operator string `form:"operator"`
}

// Handler handles transaction journal API
type Handler struct {
	store Store
}

// NewHandler creates a new transactions handler
func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// List handles GET /api/v1/transactions
func (h *Handler) List(c *gin.Context) {
	var req ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid("invalid query parameters"))
		return
	}

	filter := service.TxFilter{
		Kind:     req.Kind,
		Status:   req.Status,
		Operator: req.Operator,
		Page:     req.Page,
		PageSize: req.PageSize,
	}
	filter.Normalize()

	records, total, err := h.store.List(c.Request.Context(), filter)
	if err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to query transactions", err))
		return
	}
	if records == nil {
		records = []model.TxRecord{}
	}
	httpx.OKItems(c, records, total, filter.Page, filter.PageSize)
}

// Get handles GET /api/v1/transactions/:opId
func (h *Handler) Get(c *gin.Context) {
	rec, err := h.store.Get(c.Request.Context(), c.Param("opId"))
	if errors.Is(err, service.ErrTxNotFound) {
		httpx.FailErr(c, httpx.ErrNotFound("transaction not found"))
		return
	}
	if err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to query transaction", err))
		return
	}
	httpx.OK(c, rec)
}
