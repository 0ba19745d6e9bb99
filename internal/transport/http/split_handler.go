package http

import (
	"net/http"

	"backoffice-service/internal/models"
	"backoffice-service/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type SplitHandler struct {
	splits service.SplitService
	log    *zap.Logger
}

func NewSplitHandler(splits service.SplitService, log *zap.Logger) *SplitHandler {
	return &SplitHandler{splits: splits, log: log}
}

type splitOrderRequest struct {
	Items []cartLineRequest `json:"items" binding:"required"`
}

// SplitOrder выносит часть позиций в новый заказ.
func (h *SplitHandler) SplitOrder(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, newError("validation_error", "invalid order id"))
		return
	}
	var req splitOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("invalid split order request", zap.Error(err))
		c.JSON(http.StatusBadRequest, newError("validation_error", "invalid request body"))
		return
	}

	items := make([]service.SplitItemRequest, 0, len(req.Items))
	for _, line := range req.Items {
		items = append(items, service.SplitItemRequest{ItemID: line.ItemID, Quantity: line.Quantity})
	}

	result, err := h.splits.SplitOrder(c.Request.Context(), id, items)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"split_order":      result.SplitOrder,
		"updated_original": result.UpdatedOriginal,
	})
}

// DeleteSplitOrder сливает split-заказ обратно в исходный.
func (h *SplitHandler) DeleteSplitOrder(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, newError("validation_error", "invalid order id"))
		return
	}
	original, err := h.splits.DeleteSplitOrder(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, original)
}

type billSplitRequest struct {
	Label string          `json:"label" binding:"required"`
	Type  string          `json:"split_type" binding:"required"`
	Value decimal.Decimal `json:"value" binding:"required"`
}

func toBillSplitRequests(reqs []billSplitRequest) []service.BillSplitRequest {
	out := make([]service.BillSplitRequest, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, service.BillSplitRequest{
			Label: r.Label,
			Type:  models.SplitType(r.Type),
			Value: r.Value,
		})
	}
	return out
}

func (h *SplitHandler) SplitBill(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, newError("validation_error", "invalid order id"))
		return
	}
	var reqs []billSplitRequest
	if err := c.ShouldBindJSON(&reqs); err != nil {
		h.log.Warn("invalid bill split request", zap.Error(err))
		c.JSON(http.StatusBadRequest, newError("validation_error", "invalid request body"))
		return
	}

	details, err := h.splits.SplitBill(c.Request.Context(), id, toBillSplitRequests(reqs))
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"splits": details})
}

func (h *SplitHandler) ReissueBillSplits(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, newError("validation_error", "invalid order id"))
		return
	}
	var reqs []billSplitRequest
	if err := c.ShouldBindJSON(&reqs); err != nil {
		c.JSON(http.StatusBadRequest, newError("validation_error", "invalid request body"))
		return
	}

	details, err := h.splits.ReissueBillSplits(c.Request.Context(), id, toBillSplitRequests(reqs))
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"splits": details})
}

func (h *SplitHandler) ListBillSplits(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, newError("validation_error", "invalid order id"))
		return
	}
	splits, err := h.splits.ListBillSplits(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"splits": splits})
}
