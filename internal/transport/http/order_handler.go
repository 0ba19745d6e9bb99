package http

import (
	"net/http"

	"backoffice-service/internal/models"
	"backoffice-service/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type OrderHandler struct {
	orders service.OrderService
	log    *zap.Logger
}

func NewOrderHandler(orders service.OrderService, log *zap.Logger) *OrderHandler {
	return &OrderHandler{orders: orders, log: log}
}

type cartLineRequest struct {
	ItemID   int64 `json:"item_id" binding:"required"`
	Quantity int64 `json:"quantity" binding:"required"`
}

type createOrderRequest struct {
	CompanyID         string            `json:"company_id" binding:"required,uuid"`
	RoomOrTableNumber string            `json:"room_or_table_number"`
	Notes             string            `json:"notes"`
	Items             []cartLineRequest `json:"items" binding:"required"`
}

func (h *OrderHandler) Create(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("invalid create order request", zap.Error(err))
		c.JSON(http.StatusBadRequest, newError("validation_error", "invalid request body"))
		return
	}
	companyID, err := uuid.Parse(req.CompanyID)
	if err != nil {
		c.JSON(http.StatusBadRequest, newError("validation_error", "invalid company_id"))
		return
	}

	in := service.CreateOrderInput{
		CompanyID:         companyID,
		RoomOrTableNumber: req.RoomOrTableNumber,
		Notes:             req.Notes,
	}
	for _, line := range req.Items {
		in.Items = append(in.Items, service.CartLine{ItemID: line.ItemID, Quantity: line.Quantity})
	}

	order, err := h.orders.CreateOrder(c.Request.Context(), in)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (h *OrderHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, newError("validation_error", "invalid order id"))
		return
	}
	order, err := h.orders.GetOrder(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) List(c *gin.Context) {
	var f service.ListOrdersFilter
	if raw := c.Query("status"); raw != "" {
		status := models.OrderStatus(raw)
		f.Status = &status
	}
	f.Limit = intQuery(c, "limit")
	f.Offset = intQuery(c, "offset")

	orders, total, err := h.orders.ListOrders(c.Request.Context(), f)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders, "total": total})
}

type updateStatusRequest struct {
	Status models.OrderStatus `json:"status" binding:"required"`
}

func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, newError("validation_error", "invalid order id"))
		return
	}
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, newError("validation_error", "invalid request body"))
		return
	}
	order, err := h.orders.UpdateOrderStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) Cancel(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, newError("validation_error", "invalid order id"))
		return
	}
	order, err := h.orders.CancelOrder(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) RetryPaymentLink(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, newError("validation_error", "invalid order id"))
		return
	}
	order, err := h.orders.RetryPaymentLink(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// PaymentCallback принимает редирект платёжного провайдера. tx_ref — uuid
// заказа без дефисов, uuid.Parse понимает обе формы.
func (h *OrderHandler) PaymentCallback(c *gin.Context) {
	id, err := uuid.Parse(c.Query("tx_ref"))
	if err != nil {
		c.JSON(http.StatusBadRequest, newError("validation_error", "invalid tx_ref"))
		return
	}

	var status models.PaymentStatus
	switch c.Query("status") {
	case "successful", "completed":
		status = models.PaymentStatusPaid
	case "cancelled":
		status = models.PaymentStatusCancelled
	default:
		status = models.PaymentStatusFailed
	}

	if err := h.orders.UpdatePaymentStatus(c.Request.Context(), id, status); err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": string(status)})
}
