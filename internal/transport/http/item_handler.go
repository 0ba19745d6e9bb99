package http

import (
	"net/http"
	"strconv"

	"backoffice-service/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type ItemHandler struct {
	items service.ItemService
	log   *zap.Logger
}

func NewItemHandler(items service.ItemService, log *zap.Logger) *ItemHandler {
	return &ItemHandler{items: items, log: log}
}

func intQuery(c *gin.Context, name string) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return 0
	}
	return v
}

func int64Param(c *gin.Context, name string) (int64, bool) {
	v, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, newError("validation_error", "invalid "+name))
		return 0, false
	}
	return v, true
}

type createItemRequest struct {
	Name         string          `json:"name" binding:"required"`
	Description  string          `json:"description"`
	Unit         string          `json:"unit" binding:"required"`
	Category     string          `json:"category"`
	Price        decimal.Decimal `json:"price" binding:"required"`
	ReorderPoint int64           `json:"reorder_point"`
	ImageURL     string          `json:"image_url"`
}

func (h *ItemHandler) Create(c *gin.Context) {
	var req createItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("invalid create item request", zap.Error(err))
		c.JSON(http.StatusBadRequest, newError("validation_error", "invalid request body"))
		return
	}
	item, err := h.items.CreateItem(c.Request.Context(), service.CreateItemInput{
		Name:         req.Name,
		Description:  req.Description,
		Unit:         req.Unit,
		Category:     req.Category,
		Price:        req.Price,
		ReorderPoint: req.ReorderPoint,
		ImageURL:     req.ImageURL,
	})
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (h *ItemHandler) Get(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}
	item, err := h.items.GetItem(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *ItemHandler) List(c *gin.Context) {
	var f service.ListItemsFilter
	if raw := c.Query("category"); raw != "" {
		f.Category = &raw
	}
	f.Limit = intQuery(c, "limit")
	f.Offset = intQuery(c, "offset")

	items, total, err := h.items.ListItems(c.Request.Context(), f)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "total": total})
}

type updateItemRequest struct {
	Name         *string          `json:"name"`
	Description  *string          `json:"description"`
	Unit         *string          `json:"unit"`
	Category     *string          `json:"category"`
	Price        *decimal.Decimal `json:"price"`
	ReorderPoint *int64           `json:"reorder_point"`
	ImageURL     *string          `json:"image_url"`
}

func (h *ItemHandler) Update(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}
	var req updateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, newError("validation_error", "invalid request body"))
		return
	}
	item, err := h.items.UpdateItem(c.Request.Context(), id, service.UpdateItemInput{
		Name:         req.Name,
		Description:  req.Description,
		Unit:         req.Unit,
		Category:     req.Category,
		Price:        req.Price,
		ReorderPoint: req.ReorderPoint,
		ImageURL:     req.ImageURL,
	})
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *ItemHandler) Delete(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}
	if err := h.items.DeleteItem(c.Request.Context(), id); err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type addStockRequest struct {
	Quantity int64  `json:"quantity" binding:"required"`
	Notes    string `json:"notes"`
}

func (h *ItemHandler) AddStock(c *gin.Context) {
	itemID, ok := int64Param(c, "id")
	if !ok {
		return
	}
	var req addStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, newError("validation_error", "invalid request body"))
		return
	}
	entry, err := h.items.AddStock(c.Request.Context(), service.AddStockInput{
		ItemID:   itemID,
		Quantity: req.Quantity,
		Notes:    req.Notes,
	})
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

func (h *ItemHandler) ListStock(c *gin.Context) {
	itemID, ok := int64Param(c, "id")
	if !ok {
		return
	}
	entries, err := h.items.ListStock(c.Request.Context(), itemID)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stock": entries})
}

func (h *ItemHandler) UpdateStock(c *gin.Context) {
	stockID, ok := int64Param(c, "id")
	if !ok {
		return
	}
	var req addStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, newError("validation_error", "invalid request body"))
		return
	}
	entry, err := h.items.UpdateStock(c.Request.Context(), stockID, req.Quantity, req.Notes)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}
