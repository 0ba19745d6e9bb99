package http

import (
	"errors"
	"net/http"

	"backoffice-service/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BaseError универсальный формат ошибки
// Code — машинно-ориентированный код (snake_case)
// Message — краткое человеко-читаемое описание
// Details — дополнительная строка (пояснение)
type BaseError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func newError(code, msg string) BaseError {
	return BaseError{Code: code, Message: msg}
}

// writeServiceError транслирует ошибки сервисного слоя в HTTP-статусы.
// Неопознанная ошибка — всегда 500 без деталей наружу.
func writeServiceError(c *gin.Context, log *zap.Logger, err error) {
	var stockErr *service.InsufficientStockError
	if errors.As(err, &stockErr) {
		c.JSON(http.StatusConflict, BaseError{
			Code:    "insufficient_stock",
			Message: "not enough stock for requested quantity",
			Details: stockErr.Error(),
		})
		return
	}
	var mismatchErr *service.SplitMismatchError
	if errors.As(err, &mismatchErr) {
		c.JSON(http.StatusConflict, BaseError{
			Code:    "split_mismatch",
			Message: "split allocations do not add up to order total",
			Details: mismatchErr.Error(),
		})
		return
	}

	switch {
	case errors.Is(err, service.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, newError("unauthorized", "authentication required"))
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, newError("forbidden", "access denied"))

	case errors.Is(err, service.ErrOrderNotFound),
		errors.Is(err, service.ErrItemNotFound),
		errors.Is(err, service.ErrStockNotFound),
		errors.Is(err, service.ErrRoomNotFound),
		errors.Is(err, service.ErrArrangementNotFound),
		errors.Is(err, service.ErrBookingNotFound):
		c.JSON(http.StatusNotFound, newError("not_found", err.Error()))

	case errors.Is(err, service.ErrEmptyOrder),
		errors.Is(err, service.ErrQuantityInvalid),
		errors.Is(err, service.ErrInvalidSplitType),
		errors.Is(err, service.ErrSplitValue),
		errors.Is(err, service.ErrInvalidWindow),
		errors.Is(err, service.ErrNotSplitOrder):
		c.JSON(http.StatusBadRequest, newError("validation_error", err.Error()))

	case errors.Is(err, service.ErrInsufficientStock),
		errors.Is(err, service.ErrItemNotInOrder),
		errors.Is(err, service.ErrInsufficientQuantity),
		errors.Is(err, service.ErrOrderTerminal),
		errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrSplitMismatch),
		errors.Is(err, service.ErrSplitsExist),
		errors.Is(err, service.ErrRoomUnavailable),
		errors.Is(err, service.ErrRoomNameTaken),
		errors.Is(err, service.ErrArrangementNameTaken),
		errors.Is(err, service.ErrAlreadyCancelled):
		c.JSON(http.StatusConflict, newError("conflict", err.Error()))

	default:
		log.Error("unhandled service error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, newError("internal_error", "internal server error"))
	}
}
