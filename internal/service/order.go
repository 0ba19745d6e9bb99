package service

import (
	"context"

	"backoffice-service/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartLine — одна строка корзины. Повторяющиеся item_id не сливаются:
// каждая строка становится отдельной позицией заказа.
type CartLine struct {
	ItemID   int64
	Quantity int64
}

type CreateOrderInput struct {
	CompanyID         uuid.UUID
	RoomOrTableNumber string
	Notes             string
	Items             []CartLine
}

type ListOrdersFilter struct {
	Status *models.OrderStatus
	Limit  int
	Offset int
}

type OrderService interface {
	CreateOrder(ctx context.Context, in CreateOrderInput) (*models.Order, error)
	GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListOrders(ctx context.Context, f ListOrdersFilter) ([]models.Order, int64, error)
	UpdateOrderStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus) (*models.Order, error)
	CancelOrder(ctx context.Context, id uuid.UUID) (*models.Order, error)
	UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status models.PaymentStatus) error
	RetryPaymentLink(ctx context.Context, id uuid.UUID) (*models.Order, error)
}

type SplitItemRequest struct {
	ItemID   int64
	Quantity int64
}

type BillSplitRequest struct {
	Label string
	Type  models.SplitType
	Value decimal.Decimal
}

type SplitDetail struct {
	ID         uuid.UUID
	Label      string
	Type       models.SplitType
	Value      decimal.Decimal
	Allocated  decimal.Decimal
	PaymentURL string
}

type SplitResult struct {
	SplitOrder      *models.Order
	UpdatedOriginal *models.Order
}

type SplitService interface {
	SplitOrder(ctx context.Context, originalOrderID uuid.UUID, items []SplitItemRequest) (*SplitResult, error)
	DeleteSplitOrder(ctx context.Context, splitOrderID uuid.UUID) (*models.Order, error)
	SplitBill(ctx context.Context, orderID uuid.UUID, requests []BillSplitRequest) ([]SplitDetail, error)
	ReissueBillSplits(ctx context.Context, orderID uuid.UUID, requests []BillSplitRequest) ([]SplitDetail, error)
	ListBillSplits(ctx context.Context, orderID uuid.UUID) ([]models.OrderSplit, error)
}
