package service

import (
	"context"
	"time"

	"backoffice-service/internal/models"

	"github.com/google/uuid"
)

type OrderLineEvent struct {
	ItemID   int64  `json:"item_id"`
	Quantity int64  `json:"quantity"`
	Price    string `json:"price"`
}

type OrderCreatedEvent struct {
	OrderID         uuid.UUID        `json:"order_id"`
	GuestID         uuid.UUID        `json:"guest_id"`
	CompanyID       uuid.UUID        `json:"company_id"`
	IsSplit         bool             `json:"is_split"`
	OriginalOrderID *uuid.UUID       `json:"original_order_id,omitempty"`
	Items           []OrderLineEvent `json:"items"`
	Total           string           `json:"total"`
	CreatedAt       time.Time        `json:"created_at"`
}

type OrderStatusChangedEvent struct {
	OrderID   uuid.UUID          `json:"order_id"`
	CompanyID uuid.UUID          `json:"company_id"`
	OldStatus models.OrderStatus `json:"old_status"`
	NewStatus models.OrderStatus `json:"new_status"`
	ChangedAt time.Time          `json:"changed_at"`
}

type BookingCreatedEvent struct {
	BookingID     uuid.UUID `json:"booking_id"`
	CompanyID     uuid.UUID `json:"company_id"`
	RoomID        *int64    `json:"room_id,omitempty"`
	ArrangementID *int64    `json:"arrangement_id,omitempty"`
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
	CreatedAt     time.Time `json:"created_at"`
}

// EventBus — общий сток уведомлений. Публикация — fire-and-forget:
// сбой шины никогда не откатывает уже закоммиченную операцию.
type EventBus interface {
	PublishOrderCreated(ctx context.Context, e OrderCreatedEvent) error
	PublishOrderStatusChanged(ctx context.Context, e OrderStatusChangedEvent) error
	PublishBookingCreated(ctx context.Context, e BookingCreatedEvent) error
}
