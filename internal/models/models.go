package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Статус заказа — строковый тип, CHECK-ограничение добавляется в миграции.
type OrderStatus string

const (
	OrderStatusNew        OrderStatus = "ORDER_STATUS_NEW"
	OrderStatusInProgress OrderStatus = "ORDER_STATUS_IN_PROGRESS"
	OrderStatusReady      OrderStatus = "ORDER_STATUS_READY"
	OrderStatusCompleted  OrderStatus = "ORDER_STATUS_COMPLETED"
	OrderStatusCancelled  OrderStatus = "ORDER_STATUS_CANCELLED"
)

// Terminal — терминальный статус: заказ больше не изменяется.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusPaid      PaymentStatus = "paid"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusCancelled PaymentStatus = "cancelled"
)

type Item struct {
	ID           int64           `gorm:"primaryKey;autoIncrement"`
	CompanyID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	Name         string          `gorm:"type:text;not null"`
	Description  string          `gorm:"type:text"`
	Unit         string          `gorm:"type:text;not null"` // kg, piece, ...
	Category     string          `gorm:"type:text"`
	Price        decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Quantity     int64           `gorm:"not null;default:0"` // CHECK quantity >= 0 в миграции
	ReorderPoint int64           `gorm:"not null;default:0"`
	ImageURL     string          `gorm:"type:text"`

	CreatedAt time.Time `gorm:"not null;default:now();index"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`
}

func (Item) TableName() string { return "items" }

// ItemStock — аддитивная запись прихода: Item.Quantity меняется вместе с ней.
type ItemStock struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	ItemID    int64     `gorm:"not null;index"`
	CompanyID uuid.UUID `gorm:"type:uuid;not null;index"`
	Quantity  int64     `gorm:"not null"`
	Notes     string    `gorm:"type:text"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
}

func (ItemStock) TableName() string { return "item_stocks" }

type Order struct {
	ID        uuid.UUID   `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	GuestID   uuid.UUID   `gorm:"type:uuid;not null;index"`
	CompanyID uuid.UUID   `gorm:"type:uuid;not null;index"`
	Status    OrderStatus `gorm:"type:text;not null;default:'ORDER_STATUS_NEW';index"`

	TotalAmount decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"`

	// Связь split-заказа с исходным. Только id, без обратных указателей.
	IsSplit         bool       `gorm:"not null;default:false"`
	OriginalOrderID *uuid.UUID `gorm:"type:uuid;index"`

	RoomOrTableNumber string        `gorm:"type:text"`
	Notes             string        `gorm:"type:text"`
	PaymentURL        string        `gorm:"type:text"`
	PaymentStatus     PaymentStatus `gorm:"type:text;not null;default:'pending'"`

	CreatedAt time.Time `gorm:"not null;default:now();index"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`

	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"` // каскад на позиции
}

func (Order) TableName() string { return "orders" }

// OrderItem — позиция заказа. Повторяющиеся item_id в одной корзине хранятся
// отдельными строками, поэтому UNIQUE(order_id, item_id) здесь нет.
type OrderItem struct {
	ID       uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	ItemID   int64           `gorm:"not null;index"`
	Quantity int64           `gorm:"not null"`                    // CHECK quantity > 0 в миграции
	Price    decimal.Decimal `gorm:"type:numeric(12,2);not null"` // снимок цены на момент заказа

	CreatedAt time.Time `gorm:"not null;default:now()"`
}

func (OrderItem) TableName() string { return "order_items" }

type SplitType string

const (
	SplitTypeAmount  SplitType = "amount"
	SplitTypePercent SplitType = "percent"
)

// OrderSplit — платёжная доля счёта. Неизменяема после записи:
// перевыпуск долей — это удаление и повторное создание.
type OrderSplit struct {
	ID        uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	Label     string          `gorm:"type:text;not null"`
	SplitType SplitType       `gorm:"type:text;not null"`
	Value     decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Allocated decimal.Decimal `gorm:"type:numeric(12,2);not null"`

	PaymentURL    string        `gorm:"type:text"`
	PaymentStatus PaymentStatus `gorm:"type:text;not null;default:'pending'"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
}

func (OrderSplit) TableName() string { return "order_splits" }

type MeetingRoom struct {
	ID          int64           `gorm:"primaryKey;autoIncrement"`
	CompanyID   uuid.UUID       `gorm:"type:uuid;not null;index;uniqueIndex:ux_meeting_rooms_company_name"`
	Name        string          `gorm:"type:text;not null;uniqueIndex:ux_meeting_rooms_company_name"`
	Capacity    int             `gorm:"not null"`
	Price       decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"`
	Amenities   []string        `gorm:"type:jsonb;serializer:json"`
	ImageURL    string          `gorm:"type:text"`
	IsAvailable bool            `gorm:"not null;default:true"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`
}

func (MeetingRoom) TableName() string { return "meeting_rooms" }

// SeatArrangement — схема рассадки компании. Привязывается к брони как
// выбранная раскладка; имя уникально в пределах компании и хранится
// нормализованным (lower, trim).
type SeatArrangement struct {
	ID          int64     `gorm:"primaryKey;autoIncrement"`
	CompanyID   uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:ux_seat_arrangements_company_name"`
	Name        string    `gorm:"type:text;not null;uniqueIndex:ux_seat_arrangements_company_name"`
	Description string    `gorm:"type:text"`
	ImageURL    string    `gorm:"type:text"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`
}

func (SeatArrangement) TableName() string { return "seat_arrangements" }

type BookingStatus string

const (
	BookingStatusPending    BookingStatus = "BOOKING_STATUS_PENDING"
	BookingStatusConfirmed  BookingStatus = "BOOKING_STATUS_CONFIRMED"
	BookingStatusInProgress BookingStatus = "BOOKING_STATUS_IN_PROGRESS"
	BookingStatusCompleted  BookingStatus = "BOOKING_STATUS_COMPLETED"
	BookingStatusCancelled  BookingStatus = "BOOKING_STATUS_CANCELLED"
)

// EventBooking хранит окно [arrival, end) раздельно датой и временем, как в
// исходной схеме. EndDate == nil означает событие в пределах одного дня.
type EventBooking struct {
	ID            uuid.UUID     `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	CompanyID     uuid.UUID     `gorm:"type:uuid;not null;index"`
	GuestID       *uuid.UUID    `gorm:"type:uuid;index"`
	MeetingRoomID     *int64        `gorm:"index"`
	SeatArrangementID *int64        `gorm:"index"`
	Status            BookingStatus `gorm:"type:text;not null;default:'BOOKING_STATUS_PENDING';index"`

	ArrivalDate time.Time  `gorm:"type:date;not null"`
	ArrivalTime string     `gorm:"type:time;not null"` // "HH:MM:SS"
	EndDate     *time.Time `gorm:"type:date"`
	EndTime     string     `gorm:"type:time;not null"`

	ContactName  string `gorm:"type:text"`
	ContactEmail string `gorm:"type:text"`
	ContactPhone string `gorm:"type:text"`
	StaffName    string `gorm:"type:text"`
	Notes        string `gorm:"type:text"`

	TotalAmount   decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"`
	PaymentURL    string          `gorm:"type:text"`
	PaymentStatus PaymentStatus   `gorm:"type:text;not null;default:'pending'"`

	CreatedAt time.Time `gorm:"not null;default:now();index"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`
}

func (EventBooking) TableName() string { return "event_bookings" }
