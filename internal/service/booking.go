package service

import (
	"context"
	"time"

	"backoffice-service/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CreateRoomInput struct {
	Name        string
	Capacity    int
	Price       decimal.Decimal
	Amenities   []string
	ImageURL    string
	IsAvailable bool
}

// UpdateRoomInput — частичное обновление: nil-поле не трогается.
type UpdateRoomInput struct {
	Name        *string
	Capacity    *int
	Price       *decimal.Decimal
	Amenities   *[]string
	ImageURL    *string
	IsAvailable *bool
}

type CreateArrangementInput struct {
	Name        string
	Description string
	ImageURL    string
}

// BookingWindow — запрошенное окно брони. EndDate == nil означает событие
// в пределах ArrivalDate.
type BookingWindow struct {
	ArrivalDate time.Time
	ArrivalTime string // "HH:MM:SS"
	EndDate     *time.Time
	EndTime     string
}

type CreateBookingInput struct {
	MeetingRoomID     *int64
	SeatArrangementID *int64
	Window            BookingWindow

	ContactName  string
	ContactEmail string
	ContactPhone string
	StaffName    string
	Notes        string

	TotalAmount decimal.Decimal
}

// UpdateBookingInput — частичное обновление брони. Любое изменение окна или
// комнаты перепроверяет доступность, исключая саму бронь из сравнения.
type UpdateBookingInput struct {
	MeetingRoomID *int64
	ClearRoom     bool

	SeatArrangementID *int64
	ClearArrangement  bool

	ArrivalDate *time.Time
	ArrivalTime *string
	EndDate     *time.Time
	ClearEnd    bool
	EndTime     *string

	ContactName  *string
	ContactEmail *string
	ContactPhone *string
	StaffName    *string
	Notes        *string

	TotalAmount *decimal.Decimal
	Status      *models.BookingStatus
}

type ListBookingsFilter struct {
	Status *models.BookingStatus
	Limit  int
	Offset int
}

type BookingService interface {
	CreateRoom(ctx context.Context, in CreateRoomInput) (*models.MeetingRoom, error)
	GetRoom(ctx context.Context, id int64) (*models.MeetingRoom, error)
	ListRooms(ctx context.Context, onlyAvailable bool) ([]models.MeetingRoom, error)
	UpdateRoom(ctx context.Context, id int64, in UpdateRoomInput) (*models.MeetingRoom, error)
	DeleteRoom(ctx context.Context, id int64) error

	// Схемы рассадки неизменяемы после создания: правка — удаление и
	// повторное создание, как и у платёжных долей.
	CreateArrangement(ctx context.Context, in CreateArrangementInput) (*models.SeatArrangement, error)
	GetArrangement(ctx context.Context, id int64) (*models.SeatArrangement, error)
	ListArrangements(ctx context.Context) ([]models.SeatArrangement, error)
	DeleteArrangement(ctx context.Context, id int64) error

	// IsRoomAvailable проверяет пересечение окна с активными бронями комнаты.
	// excludeBookingID исключает конкретную бронь (проверка при обновлении).
	IsRoomAvailable(ctx context.Context, roomID int64, window BookingWindow, excludeBookingID *uuid.UUID) (bool, error)

	CreateBooking(ctx context.Context, in CreateBookingInput) (*models.EventBooking, error)
	GetBooking(ctx context.Context, id uuid.UUID) (*models.EventBooking, error)
	ListBookings(ctx context.Context, f ListBookingsFilter) ([]*models.EventBooking, int64, error)
	UpdateBooking(ctx context.Context, id uuid.UUID, in UpdateBookingInput) (*models.EventBooking, error)
	CancelBooking(ctx context.Context, id uuid.UUID) (*models.EventBooking, error)
}
