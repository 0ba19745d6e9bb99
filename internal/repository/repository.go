package repository

import "gorm.io/gorm"

type Repository struct {
	DB           *gorm.DB
	Items        ItemRepo
	ItemStocks   ItemStockRepo
	Orders       OrderRepo
	OrderItems   OrderItemRepo
	OrderSplits  OrderSplitRepo
	Rooms        MeetingRoomRepo
	Arrangements SeatArrangementRepo
	Bookings     BookingRepo
}

func buildRepository(db *gorm.DB) *Repository {
	return &Repository{
		DB:           db,
		Items:        NewItemRepo(db),
		ItemStocks:   NewItemStockRepo(db),
		Orders:       NewOrderRepo(db),
		OrderItems:   NewOrderItemRepo(db),
		OrderSplits:  NewOrderSplitRepo(db),
		Rooms:        NewMeetingRoomRepo(db),
		Arrangements: NewSeatArrangementRepo(db),
		Bookings:     NewBookingRepo(db),
	}
}

func New(db *gorm.DB) *Repository { return buildRepository(db) }

// WithTx выполняет fn внутри одной транзакции. Все check-then-act
// последовательности (списание остатков, перенос позиций, проверка окна)
// обязаны выполняться здесь, с блокировкой затронутых строк.
func (r *Repository) WithTx(fn func(tx *Repository) error) error {
	if r.DB == nil {
		// Набор собран вручную без подключения — fn работает на нём же.
		return fn(r)
	}
	return r.DB.Transaction(func(tx *gorm.DB) error {
		return fn(buildRepository(tx))
	})
}
