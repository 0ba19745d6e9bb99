package service

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	ErrOrderNotFound       = errors.New("order not found")
	ErrItemNotFound        = errors.New("item not found")
	ErrStockNotFound       = errors.New("stock entry not found")
	ErrRoomNotFound        = errors.New("meeting room not found")
	ErrArrangementNotFound = errors.New("seat arrangement not found")
	ErrBookingNotFound     = errors.New("booking not found")

	ErrEmptyOrder        = errors.New("order must contain at least one item")
	ErrQuantityInvalid   = errors.New("quantity must be > 0")
	ErrInsufficientStock = errors.New("insufficient stock")

	ErrItemNotInOrder       = errors.New("item not in order")
	ErrInsufficientQuantity = errors.New("requested quantity exceeds order line")
	ErrNotSplitOrder        = errors.New("order is not a split order")
	ErrOrderTerminal        = errors.New("order is completed or cancelled")
	ErrInvalidTransition    = errors.New("invalid order status transition")

	ErrInvalidSplitType = errors.New("split type must be amount or percent")
	ErrSplitValue       = errors.New("split value must be > 0")
	ErrSplitMismatch    = errors.New("splits do not reconcile with order total")
	ErrSplitsExist      = errors.New("order already has bill splits")

	ErrInvalidWindow        = errors.New("end time must be after start time")
	ErrRoomUnavailable      = errors.New("meeting room is not available for the selected time slot")
	ErrRoomNameTaken        = errors.New("room with this name already exists for the company")
	ErrArrangementNameTaken = errors.New("seat arrangement with this name already exists for the company")
	ErrAlreadyCancelled     = errors.New("booking is already cancelled")
)

// InsufficientStockError называет товар, которого не хватило.
// errors.Is(err, ErrInsufficientStock) остаётся верным.
type InsufficientStockError struct {
	ItemID    int64
	Requested int64
	Available int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for item %d: requested %d, available %d",
		e.ItemID, e.Requested, e.Available)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// SplitMismatchError несёт точные суммы расхождения.
type SplitMismatchError struct {
	Allocated decimal.Decimal
	Total     decimal.Decimal
	Remainder decimal.Decimal
}

func (e *SplitMismatchError) Error() string {
	return fmt.Sprintf("splits allocate %s against order total %s (remainder %s)",
		e.Allocated.String(), e.Total.String(), e.Remainder.String())
}

func (e *SplitMismatchError) Unwrap() error { return ErrSplitMismatch }
