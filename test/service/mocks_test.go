package service_test

import (
	"context"
	"time"

	"backoffice-service/internal/models"
	"backoffice-service/internal/repository"
	"backoffice-service/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Моки для всех зависимостей сервисного слоя

// MockItemRepo
type MockItemRepo struct {
	CreateFunc           func(ctx context.Context, it *models.Item) error
	GetByIDFunc          func(ctx context.Context, id int64, companyID uuid.UUID) (*models.Item, error)
	GetByIDForUpdateFunc func(ctx context.Context, id int64, companyID uuid.UUID) (*models.Item, error)
	BatchGetByIDsFunc    func(ctx context.Context, companyID uuid.UUID, ids []int64) ([]models.Item, error)
	UpdateFieldsFunc     func(ctx context.Context, id int64, companyID uuid.UUID, fields map[string]any) error
	DeleteFunc           func(ctx context.Context, id int64, companyID uuid.UUID) (bool, error)
	ListFunc             func(ctx context.Context, f repository.ItemListFilter) ([]models.Item, int64, error)
	TryReserveFunc       func(ctx context.Context, id int64, qty int64) (bool, error)
	ReleaseFunc          func(ctx context.Context, id int64, qty int64) (bool, error)
}

func (m *MockItemRepo) Create(ctx context.Context, it *models.Item) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, it)
	}
	return nil
}

func (m *MockItemRepo) GetByID(ctx context.Context, id int64, companyID uuid.UUID) (*models.Item, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id, companyID)
	}
	return nil, nil
}

func (m *MockItemRepo) GetByIDForUpdate(ctx context.Context, id int64, companyID uuid.UUID) (*models.Item, error) {
	if m.GetByIDForUpdateFunc != nil {
		return m.GetByIDForUpdateFunc(ctx, id, companyID)
	}
	return nil, nil
}

func (m *MockItemRepo) BatchGetByIDs(ctx context.Context, companyID uuid.UUID, ids []int64) ([]models.Item, error) {
	if m.BatchGetByIDsFunc != nil {
		return m.BatchGetByIDsFunc(ctx, companyID, ids)
	}
	return nil, nil
}

func (m *MockItemRepo) UpdateFields(ctx context.Context, id int64, companyID uuid.UUID, fields map[string]any) error {
	if m.UpdateFieldsFunc != nil {
		return m.UpdateFieldsFunc(ctx, id, companyID, fields)
	}
	return nil
}

func (m *MockItemRepo) Delete(ctx context.Context, id int64, companyID uuid.UUID) (bool, error) {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id, companyID)
	}
	return false, nil
}

func (m *MockItemRepo) List(ctx context.Context, f repository.ItemListFilter) ([]models.Item, int64, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, f)
	}
	return nil, 0, nil
}

func (m *MockItemRepo) TryReserve(ctx context.Context, id int64, qty int64) (bool, error) {
	if m.TryReserveFunc != nil {
		return m.TryReserveFunc(ctx, id, qty)
	}
	return true, nil
}

func (m *MockItemRepo) Release(ctx context.Context, id int64, qty int64) (bool, error) {
	if m.ReleaseFunc != nil {
		return m.ReleaseFunc(ctx, id, qty)
	}
	return true, nil
}

// MockItemStockRepo
type MockItemStockRepo struct {
	CreateFunc                 func(ctx context.Context, s *models.ItemStock) error
	GetByIDFunc                func(ctx context.Context, id int64, companyID uuid.UUID) (*models.ItemStock, error)
	ListByItemFunc             func(ctx context.Context, itemID int64, companyID uuid.UUID) ([]models.ItemStock, error)
	UpdateQuantityAndNotesFunc func(ctx context.Context, id int64, quantity int64, notes string) error
}

func (m *MockItemStockRepo) Create(ctx context.Context, s *models.ItemStock) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, s)
	}
	return nil
}

func (m *MockItemStockRepo) GetByID(ctx context.Context, id int64, companyID uuid.UUID) (*models.ItemStock, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id, companyID)
	}
	return nil, nil
}

func (m *MockItemStockRepo) ListByItem(ctx context.Context, itemID int64, companyID uuid.UUID) ([]models.ItemStock, error) {
	if m.ListByItemFunc != nil {
		return m.ListByItemFunc(ctx, itemID, companyID)
	}
	return nil, nil
}

func (m *MockItemStockRepo) UpdateQuantityAndNotes(ctx context.Context, id int64, quantity int64, notes string) error {
	if m.UpdateQuantityAndNotesFunc != nil {
		return m.UpdateQuantityAndNotesFunc(ctx, id, quantity, notes)
	}
	return nil
}

// MockOrderRepo
type MockOrderRepo struct {
	CreateFunc           func(ctx context.Context, o *models.Order) error
	GetByIDFunc          func(ctx context.Context, id uuid.UUID) (*models.Order, error)
	GetByIDForUpdateFunc func(ctx context.Context, id uuid.UUID) (*models.Order, error)
	UpdateStatusFunc     func(ctx context.Context, id uuid.UUID, status models.OrderStatus) error
	UpdateTotalsFunc     func(ctx context.Context, id uuid.UUID, total decimal.Decimal) error
	UpdatePaymentFunc    func(ctx context.Context, id uuid.UUID, url string, status models.PaymentStatus) error
	ListFunc             func(ctx context.Context, f repository.OrderListFilter) ([]*models.Order, int64, error)
	DeleteFunc           func(ctx context.Context, id uuid.UUID) (bool, error)
}

func (m *MockOrderRepo) Create(ctx context.Context, o *models.Order) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, o)
	}
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

func (m *MockOrderRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockOrderRepo) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if m.GetByIDForUpdateFunc != nil {
		return m.GetByIDForUpdateFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockOrderRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus) error {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, id, status)
	}
	return nil
}

func (m *MockOrderRepo) UpdateTotals(ctx context.Context, id uuid.UUID, total decimal.Decimal) error {
	if m.UpdateTotalsFunc != nil {
		return m.UpdateTotalsFunc(ctx, id, total)
	}
	return nil
}

func (m *MockOrderRepo) UpdatePayment(ctx context.Context, id uuid.UUID, url string, status models.PaymentStatus) error {
	if m.UpdatePaymentFunc != nil {
		return m.UpdatePaymentFunc(ctx, id, url, status)
	}
	return nil
}

func (m *MockOrderRepo) List(ctx context.Context, f repository.OrderListFilter) ([]*models.Order, int64, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, f)
	}
	return nil, 0, nil
}

func (m *MockOrderRepo) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return false, nil
}


// MockOrderItemRepo
type MockOrderItemRepo struct {
	BulkCreateFunc      func(ctx context.Context, items []models.OrderItem) error
	GetByOrderIDFunc    func(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error)
	UpdateQuantityFunc  func(ctx context.Context, id uuid.UUID, quantity int64) error
	DeleteByIDFunc      func(ctx context.Context, id uuid.UUID) (int64, error)
	DeleteByOrderIDFunc func(ctx context.Context, orderID uuid.UUID) (int64, error)
	SumByOrderFunc      func(ctx context.Context, orderID uuid.UUID) (decimal.Decimal, error)
}

func (m *MockOrderItemRepo) BulkCreate(ctx context.Context, items []models.OrderItem) error {
	if m.BulkCreateFunc != nil {
		return m.BulkCreateFunc(ctx, items)
	}
	return nil
}

func (m *MockOrderItemRepo) GetByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error) {
	if m.GetByOrderIDFunc != nil {
		return m.GetByOrderIDFunc(ctx, orderID)
	}
	return nil, nil
}

func (m *MockOrderItemRepo) UpdateQuantity(ctx context.Context, id uuid.UUID, quantity int64) error {
	if m.UpdateQuantityFunc != nil {
		return m.UpdateQuantityFunc(ctx, id, quantity)
	}
	return nil
}

func (m *MockOrderItemRepo) DeleteByID(ctx context.Context, id uuid.UUID) (int64, error) {
	if m.DeleteByIDFunc != nil {
		return m.DeleteByIDFunc(ctx, id)
	}
	return 1, nil
}

func (m *MockOrderItemRepo) DeleteByOrderID(ctx context.Context, orderID uuid.UUID) (int64, error) {
	if m.DeleteByOrderIDFunc != nil {
		return m.DeleteByOrderIDFunc(ctx, orderID)
	}
	return 0, nil
}

func (m *MockOrderItemRepo) SumByOrder(ctx context.Context, orderID uuid.UUID) (decimal.Decimal, error) {
	if m.SumByOrderFunc != nil {
		return m.SumByOrderFunc(ctx, orderID)
	}
	return decimal.Zero, nil
}

// MockOrderSplitRepo
type MockOrderSplitRepo struct {
	BulkCreateFunc          func(ctx context.Context, splits []models.OrderSplit) error
	ListByOrderFunc         func(ctx context.Context, orderID uuid.UUID) ([]models.OrderSplit, error)
	DeleteByOrderFunc       func(ctx context.Context, orderID uuid.UUID) (int64, error)
	UpdatePaymentFunc       func(ctx context.Context, id uuid.UUID, url string, status models.PaymentStatus) error
	SumAllocatedByOrderFunc func(ctx context.Context, orderID uuid.UUID) (decimal.Decimal, error)
}

func (m *MockOrderSplitRepo) BulkCreate(ctx context.Context, splits []models.OrderSplit) error {
	if m.BulkCreateFunc != nil {
		return m.BulkCreateFunc(ctx, splits)
	}
	return nil
}

func (m *MockOrderSplitRepo) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.OrderSplit, error) {
	if m.ListByOrderFunc != nil {
		return m.ListByOrderFunc(ctx, orderID)
	}
	return nil, nil
}

func (m *MockOrderSplitRepo) DeleteByOrder(ctx context.Context, orderID uuid.UUID) (int64, error) {
	if m.DeleteByOrderFunc != nil {
		return m.DeleteByOrderFunc(ctx, orderID)
	}
	return 0, nil
}

func (m *MockOrderSplitRepo) UpdatePayment(ctx context.Context, id uuid.UUID, url string, status models.PaymentStatus) error {
	if m.UpdatePaymentFunc != nil {
		return m.UpdatePaymentFunc(ctx, id, url, status)
	}
	return nil
}

func (m *MockOrderSplitRepo) SumAllocatedByOrder(ctx context.Context, orderID uuid.UUID) (decimal.Decimal, error) {
	if m.SumAllocatedByOrderFunc != nil {
		return m.SumAllocatedByOrderFunc(ctx, orderID)
	}
	return decimal.Zero, nil
}

// MockMeetingRoomRepo
type MockMeetingRoomRepo struct {
	CreateFunc           func(ctx context.Context, room *models.MeetingRoom) error
	GetByIDFunc          func(ctx context.Context, id int64) (*models.MeetingRoom, error)
	GetByIDForUpdateFunc func(ctx context.Context, id int64) (*models.MeetingRoom, error)
	GetByNameFunc        func(ctx context.Context, companyID uuid.UUID, name string) (*models.MeetingRoom, error)
	ListByCompanyFunc    func(ctx context.Context, companyID uuid.UUID, onlyAvailable bool) ([]models.MeetingRoom, error)
	UpdateFieldsFunc     func(ctx context.Context, id int64, companyID uuid.UUID, fields map[string]any) error
	DeleteFunc           func(ctx context.Context, id int64, companyID uuid.UUID) (bool, error)
}

func (m *MockMeetingRoomRepo) Create(ctx context.Context, room *models.MeetingRoom) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, room)
	}
	return nil
}

func (m *MockMeetingRoomRepo) GetByID(ctx context.Context, id int64) (*models.MeetingRoom, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockMeetingRoomRepo) GetByIDForUpdate(ctx context.Context, id int64) (*models.MeetingRoom, error) {
	if m.GetByIDForUpdateFunc != nil {
		return m.GetByIDForUpdateFunc(ctx, id)
	}
	return m.GetByID(ctx, id)
}

func (m *MockMeetingRoomRepo) GetByName(ctx context.Context, companyID uuid.UUID, name string) (*models.MeetingRoom, error) {
	if m.GetByNameFunc != nil {
		return m.GetByNameFunc(ctx, companyID, name)
	}
	return nil, nil
}

func (m *MockMeetingRoomRepo) ListByCompany(ctx context.Context, companyID uuid.UUID, onlyAvailable bool) ([]models.MeetingRoom, error) {
	if m.ListByCompanyFunc != nil {
		return m.ListByCompanyFunc(ctx, companyID, onlyAvailable)
	}
	return nil, nil
}

func (m *MockMeetingRoomRepo) UpdateFields(ctx context.Context, id int64, companyID uuid.UUID, fields map[string]any) error {
	if m.UpdateFieldsFunc != nil {
		return m.UpdateFieldsFunc(ctx, id, companyID, fields)
	}
	return nil
}

func (m *MockMeetingRoomRepo) Delete(ctx context.Context, id int64, companyID uuid.UUID) (bool, error) {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id, companyID)
	}
	return false, nil
}

// MockSeatArrangementRepo
type MockSeatArrangementRepo struct {
	CreateFunc        func(ctx context.Context, arr *models.SeatArrangement) error
	GetByIDFunc       func(ctx context.Context, id int64) (*models.SeatArrangement, error)
	GetByNameFunc     func(ctx context.Context, companyID uuid.UUID, name string) (*models.SeatArrangement, error)
	ListByCompanyFunc func(ctx context.Context, companyID uuid.UUID) ([]models.SeatArrangement, error)
	DeleteFunc        func(ctx context.Context, id int64, companyID uuid.UUID) (bool, error)
}

func (m *MockSeatArrangementRepo) Create(ctx context.Context, arr *models.SeatArrangement) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, arr)
	}
	if arr.ID == 0 {
		arr.ID = 1
	}
	return nil
}

func (m *MockSeatArrangementRepo) GetByID(ctx context.Context, id int64) (*models.SeatArrangement, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockSeatArrangementRepo) GetByName(ctx context.Context, companyID uuid.UUID, name string) (*models.SeatArrangement, error) {
	if m.GetByNameFunc != nil {
		return m.GetByNameFunc(ctx, companyID, name)
	}
	return nil, nil
}

func (m *MockSeatArrangementRepo) ListByCompany(ctx context.Context, companyID uuid.UUID) ([]models.SeatArrangement, error) {
	if m.ListByCompanyFunc != nil {
		return m.ListByCompanyFunc(ctx, companyID)
	}
	return nil, nil
}

func (m *MockSeatArrangementRepo) Delete(ctx context.Context, id int64, companyID uuid.UUID) (bool, error) {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id, companyID)
	}
	return false, nil
}

// MockBookingRepo
type MockBookingRepo struct {
	CreateFunc           func(ctx context.Context, b *models.EventBooking) error
	GetByIDFunc          func(ctx context.Context, id uuid.UUID) (*models.EventBooking, error)
	GetByIDForUpdateFunc func(ctx context.Context, id uuid.UUID) (*models.EventBooking, error)
	ListActiveByRoomFunc func(ctx context.Context, roomID int64, excludeID *uuid.UUID, lock bool) ([]models.EventBooking, error)
	UpdateFieldsFunc     func(ctx context.Context, id uuid.UUID, fields map[string]any) error
	UpdateStatusFunc     func(ctx context.Context, id uuid.UUID, status models.BookingStatus) error
	ListFunc             func(ctx context.Context, f repository.BookingListFilter) ([]*models.EventBooking, int64, error)
}

func (m *MockBookingRepo) Create(ctx context.Context, b *models.EventBooking) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, b)
	}
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

func (m *MockBookingRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.EventBooking, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockBookingRepo) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.EventBooking, error) {
	if m.GetByIDForUpdateFunc != nil {
		return m.GetByIDForUpdateFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockBookingRepo) ListActiveByRoom(ctx context.Context, roomID int64, excludeID *uuid.UUID, lock bool) ([]models.EventBooking, error) {
	if m.ListActiveByRoomFunc != nil {
		return m.ListActiveByRoomFunc(ctx, roomID, excludeID, lock)
	}
	return nil, nil
}

func (m *MockBookingRepo) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	if m.UpdateFieldsFunc != nil {
		return m.UpdateFieldsFunc(ctx, id, fields)
	}
	return nil
}

func (m *MockBookingRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status models.BookingStatus) error {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, id, status)
	}
	return nil
}

func (m *MockBookingRepo) List(ctx context.Context, f repository.BookingListFilter) ([]*models.EventBooking, int64, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, f)
	}
	return nil, 0, nil
}

// newMockRepository собирает агрегат без подключения: WithTx выполняет fn
// на этом же наборе.
func newMockRepository() (*repository.Repository, *MockItemRepo, *MockOrderRepo, *MockOrderItemRepo, *MockOrderSplitRepo) {
	items := &MockItemRepo{}
	orders := &MockOrderRepo{}
	orderItems := &MockOrderItemRepo{}
	orderSplits := &MockOrderSplitRepo{}
	repo := &repository.Repository{
		Items:        items,
		ItemStocks:   &MockItemStockRepo{},
		Orders:       orders,
		OrderItems:   orderItems,
		OrderSplits:  orderSplits,
		Rooms:        &MockMeetingRoomRepo{},
		Arrangements: &MockSeatArrangementRepo{},
		Bookings:     &MockBookingRepo{},
	}
	return repo, items, orders, orderItems, orderSplits
}

// MockPaymentProvider
type MockPaymentProvider struct {
	GetPaymentLinkFunc func(ctx context.Context, companyID, referenceID uuid.UUID, amount decimal.Decimal) (string, error)
}

func (m *MockPaymentProvider) GetPaymentLink(ctx context.Context, companyID, referenceID uuid.UUID, amount decimal.Decimal) (string, error) {
	if m.GetPaymentLinkFunc != nil {
		return m.GetPaymentLinkFunc(ctx, companyID, referenceID, amount)
	}
	return "https://pay.example/" + referenceID.String(), nil
}

// MockViewCache — кэш в памяти для проверки инвалидации.
type MockViewCache struct {
	Data    map[string]string
	Deleted []string
}

func NewMockViewCache() *MockViewCache {
	return &MockViewCache{Data: map[string]string{}}
}

func (m *MockViewCache) Get(ctx context.Context, key string) (string, error) {
	v, ok := m.Data[key]
	if !ok {
		return "", service.ErrCacheMiss
	}
	return v, nil
}

func (m *MockViewCache) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	m.Data[key] = value
	return nil
}

func (m *MockViewCache) Delete(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.Data, k)
		m.Deleted = append(m.Deleted, k)
	}
	return nil
}

// MockEventBus
type MockEventBus struct {
	OrderCreated  []service.OrderCreatedEvent
	StatusChanged []service.OrderStatusChangedEvent
	Bookings      []service.BookingCreatedEvent
}

func (m *MockEventBus) PublishOrderCreated(ctx context.Context, e service.OrderCreatedEvent) error {
	m.OrderCreated = append(m.OrderCreated, e)
	return nil
}

func (m *MockEventBus) PublishOrderStatusChanged(ctx context.Context, e service.OrderStatusChangedEvent) error {
	m.StatusChanged = append(m.StatusChanged, e)
	return nil
}

func (m *MockEventBus) PublishBookingCreated(ctx context.Context, e service.BookingCreatedEvent) error {
	m.Bookings = append(m.Bookings, e)
	return nil
}

func guestContext(guestID, companyID uuid.UUID) context.Context {
	ctx := service.WithUserID(context.Background(), guestID)
	ctx = service.WithUserType(ctx, service.UserTypeGuest)
	return service.WithCompanyID(ctx, companyID)
}

func companyContext(companyID uuid.UUID) context.Context {
	ctx := service.WithUserID(context.Background(), companyID)
	return service.WithUserType(ctx, service.UserTypeCompany)
}
