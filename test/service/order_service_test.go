package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"backoffice-service/internal/models"
	"backoffice-service/internal/repository"
	"backoffice-service/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestCreateOrder_SnapshotsAndTotal(t *testing.T) {
	repo, items, orders, orderItems, _ := newMockRepository()

	guestID := uuid.New()
	companyID := uuid.New()

	items.BatchGetByIDsFunc = func(ctx context.Context, cid uuid.UUID, ids []int64) ([]models.Item, error) {
		return []models.Item{
			{ID: 1, CompanyID: companyID, Price: dec("2.50"), Quantity: 10},
			{ID: 2, CompanyID: companyID, Price: dec("4.00"), Quantity: 5},
		}, nil
	}

	var reserved []int64
	items.TryReserveFunc = func(ctx context.Context, id int64, qty int64) (bool, error) {
		reserved = append(reserved, qty)
		return true, nil
	}

	orders.CreateFunc = func(ctx context.Context, o *models.Order) error {
		o.ID = uuid.New()
		return nil
	}

	var createdLines []models.OrderItem
	orderItems.BulkCreateFunc = func(ctx context.Context, lines []models.OrderItem) error {
		createdLines = lines
		return nil
	}

	svc := service.NewOrderService(repo, nil, nil, nil, zap.NewNop(), time.Minute)

	// Повторная строка того же товара не сливается с первой.
	order, err := svc.CreateOrder(guestContext(guestID, companyID), service.CreateOrderInput{
		CompanyID: companyID,
		Items: []service.CartLine{
			{ItemID: 1, Quantity: 2},
			{ItemID: 2, Quantity: 1},
			{ItemID: 1, Quantity: 1},
		},
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	if !order.TotalAmount.Equal(dec("11.50")) {
		t.Fatalf("total expected 11.50 got %s", order.TotalAmount)
	}
	if len(createdLines) != 3 {
		t.Fatalf("expected 3 order lines got %d", len(createdLines))
	}
	if !createdLines[2].Price.Equal(dec("2.50")) {
		t.Fatalf("price snapshot expected 2.50 got %s", createdLines[2].Price)
	}
	if len(reserved) != 3 {
		t.Fatalf("expected 3 reserve calls got %d", len(reserved))
	}
	if order.GuestID != guestID || order.Status != models.OrderStatusNew {
		t.Fatalf("order header mismatch: %+v", order)
	}
}

func TestCreateOrder_InsufficientStock(t *testing.T) {
	repo, items, _, _, _ := newMockRepository()

	companyID := uuid.New()
	items.BatchGetByIDsFunc = func(ctx context.Context, cid uuid.UUID, ids []int64) ([]models.Item, error) {
		return []models.Item{
			{ID: 1, CompanyID: companyID, Price: dec("1.00"), Quantity: 10},
			{ID: 2, CompanyID: companyID, Price: dec("1.00"), Quantity: 1},
		}, nil
	}
	items.TryReserveFunc = func(ctx context.Context, id int64, qty int64) (bool, error) {
		return id != 2, nil // второго товара не хватает
	}

	svc := service.NewOrderService(repo, nil, nil, nil, zap.NewNop(), time.Minute)

	_, err := svc.CreateOrder(guestContext(uuid.New(), companyID), service.CreateOrderInput{
		CompanyID: companyID,
		Items: []service.CartLine{
			{ItemID: 1, Quantity: 3},
			{ItemID: 2, Quantity: 2},
		},
	})
	if !errors.Is(err, service.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock got %v", err)
	}

	var stockErr *service.InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("expected InsufficientStockError got %T", err)
	}
	if stockErr.ItemID != 2 || stockErr.Requested != 2 || stockErr.Available != 1 {
		t.Fatalf("stock error details mismatch: %+v", stockErr)
	}
}

func TestCreateOrder_Validation(t *testing.T) {
	repo, _, _, _, _ := newMockRepository()
	svc := service.NewOrderService(repo, nil, nil, nil, zap.NewNop(), time.Minute)

	ctx := guestContext(uuid.New(), uuid.New())

	if _, err := svc.CreateOrder(ctx, service.CreateOrderInput{CompanyID: uuid.New()}); !errors.Is(err, service.ErrEmptyOrder) {
		t.Fatalf("expected ErrEmptyOrder got %v", err)
	}

	_, err := svc.CreateOrder(ctx, service.CreateOrderInput{
		CompanyID: uuid.New(),
		Items:     []service.CartLine{{ItemID: 1, Quantity: 0}},
	})
	if !errors.Is(err, service.ErrQuantityInvalid) {
		t.Fatalf("expected ErrQuantityInvalid got %v", err)
	}

	if _, err := svc.CreateOrder(context.Background(), service.CreateOrderInput{
		CompanyID: uuid.New(),
		Items:     []service.CartLine{{ItemID: 1, Quantity: 1}},
	}); !errors.Is(err, service.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized got %v", err)
	}
}

func TestUpdateOrderStatus_Transitions(t *testing.T) {
	repo, _, orders, _, _ := newMockRepository()

	guestID := uuid.New()
	companyID := uuid.New()
	orderID := uuid.New()
	status := models.OrderStatusNew

	orders.GetByIDFunc = func(ctx context.Context, id uuid.UUID) (*models.Order, error) {
		return &models.Order{ID: orderID, GuestID: guestID, CompanyID: companyID, Status: status}, nil
	}

	bus := &MockEventBus{}
	svc := service.NewOrderService(repo, nil, nil, bus, zap.NewNop(), time.Minute)
	ctx := guestContext(guestID, companyID)

	// Пропуск шага запрещён
	if _, err := svc.UpdateOrderStatus(ctx, orderID, models.OrderStatusReady); !errors.Is(err, service.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition got %v", err)
	}

	ord, err := svc.UpdateOrderStatus(ctx, orderID, models.OrderStatusInProgress)
	if err != nil {
		t.Fatalf("UpdateOrderStatus: %v", err)
	}
	if ord.Status != models.OrderStatusInProgress {
		t.Fatalf("status expected IN_PROGRESS got %s", ord.Status)
	}
	if len(bus.StatusChanged) != 1 || bus.StatusChanged[0].NewStatus != models.OrderStatusInProgress {
		t.Fatalf("status event mismatch: %+v", bus.StatusChanged)
	}

	status = models.OrderStatusCompleted
	if _, err := svc.UpdateOrderStatus(ctx, orderID, models.OrderStatusNew); !errors.Is(err, service.ErrOrderTerminal) {
		t.Fatalf("expected ErrOrderTerminal got %v", err)
	}
}

func TestCancelOrder_RestoresStock(t *testing.T) {
	repo, items, orders, _, _ := newMockRepository()

	guestID := uuid.New()
	companyID := uuid.New()
	orderID := uuid.New()

	ord := &models.Order{
		ID:        orderID,
		GuestID:   guestID,
		CompanyID: companyID,
		Status:    models.OrderStatusNew,
		Items: []models.OrderItem{
			{ItemID: 1, Quantity: 2, Price: dec("2.00")},
			{ItemID: 2, Quantity: 1, Price: dec("3.00")},
		},
	}
	orders.GetByIDFunc = func(ctx context.Context, id uuid.UUID) (*models.Order, error) {
		return ord, nil
	}
	orders.GetByIDForUpdateFunc = func(ctx context.Context, id uuid.UUID) (*models.Order, error) {
		return ord, nil
	}

	released := map[int64]int64{}
	items.ReleaseFunc = func(ctx context.Context, id int64, qty int64) (bool, error) {
		released[id] += qty
		return true, nil
	}

	var newStatus models.OrderStatus
	orders.UpdateStatusFunc = func(ctx context.Context, id uuid.UUID, st models.OrderStatus) error {
		newStatus = st
		return nil
	}

	svc := service.NewOrderService(repo, nil, nil, nil, zap.NewNop(), time.Minute)

	got, err := svc.CancelOrder(guestContext(guestID, companyID), orderID)
	if err != nil {
		t.Fatalf("CancelOrder: %v", err)
	}
	if got.Status != models.OrderStatusCancelled || newStatus != models.OrderStatusCancelled {
		t.Fatalf("expected CANCELLED got %s / %s", got.Status, newStatus)
	}
	if released[1] != 2 || released[2] != 1 {
		t.Fatalf("released quantities mismatch: %+v", released)
	}
}

func TestListOrders_CacheReadThrough(t *testing.T) {
	repo, _, orders, _, _ := newMockRepository()

	guestID := uuid.New()
	companyID := uuid.New()

	listCalls := 0
	orders.ListFunc = func(ctx context.Context, f repository.OrderListFilter) ([]*models.Order, int64, error) {
		listCalls++
		return []*models.Order{{ID: uuid.New(), GuestID: guestID, CompanyID: companyID}}, 1, nil
	}

	cache := NewMockViewCache()
	svc := service.NewOrderService(repo, cache, nil, nil, zap.NewNop(), time.Minute)
	ctx := guestContext(guestID, companyID)

	if _, total, err := svc.ListOrders(ctx, service.ListOrdersFilter{}); err != nil || total != 1 {
		t.Fatalf("first ListOrders: total=%d err=%v", total, err)
	}
	if _, _, err := svc.ListOrders(ctx, service.ListOrdersFilter{}); err != nil {
		t.Fatalf("second ListOrders: %v", err)
	}
	if listCalls != 1 {
		t.Fatalf("expected 1 repo call, cache should serve the second, got %d", listCalls)
	}

	// Фильтрованные и постраничные выборки идут мимо кэша.
	st := models.OrderStatusNew
	if _, _, err := svc.ListOrders(ctx, service.ListOrdersFilter{Status: &st}); err != nil {
		t.Fatalf("filtered ListOrders: %v", err)
	}
	if listCalls != 2 {
		t.Fatalf("filtered list must bypass cache, repo calls = %d", listCalls)
	}
}

func TestGetOrder_CacheReadThrough(t *testing.T) {
	repo, _, orders, _, _ := newMockRepository()

	guestID := uuid.New()
	companyID := uuid.New()
	orderID := uuid.New()

	getCalls := 0
	orders.GetByIDFunc = func(ctx context.Context, id uuid.UUID) (*models.Order, error) {
		getCalls++
		return &models.Order{ID: orderID, GuestID: guestID, CompanyID: companyID, TotalAmount: dec("5.00")}, nil
	}

	cache := NewMockViewCache()
	svc := service.NewOrderService(repo, cache, nil, nil, zap.NewNop(), time.Minute)
	ctx := guestContext(guestID, companyID)

	if _, err := svc.GetOrder(ctx, orderID); err != nil {
		t.Fatalf("first GetOrder: %v", err)
	}
	got, err := svc.GetOrder(ctx, orderID)
	if err != nil {
		t.Fatalf("second GetOrder: %v", err)
	}
	if getCalls != 1 {
		t.Fatalf("expected 1 repo call, cache should serve the second, got %d", getCalls)
	}
	if got.ID != orderID || !got.TotalAmount.Equal(dec("5.00")) {
		t.Fatalf("cached order mismatch: %+v", got)
	}

	// Чужой гость не должен пройти по кэшированной копии.
	if _, err := svc.GetOrder(guestContext(uuid.New(), companyID), orderID); !errors.Is(err, service.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for foreign guest got %v", err)
	}
}

func TestCreateOrder_InsufficientStock_ReportsFreshQuantity(t *testing.T) {
	repo, items, _, _, _ := newMockRepository()

	companyID := uuid.New()
	// Пакетное чтение видит старый остаток, к моменту отказа он уже меньше.
	items.BatchGetByIDsFunc = func(ctx context.Context, cid uuid.UUID, ids []int64) ([]models.Item, error) {
		return []models.Item{{ID: 1, CompanyID: companyID, Price: dec("1.00"), Quantity: 5}}, nil
	}
	items.TryReserveFunc = func(ctx context.Context, id int64, qty int64) (bool, error) {
		return false, nil
	}
	items.GetByIDFunc = func(ctx context.Context, id int64, cid uuid.UUID) (*models.Item, error) {
		return &models.Item{ID: 1, CompanyID: companyID, Price: dec("1.00"), Quantity: 1}, nil
	}

	svc := service.NewOrderService(repo, nil, nil, nil, zap.NewNop(), time.Minute)

	_, err := svc.CreateOrder(guestContext(uuid.New(), companyID), service.CreateOrderInput{
		CompanyID: companyID,
		Items:     []service.CartLine{{ItemID: 1, Quantity: 3}},
	})
	var stockErr *service.InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("expected InsufficientStockError got %v", err)
	}
	if stockErr.Available != 1 {
		t.Fatalf("error must carry the re-read quantity, expected 1 got %d", stockErr.Available)
	}
}
