package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"backoffice-service/internal/models"
	"backoffice-service/internal/service"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func TestAddStock_IncrementsItemQuantity(t *testing.T) {
	repo, items, _, _, _ := newMockRepository()
	stocks := &MockItemStockRepo{}
	repo.ItemStocks = stocks

	companyID := uuid.New()

	items.GetByIDForUpdateFunc = func(ctx context.Context, id int64, cid uuid.UUID) (*models.Item, error) {
		return &models.Item{ID: id, CompanyID: cid, Name: "Coffee", Quantity: 5}, nil
	}

	var createdEntry *models.ItemStock
	stocks.CreateFunc = func(ctx context.Context, s *models.ItemStock) error {
		s.ID = 1
		createdEntry = s
		return nil
	}

	released := int64(0)
	items.ReleaseFunc = func(ctx context.Context, id int64, qty int64) (bool, error) {
		released += qty
		return true, nil
	}

	svc := service.NewItemService(repo, nil, zap.NewNop(), time.Minute)

	entry, err := svc.AddStock(companyContext(companyID), service.AddStockInput{ItemID: 3, Quantity: 7, Notes: "delivery"})
	if err != nil {
		t.Fatalf("AddStock: %v", err)
	}
	if createdEntry == nil || entry.Quantity != 7 || entry.CompanyID != companyID {
		t.Fatalf("stock entry mismatch: %+v", entry)
	}
	if released != 7 {
		t.Fatalf("item quantity increment expected 7 got %d", released)
	}
}

func TestAddStock_Validation(t *testing.T) {
	repo, _, _, _, _ := newMockRepository()
	svc := service.NewItemService(repo, nil, zap.NewNop(), time.Minute)
	ctx := companyContext(uuid.New())

	if _, err := svc.AddStock(ctx, service.AddStockInput{ItemID: 1, Quantity: 0}); !errors.Is(err, service.ErrQuantityInvalid) {
		t.Fatalf("expected ErrQuantityInvalid got %v", err)
	}

	// Товар не найден — запись прихода не создаётся.
	if _, err := svc.AddStock(ctx, service.AddStockInput{ItemID: 1, Quantity: 2}); !errors.Is(err, service.ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound got %v", err)
	}
}

func TestUpdateStock_ShrinkCannotGoNegative(t *testing.T) {
	repo, items, _, _, _ := newMockRepository()
	stocks := &MockItemStockRepo{}
	repo.ItemStocks = stocks

	companyID := uuid.New()

	stocks.GetByIDFunc = func(ctx context.Context, id int64, cid uuid.UUID) (*models.ItemStock, error) {
		return &models.ItemStock{ID: id, ItemID: 3, CompanyID: cid, Quantity: 10}, nil
	}
	items.GetByIDForUpdateFunc = func(ctx context.Context, id int64, cid uuid.UUID) (*models.Item, error) {
		// Из прихода на 10 осталось только 2: урезать приход до 5 нельзя.
		return &models.Item{ID: id, CompanyID: cid, Quantity: 2}, nil
	}
	items.TryReserveFunc = func(ctx context.Context, id int64, qty int64) (bool, error) {
		return false, nil
	}

	svc := service.NewItemService(repo, nil, zap.NewNop(), time.Minute)

	_, err := svc.UpdateStock(companyContext(companyID), 1, 5, "recount")
	if !errors.Is(err, service.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock got %v", err)
	}
}

func TestUpdateStock_GrowAddsDelta(t *testing.T) {
	repo, items, _, _, _ := newMockRepository()
	stocks := &MockItemStockRepo{}
	repo.ItemStocks = stocks

	companyID := uuid.New()

	stocks.GetByIDFunc = func(ctx context.Context, id int64, cid uuid.UUID) (*models.ItemStock, error) {
		return &models.ItemStock{ID: id, ItemID: 3, CompanyID: cid, Quantity: 10}, nil
	}
	items.GetByIDForUpdateFunc = func(ctx context.Context, id int64, cid uuid.UUID) (*models.Item, error) {
		return &models.Item{ID: id, CompanyID: cid, Quantity: 10}, nil
	}

	released := int64(0)
	items.ReleaseFunc = func(ctx context.Context, id int64, qty int64) (bool, error) {
		released += qty
		return true, nil
	}

	var savedQty int64
	stocks.UpdateQuantityAndNotesFunc = func(ctx context.Context, id int64, q int64, notes string) error {
		savedQty = q
		return nil
	}

	svc := service.NewItemService(repo, nil, zap.NewNop(), time.Minute)

	entry, err := svc.UpdateStock(companyContext(companyID), 1, 13, "recount")
	if err != nil {
		t.Fatalf("UpdateStock: %v", err)
	}
	if released != 3 || savedQty != 13 || entry.Quantity != 13 {
		t.Fatalf("delta mismatch: released=%d saved=%d entry=%+v", released, savedQty, entry)
	}
}
