package service

import (
	"context"

	"backoffice-service/internal/models"

	"github.com/shopspring/decimal"
)

type CreateItemInput struct {
	Name         string
	Description  string
	Unit         string
	Category     string
	Price        decimal.Decimal
	ReorderPoint int64
	ImageURL     string
}

// UpdateItemInput — частичное обновление карточки товара. Количество здесь
// не меняется: остаток двигают только приходы и заказы.
type UpdateItemInput struct {
	Name         *string
	Description  *string
	Unit         *string
	Category     *string
	Price        *decimal.Decimal
	ReorderPoint *int64
	ImageURL     *string
}

type ListItemsFilter struct {
	Category *string
	Limit    int
	Offset   int
}

type AddStockInput struct {
	ItemID   int64
	Quantity int64
	Notes    string
}

type ItemService interface {
	CreateItem(ctx context.Context, in CreateItemInput) (*models.Item, error)
	GetItem(ctx context.Context, id int64) (*models.Item, error)
	ListItems(ctx context.Context, f ListItemsFilter) ([]models.Item, int64, error)
	UpdateItem(ctx context.Context, id int64, in UpdateItemInput) (*models.Item, error)
	DeleteItem(ctx context.Context, id int64) error

	// AddStock регистрирует приход и увеличивает остаток товара в одной
	// транзакции.
	AddStock(ctx context.Context, in AddStockInput) (*models.ItemStock, error)
	// UpdateStock корректирует запись прихода, перенося разницу на остаток.
	UpdateStock(ctx context.Context, stockID int64, quantity int64, notes string) (*models.ItemStock, error)
	ListStock(ctx context.Context, itemID int64) ([]models.ItemStock, error)
}
