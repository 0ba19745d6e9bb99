package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"backoffice-service/internal/models"
	"backoffice-service/internal/repository"

	"go.uber.org/zap"
)

type itemService struct {
	repo     *repository.Repository
	cache    ViewCache
	log      *zap.Logger
	cacheTTL time.Duration
}

func NewItemService(repo *repository.Repository, cache ViewCache, log *zap.Logger, cacheTTL time.Duration) ItemService {
	return &itemService{repo: repo, cache: cache, log: log, cacheTTL: cacheTTL}
}

func (s *itemService) CreateItem(ctx context.Context, in CreateItemInput) (*models.Item, error) {
	companyID, err := companyScope(ctx)
	if err != nil {
		return nil, err
	}

	item := &models.Item{
		CompanyID:    companyID,
		Name:         in.Name,
		Description:  in.Description,
		Unit:         in.Unit,
		Category:     in.Category,
		Price:        in.Price,
		ReorderPoint: in.ReorderPoint,
		ImageURL:     in.ImageURL,
	}
	if err := s.repo.Items.Create(ctx, item); err != nil {
		return nil, err
	}

	invalidate(ctx, s.cache, s.log, cacheKeyCompanyItems(companyID))
	return item, nil
}

func (s *itemService) GetItem(ctx context.Context, id int64) (*models.Item, error) {
	companyID, err := companyScope(ctx)
	if err != nil {
		return nil, err
	}
	item, err := s.repo.Items.GetByID(ctx, id, companyID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrItemNotFound
	}
	return item, nil
}

func (s *itemService) ListItems(ctx context.Context, f ListItemsFilter) ([]models.Item, int64, error) {
	companyID, err := companyScope(ctx)
	if err != nil {
		return nil, 0, err
	}

	cacheable := f.Category == nil && f.Limit <= 0 && f.Offset <= 0
	if cacheable && s.cache != nil {
		if raw, err := s.cache.Get(ctx, cacheKeyCompanyItems(companyID)); err == nil {
			var view struct {
				Items []models.Item `json:"items"`
				Total int64         `json:"total"`
			}
			if json.Unmarshal([]byte(raw), &view) == nil {
				return view.Items, view.Total, nil
			}
		} else if !errors.Is(err, ErrCacheMiss) {
			s.log.Warn("items cache read failed", zap.Error(err))
		}
	}

	items, total, err := s.repo.Items.List(ctx, repository.ItemListFilter{
		CompanyID: companyID,
		Category:  f.Category,
		Limit:     f.Limit,
		Offset:    f.Offset,
	})
	if err != nil {
		return nil, 0, err
	}

	if cacheable && s.cache != nil {
		view := struct {
			Items []models.Item `json:"items"`
			Total int64         `json:"total"`
		}{Items: items, Total: total}
		if raw, err := json.Marshal(view); err == nil {
			if err := s.cache.Set(ctx, cacheKeyCompanyItems(companyID), string(raw), s.cacheTTL); err != nil {
				s.log.Warn("items cache write failed", zap.Error(err))
			}
		}
	}
	return items, total, nil
}

func (s *itemService) UpdateItem(ctx context.Context, id int64, in UpdateItemInput) (*models.Item, error) {
	companyID, err := companyScope(ctx)
	if err != nil {
		return nil, err
	}
	item, err := s.repo.Items.GetByID(ctx, id, companyID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrItemNotFound
	}

	fields := map[string]any{}
	if in.Name != nil {
		fields["name"] = *in.Name
	}
	if in.Description != nil {
		fields["description"] = *in.Description
	}
	if in.Unit != nil {
		fields["unit"] = *in.Unit
	}
	if in.Category != nil {
		fields["category"] = *in.Category
	}
	if in.Price != nil {
		fields["price"] = *in.Price
	}
	if in.ReorderPoint != nil {
		fields["reorder_point"] = *in.ReorderPoint
	}
	if in.ImageURL != nil {
		fields["image_url"] = *in.ImageURL
	}
	if len(fields) > 0 {
		if err := s.repo.Items.UpdateFields(ctx, id, companyID, fields); err != nil {
			return nil, err
		}
	}

	invalidate(ctx, s.cache, s.log, cacheKeyCompanyItems(companyID))
	return s.repo.Items.GetByID(ctx, id, companyID)
}

func (s *itemService) DeleteItem(ctx context.Context, id int64) error {
	companyID, err := companyScope(ctx)
	if err != nil {
		return err
	}
	ok, err := s.repo.Items.Delete(ctx, id, companyID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrItemNotFound
	}
	invalidate(ctx, s.cache, s.log, cacheKeyCompanyItems(companyID))
	return nil
}

func (s *itemService) AddStock(ctx context.Context, in AddStockInput) (*models.ItemStock, error) {
	companyID, err := companyScope(ctx)
	if err != nil {
		return nil, err
	}
	if in.Quantity <= 0 {
		return nil, ErrQuantityInvalid
	}

	entry := &models.ItemStock{
		ItemID:    in.ItemID,
		CompanyID: companyID,
		Quantity:  in.Quantity,
		Notes:     in.Notes,
	}
	err = s.repo.WithTx(func(tx *repository.Repository) error {
		item, err := tx.Items.GetByIDForUpdate(ctx, in.ItemID, companyID)
		if err != nil {
			return err
		}
		if item == nil {
			return ErrItemNotFound
		}
		if err := tx.ItemStocks.Create(ctx, entry); err != nil {
			return err
		}
		_, err = tx.Items.Release(ctx, in.ItemID, in.Quantity)
		return err
	})
	if err != nil {
		return nil, err
	}

	invalidate(ctx, s.cache, s.log, cacheKeyCompanyItems(companyID))
	return entry, nil
}

func (s *itemService) UpdateStock(ctx context.Context, stockID int64, quantity int64, notes string) (*models.ItemStock, error) {
	companyID, err := companyScope(ctx)
	if err != nil {
		return nil, err
	}
	if quantity <= 0 {
		return nil, ErrQuantityInvalid
	}

	var entry *models.ItemStock
	err = s.repo.WithTx(func(tx *repository.Repository) error {
		var err error
		entry, err = tx.ItemStocks.GetByID(ctx, stockID, companyID)
		if err != nil {
			return err
		}
		if entry == nil {
			return ErrStockNotFound
		}
		item, err := tx.Items.GetByIDForUpdate(ctx, entry.ItemID, companyID)
		if err != nil {
			return err
		}
		if item == nil {
			return ErrItemNotFound
		}

		delta := quantity - entry.Quantity
		if delta > 0 {
			if _, err := tx.Items.Release(ctx, entry.ItemID, delta); err != nil {
				return err
			}
		} else if delta < 0 {
			// Уменьшение прихода не может увести остаток в минус.
			ok, err := tx.Items.TryReserve(ctx, entry.ItemID, -delta)
			if err != nil {
				return err
			}
			if !ok {
				return &InsufficientStockError{ItemID: entry.ItemID, Requested: -delta, Available: item.Quantity}
			}
		}

		if err := tx.ItemStocks.UpdateQuantityAndNotes(ctx, stockID, quantity, notes); err != nil {
			return err
		}
		entry.Quantity = quantity
		entry.Notes = notes
		return nil
	})
	if err != nil {
		return nil, err
	}

	invalidate(ctx, s.cache, s.log, cacheKeyCompanyItems(companyID))
	return entry, nil
}

func (s *itemService) ListStock(ctx context.Context, itemID int64) ([]models.ItemStock, error) {
	companyID, err := companyScope(ctx)
	if err != nil {
		return nil, err
	}
	item, err := s.repo.Items.GetByID(ctx, itemID, companyID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrItemNotFound
	}
	return s.repo.ItemStocks.ListByItem(ctx, itemID, companyID)
}
