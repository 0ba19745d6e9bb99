package service

import (
	"context"
	"time"

	"backoffice-service/internal/models"
	"backoffice-service/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type splitService struct {
	repo    *repository.Repository
	cache   ViewCache
	payment PaymentLinkProvider
	events  EventBus
	log     *zap.Logger
	now     func() time.Time
}

func NewSplitService(repo *repository.Repository, cache ViewCache, payment PaymentLinkProvider, events EventBus, log *zap.Logger) SplitService {
	return &splitService{
		repo:    repo,
		cache:   cache,
		payment: payment,
		events:  events,
		log:     log,
		now:     time.Now,
	}
}

func (s *splitService) checkOwnership(ctx context.Context, ord *models.Order) error {
	uid, ut, err := requireAuth(ctx)
	if err != nil {
		return err
	}
	if ord.GuestID == uid {
		return nil
	}
	if ut != UserTypeGuest {
		cid, err := companyScope(ctx)
		if err != nil {
			return err
		}
		if ord.CompanyID == cid {
			return nil
		}
	}
	return ErrForbidden
}

// SplitOrder переносит часть позиций заказа в новый независимый заказ.
// Остатки склада не трогаются: количество уже списано при создании исходного
// заказа, меняется только принадлежность.
func (s *splitService) SplitOrder(ctx context.Context, originalOrderID uuid.UUID, items []SplitItemRequest) (*SplitResult, error) {
	if len(items) == 0 {
		return nil, ErrEmptyOrder
	}
	for _, req := range items {
		if req.Quantity <= 0 {
			return nil, ErrQuantityInvalid
		}
	}

	var (
		splitOrder *models.Order
		original   *models.Order
	)
	now := s.now()

	err := s.repo.WithTx(func(tx *repository.Repository) error {
		// Блокировка строки заказа сериализует конкурентные split-ы:
		// второй увидит уже уменьшенные количества.
		orig, err := tx.Orders.GetByIDForUpdate(ctx, originalOrderID)
		if err != nil {
			return err
		}
		if orig == nil {
			return ErrOrderNotFound
		}
		if err := s.checkOwnership(ctx, orig); err != nil {
			return err
		}
		if orig.Status.Terminal() {
			return ErrOrderTerminal
		}

		// Строки с одинаковым item_id хранятся раздельно; перенос идёт
		// из первой подходящей строки.
		lineByItem := make(map[int64]*models.OrderItem, len(orig.Items))
		for i := range orig.Items {
			if _, ok := lineByItem[orig.Items[i].ItemID]; !ok {
				lineByItem[orig.Items[i].ItemID] = &orig.Items[i]
			}
		}

		movedTotal := decimal.Zero
		movedLines := make([]models.OrderItem, 0, len(items))

		for _, req := range items {
			line, ok := lineByItem[req.ItemID]
			if !ok {
				return ErrItemNotInOrder
			}
			if req.Quantity > line.Quantity {
				return ErrInsufficientQuantity
			}

			movedTotal = movedTotal.Add(line.Price.Mul(decimal.NewFromInt(req.Quantity)))
			movedLines = append(movedLines, models.OrderItem{
				ItemID:    req.ItemID,
				Quantity:  req.Quantity,
				Price:     line.Price, // цена остаётся снимком исходного заказа
				CreatedAt: now,
			})

			remaining := line.Quantity - req.Quantity
			if remaining == 0 {
				if _, err := tx.OrderItems.DeleteByID(ctx, line.ID); err != nil {
					return err
				}
			} else {
				if err := tx.OrderItems.UpdateQuantity(ctx, line.ID, remaining); err != nil {
					return err
				}
			}
			line.Quantity = remaining
		}

		splitOrder = &models.Order{
			GuestID:           orig.GuestID,
			CompanyID:         orig.CompanyID,
			Status:            models.OrderStatusNew,
			TotalAmount:       movedTotal,
			IsSplit:           true,
			OriginalOrderID:   &orig.ID,
			RoomOrTableNumber: orig.RoomOrTableNumber,
			PaymentStatus:     models.PaymentStatusPending,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		if err := tx.Orders.Create(ctx, splitOrder); err != nil {
			return err
		}
		for i := range movedLines {
			movedLines[i].OrderID = splitOrder.ID
		}
		if err := tx.OrderItems.BulkCreate(ctx, movedLines); err != nil {
			return err
		}
		splitOrder.Items = movedLines

		orig.TotalAmount = orig.TotalAmount.Sub(movedTotal)
		if err := tx.Orders.UpdateTotals(ctx, orig.ID, orig.TotalAmount); err != nil {
			return err
		}

		remaining := orig.Items[:0]
		for _, line := range orig.Items {
			if line.Quantity > 0 {
				remaining = append(remaining, line)
			}
		}
		orig.Items = remaining
		original = orig
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Суммы обоих заказов изменились — обе ссылки перевыпускаются.
	s.reissuePaymentLink(ctx, splitOrder)
	s.reissuePaymentLink(ctx, original)

	invalidate(ctx, s.cache, s.log,
		cacheKeyCompanyOrders(original.CompanyID),
		cacheKeyGuestOrders(original.GuestID),
		cacheKeyOrderDetails(original.ID),
		cacheKeyOrderDetails(splitOrder.ID),
	)

	if s.events != nil {
		evItems := make([]OrderLineEvent, 0, len(splitOrder.Items))
		for _, it := range splitOrder.Items {
			evItems = append(evItems, OrderLineEvent{ItemID: it.ItemID, Quantity: it.Quantity, Price: it.Price.String()})
		}
		_ = s.events.PublishOrderCreated(ctx, OrderCreatedEvent{
			OrderID:         splitOrder.ID,
			GuestID:         splitOrder.GuestID,
			CompanyID:       splitOrder.CompanyID,
			IsSplit:         true,
			OriginalOrderID: splitOrder.OriginalOrderID,
			Items:           evItems,
			Total:           splitOrder.TotalAmount.String(),
			CreatedAt:       splitOrder.CreatedAt,
		})
	}

	return &SplitResult{SplitOrder: splitOrder, UpdatedOriginal: original}, nil
}

// DeleteSplitOrder возвращает позиции split-заказа в исходный: совпадающие
// item_id сливаются, новые добавляются строкой. Склад не трогается — общее
// количество покинуло пул при создании исходного заказа.
func (s *splitService) DeleteSplitOrder(ctx context.Context, splitOrderID uuid.UUID) (*models.Order, error) {
	var original *models.Order
	now := s.now()

	err := s.repo.WithTx(func(tx *repository.Repository) error {
		split, err := tx.Orders.GetByIDForUpdate(ctx, splitOrderID)
		if err != nil {
			return err
		}
		if split == nil {
			return ErrOrderNotFound
		}
		if err := s.checkOwnership(ctx, split); err != nil {
			return err
		}
		if !split.IsSplit || split.OriginalOrderID == nil {
			return ErrNotSplitOrder
		}
		if split.Status.Terminal() {
			return ErrOrderTerminal
		}

		orig, err := tx.Orders.GetByIDForUpdate(ctx, *split.OriginalOrderID)
		if err != nil {
			return err
		}
		if orig == nil {
			return ErrOrderNotFound
		}
		// Завершённый или отменённый исходный заказ неизменяем: возврат позиций
		// поменял бы его строки и сумму задним числом.
		if orig.Status.Terminal() {
			return ErrOrderTerminal
		}

		lineByItem := make(map[int64]*models.OrderItem, len(orig.Items))
		for i := range orig.Items {
			if _, ok := lineByItem[orig.Items[i].ItemID]; !ok {
				lineByItem[orig.Items[i].ItemID] = &orig.Items[i]
			}
		}

		for _, line := range split.Items {
			if existing, ok := lineByItem[line.ItemID]; ok {
				existing.Quantity += line.Quantity
				if err := tx.OrderItems.UpdateQuantity(ctx, existing.ID, existing.Quantity); err != nil {
					return err
				}
			} else {
				appended := models.OrderItem{
					OrderID:   orig.ID,
					ItemID:    line.ItemID,
					Quantity:  line.Quantity,
					Price:     line.Price,
					CreatedAt: now,
				}
				if err := tx.OrderItems.BulkCreate(ctx, []models.OrderItem{appended}); err != nil {
					return err
				}
				orig.Items = append(orig.Items, appended)
			}
		}

		orig.TotalAmount = orig.TotalAmount.Add(split.TotalAmount)
		if err := tx.Orders.UpdateTotals(ctx, orig.ID, orig.TotalAmount); err != nil {
			return err
		}

		if _, err := tx.OrderItems.DeleteByOrderID(ctx, split.ID); err != nil {
			return err
		}
		if _, err := tx.OrderSplits.DeleteByOrder(ctx, split.ID); err != nil {
			return err
		}
		if _, err := tx.Orders.Delete(ctx, split.ID); err != nil {
			return err
		}

		original = orig
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.reissuePaymentLink(ctx, original)

	invalidate(ctx, s.cache, s.log,
		cacheKeyCompanyOrders(original.CompanyID),
		cacheKeyGuestOrders(original.GuestID),
		cacheKeyOrderDetails(original.ID),
		cacheKeyOrderDetails(splitOrderID),
	)

	return original, nil
}

func (s *splitService) reissuePaymentLink(ctx context.Context, order *models.Order) {
	if s.payment == nil || order == nil {
		return
	}
	link, err := s.payment.GetPaymentLink(ctx, order.CompanyID, order.ID, order.TotalAmount)
	if err != nil {
		s.log.Warn("payment link regeneration failed",
			zap.String("order_id", order.ID.String()), zap.Error(err))
		return
	}
	if err := s.repo.Orders.UpdatePayment(ctx, order.ID, link, models.PaymentStatusPending); err != nil {
		s.log.Error("failed to persist payment link",
			zap.String("order_id", order.ID.String()), zap.Error(err))
		return
	}
	order.PaymentURL = link
}

var hundred = decimal.NewFromInt(100)

// SplitBill разбивает сумму заказа на платёжные доли. Сумма долей обязана
// сойтись с суммой заказа точно: расхождение на любую величину отклоняет
// весь набор, ничего не сохраняется.
func (s *splitService) SplitBill(ctx context.Context, orderID uuid.UUID, requests []BillSplitRequest) ([]SplitDetail, error) {
	return s.issueSplits(ctx, orderID, requests, false)
}

// ReissueBillSplits удаляет существующие доли и создаёт новые: доли
// неизменяемы, перевыпуск — это всегда удаление и повторное создание.
func (s *splitService) ReissueBillSplits(ctx context.Context, orderID uuid.UUID, requests []BillSplitRequest) ([]SplitDetail, error) {
	return s.issueSplits(ctx, orderID, requests, true)
}

// issueSplits — общая транзакция обоих путей. replace=true удаляет старые
// доли в той же транзакции, что и запись новых: несошедшийся набор
// откатывает и удаление, заказ не остаётся без долей.
func (s *splitService) issueSplits(ctx context.Context, orderID uuid.UUID, requests []BillSplitRequest, replace bool) ([]SplitDetail, error) {
	if len(requests) == 0 {
		return nil, ErrEmptyOrder
	}
	for _, req := range requests {
		if req.Type != models.SplitTypeAmount && req.Type != models.SplitTypePercent {
			return nil, ErrInvalidSplitType
		}
		if !req.Value.IsPositive() {
			return nil, ErrSplitValue
		}
	}

	var (
		created   []models.OrderSplit
		companyID uuid.UUID
	)
	now := s.now()

	err := s.repo.WithTx(func(tx *repository.Repository) error {
		// Блокировка заказа: сумма не должна измениться (например, split-ом
		// позиций) между вычислением долей и их записью.
		ord, err := tx.Orders.GetByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if ord == nil {
			return ErrOrderNotFound
		}
		if err := s.checkOwnership(ctx, ord); err != nil {
			return err
		}
		companyID = ord.CompanyID

		if replace {
			if _, err := tx.OrderSplits.DeleteByOrder(ctx, orderID); err != nil {
				return err
			}
		} else {
			existing, err := tx.OrderSplits.ListByOrder(ctx, orderID)
			if err != nil {
				return err
			}
			if len(existing) > 0 {
				return ErrSplitsExist
			}
		}

		allocatedSum := decimal.Zero
		created = make([]models.OrderSplit, 0, len(requests))
		for _, req := range requests {
			allocated := req.Value
			if req.Type == models.SplitTypePercent {
				allocated = ord.TotalAmount.Mul(req.Value).Div(hundred)
			}
			allocatedSum = allocatedSum.Add(allocated)
			created = append(created, models.OrderSplit{
				OrderID:       orderID,
				Label:         req.Label,
				SplitType:     req.Type,
				Value:         req.Value,
				Allocated:     allocated,
				PaymentStatus: models.PaymentStatusPending,
				CreatedAt:     now,
			})
		}

		if !allocatedSum.Equal(ord.TotalAmount) {
			return &SplitMismatchError{
				Allocated: allocatedSum,
				Total:     ord.TotalAmount,
				Remainder: ord.TotalAmount.Sub(allocatedSum),
			}
		}

		return tx.OrderSplits.BulkCreate(ctx, created)
	})
	if err != nil {
		return nil, err
	}

	details := make([]SplitDetail, 0, len(created))
	for i := range created {
		sp := &created[i]
		if s.payment != nil {
			link, err := s.payment.GetPaymentLink(ctx, companyID, sp.ID, sp.Allocated)
			if err != nil {
				s.log.Warn("payment link generation failed for split",
					zap.String("split_id", sp.ID.String()), zap.Error(err))
			} else if err := s.repo.OrderSplits.UpdatePayment(ctx, sp.ID, link, models.PaymentStatusPending); err != nil {
				s.log.Error("failed to persist split payment link",
					zap.String("split_id", sp.ID.String()), zap.Error(err))
			} else {
				sp.PaymentURL = link
			}
		}
		details = append(details, SplitDetail{
			ID:         sp.ID,
			Label:      sp.Label,
			Type:       sp.SplitType,
			Value:      sp.Value,
			Allocated:  sp.Allocated,
			PaymentURL: sp.PaymentURL,
		})
	}

	invalidate(ctx, s.cache, s.log, cacheKeyOrderDetails(orderID))

	return details, nil
}

func (s *splitService) ListBillSplits(ctx context.Context, orderID uuid.UUID) ([]models.OrderSplit, error) {
	ord, err := s.repo.Orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if ord == nil {
		return nil, ErrOrderNotFound
	}
	if err := s.checkOwnership(ctx, ord); err != nil {
		return nil, err
	}
	return s.repo.OrderSplits.ListByOrder(ctx, orderID)
}
