package service

import (
	"context"
	"encoding/json"
	"time"

	"backoffice-service/internal/models"
	"backoffice-service/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type orderService struct {
	repo     *repository.Repository
	cache    ViewCache
	payment  PaymentLinkProvider
	events   EventBus
	log      *zap.Logger
	cacheTTL time.Duration
	now      func() time.Time
}

func NewOrderService(repo *repository.Repository, cache ViewCache, payment PaymentLinkProvider, events EventBus, log *zap.Logger, cacheTTL time.Duration) OrderService {
	return &orderService{
		repo:     repo,
		cache:    cache,
		payment:  payment,
		events:   events,
		log:      log,
		cacheTTL: cacheTTL,
		now:      time.Now,
	}
}

// allowedTransitions: NEW → IN_PROGRESS → READY → COMPLETED; отмена из любого
// нетерминального статуса идёт через CancelOrder.
var allowedTransitions = map[models.OrderStatus]models.OrderStatus{
	models.OrderStatusNew:        models.OrderStatusInProgress,
	models.OrderStatusInProgress: models.OrderStatusReady,
	models.OrderStatusReady:      models.OrderStatusCompleted,
}

func (s *orderService) CreateOrder(ctx context.Context, in CreateOrderInput) (*models.Order, error) {
	guestID, _, err := requireAuth(ctx)
	if err != nil {
		return nil, err
	}

	if len(in.Items) == 0 {
		return nil, ErrEmptyOrder
	}
	for _, line := range in.Items {
		if line.Quantity <= 0 {
			return nil, ErrQuantityInvalid
		}
	}

	var order *models.Order
	now := s.now()

	err = s.repo.WithTx(func(tx *repository.Repository) error {
		ids := make([]int64, 0, len(in.Items))
		for _, line := range in.Items {
			ids = append(ids, line.ItemID)
		}

		items, err := tx.Items.BatchGetByIDs(ctx, in.CompanyID, ids)
		if err != nil {
			return err
		}
		byID := make(map[int64]models.Item, len(items))
		for _, it := range items {
			byID[it.ID] = it
		}
		for _, line := range in.Items {
			if _, ok := byID[line.ItemID]; !ok {
				return ErrItemNotFound
			}
		}

		// Списание атомарно по каждой строке; любой недобор откатывает
		// транзакцию целиком — частичного списания не бывает.
		total := decimal.Zero
		orderItems := make([]models.OrderItem, 0, len(in.Items))
		for _, line := range in.Items {
			it := byID[line.ItemID]

			ok, err := tx.Items.TryReserve(ctx, line.ItemID, line.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				// Количество из пакетного чтения могло устареть к моменту
				// отказа — для ошибки остаток перечитывается.
				available := it.Quantity
				if cur, err := tx.Items.GetByID(ctx, line.ItemID, in.CompanyID); err == nil && cur != nil {
					available = cur.Quantity
				}
				return &InsufficientStockError{
					ItemID:    line.ItemID,
					Requested: line.Quantity,
					Available: available,
				}
			}

			lineTotal := it.Price.Mul(decimal.NewFromInt(line.Quantity))
			total = total.Add(lineTotal)

			orderItems = append(orderItems, models.OrderItem{
				ItemID:    line.ItemID,
				Quantity:  line.Quantity,
				Price:     it.Price, // снимок цены
				CreatedAt: now,
			})
		}

		order = &models.Order{
			GuestID:           guestID,
			CompanyID:         in.CompanyID,
			Status:            models.OrderStatusNew,
			TotalAmount:       total,
			RoomOrTableNumber: in.RoomOrTableNumber,
			Notes:             in.Notes,
			PaymentStatus:     models.PaymentStatusPending,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		if err := tx.Orders.Create(ctx, order); err != nil {
			return err
		}

		for i := range orderItems {
			orderItems[i].OrderID = order.ID
		}
		if err := tx.OrderItems.BulkCreate(ctx, orderItems); err != nil {
			return err
		}
		order.Items = orderItems
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Платёжная ссылка — после коммита и best-effort: заказ уже существует,
	// пустое поле payment_url подлежит повтору.
	s.attachOrderPaymentLink(ctx, order)

	invalidate(ctx, s.cache, s.log,
		cacheKeyCompanyOrders(order.CompanyID),
		cacheKeyGuestOrders(order.GuestID),
	)

	if s.events != nil {
		evItems := make([]OrderLineEvent, 0, len(order.Items))
		for _, it := range order.Items {
			evItems = append(evItems, OrderLineEvent{
				ItemID:   it.ItemID,
				Quantity: it.Quantity,
				Price:    it.Price.String(),
			})
		}
		_ = s.events.PublishOrderCreated(ctx, OrderCreatedEvent{
			OrderID:   order.ID,
			GuestID:   order.GuestID,
			CompanyID: order.CompanyID,
			Items:     evItems,
			Total:     order.TotalAmount.String(),
			CreatedAt: order.CreatedAt,
		})
	}

	return order, nil
}

func (s *orderService) attachOrderPaymentLink(ctx context.Context, order *models.Order) {
	if s.payment == nil {
		return
	}
	link, err := s.payment.GetPaymentLink(ctx, order.CompanyID, order.ID, order.TotalAmount)
	if err != nil {
		s.log.Warn("payment link generation failed",
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

// orderAccess — вызывающий является гостем заказа или компанией-владельцем.
func (s *orderService) orderAccess(ctx context.Context, ord *models.Order) error {
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

// ownedOrder загружает заказ и проверяет, что вызывающий — его гость или
// компания-владелец.
func (s *orderService) ownedOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if _, _, err := requireAuth(ctx); err != nil {
		return nil, err
	}
	ord, err := s.repo.Orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ord == nil {
		return nil, ErrOrderNotFound
	}
	if err := s.orderAccess(ctx, ord); err != nil {
		return nil, err
	}
	return ord, nil
}

func (s *orderService) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, cacheKeyOrderDetails(id)); err == nil {
			var cached models.Order
			// Проверка доступа обязательна и для кэшированной копии; чужой
			// заказ уходит на обычный путь за точной ошибкой.
			if json.Unmarshal([]byte(raw), &cached) == nil && s.orderAccess(ctx, &cached) == nil {
				return &cached, nil
			}
		}
	}

	ord, err := s.ownedOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if raw, err := json.Marshal(ord); err == nil {
			if err := s.cache.Set(ctx, cacheKeyOrderDetails(id), string(raw), s.cacheTTL); err != nil {
				s.log.Warn("order cache write failed", zap.String("order_id", id.String()), zap.Error(err))
			}
		}
	}
	return ord, nil
}

func (s *orderService) ListOrders(ctx context.Context, f ListOrdersFilter) ([]models.Order, int64, error) {
	uid, ut, err := requireAuth(ctx)
	if err != nil {
		return nil, 0, err
	}

	filter := repository.OrderListFilter{
		Status: f.Status,
		Limit:  f.Limit,
		Offset: f.Offset,
	}

	var cacheKey string
	if ut == UserTypeGuest {
		filter.GuestID = &uid
		cacheKey = cacheKeyGuestOrders(uid)
	} else {
		cid, err := companyScope(ctx)
		if err != nil {
			return nil, 0, err
		}
		filter.CompanyID = &cid
		cacheKey = cacheKeyCompanyOrders(cid)
	}

	// Кэшируется только первая страница без фильтра — её и инвалидируют
	// мутации. Допустимо отдать устаревший список до следующей записи.
	cacheable := s.cache != nil && f.Status == nil && f.Offset <= 0 && f.Limit <= 0
	if cacheable {
		if raw, err := s.cache.Get(ctx, cacheKey); err == nil {
			var cached struct {
				Orders []models.Order `json:"orders"`
				Total  int64          `json:"total"`
			}
			if err := json.Unmarshal([]byte(raw), &cached); err == nil {
				return cached.Orders, cached.Total, nil
			}
		}
	}

	ordersPtr, total, err := s.repo.Orders.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	orders := make([]models.Order, len(ordersPtr))
	for i, o := range ordersPtr {
		orders[i] = *o
	}

	if cacheable {
		payload, err := json.Marshal(struct {
			Orders []models.Order `json:"orders"`
			Total  int64          `json:"total"`
		}{orders, total})
		if err == nil {
			if err := s.cache.Set(ctx, cacheKey, string(payload), s.cacheTTL); err != nil {
				s.log.Warn("cache set failed", zap.String("key", cacheKey), zap.Error(err))
			}
		}
	}

	return orders, total, nil
}

func (s *orderService) UpdateOrderStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus) (*models.Order, error) {
	ord, err := s.ownedOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if ord.Status.Terminal() {
		return nil, ErrOrderTerminal
	}
	if next, ok := allowedTransitions[ord.Status]; !ok || next != status {
		return nil, ErrInvalidTransition
	}

	oldStatus := ord.Status
	if err := s.repo.Orders.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}
	ord.Status = status

	invalidate(ctx, s.cache, s.log,
		cacheKeyCompanyOrders(ord.CompanyID),
		cacheKeyGuestOrders(ord.GuestID),
		cacheKeyOrderDetails(ord.ID),
	)

	if s.events != nil {
		_ = s.events.PublishOrderStatusChanged(ctx, OrderStatusChangedEvent{
			OrderID:   ord.ID,
			CompanyID: ord.CompanyID,
			OldStatus: oldStatus,
			NewStatus: status,
			ChangedAt: s.now(),
		})
	}

	return ord, nil
}

// CancelOrder отменяет заказ и возвращает остатки в пул — единственный случай,
// когда Release вызывается для позиций заказа.
func (s *orderService) CancelOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	ord, err := s.ownedOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if ord.Status.Terminal() {
		return nil, ErrOrderTerminal
	}

	oldStatus := ord.Status
	err = s.repo.WithTx(func(tx *repository.Repository) error {
		locked, err := tx.Orders.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if locked == nil {
			return ErrOrderNotFound
		}
		if locked.Status.Terminal() {
			return ErrOrderTerminal
		}

		for _, line := range locked.Items {
			if _, err := tx.Items.Release(ctx, line.ItemID, line.Quantity); err != nil {
				return err
			}
		}
		return tx.Orders.UpdateStatus(ctx, id, models.OrderStatusCancelled)
	})
	if err != nil {
		return nil, err
	}
	ord.Status = models.OrderStatusCancelled

	invalidate(ctx, s.cache, s.log,
		cacheKeyCompanyOrders(ord.CompanyID),
		cacheKeyGuestOrders(ord.GuestID),
		cacheKeyOrderDetails(ord.ID),
	)

	if s.events != nil {
		_ = s.events.PublishOrderStatusChanged(ctx, OrderStatusChangedEvent{
			OrderID:   ord.ID,
			CompanyID: ord.CompanyID,
			OldStatus: oldStatus,
			NewStatus: models.OrderStatusCancelled,
			ChangedAt: s.now(),
		})
	}

	return ord, nil
}

func (s *orderService) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status models.PaymentStatus) error {
	ord, err := s.repo.Orders.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if ord == nil {
		return ErrOrderNotFound
	}
	if err := s.repo.Orders.UpdatePayment(ctx, id, ord.PaymentURL, status); err != nil {
		return err
	}
	invalidate(ctx, s.cache, s.log, cacheKeyOrderDetails(id))
	return nil
}

// RetryPaymentLink повторяет запрос ссылки для заказа, у которого она пуста.
func (s *orderService) RetryPaymentLink(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	ord, err := s.ownedOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if ord.PaymentURL == "" {
		s.attachOrderPaymentLink(ctx, ord)
	}
	return ord, nil
}
