package migrate

import (
	"context"

	"backoffice-service/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type MigrateOptions struct {
	CreateExtensions       bool // pgcrypto
	CreateChecks           bool // CHECK-constraint для целостности
	CreateIndexes          bool // индексы и UNIQUE
	CreateFKsViaSQL        bool // FK через SQL (поверх GORM-constraint)
	CreateUpdatedAtTrigger bool // триггер обновления updated_at
}

func DefaultMigrateOptions() MigrateOptions {
	return MigrateOptions{
		CreateExtensions:       true,
		CreateChecks:           true,
		CreateIndexes:          true,
		CreateFKsViaSQL:        true,
		CreateUpdatedAtTrigger: true,
	}
}

func MigrateBackofficeDB(ctx context.Context, db *gorm.DB, log *zap.Logger, opt MigrateOptions) error {
	log.Info("Начало миграции базы данных бэк-офиса")

	// Расширения
	if opt.CreateExtensions {
		log.Info("Создание расширений PostgreSQL")
		if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto`).Error; err != nil {
			log.Error("Не удалось включить расширение pgcrypto", zap.Error(err))
			return err
		}
		log.Info("Расширения PostgreSQL успешно созданы")
	}

	// Таблицы
	log.Info("Создание таблиц")
	if err := db.AutoMigrate(
		&models.Item{},
		&models.ItemStock{},
		&models.Order{},
		&models.OrderItem{},
		&models.OrderSplit{},
		&models.MeetingRoom{},
		&models.SeatArrangement{},
		&models.EventBooking{},
	); err != nil {
		log.Error("Не удалось создать таблицы", zap.Error(err))
		return err
	}
	log.Info("Таблицы успешно созданы")

	// Триггер updated_at
	if opt.CreateUpdatedAtTrigger {
		log.Info("Создание триггеров updated_at")
		if err := db.Exec(`
CREATE OR REPLACE FUNCTION set_updated_at() RETURNS trigger AS $$
BEGIN NEW.updated_at = now(); RETURN NEW; END; $$ LANGUAGE plpgsql;

DROP TRIGGER IF EXISTS trg_orders_updated ON orders;
CREATE TRIGGER trg_orders_updated
BEFORE UPDATE ON orders
FOR EACH ROW EXECUTE FUNCTION set_updated_at();

DROP TRIGGER IF EXISTS trg_items_updated ON items;
CREATE TRIGGER trg_items_updated
BEFORE UPDATE ON items
FOR EACH ROW EXECUTE FUNCTION set_updated_at();

DROP TRIGGER IF EXISTS trg_meeting_rooms_updated ON meeting_rooms;
CREATE TRIGGER trg_meeting_rooms_updated
BEFORE UPDATE ON meeting_rooms
FOR EACH ROW EXECUTE FUNCTION set_updated_at();

DROP TRIGGER IF EXISTS trg_seat_arrangements_updated ON seat_arrangements;
CREATE TRIGGER trg_seat_arrangements_updated
BEFORE UPDATE ON seat_arrangements
FOR EACH ROW EXECUTE FUNCTION set_updated_at();

DROP TRIGGER IF EXISTS trg_event_bookings_updated ON event_bookings;
CREATE TRIGGER trg_event_bookings_updated
BEFORE UPDATE ON event_bookings
FOR EACH ROW EXECUTE FUNCTION set_updated_at();
`).Error; err != nil {
			log.Error("Не удалось создать триггеры updated_at", zap.Error(err))
			return err
		}
		log.Info("Триггеры updated_at успешно созданы")
	}

	// CHECK-constraint
	if opt.CreateChecks {
		log.Info("Создание CHECK-ограничений")

		// Статусы заказа (так как храним TEXT)
		if err := db.Exec(`
ALTER TABLE orders
  DROP CONSTRAINT IF EXISTS chk_orders_status_allowed;
ALTER TABLE orders
  ADD CONSTRAINT chk_orders_status_allowed
  CHECK (status IN ('ORDER_STATUS_NEW','ORDER_STATUS_IN_PROGRESS','ORDER_STATUS_READY','ORDER_STATUS_COMPLETED','ORDER_STATUS_CANCELLED'));
`).Error; err != nil {
			log.Error("Не удалось создать CHECK для статусов заказа", zap.Error(err))
			return err
		}

		// Остаток товара не уходит в минус даже при гонке
		if err := db.Exec(`
ALTER TABLE items
  DROP CONSTRAINT IF EXISTS chk_items_quantity_non_negative;
ALTER TABLE items
  ADD CONSTRAINT chk_items_quantity_non_negative
  CHECK (quantity >= 0);
`).Error; err != nil {
			log.Error("Не удалось создать CHECK для items.quantity", zap.Error(err))
			return err
		}

		// Количество в позиции > 0
		if err := db.Exec(`
ALTER TABLE order_items
  DROP CONSTRAINT IF EXISTS chk_order_items_quantity_gt_zero;
ALTER TABLE order_items
  ADD CONSTRAINT chk_order_items_quantity_gt_zero
  CHECK (quantity > 0);
`).Error; err != nil {
			log.Error("Не удалось создать CHECK для order_items.quantity", zap.Error(err))
			return err
		}

		// Суммы неотрицательные
		if err := db.Exec(`
ALTER TABLE orders
  DROP CONSTRAINT IF EXISTS chk_orders_total_non_negative;
ALTER TABLE orders
  ADD CONSTRAINT chk_orders_total_non_negative
  CHECK (total_amount >= 0);
`).Error; err != nil {
			log.Error("Не удалось создать CHECK для orders.total_amount", zap.Error(err))
			return err
		}
		if err := db.Exec(`
ALTER TABLE order_items
  DROP CONSTRAINT IF EXISTS chk_order_items_price_non_negative;
ALTER TABLE order_items
  ADD CONSTRAINT chk_order_items_price_non_negative
  CHECK (price >= 0);
`).Error; err != nil {
			log.Error("Не удалось создать CHECK для order_items.price", zap.Error(err))
			return err
		}

		// Типы и значения платёжных долей
		if err := db.Exec(`
ALTER TABLE order_splits
  DROP CONSTRAINT IF EXISTS chk_order_splits_type_allowed;
ALTER TABLE order_splits
  ADD CONSTRAINT chk_order_splits_type_allowed
  CHECK (split_type IN ('amount','percent'));
`).Error; err != nil {
			log.Error("Не удалось создать CHECK для order_splits.split_type", zap.Error(err))
			return err
		}
		if err := db.Exec(`
ALTER TABLE order_splits
  DROP CONSTRAINT IF EXISTS chk_order_splits_value_positive;
ALTER TABLE order_splits
  ADD CONSTRAINT chk_order_splits_value_positive
  CHECK (value > 0 AND allocated >= 0);
`).Error; err != nil {
			log.Error("Не удалось создать CHECK для order_splits.value", zap.Error(err))
			return err
		}

		// Статусы брони
		if err := db.Exec(`
ALTER TABLE event_bookings
  DROP CONSTRAINT IF EXISTS chk_event_bookings_status_allowed;
ALTER TABLE event_bookings
  ADD CONSTRAINT chk_event_bookings_status_allowed
  CHECK (status IN ('BOOKING_STATUS_PENDING','BOOKING_STATUS_CONFIRMED','BOOKING_STATUS_IN_PROGRESS','BOOKING_STATUS_COMPLETED','BOOKING_STATUS_CANCELLED'));
`).Error; err != nil {
			log.Error("Не удалось создать CHECK для статусов брони", zap.Error(err))
			return err
		}

		log.Info("CHECK-ограничения успешно созданы")
	}

	// Индексы
	if opt.CreateIndexes {
		log.Info("Создание индексов")

		// Заказы гостя/компании по дате
		if err := db.Exec(`
CREATE INDEX IF NOT EXISTS ix_orders_guest_created
ON orders (guest_id, created_at DESC);
`).Error; err != nil {
			log.Error("Не удалось создать индекс ix_orders_guest_created", zap.Error(err))
			return err
		}
		if err := db.Exec(`
CREATE INDEX IF NOT EXISTS ix_orders_company_created
ON orders (company_id, created_at DESC);
`).Error; err != nil {
			log.Error("Не удалось создать индекс ix_orders_company_created", zap.Error(err))
			return err
		}

		// Уникальность имени комнаты в пределах компании
		if err := db.Exec(`
CREATE UNIQUE INDEX IF NOT EXISTS ux_meeting_rooms_company_name
ON meeting_rooms (company_id, name);
`).Error; err != nil {
			log.Error("Не удалось создать уникальный индекс ux_meeting_rooms_company_name", zap.Error(err))
			return err
		}

		// Уникальность имени рассадки в пределах компании
		if err := db.Exec(`
CREATE UNIQUE INDEX IF NOT EXISTS ux_seat_arrangements_company_name
ON seat_arrangements (company_id, name);
`).Error; err != nil {
			log.Error("Не удалось создать уникальный индекс ux_seat_arrangements_company_name", zap.Error(err))
			return err
		}

		// Активные брони комнаты: основной путь проверки пересечений
		if err := db.Exec(`
CREATE INDEX IF NOT EXISTS ix_event_bookings_room_status
ON event_bookings (meeting_room_id, status);
`).Error; err != nil {
			log.Error("Не удалось создать индекс ix_event_bookings_room_status", zap.Error(err))
			return err
		}

		log.Info("Индексы успешно созданы")
	}

	// Внешние ключи
	if opt.CreateFKsViaSQL {
		log.Info("Создание внешних ключей")

		// order_items.order_id -> orders.id (CASCADE)
		if err := db.Exec(`
ALTER TABLE order_items
  DROP CONSTRAINT IF EXISTS fk_order_items_order,
  ADD CONSTRAINT fk_order_items_order
    FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE;
`).Error; err != nil {
			log.Error("Не удалось создать FK order_items.order_id -> orders.id", zap.Error(err))
			return err
		}

		// order_splits.order_id -> orders.id (CASCADE)
		if err := db.Exec(`
ALTER TABLE order_splits
  DROP CONSTRAINT IF EXISTS fk_order_splits_order,
  ADD CONSTRAINT fk_order_splits_order
    FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE;
`).Error; err != nil {
			log.Error("Не удалось создать FK order_splits.order_id -> orders.id", zap.Error(err))
			return err
		}

		// orders.original_order_id -> orders.id (SET NULL: удаление исходного
		// не должно каскадно удалять split-заказы)
		if err := db.Exec(`
ALTER TABLE orders
  DROP CONSTRAINT IF EXISTS fk_orders_original_order,
  ADD CONSTRAINT fk_orders_original_order
    FOREIGN KEY (original_order_id) REFERENCES orders(id) ON DELETE SET NULL;
`).Error; err != nil {
			log.Error("Не удалось создать FK orders.original_order_id -> orders.id", zap.Error(err))
			return err
		}

		// item_stocks.item_id -> items.id (CASCADE)
		if err := db.Exec(`
ALTER TABLE item_stocks
  DROP CONSTRAINT IF EXISTS fk_item_stocks_item,
  ADD CONSTRAINT fk_item_stocks_item
    FOREIGN KEY (item_id) REFERENCES items(id) ON DELETE CASCADE;
`).Error; err != nil {
			log.Error("Не удалось создать FK item_stocks.item_id -> items.id", zap.Error(err))
			return err
		}

		// event_bookings.meeting_room_id -> meeting_rooms.id (SET NULL)
		if err := db.Exec(`
ALTER TABLE event_bookings
  DROP CONSTRAINT IF EXISTS fk_event_bookings_room,
  ADD CONSTRAINT fk_event_bookings_room
    FOREIGN KEY (meeting_room_id) REFERENCES meeting_rooms(id) ON DELETE SET NULL;
`).Error; err != nil {
			log.Error("Не удалось создать FK event_bookings.meeting_room_id -> meeting_rooms.id", zap.Error(err))
			return err
		}

		// event_bookings.seat_arrangement_id -> seat_arrangements.id (SET NULL)
		if err := db.Exec(`
ALTER TABLE event_bookings
  DROP CONSTRAINT IF EXISTS fk_event_bookings_arrangement,
  ADD CONSTRAINT fk_event_bookings_arrangement
    FOREIGN KEY (seat_arrangement_id) REFERENCES seat_arrangements(id) ON DELETE SET NULL;
`).Error; err != nil {
			log.Error("Не удалось создать FK event_bookings.seat_arrangement_id -> seat_arrangements.id", zap.Error(err))
			return err
		}

		log.Info("Внешние ключи успешно созданы")
	}

	log.Info("Миграция базы данных бэк-офиса успешно завершена")
	return nil
}
