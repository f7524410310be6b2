package migrate

import (
	"context"

	"storefront/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type MigrateOptions struct {
	CreateChecks  bool // CHECK-constraint для целостности
	CreateIndexes bool // индексы и UNIQUE
	CreateFKs     bool // FK через SQL (поверх GORM-constraint)
}

func DefaultMigrateOptions() MigrateOptions {
	return MigrateOptions{
		CreateChecks:  true,
		CreateIndexes: true,
		CreateFKs:     true,
	}
}

func MigrateStorefrontDB(ctx context.Context, db *gorm.DB, log *zap.Logger, opt MigrateOptions) error {
	log.Info("Начало миграции базы данных магазина")

	log.Info("Создание таблиц")
	if err := db.WithContext(ctx).AutoMigrate(models.AllModels()...); err != nil {
		log.Error("Не удалось создать таблицы", zap.Error(err))
		return err
	}
	log.Info("Таблицы успешно созданы")

	if opt.CreateChecks {
		log.Info("Создание CHECK-ограничений")

		checks := []string{
			`ALTER TABLE orders
  DROP CONSTRAINT IF EXISTS chk_orders_status_allowed;
ALTER TABLE orders
  ADD CONSTRAINT chk_orders_status_allowed
  CHECK (status IN ('Placed','Processing','Shipped','Delivered','Cancelled'));`,
			`ALTER TABLE orders
  DROP CONSTRAINT IF EXISTS chk_orders_payment_status_allowed;
ALTER TABLE orders
  ADD CONSTRAINT chk_orders_payment_status_allowed
  CHECK (payment_status IN ('Pending','Paid','Failed'));`,
			`ALTER TABLE order_status_updates
  DROP CONSTRAINT IF EXISTS chk_order_status_updates_status_allowed;
ALTER TABLE order_status_updates
  ADD CONSTRAINT chk_order_status_updates_status_allowed
  CHECK (status IN ('Placed','Processing','Shipped','Delivered','Cancelled'));`,
			`ALTER TABLE products
  DROP CONSTRAINT IF EXISTS chk_products_price_non_negative;
ALTER TABLE products
  ADD CONSTRAINT chk_products_price_non_negative
  CHECK (price >= 0);`,
			`ALTER TABLE cart_items
  DROP CONSTRAINT IF EXISTS chk_cart_items_quantity_gt_zero;
ALTER TABLE cart_items
  ADD CONSTRAINT chk_cart_items_quantity_gt_zero
  CHECK (quantity > 0);`,
			`ALTER TABLE order_items
  DROP CONSTRAINT IF EXISTS chk_order_items_quantity_gt_zero;
ALTER TABLE order_items
  ADD CONSTRAINT chk_order_items_quantity_gt_zero
  CHECK (quantity > 0);`,
			`ALTER TABLE review_ratings
  DROP CONSTRAINT IF EXISTS chk_review_ratings_rating_range;
ALTER TABLE review_ratings
  ADD CONSTRAINT chk_review_ratings_rating_range
  CHECK (rating >= 1 AND rating <= 5);`,
			`ALTER TABLE review_ratings
  DROP CONSTRAINT IF EXISTS chk_review_ratings_status_allowed;
ALTER TABLE review_ratings
  ADD CONSTRAINT chk_review_ratings_status_allowed
  CHECK (status IN ('pending','hidden','visible'));`,
			`ALTER TABLE variations
  DROP CONSTRAINT IF EXISTS chk_variations_category_allowed;
ALTER TABLE variations
  ADD CONSTRAINT chk_variations_category_allowed
  CHECK (category IN ('color','size'));`,
		}
		for _, stmt := range checks {
			if err := db.Exec(stmt).Error; err != nil {
				log.Error("Не удалось создать CHECK-ограничение", zap.Error(err))
				return err
			}
		}

		log.Info("CHECK-ограничения успешно созданы")
	}

	if opt.CreateIndexes {
		log.Info("Создание индексов")

		indexes := []string{
			// один живой OTP на email
			`CREATE UNIQUE INDEX IF NOT EXISTS ux_otps_email ON otps (email);`,
			// один отзыв на пару пользователь/товар
			`CREATE UNIQUE INDEX IF NOT EXISTS ux_reviews_user_product ON review_ratings (product_id, user_id);`,
			// один голос на пару отзыв/пользователь
			`CREATE UNIQUE INDEX IF NOT EXISTS ux_review_votes_review_user ON review_helpfulness (review_id, user_id);`,
			// один сохранённый счёт на пару пользователь/метод
			`CREATE UNIQUE INDEX IF NOT EXISTS ux_payment_accounts_user_method ON payment_accounts (user_id, method);`,
			// история заказов пользователя по дате
			`CREATE INDEX IF NOT EXISTS ix_orders_user_created ON orders (user_id, created_at DESC);`,
			// журнал статусов по заказу, свежие первыми
			`CREATE INDEX IF NOT EXISTS ix_status_updates_order_created ON order_status_updates (order_id, created_at DESC);`,
			// очередь модерации
			`CREATE INDEX IF NOT EXISTS ix_reviews_status_created ON review_ratings (status, created_at DESC);`,
			// лимит отзывов за день
			`CREATE INDEX IF NOT EXISTS ix_reviews_user_created ON review_ratings (user_id, created_at);`,
		}
		for _, stmt := range indexes {
			if err := db.Exec(stmt).Error; err != nil {
				log.Error("Не удалось создать индекс", zap.Error(err))
				return err
			}
		}

		log.Info("Индексы успешно созданы")
	}

	if opt.CreateFKs {
		log.Info("Создание внешних ключей")

		fks := []string{
			`ALTER TABLE order_items
  DROP CONSTRAINT IF EXISTS fk_order_items_order,
  ADD CONSTRAINT fk_order_items_order
    FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE;`,
			`ALTER TABLE order_status_updates
  DROP CONSTRAINT IF EXISTS fk_order_status_updates_order,
  ADD CONSTRAINT fk_order_status_updates_order
    FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE;`,
			`ALTER TABLE cart_items
  DROP CONSTRAINT IF EXISTS fk_cart_items_cart,
  ADD CONSTRAINT fk_cart_items_cart
    FOREIGN KEY (cart_ref_id) REFERENCES carts(id) ON DELETE CASCADE;`,
			`ALTER TABLE review_helpfulness
  DROP CONSTRAINT IF EXISTS fk_review_votes_review,
  ADD CONSTRAINT fk_review_votes_review
    FOREIGN KEY (review_id) REFERENCES review_ratings(id) ON DELETE CASCADE;`,
			`ALTER TABLE review_audits
  DROP CONSTRAINT IF EXISTS fk_review_audits_review,
  ADD CONSTRAINT fk_review_audits_review
    FOREIGN KEY (review_id) REFERENCES review_ratings(id) ON DELETE CASCADE;`,
		}
		for _, stmt := range fks {
			if err := db.Exec(stmt).Error; err != nil {
				log.Error("Не удалось создать внешний ключ", zap.Error(err))
				return err
			}
		}

		log.Info("Внешние ключи успешно созданы")
	}

	log.Info("Миграция базы данных магазина успешно завершена")
	return nil
}
