package database

import (
	"context"
	"database/sql"
	"fmt"
)

// mysqlSchema creates the tables used by repository.MySQLStore.  Statements
// are idempotent so MigrateMySQL can run on every start.
var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		full_name     VARCHAR(255)    NOT NULL,
		username      VARCHAR(64)     NOT NULL,
		email         VARCHAR(255)    NOT NULL,
		password_hash VARCHAR(255)    NOT NULL,
		role          ENUM('buyer','seller') NOT NULL DEFAULT 'buyer',
		created_at    DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uq_users_email (email),
		UNIQUE KEY uq_users_username (username)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS products (
		id          BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		seller_id   BIGINT UNSIGNED NOT NULL,
		title       VARCHAR(255)    NOT NULL,
		description TEXT            NOT NULL,
		price       DOUBLE          NOT NULL,
		category    VARCHAR(128)    NOT NULL,
		stock       INT             NOT NULL,
		hidden      BOOLEAN         NOT NULL DEFAULT FALSE,
		version     BIGINT          NOT NULL DEFAULT 1,
		created_at  DATETIME        NOT NULL,
		updated_at  DATETIME        NOT NULL,
		KEY idx_products_category (category),
		KEY idx_products_seller (seller_id),
		CONSTRAINT chk_products_stock CHECK (stock >= 0),
		CONSTRAINT chk_products_price CHECK (price >= 0),
		CONSTRAINT fk_products_seller FOREIGN KEY (seller_id) REFERENCES users (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS product_images (
		id         BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		product_id BIGINT UNSIGNED NOT NULL,
		position   INT             NOT NULL,
		url        VARCHAR(1024)   NOT NULL,
		alt_text   VARCHAR(255)    NOT NULL DEFAULT '',
		is_primary BOOLEAN         NOT NULL DEFAULT FALSE,
		KEY idx_product_images_product (product_id, position),
		CONSTRAINT fk_product_images_product FOREIGN KEY (product_id) REFERENCES products (id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS product_buyers (
		id            BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		product_id    BIGINT UNSIGNED NOT NULL,
		position      INT             NOT NULL,
		buyer_id      BIGINT UNSIGNED NOT NULL,
		quantity      INT             NOT NULL,
		purchase_date DATETIME        NOT NULL,
		purchased     BOOLEAN         NOT NULL DEFAULT FALSE,
		KEY idx_product_buyers_product (product_id, position),
		KEY idx_product_buyers_buyer (buyer_id),
		CONSTRAINT chk_product_buyers_quantity CHECK (quantity >= 1),
		CONSTRAINT fk_product_buyers_product FOREIGN KEY (product_id) REFERENCES products (id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// mysqlColumn is a column added after its table was first released.
type mysqlColumn struct {
	table, name, ddl string
}

// mysqlAddedColumns are applied to tables created by older releases.
var mysqlAddedColumns = []mysqlColumn{
	{"product_buyers", "purchased", "BOOLEAN NOT NULL DEFAULT FALSE"},
}

// MigrateMySQL creates missing tables and adds missing columns.
func MigrateMySQL(ctx context.Context, db *sql.DB) error {
	for i, stmt := range mysqlSchema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate step %d: %w", i+1, err)
		}
	}
	for _, col := range mysqlAddedColumns {
		var n int
		err := db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM information_schema.COLUMNS
			 WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ? AND COLUMN_NAME = ?`,
			col.table, col.name).Scan(&n)
		if err != nil {
			return fmt.Errorf("migrate column %s.%s: %w", col.table, col.name, err)
		}
		if n > 0 {
			continue
		}
		// identifiers come from the list above, never from input
		stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", col.table, col.name, col.ddl)
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate column %s.%s: %w", col.table, col.name, err)
		}
	}
	return nil
}
