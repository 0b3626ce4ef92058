package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/voltmile/claimflow/internal/domain"
)

// Inventory implements domain.PartsInventory over the parts_stock table.
type Inventory struct {
	db *sql.DB
}

// NewInventory wraps a migrated database connection.
func NewInventory(db *sql.DB) *Inventory {
	return &Inventory{db: db}
}

// ReserveStock decrements stock only when enough is available. The
// conditional update is a single statement, so two concurrent reservations
// can never take the same units.
func (i *Inventory) ReserveStock(ctx context.Context, partName string, quantity int) error {
	result, err := i.db.ExecContext(ctx,
		`UPDATE parts_stock SET quantity = quantity - ?
		 WHERE part_name = ? AND quantity >= ?`,
		quantity, partName, quantity,
	)
	if err != nil {
		return fmt.Errorf("reserving stock: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("part %q, requested %d: %w", partName, quantity, domain.ErrInsufficientStock)
	}
	return nil
}

// SetStock creates or replaces a stock level. Used by seeding and tests.
func (i *Inventory) SetStock(ctx context.Context, partName string, quantity int) error {
	_, err := i.db.ExecContext(ctx,
		`INSERT INTO parts_stock (part_name, quantity) VALUES (?, ?)
		 ON CONFLICT (part_name) DO UPDATE SET quantity = excluded.quantity`,
		partName, quantity,
	)
	if err != nil {
		return fmt.Errorf("setting stock: %w", err)
	}
	return nil
}
