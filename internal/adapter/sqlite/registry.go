package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/voltmile/claimflow/internal/domain"
)

// Registry implements domain.VehicleLookup and domain.WarrantyLookup over
// the local vehicle and warranty tables. In a larger deployment these would
// be remote services; the port keeps that swap cheap.
type Registry struct {
	db *sql.DB
}

// NewRegistry wraps a migrated database connection.
func NewRegistry(db *sql.DB) *Registry {
	return &Registry{db: db}
}

func (r *Registry) VerifyVIN(ctx context.Context, vin string) (domain.VehicleRecord, error) {
	var v domain.VehicleRecord
	err := r.db.QueryRowContext(ctx,
		`SELECT vin, model, year FROM vehicles WHERE vin = ?`,
		strings.ToUpper(vin),
	).Scan(&v.VIN, &v.Model, &v.Year)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.VehicleRecord{}, domain.ErrVehicleNotFound
		}
		return domain.VehicleRecord{}, fmt.Errorf("looking up vehicle: %w", err)
	}
	return v, nil
}

// ActiveWarranty returns the unexpired active warranty with the latest end
// date, or ErrNoActiveWarranty.
func (r *Registry) ActiveWarranty(ctx context.Context, vin string) (domain.WarrantyActivation, error) {
	var w domain.WarrantyActivation
	var endDate string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, vin, warranty_end_date, status FROM warranty_activations
		 WHERE vin = ? AND status = 'active' AND warranty_end_date > ?
		 ORDER BY warranty_end_date DESC LIMIT 1`,
		strings.ToUpper(vin), time.Now().UTC().Format(timeFormat),
	).Scan(&w.ID, &w.VIN, &endDate, &w.Status)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.WarrantyActivation{}, domain.ErrNoActiveWarranty
		}
		return domain.WarrantyActivation{}, fmt.Errorf("looking up warranty: %w", err)
	}
	w.WarrantyEndDate, _ = time.Parse(timeFormat, endDate)
	return w, nil
}

// AddVehicle registers a vehicle. Used by seeding and tests.
func (r *Registry) AddVehicle(ctx context.Context, v domain.VehicleRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO vehicles (vin, model, year) VALUES (?, ?, ?)`,
		strings.ToUpper(v.VIN), v.Model, v.Year,
	)
	if err != nil {
		return fmt.Errorf("inserting vehicle: %w", err)
	}
	return nil
}

// AddWarranty registers a warranty activation. Used by seeding and tests.
func (r *Registry) AddWarranty(ctx context.Context, w domain.WarrantyActivation) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO warranty_activations (id, vin, warranty_end_date, status)
		 VALUES (?, ?, ?, ?)`,
		w.ID, strings.ToUpper(w.VIN), w.WarrantyEndDate.UTC().Format(timeFormat), w.Status,
	)
	if err != nil {
		return fmt.Errorf("inserting warranty: %w", err)
	}
	return nil
}
