package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/voltmile/claimflow/internal/adapter/sqlite"
	"github.com/voltmile/claimflow/internal/domain"
)

func newTestRegistry(t *testing.T) (*sqlite.Registry, *sqlite.Inventory) {
	t.Helper()
	repo := newTestRepo(t)
	return sqlite.NewRegistry(repo.DB()), sqlite.NewInventory(repo.DB())
}

func TestVerifyVIN(t *testing.T) {
	reg, _ := newTestRegistry(t)
	ctx := context.Background()

	if err := reg.AddVehicle(ctx, domain.VehicleRecord{VIN: "5YJ3E1EA7JF000001", Model: "VM-3", Year: 2024}); err != nil {
		t.Fatalf("AddVehicle failed: %v", err)
	}

	// Lookup is case-insensitive on the VIN.
	got, err := reg.VerifyVIN(ctx, "5yj3e1ea7jf000001")
	if err != nil {
		t.Fatalf("VerifyVIN failed: %v", err)
	}
	if got.Model != "VM-3" || got.Year != 2024 {
		t.Errorf("record = %+v", got)
	}

	_, err = reg.VerifyVIN(ctx, "WVWZZZ1KZAW000002")
	if !errors.Is(err, domain.ErrVehicleNotFound) {
		t.Errorf("expected ErrVehicleNotFound, got %v", err)
	}
}

func TestActiveWarranty(t *testing.T) {
	reg, _ := newTestRegistry(t)
	ctx := context.Background()

	vin := "5YJ3E1EA7JF000001"
	if err := reg.AddVehicle(ctx, domain.VehicleRecord{VIN: vin, Model: "VM-3", Year: 2024}); err != nil {
		t.Fatalf("AddVehicle failed: %v", err)
	}

	expired := domain.WarrantyActivation{
		ID: "wa-old", VIN: vin, Status: "active",
		WarrantyEndDate: time.Now().UTC().Add(-24 * time.Hour),
	}
	current := domain.WarrantyActivation{
		ID: "wa-1", VIN: vin, Status: "active",
		WarrantyEndDate: time.Now().UTC().Add(365 * 24 * time.Hour),
	}
	for _, w := range []domain.WarrantyActivation{expired, current} {
		if err := reg.AddWarranty(ctx, w); err != nil {
			t.Fatalf("AddWarranty failed: %v", err)
		}
	}

	got, err := reg.ActiveWarranty(ctx, vin)
	if err != nil {
		t.Fatalf("ActiveWarranty failed: %v", err)
	}
	if got.ID != "wa-1" {
		t.Errorf("ID = %q, want the unexpired activation", got.ID)
	}
	if !got.Active(time.Now().UTC()) {
		t.Error("returned warranty should report active")
	}
}

func TestActiveWarranty_NoneActive(t *testing.T) {
	reg, _ := newTestRegistry(t)
	ctx := context.Background()

	vin := "5YJ3E1EA7JF000001"
	cancelled := domain.WarrantyActivation{
		ID: "wa-1", VIN: vin, Status: "cancelled",
		WarrantyEndDate: time.Now().UTC().Add(365 * 24 * time.Hour),
	}
	if err := reg.AddVehicle(ctx, domain.VehicleRecord{VIN: vin, Model: "VM-3", Year: 2024}); err != nil {
		t.Fatalf("AddVehicle failed: %v", err)
	}
	if err := reg.AddWarranty(ctx, cancelled); err != nil {
		t.Fatalf("AddWarranty failed: %v", err)
	}

	_, err := reg.ActiveWarranty(ctx, vin)
	if !errors.Is(err, domain.ErrNoActiveWarranty) {
		t.Errorf("expected ErrNoActiveWarranty, got %v", err)
	}
}

func TestReserveStock(t *testing.T) {
	_, inv := newTestRegistry(t)
	ctx := context.Background()

	if err := inv.SetStock(ctx, "Battery Pack", 2); err != nil {
		t.Fatalf("SetStock failed: %v", err)
	}

	if err := inv.ReserveStock(ctx, "Battery Pack", 2); err != nil {
		t.Fatalf("ReserveStock failed: %v", err)
	}

	// Stock is now zero; the next reservation must fail.
	err := inv.ReserveStock(ctx, "Battery Pack", 1)
	if !errors.Is(err, domain.ErrInsufficientStock) {
		t.Errorf("expected ErrInsufficientStock, got %v", err)
	}
}

func TestReserveStock_UnknownPart(t *testing.T) {
	_, inv := newTestRegistry(t)

	err := inv.ReserveStock(context.Background(), "Flux Capacitor", 1)
	if !errors.Is(err, domain.ErrInsufficientStock) {
		t.Errorf("expected ErrInsufficientStock, got %v", err)
	}
}
