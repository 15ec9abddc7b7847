package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"boxshop_back_end/internal/models"
)

func makeOrder(localID, gatewayID string, createdAt time.Time) models.Order {
	return models.Order{
		LocalOrderID:     localID,
		GatewayOrderID:   gatewayID,
		Status:           models.StatusPending,
		Total:            32.50,
		AmountMinorUnits: 3250,
		Cart:             []models.OrderItem{{Name: "Box 1", Price: 32.50, Quantity: 1}},
		CreatedAt:        createdAt,
		UpdatedAt:        createdAt,
	}
}

func TestMemoryStoreInsertAndGet(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	now := time.Now()

	if err := s.Insert(ctx, makeOrder("BOX-1", "G1", now)); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	got, err := s.GetByLocalID(ctx, "BOX-1")
	if err != nil {
		t.Fatalf("GetByLocalID() error = %v", err)
	}
	if got.GatewayOrderID != "G1" || got.Status != models.StatusPending {
		t.Errorf("unexpected order: %+v", got)
	}

	got, err = s.GetByGatewayID(ctx, "G1")
	if err != nil {
		t.Fatalf("GetByGatewayID() error = %v", err)
	}
	if got.LocalOrderID != "BOX-1" {
		t.Errorf("GetByGatewayID() returned %s", got.LocalOrderID)
	}

	if _, err := s.GetByLocalID(ctx, "BOX-404"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByLocalID(unknown) error = %v, want ErrNotFound", err)
	}
	if _, err := s.GetByGatewayID(ctx, "G404"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByGatewayID(unknown) error = %v, want ErrNotFound", err)
	}
}

func TestMemoryStoreDuplicates(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	now := time.Now()

	if err := s.Insert(ctx, makeOrder("BOX-1", "G1", now)); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	// Un seul enregistrement par localOrderId.
	if err := s.Insert(ctx, makeOrder("BOX-1", "G2", now)); !errors.Is(err, ErrAlreadyExists) {
		t.Errorf("Insert(same local id) error = %v, want ErrAlreadyExists", err)
	}

	// Un gatewayOrderId ne pointe jamais vers deux commandes.
	if err := s.Insert(ctx, makeOrder("BOX-2", "G1", now)); !errors.Is(err, ErrDuplicateGateway) {
		t.Errorf("Insert(same gateway id) error = %v, want ErrDuplicateGateway", err)
	}
}

func TestMemoryStoreUpdateStatusCAS(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	now := time.Now()

	if err := s.Insert(ctx, makeOrder("BOX-1", "G1", now)); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	paidAt := now.Add(time.Minute)
	err := s.UpdateStatus(ctx, "BOX-1", models.StatusPending, models.StatusCompleted, paidAt, &paidAt)
	if err != nil {
		t.Fatalf("UpdateStatus() error = %v", err)
	}

	got, _ := s.GetByLocalID(ctx, "BOX-1")
	if got.Status != models.StatusCompleted {
		t.Errorf("status = %s, want COMPLETED", got.Status)
	}
	if got.PaidAt == nil || !got.PaidAt.Equal(paidAt) {
		t.Errorf("paidAt = %v, want %v", got.PaidAt, paidAt)
	}
	if !got.UpdatedAt.Equal(paidAt) {
		t.Errorf("updatedAt = %v, want %v", got.UpdatedAt, paidAt)
	}

	// CAS : le statut attendu ne correspond plus.
	err = s.UpdateStatus(ctx, "BOX-1", models.StatusPending, models.StatusCanceled, time.Now(), nil)
	if !errors.Is(err, ErrStaleStatus) {
		t.Errorf("UpdateStatus(stale) error = %v, want ErrStaleStatus", err)
	}

	err = s.UpdateStatus(ctx, "BOX-404", models.StatusPending, models.StatusCompleted, time.Now(), nil)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateStatus(unknown) error = %v, want ErrNotFound", err)
	}
}

func TestMemoryStoreListRecent(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	base := time.Now()

	for i, id := range []string{"BOX-1", "BOX-2", "BOX-3"} {
		if err := s.Insert(ctx, makeOrder(id, "G"+id, base.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatalf("Insert(%s) error = %v", id, err)
		}
	}

	orders, err := s.ListRecent(ctx, 2)
	if err != nil {
		t.Fatalf("ListRecent() error = %v", err)
	}
	if len(orders) != 2 {
		t.Fatalf("ListRecent() returned %d orders, want 2", len(orders))
	}
	// Les plus récentes d'abord.
	if orders[0].LocalOrderID != "BOX-3" || orders[1].LocalOrderID != "BOX-2" {
		t.Errorf("ListRecent() order = %s, %s", orders[0].LocalOrderID, orders[1].LocalOrderID)
	}
}
