package service

import (
	"context"
	"testing"
	"time"

	"boxshop_back_end/internal/metrics"
	"boxshop_back_end/internal/models"
	"boxshop_back_end/internal/store"
)

func seedOrder(t *testing.T, st store.OrderStore, localID, gatewayID, status string) {
	t.Helper()
	now := time.Now().Add(-time.Hour)
	err := st.Insert(context.Background(), models.Order{
		LocalOrderID:     localID,
		GatewayOrderID:   gatewayID,
		Status:           status,
		Total:            32.50,
		AmountMinorUnits: 3250,
		Cart:             []models.OrderItem{{Name: "Box 1", Price: 32.50, Quantity: 1}},
		Customer:         models.Customer{Email: "jan@example.pl"},
		CreatedAt:        now,
		UpdatedAt:        now,
	})
	if err != nil {
		t.Fatalf("seed order: %v", err)
	}
}

func TestHandleNotificationCompleted(t *testing.T) {
	st := store.NewMemoryStore()
	seedOrder(t, st, "BOX-1", "G1", models.StatusPending)

	var notified *models.Order
	rec := NewReconciler(st, nil, metrics.NewRegistry(), func(o models.Order) { notified = &o })

	raw := []byte(`{"orders":[{"orderId":"G1","status":"COMPLETED"}]}`)
	if err := rec.HandleNotification(context.Background(), raw); err != nil {
		t.Fatalf("HandleNotification() error = %v", err)
	}

	got, _ := st.GetByLocalID(context.Background(), "BOX-1")
	if got.Status != models.StatusCompleted {
		t.Errorf("status = %s, want COMPLETED", got.Status)
	}
	if got.PaidAt == nil {
		t.Error("paidAt should be set on COMPLETED")
	}
	if got.UpdatedAt.Before(got.CreatedAt) {
		t.Error("updatedAt regressed")
	}
	if notified == nil || notified.Status != models.StatusCompleted {
		t.Error("onCompleted hook not called with the updated order")
	}
}

func TestHandleNotificationIdempotent(t *testing.T) {
	st := store.NewMemoryStore()
	seedOrder(t, st, "BOX-1", "G1", models.StatusPending)
	rec := NewReconciler(st, nil, metrics.NewRegistry(), nil)

	raw := []byte(`{"orders":[{"orderId":"G1","status":"COMPLETED"}]}`)
	for i := 0; i < 2; i++ {
		if err := rec.HandleNotification(context.Background(), raw); err != nil {
			t.Fatalf("HandleNotification() #%d error = %v", i, err)
		}
	}

	// Rejouer la même notification donne le même état final.
	got, _ := st.GetByLocalID(context.Background(), "BOX-1")
	if got.Status != models.StatusCompleted {
		t.Errorf("status after replay = %s, want COMPLETED", got.Status)
	}
}

func TestHandleNotificationTerminalNotOverwritten(t *testing.T) {
	st := store.NewMemoryStore()
	seedOrder(t, st, "BOX-1", "G1", models.StatusPending)
	rec := NewReconciler(st, nil, metrics.NewRegistry(), nil)

	// PENDING → COMPLETED → CANCELED livré dans cet ordre :
	// l'état final reste COMPLETED.
	for _, status := range []string{"PENDING", "COMPLETED", "CANCELED"} {
		raw := []byte(`{"orders":[{"orderId":"G1","status":"` + status + `"}]}`)
		if err := rec.HandleNotification(context.Background(), raw); err != nil {
			t.Fatalf("HandleNotification(%s) error = %v", status, err)
		}
	}

	got, _ := st.GetByLocalID(context.Background(), "BOX-1")
	if got.Status != models.StatusCompleted {
		t.Errorf("status = %s, want COMPLETED (terminal never overwritten)", got.Status)
	}
}

func TestHandleNotificationNoRegression(t *testing.T) {
	st := store.NewMemoryStore()
	seedOrder(t, st, "BOX-1", "G1", models.StatusWaiting)
	rec := NewReconciler(st, nil, metrics.NewRegistry(), nil)

	// Une notification retardée d'un statut antérieur ne recule pas.
	raw := []byte(`{"orders":[{"orderId":"G1","status":"PENDING"}]}`)
	if err := rec.HandleNotification(context.Background(), raw); err != nil {
		t.Fatalf("HandleNotification() error = %v", err)
	}

	got, _ := st.GetByLocalID(context.Background(), "BOX-1")
	if got.Status != models.StatusWaiting {
		t.Errorf("status = %s, want WAITING_FOR_CONFIRMATION", got.Status)
	}
}

func TestHandleNotificationUnknownOrder(t *testing.T) {
	st := store.NewMemoryStore()
	seedOrder(t, st, "BOX-1", "G1", models.StatusPending)
	rec := NewReconciler(st, nil, metrics.NewRegistry(), nil)

	// Notification hors-bande : acquittée, aucune mutation.
	raw := []byte(`{"orders":[{"orderId":"G-unknown","status":"COMPLETED"}]}`)
	if err := rec.HandleNotification(context.Background(), raw); err != nil {
		t.Fatalf("HandleNotification() error = %v", err)
	}

	got, _ := st.GetByLocalID(context.Background(), "BOX-1")
	if got.Status != models.StatusPending {
		t.Errorf("unrelated order mutated: %s", got.Status)
	}
}

func TestHandleNotificationEmptyAndMalformed(t *testing.T) {
	st := store.NewMemoryStore()
	seedOrder(t, st, "BOX-1", "G1", models.StatusPending)
	rec := NewReconciler(st, nil, metrics.NewRegistry(), nil)

	// Sans enregistrement de commande : no-op acquitté.
	if err := rec.HandleNotification(context.Background(), []byte(`{"orders":[]}`)); err != nil {
		t.Errorf("HandleNotification(empty) error = %v, want nil", err)
	}

	// Payload illisible : erreur interne (journalisée par l'appelant),
	// aucune mutation.
	if err := rec.HandleNotification(context.Background(), []byte(`not json`)); err == nil {
		t.Error("HandleNotification(malformed) should return an error")
	}

	got, _ := st.GetByLocalID(context.Background(), "BOX-1")
	if got.Status != models.StatusPending {
		t.Errorf("order mutated by bad payloads: %s", got.Status)
	}
}

func TestHandleNotificationIntermediateThenTerminal(t *testing.T) {
	st := store.NewMemoryStore()
	seedOrder(t, st, "BOX-1", "G1", models.StatusPending)
	rec := NewReconciler(st, nil, metrics.NewRegistry(), nil)

	for _, status := range []string{"WAITING_FOR_CONFIRMATION", "COMPLETED"} {
		raw := []byte(`{"orders":[{"orderId":"G1","status":"` + status + `"}]}`)
		if err := rec.HandleNotification(context.Background(), raw); err != nil {
			t.Fatalf("HandleNotification(%s) error = %v", status, err)
		}
	}

	got, _ := st.GetByLocalID(context.Background(), "BOX-1")
	if got.Status != models.StatusCompleted {
		t.Errorf("status = %s, want COMPLETED", got.Status)
	}
	if got.PaidAt == nil {
		t.Error("paidAt should be set")
	}
}
