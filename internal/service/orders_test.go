package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"boxshop_back_end/internal/metrics"
	"boxshop_back_end/internal/models"
	"boxshop_back_end/internal/payu"
	"boxshop_back_end/internal/store"
)

// fakeGateway implémente Gateway pour tester le service sans réseau.
type fakeGateway struct {
	lastOrder *models.Order
	result    *payu.CreateOrderResult
	err       error
}

func (f *fakeGateway) CreateOrder(_ context.Context, order models.Order) (*payu.CreateOrderResult, error) {
	f.lastOrder = &order
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func validRequest() *PlaceOrderRequest {
	return &PlaceOrderRequest{
		Customer: models.Customer{Email: "jan@example.pl", FullName: "Jan Kowalski"},
		Cart:     []models.OrderItem{{Name: "Box 1", Price: 32, Quantity: 1}},
		Total:    32,
	}
}

func TestPlaceOrder(t *testing.T) {
	gw := &fakeGateway{result: &payu.CreateOrderResult{
		RedirectURI:    "https://secure.payu.com/pay/1",
		GatewayOrderID: "G1",
	}}
	st := store.NewMemoryStore()
	svc := NewOrderService(gw, st, metrics.NewRegistry())

	res, err := svc.PlaceOrder(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("PlaceOrder() error = %v", err)
	}
	if res.RedirectURI != "https://secure.payu.com/pay/1" {
		t.Errorf("RedirectURI = %q", res.RedirectURI)
	}
	if !strings.HasPrefix(res.LocalOrderID, "BOX-") {
		t.Errorf("LocalOrderID = %q, want BOX- prefix", res.LocalOrderID)
	}
	if res.GatewayOrderID != "G1" {
		t.Errorf("GatewayOrderID = %q", res.GatewayOrderID)
	}

	// Exactement un enregistrement, PENDING, gatewayOrderId renseigné,
	// montant en grosze calculé une fois et stocké.
	stored, err := st.GetByLocalID(context.Background(), res.LocalOrderID)
	if err != nil {
		t.Fatalf("stored order not found: %v", err)
	}
	if stored.Status != models.StatusPending {
		t.Errorf("stored status = %s, want PENDING", stored.Status)
	}
	if stored.GatewayOrderID != "G1" {
		t.Errorf("stored gatewayOrderId = %q", stored.GatewayOrderID)
	}
	if stored.AmountMinorUnits != 3200 {
		t.Errorf("stored amountMinorUnits = %d, want 3200", stored.AmountMinorUnits)
	}

	// Le payload passerelle reçoit la commande avant persistance,
	// montant déjà converti.
	if gw.lastOrder == nil || gw.lastOrder.AmountMinorUnits != 3200 {
		t.Errorf("gateway received order = %+v", gw.lastOrder)
	}
}

func TestPlaceOrderInvalidRequest(t *testing.T) {
	tests := []struct {
		name string
		req  *PlaceOrderRequest
	}{
		{"empty cart", &PlaceOrderRequest{Total: 32}},
		{"zero total", &PlaceOrderRequest{Cart: []models.OrderItem{{Name: "Box 1", Price: 32, Quantity: 1}}}},
		{"negative total", &PlaceOrderRequest{Cart: []models.OrderItem{{Name: "Box 1", Price: 32, Quantity: 1}}, Total: -5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := &fakeGateway{}
			st := store.NewMemoryStore()
			svc := NewOrderService(gw, st, metrics.NewRegistry())

			_, err := svc.PlaceOrder(context.Background(), tt.req)
			if !errors.Is(err, ErrInvalidRequest) {
				t.Fatalf("PlaceOrder() error = %v, want ErrInvalidRequest", err)
			}
			// Aucun appel réseau tenté.
			if gw.lastOrder != nil {
				t.Error("gateway should not be called for invalid requests")
			}
		})
	}
}

func TestPlaceOrderGatewayFailureLeavesNoOrphan(t *testing.T) {
	for _, gwErr := range []error{payu.ErrAuth, payu.ErrUnreachable, &payu.RejectedError{StatusCode: 400}} {
		gw := &fakeGateway{err: gwErr}
		st := store.NewMemoryStore()
		svc := NewOrderService(gw, st, metrics.NewRegistry())

		_, err := svc.PlaceOrder(context.Background(), validRequest())
		if err == nil {
			t.Fatal("PlaceOrder() should fail when the gateway fails")
		}

		// Pas d'enregistrement local orphelin.
		orders, _ := st.ListRecent(context.Background(), 10)
		if len(orders) != 0 {
			t.Errorf("gateway error %v: %d orphan orders persisted", gwErr, len(orders))
		}
	}
}

func TestNewLocalOrderID(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewLocalOrderID(time.Now())
		if !strings.HasPrefix(id, "BOX-") {
			t.Fatalf("id %q missing BOX- prefix", id)
		}
		if seen[id] {
			t.Fatalf("duplicate id generated: %q", id)
		}
		seen[id] = true
	}
}
