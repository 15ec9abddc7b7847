package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"boxshop_back_end/internal/metrics"
	"boxshop_back_end/internal/models"
	"boxshop_back_end/internal/payu"
	"boxshop_back_end/internal/store"

	"github.com/google/uuid"
)

// ErrInvalidRequest : panier vide ou total invalide. Aucun appel réseau
// n'est tenté dans ce cas.
var ErrInvalidRequest = errors.New("service: panier vide ou total invalide")

// Gateway est le contrat minimal attendu de la passerelle de paiement —
// permet de tester le service contre une passerelle factice.
type Gateway interface {
	CreateOrder(ctx context.Context, order models.Order) (*payu.CreateOrderResult, error)
}

type OrderService struct {
	gateway Gateway
	store   store.OrderStore
	metrics *metrics.Registry
}

func NewOrderService(gateway Gateway, st store.OrderStore, reg *metrics.Registry) *OrderService {
	return &OrderService{gateway: gateway, store: st, metrics: reg}
}

type PlaceOrderRequest struct {
	Customer models.Customer    `json:"customer"`
	Cart     []models.OrderItem `json:"cart"`
	Total    float64            `json:"total"`
}

type PlaceOrderResult struct {
	RedirectURI    string `json:"redirectUri"`
	LocalOrderID   string `json:"localOrderId"`
	GatewayOrderID string `json:"gatewayOrderId"`
}

// PlaceOrder orchestre la création : validation → passerelle →
// persistance. La commande locale n'est écrite qu'APRÈS la réponse
// positive de la passerelle : un échec ne laisse aucun enregistrement
// orphelin qu'aucun webhook ne viendra jamais référencer. Le client
// resoumet, avec un nouvel identifiant local.
func (s *OrderService) PlaceOrder(ctx context.Context, req *PlaceOrderRequest) (*PlaceOrderResult, error) {
	if len(req.Cart) == 0 || req.Total <= 0 {
		return nil, ErrInvalidRequest
	}

	now := time.Now()
	order := models.Order{
		LocalOrderID:     NewLocalOrderID(now),
		Status:           models.StatusPending,
		Total:            req.Total,
		AmountMinorUnits: models.MinorUnits(req.Total),
		Cart:             req.Cart,
		Customer:         req.Customer,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	res, err := s.gateway.CreateOrder(ctx, order)
	if err != nil {
		return nil, err
	}

	order.GatewayOrderID = res.GatewayOrderID
	if err := s.store.Insert(ctx, order); err != nil {
		// La passerelle a accepté mais la persistance a échoué — on le
		// journalise avec l'identifiant passerelle pour réconciliation
		// manuelle.
		log.Printf("❌ Persistance commande %s (passerelle %s) échouée: %v",
			order.LocalOrderID, order.GatewayOrderID, err)
		return nil, err
	}

	s.metrics.OrdersCreated.Inc()
	log.Printf("✅ Commande %s créée (passerelle %s, %d gr)",
		order.LocalOrderID, order.GatewayOrderID, order.AmountMinorUnits)

	return &PlaceOrderResult{
		RedirectURI:    res.RedirectURI,
		LocalOrderID:   order.LocalOrderID,
		GatewayOrderID: order.GatewayOrderID,
	}, nil
}

// NewLocalOrderID génère un identifiant local ordonné dans le temps :
// préfixe boutique, horodatage en millisecondes, suffixe aléatoire
// contre les collisions. C'est la clé d'idempotence locale.
func NewLocalOrderID(t time.Time) string {
	return fmt.Sprintf("BOX-%d-%s", t.UnixMilli(), uuid.NewString()[:8])
}
