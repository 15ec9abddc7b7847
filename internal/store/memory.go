package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"boxshop_back_end/internal/models"
)

// MemoryStore garde les commandes en mémoire, sous mutex. Utilisé en
// développement sans ScyllaDB et dans les tests. Même contrat de
// compare-and-swap que le store durable.
type MemoryStore struct {
	mu        sync.Mutex
	orders    map[string]models.Order // localOrderId → commande
	byGateway map[string]string       // gatewayOrderId → localOrderId
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		orders:    make(map[string]models.Order),
		byGateway: make(map[string]string),
	}
}

func (s *MemoryStore) Insert(_ context.Context, order models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.orders[order.LocalOrderID]; exists {
		return ErrAlreadyExists
	}
	if order.GatewayOrderID != "" {
		if _, exists := s.byGateway[order.GatewayOrderID]; exists {
			return ErrDuplicateGateway
		}
		s.byGateway[order.GatewayOrderID] = order.LocalOrderID
	}
	s.orders[order.LocalOrderID] = order
	return nil
}

func (s *MemoryStore) GetByLocalID(_ context.Context, localID string) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[localID]
	if !ok {
		return nil, ErrNotFound
	}
	return &order, nil
}

func (s *MemoryStore) GetByGatewayID(ctx context.Context, gatewayID string) (*models.Order, error) {
	s.mu.Lock()
	localID, ok := s.byGateway[gatewayID]
	s.mu.Unlock()
	if !ok {
		return nil, ErrNotFound
	}
	return s.GetByLocalID(ctx, localID)
}

func (s *MemoryStore) UpdateStatus(_ context.Context, localID, fromStatus, toStatus string, updatedAt time.Time, paidAt *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[localID]
	if !ok {
		return ErrNotFound
	}
	if order.Status != fromStatus {
		return ErrStaleStatus
	}

	order.Status = toStatus
	order.UpdatedAt = updatedAt
	if paidAt != nil {
		order.PaidAt = paidAt
	}
	s.orders[localID] = order
	return nil
}

func (s *MemoryStore) ListRecent(_ context.Context, limit int) ([]models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	orders := make([]models.Order, 0, len(s.orders))
	for _, order := range s.orders {
		orders = append(orders, order)
	}
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	if limit > 0 && len(orders) > limit {
		orders = orders[:limit]
	}
	return orders, nil
}

var _ OrderStore = (*MemoryStore)(nil)
