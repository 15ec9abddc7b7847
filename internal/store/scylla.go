package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"boxshop_back_end/internal/database"
	"boxshop_back_end/internal/models"

	"github.com/gocql/gocql"
)

// ScyllaStore persiste les commandes dans le keyspace orders.
//
// Deux tables (voir scripts/scylladb_init.cql) :
//   - orders            : la commande, clé local_order_id
//   - orders_by_gateway : index gateway_order_id → local_order_id,
//     inséré IF NOT EXISTS pour garantir l'unicité du gatewayOrderId
//
// Les transitions de statut passent par une LWT (IF status = ?) :
// deux notifications concurrentes sur la même commande ne peuvent pas
// dépasser le contrôle d'état terminal.
type ScyllaStore struct{}

func NewScyllaStore() *ScyllaStore {
	return &ScyllaStore{}
}

func (s *ScyllaStore) Insert(ctx context.Context, order models.Order) error {
	session, err := database.GetOrdersSession()
	if err != nil {
		return err
	}

	cartJSON, err := json.Marshal(order.Cart)
	if err != nil {
		return fmt.Errorf("store: sérialisation panier: %w", err)
	}
	customerJSON, err := json.Marshal(order.Customer)
	if err != nil {
		return fmt.Errorf("store: sérialisation client: %w", err)
	}

	applied, err := session.Query(`INSERT INTO orders
		(local_order_id, gateway_order_id, status, total, amount_minor_units, cart, customer, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?) IF NOT EXISTS`,
		order.LocalOrderID, order.GatewayOrderID, order.Status, order.Total,
		order.AmountMinorUnits, string(cartJSON), string(customerJSON),
		order.CreatedAt, order.UpdatedAt).
		WithContext(ctx).MapScanCAS(map[string]interface{}{})
	if err != nil {
		return err
	}
	if !applied {
		return ErrAlreadyExists
	}

	if order.GatewayOrderID != "" {
		applied, err = session.Query(
			`INSERT INTO orders_by_gateway (gateway_order_id, local_order_id) VALUES (?, ?) IF NOT EXISTS`,
			order.GatewayOrderID, order.LocalOrderID).
			WithContext(ctx).MapScanCAS(map[string]interface{}{})
		if err != nil {
			return err
		}
		if !applied {
			return ErrDuplicateGateway
		}
	}

	return nil
}

func (s *ScyllaStore) GetByLocalID(ctx context.Context, localID string) (*models.Order, error) {
	session, err := database.GetOrdersSession()
	if err != nil {
		return nil, err
	}

	var (
		order                  models.Order
		cartJSON, customerJSON string
		paidAt                 time.Time
	)
	err = session.Query(`SELECT local_order_id, gateway_order_id, status, total, amount_minor_units, cart, customer, created_at, updated_at, paid_at
		FROM orders WHERE local_order_id = ?`, localID).
		WithContext(ctx).Scan(
		&order.LocalOrderID, &order.GatewayOrderID, &order.Status, &order.Total,
		&order.AmountMinorUnits, &cartJSON, &customerJSON,
		&order.CreatedAt, &order.UpdatedAt, &paidAt)
	if errors.Is(err, gocql.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(cartJSON), &order.Cart); err != nil {
		return nil, fmt.Errorf("store: désérialisation panier: %w", err)
	}
	if err := json.Unmarshal([]byte(customerJSON), &order.Customer); err != nil {
		return nil, fmt.Errorf("store: désérialisation client: %w", err)
	}
	if !paidAt.IsZero() {
		order.PaidAt = &paidAt
	}

	return &order, nil
}

func (s *ScyllaStore) GetByGatewayID(ctx context.Context, gatewayID string) (*models.Order, error) {
	session, err := database.GetOrdersSession()
	if err != nil {
		return nil, err
	}

	var localID string
	err = session.Query(`SELECT local_order_id FROM orders_by_gateway WHERE gateway_order_id = ?`, gatewayID).
		WithContext(ctx).Scan(&localID)
	if errors.Is(err, gocql.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return s.GetByLocalID(ctx, localID)
}

func (s *ScyllaStore) UpdateStatus(ctx context.Context, localID, fromStatus, toStatus string, updatedAt time.Time, paidAt *time.Time) error {
	session, err := database.GetOrdersSession()
	if err != nil {
		return err
	}

	var query *gocql.Query
	if paidAt != nil {
		query = session.Query(`UPDATE orders SET status = ?, updated_at = ?, paid_at = ?
			WHERE local_order_id = ? IF status = ?`,
			toStatus, updatedAt, *paidAt, localID, fromStatus)
	} else {
		query = session.Query(`UPDATE orders SET status = ?, updated_at = ?
			WHERE local_order_id = ? IF status = ?`,
			toStatus, updatedAt, localID, fromStatus)
	}

	previous := map[string]interface{}{}
	applied, err := query.WithContext(ctx).MapScanCAS(previous)
	if err != nil {
		return err
	}
	if !applied {
		// La LWT n'a rien appliqué : soit la ligne n'existe pas, soit
		// le statut a changé sous nos pieds.
		if len(previous) == 0 {
			return ErrNotFound
		}
		return ErrStaleStatus
	}
	return nil
}

// ListRecent retourne les dernières commandes pour le back-office.
// L'ordre entre partitions n'est pas garanti côté Scylla, on trie donc
// en mémoire après lecture.
func (s *ScyllaStore) ListRecent(ctx context.Context, limit int) ([]models.Order, error) {
	session, err := database.GetOrdersSession()
	if err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = 50
	}

	iter := session.Query(`SELECT local_order_id, gateway_order_id, status, total, amount_minor_units, cart, customer, created_at, updated_at, paid_at
		FROM orders LIMIT ?`, limit).
		WithContext(ctx).Iter()

	var orders []models.Order
	var (
		order                  models.Order
		cartJSON, customerJSON string
		paidAt                 time.Time
	)
	for iter.Scan(&order.LocalOrderID, &order.GatewayOrderID, &order.Status, &order.Total,
		&order.AmountMinorUnits, &cartJSON, &customerJSON,
		&order.CreatedAt, &order.UpdatedAt, &paidAt) {

		if err := json.Unmarshal([]byte(cartJSON), &order.Cart); err != nil {
			log.Printf("⚠️ Panier illisible pour %s: %v", order.LocalOrderID, err)
		}
		if err := json.Unmarshal([]byte(customerJSON), &order.Customer); err != nil {
			log.Printf("⚠️ Client illisible pour %s: %v", order.LocalOrderID, err)
		}
		if !paidAt.IsZero() {
			p := paidAt
			order.PaidAt = &p
		}
		orders = append(orders, order)
		order = models.Order{}
		paidAt = time.Time{}
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}

	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})

	return orders, nil
}

var _ OrderStore = (*ScyllaStore)(nil)
