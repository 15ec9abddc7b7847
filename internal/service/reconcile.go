package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"boxshop_back_end/internal/cache"
	"boxshop_back_end/internal/metrics"
	"boxshop_back_end/internal/models"
	"boxshop_back_end/internal/store"
)

// Reconciler applique les notifications de statut PayU aux commandes
// locales. La livraison est at-least-once et non ordonnée : tout le
// travail ici consiste à n'accepter que les transitions qui avancent.
type Reconciler struct {
	store   store.OrderStore
	cache   *cache.OrderCache
	metrics *metrics.Registry

	// onCompleted est appelé après une transition vers COMPLETED
	// (envoi de l'e-mail de confirmation). Peut être nil.
	onCompleted func(models.Order)
}

func NewReconciler(st store.OrderStore, oc *cache.OrderCache, reg *metrics.Registry, onCompleted func(models.Order)) *Reconciler {
	return &Reconciler{store: st, cache: oc, metrics: reg, onCompleted: onCompleted}
}

type notification struct {
	Orders []notificationOrder `json:"orders"`
}

type notificationOrder struct {
	OrderID    string `json:"orderId"`
	ExtOrderID string `json:"extOrderId"`
	Status     string `json:"status"`
}

// maxCASRetries borne les relectures quand deux notifications sur la
// même commande se croisent.
const maxCASRetries = 3

// HandleNotification traite une notification brute. L'erreur retournée
// sert uniquement à la journalisation interne : le endpoint acquitte
// toujours 200 à la passerelle, sinon ses réessais amplifieraient un
// bug local.
func (r *Reconciler) HandleNotification(ctx context.Context, raw []byte) error {
	var notif notification
	if err := json.Unmarshal(raw, &notif); err != nil {
		r.metrics.NotificationsMalformed.Inc()
		return fmt.Errorf("reconciler: notification illisible: %w", err)
	}

	// Premier (et en pratique unique) enregistrement de statut.
	// Aucun enregistrement : on acquitte sans rien faire.
	if len(notif.Orders) == 0 {
		log.Println("⚠️ Notification sans commande — acquittée sans traitement")
		return nil
	}
	incoming := notif.Orders[0]

	order, err := r.store.GetByGatewayID(ctx, incoming.OrderID)
	if errors.Is(err, store.ErrNotFound) {
		// Notification hors-bande ou périmée (autre environnement,
		// doublon tardif) : pas une erreur, mais on la compte.
		r.metrics.NotificationsUnknown.Inc()
		log.Printf("⚠️ Notification pour commande passerelle inconnue %s — ignorée", incoming.OrderID)
		return nil
	}
	if err != nil {
		r.metrics.NotificationsStoreErrors.Inc()
		return fmt.Errorf("reconciler: lecture commande %s: %w", incoming.OrderID, err)
	}

	for attempt := 0; attempt < maxCASRetries; attempt++ {
		// Doublon du même statut : no-op, on n'y touche pas.
		if order.Status == incoming.Status {
			r.metrics.NotificationsDuplicate.Inc()
			log.Printf("🔁 Notification dupliquée %s (%s) — ignorée", order.LocalOrderID, incoming.Status)
			return nil
		}

		// Un statut terminal n'est jamais écrasé, et on ne recule pas.
		if models.IsTerminalStatus(order.Status) ||
			models.StatusRank(incoming.Status) <= models.StatusRank(order.Status) {
			r.metrics.NotificationsOutOfOrder.Inc()
			log.Printf("⚠️ Notification hors séquence %s: %s → %s — rejetée",
				order.LocalOrderID, order.Status, incoming.Status)
			return nil
		}

		now := time.Now()
		var paidAt *time.Time
		if incoming.Status == models.StatusCompleted {
			paidAt = &now
		}

		err := r.store.UpdateStatus(ctx, order.LocalOrderID, order.Status, incoming.Status, now, paidAt)
		if errors.Is(err, store.ErrStaleStatus) {
			// Une notification concurrente est passée avant nous :
			// relire et réévaluer la transition.
			order, err = r.store.GetByLocalID(ctx, order.LocalOrderID)
			if err != nil {
				r.metrics.NotificationsStoreErrors.Inc()
				return fmt.Errorf("reconciler: relecture %s: %w", incoming.OrderID, err)
			}
			continue
		}
		if err != nil {
			r.metrics.NotificationsStoreErrors.Inc()
			return fmt.Errorf("reconciler: mise à jour %s: %w", order.LocalOrderID, err)
		}

		r.metrics.NotificationsApplied.Inc()
		log.Printf("✅ Commande %s: %s → %s", order.LocalOrderID, order.Status, incoming.Status)

		if r.cache != nil {
			r.cache.Invalidate(ctx, order.LocalOrderID)
		}

		if incoming.Status == models.StatusCompleted && r.onCompleted != nil {
			updated := *order
			updated.Status = incoming.Status
			updated.UpdatedAt = now
			updated.PaidAt = paidAt
			r.onCompleted(updated)
		}
		return nil
	}

	return fmt.Errorf("reconciler: transitions concurrentes persistantes pour %s", incoming.OrderID)
}
