package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry expose les compteurs du cycle de vie des commandes. Les
// notifications obsolètes ou inconnues sont comptées plutôt
// qu'alertées : le seuil d'alerte est un choix d'exploitation, pas du
// code.
type Registry struct {
	reg *prometheus.Registry

	OrdersCreated            prometheus.Counter
	NotificationsApplied     prometheus.Counter
	NotificationsDuplicate   prometheus.Counter
	NotificationsOutOfOrder  prometheus.Counter
	NotificationsUnknown     prometheus.Counter
	NotificationsMalformed   prometheus.Counter
	NotificationsStoreErrors prometheus.Counter
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()

	created := prometheus.NewCounter(prometheus.CounterOpts{Name: "boxshop_orders_created_total"})
	applied := prometheus.NewCounter(prometheus.CounterOpts{Name: "boxshop_notifications_applied_total"})
	duplicate := prometheus.NewCounter(prometheus.CounterOpts{Name: "boxshop_notifications_duplicate_total"})
	outOfOrder := prometheus.NewCounter(prometheus.CounterOpts{Name: "boxshop_notifications_out_of_order_total"})
	unknown := prometheus.NewCounter(prometheus.CounterOpts{Name: "boxshop_notifications_unknown_order_total"})
	malformed := prometheus.NewCounter(prometheus.CounterOpts{Name: "boxshop_notifications_malformed_total"})
	storeErrors := prometheus.NewCounter(prometheus.CounterOpts{Name: "boxshop_notifications_store_errors_total"})

	r.MustRegister(created, applied, duplicate, outOfOrder, unknown, malformed, storeErrors)

	return &Registry{
		reg:                      r,
		OrdersCreated:            created,
		NotificationsApplied:     applied,
		NotificationsDuplicate:   duplicate,
		NotificationsOutOfOrder:  outOfOrder,
		NotificationsUnknown:     unknown,
		NotificationsMalformed:   malformed,
		NotificationsStoreErrors: storeErrors,
	}
}

func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}
