package store

import (
	"context"
	"errors"
	"time"

	"boxshop_back_end/internal/models"
)

var (
	ErrNotFound = errors.New("store: commande introuvable")

	// ErrAlreadyExists : une commande existe déjà pour ce localOrderId.
	ErrAlreadyExists = errors.New("store: commande déjà enregistrée")

	// ErrDuplicateGateway : ce gatewayOrderId est déjà associé à une
	// autre commande locale. Erreur de réconciliation, jamais écrasée
	// silencieusement.
	ErrDuplicateGateway = errors.New("store: gatewayOrderId déjà associé à une autre commande")

	// ErrStaleStatus : le statut courant ne correspond plus à celui
	// attendu par la mise à jour conditionnelle. L'appelant relit et
	// réévalue la transition.
	ErrStaleStatus = errors.New("store: statut modifié entre-temps")
)

// OrderStore est la source de vérité des commandes locales.
//
// UpdateStatus est un compare-and-swap : la transition n'est appliquée
// que si le statut courant vaut encore fromStatus, ce qui sérialise les
// notifications concurrentes portant sur une même commande.
type OrderStore interface {
	Insert(ctx context.Context, order models.Order) error
	GetByLocalID(ctx context.Context, localID string) (*models.Order, error)
	GetByGatewayID(ctx context.Context, gatewayID string) (*models.Order, error)
	UpdateStatus(ctx context.Context, localID, fromStatus, toStatus string, updatedAt time.Time, paidAt *time.Time) error
	ListRecent(ctx context.Context, limit int) ([]models.Order, error)
}
