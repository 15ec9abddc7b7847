package models

import (
	"math"
	"time"
)

// Statuts de commande tels que renvoyés par PayU.
const (
	StatusNew       = "NEW"
	StatusPending   = "PENDING"
	StatusWaiting   = "WAITING_FOR_CONFIRMATION"
	StatusCompleted = "COMPLETED"
	StatusCanceled  = "CANCELED"
)

// OrderItem est une ligne du panier, figée à la création de la commande.
type OrderItem struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"qty"`
}

// Customer reprend les champs du formulaire de commande côté boutique
// (les clés JSON sont celles envoyées par le front).
type Customer struct {
	Email    string `json:"email"`
	Phone    string `json:"telefon"`
	FullName string `json:"imieNazwisko"`
}

type Order struct {
	LocalOrderID     string      `json:"localOrderId"`
	GatewayOrderID   string      `json:"gatewayOrderId,omitempty"`
	Status           string      `json:"status"`
	Total            float64     `json:"total"`
	AmountMinorUnits int64       `json:"amountMinorUnits"`
	Cart             []OrderItem `json:"cart"`
	Customer         Customer    `json:"customer"`
	CreatedAt        time.Time   `json:"createdAt"`
	UpdatedAt        time.Time   `json:"updatedAt"`
	PaidAt           *time.Time  `json:"paidAt,omitempty"`
}

// MinorUnits convertit un montant en zloty vers des grosze entiers.
// Conversion à sens unique : calculée une seule fois à la création
// de la commande et stockée, jamais recalculée depuis le total flottant.
func MinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// IsTerminalStatus indique si le statut est final : plus aucune
// notification ne peut l'écraser.
func IsTerminalStatus(status string) bool {
	return status == StatusCompleted || status == StatusCanceled
}

// StatusRank ordonne les statuts pour n'accepter que les transitions
// qui avancent. Un statut inconnu de la passerelle est traité comme
// intermédiaire.
func StatusRank(status string) int {
	switch status {
	case StatusNew, StatusPending:
		return 1
	case StatusCompleted, StatusCanceled:
		return 3
	default:
		return 2
	}
}
