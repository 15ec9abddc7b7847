package order

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"boxshop_back_end/internal/cache"
	"boxshop_back_end/internal/service"
	"boxshop_back_end/internal/store"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *service.OrderService
	cache   *cache.OrderCache
	store   store.OrderStore
}

func NewHandler(svc *service.OrderService, oc *cache.OrderCache, st store.OrderStore) *Handler {
	return &Handler{service: svc, cache: oc, store: st}
}

// Create reçoit la commande du front et renvoie l'URL de redirection
// vers la page de paiement hébergée.
func (h *Handler) Create(c *gin.Context) {
	var req service.PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Requête invalide"})
		return
	}

	res, err := h.service.PlaceOrder(c.Request.Context(), &req)
	if errors.Is(err, service.ErrInvalidRequest) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Panier vide ou total manquant"})
		return
	}
	if err != nil {
		// Détail complet dans les logs, message générique au client.
		log.Printf("❌ Création commande échouée: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lors de la création du paiement"})
		return
	}

	c.JSON(http.StatusOK, res)
}

// GetByID renvoie une commande — la page de remerciement s'en sert
// pour afficher le statut du paiement.
func (h *Handler) GetByID(c *gin.Context) {
	localID := c.Param("id")

	order, err := h.cache.GetOrder(c.Request.Context(), localID)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Commande introuvable"})
		return
	}
	if err != nil {
		log.Printf("❌ Lecture commande %s: %v", localID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur récupération commande"})
		return
	}

	c.JSON(http.StatusOK, order)
}

// ListAdmin renvoie les dernières commandes pour le back-office.
func (h *Handler) ListAdmin(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 {
		limit = 50
	}

	orders, err := h.store.ListRecent(c.Request.Context(), limit)
	if err != nil {
		log.Printf("❌ Listing commandes: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur récupération commandes"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"orders": orders})
}
