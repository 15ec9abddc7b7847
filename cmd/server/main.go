package main

import (
	"context"
	"log"

	"boxshop_back_end/internal/cache"
	"boxshop_back_end/internal/config"
	"boxshop_back_end/internal/database"
	"boxshop_back_end/internal/handlers/order"
	"boxshop_back_end/internal/metrics"
	"boxshop_back_end/internal/models"
	"boxshop_back_end/internal/payu"
	"boxshop_back_end/internal/routes"
	"boxshop_back_end/internal/service"
	"boxshop_back_end/internal/store"
	"boxshop_back_end/internal/utils"

	"github.com/gin-gonic/gin"
)

func main() {
	config.Load()
	cfg := config.New()

	if cfg.PayU.PosID == "" || cfg.PayU.ClientID == "" || cfg.PayU.ClientSecret == "" {
		log.Fatal("❌ Impossible d'initialiser PayU : identifiants manquants")
	}
	if cfg.PayU.SecondKey == "" {
		log.Println("⚠️ PAYU_SECOND_KEY manquant — les notifications ne seront pas vérifiées")
	}
	log.Println("✅ PayU initialisé")

	database.ConnectDatabases()

	// ✅ Pré-chauffer le cache Redis
	warmupRedisCache()

	orderStore := store.NewScyllaStore()
	orderCache := cache.NewOrderCache(database.Redis, orderStore)
	gateway := payu.NewClient(cfg.PayU)
	registry := metrics.NewRegistry()

	orderService := service.NewOrderService(gateway, orderStore, registry)
	reconciler := service.NewReconciler(orderStore, orderCache, registry, sendConfirmation)

	h := order.NewHandler(orderService, orderCache, orderStore)
	nh := order.NewNotifyHandler(reconciler, cfg.PayU.SecondKey)

	r := gin.Default()
	routes.RegisterRoutes(r, h, nh, registry, cfg.JWTSecret)

	log.Println("🚀 Serveur BoxShop lancé sur le port", cfg.Port)
	r.Run(":" + cfg.Port)
}

// sendConfirmation envoie l'e-mail de confirmation après un paiement
// COMPLETED, hors du chemin de la requête.
func sendConfirmation(o models.Order) {
	if o.Customer.Email == "" {
		log.Printf("⚠️ Pas d'e-mail client pour %s — confirmation non envoyée", o.LocalOrderID)
		return
	}

	go func() {
		html := utils.GenerateOrderConfirmationHTML(o)
		if err := utils.SendConfirmationEmail(o.Customer.Email, "Potwierdzenie zamówienia "+o.LocalOrderID, html); err != nil {
			log.Println("❌ Erreur envoi e-mail confirmation :", err)
		} else {
			log.Println("📧 E-mail de confirmation envoyé à", o.Customer.Email)
		}
	}()
}

// warmupRedisCache pré-chauffe le cache Redis pour éviter la latence du premier appel
func warmupRedisCache() {
	ctx := context.Background()
	if err := database.Redis.Ping(ctx).Err(); err == nil {
		log.Println("✅ Cache Redis pré-chauffé")
	}
}
