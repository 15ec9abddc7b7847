package middleware

import (
	"context"
	"net/http"
	"time"

	"boxshop_back_end/internal/database"

	"github.com/gin-gonic/gin"
)

const (
	// Limite de créations de commande par adresse IP et par minute.
	OrderMaxRequests = 20
	OrderCooldown    = 1 * time.Minute
)

// OrderRateLimit limite les créations de commande par IP. Sans Redis
// (tests, dev), la limite est désactivée.
func OrderRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if database.Redis == nil {
			c.Next()
			return
		}

		ctx := context.Background()
		key := "order_attempts:" + c.ClientIP()

		attempts, _ := database.Redis.Get(ctx, key).Int()
		if attempts >= OrderMaxRequests {
			ttl := database.Redis.TTL(ctx, key).Val()
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "Trop de tentatives. Réessayez dans quelques instants",
				"retry_after": int(ttl.Seconds()),
			})
			c.Abort()
			return
		}

		pipe := database.Redis.TxPipeline()
		pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, OrderCooldown)
		if _, err := pipe.Exec(ctx); err != nil {
			// Redis indisponible : on laisse passer plutôt que de
			// bloquer les ventes.
			c.Next()
			return
		}

		c.Next()
	}
}
