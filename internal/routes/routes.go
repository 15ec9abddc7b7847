package routes

import (
	"net/http"
	"os"
	"strings"
	"time"

	"boxshop_back_end/internal/handlers/order"
	"boxshop_back_end/internal/metrics"
	"boxshop_back_end/internal/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine, h *order.Handler, nh *order.NotifyHandler, reg *metrics.Registry, jwtSecret string) {
	origins := []string{"*"}
	if v := os.Getenv("FRONTEND_ORIGINS"); v != "" {
		origins = strings.Split(v, ",")
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(reg.Handler()))

	api := r.Group("/api")
	api.POST("/orders", middleware.OrderRateLimit(), h.Create)
	api.GET("/orders/:id", h.GetByID)

	// Endpoint de notification PayU — toujours 200, voir NotifyHandler.
	api.POST("/payu/notify", nh.Notify)

	admin := api.Group("/admin", middleware.AuthRequired(jwtSecret), middleware.RequireAdmin())
	admin.GET("/orders", h.ListAdmin)
}
