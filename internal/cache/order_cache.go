package cache

import (
	"context"
	"encoding/json"
	"time"

	"boxshop_back_end/internal/models"
	"boxshop_back_end/internal/store"

	"github.com/redis/go-redis/v9"
)

const OrderCacheTTL = 5 * time.Minute

// OrderCache : lecture des commandes via Redis, repli sur le store.
// Le client Redis peut être nil (dev sans Redis, tests) — on lit alors
// directement le store.
type OrderCache struct {
	redis *redis.Client
	store store.OrderStore
}

func NewOrderCache(rdb *redis.Client, st store.OrderStore) *OrderCache {
	return &OrderCache{redis: rdb, store: st}
}

// GetOrder récupère une commande depuis Redis ou le store.
func (c *OrderCache) GetOrder(ctx context.Context, localID string) (*models.Order, error) {
	key := "order:" + localID

	// 1. Essayer le cache Redis
	if c.redis != nil {
		data, err := c.redis.Get(ctx, key).Result()
		if err == nil {
			var order models.Order
			if json.Unmarshal([]byte(data), &order) == nil {
				return &order, nil
			}
		}
	}

	// 2. Récupérer depuis le store
	order, err := c.store.GetByLocalID(ctx, localID)
	if err != nil {
		return nil, err
	}

	// 3. Mettre en cache
	if c.redis != nil {
		jsonData, _ := json.Marshal(order)
		c.redis.Set(ctx, key, jsonData, OrderCacheTTL)
	}

	return order, nil
}

// Invalidate retire une commande du cache, après chaque changement de
// statut.
func (c *OrderCache) Invalidate(ctx context.Context, localID string) {
	if c.redis == nil {
		return
	}
	c.redis.Del(ctx, "order:"+localID)
}
