package router

import (
	"context"
	"net"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/storage/redis"

	"github.com/ManuelReschke/PaymentBot/internal/pkg/cache"
	"github.com/ManuelReschke/PaymentBot/internal/pkg/env"
)

// NewLimiterStorage returns a Redis storage for the rate limiter on the same server as
// the cache, or nil when the cache is not reachable
func NewLimiterStorage() fiber.Storage {
	cacheClient := cache.GetClient()
	if cacheClient == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	// redis.New panics when the server is down
	if err := cacheClient.Ping(ctx).Err(); err != nil {
		log.Warnf("[Router] Redis not reachable, rate limiter keeps its state in memory: %v", err)
		return nil
	}

	host := "localhost"
	port := 6379
	password := env.GetEnv("CACHE_PASSWORD", "")
	addr := cacheClient.Options().Addr
	if h, p, err := net.SplitHostPort(addr); err == nil {
		host = h
		if v, err := strconv.Atoi(p); err == nil {
			port = v
		}
	}
	if p := cacheClient.Options().Password; p != "" {
		password = p
	}

	// separate database, the cache uses DB 0
	return redis.New(redis.Config{
		Host:     host,
		Port:     port,
		Password: password,
		Database: 1,
		Reset:    false,
	})
}
