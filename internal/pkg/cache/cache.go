package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/redis/go-redis/v9"

	"github.com/ManuelReschke/EventFox/internal/pkg/env"
)

var client *redis.Client

// Options are the connection settings shared by the monitor store and the
// rate limiter storage.
type Options struct {
	Host     string
	Port     int
	Password string
}

func OptionsFromEnv() Options {
	port, err := strconv.Atoi(env.GetEnv("CACHE_PORT", "6379"))
	if err != nil {
		port = 6379
	}
	return Options{
		Host:     env.GetEnv("CACHE_HOST", "localhost"),
		Port:     port,
		Password: env.GetEnv("CACHE_PASSWORD", ""),
	}
}

// SetupCache initializes the connection to the Redis compatible cache server
func SetupCache() {
	opts := OptionsFromEnv()
	client = redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", opts.Host, opts.Port),
		Password: opts.Password,
		DB:       0,
	})

	if err := Ping(context.Background()); err != nil {
		log.Warnf("[Cache] Could not connect to cache: %v", err)
	} else {
		log.Infof("[Cache] Connected to %s:%d", opts.Host, opts.Port)
	}
}

// GetClient returns the Redis client instance
func GetClient() *redis.Client {
	if client == nil {
		SetupCache()
	}
	return client
}

// Ping checks the connection with a short timeout.
func Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return GetClient().Ping(ctx).Err()
}
