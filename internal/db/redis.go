package db

import (
	"context"
	"log"

	"github.com/redis/go-redis/v9"
)

var rdb *redis.Client

// ConnectRedis establishes a connection to the Redis server. The cache is
// an optimization only, so a failed ping is logged and the client kept;
// callers degrade to cache misses while the server is unreachable.
func ConnectRedis(addr string, dbNum int) {
	rdb = redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   dbNum,
	})

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Printf("Redis ping failed for %s: %v", addr, err)
	}
}

// GetRedis returns the Redis client, nil when Redis is disabled.
func GetRedis() *redis.Client {
	return rdb
}
