package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/gomodule/redigo/redis"
)

const redisNS = "portal:snapshot:"

// Redis keeps each slot as a plain string key.
type Redis struct {
	redis redis.Conn
}

func NewRedis(conn redis.Conn) *Redis {
	return &Redis{redis: conn}
}

func (r *Redis) Load(_ context.Context, slot Slot) ([]byte, error) {
	data, err := redis.Bytes(r.redis.Do("GET", redisNS+string(slot)))
	if err != nil {
		if errors.Is(err, redis.ErrNil) {
			return nil, nil
		}
		return nil, fmt.Errorf("store/redis: failed GET %s: %w", slot, err)
	}
	return data, nil
}

func (r *Redis) Save(_ context.Context, slot Slot, data []byte) error {
	if _, err := r.redis.Do("SET", redisNS+string(slot), data); err != nil {
		return fmt.Errorf("store/redis: failed SET %s: %w", slot, err)
	}
	return nil
}
