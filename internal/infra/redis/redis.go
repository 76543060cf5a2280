package redis

import (
	"fmt"

	radix "github.com/mediocregopher/radix/v3"

	"github.com/SoufianeAbk/CrunchyRolls-sub000/internal/config"
)

// New builds a Redis connection pool. Redis is optional infrastructure
// here: callers keep working with a nil client, they just lose the
// cross-process sync locks.
func New(cfg *config.RedisConfig) (radix.Client, error) {
	pool, err := radix.NewPool("tcp", cfg.Addr, 10)
	if err != nil {
		return nil, fmt.Errorf("connect redis %q: %w", cfg.Addr, err)
	}
	return pool, nil
}
