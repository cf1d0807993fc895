package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"tapbridge/internal/application/bridge/nonce"
	apperrors "tapbridge/internal/shared/errors"
	"tapbridge/internal/shared/logger"
)

const nonceKeyPrefix = "bridge:nonce:"

// PendingNonceSource supplies the chain's authoritative pending nonce when
// the lease counter is cold.
type PendingNonceSource interface {
	GetPendingNonce(ctx context.Context, address string) (uint64, error)
}

// RedisNonceAllocator leases transaction nonces through an atomic redis
// counter. The counter is seeded from the chain on first use and every
// lease is a single INCR, so concurrent callers can never observe the same
// value.
type RedisNonceAllocator struct {
	client   *redis.Client
	source   PendingNonceSource
	leaseTTL time.Duration
	logger   logger.Interface
}

var _ nonce.Allocator = (*RedisNonceAllocator)(nil)

func NewRedisNonceAllocator(client *redis.Client, source PendingNonceSource, leaseTTL time.Duration, log logger.Interface) *RedisNonceAllocator {
	if leaseTTL <= 0 {
		leaseTTL = time.Hour
	}
	return &RedisNonceAllocator{
		client:   client,
		source:   source,
		leaseTTL: leaseTTL,
		logger:   log,
	}
}

// Next leases the next nonce for the address. A cold counter plus an
// unreachable chain fails with ErrNonceUnavailable; the TTL bounds how long
// a counter can drift from the chain after the process stops broadcasting.
func (a *RedisNonceAllocator) Next(ctx context.Context, address string) (uint64, error) {
	key := nonceKeyPrefix + strings.ToLower(address)

	exists, err := a.client.Exists(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: counter probe: %v", apperrors.ErrNonceUnavailable, err)
	}

	if exists == 0 {
		pending, err := a.source.GetPendingNonce(ctx, address)
		if err != nil {
			return 0, fmt.Errorf("%w: cold counter and chain unreachable: %v", apperrors.ErrNonceUnavailable, err)
		}

		// Store pending-1 so the INCR below yields exactly the chain's
		// pending nonce. SetNX keeps a concurrent seeder from clobbering
		// a counter that already advanced.
		seeded, err := a.client.SetNX(ctx, key, int64(pending)-1, a.leaseTTL).Result()
		if err != nil {
			return 0, fmt.Errorf("%w: counter seed: %v", apperrors.ErrNonceUnavailable, err)
		}
		if seeded {
			a.logger.Infow("seeded nonce counter", "address", address, "pending_nonce", pending)
		}
	}

	n, err := a.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: counter increment: %v", apperrors.ErrNonceUnavailable, err)
	}

	if err := a.client.Expire(ctx, key, a.leaseTTL).Err(); err != nil {
		a.logger.Warnw("failed to refresh nonce counter ttl", "address", address, "error", err)
	}

	return uint64(n), nil
}

// Reset drops the counter so the next lease reseeds from the chain. Used
// after a rejected broadcast indicates counter drift.
func (a *RedisNonceAllocator) Reset(ctx context.Context, address string) error {
	key := nonceKeyPrefix + strings.ToLower(address)
	if err := a.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to reset nonce counter: %w", err)
	}
	return nil
}
