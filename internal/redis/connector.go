// Package redis opens the optional client behind the shared public page cache.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/pulsepage/internal/logger"
)

// ErrDisabled is returned by New when no address is configured. Callers run
// without the public cache in that case.
var ErrDisabled = errors.New("redis disabled")

// ConnectOptions defines the client settings and the startup retry policy.
type ConnectOptions struct {
	Addr         string        // ex: "localhost:6379"
	User         string
	Password     string
	RedisDB      int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolSize     int

	ConnectTimeout time.Duration // budget for all ping attempts
	RetryInterval  time.Duration // first wait, doubled after each failure
	MaxWait        time.Duration // cap on the wait between attempts
	PingTimeout    time.Duration // per attempt
	WarnThreshold  int           // attempts logged at warn before switching to error
}

func (o ConnectOptions) validate() error {
	durations := []struct {
		name string
		v    time.Duration
	}{
		{"ConnectTimeout", o.ConnectTimeout},
		{"RetryInterval", o.RetryInterval},
		{"MaxWait", o.MaxWait},
		{"PingTimeout", o.PingTimeout},
	}
	for _, d := range durations {
		if d.v <= 0 {
			return fmt.Errorf("%s must be > 0, got %v", d.name, d.v)
		}
	}
	if o.PoolSize < 0 {
		return fmt.Errorf("PoolSize must be >= 0, got %d", o.PoolSize)
	}
	if o.WarnThreshold < 0 {
		return fmt.Errorf("WarnThreshold must be >= 0, got %d", o.WarnThreshold)
	}
	return nil
}

func (o ConnectOptions) clientOptions() *redis.Options {
	return &redis.Options{
		Addr:         o.Addr,
		Username:     o.User,
		Password:     o.Password,
		DB:           o.RedisDB,
		DialTimeout:  o.DialTimeout,
		ReadTimeout:  o.ReadTimeout,
		WriteTimeout: o.WriteTimeout,
		PoolSize:     o.PoolSize,
	}
}

// New creates a client and pings it with exponential backoff until
// ConnectTimeout elapses or ctx is cancelled. An empty Addr returns ErrDisabled.
func New(ctx context.Context, opts ConnectOptions, log logger.Logger) (*redis.Client, error) {
	if opts.Addr == "" {
		return nil, ErrDisabled
	}
	if err := opts.validate(); err != nil {
		log.Error("invalid redis options", logger.Error(err))
		return nil, err
	}

	c := &connector{
		client: redis.NewClient(opts.clientOptions()),
		opts:   opts,
		log:    log.With(logger.String("addr", opts.Addr)),
	}
	if err := c.waitReady(ctx); err != nil {
		_ = c.client.Close()
		return nil, err
	}
	return c.client, nil
}

type connector struct {
	client *redis.Client
	opts   ConnectOptions
	log    logger.Logger
}

func (c *connector) ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, c.opts.PingTimeout)
	defer cancel()
	return c.client.Ping(pingCtx).Err()
}

// waitReady blocks until the server answers a ping or the budget runs out.
func (c *connector) waitReady(parent context.Context) error {
	ctx, cancel := context.WithTimeout(parent, c.opts.ConnectTimeout)
	defer cancel()

	c.log.Info("connecting to redis public cache", logger.Duration("timeout", c.opts.ConnectTimeout))
	started := time.Now()
	wait := c.opts.RetryInterval

	for attempt := 1; ; attempt++ {
		err := c.ping(ctx)
		if err == nil {
			c.logConnected(attempt, time.Since(started))
			return nil
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			if errors.Is(parent.Err(), context.Canceled) {
				return fmt.Errorf("redis connection to %s cancelled: %w", c.opts.Addr, parent.Err())
			}
			c.log.Warn("redis unreachable, giving up",
				logger.Int("attempts", attempt),
				logger.Error(err))
			return fmt.Errorf("redis unavailable at %s after %d attempts (timeout: %v): %w",
				c.opts.Addr, attempt, c.opts.ConnectTimeout, err)
		case <-timer.C:
		}

		c.logRetry(attempt, wait, err)
		wait = nextWait(wait, c.opts.MaxWait)
	}
}

func (c *connector) logConnected(attempts int, elapsed time.Duration) {
	if attempts == 1 {
		c.log.Info("connected to redis")
		return
	}
	c.log.Info("connected to redis after retry",
		logger.Int("attempts", attempts),
		logger.Duration("elapsed", elapsed))
}

func (c *connector) logRetry(attempt int, wait time.Duration, err error) {
	fields := []logger.Field{
		logger.Int("attempt", attempt),
		logger.Duration("next_retry_in", wait),
		logger.Error(err),
	}
	if attempt <= c.opts.WarnThreshold {
		c.log.Warn("redis ping failed, retrying", fields...)
		return
	}
	c.log.Error("redis still unavailable, retrying", fields...)
}

// nextWait doubles the wait up to limit.
func nextWait(wait, limit time.Duration) time.Duration {
	wait *= 2
	if wait > limit {
		return limit
	}
	return wait
}
