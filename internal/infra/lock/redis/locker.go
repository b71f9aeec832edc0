package redis

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"hotelbook/internal/app/policies"
	"hotelbook/internal/domain/shared/apperr"
)

var ErrLockBusy = apperr.New(apperr.KindConflict, "lock: resource is busy, retry shortly")

// releaseScript deletes the key only while it still holds our token.
const releaseScript = `if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`

// Locker is a single-instance Redis lock (SET NX PX). It fails open: when Redis
// is unreachable the caller proceeds and the store constraints decide.
type Locker struct {
	client  goredis.UniversalClient
	ttl     time.Duration
	wait    time.Duration
	poll    time.Duration
	prefix  string
	logger  *slog.Logger
	release *goredis.Script
}

type Option func(*Locker)

func WithWait(d time.Duration) Option { return func(l *Locker) { l.wait = d } }

func WithPrefix(p string) Option { return func(l *Locker) { l.prefix = p } }

func WithLogger(logger *slog.Logger) Option { return func(l *Locker) { l.logger = logger } }

func NewLocker(client goredis.UniversalClient, ttl time.Duration, opts ...Option) *Locker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	l := &Locker{
		client:  client,
		ttl:     ttl,
		wait:    3 * time.Second,
		poll:    50 * time.Millisecond,
		prefix:  "hotelbook:lock:",
		logger:  slog.Default(),
		release: goredis.NewScript(releaseScript),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// NewClient dials Redis and checks the connection.
func NewClient(ctx context.Context, addr, password string) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:         addr,
		Password:     password,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

func (l *Locker) Lock(ctx context.Context, key string) (func(), error) {
	full := l.prefix + key
	token := uuid.NewString()
	deadline := time.Now().Add(l.wait)
	for {
		ok, err := l.client.SetNX(ctx, full, token, l.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			l.logger.Warn("redis lock unavailable, continuing without it", "key", full, "error", err)
			return func() {}, nil
		}
		if ok {
			return l.releaser(full, token), nil
		}
		if time.Now().After(deadline) {
			return nil, ErrLockBusy
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.poll):
		}
	}
}

func (l *Locker) releaser(key, token string) func() {
	done := false
	return func() {
		if done {
			return
		}
		done = true
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := l.release.Run(ctx, l.client, []string{key}, token).Err(); err != nil && err != goredis.Nil {
			l.logger.Warn("redis lock release failed", "key", key, "error", err)
		}
	}
}

var _ policies.Locker = (*Locker)(nil)
