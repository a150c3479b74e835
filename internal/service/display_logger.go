package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/akylbek/payment-system/payment-config/internal/interfaces"
	"github.com/akylbek/payment-system/payment-config/internal/models"
	"github.com/akylbek/payment-system/payment-config/internal/telemetry"
)

const (
	DefaultDisplayLogLimit = 1200

	// keys outlive their window a little so late pollers still hit the cache
	dedupGrace = 5 * time.Minute
)

// DisplayKey identifies one displayed window for one user.
type DisplayKey struct {
	UserID    string
	SetID     string
	StartsAt  time.Time
	ExpiresAt time.Time
}

func (k DisplayKey) String() string {
	return strings.Join([]string{
		k.UserID,
		k.SetID,
		k.StartsAt.UTC().Format(time.RFC3339Nano),
		k.ExpiresAt.UTC().Format(time.RFC3339Nano),
	}, "|")
}

// DisplayLogger writes at most one audit entry per (user, set, window end).
type DisplayLogger struct {
	repo  interfaces.DisplayLogRepository
	cache interfaces.DedupCache
	limit int
	now   Clock

	mu sync.Mutex
}

func NewDisplayLogger(repo interfaces.DisplayLogRepository, cache interfaces.DedupCache, limit int, clock Clock) *DisplayLogger {
	if clock == nil {
		clock = systemClock
	}
	if cache == nil {
		cache = NewMemoryDedupCache(clock)
	}
	if limit <= 0 {
		limit = DefaultDisplayLogLimit
	}
	return &DisplayLogger{repo: repo, cache: cache, limit: limit, now: clock}
}

// LogDisplay records that payload was shown to userID. It reports whether a
// new entry was written.
func (l *DisplayLogger) LogDisplay(ctx context.Context, payload *models.ActivePaymentPayload, userID string) (bool, error) {
	if payload == nil {
		return false, nil
	}
	ctx, span := telemetry.Tracer.Start(ctx, "DisplayLogger.LogDisplay")
	defer span.End()

	key := DisplayKey{
		UserID:    userID,
		SetID:     payload.SetID,
		StartsAt:  payload.StartsAt,
		ExpiresAt: payload.ExpiresAt,
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	logged, err := l.HasLogged(ctx, key)
	if err != nil {
		return false, err
	}
	if logged {
		telemetry.DisplayLogs.WithLabelValues("deduplicated").Inc()
		return false, nil
	}

	entry := models.PaymentDisplayLog{
		ID:        newID("LOG"),
		UserID:    userID,
		SetID:     payload.SetID,
		Scope:     payload.Scope,
		ShownAt:   normalizeInstant(l.now()),
		ExpiresAt: payload.ExpiresAt,
		Context:   models.DisplayContext,
	}
	err = l.repo.Append(ctx, entry, l.limit)
	if errors.Is(err, interfaces.ErrConflict) {
		// another replica got there first
		l.remember(ctx, key)
		telemetry.DisplayLogs.WithLabelValues("deduplicated").Inc()
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("append display log: %w", err)
	}

	l.remember(ctx, key)
	telemetry.DisplayLogs.WithLabelValues("created").Inc()
	telemetry.Logger.Info("Payment destination displayed",
		zap.String("user_id", userID),
		zap.String("set_id", payload.SetID),
		zap.String("scope", string(payload.Scope)),
		zap.Time("expires_at", payload.ExpiresAt),
	)
	return true, nil
}

// HasLogged checks the cache first and falls back to the persisted logs, so
// losing the cache never causes a second entry.
func (l *DisplayLogger) HasLogged(ctx context.Context, key DisplayKey) (bool, error) {
	seen, err := l.cache.Seen(ctx, key.String())
	if err != nil {
		telemetry.Logger.Warn("Dedup cache lookup failed", zap.Error(err))
	}
	if seen {
		return true, nil
	}

	exists, err := l.repo.Exists(ctx, key.UserID, key.SetID, key.ExpiresAt, models.DisplayContext)
	if err != nil {
		return false, fmt.Errorf("scan display logs: %w", err)
	}
	if exists {
		l.remember(ctx, key)
	}
	return exists, nil
}

// List returns logged displays newest first; an empty userID lists everyone.
func (l *DisplayLogger) List(ctx context.Context, userID string) ([]models.PaymentDisplayLog, error) {
	logs, err := l.repo.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list display logs: %w", err)
	}
	return logs, nil
}

func (l *DisplayLogger) remember(ctx context.Context, key DisplayKey) {
	ttl := key.ExpiresAt.Sub(l.now()) + dedupGrace
	if ttl < time.Minute {
		ttl = time.Minute
	}
	if err := l.cache.Mark(ctx, key.String(), ttl); err != nil {
		telemetry.Logger.Warn("Dedup cache write failed", zap.Error(err))
	}
}
