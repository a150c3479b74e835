package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"

	"github.com/akylbek/payment-system/payment-config/internal/handlers"
)

const limiterPrefix = "payment-config:limiter"

// SubmissionLimiter throttles proof submissions per user, falling back to the
// client IP for anonymous callers. formatted uses the limiter notation, e.g.
// "20-M" for twenty per minute; "off" or "" disables throttling and returns nil.
// Counters live in Redis when a client is given, in process memory otherwise.
func SubmissionLimiter(formatted string, client *redis.Client) (gin.HandlerFunc, error) {
	if formatted == "" || strings.EqualFold(formatted, "off") {
		return nil, nil
	}

	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		return nil, fmt.Errorf("parse rate limit %q: %w", formatted, err)
	}

	opts := limiter.StoreOptions{Prefix: limiterPrefix}
	store := memory.NewStoreWithOptions(opts)
	if client != nil {
		store, err = sredis.NewStoreWithOptions(client, opts)
		if err != nil {
			return nil, fmt.Errorf("create limiter store: %w", err)
		}
	}

	return mgin.NewMiddleware(limiter.New(store, rate),
		mgin.WithKeyGetter(submissionKey),
		mgin.WithLimitReachedHandler(func(c *gin.Context) {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many submissions, try again later."})
		}),
	), nil
}

func submissionKey(c *gin.Context) string {
	if userID := strings.TrimSpace(c.GetHeader(handlers.HeaderUserID)); userID != "" {
		return "user:" + userID
	}
	return "ip:" + c.ClientIP()
}
