package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/akylbek/payment-system/payment-config/internal/service"
	"github.com/akylbek/payment-system/payment-config/internal/telemetry"
)

const (
	// HeaderUserID carries the paying user's id, set by the identity layer in front of this service.
	HeaderUserID = "X-User-ID"
	// HeaderReviewerID carries the administrator or reviewer id.
	HeaderReviewerID = "X-Reviewer-ID"
)

// Clock is how handlers learn the current instant.
type Clock func() time.Time

func defaultClock(c Clock) Clock {
	if c != nil {
		return c
	}
	return func() time.Time { return time.Now().UTC() }
}

func requireUser(c *gin.Context) (string, bool) {
	userID := strings.TrimSpace(c.GetHeader(HeaderUserID))
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing " + HeaderUserID + " header"})
		return "", false
	}
	return userID, true
}

// writeError maps service errors onto HTTP responses. Unknown errors are
// logged and reported as 500.
func writeError(c *gin.Context, err error, msg string) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": service.ErrValidation.Error(), "fields": verr.Fields})
	case errors.Is(err, service.ErrDuplicateTransaction):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  service.ErrDuplicateTransaction.Error(),
			"fields": gin.H{"transactionId": "Transaction ID already exists."},
		})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": msg + ": not found"})
	case errors.Is(err, service.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		telemetry.Logger.Error(msg,
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
	}
}
