package interfaces

import (
	"context"
	"errors"
	"time"

	"github.com/akylbek/payment-system/payment-config/internal/models"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("record conflicts with an existing one")
)

// PaymentSetRepository stores payment sets without interpreting them.
type PaymentSetRepository interface {
	Get(ctx context.Context, id string) (*models.PaymentSet, error)
	Put(ctx context.Context, set models.PaymentSet) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]models.PaymentSet, error)
}

// DisplayLogRepository is the persisted audit trail of shown destinations.
type DisplayLogRepository interface {
	// Exists looks for an entry with the same user, set, window end and context.
	Exists(ctx context.Context, userID, setID string, expiresAt time.Time, displayContext string) (bool, error)
	// Append stores the entry and keeps only the newest limit entries. It returns
	// ErrConflict if an entry with the same dedup key is already stored.
	Append(ctx context.Context, log models.PaymentDisplayLog, limit int) error
	// List returns entries newest first, optionally restricted to one user.
	List(ctx context.Context, userID string) ([]models.PaymentDisplayLog, error)
}

// TransactionRepository holds submitted payment proofs.
type TransactionRepository interface {
	Get(ctx context.Context, id string) (*models.PaymentTransaction, error)
	// FindByTransactionID matches transactionID case-insensitively within one user.
	FindByTransactionID(ctx context.Context, userID, transactionID string) (*models.PaymentTransaction, error)
	// Insert returns ErrConflict when (userID, lower(transactionID)) is taken.
	Insert(ctx context.Context, tx models.PaymentTransaction) error
	ListByUser(ctx context.Context, userID string) ([]models.PaymentTransaction, error)
	List(ctx context.Context) ([]models.PaymentTransaction, error)
	// TransitionStatus moves the record only if it is currently in from.
	TransitionStatus(ctx context.Context, id string, from, to models.TransactionStatus, reviewedBy string, at time.Time) (int64, error)
	Delete(ctx context.Context, id string) error
}

type TemplateRepository interface {
	Get(ctx context.Context, id string) (*models.PaymentTemplate, error)
	Put(ctx context.Context, tpl models.PaymentTemplate) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]models.PaymentTemplate, error)
	DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int, error)
}

// DedupCache is the fast path of the display log idempotency check.
type DedupCache interface {
	Seen(ctx context.Context, key string) (bool, error)
	Mark(ctx context.Context, key string, ttl time.Duration) error
}

// EventPublisher pushes state changes to whatever bus is configured.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, event models.PaymentEvent) error
	Close() error
}
