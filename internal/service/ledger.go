package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/akylbek/payment-system/payment-config/internal/events"
	"github.com/akylbek/payment-system/payment-config/internal/interfaces"
	"github.com/akylbek/payment-system/payment-config/internal/models"
	"github.com/akylbek/payment-system/payment-config/internal/telemetry"
)

// ReviewListLimit caps the reviewer listing.
const ReviewListLimit = 240

type SubmitInput struct {
	UserID        string
	TransactionID string
	ProofImage    string
	ProofFileName string
	AmountInCents float64
	PaymentSetID  string
	PaymentScope  models.Scope
}

// Ledger records payment proofs and moves them through review.
type Ledger struct {
	repo      interfaces.TransactionRepository
	publisher interfaces.EventPublisher
	now       Clock

	mu sync.Mutex
}

func NewLedger(repo interfaces.TransactionRepository, publisher interfaces.EventPublisher, clock Clock) *Ledger {
	if clock == nil {
		clock = systemClock
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Ledger{repo: repo, publisher: publisher, now: clock}
}

func (l *Ledger) Submit(ctx context.Context, in SubmitInput) (*models.PaymentTransaction, error) {
	ctx, span := telemetry.Tracer.Start(ctx, "Ledger.Submit")
	defer span.End()

	in.UserID = strings.TrimSpace(in.UserID)
	in.TransactionID = strings.TrimSpace(in.TransactionID)
	in.ProofFileName = strings.TrimSpace(in.ProofFileName)
	in.ProofImage = strings.TrimSpace(in.ProofImage)
	in.PaymentSetID = strings.TrimSpace(in.PaymentSetID)

	verr := &ValidationError{}
	if in.UserID == "" {
		verr.add("userId", "is required")
	}
	if in.TransactionID == "" {
		verr.add("transactionId", "is required")
	}
	if in.ProofImage == "" {
		verr.add("proofImage", "is required")
	}
	if in.PaymentScope != "" && !in.PaymentScope.Valid() {
		verr.add("paymentScope", "must be global or user")
	}
	if err := verr.orNil(); err != nil {
		return nil, err
	}

	now := normalizeInstant(l.now())
	tx := models.PaymentTransaction{
		ID:            newID("TX"),
		UserID:        in.UserID,
		TransactionID: in.TransactionID,
		ProofImage:    in.ProofImage,
		ProofFileName: in.ProofFileName,
		AmountInCents: floorCents(in.AmountInCents),
		Status:        models.TransactionPending,
		CreatedAt:     now,
		UpdatedAt:     now,
		PaymentSetID:  in.PaymentSetID,
		PaymentScope:  in.PaymentScope,
	}

	l.mu.Lock()
	err := l.insert(ctx, tx)
	l.mu.Unlock()
	if errors.Is(err, ErrDuplicateTransaction) {
		telemetry.TransactionsSubmitted.WithLabelValues("duplicate").Inc()
		return nil, err
	}
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.String("transaction.id", tx.ID))
	telemetry.TransactionsSubmitted.WithLabelValues("created").Inc()
	telemetry.Logger.Info("Payment transaction submitted",
		zap.String("id", tx.ID),
		zap.String("user_id", tx.UserID),
		zap.String("payment_set_id", tx.PaymentSetID),
		zap.Int64("amount_in_cents", tx.AmountInCents),
	)
	publish(ctx, l.publisher, events.TopicTransactionSubmitted, models.PaymentEvent{
		Type:       "payment_transaction.submitted",
		EntityID:   tx.ID,
		UserID:     tx.UserID,
		State:      string(tx.Status),
		OccurredAt: now,
	})
	return &tx, nil
}

func (l *Ledger) insert(ctx context.Context, tx models.PaymentTransaction) error {
	_, err := l.repo.FindByTransactionID(ctx, tx.UserID, tx.TransactionID)
	if err == nil {
		return fmt.Errorf("%s: %w", tx.TransactionID, ErrDuplicateTransaction)
	}
	if !errors.Is(err, interfaces.ErrNotFound) {
		return fmt.Errorf("look up transaction: %w", err)
	}

	err = l.repo.Insert(ctx, tx)
	if errors.Is(err, interfaces.ErrConflict) {
		return fmt.Errorf("%s: %w", tx.TransactionID, ErrDuplicateTransaction)
	}
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// ListForUser returns the user's submissions, newest first.
func (l *Ledger) ListForUser(ctx context.Context, userID string) ([]models.PaymentTransaction, error) {
	txs, err := l.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	sortNewestFirst(txs)
	return txs, nil
}

// ListAll is the reviewer view. search matches transaction or user id,
// case-insensitively.
func (l *Ledger) ListAll(ctx context.Context, search string) ([]models.PaymentTransaction, error) {
	txs, err := l.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	needle := strings.ToLower(strings.TrimSpace(search))
	out := make([]models.PaymentTransaction, 0, len(txs))
	for _, tx := range txs {
		if needle == "" ||
			strings.Contains(strings.ToLower(tx.TransactionID), needle) ||
			strings.Contains(strings.ToLower(tx.UserID), needle) {
			out = append(out, tx)
		}
	}
	sortNewestFirst(out)
	if len(out) > ReviewListLimit {
		out = out[:ReviewListLimit]
	}
	return out, nil
}

// UpdateStatus applies a reviewer decision. Only pending transactions can
// move, and only to verified or rejected.
func (l *Ledger) UpdateStatus(ctx context.Context, id string, to models.TransactionStatus, reviewer string) (*models.PaymentTransaction, error) {
	ctx, span := telemetry.Tracer.Start(ctx, "Ledger.UpdateStatus")
	defer span.End()

	if _, ok := models.ParseTransactionStatus(string(to)); !ok {
		verr := &ValidationError{}
		verr.add("status", "must be pending, verified or rejected")
		return nil, verr
	}

	current, updated, at, err := l.transition(ctx, id, to, reviewer)
	if err != nil {
		return nil, err
	}
	from := current.Status

	telemetry.TransactionTransitions.WithLabelValues(string(to)).Inc()
	telemetry.Logger.Info("Payment transaction state transition",
		zap.String("id", id),
		zap.String("from_state", string(from)),
		zap.String("to_state", string(to)),
		zap.String("reviewer", reviewer),
	)
	publish(ctx, l.publisher, events.TopicTransactionStatusChanged, models.PaymentEvent{
		Type:       "payment_transaction.status_changed",
		EntityID:   id,
		UserID:     current.UserID,
		State:      string(to),
		Previous:   string(from),
		OccurredAt: at,
	})

	return updated, nil
}

// transition performs the write under the ledger lock and returns the record
// before and after it.
func (l *Ledger) transition(ctx context.Context, id string, to models.TransactionStatus, reviewer string) (*models.PaymentTransaction, *models.PaymentTransaction, time.Time, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	current, err := l.get(ctx, id)
	if err != nil {
		return nil, nil, time.Time{}, err
	}
	from := current.Status
	if from.Terminal() {
		return nil, nil, time.Time{}, fmt.Errorf("transaction %s already %s: %w", id, from, ErrInvalidTransition)
	}
	if !from.CanTransitionTo(to) {
		return nil, nil, time.Time{}, fmt.Errorf("%s -> %s: %w", from, to, ErrInvalidTransition)
	}

	at := normalizeInstant(l.now())
	rows, err := l.repo.TransitionStatus(ctx, id, from, to, strings.TrimSpace(reviewer), at)
	if err != nil {
		return nil, nil, time.Time{}, fmt.Errorf("transition transaction: %w", err)
	}
	if rows == 0 {
		return nil, nil, time.Time{}, fmt.Errorf("transaction %s changed concurrently: %w", id, ErrInvalidTransition)
	}

	updated, err := l.get(ctx, id)
	if err != nil {
		return nil, nil, time.Time{}, err
	}
	return current, updated, at, nil
}

func (l *Ledger) Delete(ctx context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	err := l.repo.Delete(ctx, id)
	if errors.Is(err, interfaces.ErrNotFound) {
		return fmt.Errorf("transaction %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return nil
}

func (l *Ledger) get(ctx context.Context, id string) (*models.PaymentTransaction, error) {
	tx, err := l.repo.Get(ctx, id)
	if errors.Is(err, interfaces.ErrNotFound) {
		return nil, fmt.Errorf("transaction %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load transaction: %w", err)
	}
	return tx, nil
}

// floorCents floors to a whole, non-negative number of cents, saturating at
// math.MaxInt64.
func floorCents(v float64) int64 {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	if v >= math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(math.Floor(v))
}

func sortNewestFirst(txs []models.PaymentTransaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		return txs[i].CreatedAt.After(txs[j].CreatedAt)
	})
}
