package service

import (
	"context"
	"errors"
	"fmt"
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

type CreateSetInput struct {
	Scope           models.Scope
	UserID          string
	QRImage         string
	Bank            models.BankDetails
	ValidForMinutes int
	StartsAt        time.Time
	// IsActive defaults to true when nil.
	IsActive *bool
}

// SetPatch updates only the non-nil fields.
type SetPatch struct {
	Scope           *models.Scope
	UserID          *string
	QRImage         *string
	Bank            *models.BankDetails
	ValidForMinutes *int
	StartsAt        *time.Time
	IsActive        *bool
}

// ConfigStore manages payment sets. It normalizes what administrators write
// and never filters by time.
type ConfigStore struct {
	repo      interfaces.PaymentSetRepository
	publisher interfaces.EventPublisher
	now       Clock

	// serializes read-modify-write cycles on the collection
	mu sync.Mutex
}

func NewConfigStore(repo interfaces.PaymentSetRepository, publisher interfaces.EventPublisher, clock Clock) *ConfigStore {
	if clock == nil {
		clock = systemClock
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &ConfigStore{repo: repo, publisher: publisher, now: clock}
}

func (s *ConfigStore) Create(ctx context.Context, in CreateSetInput) (*models.PaymentSet, error) {
	ctx, span := telemetry.Tracer.Start(ctx, "ConfigStore.Create")
	defer span.End()

	now := normalizeInstant(s.now())
	set := models.PaymentSet{
		ID:              newID("PAY"),
		Scope:           in.Scope,
		UserID:          in.UserID,
		QRImage:         in.QRImage,
		Bank:            in.Bank,
		ValidForMinutes: in.ValidForMinutes,
		StartsAt:        in.StartsAt,
		IsActive:        in.IsActive == nil || *in.IsActive,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	set = normalizeSet(set)
	if err := validateSet(set); err != nil {
		return nil, err
	}

	s.mu.Lock()
	err := s.repo.Put(ctx, set)
	s.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("store payment set: %w", err)
	}

	span.SetAttributes(attribute.String("payment_set.id", set.ID), attribute.String("payment_set.scope", string(set.Scope)))
	s.changed(ctx, "create", set)
	return &set, nil
}

func (s *ConfigStore) Update(ctx context.Context, id string, patch SetPatch) (*models.PaymentSet, error) {
	ctx, span := telemetry.Tracer.Start(ctx, "ConfigStore.Update")
	defer span.End()

	next, err := s.apply(ctx, id, patch)
	if err != nil {
		return nil, err
	}

	s.changed(ctx, "update", *next)
	return next, nil
}

// apply merges the patch into the stored set under the store lock.
func (s *ConfigStore) apply(ctx context.Context, id string, patch SetPatch) (*models.PaymentSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	next := *current
	if patch.Scope != nil {
		next.Scope = *patch.Scope
	}
	if patch.UserID != nil {
		next.UserID = *patch.UserID
	}
	if patch.QRImage != nil {
		next.QRImage = *patch.QRImage
	}
	if patch.Bank != nil {
		next.Bank = *patch.Bank
	}
	if patch.ValidForMinutes != nil {
		next.ValidForMinutes = *patch.ValidForMinutes
	}
	if patch.StartsAt != nil {
		next.StartsAt = *patch.StartsAt
	}
	if patch.IsActive != nil {
		next.IsActive = *patch.IsActive
	}
	next.UpdatedAt = normalizeInstant(s.now())

	next = normalizeSet(next)
	if err := validateSet(next); err != nil {
		return nil, err
	}
	if err := s.repo.Put(ctx, next); err != nil {
		return nil, fmt.Errorf("store payment set: %w", err)
	}
	return &next, nil
}

func (s *ConfigStore) Toggle(ctx context.Context, id string, active bool) error {
	_, err := s.Update(ctx, id, SetPatch{IsActive: &active})
	return err
}

func (s *ConfigStore) Delete(ctx context.Context, id string) error {
	ctx, span := telemetry.Tracer.Start(ctx, "ConfigStore.Delete")
	defer span.End()

	s.mu.Lock()
	err := s.repo.Delete(ctx, id)
	s.mu.Unlock()
	if errors.Is(err, interfaces.ErrNotFound) {
		return fmt.Errorf("payment set %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("delete payment set: %w", err)
	}

	s.changed(ctx, "delete", models.PaymentSet{ID: id})
	return nil
}

func (s *ConfigStore) Get(ctx context.Context, id string) (*models.PaymentSet, error) {
	return s.get(ctx, id)
}

// Snapshot is the full, unordered collection as resolution sees it.
func (s *ConfigStore) Snapshot(ctx context.Context) ([]models.PaymentSet, error) {
	sets, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list payment sets: %w", err)
	}
	return sets, nil
}

// SetFilter selects the sets an administrative listing shows.
type SetFilter func(models.PaymentSet) bool

func GlobalSets() SetFilter {
	return func(set models.PaymentSet) bool {
		return set.Scope == models.ScopeGlobal
	}
}

func UserSets(userID string) SetFilter {
	return func(set models.PaymentSet) bool {
		return set.Scope == models.ScopeUser && set.UserID == userID
	}
}

// ListGlobal returns global sets, latest StartsAt first.
func (s *ConfigStore) ListGlobal(ctx context.Context) ([]models.PaymentSet, error) {
	return s.list(ctx, GlobalSets())
}

// ListForUser returns the overrides of one user, latest StartsAt first.
func (s *ConfigStore) ListForUser(ctx context.Context, userID string) ([]models.PaymentSet, error) {
	return s.list(ctx, UserSets(userID))
}

func (s *ConfigStore) list(ctx context.Context, keep SetFilter) ([]models.PaymentSet, error) {
	all, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return selectSets(all, keep), nil
}

// selectSets filters a snapshot and orders it latest StartsAt first.
func selectSets(all []models.PaymentSet, keep SetFilter) []models.PaymentSet {
	out := make([]models.PaymentSet, 0, len(all))
	for _, set := range all {
		if keep(set) {
			out = append(out, set)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartsAt.After(out[j].StartsAt)
	})
	return out
}

func (s *ConfigStore) get(ctx context.Context, id string) (*models.PaymentSet, error) {
	set, err := s.repo.Get(ctx, id)
	if errors.Is(err, interfaces.ErrNotFound) {
		return nil, fmt.Errorf("payment set %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load payment set: %w", err)
	}
	return set, nil
}

func (s *ConfigStore) changed(ctx context.Context, op string, set models.PaymentSet) {
	telemetry.PaymentSetWrites.WithLabelValues(op).Inc()
	telemetry.Logger.Info("Payment set changed",
		zap.String("op", op),
		zap.String("set_id", set.ID),
		zap.String("scope", string(set.Scope)),
	)
	publish(ctx, s.publisher, events.TopicSetChanged, models.PaymentEvent{
		Type:       "payment_set." + op,
		EntityID:   set.ID,
		UserID:     set.UserID,
		OccurredAt: normalizeInstant(s.now()),
	})
}

// normalizeSet applies the write invariants: trimmed strings, upper-case IFSC,
// fixed global validity and a user id only on user scope.
func normalizeSet(set models.PaymentSet) models.PaymentSet {
	set.QRImage = strings.TrimSpace(set.QRImage)
	set.UserID = strings.TrimSpace(set.UserID)
	set.Bank = set.Bank.Normalize()
	set.StartsAt = normalizeInstant(set.StartsAt)

	switch set.Scope {
	case models.ScopeGlobal:
		set.UserID = ""
		set.ValidForMinutes = models.GlobalValidForMinutes
	case models.ScopeUser:
		if set.ValidForMinutes == 0 {
			set.ValidForMinutes = models.DefaultUserValidForMinutes
		}
		if set.ValidForMinutes < 1 {
			set.ValidForMinutes = 1
		}
	}
	return set
}

func validateSet(set models.PaymentSet) error {
	verr := &ValidationError{}
	if !set.Scope.Valid() {
		verr.add("scope", "must be global or user")
	}
	if set.Scope == models.ScopeUser && set.UserID == "" {
		verr.add("userId", "is required for user scope")
	}
	if set.Scope == models.ScopeUser && set.ValidForMinutes > models.MaxUserValidForMinutes {
		verr.add("validForMinutes", fmt.Sprintf("must be at most %d", models.MaxUserValidForMinutes))
	}
	if set.StartsAt.IsZero() {
		verr.add("startsAt", "is required")
	}
	if set.QRImage == "" && !set.Bank.Complete() {
		verr.add("bank", "a QR image or complete bank details are required")
	}
	return verr.orNil()
}

func publish(ctx context.Context, p interfaces.EventPublisher, topic string, event models.PaymentEvent) {
	if err := p.Publish(ctx, topic, event); err != nil {
		telemetry.Logger.Warn("Failed to publish event",
			zap.String("topic", topic),
			zap.String("entity_id", event.EntityID),
			zap.Error(err),
		)
	}
}
