package service

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/akylbek/payment-system/payment-config/internal/models"
	"github.com/akylbek/payment-system/payment-config/internal/rotation"
	"github.com/akylbek/payment-system/payment-config/internal/telemetry"
)

// Resolver reads a fresh snapshot on every call and delegates to the rotation
// package. It keeps no state between calls.
type Resolver struct {
	store *ConfigStore
}

func NewResolver(store *ConfigStore) *Resolver {
	return &Resolver{store: store}
}

// Resolve returns nil, nil when no destination is eligible for the user.
func (r *Resolver) Resolve(ctx context.Context, userID string, now time.Time) (*models.ActivePaymentPayload, error) {
	ctx, span := telemetry.Tracer.Start(ctx, "Resolver.Resolve")
	defer span.End()

	sets, err := r.store.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	active := rotation.Resolve(sets, userID, now)
	outcome := "none"
	if active != nil {
		outcome = string(active.Scope)
		span.SetAttributes(attribute.String("payment_set.id", active.SetID))
	}
	span.SetAttributes(attribute.String("resolution.outcome", outcome))
	telemetry.Resolutions.WithLabelValues(outcome).Inc()
	return active, nil
}

// SetView is a payment set decorated for administrative listings.
type SetView struct {
	models.PaymentSet
	Status      models.SetStatus `json:"status"`
	SelectedNow bool             `json:"selectedNow"`
}

// Describe lists the sets selected by keep, latest StartsAt first, with their
// status and the active slot indicator. Listing and slot come from one snapshot.
func (r *Resolver) Describe(ctx context.Context, keep SetFilter, now time.Time) ([]SetView, error) {
	all, err := r.store.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	sets := selectSets(all, keep)

	var selected string
	if slot, ok := rotation.GlobalSlot(all, now); ok {
		selected = slot.Set.ID
	}

	views := make([]SetView, 0, len(sets))
	for _, set := range sets {
		views = append(views, SetView{
			PaymentSet:  set,
			Status:      rotation.StatusOf(set, now),
			SelectedNow: set.Scope == models.ScopeGlobal && set.ID == selected,
		})
	}
	return views, nil
}

func (r *Resolver) IsSelectedNow(ctx context.Context, setID string, now time.Time) (bool, error) {
	sets, err := r.store.Snapshot(ctx)
	if err != nil {
		return false, err
	}
	return rotation.IsSelectedNow(sets, setID, now), nil
}
