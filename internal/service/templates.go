package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/akylbek/payment-system/payment-config/internal/interfaces"
	"github.com/akylbek/payment-system/payment-config/internal/models"
	"github.com/akylbek/payment-system/payment-config/internal/telemetry"
)

const (
	DefaultTemplateRetention = 24 * time.Hour
	TemplateListLimit        = 80
)

type CreateTemplateInput struct {
	QRImage   string
	Bank      models.BankDetails
	CreatedBy string
}

// Templates keeps short-lived destination presets that administrators can
// push into the global rotation.
type Templates struct {
	repo      interfaces.TemplateRepository
	store     *ConfigStore
	retention time.Duration
	now       Clock
}

func NewTemplates(repo interfaces.TemplateRepository, store *ConfigStore, retention time.Duration, clock Clock) *Templates {
	if clock == nil {
		clock = systemClock
	}
	if retention <= 0 {
		retention = DefaultTemplateRetention
	}
	return &Templates{repo: repo, store: store, retention: retention, now: clock}
}

func (t *Templates) Create(ctx context.Context, in CreateTemplateInput) (*models.PaymentTemplate, error) {
	tpl := models.PaymentTemplate{
		ID:        newID("TPL"),
		QRImage:   strings.TrimSpace(in.QRImage),
		Bank:      in.Bank.Normalize(),
		CreatedBy: strings.TrimSpace(in.CreatedBy),
		CreatedAt: normalizeInstant(t.now()),
	}
	if !tpl.HasQR() && !tpl.HasBank() {
		verr := &ValidationError{}
		verr.add("bank", "a QR image or complete bank details are required")
		return nil, verr
	}

	if err := t.repo.Put(ctx, tpl); err != nil {
		return nil, fmt.Errorf("store template: %w", err)
	}
	return &tpl, nil
}

// List purges templates older than the retention window and returns the
// rest, newest first.
func (t *Templates) List(ctx context.Context) ([]models.PaymentTemplate, error) {
	cutoff := t.now().Add(-t.retention)
	purged, err := t.repo.DeleteCreatedBefore(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("purge templates: %w", err)
	}
	if purged > 0 {
		telemetry.Logger.Info("Purged stale payment templates", zap.Int("count", purged))
	}

	tpls, err := t.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	sort.SliceStable(tpls, func(i, j int) bool {
		return tpls[i].CreatedAt.After(tpls[j].CreatedAt)
	})
	if len(tpls) > TemplateListLimit {
		tpls = tpls[:TemplateListLimit]
	}
	return tpls, nil
}

// Implement creates a global set from the template that joins the rotation at now.
func (t *Templates) Implement(ctx context.Context, id string, now time.Time) (*models.PaymentSet, error) {
	tpl, err := t.repo.Get(ctx, id)
	if errors.Is(err, interfaces.ErrNotFound) {
		return nil, fmt.Errorf("template %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load template: %w", err)
	}

	return t.store.Create(ctx, CreateSetInput{
		Scope:    models.ScopeGlobal,
		QRImage:  tpl.QRImage,
		Bank:     tpl.Bank,
		StartsAt: now,
	})
}

func (t *Templates) Delete(ctx context.Context, id string) error {
	err := t.repo.Delete(ctx, id)
	if errors.Is(err, interfaces.ErrNotFound) {
		return fmt.Errorf("template %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	return nil
}
