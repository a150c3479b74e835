package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akylbek/payment-system/payment-config/internal/models"
)

func TestTemplates_Lifecycle(t *testing.T) {
	clock := newFakeClock(t0)
	fs := newTestStorage(t)
	store := NewConfigStore(fs.Sets, nil, clock.Now)
	templates := NewTemplates(fs.Templates, store, 0, clock.Now)
	ctx := context.Background()

	bank := completeBank()
	bank.IFSC = "sbin0009999"
	tpl, err := templates.Create(ctx, CreateTemplateInput{QRImage: " qr/t.png ", Bank: bank, CreatedBy: "agent-1"})
	require.NoError(t, err)
	assert.Equal(t, "qr/t.png", tpl.QRImage)
	assert.Equal(t, "SBIN0009999", tpl.Bank.IFSC)

	now := t0.Add(3 * time.Minute)
	set, err := templates.Implement(ctx, tpl.ID, now)
	require.NoError(t, err)
	assert.Equal(t, models.ScopeGlobal, set.Scope)
	assert.Equal(t, now, set.StartsAt)
	assert.Equal(t, tpl.Bank, set.Bank)
	assert.Equal(t, models.GlobalValidForMinutes, set.ValidForMinutes)

	globals, err := store.ListGlobal(ctx)
	require.NoError(t, err)
	assert.Len(t, globals, 1)

	require.NoError(t, templates.Delete(ctx, tpl.ID))
	assert.ErrorIs(t, templates.Delete(ctx, tpl.ID), ErrNotFound)
	_, err = templates.Implement(ctx, tpl.ID, now)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTemplates_ListPurgesStale(t *testing.T) {
	clock := newFakeClock(t0)
	fs := newTestStorage(t)
	templates := NewTemplates(fs.Templates, NewConfigStore(fs.Sets, nil, clock.Now), time.Hour, clock.Now)
	ctx := context.Background()

	old, err := templates.Create(ctx, CreateTemplateInput{QRImage: "old.png"})
	require.NoError(t, err)
	clock.Advance(50 * time.Minute)
	fresh, err := templates.Create(ctx, CreateTemplateInput{QRImage: "fresh.png"})
	require.NoError(t, err)

	tpls, err := templates.List(ctx)
	require.NoError(t, err)
	require.Len(t, tpls, 2)
	assert.Equal(t, fresh.ID, tpls[0].ID)

	clock.Advance(20 * time.Minute)
	tpls, err = templates.List(ctx)
	require.NoError(t, err)
	require.Len(t, tpls, 1)
	assert.Equal(t, fresh.ID, tpls[0].ID)

	_, err = fs.Templates.Get(ctx, old.ID)
	assert.Error(t, err)
}

func TestTemplates_CreateRequiresDestination(t *testing.T) {
	fs := newTestStorage(t)
	templates := NewTemplates(fs.Templates, NewConfigStore(fs.Sets, nil, nil), 0, nil)

	_, err := templates.Create(context.Background(), CreateTemplateInput{Bank: models.BankDetails{BankName: "x"}})
	assert.ErrorIs(t, err, ErrValidation)
}
