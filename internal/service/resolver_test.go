package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akylbek/payment-system/payment-config/internal/interfaces"
	"github.com/akylbek/payment-system/payment-config/internal/models"
)

func TestResolver_ResolveAndDescribe(t *testing.T) {
	clock := newFakeClock(t0)
	store := NewConfigStore(newTestStorage(t).Sets, nil, clock.Now)
	resolver := NewResolver(store)
	ctx := context.Background()

	a, err := store.Create(ctx, CreateSetInput{Scope: models.ScopeGlobal, QRImage: "a.png", StartsAt: t0})
	require.NoError(t, err)
	b, err := store.Create(ctx, CreateSetInput{Scope: models.ScopeGlobal, Bank: completeBank(), StartsAt: t0.Add(5 * time.Minute)})
	require.NoError(t, err)
	u, err := store.Create(ctx, CreateSetInput{Scope: models.ScopeUser, UserID: "u1", QRImage: "u.png", ValidForMinutes: 10, StartsAt: t0.Add(30 * time.Minute)})
	require.NoError(t, err)

	got, err := resolver.Resolve(ctx, "u1", t0.Add(15*time.Minute))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, b.ID, got.SetID)
	assert.True(t, got.HasBank)

	got, err = resolver.Resolve(ctx, "u1", t0.Add(35*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.SetID)

	selected, err := resolver.IsSelectedNow(ctx, a.ID, t0.Add(35*time.Minute))
	require.NoError(t, err)
	assert.False(t, selected)

	views, err := resolver.Describe(ctx, GlobalSets(), t0.Add(21*time.Minute))
	require.NoError(t, err)
	require.Len(t, views, 2)
	for _, v := range views {
		assert.Equal(t, models.SetStatusActive, v.Status)
		assert.Equal(t, v.ID == a.ID, v.SelectedNow)
	}
}

func TestResolver_NoDestination(t *testing.T) {
	resolver := NewResolver(NewConfigStore(newTestStorage(t).Sets, nil, nil))

	got, err := resolver.Resolve(context.Background(), "u1", t0)
	require.NoError(t, err)
	assert.Nil(t, got)
}

type countingSetRepo struct {
	interfaces.PaymentSetRepository
	lists int
}

func (r *countingSetRepo) List(ctx context.Context) ([]models.PaymentSet, error) {
	r.lists++
	return r.PaymentSetRepository.List(ctx)
}

func TestResolver_DescribeReadsOneSnapshot(t *testing.T) {
	ctx := context.Background()
	repo := &countingSetRepo{PaymentSetRepository: newTestStorage(t).Sets}
	store := NewConfigStore(repo, nil, newFakeClock(t0).Now)
	resolver := NewResolver(store)

	a, err := store.Create(ctx, CreateSetInput{Scope: models.ScopeGlobal, QRImage: "a.png", StartsAt: t0})
	require.NoError(t, err)
	u, err := store.Create(ctx, CreateSetInput{Scope: models.ScopeUser, UserID: "u1", QRImage: "u.png", StartsAt: t0})
	require.NoError(t, err)

	repo.lists = 0
	views, err := resolver.Describe(ctx, UserSets("u1"), t0.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, repo.lists)
	require.Len(t, views, 1)
	assert.Equal(t, u.ID, views[0].ID)
	assert.False(t, views[0].SelectedNow)

	repo.lists = 0
	views, err = resolver.Describe(ctx, GlobalSets(), t0.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, repo.lists)
	require.Len(t, views, 1)
	assert.Equal(t, a.ID, views[0].ID)
	assert.True(t, views[0].SelectedNow)
}
