package rotation

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akylbek/payment-system/payment-config/internal/models"
)

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func globalSet(id string, startsAt time.Time) models.PaymentSet {
	return models.PaymentSet{
		ID:              id,
		Scope:           models.ScopeGlobal,
		QRImage:         "qr/" + id + ".png",
		ValidForMinutes: models.GlobalValidForMinutes,
		StartsAt:        startsAt,
		IsActive:        true,
		CreatedAt:       startsAt,
	}
}

func userSet(id, userID string, startsAt time.Time, minutes int) models.PaymentSet {
	return models.PaymentSet{
		ID:              id,
		Scope:           models.ScopeUser,
		UserID:          userID,
		ValidForMinutes: minutes,
		StartsAt:        startsAt,
		IsActive:        true,
		CreatedAt:       startsAt,
		Bank: models.BankDetails{
			AccountHolderName: "Asha Rao",
			BankName:          "State Bank",
			AccountNumber:     "0012",
			IFSC:              "SBIN0001234",
		},
	}
}

func TestResolve_TwoGlobalSetsRotate(t *testing.T) {
	sets := []models.PaymentSet{
		globalSet("B", t0.Add(5*time.Minute)),
		globalSet("A", t0),
	}

	tests := []struct {
		now  time.Time
		want string
	}{
		{t0.Add(5 * time.Minute), "A"},
		{t0.Add(15 * time.Minute), "B"},
		{t0.Add(25 * time.Minute), "A"},
	}

	for _, tt := range tests {
		t.Run(tt.now.Format(time.TimeOnly), func(t *testing.T) {
			got := Resolve(sets, "u1", tt.now)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.SetID)
			assert.Equal(t, models.ScopeGlobal, got.Scope)
			assert.Equal(t, models.PayloadActive, got.Status)
		})
	}
}

func TestResolve_GlobalSlotBounds(t *testing.T) {
	sets := []models.PaymentSet{globalSet("A", t0), globalSet("B", t0.Add(time.Minute))}

	got := Resolve(sets, "u1", t0.Add(17*time.Minute))
	require.NotNil(t, got)
	assert.Equal(t, "B", got.SetID)
	assert.Equal(t, t0.Add(10*time.Minute), got.StartsAt)
	assert.Equal(t, t0.Add(20*time.Minute), got.ExpiresAt)
	assert.Equal(t, "u1", got.UserID)
}

func TestResolve_RoundRobinIndex(t *testing.T) {
	sets := make([]models.PaymentSet, 0, 4)
	for i := 0; i < 4; i++ {
		sets = append(sets, globalSet(fmt.Sprintf("G%d", i), t0.Add(time.Duration(i)*time.Second)))
	}

	for minutes := 0; minutes < 200; minutes += 7 {
		now := t0.Add(time.Duration(minutes)*time.Minute + 4*time.Second)
		want := fmt.Sprintf("G%d", int(now.Sub(t0)/(600*time.Second))%len(sets))

		got := Resolve(sets, "u1", now)
		require.NotNil(t, got)
		assert.Equal(t, want, got.SetID, "at +%dm", minutes)
	}
}

func TestResolve_Deterministic(t *testing.T) {
	sets := []models.PaymentSet{
		globalSet("A", t0),
		globalSet("B", t0.Add(time.Minute)),
		userSet("U", "u2", t0, 30),
	}
	now := t0.Add(43*time.Minute + 12*time.Second)

	first := Resolve(sets, "u1", now)
	second := Resolve(sets, "u1", now)
	assert.Equal(t, first, second)

	assert.Equal(t, first.SetID, Resolve(sets, "u9", now).SetID)
}

func TestResolve_UserSetTakesPriority(t *testing.T) {
	sets := []models.PaymentSet{
		globalSet("A", t0),
		userSet("U", "u1", t0, 10),
	}

	got := Resolve(sets, "u1", t0.Add(9*time.Minute+59*time.Second))
	require.NotNil(t, got)
	assert.Equal(t, "U", got.SetID)
	assert.Equal(t, models.ScopeUser, got.Scope)
	assert.Equal(t, models.PayloadActive, got.Status)
	assert.Equal(t, t0, got.StartsAt)
	assert.Equal(t, t0.Add(10*time.Minute), got.ExpiresAt)
	assert.True(t, got.HasBank)
	assert.False(t, got.HasQR)

	got = Resolve(sets, "u1", t0.Add(10*time.Minute+time.Second))
	require.NotNil(t, got)
	assert.Equal(t, "A", got.SetID)

	other := Resolve(sets, "u2", t0.Add(time.Minute))
	require.NotNil(t, other)
	assert.Equal(t, "A", other.SetID)
}

func TestResolve_UserSetExpiresToNothing(t *testing.T) {
	sets := []models.PaymentSet{userSet("U", "u1", t0, 10)}

	assert.NotNil(t, Resolve(sets, "u1", t0))
	assert.Nil(t, Resolve(sets, "u1", t0.Add(10*time.Minute)))
	assert.Nil(t, Resolve(sets, "u1", t0.Add(-time.Second)))
}

func TestResolve_OverlappingUserSetsLatestWins(t *testing.T) {
	sets := []models.PaymentSet{
		userSet("old", "u1", t0, 60),
		userSet("new", "u1", t0.Add(20*time.Minute), 10),
	}

	assert.Equal(t, "old", Resolve(sets, "u1", t0.Add(10*time.Minute)).SetID)
	assert.Equal(t, "new", Resolve(sets, "u1", t0.Add(25*time.Minute)).SetID)
	assert.Equal(t, "old", Resolve(sets, "u1", t0.Add(35*time.Minute)).SetID)
}

func TestResolve_InactiveAndFutureSetsIgnored(t *testing.T) {
	inactive := globalSet("off", t0)
	inactive.IsActive = false
	sets := []models.PaymentSet{inactive, globalSet("later", t0.Add(time.Hour))}

	assert.Nil(t, Resolve(sets, "u1", t0.Add(30*time.Minute)))
	assert.Nil(t, Resolve(nil, "u1", t0))
}

func TestResolve_AnchorShiftsWhenEarliestDeactivated(t *testing.T) {
	a := globalSet("A", t0)
	b := globalSet("B", t0.Add(3*time.Minute))
	c := globalSet("C", t0.Add(4*time.Minute))
	now := t0.Add(14 * time.Minute)

	assert.Equal(t, "B", Resolve([]models.PaymentSet{a, b, c}, "u1", now).SetID)

	a.IsActive = false
	got := Resolve([]models.PaymentSet{a, b, c}, "u1", now)
	require.NotNil(t, got)
	// anchor is now B at +3m, slot 1 starts at +13m
	assert.Equal(t, "C", got.SetID)
	assert.Equal(t, t0.Add(13*time.Minute), got.StartsAt)
}

func TestGlobalCandidates_TieBreakIsStable(t *testing.T) {
	x := globalSet("x", t0)
	y := globalSet("y", t0)
	got := GlobalCandidates([]models.PaymentSet{y, x}, t0)
	require.Len(t, got, 2)
	assert.Equal(t, "x", got[0].ID)
	assert.Equal(t, "y", got[1].ID)
}

func TestGlobalSlot_ClampsNegativeIndex(t *testing.T) {
	sets := []models.PaymentSet{globalSet("A", t0)}
	slot, ok := GlobalSlot(sets, t0)
	require.True(t, ok)
	assert.Equal(t, int64(0), slot.Index)
	assert.Equal(t, t0, slot.Start)
}

func TestIsSelectedNow(t *testing.T) {
	sets := []models.PaymentSet{globalSet("A", t0), globalSet("B", t0.Add(time.Minute))}

	assert.True(t, IsSelectedNow(sets, "A", t0.Add(2*time.Minute)))
	assert.False(t, IsSelectedNow(sets, "B", t0.Add(2*time.Minute)))
	assert.True(t, IsSelectedNow(sets, "B", t0.Add(12*time.Minute)))
	assert.False(t, IsSelectedNow(nil, "A", t0))
}

func TestStatusOf(t *testing.T) {
	inactive := userSet("U0", "u1", t0, 10)
	inactive.IsActive = false

	tests := []struct {
		name string
		set  models.PaymentSet
		now  time.Time
		want models.SetStatus
	}{
		{"inactive", inactive, t0.Add(time.Minute), models.SetStatusInactive},
		{"scheduled user", userSet("U1", "u1", t0, 10), t0.Add(-time.Minute), models.SetStatusScheduled},
		{"active user", userSet("U1", "u1", t0, 10), t0.Add(time.Minute), models.SetStatusActive},
		{"expired user", userSet("U1", "u1", t0, 10), t0.Add(10 * time.Minute), models.SetStatusExpired},
		{"scheduled global", globalSet("G", t0), t0.Add(-time.Second), models.SetStatusScheduled},
		{"old global never expires", globalSet("G", t0), t0.Add(72 * time.Hour), models.SetStatusActive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusOf(tt.set, tt.now))
		})
	}
}
