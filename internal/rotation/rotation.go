package rotation

import (
	"sort"
	"time"

	"github.com/akylbek/payment-system/payment-config/internal/models"
)

// SlotLength is the display time of one global set per rotation turn.
const SlotLength = 10 * time.Minute

// Slot is the outcome of the global rotation at one instant.
type Slot struct {
	Set   models.PaymentSet
	Index int64
	Start time.Time
	End   time.Time
}

// Resolve returns the destination visible to userID at now, or nil when nothing is eligible.
func Resolve(sets []models.PaymentSet, userID string, now time.Time) *models.ActivePaymentPayload {
	if set, ok := ActiveUserSet(sets, userID, now); ok {
		return payload(set, userID, set.StartsAt, set.ExpiresAt(), models.PayloadActive)
	}

	slot, ok := GlobalSlot(sets, now)
	if !ok {
		return nil
	}
	status := models.PayloadActive
	if !now.Before(slot.End) {
		status = models.PayloadExpired
	}
	return payload(slot.Set, userID, slot.Start, slot.End, status)
}

// ActiveUserSet picks the user override whose window contains now.
func ActiveUserSet(sets []models.PaymentSet, userID string, now time.Time) (models.PaymentSet, bool) {
	var (
		best  models.PaymentSet
		found bool
	)
	for _, s := range sets {
		if s.Scope != models.ScopeUser || s.UserID != userID || !s.IsActive {
			continue
		}
		if now.Before(s.StartsAt) || !now.Before(s.ExpiresAt()) {
			continue
		}
		if !found || laterOverride(s, best) {
			best, found = s, true
		}
	}
	return best, found
}

// laterOverride orders overrides by StartsAt, CreatedAt then ID, all descending.
func laterOverride(a, b models.PaymentSet) bool {
	if !a.StartsAt.Equal(b.StartsAt) {
		return a.StartsAt.After(b.StartsAt)
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

// GlobalCandidates returns the active global sets that have started by now,
// in rotation order.
func GlobalCandidates(sets []models.PaymentSet, now time.Time) []models.PaymentSet {
	out := make([]models.PaymentSet, 0, len(sets))
	for _, s := range sets {
		if s.Scope == models.ScopeGlobal && s.IsActive && !now.Before(s.StartsAt) {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.StartsAt.Equal(b.StartsAt) {
			return a.StartsAt.Before(b.StartsAt)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	return out
}

// GlobalSlot runs the round-robin over the global candidates at now.
func GlobalSlot(sets []models.PaymentSet, now time.Time) (Slot, bool) {
	candidates := GlobalCandidates(sets, now)
	if len(candidates) == 0 {
		return Slot{}, false
	}

	anchor := candidates[0].StartsAt
	index := int64(now.Sub(anchor) / SlotLength)
	if index < 0 {
		index = 0
	}

	start := anchor.Add(time.Duration(index) * SlotLength)
	return Slot{
		Set:   candidates[index%int64(len(candidates))],
		Index: index,
		Start: start,
		End:   start.Add(SlotLength),
	}, true
}

// IsSelectedNow reports whether global rotation currently shows setID.
func IsSelectedNow(sets []models.PaymentSet, setID string, now time.Time) bool {
	slot, ok := GlobalSlot(sets, now)
	return ok && slot.Set.ID == setID
}

// StatusOf is the administrative status of a set. Global sets never report
// expired; they only rotate out of view.
func StatusOf(set models.PaymentSet, now time.Time) models.SetStatus {
	if !set.IsActive {
		return models.SetStatusInactive
	}
	if now.Before(set.StartsAt) {
		return models.SetStatusScheduled
	}
	if set.Scope == models.ScopeUser && !now.Before(set.ExpiresAt()) {
		return models.SetStatusExpired
	}
	return models.SetStatusActive
}

func payload(set models.PaymentSet, userID string, start, end time.Time, status models.PayloadStatus) *models.ActivePaymentPayload {
	return &models.ActivePaymentPayload{
		SetID:     set.ID,
		Scope:     set.Scope,
		UserID:    userID,
		QRImage:   set.QRImage,
		HasQR:     set.QRImage != "",
		HasBank:   set.Bank.Complete(),
		Bank:      set.Bank,
		StartsAt:  start,
		ExpiresAt: end,
		Status:    status,
	}
}
