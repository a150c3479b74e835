package repository

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/akylbek/payment-system/payment-config/internal/interfaces"
	"github.com/akylbek/payment-system/payment-config/internal/models"
)

// FileStorage bundles the file backed repositories. An empty dir keeps
// everything in memory.
type FileStorage struct {
	Sets         *FilePaymentSetRepository
	DisplayLogs  *FileDisplayLogRepository
	Transactions *FileTransactionRepository
	Templates    *FileTemplateRepository
}

func NewFileStorage(dir string) (*FileStorage, error) {
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	sets, err := newCollection[models.PaymentSet](dir, "payment_sets")
	if err != nil {
		return nil, err
	}
	logs, err := newCollection[models.PaymentDisplayLog](dir, "payment_display_logs")
	if err != nil {
		return nil, err
	}
	txs, err := newCollection[models.PaymentTransaction](dir, "payment_transactions")
	if err != nil {
		return nil, err
	}
	tpls, err := newCollection[models.PaymentTemplate](dir, "payment_templates")
	if err != nil {
		return nil, err
	}

	return &FileStorage{
		Sets:         &FilePaymentSetRepository{c: sets},
		DisplayLogs:  &FileDisplayLogRepository{c: logs},
		Transactions: &FileTransactionRepository{c: txs},
		Templates:    &FileTemplateRepository{c: tpls},
	}, nil
}

type FilePaymentSetRepository struct {
	c *collection[models.PaymentSet]
}

func (r *FilePaymentSetRepository) Get(ctx context.Context, id string) (*models.PaymentSet, error) {
	for _, s := range r.c.snapshot() {
		if s.ID == id {
			return &s, nil
		}
	}
	return nil, interfaces.ErrNotFound
}

func (r *FilePaymentSetRepository) Put(ctx context.Context, set models.PaymentSet) error {
	return r.c.mutate(func(items []models.PaymentSet) ([]models.PaymentSet, error) {
		out := make([]models.PaymentSet, 0, len(items)+1)
		replaced := false
		for _, s := range items {
			if s.ID == set.ID {
				out = append(out, set)
				replaced = true
				continue
			}
			out = append(out, s)
		}
		if !replaced {
			out = append(out, set)
		}
		return out, nil
	})
}

func (r *FilePaymentSetRepository) Delete(ctx context.Context, id string) error {
	return r.c.mutate(func(items []models.PaymentSet) ([]models.PaymentSet, error) {
		out := make([]models.PaymentSet, 0, len(items))
		for _, s := range items {
			if s.ID != id {
				out = append(out, s)
			}
		}
		if len(out) == len(items) {
			return nil, interfaces.ErrNotFound
		}
		return out, nil
	})
}

func (r *FilePaymentSetRepository) List(ctx context.Context) ([]models.PaymentSet, error) {
	return r.c.snapshot(), nil
}

// FileDisplayLogRepository keeps entries newest first.
type FileDisplayLogRepository struct {
	c *collection[models.PaymentDisplayLog]
}

func (r *FileDisplayLogRepository) Exists(ctx context.Context, userID, setID string, expiresAt time.Time, displayContext string) (bool, error) {
	for _, l := range r.c.snapshot() {
		if sameDisplayKey(l, userID, setID, expiresAt, displayContext) {
			return true, nil
		}
	}
	return false, nil
}

func (r *FileDisplayLogRepository) Append(ctx context.Context, log models.PaymentDisplayLog, limit int) error {
	return r.c.mutate(func(items []models.PaymentDisplayLog) ([]models.PaymentDisplayLog, error) {
		for _, l := range items {
			if sameDisplayKey(l, log.UserID, log.SetID, log.ExpiresAt, log.Context) {
				return nil, interfaces.ErrConflict
			}
		}
		out := append([]models.PaymentDisplayLog{log}, items...)
		if limit > 0 && len(out) > limit {
			out = out[:limit]
		}
		return out, nil
	})
}

func (r *FileDisplayLogRepository) List(ctx context.Context, userID string) ([]models.PaymentDisplayLog, error) {
	all := r.c.snapshot()
	if userID == "" {
		return all, nil
	}
	out := make([]models.PaymentDisplayLog, 0)
	for _, l := range all {
		if l.UserID == userID {
			out = append(out, l)
		}
	}
	return out, nil
}

func sameDisplayKey(l models.PaymentDisplayLog, userID, setID string, expiresAt time.Time, displayContext string) bool {
	return l.UserID == userID && l.SetID == setID && l.ExpiresAt.Equal(expiresAt) && l.Context == displayContext
}

type FileTransactionRepository struct {
	c *collection[models.PaymentTransaction]
}

func (r *FileTransactionRepository) Get(ctx context.Context, id string) (*models.PaymentTransaction, error) {
	for _, tx := range r.c.snapshot() {
		if tx.ID == id {
			return &tx, nil
		}
	}
	return nil, interfaces.ErrNotFound
}

func (r *FileTransactionRepository) FindByTransactionID(ctx context.Context, userID, transactionID string) (*models.PaymentTransaction, error) {
	for _, tx := range r.c.snapshot() {
		if tx.UserID == userID && strings.EqualFold(tx.TransactionID, transactionID) {
			return &tx, nil
		}
	}
	return nil, interfaces.ErrNotFound
}

func (r *FileTransactionRepository) Insert(ctx context.Context, tx models.PaymentTransaction) error {
	return r.c.mutate(func(items []models.PaymentTransaction) ([]models.PaymentTransaction, error) {
		for _, existing := range items {
			if existing.UserID == tx.UserID && strings.EqualFold(existing.TransactionID, tx.TransactionID) {
				return nil, interfaces.ErrConflict
			}
		}
		return append([]models.PaymentTransaction{tx}, items...), nil
	})
}

func (r *FileTransactionRepository) ListByUser(ctx context.Context, userID string) ([]models.PaymentTransaction, error) {
	out := make([]models.PaymentTransaction, 0)
	for _, tx := range r.c.snapshot() {
		if tx.UserID == userID {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (r *FileTransactionRepository) List(ctx context.Context) ([]models.PaymentTransaction, error) {
	return r.c.snapshot(), nil
}

func (r *FileTransactionRepository) TransitionStatus(ctx context.Context, id string, from, to models.TransactionStatus, reviewedBy string, at time.Time) (int64, error) {
	var affected int64
	err := r.c.mutate(func(items []models.PaymentTransaction) ([]models.PaymentTransaction, error) {
		out := make([]models.PaymentTransaction, len(items))
		copy(out, items)
		for i := range out {
			if out[i].ID != id || out[i].Status != from {
				continue
			}
			reviewedAt := at
			out[i].Status = to
			out[i].ReviewedBy = reviewedBy
			out[i].ReviewedAt = &reviewedAt
			out[i].UpdatedAt = at
			affected++
		}
		return out, nil
	})
	return affected, err
}

func (r *FileTransactionRepository) Delete(ctx context.Context, id string) error {
	return r.c.mutate(func(items []models.PaymentTransaction) ([]models.PaymentTransaction, error) {
		out := make([]models.PaymentTransaction, 0, len(items))
		for _, tx := range items {
			if tx.ID != id {
				out = append(out, tx)
			}
		}
		if len(out) == len(items) {
			return nil, interfaces.ErrNotFound
		}
		return out, nil
	})
}

type FileTemplateRepository struct {
	c *collection[models.PaymentTemplate]
}

func (r *FileTemplateRepository) Get(ctx context.Context, id string) (*models.PaymentTemplate, error) {
	for _, tpl := range r.c.snapshot() {
		if tpl.ID == id {
			return &tpl, nil
		}
	}
	return nil, interfaces.ErrNotFound
}

func (r *FileTemplateRepository) Put(ctx context.Context, tpl models.PaymentTemplate) error {
	return r.c.mutate(func(items []models.PaymentTemplate) ([]models.PaymentTemplate, error) {
		out := []models.PaymentTemplate{tpl}
		for _, existing := range items {
			if existing.ID != tpl.ID {
				out = append(out, existing)
			}
		}
		return out, nil
	})
}

func (r *FileTemplateRepository) Delete(ctx context.Context, id string) error {
	return r.c.mutate(func(items []models.PaymentTemplate) ([]models.PaymentTemplate, error) {
		out := make([]models.PaymentTemplate, 0, len(items))
		for _, tpl := range items {
			if tpl.ID != id {
				out = append(out, tpl)
			}
		}
		if len(out) == len(items) {
			return nil, interfaces.ErrNotFound
		}
		return out, nil
	})
}

func (r *FileTemplateRepository) List(ctx context.Context) ([]models.PaymentTemplate, error) {
	return r.c.snapshot(), nil
}

func (r *FileTemplateRepository) DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int, error) {
	removed := 0
	err := r.c.mutate(func(items []models.PaymentTemplate) ([]models.PaymentTemplate, error) {
		out := make([]models.PaymentTemplate, 0, len(items))
		for _, tpl := range items {
			if tpl.CreatedAt.Before(cutoff) {
				removed++
				continue
			}
			out = append(out, tpl)
		}
		return out, nil
	})
	return removed, err
}
