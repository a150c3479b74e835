package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"github.com/akylbek/payment-system/payment-config/internal/interfaces"
	"github.com/akylbek/payment-system/payment-config/internal/models"
)

const uniqueViolation = "23505"

// InitDB creates the tables used by every Postgres repository.
func InitDB(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS payment_sets (
			id VARCHAR(64) PRIMARY KEY,
			scope VARCHAR(12) NOT NULL,
			user_id VARCHAR(255) NOT NULL DEFAULT '',
			qr_image TEXT NOT NULL DEFAULT '',
			account_holder_name VARCHAR(120) NOT NULL DEFAULT '',
			bank_name VARCHAR(120) NOT NULL DEFAULT '',
			account_number VARCHAR(80) NOT NULL DEFAULT '',
			ifsc VARCHAR(20) NOT NULL DEFAULT '',
			branch VARCHAR(120) NOT NULL DEFAULT '',
			valid_for_minutes INTEGER NOT NULL,
			starts_at TIMESTAMPTZ NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_payment_sets_scope_user ON payment_sets(scope, user_id)`,
		`CREATE TABLE IF NOT EXISTS payment_display_logs (
			id VARCHAR(64) PRIMARY KEY,
			user_id VARCHAR(255) NOT NULL,
			set_id VARCHAR(64) NOT NULL,
			scope VARCHAR(12) NOT NULL,
			shown_at TIMESTAMPTZ NOT NULL,
			expires_at TIMESTAMPTZ NOT NULL,
			context VARCHAR(40) NOT NULL,
			UNIQUE (user_id, set_id, expires_at, context)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_payment_display_logs_shown ON payment_display_logs(shown_at DESC)`,
		`CREATE TABLE IF NOT EXISTS payment_transactions (
			id VARCHAR(64) PRIMARY KEY,
			user_id VARCHAR(255) NOT NULL,
			transaction_id VARCHAR(120) NOT NULL,
			proof_image TEXT NOT NULL DEFAULT '',
			proof_file_name VARCHAR(255) NOT NULL DEFAULT '',
			amount_in_cents BIGINT NOT NULL DEFAULT 0,
			status VARCHAR(12) NOT NULL,
			payment_set_id VARCHAR(64) NOT NULL DEFAULT '',
			payment_scope VARCHAR(12) NOT NULL DEFAULT '',
			reviewed_by VARCHAR(255) NOT NULL DEFAULT '',
			reviewed_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS uniq_payment_transactions_user_txn ON payment_transactions(user_id, lower(transaction_id))`,
		`CREATE INDEX IF NOT EXISTS idx_payment_transactions_status ON payment_transactions(status, created_at)`,
		`CREATE TABLE IF NOT EXISTS payment_templates (
			id VARCHAR(64) PRIMARY KEY,
			qr_image TEXT NOT NULL DEFAULT '',
			account_holder_name VARCHAR(120) NOT NULL DEFAULT '',
			bank_name VARCHAR(120) NOT NULL DEFAULT '',
			account_number VARCHAR(80) NOT NULL DEFAULT '',
			ifsc VARCHAR(20) NOT NULL DEFAULT '',
			branch VARCHAR(120) NOT NULL DEFAULT '',
			created_by VARCHAR(255) NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL
		)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return err
		}
	}

	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return interfaces.ErrNotFound
	}
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

type PostgresPaymentSetRepository struct {
	db *sql.DB
}

func NewPostgresPaymentSetRepository(db *sql.DB) *PostgresPaymentSetRepository {
	return &PostgresPaymentSetRepository{db: db}
}

const paymentSetColumns = `id, scope, user_id, qr_image, account_holder_name, bank_name, account_number,
	ifsc, branch, valid_for_minutes, starts_at, is_active, created_at, updated_at`

func scanPaymentSet(row scanner) (*models.PaymentSet, error) {
	var s models.PaymentSet
	err := row.Scan(&s.ID, &s.Scope, &s.UserID, &s.QRImage, &s.Bank.AccountHolderName, &s.Bank.BankName,
		&s.Bank.AccountNumber, &s.Bank.IFSC, &s.Bank.Branch, &s.ValidForMinutes, &s.StartsAt, &s.IsActive,
		&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *PostgresPaymentSetRepository) Get(ctx context.Context, id string) (*models.PaymentSet, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+paymentSetColumns+` FROM payment_sets WHERE id = $1`, id)
	s, err := scanPaymentSet(row)
	if err != nil {
		return nil, notFound(err)
	}
	return s, nil
}

func (r *PostgresPaymentSetRepository) Put(ctx context.Context, s models.PaymentSet) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO payment_sets (`+paymentSetColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO UPDATE SET
			scope = EXCLUDED.scope,
			user_id = EXCLUDED.user_id,
			qr_image = EXCLUDED.qr_image,
			account_holder_name = EXCLUDED.account_holder_name,
			bank_name = EXCLUDED.bank_name,
			account_number = EXCLUDED.account_number,
			ifsc = EXCLUDED.ifsc,
			branch = EXCLUDED.branch,
			valid_for_minutes = EXCLUDED.valid_for_minutes,
			starts_at = EXCLUDED.starts_at,
			is_active = EXCLUDED.is_active,
			updated_at = EXCLUDED.updated_at
	`, s.ID, s.Scope, s.UserID, s.QRImage, s.Bank.AccountHolderName, s.Bank.BankName, s.Bank.AccountNumber,
		s.Bank.IFSC, s.Bank.Branch, s.ValidForMinutes, s.StartsAt, s.IsActive, s.CreatedAt, s.UpdatedAt)
	return err
}

func (r *PostgresPaymentSetRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM payment_sets WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

func (r *PostgresPaymentSetRepository) List(ctx context.Context) ([]models.PaymentSet, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+paymentSetColumns+` FROM payment_sets`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.PaymentSet
	for rows.Next() {
		s, err := scanPaymentSet(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

func requireAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return interfaces.ErrNotFound
	}
	return nil
}

type PostgresDisplayLogRepository struct {
	db *sql.DB
}

func NewPostgresDisplayLogRepository(db *sql.DB) *PostgresDisplayLogRepository {
	return &PostgresDisplayLogRepository{db: db}
}

func (r *PostgresDisplayLogRepository) Exists(ctx context.Context, userID, setID string, expiresAt time.Time, displayContext string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM payment_display_logs
			WHERE user_id = $1 AND set_id = $2 AND expires_at = $3 AND context = $4
		)
	`, userID, setID, expiresAt, displayContext).Scan(&exists)
	return exists, err
}

func (r *PostgresDisplayLogRepository) Append(ctx context.Context, log models.PaymentDisplayLog, limit int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		INSERT INTO payment_display_logs (id, user_id, set_id, scope, shown_at, expires_at, context)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id, set_id, expires_at, context) DO NOTHING
	`, log.ID, log.UserID, log.SetID, log.Scope, log.ShownAt, log.ExpiresAt, log.Context)
	if err != nil {
		return err
	}
	if n, err := result.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return interfaces.ErrConflict
	}

	if limit > 0 {
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM payment_display_logs WHERE id IN (
				SELECT id FROM payment_display_logs ORDER BY shown_at DESC, id DESC OFFSET $1
			)
		`, limit); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *PostgresDisplayLogRepository) List(ctx context.Context, userID string) ([]models.PaymentDisplayLog, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, set_id, scope, shown_at, expires_at, context
		FROM payment_display_logs
		WHERE $1 = '' OR user_id = $1
		ORDER BY shown_at DESC, id DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.PaymentDisplayLog, 0)
	for rows.Next() {
		var l models.PaymentDisplayLog
		if err := rows.Scan(&l.ID, &l.UserID, &l.SetID, &l.Scope, &l.ShownAt, &l.ExpiresAt, &l.Context); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

type PostgresTransactionRepository struct {
	db *sql.DB
}

func NewPostgresTransactionRepository(db *sql.DB) *PostgresTransactionRepository {
	return &PostgresTransactionRepository{db: db}
}

const transactionColumns = `id, user_id, transaction_id, proof_image, proof_file_name, amount_in_cents, status,
	payment_set_id, payment_scope, reviewed_by, reviewed_at, created_at, updated_at`

func scanTransaction(row scanner) (*models.PaymentTransaction, error) {
	var (
		tx         models.PaymentTransaction
		reviewedAt sql.NullTime
	)
	err := row.Scan(&tx.ID, &tx.UserID, &tx.TransactionID, &tx.ProofImage, &tx.ProofFileName, &tx.AmountInCents,
		&tx.Status, &tx.PaymentSetID, &tx.PaymentScope, &tx.ReviewedBy, &reviewedAt, &tx.CreatedAt, &tx.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if reviewedAt.Valid {
		tx.ReviewedAt = &reviewedAt.Time
	}
	return &tx, nil
}

func (r *PostgresTransactionRepository) Get(ctx context.Context, id string) (*models.PaymentTransaction, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+transactionColumns+` FROM payment_transactions WHERE id = $1`, id)
	tx, err := scanTransaction(row)
	if err != nil {
		return nil, notFound(err)
	}
	return tx, nil
}

func (r *PostgresTransactionRepository) FindByTransactionID(ctx context.Context, userID, transactionID string) (*models.PaymentTransaction, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+transactionColumns+` FROM payment_transactions
		WHERE user_id = $1 AND lower(transaction_id) = lower($2)
	`, userID, transactionID)
	tx, err := scanTransaction(row)
	if err != nil {
		return nil, notFound(err)
	}
	return tx, nil
}

func (r *PostgresTransactionRepository) Insert(ctx context.Context, tx models.PaymentTransaction) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO payment_transactions (`+transactionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, tx.ID, tx.UserID, tx.TransactionID, tx.ProofImage, tx.ProofFileName, tx.AmountInCents, tx.Status,
		tx.PaymentSetID, tx.PaymentScope, tx.ReviewedBy, tx.ReviewedAt, tx.CreatedAt, tx.UpdatedAt)
	if isUniqueViolation(err) {
		return interfaces.ErrConflict
	}
	return err
}

func (r *PostgresTransactionRepository) query(ctx context.Context, query string, args ...any) ([]models.PaymentTransaction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.PaymentTransaction, 0)
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *tx)
	}
	return out, rows.Err()
}

func (r *PostgresTransactionRepository) ListByUser(ctx context.Context, userID string) ([]models.PaymentTransaction, error) {
	return r.query(ctx, `SELECT `+transactionColumns+` FROM payment_transactions WHERE user_id = $1`, userID)
}

func (r *PostgresTransactionRepository) List(ctx context.Context) ([]models.PaymentTransaction, error) {
	return r.query(ctx, `SELECT `+transactionColumns+` FROM payment_transactions`)
}

func (r *PostgresTransactionRepository) TransitionStatus(ctx context.Context, id string, from, to models.TransactionStatus, reviewedBy string, at time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE payment_transactions
		SET status = $1, reviewed_by = $2, reviewed_at = $3, updated_at = $3
		WHERE id = $4 AND status = $5
	`, to, reviewedBy, at, id, from)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *PostgresTransactionRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM payment_transactions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

type PostgresTemplateRepository struct {
	db *sql.DB
}

func NewPostgresTemplateRepository(db *sql.DB) *PostgresTemplateRepository {
	return &PostgresTemplateRepository{db: db}
}

const templateColumns = `id, qr_image, account_holder_name, bank_name, account_number, ifsc, branch, created_by, created_at`

func scanTemplate(row scanner) (*models.PaymentTemplate, error) {
	var t models.PaymentTemplate
	err := row.Scan(&t.ID, &t.QRImage, &t.Bank.AccountHolderName, &t.Bank.BankName, &t.Bank.AccountNumber,
		&t.Bank.IFSC, &t.Bank.Branch, &t.CreatedBy, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *PostgresTemplateRepository) Get(ctx context.Context, id string) (*models.PaymentTemplate, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+templateColumns+` FROM payment_templates WHERE id = $1`, id)
	t, err := scanTemplate(row)
	if err != nil {
		return nil, notFound(err)
	}
	return t, nil
}

func (r *PostgresTemplateRepository) Put(ctx context.Context, t models.PaymentTemplate) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO payment_templates (`+templateColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING
	`, t.ID, t.QRImage, t.Bank.AccountHolderName, t.Bank.BankName, t.Bank.AccountNumber, t.Bank.IFSC,
		t.Bank.Branch, t.CreatedBy, t.CreatedAt)
	return err
}

func (r *PostgresTemplateRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM payment_templates WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

func (r *PostgresTemplateRepository) List(ctx context.Context) ([]models.PaymentTemplate, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+templateColumns+` FROM payment_templates`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.PaymentTemplate, 0)
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

func (r *PostgresTemplateRepository) DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM payment_templates WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	n, err := result.RowsAffected()
	return int(n), err
}
