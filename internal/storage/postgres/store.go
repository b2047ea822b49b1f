package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/aveekpatra/BestClient-sub000/internal/interfaces"
	"github.com/aveekpatra/BestClient-sub000/internal/models"
)

// Store is the durable implementation of interfaces.Store backed by
// PostgreSQL. Every combined operation (work row + balance patch +
// history append) runs in a single database transaction; the balance
// patch is a compare-and-swap on the client's version column.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// EnsureSchema creates the three tables if they do not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS clients (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	email      TEXT NOT NULL DEFAULT '',
	phone      TEXT NOT NULL DEFAULT '',
	balance    BIGINT NOT NULL DEFAULT 0,
	version    BIGINT NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS work_transactions (
	id               TEXT PRIMARY KEY,
	client_id        TEXT NOT NULL REFERENCES clients(id),
	total_price      BIGINT NOT NULL,
	paid_amount      BIGINT NOT NULL,
	work_types       TEXT[] NOT NULL,
	transaction_date DATE NOT NULL,
	description      TEXT NOT NULL,
	created_at       TIMESTAMPTZ NOT NULL,
	updated_at       TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_work_transactions_client ON work_transactions(client_id);

CREATE TABLE IF NOT EXISTS balance_history (
	id               TEXT PRIMARY KEY,
	seq              BIGSERIAL,
	client_id        TEXT NOT NULL,
	change_type      TEXT NOT NULL,
	previous_balance BIGINT NOT NULL,
	balance_change   BIGINT NOT NULL,
	new_balance      BIGINT NOT NULL,
	description      TEXT NOT NULL,
	work_id          TEXT,
	work_total_price BIGINT,
	work_paid_amount BIGINT,
	work_description TEXT NOT NULL DEFAULT '',
	created_at       TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_balance_history_client ON balance_history(client_id, seq);
`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

func (s *Store) CreateClient(ctx context.Context, client models.Client) error {
	const query = `INSERT INTO clients (id, name, email, phone, balance, version, created_at, updated_at)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`

	_, err := s.db.ExecContext(ctx, query, client.ID, client.Name, client.Email, client.Phone,
		client.Balance, client.Version, client.CreatedAt, client.UpdatedAt)
	return err
}

func (s *Store) GetClient(ctx context.Context, id string) (models.Client, error) {
	const query = `SELECT id, name, email, phone, balance, version, created_at, updated_at
	FROM clients WHERE id = $1`

	var c models.Client
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&c.ID, &c.Name, &c.Email, &c.Phone, &c.Balance, &c.Version, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return models.Client{}, interfaces.ErrNotFound
	}
	if err != nil {
		return models.Client{}, err
	}
	return c, nil
}

func (s *Store) ListClients(ctx context.Context) ([]models.Client, error) {
	const query = `SELECT id, name, email, phone, balance, version, created_at, updated_at
	FROM clients ORDER BY name`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var clients []models.Client
	for rows.Next() {
		var c models.Client
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Balance, &c.Version, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}

func (s *Store) DeleteClient(ctx context.Context, id string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		var count int64
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM work_transactions WHERE client_id = $1`, id).Scan(&count); err != nil {
			return err
		}
		if count > 0 {
			return interfaces.ErrHasWorks
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM clients WHERE id = $1`, id)
		if err != nil {
			// A work row created after the count still trips the
			// foreign key; that is the same conflict.
			if isForeignKeyViolation(err) {
				return interfaces.ErrHasWorks
			}
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return interfaces.ErrNotFound
		}
		return nil
	})
}

// isForeignKeyViolation reports whether err is the postgres
// foreign_key_violation error (class 23503).
func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23503"
}

func (s *Store) GetWork(ctx context.Context, id string) (models.WorkTransaction, error) {
	const query = `SELECT id, client_id, total_price, paid_amount, work_types, transaction_date, description, created_at, updated_at
	FROM work_transactions WHERE id = $1`

	var w models.WorkTransaction
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&w.ID, &w.ClientID, &w.TotalPrice, &w.PaidAmount, pq.Array(&w.WorkTypes),
		&w.TransactionDate, &w.Description, &w.CreatedAt, &w.UpdatedAt)
	if err == sql.ErrNoRows {
		return models.WorkTransaction{}, interfaces.ErrNotFound
	}
	if err != nil {
		return models.WorkTransaction{}, err
	}
	return w, nil
}

func (s *Store) ListWorksByClient(ctx context.Context, clientID string) ([]models.WorkTransaction, error) {
	return s.ListWorks(ctx, models.WorkFilter{ClientID: clientID})
}

func (s *Store) ListWorks(ctx context.Context, filter models.WorkFilter) ([]models.WorkTransaction, error) {
	query := `SELECT id, client_id, total_price, paid_amount, work_types, transaction_date, description, created_at, updated_at
	FROM work_transactions WHERE 1=1`
	var args []any

	if filter.ClientID != "" {
		args = append(args, filter.ClientID)
		query += fmt.Sprintf(" AND client_id = $%d", len(args))
	}
	switch filter.Status {
	case models.PaymentStatusUnpaid:
		query += " AND paid_amount <= 0"
	case models.PaymentStatusPaid:
		query += " AND paid_amount >= total_price AND paid_amount > 0"
	case models.PaymentStatusPartial:
		query += " AND paid_amount > 0 AND paid_amount < total_price"
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		query += fmt.Sprintf(" AND transaction_date >= $%d", len(args))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		query += fmt.Sprintf(" AND transaction_date <= $%d", len(args))
	}
	query += " ORDER BY transaction_date, id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var works []models.WorkTransaction
	for rows.Next() {
		var w models.WorkTransaction
		if err := rows.Scan(&w.ID, &w.ClientID, &w.TotalPrice, &w.PaidAmount, pq.Array(&w.WorkTypes),
			&w.TransactionDate, &w.Description, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, err
		}
		works = append(works, w)
	}
	return works, rows.Err()
}

func (s *Store) CountWorksByClient(ctx context.Context, clientID string) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM work_transactions WHERE client_id = $1`, clientID).Scan(&count)
	return count, err
}

func (s *Store) CreateWork(ctx context.Context, work models.WorkTransaction, change interfaces.BalanceChange) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		const query = `INSERT INTO work_transactions (id, client_id, total_price, paid_amount, work_types, transaction_date, description, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`

		if _, err := tx.ExecContext(ctx, query, work.ID, work.ClientID, work.TotalPrice, work.PaidAmount,
			pq.Array(work.WorkTypes), work.TransactionDate, work.Description, work.CreatedAt, work.UpdatedAt); err != nil {
			return err
		}
		return s.applyChangeTx(ctx, tx, change)
	})
}

func (s *Store) UpdateWork(ctx context.Context, work models.WorkTransaction, change interfaces.BalanceChange) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		const query = `UPDATE work_transactions
		SET total_price = $2, paid_amount = $3, work_types = $4, transaction_date = $5, description = $6, updated_at = $7
		WHERE id = $1`

		res, err := tx.ExecContext(ctx, query, work.ID, work.TotalPrice, work.PaidAmount,
			pq.Array(work.WorkTypes), work.TransactionDate, work.Description, work.UpdatedAt)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return interfaces.ErrNotFound
		}
		return s.applyChangeTx(ctx, tx, change)
	})
}

func (s *Store) DeleteWork(ctx context.Context, workID string, change interfaces.BalanceChange) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM work_transactions WHERE id = $1`, workID)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return interfaces.ErrNotFound
		}
		return s.applyChangeTx(ctx, tx, change)
	})
}

func (s *Store) ApplyBalanceChange(ctx context.Context, change interfaces.BalanceChange) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		return s.applyChangeTx(ctx, tx, change)
	})
}

// applyChangeTx performs the compare-and-swap balance patch and the
// history append inside the caller's transaction.
func (s *Store) applyChangeTx(ctx context.Context, tx *sql.Tx, change interfaces.BalanceChange) error {
	const patch = `UPDATE clients SET balance = $2, version = version + 1, updated_at = $3
	WHERE id = $1 AND version = $4`

	res, err := tx.ExecContext(ctx, patch, change.ClientID, change.NewBalance, change.Entry.CreatedAt, change.ExpectedVersion)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var exists int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM clients WHERE id = $1`, change.ClientID).Scan(&exists)
		if err == sql.ErrNoRows {
			return interfaces.ErrNotFound
		}
		if err != nil {
			return err
		}
		return interfaces.ErrVersionConflict
	}

	e := change.Entry
	const insert = `INSERT INTO balance_history (id, client_id, change_type, previous_balance, balance_change, new_balance, description, work_id, work_total_price, work_paid_amount, work_description, created_at)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`

	var workID any
	if e.WorkID != "" {
		workID = e.WorkID
	}
	_, err = tx.ExecContext(ctx, insert, e.ID, e.ClientID, string(e.ChangeType),
		e.PreviousBalance, e.BalanceChange, e.NewBalance, e.Description,
		workID, e.WorkTotalPrice, e.WorkPaidAmount, e.WorkDescription, e.CreatedAt)
	return err
}

func (s *Store) HistoryByClient(ctx context.Context, clientID string, limit, offset int) ([]models.BalanceHistoryEntry, int64, error) {
	var total int64
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM balance_history WHERE client_id = $1`, clientID).Scan(&total); err != nil {
		return nil, 0, err
	}

	const query = `SELECT id, client_id, change_type, previous_balance, balance_change, new_balance, description, work_id, work_total_price, work_paid_amount, work_description, created_at
	FROM balance_history WHERE client_id = $1
	ORDER BY seq DESC
	LIMIT $2 OFFSET $3`

	rows, err := s.db.QueryContext(ctx, query, clientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var entries []models.BalanceHistoryEntry
	for rows.Next() {
		var e models.BalanceHistoryEntry
		var changeType string
		var workID sql.NullString
		var workDescription sql.NullString
		if err := rows.Scan(&e.ID, &e.ClientID, &changeType, &e.PreviousBalance, &e.BalanceChange,
			&e.NewBalance, &e.Description, &workID, &e.WorkTotalPrice, &e.WorkPaidAmount,
			&workDescription, &e.CreatedAt); err != nil {
			return nil, 0, err
		}
		e.ChangeType = models.ChangeType(changeType)
		e.WorkID = workID.String
		e.WorkDescription = workDescription.String
		entries = append(entries, e)
	}
	return entries, total, rows.Err()
}

// inTx runs fn inside a transaction, rolling back on error.
func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Compile-time check: Store implements interfaces.Store.
var _ interfaces.Store = (*Store)(nil)
