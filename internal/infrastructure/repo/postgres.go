package repo

import (
	"database/sql"
	"encoding/json"
	"time"

	"pix-backend/internal/domain"

	_ "github.com/lib/pq"
)

// PostgresOrderRepo persists orders keyed by the processor-issued transaction
// id. All writes are single statements, so concurrent writers for the same
// key are serialized by the database row lock.
type PostgresOrderRepo struct {
	db *sql.DB
}

func NewPostgresOrderRepo(dsn string) (*PostgresOrderRepo, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	r := &PostgresOrderRepo{db: db}
	if err := r.init(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *PostgresOrderRepo) init() error {
	_, err := r.db.Exec(`CREATE TABLE IF NOT EXISTS orders (
		transaction_id TEXT PRIMARY KEY,
		status TEXT NOT NULL,
		amount_cents INT NOT NULL,
		fee_cents INT NOT NULL DEFAULT 0,
		payment_method TEXT,
		platform TEXT,
		pix_code TEXT,
		customer TEXT,
		used_real_data BOOLEAN,
		tracking TEXT,
		created_at TIMESTAMPTZ,
		updated_at TIMESTAMPTZ
	);`)
	return err
}

func (r *PostgresOrderRepo) Ping() error {
	return r.db.Ping()
}

// UpsertPending inserts the order or, when the transaction id already exists,
// resets it to pending with the latest pix code. Amount and customer are set
// only on insert; a retried creation never rewrites them.
func (r *PostgresOrderRepo) UpsertPending(o *domain.Order) error {
	customer, _ := json.Marshal(o.Customer)
	tracking, _ := json.Marshal(o.Tracking)
	_, err := r.db.Exec(`INSERT INTO orders (transaction_id,status,amount_cents,fee_cents,payment_method,platform,pix_code,customer,used_real_data,tracking,created_at,updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		ON CONFLICT (transaction_id) DO UPDATE SET status=$2,pix_code=$7,updated_at=$12`,
		o.TransactionID, string(domain.OrderPending), o.AmountCents, o.FeeCents, o.PaymentMethod, o.Platform,
		o.PixCode, string(customer), o.UsedRealData, string(tracking), o.CreatedAt, o.UpdatedAt)
	return err
}

// ApplyStatus updates status and updated_at for the matching row and returns
// the number of rows touched. Zero means the order does not exist.
func (r *PostgresOrderRepo) ApplyStatus(transactionID, status string) (int64, error) {
	res, err := r.db.Exec(`UPDATE orders SET status=$1, updated_at=$2 WHERE transaction_id=$3`,
		status, time.Now().UTC(), transactionID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *PostgresOrderRepo) Get(transactionID string) (*domain.Order, bool) {
	var o domain.Order
	var customer, tracking string
	err := r.db.QueryRow(`SELECT transaction_id,status,amount_cents,fee_cents,payment_method,platform,pix_code,customer,used_real_data,tracking,created_at,updated_at
		FROM orders WHERE transaction_id=$1`, transactionID).
		Scan(&o.TransactionID, (*string)(&o.Status), &o.AmountCents, &o.FeeCents, &o.PaymentMethod, &o.Platform,
			&o.PixCode, &customer, &o.UsedRealData, &tracking, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, false
	}
	_ = json.Unmarshal([]byte(customer), &o.Customer)
	_ = json.Unmarshal([]byte(tracking), &o.Tracking)
	return &o, true
}

func (r *PostgresOrderRepo) ListAll() ([]string, error) {
	rows, err := r.db.Query(`SELECT transaction_id FROM orders ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
