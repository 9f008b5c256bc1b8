package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sawomule/go-resto-pos.git/internal/orders"
)

type Repo struct {
	DB     *pgxpool.Pool
	Orders *orders.Repo
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{DB: db, Orders: &orders.Repo{DB: db}}
}

func (r *Repo) UnpaidOrders(ctx context.Context, ids []int64) ([]orders.Order, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT o.id, o.order_number, o.order_type, o.status, o.table_id,
		       t.table_number, o.customer_name, o.waiter_id, u.username,
		       o.payment_id, o.created_at, o.updated_at
		FROM orders o
		LEFT JOIN tables t ON t.id = o.table_id
		LEFT JOIN users u  ON u.id = o.waiter_id
		WHERE o.id = ANY($1) AND o.payment_id IS NULL
		ORDER BY o.id`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []orders.Order
	for rows.Next() {
		var o orders.Order
		if err := rows.Scan(&o.ID, &o.OrderNumber, &o.OrderType, &o.Status, &o.TableID,
			&o.TableNumber, &o.CustomerName, &o.WaiterID, &o.WaiterName,
			&o.PaymentID, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		items, err := r.Orders.ListItems(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Items = items
	}
	return out, nil
}

func (r *Repo) CompleteOrders(ctx context.Context, ids []int64) error {
	_, err := r.DB.Exec(ctx, `
		UPDATE orders SET status=$2, updated_at=now()
		WHERE id = ANY($1)`, ids, orders.StatusCompleted)
	return err
}

// Settle is the one strict atomicity point in the system: the payment insert
// and the order updates commit together, so an order is never visible with a
// payment_id that has no committed payment behind it.
func (r *Repo) Settle(ctx context.Context, p *orders.Payment, ids []int64) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx, `
		INSERT INTO payments(cashier_id, payment_method, total_amount, cash, change)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING id, created_at`,
		p.CashierID, p.Method, p.TotalAmount, p.Cash, p.Change).
		Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}

	// payment_id IS NULL guards the window between UnpaidOrders and this
	// commit: an order paid concurrently drops the count and rolls us back.
	ct, err := tx.Exec(ctx, `
		UPDATE orders SET payment_id=$2, status=$3, updated_at=now()
		WHERE id = ANY($1) AND payment_id IS NULL`, ids, p.ID, orders.StatusCompleted)
	if err != nil {
		return fmt.Errorf("mark orders paid: %w", err)
	}
	if int(ct.RowsAffected()) != len(ids) {
		return fmt.Errorf("mark orders paid: expected %d orders, updated %d", len(ids), ct.RowsAffected())
	}
	return tx.Commit(ctx)
}

func (r *Repo) GetPayment(ctx context.Context, id int64) (*orders.Payment, error) {
	var p orders.Payment
	err := r.DB.QueryRow(ctx, `
		SELECT p.id, p.cashier_id, u.username, p.payment_method,
		       p.total_amount, p.cash, p.change, p.created_at
		FROM payments p
		LEFT JOIN users u ON u.id = p.cashier_id
		WHERE p.id=$1`, id).
		Scan(&p.ID, &p.CashierID, &p.CashierName, &p.Method,
			&p.TotalAmount, &p.Cash, &p.Change, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: payment %d", orders.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repo) OrdersByPayment(ctx context.Context, paymentID int64) ([]orders.Order, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT o.id, o.order_number, o.order_type, o.status, o.table_id,
		       t.table_number, o.customer_name, o.waiter_id, u.username,
		       o.payment_id, o.created_at, o.updated_at
		FROM orders o
		LEFT JOIN tables t ON t.id = o.table_id
		LEFT JOIN users u  ON u.id = o.waiter_id
		WHERE o.payment_id=$1
		ORDER BY o.id`, paymentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []orders.Order
	for rows.Next() {
		var o orders.Order
		if err := rows.Scan(&o.ID, &o.OrderNumber, &o.OrderType, &o.Status, &o.TableID,
			&o.TableNumber, &o.CustomerName, &o.WaiterID, &o.WaiterName,
			&o.PaymentID, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		items, err := r.Orders.ListItems(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Items = items
	}
	return out, nil
}

func (r *Repo) ListPayments(ctx context.Context, method orders.PaymentMethod, from, to *time.Time) ([]orders.Payment, error) {
	q := `
		SELECT p.id, p.cashier_id, u.username, p.payment_method,
		       p.total_amount, p.cash, p.change, p.created_at
		FROM payments p
		LEFT JOIN users u ON u.id = p.cashier_id
		WHERE 1=1`
	var args []any
	if method != "" {
		args = append(args, method)
		q += fmt.Sprintf(" AND p.payment_method=$%d", len(args))
	}
	if from != nil {
		args = append(args, *from)
		q += fmt.Sprintf(" AND p.created_at >= $%d", len(args))
	}
	if to != nil {
		args = append(args, *to)
		q += fmt.Sprintf(" AND p.created_at <= $%d", len(args))
	}
	q += ` ORDER BY p.created_at DESC`

	rows, err := r.DB.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []orders.Payment
	for rows.Next() {
		var p orders.Payment
		if err := rows.Scan(&p.ID, &p.CashierID, &p.CashierName, &p.Method,
			&p.TotalAmount, &p.Cash, &p.Change, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
