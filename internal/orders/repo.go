package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ DB *pgxpool.Pool }

const orderColumns = `o.id, o.order_number, o.order_type, o.status, o.table_id,
	t.table_number, o.customer_name, o.waiter_id, u.username, o.payment_id,
	o.created_at, o.updated_at`

const itemColumns = `id, order_id, menu_id, menu_name, menu_price, category_id,
	category_name, kitchen_id, kitchen_name, is_buffet, quantity, status, notes,
	created_at, updated_at`

func (r *Repo) GetTable(ctx context.Context, id int64) (*Table, error) {
	var t Table
	err := r.DB.QueryRow(ctx,
		`SELECT id, table_number, is_available FROM tables WHERE id=$1`, id).
		Scan(&t.ID, &t.TableNumber, &t.IsAvailable)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: table %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *Repo) SetTableAvailable(ctx context.Context, id int64, available bool) error {
	ct, err := r.DB.Exec(ctx,
		`UPDATE tables SET is_available=$2 WHERE id=$1`, id, available)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("%w: table %d", ErrNotFound, id)
	}
	return nil
}

func (r *Repo) ResolveMenus(ctx context.Context, ids []int64) (map[int64]MenuSnapshot, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT m.id, m.name, m.price, m.is_buffet,
		       c.id, c.name, k.id, k.name
		FROM menus m
		LEFT JOIN categories c ON c.id = m.category_id
		LEFT JOIN kitchens k   ON k.id = m.kitchen_id
		WHERE m.id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int64]MenuSnapshot, len(ids))
	for rows.Next() {
		var s MenuSnapshot
		if err := rows.Scan(&s.MenuID, &s.MenuName, &s.MenuPrice, &s.IsBuffet,
			&s.CategoryID, &s.CategoryName, &s.KitchenID, &s.KitchenName); err != nil {
			return nil, err
		}
		out[s.MenuID] = s
	}
	return out, rows.Err()
}

func (r *Repo) LastOrderNumber(ctx context.Context, prefix string) (string, error) {
	var num string
	err := r.DB.QueryRow(ctx, `
		SELECT order_number FROM orders
		WHERE order_number LIKE $1 || '-%'
		ORDER BY order_number DESC LIMIT 1`, prefix).Scan(&num)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	return num, err
}

func (r *Repo) InsertOrder(ctx context.Context, o *Order) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx, `
		INSERT INTO orders(order_number, order_type, status, table_id, customer_name, waiter_id)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING id, created_at, updated_at`,
		o.OrderNumber, o.OrderType, o.Status, o.TableID, o.CustomerName, o.WaiterID).
		Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: %s", ErrDuplicateOrderNumber, o.OrderNumber)
		}
		return err
	}

	for i := range o.Items {
		it := &o.Items[i]
		it.OrderID = o.ID
		err = tx.QueryRow(ctx, `
			INSERT INTO order_items(order_id, menu_id, menu_name, menu_price,
				category_id, category_name, kitchen_id, kitchen_name,
				is_buffet, quantity, status, notes)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
			RETURNING id, created_at, updated_at`,
			it.OrderID, it.MenuID, it.MenuName, it.MenuPrice,
			it.CategoryID, it.CategoryName, it.KitchenID, it.KitchenName,
			it.IsBuffet, it.Quantity, it.Status, it.Notes).
			Scan(&it.ID, &it.CreatedAt, &it.UpdatedAt)
		if err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *Repo) GetOrder(ctx context.Context, id int64) (*Order, error) {
	return r.getOrder(ctx, `o.id=$1`, id)
}

func (r *Repo) GetOrderByNumber(ctx context.Context, number string) (*Order, error) {
	return r.getOrder(ctx, `o.order_number=$1`, number)
}

func (r *Repo) getOrder(ctx context.Context, cond string, arg any) (*Order, error) {
	var o Order
	err := r.DB.QueryRow(ctx, `
		SELECT `+orderColumns+`
		FROM orders o
		LEFT JOIN tables t ON t.id = o.table_id
		LEFT JOIN users u  ON u.id = o.waiter_id
		WHERE `+cond, arg).
		Scan(&o.ID, &o.OrderNumber, &o.OrderType, &o.Status, &o.TableID,
			&o.TableNumber, &o.CustomerName, &o.WaiterID, &o.WaiterName,
			&o.PaymentID, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: order", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	items, err := r.ListItems(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return &o, nil
}

func (r *Repo) ListOrders(ctx context.Context, status Status) ([]Order, error) {
	q := `
		SELECT ` + orderColumns + `
		FROM orders o
		LEFT JOIN tables t ON t.id = o.table_id
		LEFT JOIN users u  ON u.id = o.waiter_id`
	var args []any
	if status != "" {
		q += ` WHERE o.status=$1`
		args = append(args, status)
	}
	q += ` ORDER BY o.created_at DESC`

	rows, err := r.DB.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		var o Order
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
		items, err := r.ListItems(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Items = items
	}
	return out, nil
}

func (r *Repo) UpdateOrderStatus(ctx context.Context, id int64, status Status) error {
	ct, err := r.DB.Exec(ctx,
		`UPDATE orders SET status=$2, updated_at=now() WHERE id=$1`, id, status)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("%w: order %d", ErrNotFound, id)
	}
	return nil
}

func (r *Repo) InsertItems(ctx context.Context, orderID int64, items []OrderItem) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for i := range items {
		it := &items[i]
		it.OrderID = orderID
		err = tx.QueryRow(ctx, `
			INSERT INTO order_items(order_id, menu_id, menu_name, menu_price,
				category_id, category_name, kitchen_id, kitchen_name,
				is_buffet, quantity, status, notes)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
			RETURNING id, created_at, updated_at`,
			it.OrderID, it.MenuID, it.MenuName, it.MenuPrice,
			it.CategoryID, it.CategoryName, it.KitchenID, it.KitchenName,
			it.IsBuffet, it.Quantity, it.Status, it.Notes).
			Scan(&it.ID, &it.CreatedAt, &it.UpdatedAt)
		if err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *Repo) GetItem(ctx context.Context, id int64) (*OrderItem, error) {
	var it OrderItem
	err := r.DB.QueryRow(ctx,
		`SELECT `+itemColumns+` FROM order_items WHERE id=$1`, id).
		Scan(&it.ID, &it.OrderID, &it.MenuID, &it.MenuName, &it.MenuPrice,
			&it.CategoryID, &it.CategoryName, &it.KitchenID, &it.KitchenName,
			&it.IsBuffet, &it.Quantity, &it.Status, &it.Notes,
			&it.CreatedAt, &it.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: item %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &it, nil
}

func (r *Repo) DeleteItem(ctx context.Context, id int64) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM order_items WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("%w: item %d", ErrNotFound, id)
	}
	return nil
}

func (r *Repo) UpdateItemStatus(ctx context.Context, id int64, status Status) error {
	ct, err := r.DB.Exec(ctx,
		`UPDATE order_items SET status=$2, updated_at=now() WHERE id=$1`, id, status)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("%w: item %d", ErrNotFound, id)
	}
	return nil
}

func (r *Repo) ListItems(ctx context.Context, orderID int64) ([]OrderItem, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT `+itemColumns+` FROM order_items WHERE order_id=$1 ORDER BY id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OrderItem
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.MenuID, &it.MenuName, &it.MenuPrice,
			&it.CategoryID, &it.CategoryName, &it.KitchenID, &it.KitchenName,
			&it.IsBuffet, &it.Quantity, &it.Status, &it.Notes,
			&it.CreatedAt, &it.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// ListActiveKitchens feeds the printer registry refresh: only ACTIVE kitchens
// with printing enabled get a connection.
func (r *Repo) ListActiveKitchens(ctx context.Context) ([]Kitchen, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, name, use_printer, printer_ip, status
		FROM kitchens
		WHERE use_printer AND status='ACTIVE'`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Kitchen
	for rows.Next() {
		var k Kitchen
		if err := rows.Scan(&k.ID, &k.Name, &k.UsePrinter, &k.PrinterIP, &k.Status); err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, rows.Err()
}
