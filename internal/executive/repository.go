package executive

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vitrine-commerce/vitrine/internal/platform/db"
)

const uniqueViolation = "23505"

// ErrSnapshotConflict signals a concurrent writer raced the delete-then-insert
// for the same period key. Runs are expected to be serialized; the conflict is
// surfaced rather than retried.
var ErrSnapshotConflict = errors.New("snapshot period already written concurrently")

// PgRepository implements Repository on PostgreSQL.
type PgRepository struct {
	pool *pgxpool.Pool
}

// NewPgRepository constructs PgRepository.
func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func (r *PgRepository) TotalRevenue(ctx context.Context) (float64, error) {
	var total float64
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(total), 0) FROM orders WHERE status <> 'CANCELLED'`,
	).Scan(&total)
	return total, err
}

func (r *PgRepository) TotalOrders(ctx context.Context) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM orders WHERE status <> 'CANCELLED'`,
	).Scan(&count)
	return count, err
}

func (r *PgRepository) PendingOrders(ctx context.Context) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM orders WHERE status = 'PENDING'`,
	).Scan(&count)
	return count, err
}

func (r *PgRepository) ActiveProductCount(ctx context.Context) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM products WHERE active`).Scan(&count)
	return count, err
}

func (r *PgRepository) DistinctCustomerCount(ctx context.Context) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(DISTINCT customer_email) FROM orders WHERE status <> 'CANCELLED'`,
	).Scan(&count)
	return count, err
}

func (r *PgRepository) RevenueBetween(ctx context.Context, start, end time.Time) (float64, error) {
	var total float64
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(total), 0) FROM orders
		 WHERE status <> 'CANCELLED' AND created_at >= $1 AND created_at <= $2`,
		start, end,
	).Scan(&total)
	return total, err
}

func (r *PgRepository) OrdersWithItemsBetween(ctx context.Context, start, end time.Time) ([]Order, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT o.id, o.status, o.total, o.subtotal, o.customer_name, o.customer_email, o.created_at,
		        i.product_id, i.product_name, i.quantity, i.unit_price, i.total_price
		 FROM orders o
		 LEFT JOIN order_items i ON i.order_id = o.id
		 WHERE o.status <> 'CANCELLED' AND o.created_at >= $1 AND o.created_at <= $2
		 ORDER BY o.created_at ASC, o.id, i.id`,
		start, end,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var (
		orders []Order
		lastID string
	)
	for rows.Next() {
		var (
			o           Order
			productID   *string
			productName *string
			quantity    *int
			unitPrice   *float64
			totalPrice  *float64
		)
		err := rows.Scan(&o.ID, &o.Status, &o.Total, &o.Subtotal, &o.CustomerName, &o.CustomerEmail, &o.CreatedAt,
			&productID, &productName, &quantity, &unitPrice, &totalPrice)
		if err != nil {
			return nil, err
		}
		if o.ID != lastID {
			orders = append(orders, o)
			lastID = o.ID
		}
		if productName == nil && quantity == nil {
			continue
		}
		item := OrderItem{ProductID: productID}
		if productName != nil {
			item.ProductName = *productName
		}
		if quantity != nil {
			item.Quantity = *quantity
		}
		if unitPrice != nil {
			item.UnitPrice = *unitPrice
		}
		if totalPrice != nil {
			item.TotalPrice = *totalPrice
		}
		last := &orders[len(orders)-1]
		last.Items = append(last.Items, item)
	}
	return orders, rows.Err()
}

func (r *PgRepository) ActiveProducts(ctx context.Context) ([]Product, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, stock, price, active FROM products WHERE active ORDER BY id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProducts(rows)
}

func (r *PgRepository) RecentlySoldProductIDs(ctx context.Context, since time.Time) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT DISTINCT i.product_id
		 FROM order_items i
		 JOIN orders o ON o.id = i.order_id
		 WHERE i.product_id IS NOT NULL AND o.status <> 'CANCELLED' AND o.created_at >= $1`,
		since,
	)
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

func (r *PgRepository) ActiveInStockProductsExcluding(ctx context.Context, excluded []string, limit int) ([]Product, error) {
	query := `SELECT id, name, stock, price, active FROM products WHERE active AND stock > 0`
	args := make([]interface{}, 0, 2)
	if len(excluded) > 0 {
		query += ` AND NOT (id = ANY($1)) ORDER BY stock DESC LIMIT $2`
		args = append(args, excluded, limit)
	} else {
		query += ` ORDER BY stock DESC LIMIT $1`
		args = append(args, limit)
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProducts(rows)
}

func (r *PgRepository) CustomerOrdersBetween(ctx context.Context, start, end time.Time) ([]CustomerOrder, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT customer_name, customer_email, COALESCE(total, 0), created_at
		 FROM orders
		 WHERE status <> 'CANCELLED' AND created_at >= $1 AND created_at <= $2
		 ORDER BY created_at DESC`,
		start, end,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []CustomerOrder
	for rows.Next() {
		var c CustomerOrder
		if err := rows.Scan(&c.CustomerName, &c.CustomerEmail, &c.Total, &c.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

func (r *PgRepository) OrderItemsBetween(ctx context.Context, start, end time.Time) ([]OrderItem, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT i.product_id, i.product_name, i.quantity, i.unit_price, i.total_price
		 FROM order_items i
		 JOIN orders o ON o.id = i.order_id
		 WHERE o.status <> 'CANCELLED' AND o.created_at >= $1 AND o.created_at <= $2`,
		start, end,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []OrderItem
	for rows.Next() {
		var item OrderItem
		if err := rows.Scan(&item.ProductID, &item.ProductName, &item.Quantity, &item.UnitPrice, &item.TotalPrice); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// ReplaceSnapshot deletes any existing row for the period key and inserts the
// fresh aggregate in one transaction, so a rerun can never leave duplicates
// or a window with zero rows.
func (r *PgRepository) ReplaceSnapshot(ctx context.Context, snap Snapshot) error {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`DELETE FROM analytics_snapshots WHERE period_type = $1 AND period_ref = $2`,
			snap.PeriodType, snap.PeriodRef,
		)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO analytics_snapshots
			   (period_type, period_ref, revenue, cost, gross_profit, orders_count, avg_ticket, generated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			snap.PeriodType, snap.PeriodRef, snap.Revenue, snap.Cost, snap.GrossProfit, snap.OrdersCount, snap.AvgTicket, snap.GeneratedAt,
		)
		return err
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("%w: %s/%s", ErrSnapshotConflict, snap.PeriodType, snap.PeriodRef)
		}
		return err
	}
	return nil
}

func (r *PgRepository) Snapshots(ctx context.Context, periodType string, limit int) ([]Snapshot, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT period_type, period_ref, revenue, cost, gross_profit, orders_count, avg_ticket, generated_at
		 FROM analytics_snapshots
		 WHERE period_type = $1
		 ORDER BY period_ref DESC
		 LIMIT $2`,
		periodType, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snaps []Snapshot
	for rows.Next() {
		var s Snapshot
		err := rows.Scan(&s.PeriodType, &s.PeriodRef, &s.Revenue, &s.Cost, &s.GrossProfit, &s.OrdersCount, &s.AvgTicket, &s.GeneratedAt)
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, s)
	}
	return snaps, rows.Err()
}

func scanProducts(rows pgx.Rows) ([]Product, error) {
	var products []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Stock, &p.Price, &p.Active); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}
