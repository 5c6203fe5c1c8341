package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"stockledger/internal/domain"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrInvalidQuantity = errors.New("quantity must be greater than zero")
)

// LedgerRepository is the persistent ledger of purchases and sale lines.
// Availability is never stored; it is recomputed from the ledger on every
// read as purchased-minus-sold.
type LedgerRepository interface {
	TotalPurchased(ctx context.Context, productID int64) (float64, error)
	TotalSold(ctx context.Context, productID int64) (float64, error)
	Available(ctx context.Context, productID int64) (float64, error)
	CreateSaleWithLines(ctx context.Context, lines []domain.SaleLineRequest) (*domain.SaleReceipt, error)
	CreatePurchase(ctx context.Context, productID int64, quantity float64) (*domain.Purchase, error)
	ListPurchases(ctx context.Context) ([]*domain.Purchase, error)
	ListSalesWithLines(ctx context.Context) ([]*domain.Sale, error)
	StockSummary(ctx context.Context) ([]*domain.StockLevel, error)
}

type ledgerRepository struct {
	db *sql.DB
}

// NewLedgerRepository creates a new instance of LedgerRepository
func NewLedgerRepository(db *sql.DB) LedgerRepository {
	return &ledgerRepository{db: db}
}

// TotalPurchased returns the summed purchase quantity for a product, 0 if none.
func (r *ledgerRepository) TotalPurchased(ctx context.Context, productID int64) (float64, error) {
	query := `SELECT COALESCE(SUM(quantity), 0) FROM purchases WHERE product_id = $1`

	var total float64
	if err := r.db.QueryRowContext(ctx, query, productID).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to sum purchases: %w", err)
	}

	return total, nil
}

// TotalSold returns the summed sale-line quantity for a product across all
// sales, 0 if none.
func (r *ledgerRepository) TotalSold(ctx context.Context, productID int64) (float64, error) {
	query := `SELECT COALESCE(SUM(quantity), 0) FROM sale_lines WHERE product_id = $1`

	var total float64
	if err := r.db.QueryRowContext(ctx, query, productID).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to sum sale lines: %w", err)
	}

	return total, nil
}

// Available computes purchased-minus-sold for a product, failing with
// ErrProductNotFound for unknown ids. Both aggregates are read inside one
// transaction so a concurrent sale cannot be counted in one sum but not
// the other.
func (r *ledgerRepository) Available(ctx context.Context, productID int64) (float64, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	avail, err := availableInTx(ctx, tx, productID)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return avail, nil
}

// availableInTx reads both aggregates through the given transaction. The
// query is anchored on the products row so an unknown id fails with
// ErrProductNotFound instead of summing to a phantom zero.
func availableInTx(ctx context.Context, tx *sql.Tx, productID int64) (float64, error) {
	query := `
		SELECT
			COALESCE((SELECT SUM(quantity) FROM purchases WHERE product_id = p.id), 0) -
			COALESCE((SELECT SUM(quantity) FROM sale_lines WHERE product_id = p.id), 0)
		FROM products p
		WHERE p.id = $1
	`

	var avail float64
	if err := tx.QueryRowContext(ctx, query, productID).Scan(&avail); err != nil {
		if err == sql.ErrNoRows {
			return 0, ErrProductNotFound
		}
		return 0, fmt.Errorf("failed to compute availability: %w", err)
	}

	return avail, nil
}

// lockProduct takes a row lock on the product for the duration of the
// transaction, failing with ErrProductNotFound for unknown ids.
func lockProduct(ctx context.Context, tx *sql.Tx, productID int64) error {
	var id int64
	err := tx.QueryRowContext(ctx, `SELECT id FROM products WHERE id = $1 FOR UPDATE`, productID).Scan(&id)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrProductNotFound
		}
		return fmt.Errorf("failed to lock product %d: %w", productID, err)
	}
	return nil
}

// CreateSaleWithLines atomically creates one sale and its lines. The whole
// batch runs in a serializable transaction: the involved product rows are
// locked, availability is recomputed inside the transaction, and every
// line is checked against a per-product running-available figure that is
// decremented as earlier lines in the same batch are accepted. Any
// rejection rolls back the transaction, leaving no partial writes.
func (r *ledgerRepository) CreateSaleWithLines(ctx context.Context, lines []domain.SaleLineRequest) (*domain.SaleReceipt, error) {
	if len(lines) == 0 {
		return nil, errors.New("sale must contain at least one line")
	}

	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Lock each product once, in input order, and snapshot its availability.
	running := make(map[int64]float64)
	for _, line := range lines {
		if _, seen := running[line.ProductID]; seen {
			continue
		}
		if err := lockProduct(ctx, tx, line.ProductID); err != nil {
			return nil, err
		}
		avail, err := availableInTx(ctx, tx, line.ProductID)
		if err != nil {
			return nil, err
		}
		running[line.ProductID] = avail
	}

	receipt := &domain.SaleReceipt{Lines: make([]domain.SaleReceiptLine, 0, len(lines))}
	for _, line := range lines {
		if line.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}

		avail := running[line.ProductID]
		if avail <= 0 {
			return nil, &domain.OutOfStockError{ProductID: line.ProductID}
		}
		if line.Quantity > avail {
			return nil, &domain.InsufficientStockError{
				ProductID: line.ProductID,
				Requested: line.Quantity,
				Available: avail,
			}
		}

		running[line.ProductID] = avail - line.Quantity
		receipt.Lines = append(receipt.Lines, domain.SaleReceiptLine{
			ProductID:      line.ProductID,
			Quantity:       line.Quantity,
			AvailableStock: avail,
		})
	}

	err = tx.QueryRowContext(ctx, `INSERT INTO sales DEFAULT VALUES RETURNING id, created_at`).
		Scan(&receipt.SaleID, &receipt.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create sale: %w", err)
	}

	for _, line := range lines {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO sale_lines (sale_id, product_id, quantity) VALUES ($1, $2, $3)`,
			receipt.SaleID, line.ProductID, line.Quantity,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create sale line: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit sale: %w", err)
	}

	return receipt, nil
}

// CreatePurchase appends a purchase record. Purchases only ever increase
// availability, so no stock check applies.
func (r *ledgerRepository) CreatePurchase(ctx context.Context, productID int64, quantity float64) (*domain.Purchase, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int64
	err = tx.QueryRowContext(ctx, `SELECT id FROM products WHERE id = $1`, productID).Scan(&exists)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to check product: %w", err)
	}

	purchase := &domain.Purchase{ProductID: productID, Quantity: quantity}
	err = tx.QueryRowContext(ctx,
		`INSERT INTO purchases (product_id, quantity) VALUES ($1, $2) RETURNING id, created_at`,
		productID, quantity,
	).Scan(&purchase.ID, &purchase.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create purchase: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit purchase: %w", err)
	}

	return purchase, nil
}

// ListPurchases enumerates all purchases with their product data, newest first.
func (r *ledgerRepository) ListPurchases(ctx context.Context) ([]*domain.Purchase, error) {
	query := `
		SELECT pu.id, pu.product_id, pu.quantity, pu.created_at,
		       p.id, p.name, p.buying_price, p.selling_price
		FROM purchases pu
		JOIN products p ON p.id = pu.product_id
		ORDER BY pu.created_at DESC, pu.id DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list purchases: %w", err)
	}
	defer rows.Close()

	purchases := []*domain.Purchase{}
	for rows.Next() {
		purchase := &domain.Purchase{Product: &domain.Product{}}
		err := rows.Scan(
			&purchase.ID,
			&purchase.ProductID,
			&purchase.Quantity,
			&purchase.CreatedAt,
			&purchase.Product.ID,
			&purchase.Product.Name,
			&purchase.Product.BuyingPrice,
			&purchase.Product.SellingPrice,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan purchase: %w", err)
		}
		purchases = append(purchases, purchase)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating purchases: %w", err)
	}

	return purchases, nil
}

// ListSalesWithLines enumerates all sales with their lines and nested
// product data, newest first.
func (r *ledgerRepository) ListSalesWithLines(ctx context.Context) ([]*domain.Sale, error) {
	query := `
		SELECT s.id, s.created_at,
		       sl.id, sl.product_id, sl.quantity,
		       p.id, p.name, p.buying_price, p.selling_price
		FROM sales s
		JOIN sale_lines sl ON sl.sale_id = s.id
		JOIN products p ON p.id = sl.product_id
		ORDER BY s.created_at DESC, s.id DESC, sl.id ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list sales: %w", err)
	}
	defer rows.Close()

	sales := []*domain.Sale{}
	byID := make(map[int64]*domain.Sale)
	for rows.Next() {
		var (
			saleID    int64
			line      domain.SaleLine
			product   domain.Product
			createdAt sql.NullTime
		)
		err := rows.Scan(
			&saleID,
			&createdAt,
			&line.ID,
			&line.ProductID,
			&line.Quantity,
			&product.ID,
			&product.Name,
			&product.BuyingPrice,
			&product.SellingPrice,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sale line: %w", err)
		}

		sale, ok := byID[saleID]
		if !ok {
			sale = &domain.Sale{ID: saleID, CreatedAt: createdAt.Time}
			byID[saleID] = sale
			sales = append(sales, sale)
		}

		line.SaleID = saleID
		line.Product = &product
		sale.Lines = append(sale.Lines, line)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sales: %w", err)
	}

	return sales, nil
}

// StockSummary reports derived availability for every product. The outer
// joins keep products with no recorded purchases or sales in the result
// with availability 0.
func (r *ledgerRepository) StockSummary(ctx context.Context) ([]*domain.StockLevel, error) {
	query := `
		SELECT p.id, p.name,
		       COALESCE(pu.total, 0) - COALESCE(sl.total, 0) AS available_quantity
		FROM products p
		LEFT JOIN (
			SELECT product_id, SUM(quantity) AS total FROM purchases GROUP BY product_id
		) pu ON pu.product_id = p.id
		LEFT JOIN (
			SELECT product_id, SUM(quantity) AS total FROM sale_lines GROUP BY product_id
		) sl ON sl.product_id = p.id
		ORDER BY p.id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query stock summary: %w", err)
	}
	defer rows.Close()

	levels := []*domain.StockLevel{}
	for rows.Next() {
		level := &domain.StockLevel{}
		if err := rows.Scan(&level.ProductID, &level.Name, &level.AvailableQuantity); err != nil {
			return nil, fmt.Errorf("failed to scan stock level: %w", err)
		}
		levels = append(levels, level)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stock levels: %w", err)
	}

	return levels, nil
}
