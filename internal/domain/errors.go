package domain

import "fmt"

// OutOfStockError rejects a sale line for a product with no available
// stock at validation time.
type OutOfStockError struct {
	ProductID int64
}

func (e *OutOfStockError) Error() string {
	return fmt.Sprintf("no stock available for product %d", e.ProductID)
}

// InsufficientStockError rejects a sale line asking for more than the
// available stock, reporting the figure observed at validation time.
type InsufficientStockError struct {
	ProductID int64
	Requested float64
	Available float64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d: requested %g, available %g",
		e.ProductID, e.Requested, e.Available)
}
