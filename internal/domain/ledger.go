package domain

import "time"

// Purchase represents stock received for a product. Purchases are
// append-only: they are never mutated or deleted once recorded.
type Purchase struct {
	ID        int64     `json:"id" db:"id"`
	ProductID int64     `json:"product_id" db:"product_id"`
	Quantity  float64   `json:"quantity" db:"quantity"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	Product   *Product  `json:"product,omitempty"`
}

// Sale is a grouping header owning one or more sale lines created
// atomically together. It carries no quantity of its own.
type Sale struct {
	ID        int64      `json:"id" db:"id"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	Lines     []SaleLine `json:"items,omitempty"`
}

// SaleLine is one product's quantity within a sale transaction.
type SaleLine struct {
	ID        int64    `json:"id" db:"id"`
	SaleID    int64    `json:"sale_id" db:"sale_id"`
	ProductID int64    `json:"product_id" db:"product_id"`
	Quantity  float64  `json:"quantity" db:"quantity"`
	Product   *Product `json:"product,omitempty"`
}

// SaleLineRequest is one requested line of a sale before admission.
type SaleLineRequest struct {
	ProductID int64
	Quantity  float64
}

// SaleReceiptLine reports an admitted line together with the available
// stock figure observed at validation time.
type SaleReceiptLine struct {
	ProductID      int64   `json:"product_id"`
	Quantity       float64 `json:"quantity"`
	AvailableStock float64 `json:"available_stock"`
}

// SaleReceipt is the result of a fully admitted sale batch.
type SaleReceipt struct {
	SaleID    int64             `json:"sale_id"`
	CreatedAt time.Time         `json:"created_at"`
	Lines     []SaleReceiptLine `json:"items"`
}

// StockLevel is one row of the stock summary: derived availability for a
// product, zero when the product has no recorded activity.
type StockLevel struct {
	ProductID         int64   `json:"product_id" db:"product_id"`
	Name              string  `json:"name" db:"name"`
	AvailableQuantity float64 `json:"available_quantity" db:"available_quantity"`
}
