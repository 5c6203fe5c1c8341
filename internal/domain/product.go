package domain

// Product represents a catalog item. Products are immutable once created
// and are never deleted; purchases and sale lines reference them by id.
type Product struct {
	ID           int64   `json:"id" db:"id"`
	Name         string  `json:"name" db:"name"`
	BuyingPrice  float64 `json:"buying_price" db:"buying_price"`
	SellingPrice float64 `json:"selling_price" db:"selling_price"`
}
