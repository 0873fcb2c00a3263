package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          string          `json:"productId"`
	SellerID    string          `json:"sellerId"`
	Name        string          `json:"productName"`
	Description string          `json:"description,omitempty"`
	Category    string          `json:"category,omitempty"`
	ImageURL    string          `json:"imageUrl,omitempty"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	IsAvailable bool            `json:"isAvailable"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// Update carries a partial product mutation; nil fields stay untouched.
type Update struct {
	Name        *string
	Description *string
	Category    *string
	ImageURL    *string
	UnitPrice   *decimal.Decimal
	IsAvailable *bool
}

type Query struct {
	Q             string
	Category      string
	SellerID      string
	AvailableOnly bool
	Limit         int
	Offset        int
}
