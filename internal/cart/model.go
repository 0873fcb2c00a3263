package cart

import "time"

// Cart is the customer's staging area for an order. One active cart per
// customer; checkout drains it through the order assembler.
type Cart struct {
	ID         string    `json:"cartId"`
	CustomerID string    `json:"customerId"`
	Items      []Item    `json:"items"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

type Item struct {
	ID        string `json:"cartItemId"`
	CartID    string `json:"cartId"`
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}
