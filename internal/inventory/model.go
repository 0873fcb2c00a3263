package inventory

import "time"

type Record struct {
	ProductID       string    `json:"productId"`
	QuantityInStock int       `json:"quantityInStock"`
	ReorderLevel    int       `json:"reorderLevel"`
	LastRestocked   time.Time `json:"lastRestocked"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// NeedsReorder reports whether stock has fallen to the reorder threshold.
func (r Record) NeedsReorder() bool { return r.QuantityInStock <= r.ReorderLevel }
