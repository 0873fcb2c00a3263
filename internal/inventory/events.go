package inventory

const (
	EventRestocked = "InventoryRestocked"
	EventLowStock  = "InventoryLow"
)

const (
	TopicRestocked = "inventory.restocked"
	TopicLowStock  = "inventory.low"
)

type RestockedPayload struct {
	ProductID  string `json:"product_id"`
	Added      int    `json:"added"`
	NewInStock int    `json:"new_in_stock"`
}

type LowStockPayload struct {
	ProductID       string `json:"product_id"`
	QuantityInStock int    `json:"quantity_in_stock"`
	ReorderLevel    int    `json:"reorder_level"`
}
