package orders

const (
	EventOrderCreated    = "OrderCreated"
	EventOrderCancelled  = "OrderCancelled"
	EventPaymentRecorded = "PaymentRecorded"
	EventStatusChanged   = "OrderStatusChanged"
)

const (
	TopicOrderCreated    = "order.created"
	TopicOrderCancelled  = "order.cancelled"
	TopicPaymentRecorded = "order.payment.recorded"
	TopicStatusChanged   = "order.status.changed"
)

// Partition key = order id, so every event for one order keeps its order.
func PartitionKey(orderID string) []byte { return []byte(orderID) }

type ItemQty struct {
	ProductID string `json:"product_id"`
	Qty       int    `json:"qty"`
}

type OrderCreatedPayload struct {
	OrderID    string    `json:"order_id"`
	CustomerID string    `json:"customer_id"`
	SellerID   string    `json:"seller_id"`
	Items      []ItemQty `json:"items"`
	Total      string    `json:"total"`
}

type OrderCancelledPayload struct {
	OrderID string    `json:"order_id"`
	Items   []ItemQty `json:"items"` // quantities released back to stock
}

type PaymentRecordedPayload struct {
	OrderID       string `json:"order_id"`
	PaymentID     string `json:"payment_id"`
	Method        string `json:"method"`
	Amount        string `json:"amount"`
	TransactionID string `json:"transaction_id"`
}

type StatusChangedPayload struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}

// EventItems extracts the (product, qty) pairs carried by order events.
func EventItems(items []Item) []ItemQty {
	out := make([]ItemQty, 0, len(items))
	for _, it := range items {
		out = append(out, ItemQty{ProductID: it.ProductID, Qty: it.Quantity})
	}
	return out
}
