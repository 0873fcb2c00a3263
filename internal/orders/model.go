package orders

import (
	"time"

	"github.com/shopspring/decimal"
)

type FulfillmentType string

const (
	TypeDelivery FulfillmentType = "Delivery"
	TypePickup   FulfillmentType = "Pickup"
)

func ParseFulfillmentType(s string) (FulfillmentType, bool) {
	switch FulfillmentType(s) {
	case TypeDelivery, TypePickup:
		return FulfillmentType(s), true
	}
	return "", false
}

type DeliveryStatus string

const (
	DeliveryScheduled      DeliveryStatus = "Scheduled"
	DeliveryInTransit      DeliveryStatus = "In Transit"
	DeliveryOutForDelivery DeliveryStatus = "Out for Delivery"
	DeliveryDelivered      DeliveryStatus = "Delivered"
)

type PaymentMethod string

const (
	MethodCreditCard   PaymentMethod = "Credit Card"
	MethodCash         PaymentMethod = "Cash"
	MethodEWallet      PaymentMethod = "E-Wallet"
	MethodBankTransfer PaymentMethod = "Bank Transfer"
)

func ParsePaymentMethod(s string) (PaymentMethod, bool) {
	switch PaymentMethod(s) {
	case MethodCreditCard, MethodCash, MethodEWallet, MethodBankTransfer:
		return PaymentMethod(s), true
	}
	return "", false
}

type PaymentStatus string

const (
	PaymentSuccessful PaymentStatus = "Successful"
	PaymentFailed     PaymentStatus = "Failed"
	PaymentPending    PaymentStatus = "Pending"
)

type Order struct {
	ID              string          `json:"orderId"`
	CustomerID      string          `json:"customerId"`
	SellerID        string          `json:"sellerId"`
	OrderDate       time.Time       `json:"orderDate"`
	Status          Status          `json:"status"`
	Type            FulfillmentType `json:"type"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	DeliveryAddress string          `json:"deliveryAddress,omitempty"`
	Notes           string          `json:"notes,omitempty"`
	Items           []Item          `json:"items"`
	Delivery        *Delivery       `json:"delivery,omitempty"`
	Payment         *Payment        `json:"payment,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// Item is a persisted order line. Quantity and subtotal never change after
// creation; cancellation releases stock without touching the line.
type Item struct {
	ID        string          `json:"orderItemId"`
	OrderID   string          `json:"orderId"`
	ProductID string          `json:"productId"`
	Quantity  int             `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

type Delivery struct {
	ID              string         `json:"deliveryId"`
	OrderID         string         `json:"orderId"`
	DeliveryAddress string         `json:"deliveryAddress"`
	EstimatedTime   *time.Time     `json:"estimatedTime,omitempty"`
	ActualTime      *time.Time     `json:"actualDeliveryTime,omitempty"`
	CourierStatus   DeliveryStatus `json:"courierStatus"`
	DriverName      string         `json:"driverName,omitempty"`
	DriverPhone     string         `json:"driverPhone,omitempty"`
}

type Payment struct {
	ID            string          `json:"paymentId"`
	OrderID       string          `json:"orderId"`
	PaymentDate   time.Time       `json:"paymentDate"`
	Amount        decimal.Decimal `json:"amount"`
	Method        PaymentMethod   `json:"paymentMethod"`
	Status        PaymentStatus   `json:"status"`
	TransactionID string          `json:"transactionId"`
}

// LineInput is one requested (product, quantity) pair. UnitPrice, when set,
// overrides the catalog price for that line.
type LineInput struct {
	ProductID string           `json:"productId"`
	Quantity  int              `json:"quantity"`
	UnitPrice *decimal.Decimal `json:"unitPrice,omitempty"`
}

type CreateRequest struct {
	Type            string      `json:"type"`
	DeliveryAddress string      `json:"deliveryAddress"`
	Notes           string      `json:"notes"`
	EstimatedTime   *time.Time  `json:"estimatedTime,omitempty"`
	Items           []LineInput `json:"items"`
}
