package orders

type Status string

const (
	StatusPending   Status = "Pending"
	StatusConfirmed Status = "Confirmed"
	StatusPreparing Status = "Preparing"
	StatusReady     Status = "Ready"
	StatusDelivered Status = "Delivered"
	StatusCompleted Status = "Completed"
	StatusCancelled Status = "Cancelled"
)

func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusPending, StatusConfirmed, StatusPreparing, StatusReady,
		StatusDelivered, StatusCompleted, StatusCancelled:
		return Status(s), true
	}
	return "", false
}

// Terminal statuses accept no further transitions.
func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCompleted || s == StatusCancelled
}

// Cancellable: customers may only back out before the kitchen starts.
func (s Status) Cancellable() bool {
	return s == StatusPending || s == StatusConfirmed
}

// sellerAssignable is the fixed allow-list for seller-side status updates.
// Beyond refusing terminal orders there is deliberately no ordering
// constraint: a seller may jump straight from Pending to Ready.
var sellerAssignable = map[Status]bool{
	StatusConfirmed: true,
	StatusPreparing: true,
	StatusReady:     true,
	StatusDelivered: true,
	StatusCompleted: true,
}

func SellerAssignable(s Status) bool { return sellerAssignable[s] }
