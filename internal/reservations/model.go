// Package reservations holds dining reservations. Unrelated to inventory
// reservation: booking a table never touches stock.
package reservations

import "time"

type Status string

const (
	StatusPending   Status = "Pending"
	StatusConfirmed Status = "Confirmed"
	StatusCompleted Status = "Completed"
	StatusCancelled Status = "Cancelled"
	StatusNoShow    Status = "No-show"
)

// ParseStatus validates seller status updates against the fixed allow-list.
func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled, StatusNoShow:
		return Status(s), true
	}
	return "", false
}

type Reservation struct {
	ID              string    `json:"reservationId"`
	CustomerID      string    `json:"customerId"`
	ReservationDate time.Time `json:"reservationDate"`
	NumberOfPeople  int       `json:"numberOfPeople"`
	Status          Status    `json:"status"`
	SpecialRequests string    `json:"specialRequests,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}
