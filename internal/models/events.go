package models

import "time"

// Event types
const (
	EventTypeOrderPlaced          = "ORDER_PLACED"
	EventTypeReservationCompleted = "RESERVATION_COMPLETED"
	EventTypeReservationFailed    = "RESERVATION_FAILED"
	EventTypePrepCommandIssued    = "PREP_COMMAND_ISSUED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderPlacedEvent published when an order has been accepted and persisted
type OrderPlacedEvent struct {
	BaseEvent
	OrderNumber   int64           `json:"order_number"`
	Flavor        Flavor          `json:"flavor"`
	JarQuantities map[JarSize]int `json:"jar_quantities"`
	RequestedKg   string          `json:"requested_kg"`
}

// ReservationCompletedEvent published when all four pools committed
type ReservationCompletedEvent struct {
	BaseEvent
	OrderNumber  int64           `json:"order_number"`
	Flavor       Flavor          `json:"flavor"`
	DeliveredKg  string          `json:"delivered_kg"`
	ApprovedJars map[JarSize]int `json:"approved_jars"`
}

// ReservationFailedEvent published when reservation stopped short of
// success. DeliveredKg is non-zero when honey committed before a later
// packaging step failed.
type ReservationFailedEvent struct {
	BaseEvent
	OrderNumber int64  `json:"order_number"`
	Flavor      Flavor `json:"flavor"`
	Reason      string `json:"reason"`
	DeliveredKg string `json:"delivered_kg"`
}

// PrepCommandIssuedEvent hands one PrepCommand to downstream fulfillment
type PrepCommandIssuedEvent struct {
	BaseEvent
	OrderNumber int64       `json:"order_number"`
	Command     PrepCommand `json:"command"`
}
