package api

import "time"

// Order statuses reported by the backend. The set is open: the server
// owns the lifecycle and may introduce further values.
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

// OrderRequest is the outbound order payload. Items only ever contains
// positive quantities.
type OrderRequest struct {
	UserID string         `json:"userId"`
	Items  map[string]int `json:"items"`
}

// LegacyOrderRequest is the original single-drink order shape
// ({size, quantity}). Translation to and from it stays inside this
// package; the rest of the client only ever sees OrderRequest.
type LegacyOrderRequest struct {
	Size     float64 `json:"size"`
	Quantity int     `json:"quantity"`
	UserID   string  `json:"userId,omitempty"`
}

// OrderLine is one priced line of a server-reported order
type OrderLine struct {
	ItemID    string  `json:"drinkId"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"price"`
	LineTotal float64 `json:"line_total"`
}

// Order is the server-owned record of a submitted cart. The client holds
// read-only cached copies; status transitions happen server-side.
type Order struct {
	ID         string      `json:"id"`
	UserID     string      `json:"userId,omitempty"`
	Timestamp  time.Time   `json:"timestamp"`
	Items      []OrderLine `json:"items"`
	TotalPrice float64     `json:"totalPrice"`
	Status     string      `json:"status"`
}

// Room is a registerable room returned by GET /rooms
type Room struct {
	ID     string `json:"id"`
	Number string `json:"number"`
}

// RegisterRequest registers this device with the backend. RoomNumber is
// preferred when the room is known; RoomID is the fallback.
type RegisterRequest struct {
	Name       string `json:"name"`
	RoomNumber string `json:"room_number,omitempty"`
	RoomID     string `json:"room_id,omitempty"`
}

// RegisterResponse carries the issued device credential
type RegisterResponse struct {
	DeviceToken string `json:"device_token"`
	DeviceID    string `json:"device_id"`
	RoomID      string `json:"room_id"`
	TabID       string `json:"tab_id"`
}

// EventOrderStatus tags push frames that signal an order status change
const EventOrderStatus = "ORDER_STATUS"

// StatusEvent is a frame from the push channel. It is only ever a
// wake-up signal: the order list is re-fetched, the frame payload is
// never applied as data. Field names vary across backend versions, so
// all known spellings are decoded.
type StatusEvent struct {
	Type    string `json:"type"`
	OrderID string `json:"orderID,omitempty"`
	Order   string `json:"order,omitempty"`
	Status  string `json:"status,omitempty"`
}
