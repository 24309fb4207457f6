package events

import (
	"encoding/json"
	"sync"
	"time"
)

const (
	EventBookingCreated      = "booking_created"
	EventBookingConfirmed    = "booking_confirmed"
	EventBookingCancelled    = "booking_cancelled"
	EventAttendanceConfirmed = "attendance_confirmed"
	EventNoShowRecorded      = "no_show_recorded"
	EventReviewCodeIssued    = "review_code_issued"
	EventReviewSubmitted     = "review_submitted"
)

// BookingEventPayload is the booking snapshot handed to event consumers.
// The notification layer formats user-facing text from it; the engine
// never does.
type BookingEventPayload struct {
	BookingID      string    `json:"booking_id"`
	RestaurantID   string    `json:"restaurant_id"`
	CustomerID     string    `json:"customer_id"`
	CustomerName   string    `json:"customer_name"`
	TableNumber    int64     `json:"table_number"`
	PartySize      int64     `json:"party_size"`
	DateTime       time.Time `json:"date_time"`
	Status         string    `json:"status"`
	Attendance     string    `json:"attendance,omitempty"`
	HasGuarantee   bool      `json:"has_guarantee"`
	GuaranteeCents int64     `json:"guarantee_cents,omitempty"`
	ChargeOwed     bool      `json:"charge_owed,omitempty"`
	ActorID        string    `json:"actor_id,omitempty"`
	ActorRole      string    `json:"actor_role,omitempty"`
}

// ReviewEventPayload describes an accepted review.
type ReviewEventPayload struct {
	ReviewID     string `json:"review_id"`
	BookingID    string `json:"booking_id"`
	RestaurantID string `json:"restaurant_id"`
	Rating       int64  `json:"rating"`
}

// Event is a lightweight domain event.
type Event struct {
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// EventHandler reacts to an event.
type EventHandler func(event *Event) error

// EventBus provides in-process pub/sub for events.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
}

// NewEventBus constructs an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]EventHandler)}
}

// Subscribe registers a handler for a given event type.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish notifies subscribers of the event type. Handlers run
// synchronously; the caller decides the concurrency model.
func (b *EventBus) Publish(event *Event) {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for _, handler := range handlers {
		_ = handler(event)
	}
}

// PublishJSON serializes the payload and publishes an event.
func (b *EventBus) PublishJSON(eventType string, payload interface{}) error {
	if b == nil {
		return nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	b.Publish(&Event{Type: eventType, Payload: raw, CreatedAt: time.Now()})
	return nil
}
