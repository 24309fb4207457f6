package models

import "time"

// Review is a customer review unlocked by a verified code pair. It stays
// editable for ReviewEditWindow after submission, then becomes immutable.
type Review struct {
	ID           string    `json:"id"`
	BookingID    string    `json:"booking_id"`
	RestaurantID string    `json:"restaurant_id"`
	CustomerName string    `json:"customer_name"`
	Rating       int64     `json:"rating"`
	Comment      string    `json:"comment,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsEditable reports whether the review can still be changed.
func (r *Review) IsEditable(now time.Time) bool {
	return now.Before(r.CreatedAt.Add(ReviewEditWindow))
}

// ReviewSession records a successfully verified code pair so the submit
// step does not have to re-run the lookup. Expiry mirrors the remaining
// review window.
type ReviewSession struct {
	BookingID    string    `json:"booking_id"`
	RestaurantID string    `json:"restaurant_id"`
	CustomerName string    `json:"customer_name"`
	VerifiedAt   time.Time `json:"verified_at"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Actor is the authenticated caller as reported by the external identity
// provider: an opaque id plus a coarse role.
type Actor struct {
	ID   string `json:"id"`
	Role string `json:"role"`
}

// IsOwnerOf reports whether the actor is the owner of the restaurant.
func (a Actor) IsOwnerOf(restaurantID string) bool {
	return a.Role == RoleRestaurantOwner && a.ID == restaurantID
}
