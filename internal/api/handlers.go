package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"tavolo/internal/models"
	"tavolo/internal/service"
)

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func (s *HTTPServer) requireActor(w http.ResponseWriter, r *http.Request) (models.Actor, bool) {
	actor, ok := actorFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated")
		return models.Actor{}, false
	}
	return actor, true
}

func (s *HTTPServer) requireOwner(w http.ResponseWriter, r *http.Request) (models.Actor, bool) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return models.Actor{}, false
	}
	if actor.Role != models.RoleRestaurantOwner {
		writeError(w, http.StatusForbidden, "restaurant owner role required")
		return models.Actor{}, false
	}
	return actor, true
}

// Tables

func (s *HTTPServer) handleAddTable(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireOwner(w, r)
	if !ok {
		return
	}

	var body struct {
		TableNumber int64             `json:"table_number"`
		Seats       int64             `json:"seats"`
		TimeSlots   []models.TimeSlot `json:"time_slots"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	table, err := s.inventory.AddTable(r.Context(), actor.ID, body.TableNumber, body.Seats, body.TimeSlots)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, table)
}

func (s *HTTPServer) handleListTables(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireOwner(w, r)
	if !ok {
		return
	}

	tables, err := s.inventory.GetTables(r.Context(), actor.ID)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tables": tables})
}

func (s *HTTPServer) handleAvailableTables(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireActor(w, r); !ok {
		return
	}

	restaurantID := r.URL.Query().Get("restaurant_id")
	if restaurantID == "" {
		writeError(w, http.StatusBadRequest, "restaurant_id is required")
		return
	}

	date, err := time.Parse(models.DateLayout, r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format; expected YYYY-MM-DD")
		return
	}

	partySize, err := parsePositiveInt(r.URL.Query().Get("party_size"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "party_size must be a positive integer")
		return
	}

	tables, err := s.inventory.GetAvailableTables(r.Context(), restaurantID, date, partySize)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tables": tables})
}

func (s *HTTPServer) handleUpdateTable(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireOwner(w, r)
	if !ok {
		return
	}

	tableID := r.PathValue("id")
	if !s.ownsTable(w, r, actor, tableID) {
		return
	}

	var patch models.TablePatch
	if !decodeBody(w, r, &patch) {
		return
	}

	table, err := s.inventory.UpdateTable(r.Context(), tableID, patch)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, table)
}

func (s *HTTPServer) handleDeleteTable(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireOwner(w, r)
	if !ok {
		return
	}

	tableID := r.PathValue("id")
	if !s.ownsTable(w, r, actor, tableID) {
		return
	}

	if err := s.inventory.DeleteTable(r.Context(), tableID); err != nil {
		writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *HTTPServer) ownsTable(w http.ResponseWriter, r *http.Request, actor models.Actor, tableID string) bool {
	table, err := s.inventory.GetTable(r.Context(), tableID)
	if err != nil {
		writeEngineError(w, err)
		return false
	}
	if table.RestaurantID != actor.ID {
		writeError(w, http.StatusForbidden, "table belongs to another restaurant")
		return false
	}
	return true
}

// Bookings

func (s *HTTPServer) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}
	if actor.Role != models.RoleCustomer {
		writeError(w, http.StatusForbidden, "customer role required")
		return
	}

	var body struct {
		RestaurantID      string   `json:"restaurant_id"`
		CustomerName      string   `json:"customer_name"`
		DateTime          string   `json:"date_time"`
		PartySize         int64    `json:"party_size"`
		TableID           string   `json:"table_id"`
		AdditionalOptions []string `json:"additional_options"`
		Notes             string   `json:"notes"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	dateTime, err := time.Parse(time.RFC3339, body.DateTime)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date_time; expected RFC3339")
		return
	}

	booking, err := s.bookings.CreateBooking(r.Context(), service.CreateBookingRequest{
		RestaurantID:      body.RestaurantID,
		CustomerID:        actor.ID,
		CustomerName:      body.CustomerName,
		DateTime:          dateTime,
		PartySize:         body.PartySize,
		TableID:           body.TableID,
		AdditionalOptions: body.AdditionalOptions,
		Notes:             body.Notes,
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, booking)
}

func (s *HTTPServer) handleListBookings(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}

	switch actor.Role {
	case models.RoleCustomer:
		bookings, err := s.bookings.GetCustomerBookings(r.Context(), actor)
		if err != nil {
			writeEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"bookings": bookings})
	case models.RoleRestaurantOwner:
		start, end, err := parseDateRange(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		bookings, err := s.bookings.GetRestaurantBookings(r.Context(), actor, actor.ID, start, end)
		if err != nil {
			writeEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"bookings": bookings})
	default:
		writeError(w, http.StatusForbidden, "unknown role")
	}
}

func (s *HTTPServer) handleBookingByCode(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireActor(w, r); !ok {
		return
	}

	booking, err := s.bookings.GetBookingByCode(r.Context(), r.PathValue("code"))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

type transitionRequest struct {
	Version int64 `json:"version"`
}

func (s *HTTPServer) handleTransition(w http.ResponseWriter, r *http.Request,
	transition func(actor models.Actor, id string, version int64) error) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}

	var body transitionRequest
	if !decodeBody(w, r, &body) {
		return
	}

	if err := transition(actor, r.PathValue("id"), body.Version); err != nil {
		writeEngineError(w, err)
		return
	}

	booking, err := s.bookings.GetBooking(r.Context(), r.PathValue("id"))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (s *HTTPServer) handleConfirm(w http.ResponseWriter, r *http.Request) {
	s.handleTransition(w, r, func(actor models.Actor, id string, version int64) error {
		return s.bookings.ConfirmBooking(r.Context(), actor, id, version)
	})
}

func (s *HTTPServer) handleReject(w http.ResponseWriter, r *http.Request) {
	s.handleTransition(w, r, func(actor models.Actor, id string, version int64) error {
		return s.bookings.RejectBooking(r.Context(), actor, id, version)
	})
}

func (s *HTTPServer) handleCancel(w http.ResponseWriter, r *http.Request) {
	s.handleTransition(w, r, func(actor models.Actor, id string, version int64) error {
		return s.bookings.CancelBooking(r.Context(), actor, id, version)
	})
}

func (s *HTTPServer) handleAttendance(w http.ResponseWriter, r *http.Request) {
	s.handleTransition(w, r, func(actor models.Actor, id string, version int64) error {
		return s.bookings.ConfirmAttendance(r.Context(), actor, id, version)
	})
}

func (s *HTTPServer) handleNoShow(w http.ResponseWriter, r *http.Request) {
	s.handleTransition(w, r, func(actor models.Actor, id string, version int64) error {
		return s.bookings.MarkNoShow(r.Context(), actor, id, version)
	})
}

// Reviews

func (s *HTTPServer) handleVerifyCodes(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireActor(w, r); !ok {
		return
	}

	var body struct {
		CustomerCode   string `json:"customer_code"`
		RestaurantCode string `json:"restaurant_code"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	session, err := s.reviews.VerifyCodes(r.Context(), body.CustomerCode, body.RestaurantCode)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"valid": true, "session": session})
}

func (s *HTTPServer) handleSubmitReview(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireActor(w, r); !ok {
		return
	}

	var body struct {
		CustomerCode   string `json:"customer_code"`
		RestaurantCode string `json:"restaurant_code"`
		Rating         int64  `json:"rating"`
		Comment        string `json:"comment"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	review, err := s.reviews.SubmitReview(r.Context(), body.CustomerCode, body.RestaurantCode, body.Rating, body.Comment)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, review)
}

func (s *HTTPServer) handleUpdateReview(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireActor(w, r); !ok {
		return
	}

	var body struct {
		CustomerCode   string `json:"customer_code"`
		RestaurantCode string `json:"restaurant_code"`
		Rating         int64  `json:"rating"`
		Comment        string `json:"comment"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	review, err := s.reviews.UpdateReview(r.Context(), r.PathValue("id"), body.CustomerCode, body.RestaurantCode, body.Rating, body.Comment)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, review)
}

func (s *HTTPServer) handleRestaurantReviews(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireActor(w, r); !ok {
		return
	}

	reviews, err := s.reviews.GetRestaurantReviews(r.Context(), r.PathValue("id"))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reviews": reviews})
}

func (s *HTTPServer) handleExport(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireOwner(w, r)
	if !ok {
		return
	}

	restaurantID := r.PathValue("id")
	if restaurantID != actor.ID {
		writeError(w, http.StatusForbidden, "restaurant belongs to another owner")
		return
	}

	start, end, err := parseDateRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	path, err := s.exporter.BookingsReport(r.Context(), restaurantID, start, end)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"file": path})
}

// Helpers

func parseDateRange(r *http.Request) (time.Time, time.Time, error) {
	now := time.Now()
	start := now.AddDate(0, -1, 0)
	end := now.AddDate(0, 2, 0)

	if raw := r.URL.Query().Get("start"); raw != "" {
		parsed, err := time.Parse(models.DateLayout, raw)
		if err != nil {
			return time.Time{}, time.Time{}, errInvalidDateParam
		}
		start = parsed
	}
	if raw := r.URL.Query().Get("end"); raw != "" {
		parsed, err := time.Parse(models.DateLayout, raw)
		if err != nil {
			return time.Time{}, time.Time{}, errInvalidDateParam
		}
		end = parsed.AddDate(0, 0, 1)
	}
	return start, end, nil
}

var errInvalidDateParam = errInvalid("invalid date parameter; expected YYYY-MM-DD")

type errInvalid string

func (e errInvalid) Error() string { return string(e) }

func parsePositiveInt(raw string) (int64, error) {
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, err
	}
	if n < 1 {
		return 0, errInvalid("not positive")
	}
	return n, nil
}
