package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"tavolo/internal/codes"
	"tavolo/internal/domain"
	"tavolo/internal/events"
	"tavolo/internal/metrics"
	"tavolo/internal/models"
)

// CreateBookingRequest is the single validated entry point for new
// reservations. TableID is optional; when empty the engine picks the
// smallest available table that fits the party.
type CreateBookingRequest struct {
	RestaurantID      string
	CustomerID        string
	CustomerName      string
	DateTime          time.Time
	PartySize         int64
	TableID           string
	AdditionalOptions []string
	Notes             string
}

// BookingService runs the reservation state machine. It holds no state
// of its own, only references to injected collaborators.
type BookingService struct {
	bookings       domain.BookingStore
	inventory      *InventoryService
	sessions       domain.SessionRepository
	codes          *codes.Generator
	eventBus       domain.EventPublisher
	maxAdvanceDays int
	logger         *zerolog.Logger
}

func NewBookingService(
	bookings domain.BookingStore,
	inventory *InventoryService,
	sessions domain.SessionRepository,
	generator *codes.Generator,
	eventBus domain.EventPublisher,
	maxAdvanceDays int,
	logger *zerolog.Logger,
) *BookingService {
	if maxAdvanceDays <= 0 {
		maxAdvanceDays = 365
	}
	return &BookingService{
		bookings:       bookings,
		inventory:      inventory,
		sessions:       sessions,
		codes:          generator,
		eventBus:       eventBus,
		maxAdvanceDays: maxAdvanceDays,
		logger:         logger,
	}
}

func (s *BookingService) validateRequest(req *CreateBookingRequest) error {
	if req.PartySize < 1 || req.PartySize > models.MaxPartySize {
		return domain.ErrInvalidPartySize
	}

	now := time.Now()
	if !req.DateTime.After(now) {
		return domain.ErrPastDate
	}
	if req.DateTime.After(now.AddDate(0, 0, s.maxAdvanceDays)) {
		return domain.ErrDateTooFar
	}

	if len(req.Notes) > models.MaxNotesLength {
		return domain.ErrNotesTooLong
	}

	req.CustomerName = strings.TrimSpace(req.CustomerName)
	return nil
}

// CreateBooking validates the request, picks and reserves a table, mints
// the booking code and evaluates the guarantee, all before the booking
// becomes visible. The table date reservation and the insert share one
// store transaction.
func (s *BookingService) CreateBooking(ctx context.Context, req CreateBookingRequest) (*models.Booking, error) {
	if err := s.validateRequest(&req); err != nil {
		return nil, err
	}

	if s.sessions != nil && req.CustomerID != "" {
		allowed, err := s.sessions.CheckRateLimit(ctx, req.CustomerID, models.BookingRateLimit, models.BookingRateWindow)
		if err != nil {
			s.logger.Warn().Err(err).Msg("booking rate limit check failed, allowing request")
		} else if !allowed {
			return nil, domain.ErrRateLimited
		}
	}

	candidates, err := s.candidateTables(ctx, &req)
	if err != nil {
		return nil, err
	}

	guarantee := ComputeGuarantee(req.PartySize)

	// Candidates are tried in order; a candidate lost to a concurrent
	// reservation just moves us to the next one. Code collisions retry
	// with a fresh code a bounded number of times.
	for _, table := range candidates {
		booking, err := s.insertWithCodeRetry(ctx, &req, table, guarantee)
		if err == nil {
			metrics.IncTransition("created")
			s.publishBookingEvent(events.EventBookingCreated, booking, models.Actor{ID: req.CustomerID, Role: models.RoleCustomer}, false)
			s.logger.Info().
				Str("booking_id", booking.ID).
				Str("restaurant_id", booking.RestaurantID).
				Int64("table_number", booking.TableNumber).
				Time("date_time", booking.DateTime).
				Msg("booking created")
			return booking, nil
		}
		if errors.Is(err, domain.ErrTableNoLongerAvailable) {
			continue
		}
		return nil, err
	}

	return nil, domain.ErrSlotUnavailable
}

func (s *BookingService) candidateTables(ctx context.Context, req *CreateBookingRequest) ([]*models.Table, error) {
	if req.TableID != "" {
		table, err := s.inventory.GetTable(ctx, req.TableID)
		if err != nil {
			return nil, err
		}
		if !s.tableServes(table, req) {
			return nil, domain.ErrSlotUnavailable
		}
		return []*models.Table{table}, nil
	}

	tables, err := s.inventory.GetAvailableTables(ctx, req.RestaurantID, req.DateTime, req.PartySize)
	if err != nil {
		return nil, err
	}

	hhmm := req.DateTime.Format("15:04")
	var fitting []*models.Table
	for _, table := range tables {
		if _, ok := table.SlotFor(hhmm); ok {
			fitting = append(fitting, table)
		}
	}
	if len(fitting) == 0 {
		return nil, domain.ErrSlotUnavailable
	}

	// Prefer the tightest fit; ties keep table-number order.
	sortTablesBySeats(fitting)
	return fitting, nil
}

func (s *BookingService) tableServes(table *models.Table, req *CreateBookingRequest) bool {
	if table.RestaurantID != req.RestaurantID {
		return false
	}
	if !table.FitsParty(req.PartySize) {
		return false
	}
	if !table.IsDateAvailable(req.DateTime.Format(models.DateLayout)) {
		return false
	}
	_, ok := table.SlotFor(req.DateTime.Format("15:04"))
	return ok
}

func sortTablesBySeats(tables []*models.Table) {
	sort.SliceStable(tables, func(i, j int) bool {
		return tables[i].Seats < tables[j].Seats
	})
}

func (s *BookingService) insertWithCodeRetry(ctx context.Context, req *CreateBookingRequest, table *models.Table, guarantee Guarantee) (*models.Booking, error) {
	for attempt := 0; attempt < models.CodeMintAttempts; attempt++ {
		code, err := s.codes.BookingCode()
		if err != nil {
			return nil, err
		}

		booking := &models.Booking{
			ID:                uuid.NewString(),
			RestaurantID:      req.RestaurantID,
			CustomerID:        req.CustomerID,
			CustomerName:      req.CustomerName,
			TableID:           table.ID,
			TableNumber:       table.TableNumber,
			TableSeats:        table.Seats,
			DateTime:          req.DateTime,
			PartySize:         req.PartySize,
			Status:            models.StatusPending,
			Attendance:        models.AttendanceNone,
			BookingCode:       code,
			AdditionalOptions: req.AdditionalOptions,
			HasGuarantee:      guarantee.Required,
			GuaranteeCents:    guarantee.AmountCents,
			Notes:             req.Notes,
		}

		err = s.bookings.CreateBooking(ctx, booking)
		if err == nil {
			return booking, nil
		}
		if errors.Is(err, domain.ErrDuplicateBookingCode) {
			s.logger.Warn().Int("attempt", attempt+1).Msg("booking code collision, regenerating")
			continue
		}
		return nil, err
	}
	// Repeated collisions signal a generator entropy problem upstream.
	return nil, domain.ErrDuplicateBookingCode
}

// ConfirmBooking moves a pending booking to confirmed. Only the owning
// restaurant may confirm.
func (s *BookingService) ConfirmBooking(ctx context.Context, actor models.Actor, bookingID string, version int64) error {
	booking, err := s.bookings.GetBooking(ctx, bookingID)
	if err != nil {
		return err
	}
	if !actor.IsOwnerOf(booking.RestaurantID) {
		return domain.ErrForbidden
	}
	if booking.Status != models.StatusPending {
		return domain.ErrInvalidTransition
	}

	if err := s.bookings.UpdateBookingStatus(ctx, bookingID, version, models.StatusConfirmed); err != nil {
		return err
	}

	booking.Status = models.StatusConfirmed
	metrics.IncTransition("confirmed")
	s.publishBookingEvent(events.EventBookingConfirmed, booking, actor, false)
	return nil
}

// RejectBooking cancels a pending booking on the restaurant's behalf and
// releases the table date.
func (s *BookingService) RejectBooking(ctx context.Context, actor models.Actor, bookingID string, version int64) error {
	booking, err := s.bookings.GetBooking(ctx, bookingID)
	if err != nil {
		return err
	}
	if !actor.IsOwnerOf(booking.RestaurantID) {
		return domain.ErrForbidden
	}
	if booking.Status != models.StatusPending {
		return domain.ErrInvalidTransition
	}

	return s.cancel(ctx, booking, actor, version)
}

// CancelBooking cancels on the customer's behalf. A pending booking can
// be cancelled at any time; a confirmed one only up to the cancellation
// window before the seating time.
func (s *BookingService) CancelBooking(ctx context.Context, actor models.Actor, bookingID string, version int64) error {
	booking, err := s.bookings.GetBooking(ctx, bookingID)
	if err != nil {
		return err
	}
	if actor.Role != models.RoleCustomer || actor.ID != booking.CustomerID {
		return domain.ErrForbidden
	}

	switch booking.Status {
	case models.StatusPending:
	case models.StatusConfirmed:
		if time.Until(booking.DateTime) < models.CancellationWindow {
			return domain.ErrCancellationWindowExpired
		}
	default:
		return domain.ErrInvalidTransition
	}

	return s.cancel(ctx, booking, actor, version)
}

func (s *BookingService) cancel(ctx context.Context, booking *models.Booking, actor models.Actor, version int64) error {
	if err := s.bookings.UpdateBookingStatus(ctx, booking.ID, version, models.StatusCancelled); err != nil {
		return err
	}

	// The reservation was consumed at creation, so any cancellation
	// gives the date back. A deleted table makes this a no-op.
	if err := s.inventory.ReleaseTable(ctx, booking.TableID, booking.DateTime); err != nil {
		s.logger.Error().Err(err).
			Str("booking_id", booking.ID).
			Str("table_id", booking.TableID).
			Msg("release table after cancellation failed")
	}

	booking.Status = models.StatusCancelled
	metrics.IncTransition("cancelled")
	s.publishBookingEvent(events.EventBookingCancelled, booking, actor, false)
	return nil
}

// ConfirmAttendance records that the party showed up and mints the
// restaurant review code. The transition is irreversible.
func (s *BookingService) ConfirmAttendance(ctx context.Context, actor models.Actor, bookingID string, version int64) error {
	booking, err := s.attendanceGuard(ctx, actor, bookingID)
	if err != nil {
		return err
	}

	reviewCode, err := s.codes.ReviewCode()
	if err != nil {
		return err
	}

	now := time.Now()
	if err := s.bookings.RecordAttendance(ctx, bookingID, version, models.AttendanceConfirmed, reviewCode, now); err != nil {
		return err
	}

	booking.Attendance = models.AttendanceConfirmed
	booking.ReviewCode = reviewCode
	booking.AttendanceAt = &now
	metrics.IncTransition("attended")
	s.publishBookingEvent(events.EventAttendanceConfirmed, booking, actor, false)
	s.publishBookingEvent(events.EventReviewCodeIssued, booking, actor, false)
	return nil
}

// MarkNoShow records a no-show and evaluates the guarantee charge. The
// transition is irreversible; the charge itself is captured elsewhere.
func (s *BookingService) MarkNoShow(ctx context.Context, actor models.Actor, bookingID string, version int64) error {
	booking, err := s.attendanceGuard(ctx, actor, bookingID)
	if err != nil {
		return err
	}

	now := time.Now()
	if err := s.bookings.RecordAttendance(ctx, bookingID, version, models.AttendanceNoShow, "", now); err != nil {
		return err
	}

	booking.Attendance = models.AttendanceNoShow
	booking.AttendanceAt = &now
	_, owed := NoShowCharge(booking)
	metrics.IncTransition("no_show")
	s.publishBookingEvent(events.EventNoShowRecorded, booking, actor, owed)
	return nil
}

func (s *BookingService) attendanceGuard(ctx context.Context, actor models.Actor, bookingID string) (*models.Booking, error) {
	booking, err := s.bookings.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !actor.IsOwnerOf(booking.RestaurantID) {
		return nil, domain.ErrForbidden
	}
	if booking.Status != models.StatusConfirmed {
		return nil, domain.ErrInvalidTransition
	}
	if booking.Attendance != models.AttendanceNone {
		return nil, domain.ErrAttendanceRecorded
	}
	return booking, nil
}

func (s *BookingService) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	return s.bookings.GetBooking(ctx, id)
}

// GetBookingByCode resolves a booking through its capability token.
func (s *BookingService) GetBookingByCode(ctx context.Context, bookingCode string) (*models.Booking, error) {
	if !codes.ValidBookingCode(bookingCode) {
		return nil, domain.ErrInvalidCodeFormat
	}
	return s.bookings.GetBookingByCode(ctx, bookingCode)
}

func (s *BookingService) GetRestaurantBookings(ctx context.Context, actor models.Actor, restaurantID string, start, end time.Time) ([]*models.Booking, error) {
	if !actor.IsOwnerOf(restaurantID) {
		return nil, domain.ErrForbidden
	}
	return s.bookings.GetBookingsByRestaurant(ctx, restaurantID, start, end)
}

func (s *BookingService) GetCustomerBookings(ctx context.Context, actor models.Actor) ([]*models.Booking, error) {
	if actor.Role != models.RoleCustomer {
		return nil, domain.ErrForbidden
	}
	return s.bookings.GetBookingsByCustomer(ctx, actor.ID)
}

func (s *BookingService) publishBookingEvent(eventType string, booking *models.Booking, actor models.Actor, chargeOwed bool) {
	if s.eventBus == nil {
		return
	}

	payload := events.BookingEventPayload{
		BookingID:      booking.ID,
		RestaurantID:   booking.RestaurantID,
		CustomerID:     booking.CustomerID,
		CustomerName:   booking.CustomerName,
		TableNumber:    booking.TableNumber,
		PartySize:      booking.PartySize,
		DateTime:       booking.DateTime,
		Status:         booking.Status,
		Attendance:     booking.Attendance,
		HasGuarantee:   booking.HasGuarantee,
		GuaranteeCents: booking.GuaranteeCents,
		ChargeOwed:     chargeOwed,
		ActorID:        actor.ID,
		ActorRole:      actor.Role,
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Str("booking_id", booking.ID).Msg("publish event error")
	}
}
