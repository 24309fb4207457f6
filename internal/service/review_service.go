package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"tavolo/internal/codes"
	"tavolo/internal/domain"
	"tavolo/internal/events"
	"tavolo/internal/metrics"
	"tavolo/internal/models"
)

// ReviewService is the gate in front of review submission. Codes are
// checked for format and then bound to a real attended booking; a format
// match alone never unlocks a review.
type ReviewService struct {
	bookings domain.BookingStore
	reviews  domain.ReviewStore
	sessions domain.SessionRepository
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
}

func NewReviewService(
	bookings domain.BookingStore,
	reviews domain.ReviewStore,
	sessions domain.SessionRepository,
	eventBus domain.EventPublisher,
	logger *zerolog.Logger,
) *ReviewService {
	return &ReviewService{
		bookings: bookings,
		reviews:  reviews,
		sessions: sessions,
		eventBus: eventBus,
		logger:   logger,
	}
}

func sessionKey(customerCode, restaurantCode string) string {
	return customerCode + ":" + restaurantCode
}

// VerifyCodes validates the code pair against a completed booking and
// opens a review session for the remaining submission window.
func (s *ReviewService) VerifyCodes(ctx context.Context, customerCode, restaurantCode string) (*models.ReviewSession, error) {
	if !codes.ValidBookingCode(customerCode) || !codes.ValidReviewCode(restaurantCode) {
		return nil, domain.ErrInvalidCodeFormat
	}

	booking, err := s.bookings.GetBookingByCodes(ctx, customerCode, restaurantCode)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if booking.Attendance != models.AttendanceConfirmed || booking.AttendanceAt == nil {
		return nil, domain.ErrNotFound
	}
	if !booking.ReviewWindowOpen(now) {
		return nil, domain.ErrReviewWindowExpired
	}

	session := &models.ReviewSession{
		BookingID:    booking.ID,
		RestaurantID: booking.RestaurantID,
		CustomerName: booking.CustomerName,
		VerifiedAt:   now,
		ExpiresAt:    booking.AttendanceAt.Add(models.ReviewWindow),
	}

	if s.sessions != nil {
		ttl := time.Until(session.ExpiresAt)
		if err := s.sessions.SetSession(ctx, sessionKey(customerCode, restaurantCode), session, ttl); err != nil {
			s.logger.Warn().Err(err).Str("booking_id", booking.ID).Msg("store review session failed")
		}
	}

	return session, nil
}

// SubmitReview accepts a review for a verified code pair. The session
// from a prior VerifyCodes call is reused when present; otherwise the
// codes are verified in place.
func (s *ReviewService) SubmitReview(ctx context.Context, customerCode, restaurantCode string, rating int64, comment string) (*models.Review, error) {
	if rating < 1 || rating > 5 {
		return nil, domain.ErrInvalidRating
	}

	session, err := s.resolveSession(ctx, customerCode, restaurantCode)
	if err != nil {
		return nil, err
	}

	review := &models.Review{
		ID:           uuid.NewString(),
		BookingID:    session.BookingID,
		RestaurantID: session.RestaurantID,
		CustomerName: session.CustomerName,
		Rating:       rating,
		Comment:      comment,
	}

	if err := s.reviews.CreateReview(ctx, review); err != nil {
		return nil, err
	}

	if s.sessions != nil {
		if err := s.sessions.ClearSession(ctx, sessionKey(customerCode, restaurantCode)); err != nil {
			s.logger.Warn().Err(err).Str("booking_id", session.BookingID).Msg("clear review session failed")
		}
	}

	metrics.IncReview()
	s.publishReviewEvent(review)
	s.logger.Info().
		Str("review_id", review.ID).
		Str("booking_id", review.BookingID).
		Int64("rating", rating).
		Msg("review submitted")
	return review, nil
}

func (s *ReviewService) resolveSession(ctx context.Context, customerCode, restaurantCode string) (*models.ReviewSession, error) {
	if s.sessions != nil {
		session, err := s.sessions.GetSession(ctx, sessionKey(customerCode, restaurantCode))
		if err != nil {
			s.logger.Warn().Err(err).Msg("review session lookup failed")
		} else if session != nil {
			if !time.Now().Before(session.ExpiresAt) {
				return nil, domain.ErrReviewWindowExpired
			}
			return session, nil
		}
	}
	return s.VerifyCodes(ctx, customerCode, restaurantCode)
}

// UpdateReview edits a review while it is still inside the edit window.
// The caller must present the same code pair that unlocked the review;
// holding an API key alone does not grant edit access.
func (s *ReviewService) UpdateReview(ctx context.Context, reviewID, customerCode, restaurantCode string, rating int64, comment string) (*models.Review, error) {
	if rating < 1 || rating > 5 {
		return nil, domain.ErrInvalidRating
	}
	if !codes.ValidBookingCode(customerCode) || !codes.ValidReviewCode(restaurantCode) {
		return nil, domain.ErrInvalidCodeFormat
	}

	review, err := s.reviews.GetReview(ctx, reviewID)
	if err != nil {
		return nil, err
	}

	booking, err := s.bookings.GetBookingByCodes(ctx, customerCode, restaurantCode)
	if err != nil {
		return nil, err
	}
	if booking.ID != review.BookingID {
		return nil, domain.ErrForbidden
	}

	if !review.IsEditable(time.Now()) {
		return nil, domain.ErrReviewLocked
	}

	review.Rating = rating
	review.Comment = comment
	if err := s.reviews.UpdateReview(ctx, review); err != nil {
		return nil, err
	}
	return review, nil
}

func (s *ReviewService) GetRestaurantReviews(ctx context.Context, restaurantID string) ([]*models.Review, error) {
	return s.reviews.GetReviewsByRestaurant(ctx, restaurantID)
}

func (s *ReviewService) publishReviewEvent(review *models.Review) {
	if s.eventBus == nil {
		return
	}

	payload := events.ReviewEventPayload{
		ReviewID:     review.ID,
		BookingID:    review.BookingID,
		RestaurantID: review.RestaurantID,
		Rating:       review.Rating,
	}

	if err := s.eventBus.PublishJSON(events.EventReviewSubmitted, payload); err != nil {
		s.logger.Error().Err(err).Str("review_id", review.ID).Msg("publish event error")
	}
}
