package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"tavolo/internal/domain"
	"tavolo/internal/models"
)

type mockReviewStore struct {
	mock.Mock
}

func (m *mockReviewStore) CreateReview(ctx context.Context, review *models.Review) error {
	return m.Called(ctx, review).Error(0)
}
func (m *mockReviewStore) GetReview(ctx context.Context, id string) (*models.Review, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Review), args.Error(1)
}
func (m *mockReviewStore) UpdateReview(ctx context.Context, review *models.Review) error {
	return m.Called(ctx, review).Error(0)
}
func (m *mockReviewStore) GetReviewsByRestaurant(ctx context.Context, restaurantID string) ([]*models.Review, error) {
	args := m.Called(ctx, restaurantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Review), args.Error(1)
}

func newReviewServiceForTest(bookings domain.BookingStore, reviews domain.ReviewStore, sessions domain.SessionRepository) *ReviewService {
	logger := zerolog.Nop()
	return NewReviewService(bookings, reviews, sessions, nil, &logger)
}

func attendedBooking(attendedAgo time.Duration) *models.Booking {
	at := time.Now().Add(-attendedAgo)
	return &models.Booking{
		ID:           "bk-1",
		RestaurantID: "rest-1",
		CustomerName: "Dana",
		Status:       models.StatusConfirmed,
		Attendance:   models.AttendanceConfirmed,
		AttendanceAt: &at,
		BookingCode:  "ABC123",
		ReviewCode:   "4821",
		DateTime:     time.Now().Add(-attendedAgo - time.Hour),
	}
}

func TestVerifyCodes(t *testing.T) {
	ctx := context.Background()

	t.Run("format gate", func(t *testing.T) {
		svc := newReviewServiceForTest(new(mockBookingStore), new(mockReviewStore), nil)

		_, err := svc.VerifyCodes(ctx, "short", "4821")
		assert.ErrorIs(t, err, domain.ErrInvalidCodeFormat)

		_, err = svc.VerifyCodes(ctx, "ABC123", "48x1")
		assert.ErrorIs(t, err, domain.ErrInvalidCodeFormat)
	})

	t.Run("unknown pair", func(t *testing.T) {
		bookings := new(mockBookingStore)
		svc := newReviewServiceForTest(bookings, new(mockReviewStore), nil)

		bookings.On("GetBookingByCodes", ctx, "ABC123", "4821").Return(nil, domain.ErrNotFound).Once()

		_, err := svc.VerifyCodes(ctx, "ABC123", "4821")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("window expired", func(t *testing.T) {
		bookings := new(mockBookingStore)
		svc := newReviewServiceForTest(bookings, new(mockReviewStore), nil)

		booking := attendedBooking(models.ReviewWindow + time.Hour)
		bookings.On("GetBookingByCodes", ctx, "ABC123", "4821").Return(booking, nil).Once()

		_, err := svc.VerifyCodes(ctx, "ABC123", "4821")
		assert.ErrorIs(t, err, domain.ErrReviewWindowExpired)
	})

	t.Run("opens session", func(t *testing.T) {
		bookings := new(mockBookingStore)
		sessions := new(mockSessionRepo)
		svc := newReviewServiceForTest(bookings, new(mockReviewStore), sessions)

		booking := attendedBooking(2 * time.Hour)
		bookings.On("GetBookingByCodes", ctx, "ABC123", "4821").Return(booking, nil).Once()
		sessions.On("SetSession", ctx, "ABC123:4821", mock.Anything, mock.Anything).Return(nil).Once()

		session, err := svc.VerifyCodes(ctx, "ABC123", "4821")
		require.NoError(t, err)
		assert.Equal(t, "bk-1", session.BookingID)
		assert.Equal(t, "rest-1", session.RestaurantID)
		assert.True(t, session.ExpiresAt.Equal(booking.AttendanceAt.Add(models.ReviewWindow)))
		sessions.AssertExpectations(t)
	})
}

func TestSubmitReview(t *testing.T) {
	ctx := context.Background()

	t.Run("rating bounds", func(t *testing.T) {
		svc := newReviewServiceForTest(new(mockBookingStore), new(mockReviewStore), nil)

		_, err := svc.SubmitReview(ctx, "ABC123", "4821", 0, "")
		assert.ErrorIs(t, err, domain.ErrInvalidRating)

		_, err = svc.SubmitReview(ctx, "ABC123", "4821", 6, "")
		assert.ErrorIs(t, err, domain.ErrInvalidRating)
	})

	t.Run("uses existing session", func(t *testing.T) {
		reviews := new(mockReviewStore)
		sessions := new(mockSessionRepo)
		svc := newReviewServiceForTest(new(mockBookingStore), reviews, sessions)

		session := &models.ReviewSession{
			BookingID:    "bk-1",
			RestaurantID: "rest-1",
			CustomerName: "Dana",
			ExpiresAt:    time.Now().Add(time.Hour),
		}
		sessions.On("GetSession", ctx, "ABC123:4821").Return(session, nil).Once()
		reviews.On("CreateReview", ctx, mock.MatchedBy(func(r *models.Review) bool {
			return r.BookingID == "bk-1" && r.Rating == 5
		})).Return(nil).Once()
		sessions.On("ClearSession", ctx, "ABC123:4821").Return(nil).Once()

		review, err := svc.SubmitReview(ctx, "ABC123", "4821", 5, "loved it")
		require.NoError(t, err)
		assert.Equal(t, "rest-1", review.RestaurantID)
		reviews.AssertExpectations(t)
		sessions.AssertExpectations(t)
	})

	t.Run("falls back to verification without session", func(t *testing.T) {
		bookings := new(mockBookingStore)
		reviews := new(mockReviewStore)
		svc := newReviewServiceForTest(bookings, reviews, nil)

		booking := attendedBooking(2 * time.Hour)
		bookings.On("GetBookingByCodes", ctx, "ABC123", "4821").Return(booking, nil).Once()
		reviews.On("CreateReview", ctx, mock.Anything).Return(nil).Once()

		_, err := svc.SubmitReview(ctx, "ABC123", "4821", 4, "")
		require.NoError(t, err)
		reviews.AssertExpectations(t)
	})

	t.Run("second review rejected", func(t *testing.T) {
		bookings := new(mockBookingStore)
		reviews := new(mockReviewStore)
		svc := newReviewServiceForTest(bookings, reviews, nil)

		booking := attendedBooking(2 * time.Hour)
		bookings.On("GetBookingByCodes", ctx, "ABC123", "4821").Return(booking, nil).Once()
		reviews.On("CreateReview", ctx, mock.Anything).Return(domain.ErrReviewExists).Once()

		_, err := svc.SubmitReview(ctx, "ABC123", "4821", 4, "")
		assert.ErrorIs(t, err, domain.ErrReviewExists)
	})

	t.Run("stale session expires", func(t *testing.T) {
		sessions := new(mockSessionRepo)
		svc := newReviewServiceForTest(new(mockBookingStore), new(mockReviewStore), sessions)

		session := &models.ReviewSession{
			BookingID: "bk-1",
			ExpiresAt: time.Now().Add(-time.Minute),
		}
		sessions.On("GetSession", ctx, "ABC123:4821").Return(session, nil).Once()

		_, err := svc.SubmitReview(ctx, "ABC123", "4821", 4, "")
		assert.ErrorIs(t, err, domain.ErrReviewWindowExpired)
	})
}

func TestUpdateReview_EditWindow(t *testing.T) {
	ctx := context.Background()

	t.Run("within window", func(t *testing.T) {
		bookings := new(mockBookingStore)
		reviews := new(mockReviewStore)
		svc := newReviewServiceForTest(bookings, reviews, nil)

		review := &models.Review{ID: "rev-1", BookingID: "bk-1", Rating: 5, CreatedAt: time.Now().Add(-time.Hour)}
		reviews.On("GetReview", ctx, "rev-1").Return(review, nil).Once()
		bookings.On("GetBookingByCodes", ctx, "ABC123", "4821").Return(attendedBooking(2*time.Hour), nil).Once()
		reviews.On("UpdateReview", ctx, review).Return(nil).Once()

		got, err := svc.UpdateReview(ctx, "rev-1", "ABC123", "4821", 3, "updated")
		require.NoError(t, err)
		assert.Equal(t, int64(3), got.Rating)
		assert.Equal(t, "updated", got.Comment)
	})

	t.Run("locked after window", func(t *testing.T) {
		bookings := new(mockBookingStore)
		reviews := new(mockReviewStore)
		svc := newReviewServiceForTest(bookings, reviews, nil)

		review := &models.Review{ID: "rev-2", BookingID: "bk-1", Rating: 5, CreatedAt: time.Now().Add(-models.ReviewEditWindow - time.Hour)}
		reviews.On("GetReview", ctx, "rev-2").Return(review, nil).Once()
		bookings.On("GetBookingByCodes", ctx, "ABC123", "4821").Return(attendedBooking(2*time.Hour), nil).Once()

		_, err := svc.UpdateReview(ctx, "rev-2", "ABC123", "4821", 3, "too late")
		assert.ErrorIs(t, err, domain.ErrReviewLocked)
	})

	t.Run("rating bounds", func(t *testing.T) {
		svc := newReviewServiceForTest(new(mockBookingStore), new(mockReviewStore), nil)

		_, err := svc.UpdateReview(ctx, "rev-3", "ABC123", "4821", 0, "")
		assert.ErrorIs(t, err, domain.ErrInvalidRating)
	})

	t.Run("code format gate", func(t *testing.T) {
		svc := newReviewServiceForTest(new(mockBookingStore), new(mockReviewStore), nil)

		_, err := svc.UpdateReview(ctx, "rev-4", "short", "4821", 3, "")
		assert.ErrorIs(t, err, domain.ErrInvalidCodeFormat)
	})

	t.Run("codes for another booking rejected", func(t *testing.T) {
		bookings := new(mockBookingStore)
		reviews := new(mockReviewStore)
		svc := newReviewServiceForTest(bookings, reviews, nil)

		review := &models.Review{ID: "rev-5", BookingID: "bk-other", Rating: 5, CreatedAt: time.Now().Add(-time.Hour)}
		reviews.On("GetReview", ctx, "rev-5").Return(review, nil).Once()
		bookings.On("GetBookingByCodes", ctx, "ABC123", "4821").Return(attendedBooking(2*time.Hour), nil).Once()

		_, err := svc.UpdateReview(ctx, "rev-5", "ABC123", "4821", 3, "hijack")
		assert.ErrorIs(t, err, domain.ErrForbidden)
		reviews.AssertNotCalled(t, "UpdateReview", mock.Anything, mock.Anything)
	})

	t.Run("unknown pair rejected", func(t *testing.T) {
		bookings := new(mockBookingStore)
		reviews := new(mockReviewStore)
		svc := newReviewServiceForTest(bookings, reviews, nil)

		review := &models.Review{ID: "rev-6", BookingID: "bk-1", Rating: 5, CreatedAt: time.Now().Add(-time.Hour)}
		reviews.On("GetReview", ctx, "rev-6").Return(review, nil).Once()
		bookings.On("GetBookingByCodes", ctx, "ZZZ999", "0000").Return(nil, domain.ErrNotFound).Once()

		_, err := svc.UpdateReview(ctx, "rev-6", "ZZZ999", "0000", 3, "")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}
