package database

import (
	"context"
	"fmt"
	"time"

	"tavolo/internal/domain"
	"tavolo/internal/models"
)

const reviewColumns = `id, booking_id, restaurant_id, customer_name, rating,
    comment, created_at, updated_at`

func (db *DB) CreateReview(ctx context.Context, review *models.Review) error {
	now := time.Now()
	query := `INSERT INTO reviews (` + reviewColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := db.ExecContext(ctx, query,
		review.ID,
		review.BookingID,
		review.RestaurantID,
		review.CustomerName,
		review.Rating,
		review.Comment,
		now,
		now,
	)
	if err != nil {
		if isUniqueViolation(err, "reviews.booking_id") {
			return domain.ErrReviewExists
		}
		return fmt.Errorf("create review: %w", err)
	}

	review.CreatedAt = now
	review.UpdatedAt = now
	return nil
}

func (db *DB) GetReview(ctx context.Context, id string) (*models.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE id = ?`
	var review models.Review
	err := db.QueryRowContext(ctx, query, id).Scan(
		&review.ID,
		&review.BookingID,
		&review.RestaurantID,
		&review.CustomerName,
		&review.Rating,
		&review.Comment,
		&review.CreatedAt,
		&review.UpdatedAt,
	)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return &review, nil
}

func (db *DB) UpdateReview(ctx context.Context, review *models.Review) error {
	now := time.Now()
	query := `UPDATE reviews SET rating = ?, comment = ?, updated_at = ? WHERE id = ?`
	result, err := db.ExecContext(ctx, query, review.Rating, review.Comment, now, review.ID)
	if err != nil {
		return fmt.Errorf("update review: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update review rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	review.UpdatedAt = now
	return nil
}

func (db *DB) GetReviewsByRestaurant(ctx context.Context, restaurantID string) ([]*models.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE restaurant_id = ? ORDER BY created_at DESC`
	rows, err := db.QueryContext(ctx, query, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("query reviews: %w", err)
	}
	defer rows.Close()

	var reviews []*models.Review
	for rows.Next() {
		var review models.Review
		err := rows.Scan(
			&review.ID,
			&review.BookingID,
			&review.RestaurantID,
			&review.CustomerName,
			&review.Rating,
			&review.Comment,
			&review.CreatedAt,
			&review.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, &review)
	}
	return reviews, rows.Err()
}
