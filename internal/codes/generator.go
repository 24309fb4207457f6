// Package codes mints the capability tokens that gate booking lookup and
// review submission. Codes are short by design (they are typed by humans),
// so global uniqueness is enforced by the store and callers retry on
// collision.
package codes

import (
	"crypto/rand"
	"fmt"
	"regexp"

	"tavolo/internal/models"
)

const (
	alphanumeric = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	digits       = "0123456789"
)

var (
	bookingCodePattern = regexp.MustCompile(`^[A-Za-z0-9]{6}$`)
	reviewCodePattern  = regexp.MustCompile(`^[0-9]{4}$`)
)

// Generator produces booking and review codes.
type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// BookingCode returns a 6-character alphanumeric code.
func (g *Generator) BookingCode() (string, error) {
	return randomString(alphanumeric, models.BookingCodeLength)
}

// ReviewCode returns a 4-digit numeric code.
func (g *Generator) ReviewCode() (string, error) {
	return randomString(digits, models.ReviewCodeLength)
}

func randomString(alphabet string, length int) (string, error) {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	for i, b := range buf {
		buf[i] = alphabet[int(b)%len(alphabet)]
	}
	return string(buf), nil
}

// ValidBookingCode reports whether the string has booking-code format.
func ValidBookingCode(code string) bool {
	return bookingCodePattern.MatchString(code)
}

// ValidReviewCode reports whether the string has review-code format.
func ValidReviewCode(code string) bool {
	return reviewCodePattern.MatchString(code)
}
