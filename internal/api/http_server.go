package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"tavolo/internal/config"
	"tavolo/internal/domain"
	"tavolo/internal/export"
	"tavolo/internal/metrics"
	"tavolo/internal/service"
)

// HTTPServer exposes the reservation engine over JSON/HTTP. Identity is
// delegated: an api key maps to the actor the external provider vouches
// for, and the engine trusts that actor for its authorization guards.
type HTTPServer struct {
	cfg       *config.APIConfig
	bookings  *service.BookingService
	inventory *service.InventoryService
	reviews   *service.ReviewService
	exporter  *export.Exporter
	auth      *HTTPAuth
	server    *http.Server
	logger    *zerolog.Logger
}

func NewHTTPServer(
	cfg *config.APIConfig,
	bookings *service.BookingService,
	inventory *service.InventoryService,
	reviews *service.ReviewService,
	exporter *export.Exporter,
	logger *zerolog.Logger,
) *HTTPServer {
	srv := &HTTPServer{
		cfg:       cfg,
		bookings:  bookings,
		inventory: inventory,
		reviews:   reviews,
		exporter:  exporter,
		auth:      NewHTTPAuth(cfg),
		logger:    logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", srv.handleHealth)

	mux.HandleFunc("POST /api/v1/tables", srv.handleAddTable)
	mux.HandleFunc("GET /api/v1/tables", srv.handleListTables)
	mux.HandleFunc("GET /api/v1/tables/available", srv.handleAvailableTables)
	mux.HandleFunc("PATCH /api/v1/tables/{id}", srv.handleUpdateTable)
	mux.HandleFunc("DELETE /api/v1/tables/{id}", srv.handleDeleteTable)

	mux.HandleFunc("POST /api/v1/bookings", srv.handleCreateBooking)
	mux.HandleFunc("GET /api/v1/bookings", srv.handleListBookings)
	mux.HandleFunc("GET /api/v1/bookings/code/{code}", srv.handleBookingByCode)
	mux.HandleFunc("POST /api/v1/bookings/{id}/confirm", srv.handleConfirm)
	mux.HandleFunc("POST /api/v1/bookings/{id}/reject", srv.handleReject)
	mux.HandleFunc("POST /api/v1/bookings/{id}/cancel", srv.handleCancel)
	mux.HandleFunc("POST /api/v1/bookings/{id}/attendance", srv.handleAttendance)
	mux.HandleFunc("POST /api/v1/bookings/{id}/no-show", srv.handleNoShow)

	mux.HandleFunc("POST /api/v1/reviews/verify", srv.handleVerifyCodes)
	mux.HandleFunc("POST /api/v1/reviews", srv.handleSubmitReview)
	mux.HandleFunc("PATCH /api/v1/reviews/{id}", srv.handleUpdateReview)
	mux.HandleFunc("GET /api/v1/restaurants/{id}/reviews", srv.handleRestaurantReviews)
	mux.HandleFunc("GET /api/v1/restaurants/{id}/bookings/export", srv.handleExport)

	handler := srv.loggingMiddleware(srv.auth.Wrap(mux))

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	return srv
}

func (s *HTTPServer) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("http api listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		metrics.IncHTTP(r.URL.Path)
		next.ServeHTTP(w, r)
		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeEngineError maps domain error kinds to HTTP status codes.
func writeEngineError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch domain.Classify(err) {
	case domain.KindValidation:
		status = http.StatusBadRequest
	case domain.KindConflict:
		status = http.StatusConflict
	case domain.KindState:
		status = http.StatusUnprocessableEntity
	case domain.KindNotFound:
		status = http.StatusNotFound
	case domain.KindForbidden:
		status = http.StatusForbidden
	case domain.KindRateLimited:
		status = http.StatusTooManyRequests
	}
	writeError(w, status, err.Error())
}
