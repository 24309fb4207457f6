package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"tavolo/internal/domain"
	"tavolo/internal/models"
)

// InventoryService manages a restaurant's physical tables and answers
// availability queries. It never treats a read as a reservation; holding
// a date goes through ReserveTable, which is race-safe at the store.
type InventoryService struct {
	tables domain.TableStore
	logger *zerolog.Logger
}

func NewInventoryService(tables domain.TableStore, logger *zerolog.Logger) *InventoryService {
	return &InventoryService{tables: tables, logger: logger}
}

func (s *InventoryService) AddTable(ctx context.Context, restaurantID string, tableNumber, seats int64, timeSlots []models.TimeSlot) (*models.Table, error) {
	if seats < 1 || tableNumber < 1 {
		return nil, domain.ErrInvalidTableSpec
	}

	table := &models.Table{
		ID:           uuid.NewString(),
		RestaurantID: restaurantID,
		TableNumber:  tableNumber,
		Seats:        seats,
		IsAvailable:  true,
		TimeSlots:    timeSlots,
	}

	if err := s.tables.CreateTable(ctx, table); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("table_id", table.ID).
		Str("restaurant_id", restaurantID).
		Int64("table_number", tableNumber).
		Msg("table added")
	return table, nil
}

func (s *InventoryService) UpdateTable(ctx context.Context, id string, patch models.TablePatch) (*models.Table, error) {
	table, err := s.tables.GetTable(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.TableNumber != nil {
		table.TableNumber = *patch.TableNumber
	}
	if patch.Seats != nil {
		if *patch.Seats < 1 {
			return nil, domain.ErrInvalidTableSpec
		}
		table.Seats = *patch.Seats
	}
	if patch.IsAvailable != nil {
		table.IsAvailable = *patch.IsAvailable
	}
	if patch.AvailableDates != nil {
		table.AvailableDates = *patch.AvailableDates
	}
	if patch.UnavailableDates != nil {
		table.UnavailableDates = *patch.UnavailableDates
	}
	if patch.TimeSlots != nil {
		table.TimeSlots = *patch.TimeSlots
	}

	if err := s.tables.UpdateTable(ctx, table); err != nil {
		return nil, err
	}
	return table, nil
}

func (s *InventoryService) DeleteTable(ctx context.Context, id string) error {
	if err := s.tables.DeleteTable(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Str("table_id", id).Msg("table deleted")
	return nil
}

// GetAvailableTables returns the restaurant's tables that can seat the
// party on the given calendar date, ordered by table number. Time of day
// is ignored at this layer.
func (s *InventoryService) GetAvailableTables(ctx context.Context, restaurantID string, date time.Time, partySize int64) ([]*models.Table, error) {
	tables, err := s.tables.GetTablesByRestaurant(ctx, restaurantID)
	if err != nil {
		return nil, err
	}

	day := date.Format(models.DateLayout)
	var available []*models.Table
	for _, table := range tables {
		if table.FitsParty(partySize) && table.IsDateAvailable(day) {
			available = append(available, table)
		}
	}
	return available, nil
}

func (s *InventoryService) GetTable(ctx context.Context, id string) (*models.Table, error) {
	return s.tables.GetTable(ctx, id)
}

func (s *InventoryService) GetTables(ctx context.Context, restaurantID string) ([]*models.Table, error) {
	return s.tables.GetTablesByRestaurant(ctx, restaurantID)
}

// ReserveTable holds the calendar date on the table. It fails with
// ErrTableNoLongerAvailable when the date was taken between the caller's
// availability read and this write.
func (s *InventoryService) ReserveTable(ctx context.Context, tableID string, date time.Time) error {
	return s.tables.ReserveDate(ctx, tableID, date.Format(models.DateLayout))
}

// ReleaseTable gives the date back. Releasing a date that is not held,
// or a table that no longer exists, is a no-op.
func (s *InventoryService) ReleaseTable(ctx context.Context, tableID string, date time.Time) error {
	return s.tables.ReleaseDate(ctx, tableID, date.Format(models.DateLayout))
}
