package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"tavolo/internal/domain"
	"tavolo/internal/models"
)

const tableColumns = `id, restaurant_id, table_number, seats, is_available,
    available_dates, unavailable_dates, time_slots, created_at, updated_at, version`

func (db *DB) CreateTable(ctx context.Context, table *models.Table) error {
	now := time.Now()
	availableJSON, unavailableJSON, slotsJSON, err := marshalTableLists(table)
	if err != nil {
		return err
	}

	query := `INSERT INTO tables (` + tableColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = db.ExecContext(ctx, query,
		table.ID,
		table.RestaurantID,
		table.TableNumber,
		table.Seats,
		table.IsAvailable,
		availableJSON,
		unavailableJSON,
		slotsJSON,
		now,
		now,
		1,
	)
	if err != nil {
		if isUniqueViolation(err, "tables.restaurant_id") {
			return domain.ErrDuplicateTableNumber
		}
		return fmt.Errorf("create table: %w", err)
	}

	table.CreatedAt = now
	table.UpdatedAt = now
	table.Version = 1
	return nil
}

func (db *DB) GetTable(ctx context.Context, id string) (*models.Table, error) {
	query := `SELECT ` + tableColumns + ` FROM tables WHERE id = ?`
	table, err := scanTable(db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapNotFound(err)
	}
	return table, nil
}

func (db *DB) GetTablesByRestaurant(ctx context.Context, restaurantID string) ([]*models.Table, error) {
	query := `SELECT ` + tableColumns + ` FROM tables WHERE restaurant_id = ? ORDER BY table_number`
	rows, err := db.QueryContext(ctx, query, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("query tables: %w", err)
	}
	defer rows.Close()

	var tables []*models.Table
	for rows.Next() {
		table, err := scanTable(rows)
		if err != nil {
			return nil, err
		}
		tables = append(tables, table)
	}
	return tables, rows.Err()
}

func (db *DB) UpdateTable(ctx context.Context, table *models.Table) error {
	availableJSON, unavailableJSON, slotsJSON, err := marshalTableLists(table)
	if err != nil {
		return err
	}

	now := time.Now()
	query := `UPDATE tables
        SET table_number = ?, seats = ?, is_available = ?, available_dates = ?,
            unavailable_dates = ?, time_slots = ?, updated_at = ?, version = version + 1
        WHERE id = ? AND version = ?`
	result, err := db.ExecContext(ctx, query,
		table.TableNumber,
		table.Seats,
		table.IsAvailable,
		availableJSON,
		unavailableJSON,
		slotsJSON,
		now,
		table.ID,
		table.Version,
	)
	if err != nil {
		if isUniqueViolation(err, "tables.restaurant_id") {
			return domain.ErrDuplicateTableNumber
		}
		return fmt.Errorf("update table: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update table rows affected: %w", err)
	}
	if affected == 0 {
		if _, err := db.GetTable(ctx, table.ID); errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return domain.ErrVersionConflict
	}

	table.UpdatedAt = now
	table.Version++
	return nil
}

func (db *DB) DeleteTable(ctx context.Context, id string) error {
	result, err := db.ExecContext(ctx, `DELETE FROM tables WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete table: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete table rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ReserveDate adds the date to the table's unavailable list inside a
// transaction. The re-read under the transaction closes the
// check-then-act race: the second of two concurrent reservations sees the
// date already present and fails.
func (db *DB) ReserveDate(ctx context.Context, tableID, date string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reserve tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := reserveDateTx(ctx, tx, tableID, date); err != nil {
		return err
	}
	return tx.Commit()
}

func reserveDateTx(ctx context.Context, tx *sql.Tx, tableID, date string) error {
	var unavailableJSON string
	var version int64
	err := tx.QueryRowContext(ctx,
		`SELECT unavailable_dates, version FROM tables WHERE id = ?`, tableID).
		Scan(&unavailableJSON, &version)
	if err != nil {
		return mapNotFound(err)
	}

	var unavailable []string
	if err := json.Unmarshal([]byte(unavailableJSON), &unavailable); err != nil {
		return fmt.Errorf("decode unavailable dates: %w", err)
	}

	for _, d := range unavailable {
		if d == date {
			return domain.ErrTableNoLongerAvailable
		}
	}

	unavailable = append(unavailable, date)
	raw, err := json.Marshal(unavailable)
	if err != nil {
		return fmt.Errorf("encode unavailable dates: %w", err)
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE tables SET unavailable_dates = ?, updated_at = ?, version = version + 1
         WHERE id = ? AND version = ?`,
		string(raw), time.Now(), tableID, version)
	if err != nil {
		return fmt.Errorf("reserve date: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("reserve date rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrTableNoLongerAvailable
	}
	return nil
}

// ReleaseDate removes the date from the table's unavailable list. A date
// not present, or a table already deleted, is a no-op.
func (db *DB) ReleaseDate(ctx context.Context, tableID, date string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin release tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var unavailableJSON string
	var version int64
	err = tx.QueryRowContext(ctx,
		`SELECT unavailable_dates, version FROM tables WHERE id = ?`, tableID).
		Scan(&unavailableJSON, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read unavailable dates: %w", err)
	}

	var unavailable []string
	if err := json.Unmarshal([]byte(unavailableJSON), &unavailable); err != nil {
		return fmt.Errorf("decode unavailable dates: %w", err)
	}

	kept := unavailable[:0]
	for _, d := range unavailable {
		if d != date {
			kept = append(kept, d)
		}
	}
	if len(kept) == len(unavailable) {
		return nil
	}

	raw, err := json.Marshal(kept)
	if err != nil {
		return fmt.Errorf("encode unavailable dates: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE tables SET unavailable_dates = ?, updated_at = ?, version = version + 1
         WHERE id = ? AND version = ?`,
		string(raw), time.Now(), tableID, version)
	if err != nil {
		return fmt.Errorf("release date: %w", err)
	}
	return tx.Commit()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTable(row rowScanner) (*models.Table, error) {
	var table models.Table
	var availableJSON, unavailableJSON, slotsJSON string
	err := row.Scan(
		&table.ID,
		&table.RestaurantID,
		&table.TableNumber,
		&table.Seats,
		&table.IsAvailable,
		&availableJSON,
		&unavailableJSON,
		&slotsJSON,
		&table.CreatedAt,
		&table.UpdatedAt,
		&table.Version,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(availableJSON), &table.AvailableDates); err != nil {
		return nil, fmt.Errorf("decode available dates: %w", err)
	}
	if err := json.Unmarshal([]byte(unavailableJSON), &table.UnavailableDates); err != nil {
		return nil, fmt.Errorf("decode unavailable dates: %w", err)
	}
	if err := json.Unmarshal([]byte(slotsJSON), &table.TimeSlots); err != nil {
		return nil, fmt.Errorf("decode time slots: %w", err)
	}
	return &table, nil
}

func marshalTableLists(table *models.Table) (string, string, string, error) {
	available := table.AvailableDates
	if available == nil {
		available = []string{}
	}
	unavailable := table.UnavailableDates
	if unavailable == nil {
		unavailable = []string{}
	}
	slots := table.TimeSlots
	if slots == nil {
		slots = []models.TimeSlot{}
	}

	availableJSON, err := json.Marshal(available)
	if err != nil {
		return "", "", "", fmt.Errorf("encode available dates: %w", err)
	}
	unavailableJSON, err := json.Marshal(unavailable)
	if err != nil {
		return "", "", "", fmt.Errorf("encode unavailable dates: %w", err)
	}
	slotsJSON, err := json.Marshal(slots)
	if err != nil {
		return "", "", "", fmt.Errorf("encode time slots: %w", err)
	}
	return string(availableJSON), string(unavailableJSON), string(slotsJSON), nil
}
