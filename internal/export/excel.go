// Package export builds the owner-facing bookings report as an xlsx
// workbook.
package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"tavolo/internal/domain"
	"tavolo/internal/models"
	"tavolo/internal/service"
)

type Exporter struct {
	bookings domain.BookingStore
	path     string
	logger   *zerolog.Logger
}

func NewExporter(bookings domain.BookingStore, path string, logger *zerolog.Logger) *Exporter {
	return &Exporter{bookings: bookings, path: path, logger: logger}
}

var reportHeaders = []string{
	"Date", "Time", "Table", "Customer", "Party", "Status", "Attendance",
	"Guarantee (¢)", "Charge owed (¢)", "Notes",
}

// BookingsReport writes all bookings for the restaurant between start and
// end to an xlsx file and returns its path.
func (e *Exporter) BookingsReport(ctx context.Context, restaurantID string, start, end time.Time) (string, error) {
	if err := os.MkdirAll(e.path, 0o755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}

	bookings, err := e.bookings.GetBookingsByRestaurant(ctx, restaurantID, start, end)
	if err != nil {
		return "", fmt.Errorf("load bookings: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Bookings"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return "", fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)

	_ = f.SetCellValue(sheetName, "A1", fmt.Sprintf("Bookings %s - %s",
		start.Format(models.DateLayout), end.Format(models.DateLayout)))

	for col, header := range reportHeaders {
		cell, _ := excelize.CoordinatesToCellName(col+1, 2)
		_ = f.SetCellValue(sheetName, cell, header)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	firstCell, _ := excelize.CoordinatesToCellName(1, 2)
	lastCell, _ := excelize.CoordinatesToCellName(len(reportHeaders), 2)
	_ = f.SetCellStyle(sheetName, firstCell, lastCell, headerStyle)

	for i, booking := range bookings {
		e.writeBookingRow(f, sheetName, i+3, booking)
	}

	_ = f.SetColWidth(sheetName, "A", "B", 12)
	_ = f.SetColWidth(sheetName, "C", "J", 16)
	_ = f.MergeCell(sheetName, "A1", "J1")
	_ = f.DeleteSheet("Sheet1")

	fileName := fmt.Sprintf("bookings_%s_%s_%s.xlsx",
		restaurantID, start.Format(models.DateLayout), end.Format(models.DateLayout))
	outPath := filepath.Join(e.path, fileName)

	if err := f.SaveAs(outPath); err != nil {
		return "", fmt.Errorf("save report: %w", err)
	}

	e.logger.Info().
		Str("restaurant_id", restaurantID).
		Int("bookings", len(bookings)).
		Str("file", outPath).
		Msg("bookings report written")
	return outPath, nil
}

func (e *Exporter) writeBookingRow(f *excelize.File, sheetName string, row int, booking *models.Booking) {
	charge, _ := service.NoShowCharge(booking)

	values := []any{
		booking.DateTime.Format(models.DateLayout),
		booking.DateTime.Format("15:04"),
		booking.TableNumber,
		booking.CustomerName,
		booking.PartySize,
		displayStatus(booking),
		booking.Attendance,
		booking.GuaranteeCents,
		charge,
		booking.Notes,
	}
	for col, value := range values {
		cell, _ := excelize.CoordinatesToCellName(col+1, row)
		_ = f.SetCellValue(sheetName, cell, value)
	}
}

func displayStatus(booking *models.Booking) string {
	if booking.IsCompleted(time.Now()) {
		return "completed"
	}
	return booking.Status
}
