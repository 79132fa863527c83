package export

import (
	"fmt"
	"io"
	"time"

	"shareit/internal/models"

	"github.com/xuri/excelize/v2"
)

const (
	SheetName  = "Bookings"
	timeLayout = "2006-01-02 15:04"
	headerRow  = 2
)

var columns = []string{"ID", "Item", "Booker", "Start", "End", "Status"}

// statusFill задает цвет строки по статусу заявки
var statusFill = map[models.BookingStatus]string{
	models.StatusWaiting:  "#FFEB9C",
	models.StatusApproved: "#C6EFCE",
	models.StatusRejected: "#FFC7CE",
	models.StatusCanceled: "#FFFFFF",
}

// WriteBookings renders bookings as an xlsx workbook into w, one row per
// booking in the given order.
func WriteBookings(w io.Writer, bookings []*models.Booking, state models.BookingState, now time.Time) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(SheetName)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)

	// Заголовок отчета
	_ = f.SetCellValue(SheetName, "A1", fmt.Sprintf("Bookings %s as of %s", state, now.UTC().Format(timeLayout)))
	lastCol, _ := excelize.ColumnNumberToName(len(columns))
	_ = f.MergeCell(SheetName, "A1", lastCol+"1")
	titleStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("title style: %w", err)
	}
	_ = f.SetCellStyle(SheetName, "A1", "A1", titleStyle)

	if err := writeHeaders(f); err != nil {
		return err
	}

	styles := make(map[models.BookingStatus]int, len(statusFill))
	for i, b := range bookings {
		row := headerRow + 1 + i
		values := []any{
			b.ID,
			b.ItemID,
			b.BookerID,
			b.Start.UTC().Format(timeLayout),
			b.End.UTC().Format(timeLayout),
			string(b.Status),
		}
		start, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(SheetName, start, &values); err != nil {
			return fmt.Errorf("write row %d: %w", row, err)
		}

		style, err := rowStyle(f, styles, b.Status)
		if err != nil {
			return err
		}
		end, _ := excelize.CoordinatesToCellName(len(columns), row)
		_ = f.SetCellStyle(SheetName, start, end, style)
	}

	_ = f.SetColWidth(SheetName, "A", "C", 10)
	_ = f.SetColWidth(SheetName, "D", "E", 20)
	_ = f.SetColWidth(SheetName, "F", "F", 14)

	// Стандартный лист не нужен
	_ = f.DeleteSheet("Sheet1")

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeHeaders(f *excelize.File) error {
	style, err := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	for i, name := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, headerRow)
		_ = f.SetCellValue(SheetName, cell, name)
		_ = f.SetCellStyle(SheetName, cell, cell, style)
	}
	return nil
}

func rowStyle(f *excelize.File, cache map[models.BookingStatus]int, status models.BookingStatus) (int, error) {
	if id, ok := cache[status]; ok {
		return id, nil
	}

	color, ok := statusFill[status]
	if !ok {
		color = "#FFFFFF"
	}
	id, err := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return 0, fmt.Errorf("row style for %s: %w", status, err)
	}
	cache[status] = id
	return id, nil
}
