package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"shareit/internal/domain"
	"shareit/internal/models"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

// Exporter renders booking schedules and user lists into xlsx files.
type Exporter struct {
	repo   domain.Repository
	path   string
	logger *zerolog.Logger
}

func NewExporter(repo domain.Repository, path string, logger *zerolog.Logger) *Exporter {
	return &Exporter{repo: repo, path: path, logger: logger}
}

// ExportSchedule создает Excel файл с расписанием бронирований за период
func (e *Exporter) ExportSchedule(ctx context.Context, startDate, endDate time.Time) (string, error) {
	if endDate.Before(startDate) {
		return "", fmt.Errorf("invalid date range: %s - %s", startDate, endDate)
	}

	if err := os.MkdirAll(e.path, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %v", err)
	}

	bookings, err := e.repo.GetBookingsByDateRange(ctx, startDate, endDate)
	if err != nil {
		return "", fmt.Errorf("error getting bookings: %v", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Бронирования"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return "", fmt.Errorf("error creating sheet: %v", err)
	}
	f.SetActiveSheet(index)

	// Заголовок периода
	_ = f.SetCellValue(sheetName, "A1", fmt.Sprintf("Период: %s - %s",
		startDate.Format("02.01.2006"), endDate.Format("02.01.2006")))

	dateHeaders := e.writeDateHeaders(f, sheetName, startDate, endDate)

	items := collectItems(bookings)
	e.writeItemHeaders(f, sheetName, items)
	e.writeBookingData(f, sheetName, bookings, items, dateHeaders)

	_ = f.SetColWidth(sheetName, "A", "A", 25)
	for i := 'B'; i <= 'Z'; i++ {
		_ = f.SetColWidth(sheetName, string(i), string(i), 20)
	}

	// Объединяем ячейку для заголовка периода
	lastCol := getLastColumn(len(dateHeaders) + 1)
	_ = f.MergeCell(sheetName, "A1", lastCol+"1")

	style, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.SetCellStyle(sheetName, "A1", "A1", style)

	_ = f.DeleteSheet("Sheet1")

	fileName := fmt.Sprintf("schedule_%s_to_%s.xlsx",
		startDate.Format("2006-01-02"),
		endDate.Format("2006-01-02"))
	filePath := filepath.Join(e.path, fileName)

	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("error saving file: %v", err)
	}

	e.logger.Info().Str("file_path", filePath).Msg("Excel file created")
	return filePath, nil
}

type scheduleItem struct {
	id   int64
	name string
}

// collectItems derives the distinct item rows from the bookings themselves.
func collectItems(bookings []*models.Booking) []scheduleItem {
	seen := make(map[int64]string)
	for _, b := range bookings {
		seen[b.ItemID] = b.ItemName
	}

	items := make([]scheduleItem, 0, len(seen))
	for id, name := range seen {
		items = append(items, scheduleItem{id: id, name: name})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].id < items[j].id })
	return items
}

func (e *Exporter) writeDateHeaders(f *excelize.File, sheetName string, startDate, endDate time.Time) map[string]int {
	col := 2
	currentDate := startDate
	dateHeaders := make(map[string]int)

	for !currentDate.After(endDate) {
		cell, _ := excelize.CoordinatesToCellName(col, 2)
		dateStr := currentDate.Format("02.01")
		_ = f.SetCellValue(sheetName, cell, dateStr)
		dateHeaders[currentDate.Format("2006-01-02")] = col

		style, _ := f.NewStyle(&excelize.Style{
			Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
			Font:      &excelize.Font{Bold: true},
			Alignment: &excelize.Alignment{Horizontal: "center"},
		})
		_ = f.SetCellStyle(sheetName, cell, cell, style)

		col++
		currentDate = currentDate.AddDate(0, 0, 1)
	}
	return dateHeaders
}

func (e *Exporter) writeItemHeaders(f *excelize.File, sheetName string, items []scheduleItem) {
	row := 3
	for _, item := range items {
		cell, _ := excelize.CoordinatesToCellName(1, row)
		_ = f.SetCellValue(sheetName, cell, item.name)

		style, _ := f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Color: []string{"#E2EFDA"}, Pattern: 1},
			Font: &excelize.Font{Bold: true},
		})
		_ = f.SetCellStyle(sheetName, cell, cell, style)

		row++
	}
}

func (e *Exporter) writeBookingData(
	f *excelize.File, sheetName string,
	bookings []*models.Booking,
	items []scheduleItem,
	dateHeaders map[string]int,
) {
	rowByItem := make(map[int64]int, len(items))
	for i, item := range items {
		rowByItem[item.id] = i + 3
	}

	for dateKey, col := range dateHeaders {
		day, err := time.Parse("2006-01-02", dateKey)
		if err != nil {
			continue
		}
		dayEnd := day.AddDate(0, 0, 1)

		for _, item := range items {
			var cellValue string
			var dayBookings []*models.Booking
			for _, b := range bookings {
				if b.ItemID != item.id {
					continue
				}
				if b.Start.Before(dayEnd) && b.End.After(day) {
					dayBookings = append(dayBookings, b)
				}
			}

			if len(dayBookings) == 0 {
				continue
			}

			for _, b := range dayBookings {
				cellValue += fmt.Sprintf("%s %s\n", statusIcon(b.Status), b.BookerName)
			}

			cell, _ := excelize.CoordinatesToCellName(col, rowByItem[item.id])
			_ = f.SetCellValue(sheetName, cell, cellValue)

			styleID, err := e.cellStyle(f, dayBookings)
			if err == nil {
				_ = f.SetCellStyle(sheetName, cell, cell, styleID)
			}
		}
	}
}

func statusIcon(status string) string {
	switch status {
	case models.StatusApproved:
		return "✅"
	case models.StatusWaiting:
		return "⏳"
	case models.StatusRejected:
		return "❌"
	default:
		return "❓"
	}
}

// cellStyle возвращает стиль ячейки в зависимости от статусов заявок
func (e *Exporter) cellStyle(f *excelize.File, bookings []*models.Booking) (int, error) {
	hasWaiting := false
	hasApproved := false
	for _, b := range bookings {
		switch b.Status {
		case models.StatusWaiting:
			hasWaiting = true
		case models.StatusApproved:
			hasApproved = true
		}
	}

	fill := "#FFFFFF"
	switch {
	case hasWaiting:
		fill = "#FFEB9C"
	case hasApproved:
		fill = "#C6EFCE"
	}

	return f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{fill}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "left",
			Vertical:   "top",
			WrapText:   true,
		},
	})
}

// getLastColumn возвращает последнюю колонку для объединения ячеек
func getLastColumn(colCount int) string {
	// Базовые колонки A-Z
	if colCount <= 26 {
		return string(rune('A' + colCount - 1))
	}

	// Для большего количества колонок (AA, AB, etc.)
	firstChar := string(rune('A' + (colCount-1)/26 - 1))
	secondChar := string(rune('A' + (colCount-1)%26))
	return firstChar + secondChar
}

// ExportUsers создает Excel файл со списком пользователей
func (e *Exporter) ExportUsers(ctx context.Context) (string, error) {
	if err := os.MkdirAll(e.path, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %v", err)
	}

	users, err := e.repo.GetAllUsers(ctx)
	if err != nil {
		return "", fmt.Errorf("error getting users: %v", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Пользователи"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return "", fmt.Errorf("error creating sheet: %v", err)
	}
	f.SetActiveSheet(index)

	headers := []string{"ID", "Имя", "Email", "Дата регистрации"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheetName, cell, header)
	}

	for i, user := range users {
		row := i + 2
		_ = f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), user.ID)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), user.Name)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), user.Email)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), user.CreatedAt.Format("02.01.2006 15:04"))
	}

	_ = f.SetColWidth(sheetName, "A", "A", 10)
	_ = f.SetColWidth(sheetName, "B", "B", 25)
	_ = f.SetColWidth(sheetName, "C", "C", 30)
	_ = f.SetColWidth(sheetName, "D", "D", 20)

	_ = f.DeleteSheet("Sheet1")

	fileName := fmt.Sprintf("users_export_%s.xlsx", time.Now().Format("2006-01-02_15-04-05"))
	filePath := filepath.Join(e.path, fileName)

	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("error saving file: %v", err)
	}

	e.logger.Info().Str("file_path", filePath).Msg("Users Excel file created")
	return filePath, nil
}
