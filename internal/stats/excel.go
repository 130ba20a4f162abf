// Package stats renders the admin statistics report.
package stats

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"barberbot/internal/model"
)

// statusOrder fixes the row order of the summary sheet.
var statusOrder = []string{
	model.StatusBooked,
	model.StatusConfirmed,
	model.StatusCompleted,
	model.StatusCanceled,
}

var statusTitles = map[string]string{
	model.StatusBooked:    "Забронировано",
	model.StatusConfirmed: "Подтверждено",
	model.StatusCompleted: "Выполнено",
	model.StatusCanceled:  "Отменено",
}

// WriteExcel renders the report as an xlsx workbook: a summary sheet plus
// top-services and busy-days sheets.
func WriteExcel(report *model.StatsReport, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := writeSummary(f, report); err != nil {
		return err
	}
	if err := writePairs(f, "Услуги", "Услуга", serviceRows(report)); err != nil {
		return err
	}
	if err := writePairs(f, "Загруженные дни", "Дата", dayRows(report)); err != nil {
		return err
	}
	return f.Write(w)
}

func writeSummary(f *excelize.File, report *model.StatsReport) error {
	const sheet = "Сводка"
	f.SetSheetName("Sheet1", sheet)

	rows := [][]any{
		{"Период", fmt.Sprintf("%s — %s", report.From, report.To)},
		{"Всего записей", report.TotalAppointments},
	}
	for _, status := range statusOrder {
		rows = append(rows, []any{statusTitles[status], report.ByStatus[status]})
	}
	rows = append(rows, []any{"Доход, руб.", report.TotalIncome})

	return writeRows(f, sheet, rows)
}

type pairRow struct {
	label string
	count int
}

func serviceRows(report *model.StatsReport) []pairRow {
	rows := make([]pairRow, 0, len(report.PopularServices))
	for _, sc := range report.PopularServices {
		rows = append(rows, pairRow{sc.Name, sc.Count})
	}
	return rows
}

func dayRows(report *model.StatsReport) []pairRow {
	rows := make([]pairRow, 0, len(report.BusyDays))
	for _, dc := range report.BusyDays {
		rows = append(rows, pairRow{dc.Date, dc.Count})
	}
	return rows
}

func writePairs(f *excelize.File, sheet, labelHeader string, rows []pairRow) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create sheet %s: %w", sheet, err)
	}

	all := [][]any{{labelHeader, "Записей"}}
	for _, r := range rows {
		all = append(all, []any{r.label, r.count})
	}
	if err := writeRows(f, sheet, all); err != nil {
		return err
	}

	// Bold header row.
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		_ = f.SetCellStyle(sheet, "A1", "B1", style)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		for j, val := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, val); err != nil {
				return err
			}
		}
	}
	return nil
}

// FormatText renders the report as a Telegram-ready message.
func FormatText(report *model.StatsReport) string {
	text := fmt.Sprintf("📊 *Статистика за %s — %s*\n\n", report.From, report.To)
	text += fmt.Sprintf("Всего записей: %d\n", report.TotalAppointments)
	for _, status := range statusOrder {
		if count := report.ByStatus[status]; count > 0 {
			text += fmt.Sprintf("  %s: %d\n", statusTitles[status], count)
		}
	}
	text += fmt.Sprintf("💰 Доход: %d руб.\n", report.TotalIncome)

	if len(report.PopularServices) > 0 {
		text += "\n*Популярные услуги:*\n"
		for i, sc := range report.PopularServices {
			text += fmt.Sprintf("%d. %s — %d\n", i+1, sc.Name, sc.Count)
		}
	}
	if len(report.BusyDays) > 0 {
		text += "\n*Загруженные дни:*\n"
		for i, dc := range report.BusyDays {
			text += fmt.Sprintf("%d. %s — %d\n", i+1, dc.Date, dc.Count)
		}
	}
	return text
}
