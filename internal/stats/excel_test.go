package stats

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"barberbot/internal/model"
)

func sampleReport() *model.StatsReport {
	return &model.StatsReport{
		From:              "2025-07-01",
		To:                "2025-07-31",
		TotalAppointments: 12,
		ByStatus: map[string]int{
			model.StatusCompleted: 8,
			model.StatusCanceled:  2,
			model.StatusConfirmed: 2,
		},
		TotalIncome: 12000,
		PopularServices: []model.ServiceCount{
			{Name: "Стрижка", Count: 6},
			{Name: "Бритьё", Count: 2},
		},
		BusyDays: []model.DateCount{
			{Date: "2025-07-05", Count: 4},
		},
	}
}

func TestWriteExcel(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteExcel(sampleReport(), &buf))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	assert.ElementsMatch(t, []string{"Сводка", "Услуги", "Загруженные дни"}, f.GetSheetList())

	period, err := f.GetCellValue("Сводка", "B1")
	require.NoError(t, err)
	assert.Equal(t, "2025-07-01 — 2025-07-31", period)

	top, err := f.GetCellValue("Услуги", "A2")
	require.NoError(t, err)
	assert.Equal(t, "Стрижка", top)
}

func TestFormatText(t *testing.T) {
	text := FormatText(sampleReport())

	assert.Contains(t, text, "Всего записей: 12")
	assert.Contains(t, text, "Выполнено: 8")
	assert.NotContains(t, text, "Забронировано")
	assert.Contains(t, text, "Доход: 12000 руб.")
	assert.Contains(t, text, "1. Стрижка — 6")
	assert.Contains(t, text, "2025-07-05 — 4")
}
