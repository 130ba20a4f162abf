package bot

import (
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"barberbot/internal/model"
)

var (
	mainMenu = tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("✂️ Записаться"),
			tgbotapi.NewKeyboardButton("📌 Мои записи"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("ℹ️ Помощь"),
		),
	)

	adminMenu = tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("✂️ Записаться"),
			tgbotapi.NewKeyboardButton("📌 Мои записи"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("📋 Записи на сегодня"),
			tgbotapi.NewKeyboardButton("⚙️ Админка"),
		),
	)
)

func servicesKeyboard(services []model.Service) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(services)+1)
	for _, s := range services {
		label := fmt.Sprintf("%s · %d мин · %d ₽", s.Name, s.DurationMinutes, s.Price)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, fmt.Sprintf("svc:%d", s.ID)),
		))
	}
	rows = append(rows, cancelRow())
	return tgbotapi.InlineKeyboardMarkup{InlineKeyboard: rows}
}

func barbersKeyboard(barbers []model.Barber, callbackPrefix string) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(barbers)+1)
	for _, b := range barbers {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(b.Name, fmt.Sprintf("%s:%d", callbackPrefix, b.ID)),
		))
	}
	if callbackPrefix == "barber" {
		rows = append(rows, backRow("back:service"))
	} else {
		rows = append(rows, cancelRow())
	}
	return tgbotapi.InlineKeyboardMarkup{InlineKeyboard: rows}
}

var weekdayShort = [...]string{"Вс", "Пн", "Вт", "Ср", "Чт", "Пт", "Сб"}

// datesKeyboard lays seeded dates out two per row as "Пн 02.01" buttons.
func datesKeyboard(dates []string) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0)
	var row []tgbotapi.InlineKeyboardButton
	for _, d := range dates {
		label := d
		if day, err := time.Parse("2006-01-02", d); err == nil {
			label = fmt.Sprintf("%s %s", weekdayShort[day.Weekday()], day.Format("02.01"))
		}
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(label, "date:"+d))
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	rows = append(rows, backRow("back:barber"))
	return tgbotapi.InlineKeyboardMarkup{InlineKeyboard: rows}
}

// slotsKeyboard groups time slots into rows of three.
func slotsKeyboard(daySlots []model.TimeSlot) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0)
	var row []tgbotapi.InlineKeyboardButton
	for _, s := range daySlots {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(s.TimeSlot, "slot:"+s.TimeSlot))
		if len(row) == 3 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	rows = append(rows, backRow("back:date"))
	return tgbotapi.InlineKeyboardMarkup{InlineKeyboard: rows}
}

func confirmKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Подтвердить", "confirm"),
			tgbotapi.NewInlineKeyboardButtonData("❌ Отмена", "cancel"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⬅️ Назад", "back:time"),
		),
	)
}

func appointmentKeyboard(id int64) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("❌ Отменить", fmt.Sprintf("appt:cancel:%d", id)),
		),
	)
}

func adminAppointmentKeyboard(appt *model.Appointment) tgbotapi.InlineKeyboardMarkup {
	var row []tgbotapi.InlineKeyboardButton
	switch appt.Status {
	case model.StatusBooked:
		row = append(row,
			tgbotapi.NewInlineKeyboardButtonData("☑️ Подтвердить", fmt.Sprintf("adm:confirm:%d", appt.ID)),
			tgbotapi.NewInlineKeyboardButtonData("❌ Отменить", fmt.Sprintf("adm:cancel:%d", appt.ID)),
		)
	case model.StatusConfirmed:
		row = append(row,
			tgbotapi.NewInlineKeyboardButtonData("✅ Выполнено", fmt.Sprintf("adm:complete:%d", appt.ID)),
			tgbotapi.NewInlineKeyboardButtonData("❌ Отменить", fmt.Sprintf("adm:cancel:%d", appt.ID)),
		)
	}
	return tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{row}}
}

func adminPanelKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("➕ Барбер", "adm:barber"),
			tgbotapi.NewInlineKeyboardButtonData("➕ Услуга", "adm:service"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("➖ Барбер", "adm:delb"),
			tgbotapi.NewInlineKeyboardButtonData("➖ Услуга", "adm:dels"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📅 Открыть день", "adm:seed"),
			tgbotapi.NewInlineKeyboardButtonData("📊 Статистика", "adm:stats"),
		),
	)
}

func adminServicesKeyboard(services []model.Service) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(services)+1)
	for _, s := range services {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(s.Name, fmt.Sprintf("adm:rms:%d", s.ID)),
		))
	}
	rows = append(rows, cancelRow())
	return tgbotapi.InlineKeyboardMarkup{InlineKeyboard: rows}
}

func cancelRow() []tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("❌ Отмена", "cancel"),
	)
}

func backRow(data string) []tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("⬅️ Назад", data),
		tgbotapi.NewInlineKeyboardButtonData("❌ Отмена", "cancel"),
	)
}
