package bot

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"barberbot/internal/booking"
	"barberbot/internal/model"
	"barberbot/internal/stats"
)

func (b *Bot) sendAdminPanel(chatID int64) {
	b.send(chatID, "⚙️ Панель администратора", adminPanelKeyboard())
}

func (b *Bot) handleAdminCallback(ctx context.Context, chatID int64, session *booking.Session, data string) {
	switch {
	case data == "barber":
		session = b.sessions.Reset(session.UserID)
		b.fsm.Transition(session, booking.StateAdminBarberName)
		b.reply(chatID, "Имя нового барбера:")
	case data == "service":
		session = b.sessions.Reset(session.UserID)
		b.fsm.Transition(session, booking.StateAdminServiceName)
		b.reply(chatID, "Название новой услуги:")
	case data == "seed":
		session = b.sessions.Reset(session.UserID)
		b.fsm.Transition(session, booking.StateAdminScheduleBarber)
		barbers, err := b.store.ListActiveBarbers(ctx)
		if err != nil || len(barbers) == 0 {
			b.reply(chatID, "Сначала добавьте барбера.")
			return
		}
		b.send(chatID, "Для какого барбера открыть день?", barbersKeyboard(barbers, "adm:seedb"))
	case strings.HasPrefix(data, "seedb:"):
		id, err := strconv.ParseInt(strings.TrimPrefix(data, "seedb:"), 10, 64)
		if err != nil || session.GetState() != booking.StateAdminScheduleBarber {
			b.staleFlow(chatID)
			return
		}
		session.Draft.BarberID = id
		b.fsm.Transition(session, booking.StateAdminScheduleDate)
		b.reply(chatID, "Дата в формате ГГГГ-ММ-ДД:")
	case data == "delb":
		barbers, err := b.store.ListActiveBarbers(ctx)
		if err != nil || len(barbers) == 0 {
			b.reply(chatID, "Нет активных барберов.")
			return
		}
		b.send(chatID, "Кого убрать из расписания?", barbersKeyboard(barbers, "adm:rmb"))
	case strings.HasPrefix(data, "rmb:"):
		id, err := strconv.ParseInt(strings.TrimPrefix(data, "rmb:"), 10, 64)
		if err != nil {
			return
		}
		if err := b.store.DeactivateBarber(ctx, id); err != nil {
			b.reply(chatID, "Не удалось убрать барбера.")
			return
		}
		b.reply(chatID, "Барбер скрыт: новые записи к нему недоступны, существующие не тронуты.")
	case data == "dels":
		services, err := b.store.ListActiveServices(ctx)
		if err != nil || len(services) == 0 {
			b.reply(chatID, "Нет активных услуг.")
			return
		}
		b.send(chatID, "Какую услугу убрать?", adminServicesKeyboard(services))
	case strings.HasPrefix(data, "rms:"):
		id, err := strconv.ParseInt(strings.TrimPrefix(data, "rms:"), 10, 64)
		if err != nil {
			return
		}
		if err := b.store.DeleteService(ctx, id); err != nil {
			b.reply(chatID, "Не удалось убрать услугу.")
			return
		}
		b.reply(chatID, "Услуга убрана: удалена, либо скрыта, если по ней уже были записи.")
	case data == "stats":
		session = b.sessions.Reset(session.UserID)
		b.fsm.Transition(session, booking.StateAdminStatsRange)
		b.reply(chatID, "Период в формате ГГГГ-ММ-ДД ГГГГ-ММ-ДД (или «месяц»):")
	case strings.HasPrefix(data, "confirm:"):
		b.adminTransition(ctx, chatID, strings.TrimPrefix(data, "confirm:"), b.svc.Confirm, "подтверждена")
	case strings.HasPrefix(data, "complete:"):
		b.adminTransition(ctx, chatID, strings.TrimPrefix(data, "complete:"), b.svc.Complete, "закрыта как выполненная")
	case strings.HasPrefix(data, "cancel:"):
		b.adminTransition(ctx, chatID, strings.TrimPrefix(data, "cancel:"), b.svc.Cancel, "отменена")
	}
}

func (b *Bot) adminTransition(
	ctx context.Context,
	chatID int64,
	idStr string,
	op func(context.Context, int64) (*model.Appointment, error),
	done string,
) {
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return
	}
	appt, err := op(ctx, id)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Не получилось: %s", err))
		return
	}
	b.reply(chatID, fmt.Sprintf("Запись %s %s.", appt.Ref, done))
}

// handleAdminInput consumes a text message as the next step of an admin form.
// Returns false when the session is not in an admin form state.
func (b *Bot) handleAdminInput(ctx context.Context, chatID int64, session *booking.Session, text string) bool {
	switch session.GetState() {
	case booking.StateAdminBarberName:
		session.Draft.FormName = text
		b.fsm.Transition(session, booking.StateAdminBarberAbout)
		b.reply(chatID, "Пара слов о мастере (или «-», чтобы пропустить):")
	case booking.StateAdminBarberAbout:
		about := text
		if about == "-" {
			about = ""
		}
		barber := &model.Barber{Name: session.Draft.FormName, Description: about, IsActive: true}
		id, err := b.store.CreateBarber(ctx, barber)
		if err != nil {
			b.reply(chatID, "Не удалось добавить барбера.")
			return true
		}
		b.fsm.Transition(session, booking.StateComplete)
		b.sessions.Reset(session.UserID)
		b.reply(chatID, fmt.Sprintf("Барбер «%s» добавлен (#%d).", barber.Name, id))
	case booking.StateAdminServiceName:
		session.Draft.FormName = text
		b.fsm.Transition(session, booking.StateAdminServiceTiming)
		b.reply(chatID, "Длительность в минутах:")
	case booking.StateAdminServiceTiming:
		minutes, err := strconv.Atoi(text)
		if err != nil || minutes <= 0 {
			b.reply(chatID, "Нужно целое число минут, например 30.")
			return true
		}
		session.Draft.FormDuration = minutes
		b.fsm.Transition(session, booking.StateAdminServicePrice)
		b.reply(chatID, "Цена в рублях:")
	case booking.StateAdminServicePrice:
		price, err := strconv.Atoi(text)
		if err != nil || price < 0 {
			b.reply(chatID, "Нужно целое число, например 1500.")
			return true
		}
		svc := &model.Service{
			Name:            session.Draft.FormName,
			DurationMinutes: session.Draft.FormDuration,
			Price:           price,
			IsActive:        true,
		}
		id, err := b.store.CreateService(ctx, svc)
		if err != nil {
			b.reply(chatID, "Не удалось добавить услугу.")
			return true
		}
		b.fsm.Transition(session, booking.StateComplete)
		b.sessions.Reset(session.UserID)
		b.reply(chatID, fmt.Sprintf("Услуга «%s» добавлена (#%d).", svc.Name, id))
	case booking.StateAdminScheduleDate:
		inserted, err := b.svc.SeedDay(ctx, session.Draft.BarberID, text)
		if err != nil {
			b.reply(chatID, "Не получилось: проверьте дату (ГГГГ-ММ-ДД, не в прошлом).")
			return true
		}
		b.fsm.Transition(session, booking.StateComplete)
		b.sessions.Reset(session.UserID)
		b.reply(chatID, fmt.Sprintf("День открыт, добавлено слотов: %d.", inserted))
	case booking.StateAdminStatsRange:
		from, to, err := parseStatsRange(text)
		if err != nil {
			b.reply(chatID, "Формат: ГГГГ-ММ-ДД ГГГГ-ММ-ДД, либо «месяц».")
			return true
		}
		b.fsm.Transition(session, booking.StateComplete)
		b.sessions.Reset(session.UserID)
		b.sendStats(ctx, chatID, from, to)
	default:
		return false
	}
	return true
}

func parseStatsRange(text string) (from, to string, err error) {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "месяц" {
		now := time.Now()
		return now.AddDate(0, -1, 0).Format("2006-01-02"), now.Format("2006-01-02"), nil
	}
	parts := strings.Fields(text)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("want two dates")
	}
	for _, p := range parts {
		if _, err := time.Parse("2006-01-02", p); err != nil {
			return "", "", err
		}
	}
	return parts[0], parts[1], nil
}

func (b *Bot) sendStats(ctx context.Context, chatID int64, from, to string) {
	report, err := b.svc.Stats(ctx, from, to)
	if err != nil {
		b.reply(chatID, "Не удалось собрать статистику.")
		return
	}

	msg := tgbotapi.NewMessage(chatID, stats.FormatText(report))
	msg.ParseMode = tgbotapi.ModeMarkdown
	_, _ = b.tg.Send(msg)

	var buf bytes.Buffer
	if err := stats.WriteExcel(report, &buf); err != nil {
		b.logger.Warn().Err(err).Msg("excel report failed")
		return
	}
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{
		Name:  fmt.Sprintf("report_%s_%s.xlsx", from, to),
		Bytes: buf.Bytes(),
	})
	if _, err := b.tg.Send(doc); err != nil {
		b.logger.Warn().Err(err).Msg("report upload failed")
	}
}

func (b *Bot) handleTodayAppointments(ctx context.Context, chatID int64) {
	today := time.Now().Format("2006-01-02")
	appts, err := b.store.GetAppointmentsByDate(ctx, today, 0)
	if err != nil {
		b.reply(chatID, "Не удалось получить записи.")
		return
	}
	if len(appts) == 0 {
		b.reply(chatID, fmt.Sprintf("На сегодня (%s) записей нет.", today))
		return
	}
	b.reply(chatID, fmt.Sprintf("🗓 Записи на %s:", today))
	for i := range appts {
		a := &appts[i]
		text := b.formatAppointment(ctx, a)
		if a.Status == model.StatusBooked || a.Status == model.StatusConfirmed {
			b.send(chatID, text, adminAppointmentKeyboard(a))
			continue
		}
		b.reply(chatID, text)
	}
}
