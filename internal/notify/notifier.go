// Package notify delivers booking confirmations, cancellations and reminders
// over Telegram. Delivery is best-effort: a failed send never affects the
// booking that triggered it.
package notify

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"barberbot/internal/events"
	"barberbot/internal/metrics"
	"barberbot/internal/model"
)

// TelegramSender is the bot API surface the notifier needs.
type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// ReferenceStore resolves barber and service names for message texts.
type ReferenceStore interface {
	GetBarber(ctx context.Context, id int64) (*model.Barber, error)
	GetService(ctx context.Context, id int64) (*model.Service, error)
}

// Notifier pushes appointment notifications to clients and admins.
type Notifier struct {
	sender  TelegramSender
	refs    ReferenceStore
	limiter *rate.Limiter
	admins  []int64
	logger  *zerolog.Logger
}

// New creates a notifier. messagesPerSecond bounds the Telegram send rate.
func New(sender TelegramSender, refs ReferenceStore, admins []int64, messagesPerSecond float64, logger *zerolog.Logger) *Notifier {
	if messagesPerSecond <= 0 {
		messagesPerSecond = 20
	}
	return &Notifier{
		sender:  sender,
		refs:    refs,
		limiter: rate.NewLimiter(rate.Limit(messagesPerSecond), int(messagesPerSecond)+10),
		admins:  admins,
		logger:  logger,
	}
}

// HandleEvent is the event bus subscriber. It never returns an error upward:
// notification failures are logged and counted, nothing else.
func (n *Notifier) HandleEvent(event events.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	appt := event.Appointment
	text := n.clientText(ctx, event.Type, &appt)
	if text != "" {
		n.send(ctx, appt.UserID, text)
	}

	if event.Type == events.AppointmentBooked || event.Type == events.AppointmentCanceled {
		alert := n.adminText(ctx, event.Type, &appt)
		for _, adminID := range n.admins {
			n.send(ctx, adminID, alert)
		}
	}
}

// SendReminder pushes the upcoming-appointment reminder to the client.
func (n *Notifier) SendReminder(ctx context.Context, appt *model.Appointment) bool {
	text := fmt.Sprintf(
		"🔔 *Напоминание о записи*\n\n📅 %s\n⏰ %s\n%s\nЖдём вас!",
		formatDate(appt.Date), appt.TimeSlot, n.detailLines(ctx, appt))
	if ok := n.send(ctx, appt.UserID, text); !ok {
		return false
	}
	metrics.IncReminderSent()
	return true
}

func (n *Notifier) clientText(ctx context.Context, eventType string, appt *model.Appointment) string {
	details := n.detailLines(ctx, appt)
	switch eventType {
	case events.AppointmentBooked:
		return fmt.Sprintf(
			"✅ *Запись создана!*\n\n🎫 Код брони: `%s`\n📅 %s\n⏰ %s\n%s\nОтменить запись можно в разделе «Мои записи».",
			appt.Ref, formatDate(appt.Date), appt.TimeSlot, details)
	case events.AppointmentConfirmed:
		return fmt.Sprintf(
			"☑️ *Запись подтверждена*\n\n📅 %s\n⏰ %s\n%s",
			formatDate(appt.Date), appt.TimeSlot, details)
	case events.AppointmentCanceled:
		return fmt.Sprintf(
			"❌ *Запись отменена*\n\n📅 %s\n⏰ %s",
			formatDate(appt.Date), appt.TimeSlot)
	default:
		return ""
	}
}

func (n *Notifier) adminText(ctx context.Context, eventType string, appt *model.Appointment) string {
	action := "Новая запись"
	if eventType == events.AppointmentCanceled {
		action = "Отмена записи"
	}
	return fmt.Sprintf("📣 %s #%d\n📅 %s, %s\n%s",
		action, appt.ID, appt.Date, appt.TimeSlot, n.detailLines(ctx, appt))
}

// detailLines builds the barber/service lines, skipping whatever cannot be
// resolved.
func (n *Notifier) detailLines(ctx context.Context, appt *model.Appointment) string {
	var details string
	if barber, err := n.refs.GetBarber(ctx, appt.BarberID); err == nil {
		details += fmt.Sprintf("🧔 Барбер: %s\n", barber.Name)
	}
	if svc, err := n.refs.GetService(ctx, appt.ServiceID); err == nil {
		details += fmt.Sprintf("✂️ Услуга: %s — %d руб.\n", svc.Name, svc.Price)
	}
	return details
}

func (n *Notifier) send(ctx context.Context, chatID int64, text string) bool {
	if chatID == 0 || text == "" {
		return false
	}
	if err := n.limiter.Wait(ctx); err != nil {
		metrics.IncNotificationSent("dropped")
		return false
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := n.sender.Send(msg); err != nil {
		n.logger.Warn().Err(err).Int64("chat_id", chatID).Msg("notification send failed")
		metrics.IncNotificationSent("error")
		return false
	}
	metrics.IncNotificationSent("ok")
	return true
}

func formatDate(date string) string {
	if t, err := time.Parse("2006-01-02", date); err == nil {
		return t.Format("02.01.2006")
	}
	return date
}
