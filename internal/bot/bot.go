// Package bot is the Telegram front end: menus, the booking dialog and the
// admin panel on top of the booking service.
package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"barberbot/internal/booking"
	"barberbot/internal/db"
	"barberbot/internal/model"
)

type telegramClient interface {
	Send(tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	SelfUser() tgbotapi.User
}

type realTelegramClient struct {
	api *tgbotapi.BotAPI
}

func (c *realTelegramClient) Send(msg tgbotapi.Chattable) (tgbotapi.Message, error) {
	return c.api.Send(msg)
}

func (c *realTelegramClient) Request(msg tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	return c.api.Request(msg)
}

func (c *realTelegramClient) GetUpdatesChan(cfg tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return c.api.GetUpdatesChan(cfg)
}

func (c *realTelegramClient) SelfUser() tgbotapi.User {
	return c.api.Self
}

// Bot wires Telegram updates into the booking service and the ledger.
type Bot struct {
	tg       telegramClient
	svc      *booking.Service
	store    *db.DB
	admins   map[int64]struct{}
	sessions *booking.SessionStore
	fsm      *booking.FSM
	logger   *zerolog.Logger
}

func New(api *tgbotapi.BotAPI, svc *booking.Service, store *db.DB, admins []int64, logger *zerolog.Logger) (*Bot, error) {
	if api == nil {
		return nil, fmt.Errorf("telegram api is nil")
	}
	return newBot(&realTelegramClient{api: api}, svc, store, admins, logger)
}

// NewWithTelegramClient allows injecting a mocked Telegram client for tests.
func NewWithTelegramClient(tg telegramClient, svc *booking.Service, store *db.DB, admins []int64, logger *zerolog.Logger) (*Bot, error) {
	return newBot(tg, svc, store, admins, logger)
}

func newBot(tg telegramClient, svc *booking.Service, store *db.DB, admins []int64, logger *zerolog.Logger) (*Bot, error) {
	if tg == nil {
		return nil, fmt.Errorf("telegram client is nil")
	}
	adm := make(map[int64]struct{}, len(admins))
	for _, id := range admins {
		adm[id] = struct{}{}
	}
	return &Bot{
		tg:       tg,
		svc:      svc,
		store:    store,
		admins:   adm,
		sessions: booking.NewSessionStore(30 * time.Minute),
		fsm:      booking.NewFSM(),
		logger:   logger,
	}, nil
}

// Start polls updates until the context is canceled.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.tg.GetUpdatesChan(u)
	b.logger.Info().Str("username", b.tg.SelfUser().UserName).Msg("bot authorized")

	cleanup := time.NewTicker(10 * time.Minute)
	defer cleanup.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-cleanup.C:
			if n := b.sessions.Cleanup(); n > 0 {
				b.logger.Debug().Int("removed", n).Msg("expired sessions dropped")
			}
		case update := <-updates:
			requestID := uuid.New().String()
			l := b.logger.With().Str("request_id", requestID).Logger()
			b.handleUpdate(l.WithContext(ctx), &update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update *tgbotapi.Update) {
	l := zerolog.Ctx(ctx)
	if update.CallbackQuery != nil {
		l.Debug().
			Int64("user_id", update.CallbackQuery.From.ID).
			Str("data", update.CallbackQuery.Data).
			Msg("handling callback query")
		b.handleCallback(ctx, update.CallbackQuery)
		return
	}
	if update.Message != nil {
		l.Debug().
			Int64("user_id", update.Message.From.ID).
			Str("text", update.Message.Text).
			Msg("handling message")
		b.handleMessage(ctx, update.Message)
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg == nil || msg.From == nil {
		return
	}
	text := strings.TrimSpace(msg.Text)

	// Menu buttons and commands interrupt any active dialog.
	switch {
	case strings.HasPrefix(text, "/start"):
		b.sessions.Reset(msg.From.ID)
		b.reply(msg.Chat.ID, "Привет! Я бот барбершопа. Запишу вас на стрижку в пару нажатий.")
		b.sendMainMenu(msg.Chat.ID, msg.From.ID)
		return
	case text == "✂️ Записаться" || strings.HasPrefix(text, "/book"):
		b.startBookingFlow(ctx, msg.Chat.ID, msg.From.ID)
		return
	case text == "📌 Мои записи" || strings.HasPrefix(text, "/my_appointments"):
		b.handleMyAppointments(ctx, msg.Chat.ID, msg.From.ID)
		return
	case text == "ℹ️ Помощь" || strings.HasPrefix(text, "/help"):
		b.reply(msg.Chat.ID, "Команды:\n/book — записаться\n/my_appointments — мои записи\n/cancel — прервать текущий шаг")
		return
	case strings.HasPrefix(text, "/cancel"):
		b.sessions.Reset(msg.From.ID)
		b.reply(msg.Chat.ID, "Операция отменена.")
		b.sendMainMenu(msg.Chat.ID, msg.From.ID)
		return
	case text == "📋 Записи на сегодня" && b.isAdmin(msg.From.ID):
		b.handleTodayAppointments(ctx, msg.Chat.ID)
		return
	case (text == "⚙️ Админка" || text == "/admin") && b.isAdmin(msg.From.ID):
		b.sendAdminPanel(msg.Chat.ID)
		return
	}

	// Everything else feeds the active form step, if any.
	session := b.sessions.Get(msg.From.ID)
	if session == nil {
		b.sendMainMenu(msg.Chat.ID, msg.From.ID)
		return
	}
	if b.isAdmin(msg.From.ID) && b.handleAdminInput(ctx, msg.Chat.ID, session, text) {
		return
	}
	b.sendMainMenu(msg.Chat.ID, msg.From.ID)
}

func (b *Bot) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	if cq == nil || cq.Message == nil {
		return
	}
	_ = b.answerCallback(cq.ID)
	data := cq.Data
	if data == "noop" {
		return
	}

	userID := cq.From.ID
	chatID := cq.Message.Chat.ID
	session := b.sessions.GetOrCreate(userID)

	switch {
	case strings.HasPrefix(data, "svc:"):
		b.handleServiceChosen(ctx, chatID, session, strings.TrimPrefix(data, "svc:"))
	case strings.HasPrefix(data, "barber:"):
		b.handleBarberChosen(ctx, chatID, session, strings.TrimPrefix(data, "barber:"))
	case strings.HasPrefix(data, "date:"):
		b.handleDateChosen(ctx, chatID, session, strings.TrimPrefix(data, "date:"))
	case strings.HasPrefix(data, "slot:"):
		b.handleSlotChosen(chatID, session, strings.TrimPrefix(data, "slot:"))
	case data == "confirm":
		b.handleConfirm(ctx, chatID, session)
	case data == "cancel":
		b.sessions.Reset(userID)
		b.reply(chatID, "Ок, отменено. /book чтобы начать заново.")
	case strings.HasPrefix(data, "back:"):
		b.handleBack(ctx, chatID, session, strings.TrimPrefix(data, "back:"))
	case strings.HasPrefix(data, "appt:cancel:"):
		b.handleClientCancel(ctx, chatID, userID, strings.TrimPrefix(data, "appt:cancel:"))
	case strings.HasPrefix(data, "adm:"):
		if b.isAdmin(userID) {
			b.handleAdminCallback(ctx, chatID, session, strings.TrimPrefix(data, "adm:"))
		}
	}
}

func (b *Bot) startBookingFlow(ctx context.Context, chatID, userID int64) {
	session := b.sessions.Reset(userID)
	services, err := b.store.ListActiveServices(ctx)
	if err != nil {
		b.reply(chatID, "Не удалось загрузить услуги, попробуйте позже.")
		return
	}
	if len(services) == 0 {
		b.reply(chatID, "Пока нет доступных услуг.")
		return
	}
	b.fsm.Transition(session, booking.StateSelectService)
	b.send(chatID, "Выберите услугу:", servicesKeyboard(services))
}

func (b *Bot) handleServiceChosen(ctx context.Context, chatID int64, session *booking.Session, idStr string) {
	if session.GetState() != booking.StateSelectService {
		b.staleFlow(chatID)
		return
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		b.reply(chatID, "Некорректная услуга.")
		return
	}
	svc, err := b.store.GetService(ctx, id)
	if err != nil {
		b.reply(chatID, "Не удалось загрузить услугу.")
		return
	}
	session.Draft.ServiceID = svc.ID
	session.Draft.ServiceName = svc.Name
	b.fsm.Transition(session, booking.StateSelectBarber)
	b.sendBarbers(ctx, chatID)
}

func (b *Bot) sendBarbers(ctx context.Context, chatID int64) {
	barbers, err := b.store.ListActiveBarbers(ctx)
	if err != nil || len(barbers) == 0 {
		b.reply(chatID, "Сейчас нет доступных мастеров.")
		return
	}
	b.send(chatID, "Выберите мастера:", barbersKeyboard(barbers, "barber"))
}

func (b *Bot) handleBarberChosen(ctx context.Context, chatID int64, session *booking.Session, idStr string) {
	if session.GetState() != booking.StateSelectBarber {
		b.staleFlow(chatID)
		return
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		b.reply(chatID, "Некорректный мастер.")
		return
	}
	barber, err := b.store.GetBarber(ctx, id)
	if err != nil {
		b.reply(chatID, "Не удалось загрузить мастера.")
		return
	}
	session.Draft.BarberID = barber.ID
	session.Draft.BarberName = barber.Name
	b.fsm.Transition(session, booking.StateSelectDate)
	b.sendDates(ctx, chatID, session)
}

func (b *Bot) sendDates(ctx context.Context, chatID int64, session *booking.Session) {
	today := time.Now().Format("2006-01-02")
	dates, err := b.store.ListScheduleDates(ctx, today, session.Draft.BarberID, 14)
	if err != nil {
		b.reply(chatID, "Не удалось загрузить расписание.")
		return
	}
	if len(dates) == 0 {
		b.reply(chatID, "У мастера пока нет открытых дней. Загляните позже.")
		return
	}
	b.send(chatID, "Выберите дату:", datesKeyboard(dates))
}

func (b *Bot) handleDateChosen(ctx context.Context, chatID int64, session *booking.Session, date string) {
	if session.GetState() != booking.StateSelectDate {
		b.staleFlow(chatID)
		return
	}
	session.Draft.Date = date
	b.fsm.Transition(session, booking.StateSelectTime)
	b.sendSlots(ctx, chatID, session)
}

func (b *Bot) sendSlots(ctx context.Context, chatID int64, session *booking.Session) {
	daySlots, err := b.svc.ListAvailableSlots(ctx, session.Draft.Date, session.Draft.BarberID, session.Draft.ServiceID)
	if err != nil {
		b.reply(chatID, "Не удалось получить свободное время.")
		return
	}
	if len(daySlots) == 0 {
		b.reply(chatID, "На эту дату всё занято. Выберите другой день.")
		b.fsm.Transition(session, booking.StateSelectDate)
		b.sendDates(ctx, chatID, session)
		return
	}
	b.send(chatID, "Выберите время:", slotsKeyboard(daySlots))
}

func (b *Bot) handleSlotChosen(chatID int64, session *booking.Session, label string) {
	if session.GetState() != booking.StateSelectTime {
		b.staleFlow(chatID)
		return
	}
	session.Draft.TimeSlot = label
	b.fsm.Transition(session, booking.StateConfirm)

	text := fmt.Sprintf("Проверьте данные:\n\nУслуга: %s\nМастер: %s\nДата: %s\nВремя: %s\n\nПодтвердить запись?",
		session.Draft.ServiceName, session.Draft.BarberName, session.Draft.Date, session.Draft.TimeSlot)
	b.send(chatID, text, confirmKeyboard())
}

func (b *Bot) handleConfirm(ctx context.Context, chatID int64, session *booking.Session) {
	if session.GetState() != booking.StateConfirm {
		b.staleFlow(chatID)
		return
	}
	d := session.Draft
	appt, err := b.svc.Reserve(ctx, d.BarberID, d.Date, d.TimeSlot, session.UserID, d.ServiceID)
	if err != nil {
		switch {
		case errors.Is(err, db.ErrSlotUnavailable):
			b.reply(chatID, "Увы, это время только что заняли. Выберите другое.")
			b.fsm.Transition(session, booking.StateSelectTime)
			b.sendSlots(ctx, chatID, session)
		case errors.Is(err, db.ErrInvalidInput):
			b.reply(chatID, "Это время уже недоступно для записи. Выберите другую дату.")
			b.fsm.Transition(session, booking.StateSelectTime)
			b.fsm.Transition(session, booking.StateSelectDate)
			b.sendDates(ctx, chatID, session)
		default:
			b.reply(chatID, "Не удалось создать запись, попробуйте позже.")
		}
		return
	}

	b.fsm.Transition(session, booking.StateComplete)
	b.sessions.Reset(session.UserID)
	b.reply(chatID, fmt.Sprintf("✅ Готово! Ваш код брони: %s", appt.Ref))
}

func (b *Bot) handleBack(ctx context.Context, chatID int64, session *booking.Session, step string) {
	switch step {
	case "service":
		b.startBookingFlow(ctx, chatID, session.UserID)
	case "barber":
		b.fsm.Transition(session, booking.StateSelectBarber)
		b.sendBarbers(ctx, chatID)
	case "date":
		b.fsm.Transition(session, booking.StateSelectDate)
		b.sendDates(ctx, chatID, session)
	case "time":
		b.fsm.Transition(session, booking.StateSelectTime)
		b.sendSlots(ctx, chatID, session)
	default:
		b.startBookingFlow(ctx, chatID, session.UserID)
	}
}

func (b *Bot) handleMyAppointments(ctx context.Context, chatID, userID int64) {
	appts, err := b.svc.UserAppointments(ctx, userID)
	if err != nil {
		b.reply(chatID, "Не удалось получить ваши записи.")
		return
	}
	if len(appts) == 0 {
		b.reply(chatID, "У вас нет активных записей. /book чтобы записаться.")
		return
	}
	for i := range appts {
		a := &appts[i]
		b.send(chatID, b.formatAppointment(ctx, a), appointmentKeyboard(a.ID))
	}
}

func (b *Bot) handleClientCancel(ctx context.Context, chatID, userID int64, idStr string) {
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return
	}
	appt, err := b.svc.GetAppointment(ctx, id)
	if err != nil {
		b.reply(chatID, "Запись не найдена.")
		return
	}
	if appt.UserID != userID {
		b.reply(chatID, "Нельзя отменить чужую запись.")
		return
	}
	if _, err := b.svc.Cancel(ctx, id); err != nil {
		if errors.Is(err, db.ErrInvalidTransition) {
			b.reply(chatID, "Эта запись уже завершена, отмена невозможна.")
			return
		}
		b.reply(chatID, "Не удалось отменить запись.")
		return
	}
	b.reply(chatID, fmt.Sprintf("Запись %s отменена.", appt.Ref))
}

func (b *Bot) formatAppointment(ctx context.Context, a *model.Appointment) string {
	serviceName := fmt.Sprintf("услуга #%d", a.ServiceID)
	if svc, err := b.store.GetService(ctx, a.ServiceID); err == nil {
		serviceName = svc.Name
	}
	barberName := fmt.Sprintf("мастер #%d", a.BarberID)
	if barber, err := b.store.GetBarber(ctx, a.BarberID); err == nil {
		barberName = barber.Name
	}
	return fmt.Sprintf("🎫 %s\n%s · %s\n📅 %s %s\nСтатус: %s",
		a.Ref, serviceName, barberName, a.Date, a.TimeSlot, statusTitle(a.Status))
}

func statusTitle(status string) string {
	switch status {
	case model.StatusBooked:
		return "ожидает подтверждения"
	case model.StatusConfirmed:
		return "подтверждена"
	case model.StatusCompleted:
		return "выполнена"
	case model.StatusCanceled:
		return "отменена"
	}
	return status
}

func (b *Bot) sendMainMenu(chatID, userID int64) {
	msg := tgbotapi.NewMessage(chatID, "Выберите действие:")
	if b.isAdmin(userID) {
		msg.ReplyMarkup = adminMenu
	} else {
		msg.ReplyMarkup = mainMenu
	}
	_, _ = b.tg.Send(msg)
}

func (b *Bot) staleFlow(chatID int64) {
	b.reply(chatID, "Сценарий устарел, начните заново: /book")
}

func (b *Bot) isAdmin(id int64) bool {
	_, ok := b.admins[id]
	return ok
}

func (b *Bot) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.tg.Send(msg); err != nil {
		b.logger.Warn().Err(err).Int64("chat_id", chatID).Msg("send failed")
	}
}

func (b *Bot) send(chatID int64, text string, markup tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = markup
	if _, err := b.tg.Send(msg); err != nil {
		b.logger.Warn().Err(err).Int64("chat_id", chatID).Msg("send failed")
	}
}

func (b *Bot) answerCallback(id string) error {
	_, err := b.tg.Request(tgbotapi.NewCallback(id, ""))
	return err
}
