package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"bitid-bot/internal/domain/entity"
	"bitid-bot/internal/domain/port"
	"bitid-bot/internal/metrics"
)

// reply единственный ответ пользователю на событие
type reply struct {
	text     string
	keyboard *entity.Keyboard
}

// Controller принимает каждое событие, ведёт сессию и отправляет ответ.
// События одного пользователя не должны обрабатываться параллельно,
// это обеспечивает dispatch.Dispatcher.
type Controller struct {
	sessions     *SessionService
	router       *Router
	menu         *Menu
	registration *RegistrationService
	assistant    *AssistantService
	messenger    port.Messenger
	metrics      *metrics.Metrics
	logger       zerolog.Logger
}

func NewController(
	sessions *SessionService,
	router *Router,
	menu *Menu,
	registration *RegistrationService,
	assistant *AssistantService,
	messenger port.Messenger,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *Controller {
	return &Controller{
		sessions:     sessions,
		router:       router,
		menu:         menu,
		registration: registration,
		assistant:    assistant,
		messenger:    messenger,
		metrics:      m,
		logger:       logger,
	}
}

// Handle обрабатывает одно событие. Ошибки не выходят наружу: всё, что пошло
// не так, сводится к сообщению пользователю и записи в лог.
func (c *Controller) Handle(ctx context.Context, ev entity.Event) {
	logger := c.logger.With().
		Str("event_id", ev.ID).
		Int64("user_id", ev.UserID).
		Str("kind", string(ev.Kind)).
		Logger()
	ctx = logger.WithContext(ctx)

	// Снимаем "часики" с кнопки до любой другой работы.
	if ev.Kind == entity.EventButton && ev.CallbackID != "" {
		if err := c.messenger.AnswerCallback(ctx, ev.CallbackID); err != nil {
			logger.Warn().Err(err).Msg("answer callback failed")
		}
	}

	var (
		r       reply
		handled bool
	)
	_, err := c.sessions.Update(ctx, ev.UserID, ev.ChatID, func(session *entity.Session) {
		handled = true

		route := c.router.Route(ev, *session)
		c.metrics.IncEvent(string(route.Action))
		logger.Debug().
			Str("action", string(route.Action)).
			Str("state", string(session.State)).
			Msg("event routed")

		r = c.execute(ctx, ev, session, route)
	})
	switch {
	case err != nil && !handled:
		logger.Error().Err(err).Msg("load session failed")
		r = reply{text: msgFailure}
	case err != nil:
		// Ответ всё равно отправляем: действие уже выполнено.
		logger.Error().Err(err).Msg("save session failed")
	}

	c.send(ctx, ev, r)
}

func (c *Controller) execute(ctx context.Context, ev entity.Event, session *entity.Session, route Route) reply {
	switch route.Action {
	case ActionStart:
		text := msgChooseOption
		if !session.Greeted {
			text = msgGreeting
		}
		session.ReturnToMenu()
		session.Greeted = true
		return reply{text: text, keyboard: c.menu.Main()}

	case ActionHome:
		session.ReturnToMenu()
		return reply{text: msgChooseOption, keyboard: c.menu.Main()}

	case ActionBack:
		c.deletePhoto(ctx, session)
		session.ReturnToMenu()
		return reply{text: msgChooseOption, keyboard: c.menu.Main()}

	case ActionAbout:
		return reply{text: msgAbout, keyboard: c.menu.About()}

	case ActionUseCases:
		return reply{text: msgUseCases, keyboard: c.menu.UseCases()}

	case ActionTopic:
		text, keyboard, ok := c.menu.Topic(route.Topic)
		if !ok {
			return reply{text: msgChooseOption, keyboard: c.menu.Main()}
		}
		return reply{text: text, keyboard: keyboard}

	case ActionJoin:
		return c.join(ctx, session)

	case ActionDiscuss:
		session.SetState(entity.StateAssistant)
		return reply{text: msgDiscuss, keyboard: c.menu.Back()}

	case ActionSubmitSelfie:
		return c.submitSelfie(ctx, ev, session, route.Mode)

	case ActionAskAboutPhoto:
		question := strings.TrimSpace(ev.Caption)
		if question == "" {
			question = PhotoQuestion
		}
		return reply{text: c.assistant.Ask(ctx, question)}

	case ActionAsk:
		return reply{text: c.assistant.Ask(ctx, ev.Text)}

	case ActionUnknownButton:
		return reply{text: msgChooseOption, keyboard: c.menu.Main()}
	}

	return reply{text: msgHelp, keyboard: c.menu.Main()}
}

func (c *Controller) join(ctx context.Context, session *entity.Session) reply {
	result := c.registration.Join(ctx, session.UserID)

	// Старое фото, если "Join" нажали повторно, больше не нужно.
	c.deletePhoto(ctx, session)
	session.AwaitSelfie(result.Mode())

	switch result.Outcome {
	case JoinRegistered:
		start := time.Now()
		messageID, err := c.messenger.SendPhoto(ctx, session.ChatID, result.PhotoURL)
		c.metrics.ObserveExternal("telegram", start)
		if err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Msg("send registration photo failed")
			return reply{text: msgPhotoMissing, keyboard: c.menu.Back()}
		}
		session.PhotoMessageID = messageID
		return reply{text: msgYourPhoto, keyboard: c.menu.Back()}
	case JoinPhotoMissing:
		return reply{text: msgPhotoMissing, keyboard: c.menu.Back()}
	}

	return reply{text: msgNoBitID, keyboard: c.menu.Back()}
}

func (c *Controller) submitSelfie(ctx context.Context, ev entity.Event, session *entity.Session, mode entity.SelfieMode) reply {
	logger := zerolog.Ctx(ctx)

	start := time.Now()
	photo, err := c.messenger.Download(ctx, ev.PhotoFileID)
	c.metrics.ObserveExternal("telegram", start)
	if err != nil {
		logger.Error().Err(err).Msg("download selfie failed")
		return reply{text: msgUploadFailed, keyboard: c.menu.Back()}
	}

	result, err := c.registration.SubmitSelfie(ctx, session.UserID, mode, photo)
	if err != nil {
		var rejected *RejectionError
		if errors.As(err, &rejected) {
			logger.Info().Strs("reasons", rejected.Reasons).Msg("selfie rejected")
			return reply{text: fmt.Sprintf(msgSelfieRejected, strings.Join(rejected.Reasons, ", ")), keyboard: c.menu.Back()}
		}
		logger.Error().Err(err).Msg("submit selfie failed")
		return reply{text: msgUploadFailed, keyboard: c.menu.Back()}
	}

	session.ReturnToMenu()
	if result.Mode == entity.SelfieReplace {
		return reply{text: msgPhotoUpdated, keyboard: c.menu.Main()}
	}
	return reply{text: msgRegistered, keyboard: c.menu.Main()}
}

// deletePhoto удаляет ранее отправленное фото; ошибка только пишется в лог.
func (c *Controller) deletePhoto(ctx context.Context, session *entity.Session) {
	if session.PhotoMessageID == 0 {
		return
	}
	if err := c.messenger.DeleteMessage(ctx, session.ChatID, session.PhotoMessageID); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Int("message_id", session.PhotoMessageID).Msg("delete photo message failed")
	}
	session.PhotoMessageID = 0
}

// send отвечает на нажатие кнопки правкой сообщения с клавиатурой, иначе новым сообщением.
func (c *Controller) send(ctx context.Context, ev entity.Event, r reply) {
	logger := zerolog.Ctx(ctx)

	if ev.Kind == entity.EventButton && ev.MessageID != 0 {
		err := c.messenger.EditText(ctx, ev.ChatID, ev.MessageID, r.text, r.keyboard)
		if err == nil {
			return
		}
		logger.Warn().Err(err).Msg("edit message failed, sending a new one")
	}

	if _, err := c.messenger.SendText(ctx, ev.ChatID, r.text, r.keyboard); err != nil {
		logger.Error().Err(err).Msg("send message failed")
	}
}
