package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"bitid-bot/internal/domain/entity"
	"bitid-bot/internal/domain/port"
)

// maxDownloadSize ограничение на размер скачиваемого фото
const maxDownloadSize = 20 << 20

// Bot представляет Telegram-бота: принимает обновления и отправляет ответы
type Bot struct {
	api    *tgbotapi.BotAPI
	client *http.Client
	logger zerolog.Logger
}

// NewBot создаёт нового бота
func NewBot(token string, debug bool, logger zerolog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram auth: %w", err)
	}
	api.Debug = debug

	logger.Info().Str("account", api.Self.UserName).Msg("authorized on telegram")

	return &Bot{
		api:    api,
		client: &http.Client{Timeout: 60 * time.Second},
		logger: logger,
	}, nil
}

// RegisterCommands публикует меню команд бота
func (b *Bot) RegisterCommands() error {
	_, err := b.api.Request(tgbotapi.NewSetMyCommands(
		tgbotapi.BotCommand{Command: "start", Description: "Start the bot"},
		tgbotapi.BotCommand{Command: "home", Description: "Return to main menu"},
	))
	if err != nil {
		return fmt.Errorf("set commands: %w", err)
	}
	return nil
}

// Run запускает основной цикл получения обновлений и передаёт каждое событие в handle.
// Завершается при отмене ctx.
func (b *Bot) Run(ctx context.Context, handle func(entity.Event)) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			b.logger.Info().Msg("stop receiving updates")
			return nil
		case update, ok := <-updates:
			if !ok {
				return errors.New("telegram updates channel closed")
			}

			ev, ok := toEvent(update)
			if !ok {
				continue
			}
			ev.ID = uuid.NewString()
			handle(ev)
		}
	}
}

// toEvent переводит обновление Telegram в событие; обновления без отправителя
// и сообщения без текста и фото пропускаются.
func toEvent(update tgbotapi.Update) (entity.Event, bool) {
	if cq := update.CallbackQuery; cq != nil {
		if cq.From == nil {
			return entity.Event{}, false
		}
		ev := entity.Event{
			Kind:         entity.EventButton,
			UserID:       cq.From.ID,
			ChatID:       cq.From.ID,
			CallbackID:   cq.ID,
			CallbackData: cq.Data,
		}
		if cq.Message != nil {
			ev.MessageID = cq.Message.MessageID
			if cq.Message.Chat != nil {
				ev.ChatID = cq.Message.Chat.ID
			}
		}
		return ev, true
	}

	msg := update.Message
	if msg == nil || msg.From == nil || msg.Chat == nil {
		return entity.Event{}, false
	}

	ev := entity.Event{
		UserID:    msg.From.ID,
		ChatID:    msg.Chat.ID,
		MessageID: msg.MessageID,
	}

	switch {
	case msg.IsCommand():
		ev.Kind = entity.EventCommand
		ev.Command = msg.Command()
	case len(msg.Photo) > 0:
		// Последний размер самый большой
		ev.Kind = entity.EventPhoto
		ev.PhotoFileID = msg.Photo[len(msg.Photo)-1].FileID
		ev.Caption = msg.Caption
	case msg.Text != "":
		ev.Kind = entity.EventText
		ev.Text = msg.Text
	default:
		return entity.Event{}, false
	}

	return ev, true
}

func toMarkup(kb *entity.Keyboard) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(kb.Rows))
	for _, r := range kb.Rows {
		row := make([]tgbotapi.InlineKeyboardButton, 0, len(r))
		for _, btn := range r {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(btn.Text, btn.Data))
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(row...))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func (b *Bot) SendText(_ context.Context, chatID int64, text string, keyboard *entity.Keyboard) (int, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	if keyboard != nil {
		msg.ReplyMarkup = toMarkup(keyboard)
	}

	sent, err := b.api.Send(msg)
	if err != nil {
		return 0, fmt.Errorf("send message: %w", err)
	}
	return sent.MessageID, nil
}

func (b *Bot) EditText(_ context.Context, chatID int64, messageID int, text string, keyboard *entity.Keyboard) error {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	if keyboard != nil {
		markup := toMarkup(keyboard)
		edit.ReplyMarkup = &markup
	}

	if _, err := b.api.Send(edit); err != nil {
		return fmt.Errorf("edit message: %w", err)
	}
	return nil
}

func (b *Bot) SendPhoto(_ context.Context, chatID int64, url string) (int, error) {
	sent, err := b.api.Send(tgbotapi.NewPhoto(chatID, tgbotapi.FileURL(url)))
	if err != nil {
		return 0, fmt.Errorf("send photo: %w", err)
	}
	return sent.MessageID, nil
}

func (b *Bot) DeleteMessage(_ context.Context, chatID int64, messageID int) error {
	if _, err := b.api.Request(tgbotapi.NewDeleteMessage(chatID, messageID)); err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	return nil
}

func (b *Bot) AnswerCallback(_ context.Context, callbackID string) error {
	if _, err := b.api.Request(tgbotapi.NewCallback(callbackID, "")); err != nil {
		return fmt.Errorf("answer callback: %w", err)
	}
	return nil
}

// Download скачивает файл из Telegram
func (b *Bot) Download(ctx context.Context, fileID string) ([]byte, error) {
	file, err := b.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}

	return download(ctx, b.client, file.Link(b.api.Token))
}

func download(ctx context.Context, client *http.Client, fileURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download file: unexpected status %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadSize))
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	return data, nil
}

var _ port.Messenger = (*Bot)(nil)
