package entity

// EventKind тип входящего события
type EventKind string

const (
	EventCommand EventKind = "command"
	EventButton  EventKind = "button"
	EventPhoto   EventKind = "photo"
	EventText    EventKind = "text"
)

// Event входящее событие от транспорта, уже без привязки к Telegram API
type Event struct {
	ID           string    // идентификатор для логов
	Kind         EventKind // тип события
	UserID       int64     // Telegram User ID
	ChatID       int64     // Telegram Chat ID
	MessageID    int       // сообщение с нажатой клавиатурой либо сообщение пользователя
	Command      string    // команда без слэша
	CallbackID   string    // ID callback-запроса для подтверждения
	CallbackData string    // данные нажатой кнопки
	PhotoFileID  string    // файл фото в максимальном разрешении
	Caption      string    // подпись к фото
	Text         string    // текст сообщения
}

// Button кнопка inline-клавиатуры
type Button struct {
	Text string
	Data string
}

// Keyboard inline-клавиатура, по строкам
type Keyboard struct {
	Rows [][]Button
}

// NewKeyboard собирает клавиатуру из кнопок, по одной в строке.
func NewKeyboard(buttons ...Button) *Keyboard {
	rows := make([][]Button, 0, len(buttons))
	for _, b := range buttons {
		rows = append(rows, []Button{b})
	}
	return &Keyboard{Rows: rows}
}
