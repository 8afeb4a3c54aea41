package entity

import (
	"strconv"
	"time"
)

// SelfieContentType тип содержимого, с которым хранятся селфи.
const SelfieContentType = "image/jpeg"

// SelfieKey возвращает ключ объекта селфи в хранилище.
func SelfieKey(userID int64) string {
	return strconv.FormatInt(userID, 10) + ".jpg"
}

// UserRecord запись о зарегистрированном пользователе.
type UserRecord struct {
	UserID    int64     // Telegram User ID, уникален
	BitID     *string   // выдаётся позже, после генерации
	CreatedAt time.Time // время регистрации
}

// SelfieReport хранит итог проверки качества селфи.
type SelfieReport struct {
	ImageWidth  int      // ширина изображения
	ImageHeight int      // высота изображения
	Problems    []string // найденные проблемы
}

// Acceptable сообщает, можно ли принять селфи.
func (r *SelfieReport) Acceptable() bool {
	return r == nil || len(r.Problems) == 0
}
