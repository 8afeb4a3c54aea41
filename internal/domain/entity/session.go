package entity

// SessionState состояние пользователя в диалоге
type SessionState string

const (
	StateMainMenu                   SessionState = "main_menu"                    // В главном меню
	StateAwaitingSelfieRegistration SessionState = "awaiting_selfie_registration" // Ждём селфи для регистрации
	StateAwaitingSelfieReplacement  SessionState = "awaiting_selfie_replacement"  // Ждём селфи на замену
	StateAssistant                  SessionState = "assistant"                    // Свободный диалог с ассистентом
)

// SelfieMode что делать с присланным селфи
type SelfieMode string

const (
	SelfieRegister SelfieMode = "register"
	SelfieReplace  SelfieMode = "replace"
)

// Session представляет переходное состояние диалога с пользователем
type Session struct {
	UserID         int64        `json:"user_id"`          // Telegram User ID
	ChatID         int64        `json:"chat_id"`          // Telegram Chat ID
	State          SessionState `json:"state"`            // Текущее состояние
	Greeted        bool         `json:"greeted"`          // Приветствие уже показано
	PhotoMessageID int          `json:"photo_message_id"` // Отправленное фото, которое надо удалить при возврате в меню
}

// NewSession создаёт сессию с начальным состоянием
func NewSession(userID, chatID int64) *Session {
	return &Session{
		UserID: userID,
		ChatID: chatID,
		State:  StateMainMenu,
	}
}

// SetState обновляет состояние пользователя
func (s *Session) SetState(state SessionState) {
	s.State = state
}

// AwaitSelfie переводит сессию в ожидание селфи в нужном режиме.
func (s *Session) AwaitSelfie(mode SelfieMode) {
	if mode == SelfieReplace {
		s.State = StateAwaitingSelfieReplacement
		return
	}
	s.State = StateAwaitingSelfieRegistration
}

// AwaitingSelfie возвращает режим, если сессия ждёт селфи.
func (s Session) AwaitingSelfie() (SelfieMode, bool) {
	switch s.State {
	case StateAwaitingSelfieRegistration:
		return SelfieRegister, true
	case StateAwaitingSelfieReplacement:
		return SelfieReplace, true
	}
	return "", false
}

// AIChatEnabled сообщает, включён ли режим свободного диалога.
func (s Session) AIChatEnabled() bool {
	return s.State == StateAssistant
}

// ReturnToMenu сбрасывает сессию к значениям по умолчанию, сохраняя только Greeted.
func (s *Session) ReturnToMenu() {
	s.State = StateMainMenu
	s.PhotoMessageID = 0
}
