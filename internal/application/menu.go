package app

import (
	"bitid-bot/internal/domain/entity"
	"bitid-bot/internal/knowledge"
)

// Идентификаторы кнопок. Это данные callback-запросов, а не текст,
// поэтому они не пересекаются с тем, что пишет пользователь.
const (
	CallbackAbout    = "about"
	CallbackUseCases = "use_cases"
	CallbackJoin     = "join"
	CallbackDiscuss  = "discuss"
	CallbackBack     = "back"
)

const (
	msgGreeting = `Welcome to BitID!

I'm Buddy, your guide to the BitID identity network. I'll help you understand how BitID works and register you in Genesis by collecting your selfie.

Please choose an option:`

	msgChooseOption   = "Choose an option:"
	msgAbout          = "About BitID\n\nChoose a topic:"
	msgUseCases       = "Use Cases of BitID\n\nChoose a use case:"
	msgDiscuss        = "Hi! I'm Buddy, I help you learn about BitID and will register you in Genesis as soon as I get your selfie. Will you send a photo now or want to know more about the project?"
	msgHelp           = "Please use the menu buttons below, or press \"Discuss\" to ask me about BitID."
	msgNoBitID        = "You don't have BitID. Send a selfie to get BitID."
	msgYourPhoto      = "Here is your registration photo:\n\nIf you want to replace it - send a new selfie."
	msgPhotoMissing   = "You are registered but photo not found. Send a new selfie."
	msgRegistered     = "Thank you for registration! We will send you BitID as soon as it is generated."
	msgPhotoUpdated   = "Your photo has been updated!"
	msgUploadFailed   = "Could not save your photo. Please try again."
	msgSelfieRejected = "This photo can't be used for BitID (%s). Please send another selfie."
	msgFailure        = "Something went wrong. Please try again or send /home."
)

// Menu собирает клавиатуры экранов из базы знаний
type Menu struct {
	kb *knowledge.Base
}

func NewMenu(kb *knowledge.Base) *Menu {
	return &Menu{kb: kb}
}

func (m *Menu) Main() *entity.Keyboard {
	return entity.NewKeyboard(
		entity.Button{Text: "About BitID", Data: CallbackAbout},
		entity.Button{Text: "Join Genesis.BitID", Data: CallbackJoin},
		entity.Button{Text: "Discuss, ask about BitID.(ai)", Data: CallbackDiscuss},
	)
}

func (m *Menu) Back() *entity.Keyboard {
	return entity.NewKeyboard(backToMain())
}

func (m *Menu) About() *entity.Keyboard {
	buttons := make([]entity.Button, 0, len(m.kb.Topics)+2)
	for _, t := range m.kb.Topics {
		buttons = append(buttons, entity.Button{Text: t.Button, Data: t.ID})
	}
	if len(m.kb.UseCases) > 0 {
		buttons = append(buttons, entity.Button{Text: "Use cases of BitID", Data: CallbackUseCases})
	}
	buttons = append(buttons, backToMain())
	return entity.NewKeyboard(buttons...)
}

func (m *Menu) UseCases() *entity.Keyboard {
	buttons := make([]entity.Button, 0, len(m.kb.UseCases)+1)
	for _, uc := range m.kb.UseCases {
		buttons = append(buttons, entity.Button{Text: uc.Button, Data: uc.ID})
	}
	buttons = append(buttons, entity.Button{Text: "🔙 Back to About", Data: CallbackAbout})
	return entity.NewKeyboard(buttons...)
}

// Topic возвращает текст раздела и клавиатуру возврата на уровень выше.
func (m *Menu) Topic(id string) (string, *entity.Keyboard, bool) {
	topic, ok := m.kb.Lookup(id)
	if !ok {
		return "", nil, false
	}
	if m.kb.IsUseCase(id) {
		return topic.Render(), entity.NewKeyboard(entity.Button{Text: "🔙 Back to Use Cases", Data: CallbackUseCases}), true
	}
	return topic.Render(), entity.NewKeyboard(entity.Button{Text: "🔙 Back to About", Data: CallbackAbout}), true
}

func backToMain() entity.Button {
	return entity.Button{Text: "🔙 Back to Main Menu", Data: CallbackBack}
}
