package app

import (
	"bitid-bot/internal/domain/entity"
	"bitid-bot/internal/knowledge"
)

// Action обработчик, выбранный маршрутизатором
type Action string

const (
	ActionStart         Action = "start"
	ActionHome          Action = "home"
	ActionBack          Action = "back"
	ActionHelp          Action = "help"
	ActionAbout         Action = "about"
	ActionUseCases      Action = "use_cases"
	ActionTopic         Action = "topic"
	ActionJoin          Action = "join"
	ActionDiscuss       Action = "discuss"
	ActionSubmitSelfie  Action = "submit_selfie"
	ActionAskAboutPhoto Action = "ask_about_photo"
	ActionAsk           Action = "ask"
	ActionUnknownButton Action = "unknown_button"
)

// Route решение маршрутизатора
type Route struct {
	Action Action
	Topic  string            // для ActionTopic
	Mode   entity.SelfieMode // для ActionSubmitSelfie
}

// Router выбирает обработчик по событию и текущей сессии.
// Не имеет побочных эффектов.
type Router struct {
	kb *knowledge.Base
}

func NewRouter(kb *knowledge.Base) *Router {
	return &Router{kb: kb}
}

// Route порядок: навигационные команды, кнопки, фото, свободный текст.
func (r *Router) Route(ev entity.Event, s entity.Session) Route {
	switch ev.Kind {
	case entity.EventCommand:
		return routeCommand(ev.Command)
	case entity.EventButton:
		return r.routeButton(ev.CallbackData)
	case entity.EventPhoto:
		if mode, ok := s.AwaitingSelfie(); ok {
			return Route{Action: ActionSubmitSelfie, Mode: mode}
		}
		return Route{Action: ActionAskAboutPhoto}
	case entity.EventText:
		if s.AIChatEnabled() && ev.Text != "" {
			return Route{Action: ActionAsk}
		}
	}
	return Route{Action: ActionHelp}
}

func routeCommand(command string) Route {
	switch command {
	case "start":
		return Route{Action: ActionStart}
	case "home":
		return Route{Action: ActionHome}
	case "back":
		return Route{Action: ActionBack}
	}
	return Route{Action: ActionHelp}
}

func (r *Router) routeButton(data string) Route {
	switch data {
	case CallbackBack:
		return Route{Action: ActionBack}
	case CallbackAbout:
		return Route{Action: ActionAbout}
	case CallbackUseCases:
		return Route{Action: ActionUseCases}
	case CallbackJoin:
		return Route{Action: ActionJoin}
	case CallbackDiscuss:
		return Route{Action: ActionDiscuss}
	}
	if _, ok := r.kb.Lookup(data); ok {
		return Route{Action: ActionTopic, Topic: data}
	}
	return Route{Action: ActionUnknownButton}
}
