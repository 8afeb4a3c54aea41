package container

import (
	"time"

	"github.com/rs/zerolog"

	app "bitid-bot/internal/application"
	"bitid-bot/internal/domain/port"
	"bitid-bot/internal/knowledge"
	"bitid-bot/internal/metrics"
)

// Deps адаптеры, из которых собираются сервисы приложения.
// Inspector и Completer могут быть nil.
type Deps struct {
	Sessions  port.SessionRepository
	Records   port.UserRecordRepository
	Selfies   port.SelfieStorage
	Inspector port.SelfieInspector
	Completer port.Completer
	Messenger port.Messenger

	Knowledge        *knowledge.Base
	Metrics          *metrics.Metrics
	AssistantTimeout time.Duration
	Logger           zerolog.Logger
}

type Container struct {
	SessionService      *app.SessionService
	RegistrationService *app.RegistrationService
	AssistantService    *app.AssistantService
	Controller          *app.Controller
}

func New(d Deps) *Container {
	sessionService := app.NewSessionService(d.Sessions)
	registrationService := app.NewRegistrationService(d.Records, d.Selfies, d.Inspector, d.Metrics)
	assistantService := app.NewAssistantService(d.Completer, d.Knowledge, d.AssistantTimeout, d.Metrics)

	controller := app.NewController(
		sessionService,
		app.NewRouter(d.Knowledge),
		app.NewMenu(d.Knowledge),
		registrationService,
		assistantService,
		d.Messenger,
		d.Metrics,
		d.Logger,
	)

	return &Container{
		SessionService:      sessionService,
		RegistrationService: registrationService,
		AssistantService:    assistantService,
		Controller:          controller,
	}
}
