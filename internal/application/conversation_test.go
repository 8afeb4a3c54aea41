package app

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"bitid-bot/internal/domain/entity"
	"bitid-bot/internal/infrastructure/storage"
	"bitid-bot/internal/knowledge"
)

type harness struct {
	controller *Controller
	sessions   *SessionService
	messenger  *fakeMessenger
	records    *fakeRecords
	selfies    *fakeSelfies
	completer  *fakeCompleter
}

func newHarness(t *testing.T, records *fakeRecords, selfies *fakeSelfies) *harness {
	t.Helper()

	kb, err := knowledge.Load()
	require.NoError(t, err)

	h := &harness{
		sessions:  NewSessionService(storage.NewMemorySessionRepository()),
		messenger: &fakeMessenger{},
		records:   records,
		selfies:   selfies,
		completer: &fakeCompleter{},
	}
	h.controller = NewController(
		h.sessions,
		NewRouter(kb),
		NewMenu(kb),
		NewRegistrationService(records, selfies, nil, nil),
		NewAssistantService(h.completer, kb, 0, nil),
		h.messenger,
		nil,
		zerolog.Nop(),
	)
	return h
}

func (h *harness) command(userID int64, c string) {
	h.controller.Handle(context.Background(), entity.Event{Kind: entity.EventCommand, UserID: userID, ChatID: userID, Command: c})
}

func (h *harness) press(userID int64, data string) {
	h.controller.Handle(context.Background(), entity.Event{
		Kind:         entity.EventButton,
		UserID:       userID,
		ChatID:       userID,
		MessageID:    1,
		CallbackID:   "cb-" + data,
		CallbackData: data,
	})
}

func (h *harness) photo(userID int64, caption string) {
	h.controller.Handle(context.Background(), entity.Event{Kind: entity.EventPhoto, UserID: userID, ChatID: userID, PhotoFileID: "file", Caption: caption})
}

func (h *harness) text(userID int64, s string) {
	h.controller.Handle(context.Background(), entity.Event{Kind: entity.EventText, UserID: userID, ChatID: userID, Text: s})
}

func (h *harness) session(t *testing.T, userID int64) *entity.Session {
	t.Helper()
	s, err := h.sessions.Get(context.Background(), userID, userID)
	require.NoError(t, err)
	return s
}

// requireOneReply выполняет действие и проверяет, что пользователь получил ровно один ответ.
func (h *harness) requireOneReply(t *testing.T, action func()) sentMessage {
	t.Helper()
	before := h.messenger.count()
	action()
	require.Equal(t, before+1, h.messenger.count())
	return h.messenger.last()
}

func TestController_NewUserRegisters(t *testing.T) {
	h := newHarness(t, newFakeRecords(), newFakeSelfies())

	reply := h.requireOneReply(t, func() { h.command(1, "start") })
	require.Equal(t, msgGreeting, reply.Text)

	reply = h.requireOneReply(t, func() { h.press(1, CallbackJoin) })
	require.Equal(t, msgNoBitID, reply.Text)
	require.True(t, reply.Edited)
	require.Equal(t, entity.StateAwaitingSelfieRegistration, h.session(t, 1).State)

	reply = h.requireOneReply(t, func() { h.photo(1, "") })
	require.Equal(t, msgRegistered, reply.Text)
	require.Equal(t, []upload{{Key: "1.jpg", Upsert: true}}, h.selfies.uploads)
	require.Equal(t, 1, h.records.insertCount())
	require.Equal(t, entity.StateMainMenu, h.session(t, 1).State)
	require.Equal(t, CallbackAbout, reply.Keyboard.Rows[0][0].Data)

	// Повторное фото уже не регистрация: записи не дублируются.
	h.requireOneReply(t, func() { h.photo(1, "") })
	require.Equal(t, 1, h.records.insertCount())
	require.Equal(t, 1, h.selfies.uploadCount())
}

func TestController_RegisteredUserWithoutPhoto(t *testing.T) {
	h := newHarness(t, newFakeRecords(1), newFakeSelfies())

	reply := h.requireOneReply(t, func() { h.press(1, CallbackJoin) })
	require.Equal(t, msgPhotoMissing, reply.Text)
	require.Equal(t, entity.StateAwaitingSelfieReplacement, h.session(t, 1).State)

	reply = h.requireOneReply(t, func() { h.photo(1, "") })
	require.Equal(t, msgPhotoUpdated, reply.Text)
	require.Zero(t, h.records.insertCount())
	require.Equal(t, 1, h.selfies.uploadCount())
}

func TestController_RegisteredUserSeesPhotoAndBackDeletesIt(t *testing.T) {
	h := newHarness(t, newFakeRecords(1), newFakeSelfies("1.jpg"))

	reply := h.requireOneReply(t, func() { h.press(1, CallbackJoin) })
	require.Equal(t, msgYourPhoto, reply.Text)
	require.Len(t, h.messenger.photos, 1)
	require.True(t, strings.HasPrefix(h.messenger.photos[0], "https://storage.example/user_selfies/1.jpg?v="))

	s := h.session(t, 1)
	require.Equal(t, entity.StateAwaitingSelfieReplacement, s.State)
	photoID := s.PhotoMessageID
	require.NotZero(t, photoID)

	reply = h.requireOneReply(t, func() { h.press(1, CallbackBack) })
	require.Equal(t, msgChooseOption, reply.Text)
	require.Equal(t, []int{photoID}, h.messenger.deleted)
	require.Equal(t, entity.StateMainMenu, h.session(t, 1).State)
	require.Zero(t, h.session(t, 1).PhotoMessageID)
}

func TestController_DeleteFailureIsIgnored(t *testing.T) {
	h := newHarness(t, newFakeRecords(1), newFakeSelfies("1.jpg"))
	h.messenger.deleteErr = errBoom

	h.press(1, CallbackJoin)
	reply := h.requireOneReply(t, func() { h.press(1, CallbackBack) })
	require.Equal(t, msgChooseOption, reply.Text)
	require.Equal(t, entity.StateMainMenu, h.session(t, 1).State)
}

func TestController_PhotoSendFailureFallsBackToMissing(t *testing.T) {
	h := newHarness(t, newFakeRecords(1), newFakeSelfies("1.jpg"))
	h.messenger.sendPhotoErr = errBoom

	reply := h.requireOneReply(t, func() { h.press(1, CallbackJoin) })
	require.Equal(t, msgPhotoMissing, reply.Text)
	require.Zero(t, h.session(t, 1).PhotoMessageID)
}

func TestController_LookupFailureFailsOpen(t *testing.T) {
	records := newFakeRecords()
	records.findErr = errBoom
	h := newHarness(t, records, newFakeSelfies())

	reply := h.requireOneReply(t, func() { h.press(1, CallbackJoin) })
	require.Equal(t, msgNoBitID, reply.Text)
	require.Equal(t, entity.StateAwaitingSelfieRegistration, h.session(t, 1).State)
}

func TestController_StartAndHomeReset(t *testing.T) {
	h := newHarness(t, newFakeRecords(), newFakeSelfies())

	h.command(1, "start")
	h.press(1, CallbackJoin)

	reply := h.requireOneReply(t, func() { h.command(1, "start") })
	require.Equal(t, msgChooseOption, reply.Text, "greeting is shown once")
	require.Equal(t, entity.StateMainMenu, h.session(t, 1).State)

	h.press(1, CallbackDiscuss)
	require.True(t, h.session(t, 1).AIChatEnabled())

	reply = h.requireOneReply(t, func() { h.command(1, "home") })
	require.Equal(t, msgChooseOption, reply.Text)
	s := h.session(t, 1)
	require.Equal(t, entity.StateMainMenu, s.State)
	require.True(t, s.Greeted)
}

func TestController_PhotoOutsideRegistrationGoesToAssistant(t *testing.T) {
	h := newHarness(t, newFakeRecords(), newFakeSelfies())

	h.requireOneReply(t, func() { h.photo(1, "") })
	require.Zero(t, h.selfies.uploadCount())
	require.Zero(t, h.records.insertCount())
	require.Equal(t, []string{PhotoQuestion}, h.completer.questions)

	h.photo(1, "What is BitID?")
	require.Equal(t, "What is BitID?", h.completer.questions[1])
}

func TestController_AssistantDialog(t *testing.T) {
	h := newHarness(t, newFakeRecords(), newFakeSelfies())

	reply := h.requireOneReply(t, func() { h.text(1, "What is BitID?") })
	require.Equal(t, msgHelp, reply.Text)
	require.Zero(t, h.completer.callCount())

	reply = h.requireOneReply(t, func() { h.press(1, CallbackDiscuss) })
	require.Equal(t, msgDiscuss, reply.Text)

	reply = h.requireOneReply(t, func() { h.text(1, "What is BitID?") })
	require.Contains(t, reply.Text, "network of human participants")

	reply = h.requireOneReply(t, func() { h.text(1, "What is the weather today?") })
	require.Equal(t, Refusal, reply.Text)

	h.completer.err = errBoom
	reply = h.requireOneReply(t, func() { h.text(1, "What is BitID?") })
	require.Equal(t, Apology, reply.Text)
	require.True(t, h.session(t, 1).AIChatEnabled())
}

func TestController_UploadFailureKeepsAwaiting(t *testing.T) {
	selfies := newFakeSelfies()
	selfies.uploadErr = errBoom
	h := newHarness(t, newFakeRecords(), selfies)

	h.press(1, CallbackJoin)
	reply := h.requireOneReply(t, func() { h.photo(1, "") })
	require.Equal(t, msgUploadFailed, reply.Text)
	require.Equal(t, entity.StateAwaitingSelfieRegistration, h.session(t, 1).State)
	require.Zero(t, h.records.insertCount())

	selfies.mu.Lock()
	selfies.uploadErr = nil
	selfies.mu.Unlock()

	reply = h.requireOneReply(t, func() { h.photo(1, "") })
	require.Equal(t, msgRegistered, reply.Text)
	require.Equal(t, 1, h.records.insertCount())
}

func TestController_DownloadFailureKeepsAwaiting(t *testing.T) {
	h := newHarness(t, newFakeRecords(), newFakeSelfies())
	h.messenger.downloadErr = errBoom

	h.press(1, CallbackJoin)
	reply := h.requireOneReply(t, func() { h.photo(1, "") })
	require.Equal(t, msgUploadFailed, reply.Text)
	require.Equal(t, entity.StateAwaitingSelfieRegistration, h.session(t, 1).State)
}

func TestController_MenuNavigation(t *testing.T) {
	h := newHarness(t, newFakeRecords(), newFakeSelfies())

	reply := h.requireOneReply(t, func() { h.press(1, CallbackAbout) })
	require.Equal(t, msgAbout, reply.Text)

	reply = h.requireOneReply(t, func() { h.press(1, "properties") })
	require.Contains(t, reply.Text, "Your face is your public ID")
	require.Equal(t, CallbackAbout, reply.Keyboard.Rows[0][0].Data)

	reply = h.requireOneReply(t, func() { h.press(1, "uc_deviceless") })
	require.Equal(t, CallbackUseCases, reply.Keyboard.Rows[0][0].Data)

	reply = h.requireOneReply(t, func() { h.press(1, "no_such_button") })
	require.Equal(t, msgChooseOption, reply.Text)

	require.Len(t, h.messenger.answered, 4)
}

func TestController_EditFailureSendsNewMessage(t *testing.T) {
	h := newHarness(t, newFakeRecords(), newFakeSelfies())
	h.messenger.editErr = errBoom

	reply := h.requireOneReply(t, func() { h.press(1, CallbackAbout) })
	require.Equal(t, msgAbout, reply.Text)
	require.False(t, reply.Edited)
}

func TestController_UsersAreIsolated(t *testing.T) {
	h := newHarness(t, newFakeRecords(), newFakeSelfies())

	const users = 20
	var wg sync.WaitGroup
	for id := int64(1); id <= users; id++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			h.press(id, CallbackJoin)
			h.photo(id, "")
		}(id)
	}
	wg.Wait()

	require.Equal(t, users, h.records.insertCount())
	require.Equal(t, users, h.selfies.uploadCount())
	for id := int64(1); id <= users; id++ {
		require.Equal(t, entity.StateMainMenu, h.session(t, id).State)
	}
}

type brokenSessions struct {
	getErr  error
	saveErr error
}

func (b brokenSessions) Get(_ context.Context, userID, chatID int64) (*entity.Session, error) {
	if b.getErr != nil {
		return nil, b.getErr
	}
	return entity.NewSession(userID, chatID), nil
}

func (b brokenSessions) Save(context.Context, *entity.Session) error {
	return b.saveErr
}

func TestController_SessionStoreFailures(t *testing.T) {
	kb, err := knowledge.Load()
	require.NoError(t, err)

	newController := func(repo brokenSessions, messenger *fakeMessenger) *Controller {
		return NewController(
			NewSessionService(repo),
			NewRouter(kb),
			NewMenu(kb),
			NewRegistrationService(newFakeRecords(), newFakeSelfies(), nil, nil),
			NewAssistantService(nil, kb, 0, nil),
			messenger,
			nil,
			zerolog.Nop(),
		)
	}
	start := entity.Event{Kind: entity.EventCommand, UserID: 1, ChatID: 1, Command: "start"}

	t.Run("load failure", func(t *testing.T) {
		messenger := &fakeMessenger{}
		newController(brokenSessions{getErr: errBoom}, messenger).Handle(context.Background(), start)
		require.Equal(t, 1, messenger.count())
		require.Equal(t, msgFailure, messenger.last().Text)
	})

	t.Run("save failure still replies", func(t *testing.T) {
		messenger := &fakeMessenger{}
		newController(brokenSessions{saveErr: errBoom}, messenger).Handle(context.Background(), start)
		require.Equal(t, 1, messenger.count())
		require.Equal(t, msgGreeting, messenger.last().Text)
	})
}
