package app

import (
	"context"
	"errors"
	"strings"
	"sync"

	"bitid-bot/internal/domain/entity"
	"bitid-bot/internal/domain/port"
)

type sentMessage struct {
	ChatID   int64
	Text     string
	Keyboard *entity.Keyboard
	Edited   bool
}

type fakeMessenger struct {
	mu sync.Mutex

	sent     []sentMessage
	photos   []string
	deleted  []int
	answered []string
	nextID   int

	editErr      error
	sendPhotoErr error
	deleteErr    error
	downloadErr  error
}

func (m *fakeMessenger) SendText(_ context.Context, chatID int64, text string, keyboard *entity.Keyboard) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	m.sent = append(m.sent, sentMessage{ChatID: chatID, Text: text, Keyboard: keyboard})
	return m.nextID, nil
}

func (m *fakeMessenger) EditText(_ context.Context, chatID int64, _ int, text string, keyboard *entity.Keyboard) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.editErr != nil {
		return m.editErr
	}
	m.sent = append(m.sent, sentMessage{ChatID: chatID, Text: text, Keyboard: keyboard, Edited: true})
	return nil
}

func (m *fakeMessenger) SendPhoto(_ context.Context, _ int64, url string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendPhotoErr != nil {
		return 0, m.sendPhotoErr
	}
	m.nextID++
	m.photos = append(m.photos, url)
	return m.nextID, nil
}

func (m *fakeMessenger) DeleteMessage(_ context.Context, _ int64, messageID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, messageID)
	return m.deleteErr
}

func (m *fakeMessenger) AnswerCallback(_ context.Context, callbackID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.answered = append(m.answered, callbackID)
	return nil
}

func (m *fakeMessenger) Download(_ context.Context, fileID string) ([]byte, error) {
	if m.downloadErr != nil {
		return nil, m.downloadErr
	}
	return []byte("jpeg:" + fileID), nil
}

func (m *fakeMessenger) last() sentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return sentMessage{}
	}
	return m.sent[len(m.sent)-1]
}

func (m *fakeMessenger) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

type fakeRecords struct {
	mu      sync.Mutex
	records map[int64]entity.UserRecord
	inserts int

	findErr   error
	insertErr error
}

func newFakeRecords(userIDs ...int64) *fakeRecords {
	r := &fakeRecords{records: make(map[int64]entity.UserRecord)}
	for _, id := range userIDs {
		r.records[id] = entity.UserRecord{UserID: id}
	}
	return r
}

func (r *fakeRecords) FindByUserID(_ context.Context, userID int64) (*entity.UserRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	rec, ok := r.records[userID]
	if !ok {
		return nil, port.ErrUserNotFound
	}
	return &rec, nil
}

func (r *fakeRecords) Insert(_ context.Context, record entity.UserRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.insertErr != nil {
		return r.insertErr
	}
	r.inserts++
	if _, ok := r.records[record.UserID]; !ok {
		r.records[record.UserID] = record
	}
	return nil
}

func (r *fakeRecords) insertCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inserts
}

type upload struct {
	Key    string
	Upsert bool
}

type fakeSelfies struct {
	mu      sync.Mutex
	objects map[string][]byte
	uploads []upload
	removes int

	// noUpsert хранилище без перезаписи одним вызовом
	noUpsert  bool
	uploadErr error
	removeErr error
	existsErr error
	urlErr    error
}

func newFakeSelfies(keys ...string) *fakeSelfies {
	s := &fakeSelfies{objects: make(map[string][]byte)}
	for _, k := range keys {
		s.objects[k] = []byte("old")
	}
	return s
}

func (s *fakeSelfies) Upload(_ context.Context, key string, data []byte, _ string, upsert bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.uploadErr != nil {
		return s.uploadErr
	}
	if upsert && s.noUpsert {
		return port.ErrUpsertUnsupported
	}
	if _, ok := s.objects[key]; ok && !upsert {
		return port.ErrObjectExists
	}
	s.uploads = append(s.uploads, upload{Key: key, Upsert: upsert})
	s.objects[key] = data
	return nil
}

func (s *fakeSelfies) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removes++
	if s.removeErr != nil {
		return s.removeErr
	}
	delete(s.objects, key)
	return nil
}

func (s *fakeSelfies) Exists(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.existsErr != nil {
		return false, s.existsErr
	}
	_, ok := s.objects[key]
	return ok, nil
}

func (s *fakeSelfies) PublicURL(_ context.Context, key string) (string, error) {
	if s.urlErr != nil {
		return "", s.urlErr
	}
	return "https://storage.example/user_selfies/" + key, nil
}

func (s *fakeSelfies) uploadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.uploads)
}

// fakeCompleter отвечает только тем, что есть в системной инструкции.
// Если вопрос не упомянут в ней, возвращает отказ, как требует инструкция.
type fakeCompleter struct {
	mu        sync.Mutex
	calls     int
	questions []string
	err       error
}

func (c *fakeCompleter) Complete(_ context.Context, systemPrompt, userMessage string) (string, error) {
	c.mu.Lock()
	c.calls++
	c.questions = append(c.questions, userMessage)
	c.mu.Unlock()

	if c.err != nil {
		return "", c.err
	}

	topic := strings.ToLower(strings.TrimRight(strings.TrimSpace(userMessage), "?"))
	if !strings.Contains(strings.ToLower(systemPrompt), topic) {
		return Refusal, nil
	}
	return "BitID is a network of human participants running permissionless biometric identification protocol software.", nil
}

func (c *fakeCompleter) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

type fakeInspector struct {
	report *entity.SelfieReport
	err    error
}

func (i *fakeInspector) Inspect(context.Context, []byte) (*entity.SelfieReport, error) {
	return i.report, i.err
}

var errBoom = errors.New("boom")
