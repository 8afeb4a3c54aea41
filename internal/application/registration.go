package app

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"bitid-bot/internal/domain/entity"
	"bitid-bot/internal/domain/port"
	"bitid-bot/internal/metrics"
)

var (
	// ErrUploadFailed селфи не удалось сохранить, пользователь может прислать его снова
	ErrUploadFailed = errors.New("selfie upload failed")
	// ErrSelfieRejected селфи не прошло проверку качества
	ErrSelfieRejected = errors.New("selfie rejected")
)

// RejectionError причины, по которым селфи не принято.
type RejectionError struct {
	Reasons []string
}

func (e *RejectionError) Error() string {
	return "selfie rejected: " + strings.Join(e.Reasons, ", ")
}

func (e *RejectionError) Is(target error) bool {
	return target == ErrSelfieRejected
}

// JoinOutcome результат проверки регистрации при нажатии "Join"
type JoinOutcome string

const (
	JoinUnregistered JoinOutcome = "unregistered"  // записи нет
	JoinLookupFailed JoinOutcome = "lookup_failed" // БД недоступна, считаем что записи нет
	JoinRegistered   JoinOutcome = "registered"    // запись и фото есть
	JoinPhotoMissing JoinOutcome = "photo_missing" // запись есть, фото получить не удалось
)

// JoinResult что показать пользователю и какое селфи ждать дальше.
type JoinResult struct {
	Outcome  JoinOutcome
	PhotoURL string // только для JoinRegistered
}

// Mode режим, в котором ждём следующее селфи.
func (r JoinResult) Mode() entity.SelfieMode {
	switch r.Outcome {
	case JoinRegistered, JoinPhotoMissing:
		return entity.SelfieReplace
	}
	return entity.SelfieRegister
}

// SelfieResult итог приёма селфи.
type SelfieResult struct {
	Mode entity.SelfieMode
	// RecordInsertFailed фото сохранено, а запись о пользователе нет.
	// Пользователь всё равно видит успех; расхождение никто не исправляет.
	RecordInsertFailed bool
}

// RegistrationService ведёт сбор селфи и регистрацию пользователя.
type RegistrationService struct {
	records   port.UserRecordRepository
	selfies   port.SelfieStorage
	inspector port.SelfieInspector
	metrics   *metrics.Metrics
	now       func() time.Time
}

// NewRegistrationService создаёт сервис регистрации; inspector может быть nil.
func NewRegistrationService(records port.UserRecordRepository, selfies port.SelfieStorage, inspector port.SelfieInspector, m *metrics.Metrics) *RegistrationService {
	return &RegistrationService{
		records:   records,
		selfies:   selfies,
		inspector: inspector,
		metrics:   m,
		now:       time.Now,
	}
}

// Join проверяет, зарегистрирован ли пользователь, и ищет его фото.
// Ошибка БД не останавливает регистрацию: пользователь считается новым.
func (s *RegistrationService) Join(ctx context.Context, userID int64) JoinResult {
	result := s.join(ctx, userID)
	s.metrics.IncRegistration("join", string(result.Outcome))
	return result
}

func (s *RegistrationService) join(ctx context.Context, userID int64) JoinResult {
	logger := zerolog.Ctx(ctx)

	start := time.Now()
	_, err := s.records.FindByUserID(ctx, userID)
	s.metrics.ObserveExternal("records", start)
	switch {
	case errors.Is(err, port.ErrUserNotFound):
		return JoinResult{Outcome: JoinUnregistered}
	case err != nil:
		logger.Error().Err(err).Msg("registration lookup failed, treating user as unregistered")
		return JoinResult{Outcome: JoinLookupFailed}
	}

	key := entity.SelfieKey(userID)

	start = time.Now()
	exists, err := s.selfies.Exists(ctx, key)
	s.metrics.ObserveExternal("storage", start)
	if err != nil {
		logger.Warn().Err(err).Str("key", key).Msg("selfie lookup failed")
		return JoinResult{Outcome: JoinPhotoMissing}
	}
	if !exists {
		logger.Info().Str("key", key).Msg("user is registered but selfie is missing")
		return JoinResult{Outcome: JoinPhotoMissing}
	}

	publicURL, err := s.selfies.PublicURL(ctx, key)
	if err != nil {
		logger.Warn().Err(err).Str("key", key).Msg("selfie public url failed")
		return JoinResult{Outcome: JoinPhotoMissing}
	}

	return JoinResult{Outcome: JoinRegistered, PhotoURL: withCacheBuster(publicURL, s.now())}
}

// SubmitSelfie сохраняет селфи и, в режиме регистрации, создаёт запись о пользователе.
func (s *RegistrationService) SubmitSelfie(ctx context.Context, userID int64, mode entity.SelfieMode, photo []byte) (SelfieResult, error) {
	logger := zerolog.Ctx(ctx)

	if err := s.inspect(ctx, photo); err != nil {
		s.metrics.IncRegistration("selfie", "rejected")
		return SelfieResult{}, err
	}

	key := entity.SelfieKey(userID)
	start := time.Now()
	err := s.store(ctx, key, photo)
	s.metrics.ObserveExternal("storage", start)
	if err != nil {
		s.metrics.IncRegistration("selfie", "upload_failed")
		return SelfieResult{}, fmt.Errorf("%w: %w", ErrUploadFailed, err)
	}
	logger.Info().Str("key", key).Int("bytes", len(photo)).Str("mode", string(mode)).Msg("selfie stored")

	result := SelfieResult{Mode: mode}
	if mode == entity.SelfieRegister {
		start = time.Now()
		err := s.records.Insert(ctx, entity.UserRecord{UserID: userID, CreatedAt: s.now()})
		s.metrics.ObserveExternal("records", start)
		if err != nil {
			logger.Error().Err(err).Msg("user record insert failed after selfie upload")
			s.metrics.IncRegistration("insert", "failed")
			result.RecordInsertFailed = true
		} else {
			s.metrics.IncRegistration("insert", "ok")
		}
	}

	s.metrics.IncRegistration("selfie", string(mode))
	return result, nil
}

// store загружает селфи с перезаписью. Если хранилище не умеет перезаписывать,
// сначала удаляем старый объект; ошибка удаления не мешает загрузке.
func (s *RegistrationService) store(ctx context.Context, key string, photo []byte) error {
	err := s.selfies.Upload(ctx, key, photo, entity.SelfieContentType, true)
	if !errors.Is(err, port.ErrUpsertUnsupported) {
		return err
	}

	if err := s.selfies.Remove(ctx, key); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("remove before upload failed")
	}
	return s.selfies.Upload(ctx, key, photo, entity.SelfieContentType, false)
}

func (s *RegistrationService) inspect(ctx context.Context, photo []byte) error {
	if s.inspector == nil {
		return nil
	}

	report, err := s.inspector.Inspect(ctx, photo)
	if errors.Is(err, port.ErrInspectorUnavailable) {
		return nil
	}
	if err != nil {
		return &RejectionError{Reasons: []string{"the image could not be read"}}
	}
	if !report.Acceptable() {
		return &RejectionError{Reasons: report.Problems}
	}
	return nil
}

// withCacheBuster добавляет ?v=<unix>, чтобы промежуточные кэши не отдали старое фото.
func withCacheBuster(raw string, now time.Time) string {
	v := strconv.FormatInt(now.Unix(), 10)

	u, err := url.Parse(raw)
	if err != nil {
		return raw + "?v=" + v
	}
	q := u.Query()
	q.Set("v", v)
	u.RawQuery = q.Encode()
	return u.String()
}
