// service содержит бизнес-логику qrtoken-сервиса: выпуск, погашение и отзыв
// одноразовых QR-токенов, проверку прав вызывающего и гарантированную
// фиксацию каждой попытки в журнале аудита.
//
// Основные аспекты:
//   - Экземпляр Service безопасен для конкурентного использования: дисциплина
//     одноразовости обеспечивается условными обновлениями в хранилище,
//     мьютексов на горячем пути нет.
//   - Ошибки операций возвращаются сентинелами этого пакета и далее маппятся
//     транспортом на HTTP-статусы (см. комментарии к переменным ошибок ниже).
//   - Каждая попытка issue/redeem/revoke порождает ровно одно событие аудита
//     независимо от исхода; доставка асинхронная, at-least-once.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/pharmgate/qrtoken-service/internal/storage"
	"github.com/pharmgate/qrtoken-service/internal/token"
)

var (
	// ErrMalformedToken — строка не разбирается как токен (префикс, сегменты,
	// base64, payload). До хранилища такая попытка не доходит.
	// Транспорт: HTTP 400.
	ErrMalformedToken = errors.New("malformed token")

	// ErrInvalidSignature — токен структурно корректен, но подпись не сходится.
	// Транспорт: HTTP 400.
	ErrInvalidSignature = errors.New("invalid token signature")

	// ErrTokenNotFound — подпись верна, но записи с таким хэшем нет
	// (токен чужого контура или запись уже удалена очисткой).
	// Транспорт: HTTP 404.
	ErrTokenNotFound = errors.New("token not found")

	// ErrTokenExpired — срок действия токена истёк.
	// Транспорт: HTTP 410.
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenAlreadyUsed — токен уже был погашен; одноразовость исчерпана.
	// Транспорт: HTTP 409.
	ErrTokenAlreadyUsed = errors.New("token already used")

	// ErrTokenRevoked — токен отозван и погашению не подлежит.
	// Транспорт: HTTP 410.
	ErrTokenRevoked = errors.New("token revoked")

	// ErrTokenAlreadyRevoked — повторный отзыв уже отозванного токена.
	// Транспорт: HTTP 409.
	ErrTokenAlreadyRevoked = errors.New("token already revoked")

	// ErrEntityNotFound — медицинская запись, на которую выпускается токен,
	// не существует. Транспорт: HTTP 404.
	ErrEntityNotFound = errors.New("entity not found")

	// ErrForbidden — вызывающий не владеет записью и не вправе выполнять
	// операцию. Транспорт: HTTP 403.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidEntityRef — ссылка на запись (entity_type, entity_id) пуста
	// или не проходит нормализацию. Транспорт: HTTP 400.
	ErrInvalidEntityRef = errors.New("invalid entity reference")

	// ErrTokenCollision — исчерпаны попытки выпустить токен с уникальным хэшем
	// (крайне редкие коллизии при сохранении в БД). Транспорт: HTTP 500.
	ErrTokenCollision = errors.New("token hash collision")
)

// Значения по умолчанию для Options.
const (
	defaultValidityWindow = 5 * time.Minute
	defaultAuditRetention = 180 * 24 * time.Hour
)

// Options — параметры Service. Нулевые поля заменяются значениями
// по умолчанию.
type Options struct {
	// ValidityWindow — срок действия выпускаемых токенов.
	ValidityWindow time.Duration
	// AuditRetention — горизонт хранения событий аудита.
	AuditRetention time.Duration
	// AuditQueueSize — ёмкость очереди фоновой доставки аудита.
	AuditQueueSize int
	// Logger — логгер фоновой доставки аудита.
	Logger *slog.Logger
}

// Service описывает бизнес-логику qrtoken-сервиса.
type Service struct {
	storage  storage.Storage
	auditLog storage.AuditStorage
	signer   *token.Signer
	validity time.Duration
	audit    *auditPump
}

// New создаёт новый экземпляр Service и запускает фоновую доставку аудита.
func New(st storage.Storage, sink storage.AuditStorage, signer *token.Signer, opts Options) *Service {
	if opts.ValidityWindow <= 0 {
		opts.ValidityWindow = defaultValidityWindow
	}

	if opts.AuditRetention <= 0 {
		opts.AuditRetention = defaultAuditRetention
	}

	if opts.AuditQueueSize <= 0 {
		opts.AuditQueueSize = defaultAuditQueueSize
	}

	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Service{
		storage:  st,
		auditLog: sink,
		signer:   signer,
		validity: opts.ValidityWindow,
		audit:    newAuditPump(sink, opts.AuditRetention, opts.AuditQueueSize, opts.Logger),
	}
}

// Close останавливает фоновую доставку аудита, дожидаясь опустошения очереди
// в пределах ctx. Вызывается при останове сервиса после остановки транспорта:
// новые операции к этому моменту уже не начинаются.
func (s *Service) Close(ctx context.Context) error {
	return s.audit.Close(ctx)
}
