package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/pharmgate/qrtoken-service/internal/models"
)

var (
	// ErrNotFound — запись не найдена (токен/медицинская запись).
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists — нарушение уникальности (token_hash).
	ErrAlreadyExists = errors.New("already exists")
	// ErrExpired — срок действия токена истёк на момент операции.
	ErrExpired = errors.New("expired")
	// ErrAlreadyUsed — токен уже погашен ранее.
	ErrAlreadyUsed = errors.New("already used")
	// ErrRevoked — токен отозван.
	ErrRevoked = errors.New("revoked")
)

// TokenStorage выполняет операции над учётными записями QR-токенов.
type TokenStorage interface {
	// CreateToken сохраняет новую запись выпуска токена.
	CreateToken(ctx context.Context, record *models.TokenRecord) error
	// TokenByHash находит запись по хэшу токена.
	TokenByHash(ctx context.Context, hash string) (*models.TokenRecord, error)
	// RedeemToken атомарно гасит активный непросроченный токен;
	// из конкурентных вызовов побеждает ровно один.
	RedeemToken(ctx context.Context, hash string, redeemer uuid.UUID, cc models.ClientContext, now time.Time) (*models.TokenRecord, error)
	// RevokeToken атомарно отзывает токен, если он ещё активен.
	RevokeToken(ctx context.Context, hash string, revoker uuid.UUID, reason string, now time.Time) (*models.TokenRecord, error)
	// RecordValidationAttempt фиксирует попытку погашения, не дошедшую до CAS
	// (неверная подпись, ленивое истечение срока).
	RecordValidationAttempt(ctx context.Context, hash string, now time.Time) error
	// TokensByEntity возвращает все токены, выпущенные для медицинской записи.
	TokensByEntity(ctx context.Context, entityType, entityID string) ([]models.TokenRecord, error)
	// DeleteStaleTokens удаляет записи, просроченные раньше горизонта before.
	DeleteStaleTokens(ctx context.Context, before time.Time) (int64, error)
}

// EntityStorage читает реестр медицинских записей — проекцию, которую ведёт
// платформа; сервис её не изменяет.
type EntityStorage interface {
	// EntityOwner возвращает владельца записи (entityType, entityID).
	EntityOwner(ctx context.Context, entityType, entityID string) (uuid.UUID, error)
}

// Storage задает контракт работы с БД.
type Storage interface {
	TokenStorage
	EntityStorage
	Close()
}

// AuditStorage — журнал аудита: добавление событий и выборка истории токена.
// Обновлений и удалений нет, ретенцию обеспечивает сам журнал.
type AuditStorage interface {
	// AppendAuditEvent добавляет событие в журнал.
	AppendAuditEvent(ctx context.Context, event *models.AuditEvent) error
	// EventsByTokenHash возвращает историю токена в порядке наступления событий.
	EventsByTokenHash(ctx context.Context, hash string) ([]models.AuditEvent, error)
}
