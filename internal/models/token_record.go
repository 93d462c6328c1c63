// Package models содержит доменные сущности qrtoken-сервиса.
package models

import (
	"time"

	"github.com/google/uuid"
)

// TokenStatus — статус QR-токена.
type TokenStatus string

const (
	// StatusActive — токен выпущен и ещё не погашен/не отозван.
	StatusActive TokenStatus = "active"
	// StatusUsed — токен погашен; одноразовое использование исчерпано.
	StatusUsed TokenStatus = "used"
	// StatusExpired — срок действия истёк. В БД этот статус не хранится,
	// он вычисляется на чтении (см. EffectiveStatus).
	StatusExpired TokenStatus = "expired"
	// StatusRevoked — токен отозван до использования.
	StatusRevoked TokenStatus = "revoked"
)

// TokenRecord — учётная запись выпуска QR-токена.
// Важно:
//   - TokenHash — SHA-256 от закодированного токена (base64url); сам токен
//     в БД не сохраняется и в запись не попадает.
//   - Status хранит только фактические переходы (used/revoked); истечение
//     срока не переписывает строку — см. EffectiveStatus.
//   - ValidationAttempts растёт при каждой попытке погашения, дошедшей до записи.
//   - IssuedFrom*/UsedFrom* — контекст клиента для расследований; на
//     авторизацию не влияет.
type TokenRecord struct {
	ID         uuid.UUID
	TokenHash  string
	EntityType string
	EntityID   string
	IssuedBy   uuid.UUID
	IssuedAt   time.Time
	ExpiresAt  time.Time
	Status     TokenStatus

	UsedAt *time.Time
	UsedBy *uuid.UUID

	RevokedAt        *time.Time
	RevokedBy        *uuid.UUID
	RevocationReason string

	ValidationAttempts    int64
	LastValidationAttempt *time.Time

	IssuedFromIP     string
	IssuedFromDevice string
	UsedFromIP       string
	UsedFromDevice   string
}

// EffectiveStatus возвращает статус с учётом срока действия на момент now.
// Терминальные статусы (used/revoked) имеют приоритет над истечением:
// отозванный и одновременно просроченный токен остаётся revoked.
func (r *TokenRecord) EffectiveStatus(now time.Time) TokenStatus {
	if r.Status == StatusActive && !r.ExpiresAt.After(now) {
		return StatusExpired
	}

	return r.Status
}

// IssuedToken — результат выпуска: закодированный токен и срок его действия.
// Поле Token — единственное место, где сырой токен существует после выпуска.
type IssuedToken struct {
	Token     string
	RecordID  uuid.UUID
	ExpiresAt time.Time
}

// TokenBinding — привязка успешно погашенного токена к медицинской записи.
type TokenBinding struct {
	EntityType string
	EntityID   string
	IssuedBy   uuid.UUID
}
