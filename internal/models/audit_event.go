package models

import (
	"time"

	"github.com/google/uuid"
)

// Действия, фиксируемые в журнале аудита.
const (
	AuditActionIssue  = "issue"
	AuditActionRedeem = "redeem"
	AuditActionRevoke = "revoke"
)

// AuditEvent — запись журнала аудита: одна на каждую попытку выпуска,
// погашения или отзыва, независимо от исхода.
// Важно:
//   - Outcome — стабильный машиночитаемый код исхода ("success",
//     "invalid_signature", "already_used", ...).
//   - TokenHash/EntityType/EntityID заполняются по мере того, как они
//     становятся известны по ходу операции; для битого на структуре токена
//     хэша может не быть.
//   - ExpireAt — горизонт хранения записи (At + retention); по нему работает
//     TTL-индекс журнала.
type AuditEvent struct {
	Action     string
	Outcome    string
	TokenHash  string
	EntityType string
	EntityID   string
	Actor      uuid.UUID
	IP         string
	Device     string
	Detail     string
	At         time.Time
	ExpireAt   time.Time
}
