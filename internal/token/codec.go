package token

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Prefix — версия строкового формата токена. Меняется при несовместимых
// изменениях payload или схемы подписи.
const Prefix = "qrt1"

// NonceLen — длина одноразового значения в payload, в байтах (128 бит).
const NonceLen = 16

// sigLen — длина подписи HMAC-SHA256.
const sigLen = sha256.Size

// ErrMalformedToken — строка не разбирается как токен: не тот префикс,
// лишние или недостающие сегменты, битый base64/JSON, пустые поля.
// Отличается от неверной подписи — до криптографической проверки дело
// не доходит.
var ErrMalformedToken = errors.New("malformed token")

// Payload — каноничное содержимое токена.
// Подпись считается над точными байтами JSON-сериализации: порядок полей
// фиксирован объявлением структуры, а при проверке используются полученные
// байты как есть, без повторной каноникализации.
type Payload struct {
	EntityType string `json:"et"`
	EntityID   string `json:"eid"`
	IssuedBy   string `json:"iss"`
	IssuedAt   int64  `json:"iat"` // unix-секунды UTC
	Nonce      string `json:"n"`   // base64url, NonceLen байт
}

// NewPayload собирает payload выпуска: время усекается до секунды (точность
// сериализации), nonce берётся из криптографического ГСЧ.
func NewPayload(entityType, entityID string, issuedBy uuid.UUID, now time.Time) (Payload, error) {
	const op = "token.NewPayload"

	var nonce [NonceLen]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return Payload{}, fmt.Errorf("%s: %w", op, err)
	}

	return Payload{
		EntityType: entityType,
		EntityID:   entityID,
		IssuedBy:   issuedBy.String(),
		IssuedAt:   now.UTC().Truncate(time.Second).Unix(),
		Nonce:      base64.RawURLEncoding.EncodeToString(nonce[:]),
	}, nil
}

// Marshal возвращает байты payload, над которыми считается подпись.
func (p Payload) Marshal() ([]byte, error) {
	const op = "token.Payload.Marshal"

	b, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return b, nil
}

// IssuedTime возвращает момент выпуска из payload.
func (p Payload) IssuedTime() time.Time {
	return time.Unix(p.IssuedAt, 0).UTC()
}

// Encode собирает строковое представление токена:
//
//	qrt1.<base64url(payload)>.<base64url(signature)>
//
// Алфавит base64url делает токен пригодным для URL и QR-кодов, точки дают
// однозначные границы сегментов.
func Encode(payloadBytes, sig []byte) string {
	return Prefix + "." +
		base64.RawURLEncoding.EncodeToString(payloadBytes) + "." +
		base64.RawURLEncoding.EncodeToString(sig)
}

// Decode разбирает строку токена на payload и подпись.
// Помимо структуры проверяется заполненность полей payload: токен с пустым
// entity_type/entity_id, кривым issued_by или коротким nonce считается битым.
// Возвращает также исходные байты payload — подпись проверяется по ним.
func Decode(s string) (Payload, []byte, []byte, error) {
	const op = "token.Decode"

	malformed := func() (Payload, []byte, []byte, error) {
		return Payload{}, nil, nil, fmt.Errorf("%s: %w", op, ErrMalformedToken)
	}

	parts := strings.Split(strings.TrimSpace(s), ".")
	if len(parts) != 3 || parts[0] != Prefix {
		return malformed()
	}

	payloadBytes, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return malformed()
	}

	sig, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil || len(sig) != sigLen {
		return malformed()
	}

	var p Payload
	if err := json.Unmarshal(payloadBytes, &p); err != nil {
		return malformed()
	}

	if p.EntityType == "" || p.EntityID == "" || p.IssuedAt <= 0 {
		return malformed()
	}

	if _, err := uuid.Parse(p.IssuedBy); err != nil {
		return malformed()
	}

	nonce, err := base64.RawURLEncoding.DecodeString(p.Nonce)
	if err != nil || len(nonce) < NonceLen {
		return malformed()
	}

	return p, payloadBytes, sig, nil
}

// Hash — ключ токена в хранилище: SHA-256 от закодированного представления,
// в base64url. Дальше этой функции сырой токен в сервисе не живёт.
func Hash(encoded string) string {
	sum := sha256.Sum256([]byte(encoded))

	return base64.RawURLEncoding.EncodeToString(sum[:])
}
