package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pharmgate/qrtoken-service/internal/metrics"
	"github.com/pharmgate/qrtoken-service/internal/models"
	"github.com/pharmgate/qrtoken-service/internal/pkg/log"
	"github.com/pharmgate/qrtoken-service/internal/pkg/redact"
	"github.com/pharmgate/qrtoken-service/internal/storage"
	"github.com/pharmgate/qrtoken-service/internal/token"
)

// maxIssueAttempts — сколько раз выпуск повторяется при коллизии хэша.
// Каждая попытка собирает полностью новый payload (свежий nonce).
const maxIssueAttempts = 5

// Ограничения на ссылку записи и причину отзыва.
const (
	maxEntityTypeLen = 64
	maxEntityIDLen   = 128
	maxReasonLen     = 500
)

// IssueToken выпускает одноразовый QR-токен для медицинской записи
// (entityType, entityID) от имени её владельца issuer.
// Сырой токен существует только в возвращаемом значении: в хранилище и логи
// попадает лишь его хэш.
func (s *Service) IssueToken(ctx context.Context, entityType, entityID string, issuer uuid.UUID, cc models.ClientContext) (_ *models.IssuedToken, err error) {
	const op = "service.token.IssueToken"

	ev := &models.AuditEvent{
		Action: models.AuditActionIssue,
		Actor:  issuer,
		IP:     cc.IP,
		Device: cc.Device,
	}
	defer func() { s.emit(ev, err) }()

	etype, eid, verr := normalizeEntityRef(entityType, entityID)
	if verr != nil {
		return nil, fmt.Errorf("%s: %w", op, verr)
	}

	ev.EntityType, ev.EntityID = etype, eid

	owner, oerr := s.storage.EntityOwner(ctx, etype, eid)
	if oerr != nil {
		if errors.Is(oerr, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrEntityNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, oerr)
	}

	if owner != issuer {
		return nil, fmt.Errorf("%s: %w", op, ErrForbidden)
	}

	for attempt := 0; attempt < maxIssueAttempts; attempt++ {
		now := time.Now().UTC()

		payload, perr := token.NewPayload(etype, eid, issuer, now)
		if perr != nil {
			return nil, fmt.Errorf("%s: %w", op, perr)
		}

		payloadBytes, merr := payload.Marshal()
		if merr != nil {
			return nil, fmt.Errorf("%s: %w", op, merr)
		}

		encoded := token.Encode(payloadBytes, s.signer.Sign(payloadBytes))
		hash := token.Hash(encoded)

		record := &models.TokenRecord{
			ID:               uuid.New(),
			TokenHash:        hash,
			EntityType:       etype,
			EntityID:         eid,
			IssuedBy:         issuer,
			IssuedAt:         payload.IssuedTime(),
			ExpiresAt:        payload.IssuedTime().Add(s.validity),
			Status:           models.StatusActive,
			IssuedFromIP:     cc.IP,
			IssuedFromDevice: cc.Device,
		}

		if cerr := s.storage.CreateToken(ctx, record); cerr != nil {
			if errors.Is(cerr, storage.ErrAlreadyExists) {
				continue
			}

			return nil, fmt.Errorf("%s: %w", op, cerr)
		}

		ev.TokenHash = hash

		return &models.IssuedToken{
			Token:     encoded,
			RecordID:  record.ID,
			ExpiresAt: record.ExpiresAt,
		}, nil
	}

	return nil, fmt.Errorf("%s: %w", op, ErrTokenCollision)
}

// RedeemToken гасит предъявленный токен и возвращает привязку к медицинской
// записи. Порядок проверок фиксирован: структура -> подпись -> состояние
// записи; до хранилища доходят только структурно корректные токены.
// Из конкурентных предъявлений одного токена побеждает ровно одно.
func (s *Service) RedeemToken(ctx context.Context, encoded string, redeemer uuid.UUID, cc models.ClientContext) (_ *models.TokenBinding, err error) {
	const op = "service.token.RedeemToken"

	ev := &models.AuditEvent{
		Action: models.AuditActionRedeem,
		Actor:  redeemer,
		IP:     cc.IP,
		Device: cc.Device,
	}
	defer func() { s.emit(ev, err) }()

	encoded = strings.TrimSpace(encoded)

	payload, payloadBytes, sig, derr := token.Decode(encoded)
	if derr != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrMalformedToken)
	}

	hash := token.Hash(encoded)
	ev.TokenHash = hash
	ev.EntityType, ev.EntityID = payload.EntityType, payload.EntityID

	now := time.Now().UTC()

	if !s.signer.Verify(payloadBytes, sig) {
		// Счётчик попыток растёт и для подделок, если запись с таким хэшем
		// существует; потеря инкремента не отменяет исход проверки.
		if aerr := s.storage.RecordValidationAttempt(ctx, hash, now); aerr != nil && !errors.Is(aerr, storage.ErrNotFound) {
			log.From(ctx).WarnContext(ctx, "validation attempt bump failed",
				slog.String("token_hash", redact.Hash(hash)),
				slog.String("err", aerr.Error()),
			)
		}

		return nil, fmt.Errorf("%s: %w", op, ErrInvalidSignature)
	}

	rec, rerr := s.storage.RedeemToken(ctx, hash, redeemer, cc, now)
	if rerr != nil {
		switch {
		case errors.Is(rerr, storage.ErrNotFound):
			return nil, fmt.Errorf("%s: %w", op, ErrTokenNotFound)
		case errors.Is(rerr, storage.ErrExpired):
			return nil, fmt.Errorf("%s: %w", op, ErrTokenExpired)
		case errors.Is(rerr, storage.ErrAlreadyUsed):
			return nil, fmt.Errorf("%s: %w", op, ErrTokenAlreadyUsed)
		case errors.Is(rerr, storage.ErrRevoked):
			return nil, fmt.Errorf("%s: %w", op, ErrTokenRevoked)
		}

		return nil, fmt.Errorf("%s: %w", op, rerr)
	}

	ev.EntityType, ev.EntityID = rec.EntityType, rec.EntityID

	return &models.TokenBinding{
		EntityType: rec.EntityType,
		EntityID:   rec.EntityID,
		IssuedBy:   rec.IssuedBy,
	}, nil
}

// RevokeToken отзывает ещё не использованный токен. Отзыв доступен только
// выпустившему токен; уже погашенный или отозванный токен не мутирует.
// Просроченный, но активный токен отозвать можно: запись фиксирует факт
// отзыва независимо от истечения срока.
func (s *Service) RevokeToken(ctx context.Context, encoded string, revoker uuid.UUID, reason string, cc models.ClientContext) (err error) {
	const op = "service.token.RevokeToken"

	ev := &models.AuditEvent{
		Action: models.AuditActionRevoke,
		Actor:  revoker,
		IP:     cc.IP,
		Device: cc.Device,
	}
	defer func() { s.emit(ev, err) }()

	encoded = strings.TrimSpace(encoded)

	payload, payloadBytes, sig, derr := token.Decode(encoded)
	if derr != nil {
		return fmt.Errorf("%s: %w", op, ErrMalformedToken)
	}

	hash := token.Hash(encoded)
	ev.TokenHash = hash
	ev.EntityType, ev.EntityID = payload.EntityType, payload.EntityID

	if !s.signer.Verify(payloadBytes, sig) {
		return fmt.Errorf("%s: %w", op, ErrInvalidSignature)
	}

	reason = strings.TrimSpace(reason)
	if r := []rune(reason); len(r) > maxReasonLen {
		reason = string(r[:maxReasonLen])
	}

	rec, lerr := s.storage.TokenByHash(ctx, hash)
	if lerr != nil {
		if errors.Is(lerr, storage.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, ErrTokenNotFound)
		}

		return fmt.Errorf("%s: %w", op, lerr)
	}

	if rec.IssuedBy != revoker {
		return fmt.Errorf("%s: %w", op, ErrForbidden)
	}

	ev.Detail = reason

	if _, rerr := s.storage.RevokeToken(ctx, hash, revoker, reason, time.Now().UTC()); rerr != nil {
		switch {
		case errors.Is(rerr, storage.ErrNotFound):
			return fmt.Errorf("%s: %w", op, ErrTokenNotFound)
		case errors.Is(rerr, storage.ErrAlreadyUsed):
			return fmt.Errorf("%s: %w", op, ErrTokenAlreadyUsed)
		case errors.Is(rerr, storage.ErrRevoked):
			return fmt.Errorf("%s: %w", op, ErrTokenAlreadyRevoked)
		}

		return fmt.Errorf("%s: %w", op, rerr)
	}

	return nil
}

// EntityTokens возвращает все токены медицинской записи для её владельца.
// Статусы записей проецируются на момент вызова: активная, но просроченная
// запись видна как expired без изменения строки в БД.
func (s *Service) EntityTokens(ctx context.Context, entityType, entityID string, caller uuid.UUID) ([]models.TokenRecord, error) {
	const op = "service.token.EntityTokens"

	etype, eid, verr := normalizeEntityRef(entityType, entityID)
	if verr != nil {
		return nil, fmt.Errorf("%s: %w", op, verr)
	}

	owner, oerr := s.storage.EntityOwner(ctx, etype, eid)
	if oerr != nil {
		if errors.Is(oerr, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrEntityNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, oerr)
	}

	if owner != caller {
		return nil, fmt.Errorf("%s: %w", op, ErrForbidden)
	}

	records, lerr := s.storage.TokensByEntity(ctx, etype, eid)
	if lerr != nil {
		return nil, fmt.Errorf("%s: %w", op, lerr)
	}

	now := time.Now().UTC()
	for i := range records {
		records[i].Status = records[i].EffectiveStatus(now)
	}

	return records, nil
}

// TokenAuditTrail возвращает историю предъявленного токена: выпуск, каждую
// попытку погашения (включая неудачные) и отзыв. История доступна только
// выпустившему токен — по ней видно, пытался ли кто-то погасить утерянный
// или подделанный QR-код.
// Доставка аудита асинхронная, поэтому самые свежие попытки могут появиться
// в истории с задержкой. Чтение истории событий аудита не порождает.
func (s *Service) TokenAuditTrail(ctx context.Context, encoded string, caller uuid.UUID) ([]models.AuditEvent, error) {
	const op = "service.token.TokenAuditTrail"

	encoded = strings.TrimSpace(encoded)

	_, payloadBytes, sig, derr := token.Decode(encoded)
	if derr != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrMalformedToken)
	}

	if !s.signer.Verify(payloadBytes, sig) {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidSignature)
	}

	hash := token.Hash(encoded)

	rec, lerr := s.storage.TokenByHash(ctx, hash)
	if lerr != nil {
		if errors.Is(lerr, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrTokenNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, lerr)
	}

	if rec.IssuedBy != caller {
		return nil, fmt.Errorf("%s: %w", op, ErrForbidden)
	}

	events, eerr := s.auditLog.EventsByTokenHash(ctx, hash)
	if eerr != nil {
		return nil, fmt.Errorf("%s: %w", op, eerr)
	}

	return events, nil
}

// PurgeStaleTokens удаляет записи токенов, просроченные раньше горизонта
// удержания. Вызывается фоновой очисткой.
func (s *Service) PurgeStaleTokens(ctx context.Context, before time.Time) (int64, error) {
	const op = "service.token.PurgeStaleTokens"

	deleted, err := s.storage.DeleteStaleTokens(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	if deleted > 0 {
		metrics.JanitorDeletedTotal.Add(float64(deleted))
	}

	return deleted, nil
}

// normalizeEntityRef приводит ссылку на запись к каноничному виду:
// тип — без пробелов по краям и в нижнем регистре, идентификатор — без
// пробелов по краям. Пустые и неприлично длинные значения отклоняются.
func normalizeEntityRef(entityType, entityID string) (string, string, error) {
	etype := strings.ToLower(strings.TrimSpace(entityType))
	eid := strings.TrimSpace(entityID)

	if etype == "" || eid == "" {
		return "", "", ErrInvalidEntityRef
	}

	if len(etype) > maxEntityTypeLen || len(eid) > maxEntityIDLen {
		return "", "", ErrInvalidEntityRef
	}

	return etype, eid, nil
}
