package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/pharmgate/qrtoken-service/internal/models"
	"github.com/pharmgate/qrtoken-service/internal/storage"
)

// tokenColumns — единый список колонок для SELECT/RETURNING.
const tokenColumns = `
        id, token_hash, entity_type, entity_id, issued_by,
        issued_at, expires_at, status,
        used_at, used_by, revoked_at, revoked_by, revocation_reason,
        validation_attempts, last_validation_attempt,
        issued_from_ip, issued_from_device, used_from_ip, used_from_device
`

// scanToken читает строку token_records в модель.
func scanToken(row pgx.Row) (*models.TokenRecord, error) {
	var rec models.TokenRecord

	err := row.Scan(
		&rec.ID, &rec.TokenHash, &rec.EntityType, &rec.EntityID, &rec.IssuedBy,
		&rec.IssuedAt, &rec.ExpiresAt, &rec.Status,
		&rec.UsedAt, &rec.UsedBy, &rec.RevokedAt, &rec.RevokedBy, &rec.RevocationReason,
		&rec.ValidationAttempts, &rec.LastValidationAttempt,
		&rec.IssuedFromIP, &rec.IssuedFromDevice, &rec.UsedFromIP, &rec.UsedFromDevice,
	)
	if err != nil {
		return nil, err
	}

	return &rec, nil
}

// CreateToken сохраняет новую запись выпуска токена.
// Конфликт уникальности token_hash транслируется в storage.ErrAlreadyExists —
// сервис в этом случае перегенерирует токен.
func (s *Storage) CreateToken(ctx context.Context, record *models.TokenRecord) error {
	const op = "storage.postgres.CreateToken"

	query := `
        INSERT INTO token_records(
            id, token_hash, entity_type, entity_id, issued_by,
            issued_at, expires_at, status,
            validation_attempts, issued_from_ip, issued_from_device
        )
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
    `

	_, err := s.db.Exec(ctx, query,
		record.ID,
		record.TokenHash,
		record.EntityType,
		record.EntityID,
		record.IssuedBy,
		record.IssuedAt,
		record.ExpiresAt,
		string(record.Status),
		record.ValidationAttempts,
		record.IssuedFromIP,
		record.IssuedFromDevice,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// TokenByHash находит запись по хэшу токена.
func (s *Storage) TokenByHash(ctx context.Context, hash string) (*models.TokenRecord, error) {
	const op = "storage.postgres.TokenByHash"

	query := `
        SELECT ` + tokenColumns + `
        FROM token_records
        WHERE token_hash = $1
    `

	rec, err := scanToken(s.db.QueryRow(ctx, query, hash))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return rec, nil
}

// RedeemToken атомарно гасит активный непросроченный токен.
// Переход active -> used, поля погашения и инкремент счётчика попыток
// выполняются одним условным UPDATE, поэтому из конкурентных вызовов
// побеждает ровно один. Проигравшие получают классификацию текущего
// состояния (ErrAlreadyUsed / ErrRevoked / ErrExpired / ErrNotFound);
// их попытка тоже фиксируется в validation_attempts.
func (s *Storage) RedeemToken(ctx context.Context, hash string, redeemer uuid.UUID, cc models.ClientContext, now time.Time) (*models.TokenRecord, error) {
	const op = "storage.postgres.RedeemToken"

	upd := `
        UPDATE token_records
        SET status = 'used',
            used_at = $2,
            used_by = $3,
            used_from_ip = $4,
            used_from_device = $5,
            validation_attempts = validation_attempts + 1,
            last_validation_attempt = $2
        WHERE token_hash = $1 AND status = 'active' AND expires_at > $2
        RETURNING ` + tokenColumns

	rec, err := scanToken(s.db.QueryRow(ctx, upd, hash, now, redeemer, cc.IP, cc.Device))
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	// Переход не состоялся: фиксируем попытку и классифицируем состояние.
	bump := `
        UPDATE token_records
        SET validation_attempts = validation_attempts + 1,
            last_validation_attempt = $2
        WHERE token_hash = $1
        RETURNING ` + tokenColumns

	rec, err = scanToken(s.db.QueryRow(ctx, bump, hash, now))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	switch {
	case rec.Status == models.StatusUsed:
		return nil, fmt.Errorf("%s: %w", op, storage.ErrAlreadyUsed)
	case rec.Status == models.StatusRevoked:
		return nil, fmt.Errorf("%s: %w", op, storage.ErrRevoked)
	case !rec.ExpiresAt.After(now):
		return nil, fmt.Errorf("%s: %w", op, storage.ErrExpired)
	default:
		return nil, fmt.Errorf("%s: inconsistent token state", op)
	}
}

// RevokeToken атомарно отзывает токен, если он ещё активен.
// Просроченный, но не погашенный токен отозвать можно: условие не смотрит
// на expires_at, запись честно отражает волю отзывающего.
// Для терминальных состояний возвращается ErrAlreadyUsed / ErrRevoked.
func (s *Storage) RevokeToken(ctx context.Context, hash string, revoker uuid.UUID, reason string, now time.Time) (*models.TokenRecord, error) {
	const op = "storage.postgres.RevokeToken"

	upd := `
        UPDATE token_records
        SET status = 'revoked',
            revoked_at = $2,
            revoked_by = $3,
            revocation_reason = $4
        WHERE token_hash = $1 AND status = 'active'
        RETURNING ` + tokenColumns

	rec, err := scanToken(s.db.QueryRow(ctx, upd, hash, now, revoker, reason))
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	sel := `
        SELECT status
        FROM token_records
        WHERE token_hash = $1
    `

	var status string
	if err := s.db.QueryRow(ctx, sel, hash).Scan(&status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	switch models.TokenStatus(status) {
	case models.StatusUsed:
		return nil, fmt.Errorf("%s: %w", op, storage.ErrAlreadyUsed)
	case models.StatusRevoked:
		return nil, fmt.Errorf("%s: %w", op, storage.ErrRevoked)
	default:
		return nil, fmt.Errorf("%s: inconsistent token state", op)
	}
}

// RecordValidationAttempt фиксирует попытку погашения, не дошедшую до CAS.
func (s *Storage) RecordValidationAttempt(ctx context.Context, hash string, now time.Time) error {
	const op = "storage.postgres.RecordValidationAttempt"

	query := `
        UPDATE token_records
        SET validation_attempts = validation_attempts + 1,
            last_validation_attempt = $2
        WHERE token_hash = $1
    `

	cmdTag, err := s.db.Exec(ctx, query, hash, now)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}

// TokensByEntity возвращает все токены медицинской записи, свежие первыми.
func (s *Storage) TokensByEntity(ctx context.Context, entityType, entityID string) ([]models.TokenRecord, error) {
	const op = "storage.postgres.TokensByEntity"

	query := `
        SELECT ` + tokenColumns + `
        FROM token_records
        WHERE entity_type = $1 AND entity_id = $2
        ORDER BY issued_at DESC, id DESC
    `

	rows, err := s.db.Query(ctx, query, entityType, entityID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var records []models.TokenRecord
	for rows.Next() {
		rec, err := scanToken(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		records = append(records, *rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return records, nil
}

// DeleteStaleTokens удаляет записи, просроченные раньше горизонта before.
// Возвращает количество удалённых строк.
func (s *Storage) DeleteStaleTokens(ctx context.Context, before time.Time) (int64, error) {
	const op = "storage.postgres.DeleteStaleTokens"

	query := `
        DELETE FROM token_records
        WHERE expires_at <= $1
    `

	cmdTag, err := s.db.Exec(ctx, query, before)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return cmdTag.RowsAffected(), nil
}
