package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/pharmgate/qrtoken-service/internal/storage"
)

// EntityOwner возвращает владельца медицинской записи из реестра entity_records.
// Реестр наполняет платформа медицинских записей; сервис его только читает,
// чтобы проверить существование записи и право выпускающего.
func (s *Storage) EntityOwner(ctx context.Context, entityType, entityID string) (uuid.UUID, error) {
	const op = "storage.postgres.EntityOwner"

	query := `
        SELECT owner_id
        FROM entity_records
        WHERE entity_type = $1 AND entity_id = $2
    `

	var owner uuid.UUID
	err := s.db.QueryRow(ctx, query, entityType, entityID).Scan(&owner)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	return owner, nil
}
