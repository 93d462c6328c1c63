package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/pharmgate/qrtoken-service/internal/models"
	"github.com/pharmgate/qrtoken-service/internal/storage"
)

// auditDoc — представление события аудита в коллекции.
// MongoDB DateTime хранит миллисекунды, поэтому временные поля усекаются
// при записи и нормализуются в UTC при чтении.
type auditDoc struct {
	Action     string    `bson:"action"`
	Outcome    string    `bson:"outcome"`
	TokenHash  string    `bson:"token_hash,omitempty"`
	EntityType string    `bson:"entity_type,omitempty"`
	EntityID   string    `bson:"entity_id,omitempty"`
	Actor      string    `bson:"actor"`
	IP         string    `bson:"ip,omitempty"`
	Device     string    `bson:"device,omitempty"`
	Detail     string    `bson:"detail,omitempty"`
	At         time.Time `bson:"at"`
	ExpireAt   time.Time `bson:"expire_at"`
}

// AppendAuditEvent добавляет событие в журнал. Журнал append-only:
// обновлений и удалений нет, ретенцию обеспечивает TTL-индекс по expire_at.
func (m *Mongo) AppendAuditEvent(ctx context.Context, event *models.AuditEvent) error {
	const op = "storage/mongo/AppendAuditEvent"

	toMS := func(t time.Time) time.Time { return t.UTC().Truncate(time.Millisecond) }

	doc := auditDoc{
		Action:     event.Action,
		Outcome:    event.Outcome,
		TokenHash:  event.TokenHash,
		EntityType: event.EntityType,
		EntityID:   event.EntityID,
		Actor:      event.Actor.String(),
		IP:         event.IP,
		Device:     event.Device,
		Detail:     event.Detail,
		At:         toMS(event.At),
		ExpireAt:   toMS(event.ExpireAt),
	}

	if _, err := m.events.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// EventsByTokenHash возвращает историю токена в порядке наступления событий.
func (m *Mongo) EventsByTokenHash(ctx context.Context, hash string) ([]models.AuditEvent, error) {
	const op = "storage/mongo/EventsByTokenHash"

	filter := bson.D{{Key: "token_hash", Value: hash}}
	findOpts := options.Find().SetSort(bson.D{{Key: "at", Value: 1}})

	cur, err := m.events.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("%s: find: %w", op, err)
	}
	defer cur.Close(ctx)

	var events []models.AuditEvent
	for cur.Next(ctx) {
		var doc auditDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("%s: decode: %w", op, err)
		}

		actor, err := uuid.Parse(doc.Actor)
		if err != nil {
			actor = uuid.Nil
		}

		events = append(events, models.AuditEvent{
			Action:     doc.Action,
			Outcome:    doc.Outcome,
			TokenHash:  doc.TokenHash,
			EntityType: doc.EntityType,
			EntityID:   doc.EntityID,
			Actor:      actor,
			IP:         doc.IP,
			Device:     doc.Device,
			Detail:     doc.Detail,
			At:         doc.At.UTC(),
			ExpireAt:   doc.ExpireAt.UTC(),
		})
	}

	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("%s: cursor: %w", op, err)
	}

	return events, nil
}

// Проверка на соответствие интерфейсу AuditStorage.
var _ storage.AuditStorage = (*Mongo)(nil)
