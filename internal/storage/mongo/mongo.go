package mongo

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	auditCollection = "audit_events"
	defaultDBName   = "qrtoken_audit"
)

// Mongo — тонкий адаптер журнала аудита поверх MongoDB.
type Mongo struct {
	client *mongodriver.Client
	db     *mongodriver.Database
	events *mongodriver.Collection
}

// New подключается к MongoDB, проверяет соединение и обеспечивает индексацию
// коллекции журнала.
func New(ctx context.Context, dbURL string) (*Mongo, error) {
	if dbURL == "" {
		return nil, fmt.Errorf("mongo: empty db url")
	}

	cli, err := mongodriver.Connect(ctx, options.Client().ApplyURI(dbURL))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := cli.Ping(ctx, readpref.Primary()); err != nil {
		_ = cli.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	dbName := databaseFromURI(dbURL)
	db := cli.Database(dbName)

	m := &Mongo{
		client: cli,
		db:     db,
		events: db.Collection(auditCollection),
	}

	if err := m.ensureIndexes(ctx); err != nil {
		_ = m.Close(ctx)
		return nil, err
	}

	return m, nil
}

func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

// ensureIndexes создает индексы журнала аудита:
//   - TTL по expire_at (expireAfterSeconds=0 -> горизонт хранения лежит
//     в самом документе, ретенцию вычищает сама БД);
//   - выборка истории токена: token_hash + at(asc).
func (m *Mongo) ensureIndexes(ctx context.Context) error {
	models := []mongodriver.IndexModel{
		{
			Keys:    bson.D{{Key: "expire_at", Value: 1}},
			Options: options.Index().SetName("ttl_expire_at").SetExpireAfterSeconds(0),
		},
		{
			Keys:    bson.D{{Key: "token_hash", Value: 1}, {Key: "at", Value: 1}},
			Options: options.Index().SetName("token_hash_at_asc"),
		},
	}

	_, err := m.events.Indexes().CreateMany(ctx, models)
	if err != nil {
		return fmt.Errorf("mongo ensure indexes: %w", err)
	}

	return nil
}

// databaseFromURI извлекает имя базы данных из URI-пути mongodb.
// Если оно отсутствует или не поддается расшифровке, возвращает значение по умолчанию.
func databaseFromURI(uri string) string {
	u, err := url.Parse(uri)
	if err == nil {
		if name := strings.Trim(u.Path, "/"); name != "" {
			return name
		}
	}

	return defaultDBName
}
