package postgres

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/pharmgate/qrtoken-service/internal/models"
	"github.com/pharmgate/qrtoken-service/internal/storage"
	"github.com/pharmgate/qrtoken-service/migrations"
)

// Файл интеграционных тестов для пакета postgres (репозиторий token_record.go):
// - поднимает реальный PostgreSQL через testcontainers-go (образ postgres:16-alpine);
// - применяет goose-миграции из ./migrations через migrations.Up;
// - проверяет happy-path выпуска/чтения, уникальность token_hash,
//   атомарность погашения (ровно один победитель из конкурентных вызовов),
//   классификацию проигравших (already_used/revoked/expired/not_found),
//   отзыв с терминальными состояниями и фоновую очистку по горизонту.
//
// Запуск локально:
//   GO_TEST_INTEGRATION=1 go test ./internal/storage/postgres -v -race -count=1

// startPostgres — поднимает временный экземпляр PostgreSQL, применяет миграции
// и возвращает инициализированное хранилище с функцией очистки.
// Если переменная окружения GO_TEST_INTEGRATION не установлена — тест пропускается.
func startPostgres(t *testing.T) (*Storage, func()) {
	t.Helper()
	if os.Getenv("GO_TEST_INTEGRATION") == "" {
		t.Skip("integration tests are disabled (set GO_TEST_INTEGRATION=1)")
	}

	ctx := context.Background()
	req := tc.ContainerRequest{
		Image:        "postgres:16-alpine",
		Env:          map[string]string{"POSTGRES_USER": "user", "POSTGRES_PASSWORD": "pass", "POSTGRES_DB": "db"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	require.NoError(t, err)

	host, _ := c.Host(ctx)
	port, _ := c.MappedPort(ctx, "5432/tcp")
	dsn := fmt.Sprintf("postgres://user:pass@%s:%s/db?sslmode=disable", host, port.Port())

	st, err := New(ctx, dsn)
	require.NoError(t, err)

	require.NoError(t, migrations.Up(st.Pool()))

	cleanup := func() {
		st.Close()
		_ = c.Terminate(context.Background())
	}
	return st, cleanup
}

// seedEntity регистрирует медицинскую запись в реестре entity_records.
// В боевом контуре реестр наполняет платформа, поэтому тест пишет напрямую.
func seedEntity(t *testing.T, st *Storage, entityType, entityID string, owner uuid.UUID) {
	t.Helper()

	_, err := st.db.Exec(context.Background(),
		`INSERT INTO entity_records(entity_type, entity_id, owner_id) VALUES ($1, $2, $3)`,
		entityType, entityID, owner,
	)
	require.NoError(t, err)
}

// tokenHash — хэш токена в том же виде, что и в сервисе (sha256 → base64url).
func tokenHash(seed string) string {
	sum := sha256.Sum256([]byte(seed))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// seedToken создаёт активную запись с заданным сроком действия.
func seedToken(t *testing.T, st *Storage, hash string, issuer uuid.UUID, issuedAt, expiresAt time.Time) *models.TokenRecord {
	t.Helper()

	rec := &models.TokenRecord{
		ID:               uuid.New(),
		TokenHash:        hash,
		EntityType:       "prescription",
		EntityID:         "rx-42",
		IssuedBy:         issuer,
		IssuedAt:         issuedAt,
		ExpiresAt:        expiresAt,
		Status:           models.StatusActive,
		IssuedFromIP:     "192.0.2.10",
		IssuedFromDevice: "clinic-terminal/1.4",
	}
	require.NoError(t, st.CreateToken(context.Background(), rec))

	return rec
}

func TestIntegration_CreateToken_And_TokenByHash_OK(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	ctx := context.Background()
	issuer := uuid.New()
	now := time.Now().UTC()
	hash := tokenHash("create-ok")

	seeded := seedToken(t, st, hash, issuer, now, now.Add(5*time.Minute))

	got, err := st.TokenByHash(ctx, hash)
	require.NoError(t, err)

	require.Equal(t, seeded.ID, got.ID)
	require.Equal(t, hash, got.TokenHash)
	require.Equal(t, "prescription", got.EntityType)
	require.Equal(t, "rx-42", got.EntityID)
	require.Equal(t, issuer, got.IssuedBy)
	require.Equal(t, models.StatusActive, got.Status)
	require.WithinDuration(t, now, got.IssuedAt, 2*time.Second)
	require.WithinDuration(t, now.Add(5*time.Minute), got.ExpiresAt, 2*time.Second)

	require.Nil(t, got.UsedAt)
	require.Nil(t, got.UsedBy)
	require.Nil(t, got.RevokedAt)
	require.Nil(t, got.RevokedBy)
	require.Empty(t, got.RevocationReason)
	require.Zero(t, got.ValidationAttempts)
	require.Nil(t, got.LastValidationAttempt)

	require.Equal(t, "192.0.2.10", got.IssuedFromIP)
	require.Equal(t, "clinic-terminal/1.4", got.IssuedFromDevice)
}

func TestIntegration_CreateToken_DuplicateHash(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	issuer := uuid.New()
	now := time.Now().UTC()
	hash := tokenHash("dup")

	seedToken(t, st, hash, issuer, now, now.Add(5*time.Minute))

	dup := &models.TokenRecord{
		ID:         uuid.New(),
		TokenHash:  hash,
		EntityType: "prescription",
		EntityID:   "rx-43",
		IssuedBy:   issuer,
		IssuedAt:   now,
		ExpiresAt:  now.Add(10 * time.Minute),
		Status:     models.StatusActive,
	}
	err := st.CreateToken(context.Background(), dup)
	require.Error(t, err)
	require.ErrorIs(t, err, storage.ErrAlreadyExists)
}

func TestIntegration_TokenByHash_NotFound(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	_, err := st.TokenByHash(context.Background(), tokenHash("missing"))
	require.Error(t, err)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestIntegration_RedeemToken_OK(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	ctx := context.Background()
	issuer := uuid.New()
	redeemer := uuid.New()
	now := time.Now().UTC()
	hash := tokenHash("redeem-ok")

	seedToken(t, st, hash, issuer, now, now.Add(5*time.Minute))

	cc := models.ClientContext{IP: "198.51.100.7", Device: "pharmacy-pos/2.0"}
	rec, err := st.RedeemToken(ctx, hash, redeemer, cc, now)
	require.NoError(t, err)

	require.Equal(t, models.StatusUsed, rec.Status)
	require.NotNil(t, rec.UsedAt)
	require.NotNil(t, rec.UsedBy)
	require.Equal(t, redeemer, *rec.UsedBy)
	require.EqualValues(t, 1, rec.ValidationAttempts)
	require.NotNil(t, rec.LastValidationAttempt)
	require.Equal(t, "198.51.100.7", rec.UsedFromIP)
	require.Equal(t, "pharmacy-pos/2.0", rec.UsedFromDevice)

	// Чтение возвращает то же состояние.
	got, err := st.TokenByHash(ctx, hash)
	require.NoError(t, err)
	require.Equal(t, models.StatusUsed, got.Status)
	require.Equal(t, redeemer, *got.UsedBy)
}

// TestIntegration_RedeemToken_SingleWinner — ключевая гарантия одноразовости:
// из конкурентных погашений одного токена побеждает ровно одно, остальные
// получают ErrAlreadyUsed, и каждая попытка учтена в validation_attempts.
func TestIntegration_RedeemToken_SingleWinner(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	ctx := context.Background()
	issuer := uuid.New()
	now := time.Now().UTC()
	hash := tokenHash("single-winner")

	seedToken(t, st, hash, issuer, now, now.Add(5*time.Minute))

	const attempts = 8

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		wins   int
		winner uuid.UUID
		losses []error
	)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			redeemer := uuid.New()
			rec, err := st.RedeemToken(ctx, hash, redeemer, models.ClientContext{IP: "203.0.113.5"}, time.Now().UTC())

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				losses = append(losses, err)
				return
			}
			wins++
			winner = *rec.UsedBy
		}()
	}
	wg.Wait()

	require.Equal(t, 1, wins)
	require.Len(t, losses, attempts-1)
	for _, lerr := range losses {
		require.ErrorIs(t, lerr, storage.ErrAlreadyUsed)
	}

	got, err := st.TokenByHash(ctx, hash)
	require.NoError(t, err)
	require.Equal(t, models.StatusUsed, got.Status)
	require.Equal(t, winner, *got.UsedBy)
	require.EqualValues(t, attempts, got.ValidationAttempts)
}

func TestIntegration_RedeemToken_Classification(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	ctx := context.Background()
	issuer := uuid.New()
	redeemer := uuid.New()
	now := time.Now().UTC()

	// Просроченный, но активный -> ErrExpired; попытка учитывается.
	expiredHash := tokenHash("cls-expired")
	seedToken(t, st, expiredHash, issuer, now.Add(-10*time.Minute), now.Add(-5*time.Minute))

	_, err := st.RedeemToken(ctx, expiredHash, redeemer, models.ClientContext{}, now)
	require.Error(t, err)
	require.ErrorIs(t, err, storage.ErrExpired)

	got, err := st.TokenByHash(ctx, expiredHash)
	require.NoError(t, err)
	require.Equal(t, models.StatusActive, got.Status) // истечение строку не мутирует
	require.EqualValues(t, 1, got.ValidationAttempts)

	// Отозванный -> ErrRevoked.
	revokedHash := tokenHash("cls-revoked")
	seedToken(t, st, revokedHash, issuer, now, now.Add(5*time.Minute))
	_, err = st.RevokeToken(ctx, revokedHash, issuer, "перевыпуск", now)
	require.NoError(t, err)

	_, err = st.RedeemToken(ctx, revokedHash, redeemer, models.ClientContext{}, now)
	require.Error(t, err)
	require.ErrorIs(t, err, storage.ErrRevoked)

	// Неизвестный хэш -> ErrNotFound.
	_, err = st.RedeemToken(ctx, tokenHash("cls-missing"), redeemer, models.ClientContext{}, now)
	require.Error(t, err)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestIntegration_RevokeToken_OK_And_ExpiredActive(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	ctx := context.Background()
	issuer := uuid.New()
	now := time.Now().UTC()

	// Активный токен отзывается с сохранением причины.
	hash := tokenHash("revoke-ok")
	seedToken(t, st, hash, issuer, now, now.Add(5*time.Minute))

	rec, err := st.RevokeToken(ctx, hash, issuer, "пациент отозвал согласие", now)
	require.NoError(t, err)
	require.Equal(t, models.StatusRevoked, rec.Status)
	require.NotNil(t, rec.RevokedAt)
	require.NotNil(t, rec.RevokedBy)
	require.Equal(t, issuer, *rec.RevokedBy)
	require.Equal(t, "пациент отозвал согласие", rec.RevocationReason)

	// Просроченный, но активный токен тоже можно отозвать:
	// запись фиксирует волю отзывающего независимо от истечения.
	staleHash := tokenHash("revoke-stale")
	seedToken(t, st, staleHash, issuer, now.Add(-10*time.Minute), now.Add(-5*time.Minute))

	rec, err = st.RevokeToken(ctx, staleHash, issuer, "", now)
	require.NoError(t, err)
	require.Equal(t, models.StatusRevoked, rec.Status)
}

func TestIntegration_RevokeToken_TerminalStates(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	ctx := context.Background()
	issuer := uuid.New()
	redeemer := uuid.New()
	now := time.Now().UTC()

	// Погашенный -> ErrAlreadyUsed.
	usedHash := tokenHash("rv-used")
	seedToken(t, st, usedHash, issuer, now, now.Add(5*time.Minute))
	_, err := st.RedeemToken(ctx, usedHash, redeemer, models.ClientContext{}, now)
	require.NoError(t, err)

	_, err = st.RevokeToken(ctx, usedHash, issuer, "", now)
	require.Error(t, err)
	require.ErrorIs(t, err, storage.ErrAlreadyUsed)

	// Уже отозванный -> ErrRevoked (идемпотентного успеха нет).
	revokedHash := tokenHash("rv-revoked")
	seedToken(t, st, revokedHash, issuer, now, now.Add(5*time.Minute))
	_, err = st.RevokeToken(ctx, revokedHash, issuer, "first", now)
	require.NoError(t, err)

	_, err = st.RevokeToken(ctx, revokedHash, issuer, "second", now)
	require.Error(t, err)
	require.ErrorIs(t, err, storage.ErrRevoked)

	// Неизвестный -> ErrNotFound.
	_, err = st.RevokeToken(ctx, tokenHash("rv-missing"), issuer, "", now)
	require.Error(t, err)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestIntegration_RecordValidationAttempt(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	ctx := context.Background()
	issuer := uuid.New()
	now := time.Now().UTC()
	hash := tokenHash("attempt")

	seedToken(t, st, hash, issuer, now, now.Add(5*time.Minute))

	require.NoError(t, st.RecordValidationAttempt(ctx, hash, now))
	require.NoError(t, st.RecordValidationAttempt(ctx, hash, now.Add(time.Second)))

	got, err := st.TokenByHash(ctx, hash)
	require.NoError(t, err)
	require.EqualValues(t, 2, got.ValidationAttempts)
	require.NotNil(t, got.LastValidationAttempt)
	require.WithinDuration(t, now.Add(time.Second), *got.LastValidationAttempt, 2*time.Second)

	// Статус не изменился.
	require.Equal(t, models.StatusActive, got.Status)

	err = st.RecordValidationAttempt(ctx, tokenHash("attempt-missing"), now)
	require.Error(t, err)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestIntegration_TokensByEntity_OrderAndScope(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	ctx := context.Background()
	issuer := uuid.New()
	now := time.Now().UTC()

	older := seedToken(t, st, tokenHash("list-older"), issuer, now.Add(-2*time.Hour), now.Add(-time.Hour))
	newer := seedToken(t, st, tokenHash("list-newer"), issuer, now, now.Add(5*time.Minute))

	// Чужая запись — не должна попасть в выборку.
	foreign := &models.TokenRecord{
		ID:         uuid.New(),
		TokenHash:  tokenHash("list-foreign"),
		EntityType: "prescription",
		EntityID:   "rx-other",
		IssuedBy:   issuer,
		IssuedAt:   now,
		ExpiresAt:  now.Add(5 * time.Minute),
		Status:     models.StatusActive,
	}
	require.NoError(t, st.CreateToken(ctx, foreign))

	records, err := st.TokensByEntity(ctx, "prescription", "rx-42")
	require.NoError(t, err)
	require.Len(t, records, 2)

	// Свежие первыми.
	require.Equal(t, newer.ID, records[0].ID)
	require.Equal(t, older.ID, records[1].ID)

	// Пустая выборка — без ошибки.
	records, err = st.TokensByEntity(ctx, "prescription", "rx-absent")
	require.NoError(t, err)
	require.Empty(t, records)
}

func TestIntegration_DeleteStaleTokens_RespectsHorizon(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	ctx := context.Background()
	issuer := uuid.New()
	now := time.Now().UTC()

	// Просрочен давно — удаляется.
	seedToken(t, st, tokenHash("purge-old"), issuer, now.Add(-48*time.Hour), now.Add(-47*time.Hour))
	// Просрочен, но позже горизонта — остаётся.
	keepRecent := seedToken(t, st, tokenHash("purge-recent"), issuer, now.Add(-2*time.Hour), now.Add(-time.Hour))
	// Действующий — остаётся.
	keepLive := seedToken(t, st, tokenHash("purge-live"), issuer, now, now.Add(5*time.Minute))

	deleted, err := st.DeleteStaleTokens(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	require.EqualValues(t, 1, deleted)

	_, err = st.TokenByHash(ctx, tokenHash("purge-old"))
	require.Error(t, err)
	require.ErrorIs(t, err, storage.ErrNotFound)

	_, err = st.TokenByHash(ctx, keepRecent.TokenHash)
	require.NoError(t, err)
	_, err = st.TokenByHash(ctx, keepLive.TokenHash)
	require.NoError(t, err)
}
