// Package migrations хранит goose-миграции схемы PostgreSQL и применяет их
// к пулу соединений. SQL-файлы встраиваются в бинарник, поэтому при старте
// сервису не нужен доступ к файловой системе.
package migrations

import (
	"embed"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed *.sql
var migrationsFS embed.FS

// Up применяет все недостающие миграции к базе пула.
func Up(pool *pgxpool.Pool) error {
	const op = "migrations.Up"

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("%s: set dialect: %w", op, err)
	}

	goose.SetBaseFS(migrationsFS)

	db := stdlib.OpenDBFromPool(pool)
	defer func() { _ = db.Close() }()

	if err := goose.Up(db, "."); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
