// Package http собирает HTTP-транспорт qrtoken-сервиса: chi-роутер,
// цепочку middleware и REST-маршруты поверх сервисного слоя.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pharmgate/qrtoken-service/internal/config"
	"github.com/pharmgate/qrtoken-service/internal/service"
	"github.com/pharmgate/qrtoken-service/internal/transport/http/handlers"
	"github.com/pharmgate/qrtoken-service/internal/transport/http/middleware"
)

// Options — опции роутера.
type Options struct {
	// Logger используется middleware Logging; nil -> slog.Default().
	Logger *slog.Logger
	// Timeout — общий таймаут обработки запроса; 0 — без таймаута.
	Timeout time.Duration
	// Authn — параметры проверки access-токенов платформы.
	Authn config.AuthnConfig
	// BasePath — базовый префикс API, например "/api". Пусто — корень.
	BasePath string
}

// NewRouter собирает http.Handler со всеми middleware и маршрутами.
func NewRouter(svc *service.Service, opts Options) http.Handler {
	root := chi.NewRouter()

	// Middleware (внешний -> внутренний).
	root.Use(
		middleware.Recover(),            // безопасно ловим паники
		middleware.RequestID(),          // формируем/прокидываем X-Request-Id (до логирования!)
		middleware.Logging(opts.Logger), // кладём request-scoped логгер в контекст и логируем
		middleware.Authn(opts.Authn),    // проверяем access-токен платформы до хендлеров
	)
	if opts.Timeout > 0 {
		root.Use(middleware.Timeout(opts.Timeout)) // общий дедлайн запроса
	}

	h := handlers.New(svc)

	if opts.BasePath != "" {
		sub := chi.NewRouter()
		registerRoutes(sub, h)
		root.Mount(opts.BasePath, sub)
		return root
	}

	registerRoutes(root, h)
	return root
}

// registerRoutes — единая точка маппинга маршрутов на хендлеры.
func registerRoutes(r chi.Router, h *handlers.Handlers) {
	// Выпуск/погашение/отзыв токена.
	r.Post("/tokens", h.IssueToken)
	r.Post("/tokens/redeem", h.RedeemToken)
	r.Post("/tokens/revoke", h.RevokeToken)

	// Журнал попыток по предъявленному токену.
	r.Post("/tokens/history", h.TokenHistory)

	// История выпусков по медицинской записи.
	r.Get("/entities/{entity_type}/{entity_id}/tokens", h.ListEntityTokens)
}
