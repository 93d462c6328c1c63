package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/pharmgate/qrtoken-service/internal/config"
	apierrors "github.com/pharmgate/qrtoken-service/internal/errors"
	logctx "github.com/pharmgate/qrtoken-service/internal/pkg/log"
)

// Допустимый рассинхрон часов между auth-сервисом и нами.
const authnLeeway = 5 * time.Second

// callerKey — ключ контекста с идентификатором аутентифицированного вызывающего.
type callerKey struct{}

// accessClaims — клеймы access-токена платформы.
// Нам из них нужен только uid; остальные поля проверяет jwt.RegisteredClaims.
type accessClaims struct {
	UserID string `json:"uid"`
	jwt.RegisteredClaims
}

// Authn проверяет Bearer access-токен платформы (HS256) и кладёт UUID
// вызывающего в контекст. Запрос без валидного токена до хендлеров не доходит:
// middleware сам пишет 401/unauthenticated.
//
// ВАЖНО: access-токен платформы — это не QR-токен. Первый отвечает на вопрос
// "кто вызывает", второй — "на какую запись выдан доступ".
func Authn(cfg config.AuthnConfig) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				apierrors.WriteError(w, r, apierrors.ErrUnauthenticated)
				return
			}

			callerID, err := validateAccessToken(raw, cfg)
			if err != nil {
				logctx.From(r.Context()).LogAttrs(r.Context(), slog.LevelDebug,
					"access token rejected",
					slog.String("err", err.Error()),
				)
				apierrors.WriteError(w, r, apierrors.ErrUnauthenticated)
				return
			}

			ctx := context.WithValue(r.Context(), callerKey{}, callerID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CallerID возвращает идентификатор аутентифицированного вызывающего.
// ok == false означает, что запрос не проходил через Authn.
func CallerID(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(callerKey{}).(uuid.UUID)
	return id, ok
}

// bearerToken извлекает токен из Authorization: Bearer <token>.
func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")

	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) || len(auth) == len(prefix) {
		return ""
	}

	return strings.TrimSpace(auth[len(prefix):])
}

// validateAccessToken разбирает и проверяет подпись/клеймы access-токена.
// Алгоритм пригвождён к HS256: токен с другим методом подписи отклоняется
// до какой-либо проверки содержимого.
func validateAccessToken(tokenStr string, cfg config.AuthnConfig) (uuid.UUID, error) {
	const op = "middleware.validateAccessToken"

	token, err := jwt.ParseWithClaims(tokenStr, &accessClaims{},
		func(t *jwt.Token) (interface{}, error) {
			if t.Method != jwt.SigningMethodHS256 {
				return nil, fmt.Errorf("%s: unexpected signing method: %v", op, t.Header["alg"])
			}

			return []byte(cfg.JWTSecret), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(authnLeeway),
		jwt.WithIssuer(cfg.Issuer),
		jwt.WithAudience(cfg.Audience...),
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	claims, ok := token.Claims.(*accessClaims)
	if !ok || !token.Valid {
		return uuid.Nil, fmt.Errorf("%s: invalid claims", op)
	}

	callerID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s: invalid uid claim: %w", op, err)
	}

	return callerID, nil
}
