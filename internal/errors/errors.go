// errors стандартизирует ответы об ошибках HTTP-слоя qrtoken-сервиса.
// На вход он принимает ошибку сервисного слоя, а на выход даёт:
//   - корректный HTTP-статус;
//   - краткое безопасное message без утечки деталей.
//
// Источник истинности по маппингу: сентинелы пакета service
// (см. комментарии к их объявлениям).
package errors

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/pharmgate/qrtoken-service/internal/service"
)

// Нестандартный код, часто используемый для "клиент закрыл соединение".
const StatusClientClosedRequest = 499

var (
	// ErrUnauthenticated — запрос без валидного access-токена платформы.
	// HTTP 401.
	ErrUnauthenticated = stderrors.New("unauthenticated")

	// ErrInvalidArgument — тело запроса или параметры пути не разбираются.
	// HTTP 400.
	ErrInvalidArgument = stderrors.New("invalid argument")
)

// APIError — единый формат ошибки для клиентов.
// Code — короткий стабильный код для машиночитаемой обработки.
// Message — безопасное человекочитаемое описание.
// RequestID — прокидывается из X-Request-Id, если есть (для трассировки).
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorResponse — корневой объект в ответе.
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// ToHTTP конвертирует ошибку сервисного слоя в HTTP-статус и унифицированный
// ответ.
//
// Поведение:
//   - err == nil — это программная ошибка вызова: возвращаем 500/internal,
//     чтобы не послать "200 OK" с телом ошибки и не маскировать баг;
//   - нераспознанная ошибка — 500/internal (без утечки деталей).
func ToHTTP(err error) (int, ErrorResponse) {
	httpStatus, code, msg := base(err)

	return httpStatus, ErrorResponse{
		Error: APIError{
			Code:    code,
			Message: msg,
		},
	}
}

// WriteError — хелпер для HTTP-хендлеров.
// Пишет корректный статус/тело, добавляет request_id из заголовка, если он есть.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status, resp := ToHTTP(err)

	// Прокидываем request_id, чтобы клиент мог репортить проблемы с привязкой.
	if rid := r.Header.Get("X-Request-Id"); rid != "" {
		resp.Error.RequestID = rid
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// base — маппинг ошибок на HTTP-статус/код/сообщение.
// Таблица учитывает реальную семантику операций:
//   - структурные дефекты токена и ссылки на запись -> 400;
//   - отсутствие аутентификации -> 401, чужая запись -> 403;
//   - неизвестный токен/запись -> 404;
//   - конфликт повторной операции (already_used/already_revoked) -> 409;
//   - токен более не действителен (expired/revoked) -> 410;
//   - Canceled -> 499 (клиент закрыл соединение), DeadlineExceeded -> 504;
//   - прочее -> 500/internal.
func base(err error) (int, string, string) {
	switch {
	case err == nil:
		return http.StatusInternalServerError, "internal", "internal error"
	case stderrors.Is(err, service.ErrMalformedToken):
		return http.StatusBadRequest, "malformed_token", "malformed token"
	case stderrors.Is(err, service.ErrInvalidSignature):
		return http.StatusBadRequest, "invalid_signature", "invalid token signature"
	case stderrors.Is(err, service.ErrInvalidEntityRef):
		return http.StatusBadRequest, "invalid_entity_ref", "invalid entity reference"
	case stderrors.Is(err, ErrInvalidArgument):
		return http.StatusBadRequest, "invalid_argument", "invalid argument"
	case stderrors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized, "unauthenticated", "unauthenticated"
	case stderrors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, "forbidden", "forbidden"
	case stderrors.Is(err, service.ErrTokenNotFound):
		return http.StatusNotFound, "not_found", "token not found"
	case stderrors.Is(err, service.ErrEntityNotFound):
		return http.StatusNotFound, "entity_not_found", "entity not found"
	case stderrors.Is(err, service.ErrTokenAlreadyUsed):
		return http.StatusConflict, "already_used", "token already used"
	case stderrors.Is(err, service.ErrTokenAlreadyRevoked):
		return http.StatusConflict, "already_revoked", "token already revoked"
	case stderrors.Is(err, service.ErrTokenExpired):
		return http.StatusGone, "expired", "token expired"
	case stderrors.Is(err, service.ErrTokenRevoked):
		return http.StatusGone, "revoked", "token revoked"
	case stderrors.Is(err, context.Canceled):
		return StatusClientClosedRequest, "canceled", "canceled"
	case stderrors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "deadline_exceeded", "deadline exceeded"
	default:
		return http.StatusInternalServerError, "internal", "internal error"
	}
}
