package handlers

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/pharmgate/qrtoken-service/internal/models"
	"github.com/pharmgate/qrtoken-service/internal/service"
	"github.com/pharmgate/qrtoken-service/internal/transport/http/middleware"
)

// Handlers агрегирует зависимости HTTP-хендлеров.
type Handlers struct {
	svc *service.Service
}

func New(svc *service.Service) *Handlers {
	return &Handlers{svc: svc}
}

// writeJSON — единый ответ JSON с нужным Content-Type.
// Ошибки выводим через apierrors.WriteError.
func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// decodeStrict — строгий JSON-декодер: запрещаем неизвестные поля.
func decodeStrict(r *http.Request, value any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(value)
}

// callerID достаёт идентификатор вызывающего, положенный middleware.Authn.
func callerID(r *http.Request) (uuid.UUID, bool) {
	return middleware.CallerID(r.Context())
}

// clientContext собирает контекст клиента для журнала аудита:
// IP — первый хоп X-Forwarded-For (сервис стоит за балансировщиком),
// иначе хост из RemoteAddr; устройство — User-Agent.
func clientContext(r *http.Request) models.ClientContext {
	ip := r.Header.Get("X-Forwarded-For")
	if ip != "" {
		if idx := strings.IndexByte(ip, ','); idx >= 0 {
			ip = ip[:idx]
		}
		ip = strings.TrimSpace(ip)
	} else {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		ip = host
	}

	return models.ClientContext{
		IP:     ip,
		Device: r.Header.Get("User-Agent"),
	}
}
