package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/pharmgate/qrtoken-service/internal/metrics"
	"github.com/pharmgate/qrtoken-service/internal/models"
	"github.com/pharmgate/qrtoken-service/internal/pkg/redact"
	"github.com/pharmgate/qrtoken-service/internal/storage"
)

// Параметры доставки журнала аудита.
const (
	defaultAuditQueueSize = 256

	auditAttemptTimeout = 5 * time.Second
	auditInitialBackoff = 100 * time.Millisecond
	auditMaxBackoff     = 5 * time.Second
	auditMaxElapsed     = 30 * time.Second
)

// auditPump доставляет события аудита в хранилище, не блокируя горячий путь.
// Семантика at-least-once: событие либо уходит в очередь фонового воркера,
// либо — при заполненной очереди — доставляется синхронно в вызывающей
// горутине. Молча события не теряются; исчерпание повторов доставки
// логируется и учитывается в метрике потерь.
type auditPump struct {
	sink      storage.AuditStorage
	retention time.Duration
	log       *slog.Logger

	queue chan models.AuditEvent

	wg        sync.WaitGroup
	closeOnce sync.Once
}

func newAuditPump(sink storage.AuditStorage, retention time.Duration, queueSize int, log *slog.Logger) *auditPump {
	p := &auditPump{
		sink:      sink,
		retention: retention,
		log:       log,
		queue:     make(chan models.AuditEvent, queueSize),
	}

	p.wg.Add(1)
	go p.run()

	return p
}

// Emit ставит событие в очередь доставки. При заполненной очереди событие
// доставляется синхронно: журнал аудита важнее латентности отдельного запроса.
func (p *auditPump) Emit(ev models.AuditEvent) {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	ev.ExpireAt = ev.At.Add(p.retention)

	select {
	case p.queue <- ev:
		metrics.AuditQueueDepth.Set(float64(len(p.queue)))
	default:
		p.deliver(ev)
	}
}

func (p *auditPump) run() {
	defer p.wg.Done()

	for ev := range p.queue {
		metrics.AuditQueueDepth.Set(float64(len(p.queue)))
		p.deliver(ev)
	}
}

// deliver пишет событие с повторами и ограниченной экспоненциальной задержкой.
// Доставка не привязана к контексту запроса: событие переживает отмену
// вызова, который его породил.
func (p *auditPump) deliver(ev models.AuditEvent) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = auditInitialBackoff
	bo.MaxInterval = auditMaxBackoff
	bo.MaxElapsedTime = auditMaxElapsed

	operation := func() error {
		ctx, cancel := context.WithTimeout(context.Background(), auditAttemptTimeout)
		defer cancel()

		return p.sink.AppendAuditEvent(ctx, &ev)
	}

	notify := func(err error, next time.Duration) {
		metrics.AuditRetriesTotal.Inc()
		p.log.Warn("audit delivery retry",
			slog.String("action", ev.Action),
			slog.String("outcome", ev.Outcome),
			slog.Duration("next_in", next),
			slog.String("err", err.Error()),
		)
	}

	if err := backoff.RetryNotify(operation, bo, notify); err != nil {
		metrics.AuditDroppedTotal.Inc()
		p.log.Error("audit event lost after retries",
			slog.String("action", ev.Action),
			slog.String("outcome", ev.Outcome),
			slog.String("token_hash", redact.Hash(ev.TokenHash)),
			slog.String("err", err.Error()),
		)
	}
}

// Close останавливает приём новых событий и дожидается доставки накопленной
// очереди в пределах ctx.
func (p *auditPump) Close(ctx context.Context) error {
	p.closeOnce.Do(func() { close(p.queue) })

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// emit завершает событие аудита исходом операции и передаёт его в доставку.
// Вызывается из defer каждой операции: ни один ранний return не обходит
// журнал. Здесь же инкрементируются счётчики исходов.
func (s *Service) emit(ev *models.AuditEvent, err error) {
	ev.Outcome = outcomeFromError(err)

	switch ev.Action {
	case models.AuditActionIssue:
		metrics.IssuedTotal.WithLabelValues(ev.Outcome).Inc()
	case models.AuditActionRedeem:
		metrics.RedemptionsTotal.WithLabelValues(ev.Outcome).Inc()
	case models.AuditActionRevoke:
		metrics.RevocationsTotal.WithLabelValues(ev.Outcome).Inc()
	}

	s.audit.Emit(*ev)
}

// outcomeFromError переводит ошибку операции в стабильный машиночитаемый
// код исхода для журнала аудита и метрик.
func outcomeFromError(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrMalformedToken):
		return "malformed_token"
	case errors.Is(err, ErrInvalidSignature):
		return "invalid_signature"
	case errors.Is(err, ErrTokenNotFound):
		return "not_found"
	case errors.Is(err, ErrTokenExpired):
		return "expired"
	case errors.Is(err, ErrTokenAlreadyUsed):
		return "already_used"
	case errors.Is(err, ErrTokenRevoked):
		return "revoked"
	case errors.Is(err, ErrTokenAlreadyRevoked):
		return "already_revoked"
	case errors.Is(err, ErrEntityNotFound):
		return "entity_not_found"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrInvalidEntityRef):
		return "invalid_entity_ref"
	case errors.Is(err, ErrTokenCollision):
		return "collision"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "internal_error"
	}
}
