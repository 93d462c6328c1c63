package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"

	"github.com/pharmgate/qrtoken-service/internal/models"
	"github.com/pharmgate/qrtoken-service/mocks"
)

// Файл unit-тестов для доставки аудита (audit.go).
//
// Покрываем:
//  - повторные попытки доставки до успеха (at-least-once);
//  - синхронный fallback при заполненной очереди — события не теряются;
//  - проставление горизонта хранения (ExpireAt = At + retention);
//  - маппинг ошибок операций в коды исходов.

func silentLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func closePump(t *testing.T, p *auditPump) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	require.NoError(t, p.Close(ctx))
}

func TestAuditPump_RetriesUntilDelivered(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	sink := mocks.NewMockAuditStorage(ctrl)

	boom := errors.New("audit store unavailable")
	gomock.InOrder(
		sink.EXPECT().AppendAuditEvent(gomock.Any(), gomock.Any()).Return(boom),
		sink.EXPECT().AppendAuditEvent(gomock.Any(), gomock.Any()).Return(boom),
		sink.EXPECT().AppendAuditEvent(gomock.Any(), gomock.Any()).Return(nil),
	)

	p := newAuditPump(sink, time.Hour, 4, silentLogger())

	p.Emit(models.AuditEvent{Action: models.AuditActionRedeem, Outcome: "success"})

	closePump(t, p)
}

func TestAuditPump_SyncFallbackWhenQueueFull(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	sink := mocks.NewMockAuditStorage(ctrl)

	started := make(chan struct{})
	release := make(chan struct{})

	var mu sync.Mutex
	var delivered []string

	sink.EXPECT().
		AppendAuditEvent(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, ev *models.AuditEvent) error {
			if ev.Detail == "first" {
				close(started)
				<-release
			}

			mu.Lock()
			delivered = append(delivered, ev.Detail)
			mu.Unlock()

			return nil
		}).
		Times(3)

	p := newAuditPump(sink, time.Hour, 1, silentLogger())

	// Воркер забирает первое событие и зависает в доставке.
	p.Emit(models.AuditEvent{Action: models.AuditActionIssue, Detail: "first"})
	<-started

	// Второе занимает единственный слот очереди.
	p.Emit(models.AuditEvent{Action: models.AuditActionIssue, Detail: "second"})

	// Третьему места нет: доставка происходит синхронно в этой горутине.
	p.Emit(models.AuditEvent{Action: models.AuditActionIssue, Detail: "third"})

	mu.Lock()
	require.Contains(t, delivered, "third")
	require.NotContains(t, delivered, "first")
	mu.Unlock()

	close(release)
	closePump(t, p)

	mu.Lock()
	require.ElementsMatch(t, []string{"first", "second", "third"}, delivered)
	mu.Unlock()
}

func TestAuditPump_SetsRetentionHorizon(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	sink := mocks.NewMockAuditStorage(ctrl)

	var got []models.AuditEvent
	sink.EXPECT().
		AppendAuditEvent(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, ev *models.AuditEvent) error {
			got = append(got, *ev)
			return nil
		}).
		Times(2)

	p := newAuditPump(sink, 48*time.Hour, 4, silentLogger())

	at := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	p.Emit(models.AuditEvent{Action: models.AuditActionIssue, At: at})

	// Нулевое время события заполняется моментом постановки в очередь.
	p.Emit(models.AuditEvent{Action: models.AuditActionRevoke})

	closePump(t, p)

	require.Len(t, got, 2)

	require.Equal(t, at, got[0].At)
	require.Equal(t, at.Add(48*time.Hour), got[0].ExpireAt)

	require.WithinDuration(t, time.Now().UTC(), got[1].At, 5*time.Second)
	require.Equal(t, got[1].At.Add(48*time.Hour), got[1].ExpireAt)
}

func TestOutcomeFromError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: "success"},
		{name: "malformed", err: ErrMalformedToken, want: "malformed_token"},
		{name: "invalid_signature", err: ErrInvalidSignature, want: "invalid_signature"},
		{name: "not_found", err: ErrTokenNotFound, want: "not_found"},
		{name: "expired_wrapped", err: fmt.Errorf("service.token.RedeemToken: %w", ErrTokenExpired), want: "expired"},
		{name: "already_used", err: ErrTokenAlreadyUsed, want: "already_used"},
		{name: "revoked", err: ErrTokenRevoked, want: "revoked"},
		{name: "already_revoked", err: ErrTokenAlreadyRevoked, want: "already_revoked"},
		{name: "entity_not_found", err: ErrEntityNotFound, want: "entity_not_found"},
		{name: "forbidden", err: ErrForbidden, want: "forbidden"},
		{name: "invalid_entity_ref", err: ErrInvalidEntityRef, want: "invalid_entity_ref"},
		{name: "collision", err: ErrTokenCollision, want: "collision"},
		{name: "canceled", err: context.Canceled, want: "canceled"},
		{name: "deadline", err: context.DeadlineExceeded, want: "timeout"},
		{name: "unknown", err: errors.New("connection reset"), want: "internal_error"},
	}

	for _, tc := range tests {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			require.Equal(t, tc.want, outcomeFromError(tc.err))
		})
	}
}
