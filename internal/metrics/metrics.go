// Package metrics объявляет Prometheus-метрики qrtoken-сервиса.
//
// Метрики регистрируются в глобальном реестре при импорте пакета и
// отдаются наружу через promhttp на ops-порту.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// IssuedTotal — выпуск токенов по исходам (success, entity_not_found, ...).
	IssuedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qrtoken_issued_total",
			Help: "Total number of token issue operations by outcome",
		},
		[]string{"outcome"},
	)

	// RedemptionsTotal — попытки погашения по исходам (success, expired,
	// already_used, invalid_signature, ...).
	RedemptionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qrtoken_redemptions_total",
			Help: "Total number of token redemption attempts by outcome",
		},
		[]string{"outcome"},
	)

	// RevocationsTotal — отзывы токенов по исходам.
	RevocationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qrtoken_revocations_total",
			Help: "Total number of token revocation attempts by outcome",
		},
		[]string{"outcome"},
	)

	// AuditRetriesTotal — повторные попытки доставки событий аудита.
	AuditRetriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "qrtoken_audit_retries_total",
			Help: "Total number of audit event delivery retries",
		},
	)

	// AuditDroppedTotal — события аудита, потерянные после исчерпания
	// всех попыток доставки. В норме метрика не растёт.
	AuditDroppedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "qrtoken_audit_dropped_total",
			Help: "Total number of audit events dropped after delivery retries were exhausted",
		},
	)

	// AuditQueueDepth — текущая глубина очереди событий аудита.
	AuditQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "qrtoken_audit_queue_depth",
			Help: "Current depth of the audit event queue",
		},
	)

	// JanitorDeletedTotal — записи токенов, удалённые фоновой очисткой.
	JanitorDeletedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "qrtoken_janitor_deleted_total",
			Help: "Total number of stale token records removed by the janitor",
		},
	)
)

func init() {
	prometheus.MustRegister(
		IssuedTotal,
		RedemptionsTotal,
		RevocationsTotal,
		AuditRetriesTotal,
		AuditDroppedTotal,
		AuditQueueDepth,
		JanitorDeletedTotal,
	)
}
