package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	apierrors "github.com/pharmgate/qrtoken-service/internal/errors"
	"github.com/pharmgate/qrtoken-service/internal/models"
)

// DTO HTTP-слоя. Временные поля — Unix UTC (int64), идентификаторы — строки.
// Сырой токен присутствует только в issueResponse.Token и в телах запросов;
// в списках и ответах погашения его нет.

type issueRequest struct {
	EntityType string `json:"entity_type"`
	EntityID   string `json:"entity_id"`
}

type issueResponse struct {
	Token     string `json:"token"`
	RecordID  string `json:"record_id"`
	ExpiresAt int64  `json:"expires_at"` // Unix UTC
}

type redeemRequest struct {
	Token string `json:"token"`
}

type redeemResponse struct {
	EntityType string `json:"entity_type"`
	EntityID   string `json:"entity_id"`
	IssuedBy   string `json:"issued_by"`
}

type revokeRequest struct {
	Token  string `json:"token"`
	Reason string `json:"reason,omitempty"`
}

type revokeResponse struct {
	Revoked bool `json:"revoked"`
}

type tokenView struct {
	RecordID           string `json:"record_id"`
	EntityType         string `json:"entity_type"`
	EntityID           string `json:"entity_id"`
	IssuedBy           string `json:"issued_by"`
	Status             string `json:"status"`
	IssuedAt           int64  `json:"issued_at"`  // Unix UTC
	ExpiresAt          int64  `json:"expires_at"` // Unix UTC
	UsedAt             *int64 `json:"used_at,omitempty"`
	UsedBy             string `json:"used_by,omitempty"`
	RevokedAt          *int64 `json:"revoked_at,omitempty"`
	RevokedBy          string `json:"revoked_by,omitempty"`
	RevocationReason   string `json:"revocation_reason,omitempty"`
	ValidationAttempts int64  `json:"validation_attempts"`
}

type listTokensResponse struct {
	Tokens []tokenView `json:"tokens"`
}

type historyRequest struct {
	Token string `json:"token"`
}

type auditEventView struct {
	Action  string `json:"action"`
	Outcome string `json:"outcome"`
	Actor   string `json:"actor"`
	IP      string `json:"ip,omitempty"`
	Device  string `json:"device,omitempty"`
	Detail  string `json:"detail,omitempty"`
	At      int64  `json:"at"` // Unix UTC
}

type historyResponse struct {
	Events []auditEventView `json:"events"`
}

// IssueToken — POST /tokens: выпуск одноразового QR-токена на медицинскую запись.
func (h *Handlers) IssueToken(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(r)
	if !ok {
		apierrors.WriteError(w, r, apierrors.ErrUnauthenticated)
		return
	}

	var in issueRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, apierrors.ErrInvalidArgument)
		return
	}

	issued, err := h.svc.IssueToken(r.Context(), in.EntityType, in.EntityID, caller, clientContext(r))
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, issueResponse{
		Token:     issued.Token,
		RecordID:  issued.RecordID.String(),
		ExpiresAt: issued.ExpiresAt.UTC().Unix(),
	})
}

// RedeemToken — POST /tokens/redeem: одноразовое погашение предъявленного токена.
func (h *Handlers) RedeemToken(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(r)
	if !ok {
		apierrors.WriteError(w, r, apierrors.ErrUnauthenticated)
		return
	}

	var in redeemRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, apierrors.ErrInvalidArgument)
		return
	}

	binding, err := h.svc.RedeemToken(r.Context(), in.Token, caller, clientContext(r))
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, redeemResponse{
		EntityType: binding.EntityType,
		EntityID:   binding.EntityID,
		IssuedBy:   binding.IssuedBy.String(),
	})
}

// RevokeToken — POST /tokens/revoke: досрочный отзыв выпущенного токена.
func (h *Handlers) RevokeToken(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(r)
	if !ok {
		apierrors.WriteError(w, r, apierrors.ErrUnauthenticated)
		return
	}

	var in revokeRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, apierrors.ErrInvalidArgument)
		return
	}

	if err := h.svc.RevokeToken(r.Context(), in.Token, caller, in.Reason, clientContext(r)); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, revokeResponse{Revoked: true})
}

// TokenHistory — POST /tokens/history: журнал попыток по предъявленному
// токену, доступен только выпустившему. Токен передаётся в теле, а не в URL,
// чтобы не оседать в журналах доступа.
func (h *Handlers) TokenHistory(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(r)
	if !ok {
		apierrors.WriteError(w, r, apierrors.ErrUnauthenticated)
		return
	}

	var in historyRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, apierrors.ErrInvalidArgument)
		return
	}

	events, err := h.svc.TokenAuditTrail(r.Context(), in.Token, caller)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	views := make([]auditEventView, 0, len(events))
	for i := range events {
		views = append(views, toAuditEventView(&events[i]))
	}

	writeJSON(w, http.StatusOK, historyResponse{Events: views})
}

// ListEntityTokens — GET /entities/{entity_type}/{entity_id}/tokens:
// история выпусков по записи, доступна только её владельцу.
func (h *Handlers) ListEntityTokens(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(r)
	if !ok {
		apierrors.WriteError(w, r, apierrors.ErrUnauthenticated)
		return
	}

	entityType := chi.URLParam(r, "entity_type")
	entityID := chi.URLParam(r, "entity_id")

	records, err := h.svc.EntityTokens(r.Context(), entityType, entityID, caller)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	// len==0 -> "tokens": [] (не null).
	views := make([]tokenView, 0, len(records))
	for i := range records {
		views = append(views, toTokenView(&records[i]))
	}

	writeJSON(w, http.StatusOK, listTokensResponse{Tokens: views})
}

func toTokenView(r *models.TokenRecord) tokenView {
	return tokenView{
		RecordID:           r.ID.String(),
		EntityType:         r.EntityType,
		EntityID:           r.EntityID,
		IssuedBy:           r.IssuedBy.String(),
		Status:             string(r.Status),
		IssuedAt:           r.IssuedAt.UTC().Unix(),
		ExpiresAt:          r.ExpiresAt.UTC().Unix(),
		UsedAt:             unixPtr(r.UsedAt),
		UsedBy:             uuidStr(r.UsedBy),
		RevokedAt:          unixPtr(r.RevokedAt),
		RevokedBy:          uuidStr(r.RevokedBy),
		RevocationReason:   r.RevocationReason,
		ValidationAttempts: r.ValidationAttempts,
	}
}

func toAuditEventView(ev *models.AuditEvent) auditEventView {
	return auditEventView{
		Action:  ev.Action,
		Outcome: ev.Outcome,
		Actor:   ev.Actor.String(),
		IP:      ev.IP,
		Device:  ev.Device,
		Detail:  ev.Detail,
		At:      ev.At.UTC().Unix(),
	}
}

func unixPtr(t *time.Time) *int64 {
	if t == nil {
		return nil
	}

	v := t.UTC().Unix()
	return &v
}

func uuidStr(u *uuid.UUID) string {
	if u == nil {
		return ""
	}

	return u.String()
}
