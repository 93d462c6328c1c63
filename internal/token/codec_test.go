package token

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// Файл unit-тестов кодека токена:
// - обратимость encode/decode и устойчивость границ сегментов;
// - полный набор структурных дефектов -> ErrMalformedToken;
// - URL-safe алфавит представления и хэша.

func validPayload(t *testing.T) (Payload, []byte) {
	t.Helper()

	p, err := NewPayload("prescription", "rx-105", uuid.New(), time.Now())
	require.NoError(t, err)

	b, err := p.Marshal()
	require.NoError(t, err)

	return p, b
}

// TestCodec_RoundTrip — decode(encode(p, sig)) возвращает исходные payload,
// байты payload и подпись.
func TestCodec_RoundTrip(t *testing.T) {
	t.Parallel()

	p, payloadBytes := validPayload(t)
	sig := make([]byte, sigLen)
	for i := range sig {
		sig[i] = byte(i)
	}

	encoded := Encode(payloadBytes, sig)

	got, gotBytes, gotSig, err := Decode(encoded)
	require.NoError(t, err)
	require.Equal(t, p, got)
	require.Equal(t, payloadBytes, gotBytes)
	require.Equal(t, sig, gotSig)
}

// TestCodec_URLSafe — токен и хэш не содержат символов за пределами
// URL-safe алфавита (важно для QR и query-параметров).
func TestCodec_URLSafe(t *testing.T) {
	t.Parallel()

	_, payloadBytes := validPayload(t)
	sig := make([]byte, sigLen)
	encoded := Encode(payloadBytes, sig)

	const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_."
	for _, r := range encoded {
		require.Contains(t, alphabet, string(r))
	}

	for _, r := range Hash(encoded) {
		require.Contains(t, alphabet, string(r))
	}
}

// TestCodec_IssuedAtSecondPrecision — время выпуска в payload хранится
// с точностью до секунды в UTC.
func TestCodec_IssuedAtSecondPrecision(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 14, 15, 9, 26, 535_000_000, time.UTC)
	p, err := NewPayload("prescription", "rx-1", uuid.New(), now)
	require.NoError(t, err)

	require.Equal(t, now.Truncate(time.Second), p.IssuedTime())
	require.Equal(t, time.UTC, p.IssuedTime().Location())
}

// TestDecode_Malformed — структурные дефекты дают ErrMalformedToken,
// а не ошибку подписи.
func TestDecode_Malformed(t *testing.T) {
	t.Parallel()

	_, payloadBytes := validPayload(t)
	sig := make([]byte, sigLen)
	valid := Encode(payloadBytes, sig)

	rawPayload := base64.RawURLEncoding.EncodeToString(payloadBytes)
	rawSig := base64.RawURLEncoding.EncodeToString(sig)

	shortNoncePayload, err := Payload{
		EntityType: "prescription",
		EntityID:   "rx-1",
		IssuedBy:   uuid.New().String(),
		IssuedAt:   time.Now().Unix(),
		Nonce:      base64.RawURLEncoding.EncodeToString([]byte("short")),
	}.Marshal()
	require.NoError(t, err)

	emptyEntityPayload, err := Payload{
		EntityType: "",
		EntityID:   "rx-1",
		IssuedBy:   uuid.New().String(),
		IssuedAt:   time.Now().Unix(),
		Nonce:      base64.RawURLEncoding.EncodeToString(make([]byte, NonceLen)),
	}.Marshal()
	require.NoError(t, err)

	badIssuerPayload, err := Payload{
		EntityType: "prescription",
		EntityID:   "rx-1",
		IssuedBy:   "not-a-uuid",
		IssuedAt:   time.Now().Unix(),
		Nonce:      base64.RawURLEncoding.EncodeToString(make([]byte, NonceLen)),
	}.Marshal()
	require.NoError(t, err)

	cases := []struct {
		name string
		in   string
	}{
		{"empty", ""},
		{"garbage", "not-a-token"},
		{"wrong_prefix", "qrt0." + rawPayload + "." + rawSig},
		{"two_segments", Prefix + "." + rawPayload},
		{"four_segments", valid + ".extra"},
		{"bad_payload_base64", Prefix + ".%%%." + rawSig},
		{"bad_sig_base64", Prefix + "." + rawPayload + ".%%%"},
		{"sig_wrong_len", Prefix + "." + rawPayload + "." + base64.RawURLEncoding.EncodeToString([]byte("short"))},
		{"payload_not_json", Prefix + "." + base64.RawURLEncoding.EncodeToString([]byte("{broken")) + "." + rawSig},
		{"empty_entity", Prefix + "." + base64.RawURLEncoding.EncodeToString(emptyEntityPayload) + "." + rawSig},
		{"bad_issuer", Prefix + "." + base64.RawURLEncoding.EncodeToString(badIssuerPayload) + "." + rawSig},
		{"short_nonce", Prefix + "." + base64.RawURLEncoding.EncodeToString(shortNoncePayload) + "." + rawSig},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, _, _, err := Decode(tc.in)
			require.Error(t, err)
			require.ErrorIs(t, err, ErrMalformedToken)
		})
	}
}

// TestDecode_TrimsWhitespace — внешние пробелы (скан QR часто добавляет
// перевод строки) не мешают разбору.
func TestDecode_TrimsWhitespace(t *testing.T) {
	t.Parallel()

	_, payloadBytes := validPayload(t)
	sig := make([]byte, sigLen)
	encoded := Encode(payloadBytes, sig)

	_, _, _, err := Decode("  " + encoded + "\n")
	require.NoError(t, err)
}

// TestHash_StableAndDistinct — хэш детерминирован и различает токены,
// отличающиеся одним символом.
func TestHash_StableAndDistinct(t *testing.T) {
	t.Parallel()

	_, payloadBytes := validPayload(t)
	sig := make([]byte, sigLen)
	encoded := Encode(payloadBytes, sig)

	require.Equal(t, Hash(encoded), Hash(encoded))
	require.NotEqual(t, Hash(encoded), Hash(strings.Replace(encoded, Prefix, "qrt2", 1)))
}

// TestNewPayload_NonceUnique — два payload подряд получают разные nonce.
func TestNewPayload_NonceUnique(t *testing.T) {
	t.Parallel()

	issuer := uuid.New()
	now := time.Now()

	p1, err := NewPayload("prescription", "rx-1", issuer, now)
	require.NoError(t, err)
	p2, err := NewPayload("prescription", "rx-1", issuer, now)
	require.NoError(t, err)

	require.NotEqual(t, p1.Nonce, p2.Nonce)
}
