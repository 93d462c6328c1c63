// Package token реализует криптографическое ядро QR-токенов:
// подпись HMAC-SHA256 над каноничным payload и обратимое URL-safe
// кодирование/декодирование строкового представления.
//
// Пакет не знает о хранилище и транспорте; единственное состояние —
// ключ подписи внутри Signer.
package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/hkdf"
)

// MinSecretLen — минимальная длина секрета подписи в байтах.
const MinSecretLen = 32

// hkdfInfo — метка контекста при выводе ключа подписи из секрета.
// Меняется вместе с версией формата токена.
const hkdfInfo = "qrtoken/sign/v1"

var (
	// ErrSecretTooShort — секрет подписи короче MinSecretLen.
	ErrSecretTooShort = errors.New("signing secret is too short")
	// ErrSecretPlaceholder — секрет подписи совпадает с заглушкой из примеров
	// конфигурации и не годится для работы.
	ErrSecretPlaceholder = errors.New("signing secret looks like a placeholder")
)

// placeholderMarkers — подстроки, выдающие незаполненный секрет.
var placeholderMarkers = []string{
	"change-me",
	"changeme",
	"placeholder",
	"insecure",
	"dev-secret",
}

// Signer подписывает каноничный payload токена.
// Ключ выводится из секрета один раз при создании и далее неизменен;
// экземпляр безопасен для конкурентного использования.
type Signer struct {
	key []byte
}

// NewSigner проверяет секрет и выводит из него ключ подписи через HKDF-SHA256,
// чтобы сырой секрет не использовался как MAC-ключ напрямую.
// Ошибка здесь означает, что сервис не должен стартовать.
func NewSigner(secret []byte) (*Signer, error) {
	const op = "token.NewSigner"

	if len(secret) < MinSecretLen {
		return nil, fmt.Errorf("%s: %w", op, ErrSecretTooShort)
	}

	low := strings.ToLower(string(secret))
	for _, marker := range placeholderMarkers {
		if strings.Contains(low, marker) {
			return nil, fmt.Errorf("%s: %w", op, ErrSecretPlaceholder)
		}
	}

	key := make([]byte, sha256.Size)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, nil, []byte(hkdfInfo)), key); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Signer{key: key}, nil
}

// Sign возвращает HMAC-SHA256 подпись payload (полные 32 байта).
func (s *Signer) Sign(payload []byte) []byte {
	mac := hmac.New(sha256.New, s.key)
	mac.Write(payload)

	return mac.Sum(nil)
}

// Verify проверяет подпись payload. Сравнение выполняется за константное
// время, чтобы исключить тайминговые атаки на подбор подписи.
func (s *Signer) Verify(payload, sig []byte) bool {
	return hmac.Equal(sig, s.Sign(payload))
}
