// Package redact содержит помощники для безопасного вывода чувствительных
// значений в логи и сообщения об ошибках.
//
// Сырой токен — одноразовый секрет на предъявителя: в журналы он не попадает
// ни целиком, ни частично. Для корреляции записей используется префикс
// хэша токена — он односторонний и сам по себе секретом не является.
package redact

// Token возвращает строку-заглушку вместо значения токена.
func Token() string {
	return "[REDACTED_TOKEN]"
}

// Hash возвращает короткий префикс хэша токена для корреляции логов
// с журналом аудита. Полный хэш в логах избыточен.
func Hash(hash string) string {
	const visible = 12

	if len(hash) <= visible {
		return hash
	}

	return hash[:visible] + "..."
}
