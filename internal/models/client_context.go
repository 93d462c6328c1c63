package models

// ClientContext — сведения о клиенте, переданные транспортом для аудита.
// Используются только в журнале и полях происхождения записи; никакие
// решения авторизации на них не опираются.
type ClientContext struct {
	IP     string
	Device string
}
