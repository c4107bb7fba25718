// Package day содержит функции для работы с календарным днём квоты.
// День считается по UTC: ключ дня, срок жизни записи квоты и время до
// сброса лимита выводятся из одного и того же представления.
package day

import "time"

// recordTTL срок жизни записи квоты. Запись должна пережить границу дня
// с запасом на часовые пояса, поэтому два дня, а не один.
const recordTTL = 48 * time.Hour

// Key возвращает ключ календарного дня в формате "2006-01-02" по UTC.
func Key(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// RecordTTL возвращает срок жизни записи квоты в хранилище.
func RecordTTL() time.Duration {
	return recordTTL
}

// UntilReset возвращает время, оставшееся до начала следующего дня по UTC,
// то есть до сброса дневного лимита.
func UntilReset(t time.Time) time.Duration {
	utc := t.UTC()
	next := time.Date(utc.Year(), utc.Month(), utc.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
	return next.Sub(utc)
}
