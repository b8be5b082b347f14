// Package period содержит чистые функции для работы с календарными периодами
// учёта использования. Период — один календарный месяц; ключ периода имеет вид
// "2006-01". Все функции принимают время явно, без обращения к системным часам.
package period

import "time"

// Layout формат ключа периода (год-месяц).
const Layout = "2006-01"

// Key возвращает ключ календарного месяца для момента now.
func Key(now time.Time) string {
	return now.UTC().Format(Layout)
}

// AddMonth возвращает момент ровно через один расчётный период (месяц) после t.
func AddMonth(t time.Time) time.Time {
	return t.AddDate(0, 1, 0)
}

// StartOfMonth возвращает начало календарного месяца, в который попадает now.
func StartOfMonth(now time.Time) time.Time {
	y, m, _ := now.UTC().Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

// StartOfDay возвращает начало суток, в которые попадает now.
func StartOfDay(now time.Time) time.Time {
	y, m, d := now.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
