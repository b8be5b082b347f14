// Package entitlement реализует контроль доступа к платным действиям реестра:
// шлюз квот (Gate), калькулятор подписки (Clock) и леджер платежей (Ledger).
//
// Решение о допуске действия — чистая функция от (тариф, счётчики, подписка,
// текущее время); время всегда передаётся явно. Единственный побочный эффект
// Evaluate — ленивый перенос счётчиков в новый календарный месяц.
package entitlement

import (
	"errors"
	"fmt"
)

// Action тип платного действия, охраняемого шлюзом.
type Action string

// Платные действия. Каждому соответствует независимый месячный счётчик.
const (
	ActionLookup     Action = "lookup"
	ActionTransfer   Action = "transfer"
	ActionAcceptance Action = "acceptance"
)

// ErrUnknownAction возвращается при неизвестном типе действия.
// Это ошибка программиста, а не бизнес-отказ.
var ErrUnknownAction = errors.New("unknown entitlement action")

// ParseAction проверяет и возвращает тип действия.
func ParseAction(s string) (Action, error) {
	switch Action(s) {
	case ActionLookup, ActionTransfer, ActionAcceptance:
		return Action(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAction, s)
}
