package entitlement

// Verdict итог проверки допуска.
type Verdict string

// Возможные итоги: действие разрешено, требуется оплата, отказ.
const (
	VerdictAllow          Verdict = "allow"
	VerdictRequirePayment Verdict = "require_payment"
	VerdictDeny           Verdict = "deny"
)

// Коды причин для ответов RequirePayment и Deny.
const (
	ReasonSubscriptionExpired = "SUBSCRIPTION_EXPIRED"
	ReasonLimitReached        = "LIMIT_REACHED"
	ReasonSuspended           = "SUSPENDED"
)

// Decision решение шлюза по паре (аккаунт, действие). Для RequirePayment
// заполнены сумма и тип платежа, достаточные для платёжного промпта;
// для Deny — только код причины.
type Decision struct {
	Verdict     Verdict `json:"verdict"`
	Amount      int64   `json:"amount,omitempty"`
	PaymentType string  `json:"payment_type,omitempty"`
	Reason      string  `json:"reason,omitempty"`
}

// Allowed сообщает, разрешено ли действие.
func (d Decision) Allowed() bool {
	return d.Verdict == VerdictAllow
}

func allow() Decision {
	return Decision{Verdict: VerdictAllow}
}

func requirePayment(amount int64, paymentType, reason string) Decision {
	return Decision{
		Verdict:     VerdictRequirePayment,
		Amount:      amount,
		PaymentType: paymentType,
		Reason:      reason,
	}
}

func deny(reason string) Decision {
	return Decision{Verdict: VerdictDeny, Reason: reason}
}
