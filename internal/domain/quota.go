package domain

import "time"

// DenialKind класс отказа, отличимый клиентом
type DenialKind string

const (
	DenialLimitReached    DenialKind = "limit_reached"
	DenialUpgradeRequired DenialKind = "upgrade_required"
	DenialDailyGateUsed   DenialKind = "daily_gate_used"
	DenialChatLimit       DenialKind = "chat_limit"
)

// ReasonCode ключ локализованного текста причины
type ReasonCode string

const (
	ReasonLimitDay      ReasonCode = "limit_day"
	ReasonLimitOne      ReasonCode = "limit_one"
	ReasonLimitThree    ReasonCode = "limit_three"
	ReasonBasicRequired ReasonCode = "basic_required"
	ReasonChatLimit     ReasonCode = "chat_limit"
	ReasonChatMax       ReasonCode = "chat_max"
)

// Kind класс отказа по коду причины
func (r ReasonCode) Kind() DenialKind {
	switch r {
	case ReasonLimitDay:
		return DenialDailyGateUsed
	case ReasonBasicRequired:
		return DenialUpgradeRequired
	case ReasonChatLimit, ReasonChatMax:
		return DenialChatLimit
	default:
		return DenialLimitReached
	}
}

// ConsumptionSource чем оплачивается разрешённое действие
type ConsumptionSource string

const (
	SourceNone    ConsumptionSource = ""
	SourceDayGate ConsumptionSource = "day_gate"
	SourceCredit  ConsumptionSource = "credit"
	SourceCounter ConsumptionSource = "counter"
	SourceWelcome ConsumptionSource = "welcome"
)

// TierLimits дневные лимиты тарифа
type TierLimits struct {
	Day          int
	One          int
	Three        int
	ChatTurns    int
	WelcomeThree bool // three для free доступен только как разовый welcome
}

var tierLimits = map[Tier]TierLimits{
	TierFree:  {Day: 1, One: 1, Three: 0, ChatTurns: 3, WelcomeThree: true},
	TierBasic: {Day: 1, One: 2, Three: 1, ChatTurns: 10},
	TierMax:   {Day: 1, One: 3, Three: 3, ChatTurns: 20},
}

// LimitsFor лимиты тарифа, неизвестный тариф = free
func LimitsFor(t Tier) TierLimits {
	return tierLimits[t.Normalize()]
}

// QuotaFacts факты из таблицы readings, на которых основано решение
type QuotaFacts struct {
	DayReadingsToday     int
	ThreeReadingsAllTime int
}

// Decision результат проверки квоты
type Decision struct {
	Allow  bool
	Spread SpreadType
	Source ConsumptionSource
	Reason ReasonCode
}

// Denied отказ с кодом причины
func Denied(spread SpreadType, reason ReasonCode) Decision {
	return Decision{Allow: false, Spread: spread, Reason: reason}
}

// DateOnly обрезает время до календарного дня UTC
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SameDay true, если date указывает на тот же календарный день UTC
func SameDay(date *time.Time, today time.Time) bool {
	if date == nil {
		return false
	}
	return DateOnly(*date).Equal(DateOnly(today))
}

// ResetIfNewDay обнуляет дневные счётчики при смене календарного дня.
// Возвращает копию пользователя и признак того, что сброс был.
func ResetIfNewDay(u User, today time.Time) (User, bool) {
	if SameDay(u.LastReadingDate, today) {
		return u, false
	}
	day := DateOnly(today)
	u.DailyOneCardCount = 0
	u.DailyThreeCardCount = 0
	u.LastReadingDate = &day
	return u, true
}

// Decide чистая функция допуска. Пользователь должен быть уже после ResetIfNewDay.
// Порядок: day gate, купленные кредиты, лимиты тарифа.
func Decide(u User, spread SpreadType, facts QuotaFacts) Decision {
	tier := u.Tier.Normalize()
	limits := LimitsFor(tier)

	switch spread {
	case SpreadDay:
		if facts.DayReadingsToday >= limits.Day {
			return Denied(spread, ReasonLimitDay)
		}
		return Decision{Allow: true, Spread: spread, Source: SourceDayGate}

	case SpreadOne:
		if u.FreeReadingsOne > 0 {
			return Decision{Allow: true, Spread: spread, Source: SourceCredit}
		}
		if u.DailyOneCardCount < limits.One {
			return Decision{Allow: true, Spread: spread, Source: SourceCounter}
		}
		return Denied(spread, ReasonLimitOne)

	case SpreadThree:
		if u.FreeReadingsThree > 0 {
			return Decision{Allow: true, Spread: spread, Source: SourceCredit}
		}
		if limits.WelcomeThree {
			if facts.ThreeReadingsAllTime == 0 {
				return Decision{Allow: true, Spread: spread, Source: SourceWelcome}
			}
			return Denied(spread, ReasonBasicRequired)
		}
		if u.DailyThreeCardCount < limits.Three {
			return Decision{Allow: true, Spread: spread, Source: SourceCounter}
		}
		return Denied(spread, ReasonLimitThree)
	}

	return Denied(spread, ReasonLimitOne)
}

// RecordConsumption применяет разрешённое решение к пользователю.
// Для отказа пользователь возвращается без изменений.
func RecordConsumption(u User, d Decision, today time.Time) User {
	if !d.Allow {
		return u
	}

	day := DateOnly(today)
	switch d.Source {
	case SourceDayGate:
		u.LastDailyReadingDate = &day
	case SourceCredit:
		if d.Spread == SpreadOne && u.FreeReadingsOne > 0 {
			u.FreeReadingsOne--
		}
		if d.Spread == SpreadThree && u.FreeReadingsThree > 0 {
			u.FreeReadingsThree--
		}
	case SourceCounter, SourceWelcome:
		if d.Spread == SpreadOne {
			u.DailyOneCardCount++
		}
		if d.Spread == SpreadThree {
			u.DailyThreeCardCount++
		}
		u.LastReadingDate = &day
	}
	return u
}

// ChatTurnLimit максимум реплик пользователя на один расклад
func ChatTurnLimit(t Tier) int {
	return LimitsFor(t).ChatTurns
}

// DecideChatTurn проверка лимита чата по истории реплик
func DecideChatTurn(t Tier, history []ChatTurn) Decision {
	tier := t.Normalize()
	if CountUserTurns(history) < ChatTurnLimit(tier) {
		return Decision{Allow: true, Source: SourceNone}
	}
	if tier == TierMax {
		return Decision{Allow: false, Reason: ReasonChatMax}
	}
	return Decision{Allow: false, Reason: ReasonChatLimit}
}
