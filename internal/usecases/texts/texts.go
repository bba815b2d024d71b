package texts

import (
	"math/rand/v2"
	"strings"

	"github.com/Mel762/telegramTarorApp/internal/domain"
)

// localized текст на трёх языках, en обязателен
type localized map[domain.Language]string

func (l localized) in(lang domain.Language) string {
	if text, ok := l[lang]; ok {
		return text
	}
	return l[domain.LanguageEN]
}

var reasons = map[domain.ReasonCode]localized{
	domain.ReasonLimitDay: {
		domain.LanguageEN: "Card of the Day is available once daily.",
		domain.LanguageRU: "Карта дня доступна один раз в день.",
		domain.LanguageUK: "Карта дня доступна один раз на день.",
	},
	domain.ReasonLimitOne: {
		domain.LanguageEN: "Daily limit for 1-Card readings reached.",
		domain.LanguageRU: "Дневной лимит раскладов на 1 карту исчерпан.",
		domain.LanguageUK: "Денний ліміт розкладів на 1 карту вичерпано.",
	},
	domain.ReasonLimitThree: {
		domain.LanguageEN: "Daily limit for 3-Card readings reached.",
		domain.LanguageRU: "Дневной лимит раскладов на 3 карты исчерпан.",
		domain.LanguageUK: "Денний ліміт розкладів на 3 карти вичерпано.",
	},
	domain.ReasonBasicRequired: {
		domain.LanguageEN: "3-Card Spread is available on Basic plan.",
		domain.LanguageRU: "Расклад на 3 карты доступен в тарифе Basic.",
		domain.LanguageUK: "Розклад на 3 карти доступний у тарифі Basic.",
	},
	domain.ReasonChatLimit: {
		domain.LanguageEN: "Chat limit reached. Upgrade to ask more questions.",
		domain.LanguageRU: "Лимит сообщений исчерпан. Обновите тариф для продолжения.",
		domain.LanguageUK: "Ліміт повідомлень вичерпано. Оновіть тариф для продовження.",
	},
	domain.ReasonChatMax: {
		domain.LanguageEN: "You have reached the maximum chat limit for this reading.",
		domain.LanguageRU: "Вы достигли максимального лимита сообщений для этого расклада.",
		domain.LanguageUK: "Ви досягли максимального ліміту повідомлень для цього розкладу.",
	},
}

var upgradeSuffix = localized{
	domain.LanguageEN: " Upgrade for more.",
	domain.LanguageRU: " Обновите тариф.",
	domain.LanguageUK: " Оновіть тариф.",
}

var fallback = localized{
	domain.LanguageEN: "The stars are clouded right now. Please ask again later.",
	domain.LanguageRU: "Звезды сейчас скрыты. Пожалуйста, спросите позже.",
	domain.LanguageUK: "Зірки зараз приховані. Будь ласка, запитайте пізніше.",
}

var reminders = map[domain.Language][]string{
	domain.LanguageEN: {
		"@{username} your daily reading is waiting for you! ✨",
		"@{username} the cards have something to tell you today... 🔮",
		"@{username} don't forget to check your daily guidance! 🌙",
	},
	domain.LanguageRU: {
		"@{username} расклад на день ждет тебя! ✨",
		"@{username} карты хотят что-то сказать тебе сегодня... 🔮",
		"@{username} не забудь проверить свой совет на день! 🌙",
	},
	domain.LanguageUK: {
		"@{username} розклад на день чекає на тебе! ✨",
		"@{username} карти хочуть щось сказати тобі сьогодні... 🔮",
		"@{username} не забудь перевірити свою пораду на день! 🌙",
	},
}

var welcome = localized{
	domain.LanguageEN: "Welcome to the Tarot Oracle! 🔮\nOpen the app to get your reading.",
	domain.LanguageRU: "Добро пожаловать в Оракул Таро! 🔮\nОткройте приложение, чтобы получить расклад.",
	domain.LanguageUK: "Ласкаво просимо до Оракула Таро! 🔮\nВідкрийте застосунок, щоб отримати розклад.",
}

var openApp = localized{
	domain.LanguageEN: "🃏 Open Tarot App",
	domain.LanguageRU: "🃏 Открыть Таро",
	domain.LanguageUK: "🃏 Відкрити Таро",
}

var autoReadingHeader = localized{
	domain.LanguageEN: "🔮 Your Card of the Day: %s",
	domain.LanguageRU: "🔮 Ваша карта дня: %s",
	domain.LanguageUK: "🔮 Ваша карта дня: %s",
}

var paymentReceived = localized{
	domain.LanguageEN: "Payment received! ✨ You can now proceed with your reading.",
	domain.LanguageRU: "Оплата получена! ✨ Теперь можно продолжить расклад.",
	domain.LanguageUK: "Оплату отримано! ✨ Тепер можна продовжити розклад.",
}

// DenialReason локализованная причина отказа.
// Для free и basic к дневным лимитам one/three добавляется призыв обновить тариф.
func DenialReason(reason domain.ReasonCode, tier domain.Tier, lang domain.Language) string {
	text, ok := reasons[reason]
	if !ok {
		text = reasons[domain.ReasonLimitOne]
	}
	message := text.in(lang)

	if (reason == domain.ReasonLimitOne || reason == domain.ReasonLimitThree) && tier.Normalize() != domain.TierMax {
		message += upgradeSuffix.in(lang)
	}
	return message
}

// Fallback текст вместо интерпретации, когда генерация не удалась
func Fallback(lang domain.Language) string {
	return fallback.in(lang)
}

// Reminder случайное напоминание из пула с подстановкой имени
func Reminder(lang domain.Language, username string, rnd *rand.Rand) string {
	pool, ok := reminders[lang]
	if !ok {
		pool = reminders[domain.LanguageEN]
	}
	if username == "" {
		username = "User"
	}
	return strings.ReplaceAll(pool[rnd.IntN(len(pool))], "{username}", username)
}

func Welcome(lang domain.Language) string {
	return welcome.in(lang)
}

func OpenAppButton(lang domain.Language) string {
	return openApp.in(lang)
}

// AutoReadingHeader заголовок автоматической карты дня, %s = название карты
func AutoReadingHeader(lang domain.Language) string {
	return autoReadingHeader.in(lang)
}

func PaymentReceived(lang domain.Language) string {
	return paymentReceived.in(lang)
}
