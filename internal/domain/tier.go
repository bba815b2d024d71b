package domain

import (
	"strings"

	"golang.org/x/text/language"
)

// Tier уровень подписки
type Tier string

const (
	TierFree  Tier = "free"
	TierBasic Tier = "basic"
	TierMax   Tier = "max"
)

func (t Tier) String() string {
	return string(t)
}

func (t Tier) IsValid() bool {
	switch t {
	case TierFree, TierBasic, TierMax:
		return true
	default:
		return false
	}
}

// Normalize неизвестные значения из БД считаем free
func (t Tier) Normalize() Tier {
	if t.IsValid() {
		return t
	}
	return TierFree
}

// ParseTier разбирает tier из запроса
func ParseTier(s string) (Tier, error) {
	t := Tier(strings.ToLower(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", ErrInvalidTier
	}
	return t, nil
}

// Language язык пользовательских текстов
type Language string

const (
	LanguageEN Language = "en"
	LanguageRU Language = "ru"
	LanguageUK Language = "uk"
)

var (
	supportedLanguages = []Language{LanguageEN, LanguageRU, LanguageUK}
	languageMatcher    = language.NewMatcher([]language.Tag{
		language.English,
		language.Russian,
		language.Ukrainian,
	})
)

func (l Language) String() string {
	return string(l)
}

// ParseLanguage приводит произвольный language_code (ru-RU, uk_UA, EN) к поддерживаемому языку, по умолчанию en
func ParseLanguage(code string) Language {
	code = strings.ReplaceAll(strings.TrimSpace(code), "_", "-")
	if code == "" {
		return LanguageEN
	}

	tag, err := language.Parse(code)
	if err != nil {
		return LanguageEN
	}

	_, idx, confidence := languageMatcher.Match(tag)
	if confidence == language.No {
		return LanguageEN
	}
	return supportedLanguages[idx]
}
