package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLanguage(t *testing.T) {
	tests := map[string]Language{
		"":      LanguageEN,
		"en":    LanguageEN,
		"ru":    LanguageRU,
		"ru-RU": LanguageRU,
		"uk_UA": LanguageUK,
		"UK":    LanguageUK,
		"de":    LanguageEN,
		"%%":    LanguageEN,
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, ParseLanguage(in))
		})
	}
}

func TestParseTier(t *testing.T) {
	tier, err := ParseTier(" Basic ")
	require.NoError(t, err)
	assert.Equal(t, TierBasic, tier)

	_, err = ParseTier("gold")
	assert.ErrorIs(t, err, ErrInvalidTier)
	assert.True(t, IsValidation(err))
}

func TestNotificationSettingsValidate(t *testing.T) {
	valid := []string{"00:00", "09:05", "23:59"}
	for _, v := range valid {
		assert.NoError(t, NotificationSettings{NotificationTime: v}.Validate(), v)
	}

	invalid := []string{"", "9:00", "24:00", "12:60", "noon"}
	for _, v := range invalid {
		err := NotificationSettings{NotificationTime: v}.Validate()
		assert.ErrorIs(t, err, ErrInvalidTime, v)
	}
}

func TestUserChatIDAndDisplayName(t *testing.T) {
	name := "Alice"
	u := User{TelegramID: "123456", FirstName: &name}

	chatID, err := u.ChatID()
	require.NoError(t, err)
	assert.Equal(t, int64(123456), chatID)
	assert.Equal(t, "Alice", u.DisplayName())

	webUser := &User{TelegramID: "web-user"}
	_, err = webUser.ChatID()
	assert.Error(t, err)
	assert.Equal(t, "Traveler", webUser.DisplayName())
}

func TestErrorFamilies(t *testing.T) {
	assert.True(t, IsNotFound(ErrPaymentNotFound))
	assert.False(t, IsNotFound(ErrNoCards))
	assert.True(t, IsValidation(ErrSpreadNotPurchasable))

	denied := &QuotaDeniedError{Kind: DenialLimitReached, Reason: ReasonLimitOne, Message: "limit"}
	got, ok := AsQuotaDenied(WrapBusinessError(denied))
	require.True(t, ok)
	assert.Same(t, denied, got)
}
