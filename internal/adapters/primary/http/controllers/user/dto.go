package user

import (
	"time"

	"github.com/Mel762/telegramTarorApp/internal/domain"
)

// UserResponse профиль для Mini-App
type UserResponse struct {
	ID                   string     `json:"id"`
	TelegramID           string     `json:"telegram_id"`
	Username             *string    `json:"username,omitempty"`
	FirstName            *string    `json:"first_name,omitempty"`
	LanguageCode         string     `json:"language_code"`
	SubscriptionTier     string     `json:"subscription_tier"`
	DailyOneCardCount    int        `json:"daily_one_card_count"`
	DailyThreeCardCount  int        `json:"daily_three_card_count"`
	FreeReadingsOne      int        `json:"free_readings_one"`
	FreeReadingsThree    int        `json:"free_readings_three"`
	LastDailyReadingDate *time.Time `json:"last_daily_reading_date,omitempty"`
	NotificationsEnabled bool       `json:"notifications_enabled"`
	NotificationTime     string     `json:"notification_time"`
	ReceiveDailyReading  bool       `json:"receive_daily_reading"`
}

func toResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:                   u.ID.String(),
		TelegramID:           u.TelegramID,
		Username:             u.Username,
		FirstName:            u.FirstName,
		LanguageCode:         u.Lang().String(),
		SubscriptionTier:     u.Tier.Normalize().String(),
		DailyOneCardCount:    u.DailyOneCardCount,
		DailyThreeCardCount:  u.DailyThreeCardCount,
		FreeReadingsOne:      u.FreeReadingsOne,
		FreeReadingsThree:    u.FreeReadingsThree,
		LastDailyReadingDate: u.LastDailyReadingDate,
		NotificationsEnabled: u.NotificationsEnabled,
		NotificationTime:     u.NotificationTime,
		ReceiveDailyReading:  u.ReceiveDailyReading,
	}
}

// SettingsRequest тело POST /api/user/settings
type SettingsRequest struct {
	UserID               string `json:"userId"`
	NotificationsEnabled bool   `json:"notificationsEnabled"`
	NotificationTime     string `json:"notificationTime"`
	ReceiveDailyReading  bool   `json:"receiveDailyReading"`
}

// UpgradeRequest тело POST /api/user/upgrade
type UpgradeRequest struct {
	UserID string `json:"userId"`
	Tier   string `json:"tier"`
}
