package domain

import (
	"time"

	"github.com/google/uuid"
)

// Reading сгенерированная интерпретация, неизменяема после создания
type Reading struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	UserID         uuid.UUID  `json:"user_id" db:"user_id"`
	SpreadType     SpreadType `json:"spread_type" db:"spread_type"`
	Cards          CardSet    `json:"cards" db:"cards"`
	Question       string     `json:"question" db:"question"`
	Interpretation string     `json:"interpretation" db:"interpretation"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
}

// NewReading новая запись расклада
func NewReading(userID uuid.UUID, spread SpreadType, cards CardSet, question, interpretation string, now time.Time) *Reading {
	return &Reading{
		ID:             uuid.New(),
		UserID:         userID,
		SpreadType:     spread,
		Cards:          cards,
		Question:       question,
		Interpretation: interpretation,
		CreatedAt:      now,
	}
}

// ChatRole автор реплики в чате по раскладу
type ChatRole string

const (
	ChatRoleUser  ChatRole = "user"
	ChatRoleModel ChatRole = "model"
)

// ChatTurn одна реплика истории чата
type ChatTurn struct {
	Role    ChatRole `json:"role"`
	Content string   `json:"content"`
}

// CountUserTurns количество реплик пользователя в истории
func CountUserTurns(history []ChatTurn) int {
	count := 0
	for _, turn := range history {
		if turn.Role == ChatRoleUser {
			count++
		}
	}
	return count
}

// ReadingContext контекст исходного расклада для чата
type ReadingContext struct {
	Cards            CardSet
	OriginalQuestion string
	SpreadType       SpreadType
	Lang             Language
}
