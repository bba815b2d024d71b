package reading

import (
	"time"

	"github.com/Mel762/telegramTarorApp/internal/adapters/primary/http/controllers/respond"
	"github.com/Mel762/telegramTarorApp/internal/domain"
)

// ReadingRequest тело POST /api/reading
type ReadingRequest struct {
	UserID     string         `json:"userId"`
	Username   *string        `json:"username"`
	Name       *string        `json:"name"`
	Lang       string         `json:"lang"`
	Question   string         `json:"question"`
	SpreadType string         `json:"spreadType"`
	Cards      domain.CardSet `json:"cards"`
}

type ReadingResponse struct {
	ReadingID string `json:"readingId,omitempty"`
	Reading   string `json:"reading"`
	Degraded  bool   `json:"degraded,omitempty"`
}

// ChatContext контекст исходного расклада
type ChatContext struct {
	Cards            domain.CardSet `json:"cards"`
	OriginalQuestion string         `json:"originalQuestion"`
	SpreadType       string         `json:"spreadType"`
	Lang             string         `json:"lang"`
}

// ChatRequest тело POST /api/chat
type ChatRequest struct {
	UserID     string            `json:"userId"`
	History    []domain.ChatTurn `json:"history"`
	NewMessage string            `json:"newMessage"`
	Context    ChatContext       `json:"context"`
}

type ChatResponse struct {
	Response     string `json:"response"`
	LimitReached bool   `json:"limitReached,omitempty"`
}

func (c ChatContext) toDomain() domain.ReadingContext {
	return domain.ReadingContext{
		Cards:            c.Cards,
		OriginalQuestion: c.OriginalQuestion,
		SpreadType:       domain.SpreadType(c.SpreadType),
		Lang:             respond.Lang(c.Lang),
	}
}

// HistoryItem расклад в истории пользователя
type HistoryItem struct {
	ID             string         `json:"id"`
	SpreadType     string         `json:"spreadType"`
	Cards          domain.CardSet `json:"cards"`
	Question       string         `json:"question,omitempty"`
	Interpretation string         `json:"interpretation"`
	CreatedAt      time.Time      `json:"createdAt"`
}

type HistoryResponse struct {
	Readings []HistoryItem `json:"readings"`
}

func toHistoryItem(r *domain.Reading) HistoryItem {
	return HistoryItem{
		ID:             r.ID.String(),
		SpreadType:     string(r.SpreadType),
		Cards:          r.Cards,
		Question:       r.Question,
		Interpretation: r.Interpretation,
		CreatedAt:      r.CreatedAt,
	}
}
