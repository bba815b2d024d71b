package gemini

import (
	"fmt"
	"strings"

	"github.com/Mel762/telegramTarorApp/internal/domain"
	"github.com/Mel762/telegramTarorApp/internal/ports/service"
)

const (
	personaEN = "You are a wise and empathetic tarot reader. Speak warmly, address the querent directly, " +
		"connect the cards to each other and to the question, and end with gentle practical advice."
	personaRU = "Ты мудрый и чуткий таролог. Говори тепло, обращайся к спрашивающему напрямую, " +
		"связывай карты между собой и с вопросом, заверши мягким практическим советом."

	lengthInstruction = "Length: 3-5 sentences."
)

var languageInstructions = map[domain.Language]string{
	domain.LanguageEN: "Answer must be in English.",
	domain.LanguageRU: "Ответ должен быть на русском языке.",
	domain.LanguageUK: "Відповідь має бути українською мовою.",
}

// persona для uk используется русский шаблон, язык ответа задаёт инструкция
func persona(lang domain.Language) string {
	if lang == domain.LanguageRU || lang == domain.LanguageUK {
		return personaRU
	}
	return personaEN
}

func languageInstruction(lang domain.Language) string {
	if instruction, ok := languageInstructions[lang]; ok {
		return instruction
	}
	return languageInstructions[domain.LanguageEN]
}

func cardLines(cards domain.CardSet) string {
	lines := make([]string, 0, len(cards))
	for _, card := range cards {
		lines = append(lines, fmt.Sprintf("%s: %s (%s)", card.Position, card.Name, card.Orientation()))
	}
	return strings.Join(lines, "\n")
}

// ReadingPromptText текст запроса на интерпретацию расклада
func ReadingPromptText(p service.ReadingPrompt) string {
	question := p.Question
	if strings.TrimSpace(question) == "" {
		question = "General Reading"
	}

	var b strings.Builder
	b.WriteString(persona(p.Lang))
	b.WriteString("\n\nQuestion: ")
	b.WriteString(question)
	b.WriteString("\n\nCards:\n")
	b.WriteString(cardLines(p.Cards))
	b.WriteString("\nSpread Type: ")
	b.WriteString(string(p.SpreadType))
	b.WriteString("\n\n")
	b.WriteString(languageInstruction(p.Lang))
	b.WriteString(" ")
	b.WriteString(lengthInstruction)
	return b.String()
}

// ChatPromptText текст запроса на продолжение диалога по раскладу
func ChatPromptText(p service.ChatPrompt) string {
	question := p.Reading.OriginalQuestion
	if strings.TrimSpace(question) == "" {
		question = "Previous Question"
	}

	cards := "Cards from previous turn"
	if len(p.Reading.Cards) > 0 {
		cards = cardLines(p.Reading.Cards)
	}

	spread := string(p.Reading.SpreadType)
	if spread == "" {
		spread = "Unknown"
	}

	var b strings.Builder
	b.WriteString(persona(p.Reading.Lang))
	b.WriteString("\n\nQuestion: ")
	b.WriteString(question)
	b.WriteString("\n\nCards:\n")
	b.WriteString(cards)
	b.WriteString("\nSpread Type: ")
	b.WriteString(spread)
	b.WriteString("\n\nDialog History:\n")
	for _, turn := range p.History {
		role := "Tarot Reader"
		if turn.Role == domain.ChatRoleUser {
			role = "User"
		}
		b.WriteString(role)
		b.WriteString(": ")
		b.WriteString(turn.Content)
		b.WriteString("\n")
	}
	b.WriteString("User: ")
	b.WriteString(p.NewMessage)
	b.WriteString("\nTarot Reader:\n\n")
	b.WriteString(languageInstruction(p.Reading.Lang))
	b.WriteString(" ")
	b.WriteString(lengthInstruction)
	return b.String()
}
