package gemini

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Mel762/telegramTarorApp/internal/domain"
	"github.com/Mel762/telegramTarorApp/internal/ports/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewClient(&Config{
		BaseURL: server.URL,
		Version: "v1beta",
		Model:   "test-model",
		ApiKey:  "secret",
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestClient_GenerateReading(t *testing.T) {
	var gotPrompt string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1beta/models/test-model:generateContent", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("x-goog-api-key"))

		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotPrompt = req.Contents[0].Parts[0].Text

		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"The Fool "},{"text":"invites you."}]}}]}`))
	})

	text, err := client.GenerateReading(context.Background(), service.ReadingPrompt{
		Cards:      domain.CardSet{{ID: "major_0", Name: "The Fool", Position: "General"}},
		SpreadType: domain.SpreadOne,
		Lang:       domain.LanguageEN,
	})

	require.NoError(t, err)
	assert.Equal(t, "The Fool invites you.", text)
	assert.Contains(t, gotPrompt, "General: The Fool (Upright)")
	assert.Contains(t, gotPrompt, "Question: General Reading")
	assert.Contains(t, gotPrompt, "Answer must be in English. Length: 3-5 sentences.")
}

func TestClient_GenerateReading_APIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"code":429,"message":"quota exceeded","status":"RESOURCE_EXHAUSTED"}}`))
	})

	_, err := client.GenerateReading(context.Background(), service.ReadingPrompt{SpreadType: domain.SpreadDay})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestClient_GenerateReading_Empty(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[],"promptFeedback":{"blockReason":"SAFETY"}}`))
	})

	_, err := client.GenerateReading(context.Background(), service.ReadingPrompt{SpreadType: domain.SpreadDay})

	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestChatPromptText(t *testing.T) {
	prompt := ChatPromptText(service.ChatPrompt{
		Reading: domain.ReadingContext{
			Cards: domain.CardSet{
				{Name: "The Tower", Position: "Past", IsReversed: true},
			},
			OriginalQuestion: "Will I move?",
			SpreadType:       domain.SpreadThree,
			Lang:             domain.LanguageUK,
		},
		History: []domain.ChatTurn{
			{Role: domain.ChatRoleUser, Content: "And love?"},
			{Role: domain.ChatRoleModel, Content: "Patience."},
		},
		NewMessage: "When?",
	})

	assert.Contains(t, prompt, "Past: The Tower (Reversed)")
	assert.Contains(t, prompt, "Question: Will I move?")
	assert.Contains(t, prompt, "User: And love?\nTarot Reader: Patience.\nUser: When?\nTarot Reader:")
	assert.Contains(t, prompt, "Відповідь має бути українською мовою.")
	assert.Contains(t, prompt, personaRU)
}
