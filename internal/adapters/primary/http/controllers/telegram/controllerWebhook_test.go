package telegram

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/Mel762/telegramTarorApp/internal/domain"
	"github.com/Mel762/telegramTarorApp/internal/pkg/logger"
)

type fakeHandler struct {
	calls int
	err   error
}

func (f *fakeHandler) HandleUpdate(ctx context.Context, update *domain.Update) error {
	f.calls++
	return f.err
}

func sendUpdate(handler *fakeHandler, secret, header, body string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	New(handler, secret, logger.Discard()).RegisterRoutes(router)

	req := httptest.NewRequest(http.MethodPost, "/webhook/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if header != "" {
		req.Header.Set(secretTokenHeader, header)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestWebhook(t *testing.T) {
	const update = `{"update_id": 10, "message": {"message_id": 1, "text": "/start"}}`

	tests := []struct {
		name      string
		secret    string
		header    string
		body      string
		handleErr error
		wantCode  int
		wantCalls int
	}{
		{"valid secret", "s3cret", "s3cret", update, nil, http.StatusOK, 1},
		{"no secret configured", "", "", update, nil, http.StatusOK, 1},
		{"wrong secret", "s3cret", "guess", update, nil, http.StatusUnauthorized, 0},
		{"missing secret", "s3cret", "", update, nil, http.StatusUnauthorized, 0},
		{"malformed body", "", "", "{", nil, http.StatusBadRequest, 0},
		{"business error acknowledged", "", "", update, domain.WrapBusinessError(errors.New("unknown command")), http.StatusOK, 1},
		{"internal error", "", "", update, errors.New("db down"), http.StatusInternalServerError, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := &fakeHandler{err: tt.handleErr}

			rec := sendUpdate(handler, tt.secret, tt.header, tt.body)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantCalls, handler.calls)
		})
	}
}
