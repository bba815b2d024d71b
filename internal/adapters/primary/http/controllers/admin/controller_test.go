package admin

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/Mel762/telegramTarorApp/internal/pkg/logger"
	"github.com/Mel762/telegramTarorApp/internal/usecases/notifications"
)

type fakeTicker struct {
	report notifications.TickReport
	err    error
}

func (f *fakeTicker) Tick(ctx context.Context, now time.Time) (notifications.TickReport, error) {
	return f.report, f.err
}

type fakeExpirer struct {
	expired int64
}

func (f *fakeExpirer) ExpirePending(ctx context.Context) (int64, error) {
	return f.expired, nil
}

func call(token, header, path string, ticker *fakeTicker) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	New(ticker, &fakeExpirer{expired: 3}, token, logger.Discard()).RegisterRoutes(router)

	req := httptest.NewRequest(http.MethodPost, path, nil)
	if header != "" {
		req.Header.Set(adminTokenHeader, header)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestAdmin(t *testing.T) {
	ticker := &fakeTicker{report: notifications.TickReport{Due: 2, Reminders: 1, AutoReadings: 1}}

	t.Run("disabled without token", func(t *testing.T) {
		rec := call("", "", "/admin/notifications/tick", ticker)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("rejects wrong token", func(t *testing.T) {
		rec := call("admin-token", "nope", "/admin/notifications/tick", ticker)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("runs tick", func(t *testing.T) {
		rec := call("admin-token", "admin-token", "/admin/notifications/tick", ticker)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"due":2,"auto_readings":1,"reminders":1,"skipped":0,"failed":0}`, rec.Body.String())
	})

	t.Run("tick failure", func(t *testing.T) {
		rec := call("admin-token", "admin-token", "/admin/notifications/tick", &fakeTicker{err: errors.New("db down")})
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("expires payments", func(t *testing.T) {
		rec := call("admin-token", "admin-token", "/admin/payments/expire", ticker)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"expired":3}`, rec.Body.String())
	})
}
