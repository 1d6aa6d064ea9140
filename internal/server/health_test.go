package server_test

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vludko/workformat-bot/internal/server"
)

type MockDBPinger struct {
	ShouldFail bool
}

func (m *MockDBPinger) Ping(_ context.Context) error {
	if m.ShouldFail {
		return errors.New("mock db error")
	}
	return nil
}

func TestHealthChecker(t *testing.T) {
	t.Parallel()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	t.Run("all systems ok", func(t *testing.T) {
		t.Parallel()

		mockDB := &MockDBPinger{ShouldFail: false}
		healthChecker := server.NewHealthChecker(logger, mockDB)
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		rr := httptest.NewRecorder()
		healthChecker.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		require.JSONEq(t, `{"database":"ok"}`, rr.Body.String())
	})

	t.Run("database unavailable", func(t *testing.T) {
		t.Parallel()

		mockDB := &MockDBPinger{ShouldFail: true}
		healthChecker := server.NewHealthChecker(logger, mockDB)
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		rr := httptest.NewRecorder()
		healthChecker.ServeHTTP(rr, req)

		require.Equal(t, http.StatusServiceUnavailable, rr.Code)
		require.JSONEq(t, `{"database":"unavailable"}`, rr.Body.String())
	})
}
