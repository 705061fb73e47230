package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aws/aws-xray-sdk-go/xray"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"pizza-authz/internal/domain"
)

type mockLogger struct {
	lastCtx   context.Context
	lastLevel string
	lastMsg   string
	lastArgs  []any
}

func (m *mockLogger) record(level string, ctx context.Context, msg string, args []any) {
	m.lastLevel, m.lastCtx, m.lastMsg, m.lastArgs = level, ctx, msg, args
}

func (m *mockLogger) Info(ctx context.Context, msg string, args ...any)  { m.record("info", ctx, msg, args) }
func (m *mockLogger) Error(ctx context.Context, msg string, args ...any) { m.record("error", ctx, msg, args) }
func (m *mockLogger) Warn(context.Context, string, ...any)               {}
func (m *mockLogger) Debug(context.Context, string, ...any)              {}

func (m *mockLogger) arg(key string) (any, bool) {
	for i := 0; i < len(m.lastArgs)-1; i += 2 {
		if k, ok := m.lastArgs[i].(string); ok && k == key {
			return m.lastArgs[i+1], true
		}
	}
	return nil, false
}

func TestRequestLogger_LogsExpectedFields(t *testing.T) {
	logger := &mockLogger{}
	mw := RequestLogger(logger)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/order/menu", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/api/order/menu")
	c.Response().Header().Set(echo.HeaderXRequestID, "req-1")

	h := mw(func(c echo.Context) error {
		return c.NoContent(http.StatusCreated)
	})

	require.NoError(t, h(c))
	assert.Equal(t, "http request", logger.lastMsg)
	assert.Equal(t, "info", logger.lastLevel)
	for _, expected := range []string{"method", "path", "route_pattern", "status", "duration"} {
		_, ok := logger.arg(expected)
		assert.True(t, ok, "missing %s in %v", expected, logger.lastArgs)
	}
	id, _ := logger.arg("request_id")
	assert.Equal(t, "req-1", id)
}

func TestRequestLogger_ResolvesHandlerErrors(t *testing.T) {
	logger := &mockLogger{}
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/boom", nil), rec)

	h := RequestLogger(logger)(func(c echo.Context) error {
		return errors.New("boom")
	})

	require.NoError(t, h(c))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "error", logger.lastLevel)
	status, _ := logger.arg("status")
	assert.Equal(t, http.StatusInternalServerError, status)
}

func TestRequestLogger_SeesIdentityAttachedDownstream(t *testing.T) {
	logger := &mockLogger{}
	auth := new(authenticatorMock)
	auth.On("Authenticate", mock.Anything, "tok").Return(domain.Identity{UserID: 9}, nil)
	c, _ := newContext("Bearer tok")

	h := RequestLogger(logger)(RequireAuth(auth, &mockLogger{})(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}))

	require.NoError(t, h(c))
	id := domain.IdentityFrom(logger.lastCtx)
	require.NotNil(t, id)
	assert.Equal(t, int64(9), id.UserID)
}

func TestRequestLogger_PassesContextWithXRaySegment(t *testing.T) {
	logger := &mockLogger{}
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/api/order/menu", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	ctx, seg := xray.BeginSegment(req.Context(), "http-test")
	defer seg.Close(nil)
	c.SetRequest(req.Clone(ctx))

	h := RequestLogger(logger)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	require.NoError(t, h(c))
	assert.NotNil(t, xray.GetSegment(logger.lastCtx))
}
