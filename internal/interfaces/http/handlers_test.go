package http

import (
	"context"
	"encoding/json"
	"errors"
	stdhttp "net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	adaptermiddleware "pizza-authz/internal/adapters/http/middleware"
	"pizza-authz/internal/application"
	"pizza-authz/internal/domain"
	"pizza-authz/internal/infrastructure/auth"
	"pizza-authz/internal/infrastructure/memory"
	"pizza-authz/internal/infrastructure/revocation"
)

type nopLogger struct{}

func (nopLogger) Info(context.Context, string, ...any)  {}
func (nopLogger) Error(context.Context, string, ...any) {}
func (nopLogger) Warn(context.Context, string, ...any)  {}
func (nopLogger) Debug(context.Context, string, ...any) {}

func newTestRouter(t *testing.T) *echo.Echo {
	t.Helper()
	log := nopLogger{}
	store := memory.NewStore()
	codec, err := auth.NewTokenCodec([]byte("test-secret"), time.Hour)
	require.NoError(t, err)
	hasher := auth.NewBcryptHasher(4)
	require.NoError(t, application.EnsureAdmin(context.Background(), store.Users(), hasher, log, "admin@pizza.test", "admin"))

	authz := application.NewAuthorizer(log, nil)
	sessions := application.NewSessionManager(store.Users(), codec, revocation.NewMemoryStore(), hasher, log, nil)
	menu := application.NewMenuService(store.Menu(), authz)
	return NewRouter(Handlers{
		Auth:       NewAuthHandler(sessions, log),
		Users:      NewUsersHandler(application.NewUserService(store.Users(), sessions, hasher, authz, log), log),
		Orders:     NewOrdersHandler(application.NewOrderService(store.Orders(), store.Franchises(), store.Menu(), authz, log), menu, log),
		Franchises: NewFranchisesHandler(application.NewFranchiseService(store.Franchises(), store.Users(), authz, log), log),
	}, Middleware{
		RequireAuth:  adaptermiddleware.RequireAuth(sessions, log),
		OptionalAuth: adaptermiddleware.OptionalAuth(sessions, log),
	})
}

func call(e *echo.Echo, method, path, token, body string) *httptest.ResponseRecorder {
	var req *stdhttp.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func login(t *testing.T, e *echo.Echo, email, password string) application.Session {
	t.Helper()
	rec := call(e, stdhttp.MethodPut, "/api/auth", "", `{"email":"`+email+`","password":"`+password+`"}`)
	require.Equal(t, stdhttp.StatusOK, rec.Code, rec.Body.String())
	return decode[application.Session](t, rec)
}

func register(t *testing.T, e *echo.Echo, name string) application.Session {
	t.Helper()
	rec := call(e, stdhttp.MethodPost, "/api/auth", "", `{"name":"`+name+`","email":"`+name+`@pizza.test","password":"pw"}`)
	require.Equal(t, stdhttp.StatusOK, rec.Code, rec.Body.String())
	return decode[application.Session](t, rec)
}

func TestHandleError_StatusMapping(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{domain.ErrTokenExpired, stdhttp.StatusUnauthorized},
		{domain.ErrInvalidCredentials, stdhttp.StatusUnauthorized},
		{domain.ErrForbidden, stdhttp.StatusForbidden},
		{domain.ErrNotFound, stdhttp.StatusNotFound},
		{domain.ErrInvalidInput, stdhttp.StatusBadRequest},
		{domain.ErrConflict, stdhttp.StatusConflict},
		{errors.New("boom"), stdhttp.StatusInternalServerError},
	}
	for _, tc := range cases {
		e := echo.New()
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(stdhttp.MethodGet, "/", nil), rec)
		require.NoError(t, handleError(c, nopLogger{}, tc.err))
		assert.Equal(t, tc.code, rec.Code, tc.err.Error())
	}
}

func TestAuthRoutes_RegisterLoginLogout(t *testing.T) {
	e := newTestRouter(t)
	amy := register(t, e, "amy")
	assert.NotEmpty(t, amy.Token)

	rec := call(e, stdhttp.MethodGet, "/api/user/me", amy.Token, "")
	require.Equal(t, stdhttp.StatusOK, rec.Code)
	assert.Equal(t, "amy@pizza.test", decode[domain.User](t, rec).Email)
	assert.NotContains(t, rec.Body.String(), "password")

	rec = call(e, stdhttp.MethodPut, "/api/auth", "", `{"email":"amy@pizza.test","password":"wrong"}`)
	assert.Equal(t, stdhttp.StatusUnauthorized, rec.Code)

	rec = call(e, stdhttp.MethodPost, "/api/auth", "", `{"name":"amy","email":"amy@pizza.test","password":"pw"}`)
	assert.Equal(t, stdhttp.StatusConflict, rec.Code)

	assert.Equal(t, stdhttp.StatusOK, call(e, stdhttp.MethodDelete, "/api/auth", amy.Token, "").Code)
	assert.Equal(t, stdhttp.StatusOK, call(e, stdhttp.MethodDelete, "/api/auth", amy.Token, "").Code)
	assert.Equal(t, stdhttp.StatusUnauthorized, call(e, stdhttp.MethodGet, "/api/user/me", amy.Token, "").Code)
	assert.Equal(t, stdhttp.StatusUnauthorized, call(e, stdhttp.MethodDelete, "/api/auth", "garbage", "").Code)
}

func TestUserRoutes_UpdateReissuesToken(t *testing.T) {
	e := newTestRouter(t)
	amy := register(t, e, "amy")
	ben := register(t, e, "ben")

	rec := call(e, stdhttp.MethodPut, "/api/user/"+itoa(ben.User.ID), amy.Token, `{"name":"x"}`)
	assert.Equal(t, stdhttp.StatusForbidden, rec.Code)

	rec = call(e, stdhttp.MethodPut, "/api/user/"+itoa(amy.User.ID), amy.Token, `{"name":"Amy B"}`)
	require.Equal(t, stdhttp.StatusOK, rec.Code)
	body := decode[struct {
		User  domain.User `json:"user"`
		Token string      `json:"token"`
	}](t, rec)
	assert.Equal(t, "Amy B", body.User.Name)
	require.NotEmpty(t, body.Token)

	assert.Equal(t, stdhttp.StatusUnauthorized, call(e, stdhttp.MethodGet, "/api/user/me", amy.Token, "").Code)
	assert.Equal(t, stdhttp.StatusOK, call(e, stdhttp.MethodGet, "/api/user/me", body.Token, "").Code)
}

func TestAuthRoutes_RegisterOverlongPasswordIsBadRequest(t *testing.T) {
	e := newTestRouter(t)
	body := `{"name":"amy","email":"amy@pizza.test","password":"` + strings.Repeat("p", 80) + `"}`

	rec := call(e, stdhttp.MethodPost, "/api/auth", "", body)
	assert.Equal(t, stdhttp.StatusBadRequest, rec.Code, rec.Body.String())
}

func TestUserRoutes_List(t *testing.T) {
	e := newTestRouter(t)
	amy := register(t, e, "amy")
	register(t, e, "ben")

	rec := call(e, stdhttp.MethodGet, "/api/user?page=0&limit=1&name=*", amy.Token, "")
	require.Equal(t, stdhttp.StatusOK, rec.Code)
	page := decode[domain.ListPage](t, rec)
	assert.Len(t, page.Users, 1)
	assert.True(t, page.More)

	assert.Equal(t, stdhttp.StatusBadRequest, call(e, stdhttp.MethodGet, "/api/user?limit=0", amy.Token, "").Code)
	assert.Equal(t, stdhttp.StatusBadRequest, call(e, stdhttp.MethodGet, "/api/user?page=x", amy.Token, "").Code)
	assert.Equal(t, stdhttp.StatusUnauthorized, call(e, stdhttp.MethodGet, "/api/user", "", "").Code)
}

func TestFranchiseAndOrderRoutes(t *testing.T) {
	e := newTestRouter(t)
	admin := login(t, e, "admin@pizza.test", "admin")
	frank := register(t, e, "frank")
	amy := register(t, e, "amy")

	rec := call(e, stdhttp.MethodPut, "/api/order/menu", amy.Token, `{"title":"Veggie","price":0.0038}`)
	assert.Equal(t, stdhttp.StatusForbidden, rec.Code)
	rec = call(e, stdhttp.MethodPut, "/api/order/menu", admin.Token, `{"title":"Veggie","price":0.0038}`)
	require.Equal(t, stdhttp.StatusOK, rec.Code)
	menu := decode[[]domain.MenuItem](t, rec)
	require.Len(t, menu, 1)

	rec = call(e, stdhttp.MethodPost, "/api/franchise", admin.Token, `{"name":"pizzaPocket","admins":[{"email":"frank@pizza.test"}]}`)
	require.Equal(t, stdhttp.StatusOK, rec.Code)
	franchise := decode[domain.Franchise](t, rec)

	rec = call(e, stdhttp.MethodPost, "/api/franchise/"+itoa(franchise.ID)+"/store", frank.Token, `{"name":"SLC"}`)
	require.Equal(t, stdhttp.StatusOK, rec.Code)
	store := decode[domain.Store](t, rec)
	rec = call(e, stdhttp.MethodPost, "/api/franchise/"+itoa(franchise.ID)+"/store", amy.Token, `{"name":"Orem"}`)
	assert.Equal(t, stdhttp.StatusForbidden, rec.Code)

	rec = call(e, stdhttp.MethodGet, "/api/franchise/"+itoa(franchise.ID)+"/store", frank.Token, "")
	require.Equal(t, stdhttp.StatusOK, rec.Code)
	detail := decode[domain.Franchise](t, rec)
	assert.Equal(t, "pizzaPocket", detail.Name)
	require.Len(t, detail.Stores, 1)
	assert.Equal(t, store.ID, detail.Stores[0].ID)
	assert.Equal(t, stdhttp.StatusForbidden, call(e, stdhttp.MethodGet, "/api/franchise/"+itoa(franchise.ID)+"/store", amy.Token, "").Code)
	assert.Equal(t, stdhttp.StatusForbidden, call(e, stdhttp.MethodGet, "/api/franchise/404/store", admin.Token, "").Code)

	rec = call(e, stdhttp.MethodGet, "/api/franchise/"+itoa(frank.User.ID), frank.Token, "")
	require.Equal(t, stdhttp.StatusOK, rec.Code)
	assert.Len(t, decode[[]domain.Franchise](t, rec), 1)

	rec = call(e, stdhttp.MethodGet, "/api/franchise?name=pizza*", "", "")
	require.Equal(t, stdhttp.StatusOK, rec.Code)
	assert.Len(t, decode[[]domain.Franchise](t, rec), 1)

	order := `{"franchise_id":` + itoa(franchise.ID) + `,"store_id":` + itoa(store.ID) + `,"items":[{"menu_id":` + itoa(menu[0].ID) + `}]}`
	rec = call(e, stdhttp.MethodPost, "/api/order", amy.Token, order)
	require.Equal(t, stdhttp.StatusOK, rec.Code, rec.Body.String())
	created := decode[domain.Order](t, rec)

	assert.Equal(t, stdhttp.StatusOK, call(e, stdhttp.MethodGet, "/api/order/"+itoa(created.ID), amy.Token, "").Code)
	assert.Equal(t, stdhttp.StatusForbidden, call(e, stdhttp.MethodGet, "/api/order/"+itoa(created.ID), frank.Token, "").Code)
	assert.Equal(t, stdhttp.StatusForbidden, call(e, stdhttp.MethodGet, "/api/order?userId="+itoa(amy.User.ID), frank.Token, "").Code)

	rec = call(e, stdhttp.MethodGet, "/api/order", amy.Token, "")
	require.Equal(t, stdhttp.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"orders":[{`)

	assert.Equal(t, stdhttp.StatusOK, call(e, stdhttp.MethodDelete, "/api/franchise/"+itoa(franchise.ID)+"/store/"+itoa(store.ID), frank.Token, "").Code)
	assert.Equal(t, stdhttp.StatusForbidden, call(e, stdhttp.MethodDelete, "/api/franchise/"+itoa(franchise.ID), frank.Token, "").Code)
	assert.Equal(t, stdhttp.StatusOK, call(e, stdhttp.MethodDelete, "/api/franchise/"+itoa(franchise.ID), admin.Token, "").Code)
	assert.Equal(t, stdhttp.StatusNotFound, call(e, stdhttp.MethodDelete, "/api/franchise/"+itoa(franchise.ID), admin.Token, "").Code)
}

func itoa(n int64) string { return strconv.FormatInt(n, 10) }
