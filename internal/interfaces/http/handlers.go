package http

import (
	"errors"
	stdhttp "net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	adaptermiddleware "pizza-authz/internal/adapters/http/middleware"
	"pizza-authz/internal/application"
	"pizza-authz/internal/domain"
	"pizza-authz/internal/ports"
)

func handleError(c echo.Context, logger ports.Logger, err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials), errors.Is(err, domain.ErrUnauthenticated):
		return c.JSON(stdhttp.StatusUnauthorized, map[string]string{"error": "unauthorized"})
	case errors.Is(err, domain.ErrForbidden):
		return c.JSON(stdhttp.StatusForbidden, map[string]string{"error": "forbidden"})
	case errors.Is(err, domain.ErrInvalidInput):
		return c.JSON(stdhttp.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		return c.JSON(stdhttp.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, domain.ErrConflict):
		return c.JSON(stdhttp.StatusConflict, map[string]string{"error": err.Error()})
	default:
		logger.Error(c.Request().Context(), "request failed", "error", err)
		return c.JSON(stdhttp.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func invalidPayload(c echo.Context) error {
	return c.JSON(stdhttp.StatusBadRequest, map[string]string{"error": "invalid payload"})
}

func paramID(c echo.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	return id, err == nil && id > 0
}

func queryInt(c echo.Context, name string, fallback int) (int, bool) {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback, true
	}
	n, err := strconv.Atoi(raw)
	return n, err == nil
}

type AuthHandler struct {
	sessions *application.SessionManager
	logger   ports.Logger
}

func NewAuthHandler(sessions *application.SessionManager, logger ports.Logger) *AuthHandler {
	return &AuthHandler{sessions: sessions, logger: logger}
}

func (h *AuthHandler) Register(c echo.Context) error {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return invalidPayload(c)
	}
	session, err := h.sessions.Register(c.Request().Context(), req.Name, req.Email, req.Password)
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return c.JSON(stdhttp.StatusOK, session)
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return invalidPayload(c)
	}
	session, err := h.sessions.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return c.JSON(stdhttp.StatusOK, session)
}

func (h *AuthHandler) Logout(c echo.Context) error {
	if err := h.sessions.Logout(c.Request().Context(), adaptermiddleware.BearerToken(c)); err != nil {
		return handleError(c, h.logger, err)
	}
	return c.JSON(stdhttp.StatusOK, map[string]string{"message": "logout successful"})
}

type UsersHandler struct {
	service *application.UserService
	logger  ports.Logger
}

func NewUsersHandler(service *application.UserService, logger ports.Logger) *UsersHandler {
	return &UsersHandler{service: service, logger: logger}
}

func (h *UsersHandler) Me(c echo.Context) error {
	user, err := h.service.Me(c.Request().Context())
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return c.JSON(stdhttp.StatusOK, user)
}

func (h *UsersHandler) Update(c echo.Context) error {
	userID, ok := paramID(c, "userId")
	if !ok {
		return invalidPayload(c)
	}
	var req application.UserUpdate
	if err := c.Bind(&req); err != nil {
		return invalidPayload(c)
	}
	user, session, err := h.service.Update(c.Request().Context(), adaptermiddleware.Token(c), userID, req)
	if err != nil {
		return handleError(c, h.logger, err)
	}
	resp := map[string]any{"user": user}
	if session != nil {
		resp["token"] = session.Token
		resp["expires_at"] = session.ExpiresAt
	}
	return c.JSON(stdhttp.StatusOK, resp)
}

func (h *UsersHandler) Delete(c echo.Context) error {
	userID, ok := paramID(c, "userId")
	if !ok {
		return invalidPayload(c)
	}
	if err := h.service.Delete(c.Request().Context(), adaptermiddleware.Token(c), userID); err != nil {
		return handleError(c, h.logger, err)
	}
	return c.JSON(stdhttp.StatusOK, map[string]string{"message": "user deleted"})
}

func (h *UsersHandler) List(c echo.Context) error {
	page, ok := queryInt(c, "page", 0)
	if !ok {
		return invalidPayload(c)
	}
	limit, ok := queryInt(c, "limit", 10)
	if !ok {
		return invalidPayload(c)
	}
	name := c.QueryParam("name")
	if name == "" {
		name = domain.Wildcard
	}
	result, err := h.service.List(c.Request().Context(), domain.ListCursor{Page: page, Limit: limit, Name: name})
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return c.JSON(stdhttp.StatusOK, result)
}

type OrdersHandler struct {
	orders *application.OrderService
	menu   *application.MenuService
	logger ports.Logger
}

func NewOrdersHandler(orders *application.OrderService, menu *application.MenuService, logger ports.Logger) *OrdersHandler {
	return &OrdersHandler{orders: orders, menu: menu, logger: logger}
}

func (h *OrdersHandler) Menu(c echo.Context) error {
	menu, err := h.menu.List(c.Request().Context())
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return c.JSON(stdhttp.StatusOK, menu)
}

func (h *OrdersHandler) AddMenuItem(c echo.Context) error {
	var req domain.MenuItem
	if err := c.Bind(&req); err != nil {
		return invalidPayload(c)
	}
	req.ID = 0
	menu, err := h.menu.Add(c.Request().Context(), req)
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return c.JSON(stdhttp.StatusOK, menu)
}

// List returns the caller's orders, or another diner's with ?userId= when
// the caller may read them.
func (h *OrdersHandler) List(c echo.Context) error {
	ctx := c.Request().Context()
	var userID int64
	if raw := c.QueryParam("userId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return invalidPayload(c)
		}
		userID = id
	} else if id := domain.IdentityFrom(ctx); id != nil {
		userID = id.UserID
	}
	orders, err := h.orders.List(ctx, userID)
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return c.JSON(stdhttp.StatusOK, map[string]any{"diner_id": userID, "orders": orders})
}

func (h *OrdersHandler) Get(c echo.Context) error {
	orderID, ok := paramID(c, "orderId")
	if !ok {
		return invalidPayload(c)
	}
	order, err := h.orders.Get(c.Request().Context(), orderID)
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return c.JSON(stdhttp.StatusOK, order)
}

func (h *OrdersHandler) Create(c echo.Context) error {
	var req struct {
		FranchiseID int64 `json:"franchise_id"`
		StoreID     int64 `json:"store_id"`
		Items       []struct {
			MenuID int64 `json:"menu_id"`
		} `json:"items"`
	}
	if err := c.Bind(&req); err != nil {
		return invalidPayload(c)
	}
	order := domain.Order{FranchiseID: req.FranchiseID, StoreID: req.StoreID}
	for _, it := range req.Items {
		order.Items = append(order.Items, domain.OrderItem{MenuID: it.MenuID})
	}
	created, err := h.orders.Create(c.Request().Context(), order)
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return c.JSON(stdhttp.StatusOK, created)
}

type FranchisesHandler struct {
	service *application.FranchiseService
	logger  ports.Logger
}

func NewFranchisesHandler(service *application.FranchiseService, logger ports.Logger) *FranchisesHandler {
	return &FranchisesHandler{service: service, logger: logger}
}

func (h *FranchisesHandler) List(c echo.Context) error {
	name := c.QueryParam("name")
	if name == "" {
		name = domain.Wildcard
	}
	franchises, err := h.service.List(c.Request().Context(), name)
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return c.JSON(stdhttp.StatusOK, franchises)
}

func (h *FranchisesHandler) ListForUser(c echo.Context) error {
	userID, ok := paramID(c, "userId")
	if !ok {
		return invalidPayload(c)
	}
	franchises, err := h.service.ListForUser(c.Request().Context(), userID)
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return c.JSON(stdhttp.StatusOK, franchises)
}

// Get returns one franchise with its stores. Only its admins and global
// admins may read it.
func (h *FranchisesHandler) Get(c echo.Context) error {
	franchiseID, ok := paramID(c, "franchiseId")
	if !ok {
		return invalidPayload(c)
	}
	franchise, err := h.service.Get(c.Request().Context(), franchiseID)
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return c.JSON(stdhttp.StatusOK, franchise)
}

func (h *FranchisesHandler) Create(c echo.Context) error {
	var req struct {
		Name   string `json:"name"`
		Admins []struct {
			Email string `json:"email"`
		} `json:"admins"`
	}
	if err := c.Bind(&req); err != nil {
		return invalidPayload(c)
	}
	emails := make([]string, 0, len(req.Admins))
	for _, a := range req.Admins {
		emails = append(emails, a.Email)
	}
	franchise, err := h.service.Create(c.Request().Context(), req.Name, emails)
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return c.JSON(stdhttp.StatusOK, franchise)
}

func (h *FranchisesHandler) Delete(c echo.Context) error {
	franchiseID, ok := paramID(c, "franchiseId")
	if !ok {
		return invalidPayload(c)
	}
	if err := h.service.Delete(c.Request().Context(), franchiseID); err != nil {
		return handleError(c, h.logger, err)
	}
	return c.JSON(stdhttp.StatusOK, map[string]string{"message": "franchise deleted"})
}

func (h *FranchisesHandler) CreateStore(c echo.Context) error {
	franchiseID, ok := paramID(c, "franchiseId")
	if !ok {
		return invalidPayload(c)
	}
	var req struct {
		Name string `json:"name"`
	}
	if err := c.Bind(&req); err != nil {
		return invalidPayload(c)
	}
	store, err := h.service.CreateStore(c.Request().Context(), franchiseID, req.Name)
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return c.JSON(stdhttp.StatusOK, store)
}

func (h *FranchisesHandler) DeleteStore(c echo.Context) error {
	franchiseID, ok := paramID(c, "franchiseId")
	if !ok {
		return invalidPayload(c)
	}
	storeID, ok := paramID(c, "storeId")
	if !ok {
		return invalidPayload(c)
	}
	if err := h.service.DeleteStore(c.Request().Context(), franchiseID, storeID); err != nil {
		return handleError(c, h.logger, err)
	}
	return c.JSON(stdhttp.StatusOK, map[string]string{"message": "store deleted"})
}
