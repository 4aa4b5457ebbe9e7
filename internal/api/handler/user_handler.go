package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/marketbay/commerce-api/internal/core/ports"
)

// UserHandler exposes the authenticated account surface.
type UserHandler struct {
	sessions ports.SessionService
}

func NewUserHandler(sessions ports.SessionService) *UserHandler {
	return &UserHandler{sessions: sessions}
}

// Me assembles the caller's profile: account, effective role, and owned
// store when present.
//
// @Summary      Get the authenticated profile
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  dataResponse
// @Failure      401  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /users/me [get]
func (h *UserHandler) Me(c echo.Context) error {
	accountID, err := ctxAccountID(c)
	if err != nil {
		return err
	}

	profile, err := h.sessions.Profile(c.Request().Context(), accountID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dataResponse{Data: profile})
}

type createStoreRequest struct {
	Name string `json:"name" validate:"required,min=3,max=64"`
}

// CreateStore opens a store for the authenticated customer, promoting the
// account to admin and returning tokens that carry the new role.
//
// @Summary      Open a store
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createStoreRequest  true  "Store name"
// @Success      201   {object}  dataResponse
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /users/me/store [post]
func (h *UserHandler) CreateStore(c echo.Context) error {
	accountID, err := ctxAccountID(c)
	if err != nil {
		return err
	}

	var req createStoreRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	promotion, err := h.sessions.PromoteToStoreOwner(c.Request().Context(), accountID, req.Name)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, dataResponse{Data: promotion})
}
