// Package handler contains the echo handlers of the API.
package handler

import (
	"net/http"

	"emuss/internal/delivery/api/response"
	domainerrors "emuss/internal/domain/errors"
	"emuss/internal/errors"
	"emuss/internal/usecase"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

// UserHandler exposes the user account endpoints.
type UserHandler struct {
	userUC usecase.UserUsecase
}

// UserHandlerParams holds dependencies for UserHandler, injected by Fx.
type UserHandlerParams struct {
	fx.In

	UserUC usecase.UserUsecase
}

// NewUserHandler creates a new UserHandler instance
func NewUserHandler(params UserHandlerParams) *UserHandler {
	return &UserHandler{userUC: params.UserUC}
}

// Login handles POST /api/users/login.
func (h *UserHandler) Login(c echo.Context) error {
	var input usecase.LoginInput
	if err := bindBody(c, &input); err != nil {
		return err
	}

	output, err := h.userUC.Authenticate(c.Request().Context(), input)
	if err != nil {
		return err
	}

	return response.Success(c, http.StatusOK, output)
}

// Register handles POST /api/users/register.
func (h *UserHandler) Register(c echo.Context) error {
	var input usecase.RegisterUserInput
	if err := bindBody(c, &input); err != nil {
		return err
	}

	output, err := h.userUC.RegisterUser(c.Request().Context(), input)
	if err != nil {
		return err
	}

	return response.Success(c, http.StatusCreated, output)
}

// Update handles PUT /api/users/:id.
func (h *UserHandler) Update(c echo.Context) error {
	var input usecase.UpdateUserInput
	if err := bindBody(c, &input); err != nil {
		return err
	}

	output, err := h.userUC.UpdateUser(c.Request().Context(), c.Param("id"), input)
	if err != nil {
		return err
	}

	return response.Success(c, http.StatusOK, output)
}

// Delete handles DELETE /api/users/:id.
func (h *UserHandler) Delete(c echo.Context) error {
	output, err := h.userUC.DeleteUser(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}

	return response.Success(c, http.StatusOK, output)
}

// GetAll handles GET /api/users/getAllUsers.
func (h *UserHandler) GetAll(c echo.Context) error {
	output, err := h.userUC.GetAllUsers(c.Request().Context())
	if err != nil {
		return err
	}

	return response.Success(c, http.StatusOK, output)
}

// bindBody decodes the request body only; path and query never feed inputs.
// Malformed bodies and bodies of an unsupported content type become a
// validation error naming the decode failure.
func bindBody(c echo.Context, dst any) error {
	err := (&echo.DefaultBinder{}).BindBody(c, dst)
	if err == nil {
		return nil
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) &&
		(httpErr.Code == http.StatusBadRequest || httpErr.Code == http.StatusUnsupportedMediaType) {
		detail := httpErr.Message
		if httpErr.Internal != nil {
			detail = httpErr.Internal.Error()
		}

		return errors.WithStack(domainerrors.ErrInvalidRequestBody.WithDetails(detail))
	}

	return errors.WithStack(err)
}
