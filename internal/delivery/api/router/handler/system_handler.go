package handler

import (
	"net/http"
	"time"

	"emuss/config"
	"emuss/internal/delivery/api/response"
	"emuss/internal/domain/constants"

	"github.com/labstack/echo/v4"
)

// SystemHandler serves the health and root metadata endpoints.
type SystemHandler struct {
	environment string
	now         func() time.Time
}

// NewSystemHandler creates a new SystemHandler instance
func NewSystemHandler(cfg *config.Config) *SystemHandler {
	env := constants.EnvDevelop
	if cfg != nil && cfg.Env.Env != "" {
		env = cfg.Env.Env
	}

	return &SystemHandler{environment: env, now: time.Now}
}

// RootResponse describes the service and its endpoints.
type RootResponse struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	Version   string    `json:"version"`
	Endpoints Endpoints `json:"endpoints"`
	Timestamp string    `json:"timestamp"`
}

// Endpoints lists the public routes.
type Endpoints struct {
	Health string        `json:"health"`
	Users  UserEndpoints `json:"users"`
}

// UserEndpoints lists the user routes.
type UserEndpoints struct {
	Login    string `json:"login"`
	Register string `json:"register"`
	Update   string `json:"update"`
	Delete   string `json:"delete"`
	GetAll   string `json:"getAllUsers"`
}

// Health handles GET /api/health.
func (h *SystemHandler) Health(c echo.Context) error {
	return response.Success(c, http.StatusOK, response.HealthResponse{
		Success:     true,
		Message:     "Server is running",
		Timestamp:   response.Timestamp(h.now()),
		Environment: h.environment,
	})
}

// Root handles GET /.
func (h *SystemHandler) Root(c echo.Context) error {
	return response.Success(c, http.StatusOK, RootResponse{
		Success: true,
		Message: constants.ServiceDisplayName,
		Version: constants.ServiceVersion,
		Endpoints: Endpoints{
			Health: "/api/health",
			Users: UserEndpoints{
				Login:    "/api/users/login",
				Register: "/api/users/register",
				Update:   "/api/users/:id",
				Delete:   "/api/users/:id",
				GetAll:   "/api/users/getAllUsers",
			},
		},
		Timestamp: response.Timestamp(h.now()),
	})
}
