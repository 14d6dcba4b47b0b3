// Package handler contains the audit worker's push endpoint.
package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"emuss/config"
	deliverycontext "emuss/internal/delivery/context"
	"emuss/internal/domain/constants"
	"emuss/internal/domain/entity"
	"emuss/internal/domain/repository"
	"emuss/internal/errors"
	"emuss/internal/infra/pubsub"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
	"google.golang.org/api/idtoken"
)

// tokenValidator matches idtoken.Validate.
type tokenValidator func(ctx context.Context, token, audience string) (*idtoken.Payload, error)

// PushHandler records user lifecycle events delivered by Pub/Sub push.
type PushHandler struct {
	verifyPushAuth bool
	validateToken  tokenValidator
	logger         *slog.Logger
	auditRepo      repository.AuditRepository
	now            func() time.Time
}

// PushHandlerParams holds dependencies for the PushHandler
type PushHandlerParams struct {
	fx.In

	Config    *config.Config
	Logger    *slog.Logger
	AuditRepo repository.AuditRepository
}

// NewPushHandler creates a new Pub/Sub push handler
func NewPushHandler(params PushHandlerParams) *PushHandler {
	// Only real Pub/Sub pushes carry an OIDC token.
	verifyPushAuth := params.Config.PubSub != nil &&
		params.Config.PubSub.Provider == constants.PubSubProviderGoogle &&
		params.Config.Env.Env != constants.EnvDevelop

	return &PushHandler{
		verifyPushAuth: verifyPushAuth,
		validateToken:  idtoken.Validate,
		logger:         params.Logger,
		auditRepo:      params.AuditRepo,
		now:            time.Now,
	}
}

// HandlePush handles POST /push. Malformed messages are rejected with 400;
// storage failures return 503 so Pub/Sub redelivers.
func (h *PushHandler) HandlePush(c echo.Context) error {
	ctx := c.Request().Context()

	if h.verifyPushAuth {
		if err := h.verifyPubSubToken(c.Request()); err != nil {
			h.logger.Warn("[Worker] Invalid Pub/Sub token", slog.Any("error", err))

			return c.NoContent(http.StatusUnauthorized)
		}
	}

	var pushMsg pubsub.PushMessage
	if err := c.Bind(&pushMsg); err != nil {
		h.logger.Error("[Worker] Failed to parse push message", slog.Any("error", err))

		return c.NoContent(http.StatusBadRequest)
	}

	event, err := decodeUserEvent(&pushMsg)
	if err != nil {
		h.logger.Error("[Worker] Failed to decode user event",
			slog.String("message_id", pushMsg.Message.MessageID),
			slog.Any("error", err),
		)

		return c.NoContent(http.StatusBadRequest)
	}

	requestID := extractRequestID(ctx, &pushMsg, event)
	reqLogger := h.logger.With(slog.String("request_id", requestID))
	ctx = deliverycontext.WithRequestID(ctx, requestID)
	ctx = deliverycontext.WithLogger(ctx, reqLogger)

	inserted, err := h.auditRepo.Record(ctx, &entity.AuditRecord{
		EventID:    event.ID,
		Type:       event.Type,
		UserID:     event.UserID,
		Email:      event.Email,
		RequestID:  requestID,
		OccurredAt: event.OccurredAt,
		ReceivedAt: h.now().UTC(),
	})
	if err != nil {
		reqLogger.Error("[Worker] Failed to record user event",
			slog.String("event_id", event.ID),
			slog.Any("error", err),
		)

		return c.NoContent(http.StatusServiceUnavailable)
	}

	reqLogger.Info("[Worker] User event processed",
		slog.String("event_id", event.ID),
		slog.String("event_type", string(event.Type)),
		slog.Int64("user_id", event.UserID),
		slog.Bool("duplicate", !inserted),
	)

	return c.NoContent(http.StatusOK)
}

// Health handles GET /health.
func (h *PushHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func decodeUserEvent(pushMsg *pubsub.PushMessage) (*entity.UserEvent, error) {
	data, err := base64.StdEncoding.DecodeString(pushMsg.Message.Data)
	if err != nil {
		return nil, errors.Wrap(err, "decode message data")
	}

	var event entity.UserEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, errors.Wrap(err, "parse user event")
	}

	switch {
	case event.ID == "":
		return nil, errors.New("event id is missing")
	case event.Type == "":
		return nil, errors.New("event type is missing")
	case event.OccurredAt.IsZero():
		return nil, errors.New("event time is missing")
	}

	return &event, nil
}

// extractRequestID prefers message attributes, then the event, then the
// X-Request-Id of the push request, and generates one as a last resort.
func extractRequestID(ctx context.Context, pushMsg *pubsub.PushMessage, event *entity.UserEvent) string {
	if requestID := pushMsg.Message.Attributes[pubsub.AttrRequestID]; requestID != "" {
		return requestID
	}
	if event.RequestID != "" {
		return event.RequestID
	}
	if requestID := deliverycontext.GetRequestIDFromContext(ctx); requestID != "" {
		return requestID
	}

	return uuid.New().String()
}

// verifyPubSubToken checks the Google-signed OIDC token Pub/Sub attaches to
// authenticated push requests. The audience is this endpoint's URL.
func (h *PushHandler) verifyPubSubToken(req *http.Request) error {
	authHeader := req.Header.Get(echo.HeaderAuthorization)
	if authHeader == "" {
		return errors.New("missing authorization header")
	}

	const bearerPrefix = "Bearer "
	if !strings.HasPrefix(authHeader, bearerPrefix) {
		return errors.New("invalid authorization header format")
	}
	token := strings.TrimPrefix(authHeader, bearerPrefix)

	scheme := "https"
	if req.TLS == nil {
		scheme = "http"
	}
	audience := fmt.Sprintf("%s://%s%s", scheme, req.Host, req.URL.Path)

	payload, err := h.validateToken(req.Context(), token, audience)
	if err != nil {
		return errors.Wrap(err, "failed to validate token")
	}

	if payload.Issuer != "accounts.google.com" && payload.Issuer != "https://accounts.google.com" {
		return errors.Errorf("invalid issuer: %s", payload.Issuer)
	}

	if emailVerified, ok := payload.Claims["email_verified"].(bool); ok && !emailVerified {
		return errors.New("email not verified")
	}

	return nil
}
